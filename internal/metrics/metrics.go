package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
)

// Metrics holds all Prometheus metrics published by the service.
type Metrics struct {
	DriveHealthPercent *prometheus.GaugeVec
	DriveTemperature   *prometheus.GaugeVec
	DriveWrittenGB     *prometheus.GaugeVec
	DrivePowerOnHours  *prometheus.GaugeVec
	DriveReadFailures  *prometheus.CounterVec
	PollCycles         prometheus.Counter
	PollDuration       prometheus.Gauge
	ScanFailures       prometheus.Counter
	ServiceUp          prometheus.Gauge
}

// New creates and registers all metrics on the default registry.
func New() *Metrics {
	return NewWith(prometheus.DefaultRegisterer)
}

// NewWith creates all metrics and registers them on reg.
func NewWith(reg prometheus.Registerer) *Metrics {
	m := &Metrics{
		DriveHealthPercent: prometheus.NewGaugeVec(
			prometheus.GaugeOpts{
				Name: "drive_health_percent",
				Help: "Derived drive health percentage (0-100), absent when unknown",
			},
			[]string{"device", "type", "model", "serial"},
		),
		DriveTemperature: prometheus.NewGaugeVec(
			prometheus.GaugeOpts{
				Name: "drive_temperature_celsius",
				Help: "Current drive temperature in Celsius",
			},
			[]string{"device", "model", "serial"},
		),
		DriveWrittenGB: prometheus.NewGaugeVec(
			prometheus.GaugeOpts{
				Name: "drive_written_gigabytes",
				Help: "Total data written to the drive in gigabytes",
			},
			[]string{"device", "model", "serial"},
		),
		DrivePowerOnHours: prometheus.NewGaugeVec(
			prometheus.GaugeOpts{
				Name: "drive_power_on_hours_total",
				Help: "Total power-on hours for the drive",
			},
			[]string{"device", "model", "serial"},
		),
		DriveReadFailures: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "drive_read_failures_total",
				Help: "Per-device read failures after exhausting all access modes",
			},
			[]string{"device"},
		),
		PollCycles: prometheus.NewCounter(
			prometheus.CounterOpts{
				Name: "poll_cycles_total",
				Help: "Completed poll cycles",
			},
		),
		PollDuration: prometheus.NewGauge(
			prometheus.GaugeOpts{
				Name: "poll_cycle_duration_seconds",
				Help: "Duration of the last completed poll cycle",
			},
		),
		ScanFailures: prometheus.NewCounter(
			prometheus.CounterOpts{
				Name: "device_scan_failures_total",
				Help: "Poll cycles aborted because the diagnostic tool could not run",
			},
		),
		ServiceUp: prometheus.NewGauge(
			prometheus.GaugeOpts{
				Name: "drive_telemetry_up",
				Help: "Whether the telemetry poller is running",
			},
		),
	}

	reg.MustRegister(
		m.DriveHealthPercent,
		m.DriveTemperature,
		m.DriveWrittenGB,
		m.DrivePowerOnHours,
		m.DriveReadFailures,
		m.PollCycles,
		m.PollDuration,
		m.ScanFailures,
		m.ServiceUp,
	)
	return m
}

// Reset clears all per-drive gauges before a cycle republishes them,
// so devices that disappeared do not linger with stale values.
func (m *Metrics) Reset() {
	m.DriveHealthPercent.Reset()
	m.DriveTemperature.Reset()
	m.DriveWrittenGB.Reset()
	m.DrivePowerOnHours.Reset()
}
