// Package collector orchestrates the poll cycle: device enumeration,
// per-device reads, normalization, and atomic snapshot publication.
package collector

import (
	"context"
	"sync/atomic"
	"time"

	"github.com/rs/zerolog"

	"drive-telemetry/internal/metrics"
	"drive-telemetry/internal/smart"
	"drive-telemetry/pkg/types"
)

// DeviceScanner enumerates addressable storage devices.
type DeviceScanner interface {
	Scan(ctx context.Context) ([]string, error)
}

// DeviceReader fetches raw telemetry for one device.
type DeviceReader interface {
	Read(ctx context.Context, device string) (*smart.Telemetry, error)
}

// VolumeLister reports mounted volume usage, independent of the
// diagnostic tool.
type VolumeLister interface {
	List(ctx context.Context) ([]types.VolumeRecord, error)
}

// Poller runs the poll loop and holds the published snapshot. The loop
// goroutine is the sole writer; readers call Snapshot at any time and
// never block on in-flight hardware probes.
type Poller struct {
	scanner  DeviceScanner
	reader   DeviceReader
	volumes  VolumeLister
	metrics  *metrics.Metrics
	interval time.Duration
	log      zerolog.Logger

	// refresh has capacity 1 so concurrent manual triggers coalesce
	// into a single subsequent cycle instead of overlapping sweeps.
	refresh chan struct{}
	current atomic.Pointer[types.Snapshot]
}

// New creates a Poller. volumes may be nil when volume collection is
// unavailable.
func New(scanner DeviceScanner, reader DeviceReader, volumes VolumeLister, m *metrics.Metrics, interval time.Duration, log zerolog.Logger) *Poller {
	return &Poller{
		scanner:  scanner,
		reader:   reader,
		volumes:  volumes,
		metrics:  m,
		interval: interval,
		log:      log,
		refresh:  make(chan struct{}, 1),
	}
}

// Snapshot returns the last complete published snapshot. Before the
// first cycle it returns an empty, non-nil snapshot.
func (p *Poller) Snapshot() *types.Snapshot {
	if s := p.current.Load(); s != nil {
		return s
	}
	return &types.Snapshot{Drives: []types.DriveRecord{}, Volumes: []types.VolumeRecord{}}
}

// Refresh schedules one extra cycle. It never blocks and never starts
// a sweep concurrent with one already in flight.
func (p *Poller) Refresh() {
	select {
	case p.refresh <- struct{}{}:
	default:
	}
}

// Run polls immediately, then on every interval tick or manual
// refresh, until ctx is cancelled.
func (p *Poller) Run(ctx context.Context) {
	p.metrics.ServiceUp.Set(1)
	defer p.metrics.ServiceUp.Set(0)

	p.runCycle(ctx)

	ticker := time.NewTicker(p.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
		case <-p.refresh:
		}
		if ctx.Err() != nil {
			return
		}
		p.runCycle(ctx)
	}
}

// runCycle performs one complete sweep. One bad device never blocks
// the others; only a total inability to run the diagnostic tool aborts
// the cycle and leaves the previous snapshot in place.
func (p *Poller) runCycle(ctx context.Context) {
	start := time.Now()

	devices, err := p.scanner.Scan(ctx)
	if err != nil {
		p.metrics.ScanFailures.Inc()
		p.log.Error().Err(err).Msg("Cycle aborted, keeping previous snapshot")
		return
	}
	if len(devices) == 0 {
		p.log.Warn().Msg("No drives found")
	}

	drives := make([]types.DriveRecord, 0, len(devices))
	failed := 0
	for _, device := range devices {
		tel, err := p.reader.Read(ctx, device)
		if err != nil {
			failed++
			p.metrics.DriveReadFailures.WithLabelValues(device).Inc()
			p.log.Warn().Err(err).Str("device", device).Msg("Device unreadable")
			drives = append(drives, types.NewErrorRecord(device, err.Error()))
			continue
		}
		drives = append(drives, smart.Normalize(device, tel))
	}

	volumes := []types.VolumeRecord{}
	if p.volumes != nil {
		v, err := p.volumes.List(ctx)
		if err != nil {
			p.log.Warn().Err(err).Msg("Volume collection failed")
		} else {
			volumes = v
		}
	}

	snap := &types.Snapshot{
		GeneratedAt: time.Now().UTC(),
		Drives:      drives,
		Volumes:     volumes,
	}
	snap.SortDrives()
	p.current.Store(snap)

	p.publishMetrics(snap)
	p.metrics.PollCycles.Inc()
	p.metrics.PollDuration.Set(time.Since(start).Seconds())

	p.log.Info().
		Int("drives", len(drives)).
		Int("failed", failed).
		Int("volumes", len(volumes)).
		Dur("elapsed", time.Since(start)).
		Msg("Poll cycle complete")
}

func (p *Poller) publishMetrics(snap *types.Snapshot) {
	p.metrics.Reset()
	for _, d := range snap.Drives {
		if d.Error {
			continue
		}
		if d.HealthPercent != nil {
			p.metrics.DriveHealthPercent.WithLabelValues(d.Device, string(d.Type), d.Model, d.Serial).Set(*d.HealthPercent)
		}
		if d.LiveTemperatureC != nil {
			p.metrics.DriveTemperature.WithLabelValues(d.Device, d.Model, d.Serial).Set(float64(*d.LiveTemperatureC))
		}
		p.metrics.DriveWrittenGB.WithLabelValues(d.Device, d.Model, d.Serial).Set(d.WrittenGB)
		p.metrics.DrivePowerOnHours.WithLabelValues(d.Device, d.Model, d.Serial).Set(float64(d.PowerOnHours))
	}
}
