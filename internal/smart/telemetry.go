// Package smart interprets smartctl output: it enumerates devices,
// reads raw telemetry through an ordered list of access-mode
// strategies, and normalizes the family-specific payloads into the
// canonical drive record.
package smart

// Telemetry is the typed shape of one `smartctl -a -j` payload. Only
// the fields the normalizer consumes are declared; counters that vary
// in type across firmware use Number so decoding stays total.
type Telemetry struct {
	Device struct {
		Name     string `json:"name"`
		Type     string `json:"type"`
		Protocol string `json:"protocol"`
	} `json:"device"`

	ModelName    string `json:"model_name"`
	SerialNumber string `json:"serial_number"`

	// SmartStatus is a pointer so "flag absent" is distinguishable
	// from "flag present and failed".
	SmartStatus *struct {
		Passed bool `json:"passed"`
	} `json:"smart_status"`

	Temperature struct {
		Current Number `json:"current"`
	} `json:"temperature"`

	PowerOnTime struct {
		Hours Number `json:"hours"`
	} `json:"power_on_time"`
	PowerCycleCount Number `json:"power_cycle_count"`

	AtaSmartAttributes struct {
		Table []Attribute `json:"table"`
	} `json:"ata_smart_attributes"`

	AtaSmartErrorLog struct {
		Summary struct {
			Count Number `json:"count"`
		} `json:"summary"`
	} `json:"ata_smart_error_log"`

	NVMeLog *NVMeHealthLog `json:"nvme_smart_health_information_log"`
}

// Attribute is one row of the vendor SMART attribute table.
type Attribute struct {
	ID    int    `json:"id"`
	Name  string `json:"name"`
	Value Number `json:"value"`
	Worst Number `json:"worst"`
	Raw   struct {
		Value  Number `json:"value"`
		String string `json:"string"`
	} `json:"raw"`
}

// NVMeHealthLog mirrors the NVMe SMART/health information log page.
type NVMeHealthLog struct {
	CriticalWarning         Number   `json:"critical_warning"`
	CompositeTemperature    Number   `json:"composite_temperature"`
	TemperatureSensors      []Number `json:"temperature_sensors"`
	AvailableSpare          Number   `json:"available_spare"`
	AvailableSpareThreshold Number   `json:"available_spare_threshold"`
	PercentageUsed          Number   `json:"percentage_used"`
	DataUnitsRead           Number   `json:"data_units_read"`
	DataUnitsWritten        Number   `json:"data_units_written"`
	HostReadCommands        Number   `json:"host_read_commands"`
	HostWriteCommands       Number   `json:"host_write_commands"`
	ControllerBusyTime      Number   `json:"controller_busy_time"`
	PowerCycles             Number   `json:"power_cycles"`
	PowerOnHours            Number   `json:"power_on_hours"`
	UnsafeShutdowns         Number   `json:"unsafe_shutdowns"`
	MediaErrors             Number   `json:"media_errors"`
	NumErrLogEntries        Number   `json:"num_err_log_entries"`
	WarningTempTime         Number   `json:"warning_temp_time"`
	CriticalCompTime        Number   `json:"critical_comp_time"`
}

// recognizedTypes are the device.type tags that count toward payload
// validity when model and serial are both missing.
var recognizedTypes = map[string]struct{}{
	"nvme": {},
	"ata":  {},
	"sat":  {},
	"scsi": {},
}

// Valid reports whether a payload carries enough identity to be worth
// normalizing: a model name, a serial number, or a recognized type tag.
func (t *Telemetry) Valid() bool {
	if t.ModelName != "" || t.SerialNumber != "" {
		return true
	}
	_, ok := recognizedTypes[t.Device.Type]
	return ok
}
