package types

import (
	"encoding/json"
	"sort"
	"time"
)

// DriveType identifies which device family a record was normalized from.
type DriveType string

const (
	DriveTypeNVMe    DriveType = "nvme"
	DriveTypeATA     DriveType = "ata"
	DriveTypeSCSI    DriveType = "scsi"
	DriveTypeUnknown DriveType = "unknown"
)

// DriveRecord is the canonical, device-type-agnostic telemetry for one
// drive. NVMe-specific counters are zero for other families so the wire
// schema stays uniform. A record is either full telemetry or an error
// entry (Error set), never both.
type DriveRecord struct {
	Device string    `json:"Device"`
	Type   DriveType `json:"Type"`
	Model  string    `json:"Model"`
	Serial string    `json:"Serial"`

	// HealthPercent is nil when no usable wear or pass/fail signal
	// exists; that is a legitimate unknown, not an error.
	HealthPercent *float64 `json:"HealthPercent,omitempty"`

	WrittenGB       float64 `json:"WrittenGB"`
	PowerCycles     int64   `json:"PowerCycles"`
	PowerOnHours    int64   `json:"PowerOnHours"`
	UnsafeShutdowns int64   `json:"UnsafeShutdowns"`

	DataUnitsRead             int64 `json:"DataUnitsRead"`
	DataUnitsWritten          int64 `json:"DataUnitsWritten"`
	HostReadCommands          int64 `json:"HostReadCommands"`
	HostWriteCommands         int64 `json:"HostWriteCommands"`
	ControllerBusyTimeMinutes int64 `json:"ControllerBusyTimeMinutes"`
	MediaDataIntegrityErrors  int64 `json:"MediaDataIntegrityErrors"`
	ErrorLogEntries           int64 `json:"ErrorLogEntries"`

	CompositeTemperatureK int64 `json:"CompositeTemperatureK"`
	LiveTemperatureC      *int  `json:"LiveTemperatureC,omitempty"`

	CriticalWarning         int64 `json:"CriticalWarning"`
	AvailableSparePercent   int64 `json:"AvailableSparePercent"`
	AvailableSpareThreshold int64 `json:"AvailableSpareThreshold"`
	PercentageUsed          int64 `json:"PercentageUsed"`
	WarningTempTimeMinutes  int64 `json:"WarningTempTimeMinutes"`
	CriticalTempTimeMinutes int64 `json:"CriticalTempTimeMinutes"`

	Error   bool   `json:"error,omitempty"`
	Message string `json:"message,omitempty"`
}

// NewErrorRecord builds the per-device failure entry published when a
// drive could not be read at all.
func NewErrorRecord(device, message string) DriveRecord {
	return DriveRecord{Device: device, Error: true, Message: message}
}

// errorRecord is the reduced wire shape for unreadable devices.
type errorRecord struct {
	Device  string `json:"Device"`
	Error   bool   `json:"error"`
	Message string `json:"message"`
}

// MarshalJSON keeps error entries mutually exclusive with telemetry
// fields: an error record serializes as {Device, error, message} only.
func (r DriveRecord) MarshalJSON() ([]byte, error) {
	if r.Error {
		return json.Marshal(errorRecord{Device: r.Device, Error: true, Message: r.Message})
	}
	type full DriveRecord
	return json.Marshal(full(r))
}

// VolumeRecord describes free/used space for one mounted volume. It is
// unrelated to drive records beyond co-appearing in the snapshot.
type VolumeRecord struct {
	DriveLetter  string  `json:"DriveLetter"`
	VolumeName   string  `json:"VolumeName"`
	FreeGB       float64 `json:"FreeGB"`
	UsedGB       float64 `json:"UsedGB"`
	UsagePercent float64 `json:"UsagePercent"`
}

// Snapshot is the complete result of one poll cycle. It is immutable
// once published; the poller replaces the whole snapshot atomically.
type Snapshot struct {
	GeneratedAt time.Time      `json:"generated_at"`
	Drives      []DriveRecord  `json:"drives"`
	Volumes     []VolumeRecord `json:"volumes"`
}

// SortDrives orders the drive list by device identifier, ascending, so
// published snapshots are deterministic regardless of discovery order.
func (s *Snapshot) SortDrives() {
	sort.Slice(s.Drives, func(i, j int) bool {
		return s.Drives[i].Device < s.Drives[j].Device
	})
}
