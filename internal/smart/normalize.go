package smart

import (
	"math"
	"regexp"
	"strconv"
	"strings"

	"drive-telemetry/pkg/types"
)

const (
	// nvmeDataUnitBytes is the size of one NVMe "data unit": 1000
	// blocks of 512 bytes, per the NVMe specification.
	nvmeDataUnitBytes = 512000
	// ataLBABytes is the logical block size assumed for vendor
	// LBAs-written attributes.
	ataLBABytes = 512
	gib         = 1 << 30
	kelvinZeroC = 273
)

// writtenAttrIDs are the vendor attribute IDs that can carry total
// LBAs written. The name check guards against firmware that reuses
// 242 for reads.
var writtenAttrIDs = []int{241, 242}

// wearAttrIDs are vendor "remaining life" attributes whose normalized
// value approximates health percent directly. Consulted in order.
var wearAttrIDs = []int{231, 233, 177, 202, 173, 169}

// wearAttrName matches attribute names that signal a wear/life
// percentage when the ID is not in the known set.
var wearAttrName = regexp.MustCompile(`(?i)wear|life|percent`)

// tempAttrIDs are the vendor temperature attributes, in priority
// order: 194 Temperature_Celsius, then 190 Airflow_Temperature_Cel.
var tempAttrIDs = []int{194, 190}

var firstInteger = regexp.MustCompile(`-?\d+`)

// Normalize converts one validated raw payload into the canonical
// drive record. It is pure and total: absent or malformed sub-fields
// degrade to defaults, and the same input always yields the same
// record.
func Normalize(device string, tel *Telemetry) types.DriveRecord {
	rec := types.DriveRecord{
		Device: device,
		Type:   deviceType(tel.Device.Type),
		Model:  tel.ModelName,
		Serial: tel.SerialNumber,

		PowerOnHours: counter(tel.PowerOnTime.Hours),
		PowerCycles:  counter(tel.PowerCycleCount),
	}

	if rec.Type == types.DriveTypeNVMe && tel.NVMeLog != nil {
		fillNVMe(&rec, tel.NVMeLog)
	} else {
		fillATA(&rec, tel)
	}

	rec.HealthPercent = healthPercent(rec.Type, tel)
	rec.LiveTemperatureC = liveTemperature(rec.Type, tel)
	return rec
}

// deviceType trusts the payload's type tag when present and recognized.
func deviceType(tag string) types.DriveType {
	switch tag {
	case "nvme":
		return types.DriveTypeNVMe
	case "ata", "sat":
		return types.DriveTypeATA
	case "scsi":
		return types.DriveTypeSCSI
	default:
		return types.DriveTypeUnknown
	}
}

func fillNVMe(rec *types.DriveRecord, nvme *NVMeHealthLog) {
	rec.DataUnitsRead = counter(nvme.DataUnitsRead)
	rec.DataUnitsWritten = counter(nvme.DataUnitsWritten)
	rec.HostReadCommands = counter(nvme.HostReadCommands)
	rec.HostWriteCommands = counter(nvme.HostWriteCommands)
	rec.ControllerBusyTimeMinutes = counter(nvme.ControllerBusyTime)
	rec.MediaDataIntegrityErrors = counter(nvme.MediaErrors)
	rec.ErrorLogEntries = counter(nvme.NumErrLogEntries)
	rec.CriticalWarning = counter(nvme.CriticalWarning)
	rec.AvailableSparePercent = counter(nvme.AvailableSpare)
	rec.AvailableSpareThreshold = counter(nvme.AvailableSpareThreshold)
	rec.PercentageUsed = counter(nvme.PercentageUsed)
	rec.WarningTempTimeMinutes = counter(nvme.WarningTempTime)
	rec.CriticalTempTimeMinutes = counter(nvme.CriticalCompTime)
	rec.CompositeTemperatureK = counter(nvme.CompositeTemperature)

	// The health log's power counters are authoritative for NVMe.
	if nvme.PowerOnHours.Defined() {
		rec.PowerOnHours = counter(nvme.PowerOnHours)
	}
	if nvme.PowerCycles.Defined() {
		rec.PowerCycles = counter(nvme.PowerCycles)
	}
	rec.UnsafeShutdowns = counter(nvme.UnsafeShutdowns)

	rec.WrittenGB = writtenGB(nvme.DataUnitsWritten.Float64(0), nvmeDataUnitBytes)
}

func fillATA(rec *types.DriveRecord, tel *Telemetry) {
	rec.ErrorLogEntries = counter(tel.AtaSmartErrorLog.Summary.Count)

	for _, id := range writtenAttrIDs {
		attr, ok := findAttribute(tel, id)
		if !ok || !strings.Contains(attr.Name, "Written") {
			continue
		}
		rec.WrittenGB = writtenGB(attr.Raw.Value.Float64(0), ataLBABytes)
		break
	}
}

// writtenGB converts a unit count to gigabytes, rounded to two
// decimals and floored at zero against malformed negative counters.
func writtenGB(units float64, unitBytes float64) float64 {
	v := round2(units * unitBytes / gib)
	if v < 0 {
		return 0
	}
	return v
}

// counter coerces a tolerant number to a non-negative int64; absent,
// malformed, or negative values become 0.
func counter(n Number) int64 {
	if v := n.Int64(0); v > 0 {
		return v
	}
	return 0
}

// healthPercent derives the wear/health percentage, first match wins:
// an explicit wear attribute, then the overall pass/fail flag, then
// undefined. The result is clamped to [0,100] for both families;
// malformed firmware values outside that range are not propagated.
func healthPercent(typ types.DriveType, tel *Telemetry) *float64 {
	if typ == types.DriveTypeNVMe && tel.NVMeLog != nil && tel.NVMeLog.PercentageUsed.Defined() {
		return clampPercent(100 - tel.NVMeLog.PercentageUsed.Float64(0))
	}
	if typ != types.DriveTypeNVMe {
		if attr, ok := wearAttribute(tel); ok && attr.Value.Defined() {
			return clampPercent(attr.Value.Float64(0))
		}
	}
	if tel.SmartStatus != nil {
		if tel.SmartStatus.Passed {
			return clampPercent(100)
		}
		return clampPercent(0)
	}
	return nil
}

// wearAttribute locates the vendor remaining-life attribute: known IDs
// in priority order, then the first attribute whose name looks like a
// wear/life percentage.
func wearAttribute(tel *Telemetry) (Attribute, bool) {
	for _, id := range wearAttrIDs {
		if attr, ok := findAttribute(tel, id); ok {
			return attr, true
		}
	}
	for _, attr := range tel.AtaSmartAttributes.Table {
		if wearAttrName.MatchString(attr.Name) {
			return attr, true
		}
	}
	return Attribute{}, false
}

// liveTemperature extracts the current temperature in Celsius, in
// priority order: the top-level field, then the family-specific
// sources, then undefined.
func liveTemperature(typ types.DriveType, tel *Telemetry) *int {
	if tel.Temperature.Current.Defined() {
		return intPtr(int(tel.Temperature.Current.Float64(0)))
	}

	if typ == types.DriveTypeNVMe && tel.NVMeLog != nil {
		if tel.NVMeLog.CompositeTemperature.Defined() {
			return intPtr(int(tel.NVMeLog.CompositeTemperature.Float64(0)) - kelvinZeroC)
		}
		if len(tel.NVMeLog.TemperatureSensors) > 0 && tel.NVMeLog.TemperatureSensors[0].Defined() {
			return intPtr(int(tel.NVMeLog.TemperatureSensors[0].Float64(0)) - kelvinZeroC)
		}
		return nil
	}

	for _, id := range tempAttrIDs {
		attr, ok := findAttribute(tel, id)
		if !ok {
			continue
		}
		if attr.Value.Defined() {
			return intPtr(int(attr.Value.Float64(0)))
		}
		if m := firstInteger.FindString(attr.Raw.String); m != "" {
			if v, err := strconv.Atoi(m); err == nil {
				return intPtr(v)
			}
		}
	}
	return nil
}

func findAttribute(tel *Telemetry, id int) (Attribute, bool) {
	for _, attr := range tel.AtaSmartAttributes.Table {
		if attr.ID == id {
			return attr, true
		}
	}
	return Attribute{}, false
}

func clampPercent(v float64) *float64 {
	if v < 0 {
		v = 0
	}
	if v > 100 {
		v = 100
	}
	return &v
}

func intPtr(v int) *int { return &v }

func round2(v float64) float64 {
	return math.Round(v*100) / 100
}
