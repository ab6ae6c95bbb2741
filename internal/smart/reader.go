package smart

import (
	"context"
	"encoding/json"
	"errors"

	"github.com/rs/zerolog/log"

	"drive-telemetry/internal/probe"
)

// ErrNoTelemetry means every access-mode strategy was exhausted
// without a valid payload for the device.
var ErrNoTelemetry = errors.New("no usable telemetry from any access mode")

// accessMode is one argument configuration for querying a device. The
// variants address bridge/translation layers (USB-to-SATA enclosures
// and SCSI expanders) that break plain access.
type accessMode struct {
	name string
	args []string
}

// accessModes is tried strictly in order; the first payload passing
// the validity check wins.
var accessModes = []accessMode{
	{name: "auto"},
	{name: "sat", args: []string{"-d", "sat"}},
	{name: "sat,12", args: []string{"-d", "sat,12"}},
	{name: "scsi", args: []string{"-d", "scsi"}},
}

// Reader fetches raw telemetry for a single device.
type Reader struct {
	runner   probe.Runner
	smartctl string
}

// NewReader creates a Reader that invokes the given smartctl binary.
func NewReader(runner probe.Runner, smartctl string) *Reader {
	return &Reader{runner: runner, smartctl: smartctl}
}

// Read tries each access mode against the device and returns the first
// valid payload. Invocation and parse failures are skipped silently;
// the periodic poll is the retry mechanism, so there are no retries
// here. Exhaustion yields ErrNoTelemetry.
func (r *Reader) Read(ctx context.Context, device string) (*Telemetry, error) {
	for _, mode := range accessModes {
		args := make([]string, 0, len(mode.args)+3)
		args = append(args, mode.args...)
		args = append(args, "-a", "-j", device)

		res, err := r.runner.Run(ctx, r.smartctl, args...)
		if err != nil {
			log.Debug().Err(err).Str("device", device).Str("mode", mode.name).
				Msg("Probe invocation failed, trying next access mode")
			continue
		}

		var tel Telemetry
		if err := json.Unmarshal(res.Stdout, &tel); err != nil {
			log.Debug().Err(err).Str("device", device).Str("mode", mode.name).
				Msg("Unparseable probe output, trying next access mode")
			continue
		}
		if !tel.Valid() {
			log.Debug().Str("device", device).Str("mode", mode.name).
				Msg("Payload carries no identity, trying next access mode")
			continue
		}

		log.Debug().Str("device", device).Str("mode", mode.name).Msg("Device read")
		return &tel, nil
	}
	return nil, ErrNoTelemetry
}
