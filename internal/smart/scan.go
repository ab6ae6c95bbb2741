package smart

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/rs/zerolog/log"

	"drive-telemetry/internal/probe"
)

// Scanner enumerates addressable storage devices via smartctl's scan
// mode.
type Scanner struct {
	runner   probe.Runner
	smartctl string
}

// NewScanner creates a Scanner that invokes the given smartctl binary.
func NewScanner(runner probe.Runner, smartctl string) *Scanner {
	return &Scanner{runner: runner, smartctl: smartctl}
}

// Scan returns the device identifiers smartctl reports. Unparseable or
// failed scans degrade to an empty list; only a missing smartctl
// binary is returned as an error, so the poll cycle can tell "tool
// absent" apart from "zero drives present".
func (s *Scanner) Scan(ctx context.Context) ([]string, error) {
	res, err := s.runner.Run(ctx, s.smartctl, "--scan", "-j")
	if err != nil {
		if errors.Is(err, probe.ErrNotFound) {
			return nil, fmt.Errorf("scan devices: %w", err)
		}
		log.Warn().Err(err).Msg("Device scan failed, treating as no devices")
		return nil, nil
	}

	var out struct {
		Devices []struct {
			Name string `json:"name"`
		} `json:"devices"`
	}
	if err := json.Unmarshal(res.Stdout, &out); err != nil {
		log.Warn().Err(err).Msg("Unparseable scan output, treating as no devices")
		return nil, nil
	}

	devices := make([]string, 0, len(out.Devices))
	for _, d := range out.Devices {
		if d.Name != "" {
			devices = append(devices, d.Name)
		}
	}
	return devices, nil
}
