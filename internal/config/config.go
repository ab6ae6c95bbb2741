// Package config provides application configuration from environment
// variables.
package config

import (
	"fmt"
	"time"

	"github.com/kelseyhightower/envconfig"
)

// Settings holds all application configuration.
type Settings struct {
	LogLevel string `envconfig:"LOG_LEVEL" default:"info"`

	// HTTP server settings
	Host string `envconfig:"HOST" default:"0.0.0.0"`
	Port int    `envconfig:"PORT" default:"8585"`

	// Diagnostic tool settings
	SmartctlPath string        `envconfig:"SMARTCTL_PATH" default:"smartctl"`
	ProbeTimeout time.Duration `envconfig:"PROBE_TIMEOUT" default:"20s"`

	// Polling
	PollInterval time.Duration `envconfig:"POLL_INTERVAL" default:"30s"`

	// Push-update stream default cadence, used when a subscriber
	// passes no interval or an invalid one.
	StreamInterval time.Duration `envconfig:"STREAM_INTERVAL" default:"10s"`
}

// ListenAddr returns the address string for the HTTP server to bind to.
func (s *Settings) ListenAddr() string {
	return fmt.Sprintf("%s:%d", s.Host, s.Port)
}

// Load creates Settings from environment variables.
func Load() (*Settings, error) {
	s := &Settings{}
	if err := envconfig.Process("DRIVE_TELEMETRY", s); err != nil {
		return nil, fmt.Errorf("load config: %w", err)
	}
	return s, nil
}
