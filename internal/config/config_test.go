package config

import (
	"os"
	"testing"
	"time"
)

func TestLoadDefaults(t *testing.T) {
	for _, key := range []string{"PORT", "POLL_INTERVAL", "SMARTCTL_PATH", "STREAM_INTERVAL"} {
		os.Unsetenv(key)
		os.Unsetenv("DRIVE_TELEMETRY_" + key)
	}

	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load: %v", err)
	}

	if cfg.Port != 8585 {
		t.Errorf("default port = %v, want 8585", cfg.Port)
	}
	if cfg.SmartctlPath != "smartctl" {
		t.Errorf("default smartctl path = %v, want smartctl", cfg.SmartctlPath)
	}
	if cfg.PollInterval != 30*time.Second {
		t.Errorf("default poll interval = %v, want 30s", cfg.PollInterval)
	}
	if cfg.StreamInterval != 10*time.Second {
		t.Errorf("default stream interval = %v, want 10s", cfg.StreamInterval)
	}
	if cfg.ProbeTimeout != 20*time.Second {
		t.Errorf("default probe timeout = %v, want 20s", cfg.ProbeTimeout)
	}
}

func TestLoadFromEnv(t *testing.T) {
	os.Setenv("PORT", "9100")
	os.Setenv("POLL_INTERVAL", "2m")
	os.Setenv("SMARTCTL_PATH", "/usr/local/sbin/smartctl")
	defer os.Unsetenv("PORT")
	defer os.Unsetenv("POLL_INTERVAL")
	defer os.Unsetenv("SMARTCTL_PATH")

	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load: %v", err)
	}

	if cfg.Port != 9100 {
		t.Errorf("port from env = %v, want 9100", cfg.Port)
	}
	if cfg.PollInterval != 2*time.Minute {
		t.Errorf("poll interval from env = %v, want 2m", cfg.PollInterval)
	}
	if cfg.SmartctlPath != "/usr/local/sbin/smartctl" {
		t.Errorf("smartctl path from env = %v", cfg.SmartctlPath)
	}
}

func TestListenAddr(t *testing.T) {
	s := &Settings{Host: "127.0.0.1", Port: 8080}
	if got := s.ListenAddr(); got != "127.0.0.1:8080" {
		t.Errorf("ListenAddr() = %v, want 127.0.0.1:8080", got)
	}
}
