package config

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"
)

func TestLoadWritesDefaultOnFirstRun(t *testing.T) {
	path := filepath.Join(t.TempDir(), "conf", "config.yaml")

	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("Load error = %v", err)
	}
	if cfg.Listen != ":8080" || cfg.Timeline.DayStartHour != 9 || cfg.Timeline.DayEndHour != 21 {
		t.Fatalf("unexpected defaults %+v", cfg)
	}
	if _, err := os.Stat(path); err != nil {
		t.Fatalf("default config not written: %v", err)
	}

	again, err := Load(path)
	if err != nil {
		t.Fatalf("second Load error = %v", err)
	}
	if again.Optimizer.URL != cfg.Optimizer.URL || again.Sessions.IdleTimeout != "2h" {
		t.Fatalf("round trip mismatch: %+v", again)
	}
}

func TestLoadPartialFileIsNormalized(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	body := strings.Join([]string{
		"listen: 127.0.0.1:9000",
		"optimizer:",
		"  url: http://optimizer:8000/",
		"timeline:",
		"  day_start_hour: 7",
		"  day_end_hour: 22",
		"  snap_minutes: 15",
	}, "\n")
	if err := os.WriteFile(path, []byte(body), 0o644); err != nil {
		t.Fatalf("writing config: %v", err)
	}

	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("Load error = %v", err)
	}
	if err := cfg.Validate(); err != nil {
		t.Fatalf("Validate error = %v", err)
	}

	grid := cfg.Grid()
	if grid.DayStartHour != 7 || grid.DayEndHour != 22 || grid.SnapMinutes != 15 || grid.HourWidthPx != 100 {
		t.Fatalf("grid = %+v", grid)
	}
	client := cfg.OptimizerClient()
	if client.BaseURL != "http://optimizer:8000" || client.Path != "/api/cluster-places/" || client.Timeout != time.Minute {
		t.Fatalf("optimizer client = %+v", client)
	}
	sessions := cfg.SessionManager()
	if sessions.IdleTimeout != 2*time.Hour || sessions.JournalRetention != 30*24*time.Hour {
		t.Fatalf("session config = %+v", sessions)
	}
}

func TestApplyEnv(t *testing.T) {
	t.Setenv(EnvOptimizerURL, "http://env-optimizer:9000/")
	t.Setenv(EnvListen, ":7000")
	t.Setenv(EnvDataDir, "/var/lib/itinerary")

	cfg := DefaultConfig()
	cfg.ApplyEnv(nil)

	if cfg.Optimizer.URL != "http://env-optimizer:9000" || cfg.Listen != ":7000" {
		t.Fatalf("env not applied: %+v", cfg)
	}
	if cfg.JournalPath() != filepath.Join("/var/lib/itinerary", "itinerary.db") {
		t.Fatalf("JournalPath = %s", cfg.JournalPath())
	}
}

func TestValidateRejectsBadValues(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(*Config)
	}{
		{name: "empty listen", mutate: func(c *Config) { c.Listen = "" }},
		{name: "bad url", mutate: func(c *Config) { c.Optimizer.URL = "optimizer" }},
		{name: "inverted window", mutate: func(c *Config) { c.Timeline.DayStartHour = 22; c.Timeline.DayEndHour = 8 }},
		{name: "bad snap", mutate: func(c *Config) { c.Timeline.SnapMinutes = 7 }},
		{name: "bad timeout", mutate: func(c *Config) { c.Optimizer.Timeout = "soon" }},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := DefaultConfig()
			tt.mutate(cfg)
			if err := cfg.Validate(); err == nil {
				t.Fatal("Validate accepted invalid config")
			}
		})
	}
}
