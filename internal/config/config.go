// Package config loads the server configuration from a YAML file with
// environment overrides.
package config

import (
	"errors"
	"fmt"
	"io/fs"
	"net/url"
	"os"
	"path/filepath"
	"strings"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/itinerary-planner/backend/internal/optimizer"
	"github.com/itinerary-planner/backend/internal/session"
	"github.com/itinerary-planner/backend/internal/timeline"
)

// Environment variables that override the file.
const (
	EnvOptimizerURL = "ITINERARY_OPTIMIZER_URL"
	EnvListen       = "ITINERARY_LISTEN"
	EnvDataDir      = "ITINERARY_DATA_DIR"
)

// OptimizerConfig locates the external optimizer.
type OptimizerConfig struct {
	URL     string `yaml:"url" json:"url"`
	Path    string `yaml:"path" json:"path"`
	Timeout string `yaml:"timeout" json:"timeout"`
}

// TimelineConfig describes the per-day grid and its schedulable window.
type TimelineConfig struct {
	DayStartHour int     `yaml:"day_start_hour" json:"day_start_hour"`
	DayEndHour   int     `yaml:"day_end_hour" json:"day_end_hour"`
	HourWidthPx  float64 `yaml:"hour_width_px" json:"hour_width_px"`
	RowHeightPx  float64 `yaml:"row_height_px" json:"row_height_px"`
	SnapMinutes  int     `yaml:"snap_minutes" json:"snap_minutes"`
}

// SessionsConfig controls session expiry and journal retention.
type SessionsConfig struct {
	IdleTimeout      string `yaml:"idle_timeout" json:"idle_timeout"`
	SweepSchedule    string `yaml:"sweep_schedule" json:"sweep_schedule"`
	JournalRetention string `yaml:"journal_retention" json:"journal_retention"`
	PruneSchedule    string `yaml:"prune_schedule" json:"prune_schedule"`
}

// Config is the top-level application configuration.
type Config struct {
	// Listen is the HTTP listen address.
	Listen string `yaml:"listen" json:"listen"`

	// DataDir holds the optimizer run journal.
	DataDir string `yaml:"data_dir" json:"data_dir"`

	// StaticDir, if set, is served at / for the timeline UI.
	StaticDir string `yaml:"static_dir" json:"static_dir"`

	// Journal toggles the SQLite optimizer run journal.
	Journal bool `yaml:"journal" json:"journal"`

	Optimizer OptimizerConfig `yaml:"optimizer" json:"optimizer"`
	Timeline  TimelineConfig  `yaml:"timeline" json:"timeline"`
	Sessions  SessionsConfig  `yaml:"sessions" json:"sessions"`
}

// DefaultConfig returns an in-memory default configuration.
func DefaultConfig() *Config {
	grid := timeline.DefaultGrid()
	return &Config{
		Listen:  ":8080",
		DataDir: "./data",
		Journal: true,
		Optimizer: OptimizerConfig{
			URL:     "http://localhost:8000",
			Path:    optimizer.DefaultPath,
			Timeout: "60s",
		},
		Timeline: TimelineConfig{
			DayStartHour: grid.DayStartHour,
			DayEndHour:   grid.DayEndHour,
			HourWidthPx:  grid.HourWidthPx,
			RowHeightPx:  grid.RowHeightPx,
			SnapMinutes:  grid.SnapMinutes,
		},
		Sessions: SessionsConfig{
			IdleTimeout:      "2h",
			SweepSchedule:    "@every 5m",
			JournalRetention: "720h",
			PruneSchedule:    "@daily",
		},
	}
}

// Normalize fills in missing values with defaults so that partial files
// still behave correctly.
func (c *Config) Normalize() {
	def := DefaultConfig()
	if c.Listen == "" {
		c.Listen = def.Listen
	}
	if c.DataDir == "" {
		c.DataDir = def.DataDir
	}
	if c.Optimizer.URL == "" {
		c.Optimizer.URL = def.Optimizer.URL
	}
	c.Optimizer.URL = strings.TrimRight(c.Optimizer.URL, "/")
	if c.Optimizer.Path == "" {
		c.Optimizer.Path = def.Optimizer.Path
	}
	if c.Optimizer.Timeout == "" {
		c.Optimizer.Timeout = def.Optimizer.Timeout
	}
	if c.Timeline.DayStartHour == 0 && c.Timeline.DayEndHour == 0 {
		c.Timeline.DayStartHour = def.Timeline.DayStartHour
		c.Timeline.DayEndHour = def.Timeline.DayEndHour
	}
	if c.Timeline.HourWidthPx == 0 {
		c.Timeline.HourWidthPx = def.Timeline.HourWidthPx
	}
	if c.Timeline.RowHeightPx == 0 {
		c.Timeline.RowHeightPx = def.Timeline.RowHeightPx
	}
	if c.Timeline.SnapMinutes == 0 {
		c.Timeline.SnapMinutes = def.Timeline.SnapMinutes
	}
	if c.Sessions.IdleTimeout == "" {
		c.Sessions.IdleTimeout = def.Sessions.IdleTimeout
	}
	if c.Sessions.SweepSchedule == "" {
		c.Sessions.SweepSchedule = def.Sessions.SweepSchedule
	}
	if c.Sessions.JournalRetention == "" {
		c.Sessions.JournalRetention = def.Sessions.JournalRetention
	}
	if c.Sessions.PruneSchedule == "" {
		c.Sessions.PruneSchedule = def.Sessions.PruneSchedule
	}
}

// ApplyEnv overrides file values with set environment variables.
func (c *Config) ApplyEnv(getenv func(string) string) {
	if getenv == nil {
		getenv = os.Getenv
	}
	if v := getenv(EnvOptimizerURL); v != "" {
		c.Optimizer.URL = strings.TrimRight(v, "/")
	}
	if v := getenv(EnvListen); v != "" {
		c.Listen = v
	}
	if v := getenv(EnvDataDir); v != "" {
		c.DataDir = v
	}
}

// Validate checks that the configuration is usable.
func (c *Config) Validate() error {
	if c.Listen == "" {
		return errors.New("listen address is required")
	}
	u, err := url.Parse(c.Optimizer.URL)
	if err != nil || u.Scheme == "" || u.Host == "" {
		return fmt.Errorf("invalid optimizer url %q", c.Optimizer.URL)
	}
	if err := c.Grid().Validate(); err != nil {
		return fmt.Errorf("timeline: %w", err)
	}
	for name, value := range map[string]string{
		"optimizer.timeout":          c.Optimizer.Timeout,
		"sessions.idle_timeout":      c.Sessions.IdleTimeout,
		"sessions.journal_retention": c.Sessions.JournalRetention,
	} {
		if _, err := time.ParseDuration(value); err != nil {
			return fmt.Errorf("%s: %w", name, err)
		}
	}
	return nil
}

// Grid returns the timeline grid.
func (c *Config) Grid() timeline.Grid {
	return timeline.Grid{
		DayStartHour: c.Timeline.DayStartHour,
		DayEndHour:   c.Timeline.DayEndHour,
		HourWidthPx:  c.Timeline.HourWidthPx,
		RowHeightPx:  c.Timeline.RowHeightPx,
		SnapMinutes:  c.Timeline.SnapMinutes,
	}
}

// OptimizerClient returns the optimizer client settings.
func (c *Config) OptimizerClient() optimizer.Config {
	return optimizer.Config{
		BaseURL: c.Optimizer.URL,
		Path:    c.Optimizer.Path,
		Timeout: duration(c.Optimizer.Timeout),
	}
}

// SessionManager returns the session manager settings.
func (c *Config) SessionManager() session.Config {
	return session.Config{
		Grid:             c.Grid(),
		OptimizerTimeout: duration(c.Optimizer.Timeout),
		IdleTimeout:      duration(c.Sessions.IdleTimeout),
		SweepSchedule:    c.Sessions.SweepSchedule,
		JournalRetention: duration(c.Sessions.JournalRetention),
		PruneSchedule:    c.Sessions.PruneSchedule,
	}
}

// JournalPath is the SQLite file of the optimizer run journal.
func (c *Config) JournalPath() string {
	return filepath.Join(c.DataDir, "itinerary.db")
}

// duration parses a validated duration string.
func duration(s string) time.Duration {
	d, _ := time.ParseDuration(s)
	return d
}

// Load loads configuration from the given YAML path.
//
// If the file does not exist a default config is written there first.
func Load(path string) (*Config, error) {
	if path == "" {
		return nil, errors.New("config path is empty")
	}

	data, err := os.ReadFile(path)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			cfg := DefaultConfig()
			if err := Save(path, cfg); err != nil {
				return cfg, err
			}
			return cfg, nil
		}
		return nil, err
	}

	var cfg Config
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, fmt.Errorf("parsing %s: %w", path, err)
	}
	cfg.Normalize()

	return &cfg, nil
}

// Save writes cfg to path atomically via a temp file and rename.
func Save(path string, cfg *Config) error {
	if path == "" {
		return errors.New("config path is empty")
	}
	if cfg == nil {
		return errors.New("config is nil")
	}

	cfg.Normalize()

	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return err
	}

	data, err := yaml.Marshal(cfg)
	if err != nil {
		return err
	}

	tmp, err := os.CreateTemp(dir, ".itinerary-config-*.tmp")
	if err != nil {
		return err
	}
	tmpName := tmp.Name()
	defer os.Remove(tmpName)

	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		return err
	}
	if err := tmp.Sync(); err != nil {
		tmp.Close()
		return err
	}
	if err := tmp.Close(); err != nil {
		return err
	}
	if err := os.Chmod(tmpName, 0o644); err != nil {
		return err
	}

	return os.Rename(tmpName, path)
}
