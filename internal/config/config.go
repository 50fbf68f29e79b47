package config

import (
	"fmt"
	"time"
)

// GridMode is the primary-axis choice exposed in the config file.
type GridMode string

const (
	ModeColumns GridMode = "columns"
	ModeRows    GridMode = "rows"
)

// MonitorConfig holds per-monitor overrides keyed by output name.
type MonitorConfig struct {
	Mode      GridMode `yaml:"mode"`
	Divisions int      `yaml:"divisions"`
}

// Config is the effective configuration after defaults and file overlays
// are merged.
type Config struct {
	Mode             GridMode                 `yaml:"mode"`
	Divisions        int                      `yaml:"divisions"`
	EdgeTolerancePx  int                      `yaml:"edge_tolerance_px"`
	NoiseThresholdPx int                      `yaml:"noise_threshold_px"`
	DragThresholdPx  int                      `yaml:"drag_threshold_px"`
	MinProportion    float64                  `yaml:"min_proportion"`
	PollIntervalMs   int                      `yaml:"poll_interval_ms"`
	LivenessMs       int                      `yaml:"liveness_interval_ms"`
	LogLevel         string                   `yaml:"log_level"`
	LogFile          string                   `yaml:"log_file"`
	Monitors         map[string]MonitorConfig `yaml:"monitors"`
}

// ValidationError reports which config key failed validation.
type ValidationError struct {
	Path string
	Err  error
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("config %s: %v", e.Path, e.Err)
}

func (e *ValidationError) Unwrap() error { return e.Err }

// PollInterval returns the reconciliation poll cadence.
func (c *Config) PollInterval() time.Duration {
	return time.Duration(c.PollIntervalMs) * time.Millisecond
}

// LivenessInterval returns the closed-window sweep cadence.
func (c *Config) LivenessInterval() time.Duration {
	return time.Duration(c.LivenessMs) * time.Millisecond
}

// MonitorMode returns the grid mode for a monitor, honoring the per-monitor
// override.
func (c *Config) MonitorMode(name string) GridMode {
	if mon, ok := c.Monitors[name]; ok && mon.Mode != "" {
		return mon.Mode
	}
	return c.Mode
}

// MonitorDivisions returns the default fixed-grid division count for a
// monitor, honoring the per-monitor override.
func (c *Config) MonitorDivisions(name string) int {
	if mon, ok := c.Monitors[name]; ok && mon.Divisions > 0 {
		return mon.Divisions
	}
	return c.Divisions
}

func (c *Config) Validate() error {
	switch c.Mode {
	case ModeColumns, ModeRows:
	default:
		return &ValidationError{Path: "mode", Err: fmt.Errorf("mode must be one of: columns, rows")}
	}
	if c.MinProportion <= 0 || c.MinProportion >= 1 {
		return &ValidationError{Path: "min_proportion", Err: fmt.Errorf("min_proportion must be in (0, 1)")}
	}
	maxDivisions := int(1.0 / c.MinProportion)
	if c.Divisions < 1 || c.Divisions > maxDivisions {
		return &ValidationError{Path: "divisions", Err: fmt.Errorf("divisions must be between 1 and %d", maxDivisions)}
	}
	if c.EdgeTolerancePx < 1 {
		return &ValidationError{Path: "edge_tolerance_px", Err: fmt.Errorf("edge_tolerance_px must be >= 1")}
	}
	if c.NoiseThresholdPx < 1 {
		return &ValidationError{Path: "noise_threshold_px", Err: fmt.Errorf("noise_threshold_px must be >= 1")}
	}
	if c.DragThresholdPx < c.NoiseThresholdPx {
		return &ValidationError{Path: "drag_threshold_px", Err: fmt.Errorf("drag_threshold_px must be >= noise_threshold_px")}
	}
	if c.PollIntervalMs < 10 {
		return &ValidationError{Path: "poll_interval_ms", Err: fmt.Errorf("poll_interval_ms must be >= 10")}
	}
	if c.LivenessMs < c.PollIntervalMs {
		return &ValidationError{Path: "liveness_interval_ms", Err: fmt.Errorf("liveness_interval_ms must be >= poll_interval_ms")}
	}
	if c.LogLevel != "debug" && c.LogLevel != "info" && c.LogLevel != "warn" && c.LogLevel != "error" {
		return &ValidationError{Path: "log_level", Err: fmt.Errorf("log_level must be one of: debug, info, warn, error")}
	}
	for name, mon := range c.Monitors {
		if mon.Mode != "" && mon.Mode != ModeColumns && mon.Mode != ModeRows {
			return &ValidationError{Path: "monitors." + name + ".mode", Err: fmt.Errorf("mode must be one of: columns, rows")}
		}
		if mon.Divisions < 0 || mon.Divisions > maxDivisions {
			return &ValidationError{Path: "monitors." + name + ".divisions", Err: fmt.Errorf("divisions must be between 0 and %d", maxDivisions)}
		}
	}
	return nil
}
