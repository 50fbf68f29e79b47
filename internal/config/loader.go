package config

import (
	"fmt"
	"os"
	"path/filepath"

	"gopkg.in/yaml.v3"
)

// Defaults returns the built-in configuration used when no file exists.
func Defaults() *Config {
	return &Config{
		Mode:             ModeColumns,
		Divisions:        2,
		EdgeTolerancePx:  20,
		NoiseThresholdPx: 5,
		DragThresholdPx:  8,
		MinProportion:    0.10,
		PollIntervalMs:   200,
		LivenessMs:       1000,
		LogLevel:         "info",
		Monitors:         map[string]MonitorConfig{},
	}
}

// DefaultConfigPath returns ~/.config/proptile/config.yaml.
func DefaultConfigPath() (string, error) {
	homeDir, err := os.UserHomeDir()
	if err != nil {
		return "", fmt.Errorf("failed to get home directory: %w", err)
	}
	return filepath.Join(homeDir, ".config", "proptile", "config.yaml"), nil
}

// Load reads the configuration from the standard location. A missing file
// yields the defaults.
func Load() (*Config, error) {
	path, err := DefaultConfigPath()
	if err != nil {
		return nil, err
	}
	return LoadFromPath(path)
}

// LoadFromPath reads and validates the configuration at path, overlaying it
// on the built-in defaults. A missing file is not an error.
func LoadFromPath(path string) (*Config, error) {
	var raw RawConfig

	data, err := os.ReadFile(path)
	switch {
	case os.IsNotExist(err):
		// Defaults only.
	case err != nil:
		return nil, fmt.Errorf("failed to read config %s: %w", path, err)
	default:
		var fileRaw RawConfig
		if err := yaml.Unmarshal(data, &fileRaw); err != nil {
			return nil, fmt.Errorf("failed to parse config %s: %w", path, err)
		}
		raw = raw.merge(fileRaw)
	}

	cfg := buildEffective(raw)
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// buildEffective overlays raw pointer fields onto the defaults.
func buildEffective(raw RawConfig) *Config {
	cfg := Defaults()

	if raw.Mode != nil {
		cfg.Mode = GridMode(*raw.Mode)
	}
	if raw.Divisions != nil {
		cfg.Divisions = *raw.Divisions
	}
	if raw.EdgeTolerancePx != nil {
		cfg.EdgeTolerancePx = *raw.EdgeTolerancePx
	}
	if raw.NoiseThresholdPx != nil {
		cfg.NoiseThresholdPx = *raw.NoiseThresholdPx
	}
	if raw.DragThresholdPx != nil {
		cfg.DragThresholdPx = *raw.DragThresholdPx
	}
	if raw.MinProportion != nil {
		cfg.MinProportion = *raw.MinProportion
	}
	if raw.PollIntervalMs != nil {
		cfg.PollIntervalMs = *raw.PollIntervalMs
	}
	if raw.LivenessMs != nil {
		cfg.LivenessMs = *raw.LivenessMs
	}
	if raw.LogLevel != nil {
		cfg.LogLevel = *raw.LogLevel
	}
	if raw.LogFile != nil {
		cfg.LogFile = *raw.LogFile
	}
	for name, mon := range raw.Monitors {
		eff := cfg.Monitors[name]
		if mon.Mode != nil {
			eff.Mode = GridMode(*mon.Mode)
		}
		if mon.Divisions != nil {
			eff.Divisions = *mon.Divisions
		}
		cfg.Monitors[name] = eff
	}

	return cfg
}
