package config

// RawConfig mirrors the YAML file with pointer fields so a later file can
// override individual keys without clobbering the rest.
type RawConfig struct {
	Mode             *string                     `yaml:"mode"`
	Divisions        *int                        `yaml:"divisions"`
	EdgeTolerancePx  *int                        `yaml:"edge_tolerance_px"`
	NoiseThresholdPx *int                        `yaml:"noise_threshold_px"`
	DragThresholdPx  *int                        `yaml:"drag_threshold_px"`
	MinProportion    *float64                    `yaml:"min_proportion"`
	PollIntervalMs   *int                        `yaml:"poll_interval_ms"`
	LivenessMs       *int                        `yaml:"liveness_interval_ms"`
	LogLevel         *string                     `yaml:"log_level"`
	LogFile          *string                     `yaml:"log_file"`
	Monitors         map[string]RawMonitorConfig `yaml:"monitors"`
}

// RawMonitorConfig is the per-monitor override block.
type RawMonitorConfig struct {
	Mode      *string `yaml:"mode"`
	Divisions *int    `yaml:"divisions"`
}

func (c RawConfig) merge(overlay RawConfig) RawConfig {
	out := c

	if overlay.Mode != nil {
		out.Mode = overlay.Mode
	}
	if overlay.Divisions != nil {
		out.Divisions = overlay.Divisions
	}
	if overlay.EdgeTolerancePx != nil {
		out.EdgeTolerancePx = overlay.EdgeTolerancePx
	}
	if overlay.NoiseThresholdPx != nil {
		out.NoiseThresholdPx = overlay.NoiseThresholdPx
	}
	if overlay.DragThresholdPx != nil {
		out.DragThresholdPx = overlay.DragThresholdPx
	}
	if overlay.MinProportion != nil {
		out.MinProportion = overlay.MinProportion
	}
	if overlay.PollIntervalMs != nil {
		out.PollIntervalMs = overlay.PollIntervalMs
	}
	if overlay.LivenessMs != nil {
		out.LivenessMs = overlay.LivenessMs
	}
	if overlay.LogLevel != nil {
		out.LogLevel = overlay.LogLevel
	}
	if overlay.LogFile != nil {
		out.LogFile = overlay.LogFile
	}
	if overlay.Monitors != nil {
		if out.Monitors == nil {
			out.Monitors = make(map[string]RawMonitorConfig, len(overlay.Monitors))
		}
		for name, mon := range overlay.Monitors {
			base := out.Monitors[name]
			if mon.Mode != nil {
				base.Mode = mon.Mode
			}
			if mon.Divisions != nil {
				base.Divisions = mon.Divisions
			}
			out.Monitors[name] = base
		}
	}

	return out
}
