// Copyright © 2025 Texelation contributors
// SPDX-License-Identifier: AGPL-3.0-or-later
//
// File: config/defaults.go
// Summary: Default values for the system config and per-menu state files.

package config

func applySystemDefaults(cfg Config) {
	if cfg == nil {
		return
	}
	cfg.RegisterDefaults("engine", Section{
		"debounce_ms":       150,
		"poll_ms":           30,
		"escape_timeout_ms": 100,
		"min_width":         40,
		"min_height":        12,
		"mouse":             true,
	})
	cfg.RegisterDefaults("theme", Section{
		"accent":      "#89b4fa",
		"border":      "#585b70",
		"selected_fg": "#1e1e2e",
		"selected_bg": "#89b4fa",
		"muted":       "#7f849c",
		"error":       "#f38ba8",
	})
	cfg.RegisterDefaults("layout", Section{
		"box_width":   0,
		"label_width": 0,
		"ellipsis":    "…",
	})
	cfg.RegisterDefaults("preview", Section{
		"grace_ms": 500,
	})
	cfg.RegisterDefaults("watch", Section{
		"settle_ms": 120,
	})
	cfg.RegisterDefaults("viewer", Section{
		"style": "catppuccin-mocha",
	})
}

func applyAppDefaults(cfg Config) {
	if cfg == nil {
		return
	}
	cfg.RegisterDefaults(stateSection, Section{
		"tab":  0,
		"rows": map[string]interface{}{},
	})
}
