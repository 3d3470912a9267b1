// Copyright © 2025 Texelation contributors
// SPDX-License-Identifier: AGPL-3.0-or-later
//
// File: config/embedded.go
// Summary: Loads and caches the parsed system defaults embedded in defaults/.

package config

import (
	"encoding/json"
	"sync"

	"github.com/framegrace/texelmenu/defaults"
)

var (
	embeddedSystemOnce sync.Once
	embeddedSystem     Config
	embeddedSystemErr  error
)

func embeddedSystemDefaults() (Config, error) {
	embeddedSystemOnce.Do(func() {
		var cfg Config
		if err := json.Unmarshal(defaults.SystemConfig(), &cfg); err != nil {
			embeddedSystemErr = err
			return
		}
		embeddedSystem = cfg
	})
	return embeddedSystem, embeddedSystemErr
}

// defaultSystemConfig returns a copy of the embedded system defaults.
func defaultSystemConfig() Config {
	cfg, err := embeddedSystemDefaults()
	if err != nil || cfg == nil {
		return nil
	}
	return Clone(cfg)
}

// Defaults returns a fresh system config holding only default values.
func Defaults() Config {
	cfg := defaultSystemConfig()
	if cfg == nil {
		cfg = make(Config)
	}
	applySystemDefaults(cfg)
	return cfg
}
