// Copyright © 2025 Texelation contributors
// SPDX-License-Identifier: AGPL-3.0-or-later
//
// File: config/store.go
// Summary: Load and reload logic for the config store.
// Notes: A missing or empty file is seeded from the embedded defaults and
//   written back; a file that fails to parse is left untouched.

package config

func loadSystemLocked() error {
	path, err := systemConfigPath()
	if err != nil {
		logger().Warn("failed to resolve system config path", "err", err)
		system = make(Config)
		applySystemDefaults(system)
		return err
	}

	cfg, exists, readErr := readConfig(path)
	if readErr != nil {
		logger().Warn("failed to read system config", "path", path, "err", readErr)
		cfg = make(Config)
	}

	if readErr == nil && len(cfg) == 0 {
		if def := defaultSystemConfig(); def != nil {
			cfg = def
		} else {
			cfg = make(Config)
		}
		applySystemDefaults(cfg)
		if err := writeConfig(path, cfg); err != nil {
			logger().Warn("failed to write default system config", "path", path, "err", err)
			readErr = err
		}
	} else {
		applySystemDefaults(cfg)
	}

	system = cfg
	if readErr == nil && exists {
		logger().Debug("loaded system config", "path", path)
	}
	return readErr
}

func loadAppLocked(name string) (Config, error) {
	path, err := appConfigPath(name)
	if err != nil {
		return nil, err
	}

	cfg, exists, readErr := readConfig(path)
	if readErr != nil {
		logger().Warn("failed to read menu config", "path", path, "err", readErr)
		cfg = make(Config)
	}
	if cfg == nil {
		cfg = make(Config)
	}
	applyAppDefaults(cfg)

	if readErr == nil && exists {
		logger().Debug("loaded menu config", "menu", name, "path", path)
	}
	return cfg, readErr
}
