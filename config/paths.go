// Copyright © 2025 Texelation contributors
// SPDX-License-Identifier: AGPL-3.0-or-later
//
// File: config/paths.go
// Summary: Path helpers for texelmenu configuration and state.

package config

import (
	"fmt"
	"os"
	"path/filepath"
)

const appName = "texelmenu"

func configRoot() (string, error) {
	configDir, err := os.UserConfigDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(configDir, appName), nil
}

func systemConfigPath() (string, error) {
	root, err := configRoot()
	if err != nil {
		return "", err
	}
	return filepath.Join(root, systemConfigName), nil
}

func appConfigPath(app string) (string, error) {
	if app == "" {
		return "", fmt.Errorf("menu name is required")
	}
	root, err := configRoot()
	if err != nil {
		return "", err
	}
	return filepath.Join(root, "apps", app, "config.json"), nil
}

// SystemPath returns the location of texelmenu.json.
func SystemPath() (string, error) {
	return systemConfigPath()
}

// AppPath returns the location of a menu's state file.
func AppPath(name string) (string, error) {
	return appConfigPath(name)
}

// StateDir returns $XDG_STATE_HOME/texelmenu, falling back to
// ~/.local/state/texelmenu.
func StateDir() (string, error) {
	if dir := os.Getenv("XDG_STATE_HOME"); dir != "" {
		return filepath.Join(dir, appName), nil
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return "", fmt.Errorf("resolve state dir: %w", err)
	}
	return filepath.Join(home, ".local", "state", appName), nil
}
