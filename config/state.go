// Copyright © 2025 Texelation contributors
// SPDX-License-Identifier: AGPL-3.0-or-later
//
// File: config/state.go
// Summary: Per-menu navigation state: last tab and selected row per tab.

package config

import "strconv"

const stateSection = "state"

// MenuState is the persisted navigation position of one menu.
type MenuState struct {
	Tab  int
	Rows map[int]int
}

// LoadState returns the stored state of menu name.
func LoadState(name string) MenuState {
	cfg := App(name)
	st := MenuState{Tab: cfg.GetInt(stateSection, "tab", 0), Rows: make(map[int]int)}
	section := cfg.Section(stateSection)
	if section == nil {
		return st
	}
	var rows map[string]interface{}
	switch v := section["rows"].(type) {
	case map[string]interface{}:
		rows = v
	case Section:
		rows = v
	}
	for k, v := range rows {
		tab, err := strconv.Atoi(k)
		if err != nil || tab < 0 {
			continue
		}
		if f, ok := toFloat(v); ok && f >= 0 {
			st.Rows[tab] = int(f)
		}
	}
	return st
}

// SaveState stores st for menu name and writes the menu config.
func SaveState(name string, st MenuState) error {
	cfg := Clone(App(name))
	if cfg == nil {
		return nil
	}
	rows := make(map[string]interface{}, len(st.Rows))
	for tab, sel := range st.Rows {
		rows[strconv.Itoa(tab)] = sel
	}
	cfg.Set(stateSection, "tab", st.Tab)
	cfg.Set(stateSection, "rows", rows)
	SetApp(name, cfg)
	return SaveApp(name)
}
