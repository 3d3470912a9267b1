// Copyright © 2025 Texelation contributors
// SPDX-License-Identifier: AGPL-3.0-or-later

package config

import (
	"encoding/json"
	"os"
	"path/filepath"
	"sync"
	"testing"
	"time"
)

func resetStore() {
	once = sync.Once{}
	system = nil
	apps = nil
	loadErr = nil
}

func readDisk(t *testing.T, path string) Config {
	t.Helper()
	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("read %s: %v", path, err)
	}
	var disk Config
	if err := json.Unmarshal(data, &disk); err != nil {
		t.Fatalf("unmarshal %s: %v", path, err)
	}
	return disk
}

func TestSystemDefaultsWritten(t *testing.T) {
	t.Setenv("XDG_CONFIG_HOME", t.TempDir())
	resetStore()

	cfg := System()
	if err := Err(); err != nil {
		t.Fatalf("Err = %v", err)
	}
	if got := cfg.GetDuration("engine", "debounce_ms", 0); got != 150*time.Millisecond {
		t.Fatalf("debounce = %v, want 150ms", got)
	}

	path, err := systemConfigPath()
	if err != nil {
		t.Fatalf("systemConfigPath: %v", err)
	}
	disk := readDisk(t, path)
	for _, name := range []string{"engine", "theme", "layout", "preview", "watch", "viewer"} {
		if disk.Section(name) == nil {
			t.Fatalf("expected %s section to be present", name)
		}
	}
}

func TestMissingKeysFilledNotWritten(t *testing.T) {
	dir := t.TempDir()
	t.Setenv("XDG_CONFIG_HOME", dir)
	resetStore()

	path := filepath.Join(dir, appName, systemConfigName)
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		t.Fatal(err)
	}
	body := []byte(`{"engine": {"debounce_ms": 300}}`)
	if err := os.WriteFile(path, body, 0o644); err != nil {
		t.Fatal(err)
	}

	cfg := System()
	if got := cfg.GetDuration("engine", "debounce_ms", 0); got != 300*time.Millisecond {
		t.Fatalf("debounce = %v, want 300ms", got)
	}
	if got := cfg.GetInt("engine", "min_width", 0); got != 40 {
		t.Fatalf("min_width = %d, want default 40", got)
	}
	data, _ := os.ReadFile(path)
	if string(data) != string(body) {
		t.Fatalf("existing config rewritten: %s", data)
	}
}

func TestParseErrorLeavesFile(t *testing.T) {
	dir := t.TempDir()
	t.Setenv("XDG_CONFIG_HOME", dir)
	resetStore()

	path := filepath.Join(dir, appName, systemConfigName)
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		t.Fatal(err)
	}
	if err := os.WriteFile(path, []byte("{broken"), 0o644); err != nil {
		t.Fatal(err)
	}

	cfg := System()
	if Err() == nil {
		t.Fatalf("expected a parse error")
	}
	if got := cfg.GetString("layout", "ellipsis", ""); got != "…" {
		t.Fatalf("ellipsis = %q, want default", got)
	}
	data, _ := os.ReadFile(path)
	if string(data) != "{broken" {
		t.Fatalf("broken config overwritten: %s", data)
	}
}

func TestSaveSystemWritesUpdates(t *testing.T) {
	t.Setenv("XDG_CONFIG_HOME", t.TempDir())
	resetStore()

	cfg := Clone(System())
	cfg.Set("theme", "accent", "#ff0000")
	SetSystem(cfg)
	if err := SaveSystem(); err != nil {
		t.Fatalf("SaveSystem: %v", err)
	}

	path, err := systemConfigPath()
	if err != nil {
		t.Fatalf("systemConfigPath: %v", err)
	}
	disk := readDisk(t, path)
	if got := disk.GetStrings("theme")["accent"]; got != "#ff0000" {
		t.Fatalf("accent = %q, want #ff0000", got)
	}
	resetStore()
	if got := System().GetString("theme", "accent", ""); got != "#ff0000" {
		t.Fatalf("accent after reload = %q", got)
	}

	SetSystem(Defaults())
	if err := SaveSystem(); err != nil {
		t.Fatalf("SaveSystem defaults: %v", err)
	}
	if got := readDisk(t, path).GetStrings("theme")["accent"]; got != "#89b4fa" {
		t.Fatalf("accent after reset = %q, want #89b4fa", got)
	}
}

func TestAppPath(t *testing.T) {
	dir := t.TempDir()
	t.Setenv("XDG_CONFIG_HOME", dir)
	got, err := AppPath("waybar")
	if err != nil {
		t.Fatalf("AppPath: %v", err)
	}
	if want := filepath.Join(dir, appName, "apps", "waybar", "config.json"); got != want {
		t.Fatalf("AppPath = %q, want %q", got, want)
	}
	if _, err := AppPath(""); err == nil {
		t.Fatalf("empty menu name accepted")
	}
}

func TestStateRoundTrip(t *testing.T) {
	t.Setenv("XDG_CONFIG_HOME", t.TempDir())
	resetStore()

	st := LoadState("waybar")
	if st.Tab != 0 || len(st.Rows) != 0 {
		t.Fatalf("fresh state = %+v", st)
	}
	if err := SaveState("waybar", MenuState{Tab: 2, Rows: map[int]int{0: 3, 2: 7}}); err != nil {
		t.Fatalf("SaveState: %v", err)
	}

	path, err := appConfigPath("waybar")
	if err != nil {
		t.Fatal(err)
	}
	disk := readDisk(t, path)
	if got := disk.GetInt(stateSection, "tab", -1); got != 2 {
		t.Fatalf("tab on disk = %d", got)
	}

	resetStore()
	st = LoadState("waybar")
	if st.Tab != 2 || st.Rows[0] != 3 || st.Rows[2] != 7 || len(st.Rows) != 2 {
		t.Fatalf("reloaded state = %+v", st)
	}
}

func TestLoadStateIgnoresJunk(t *testing.T) {
	t.Setenv("XDG_CONFIG_HOME", t.TempDir())
	resetStore()

	SetApp("bar", Config{stateSection: map[string]interface{}{
		"tab":  "1",
		"rows": map[string]interface{}{"0": 4.0, "x": 1.0, "1": -2.0, "2": "5"},
	}})
	st := LoadState("bar")
	if st.Tab != 1 {
		t.Fatalf("tab = %d, want 1", st.Tab)
	}
	if len(st.Rows) != 2 || st.Rows[0] != 4 || st.Rows[2] != 5 {
		t.Fatalf("rows = %v", st.Rows)
	}
}

func TestTypedGetters(t *testing.T) {
	cfg := Config{"s": map[string]interface{}{
		"ms":    250.0,
		"text":  "2s",
		"bare":  "75",
		"flag":  "yes",
		"on":    1.0,
		"name":  "mocha",
		"empty": nil,
	}}
	cases := []struct {
		key  string
		want time.Duration
	}{
		{"ms", 250 * time.Millisecond},
		{"text", 2 * time.Second},
		{"bare", 75 * time.Millisecond},
		{"name", time.Minute},
		{"missing", time.Minute},
	}
	for _, tc := range cases {
		if got := cfg.GetDuration("s", tc.key, time.Minute); got != tc.want {
			t.Fatalf("GetDuration(%q) = %v, want %v", tc.key, got, tc.want)
		}
	}
	if cfg.GetBool("s", "flag", false) || !cfg.GetBool("s", "on", false) {
		t.Fatalf("GetBool mismatch")
	}
	strs := cfg.GetStrings("s")
	if strs["name"] != "mocha" || strs["ms"] != "250" {
		t.Fatalf("GetStrings = %v", strs)
	}
	if _, ok := strs["empty"]; ok {
		t.Fatalf("nil value included")
	}
}
