// Copyright © 2025 Texelation contributors
// SPDX-License-Identifier: AGPL-3.0-or-later

package settings

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/framegrace/texelmenu/internal/favorites"
	"github.com/framegrace/texelmenu/internal/preview"
	"github.com/framegrace/texelmenu/menu"
)

const testDefinition = `
title: Bar Settings
file:
  path: bar.conf
tabs:
  - name: General
    items:
      - key: position
        label: Position
        type: cycle
        options: [top, bottom, left, right]
      - key: enabled
        label: Enabled
        type: toggle
        on: "yes"
        off: "no"
      - key: opacity
        label: Opacity
        type: float
        min: 0
        max: 1
        step: 0.25
        precision: 2
  - name: Look
    items:
      - key: flavor
        label: Flavor
        type: picker
        options: [mocha, latte, frappe]
      - label: Advanced
        type: menu
        preview: true
        items:
          - key: gap
            label: Gap
            type: cycle
            options: ["0", "4", "8"]
      - label: Show file
        type: action
        view: true
`

const testTarget = `# bar config
position = bottom
enabled = yes
custom = untouched
`

type fixture struct {
	dir  string
	def  *Definition
	menu *Menu
}

func newFixture(t *testing.T, extra string, opts Options) *fixture {
	t.Helper()
	dir := t.TempDir()
	defPath := filepath.Join(dir, "bar.yaml")
	if err := os.WriteFile(defPath, []byte(extra+testDefinition), 0o644); err != nil {
		t.Fatal(err)
	}
	if err := os.WriteFile(filepath.Join(dir, "bar.conf"), []byte(testTarget), 0o644); err != nil {
		t.Fatal(err)
	}
	def, err := Load(defPath)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if opts.StageDir == "" {
		opts.StageDir = dir
	}
	m, err := New(def, opts)
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	return &fixture{dir: dir, def: def, menu: m}
}

func (f *fixture) ref(t *testing.T, tab, index int) menu.Ref {
	t.Helper()
	items := f.menu.Items(tab)
	if index >= len(items) {
		t.Fatalf("tab %d has %d items", tab, len(items))
	}
	return menu.Ref{Tab: tab, Index: index, Item: items[index]}
}

func (f *fixture) value(t *testing.T, key string) string {
	t.Helper()
	return f.menu.Values()[key]
}

func TestLoadDefaults(t *testing.T) {
	f := newFixture(t, "", Options{})
	if f.def.Name != "bar" {
		t.Fatalf("Name = %q, want bar", f.def.Name)
	}
	if got := f.menu.Path(); got != filepath.Join(f.dir, "bar.conf") {
		t.Fatalf("Path = %q", got)
	}
	want := map[string]string{
		"position": "bottom",
		"enabled":  "yes",
		"opacity":  "0.00",
		"flavor":   "mocha",
		"gap":      "0",
	}
	for k, v := range want {
		if got := f.value(t, k); got != v {
			t.Fatalf("%s = %q, want %q", k, got, v)
		}
	}
	if f.menu.Dirty() {
		t.Fatalf("fresh menu is dirty")
	}
	if tabs := f.menu.Tabs(); len(tabs) != 2 || tabs[1] != "Look" {
		t.Fatalf("Tabs = %v", tabs)
	}
	items := f.menu.Items(1)
	if items[0].Kind != menu.KindMenu || items[1].Value != "›" || items[2].Kind != menu.KindAction {
		t.Fatalf("Look items = %+v", items)
	}
}

func TestParseRejectsInvalid(t *testing.T) {
	cases := map[string]string{
		"unknown field": "file: {path: x}\nbogus: 1\ntabs: [{name: a, items: [{key: k, type: toggle}]}]\n",
		"no tabs":       "file: {path: x}\n",
		"no path":       "tabs: [{name: a, items: [{key: k, type: toggle}]}]\n",
		"unknown type":  "file: {path: x}\ntabs: [{name: a, items: [{key: k, type: slider}]}]\n",
		"missing key":   "file: {path: x}\ntabs: [{name: a, items: [{type: toggle}]}]\n",
		"duplicate key": "file: {path: x}\ntabs: [{name: a, items: [{key: k, type: toggle}, {key: k, type: toggle}]}]\n",
		"no options":    "file: {path: x}\ntabs: [{name: a, items: [{key: k, type: cycle}]}]\n",
		"bad range":     "file: {path: x}\ntabs: [{name: a, items: [{key: k, type: float, min: 2, max: 1}]}]\n",
		"empty action":  "file: {path: x}\ntabs: [{name: a, items: [{label: run, type: action}]}]\n",
	}
	for name, src := range cases {
		if _, err := Parse([]byte(src)); err == nil {
			t.Fatalf("%s: Parse accepted invalid definition", name)
		}
	}
}

func TestEditing(t *testing.T) {
	f := newFixture(t, "", Options{})
	m := f.menu

	if err := m.Toggle(f.ref(t, 0, 1)); err != nil {
		t.Fatal(err)
	}
	if got := f.value(t, "enabled"); got != "no" {
		t.Fatalf("enabled = %q, want no", got)
	}
	if err := m.Adjust(f.ref(t, 0, 0), -1); err != nil {
		t.Fatal(err)
	}
	if got := f.value(t, "position"); got != "top" {
		t.Fatalf("position = %q, want top", got)
	}
	if _, err := m.Activate(f.ref(t, 0, 0)); err != nil {
		t.Fatal(err)
	}
	if got := f.value(t, "position"); got != "bottom" {
		t.Fatalf("position after activate = %q, want bottom", got)
	}
	for i := 0; i < 6; i++ {
		if err := m.Adjust(f.ref(t, 0, 2), 1); err != nil {
			t.Fatal(err)
		}
	}
	if got := f.value(t, "opacity"); got != "1.00" {
		t.Fatalf("opacity = %q, want clamped 1.00", got)
	}
	res, err := m.Activate(f.ref(t, 0, 2))
	if err != nil || res.Status == "" {
		t.Fatalf("float activate = %+v, %v", res, err)
	}
	if !m.Dirty() {
		t.Fatalf("edits not reported as dirty")
	}
}

func TestSavePreservesFile(t *testing.T) {
	ran := filepath.Join(t.TempDir(), "applied")
	f := newFixture(t, "apply: echo $TEXELMENU_MENU > "+ran+"\n", Options{})
	m := f.menu
	if err := m.Toggle(f.ref(t, 0, 1)); err != nil {
		t.Fatal(err)
	}
	var hooked string
	m.OnWrite(func(p string) { hooked = p })

	values := m.Values()
	if err := m.Save(values); err != nil {
		t.Fatalf("Save: %v", err)
	}
	data, err := os.ReadFile(m.Path())
	if err != nil {
		t.Fatal(err)
	}
	got := string(data)
	for _, want := range []string{"# bar config\n", "position = bottom\n", "enabled = no\n", "custom = untouched\n", "opacity = 0.00\n", "flavor = mocha\n", "gap = 0\n"} {
		if !strings.Contains(got, want) {
			t.Fatalf("saved file missing %q:\n%s", want, got)
		}
	}
	if !strings.HasPrefix(got, "# bar config\nposition = bottom\nenabled = no\ncustom = untouched\n") {
		t.Fatalf("existing lines reordered:\n%s", got)
	}
	if m.Dirty() {
		t.Fatalf("menu dirty after save")
	}
	if hooked != m.Path() {
		t.Fatalf("OnWrite hook = %q", hooked)
	}
	if applied, err := os.ReadFile(ran); err != nil || strings.TrimSpace(string(applied)) != "bar" {
		t.Fatalf("apply command output = %q, %v", applied, err)
	}
}

func TestReloadKeepsPendingEdits(t *testing.T) {
	f := newFixture(t, "", Options{})
	m := f.menu
	if err := m.Toggle(f.ref(t, 0, 1)); err != nil {
		t.Fatal(err)
	}
	external := "position = left\nenabled = yes\n"
	if err := os.WriteFile(m.Path(), []byte(external), 0o644); err != nil {
		t.Fatal(err)
	}
	if err := m.Reload(); err != nil {
		t.Fatalf("Reload: %v", err)
	}
	if got := f.value(t, "position"); got != "left" {
		t.Fatalf("position = %q, want external left", got)
	}
	if got := f.value(t, "enabled"); got != "no" {
		t.Fatalf("enabled = %q, pending edit lost", got)
	}
}

func TestPickerPreviewConfirmCancel(t *testing.T) {
	out := filepath.Join(t.TempDir(), "preview.out")
	runner := preview.NewRunner(nil)
	defer runner.Stop()
	f := newFixture(t, "preview: echo $TEXELMENU_KEY=$TEXELMENU_VALUE > "+out+"\n", Options{Runner: runner})
	m := f.menu

	res, err := m.Activate(f.ref(t, 1, 0))
	if err != nil || res.Picker == nil {
		t.Fatalf("Activate picker = %+v, %v", res, err)
	}
	p := res.Picker
	if p.Selected != 0 || len(p.Options) != 3 || p.Preview == nil {
		t.Fatalf("picker = %+v", p)
	}
	if err := p.Preview(2); err != nil {
		t.Fatalf("Preview: %v", err)
	}
	if err := runner.Wait(); err != nil {
		t.Fatalf("preview command: %v", err)
	}
	if data, _ := os.ReadFile(out); strings.TrimSpace(string(data)) != "flavor=frappe" {
		t.Fatalf("preview saw %q", data)
	}
	staged, err := os.ReadFile(filepath.Join(f.dir, "texelmenu-bar.preview"))
	if err != nil || !strings.Contains(string(staged), "flavor = frappe") {
		t.Fatalf("staged preview = %q, %v", staged, err)
	}

	if err := p.Cancel(); err != nil {
		t.Fatalf("Cancel: %v", err)
	}
	if got := f.value(t, "flavor"); got != "mocha" {
		t.Fatalf("flavor after cancel = %q, want mocha", got)
	}
	if err := p.Confirm(1); err != nil {
		t.Fatal(err)
	}
	if got := f.value(t, "flavor"); got != "latte" {
		t.Fatalf("flavor after confirm = %q, want latte", got)
	}
}

func TestSubmenuAndFileView(t *testing.T) {
	f := newFixture(t, "", Options{})
	m := f.menu
	res, err := m.Activate(f.ref(t, 1, 1))
	if err != nil || res.Detail == nil {
		t.Fatalf("Activate submenu = %+v, %v", res, err)
	}
	d := res.Detail
	if d.Title != "Advanced" || !d.Preview || d.Key != "1/1" {
		t.Fatalf("detail = %+v", d)
	}
	sub := d.Items()
	if len(sub) != 1 || sub[0].Key != "gap" {
		t.Fatalf("submenu items = %+v", sub)
	}
	if err := m.Adjust(menu.Ref{Tab: 1, Detail: d.Key, Item: sub[0]}, 1); err != nil {
		t.Fatal(err)
	}
	if got := d.Items()[0].Value; got != "4" {
		t.Fatalf("gap = %q, want 4", got)
	}

	res, err = m.Activate(f.ref(t, 1, 2))
	if err != nil || res.Detail == nil {
		t.Fatalf("Activate view = %+v, %v", res, err)
	}
	lines := res.Detail.Items()
	if len(lines) < 4 || res.Detail.Title != "bar.conf" {
		t.Fatalf("file view = %d lines, title %q", len(lines), res.Detail.Title)
	}
	text := ""
	for _, sp := range lines[0].Spans {
		text += sp.Text
	}
	if text != "# bar config" {
		t.Fatalf("first line = %q", text)
	}
	// File viewer rows carry no definition and ignore edits.
	if err := m.Toggle(menu.Ref{Detail: res.Detail.Key, Item: lines[0]}); err != nil {
		t.Fatalf("Toggle on a file row = %v", err)
	}
}

func TestActionCommandStatus(t *testing.T) {
	f := newFixture(t, "", Options{})
	f.def.Tabs[0].Items = append(f.def.Tabs[0].Items,
		ItemDef{Label: "Reload", Type: TypeAction, Command: "echo reloaded $TEXELMENU_MENU"},
		ItemDef{Label: "Broken", Type: TypeAction, Command: "echo nope; exit 2"},
	)
	res, err := f.menu.Activate(f.ref(t, 0, 3))
	if err != nil || res.Status != "reloaded bar" {
		t.Fatalf("action = %+v, %v", res, err)
	}
	if _, err := f.menu.Activate(f.ref(t, 0, 4)); err == nil || !strings.Contains(err.Error(), "nope") {
		t.Fatalf("failing action error = %v", err)
	}
}

func TestFavorites(t *testing.T) {
	store, err := favorites.Open(":memory:")
	if err != nil {
		t.Fatal(err)
	}
	defer store.Close()
	f := newFixture(t, "", Options{Favorites: store})
	if err := f.menu.ToggleFavorite(f.ref(t, 0, 0)); err != nil {
		t.Fatal(err)
	}
	if !f.menu.Items(0)[0].Marked {
		t.Fatalf("favorite not marked")
	}
	if has, _ := store.Has("bar", "position"); !has {
		t.Fatalf("favorite not persisted")
	}
	if _, err := f.menu.Activate(f.ref(t, 0, 1)); err != nil {
		t.Fatal(err)
	}
	recent, _ := store.Recent("bar", 5)
	if len(recent) != 1 || recent[0] != "enabled" {
		t.Fatalf("recent = %v", recent)
	}

	again, err := New(f.def, Options{Favorites: store, StageDir: f.dir})
	if err != nil {
		t.Fatal(err)
	}
	if !again.Items(0)[0].Marked {
		t.Fatalf("favorites not loaded at startup")
	}
}

func TestWatchingDefault(t *testing.T) {
	f := newFixture(t, "watch: false\n", Options{})
	if f.def.Watching() {
		t.Fatalf("watch: false ignored")
	}
	def, err := Parse([]byte("file: {path: x}\ntabs: [{name: a, items: [{key: k, type: toggle}]}]\n"))
	if err != nil {
		t.Fatal(err)
	}
	if !def.Watching() {
		t.Fatalf("watching should default to on")
	}
}
