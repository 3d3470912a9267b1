// Copyright © 2025 Texelation contributors
// SPDX-License-Identifier: AGPL-3.0-or-later
//
// File: apps/settings/menu.go
// Summary: Menu collaborator backed by a definition and a key/value file.
// Usage: New(def, opts) then hand the Menu to menu.New. Reload re-reads the
//   target after an external change.
// Notes: Edits stay in memory until Save. Methods are safe to call from the
//   engine loop and from a watcher goroutine.

package settings

import (
	"context"
	"fmt"
	"io"
	"maps"
	"os"
	"path/filepath"
	"strconv"
	"sync"
	"time"

	"github.com/charmbracelet/log"
	"github.com/framegrace/texelmenu/internal/atomicfile"
	"github.com/framegrace/texelmenu/internal/favorites"
	"github.com/framegrace/texelmenu/internal/highlight"
	"github.com/framegrace/texelmenu/internal/kvfile"
	"github.com/framegrace/texelmenu/internal/preview"
	"github.com/framegrace/texelmenu/menu"
)

// ActionTimeout bounds action and apply commands.
const ActionTimeout = 10 * time.Second

const fileViewKey = "file"

// Options wires optional services into a Menu.
type Options struct {
	Logger    *log.Logger
	Runner    *preview.Runner
	Favorites *favorites.Store
	// Style is the chroma style of the file viewer.
	Style string
	// StageDir receives the staged preview file; defaults to os.TempDir().
	StageDir string
}

// Menu implements menu.Collaborator and its optional interfaces.
type Menu struct {
	def    *Definition
	path   string
	syntax kvfile.Syntax
	opts   Options
	log    *log.Logger

	mu      sync.Mutex
	raw     []byte
	values  map[string]string
	saved   map[string]string
	marked  map[string]bool
	onWrite func(path string)
}

var (
	_ menu.Collaborator  = (*Menu)(nil)
	_ menu.Toggler       = (*Menu)(nil)
	_ menu.Adjuster      = (*Menu)(nil)
	_ menu.Previewer     = (*Menu)(nil)
	_ menu.DirtyReporter = (*Menu)(nil)
	_ menu.Favoriter     = (*Menu)(nil)
	_ menu.FileViewer    = (*Menu)(nil)
)

// New loads def's target file and returns the menu. A missing target is
// treated as empty and created on the first save.
func New(def *Definition, opts Options) (*Menu, error) {
	path, err := def.TargetPath()
	if err != nil {
		return nil, err
	}
	logger := opts.Logger
	if logger == nil {
		logger = log.New(io.Discard)
	}
	m := &Menu{
		def:    def,
		path:   path,
		syntax: def.Syntax(),
		opts:   opts,
		log:    logger.WithPrefix("settings"),
		marked: make(map[string]bool),
	}
	if err := m.Reload(); err != nil {
		return nil, err
	}
	if opts.Favorites != nil {
		set, err := opts.Favorites.List(def.Name)
		if err != nil {
			m.log.Warn("failed to load favorites", "err", err)
		} else {
			m.marked = set
		}
	}
	return m, nil
}

// Path is the target file.
func (m *Menu) Path() string { return m.path }

// OnWrite registers a hook called before the menu writes its target.
func (m *Menu) OnWrite(fn func(path string)) {
	m.mu.Lock()
	m.onWrite = fn
	m.mu.Unlock()
}

// Reload re-reads the target file. Values edited since the last save are
// kept; everything else takes the value on disk.
func (m *Menu) Reload() error {
	raw, err := os.ReadFile(m.path)
	if err != nil && !os.IsNotExist(err) {
		return fmt.Errorf("read %s: %w", m.path, err)
	}
	doc := kvfile.Parse(raw, m.syntax)
	disk := make(map[string]string)
	m.eachItem(func(it *ItemDef) {
		if it.Key == "" {
			return
		}
		if v, ok := doc.Get(it.Key); ok {
			disk[it.Key] = v
		} else {
			disk[it.Key] = it.Default
		}
	})

	m.mu.Lock()
	defer m.mu.Unlock()
	values := maps.Clone(disk)
	for k, v := range m.values {
		if m.saved[k] != v {
			values[k] = v
		}
	}
	m.raw = raw
	m.saved = disk
	m.values = values
	return nil
}

func (m *Menu) eachItem(fn func(*ItemDef)) {
	for t := range m.def.Tabs {
		for i := range m.def.Tabs[t].Items {
			it := &m.def.Tabs[t].Items[i]
			fn(it)
			for j := range it.Items {
				fn(&it.Items[j])
			}
		}
	}
}

// Title implements menu.Collaborator.
func (m *Menu) Title() string {
	if m.def.Title != "" {
		return m.def.Title
	}
	return m.def.Name
}

// Tabs implements menu.Collaborator.
func (m *Menu) Tabs() []string {
	out := make([]string, len(m.def.Tabs))
	for i, t := range m.def.Tabs {
		out[i] = t.Name
	}
	return out
}

// Items implements menu.Collaborator.
func (m *Menu) Items(tab int) []menu.Item {
	if tab < 0 || tab >= len(m.def.Tabs) {
		return nil
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.itemsLocked(m.def.Tabs[tab].Items)
}

func (m *Menu) itemsLocked(defs []ItemDef) []menu.Item {
	out := make([]menu.Item, len(defs))
	for i := range defs {
		d := &defs[i]
		it := menu.Item{
			Key:    d.Key,
			Label:  d.Label,
			Kind:   kindOf(d.Type),
			Hint:   d.Hint,
			Marked: m.marked[favoriteKey(d)],
			Data:   d,
		}
		switch d.Type {
		case TypeToggle, TypeCycle, TypePicker, TypeFloat:
			it.Value = m.values[d.Key]
		case TypeMenu:
			it.Value = "›"
		}
		out[i] = it
	}
	return out
}

func kindOf(typ string) menu.Kind {
	switch typ {
	case TypeToggle:
		return menu.KindToggle
	case TypeCycle:
		return menu.KindCycle
	case TypeFloat:
		return menu.KindFloat
	case TypePicker, TypeMenu:
		return menu.KindMenu
	}
	return menu.KindAction
}

func favoriteKey(d *ItemDef) string {
	if d.Key != "" {
		return d.Key
	}
	return "label:" + d.Label
}

// lookup resolves ref to its definition. Rows of the file viewer have none.
func lookup(ref menu.Ref) (*ItemDef, bool) {
	d, ok := ref.Item.Data.(*ItemDef)
	return d, ok && d != nil
}

func detailKey(tab, idx int) string {
	return strconv.Itoa(tab) + "/" + strconv.Itoa(idx)
}

// Activate implements menu.Collaborator.
func (m *Menu) Activate(ref menu.Ref) (menu.Result, error) {
	d, ok := lookup(ref)
	if !ok {
		return menu.Result{}, nil
	}
	m.touch(d)
	switch d.Type {
	case TypeToggle:
		m.flip(d)
	case TypeCycle:
		m.step(d, 1)
	case TypeFloat:
		return menu.Result{Status: "use ←/→ to adjust"}, nil
	case TypePicker:
		return menu.Result{Picker: m.picker(d)}, nil
	case TypeMenu:
		sub := d
		return menu.Result{Detail: &menu.Detail{
			Key:     detailKey(ref.Tab, ref.Index),
			Title:   d.Label,
			Preview: d.Preview,
			Items: func() []menu.Item {
				m.mu.Lock()
				defer m.mu.Unlock()
				return m.itemsLocked(sub.Items)
			},
		}}, nil
	case TypeAction:
		if d.View {
			detail, err := m.ViewFile(ref)
			return menu.Result{Detail: detail}, err
		}
		return m.runAction(d)
	}
	return menu.Result{}, nil
}

func (m *Menu) touch(d *ItemDef) {
	if m.opts.Favorites == nil {
		return
	}
	if err := m.opts.Favorites.Touch(m.def.Name, favoriteKey(d)); err != nil {
		m.log.Debug("failed to record recent", "err", err)
	}
}

func (m *Menu) runAction(d *ItemDef) (menu.Result, error) {
	ctx, cancel := context.WithTimeout(context.Background(), ActionTimeout)
	defer cancel()
	out, err := preview.Capture(ctx, d.Command, m.env(d.Key)...)
	if err != nil {
		if line := out.FirstLine(); line != "" {
			return menu.Result{}, fmt.Errorf("%s: %w", line, err)
		}
		return menu.Result{}, err
	}
	status := out.FirstLine()
	if status == "" {
		status = d.Label + ": done"
	}
	return menu.Result{Status: status}, nil
}

func (m *Menu) picker(d *ItemDef) *menu.Picker {
	m.mu.Lock()
	original := m.values[d.Key]
	m.mu.Unlock()
	opts := make([]menu.Item, len(d.Options))
	current := 0
	for i, o := range d.Options {
		opts[i] = menu.Item{Label: o, Kind: menu.KindChoice}
		if o == original {
			current = i
		}
	}
	p := &menu.Picker{
		Title:    d.Label,
		Options:  opts,
		Selected: current,
		Confirm: func(i int) error {
			m.set(d.Key, d.Options[i])
			return nil
		},
		Cancel: func() error {
			m.set(d.Key, original)
			if m.def.Preview == "" {
				return nil
			}
			return m.runPreview(d.Key)
		},
	}
	if m.def.Preview != "" {
		p.Preview = func(i int) error {
			m.set(d.Key, d.Options[i])
			return m.runPreview(d.Key)
		}
	}
	return p
}

func (m *Menu) set(key, value string) {
	m.mu.Lock()
	m.values[key] = value
	m.mu.Unlock()
}

func (m *Menu) flip(d *ItemDef) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.values[d.Key] == d.On {
		m.values[d.Key] = d.Off
	} else {
		m.values[d.Key] = d.On
	}
}

func (m *Menu) step(d *ItemDef, delta int) {
	m.mu.Lock()
	defer m.mu.Unlock()
	n := len(d.Options)
	cur := 0
	for i, o := range d.Options {
		if o == m.values[d.Key] {
			cur = i
			break
		}
	}
	m.values[d.Key] = d.Options[((cur+delta)%n+n)%n]
}

func (m *Menu) nudge(d *ItemDef, delta int) {
	m.mu.Lock()
	defer m.mu.Unlock()
	v, err := strconv.ParseFloat(m.values[d.Key], 64)
	if err != nil {
		v = d.Min
	}
	v += float64(delta) * d.Step
	v = min(max(v, d.Min), d.Max)
	m.values[d.Key] = formatFloat(v, d.Precision)
}

func formatFloat(v float64, precision int) string {
	return strconv.FormatFloat(v, 'f', max(precision, 0), 64)
}

// Toggle implements menu.Toggler: toggles flip, cycles advance.
func (m *Menu) Toggle(ref menu.Ref) error {
	d, ok := lookup(ref)
	if !ok {
		return nil
	}
	switch d.Type {
	case TypeToggle:
		m.flip(d)
	case TypeCycle:
		m.step(d, 1)
	}
	return nil
}

// Adjust implements menu.Adjuster.
func (m *Menu) Adjust(ref menu.Ref, delta int) error {
	d, ok := lookup(ref)
	if !ok {
		return nil
	}
	switch d.Type {
	case TypeCycle:
		m.step(d, delta)
	case TypeFloat:
		m.nudge(d, delta)
	}
	return nil
}

// Preview implements menu.Previewer.
func (m *Menu) Preview(ref menu.Ref) error {
	if m.def.Preview == "" || m.opts.Runner == nil {
		return nil
	}
	return m.runPreview(ref.Item.Key)
}

func (m *Menu) runPreview(key string) error {
	if m.opts.Runner == nil {
		return nil
	}
	staged, err := m.stage()
	if err != nil {
		return err
	}
	env := append(m.env(key), "TEXELMENU_PREVIEW_FILE="+staged)
	return m.opts.Runner.Start(m.def.Preview, env...)
}

// stage writes the pending content to a private file for the preview command.
func (m *Menu) stage() (string, error) {
	dir := m.opts.StageDir
	if dir == "" {
		dir = os.TempDir()
	}
	path := filepath.Join(dir, "texelmenu-"+m.def.Name+".preview")
	if err := atomicfile.Write(path, m.Render(), atomicfile.AllowEmpty(), atomicfile.WithMode(0o600)); err != nil {
		return "", fmt.Errorf("stage preview: %w", err)
	}
	return path, nil
}

func (m *Menu) env(key string) []string {
	m.mu.Lock()
	value := m.values[key]
	m.mu.Unlock()
	return []string{
		"TEXELMENU_MENU=" + m.def.Name,
		"TEXELMENU_FILE=" + m.path,
		"TEXELMENU_KEY=" + key,
		"TEXELMENU_VALUE=" + value,
	}
}

// Render returns the target file content with the pending values applied.
func (m *Menu) Render() []byte {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.renderLocked()
}

func (m *Menu) renderLocked() []byte {
	doc := kvfile.Parse(m.raw, m.syntax)
	m.eachItem(func(it *ItemDef) {
		if it.Key == "" {
			return
		}
		v := m.values[it.Key]
		if cur, ok := doc.Get(it.Key); !ok || cur != v {
			doc.Set(it.Key, v)
		}
	})
	return doc.Bytes()
}

// Dirty implements menu.DirtyReporter.
func (m *Menu) Dirty() bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	return !maps.Equal(m.values, m.saved)
}

// Values returns a copy of the pending values.
func (m *Menu) Values() map[string]string {
	m.mu.Lock()
	defer m.mu.Unlock()
	return maps.Clone(m.values)
}

// Save implements menu.Collaborator. values carries the list-level items;
// submenu values are already held by the menu.
func (m *Menu) Save(values map[string]string) error {
	m.mu.Lock()
	for k, v := range values {
		if _, known := m.values[k]; known {
			m.values[k] = v
		}
	}
	content := m.renderLocked()
	want := maps.Clone(m.values)
	hook := m.onWrite
	m.mu.Unlock()

	if hook != nil {
		hook(m.path)
	}
	check := func(staged []byte) error { return checkStaged(staged, m.syntax, want) }
	if err := atomicfile.Write(m.path, content, atomicfile.WithCheck(check)); err != nil {
		return err
	}
	m.log.Info("saved", "path", m.path)

	m.mu.Lock()
	m.raw = content
	m.saved = want
	m.mu.Unlock()

	if m.def.Apply != "" {
		m.apply()
	}
	return nil
}

// checkStaged verifies every keyed value made it into the staged bytes.
func checkStaged(staged []byte, syn kvfile.Syntax, want map[string]string) error {
	doc := kvfile.Parse(staged, syn)
	for k, v := range want {
		if got, ok := doc.Get(k); !ok || got != v {
			return fmt.Errorf("key %q missing from staged content", k)
		}
	}
	return nil
}

func (m *Menu) apply() {
	ctx, cancel := context.WithTimeout(context.Background(), ActionTimeout)
	defer cancel()
	out, err := preview.Capture(ctx, m.def.Apply, m.env("")...)
	if err != nil {
		m.log.Warn("apply command failed", "err", err, "output", out.FirstLine())
		return
	}
	m.log.Debug("applied", "output", out.FirstLine())
}

// ToggleFavorite implements menu.Favoriter.
func (m *Menu) ToggleFavorite(ref menu.Ref) error {
	d, ok := lookup(ref)
	if !ok {
		return nil
	}
	key := favoriteKey(d)
	m.mu.Lock()
	on := !m.marked[key]
	m.mu.Unlock()
	if m.opts.Favorites != nil {
		var err error
		if on, err = m.opts.Favorites.Toggle(m.def.Name, key); err != nil {
			return err
		}
	}
	m.mu.Lock()
	m.marked[key] = on
	m.mu.Unlock()
	return nil
}

// ViewFile implements menu.FileViewer: the pending file content, highlighted.
func (m *Menu) ViewFile(menu.Ref) (*menu.Detail, error) {
	content := m.Render()
	lines := highlight.Lines(m.path, content, m.opts.Style)
	items := make([]menu.Item, len(lines))
	for i, spans := range lines {
		items[i] = menu.Item{Spans: spans, Kind: menu.KindAction}
		if len(spans) == 0 {
			items[i].Label = " "
		}
	}
	return &menu.Detail{
		Key:   fileViewKey,
		Title: filepath.Base(m.path),
		Items: func() []menu.Item { return items },
	}, nil
}
