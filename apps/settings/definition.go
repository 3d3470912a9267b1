// Copyright © 2025 Texelation contributors
// SPDX-License-Identifier: AGPL-3.0-or-later
//
// File: apps/settings/definition.go
// Summary: YAML menu definition: tabs, items and the target config file.
// Usage: Load(path) parses and validates a definition; New builds the menu.

package settings

import (
	"bytes"
	"errors"
	"fmt"
	"math"
	"os"
	"path/filepath"
	"strings"

	"github.com/framegrace/texelmenu/internal/kvfile"
	"gopkg.in/yaml.v3"
)

// Item types accepted in a definition.
const (
	TypeToggle = "toggle"
	TypeCycle  = "cycle"
	TypeFloat  = "float"
	TypePicker = "picker"
	TypeMenu   = "menu"
	TypeAction = "action"
)

// Definition is one menu file.
type Definition struct {
	// Name keys the persisted state and favorites; defaults to the file
	// name without extension.
	Name  string    `yaml:"name"`
	Title string    `yaml:"title"`
	File  TargetDef `yaml:"file"`
	// Preview is a shell command run (debounced) after an edit or while
	// browsing a picker. $TEXELMENU_KEY, $TEXELMENU_VALUE and
	// $TEXELMENU_FILE describe the pending change.
	Preview string `yaml:"preview"`
	// Apply runs after a successful save.
	Apply string   `yaml:"apply"`
	Watch *bool    `yaml:"watch"`
	Tabs  []TabDef `yaml:"tabs"`

	dir string
}

// TargetDef describes the config file the menu edits.
type TargetDef struct {
	Path      string `yaml:"path"`
	Separator string `yaml:"separator"`
	Comment   string `yaml:"comment"`
	Quote     bool   `yaml:"quote"`
}

// TabDef is one tab of items.
type TabDef struct {
	Name  string    `yaml:"name"`
	Items []ItemDef `yaml:"items"`
}

// ItemDef is one menu row.
type ItemDef struct {
	Key     string   `yaml:"key"`
	Label   string   `yaml:"label"`
	Type    string   `yaml:"type"`
	Hint    string   `yaml:"hint"`
	Default string   `yaml:"default"`
	Options []string `yaml:"options"`
	// On and Off are the toggle values written to the file.
	On  string `yaml:"on"`
	Off string `yaml:"off"`

	Min       float64 `yaml:"min"`
	Max       float64 `yaml:"max"`
	Step      float64 `yaml:"step"`
	Precision int     `yaml:"precision"`

	// Command is run by an action item; its first output line becomes the
	// status message.
	Command string `yaml:"command"`
	// View makes an action open the file viewer.
	View bool `yaml:"view"`
	// Preview enables live preview while browsing a submenu.
	Preview bool      `yaml:"preview"`
	Items   []ItemDef `yaml:"items"`
}

// Load reads and validates a definition.
func Load(path string) (*Definition, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read menu definition: %w", err)
	}
	def, err := Parse(data)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	abs, err := filepath.Abs(path)
	if err != nil {
		return nil, err
	}
	def.dir = filepath.Dir(abs)
	if def.Name == "" {
		def.Name = strings.TrimSuffix(filepath.Base(path), filepath.Ext(path))
	}
	return def, nil
}

// Parse decodes and validates definition YAML. Unknown fields are errors.
func Parse(data []byte) (*Definition, error) {
	var def Definition
	dec := yaml.NewDecoder(bytes.NewReader(data))
	dec.KnownFields(true)
	if err := dec.Decode(&def); err != nil {
		return nil, fmt.Errorf("failed to parse YAML definition: %w", err)
	}
	def.applyDefaults()
	if err := def.Validate(); err != nil {
		return nil, fmt.Errorf("invalid definition: %w", err)
	}
	return &def, nil
}

func (d *Definition) applyDefaults() {
	if d.File.Separator == "" {
		d.File.Separator = kvfile.DefaultSyntax.Separator
	}
	if d.File.Comment == "" {
		d.File.Comment = kvfile.DefaultSyntax.Comment
	}
	for t := range d.Tabs {
		applyItemDefaults(d.Tabs[t].Items)
	}
}

func applyItemDefaults(items []ItemDef) {
	for i := range items {
		it := &items[i]
		if it.Label == "" {
			it.Label = it.Key
		}
		switch it.Type {
		case TypeToggle:
			if it.On == "" {
				it.On = "true"
			}
			if it.Off == "" {
				it.Off = "false"
			}
			if it.Default == "" {
				it.Default = it.Off
			}
		case TypeCycle, TypePicker:
			if it.Default == "" && len(it.Options) > 0 {
				it.Default = it.Options[0]
			}
		case TypeFloat:
			if it.Step == 0 {
				it.Step = 1
			}
			if it.Default == "" {
				it.Default = formatFloat(it.Min, it.Precision)
			}
		case TypeMenu:
			applyItemDefaults(it.Items)
		}
	}
}

// Validate checks structure and item constraints.
func (d *Definition) Validate() error {
	var errs []error
	if d.File.Path == "" {
		errs = append(errs, errors.New("file.path is required"))
	}
	if len(d.Tabs) == 0 {
		errs = append(errs, errors.New("at least one tab is required"))
	}
	seen := make(map[string]string)
	for t, tab := range d.Tabs {
		where := fmt.Sprintf("tab %d", t+1)
		if tab.Name == "" {
			errs = append(errs, fmt.Errorf("%s: name is required", where))
		}
		errs = append(errs, validateItems(where, tab.Items, seen, 0)...)
	}
	return errors.Join(errs...)
}

func validateItems(where string, items []ItemDef, seen map[string]string, depth int) []error {
	var errs []error
	for i, it := range items {
		at := fmt.Sprintf("%s item %d", where, i+1)
		if it.Key != "" {
			at = fmt.Sprintf("%s (%s)", at, it.Key)
		}
		needsKey := it.Type == TypeToggle || it.Type == TypeCycle || it.Type == TypeFloat || it.Type == TypePicker
		switch {
		case needsKey && it.Key == "":
			errs = append(errs, fmt.Errorf("%s: key is required for %s items", at, it.Type))
		case it.Key != "":
			if prev, dup := seen[it.Key]; dup {
				errs = append(errs, fmt.Errorf("%s: key already used by %s", at, prev))
			}
			seen[it.Key] = at
		}
		switch it.Type {
		case TypeToggle:
			if it.On == it.Off {
				errs = append(errs, fmt.Errorf("%s: on and off values must differ", at))
			}
		case TypeCycle, TypePicker:
			if len(it.Options) == 0 {
				errs = append(errs, fmt.Errorf("%s: options are required", at))
			}
		case TypeFloat:
			if it.Max <= it.Min {
				errs = append(errs, fmt.Errorf("%s: max must be greater than min", at))
			}
			if it.Step < 0 || math.IsNaN(it.Step) {
				errs = append(errs, fmt.Errorf("%s: step must be positive", at))
			}
		case TypeMenu:
			if len(it.Items) == 0 {
				errs = append(errs, fmt.Errorf("%s: submenu has no items", at))
			}
			if depth > 0 {
				errs = append(errs, fmt.Errorf("%s: submenus cannot nest", at))
			}
			errs = append(errs, validateItems(at, it.Items, seen, depth+1)...)
		case TypeAction:
			if it.Command == "" && !it.View {
				errs = append(errs, fmt.Errorf("%s: action needs a command or view: true", at))
			}
		default:
			errs = append(errs, fmt.Errorf("%s: unknown type %q", at, it.Type))
		}
	}
	return errs
}

// TargetPath resolves file.path: "~" expands to the home directory and
// relative paths are taken from the definition's directory.
func (d *Definition) TargetPath() (string, error) {
	p := d.File.Path
	if p == "~" || strings.HasPrefix(p, "~/") {
		home, err := os.UserHomeDir()
		if err != nil {
			return "", fmt.Errorf("expand ~: %w", err)
		}
		p = filepath.Join(home, strings.TrimPrefix(p, "~"))
	}
	p = os.ExpandEnv(p)
	if !filepath.IsAbs(p) && d.dir != "" {
		p = filepath.Join(d.dir, p)
	}
	return p, nil
}

// Syntax returns the codec settings for the target file.
func (d *Definition) Syntax() kvfile.Syntax {
	return kvfile.Syntax{Separator: d.File.Separator, Comment: d.File.Comment, Quote: d.File.Quote}
}

// Watching reports whether external edits of the target are followed.
func (d *Definition) Watching() bool {
	return d.Watch == nil || *d.Watch
}
