// Copyright © 2025 Texelation contributors
// SPDX-License-Identifier: AGPL-3.0-or-later
//
// File: menu/types.go
// Summary: Menu data model: items, views and the engine-owned view state.

package menu

import (
	"fmt"

	"github.com/framegrace/texelmenu/menu/frame"
)

// Kind tells the engine how an item is drawn and which keys apply to it.
type Kind int

const (
	// KindToggle is an on/off value; Space flips it.
	KindToggle Kind = iota
	// KindCycle steps through a fixed set of values with Left/Right.
	KindCycle
	// KindFloat is a numeric value adjusted with Left/Right.
	KindFloat
	// KindAction runs a collaborator callback on Enter.
	KindAction
	// KindMenu opens a Detail view or a Picker on Enter.
	KindMenu
	// KindChoice is one option inside a Picker.
	KindChoice
)

var kindNames = []string{"toggle", "cycle", "float", "action", "menu", "choice"}

func (k Kind) String() string {
	if int(k) >= 0 && int(k) < len(kindNames) {
		return kindNames[k]
	}
	return fmt.Sprintf("kind(%d)", int(k))
}

// ParseKind maps a kind name back to its Kind.
func ParseKind(s string) (Kind, error) {
	for i, name := range kindNames {
		if name == s {
			return Kind(i), nil
		}
	}
	return 0, fmt.Errorf("menu: unknown item kind %q", s)
}

// Item is one row. Items belong to the collaborator; the engine only reads
// them for drawing and hands them back on callbacks.
type Item struct {
	Key      string
	Label    string
	Kind     Kind
	Value    string
	Hint     string
	Marked   bool
	Disabled bool
	Spans    []frame.Span
	Data     any
}

// View is the router state.
type View int

const (
	ViewList View = iota
	ViewDetail
	ViewPicker
)

func (v View) String() string {
	switch v {
	case ViewList:
		return "list"
	case ViewDetail:
		return "detail"
	case ViewPicker:
		return "picker"
	}
	return fmt.Sprintf("view(%d)", int(v))
}

// ViewState is the navigation state of the active view.
type ViewState struct {
	View      View
	Selected  int
	Offset    int
	Tab       int
	TabScroll int
}

// Snapshot is the part of the navigation state worth keeping between runs.
type Snapshot struct {
	Tab  int
	Rows map[int]int
}
