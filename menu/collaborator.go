// Copyright © 2025 Texelation contributors
// SPDX-License-Identifier: AGPL-3.0-or-later
//
// File: menu/collaborator.go
// Summary: The narrow interface between the engine and the domain that owns the items.
// Notes: Only Collaborator is required. The other interfaces are detected
//   with type assertions and enable the matching keys.

package menu

// Ref identifies the item a callback is about.
type Ref struct {
	Tab    int
	Detail string // key of the open Detail view; empty for the tab list
	Index  int
	Item   Item
}

// Collaborator supplies items and reacts to activation and save.
type Collaborator interface {
	Title() string
	Tabs() []string
	Items(tab int) []Item
	// Activate runs on Enter. The result may open a Detail view or a Picker.
	Activate(ref Ref) (Result, error)
	// Save receives the keyed values of every tab.
	Save(values map[string]string) error
}

// Result is what an activation asks the engine to do next.
type Result struct {
	Detail *Detail
	Picker *Picker
	Status string
	Quit   bool
}

// Detail is a drilled-into sub-list.
type Detail struct {
	Key   string
	Title string
	Items func() []Item
	// Preview arms the debounced Previewer on navigation inside the view.
	Preview bool
}

// Picker is a modal choice among options.
type Picker struct {
	Title    string
	Options  []Item
	Selected int
	// Preview, when set, runs (debounced) as the highlight moves.
	Preview func(index int) error
	// Confirm applies the chosen option.
	Confirm func(index int) error
	// Cancel undoes any preview side effects.
	Cancel func() error
}

// Toggler handles Space on an item.
type Toggler interface {
	Toggle(ref Ref) error
}

// Adjuster handles Left/Right on Cycle and Float items.
type Adjuster interface {
	Adjust(ref Ref, delta int) error
}

// Previewer performs the expensive live preview. The engine debounces it.
type Previewer interface {
	Preview(ref Ref) error
}

// DirtyReporter reports unsaved edits.
type DirtyReporter interface {
	Dirty() bool
}

// Favoriter toggles a persistent favorite mark.
type Favoriter interface {
	ToggleFavorite(ref Ref) error
}

// FileViewer opens a read-only view of the file behind an item.
type FileViewer interface {
	ViewFile(ref Ref) (*Detail, error)
}
