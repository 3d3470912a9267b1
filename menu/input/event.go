// Copyright © 2025 Texelation contributors
// SPDX-License-Identifier: AGPL-3.0-or-later
//
// File: menu/input/event.go
// Summary: Logical input events produced by the escape decoder.

package input

import "fmt"

// Key identifies a logical key.
type Key int

const (
	KeyNone Key = iota
	KeyRune
	KeyEnter
	KeyEscape
	KeyTab
	KeyBacktab
	KeyBackspace
	KeyDelete
	KeyInsert
	KeyUp
	KeyDown
	KeyLeft
	KeyRight
	KeyHome
	KeyEnd
	KeyPageUp
	KeyPageDown
	KeyCtrl
)

var keyNames = map[Key]string{
	KeyNone:      "none",
	KeyRune:      "rune",
	KeyEnter:     "enter",
	KeyEscape:    "esc",
	KeyTab:       "tab",
	KeyBacktab:   "shift+tab",
	KeyBackspace: "backspace",
	KeyDelete:    "delete",
	KeyInsert:    "insert",
	KeyUp:        "up",
	KeyDown:      "down",
	KeyLeft:      "left",
	KeyRight:     "right",
	KeyHome:      "home",
	KeyEnd:       "end",
	KeyPageUp:    "pgup",
	KeyPageDown:  "pgdown",
	KeyCtrl:      "ctrl",
}

func (k Key) String() string {
	if name, ok := keyNames[k]; ok {
		return name
	}
	return fmt.Sprintf("key(%d)", int(k))
}

// EventType classifies an Event.
type EventType int

const (
	// EventKey is a keyboard event.
	EventKey EventType = iota
	// EventMouse is a decoded SGR mouse report.
	EventMouse
	// EventTimeout means the read timeout elapsed without input.
	EventTimeout
	// EventInterrupt means Source.Interrupt woke the read.
	EventInterrupt
)

// Event is one decoded input event.
type Event struct {
	Type  EventType
	Key   Key
	Rune  rune // KeyRune: the character; KeyCtrl: the lower-case letter
	Mouse Mouse
}

// String renders the event in the "ctrl+c" / "up" / "x" style used in logs.
func (e Event) String() string {
	switch e.Type {
	case EventMouse:
		return e.Mouse.String()
	case EventTimeout:
		return "timeout"
	case EventInterrupt:
		return "interrupt"
	}
	switch e.Key {
	case KeyRune:
		return string(e.Rune)
	case KeyCtrl:
		return "ctrl+" + string(e.Rune)
	}
	return e.Key.String()
}

// IsRune reports whether the event is the printable character r.
func (e Event) IsRune(r rune) bool {
	return e.Type == EventKey && e.Key == KeyRune && e.Rune == r
}

// IsCtrl reports whether the event is Ctrl plus the given letter.
func (e Event) IsCtrl(letter rune) bool {
	return e.Type == EventKey && e.Key == KeyCtrl && e.Rune == letter
}

// MouseButton identifies the button of a mouse report.
type MouseButton int

const (
	MouseLeft MouseButton = iota
	MouseMiddle
	MouseRight
	WheelUp
	WheelDown
)

// Mouse is a decoded SGR mouse report. Col and Row are 1-based cells.
type Mouse struct {
	Button MouseButton
	Col    int
	Row    int
	Press  bool
}

func (m Mouse) String() string {
	names := [...]string{"left", "middle", "right", "wheelup", "wheeldown"}
	name := "mouse"
	if int(m.Button) < len(names) {
		name = names[m.Button]
	}
	return fmt.Sprintf("%s@%d,%d", name, m.Col, m.Row)
}
