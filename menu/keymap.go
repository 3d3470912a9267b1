// Copyright © 2025 Texelation contributors
// SPDX-License-Identifier: AGPL-3.0-or-later
//
// File: menu/keymap.go
// Summary: Maps decoded key events to router commands for the active view.

package menu

import "github.com/framegrace/texelmenu/menu/input"

const (
	footerList   = "↑↓ move  ←→ adjust  space toggle  enter open  tab next  s save  q quit  ? help"
	footerDetail = "↑↓ move  ←→ adjust  space toggle  enter open  esc back  s save  ? help"
	footerPicker = "type to filter  ↑↓ move  enter apply  esc clear/cancel"
	footerHelp   = "j/k ↑↓ move  PgUp/PgDn page  g/G home/end  tab/[ ] tabs  1-9 tab  h/l adjust  space toggle  " +
		"enter activate  f favorite  v view file  / find  s save  esc back  q quit"
)

var navKeys = map[input.Key]Op{
	input.KeyUp:       OpUp,
	input.KeyDown:     OpDown,
	input.KeyPageUp:   OpPageUp,
	input.KeyPageDown: OpPageDown,
	input.KeyHome:     OpHome,
	input.KeyEnd:      OpEnd,
	input.KeyEnter:    OpActivate,
	input.KeyEscape:   OpBack,
}

var listKeys = map[input.Key]Command{
	input.KeyTab:       {Op: OpNextTab},
	input.KeyBacktab:   {Op: OpPrevTab},
	input.KeyLeft:      {Op: OpAdjust, Arg: -1},
	input.KeyRight:     {Op: OpAdjust, Arg: 1},
	input.KeyBackspace: {Op: OpBack},
}

var listRunes = map[rune]Command{
	'k': {Op: OpUp},
	'j': {Op: OpDown},
	'g': {Op: OpHome},
	'G': {Op: OpEnd},
	']': {Op: OpNextTab},
	'[': {Op: OpPrevTab},
	'h': {Op: OpAdjust, Arg: -1},
	'l': {Op: OpAdjust, Arg: 1},
	' ': {Op: OpToggle},
	's': {Op: OpSave},
	'q': {Op: OpQuit},
	'f': {Op: OpFavorite},
	'v': {Op: OpViewFile},
	'/': {Op: OpFind},
	'?': {Op: OpHelp},
}

// KeyCommand returns the command for a key event in view v.
func KeyCommand(ev input.Event, v View) (Command, bool) {
	if ev.Type != input.EventKey {
		return Command{}, false
	}
	if ev.IsCtrl('c') {
		return Command{Op: OpForceQuit}, true
	}
	if op, ok := navKeys[ev.Key]; ok {
		return Command{Op: op}, true
	}
	if v == ViewPicker {
		switch {
		case ev.Key == input.KeyBackspace:
			return Command{Op: OpFilterErase}, true
		case ev.Key == input.KeyRune:
			return Command{Op: OpFilterRune, Rune: ev.Rune}, true
		}
		return Command{}, false
	}
	if cmd, ok := listKeys[ev.Key]; ok {
		return cmd, true
	}
	if ev.Key != input.KeyRune {
		return Command{}, false
	}
	if cmd, ok := listRunes[ev.Rune]; ok {
		return cmd, true
	}
	if ev.Rune >= '1' && ev.Rune <= '9' && v == ViewList {
		return Command{Op: OpSelectTab, Arg: int(ev.Rune - '1')}, true
	}
	return Command{}, false
}
