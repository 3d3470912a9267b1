// Copyright © 2025 Texelation contributors
// SPDX-License-Identifier: AGPL-3.0-or-later
//
// File: menu/input/mouse.go
// Summary: SGR extended mouse report parsing (ESC [ < b ; col ; row M/m).

package input

import "strings"

const (
	sgrMotion   = 32
	sgrWheel    = 64
	sgrModifier = 4 | 8 | 16
)

// ParseSGRMouse decodes the body following "ESC [<", including the final
// M (press) or m (release). ok is false for malformed reports and for
// reports the menu ignores: releases of buttons 0-2 and drag motion.
func ParseSGRMouse(body string) (Mouse, bool) {
	if len(body) < 6 {
		return Mouse{}, false
	}
	final := body[len(body)-1]
	if final != 'M' && final != 'm' {
		return Mouse{}, false
	}
	fields := strings.Split(body[:len(body)-1], ";")
	if len(fields) != 3 {
		return Mouse{}, false
	}
	var nums [3]int
	for i, f := range fields {
		n, ok := parseUint(f)
		if !ok {
			return Mouse{}, false
		}
		nums[i] = n
	}
	code, col, row := nums[0], nums[1], nums[2]
	press := final == 'M'

	if code&sgrMotion != 0 {
		return Mouse{}, false
	}
	code &^= sgrModifier

	m := Mouse{Col: col, Row: row, Press: press}
	switch code {
	case 0, 1, 2:
		if !press {
			return Mouse{}, false
		}
		m.Button = MouseButton(code)
	case sgrWheel:
		m.Button = WheelUp
	case sgrWheel + 1:
		m.Button = WheelDown
	default:
		return Mouse{}, false
	}
	return m, true
}

// parseUint accepts only non-empty runs of ASCII digits.
func parseUint(s string) (int, bool) {
	if s == "" || len(s) > 6 {
		return 0, false
	}
	n := 0
	for i := 0; i < len(s); i++ {
		c := s[i]
		if c < '0' || c > '9' {
			return 0, false
		}
		n = n*10 + int(c-'0')
	}
	return n, true
}
