// Copyright © 2025 Texelation contributors
// SPDX-License-Identifier: AGPL-3.0-or-later
//
// File: menu/frame/theme.go
// Summary: Frame colors parsed with tcell and emitted as SGR sequences.

package frame

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/gdamore/tcell/v2"
)

// Color is a tcell color.
type Color = tcell.Color

// ColorDefault selects the terminal's own foreground or background.
const ColorDefault = tcell.ColorDefault

// Theme holds the colors used by the renderer.
type Theme struct {
	Accent     tcell.Color
	Border     tcell.Color
	SelectedFG tcell.Color
	SelectedBG tcell.Color
	Muted      tcell.Color
	Error      tcell.Color
}

// DefaultTheme is the mocha palette.
func DefaultTheme() Theme {
	return Theme{
		Accent:     tcell.NewHexColor(0x89b4fa),
		Border:     tcell.NewHexColor(0x585b70),
		SelectedFG: tcell.NewHexColor(0x1e1e2e),
		SelectedBG: tcell.NewHexColor(0x89b4fa),
		Muted:      tcell.NewHexColor(0x7f849c),
		Error:      tcell.NewHexColor(0xf38ba8),
	}
}

// ParseColor accepts tcell color names, "#rrggbb" and "default".
func ParseColor(s string) (tcell.Color, error) {
	s = strings.TrimSpace(strings.ToLower(s))
	if s == "" || s == "default" {
		return tcell.ColorDefault, nil
	}
	c := tcell.GetColor(s)
	if c == tcell.ColorDefault {
		return tcell.ColorDefault, fmt.Errorf("frame: unknown color %q", s)
	}
	return c, nil
}

// ThemeFromMap overrides DefaultTheme with the given keys (accent, border,
// selected_fg, selected_bg, muted, error). Unknown keys are ignored.
func ThemeFromMap(values map[string]string) (Theme, error) {
	t := DefaultTheme()
	slots := map[string]*tcell.Color{
		"accent":      &t.Accent,
		"border":      &t.Border,
		"selected_fg": &t.SelectedFG,
		"selected_bg": &t.SelectedBG,
		"muted":       &t.Muted,
		"error":       &t.Error,
	}
	for key, raw := range values {
		slot, ok := slots[key]
		if !ok || raw == "" {
			continue
		}
		c, err := ParseColor(raw)
		if err != nil {
			return t, fmt.Errorf("theme.%s: %w", key, err)
		}
		*slot = c
	}
	return t, nil
}

// style is a resolved text attribute set.
type style struct {
	fg, bg tcell.Color
	bold   bool
}

func (s style) sgr() string {
	var b strings.Builder
	b.WriteString("\x1b[0")
	if s.bold {
		b.WriteString(";1")
	}
	b.WriteString(";")
	b.WriteString(colorCode(s.fg, true))
	b.WriteString(";")
	b.WriteString(colorCode(s.bg, false))
	b.WriteString("m")
	return b.String()
}

func colorCode(c tcell.Color, fg bool) string {
	base := "38"
	if !fg {
		base = "48"
	}
	switch {
	case c == tcell.ColorDefault || !c.Valid():
		if fg {
			return "39"
		}
		return "49"
	case c.IsRGB():
		r, g, b := c.RGB()
		return base + ";2;" + strconv.Itoa(int(r)) + ";" + strconv.Itoa(int(g)) + ";" + strconv.Itoa(int(b))
	default:
		return base + ";5;" + strconv.Itoa(int(c-tcell.ColorValid))
	}
}
