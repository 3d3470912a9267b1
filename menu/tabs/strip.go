// Copyright © 2025 Texelation contributors
// SPDX-License-Identifier: AGPL-3.0-or-later
//
// File: menu/tabs/strip.go
// Summary: Horizontal tab strip layout with a sliding window over overflowing tabs.
// Usage: Re-run every frame; the resulting zones are used for mouse hit-testing only.

package tabs

import (
	"github.com/mattn/go-runewidth"
)

// Overflow indicator glyphs, each followed or preceded by a space.
const (
	LeftArrow  = "◀ "
	RightArrow = " ▶"
	Ellipsis   = "…"
)

// MinWidth is the narrowest strip that can hold both arrows and a
// truncated active tab.
const MinWidth = 8

// Zone is a half-open column span [Start, End) relative to the strip origin.
type Zone struct {
	Start int
	End   int
}

// Contains reports whether col falls inside the zone.
func (z Zone) Contains(col int) bool {
	return col >= z.Start && col < z.End
}

// Width returns the zone's column count.
func (z Zone) Width() int {
	return z.End - z.Start
}

// Tab is one placed tab.
type Tab struct {
	Index  int
	Label  string // possibly truncated
	Zone   Zone
	Active bool
}

// Strip is the result of laying out a tab set in a fixed width.
type Strip struct {
	Width       int
	Tabs        []Tab
	ScrollStart int
	Left        *Zone
	Right       *Zone
}

// HitKind classifies a strip hit.
type HitKind int

const (
	HitNone HitKind = iota
	HitTab
	HitLeft
	HitRight
)

func tabWidth(label string) int {
	return runewidth.StringWidth(label) + 2
}

// Layout places labels left to right within width columns, keeping active
// visible. scrollStart is the first tab index the previous frame showed;
// the returned strip carries the adjusted value. Arrows mark hidden tabs on
// either side; only a strip narrower than ArrowFloor omits them.
func Layout(width int, labels []string, active, scrollStart int) Strip {
	strip := Strip{Width: width}
	n := len(labels)
	if n == 0 || width <= 0 {
		return strip
	}
	if active < 0 {
		active = 0
	}
	if active >= n {
		active = n - 1
	}
	if scrollStart < 0 {
		scrollStart = 0
	}
	if scrollStart > active {
		scrollStart = active
	}

	for start := scrollStart; start <= active; start++ {
		placed, ok := place(width, labels, active, start)
		if ok {
			return placed
		}
	}
	return placeTruncated(width, labels, active)
}

// place lays tabs out from start. It fails when active does not fit.
func place(width int, labels []string, active, start int) (Strip, bool) {
	n := len(labels)
	strip := Strip{Width: width, ScrollStart: start}
	col := 0
	if start > 0 {
		w := runewidth.StringWidth(LeftArrow)
		strip.Left = &Zone{Start: 0, End: w}
		col = w
	}
	arrowW := runewidth.StringWidth(RightArrow)

	i := start
	for ; i < n; i++ {
		w := tabWidth(labels[i])
		limit := width
		if i < n-1 {
			// Room must remain for the right arrow unless every later tab also fits.
			if !restFits(labels[i+1:], width-col-w) {
				limit = width - arrowW
			}
		}
		if col+w > limit {
			break
		}
		strip.Tabs = append(strip.Tabs, Tab{
			Index:  i,
			Label:  labels[i],
			Zone:   Zone{Start: col, End: col + w},
			Active: i == active,
		})
		col += w
	}
	if i <= active {
		return Strip{}, false
	}
	if i < n {
		strip.Right = &Zone{Start: width - arrowW, End: width}
	}
	return strip, true
}

func restFits(labels []string, avail int) bool {
	total := 0
	for _, l := range labels {
		total += tabWidth(l)
		if total > avail {
			return false
		}
	}
	return true
}

// ArrowFloor is the narrowest width at which placeTruncated still draws
// the arrows it needs: the arrows plus a tab holding only the ellipsis.
func ArrowFloor(left, right bool) int {
	w := tabWidth(Ellipsis)
	if left {
		w += runewidth.StringWidth(LeftArrow)
	}
	if right {
		w += runewidth.StringWidth(RightArrow)
	}
	return w
}

// placeTruncated shows only the active tab, shortening its label to fit
// between whichever arrows are needed.
func placeTruncated(width int, labels []string, active int) Strip {
	n := len(labels)
	strip := Strip{Width: width, ScrollStart: active}
	col := 0
	end := width
	arrows := width >= ArrowFloor(active > 0, active < n-1)
	if active > 0 && arrows {
		w := runewidth.StringWidth(LeftArrow)
		strip.Left = &Zone{Start: 0, End: w}
		col = w
	}
	if active < n-1 && arrows {
		w := runewidth.StringWidth(RightArrow)
		strip.Right = &Zone{Start: width - w, End: width}
		end = width - w
	}
	avail := end - col - 2
	if avail < 1 {
		avail = 1
	}
	label := runewidth.Truncate(labels[active], avail, Ellipsis)
	w := tabWidth(label)
	if col+w > end {
		w = end - col
	}
	strip.Tabs = []Tab{{
		Index:  active,
		Label:  label,
		Zone:   Zone{Start: col, End: col + w},
		Active: true,
	}}
	return strip
}

// HitTest maps a strip-relative column to what is drawn there.
func (s Strip) HitTest(col int) (HitKind, int) {
	if s.Left != nil && s.Left.Contains(col) {
		return HitLeft, -1
	}
	if s.Right != nil && s.Right.Contains(col) {
		return HitRight, -1
	}
	for _, t := range s.Tabs {
		if t.Zone.Contains(col) {
			return HitTab, t.Index
		}
	}
	return HitNone, -1
}

// ActiveZone returns the zone of the active tab, if placed.
func (s Strip) ActiveZone() (Zone, bool) {
	for _, t := range s.Tabs {
		if t.Active {
			return t.Zone, true
		}
	}
	return Zone{}, false
}

// First returns the index of the first placed tab, or -1.
func (s Strip) First() int {
	if len(s.Tabs) == 0 {
		return -1
	}
	return s.Tabs[0].Index
}

// Last returns the index of the last placed tab, or -1.
func (s Strip) Last() int {
	if len(s.Tabs) == 0 {
		return -1
	}
	return s.Tabs[len(s.Tabs)-1].Index
}
