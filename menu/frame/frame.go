// Copyright © 2025 Texelation contributors
// SPDX-License-Identifier: AGPL-3.0-or-later
//
// File: menu/frame/frame.go
// Summary: Composes one full-screen menu frame into a single byte buffer.
// Usage: Measure the screen, fill a Frame from view state, then write Render's
//   result in one call.
// Notes: Every row ends with erase-to-end-of-line and the frame ends with
//   erase-to-end-of-screen, so nothing from a previous frame survives.

package frame

import (
	"strconv"
	"strings"

	"github.com/framegrace/texelmenu/menu/scroll"
	"github.com/framegrace/texelmenu/menu/tabs"
	"github.com/mattn/go-runewidth"
)

const (
	seqHome      = "\x1b[H"
	seqEraseLine = "\x1b[K"
	seqEraseDown = "\x1b[J"
	seqReset     = "\x1b[0m"

	selectedMark = "▸ "
	favoriteMark = "★ "
	moreAbove    = "▲ more above"
	moreBelow    = "▼ more below"
	emptyList    = "(empty)"
)

// Metrics is the screen geometry shared by the renderer and hit-testing.
// Rows and columns are 1-based terminal coordinates.
type Metrics struct {
	Width, Height  int
	BoxWidth       int
	InnerWidth     int
	ContentCol     int
	TitleRow       int
	TabRow         int // 0 when there is no tab strip
	ItemStartRow   int
	ViewportHeight int
	StatusRow      int
	FooterRow      int
}

// Measure computes the layout for a width x height terminal. boxWidth 0
// uses the full width. The box always leaves the last column blank so a
// full-width row never triggers the terminal's pending wrap.
func Measure(width, height, boxWidth int, hasTabs bool) Metrics {
	bw := width - 1
	if boxWidth > 0 && boxWidth < bw {
		bw = boxWidth
	}
	if bw < 6 {
		bw = 6
	}
	m := Metrics{Width: width, Height: height, BoxWidth: bw, InnerWidth: bw - 4, ContentCol: 3}
	row := 2
	m.TitleRow = row
	row++
	if hasTabs {
		m.TabRow = row
		row++
	}
	row++ // separator
	row++ // more-above indicator
	m.ItemStartRow = row
	// below indicator, separator, status, footer, bottom border
	fixed := row - 1 + 5
	m.ViewportHeight = height - fixed
	if m.ViewportHeight < 1 {
		m.ViewportHeight = 1
	}
	m.StatusRow = m.ItemStartRow + m.ViewportHeight + 2
	m.FooterRow = m.StatusRow + 1
	return m
}

// Span is a styled run of text inside a row.
type Span struct {
	Text string
	FG   Color
	Bold bool
}

// Row is one item line.
type Row struct {
	Label    string
	Value    string
	Spans    []Span // replaces Label/Value when set
	Marked   bool
	Disabled bool
}

// StatusKind selects the status line color.
type StatusKind int

const (
	StatusInfo StatusKind = iota
	StatusError
)

// Frame is everything needed to draw one screen.
type Frame struct {
	Metrics    Metrics
	Theme      Theme
	Title      string
	Modified   bool
	Tabs       *tabs.Strip
	Rows       []Row
	Window     scroll.Window
	LabelWidth int
	Ellipsis   string
	Status     string
	StatusKind StatusKind
	Footer     string
}

type seg struct {
	text string
	st   style
}

type renderer struct {
	f     Frame
	th    Theme
	base  style
	ell   string
	lines []string
}

// Render returns the complete frame bytes.
func Render(f Frame) []byte {
	r := &renderer{f: f, th: f.Theme, ell: f.Ellipsis}
	if r.ell == "" {
		r.ell = tabs.Ellipsis
	}
	r.base = style{fg: ColorDefault, bg: ColorDefault}
	m := f.Metrics

	r.rule("╭", "╮")
	r.title()
	if m.TabRow > 0 {
		r.tabStrip()
	}
	r.rule("├", "┤")
	r.aboveIndicator()
	r.items()
	r.belowIndicator()
	r.rule("├", "┤")
	r.content([]seg{{text: f.Status, st: r.statusStyle()}}, nil, r.base)
	r.content([]seg{{text: f.Footer, st: r.muted()}}, nil, r.base)
	r.rule("╰", "╯")

	var b strings.Builder
	b.WriteString(seqHome)
	for i, line := range r.lines {
		b.WriteString(line)
		b.WriteString(seqEraseLine)
		if i < len(r.lines)-1 {
			b.WriteString("\r\n")
		}
	}
	b.WriteString(seqEraseDown)
	return []byte(b.String())
}

func (r *renderer) muted() style {
	return style{fg: r.th.Muted, bg: ColorDefault}
}

func (r *renderer) statusStyle() style {
	if r.f.StatusKind == StatusError {
		return style{fg: r.th.Error, bg: ColorDefault, bold: true}
	}
	return style{fg: r.th.Accent, bg: ColorDefault}
}

func (r *renderer) border() style {
	return style{fg: r.th.Border, bg: ColorDefault}
}

func (r *renderer) rule(left, right string) {
	bw := r.f.Metrics.BoxWidth
	line := left + strings.Repeat("─", bw-2) + right
	r.lines = append(r.lines, r.border().sgr()+line+seqReset)
}

// content draws one boxed line: left segments, right-aligned segments,
// padding in fill style.
func (r *renderer) content(left, right []seg, fill style) {
	inner := r.f.Metrics.InnerWidth
	rightW := 0
	for _, s := range right {
		rightW += runewidth.StringWidth(s.text)
	}
	if rightW > inner {
		right, rightW = nil, 0
	}

	var b strings.Builder
	b.WriteString(r.border().sgr())
	b.WriteString("│ ")
	used := writeSegs(&b, left, inner-rightW, r.ell)
	if pad := inner - rightW - used; pad > 0 {
		b.WriteString(fill.sgr())
		b.WriteString(strings.Repeat(" ", pad))
	}
	writeSegs(&b, right, rightW, r.ell)
	b.WriteString(r.border().sgr())
	b.WriteString(" │")
	b.WriteString(seqReset)
	r.lines = append(r.lines, b.String())
}

// writeSegs writes segments clipped to width and returns the columns used.
func writeSegs(b *strings.Builder, segs []seg, width int, ell string) int {
	used := 0
	for i, s := range segs {
		if used >= width {
			break
		}
		text := sanitize(s.text)
		avail := width - used
		w := runewidth.StringWidth(text)
		if w > avail || (i < len(segs)-1 && w == avail && restWidth(segs[i+1:]) > 0) {
			text = fit(text, avail, ell)
			w = runewidth.StringWidth(text)
		}
		if text == "" {
			continue
		}
		b.WriteString(s.st.sgr())
		b.WriteString(text)
		used += w
	}
	return used
}

func restWidth(segs []seg) int {
	total := 0
	for _, s := range segs {
		total += runewidth.StringWidth(s.text)
	}
	return total
}

func (r *renderer) title() {
	left := []seg{{text: r.f.Title, st: style{fg: r.th.Accent, bg: ColorDefault, bold: true}}}
	var right []seg
	if r.f.Modified {
		right = []seg{{text: "[modified]", st: style{fg: r.th.Error, bg: ColorDefault, bold: true}}}
	}
	r.content(left, right, r.base)
}

func (r *renderer) tabStrip() {
	strip := r.f.Tabs
	if strip == nil {
		r.content(nil, nil, r.base)
		return
	}
	var segs []seg
	col := 0
	gap := func(to int) {
		if to > col {
			segs = append(segs, seg{text: strings.Repeat(" ", to-col), st: r.base})
			col = to
		}
	}
	if strip.Left != nil {
		segs = append(segs, seg{text: tabs.LeftArrow, st: r.muted()})
		col = strip.Left.End
	}
	for _, t := range strip.Tabs {
		gap(t.Zone.Start)
		st := style{fg: ColorDefault, bg: ColorDefault}
		if t.Active {
			st = style{fg: r.th.SelectedFG, bg: r.th.SelectedBG, bold: true}
		}
		text := fit(" "+t.Label+" ", t.Zone.Width(), r.ell)
		segs = append(segs, seg{text: text, st: st})
		col = t.Zone.Start + runewidth.StringWidth(text)
	}
	if strip.Right != nil {
		gap(strip.Right.Start)
		segs = append(segs, seg{text: tabs.RightArrow, st: r.muted()})
	}
	r.content(segs, nil, r.base)
}

func (r *renderer) aboveIndicator() {
	w := r.f.Window
	var left, right []seg
	if w.CanScrollUp() {
		left = []seg{{text: moreAbove, st: r.muted()}}
	}
	if w.Overflows() {
		right = []seg{{text: Position(w), st: r.muted()}}
	}
	r.content(left, right, r.base)
}

func (r *renderer) belowIndicator() {
	var left []seg
	if r.f.Window.CanScrollDown() {
		left = []seg{{text: moreBelow, st: r.muted()}}
	}
	r.content(left, nil, r.base)
}

// Position formats the "[n/count]" counter for a window.
func Position(w scroll.Window) string {
	return "[" + strconv.Itoa(w.Selected+1) + "/" + strconv.Itoa(w.Count) + "]"
}

func (r *renderer) items() {
	w := r.f.Window
	height := r.f.Metrics.ViewportHeight
	drawn := 0
	if w.Count == 0 {
		r.content([]seg{{text: emptyList, st: r.muted()}}, nil, r.base)
		drawn = 1
	}
	labelW := r.labelWidth()
	for i := w.Start; i < w.End && drawn < height; i++ {
		if i >= len(r.f.Rows) {
			break
		}
		r.item(r.f.Rows[i], i == w.Selected, labelW)
		drawn++
	}
	for ; drawn < height; drawn++ {
		r.content(nil, nil, r.base)
	}
}

func (r *renderer) labelWidth() int {
	inner := r.f.Metrics.InnerWidth
	headW := runewidth.StringWidth(selectedMark) + runewidth.StringWidth(favoriteMark)
	limit := (inner - headW) / 2
	if r.f.LabelWidth > 0 {
		if r.f.LabelWidth < limit {
			return r.f.LabelWidth
		}
		return limit
	}
	widest := 0
	for _, row := range r.f.Rows {
		if w := runewidth.StringWidth(row.Label); w > widest {
			widest = w
		}
	}
	if widest > limit {
		return limit
	}
	return widest
}

func (r *renderer) item(row Row, selected bool, labelW int) {
	fill := r.base
	text := style{fg: ColorDefault, bg: ColorDefault}
	value := style{fg: r.th.Accent, bg: ColorDefault}
	if row.Disabled {
		text, value = r.muted(), r.muted()
	}
	if selected {
		fill = style{fg: r.th.SelectedFG, bg: r.th.SelectedBG}
		text = style{fg: r.th.SelectedFG, bg: r.th.SelectedBG, bold: true}
		value = text
	}

	head := "  "
	if selected {
		head = selectedMark
	}
	mark := "  "
	if row.Marked {
		mark = favoriteMark
	}
	segs := []seg{{text: head, st: fill}, {text: mark, st: style{fg: r.th.Accent, bg: fill.bg}}}

	switch {
	case len(row.Spans) > 0:
		for _, sp := range row.Spans {
			st := style{fg: sp.FG, bg: fill.bg, bold: sp.Bold}
			if selected {
				st.fg = fill.fg
			}
			segs = append(segs, seg{text: sp.Text, st: st})
		}
	case row.Value == "":
		segs = append(segs, seg{text: row.Label, st: text})
	default:
		label := runewidth.FillRight(fit(sanitize(row.Label), labelW, r.ell), labelW)
		segs = append(segs, seg{text: label, st: text}, seg{text: " " + row.Value, st: value})
	}
	r.content(segs, nil, fill)
}

// fit truncates s to width columns, ending with ell when shortened.
func fit(s string, width int, ell string) string {
	if width <= 0 {
		return ""
	}
	if runewidth.StringWidth(s) <= width {
		return s
	}
	if runewidth.StringWidth(ell) >= width {
		return runewidth.Truncate(s, width, "")
	}
	return runewidth.Truncate(s, width, ell)
}

// sanitize replaces control characters that would corrupt the frame.
func sanitize(s string) string {
	if !strings.ContainsFunc(s, isControl) {
		return s
	}
	return strings.Map(func(r rune) rune {
		if isControl(r) {
			return '?'
		}
		return r
	}, s)
}

func isControl(r rune) bool {
	return r < 0x20 || r == 0x7f
}

// TooSmall is drawn instead of the menu while the terminal is below the
// minimum size.
func TooSmall(width, height, minWidth, minHeight int) []byte {
	msg := "Terminal too small: " + strconv.Itoa(width) + "x" + strconv.Itoa(height) +
		" (need " + strconv.Itoa(minWidth) + "x" + strconv.Itoa(minHeight) + ")"
	return []byte(seqHome + fit(msg, width-1, tabs.Ellipsis) + seqEraseLine + seqEraseDown)
}
