// Copyright © 2025 Texelation contributors
// SPDX-License-Identifier: AGPL-3.0-or-later
//
// File: menu/router.go
// Summary: Input router state machine over the List, Detail and Picker views.
// Usage: The engine maps events to Commands and calls Dispatch; rendering
//   reads Title, Rows, Window and Strip.
// Notes: The tab list is the root; Detail and Picker views stack above it
//   and keep their own selection, so going back restores the parent's.

package menu

import (
	"errors"
	"fmt"
	"io"
	"strings"

	"github.com/charmbracelet/log"
	"github.com/framegrace/texelmenu/menu/debounce"
	"github.com/framegrace/texelmenu/menu/frame"
	"github.com/framegrace/texelmenu/menu/scroll"
	"github.com/framegrace/texelmenu/menu/tabs"
	"github.com/sahilm/fuzzy"
)

// ErrQuit is returned by Dispatch when the menu should exit.
var ErrQuit = errors.New("menu: quit")

// Op is a router command.
type Op int

const (
	OpNone Op = iota
	OpUp
	OpDown
	OpPageUp
	OpPageDown
	OpHome
	OpEnd
	OpNextTab
	OpPrevTab
	OpSelectTab
	OpSelectRow
	OpActivate
	OpToggle
	OpAdjust
	OpBack
	OpQuit
	OpForceQuit
	OpSave
	OpFavorite
	OpViewFile
	OpFind
	OpFilterRune
	OpFilterErase
	OpHelp
)

// Command is one routed action. Arg carries the tab, row or delta; Rune the
// filter character.
type Command struct {
	Op   Op
	Arg  int
	Rune rune
}

type position struct {
	sel, off int
}

type layer struct {
	view   View
	detail *Detail
	picker *Picker
	filter string
	order  []int
	pos    position
	find   bool
}

// Router owns the view stack and the per-tab selections.
type Router struct {
	collab Collaborator
	sched  *debounce.Scheduler
	log    *log.Logger

	height    int
	tab       int
	tabScroll int
	rows      []position
	stack     []*layer

	armed    *layer
	armedTab int

	status     string
	statusKind frame.StatusKind
	quitArmed  bool
	help       bool
}

// NewRouter creates a router over c. sched may be nil when no preview is used.
func NewRouter(c Collaborator, sched *debounce.Scheduler, logger *log.Logger) *Router {
	if logger == nil {
		logger = log.New(io.Discard)
	}
	r := &Router{collab: c, sched: sched, log: logger, height: 1}
	r.rows = make([]position, max(1, len(c.Tabs())))
	return r
}

// SetViewport sets the item viewport height used by paging and clamping.
func (r *Router) SetViewport(height int) {
	if height < 1 {
		height = 1
	}
	r.height = height
}

// Restore applies a saved snapshot, clamping selections to each tab's items.
func (r *Router) Restore(s Snapshot) {
	n := len(r.collab.Tabs())
	if s.Tab >= 0 && s.Tab < n {
		r.tab = s.Tab
	}
	for tab, sel := range s.Rows {
		if tab < 0 || tab >= len(r.rows) || tab >= n {
			continue
		}
		count := len(r.collab.Items(tab))
		sel = min(sel, count-1)
		r.rows[tab] = position{sel: max(sel, 0)}
	}
}

// Snapshot returns the tab and per-tab selections.
func (r *Router) Snapshot() Snapshot {
	s := Snapshot{Tab: r.tab, Rows: make(map[int]int, len(r.rows))}
	for i, p := range r.rows {
		s.Rows[i] = p.sel
	}
	return s
}

// State returns the active view's navigation state.
func (r *Router) State() ViewState {
	p := r.pos()
	return ViewState{View: r.view(), Selected: p.sel, Offset: p.off, Tab: r.tab, TabScroll: r.tabScroll}
}

func (r *Router) top() *layer {
	if len(r.stack) == 0 {
		return nil
	}
	return r.stack[len(r.stack)-1]
}

func (r *Router) view() View {
	if t := r.top(); t != nil {
		return t.view
	}
	return ViewList
}

func (r *Router) pos() *position {
	if t := r.top(); t != nil {
		return &t.pos
	}
	if r.tab >= len(r.rows) {
		grown := make([]position, r.tab+1)
		copy(grown, r.rows)
		r.rows = grown
	}
	return &r.rows[r.tab]
}

// Items returns the active view's items in display order.
func (r *Router) Items() []Item {
	t := r.top()
	switch {
	case t == nil:
		return r.collab.Items(r.tab)
	case t.view == ViewDetail:
		if t.detail.Items == nil {
			return nil
		}
		return t.detail.Items()
	default:
		out := make([]Item, len(t.order))
		for i, idx := range t.order {
			out[i] = t.picker.Options[idx]
			if idx == t.picker.Selected {
				out[i].Value = "(current)"
			}
		}
		return out
	}
}

// Window clamps the active selection and returns the visible window.
func (r *Router) Window() scroll.Window {
	return r.clamp()
}

func (r *Router) clamp() scroll.Window {
	p := r.pos()
	w := scroll.ComputeWindow(len(r.Items()), r.height, p.sel, p.off)
	p.sel, p.off = w.Selected, w.Offset
	return w
}

// Strip lays the tab strip out for width columns and remembers its scroll.
func (r *Router) Strip(width int) (tabs.Strip, bool) {
	labels := r.collab.Tabs()
	if len(labels) == 0 {
		return tabs.Strip{}, false
	}
	s := tabs.Layout(width, labels, r.tab, r.tabScroll)
	r.tabScroll = s.ScrollStart
	return s, true
}

// Title is the header text, including the view path.
func (r *Router) Title() string {
	parts := []string{r.collab.Title()}
	for _, l := range r.stack {
		switch l.view {
		case ViewDetail:
			parts = append(parts, l.detail.Title)
		case ViewPicker:
			parts = append(parts, l.picker.Title)
		}
	}
	title := strings.Join(parts, " › ")
	if t := r.top(); t != nil && t.view == ViewPicker && t.filter != "" {
		title += "  /" + t.filter
	}
	return title
}

// Status returns the status line: the last message, else the selected
// item's hint.
func (r *Router) Status() (string, frame.StatusKind) {
	if r.status != "" {
		return r.status, r.statusKind
	}
	items := r.Items()
	if p := r.pos(); p.sel >= 0 && p.sel < len(items) {
		return items[p.sel].Hint, frame.StatusInfo
	}
	return "", frame.StatusInfo
}

// Footer returns the key hints for the active view.
func (r *Router) Footer() string {
	if r.help {
		return footerHelp
	}
	switch r.view() {
	case ViewDetail:
		return footerDetail
	case ViewPicker:
		return footerPicker
	}
	return footerList
}

// Modified reports unsaved edits.
func (r *Router) Modified() bool {
	d, ok := r.collab.(DirtyReporter)
	return ok && d.Dirty()
}

func (r *Router) setStatus(kind frame.StatusKind, format string, args ...any) {
	r.status = fmt.Sprintf(format, args...)
	r.statusKind = kind
}

func (r *Router) fail(what string, err error) {
	r.log.Warn(what+" failed", "err", err)
	r.setStatus(frame.StatusError, "%s failed: %v", what, err)
}

func (r *Router) ref() (Ref, bool) {
	items := r.Items()
	p := r.pos()
	if p.sel < 0 || p.sel >= len(items) {
		return Ref{}, false
	}
	ref := Ref{Tab: r.tab, Index: p.sel, Item: items[p.sel]}
	if t := r.top(); t != nil && t.view == ViewDetail {
		ref.Detail = t.detail.Key
	}
	return ref, true
}

// Dispatch applies one command. It returns ErrQuit when the menu should exit.
func (r *Router) Dispatch(cmd Command) error {
	switch cmd.Op {
	case OpQuit, OpBack, OpNone:
	default:
		r.quitArmed = false
	}
	if cmd.Op != OpNone && cmd.Op != OpHelp {
		r.status = ""
	}

	switch cmd.Op {
	case OpUp:
		r.move(r.pos().sel - 1)
	case OpDown:
		r.move(r.pos().sel + 1)
	case OpPageUp:
		r.move(scroll.PageUp(r.pos().sel, r.height))
	case OpPageDown:
		r.move(scroll.PageDown(r.pos().sel, r.height))
	case OpHome:
		r.move(scroll.Home())
	case OpEnd:
		r.move(scroll.End(len(r.Items())))
	case OpSelectRow:
		r.move(cmd.Arg)
	case OpNextTab:
		r.switchTab(r.tab + 1)
	case OpPrevTab:
		r.switchTab(r.tab - 1)
	case OpSelectTab:
		r.selectTab(cmd.Arg)
	case OpActivate:
		return r.activate()
	case OpToggle:
		r.toggle()
	case OpAdjust:
		r.adjust(cmd.Arg)
	case OpBack:
		return r.back()
	case OpQuit:
		return r.quit()
	case OpForceQuit:
		r.cancelPending()
		return ErrQuit
	case OpSave:
		r.save()
	case OpFavorite:
		r.favorite()
	case OpViewFile:
		r.viewFile()
	case OpFind:
		r.find()
	case OpFilterRune:
		r.filter(func(f string) string { return f + string(cmd.Rune) })
	case OpFilterErase:
		r.filter(func(f string) string {
			if f == "" {
				return f
			}
			rs := []rune(f)
			return string(rs[:len(rs)-1])
		})
	case OpHelp:
		r.help = !r.help
	}
	return nil
}

func (r *Router) move(to int) {
	p := r.pos()
	before := p.sel
	p.sel = to
	w := r.clamp()
	if w.Count > 0 && w.Selected != before && r.previewOnNavigate() {
		r.arm(w.Selected)
	}
}

func (r *Router) previewOnNavigate() bool {
	t := r.top()
	switch {
	case t == nil:
		return false
	case t.view == ViewPicker:
		return t.picker.Preview != nil
	default:
		_, ok := r.collab.(Previewer)
		return ok && t.detail.Preview
	}
}

func (r *Router) arm(index int) {
	r.armed = r.top()
	r.armedTab = r.tab
	if r.sched == nil {
		r.commit(index)
		return
	}
	r.sched.OnNavigate(index)
}

// armValueChange schedules a preview after an edit in the list or a detail.
func (r *Router) armValueChange() {
	if _, ok := r.collab.(Previewer); !ok {
		return
	}
	r.arm(r.pos().sel)
}

// Commit runs the debounced preview for target. The engine's scheduler
// calls it once the quiet interval has passed.
func (r *Router) Commit(target int) {
	r.commit(target)
}

func (r *Router) commit(target int) {
	t := r.top()
	if t != r.armed || r.tab != r.armedTab {
		return
	}
	if t != nil && t.view == ViewPicker {
		if target < 0 || target >= len(t.order) || t.picker.Preview == nil {
			return
		}
		if err := t.picker.Preview(t.order[target]); err != nil {
			r.fail("preview", err)
		}
		return
	}
	pv, ok := r.collab.(Previewer)
	if !ok {
		return
	}
	items := r.Items()
	if target < 0 || target >= len(items) {
		return
	}
	ref := Ref{Tab: r.tab, Index: target, Item: items[target]}
	if t != nil {
		ref.Detail = t.detail.Key
	}
	if err := pv.Preview(ref); err != nil {
		r.fail("preview", err)
	}
}

func (r *Router) finalizePending() {
	if r.sched != nil {
		r.sched.Finalize()
	}
}

func (r *Router) cancelPending() {
	if r.sched != nil {
		r.sched.Cancel()
	}
}

func (r *Router) switchTab(to int) {
	n := len(r.collab.Tabs())
	if n == 0 || r.top() != nil {
		return
	}
	r.selectTab(((to % n) + n) % n)
}

func (r *Router) selectTab(to int) {
	n := len(r.collab.Tabs())
	if to < 0 || to >= n || r.top() != nil || to == r.tab {
		return
	}
	r.finalizePending()
	r.tab = to
	r.clamp()
}

func (r *Router) push(l *layer) {
	r.finalizePending()
	r.stack = append(r.stack, l)
	r.clamp()
}

func (r *Router) pop() {
	if len(r.stack) == 0 {
		return
	}
	r.stack = r.stack[:len(r.stack)-1]
	r.clamp()
}

func (r *Router) openPicker(p *Picker) {
	l := &layer{view: ViewPicker, picker: p}
	l.order = identity(len(p.Options))
	l.pos.sel = p.Selected
	r.push(l)
}

func (r *Router) apply(res Result) error {
	switch {
	case res.Detail != nil:
		r.push(&layer{view: ViewDetail, detail: res.Detail})
	case res.Picker != nil:
		r.openPicker(res.Picker)
	}
	if res.Status != "" {
		r.setStatus(frame.StatusInfo, "%s", res.Status)
	}
	if res.Quit {
		r.cancelPending()
		return ErrQuit
	}
	return nil
}

func (r *Router) activate() error {
	if t := r.top(); t != nil && t.view == ViewPicker {
		return r.confirm(t)
	}
	ref, ok := r.ref()
	if !ok || ref.Item.Disabled {
		return nil
	}
	res, err := r.collab.Activate(ref)
	if err != nil {
		r.fail("activate", err)
		return nil
	}
	if res.Detail == nil && res.Picker == nil {
		switch ref.Item.Kind {
		case KindToggle, KindCycle, KindFloat:
			r.armValueChange()
		}
	}
	return r.apply(res)
}

func (r *Router) confirm(t *layer) error {
	p := r.pos()
	if p.sel < 0 || p.sel >= len(t.order) {
		return nil
	}
	idx := t.order[p.sel]
	r.finalizePending()
	r.pop()
	if t.picker.Confirm != nil {
		if err := t.picker.Confirm(idx); err != nil {
			r.fail("apply", err)
			return nil
		}
	}
	switch {
	case t.find:
		r.clamp()
		if r.previewOnNavigate() {
			r.arm(r.pos().sel)
		}
	case r.top() == nil || r.top().view == ViewDetail:
		r.armValueChange()
	}
	return nil
}

func (r *Router) toggle() {
	tg, ok := r.collab.(Toggler)
	if !ok || r.view() == ViewPicker {
		return
	}
	ref, ok := r.ref()
	if !ok || ref.Item.Disabled {
		return
	}
	if err := tg.Toggle(ref); err != nil {
		r.fail("toggle", err)
		return
	}
	r.armValueChange()
}

func (r *Router) adjust(delta int) {
	ad, ok := r.collab.(Adjuster)
	if !ok || r.view() == ViewPicker {
		return
	}
	ref, ok := r.ref()
	if !ok || ref.Item.Disabled {
		return
	}
	switch ref.Item.Kind {
	case KindCycle, KindFloat:
	default:
		return
	}
	if err := ad.Adjust(ref, delta); err != nil {
		r.fail("adjust", err)
		return
	}
	r.armValueChange()
}

func (r *Router) back() error {
	t := r.top()
	switch {
	case t == nil:
		return r.quit()
	case t.view == ViewPicker:
		if t.filter != "" {
			t.filter = ""
			t.order = identity(len(t.picker.Options))
			r.clamp()
			return nil
		}
		r.cancelPending()
		r.pop()
		if t.picker.Cancel != nil {
			if err := t.picker.Cancel(); err != nil {
				r.fail("cancel", err)
			}
		}
	default:
		r.finalizePending()
		r.pop()
	}
	return nil
}

func (r *Router) quit() error {
	if r.Modified() && !r.quitArmed {
		r.quitArmed = true
		r.setStatus(frame.StatusError, "Unsaved changes: press q again to discard, s to save")
		return nil
	}
	r.cancelPending()
	return ErrQuit
}

// Values collects the keyed item values of every tab.
func (r *Router) Values() map[string]string {
	values := make(map[string]string)
	for tab := range r.collab.Tabs() {
		for _, it := range r.collab.Items(tab) {
			if it.Key != "" {
				values[it.Key] = it.Value
			}
		}
	}
	return values
}

func (r *Router) save() {
	r.finalizePending()
	if err := r.collab.Save(r.Values()); err != nil {
		r.fail("save", err)
		return
	}
	r.log.Info("saved")
	r.setStatus(frame.StatusInfo, "Saved")
}

func (r *Router) favorite() {
	fv, ok := r.collab.(Favoriter)
	if !ok || r.view() == ViewPicker {
		return
	}
	ref, ok := r.ref()
	if !ok {
		return
	}
	if err := fv.ToggleFavorite(ref); err != nil {
		r.fail("favorite", err)
	}
}

func (r *Router) viewFile() {
	fv, ok := r.collab.(FileViewer)
	if !ok || r.view() == ViewPicker {
		return
	}
	ref, ok := r.ref()
	if !ok {
		return
	}
	d, err := fv.ViewFile(ref)
	if err != nil {
		r.fail("view", err)
		return
	}
	if d != nil {
		r.push(&layer{view: ViewDetail, detail: d})
	}
}

// find opens a picker over the current items; confirming jumps to the row.
func (r *Router) find() {
	if r.view() == ViewPicker {
		return
	}
	items := r.Items()
	if len(items) == 0 {
		return
	}
	opts := make([]Item, len(items))
	for i, it := range items {
		opts[i] = Item{Label: it.Label, Kind: KindChoice, Hint: it.Hint}
	}
	target := r.pos()
	p := &Picker{
		Title:    "Find",
		Options:  opts,
		Selected: target.sel,
		Confirm: func(index int) error {
			target.sel = index
			return nil
		},
	}
	r.push(&layer{view: ViewPicker, picker: p, order: identity(len(opts)), pos: position{sel: target.sel}, find: true})
}

func (r *Router) filter(edit func(string) string) {
	t := r.top()
	if t == nil || t.view != ViewPicker {
		return
	}
	next := edit(t.filter)
	if next == t.filter {
		return
	}
	t.filter = next
	t.order = rank(t.filter, t.picker.Options)
	t.pos = position{}
	r.clamp()
	if len(t.order) > 0 && t.picker.Preview != nil {
		r.arm(0)
	}
}

type optionLabels []Item

func (o optionLabels) String(i int) string { return o[i].Label }
func (o optionLabels) Len() int            { return len(o) }

// rank returns option indexes matching pattern, best first. An empty
// pattern keeps the original order.
func rank(pattern string, options []Item) []int {
	if pattern == "" {
		return identity(len(options))
	}
	matches := fuzzy.FindFrom(pattern, optionLabels(options))
	out := make([]int, len(matches))
	for i, m := range matches {
		out[i] = m.Index
	}
	return out
}

func identity(n int) []int {
	out := make([]int, n)
	for i := range out {
		out[i] = i
	}
	return out
}
