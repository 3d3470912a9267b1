// Copyright © 2025 Texelation contributors
// SPDX-License-Identifier: AGPL-3.0-or-later

package menu

import (
	"errors"
	"fmt"
	"io"
	"regexp"
	"strings"
	"sync"
	"time"

	"github.com/framegrace/texelmenu/menu/input"
)

// Harness pieces: a fake clock, a scripted byte source that advances the
// clock on timeouts, a fake terminal that records frames, and a
// collaborator that records callbacks.

var epoch = time.Unix(1000, 0)

type fakeClock struct {
	mu  sync.Mutex
	now time.Time
}

func newFakeClock() *fakeClock { return &fakeClock{now: epoch} }

func (c *fakeClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.now
}

func (c *fakeClock) set(t time.Time) {
	c.mu.Lock()
	c.now = t
	c.mu.Unlock()
}

// ms returns milliseconds since epoch.
func (c *fakeClock) ms() int {
	return int(c.Now().Sub(epoch) / time.Millisecond)
}

type scriptStep struct {
	data  string
	at    time.Duration // input arrives at epoch+at
	wait  bool
	block bool // wait for Interrupt
}

func keys(s string) scriptStep { return scriptStep{data: s} }
func at(ms int) scriptStep { return scriptStep{at: time.Duration(ms) * time.Millisecond, wait: true} }
func blockUntilInterrupt() scriptStep { return scriptStep{block: true} }
func click(col, row int) scriptStep { return keys(fmt.Sprintf("\x1b[<0;%d;%dM", col, row)) }
func wheel(down bool, col, row int) scriptStep {
	code := 64
	if down {
		code = 65
	}
	return keys(fmt.Sprintf("\x1b[<%d;%d;%dM", code, col, row))
}

type fakeSource struct {
	mu      sync.Mutex
	clock   *fakeClock
	steps   []scriptStep
	buf     []byte
	pending int
	wake    chan struct{}
	blocked chan struct{}
}

func newFakeSource(clock *fakeClock, steps ...scriptStep) *fakeSource {
	return &fakeSource{
		clock:   clock,
		steps:   steps,
		wake:    make(chan struct{}, 1),
		blocked: make(chan struct{}, 1),
	}
}

func (s *fakeSource) Interrupt() {
	s.mu.Lock()
	s.pending++
	s.mu.Unlock()
	select {
	case s.wake <- struct{}{}:
	default:
	}
}

func (s *fakeSource) ReadByte(timeout time.Duration, interruptible bool) (byte, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for {
		if interruptible && s.pending > 0 {
			s.pending = 0
			s.drainWake()
			return 0, input.ErrInterrupted
		}
		if len(s.buf) > 0 {
			b := s.buf[0]
			s.buf = s.buf[1:]
			return b, nil
		}
		if len(s.steps) == 0 {
			return 0, io.EOF
		}
		st := s.steps[0]
		switch {
		case st.data != "":
			s.buf = []byte(st.data)
			s.steps = s.steps[1:]
		case st.block:
			if !interruptible {
				return 0, input.ErrTimeout
			}
			s.mu.Unlock()
			select {
			case s.blocked <- struct{}{}:
			default:
			}
			<-s.wake
			s.mu.Lock()
			s.steps = s.steps[1:]
		case st.wait:
			target := epoch.Add(st.at)
			now := s.clock.Now()
			if !now.Before(target) {
				s.steps = s.steps[1:]
				continue
			}
			if timeout >= 0 && now.Add(timeout).Before(target) {
				s.clock.set(now.Add(timeout))
				return 0, input.ErrTimeout
			}
			s.clock.set(target)
			s.steps = s.steps[1:]
		}
	}
}

func (s *fakeSource) drainWake() {
	select {
	case <-s.wake:
	default:
	}
}

type fakeTerm struct {
	mu       sync.Mutex
	w, h     int
	src      input.Source
	frames   []string
	enters   int
	restores int
}

func (t *fakeTerm) Enter() error {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.enters++
	return nil
}

func (t *fakeTerm) Restore() error {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.restores++
	return nil
}

func (t *fakeTerm) Size() (int, int, error) {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.w, t.h, nil
}

func (t *fakeTerm) Source() input.Source { return t.src }

func (t *fakeTerm) Write(p []byte) (int, error) {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.frames = append(t.frames, string(p))
	return len(p), nil
}

func (t *fakeTerm) frameCount() int {
	t.mu.Lock()
	defer t.mu.Unlock()
	return len(t.frames)
}

var sgrPattern = regexp.MustCompile(`\x1b\[[0-9;?]*[A-Za-z]`)

// lastScreen returns the visible rows of the last frame.
func (t *fakeTerm) lastScreen() []string {
	t.mu.Lock()
	defer t.mu.Unlock()
	if len(t.frames) == 0 {
		return nil
	}
	rows := strings.Split(t.frames[len(t.frames)-1], "\r\n")
	for i, r := range rows {
		rows[i] = sgrPattern.ReplaceAllString(r, "")
	}
	return rows
}

type previewCall struct {
	ref Ref
	ms  int
}

type fakeCollab struct {
	clock    *fakeClock
	title    string
	tabs     []string
	items    [][]Item
	dirty    bool
	saveErr  error
	picker   func() *Picker
	detail   *Detail
	activate []Ref
	saves    []map[string]string
	previews []previewCall
	toggles  int
	adjusts  []int
	favs     int
}

func newFakeCollab(clock *fakeClock) *fakeCollab {
	c := &fakeCollab{clock: clock, title: "Test Menu", tabs: []string{"General", "Display", "Audio"}}
	c.items = make([][]Item, len(c.tabs))
	for t := range c.tabs {
		for i := 0; i < 30; i++ {
			c.items[t] = append(c.items[t], Item{
				Key:   fmt.Sprintf("%s.item%d", strings.ToLower(c.tabs[t]), i),
				Label: fmt.Sprintf("%s %02d", c.tabs[t], i),
				Kind:  KindToggle,
				Value: "off",
			})
		}
	}
	return c
}

func (c *fakeCollab) Title() string        { return c.title }
func (c *fakeCollab) Tabs() []string       { return c.tabs }
func (c *fakeCollab) Items(tab int) []Item { return c.items[tab] }
func (c *fakeCollab) Dirty() bool          { return c.dirty }

func (c *fakeCollab) Activate(ref Ref) (Result, error) {
	c.activate = append(c.activate, ref)
	switch ref.Item.Kind {
	case KindMenu:
		if c.picker != nil {
			return Result{Picker: c.picker()}, nil
		}
		if c.detail != nil {
			return Result{Detail: c.detail}, nil
		}
	case KindAction:
		return Result{}, errors.New("boom")
	}
	return Result{}, nil
}

func (c *fakeCollab) Save(values map[string]string) error {
	c.saves = append(c.saves, values)
	if c.saveErr != nil {
		return c.saveErr
	}
	c.dirty = false
	return nil
}

func (c *fakeCollab) Toggle(ref Ref) error {
	c.toggles++
	it := &c.items[ref.Tab][ref.Index]
	if it.Value == "on" {
		it.Value = "off"
	} else {
		it.Value = "on"
	}
	c.dirty = true
	return nil
}

func (c *fakeCollab) Adjust(ref Ref, delta int) error {
	c.adjusts = append(c.adjusts, delta)
	return nil
}

func (c *fakeCollab) Preview(ref Ref) error {
	c.previews = append(c.previews, previewCall{ref: ref, ms: c.clock.ms()})
	return nil
}

func (c *fakeCollab) ToggleFavorite(ref Ref) error {
	c.favs++
	it := &c.items[ref.Tab][ref.Index]
	it.Marked = !it.Marked
	return nil
}

func testOptions(clock *fakeClock) Options {
	opts := DefaultOptions()
	opts.Clock = clock
	opts.Signals = false
	return opts
}
