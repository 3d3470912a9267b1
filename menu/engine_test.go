// Copyright © 2025 Texelation contributors
// SPDX-License-Identifier: AGPL-3.0-or-later

package menu

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"
	"syscall"
	"testing"

	"github.com/framegrace/texelmenu/menu/termio"
)

func runScript(t *testing.T, c *fakeCollab, clk *fakeClock, opts Options, steps ...scriptStep) (*Engine, *fakeTerm, error) {
	t.Helper()
	src := newFakeSource(clk, steps...)
	term := &fakeTerm{w: 60, h: 24, src: src}
	e := New(c, opts)
	err := e.RunWith(context.Background(), term)
	return e, term, err
}

func screenContains(screen []string, want string) bool {
	for _, row := range screen {
		if strings.Contains(row, want) {
			return true
		}
	}
	return false
}

func TestEngineDrawsAndQuits(t *testing.T) {
	clk := newFakeClock()
	c := newFakeCollab(clk)
	_, term, err := runScript(t, c, clk, testOptions(clk), keys("q"))
	if err != nil {
		t.Fatalf("RunWith: %v", err)
	}
	if term.enters != 1 || term.restores != 1 {
		t.Fatalf("enter/restore = %d/%d, want 1/1", term.enters, term.restores)
	}
	screen := term.lastScreen()
	if len(screen) != 24 {
		t.Fatalf("frame rows = %d, want 24", len(screen))
	}
	if !strings.Contains(screen[1], "Test Menu") {
		t.Fatalf("title row = %q", screen[1])
	}
	if !strings.Contains(screen[2], "General") || !strings.Contains(screen[2], "Audio") {
		t.Fatalf("tab row = %q", screen[2])
	}
}

func TestEngineKeyboardNavigation(t *testing.T) {
	clk := newFakeClock()
	c := newFakeCollab(clk)
	e, term, err := runScript(t, c, clk, testOptions(clk), keys("jjj\x1b[Bk"), keys("q"))
	if err != nil {
		t.Fatalf("RunWith: %v", err)
	}
	if got := e.State().Selected; got != 3 {
		t.Fatalf("Selected = %d, want 3", got)
	}
	if !screenContains(term.lastScreen(), "▸   General 03") {
		t.Fatalf("selected row not highlighted:\n%s", strings.Join(term.lastScreen(), "\n"))
	}
}

func TestEngineEndThenHome(t *testing.T) {
	clk := newFakeClock()
	c := newFakeCollab(clk)
	c.items[0] = c.items[0][:3]
	e, _, err := runScript(t, c, clk, testOptions(clk), keys("jj"), keys("\x1b[F\x1b[H"), keys("q"))
	if err != nil {
		t.Fatalf("RunWith: %v", err)
	}
	st := e.State()
	if st.Selected != 0 || st.Offset != 0 {
		t.Fatalf("state = %+v, want selected 0 offset 0", st)
	}
}

func TestEngineMouseSelectAndActivate(t *testing.T) {
	clk := newFakeClock()
	c := newFakeCollab(clk)
	// 60x24 with tabs: items start on row 6, viewport 14. Fifteen downs
	// leave the offset at 2, so row 10 is index 10-6+2 = 6.
	steps := []scriptStep{
		keys(strings.Repeat("j", 15)),
		keys("\x1b[<0;4-5;10M"),
		click(45, 10),
	}
	e, _, err := runScript(t, c, clk, testOptions(clk), append(steps, keys("q"))...)
	if err != nil {
		t.Fatalf("RunWith: %v", err)
	}
	st := e.State()
	if st.Selected != 6 || st.Offset != 2 {
		t.Fatalf("state = %+v, want selected 6 offset 2", st)
	}
	if len(c.activate) != 0 {
		t.Fatalf("first click activated")
	}

	clk = newFakeClock()
	c = newFakeCollab(clk)
	_, _, err = runScript(t, c, clk, testOptions(clk), click(45, 8), click(45, 8), keys("q"))
	if err != nil {
		t.Fatalf("RunWith: %v", err)
	}
	if len(c.activate) != 1 || c.activate[0].Index != 2 {
		t.Fatalf("activations = %+v, want one on index 2", c.activate)
	}
}

func TestEngineMalformedMouseIgnored(t *testing.T) {
	clk := newFakeClock()
	c := newFakeCollab(clk)
	e, _, err := runScript(t, c, clk, testOptions(clk), keys("\x1b[<0;4-5;10M\x1b[<x;1;1M"), keys("q"))
	if err != nil {
		t.Fatalf("RunWith: %v", err)
	}
	if st := e.State(); st.Selected != 0 || st.Tab != 0 {
		t.Fatalf("malformed report changed state: %+v", st)
	}
}

func TestEngineTabClickAndWheel(t *testing.T) {
	clk := newFakeClock()
	c := newFakeCollab(clk)
	// Tabs "General" and "Display" occupy strip columns [0,9) and [9,18);
	// the strip starts at terminal column 3.
	e, term, err := runScript(t, c, clk, testOptions(clk),
		click(3+10, 3), wheel(true, 10, 10), wheel(true, 10, 10), wheel(false, 10, 10), keys("q"))
	if err != nil {
		t.Fatalf("RunWith: %v", err)
	}
	st := e.State()
	if st.Tab != 1 || st.Selected != 1 {
		t.Fatalf("state = %+v, want tab 1 selected 1", st)
	}
	if !screenContains(term.lastScreen(), "Display 01") {
		t.Fatalf("second tab items not drawn")
	}
}

func TestEngineDebouncedPickerPreview(t *testing.T) {
	clk := newFakeClock()
	c := newFakeCollab(clk)
	c.items[0][0].Kind = KindMenu
	var previews []int
	var previewAt []int
	var confirmed []int
	c.picker = func() *Picker {
		opts := make([]Item, 6)
		for i := range opts {
			opts[i] = Item{Label: fmt.Sprintf("Theme %d", i), Kind: KindChoice}
		}
		return &Picker{
			Title:   "Theme",
			Options: opts,
			Preview: func(i int) error {
				previews = append(previews, i)
				previewAt = append(previewAt, clk.ms())
				return nil
			},
			Confirm: func(i int) error {
				confirmed = append(confirmed, i)
				return nil
			},
		}
	}

	_, _, err := runScript(t, c, clk, testOptions(clk),
		keys("\r"),
		keys("\x1b[B"), at(40), keys("\x1b[B"), at(90), keys("\x1b[B"),
		at(500), keys("\r"), keys("q"))
	if err != nil {
		t.Fatalf("RunWith: %v", err)
	}
	if len(previews) != 1 {
		t.Fatalf("previews = %v, want exactly one", previews)
	}
	if previews[0] != 3 {
		t.Fatalf("previewed option %d, want 3", previews[0])
	}
	if previewAt[0] < 240 || previewAt[0] > 300 {
		t.Fatalf("preview at %dms, want within [240,300]", previewAt[0])
	}
	if len(confirmed) != 1 || confirmed[0] != 3 {
		t.Fatalf("confirmed = %v, want [3]", confirmed)
	}
	if len(c.previews) != 0 {
		t.Fatalf("list preview ran after quit cancelled it: %+v", c.previews)
	}
}

func TestEngineSaveFinalizesPreview(t *testing.T) {
	clk := newFakeClock()
	c := newFakeCollab(clk)
	_, term, err := runScript(t, c, clk, testOptions(clk), keys(" "), keys("s"), keys("q"))
	if err != nil {
		t.Fatalf("RunWith: %v", err)
	}
	if c.toggles != 1 {
		t.Fatalf("toggles = %d, want 1", c.toggles)
	}
	if len(c.previews) != 1 || c.previews[0].ms != 0 {
		t.Fatalf("previews = %+v, want one immediate commit on save", c.previews)
	}
	if len(c.saves) != 1 {
		t.Fatalf("saves = %d, want 1", len(c.saves))
	}
	if got := c.saves[0]["general.item0"]; got != "on" {
		t.Fatalf("saved general.item0 = %q, want on", got)
	}
	if len(c.saves[0]) != 90 {
		t.Fatalf("saved %d values, want 90", len(c.saves[0]))
	}
	if !screenContains(term.lastScreen(), "Saved") {
		t.Fatalf("status line lacks save confirmation")
	}
}

func TestEngineQuitConfirmation(t *testing.T) {
	clk := newFakeClock()
	c := newFakeCollab(clk)
	c.dirty = true
	_, term, err := runScript(t, c, clk, testOptions(clk), keys("q"), keys("q"))
	if err != nil {
		t.Fatalf("RunWith: %v", err)
	}
	screen := term.lastScreen()
	if !screenContains(screen, "press q again") {
		t.Fatalf("no confirmation prompt before quitting")
	}
	if !screenContains(screen, "[modified]") {
		t.Fatalf("dirty header missing")
	}
}

func TestEngineSaveErrorShownInStatus(t *testing.T) {
	clk := newFakeClock()
	c := newFakeCollab(clk)
	c.saveErr = errors.New("disk full")
	_, term, err := runScript(t, c, clk, testOptions(clk), keys("s"), keys("\x03"))
	if err != nil {
		t.Fatalf("RunWith: %v", err)
	}
	if !screenContains(term.lastScreen(), "save failed: disk full") {
		t.Fatalf("save error not shown:\n%s", strings.Join(term.lastScreen(), "\n"))
	}
}

func TestEngineContextCancel(t *testing.T) {
	clk := newFakeClock()
	c := newFakeCollab(clk)
	src := newFakeSource(clk, blockUntilInterrupt())
	term := &fakeTerm{w: 60, h: 24, src: src}
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	go func() {
		<-src.blocked
		cancel()
	}()
	err := New(c, testOptions(clk)).RunWith(ctx, term)
	if !errors.Is(err, context.Canceled) {
		t.Fatalf("err = %v, want context.Canceled", err)
	}
	if term.restores != 1 {
		t.Fatalf("restores = %d, want 1", term.restores)
	}
}

func TestEngineRequestRedraw(t *testing.T) {
	clk := newFakeClock()
	c := newFakeCollab(clk)
	src := newFakeSource(clk, blockUntilInterrupt(), keys("q"))
	term := &fakeTerm{w: 60, h: 24, src: src}
	e := New(c, testOptions(clk))
	go func() {
		<-src.blocked
		term.mu.Lock()
		term.w, term.h = 30, 8
		term.mu.Unlock()
		e.RequestRedraw()
	}()
	if err := e.RunWith(context.Background(), term); err != nil {
		t.Fatalf("RunWith: %v", err)
	}
	if n := term.frameCount(); n != 2 {
		t.Fatalf("frames = %d, want 2", n)
	}
	if !screenContains(term.lastScreen(), "Terminal too small") {
		t.Fatalf("resize below minimum did not draw the size notice")
	}
}

func TestEngineSignalExit(t *testing.T) {
	clk := newFakeClock()
	c := newFakeCollab(clk)
	src := newFakeSource(clk, blockUntilInterrupt())
	term := &fakeTerm{w: 60, h: 24, src: src}
	opts := testOptions(clk)
	opts.Signals = true
	go func() {
		<-src.blocked
		syscall.Kill(os.Getpid(), syscall.SIGHUP)
	}()
	err := New(c, opts).RunWith(context.Background(), term)
	var se *SignalError
	if !errors.As(err, &se) {
		t.Fatalf("err = %v, want *SignalError", err)
	}
	if se.ExitCode() != 128+int(syscall.SIGHUP) {
		t.Fatalf("exit code = %d", se.ExitCode())
	}
	if term.restores != 1 {
		t.Fatalf("terminal not restored on signal exit")
	}
}

func TestEngineTooSmallIsFatal(t *testing.T) {
	clk := newFakeClock()
	c := newFakeCollab(clk)
	term := &fakeTerm{w: 20, h: 5, src: newFakeSource(clk)}
	err := New(c, testOptions(clk)).RunWith(context.Background(), term)
	if !errors.Is(err, termio.ErrTooSmall) {
		t.Fatalf("err = %v, want ErrTooSmall", err)
	}
	if term.enters != 0 || term.frameCount() != 0 {
		t.Fatalf("terminal touched before size check failed")
	}
}

func TestEngineReadErrorRestores(t *testing.T) {
	clk := newFakeClock()
	c := newFakeCollab(clk)
	_, term, err := runScript(t, c, clk, testOptions(clk), keys("j"))
	if !errors.Is(err, io.EOF) {
		t.Fatalf("err = %v, want EOF", err)
	}
	if term.restores != 1 {
		t.Fatalf("restores = %d, want 1", term.restores)
	}
}

func TestEngineInitialSnapshot(t *testing.T) {
	clk := newFakeClock()
	c := newFakeCollab(clk)
	opts := testOptions(clk)
	opts.Initial = &Snapshot{Tab: 1, Rows: map[int]int{1: 5, 2: 99}}
	e := New(c, opts)
	st := e.State()
	if st.Tab != 1 || st.Selected != 5 {
		t.Fatalf("restored state = %+v, want tab 1 selected 5", st)
	}
	snap := e.Snapshot()
	if snap.Rows[2] != 29 {
		t.Fatalf("out of range selection not clamped: %d", snap.Rows[2])
	}
}
