// Copyright © 2025 Texelation contributors
// SPDX-License-Identifier: AGPL-3.0-or-later
//
// File: menu/engine.go
// Summary: The terminal menu engine: one loop that reads, routes, lays out and draws.
// Usage: engine := menu.New(collab, opts); err := engine.Run(ctx).
// Notes: The loop blocks on input while nothing is pending and polls while a
//   preview commit waits out its quiet interval. Signals, redraw requests
//   and context cancellation wake the read through Source.Interrupt.

package menu

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"os/signal"
	"sync"
	"syscall"
	"time"

	"github.com/charmbracelet/log"
	"github.com/framegrace/texelmenu/internal/atomicfile"
	"github.com/framegrace/texelmenu/menu/debounce"
	"github.com/framegrace/texelmenu/menu/frame"
	"github.com/framegrace/texelmenu/menu/input"
	"github.com/framegrace/texelmenu/menu/scroll"
	"github.com/framegrace/texelmenu/menu/tabs"
	"github.com/framegrace/texelmenu/menu/termio"
)

// Terminal is what the engine needs from the raw terminal session.
type Terminal interface {
	Enter() error
	Restore() error
	Size() (int, int, error)
	Source() input.Source
	Write(p []byte) (int, error)
}

// SignalError reports an exit caused by INT, TERM or HUP.
type SignalError struct {
	Signal os.Signal
}

func (e *SignalError) Error() string {
	return "menu: terminated by " + e.Signal.String()
}

// ExitCode is the conventional 128+signo status.
func (e *SignalError) ExitCode() int {
	if s, ok := e.Signal.(syscall.Signal); ok {
		return 128 + int(s)
	}
	return 1
}

// Options configures an Engine. Zero values select the defaults.
type Options struct {
	Debounce      time.Duration
	Poll          time.Duration
	EscapeTimeout time.Duration
	MinWidth      int
	MinHeight     int
	BoxWidth      int
	LabelWidth    int
	Ellipsis      string
	Mouse         bool
	Theme         frame.Theme
	Clock         debounce.Clock
	Logger        *log.Logger
	Initial       *Snapshot
	// Signals installs INT/TERM/HUP/WINCH handling for the session.
	Signals bool
}

const (
	defaultMinWidth  = 40
	defaultMinHeight = 12
)

// DefaultOptions returns the options used by the CLI when no config is set.
func DefaultOptions() Options {
	return Options{
		Debounce:      debounce.DefaultThreshold,
		Poll:          debounce.DefaultPoll,
		EscapeTimeout: input.DefaultEscapeTimeout,
		MinWidth:      defaultMinWidth,
		MinHeight:     defaultMinHeight,
		Ellipsis:      tabs.Ellipsis,
		Mouse:         true,
		Theme:         frame.DefaultTheme(),
		Signals:       true,
	}
}

// Engine runs one menu session.
type Engine struct {
	opts   Options
	log    *log.Logger
	sched  *debounce.Scheduler
	router *Router

	// Loop-owned layout of the last drawn frame, used for mouse hit-testing.
	metrics frame.Metrics
	strip   tabs.Strip
	window  scroll.Window

	mu       sync.Mutex
	src      input.Source
	sig      os.Signal
	state    ViewState
	snapshot Snapshot
}

// New creates an engine over c.
func New(c Collaborator, opts Options) *Engine {
	if opts.MinWidth <= 0 {
		opts.MinWidth = defaultMinWidth
	}
	if opts.MinHeight <= 0 {
		opts.MinHeight = defaultMinHeight
	}
	if opts.Ellipsis == "" {
		opts.Ellipsis = tabs.Ellipsis
	}
	if opts.Theme == (frame.Theme{}) {
		opts.Theme = frame.DefaultTheme()
	}
	logger := opts.Logger
	if logger == nil {
		logger = log.New(io.Discard)
	}
	e := &Engine{opts: opts, log: logger.WithPrefix("engine")}
	e.sched = debounce.New(opts.Debounce, opts.Poll, opts.Clock, func(target int) {
		e.router.Commit(target)
	})
	e.router = NewRouter(c, e.sched, e.log)
	if opts.Initial != nil {
		e.router.Restore(*opts.Initial)
	}
	e.publish()
	return e
}

// Run opens the controlling terminal and runs the menu on it.
func (e *Engine) Run(ctx context.Context) error {
	s, err := termio.Open(termio.Options{Mouse: e.opts.Mouse})
	if err != nil {
		return err
	}
	defer s.Restore()
	return e.RunWith(ctx, s)
}

// RunWith runs the menu on an already opened terminal. The terminal is
// restored before RunWith returns, on every path.
func (e *Engine) RunWith(ctx context.Context, t Terminal) (err error) {
	w, h, err := t.Size()
	if err != nil {
		return fmt.Errorf("engine: probe size: %w", err)
	}
	if w < e.opts.MinWidth || h < e.opts.MinHeight {
		return &termio.SizeError{Width: w, Height: h, MinWidth: e.opts.MinWidth, MinHeight: e.opts.MinHeight}
	}
	if err := t.Enter(); err != nil {
		return err
	}
	defer func() {
		if n := atomicfile.CleanupInFlight(); n > 0 {
			e.log.Warn("removed in-flight temp files", "count", n)
		}
		if rerr := t.Restore(); rerr != nil && err == nil {
			err = rerr
		}
	}()

	src := t.Source()
	if src == nil {
		return errors.New("engine: terminal has no input source")
	}
	e.mu.Lock()
	e.src = src
	e.mu.Unlock()
	defer func() {
		e.mu.Lock()
		e.src = nil
		e.mu.Unlock()
	}()

	stop := context.AfterFunc(ctx, src.Interrupt)
	defer stop()

	if e.opts.Signals {
		ch := make(chan os.Signal, 4)
		signal.Notify(ch, syscall.SIGINT, syscall.SIGTERM, syscall.SIGHUP, syscall.SIGWINCH)
		done := make(chan struct{})
		defer func() {
			signal.Stop(ch)
			close(done)
		}()
		go e.watchSignals(ch, done)
	}

	e.log.Info("session started", "width", w, "height", h)
	return e.loop(ctx, t, input.NewDecoder(src, e.opts.EscapeTimeout))
}

func (e *Engine) loop(ctx context.Context, t Terminal, dec *input.Decoder) error {
	dirty := true
	for {
		if dirty {
			if err := e.draw(t); err != nil {
				return err
			}
			dirty = false
		}

		ev, err := dec.Next(e.sched.ReadTimeout())
		if err != nil {
			return fmt.Errorf("engine: read input: %w", err)
		}
		switch ev.Type {
		case input.EventTimeout:
			if e.sched.Fire() {
				dirty = true
			}
		case input.EventInterrupt:
			if err := ctx.Err(); err != nil {
				return err
			}
			if sig := e.takeSignal(); sig != nil {
				e.log.Info("exiting on signal", "signal", sig)
				return &SignalError{Signal: sig}
			}
			dirty = true
		default:
			cmd, ok := e.command(ev)
			if !ok {
				continue
			}
			e.log.Debug("dispatch", "event", ev, "op", cmd.Op)
			if err := e.router.Dispatch(cmd); errors.Is(err, ErrQuit) {
				e.log.Info("quit")
				e.publish()
				return nil
			}
			dirty = true
		}
	}
}

func (e *Engine) draw(t Terminal) error {
	w, h, err := t.Size()
	if err != nil {
		return fmt.Errorf("engine: probe size: %w", err)
	}
	if w < e.opts.MinWidth || h < e.opts.MinHeight {
		_, err := t.Write(frame.TooSmall(w, h, e.opts.MinWidth, e.opts.MinHeight))
		e.metrics = frame.Metrics{}
		return err
	}

	hasTabs := len(e.router.collab.Tabs()) > 0 && e.router.view() == ViewList
	m := frame.Measure(w, h, e.opts.BoxWidth, hasTabs)
	var strip *tabs.Strip
	if hasTabs {
		s, _ := e.router.Strip(m.InnerWidth)
		strip = &s
		e.strip = s
	} else {
		e.strip = tabs.Strip{}
	}
	e.router.SetViewport(m.ViewportHeight)
	win := e.router.Window()
	status, kind := e.router.Status()

	f := frame.Frame{
		Metrics:    m,
		Theme:      e.opts.Theme,
		Title:      e.router.Title(),
		Modified:   e.router.Modified(),
		Tabs:       strip,
		Rows:       rows(e.router.Items()),
		Window:     win,
		LabelWidth: e.opts.LabelWidth,
		Ellipsis:   e.opts.Ellipsis,
		Status:     status,
		StatusKind: kind,
		Footer:     e.router.Footer(),
	}
	if _, err := t.Write(frame.Render(f)); err != nil {
		return fmt.Errorf("engine: write frame: %w", err)
	}
	e.metrics = m
	e.window = win
	e.publish()
	return nil
}

func rows(items []Item) []frame.Row {
	out := make([]frame.Row, len(items))
	for i, it := range items {
		out[i] = frame.Row{
			Label:    it.Label,
			Value:    it.Value,
			Spans:    it.Spans,
			Marked:   it.Marked,
			Disabled: it.Disabled,
		}
	}
	return out
}

func (e *Engine) command(ev input.Event) (Command, bool) {
	if ev.Type == input.EventMouse {
		return e.mouseCommand(ev.Mouse)
	}
	return KeyCommand(ev, e.router.view())
}

func (e *Engine) mouseCommand(ms input.Mouse) (Command, bool) {
	if !e.opts.Mouse {
		return Command{}, false
	}
	switch ms.Button {
	case input.WheelUp:
		return Command{Op: OpUp}, true
	case input.WheelDown:
		return Command{Op: OpDown}, true
	case input.MouseRight:
		return Command{Op: OpBack}, true
	case input.MouseLeft:
	default:
		return Command{}, false
	}

	m := e.metrics
	if m.ItemStartRow == 0 {
		return Command{}, false
	}
	if m.TabRow > 0 && ms.Row == m.TabRow {
		kind, idx := e.strip.HitTest(ms.Col - m.ContentCol)
		switch kind {
		case tabs.HitTab:
			return Command{Op: OpSelectTab, Arg: idx}, true
		case tabs.HitLeft:
			return Command{Op: OpPrevTab}, true
		case tabs.HitRight:
			return Command{Op: OpNextTab}, true
		}
		return Command{}, false
	}
	if ms.Row == m.ItemStartRow-1 && e.window.CanScrollUp() {
		return Command{Op: OpPageUp}, true
	}
	if ms.Row == m.ItemStartRow+m.ViewportHeight && e.window.CanScrollDown() {
		return Command{Op: OpPageDown}, true
	}
	idx, ok := e.window.RowAt(ms.Row, m.ItemStartRow)
	if !ok {
		return Command{}, false
	}
	if idx == e.window.Selected {
		return Command{Op: OpActivate}, true
	}
	return Command{Op: OpSelectRow, Arg: idx}, true
}

func (e *Engine) watchSignals(ch <-chan os.Signal, done <-chan struct{}) {
	for {
		select {
		case <-done:
			return
		case sig := <-ch:
			if sig == syscall.SIGWINCH {
				e.log.Debug("resize")
				e.RequestRedraw()
				continue
			}
			e.mu.Lock()
			e.sig = sig
			src := e.src
			e.mu.Unlock()
			if src != nil {
				src.Interrupt()
			}
		}
	}
}

func (e *Engine) takeSignal() os.Signal {
	e.mu.Lock()
	defer e.mu.Unlock()
	sig := e.sig
	e.sig = nil
	return sig
}

// RequestRedraw asks the loop to lay out and draw again. It is safe to call
// from any goroutine.
func (e *Engine) RequestRedraw() {
	e.mu.Lock()
	src := e.src
	e.mu.Unlock()
	if src != nil {
		src.Interrupt()
	}
}

func (e *Engine) publish() {
	state := e.router.State()
	snap := e.router.Snapshot()
	e.mu.Lock()
	e.state = state
	e.snapshot = snap
	e.mu.Unlock()
}

// State returns the view state as of the last drawn frame.
func (e *Engine) State() ViewState {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.state
}

// Snapshot returns the tab and per-tab selections for persisting.
func (e *Engine) Snapshot() Snapshot {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.snapshot
}
