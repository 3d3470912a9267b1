// Copyright © 2025 Texelation contributors
// SPDX-License-Identifier: AGPL-3.0-or-later
//
// File: menu/termio/session.go
// Summary: Raw terminal session: raw mode, alternate screen, mouse reporting.
// Usage: Open the controlling terminal, Enter before drawing, and defer Restore.
// Notes: Restore is idempotent and safe from any exit path, including signals.

package termio

import (
	"errors"
	"fmt"
	"io"
	"os"
	"sync"

	"github.com/framegrace/texelmenu/menu/input"
	"golang.org/x/term"
)

var (
	// ErrNotTTY is returned when the session file is not a terminal.
	ErrNotTTY = errors.New("termio: not a terminal")
	// ErrTooSmall is wrapped by SizeError.
	ErrTooSmall = errors.New("termio: terminal too small")
)

// SizeError reports a terminal below the minimum usable size.
type SizeError struct {
	Width, Height       int
	MinWidth, MinHeight int
}

func (e *SizeError) Error() string {
	return fmt.Sprintf("terminal is %dx%d, need at least %dx%d", e.Width, e.Height, e.MinWidth, e.MinHeight)
}

func (e *SizeError) Unwrap() error { return ErrTooSmall }

const (
	seqAltScreenOn  = "\x1b[?1049h"
	seqAltScreenOff = "\x1b[?1049l"
	seqHideCursor   = "\x1b[?25l"
	seqShowCursor   = "\x1b[?25h"
	seqClear        = "\x1b[2J\x1b[H"
	seqResetAttrs   = "\x1b[0m"
	seqMouseOn      = "\x1b[?1000h\x1b[?1002h\x1b[?1006h"
	seqMouseOff     = "\x1b[?1006l\x1b[?1002l\x1b[?1000l"
)

// Options configures a Session.
type Options struct {
	// Mouse enables SGR mouse reporting while the session is entered.
	Mouse bool
}

// Session owns the terminal for the lifetime of the menu.
type Session struct {
	file  *os.File
	fd    int
	owned bool
	opts  Options

	mu      sync.Mutex
	state   *term.State
	entered bool
	source  *input.ReaderSource

	restoreOnce sync.Once
	restoreErr  error
}

// Open opens the controlling terminal (/dev/tty).
func Open(opts Options) (*Session, error) {
	f, err := os.OpenFile("/dev/tty", os.O_RDWR, 0)
	if err != nil {
		return nil, fmt.Errorf("%w: open /dev/tty: %v", ErrNotTTY, err)
	}
	s, err := New(f, opts)
	if err != nil {
		f.Close()
		return nil, err
	}
	s.owned = true
	return s, nil
}

// New wraps an already open terminal file. The caller keeps ownership of f.
func New(f *os.File, opts Options) (*Session, error) {
	fd := int(f.Fd())
	if !term.IsTerminal(fd) {
		return nil, ErrNotTTY
	}
	return &Session{file: f, fd: fd, opts: opts}, nil
}

// Enter switches to raw mode, the alternate screen and (optionally) mouse
// reporting. If raw mode cannot be entered nothing is written.
func (s *Session) Enter() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.entered {
		return nil
	}
	state, err := term.MakeRaw(s.fd)
	if err != nil {
		return fmt.Errorf("termio: raw mode: %w", err)
	}
	s.state = state
	s.entered = true

	seq := seqAltScreenOn + seqHideCursor + seqClear
	if s.opts.Mouse {
		seq += seqMouseOn
	}
	if _, err := io.WriteString(s.file, seq); err != nil {
		return fmt.Errorf("termio: enter: %w", err)
	}
	if s.source == nil {
		s.source = input.NewReaderSource(s.file)
	}
	return nil
}

// Restore undoes Enter. Only the first call has an effect.
func (s *Session) Restore() error {
	s.restoreOnce.Do(func() {
		s.mu.Lock()
		defer s.mu.Unlock()
		var errs []error
		if s.entered {
			seq := seqResetAttrs
			if s.opts.Mouse {
				seq += seqMouseOff
			}
			seq += seqShowCursor + seqAltScreenOff
			if _, err := io.WriteString(s.file, seq); err != nil {
				errs = append(errs, fmt.Errorf("termio: leave: %w", err))
			}
			if err := term.Restore(s.fd, s.state); err != nil {
				errs = append(errs, fmt.Errorf("termio: restore mode: %w", err))
			}
			s.entered = false
		}
		if s.owned {
			if err := s.file.Close(); err != nil {
				errs = append(errs, fmt.Errorf("termio: close: %w", err))
			}
		}
		s.restoreErr = errors.Join(errs...)
	})
	return s.restoreErr
}

// Entered reports whether the session is currently in raw mode.
func (s *Session) Entered() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.entered
}

// Size returns the terminal width and height in cells.
func (s *Session) Size() (int, int, error) {
	w, h, err := term.GetSize(s.fd)
	if err != nil {
		return 0, 0, fmt.Errorf("termio: size: %w", err)
	}
	return w, h, nil
}

// CheckSize returns a *SizeError when the terminal is below the minimum.
func (s *Session) CheckSize(minWidth, minHeight int) error {
	w, h, err := s.Size()
	if err != nil {
		return err
	}
	if w < minWidth || h < minHeight {
		return &SizeError{Width: w, Height: h, MinWidth: minWidth, MinHeight: minHeight}
	}
	return nil
}

// Source returns the input byte source. It is nil before Enter.
func (s *Session) Source() input.Source {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.source == nil {
		return nil
	}
	return s.source
}

// Write sends a rendered frame to the terminal in a single call.
func (s *Session) Write(p []byte) (int, error) {
	return s.file.Write(p)
}
