// Copyright © 2025 Texelation contributors
// SPDX-License-Identifier: AGPL-3.0-or-later
//
// File: menu/input/source.go
// Summary: Byte sources with per-read timeouts for the escape decoder.
// Usage: ReaderSource wraps the controlling terminal; tests use scripted sources.

package input

import (
	"errors"
	"io"
	"time"
)

var (
	// ErrTimeout is returned when no byte arrived before the read timeout.
	ErrTimeout = errors.New("input: read timeout")
	// ErrInterrupted is returned when Interrupt woke a blocked read.
	ErrInterrupted = errors.New("input: read interrupted")
)

// Block is the timeout value that waits indefinitely.
const Block time.Duration = -1

// Source yields input bytes one at a time.
type Source interface {
	// ReadByte waits up to timeout for the next byte. A negative timeout
	// blocks. When interruptible is true a pending Interrupt ends the wait
	// with ErrInterrupted; otherwise the interrupt stays pending.
	ReadByte(timeout time.Duration, interruptible bool) (byte, error)
	// Interrupt wakes the next interruptible read.
	Interrupt()
}

// ReaderSource pumps an io.Reader on a goroutine so reads can time out.
type ReaderSource struct {
	chunks chan chunk
	wake   chan struct{}
	buf    []byte
	err    error
}

// NewReaderSource starts reading r in the background.
func NewReaderSource(r io.Reader) *ReaderSource {
	s := &ReaderSource{
		chunks: make(chan chunk, 16),
		wake:   make(chan struct{}, 1),
	}
	go s.pump(r)
	return s
}

type chunk struct {
	data []byte
	err  error
}

func (s *ReaderSource) pump(r io.Reader) {
	buf := make([]byte, 256)
	for {
		n, err := r.Read(buf)
		if n > 0 {
			data := make([]byte, n)
			copy(data, buf[:n])
			s.chunks <- chunk{data: data}
		}
		if err != nil {
			s.chunks <- chunk{err: err}
			return
		}
	}
}

// ReadByte implements Source.
func (s *ReaderSource) ReadByte(timeout time.Duration, interruptible bool) (byte, error) {
	if len(s.buf) > 0 {
		b := s.buf[0]
		s.buf = s.buf[1:]
		return b, nil
	}
	if s.err != nil {
		return 0, s.err
	}

	var timer <-chan time.Time
	if timeout >= 0 {
		t := time.NewTimer(timeout)
		defer t.Stop()
		timer = t.C
	}
	var wake <-chan struct{}
	if interruptible {
		wake = s.wake
	}

	select {
	case c := <-s.chunks:
		if c.err != nil {
			s.err = c.err
			return 0, c.err
		}
		s.buf = c.data[1:]
		return c.data[0], nil
	case <-wake:
		return 0, ErrInterrupted
	case <-timer:
		return 0, ErrTimeout
	}
}

// Interrupt implements Source. Multiple interrupts before a read coalesce.
func (s *ReaderSource) Interrupt() {
	select {
	case s.wake <- struct{}{}:
	default:
	}
}
