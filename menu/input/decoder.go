// Copyright © 2025 Texelation contributors
// SPDX-License-Identifier: AGPL-3.0-or-later
//
// File: menu/input/decoder.go
// Summary: Converts the raw terminal byte stream into logical input events.
// Usage: The engine calls Next with a blocking or short poll timeout.
// Notes: A lone ESC is told apart from a sequence start by a short follow-up read.

package input

import (
	"errors"
	"strings"
	"time"
	"unicode/utf8"
)

// DefaultEscapeTimeout is how long the decoder waits for the byte after ESC.
const DefaultEscapeTimeout = 100 * time.Millisecond

// maxSequence bounds an escape sequence body; longer input is dropped.
const maxSequence = 32

var sequences = map[string]Key{
	"[A": KeyUp, "OA": KeyUp,
	"[B": KeyDown, "OB": KeyDown,
	"[C": KeyRight, "OC": KeyRight,
	"[D": KeyLeft, "OD": KeyLeft,
	"[H": KeyHome, "OH": KeyHome, "[1~": KeyHome, "[7~": KeyHome,
	"[F": KeyEnd, "OF": KeyEnd, "[4~": KeyEnd, "[8~": KeyEnd,
	"[5~": KeyPageUp,
	"[6~": KeyPageDown,
	"[2~": KeyInsert,
	"[3~": KeyDelete,
	"[Z":  KeyBacktab,
}

// Decoder reads events from a Source.
type Decoder struct {
	src        Source
	escTimeout time.Duration
}

// NewDecoder returns a decoder over src. A non-positive escTimeout selects
// DefaultEscapeTimeout.
func NewDecoder(src Source, escTimeout time.Duration) *Decoder {
	if escTimeout <= 0 {
		escTimeout = DefaultEscapeTimeout
	}
	return &Decoder{src: src, escTimeout: escTimeout}
}

// Next returns the next event. With a non-negative timeout an EventTimeout
// is returned when nothing arrives in time. Unrecognized sequences are
// consumed without producing an event.
func (d *Decoder) Next(timeout time.Duration) (Event, error) {
	for {
		b, err := d.src.ReadByte(timeout, true)
		switch {
		case errors.Is(err, ErrTimeout):
			return Event{Type: EventTimeout}, nil
		case errors.Is(err, ErrInterrupted):
			return Event{Type: EventInterrupt}, nil
		case err != nil:
			return Event{}, err
		}

		ev, ok, err := d.decode(b)
		if err != nil {
			return Event{}, err
		}
		if ok {
			return ev, nil
		}
	}
}

func (d *Decoder) decode(b byte) (Event, bool, error) {
	switch {
	case b == 0x1b:
		return d.escape()
	case b == '\r' || b == '\n':
		return key(KeyEnter), true, nil
	case b == '\t':
		return key(KeyTab), true, nil
	case b == 0x7f || b == 0x08:
		return key(KeyBackspace), true, nil
	case b == 0:
		return Event{}, false, nil
	case b < 0x20:
		return Event{Type: EventKey, Key: KeyCtrl, Rune: rune('a' + b - 1)}, true, nil
	case b < utf8.RuneSelf:
		return Event{Type: EventKey, Key: KeyRune, Rune: rune(b)}, true, nil
	}
	return d.utf8Rune(b)
}

// follow reads a continuation byte. ok is false when it did not arrive in time.
func (d *Decoder) follow() (byte, bool, error) {
	b, err := d.src.ReadByte(d.escTimeout, false)
	if errors.Is(err, ErrTimeout) {
		return 0, false, nil
	}
	if err != nil {
		return 0, false, err
	}
	return b, true, nil
}

func (d *Decoder) escape() (Event, bool, error) {
	intro, ok, err := d.follow()
	if err != nil {
		return Event{}, false, err
	}
	if !ok {
		return key(KeyEscape), true, nil
	}
	if intro == 0x1b {
		// ESC ESC: drop the first and decode from the second.
		return d.escape()
	}
	if intro != '[' && intro != 'O' {
		return Event{}, false, nil
	}

	seq := []byte{intro}
	for {
		c, ok, err := d.follow()
		if err != nil {
			return Event{}, false, err
		}
		if !ok {
			return Event{}, false, nil
		}
		seq = append(seq, c)
		if isFinal(c) {
			break
		}
		if len(seq) > maxSequence {
			return Event{}, false, nil
		}
	}
	return classify(string(seq))
}

func isFinal(c byte) bool {
	return (c >= 'a' && c <= 'z') || (c >= 'A' && c <= 'Z') || c == '~'
}

func classify(seq string) (Event, bool, error) {
	if len(seq) > 2 && seq[1] == '<' {
		m, ok := ParseSGRMouse(seq[2:])
		if !ok {
			return Event{}, false, nil
		}
		return Event{Type: EventMouse, Mouse: m}, true, nil
	}
	if k, ok := sequences[seq]; ok {
		return key(k), true, nil
	}
	// Modified keys: ESC [ 1 ; <mod> X and ESC [ <n> ; <mod> ~.
	if semi := strings.IndexByte(seq, ';'); semi > 0 {
		final := seq[len(seq)-1]
		var plain string
		if final == '~' {
			plain = seq[:semi] + "~"
		} else {
			plain = "[" + string(final)
		}
		if k, ok := sequences[plain]; ok {
			return key(k), true, nil
		}
	}
	return Event{}, false, nil
}

func (d *Decoder) utf8Rune(first byte) (Event, bool, error) {
	var need int
	switch {
	case first&0xE0 == 0xC0:
		need = 1
	case first&0xF0 == 0xE0:
		need = 2
	case first&0xF8 == 0xF0:
		need = 3
	default:
		return Event{}, false, nil
	}
	buf := []byte{first}
	for i := 0; i < need; i++ {
		c, ok, err := d.follow()
		if err != nil {
			return Event{}, false, err
		}
		if !ok {
			return Event{}, false, nil
		}
		buf = append(buf, c)
	}
	r, _ := utf8.DecodeRune(buf)
	if r == utf8.RuneError {
		return Event{}, false, nil
	}
	return Event{Type: EventKey, Key: KeyRune, Rune: r}, true, nil
}

func key(k Key) Event {
	return Event{Type: EventKey, Key: k}
}
