// Copyright © 2025 Texelation contributors
// SPDX-License-Identifier: AGPL-3.0-or-later
//
// File: internal/kvfile/kvfile.go
// Summary: Line-preserving codec for "key = value" style config files.
// Usage: Parse, then Get/Set, then Bytes to render the edited file.
// Notes: Comments, blank lines, unknown keys and spacing around the
//   separator survive a round trip, as do CRLF line endings. Keys missing
//   from the file are appended with the file's line ending.
//   When a key repeats, the last occurrence is the effective one.

package kvfile

import (
	"strings"
	"unicode"
)

// Syntax describes a file format.
type Syntax struct {
	// Separator is written between key and value for appended keys, e.g.
	// " = " or "=". Its trimmed form is what parsing splits on; an
	// all-space separator splits on the first run of blanks.
	Separator string
	// Comment starts a comment line and, after a blank, an inline comment.
	Comment string
	// Quote wraps written values in double quotes.
	Quote bool
}

// DefaultSyntax is "key = value" with "#" comments.
var DefaultSyntax = Syntax{Separator: " = ", Comment: "#"}

type line struct {
	raw    string
	key    string
	prefix string // everything up to the value
	value  string
	quote  string
	suffix string // trailing blanks and inline comment
	cr     bool   // line ends in \r\n
}

// Doc is a parsed file.
type Doc struct {
	syntax   Syntax
	lines    []line
	index    map[string]int
	trailing bool
	crlf     bool
}

// Parse splits data into lines and recognizes key/value pairs.
func Parse(data []byte, syn Syntax) *Doc {
	if syn.Separator == "" {
		syn.Separator = DefaultSyntax.Separator
	}
	d := &Doc{syntax: syn, index: make(map[string]int)}
	text := string(data)
	if text == "" {
		return d
	}
	d.trailing = strings.HasSuffix(text, "\n")
	text = strings.TrimSuffix(text, "\n")
	d.crlf = strings.Contains(text+"\n", "\r\n")
	for _, raw := range strings.Split(text, "\n") {
		cr := strings.HasSuffix(raw, "\r")
		l := d.parseLine(strings.TrimSuffix(raw, "\r"))
		l.cr = cr
		d.lines = append(d.lines, l)
		if l.key != "" {
			d.index[l.key] = len(d.lines) - 1
		}
	}
	return d
}

func (d *Doc) parseLine(raw string) line {
	l := line{raw: raw}
	trimmed := strings.TrimSpace(raw)
	if trimmed == "" {
		return l
	}
	if d.syntax.Comment != "" && strings.HasPrefix(trimmed, d.syntax.Comment) {
		return l
	}

	sep := strings.TrimSpace(d.syntax.Separator)
	var keyEnd, valStart int
	if sep == "" {
		lead := len(raw) - len(strings.TrimLeftFunc(raw, unicode.IsSpace))
		i := strings.IndexFunc(raw[lead:], unicode.IsSpace)
		if i < 0 {
			return l
		}
		keyEnd = lead + i
		valStart = keyEnd
	} else {
		i := strings.Index(raw, sep)
		if i < 0 {
			return l
		}
		keyEnd = i
		valStart = i + len(sep)
	}
	key := strings.TrimSpace(raw[:keyEnd])
	if key == "" {
		return l
	}
	rest := raw[valStart:]
	body := strings.TrimLeftFunc(rest, unicode.IsSpace)
	l.key = key
	l.prefix = raw[:len(raw)-len(body)]

	value, suffix := body, ""
	if c := d.syntax.Comment; c != "" {
		if i := strings.Index(value, " "+c); i >= 0 && !insideQuotes(value, i) {
			value, suffix = value[:i], value[i:]
		}
	}
	stripped := strings.TrimRightFunc(value, unicode.IsSpace)
	suffix = value[len(stripped):] + suffix
	value = stripped
	if n := len(value); n >= 2 && (value[0] == '"' || value[0] == '\'') && value[n-1] == value[0] {
		l.quote = value[:1]
		value = value[1 : n-1]
	}
	l.value = value
	l.suffix = suffix
	return l
}

func insideQuotes(s string, at int) bool {
	var open byte
	for i := 0; i < at; i++ {
		switch c := s[i]; {
		case open == 0 && (c == '"' || c == '\''):
			open = c
		case c == open:
			open = 0
		}
	}
	return open != 0
}

// Get returns the effective value of key.
func (d *Doc) Get(key string) (string, bool) {
	i, ok := d.index[key]
	if !ok {
		return "", false
	}
	return d.lines[i].value, true
}

// Keys returns the keys in file order, each once.
func (d *Doc) Keys() []string {
	var out []string
	seen := make(map[string]bool)
	for _, l := range d.lines {
		if l.key != "" && !seen[l.key] {
			seen[l.key] = true
			out = append(out, l.key)
		}
	}
	return out
}

// Set replaces the effective value of key, appending the key when absent.
func (d *Doc) Set(key, value string) {
	if i, ok := d.index[key]; ok {
		l := &d.lines[i]
		l.value = value
		if l.quote == "" && d.syntax.Quote {
			l.quote = `"`
		}
		l.raw = l.prefix + l.quote + value + l.quote + l.suffix
		return
	}
	if n := len(d.lines); n > 0 && !d.trailing {
		d.lines[n-1].cr = d.crlf
	}
	l := line{key: key, prefix: key + d.syntax.Separator, value: value, cr: d.crlf}
	if d.syntax.Quote {
		l.quote = `"`
	}
	l.raw = l.prefix + l.quote + value + l.quote
	d.lines = append(d.lines, l)
	d.index[key] = len(d.lines) - 1
	d.trailing = true
}

// Bytes renders the document.
func (d *Doc) Bytes() []byte {
	var b strings.Builder
	for i, l := range d.lines {
		if i > 0 {
			b.WriteByte('\n')
		}
		b.WriteString(l.raw)
		if l.cr {
			b.WriteByte('\r')
		}
	}
	if d.trailing && len(d.lines) > 0 {
		b.WriteByte('\n')
	}
	return []byte(b.String())
}
