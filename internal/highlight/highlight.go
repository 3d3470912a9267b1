// Copyright © 2025 Texelation contributors
// SPDX-License-Identifier: AGPL-3.0-or-later
//
// File: internal/highlight/highlight.go
// Summary: Syntax highlighting of file content into styled frame spans.
// Usage: Lines(name, content, style) for the file viewer detail view.
// Notes: The language comes from go-enry (file name, then content); the
//   chroma lexer falls back to content analysis and then plain text.

package highlight

import (
	"strings"

	"github.com/alecthomas/chroma/v2"
	"github.com/alecthomas/chroma/v2/lexers"
	"github.com/alecthomas/chroma/v2/styles"
	"github.com/framegrace/texelmenu/menu/frame"
	"github.com/gdamore/tcell/v2"
	"github.com/go-enry/go-enry/v2"
)

// DefaultStyle matches the engine's mocha theme.
const DefaultStyle = "catppuccin-mocha"

// Language returns the detected language of a file, or "" when unknown.
func Language(name string, content []byte) string {
	return enry.GetLanguage(name, content)
}

// Lines tokenizes content and returns one span list per line. Tokens drawn
// in the style's base text colour keep the terminal default foreground.
func Lines(name string, content []byte, styleName string) [][]frame.Span {
	text := strings.ReplaceAll(string(content), "\r\n", "\n")
	text = strings.ReplaceAll(text, "\t", "    ")
	style := chromaStyle(styleName)
	lexer := chroma.Coalesce(getLexer(Language(name, content), text))

	lines := [][]frame.Span{nil}
	it, err := lexer.Tokenise(nil, text)
	if err != nil {
		return plain(text)
	}
	base := style.Get(chroma.Text).Colour
	for tok := it(); tok != chroma.EOF; tok = it() {
		entry := style.Get(tok.Type)
		fg := frame.ColorDefault
		if entry.Colour.IsSet() && entry.Colour != base {
			fg = tcell.NewRGBColor(int32(entry.Colour.Red()), int32(entry.Colour.Green()), int32(entry.Colour.Blue()))
		}
		bold := entry.Bold == chroma.Yes
		parts := strings.Split(tok.Value, "\n")
		for i, part := range parts {
			if i > 0 {
				lines = append(lines, nil)
			}
			if part == "" {
				continue
			}
			last := len(lines) - 1
			lines[last] = appendSpan(lines[last], frame.Span{Text: part, FG: fg, Bold: bold})
		}
	}
	// Lexers may append a final newline; drop the empty line it opens.
	if n := len(lines); n > 1 && lines[n-1] == nil {
		lines = lines[:n-1]
	}
	return lines
}

// appendSpan merges adjacent spans of the same style.
func appendSpan(spans []frame.Span, s frame.Span) []frame.Span {
	if n := len(spans); n > 0 && spans[n-1].FG == s.FG && spans[n-1].Bold == s.Bold {
		spans[n-1].Text += s.Text
		return spans
	}
	return append(spans, s)
}

func plain(text string) [][]frame.Span {
	text = strings.TrimSuffix(text, "\n")
	var out [][]frame.Span
	for _, line := range strings.Split(text, "\n") {
		if line == "" {
			out = append(out, nil)
			continue
		}
		out = append(out, []frame.Span{{Text: line, FG: frame.ColorDefault}})
	}
	return out
}

func chromaStyle(name string) *chroma.Style {
	if name == "" {
		name = DefaultStyle
	}
	return styles.Get(name)
}

func getLexer(language, text string) chroma.Lexer {
	if language != "" {
		if l := lexers.Get(language); l != nil {
			return l
		}
	}
	if l := lexers.Analyse(text); l != nil {
		return l
	}
	return lexers.Fallback
}
