// Package citation formats bibliography entries into citation text.
package citation

import (
	"html"
	"strings"
)

// SpanKind identifies how a span of citation text is styled.
type SpanKind int

const (
	Plain SpanKind = iota
	Strong
	Emph
	Link
)

// Span is a run of uniformly styled text.
type Span struct {
	Kind SpanKind
	Text string
	Href string // Link target, only for Link spans
}

// Text is styled citation text, independent of the output format.
type Text []Span

// Render renders the text with the given backend.
func (t Text) Render(b Backend) string {
	var sb strings.Builder
	for _, s := range t {
		sb.WriteString(b.Span(s))
	}
	return sb.String()
}

// String returns the text without markup.
func (t Text) String() string {
	return t.Render(PlainBackend{})
}

// Backend renders spans to an output format.
type Backend interface {
	Span(s Span) string
}

// HTMLBackend renders escaped HTML.
type HTMLBackend struct{}

func (HTMLBackend) Span(s Span) string {
	text := html.EscapeString(s.Text)
	switch s.Kind {
	case Strong:
		return "<strong>" + text + "</strong>"
	case Emph:
		return "<em>" + text + "</em>"
	case Link:
		return `<a href="` + html.EscapeString(s.Href) + `">` + text + "</a>"
	default:
		return text
	}
}

// PlainBackend drops all styling.
type PlainBackend struct{}

func (PlainBackend) Span(s Span) string {
	return s.Text
}

// plain and emph return nil for empty strings so join skips them.
func plain(s string) Text {
	if s == "" {
		return nil
	}
	return Text{{Kind: Plain, Text: s}}
}

func emph(s string) Text {
	if s == "" {
		return nil
	}
	return Text{{Kind: Emph, Text: s}}
}

func link(s, href string) Text { return Text{{Kind: Link, Text: s, Href: href}} }

// join concatenates the non-empty parts with sep between them.
func join(sep string, parts ...Text) Text {
	var out Text
	for _, p := range parts {
		if len(p) == 0 {
			continue
		}
		if len(out) > 0 {
			out = append(out, Span{Kind: Plain, Text: sep})
		}
		out = append(out, p...)
	}
	return out
}

// endsWithPunct reports whether the rendered text already ends a sentence.
func (t Text) endsWithPunct() bool {
	s := strings.TrimRight(t.String(), " ")
	return strings.HasSuffix(s, ".") || strings.HasSuffix(s, "?") || strings.HasSuffix(s, "!")
}
