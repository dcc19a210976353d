// Package publications turns a bibliography file into publication records
// and renders them through a template.
//
// The builder depends on four narrow collaborators: a parser, a citation
// formatter, a writer for the raw BibTeX of each record and a template
// source. All of them are injected through Options, including the host
// theme, so a builder never renders before its templates are available.
package publications

import (
	"errors"
	"html/template"
	"io"

	"github.com/matsen/bibpub/internal/bibtex"
	"github.com/matsen/bibpub/internal/citation"
)

// DefaultTemplate is the host template used when no explicit file is given.
const DefaultTemplate = "publications"

// Sentinel errors for publication builds.
var (
	// ErrParse wraps every failure to read the bibliography.
	ErrParse = errors.New("bibliography parse failed")
	// ErrTemplateUnavailable means neither an explicit template nor the host
	// theme could supply one. It aborts the render.
	ErrTemplateUnavailable = errors.New("publications template unavailable")
	// ErrUnknownKey means the formatter returned a key the parser never saw.
	ErrUnknownKey = errors.New("formatted entry has no source entry")
	// ErrSerialize means an entry could not be written back to BibTeX.
	ErrSerialize = errors.New("bibliography entry serialization failed")
)

// BibliographyParser reads a bibliography file.
type BibliographyParser interface {
	ParseFile(path string) (*bibtex.Database, error)
}

// CitationFormatter formats entries into citation text. The formatter owns
// the order of its output.
type CitationFormatter interface {
	FormatEntries(entries []*bibtex.Entry) []citation.FormattedEntry
}

// BibliographyWriter serializes entries back to BibTeX source.
type BibliographyWriter interface {
	Write(w io.Writer, db *bibtex.Database) error
}

// TemplateRenderer executes a parsed template. *html/template.Template
// satisfies it.
type TemplateRenderer interface {
	Execute(w io.Writer, data any) error
}

// TemplateSource is the host's template environment.
type TemplateSource interface {
	Lookup(name string) (TemplateRenderer, error)
}

// TemplateLoader loads a template from an explicit file path.
type TemplateLoader interface {
	LoadFile(path string) (TemplateRenderer, error)
}

// Record is one rendered publication. Optional fields are nil when the
// entry does not define them.
type Record struct {
	Key    string        `json:"key"`
	Year   *string       `json:"year"`
	Text   template.HTML `json:"text"`
	Raw    string        `json:"raw"`
	PDF    *string       `json:"pdf"`
	Slides *string       `json:"slides"`
	Poster *string       `json:"poster"`
}

// PageData is the value passed to publication templates.
type PageData struct {
	Source       string   // Bibliography path as given in the directive
	Publications []Record // Records in formatter order
}

// Result is the outcome of collecting records from one bibliography.
// Err is non-nil when the file could not be parsed; Records is then empty.
type Result struct {
	Path    string
	Records []Record
	Err     error
}

// OK reports whether the bibliography was read successfully.
func (r Result) OK() bool {
	return r.Err == nil
}
