package publications

import (
	"bytes"
	"errors"
	"html/template"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/matsen/bibpub/internal/bibtex"
	"github.com/matsen/bibpub/internal/citation"
)

const testBib = `@article{Razik2019,
  author = {Razik, Joseph and Doe, Jane},
  title  = {First Paper},
  journal = {Nature},
  year   = {2019},
  pdf    = {papers/razik2019.pdf},
  slides = {https://example.org/slides.pdf},
}

@misc{Undated,
  author = {Smith, John},
  title  = {No Year Here},
  poster = {posters/undated.png},
}

@inproceedings{Razik2021,
  author = {Razik, Joseph},
  title  = {Second Paper},
  booktitle = {Proc. Conf.},
  year   = 2021,
}
`

// writeFile writes content under dir and returns the path.
func writeFile(t *testing.T, dir, name, content string) string {
	t.Helper()
	path := filepath.Join(dir, name)
	if err := os.WriteFile(path, []byte(content), 0644); err != nil {
		t.Fatalf("writing %s: %v", name, err)
	}
	return path
}

// fakeHost serves templates parsed from strings and counts lookups.
type fakeHost struct {
	templates map[string]string
	lookups   int
}

func (h *fakeHost) Lookup(name string) (TemplateRenderer, error) {
	h.lookups++
	src, ok := h.templates[name]
	if !ok {
		return nil, errors.New("template not found: " + name)
	}
	return template.Must(template.New(name).Parse(src)), nil
}

const listTemplate = `count={{len .Publications}}{{range .Publications}};{{.Key}}{{end}}`

func newTestBuilder(t *testing.T, logs io.Writer, host TemplateSource) *Builder {
	t.Helper()
	if logs == nil {
		logs = io.Discard
	}
	return NewBuilder(Options{
		Host:   host,
		Strong: "Razik",
		Logger: slog.New(slog.NewTextHandler(logs, nil)),
	})
}

func TestCollect_RecordsMatchEntries(t *testing.T) {
	path := writeFile(t, t.TempDir(), "refs.bib", testBib)
	b := newTestBuilder(t, nil, nil)

	res := b.Collect(path)
	if !res.OK() {
		t.Fatalf("Collect() error = %v", res.Err)
	}

	db, err := bibtex.ParseFile(path)
	if err != nil {
		t.Fatal(err)
	}
	if len(res.Records) != db.Len() {
		t.Fatalf("got %d records, want %d", len(res.Records), db.Len())
	}
	for _, r := range res.Records {
		if _, ok := db.Entry(r.Key); !ok {
			t.Errorf("record key %q not in parsed entries", r.Key)
		}
	}

	wantOrder := []string{"Razik2019", "Undated", "Razik2021"}
	for i, r := range res.Records {
		if r.Key != wantOrder[i] {
			t.Errorf("record %d = %q, want %q", i, r.Key, wantOrder[i])
		}
	}
}

func TestCollect_OptionalFields(t *testing.T) {
	path := writeFile(t, t.TempDir(), "refs.bib", testBib)
	res := newTestBuilder(t, nil, nil).Collect(path)
	if !res.OK() {
		t.Fatalf("Collect() error = %v", res.Err)
	}
	byKey := make(map[string]Record)
	for _, r := range res.Records {
		byKey[r.Key] = r
	}

	str := func(p *string) string {
		if p == nil {
			return "<nil>"
		}
		return *p
	}

	tests := []struct {
		key                       string
		year, pdf, slides, poster string
	}{
		{"Razik2019", "2019", "papers/razik2019.pdf", "https://example.org/slides.pdf", "<nil>"},
		{"Undated", "<nil>", "<nil>", "<nil>", "posters/undated.png"},
		{"Razik2021", "2021", "<nil>", "<nil>", "<nil>"},
	}
	for _, tt := range tests {
		t.Run(tt.key, func(t *testing.T) {
			r := byKey[tt.key]
			if got := str(r.Year); got != tt.year {
				t.Errorf("Year = %s, want %s", got, tt.year)
			}
			if got := str(r.PDF); got != tt.pdf {
				t.Errorf("PDF = %s, want %s", got, tt.pdf)
			}
			if got := str(r.Slides); got != tt.slides {
				t.Errorf("Slides = %s, want %s", got, tt.slides)
			}
			if got := str(r.Poster); got != tt.poster {
				t.Errorf("Poster = %s, want %s", got, tt.poster)
			}
		})
	}
}

func TestCollect_CitationText(t *testing.T) {
	path := writeFile(t, t.TempDir(), "refs.bib", testBib)
	res := newTestBuilder(t, nil, nil).Collect(path)

	got := string(res.Records[0].Text)
	if !strings.HasPrefix(got, "<strong>Joseph Razik</strong> and Jane Doe.") {
		t.Errorf("Text = %s, want strong author first", got)
	}
}

func TestCollect_RawRoundTrip(t *testing.T) {
	path := writeFile(t, t.TempDir(), "refs.bib", testBib)
	res := newTestBuilder(t, nil, nil).Collect(path)
	db, err := bibtex.ParseFile(path)
	if err != nil {
		t.Fatal(err)
	}

	for _, r := range res.Records {
		t.Run(r.Key, func(t *testing.T) {
			again, err := bibtex.Parse(strings.NewReader(r.Raw), r.Key)
			if err != nil {
				t.Fatalf("re-parsing raw text: %v\n%s", err, r.Raw)
			}
			if again.Len() != 1 {
				t.Fatalf("raw text holds %d entries, want 1", again.Len())
			}
			got := again.Entries()[0]
			orig, _ := db.Entry(r.Key)
			if got.Key != orig.Key {
				t.Errorf("key = %q, want %q", got.Key, orig.Key)
			}
			origFields, gotFields := orig.Fields(), got.Fields()
			if len(origFields) != len(gotFields) {
				t.Fatalf("got %d fields, want %d", len(gotFields), len(origFields))
			}
			for i := range origFields {
				if origFields[i] != gotFields[i] {
					t.Errorf("field %d = %+v, want %+v", i, gotFields[i], origFields[i])
				}
			}
		})
	}
}

// Link fields stay in the raw text; dropping them is an open product question.
func TestCollect_RawKeepsLinkFields(t *testing.T) {
	path := writeFile(t, t.TempDir(), "refs.bib", testBib)
	res := newTestBuilder(t, nil, nil).Collect(path)

	if !strings.Contains(res.Records[0].Raw, "pdf = {papers/razik2019.pdf}") {
		t.Errorf("raw text should include the pdf field:\n%s", res.Records[0].Raw)
	}
}

func TestBuild_EmptyFileStillRenders(t *testing.T) {
	path := writeFile(t, t.TempDir(), "empty.bib", "")
	host := &fakeHost{templates: map[string]string{DefaultTemplate: listTemplate}}

	html, res, err := newTestBuilder(t, nil, host).Build(path, "")
	if err != nil {
		t.Fatalf("Build() error = %v", err)
	}
	if !res.OK() {
		t.Fatalf("Build() result error = %v", res.Err)
	}
	if len(res.Records) != 0 {
		t.Errorf("got %d records, want 0", len(res.Records))
	}
	if html != "count=0" {
		t.Errorf("Build() html = %q, want template run with empty list", html)
	}
	if host.lookups != 1 {
		t.Errorf("host lookups = %d, want 1", host.lookups)
	}
}

func TestBuild_MalformedFile(t *testing.T) {
	path := writeFile(t, t.TempDir(), "bad.bib", "@article{unterminated,\n  title = {X},\n")
	host := &fakeHost{templates: map[string]string{DefaultTemplate: listTemplate}}
	var logs bytes.Buffer

	html, res, err := newTestBuilder(t, &logs, host).Build(path, "")
	if err != nil {
		t.Fatalf("Build() error = %v, parse failures must not escape", err)
	}
	if html != "" {
		t.Errorf("Build() html = %q, want empty", html)
	}
	if len(res.Records) != 0 {
		t.Errorf("got %d records, want 0", len(res.Records))
	}
	if !errors.Is(res.Err, ErrParse) || !errors.Is(res.Err, bibtex.ErrParse) {
		t.Errorf("Result.Err = %v, want ErrParse", res.Err)
	}
	if host.lookups != 0 {
		t.Error("template resolved despite parse failure")
	}

	out := logs.String()
	if !strings.Contains(out, "level=WARN") || !strings.Contains(out, path) {
		t.Errorf("expected a warning naming %s, got logs:\n%s", path, out)
	}
}

func TestBuild_MissingFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "missing.bib")
	html, res, err := newTestBuilder(t, nil, nil).Build(path, "")
	if err != nil {
		t.Fatalf("Build() error = %v", err)
	}
	if html != "" || res.OK() {
		t.Errorf("Build() = %q, %v; want empty output and a parse failure", html, res.Err)
	}
}

func TestBuild_DuplicateKeysDoNotCrash(t *testing.T) {
	input := "@misc{dup, title={A}}\n@misc{dup, title={B}}\n"
	path := writeFile(t, t.TempDir(), "dup.bib", input)
	host := &fakeHost{templates: map[string]string{DefaultTemplate: listTemplate}}

	_, res, err := newTestBuilder(t, nil, host).Build(path, "")
	if err != nil {
		t.Fatalf("Build() error = %v", err)
	}
	if !errors.Is(res.Err, bibtex.ErrDuplicateKey) {
		t.Errorf("Result.Err = %v, want ErrDuplicateKey", res.Err)
	}
}

func TestBuild_ExplicitTemplateBypassesHost(t *testing.T) {
	dir := t.TempDir()
	path := writeFile(t, dir, "refs.bib", testBib)
	tmplDir := filepath.Join(dir, "templates")
	if err := os.Mkdir(tmplDir, 0755); err != nil {
		t.Fatal(err)
	}
	tmplPath := writeFile(t, tmplDir, "custom.html",
		`<ol>{{range .Publications}}<li>{{.Key}}{{with .Year}} ({{.}}){{end}}</li>{{end}}</ol>`)

	html, res, err := newTestBuilder(t, nil, nil).Build(path, tmplPath)
	if err != nil {
		t.Fatalf("Build() error = %v", err)
	}
	if !res.OK() {
		t.Fatalf("Build() result error = %v", res.Err)
	}
	want := "<ol><li>Razik2019 (2019)</li><li>Undated</li><li>Razik2021 (2021)</li></ol>"
	if string(html) != want {
		t.Errorf("Build() html = %q, want %q", html, want)
	}
}

func TestBuild_NoHostNoTemplate(t *testing.T) {
	path := writeFile(t, t.TempDir(), "refs.bib", testBib)

	_, res, err := newTestBuilder(t, nil, nil).Build(path, "")
	if !errors.Is(err, ErrTemplateUnavailable) {
		t.Fatalf("Build() error = %v, want ErrTemplateUnavailable", err)
	}
	if !res.OK() || len(res.Records) != 3 {
		t.Errorf("records should still be collected: %d, %v", len(res.Records), res.Err)
	}
}

func TestBuild_MissingExplicitTemplate(t *testing.T) {
	dir := t.TempDir()
	path := writeFile(t, dir, "refs.bib", testBib)

	_, _, err := newTestBuilder(t, nil, nil).Build(path, filepath.Join(dir, "nope.html"))
	if !errors.Is(err, ErrTemplateUnavailable) {
		t.Errorf("Build() error = %v, want ErrTemplateUnavailable", err)
	}
}

func TestBuild_HostWithoutPublicationsTemplate(t *testing.T) {
	path := writeFile(t, t.TempDir(), "refs.bib", testBib)
	host := &fakeHost{templates: map[string]string{}}

	_, _, err := newTestBuilder(t, nil, host).Build(path, "")
	if !errors.Is(err, ErrTemplateUnavailable) {
		t.Errorf("Build() error = %v, want ErrTemplateUnavailable", err)
	}
}

// reversingFormatter returns entries in reverse order to check that
// records follow the formatter, not the file.
type reversingFormatter struct{}

func (reversingFormatter) FormatEntries(entries []*bibtex.Entry) []citation.FormattedEntry {
	out := make([]citation.FormattedEntry, 0, len(entries))
	for i := len(entries) - 1; i >= 0; i-- {
		out = append(out, citation.FormattedEntry{Key: entries[i].Key})
	}
	return out
}

func TestCollect_FollowsFormatterOrder(t *testing.T) {
	path := writeFile(t, t.TempDir(), "refs.bib", testBib)
	b := NewBuilder(Options{Formatter: reversingFormatter{}, Logger: slog.New(slog.NewTextHandler(io.Discard, nil))})

	res := b.Collect(path)
	want := []string{"Razik2021", "Undated", "Razik2019"}
	if len(res.Records) != len(want) {
		t.Fatalf("got %d records, want %d", len(res.Records), len(want))
	}
	for i, r := range res.Records {
		if r.Key != want[i] {
			t.Errorf("record %d = %q, want %q", i, r.Key, want[i])
		}
	}
}

// strayFormatter invents a key the parser never produced.
type strayFormatter struct{}

func (strayFormatter) FormatEntries([]*bibtex.Entry) []citation.FormattedEntry {
	return []citation.FormattedEntry{{Key: "ghost"}}
}

func TestCollect_UnknownKey(t *testing.T) {
	path := writeFile(t, t.TempDir(), "refs.bib", testBib)
	b := NewBuilder(Options{Formatter: strayFormatter{}, Logger: slog.New(slog.NewTextHandler(io.Discard, nil))})

	res := b.Collect(path)
	if !errors.Is(res.Err, ErrUnknownKey) {
		t.Errorf("Collect() error = %v, want ErrUnknownKey", res.Err)
	}
	if len(res.Records) != 0 {
		t.Errorf("got %d records, want none on failure", len(res.Records))
	}
}

// failingParser stands in for a parser with its own error type.
type failingParser struct{ err error }

func (p failingParser) ParseFile(string) (*bibtex.Database, error) {
	return nil, p.err
}

func TestCollect_CustomParserError(t *testing.T) {
	cause := errors.New("boom")
	b := NewBuilder(Options{Parser: failingParser{cause}, Logger: slog.New(slog.NewTextHandler(io.Discard, nil))})

	res := b.Collect("whatever.bib")
	if !errors.Is(res.Err, ErrParse) || !errors.Is(res.Err, cause) {
		t.Errorf("Collect() error = %v, want ErrParse wrapping cause", res.Err)
	}
}

// failingWriter refuses to serialize.
type failingWriter struct{ err error }

func (w failingWriter) Write(io.Writer, *bibtex.Database) error {
	return w.err
}

func TestCollect_WriterError(t *testing.T) {
	cause := errors.New("disk full")
	path := writeFile(t, t.TempDir(), "refs.bib", testBib)
	b := NewBuilder(Options{Writer: failingWriter{cause}, Logger: slog.New(slog.NewTextHandler(io.Discard, nil))})

	res := b.Collect(path)
	if !errors.Is(res.Err, ErrSerialize) || !errors.Is(res.Err, cause) {
		t.Errorf("Collect() error = %v, want ErrSerialize wrapping cause", res.Err)
	}
	if errors.Is(res.Err, ErrParse) {
		t.Errorf("Collect() error = %v, serialization failure reported as a parse error", res.Err)
	}
	if len(res.Records) != 0 {
		t.Errorf("got %d records, want none on failure", len(res.Records))
	}
}
