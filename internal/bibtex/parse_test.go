package bibtex

import (
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"
)

const sampleBib = `% Publications of the group
@string{nips = "Advances in Neural Information Processing Systems"}

@inproceedings{Razik2019-ab,
  author    = {Razik, Joseph and Doe, Jane},
  title     = {A {BibTeX} Title with {Nested {Braces}}},
  booktitle = nips # " 32",
  year      = 2019,
  month     = dec,
  pdf       = {papers/razik2019.pdf},
  slides    = "https://example.org/slides.pdf",
}

@comment{ignored @article{notparsed, title={x}} }

@article(Smith2020,
  Author = "Smith, John",
  TITLE  = {Multi
            line   title},
  journal = {Nature}
)
`

func TestParse_Sample(t *testing.T) {
	db, err := Parse(strings.NewReader(sampleBib), "sample.bib")
	if err != nil {
		t.Fatalf("Parse() error = %v", err)
	}
	if db.Len() != 2 {
		t.Fatalf("Parse() got %d entries, want 2", db.Len())
	}

	entries := db.Entries()
	if entries[0].Key != "Razik2019-ab" || entries[1].Key != "Smith2020" {
		t.Errorf("entries out of source order: %q, %q", entries[0].Key, entries[1].Key)
	}

	e := entries[0]
	if e.Type != "inproceedings" {
		t.Errorf("Type = %q, want inproceedings", e.Type)
	}

	tests := []struct {
		field string
		want  string
	}{
		{"author", "Razik, Joseph and Doe, Jane"},
		{"title", "A {BibTeX} Title with {Nested {Braces}}"},
		{"booktitle", "Advances in Neural Information Processing Systems 32"},
		{"year", "2019"},
		{"month", "December"},
		{"pdf", "papers/razik2019.pdf"},
		{"slides", "https://example.org/slides.pdf"},
	}
	for _, tt := range tests {
		t.Run(tt.field, func(t *testing.T) {
			got, ok := e.Field(tt.field)
			if !ok {
				t.Fatalf("Field(%q) missing", tt.field)
			}
			if got != tt.want {
				t.Errorf("Field(%q) = %q, want %q", tt.field, got, tt.want)
			}
		})
	}

	if _, ok := e.Field("poster"); ok {
		t.Error("Field(poster) present, want absent")
	}

	s := entries[1]
	if got, _ := s.Field("author"); got != "Smith, John" {
		t.Errorf("uppercase field name not normalized: author = %q", got)
	}
	if got, _ := s.Field("title"); got != "Multi line title" {
		t.Errorf("whitespace not collapsed: title = %q", got)
	}
}

func TestParse_Empty(t *testing.T) {
	for _, input := range []string{"", "   \n", "% only a comment\n"} {
		db, err := Parse(strings.NewReader(input), "empty.bib")
		if err != nil {
			t.Fatalf("Parse(%q) error = %v", input, err)
		}
		if db.Len() != 0 {
			t.Errorf("Parse(%q) got %d entries, want 0", input, db.Len())
		}
	}
}

func TestParse_Errors(t *testing.T) {
	tests := []struct {
		name    string
		input   string
		wantMsg string
		line    int
	}{
		{"unterminated entry", "@article{key,\n  title = {X},\n", "unterminated entry", 1},
		{"unterminated value", "\n@article{key,\n  title = {X {Y},\n", "unterminated braced value", 3},
		{"unterminated quote", "@article{key, title = \"abc}", "unterminated quoted value", 1},
		{"missing key", "@article{,title={X}}", "expected citation key", 1},
		{"missing equals", "@article{key, title {X}}", "expected '='", 1},
		{"undefined macro", "@article{key, journal = jnl}", "undefined macro", 1},
		{"missing delimiter", "@article key", "expected '{' or '('", 1},
		{"garbage after value", "@article{key, title = {X} year = 1}", "expected ','", 1},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Parse(strings.NewReader(tt.input), "bad.bib")
			if err == nil {
				t.Fatal("Parse() expected error")
			}
			if !errors.Is(err, ErrParse) {
				t.Errorf("error %v does not match ErrParse", err)
			}
			var pe *ParseError
			if !errors.As(err, &pe) {
				t.Fatalf("error %T is not *ParseError", err)
			}
			if !strings.Contains(pe.Msg, tt.wantMsg) {
				t.Errorf("Msg = %q, want it to contain %q", pe.Msg, tt.wantMsg)
			}
			if pe.Line != tt.line {
				t.Errorf("Line = %d, want %d", pe.Line, tt.line)
			}
		})
	}
}

func TestParse_DuplicateKey(t *testing.T) {
	input := "@article{Same, title={A}}\n@book{same, title={B}}\n"
	_, err := Parse(strings.NewReader(input), "dup.bib")
	if err == nil {
		t.Fatal("Parse() expected error for repeated key")
	}
	if !errors.Is(err, ErrDuplicateKey) {
		t.Errorf("error %v does not match ErrDuplicateKey", err)
	}
	if !errors.Is(err, ErrParse) {
		t.Errorf("error %v does not match ErrParse", err)
	}
}

func TestParseFile_Missing(t *testing.T) {
	path := filepath.Join(t.TempDir(), "missing.bib")
	_, err := ParseFile(path)
	if !errors.Is(err, ErrParse) {
		t.Fatalf("ParseFile() error = %v, want ErrParse", err)
	}
	if !errors.Is(err, os.ErrNotExist) {
		t.Errorf("ParseFile() error = %v, want it to wrap os.ErrNotExist", err)
	}
	if !strings.Contains(err.Error(), path) {
		t.Errorf("error %q does not name the path", err)
	}
}

func TestParseFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "refs.bib")
	if err := os.WriteFile(path, []byte(sampleBib), 0644); err != nil {
		t.Fatalf("writing fixture: %v", err)
	}
	db, err := Parser{}.ParseFile(path)
	if err != nil {
		t.Fatalf("ParseFile() error = %v", err)
	}
	if _, ok := db.Entry("razik2019-AB"); !ok {
		t.Error("Entry() lookup should be case-insensitive")
	}
}
