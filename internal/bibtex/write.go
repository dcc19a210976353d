package bibtex

import (
	"fmt"
	"io"
	"strings"
)

// DefaultIndent is the field indentation used by Format.
const DefaultIndent = "    "

// Writer serializes databases back to BibTeX source.
type Writer struct {
	Indent string // Field indentation; DefaultIndent when empty
}

// Write serializes every entry of db to w, separated by blank lines.
// Values are always written in braces so re-parsing yields the same text.
func (wr Writer) Write(w io.Writer, db *Database) error {
	for i, e := range db.Entries() {
		if i > 0 {
			if _, err := io.WriteString(w, "\n"); err != nil {
				return err
			}
		}
		s, err := wr.entry(e)
		if err != nil {
			return err
		}
		if _, err := io.WriteString(w, s); err != nil {
			return err
		}
	}
	return nil
}

// Format serializes db with the default writer.
func Format(db *Database) (string, error) {
	var b strings.Builder
	if err := (Writer{}).Write(&b, db); err != nil {
		return "", err
	}
	return b.String(), nil
}

// FormatEntry serializes a single entry with the default writer.
func FormatEntry(e *Entry) (string, error) {
	return Writer{}.entry(e)
}

func (wr Writer) entry(e *Entry) (string, error) {
	indent := wr.Indent
	if indent == "" {
		indent = DefaultIndent
	}

	var b strings.Builder
	b.WriteString(fmt.Sprintf("@%s{%s,\n", e.Type, e.Key))
	fields := e.Fields()
	for i, f := range fields {
		if !balancedBraces(f.Value) {
			return "", fmt.Errorf("%w: %s.%s", ErrUnbalanced, e.Key, f.Name)
		}
		b.WriteString(fmt.Sprintf("%s%s = {%s}", indent, f.Name, f.Value))
		if i < len(fields)-1 {
			b.WriteString(",")
		}
		b.WriteString("\n")
	}
	b.WriteString("}\n")
	return b.String(), nil
}

// balancedBraces applies the parser's brace rules: backslash-escaped braces
// do not count, and depth never drops below zero.
func balancedBraces(s string) bool {
	depth := 0
	for i := 0; i < len(s); i++ {
		switch s[i] {
		case '\\':
			if i+1 >= len(s) {
				return false
			}
			i++
		case '{':
			depth++
		case '}':
			depth--
			if depth < 0 {
				return false
			}
		}
	}
	return depth == 0
}
