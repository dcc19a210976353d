package bibtex

import (
	"errors"
	"fmt"
)

// Sentinel errors for bibliography operations.
var (
	ErrParse        = errors.New("bibtex parse error")
	ErrDuplicateKey = errors.New("repeated entry key")
	ErrUnbalanced   = errors.New("unbalanced braces in field value")
)

// ParseError describes why a bibliography file could not be read.
// It matches ErrParse with errors.Is.
type ParseError struct {
	Path string // File name, or the name given to Parse
	Line int    // 1-based line, 0 when not tied to a position
	Msg  string
	Err  error // Underlying cause, if any
}

func (e *ParseError) Error() string {
	loc := e.Path
	if e.Line > 0 {
		loc = fmt.Sprintf("%s:%d", e.Path, e.Line)
	}
	if e.Err != nil {
		return fmt.Sprintf("%s: %s: %v", loc, e.Msg, e.Err)
	}
	return fmt.Sprintf("%s: %s", loc, e.Msg)
}

func (e *ParseError) Unwrap() []error {
	if e.Err != nil {
		return []error{ErrParse, e.Err}
	}
	return []error{ErrParse}
}
