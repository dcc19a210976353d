package bibtex

import (
	"bytes"
	"fmt"
	"io"
	"os"
	"strings"
)

// monthMacros are the predefined @string macros of the standard styles.
var monthMacros = map[string]string{
	"jan": "January",
	"feb": "February",
	"mar": "March",
	"apr": "April",
	"may": "May",
	"jun": "June",
	"jul": "July",
	"aug": "August",
	"sep": "September",
	"oct": "October",
	"nov": "November",
	"dec": "December",
}

// Parser reads BibTeX files. The zero value is ready to use.
type Parser struct{}

// ParseFile parses the bibliography at path.
func (Parser) ParseFile(path string) (*Database, error) {
	return ParseFile(path)
}

// ParseFile parses the bibliography at path. A missing or unreadable file
// is reported as a *ParseError like malformed content.
func ParseFile(path string) (*Database, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, &ParseError{Path: path, Msg: "reading file", Err: err}
	}
	return parseBytes(data, path)
}

// Parse reads a bibliography from r. The name is used in error messages.
func Parse(r io.Reader, name string) (*Database, error) {
	data, err := io.ReadAll(r)
	if err != nil {
		return nil, &ParseError{Path: name, Msg: "reading input", Err: err}
	}
	return parseBytes(data, name)
}

func parseBytes(data []byte, name string) (*Database, error) {
	p := &parser{
		src:    data,
		name:   name,
		macros: make(map[string]string, len(monthMacros)),
		db:     NewDatabase(),
	}
	for k, v := range monthMacros {
		p.macros[k] = v
	}
	if err := p.run(); err != nil {
		return nil, err
	}
	return p.db, nil
}

type parser struct {
	src    []byte
	pos    int
	name   string
	macros map[string]string
	db     *Database
}

func (p *parser) run() error {
	for {
		// Anything between entries is a comment.
		at := bytes.IndexByte(p.src[p.pos:], '@')
		if at < 0 {
			return nil
		}
		p.pos += at + 1
		if err := p.parseCommand(); err != nil {
			return err
		}
	}
}

// parseCommand parses what follows an '@'.
func (p *parser) parseCommand() error {
	start := p.pos - 1
	p.skipSpace()
	typ := strings.ToLower(p.ident())
	if typ == "" {
		return p.errorf(start, "expected entry type after '@'")
	}
	p.skipSpace()

	if typ == "comment" {
		// @comment may be followed by free text; only a delimited body is skipped.
		if p.peek() == '{' || p.peek() == '(' {
			return p.skipDelimited(start)
		}
		return nil
	}

	closer, err := p.open(start)
	if err != nil {
		return err
	}

	switch typ {
	case "preamble":
		p.skipSpace()
		if _, err := p.value(); err != nil {
			return err
		}
		return p.close(closer, start, "@preamble")
	case "string":
		p.skipSpace()
		name := strings.ToLower(p.ident())
		if name == "" {
			return p.errorf(p.pos, "expected macro name in @string")
		}
		p.skipSpace()
		if !p.consume('=') {
			return p.errorf(p.pos, "expected '=' after macro name %q", name)
		}
		p.skipSpace()
		v, err := p.value()
		if err != nil {
			return err
		}
		p.macros[name] = v
		return p.close(closer, start, "@string")
	default:
		return p.parseEntry(typ, closer, start)
	}
}

func (p *parser) parseEntry(typ string, closer byte, start int) error {
	p.skipSpace()
	key := p.key(closer)
	if key == "" {
		return p.errorf(p.pos, "expected citation key in @%s entry", typ)
	}
	entry := NewEntry(typ, key)

	p.skipSpace()
	for {
		if p.eof() {
			return p.errorf(start, "unterminated entry %q", key)
		}
		if p.consume(closer) {
			break
		}
		if !p.consume(',') {
			return p.errorf(p.pos, "expected ',' or '%c' in entry %q", closer, key)
		}
		p.skipSpace()
		if p.eof() {
			return p.errorf(start, "unterminated entry %q", key)
		}
		if p.consume(closer) {
			break
		}
		name := p.ident()
		if name == "" {
			return p.errorf(p.pos, "expected field name in entry %q", key)
		}
		p.skipSpace()
		if !p.consume('=') {
			return p.errorf(p.pos, "expected '=' after field %q in entry %q", name, key)
		}
		p.skipSpace()
		v, err := p.value()
		if err != nil {
			return err
		}
		entry.Set(name, v)
		p.skipSpace()
	}

	if err := p.db.Add(entry); err != nil {
		return &ParseError{Path: p.name, Line: p.lineAt(start), Msg: "adding entry", Err: err}
	}
	return nil
}

// value parses a field value: pieces joined by '#', with whitespace collapsed.
func (p *parser) value() (string, error) {
	var b strings.Builder
	for {
		piece, err := p.piece()
		if err != nil {
			return "", err
		}
		b.WriteString(piece)
		p.skipSpace()
		if !p.consume('#') {
			break
		}
		p.skipSpace()
	}
	return strings.Join(strings.Fields(b.String()), " "), nil
}

func (p *parser) piece() (string, error) {
	start := p.pos
	switch c := p.peek(); {
	case c == '{':
		p.pos++
		s, ok := p.balanced('}')
		if !ok {
			return "", p.errorf(start, "unterminated braced value")
		}
		return s, nil
	case c == '"':
		p.pos++
		s, ok := p.balanced('"')
		if !ok {
			return "", p.errorf(start, "unterminated quoted value")
		}
		return s, nil
	case isDigit(c):
		for !p.eof() && isDigit(p.peek()) {
			p.pos++
		}
		return string(p.src[start:p.pos]), nil
	case isIdentStart(c):
		name := p.ident()
		v, ok := p.macros[strings.ToLower(name)]
		if !ok {
			return "", p.errorf(start, "undefined macro %q", name)
		}
		return v, nil
	case c == 0 && p.eof():
		return "", p.errorf(start, "unexpected end of input, expected value")
	default:
		return "", p.errorf(start, "unexpected %q, expected value", c)
	}
}

// balanced reads up to the terminator at brace depth zero and consumes it.
// Inner braces are kept in the result.
func (p *parser) balanced(term byte) (string, bool) {
	start := p.pos
	depth := 0
	for ; p.pos < len(p.src); p.pos++ {
		c := p.src[p.pos]
		switch {
		case c == '\\' && p.pos+1 < len(p.src):
			p.pos++ // escaped character never opens or closes a group
		case c == '{':
			depth++
		case c == '}' && depth > 0:
			depth--
		case c == term && depth == 0:
			s := string(p.src[start:p.pos])
			p.pos++
			return s, true
		case c == '}':
			// A closing brace at depth zero inside a quoted value is malformed.
			return "", false
		}
	}
	return "", false
}

func (p *parser) skipDelimited(start int) error {
	closer, err := p.open(start)
	if err != nil {
		return err
	}
	if _, ok := p.balanced(closer); !ok {
		return p.errorf(start, "unterminated @comment")
	}
	return nil
}

func (p *parser) open(start int) (byte, error) {
	switch {
	case p.consume('{'):
		return '}', nil
	case p.consume('('):
		return ')', nil
	}
	return 0, p.errorf(start, "expected '{' or '(' after entry type")
}

func (p *parser) close(closer byte, start int, what string) error {
	p.skipSpace()
	if !p.consume(closer) {
		return p.errorf(start, "unterminated %s", what)
	}
	return nil
}

// key reads a citation key: anything up to a comma, whitespace or the closer.
func (p *parser) key(closer byte) string {
	start := p.pos
	for !p.eof() {
		c := p.peek()
		if c == ',' || c == closer || c == '{' || c == '}' || isSpaceByte(c) {
			break
		}
		p.pos++
	}
	return string(p.src[start:p.pos])
}

func (p *parser) ident() string {
	start := p.pos
	if p.eof() || !isIdentStart(p.peek()) {
		return ""
	}
	for !p.eof() && isIdentChar(p.peek()) {
		p.pos++
	}
	return string(p.src[start:p.pos])
}

func (p *parser) skipSpace() {
	for !p.eof() && isSpaceByte(p.peek()) {
		p.pos++
	}
}

func (p *parser) consume(c byte) bool {
	if !p.eof() && p.src[p.pos] == c {
		p.pos++
		return true
	}
	return false
}

func (p *parser) peek() byte {
	if p.eof() {
		return 0
	}
	return p.src[p.pos]
}

func (p *parser) eof() bool {
	return p.pos >= len(p.src)
}

func (p *parser) lineAt(pos int) int {
	if pos > len(p.src) {
		pos = len(p.src)
	}
	return 1 + bytes.Count(p.src[:pos], []byte{'\n'})
}

func (p *parser) errorf(pos int, format string, args ...interface{}) error {
	return &ParseError{Path: p.name, Line: p.lineAt(pos), Msg: fmt.Sprintf(format, args...)}
}

func isSpaceByte(c byte) bool {
	return c == ' ' || c == '\t' || c == '\n' || c == '\r' || c == '\f' || c == '\v'
}

func isDigit(c byte) bool {
	return c >= '0' && c <= '9'
}

func isIdentStart(c byte) bool {
	return c >= 'a' && c <= 'z' || c >= 'A' && c <= 'Z' || c == '_'
}

func isIdentChar(c byte) bool {
	return isIdentStart(c) || isDigit(c) || strings.IndexByte("-:.+/'!?&*", c) >= 0
}
