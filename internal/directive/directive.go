// Package directive adds the publications block to goldmark Markdown:
//
//	.. publications:: path/to/refs.bib
//	   :template: path/to/template.html
//
// The path argument is required; the template option is not. The block
// renders to the HTML produced by a publications builder.
package directive

import (
	"bytes"
	"html/template"
	"log/slog"
	"path/filepath"
	"regexp"

	"github.com/yuin/goldmark"
	"github.com/yuin/goldmark/ast"
	"github.com/yuin/goldmark/parser"
	"github.com/yuin/goldmark/renderer"
	"github.com/yuin/goldmark/text"
	"github.com/yuin/goldmark/util"

	"github.com/matsen/bibpub/internal/publications"
)

// Name is the directive name as written in Markdown.
const Name = "publications"

var (
	openPattern   = regexp.MustCompile(`^\.\.\s+` + Name + `::\s*(\S*)\s*$`)
	optionPattern = regexp.MustCompile(`^\s+:([A-Za-z_-]+):\s*(.*?)\s*$`)
)

// KindPublications is the node kind of a publications block.
var KindPublications = ast.NewNodeKind("Publications")

// Node is a parsed publications directive.
type Node struct {
	ast.BaseBlock
	Path     string
	Template string
	// Invalid holds the reason the directive could not be parsed, if any.
	Invalid string
}

// Kind implements ast.Node.
func (n *Node) Kind() ast.NodeKind {
	return KindPublications
}

// IsRaw implements ast.Node; the block has no inline content.
func (n *Node) IsRaw() bool {
	return true
}

// Dump implements ast.Node.
func (n *Node) Dump(source []byte, level int) {
	ast.DumpHelper(n, source, level, map[string]string{
		"Path":     n.Path,
		"Template": n.Template,
	}, nil)
}

// Builder renders a bibliography file, optionally with an explicit template.
type Builder interface {
	Build(path, templatePath string) (template.HTML, publications.Result, error)
}

// Option configures the extension.
type Option func(*Extension)

// WithBaseDir resolves relative directive paths against dir.
func WithBaseDir(dir string) Option {
	return func(e *Extension) {
		e.baseDir = dir
	}
}

// WithLogger sets the logger for skipped directives.
func WithLogger(l *slog.Logger) Option {
	return func(e *Extension) {
		e.logger = l
	}
}

// Extension is a goldmark.Extender for the publications directive.
type Extension struct {
	builder Builder
	baseDir string
	logger  *slog.Logger
}

// New creates the extension around a builder.
func New(b Builder, opts ...Option) *Extension {
	e := &Extension{builder: b}
	for _, opt := range opts {
		opt(e)
	}
	if e.logger == nil {
		e.logger = slog.Default()
	}
	return e
}

// Extend implements goldmark.Extender.
func (e *Extension) Extend(m goldmark.Markdown) {
	m.Parser().AddOptions(parser.WithBlockParsers(
		util.Prioritized(blockParser{}, 90),
	))
	m.Renderer().AddOptions(renderer.WithNodeRenderers(
		util.Prioritized(&nodeRenderer{ext: e}, 500),
	))
}

// resolve makes p relative to the base directory.
func (e *Extension) resolve(p string) string {
	if p == "" || filepath.IsAbs(p) || e.baseDir == "" {
		return p
	}
	return filepath.Join(e.baseDir, p)
}

type blockParser struct{}

func (blockParser) Trigger() []byte {
	return []byte{'.'}
}

func (blockParser) Open(parent ast.Node, reader text.Reader, pc parser.Context) (ast.Node, parser.State) {
	line, segment := reader.PeekLine()
	m := openPattern.FindSubmatch(bytes.TrimRight(line, "\r\n"))
	if m == nil {
		return nil, parser.NoChildren
	}
	node := &Node{Path: string(m[1])}
	if node.Path == "" {
		node.Invalid = "missing bibliography path"
	}
	reader.Advance(segment.Len() - 1)
	return node, parser.NoChildren
}

func (blockParser) Continue(node ast.Node, reader text.Reader, pc parser.Context) parser.State {
	line, segment := reader.PeekLine()
	if util.IsBlank(line) {
		return parser.Close
	}
	m := optionPattern.FindSubmatch(bytes.TrimRight(line, "\r\n"))
	if m == nil {
		return parser.Close
	}

	n := node.(*Node)
	switch name, value := string(m[1]), string(m[2]); name {
	case "template":
		n.Template = value
	default:
		if n.Invalid == "" {
			n.Invalid = "unknown option :" + name + ":"
		}
	}
	reader.Advance(segment.Len() - 1)
	return parser.Continue | parser.NoChildren
}

func (blockParser) Close(node ast.Node, reader text.Reader, pc parser.Context) {}

func (blockParser) CanInterruptParagraph() bool {
	return true
}

func (blockParser) CanAcceptIndentedLine() bool {
	return false
}

type nodeRenderer struct {
	ext *Extension
}

func (r *nodeRenderer) RegisterFuncs(reg renderer.NodeRendererFuncRegisterer) {
	reg.Register(KindPublications, r.render)
}

// render writes the builder's output. Unreadable bibliographies and invalid
// directives render nothing; template failures abort the page.
func (r *nodeRenderer) render(w util.BufWriter, source []byte, node ast.Node, entering bool) (ast.WalkStatus, error) {
	if !entering {
		return ast.WalkContinue, nil
	}
	n := node.(*Node)
	if n.Invalid != "" {
		r.ext.logger.Warn("skipping publications directive", "reason", n.Invalid, "path", n.Path)
		return ast.WalkSkipChildren, nil
	}

	html, res, err := r.ext.builder.Build(r.ext.resolve(n.Path), r.ext.resolve(n.Template))
	if err != nil {
		return ast.WalkStop, err
	}
	if !res.OK() {
		return ast.WalkSkipChildren, nil
	}
	if _, err := w.WriteString(string(html)); err != nil {
		return ast.WalkStop, err
	}
	if len(html) > 0 && html[len(html)-1] != '\n' {
		_ = w.WriteByte('\n')
	}
	return ast.WalkSkipChildren, nil
}
