package theme

import (
	"bytes"
	"fmt"
	"html/template"
	"strings"

	"github.com/alecthomas/chroma/v2"
	chromahtml "github.com/alecthomas/chroma/v2/formatters/html"
	"github.com/alecthomas/chroma/v2/lexers"
	"github.com/alecthomas/chroma/v2/styles"
)

// DefaultHighlightStyle is the chroma style used for the generated CSS.
const DefaultHighlightStyle = "github"

// Funcs returns the functions available to theme templates.
func Funcs() template.FuncMap {
	return template.FuncMap{
		"highlightBibtex": HighlightBibTeX,
		"hasPrefix":       strings.HasPrefix,
		"lower":           strings.ToLower,
	}
}

// formatter emits CSS classes so one stylesheet covers every page.
var formatter = chromahtml.New(chromahtml.WithClasses(true))

// HighlightBibTeX renders BibTeX source as highlighted HTML.
func HighlightBibTeX(source string) (template.HTML, error) {
	lexer := lexers.Get("bibtex")
	if lexer == nil {
		lexer = lexers.Fallback
	}
	lexer = chroma.Coalesce(lexer)

	iterator, err := lexer.Tokenise(nil, source)
	if err != nil {
		return "", fmt.Errorf("tokenising bibtex: %w", err)
	}

	var buf bytes.Buffer
	if err := formatter.Format(&buf, styles.Fallback, iterator); err != nil {
		return "", fmt.Errorf("highlighting bibtex: %w", err)
	}
	return template.HTML(buf.String()), nil
}

// HighlightCSS returns the stylesheet for the named chroma style, falling
// back to DefaultHighlightStyle for unknown names.
func HighlightCSS(name string) (string, error) {
	style := styles.Get(name)
	if style == nil || style == styles.Fallback {
		style = styles.Get(DefaultHighlightStyle)
	}
	var buf bytes.Buffer
	if err := formatter.WriteCSS(&buf, style); err != nil {
		return "", fmt.Errorf("writing highlight css: %w", err)
	}
	return buf.String(), nil
}
