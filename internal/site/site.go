// Package site is a small Markdown static-site generator. It is the host
// the publications directive registers into: pages are converted with
// goldmark and rendered into the theme's page layout.
package site

import (
	"bytes"
	"context"
	"fmt"
	"html/template"
	"io"
	"io/fs"
	"log/slog"
	"os"
	"path/filepath"
	"strings"

	chromahtml "github.com/alecthomas/chroma/v2/formatters/html"
	"github.com/yuin/goldmark"
	highlighting "github.com/yuin/goldmark-highlighting/v2"
	"github.com/yuin/goldmark/extension"
	"github.com/yuin/goldmark/parser"

	"github.com/matsen/bibpub/internal/config"
	"github.com/matsen/bibpub/internal/directive"
	"github.com/matsen/bibpub/internal/publications"
	"github.com/matsen/bibpub/internal/theme"
)

// StylesheetPath is where the highlight stylesheet is written, relative to
// the output directory.
const StylesheetPath = "static/chroma.css"

// Options configures a Generator.
type Options struct {
	Logger *slog.Logger // Default: slog.Default()
}

// Page is the value passed to the page layout template.
type Page struct {
	Title   string
	Root    string // Relative prefix from the page to the output root
	Source  string // Content path relative to the content directory
	Content template.HTML
}

// Stats summarizes a generation run.
type Stats struct {
	Pages  int
	Copied int
}

// Generator renders a site's content directory into its output directory.
type Generator struct {
	cfg     *config.Config
	env     *theme.Environment
	builder *publications.Builder
	md      goldmark.Markdown
	logger  *slog.Logger
}

// New loads the theme and wires the publications builder to it. The theme
// environment is available to the builder before any page is rendered.
func New(cfg *config.Config, opts Options) (*Generator, error) {
	logger := opts.Logger
	if logger == nil {
		logger = slog.Default()
	}

	env, err := theme.Load(cfg.ThemePath())
	if err != nil {
		return nil, err
	}

	builder := publications.NewBuilder(publications.Options{
		Host:   hostTemplates{env: env},
		Loader: themeLoader{},
		Strong: cfg.Strong,
		Logger: logger,
	})

	md := goldmark.New(
		goldmark.WithExtensions(
			extension.GFM,
			highlighting.NewHighlighting(
				highlighting.WithStyle(cfg.HighlightStyle),
				highlighting.WithFormatOptions(chromahtml.WithClasses(true)),
			),
			directive.New(builder,
				directive.WithBaseDir(cfg.Root),
				directive.WithLogger(logger),
			),
		),
		goldmark.WithParserOptions(
			parser.WithAutoHeadingID(),
		),
	)

	return &Generator{
		cfg:     cfg,
		env:     env,
		builder: builder,
		md:      md,
		logger:  logger,
	}, nil
}

// Builder returns the publications builder wired to the site theme.
func (g *Generator) Builder() *publications.Builder {
	return g.builder
}

// Generate renders every page under the content directory. Markdown files
// become HTML pages at the mirrored path; other files are copied as is.
// Pages are processed one at a time and ctx is checked between them.
func (g *Generator) Generate(ctx context.Context) (Stats, error) {
	var stats Stats
	contentDir := g.cfg.ContentPath()
	outputDir := g.cfg.OutputPath()

	err := filepath.WalkDir(contentDir, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if err := ctx.Err(); err != nil {
			return err
		}
		if d.IsDir() {
			if path != contentDir && (strings.HasPrefix(d.Name(), ".") || path == outputDir) {
				return filepath.SkipDir
			}
			return nil
		}

		rel, err := filepath.Rel(contentDir, path)
		if err != nil {
			return err
		}

		if filepath.Ext(path) != ".md" {
			if err := copyFile(path, filepath.Join(outputDir, rel)); err != nil {
				return fmt.Errorf("copying %s: %w", rel, err)
			}
			stats.Copied++
			return nil
		}

		out := filepath.Join(outputDir, strings.TrimSuffix(rel, ".md")+".html")
		if err := g.renderFile(path, rel, out); err != nil {
			return fmt.Errorf("rendering %s: %w", rel, err)
		}
		g.logger.Debug("rendered page", "source", rel, "output", out)
		stats.Pages++
		return nil
	})
	if err != nil {
		return stats, err
	}

	if err := g.writeStylesheet(outputDir); err != nil {
		return stats, err
	}

	g.logger.Info("site generated", "pages", stats.Pages, "copied", stats.Copied, "output", outputDir)
	return stats, nil
}

func (g *Generator) renderFile(path, rel, out string) error {
	src, err := os.ReadFile(path)
	if err != nil {
		return err
	}

	var buf bytes.Buffer
	if err := g.RenderPage(&buf, src, filepath.ToSlash(rel)); err != nil {
		return err
	}

	if err := os.MkdirAll(filepath.Dir(out), 0755); err != nil {
		return err
	}
	return os.WriteFile(out, buf.Bytes(), 0644)
}

// RenderPage converts one Markdown page and executes its layout. rel is the
// slash-separated path of the page inside the content directory.
func (g *Generator) RenderPage(w io.Writer, src []byte, rel string) error {
	fm, body, err := SplitFrontMatter(src)
	if err != nil {
		return err
	}

	var content bytes.Buffer
	if err := g.md.Convert(body, &content); err != nil {
		return err
	}

	layout := fm.Template
	if layout == "" {
		layout = theme.PageTemplate
	}
	tmpl, err := g.env.Lookup(layout)
	if err != nil {
		return err
	}

	title := fm.Title
	if title == "" {
		title = strings.TrimSuffix(pathBase(rel), ".md")
	}

	return tmpl.Execute(w, Page{
		Title:   title,
		Root:    rootPrefix(rel),
		Source:  rel,
		Content: template.HTML(content.String()),
	})
}

func (g *Generator) writeStylesheet(outputDir string) error {
	css, err := theme.HighlightCSS(g.cfg.HighlightStyle)
	if err != nil {
		return err
	}
	path := filepath.Join(outputDir, filepath.FromSlash(StylesheetPath))
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return fmt.Errorf("creating stylesheet directory: %w", err)
	}
	if err := os.WriteFile(path, []byte(css), 0644); err != nil {
		return fmt.Errorf("writing stylesheet: %w", err)
	}
	return nil
}

// rootPrefix returns "../" once per directory level of rel.
func rootPrefix(rel string) string {
	return strings.Repeat("../", strings.Count(rel, "/"))
}

func pathBase(rel string) string {
	if i := strings.LastIndex(rel, "/"); i >= 0 {
		return rel[i+1:]
	}
	return rel
}

func copyFile(src, dst string) error {
	in, err := os.Open(src)
	if err != nil {
		return err
	}
	defer in.Close()

	if err := os.MkdirAll(filepath.Dir(dst), 0755); err != nil {
		return err
	}
	out, err := os.Create(dst)
	if err != nil {
		return err
	}
	if _, err := io.Copy(out, in); err != nil {
		out.Close()
		return err
	}
	return out.Close()
}
