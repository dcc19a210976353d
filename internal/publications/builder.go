package publications

import (
	"bytes"
	"fmt"
	"html/template"
	"log/slog"
	"os"
	"path/filepath"
	"strings"

	"github.com/matsen/bibpub/internal/bibtex"
	"github.com/matsen/bibpub/internal/citation"
)

// Options configures a Builder. Zero fields take defaults.
type Options struct {
	Parser    BibliographyParser // Default: bibtex.Parser
	Formatter CitationFormatter  // Default: citation.Style with Strong
	Writer    BibliographyWriter // Default: bibtex.Writer
	Host      TemplateSource     // Host theme; nil means only explicit templates work
	Loader    TemplateLoader     // Default: html/template without extra funcs
	Strong    string             // Strong author for the default formatter
	Logger    *slog.Logger       // Default: slog.Default()
}

// Builder produces publication lists. It holds no per-render state.
type Builder struct {
	parser    BibliographyParser
	formatter CitationFormatter
	writer    BibliographyWriter
	host      TemplateSource
	loader    TemplateLoader
	logger    *slog.Logger
}

// NewBuilder creates a Builder from opts.
func NewBuilder(opts Options) *Builder {
	b := &Builder{
		parser:    opts.Parser,
		formatter: opts.Formatter,
		writer:    opts.Writer,
		host:      opts.Host,
		loader:    opts.Loader,
		logger:    opts.Logger,
	}
	if b.parser == nil {
		b.parser = bibtex.Parser{}
	}
	if b.formatter == nil {
		b.formatter = citation.Style{Strong: opts.Strong}
	}
	if b.writer == nil {
		b.writer = bibtex.Writer{}
	}
	if b.loader == nil {
		b.loader = fileLoader{}
	}
	if b.logger == nil {
		b.logger = slog.Default()
	}
	return b
}

// Collect parses path and builds one record per entry, in formatter order.
// A parse failure is logged and reported in Result.Err; it never panics.
func (b *Builder) Collect(path string) Result {
	res := Result{Path: path}

	db, err := b.parser.ParseFile(path)
	if err != nil {
		b.logger.Warn("failed to parse bibliography", "path", path, "error", err)
		res.Err = fmt.Errorf("%w: %w", ErrParse, err)
		return res
	}

	formatted := b.formatter.FormatEntries(db.Entries())
	records := make([]Record, 0, len(formatted))
	for _, fe := range formatted {
		entry, ok := db.Entry(fe.Key)
		if !ok {
			b.logger.Error("formatter returned unknown key", "path", path, "key", fe.Key)
			res.Err = fmt.Errorf("%w: %q in %s", ErrUnknownKey, fe.Key, path)
			return res
		}

		raw, err := b.raw(entry)
		if err != nil {
			b.logger.Warn("failed to serialize entry", "path", path, "key", entry.Key, "error", err)
			res.Err = fmt.Errorf("%w: %s: %w", ErrSerialize, entry.Key, err)
			return res
		}

		records = append(records, Record{
			Key:    entry.Key,
			Year:   optional(entry, "year"),
			Text:   template.HTML(fe.Text.Render(citation.HTMLBackend{})),
			Raw:    raw,
			PDF:    optional(entry, "pdf"),
			Slides: optional(entry, "slides"),
			Poster: optional(entry, "poster"),
		})
	}

	res.Records = records
	b.logger.Debug("collected publications", "path", path, "count", len(records))
	return res
}

// Build collects records from path and renders them. templatePath selects
// an explicit template file; when empty the host's "publications" template
// is used. A parse failure yields empty HTML with the failure in Result and
// a nil error. Template resolution or execution failures are returned as
// errors.
func (b *Builder) Build(path, templatePath string) (template.HTML, Result, error) {
	res := b.Collect(path)
	if !res.OK() {
		return "", res, nil
	}

	tmpl, err := b.resolve(templatePath)
	if err != nil {
		return "", res, err
	}

	var buf bytes.Buffer
	data := PageData{Source: path, Publications: res.Records}
	if err := tmpl.Execute(&buf, data); err != nil {
		return "", res, fmt.Errorf("rendering publications template: %w", err)
	}
	return template.HTML(buf.String()), res, nil
}

// resolve picks the explicit template when given, otherwise the host's.
func (b *Builder) resolve(templatePath string) (TemplateRenderer, error) {
	if templatePath != "" {
		t, err := b.loader.LoadFile(templatePath)
		if err != nil {
			return nil, fmt.Errorf("%w: loading %s: %w", ErrTemplateUnavailable, templatePath, err)
		}
		return t, nil
	}
	if b.host == nil {
		return nil, fmt.Errorf("%w: no host template environment", ErrTemplateUnavailable)
	}
	t, err := b.host.Lookup(DefaultTemplate)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrTemplateUnavailable, err)
	}
	return t, nil
}

// raw serializes a single entry. Link fields stay in the output: entries
// have no way to drop a field, and the raw block shows the source as is.
func (b *Builder) raw(entry *bibtex.Entry) (string, error) {
	single := bibtex.NewDatabase()
	if err := single.Add(entry); err != nil {
		return "", err
	}
	var sb strings.Builder
	if err := b.writer.Write(&sb, single); err != nil {
		return "", err
	}
	return sb.String(), nil
}

func optional(e *bibtex.Entry, field string) *string {
	v, ok := e.Field(field)
	if !ok {
		return nil
	}
	return &v
}

// fileLoader loads a template by splitting its path into a directory and a
// file name and parsing the file from that directory.
type fileLoader struct{}

func (fileLoader) LoadFile(path string) (TemplateRenderer, error) {
	dir, name := filepath.Split(path)
	if dir == "" {
		dir = "."
	}
	t, err := template.New(name).ParseFS(os.DirFS(dir), name)
	if err != nil {
		return nil, err
	}
	return t, nil
}
