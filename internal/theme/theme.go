// Package theme provides the site's HTML templates: an embedded default
// theme that a site directory can override template by template.
package theme

import (
	"embed"
	"errors"
	"fmt"
	"html/template"
	"os"
	"path/filepath"
	"sort"
	"strings"
)

//go:embed templates/*.html
var defaultTemplates embed.FS

// ErrTemplateNotFound is returned by Lookup for unknown names.
var ErrTemplateNotFound = errors.New("template not found")

// Template names used by the site generator.
const (
	PageTemplate         = "page"
	PublicationsTemplate = "publications"
)

// Environment is a parsed set of theme templates.
type Environment struct {
	set *template.Template
	dir string
}

// Load parses the embedded default theme, then overlays every *.html file
// in dir. Files with the same name replace the defaults. An empty dir
// loads only the defaults.
func Load(dir string) (*Environment, error) {
	set, err := template.New("theme").Funcs(Funcs()).ParseFS(defaultTemplates, "templates/*.html")
	if err != nil {
		return nil, fmt.Errorf("parsing default theme: %w", err)
	}

	if dir != "" {
		info, err := os.Stat(dir)
		if err != nil {
			return nil, fmt.Errorf("theme directory: %w", err)
		}
		if !info.IsDir() {
			return nil, fmt.Errorf("theme directory: %s is not a directory", dir)
		}
		matches, err := filepath.Glob(filepath.Join(dir, "*.html"))
		if err != nil {
			return nil, fmt.Errorf("listing theme templates: %w", err)
		}
		if len(matches) > 0 {
			if set, err = set.ParseFiles(matches...); err != nil {
				return nil, fmt.Errorf("parsing theme templates: %w", err)
			}
		}
	}

	return &Environment{set: set, dir: dir}, nil
}

// Lookup returns the template called name or name.html.
func (e *Environment) Lookup(name string) (*template.Template, error) {
	for _, candidate := range []string{name, name + ".html"} {
		if t := e.set.Lookup(candidate); t != nil && t.Tree != nil {
			return t, nil
		}
	}
	return nil, fmt.Errorf("%w: %s", ErrTemplateNotFound, name)
}

// Names lists the templates of the environment.
func (e *Environment) Names() []string {
	var names []string
	for _, t := range e.set.Templates() {
		if t.Tree == nil || t.Name() == "theme" {
			continue
		}
		names = append(names, strings.TrimSuffix(t.Name(), ".html"))
	}
	sort.Strings(names)
	return names
}

// Dir returns the overlay directory, empty when only defaults are loaded.
func (e *Environment) Dir() string {
	return e.dir
}

// LoadFile parses a single template file with the theme's functions. The
// path is split into a directory and a file name, and the file is read
// from that directory.
func LoadFile(path string) (*template.Template, error) {
	dir, name := filepath.Split(path)
	if dir == "" {
		dir = "."
	}
	t, err := template.New(name).Funcs(Funcs()).ParseFS(os.DirFS(dir), name)
	if err != nil {
		return nil, fmt.Errorf("loading template %s: %w", path, err)
	}
	return t, nil
}
