package site

import (
	"log/slog"

	"github.com/matsen/bibpub/internal/config"
	"github.com/matsen/bibpub/internal/publications"
	"github.com/matsen/bibpub/internal/theme"
)

// NewTemplateBuilder returns a builder with no host theme. It only renders
// explicit templates, so a broken theme directory does not affect it.
func NewTemplateBuilder(cfg *config.Config, logger *slog.Logger) *publications.Builder {
	return publications.NewBuilder(publications.Options{
		Loader: themeLoader{},
		Strong: cfg.Strong,
		Logger: logger,
	})
}

// hostTemplates exposes a theme environment as the publications host.
type hostTemplates struct {
	env *theme.Environment
}

func (h hostTemplates) Lookup(name string) (publications.TemplateRenderer, error) {
	t, err := h.env.Lookup(name)
	if err != nil {
		return nil, err
	}
	return t, nil
}

// themeLoader loads explicit templates with the theme's functions so they
// can use highlightBibtex like the built-in one.
type themeLoader struct{}

func (themeLoader) LoadFile(path string) (publications.TemplateRenderer, error) {
	t, err := theme.LoadFile(path)
	if err != nil {
		return nil, err
	}
	return t, nil
}
