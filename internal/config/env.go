package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strconv"

	"github.com/joho/godotenv"
)

// Environment variables that override bibpub.yml.
const (
	EnvStrong         = "BIBPUB_STRONG"
	EnvOutputDir      = "BIBPUB_OUTPUT_DIR"
	EnvThemeDir       = "BIBPUB_THEME_DIR"
	EnvHighlightStyle = "BIBPUB_HIGHLIGHT_STYLE"
	EnvLinkRate       = "BIBPUB_LINK_RATE"
)

// applyEnv overrides config values from the environment. The site's .env
// file is consulted for variables the process environment does not set; it
// is read without modifying the process environment.
func applyEnv(cfg *Config, root string) error {
	dotenv, err := godotenv.Read(filepath.Join(root, EnvFile))
	if err != nil && !errors.Is(err, fs.ErrNotExist) {
		return fmt.Errorf("reading %s: %w", EnvFile, err)
	}

	lookup := func(key string) (string, bool) {
		if v, ok := os.LookupEnv(key); ok {
			return v, true
		}
		v, ok := dotenv[key]
		return v, ok
	}

	if v, ok := lookup(EnvStrong); ok {
		cfg.Strong = v
	}
	if v, ok := lookup(EnvOutputDir); ok && v != "" {
		cfg.OutputDir = v
	}
	if v, ok := lookup(EnvThemeDir); ok {
		cfg.ThemeDir = v
	}
	if v, ok := lookup(EnvHighlightStyle); ok && v != "" {
		cfg.HighlightStyle = v
	}
	if v, ok := lookup(EnvLinkRate); ok && v != "" {
		rate, err := strconv.ParseFloat(v, 64)
		if err != nil {
			return fmt.Errorf("invalid %s %q: %w", EnvLinkRate, v, err)
		}
		cfg.LinkRate = rate
	}
	return nil
}
