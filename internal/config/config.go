// Package config handles site configuration.
package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"gopkg.in/yaml.v3"
)

// Config represents site configuration stored in bibpub.yml.
type Config struct {
	ContentDir     string  `yaml:"content_dir"`               // Markdown pages, relative to the site root
	OutputDir      string  `yaml:"output_dir"`                // Generated HTML, relative to the site root
	ThemeDir       string  `yaml:"theme_dir,omitempty"`       // Template overrides; empty uses the built-in theme
	Strong         string  `yaml:"strong,omitempty"`          // Author last name to emphasise in citations
	HighlightStyle string  `yaml:"highlight_style,omitempty"` // Chroma style for BibTeX and code blocks
	LinkRate       float64 `yaml:"link_rate,omitempty"`       // Remote link checks per second

	// Root is the directory holding bibpub.yml. It is not serialized.
	Root string `yaml:"-"`
}

const (
	ConfigFile = "bibpub.yml"
	EnvFile    = ".env"

	DefaultContentDir     = "content"
	DefaultOutputDir      = "output"
	DefaultHighlightStyle = "github"
	DefaultLinkRate       = 2.0
)

// ErrNotFound means no bibpub.yml was found above the starting directory.
var ErrNotFound = errors.New("not in a bibpub site (no bibpub.yml found)")

// Default returns the configuration used for keys bibpub.yml leaves out.
func Default() *Config {
	return &Config{
		ContentDir:     DefaultContentDir,
		OutputDir:      DefaultOutputDir,
		HighlightStyle: DefaultHighlightStyle,
		LinkRate:       DefaultLinkRate,
	}
}

// ConfigPath returns the path to bibpub.yml from a root path.
func ConfigPath(root string) string {
	return filepath.Join(root, ConfigFile)
}

// IsSite checks if the given path contains a bibpub.yml file.
func IsSite(root string) bool {
	info, err := os.Stat(ConfigPath(root))
	return err == nil && !info.IsDir()
}

// FindSite walks up from the given path to find a site root.
func FindSite(start string) (string, error) {
	abs, err := filepath.Abs(start)
	if err != nil {
		return "", fmt.Errorf("resolving path: %w", err)
	}

	for {
		if IsSite(abs) {
			return abs, nil
		}

		parent := filepath.Dir(abs)
		if parent == abs {
			return "", ErrNotFound
		}
		abs = parent
	}
}

// Load reads configuration from the site at the given root, then applies
// overrides from the site's .env file and the process environment.
func Load(root string) (*Config, error) {
	data, err := os.ReadFile(ConfigPath(root))
	if err != nil {
		return nil, fmt.Errorf("reading config: %w", err)
	}

	cfg := Default()
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("parsing config: %w", err)
	}
	cfg.Root = root

	if err := applyEnv(cfg, root); err != nil {
		return nil, err
	}

	return cfg, nil
}

// Save writes configuration to the site at the given root.
func (c *Config) Save(root string) error {
	data, err := yaml.Marshal(c)
	if err != nil {
		return fmt.Errorf("encoding config: %w", err)
	}

	if err := os.WriteFile(ConfigPath(root), data, 0644); err != nil {
		return fmt.Errorf("writing config: %w", err)
	}

	return nil
}

// Validate checks that configured directories are usable.
func (c *Config) Validate() error {
	if c.ContentDir == "" {
		return fmt.Errorf("content_dir must not be empty")
	}
	if c.OutputDir == "" {
		return fmt.Errorf("output_dir must not be empty")
	}
	if c.LinkRate <= 0 {
		return fmt.Errorf("link_rate must be positive, got %v", c.LinkRate)
	}
	if err := validateDir(c.ContentPath()); err != nil {
		return fmt.Errorf("content_dir: %w", err)
	}
	if c.ThemeDir != "" {
		if err := validateDir(c.ThemePath()); err != nil {
			return fmt.Errorf("theme_dir: %w", err)
		}
	}
	if filepath.Clean(c.ContentPath()) == filepath.Clean(c.OutputPath()) {
		return fmt.Errorf("output_dir must differ from content_dir")
	}
	return nil
}

// Resolve makes a path absolute relative to the site root, expanding ~.
func (c *Config) Resolve(path string) string {
	path = ExpandPath(path)
	if path == "" || filepath.IsAbs(path) {
		return path
	}
	return filepath.Join(c.Root, path)
}

// ContentPath returns the resolved content directory.
func (c *Config) ContentPath() string {
	return c.Resolve(c.ContentDir)
}

// OutputPath returns the resolved output directory.
func (c *Config) OutputPath() string {
	return c.Resolve(c.OutputDir)
}

// ThemePath returns the resolved theme directory, empty if none is set.
func (c *Config) ThemePath() string {
	return c.Resolve(c.ThemeDir)
}

func validateDir(path string) error {
	info, err := os.Stat(path)
	if err != nil {
		return fmt.Errorf("path does not exist: %s", path)
	}
	if !info.IsDir() {
		return fmt.Errorf("path is not a directory: %s", path)
	}
	return nil
}

// ExpandPath expands ~ to the user's home directory.
// Returns the original path unchanged if it doesn't start with ~.
func ExpandPath(path string) string {
	if len(path) == 0 || path[0] != '~' {
		return path
	}

	home, err := os.UserHomeDir()
	if err != nil {
		return path // Return original if we can't get home directory
	}

	return filepath.Join(home, path[1:])
}
