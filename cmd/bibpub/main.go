// Package main provides the bibpub CLI entry point.
package main

import (
	"fmt"
	"log/slog"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"

	"github.com/matsen/bibpub/internal/config"
	"github.com/matsen/bibpub/internal/publications"
	"github.com/matsen/bibpub/internal/site"
)

// Version is set at build time via ldflags
var Version = "dev"

var (
	// humanOutput controls whether to use human-readable output
	humanOutput bool
	// verbose enables debug logging on stderr
	verbose bool
	// siteDir is where the search for bibpub.yml starts
	siteDir string
)

func main() {
	if err := rootCmd.Execute(); err != nil {
		// Print the error since we have SilenceErrors: true
		fmt.Fprintf(os.Stderr, "Error: %s\n", err)
		os.Exit(ExitError)
	}
}

var rootCmd = &cobra.Command{
	Use:   "bibpub",
	Short: "Publication lists from BibTeX for static sites",
	Long: `bibpub renders BibTeX bibliographies into HTML publication lists.

Pages in a site's content directory embed a list with the directive

  .. publications:: refs.bib
     :template: templates/custom.html

and 'bibpub build' renders the whole site. Single bibliographies can be
rendered, inspected, link-checked or indexed for search directly.
Commands that report data output JSON by default.`,
	SilenceUsage:  true,
	SilenceErrors: true,
	PersistentPreRun: func(cmd *cobra.Command, args []string) {
		setupLogger()
	},
}

func init() {
	rootCmd.PersistentFlags().BoolVar(&humanOutput, "human", false, "Use human-readable output instead of JSON")
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "Enable debug logging")
	rootCmd.PersistentFlags().StringVar(&siteDir, "site", "", "Site directory (default: search upward from the current directory)")
	rootCmd.Version = Version
}

// setupLogger installs a text handler on stderr as the default logger.
func setupLogger() {
	level := slog.LevelInfo
	if verbose {
		level = slog.LevelDebug
	}
	slog.SetDefault(slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: level})))
}

// startingDirectory returns the --site flag or the working directory.
func startingDirectory() string {
	if siteDir != "" {
		return siteDir
	}
	cwd, err := os.Getwd()
	if err != nil {
		exitWithError(ExitError, "getting current directory: %v", err)
	}
	return cwd
}

// mustFindSite finds the site root, exits on error.
func mustFindSite() string {
	root, err := config.FindSite(startingDirectory())
	if err != nil {
		exitWithError(ExitConfigError, "%v\n\nRun 'bibpub init' to create a site.", err)
	}
	return root
}

// mustLoadConfig loads configuration, exits on error.
func mustLoadConfig(root string) *config.Config {
	cfg, err := config.Load(root)
	if err != nil {
		exitWithError(ExitConfigError, "loading config: %v", err)
	}
	return cfg
}

// loadOptionalConfig loads the enclosing site's configuration when there is
// one, so single-file commands pick up its theme and strong author.
// Outside a site the defaults apply, rooted at the starting directory.
func loadOptionalConfig() *config.Config {
	start := startingDirectory()
	root, err := config.FindSite(start)
	if err != nil {
		cfg := config.Default()
		abs, absErr := filepath.Abs(start)
		if absErr != nil {
			exitWithError(ExitError, "resolving path: %v", absErr)
		}
		cfg.Root = abs
		return cfg
	}
	return mustLoadConfig(root)
}

// mustNewBuilder returns a publications builder wired to the site theme.
func mustNewBuilder(cfg *config.Config) *publications.Builder {
	g, err := site.New(cfg, site.Options{Logger: slog.Default()})
	if err != nil {
		exitWithError(ExitConfigError, "loading theme: %v", err)
	}
	return g.Builder()
}
