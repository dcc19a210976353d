package main

import (
	"fmt"
	"log/slog"

	"github.com/spf13/cobra"

	"github.com/matsen/bibpub/internal/publications"
	"github.com/matsen/bibpub/internal/site"
)

var renderTemplate string

func init() {
	renderCmd.Flags().StringVarP(&renderTemplate, "template", "t", "", "Template file (default: the theme's publications template)")
	rootCmd.AddCommand(renderCmd)
}

var renderCmd = &cobra.Command{
	Use:   "render <bib>",
	Short: "Render a bibliography to an HTML fragment",
	Long: `Render a BibTeX file through the publications template and print the
HTML fragment to stdout. Inside a site the site theme is used; with
--template the theme is not loaded at all.`,
	Args: cobra.ExactArgs(1),
	RunE: runRender,
}

func runRender(cmd *cobra.Command, args []string) error {
	cfg := loadOptionalConfig()

	var builder *publications.Builder
	if renderTemplate != "" {
		builder = site.NewTemplateBuilder(cfg, slog.Default())
	} else {
		builder = mustNewBuilder(cfg)
	}

	html, res, err := builder.Build(args[0], renderTemplate)
	if err != nil {
		exitWithError(exitCode(err), "%v", err)
	}
	if !res.OK() {
		exitWithError(exitCode(res.Err), "%v", res.Err)
	}

	_, err = fmt.Fprintln(cmd.OutOrStdout(), html)
	return err
}
