package main

import (
	"context"
	"log/slog"
	"os"
	"os/signal"

	"github.com/spf13/cobra"

	"github.com/matsen/bibpub/internal/site"
)

func init() {
	rootCmd.AddCommand(buildCmd)
}

var buildCmd = &cobra.Command{
	Use:   "build",
	Short: "Generate the site",
	Long: `Render every Markdown page in the content directory into the output
directory. Publication directives are expanded with the site theme.`,
	Args: cobra.NoArgs,
	RunE: runBuild,
}

// BuildResponse is the response for the build command.
type BuildResponse struct {
	Status string `json:"status"`
	Pages  int    `json:"pages"`
	Copied int    `json:"copied"`
	Output string `json:"output"`
}

func runBuild(cmd *cobra.Command, args []string) error {
	root := mustFindSite()
	cfg := mustLoadConfig(root)
	if err := cfg.Validate(); err != nil {
		exitWithError(ExitConfigError, "invalid config: %v", err)
	}

	g, err := site.New(cfg, site.Options{Logger: slog.Default()})
	if err != nil {
		exitWithError(ExitConfigError, "loading theme: %v", err)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()

	stats, err := g.Generate(ctx)
	if err != nil {
		exitWithError(exitCode(err), "building site: %v", err)
	}

	if humanOutput {
		outputHuman("Built %d pages (%d files copied) into %s\n", stats.Pages, stats.Copied, cfg.OutputPath())
		return nil
	}
	return outputJSON(BuildResponse{
		Status: "built",
		Pages:  stats.Pages,
		Copied: stats.Copied,
		Output: cfg.OutputPath(),
	})
}
