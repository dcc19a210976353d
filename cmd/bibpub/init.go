package main

import (
	"os"
	"path/filepath"

	"github.com/spf13/cobra"

	"github.com/matsen/bibpub/internal/config"
)

func init() {
	rootCmd.AddCommand(initCmd)
}

var initCmd = &cobra.Command{
	Use:   "init [dir]",
	Short: "Create a new site",
	Long:  `Create bibpub.yml with default settings and an empty content directory.`,
	Args:  cobra.MaximumNArgs(1),
	RunE:  runInit,
}

func runInit(cmd *cobra.Command, args []string) error {
	dir := "."
	if len(args) == 1 {
		dir = args[0]
	}
	root, err := filepath.Abs(dir)
	if err != nil {
		exitWithError(ExitError, "resolving path: %v", err)
	}

	if config.IsSite(root) {
		exitWithError(ExitConfigError, "site already initialized at %s", root)
	}

	cfg := config.Default()
	cfg.Root = root
	if err := os.MkdirAll(cfg.ContentPath(), 0755); err != nil {
		exitWithError(ExitError, "creating content directory: %v", err)
	}
	if err := cfg.Save(root); err != nil {
		exitWithError(ExitError, "%v", err)
	}

	if humanOutput {
		outputHuman("Initialized site in %s\n", root)
		return nil
	}
	return outputJSON(StatusResponse{Status: "initialized", Path: root})
}
