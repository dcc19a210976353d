package main

import (
	"context"
	"log/slog"
	"os"
	"os/signal"
	"path/filepath"

	"github.com/spf13/cobra"

	"github.com/matsen/bibpub/internal/bibtex"
	"github.com/matsen/bibpub/internal/config"
	"github.com/matsen/bibpub/internal/linkcheck"
)

var checkBase string

func init() {
	checkCmd.Flags().StringVar(&checkBase, "base", "", "Directory local links resolve against (default: the bibliography's directory)")
	rootCmd.AddCommand(checkCmd)
}

var checkCmd = &cobra.Command{
	Use:   "check <bib>",
	Short: "Check pdf, slides and poster links",
	Long: `Verify the pdf, slides and poster links of every entry. Remote links
get a rate-limited HEAD request; local files must exist, and local PDFs
must open. Links starting with "/" resolve against the site's content
directory, or against --base outside a site. Exits with code 4 when any link is broken.`,
	Args: cobra.ExactArgs(1),
	RunE: runCheck,
}

// CheckResponse is the response for the check command.
type CheckResponse struct {
	Status   string              `json:"status"`
	Checked  int                 `json:"checked"`
	Broken   int                 `json:"broken"`
	Findings []linkcheck.Finding `json:"findings"`
}

// siteRoot is where links starting with "/" resolve: the content directory
// inside a site, the base directory elsewhere.
func siteRoot(cfg *config.Config, base string) string {
	if config.IsSite(cfg.Root) {
		return cfg.ContentPath()
	}
	return base
}

func runCheck(cmd *cobra.Command, args []string) error {
	cfg := loadOptionalConfig()
	path := args[0]

	db, err := bibtex.ParseFile(path)
	if err != nil {
		exitWithError(ExitDataError, "%v", err)
	}

	base := checkBase
	if base == "" {
		base = filepath.Dir(path)
	}

	checker := linkcheck.NewChecker(
		linkcheck.WithRate(cfg.LinkRate),
		linkcheck.WithBaseDir(base),
		linkcheck.WithSiteRoot(siteRoot(cfg, base)),
		linkcheck.WithLogger(slog.Default()),
	)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()

	findings, err := checker.Check(ctx, linkcheck.Links(db.Entries()))
	if err != nil {
		exitWithError(ExitError, "checking links: %v", err)
	}

	broken := linkcheck.Broken(findings)
	resp := CheckResponse{Status: "ok", Checked: len(findings), Broken: broken, Findings: findings}
	if broken > 0 {
		resp.Status = "broken"
	}

	if humanOutput {
		for _, f := range findings {
			if f.Status == linkcheck.StatusOK {
				continue
			}
			outputHuman("%-8s %s %s: %s (%s)\n", f.Status, f.Key, f.Field, f.Target, f.Detail)
		}
		outputHuman("%d links checked, %d broken\n", len(findings), broken)
	} else if err := outputJSON(resp); err != nil {
		return err
	}

	if broken > 0 {
		os.Exit(ExitBrokenLinks)
	}
	return nil
}
