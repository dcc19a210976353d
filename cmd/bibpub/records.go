package main

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/matsen/bibpub/internal/publications"
)

func init() {
	rootCmd.AddCommand(recordsCmd)
}

var recordsCmd = &cobra.Command{
	Use:   "records <bib>",
	Short: "List the publication records of a bibliography",
	Long: `Parse a BibTeX file and print the records handed to templates: key,
year, citation HTML, raw BibTeX and the pdf, slides and poster links.`,
	Args: cobra.ExactArgs(1),
	RunE: runRecords,
}

// RecordsResponse is the response for the records command.
type RecordsResponse struct {
	Source  string                `json:"source"`
	Count   int                   `json:"count"`
	Records []publications.Record `json:"records"`
}

func runRecords(cmd *cobra.Command, args []string) error {
	cfg := loadOptionalConfig()
	builder := mustNewBuilder(cfg)

	res := builder.Collect(args[0])
	if !res.OK() {
		exitWithError(exitCode(res.Err), "%v", res.Err)
	}

	if humanOutput {
		for _, r := range res.Records {
			outputHuman("%s", formatRecordHuman(r))
		}
		outputHuman("%d records\n", len(res.Records))
		return nil
	}

	records := res.Records
	if records == nil {
		records = []publications.Record{}
	}
	return outputJSON(RecordsResponse{Source: args[0], Count: len(records), Records: records})
}

// formatRecordHuman renders one record as a short block of text.
func formatRecordHuman(r publications.Record) string {
	var b strings.Builder
	year := "n.d."
	if r.Year != nil {
		year = *r.Year
	}
	fmt.Fprintf(&b, "%s (%s)\n", r.Key, year)
	for _, link := range []struct {
		name  string
		value *string
	}{
		{"pdf", r.PDF},
		{"slides", r.Slides},
		{"poster", r.Poster},
	} {
		if link.value != nil {
			fmt.Fprintf(&b, "  %-7s %s\n", link.name+":", *link.value)
		}
	}
	return b.String()
}
