package main

import (
	"os"

	"github.com/spf13/cobra"

	"github.com/matsen/bibpub/internal/index"
)

var (
	searchAuthor bool
	searchLimit  int
)

var searchCmd = &cobra.Command{
	Use:   "search <query>",
	Short: "Search a publications index",
	Long:  `Run a full-text query against an index written by 'bibpub index'.`,
	Args:  cobra.ExactArgs(1),
	RunE:  runSearch,
}

// SearchResponse is the response for the search command.
type SearchResponse struct {
	Query   string           `json:"query"`
	Count   int              `json:"count"`
	Results []index.Document `json:"results"`
}

func runSearch(cmd *cobra.Command, args []string) error {
	cfg := loadOptionalConfig()
	dbPath := indexPath(cfg)
	if _, err := os.Stat(dbPath); err != nil {
		exitWithError(ExitConfigError, "index not found at %s\n\nRun 'bibpub index <bib>' to create it.", dbPath)
	}

	docs, err := searchIndex(dbPath, args[0], searchAuthor, searchLimit)
	if err != nil {
		exitWithError(ExitError, "%v", err)
	}

	if humanOutput {
		for _, d := range docs {
			year := "n.d."
			if d.Year != nil {
				year = *d.Year
			}
			outputHuman("%s (%s) %s\n  %s\n", d.Key, year, d.Title, d.Authors)
		}
		outputHuman("%d results\n", len(docs))
		return nil
	}
	if docs == nil {
		docs = []index.Document{}
	}
	return outputJSON(SearchResponse{Query: args[0], Count: len(docs), Results: docs})
}

// searchIndex queries the index at dbPath. The database is closed before
// it returns.
func searchIndex(dbPath, query string, byAuthor bool, limit int) ([]index.Document, error) {
	idx, err := index.Open(dbPath)
	if err != nil {
		return nil, err
	}
	defer idx.Close()

	if byAuthor {
		return idx.SearchAuthor(query, limit)
	}
	return idx.Search(query, limit)
}
