package main

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"

	"github.com/matsen/bibpub/internal/bibtex"
	"github.com/matsen/bibpub/internal/config"
	"github.com/matsen/bibpub/internal/index"
)

// DefaultIndexFile is the index file name inside the output directory.
const DefaultIndexFile = "publications.db"

var (
	indexDB    string
	indexJSONL string
)

func init() {
	indexCmd.Flags().StringVar(&indexDB, "db", "", "Index database path (default: publications.db in the output directory)")
	indexCmd.Flags().StringVar(&indexJSONL, "jsonl", "", "Also write the documents as JSONL to this path")
	searchCmd.Flags().StringVar(&indexDB, "db", "", "Index database path (default: publications.db in the output directory)")
	searchCmd.Flags().BoolVar(&searchAuthor, "author", false, "Match author names by prefix")
	searchCmd.Flags().IntVar(&searchLimit, "limit", index.DefaultLimit, "Maximum results")
	rootCmd.AddCommand(indexCmd)
	rootCmd.AddCommand(searchCmd)
}

var indexCmd = &cobra.Command{
	Use:   "index <bib>",
	Short: "Write a full-text search index of a bibliography",
	Long: `Write the records of a BibTeX file to a SQLite database with a
full-text index over titles, authors, venues and years. The database is
rewritten on every run.`,
	Args: cobra.ExactArgs(1),
	RunE: runIndex,
}

// IndexResponse is the response for the index command.
type IndexResponse struct {
	Status string `json:"status"`
	Count  int    `json:"count"`
	Path   string `json:"path"`
	JSONL  string `json:"jsonl,omitempty"`
}

// indexPath resolves --db, defaulting into the site output directory.
func indexPath(cfg *config.Config) string {
	if indexDB != "" {
		return indexDB
	}
	if config.IsSite(cfg.Root) {
		return filepath.Join(cfg.OutputPath(), DefaultIndexFile)
	}
	return DefaultIndexFile
}

func runIndex(cmd *cobra.Command, args []string) error {
	cfg := loadOptionalConfig()
	path := args[0]

	db, err := bibtex.ParseFile(path)
	if err != nil {
		exitWithError(ExitDataError, "%v", err)
	}

	res := mustNewBuilder(cfg).Collect(path)
	if !res.OK() {
		exitWithError(exitCode(res.Err), "%v", res.Err)
	}

	docs, err := index.Documents(db, res.Records)
	if err != nil {
		exitWithError(exitCode(err), "%v", err)
	}

	dbPath := indexPath(cfg)
	if err := os.MkdirAll(filepath.Dir(dbPath), 0755); err != nil {
		exitWithError(ExitError, "creating index directory: %v", err)
	}
	if err := writeIndex(dbPath, docs); err != nil {
		exitWithError(ExitError, "writing index: %v", err)
	}

	if indexJSONL != "" {
		if err := index.WriteJSONL(indexJSONL, docs); err != nil {
			exitWithError(ExitError, "%v", err)
		}
	}

	if humanOutput {
		outputHuman("Indexed %d publications into %s\n", len(docs), dbPath)
		return nil
	}
	return outputJSON(IndexResponse{Status: "indexed", Count: len(docs), Path: dbPath, JSONL: indexJSONL})
}

// writeIndex rewrites the index at dbPath with docs. The database is closed
// before it returns, on success and on failure.
func writeIndex(dbPath string, docs []index.Document) (err error) {
	idx, err := index.Open(dbPath)
	if err != nil {
		return err
	}
	defer func() {
		if closeErr := idx.Close(); err == nil && closeErr != nil {
			err = fmt.Errorf("closing index: %w", closeErr)
		}
	}()

	return idx.Replace(docs)
}
