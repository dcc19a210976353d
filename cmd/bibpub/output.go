package main

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"

	"github.com/matsen/bibpub/internal/bibtex"
	"github.com/matsen/bibpub/internal/config"
	"github.com/matsen/bibpub/internal/publications"
)

// outputJSON writes a value as formatted JSON to stdout.
func outputJSON(v any) error {
	enc := json.NewEncoder(os.Stdout)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}

// outputHuman writes a human-readable string to stdout.
func outputHuman(format string, args ...any) {
	fmt.Printf(format, args...)
}

// exitWithError outputs an error in the appropriate format (human or JSON) and exits.
func exitWithError(code int, format string, args ...any) {
	msg := fmt.Sprintf(format, args...)
	if humanOutput {
		fmt.Fprintf(os.Stderr, "error: %s\n", msg)
	} else {
		outputJSON(ErrorResponse{Error: msg})
	}
	os.Exit(code)
}

// exitCode maps an error to the exit code of its category.
func exitCode(err error) int {
	switch {
	case err == nil:
		return ExitSuccess
	case errors.Is(err, publications.ErrParse), errors.Is(err, bibtex.ErrParse), errors.Is(err, publications.ErrUnknownKey):
		return ExitDataError
	case errors.Is(err, publications.ErrTemplateUnavailable), errors.Is(err, config.ErrNotFound):
		return ExitConfigError
	default:
		return ExitError
	}
}

// ErrorResponse is a JSON error response.
type ErrorResponse struct {
	Error string `json:"error"`
}

// StatusResponse is a generic response for commands that return status.
type StatusResponse struct {
	Status string `json:"status"`
	Path   string `json:"path,omitempty"`
}
