// Package linkcheck verifies the pdf, slides and poster links of
// bibliography entries. Remote links get a rate-limited HEAD request;
// local files are checked on disk, and local PDFs are opened to confirm
// they parse.
package linkcheck

import (
	"github.com/matsen/bibpub/internal/bibtex"
)

// LinkFields are the entry fields holding publication links, in the order
// they are checked.
var LinkFields = []string{"pdf", "slides", "poster"}

// Link is one link to check.
type Link struct {
	Key    string `json:"key"`
	Field  string `json:"field"` // pdf, slides or poster
	Target string `json:"target"`
	DOI    string `json:"doi,omitempty"` // Entry DOI, compared against local PDFs
}

// Links collects the links of entries in entry order.
func Links(entries []*bibtex.Entry) []Link {
	var links []Link
	for _, e := range entries {
		doi, _ := e.Field("doi")
		for _, field := range LinkFields {
			target, ok := e.Field(field)
			if !ok || target == "" {
				continue
			}
			links = append(links, Link{Key: e.Key, Field: field, Target: target, DOI: doi})
		}
	}
	return links
}
