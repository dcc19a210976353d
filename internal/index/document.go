package index

import (
	"fmt"
	"strings"

	"github.com/matsen/bibpub/internal/bibtex"
	"github.com/matsen/bibpub/internal/citation"
	"github.com/matsen/bibpub/internal/publications"
	"github.com/matsen/bibpub/internal/reference"
)

// Document is one indexed publication.
type Document struct {
	Key      string  `json:"key"`
	Type     string  `json:"type"`
	Year     *string `json:"year"`
	Title    string  `json:"title"`
	Authors  string  `json:"authors"` // Comma-separated full names
	Venue    string  `json:"venue,omitempty"`
	Citation string  `json:"citation"` // Rendered HTML
	Raw      string  `json:"raw"`
	PDF      *string `json:"pdf"`
	Slides   *string `json:"slides"`
	Poster   *string `json:"poster"`
}

// venueFields are checked in order for the document venue.
var venueFields = []string{"journal", "booktitle", "publisher", "school", "institution", "howpublished"}

// Documents pairs records with their source entries. Records keep their
// order; a record whose key is missing from db is an error.
func Documents(db *bibtex.Database, records []publications.Record) ([]Document, error) {
	docs := make([]Document, 0, len(records))
	for _, rec := range records {
		entry, ok := db.Entry(rec.Key)
		if !ok {
			return nil, fmt.Errorf("%w: %s", publications.ErrUnknownKey, rec.Key)
		}

		title, _ := entry.Field("title")
		doc := Document{
			Key:      rec.Key,
			Type:     entry.Type,
			Year:     rec.Year,
			Title:    citation.Clean(title),
			Authors:  authorsText(entry),
			Citation: string(rec.Text),
			Raw:      rec.Raw,
			PDF:      rec.PDF,
			Slides:   rec.Slides,
			Poster:   rec.Poster,
		}
		for _, field := range venueFields {
			if v, ok := entry.Field(field); ok && v != "" {
				doc.Venue = citation.Clean(v)
				break
			}
		}
		docs = append(docs, doc)
	}
	return docs, nil
}

// authorsText creates a searchable text representation of authors,
// falling back to editors.
func authorsText(e *bibtex.Entry) string {
	field, ok := e.Field("author")
	if !ok {
		field, _ = e.Field("editor")
	}

	var names []string
	for _, a := range reference.ParseNames(field) {
		if a.IsOthers() {
			continue
		}
		names = append(names, citation.Clean(a.FullName()))
	}
	return strings.Join(names, ", ")
}
