// Package index writes publication records to a SQLite database with a
// full-text search mirror, for shipping search alongside a generated site.
package index

import (
	"database/sql"
	"errors"
	"fmt"
	"strings"

	_ "modernc.org/sqlite"
)

// DefaultLimit caps search results when no limit is given.
const DefaultLimit = 50

// ErrNotFound is returned by Get for unknown keys.
var ErrNotFound = errors.New("publication not found in index")

// DB wraps a SQLite database connection.
type DB struct {
	db *sql.DB
}

// selectFields contains the standard field list for SELECT queries.
const selectFields = `cite_key, entry_type, year, title, authors_text, venue,
	citation_html, raw, pdf, slides, poster`

// Open opens or creates an index database at the given path.
func Open(path string) (*DB, error) {
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("opening database: %w", err)
	}

	db.SetMaxOpenConns(1) // SQLite doesn't support concurrent writes

	if err := createSchema(db); err != nil {
		db.Close()
		return nil, fmt.Errorf("creating schema: %w", err)
	}

	return &DB{db: db}, nil
}

// Close closes the database connection.
func (d *DB) Close() error {
	return d.db.Close()
}

func createSchema(db *sql.DB) error {
	schema := `
		CREATE TABLE IF NOT EXISTS publications (
			cite_key TEXT PRIMARY KEY,
			position INTEGER NOT NULL,
			entry_type TEXT NOT NULL,
			year TEXT,
			title TEXT NOT NULL,
			authors_text TEXT NOT NULL,
			venue TEXT,
			citation_html TEXT NOT NULL,
			raw TEXT NOT NULL,
			pdf TEXT,
			slides TEXT,
			poster TEXT
		);

		-- Standalone FTS table, rewritten together with publications
		CREATE VIRTUAL TABLE IF NOT EXISTS publications_fts USING fts5(
			cite_key,
			title,
			authors_text,
			venue,
			year
		);
	`

	_, err := db.Exec(schema)
	return err
}

// Replace rewrites the index with docs, keeping their order.
func (d *DB) Replace(docs []Document) (err error) {
	tx, err := d.db.Begin()
	if err != nil {
		return fmt.Errorf("starting transaction: %w", err)
	}
	defer func() {
		if err != nil {
			tx.Rollback()
		}
	}()

	if _, err := tx.Exec("DELETE FROM publications"); err != nil {
		return fmt.Errorf("clearing publications table: %w", err)
	}
	if _, err := tx.Exec("DELETE FROM publications_fts"); err != nil {
		return fmt.Errorf("clearing publications_fts table: %w", err)
	}

	pubStmt, err := tx.Prepare(`
		INSERT INTO publications (
			cite_key, position, entry_type, year, title, authors_text, venue,
			citation_html, raw, pdf, slides, poster
		) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
	`)
	if err != nil {
		return fmt.Errorf("preparing publications insert: %w", err)
	}
	defer pubStmt.Close()

	ftsStmt, err := tx.Prepare(`
		INSERT INTO publications_fts (cite_key, title, authors_text, venue, year)
		VALUES (?, ?, ?, ?, ?)
	`)
	if err != nil {
		return fmt.Errorf("preparing fts insert: %w", err)
	}
	defer ftsStmt.Close()

	for i, doc := range docs {
		_, err = pubStmt.Exec(
			doc.Key, i, doc.Type, nullable(doc.Year), doc.Title, doc.Authors, doc.Venue,
			doc.Citation, doc.Raw, nullable(doc.PDF), nullable(doc.Slides), nullable(doc.Poster),
		)
		if err != nil {
			return fmt.Errorf("inserting publication %s: %w", doc.Key, err)
		}

		year := ""
		if doc.Year != nil {
			year = *doc.Year
		}
		if _, err = ftsStmt.Exec(doc.Key, doc.Title, doc.Authors, doc.Venue, year); err != nil {
			return fmt.Errorf("inserting fts for %s: %w", doc.Key, err)
		}
	}

	if err = tx.Commit(); err != nil {
		return fmt.Errorf("committing index: %w", err)
	}
	return nil
}

// Get retrieves a publication by its citation key.
func (d *DB) Get(key string) (*Document, error) {
	row := d.db.QueryRow(`SELECT `+selectFields+` FROM publications WHERE cite_key = ?`, key)
	doc, err := scanDocument(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("%w: %s", ErrNotFound, key)
	}
	return doc, err
}

// All returns every publication in bibliography order.
func (d *DB) All() ([]Document, error) {
	rows, err := d.db.Query(`SELECT ` + selectFields + ` FROM publications ORDER BY position`)
	if err != nil {
		return nil, fmt.Errorf("listing publications: %w", err)
	}
	defer rows.Close()

	return scanDocuments(rows)
}

// Count returns the number of indexed publications.
func (d *DB) Count() (int, error) {
	var count int
	err := d.db.QueryRow("SELECT COUNT(*) FROM publications").Scan(&count)
	return count, err
}

// Search runs a full-text query over titles, authors, venues and years.
// Results keep bibliography order.
func (d *DB) Search(query string, limit int) ([]Document, error) {
	return d.match(prepareFTSQuery(query), limit)
}

// SearchAuthor finds publications by author name with prefix matching.
func (d *DB) SearchAuthor(name string, limit int) ([]Document, error) {
	q := prepareAuthorQuery(name)
	if q == "" {
		return nil, nil
	}
	return d.match("authors_text:"+q, limit)
}

func (d *DB) match(ftsQuery string, limit int) ([]Document, error) {
	if strings.TrimSpace(ftsQuery) == "" {
		return nil, nil
	}
	if limit <= 0 {
		limit = DefaultLimit
	}

	rows, err := d.db.Query(`
		SELECT `+selectFields+`
		FROM publications
		WHERE cite_key IN (SELECT cite_key FROM publications_fts WHERE publications_fts MATCH ?)
		ORDER BY position
		LIMIT ?`, ftsQuery, limit)
	if err != nil {
		return nil, fmt.Errorf("searching: %w", err)
	}
	defer rows.Close()

	return scanDocuments(rows)
}

// scanner interface for sql.Row and sql.Rows
type scanner interface {
	Scan(dest ...any) error
}

func scanDocument(s scanner) (*Document, error) {
	var doc Document
	var year, venue, pdf, slides, poster sql.NullString

	err := s.Scan(
		&doc.Key, &doc.Type, &year, &doc.Title, &doc.Authors, &venue,
		&doc.Citation, &doc.Raw, &pdf, &slides, &poster,
	)
	if err != nil {
		return nil, err
	}

	doc.Venue = venue.String
	doc.Year = optional(year)
	doc.PDF = optional(pdf)
	doc.Slides = optional(slides)
	doc.Poster = optional(poster)
	return &doc, nil
}

func scanDocuments(rows *sql.Rows) ([]Document, error) {
	var docs []Document
	for rows.Next() {
		doc, err := scanDocument(rows)
		if err != nil {
			return nil, err
		}
		docs = append(docs, *doc)
	}
	return docs, rows.Err()
}

// nullable stores absent optional fields as NULL. An empty but present
// value stays an empty string.
func nullable(s *string) sql.NullString {
	if s == nil {
		return sql.NullString{}
	}
	return sql.NullString{String: *s, Valid: true}
}

func optional(s sql.NullString) *string {
	if !s.Valid {
		return nil
	}
	v := s.String
	return &v
}

// prepareFTSQuery quotes every whitespace-separated term so user input
// never reaches FTS5 as query syntax. Terms are ANDed.
func prepareFTSQuery(query string) string {
	parts := strings.Fields(query)
	if len(parts) == 0 {
		return ""
	}

	terms := make([]string, 0, len(parts))
	for _, part := range parts {
		terms = append(terms, "\""+strings.ReplaceAll(part, "\"", "\"\"")+"\"")
	}
	return strings.Join(terms, " ")
}

// prepareAuthorQuery prepares an author name for FTS5 search with prefix
// matching, so "Jos" matches "Joseph".
func prepareAuthorQuery(author string) string {
	parts := strings.Fields(author)
	if len(parts) == 0 {
		return ""
	}

	terms := make([]string, 0, len(parts))
	for _, part := range parts {
		escaped := strings.ReplaceAll(part, "\"", "\"\"")
		terms = append(terms, "\""+escaped+"\"*")
	}

	return "(" + strings.Join(terms, " OR ") + ")"
}
