// Package bibtex reads and writes BibTeX bibliography databases.
package bibtex

import (
	"fmt"
	"strings"
)

// Field is one name/value pair of an entry.
type Field struct {
	Name  string
	Value string
}

// Entry is one bibliography record. Field names are stored lowercased and
// keep their insertion order so that writing an entry preserves its layout.
type Entry struct {
	Type string // Lowercased entry type: article, inproceedings, ...
	Key  string // Citation key as written in the source

	fields []Field
	index  map[string]int
}

// NewEntry creates an entry without fields.
func NewEntry(entryType, key string) *Entry {
	return &Entry{
		Type:  strings.ToLower(entryType),
		Key:   key,
		index: make(map[string]int),
	}
}

// Set adds a field, replacing the value in place if the name already exists.
func (e *Entry) Set(name, value string) {
	name = strings.ToLower(name)
	if i, ok := e.index[name]; ok {
		e.fields[i].Value = value
		return
	}
	e.index[name] = len(e.fields)
	e.fields = append(e.fields, Field{Name: name, Value: value})
}

// Field returns the value of a field. The lookup is case-insensitive.
func (e *Entry) Field(name string) (string, bool) {
	i, ok := e.index[strings.ToLower(name)]
	if !ok {
		return "", false
	}
	return e.fields[i].Value, true
}

// Fields returns a copy of the entry's fields in insertion order.
func (e *Entry) Fields() []Field {
	out := make([]Field, len(e.fields))
	copy(out, e.fields)
	return out
}

// Len returns the number of fields.
func (e *Entry) Len() int {
	return len(e.fields)
}

// Database is an ordered collection of entries with unique keys.
// Keys compare case-insensitively, as BibTeX does.
type Database struct {
	entries []*Entry
	byKey   map[string]*Entry
}

// NewDatabase creates an empty database.
func NewDatabase() *Database {
	return &Database{byKey: make(map[string]*Entry)}
}

// Add appends an entry. It fails if an entry with the same key exists.
func (db *Database) Add(e *Entry) error {
	k := strings.ToLower(e.Key)
	if _, exists := db.byKey[k]; exists {
		return fmt.Errorf("%w: %s", ErrDuplicateKey, e.Key)
	}
	db.byKey[k] = e
	db.entries = append(db.entries, e)
	return nil
}

// Entry looks up an entry by citation key.
func (db *Database) Entry(key string) (*Entry, bool) {
	e, ok := db.byKey[strings.ToLower(key)]
	return e, ok
}

// Entries returns the entries in source order.
func (db *Database) Entries() []*Entry {
	out := make([]*Entry, len(db.entries))
	copy(out, db.entries)
	return out
}

// Len returns the number of entries.
func (db *Database) Len() int {
	return len(db.entries)
}
