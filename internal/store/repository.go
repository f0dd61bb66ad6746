package store

import (
	"errors"
	"fmt"
)

// Repository is an append-only, key-indexed table persisted through a
// Backend. Existing rows are never modified or removed.
type Repository struct {
	backend Backend
	schema  Schema
	table   *Table
	keys    map[string]struct{}
	created bool
}

// Open loads the table behind backend, or starts an empty one with the
// schema's columns when nothing has been saved yet. Columns the schema
// requires but the stored table lacks are added empty.
func Open(backend Backend, schema Schema) (*Repository, error) {
	t, err := backend.Load()
	created := false
	switch {
	case errors.Is(err, ErrNotExist):
		t = NewTable(schema.Columns...)
		created = true
	case err != nil:
		return nil, fmt.Errorf("open %s: %w", backend.Path(), err)
	default:
		for _, c := range schema.Columns {
			t.EnsureColumn(c)
		}
	}

	r := &Repository{
		backend: backend,
		schema:  schema,
		table:   t,
		keys:    make(map[string]struct{}, t.Len()),
		created: created,
	}
	for i := 0; i < t.Len(); i++ {
		if k := t.Get(i, schema.Key); k != "" {
			r.keys[k] = struct{}{}
		}
	}
	return r, nil
}

// Created reports whether the repository started empty because no stored
// table existed.
func (r *Repository) Created() bool { return r.created }

// Len returns the number of stored rows.
func (r *Repository) Len() int { return r.table.Len() }

// Contains reports whether a row with this key exists.
func (r *Repository) Contains(key string) bool {
	_, ok := r.keys[key]
	return ok
}

// Insert appends row unless its key is empty or already present. It reports
// whether the row was added.
func (r *Repository) Insert(row Row) bool {
	k := row[r.schema.Key]
	if k == "" || r.Contains(k) {
		return false
	}
	r.table.Append(row)
	r.keys[k] = struct{}{}
	return true
}

// Persist writes the whole table through the backend.
func (r *Repository) Persist() error {
	if err := r.backend.Save(r.table); err != nil {
		return fmt.Errorf("persist %s: %w", r.backend.Path(), err)
	}
	return nil
}

// Path is the backend location, for logging.
func (r *Repository) Path() string { return r.backend.Path() }
