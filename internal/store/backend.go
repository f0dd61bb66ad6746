package store

import (
	"errors"
	"fmt"
	"path/filepath"
	"strings"
)

var (
	// ErrNotExist is returned by Load when the backing file or table is absent.
	ErrNotExist = errors.New("store: table does not exist")
	// ErrMissingColumn is returned when a required input column is absent.
	ErrMissingColumn = errors.New("store: missing required column")
)

// Backend loads and persists a whole table.
type Backend interface {
	Load() (*Table, error)
	Save(t *Table) error
	Path() string
}

// ForPath picks a backend from the file extension: .xlsx, .csv, or
// .db/.sqlite/.sqlite3. numeric lists the columns typed backends should
// write as numbers.
func ForPath(path string, numeric ...string) (Backend, error) {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".xlsx":
		return NewXLSX(path, numeric...), nil
	case ".csv":
		return NewCSV(path), nil
	case ".db", ".sqlite", ".sqlite3":
		return NewSQLite(path), nil
	default:
		return nil, fmt.Errorf("store: unsupported file type %q", path)
	}
}

// RequireColumns fails with ErrMissingColumn for the first absent column.
func RequireColumns(t *Table, cols ...string) error {
	for _, c := range cols {
		if !t.HasColumn(c) {
			return fmt.Errorf("%w: %s", ErrMissingColumn, c)
		}
	}
	return nil
}
