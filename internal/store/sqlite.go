package store

import (
	"database/sql"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"

	_ "modernc.org/sqlite"
)

// SQLite stores a table in an SQLite file. The table is named after the
// file stem, so douyin_posts_info.db holds table douyin_posts_info.
type SQLite struct {
	path  string
	table string
}

// NewSQLite returns an SQLite backend for path.
func NewSQLite(path string) *SQLite {
	stem := strings.TrimSuffix(filepath.Base(path), filepath.Ext(path))
	return &SQLite{path: path, table: stem}
}

func (s *SQLite) Path() string { return s.path }

func (s *SQLite) open() (*sql.DB, error) {
	db, err := sql.Open("sqlite", fmt.Sprintf("file:%s", s.path))
	if err != nil {
		return nil, err
	}
	db.SetMaxOpenConns(1)
	return db, nil
}

func (s *SQLite) Load() (*Table, error) {
	if _, err := os.Stat(s.path); errors.Is(err, fs.ErrNotExist) {
		return nil, fmt.Errorf("%w: %s", ErrNotExist, s.path)
	}

	db, err := s.open()
	if err != nil {
		return nil, fmt.Errorf("open sqlite %s: %w", s.path, err)
	}
	defer db.Close()

	var name string
	err = db.QueryRow(`SELECT name FROM sqlite_master WHERE type = 'table' AND name = ?`, s.table).Scan(&name)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("%w: table %s in %s", ErrNotExist, s.table, s.path)
	}
	if err != nil {
		return nil, fmt.Errorf("lookup table %s: %w", s.table, err)
	}

	rows, err := db.Query(`SELECT * FROM ` + quoteIdent(s.table) + ` ORDER BY rowid`)
	if err != nil {
		return nil, fmt.Errorf("query %s: %w", s.table, err)
	}
	defer rows.Close()

	cols, err := rows.Columns()
	if err != nil {
		return nil, err
	}

	var records [][]string
	for rows.Next() {
		vals := make([]sql.NullString, len(cols))
		ptrs := make([]any, len(cols))
		for i := range vals {
			ptrs[i] = &vals[i]
		}
		if err := rows.Scan(ptrs...); err != nil {
			return nil, fmt.Errorf("scan %s: %w", s.table, err)
		}
		rec := make([]string, len(cols))
		for i, v := range vals {
			rec[i] = v.String
		}
		records = append(records, rec)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return tableFromRecords(cols, records), nil
}

// Save replaces the table contents in one transaction.
func (s *SQLite) Save(t *Table) error {
	if len(t.columns) == 0 {
		return fmt.Errorf("save %s: table has no columns", s.table)
	}
	if err := os.MkdirAll(filepath.Dir(s.path), 0o755); err != nil {
		return fmt.Errorf("create output dir: %w", err)
	}

	db, err := s.open()
	if err != nil {
		return fmt.Errorf("open sqlite %s: %w", s.path, err)
	}
	defer db.Close()

	tx, err := db.Begin()
	if err != nil {
		return err
	}
	defer tx.Rollback()

	defs := make([]string, len(t.columns))
	quoted := make([]string, len(t.columns))
	marks := make([]string, len(t.columns))
	for i, c := range t.columns {
		quoted[i] = quoteIdent(c)
		defs[i] = quoted[i] + " TEXT"
		marks[i] = "?"
	}

	if _, err := tx.Exec(`DROP TABLE IF EXISTS ` + quoteIdent(s.table)); err != nil {
		return fmt.Errorf("drop %s: %w", s.table, err)
	}
	if _, err := tx.Exec(`CREATE TABLE ` + quoteIdent(s.table) + ` (` + strings.Join(defs, ", ") + `)`); err != nil {
		return fmt.Errorf("create %s: %w", s.table, err)
	}

	stmt, err := tx.Prepare(`INSERT INTO ` + quoteIdent(s.table) + ` (` + strings.Join(quoted, ", ") + `) VALUES (` + strings.Join(marks, ", ") + `)`)
	if err != nil {
		return fmt.Errorf("prepare insert: %w", err)
	}
	defer stmt.Close()

	for _, rec := range t.records() {
		args := make([]any, len(rec))
		for i, v := range rec {
			args[i] = v
		}
		if _, err := stmt.Exec(args...); err != nil {
			return fmt.Errorf("insert into %s: %w", s.table, err)
		}
	}
	return tx.Commit()
}

func quoteIdent(name string) string {
	return `"` + strings.ReplaceAll(name, `"`, `""`) + `"`
}
