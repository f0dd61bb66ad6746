// Package store keeps tabular data (spreadsheets, CSV files, SQLite tables)
// behind one load/mutate/persist abstraction so the ingestion pipeline does
// not care about the file format.
package store

// Row is one record keyed by column name.
type Row map[string]string

// Table is an ordered set of columns and string cells. Missing cells read
// as "".
type Table struct {
	columns []string
	pos     map[string]int
	rows    [][]string
}

// NewTable returns an empty table with the given columns.
func NewTable(columns ...string) *Table {
	t := &Table{pos: make(map[string]int)}
	for _, c := range columns {
		t.EnsureColumn(c)
	}
	return t
}

// tableFromRecords builds a table from a header and raw records, padding
// short records and dropping cells beyond the header.
func tableFromRecords(header []string, records [][]string) *Table {
	t := NewTable(header...)
	for _, rec := range records {
		row := make([]string, len(t.columns))
		copy(row, rec)
		t.rows = append(t.rows, row)
	}
	return t
}

// Columns returns a copy of the column names in order.
func (t *Table) Columns() []string {
	return append([]string(nil), t.columns...)
}

// HasColumn reports whether the table has the named column.
func (t *Table) HasColumn(name string) bool {
	_, ok := t.pos[name]
	return ok
}

// EnsureColumn appends an empty column if it does not exist yet and reports
// whether it was added.
func (t *Table) EnsureColumn(name string) bool {
	if t.HasColumn(name) {
		return false
	}
	t.pos[name] = len(t.columns)
	t.columns = append(t.columns, name)
	for i := range t.rows {
		t.rows[i] = append(t.rows[i], "")
	}
	return true
}

// Len returns the number of data rows.
func (t *Table) Len() int {
	return len(t.rows)
}

// Get returns the cell at row i, column col.
func (t *Table) Get(i int, col string) string {
	p, ok := t.pos[col]
	if !ok || i < 0 || i >= len(t.rows) {
		return ""
	}
	return t.rows[i][p]
}

// Set writes a cell, creating the column if needed.
func (t *Table) Set(i int, col, value string) {
	if i < 0 || i >= len(t.rows) {
		return
	}
	t.EnsureColumn(col)
	t.rows[i][t.pos[col]] = value
}

// Append adds a row. Keys that are not columns yet become new columns.
func (t *Table) Append(r Row) {
	for k := range r {
		if !t.HasColumn(k) {
			t.EnsureColumn(k)
		}
	}
	row := make([]string, len(t.columns))
	for k, v := range r {
		row[t.pos[k]] = v
	}
	t.rows = append(t.rows, row)
}

// Row returns a copy of row i.
func (t *Table) Row(i int) Row {
	r := make(Row, len(t.columns))
	for c, p := range t.pos {
		r[c] = t.rows[i][p]
	}
	return r
}

// records returns the data rows in column order.
func (t *Table) records() [][]string {
	return t.rows
}
