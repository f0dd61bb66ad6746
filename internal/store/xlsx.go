package store

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strconv"

	"github.com/xuri/excelize/v2"
)

const defaultSheet = "Sheet1"

// XLSX stores a table in the first sheet of an Excel workbook, header in
// row 1.
type XLSX struct {
	path    string
	numeric map[string]bool
}

// NewXLSX returns an XLSX backend for path.
func NewXLSX(path string, numeric ...string) *XLSX {
	x := &XLSX{path: path, numeric: make(map[string]bool, len(numeric))}
	for _, c := range numeric {
		x.numeric[c] = true
	}
	return x
}

func (x *XLSX) Path() string { return x.path }

func (x *XLSX) Load() (*Table, error) {
	if _, err := os.Stat(x.path); errors.Is(err, fs.ErrNotExist) {
		return nil, fmt.Errorf("%w: %s", ErrNotExist, x.path)
	}

	f, err := excelize.OpenFile(x.path)
	if err != nil {
		return nil, fmt.Errorf("open workbook %s: %w", x.path, err)
	}
	defer f.Close()

	sheets := f.GetSheetList()
	if len(sheets) == 0 {
		return NewTable(), nil
	}
	rows, err := f.GetRows(sheets[0], excelize.Options{RawCellValue: true})
	if err != nil {
		return nil, fmt.Errorf("read sheet %s: %w", sheets[0], err)
	}
	if len(rows) == 0 {
		return NewTable(), nil
	}
	return tableFromRecords(rows[0], rows[1:]), nil
}

// Save writes t into the workbook at path. An existing workbook is updated
// in place: columns are matched by header name and only cells whose value
// changed are written, so untouched cells keep their type and style.
func (x *XLSX) Save(t *Table) error {
	if err := os.MkdirAll(filepath.Dir(x.path), 0o755); err != nil {
		return fmt.Errorf("create output dir: %w", err)
	}

	f, sheet, current, err := x.openForSave()
	if err != nil {
		return err
	}
	defer f.Close()

	var header []string
	if len(current) > 0 {
		header = current[0]
	}
	colIdx := make(map[string]int, len(header))
	for i, name := range header {
		if _, dup := colIdx[name]; !dup && name != "" {
			colIdx[name] = i
		}
	}
	for _, name := range t.columns {
		if _, ok := colIdx[name]; ok {
			continue
		}
		colIdx[name] = len(header)
		header = append(header, name)
		cell, err := excelize.CoordinatesToCellName(colIdx[name]+1, 1)
		if err != nil {
			return err
		}
		if err := f.SetCellStr(sheet, cell, name); err != nil {
			return fmt.Errorf("write header %s: %w", name, err)
		}
	}

	for i, rec := range t.records() {
		var old []string
		if i+1 < len(current) {
			old = current[i+1]
		}
		for j, v := range rec {
			ci := colIdx[t.columns[j]]
			if (ci < len(old) && old[ci] == v) || (ci >= len(old) && v == "") {
				continue
			}
			cell, err := excelize.CoordinatesToCellName(ci+1, i+2)
			if err != nil {
				return err
			}
			if err := f.SetCellValue(sheet, cell, x.cellValue(t.columns[j], v)); err != nil {
				return fmt.Errorf("write %s: %w", cell, err)
			}
		}
	}

	if err := f.SaveAs(x.path); err != nil {
		return fmt.Errorf("save workbook %s: %w", x.path, err)
	}
	return nil
}

// openForSave opens the existing workbook and its first sheet's raw rows,
// or a new workbook when none exists yet.
func (x *XLSX) openForSave() (*excelize.File, string, [][]string, error) {
	if _, err := os.Stat(x.path); errors.Is(err, fs.ErrNotExist) {
		return excelize.NewFile(), defaultSheet, nil, nil
	}
	f, err := excelize.OpenFile(x.path)
	if err != nil {
		return nil, "", nil, fmt.Errorf("open workbook %s: %w", x.path, err)
	}
	sheets := f.GetSheetList()
	if len(sheets) == 0 {
		f.Close()
		return nil, "", nil, fmt.Errorf("workbook %s has no sheets", x.path)
	}
	rows, err := f.GetRows(sheets[0], excelize.Options{RawCellValue: true})
	if err != nil {
		f.Close()
		return nil, "", nil, fmt.Errorf("read sheet %s: %w", sheets[0], err)
	}
	return f, sheets[0], rows, nil
}

// cellValue writes integers in numeric columns as numbers; everything else,
// including blanks, stays text.
func (x *XLSX) cellValue(col, v string) any {
	if v == "" {
		return nil
	}
	if x.numeric[col] {
		if n, err := strconv.ParseInt(v, 10, 64); err == nil {
			return n
		}
	}
	return v
}
