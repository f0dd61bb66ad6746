package store

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/xuri/excelize/v2"
)

func sampleTable() *Table {
	t := NewTable("account", "sec_uid", "follower_count")
	t.Append(Row{"account": "抖音号：91811174783(douyin)", "sec_uid": "MS4wLjABAAAA1", "follower_count": "120"})
	t.Append(Row{"account": "ms.ashlyn_(douyin)", "sec_uid": "MS4wLjABAAAA2", "follower_count": ""})
	return t
}

func TestTable(t *testing.T) {
	tbl := NewTable("a", "b")
	tbl.Append(Row{"a": "1"})
	tbl.Append(Row{"b": "2", "c": "3"})

	assert.Equal(t, []string{"a", "b", "c"}, tbl.Columns())
	assert.Equal(t, 2, tbl.Len())
	assert.Equal(t, "1", tbl.Get(0, "a"))
	assert.Equal(t, "", tbl.Get(0, "c"), "backfilled column reads blank")
	assert.Equal(t, "3", tbl.Get(1, "c"))
	assert.Equal(t, "", tbl.Get(5, "a"), "out of range reads blank")

	assert.False(t, tbl.EnsureColumn("a"))
	assert.True(t, tbl.EnsureColumn("d"))
	tbl.Set(0, "d", "x")
	assert.Equal(t, Row{"a": "1", "b": "", "c": "", "d": "x"}, tbl.Row(0))
}

func TestTableFromRecords_PadsAndTruncates(t *testing.T) {
	tbl := tableFromRecords([]string{"a", "b"}, [][]string{{"1"}, {"1", "2", "3"}})
	assert.Equal(t, "", tbl.Get(0, "b"))
	assert.Equal(t, []string{"1", "2"}, tbl.records()[1])
}

func TestRequireColumns(t *testing.T) {
	tbl := NewTable(ColAccount)
	assert.NoError(t, RequireColumns(tbl, ColAccount))
	assert.ErrorIs(t, RequireColumns(tbl, ColAccount, ColSecUID), ErrMissingColumn)
}

func TestForPath(t *testing.T) {
	tests := []struct {
		path    string
		want    any
		wantErr bool
	}{
		{"out/users.xlsx", &XLSX{}, false},
		{"out/USERS.XLSX", &XLSX{}, false},
		{"out/users.csv", &CSV{}, false},
		{"out/users.db", &SQLite{}, false},
		{"out/users.sqlite3", &SQLite{}, false},
		{"out/users.json", nil, true},
	}
	for _, tt := range tests {
		t.Run(tt.path, func(t *testing.T) {
			b, err := ForPath(tt.path)
			if tt.wantErr {
				assert.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.IsType(t, tt.want, b)
			assert.Equal(t, tt.path, b.Path())
		})
	}
}

func TestBackends_RoundTrip(t *testing.T) {
	dir := t.TempDir()
	backends := map[string]Backend{
		"xlsx":   NewXLSX(filepath.Join(dir, "nested", "users.xlsx"), "follower_count"),
		"csv":    NewCSV(filepath.Join(dir, "nested", "users.csv")),
		"sqlite": NewSQLite(filepath.Join(dir, "nested", "users.db")),
	}
	for name, b := range backends {
		t.Run(name, func(t *testing.T) {
			_, err := b.Load()
			require.ErrorIs(t, err, ErrNotExist)

			require.NoError(t, b.Save(sampleTable()))

			got, err := b.Load()
			require.NoError(t, err)
			assert.Equal(t, []string{"account", "sec_uid", "follower_count"}, got.Columns())
			require.Equal(t, 2, got.Len())
			assert.Equal(t, "抖音号：91811174783(douyin)", got.Get(0, "account"))
			assert.Equal(t, "120", got.Get(0, "follower_count"))
			assert.Equal(t, "MS4wLjABAAAA2", got.Get(1, "sec_uid"))
			assert.Equal(t, "", got.Get(1, "follower_count"))
		})
	}
}

func TestXLSX_NumericCells(t *testing.T) {
	path := filepath.Join(t.TempDir(), "users.xlsx")
	require.NoError(t, NewXLSX(path, "follower_count").Save(sampleTable()))

	f, err := excelize.OpenFile(path)
	require.NoError(t, err)
	defer f.Close()

	typ, err := f.GetCellType(defaultSheet, "C2")
	require.NoError(t, err)
	assert.NotEqual(t, excelize.CellTypeSharedString, typ, "counts are stored as numbers")
	assert.NotEqual(t, excelize.CellTypeInlineString, typ)

	typ, err = f.GetCellType(defaultSheet, "B2")
	require.NoError(t, err)
	assert.NotEqual(t, excelize.CellTypeNumber, typ)
}

func TestCSV_SaveLeavesNoTempFiles(t *testing.T) {
	dir := t.TempDir()
	b := NewCSV(filepath.Join(dir, "users.csv"))
	require.NoError(t, b.Save(sampleTable()))
	require.NoError(t, b.Save(sampleTable()))

	entries, err := os.ReadDir(dir)
	require.NoError(t, err)
	assert.Len(t, entries, 1)
}

func TestSQLite_MissingTable(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, NewSQLite(filepath.Join(dir, "other.db")).Save(sampleTable()))
	require.NoError(t, os.Rename(filepath.Join(dir, "other.db"), filepath.Join(dir, "users.db")))

	_, err := NewSQLite(filepath.Join(dir, "users.db")).Load()
	assert.ErrorIs(t, err, ErrNotExist)
}

func TestSQLite_SaveWithoutColumns(t *testing.T) {
	err := NewSQLite(filepath.Join(t.TempDir(), "x.db")).Save(NewTable())
	assert.Error(t, err)
}

func TestRepository_OpenCreates(t *testing.T) {
	b := NewCSV(filepath.Join(t.TempDir(), "posts.csv"))
	repo, err := Open(b, PostSchema)
	require.NoError(t, err)

	assert.True(t, repo.Created())
	assert.Equal(t, 0, repo.Len())
	_, statErr := os.Stat(b.Path())
	assert.True(t, os.IsNotExist(statErr), "open must not write anything")
}

func TestRepository_InsertDedup(t *testing.T) {
	b := NewCSV(filepath.Join(t.TempDir(), "posts.csv"))
	repo, err := Open(b, PostSchema)
	require.NoError(t, err)

	assert.True(t, repo.Insert(Row{"aweme_id": "1", "desc": "first"}))
	assert.False(t, repo.Insert(Row{"aweme_id": "1", "desc": "again"}), "duplicate key")
	assert.False(t, repo.Insert(Row{"desc": "no key"}), "empty key")
	assert.True(t, repo.Contains("1"))
	require.NoError(t, repo.Persist())

	reopened, err := Open(b, PostSchema)
	require.NoError(t, err)
	assert.False(t, reopened.Created())
	assert.Equal(t, 1, reopened.Len())
	assert.True(t, reopened.Contains("1"))
	assert.Equal(t, PostSchema.Columns, reopened.table.Columns())
	assert.Equal(t, "first", reopened.table.Get(0, "desc"))
}

func TestRepository_AddsMissingSchemaColumns(t *testing.T) {
	b := NewCSV(filepath.Join(t.TempDir(), "users.csv"))
	old := NewTable("account", "sec_uid")
	old.Append(Row{"account": "a", "sec_uid": "s1"})
	require.NoError(t, b.Save(old))

	repo, err := Open(b, UserSchema)
	require.NoError(t, err)
	assert.True(t, repo.Contains("s1"))
	for _, c := range UserSchema.Columns {
		assert.True(t, repo.table.HasColumn(c), c)
	}
}

// operatorWorkbook writes a sheet the way an operator would: a text column,
// a number and a date-formatted serial.
func operatorWorkbook(t *testing.T, path string) (dateStyle int) {
	t.Helper()
	f := excelize.NewFile()
	defer f.Close()

	require.NoError(t, f.SetSheetRow(defaultSheet, "A1", &[]any{ColAccount, "Followers", "Date"}))
	require.NoError(t, f.SetCellStr(defaultSheet, "A2", "抖音号：91811174783(douyin)"))
	require.NoError(t, f.SetCellInt(defaultSheet, "B2", 12345))
	require.NoError(t, f.SetCellInt(defaultSheet, "C2", 45000))
	style, err := f.NewStyle(&excelize.Style{NumFmt: 14})
	require.NoError(t, err)
	require.NoError(t, f.SetCellStyle(defaultSheet, "C2", "C2", style))
	require.NoError(t, f.SaveAs(path))
	return style
}

func TestXLSX_SavePreservesUntouchedCells(t *testing.T) {
	path := filepath.Join(t.TempDir(), "accounts.xlsx")
	dateStyle := operatorWorkbook(t, path)

	b := NewXLSX(path)
	tbl, err := b.Load()
	require.NoError(t, err)
	tbl.EnsureColumn(ColSecUID)
	tbl.Set(0, ColSecUID, "MS4wLjABAAAAa")
	require.NoError(t, b.Save(tbl))

	f, err := excelize.OpenFile(path)
	require.NoError(t, err)
	defer f.Close()

	for _, cell := range []string{"B2", "C2"} {
		typ, err := f.GetCellType(defaultSheet, cell)
		require.NoError(t, err)
		assert.NotEqual(t, excelize.CellTypeSharedString, typ, "%s must stay numeric", cell)
		assert.NotEqual(t, excelize.CellTypeInlineString, typ, "%s must stay numeric", cell)
	}
	raw, err := f.GetCellValue(defaultSheet, "B2", excelize.Options{RawCellValue: true})
	require.NoError(t, err)
	assert.Equal(t, "12345", raw)

	style, err := f.GetCellStyle(defaultSheet, "C2")
	require.NoError(t, err)
	assert.Equal(t, dateStyle, style, "date format kept")

	header, err := f.GetCellValue(defaultSheet, "D1")
	require.NoError(t, err)
	assert.Equal(t, ColSecUID, header)
	id, err := f.GetCellValue(defaultSheet, "D2")
	require.NoError(t, err)
	assert.Equal(t, "MS4wLjABAAAAa", id)
}

func TestXLSX_SaveAppendsToExistingWorkbook(t *testing.T) {
	path := filepath.Join(t.TempDir(), "users.xlsx")
	b := NewXLSX(path, "follower_count")
	require.NoError(t, b.Save(sampleTable()))

	tbl, err := b.Load()
	require.NoError(t, err)
	tbl.Append(Row{"account": "c(douyin)", "sec_uid": "MS4wLjABAAAA3", "follower_count": "7"})
	require.NoError(t, b.Save(tbl))

	got, err := b.Load()
	require.NoError(t, err)
	require.Equal(t, 3, got.Len())
	assert.Equal(t, "抖音号：91811174783(douyin)", got.Get(0, "account"))
	assert.Equal(t, "MS4wLjABAAAA3", got.Get(2, "sec_uid"))
	assert.Equal(t, "7", got.Get(2, "follower_count"))
}
