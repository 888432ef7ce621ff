package util

import (
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/xuri/excelize/v2"
)

func writeWorkbook(t *testing.T, sheet string, rows [][]any) string {
	t.Helper()
	f := excelize.NewFile()
	t.Cleanup(func() { _ = f.Close() })
	if sheet != "Sheet1" {
		_, err := f.NewSheet(sheet)
		require.NoError(t, err)
	}
	for i, row := range rows {
		cell, err := excelize.CoordinatesToCellName(1, i+1)
		require.NoError(t, err)
		require.NoError(t, f.SetSheetRow(sheet, cell, &row))
	}
	path := filepath.Join(t.TempDir(), "data.xlsx")
	require.NoError(t, f.SaveAs(path))
	return path
}

func TestReadWorkbookSheet(t *testing.T) {
	path := writeWorkbook(t, "Sheet1", [][]any{
		{"name", "age", "city"},
		{" Ada ", "36", "London"},
		{"", "99", "Nowhere"},
		{"Alan", "41"},
	})

	rows, err := ReadWorkbookSheet(path, "", SkipHeader(), EmptyCheckCol(0))
	require.NoError(t, err)
	assert.Equal(t, [][]string{{"Ada", "36", "London"}, {"Alan", "41", ""}}, rows)

	rows, err = ReadWorkbookSheet(path, "Sheet1", WithDelimiter(';'))
	require.NoError(t, err)
	assert.Len(t, rows, 4)
}

func TestReadWorkbookSheetNamed(t *testing.T) {
	path := writeWorkbook(t, "People", [][]any{{"Grace", "85"}})

	rows, err := ReadWorkbookSheet(path, "People")
	require.NoError(t, err)
	assert.Equal(t, [][]string{{"Grace", "85"}}, rows)

	_, err = ReadWorkbookSheet(path, "Missing")
	assert.Error(t, err)

	_, err = ReadWorkbookSheet(filepath.Join(t.TempDir(), "missing.xlsx"), "")
	assert.Error(t, err)
}
