package util

import (
	"fmt"

	"github.com/xuri/excelize/v2"
)

// ReadWorkbookSheet reads the rows of sheet in the .xlsx workbook at path,
// or of its first sheet when sheet is empty. Rows are padded to the width
// of the widest row, so trailing blank cells read as "", then filtered and
// trimmed like ReadCSV rows.
func ReadWorkbookSheet(path, sheet string, opts ...CSVOption) ([][]string, error) {
	f, err := excelize.OpenFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open workbook %s: %w", path, err)
	}
	defer f.Close()

	if sheet == "" {
		sheet = f.GetSheetName(0)
	}
	records, err := f.GetRows(sheet)
	if err != nil {
		return nil, fmt.Errorf("failed to read sheet %q of %s: %w", sheet, path, err)
	}

	width := 0
	for _, record := range records {
		width = max(width, len(record))
	}
	for i, record := range records {
		if len(record) < width {
			records[i] = append(record, make([]string, width-len(record))...)
		}
	}

	return newCSVConfig(opts).filter(records), nil
}
