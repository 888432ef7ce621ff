package util

import (
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"
)

type csvConfig struct {
	delimiter     rune
	header        bool
	emptyCheckCol int
}

// CSVOption customises ReadCSV and ReadWorkbookSheet
type CSVOption func(*csvConfig)

// WithDelimiter sets the field delimiter (default ','). Workbooks ignore it.
func WithDelimiter(d rune) CSVOption {
	return func(c *csvConfig) { c.delimiter = d }
}

// SkipHeader drops the first record
func SkipHeader() CSVOption {
	return func(c *csvConfig) { c.header = true }
}

// EmptyCheckCol skips every record whose column col is empty. A negative
// col disables the check.
func EmptyCheckCol(col int) CSVOption {
	return func(c *csvConfig) { c.emptyCheckCol = col }
}

func newCSVConfig(opts []CSVOption) csvConfig {
	cfg := csvConfig{delimiter: ',', emptyCheckCol: -1}
	for _, opt := range opts {
		opt(&cfg)
	}
	return cfg
}

// ReadCSV reads every record of the CSV file at path. Invalid UTF-8 is
// dropped and each cell is trimmed of surrounding whitespace.
func ReadCSV(path string, opts ...CSVOption) ([][]string, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open csv %s: %w", path, err)
	}
	defer f.Close()

	return ParseCSV(f, opts...)
}

// ParseCSV is ReadCSV over an arbitrary reader
func ParseCSV(r io.Reader, opts ...CSVOption) ([][]string, error) {
	cfg := newCSVConfig(opts)

	raw, err := io.ReadAll(r)
	if err != nil {
		return nil, fmt.Errorf("failed to read csv: %w", err)
	}

	reader := csv.NewReader(strings.NewReader(strings.ToValidUTF8(string(raw), "")))
	reader.Comma = cfg.delimiter
	reader.FieldsPerRecord = -1
	reader.LazyQuotes = true

	records := make([][]string, 0)
	for {
		record, err := reader.Read()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("malformed csv: %w", err)
		}
		records = append(records, record)
	}

	return cfg.filter(records), nil
}

// filter applies the header, empty-check and trim options to raw records
func (c csvConfig) filter(records [][]string) [][]string {
	if c.header && len(records) > 0 {
		records = records[1:]
	}

	rows := make([][]string, 0, len(records))
	for _, record := range records {
		if c.emptyCheckCol >= 0 {
			if c.emptyCheckCol >= len(record) || record[c.emptyCheckCol] == "" {
				continue
			}
		}

		for i, col := range record {
			record[i] = strings.TrimSpace(col)
		}
		rows = append(rows, record)
	}
	return rows
}
