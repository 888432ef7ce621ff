package controller

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/hashicorp/go-multierror"
	"go.uber.org/zap"
	"gorm.io/gorm"

	"github.com/Zephony/zephony-go/models"
	"github.com/Zephony/zephony-go/util"
)

// Column produces one value of the data map a row is decoded from.
// ok is false when the key should be left out for this row.
type Column interface {
	value(s *seedState, row []string) (v any, ok bool, err error)
}

// Columns maps model fields (snake_case or Go names) onto row columns
type Columns map[string]Column

// SeedValidator is implemented by models that vet imported rows. Returning
// a *models.InvalidRequestDataError skips the row; its Duplicate, if any,
// is reported in LoadResult.Duplicates. Any other error fails the row,
// which aborts the load unless WithRowCommit is set.
type SeedValidator interface {
	BeforeSeed(tx *gorm.DB) error
}

type seedState struct {
	tx      *gorm.DB
	fkCache map[string]uint
}

func cell(row []string, idx int) (string, error) {
	if idx < 0 || idx >= len(row) {
		return "", fmt.Errorf("column %d of %d: %w", idx, len(row), ErrColumnOutOfRange)
	}
	return row[idx], nil
}

type rawColumn int

// Col copies column idx as a string
func Col(idx int) Column { return rawColumn(idx) }

func (c rawColumn) value(_ *seedState, row []string) (any, bool, error) {
	v, err := cell(row, int(c))
	return v, err == nil, err
}

type constColumn struct{ v any }

// Const sets the same value on every row
func Const(v any) Column { return constColumn{v: v} }

func (c constColumn) value(*seedState, []string) (any, bool, error) {
	return c.v, true, nil
}

type intColumn int

// Int parses column idx as an integer. Empty cells are left out.
func Int(idx int) Column { return intColumn(idx) }

func (c intColumn) value(_ *seedState, row []string) (any, bool, error) {
	v, err := cell(row, int(c))
	if err != nil || strings.TrimSpace(v) == "" {
		return nil, false, err
	}
	n, err := strconv.Atoi(strings.TrimSpace(v))
	if err != nil {
		return nil, false, fmt.Errorf("%q: cannot convert to integer: %w", v, err)
	}
	return n, true, nil
}

type datetimeColumn int

// Datetime parses column idx as dd/mm/yyyy when it contains a slash and
// yyyy-mm-dd otherwise. Empty cells are left out; unparsable ones become nil.
func Datetime(idx int) Column { return datetimeColumn(idx) }

func (c datetimeColumn) value(_ *seedState, row []string) (any, bool, error) {
	v, err := cell(row, int(c))
	if err != nil || strings.TrimSpace(v) == "" {
		return nil, false, err
	}
	layout := "2006-1-2"
	if strings.Contains(v, "/") {
		layout = "2/1/2006"
	}
	t, err := time.Parse(layout, strings.TrimSpace(v))
	if err != nil {
		zap.L().Debug("unparsable csv date, storing nil", zap.String("value", v))
		return nil, true, nil
	}
	return t, true, nil
}

type powerOfTwoColumn int

// PowerOfTwo turns the 1-based bit position in column idx into its value
// 2^(n-1), rendered as a decimal string. Used for permission bits.
func PowerOfTwo(idx int) Column { return powerOfTwoColumn(idx) }

func (c powerOfTwoColumn) value(_ *seedState, row []string) (any, bool, error) {
	v, err := cell(row, int(c))
	if err != nil {
		return nil, false, err
	}
	v = strings.TrimSpace(v)
	if v == "" {
		return nil, false, errors.New("permission bit value cannot be empty")
	}
	n, err := strconv.Atoi(v)
	if err != nil || n < 1 || n > 64 {
		return nil, false, fmt.Errorf("%q: permission bit must be an integer between 1 and 64", v)
	}
	return strconv.FormatUint(uint64(1)<<(n-1), 10), true, nil
}

type booleanColumn int

// Boolean is true when column idx holds "x"
func Boolean(idx int) Column { return booleanColumn(idx) }

func (c booleanColumn) value(_ *seedState, row []string) (any, bool, error) {
	v, err := cell(row, int(c))
	if err != nil {
		return nil, false, err
	}
	return strings.TrimSpace(v) == "x", true, nil
}

type permissionTokensColumn struct {
	idx         int
	permissions map[string]uint64
}

// PermissionTokens ORs the bits of the comma separated permission tokens
// in column idx, rendered as a decimal string. Unknown tokens are errors.
func PermissionTokens(idx int, permissions map[string]uint64) Column {
	return permissionTokensColumn{idx: idx, permissions: permissions}
}

func (c permissionTokensColumn) value(_ *seedState, row []string) (any, bool, error) {
	v, err := cell(row, c.idx)
	if err != nil {
		return nil, false, err
	}

	var bits uint64
	if v = strings.TrimSpace(v); v != "" {
		for _, token := range strings.Split(v, ",") {
			bit, ok := c.permissions[strings.TrimSpace(token)]
			if !ok {
				return nil, false, fmt.Errorf("%q: %w", token, ErrUnknownPermission)
			}
			bits |= bit
		}
	}
	return strconv.FormatUint(bits, 10), true, nil
}

type foreignKeyColumn struct {
	idx     int
	factory func(originalName string) models.Identifiable
}

// ForeignKey resolves column idx to the id of the active row whose
// original_name equals it, creating that row through factory when none
// exists. factory must return a pointer to a model with an original_name
// column. Empty cells are left out.
func ForeignKey(idx int, factory func(originalName string) models.Identifiable) Column {
	return foreignKeyColumn{idx: idx, factory: factory}
}

func (c foreignKeyColumn) value(s *seedState, row []string) (any, bool, error) {
	name, err := cell(row, c.idx)
	if err != nil || name == "" {
		return nil, false, err
	}

	obj := c.factory(name)
	cacheKey := fmt.Sprintf("%T:%s", obj, name)
	if id, ok := s.fkCache[cacheKey]; ok {
		return id, true, nil
	}

	err = s.tx.Where("original_name = ? AND status = ?", name, util.StatusActive).Take(obj).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		obj = c.factory(name)
		err = s.tx.Create(obj).Error
	}
	if err != nil {
		return nil, false, fmt.Errorf("failed to resolve %T %q: %w", obj, name, err)
	}

	s.fkCache[cacheKey] = obj.GetID()
	return obj.GetID(), true, nil
}

type nestedColumn Columns

// Nested builds a sub map, for embedded or nested structs
func Nested(columns Columns) Column { return nestedColumn(columns) }

func (c nestedColumn) value(s *seedState, row []string) (any, bool, error) {
	data, err := Columns(c).build(s, row)
	if err != nil {
		return nil, false, err
	}
	return data, true, nil
}

func (c Columns) build(s *seedState, row []string) (map[string]any, error) {
	data := make(map[string]any, len(c))
	for key, col := range c {
		v, ok, err := col.value(s, row)
		if err != nil {
			return nil, fmt.Errorf("%s: %w", key, err)
		}
		if ok {
			data[key] = v
		}
	}
	return data, nil
}

type loadConfig struct {
	delimiter     rune
	header        bool
	emptyCheckCol int
	reprCol       int
	rowCommit     bool
	sheet         string
}

// LoadOption customises LoadFromCSV and LoadFromWorkbook
type LoadOption func(*loadConfig)

func WithCSVDelimiter(d rune) LoadOption {
	return func(c *loadConfig) { c.delimiter = d }
}

// WithoutHeader treats the first record as data
func WithoutHeader() LoadOption {
	return func(c *loadConfig) { c.header = false }
}

// WithEmptyCheckCol sets the column whose emptiness skips a row (default
// 1); a negative value disables the check
func WithEmptyCheckCol(col int) LoadOption {
	return func(c *loadConfig) { c.emptyCheckCol = col }
}

// WithReprCol sets the column logged to identify each row (default 1)
func WithReprCol(col int) LoadOption {
	return func(c *loadConfig) { c.reprCol = col }
}

// WithRowCommit inserts each row on its own instead of in one transaction.
// Rows that fail to build, decode, validate or insert are reported in
// LoadResult.Failed and skipped.
func WithRowCommit() LoadOption {
	return func(c *loadConfig) { c.rowCommit = true }
}

// WithSheet picks the workbook sheet LoadFromWorkbook reads. The first
// sheet is used by default.
func WithSheet(name string) LoadOption {
	return func(c *loadConfig) { c.sheet = name }
}

func newLoadConfig(opts []LoadOption) loadConfig {
	cfg := loadConfig{delimiter: ',', header: true, emptyCheckCol: 1, reprCol: 1}
	for _, opt := range opts {
		opt(&cfg)
	}
	return cfg
}

func (c loadConfig) rowOptions() []util.CSVOption {
	opts := []util.CSVOption{util.WithDelimiter(c.delimiter), util.EmptyCheckCol(c.emptyCheckCol)}
	if c.header {
		opts = append(opts, util.SkipHeader())
	}
	return opts
}

// LoadResult summarises an import
type LoadResult[T any] struct {
	Objects           []*T
	TotalNonEmptyRows int
	Duplicates        []any
	Rejected          []*models.InvalidRequestDataError
	Failed            error
}

// LoadFromCSV inserts one T per non-empty row of the CSV file at path.
// Without WithRowCommit the import is all or nothing.
func (r *Repository[T]) LoadFromCSV(ctx context.Context, path string, columns Columns, opts ...LoadOption) (*LoadResult[T], error) {
	cfg := newLoadConfig(opts)
	rows, err := util.ReadCSV(path, cfg.rowOptions()...)
	if err != nil {
		return nil, err
	}
	return r.loadRows(ctx, path, rows, columns, cfg)
}

// LoadFromWorkbook is LoadFromCSV over one sheet of an .xlsx workbook
func (r *Repository[T]) LoadFromWorkbook(ctx context.Context, path string, columns Columns, opts ...LoadOption) (*LoadResult[T], error) {
	cfg := newLoadConfig(opts)
	rows, err := util.ReadWorkbookSheet(path, cfg.sheet, cfg.rowOptions()...)
	if err != nil {
		return nil, err
	}
	return r.loadRows(ctx, path, rows, columns, cfg)
}

// LoadFromFile picks LoadFromCSV or LoadFromWorkbook by the extension of path
func (r *Repository[T]) LoadFromFile(ctx context.Context, path string, columns Columns, opts ...LoadOption) (*LoadResult[T], error) {
	switch ext := util.FileExtension(path); ext {
	case "csv":
		return r.LoadFromCSV(ctx, path, columns, opts...)
	case "xlsx":
		return r.LoadFromWorkbook(ctx, path, columns, opts...)
	default:
		return nil, fmt.Errorf("%q: %w", ext, ErrUnsupportedFile)
	}
}

func (r *Repository[T]) loadRows(ctx context.Context, source string, rows [][]string, columns Columns, cfg loadConfig) (*LoadResult[T], error) {
	result := &LoadResult[T]{
		Objects:           make([]*T, 0, len(rows)),
		TotalNonEmptyRows: len(rows),
	}
	var failed *multierror.Error
	model := fmt.Sprintf("%T", new(T))

	// rowFailed aborts the load, or with row commit records the row and
	// lets the caller move on
	rowFailed := func(i int, err error) error {
		err = fmt.Errorf("row %d: %w", i, err)
		if !cfg.rowCommit {
			return err
		}
		zap.L().Warn("skipping row", zap.String("model", model), zap.Int("row", i), zap.Error(err))
		failed = multierror.Append(failed, err)
		return nil
	}

	load := func(tx *gorm.DB) error {
		state := &seedState{tx: tx, fkCache: make(map[string]uint)}
		for i, row := range rows {
			repr := ""
			if cfg.reprCol >= 0 && cfg.reprCol < len(row) {
				repr = row[cfg.reprCol]
			}
			zap.L().Debug("loading row", zap.String("model", model), zap.String("row", repr))

			data, err := columns.build(state, row)
			if err != nil {
				if err := rowFailed(i, err); err != nil {
					return err
				}
				continue
			}

			obj := new(T)
			if err := models.Decode(data, obj); err != nil {
				if err := rowFailed(i, err); err != nil {
					return err
				}
				continue
			}

			if v, ok := any(obj).(SeedValidator); ok {
				if err := v.BeforeSeed(tx); err != nil {
					var invalid *models.InvalidRequestDataError
					if !errors.As(err, &invalid) {
						if err := rowFailed(i, err); err != nil {
							return err
						}
						continue
					}
					invalid.Row = i
					if invalid.Duplicate != nil {
						result.Duplicates = append(result.Duplicates, invalid.Duplicate)
					}
					result.Rejected = append(result.Rejected, invalid)
					continue
				}
			}

			if err := tx.Create(obj).Error; err != nil {
				if err := rowFailed(i, err); err != nil {
					return err
				}
				continue
			}
			result.Objects = append(result.Objects, obj)
		}
		return nil
	}

	var err error
	if cfg.rowCommit {
		err = load(r.db(ctx))
	} else {
		err = r.db(ctx).Transaction(load)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to load %s from %s: %w", model, source, err)
	}

	result.Failed = failed.ErrorOrNil()
	zap.L().Info("load finished",
		zap.String("model", model),
		zap.String("source", source),
		zap.Int("rows", result.TotalNonEmptyRows),
		zap.Int("created", len(result.Objects)),
		zap.Int("rejected", len(result.Rejected)),
		zap.Int("failed", len(failed.WrappedErrors())))
	return result, nil
}
