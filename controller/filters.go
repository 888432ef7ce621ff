package controller

import (
	"fmt"
	"net/url"
	"slices"
	"sort"
	"strconv"
	"strings"
	"time"

	"github.com/iancoleman/strcase"
	"go.uber.org/zap"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/Zephony/zephony-go/util"
)

// FieldType decides which operators a filterable field accepts
type FieldType string

const (
	FieldText FieldType = "TEXT"
	FieldInt  FieldType = "INT"
	FieldBool FieldType = "BOOL"
	FieldEnum FieldType = "ENUM"
	FieldDate FieldType = "DATE"
)

// Filter operators, written before the field name in query keys:
// ?contains__name=ada&from__created_at=2024-01-01
const (
	OpEquals      = "equals"
	OpStartsWith  = "starts_with"
	OpEndsWith    = "ends_with"
	OpContains    = "contains"
	OpLesserThan  = "lesser_than"
	OpGreaterThan = "greater_than"
	OpFrom        = "from"
	OpTo          = "to"
)

// Field declares a column clients may filter or sort on. Column defaults
// to the snake_case form of the query name and is used verbatim in SQL, so
// it must come from code and never from the request. Cast compares the
// column as text.
type Field struct {
	Type   FieldType
	Column string
	Cast   bool
}

// Fields maps query names onto filterable columns
type Fields map[string]Field

func (f Fields) column(name string) string {
	if col := f[name].Column; col != "" {
		return col
	}
	return strcase.ToSnake(name)
}

// Condition is one operator applied to a field; its values are OR'd
type Condition struct {
	Operator string
	Values   []string
}

// Filter groups every condition requested for one field
type Filter struct {
	Name       string
	Conditions []Condition
}

// ParseFilters reads filters from query values. A key is either a bare
// field name (equals) or "operator__field". The listing keys page,
// page_size, order_by and reverse are skipped. Output is sorted by field
// name so the generated SQL is stable.
func ParseFilters(values url.Values) []Filter {
	byName := make(map[string][]Condition)
	keys := make([]string, 0, len(values))
	for key := range values {
		keys = append(keys, key)
	}
	sort.Strings(keys)

	for _, key := range keys {
		if slices.Contains(util.ReservedQueryParams, key) {
			continue
		}

		parts := strings.Split(key, "__")
		name := parts[len(parts)-1]
		op := OpEquals
		if len(parts) > 1 {
			op = parts[len(parts)-2]
		}
		byName[name] = append(byName[name], Condition{Operator: op, Values: values[key]})
	}

	names := make([]string, 0, len(byName))
	for name := range byName {
		names = append(names, name)
	}
	sort.Strings(names)

	filters := make([]Filter, 0, len(names))
	for _, name := range names {
		filters = append(filters, Filter{Name: name, Conditions: byName[name]})
	}
	return filters
}

// ApplyFilters adds a WHERE clause per condition. Unknown fields, operators
// the field type does not support and values that cannot be parsed are
// logged and skipped.
func ApplyFilters(q *gorm.DB, fields Fields, filters []Filter) *gorm.DB {
	for _, f := range filters {
		spec, ok := fields[f.Name]
		if !ok {
			zap.L().Warn("invalid filter param, ignoring", zap.String("param", f.Name))
			continue
		}

		col := fields.column(f.Name)
		for _, cond := range f.Conditions {
			exprs := make([]string, 0, len(cond.Values))
			args := make([]any, 0, len(cond.Values))
			for _, v := range cond.Values {
				expr, arg, err := predicate(spec, col, cond.Operator, v)
				if err != nil {
					zap.L().Warn("invalid filter, ignoring",
						zap.String("param", f.Name),
						zap.String("operator", cond.Operator),
						zap.String("value", v),
						zap.Error(err))
					continue
				}
				exprs = append(exprs, expr)
				args = append(args, arg)
			}
			if len(exprs) == 0 {
				continue
			}
			q = q.Where("("+strings.Join(exprs, " OR ")+")", args...)
		}
	}
	return q
}

func predicate(spec Field, col, op, value string) (string, any, error) {
	switch spec.Type {
	case FieldText:
		if spec.Cast {
			col = fmt.Sprintf("CAST(%s AS TEXT)", col)
		}
		lowered := strings.ToLower(value)
		switch op {
		case OpStartsWith:
			return fmt.Sprintf("LOWER(%s) LIKE ?", col), lowered + "%", nil
		case OpEndsWith:
			return fmt.Sprintf("LOWER(%s) LIKE ?", col), "%" + lowered, nil
		case OpContains:
			return fmt.Sprintf("LOWER(%s) LIKE ?", col), "%" + lowered + "%", nil
		case OpEquals:
			return fmt.Sprintf("LOWER(%s) = ?", col), lowered, nil
		}
	case FieldInt:
		n, err := strconv.ParseInt(strings.TrimSpace(value), 10, 64)
		if err != nil {
			return "", nil, fmt.Errorf("not an integer: %w", err)
		}
		switch op {
		case OpLesserThan:
			return col + " < ?", n, nil
		case OpGreaterThan:
			return col + " > ?", n, nil
		case OpEquals:
			return col + " = ?", n, nil
		}
	case FieldBool:
		if op == OpEquals {
			b, err := strconv.ParseBool(strings.TrimSpace(value))
			if err != nil {
				return "", nil, fmt.Errorf("not a boolean: %w", err)
			}
			return col + " = ?", b, nil
		}
	case FieldEnum:
		if op == OpEquals {
			return col + " = ?", value, nil
		}
	case FieldDate:
		day, err := time.Parse("2006-01-02", strings.TrimSpace(value))
		if err != nil {
			return "", nil, fmt.Errorf("date should be yyyy-mm-dd: %w", err)
		}
		arg := day.Format("2006-01-02")
		switch op {
		case OpFrom:
			return fmt.Sprintf("DATE(%s) >= ?", col), arg, nil
		case OpTo:
			return fmt.Sprintf("DATE(%s) <= ?", col), arg, nil
		case OpEquals:
			return fmt.Sprintf("DATE(%s) = ?", col), arg, nil
		}
	default:
		return "", nil, fmt.Errorf("unsupported field type %q", spec.Type)
	}
	return "", nil, fmt.Errorf("operator %q not supported for %s fields", op, spec.Type)
}

// ApplyOrdering sorts by orderBy when it is a declared field. reverse
// sorts descending when it is "1" or "true" in any case.
func ApplyOrdering(q *gorm.DB, fields Fields, orderBy, reverse string) *gorm.DB {
	if orderBy == "" {
		return q
	}
	if _, ok := fields[orderBy]; !ok {
		zap.L().Warn("invalid order_by param, ignoring", zap.String("order_by", orderBy))
		return q
	}

	desc := false
	switch strings.ToLower(reverse) {
	case "1", "true":
		desc = true
	}

	return q.Order(clause.OrderByColumn{
		Column: clause.Column{Name: fields.column(orderBy), Raw: true},
		Desc:   desc,
	})
}

// ApplyPagination limits q to one page. An empty page leaves q
// unpaginated; an invalid page means page 1 and an invalid size means
// util.DefaultPageSize.
func ApplyPagination(q *gorm.DB, page, pageSize string) *gorm.DB {
	if page == "" {
		return q
	}
	p, size := util.NormalizePagination(page, pageSize, util.DefaultPage, util.DefaultPageSize)
	return q.Limit(size).Offset((p - 1) * size)
}
