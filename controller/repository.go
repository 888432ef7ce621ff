package controller

import (
	"context"
	"errors"
	"fmt"
	"net/url"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/Zephony/zephony-go/models"
	"github.com/Zephony/zephony-go/util"
)

// Repository provides the generic lookups, listing and seeding shared by
// every model embedding models.BaseModel. Fields lists what List may
// filter and sort on.
type Repository[T any] struct {
	DB     *gorm.DB
	Fields Fields
}

func NewRepository[T any](db *gorm.DB, fields Fields) *Repository[T] {
	return &Repository[T]{DB: db, Fields: fields}
}

func (r *Repository[T]) db(ctx context.Context) *gorm.DB {
	return r.DB.WithContext(ctx)
}

// GetOne looks a row up by integer id or string token. An empty status
// matches rows in any status. A missing row is reported as invalid request
// data on data.id or data.token.
func (r *Repository[T]) GetOne(ctx context.Context, idOrToken any, status string) (*T, error) {
	q := r.db(ctx)
	if status != "" {
		q = q.Where("status = ?", status)
	}

	field := "data.id"
	if id, ok, err := integerKey(idOrToken); err != nil {
		return nil, err
	} else if ok {
		q = q.Where("id = ?", id)
	} else if token, isString := idOrToken.(string); isString {
		field = "data.token"
		q = q.Where("token = ?", token)
	} else {
		return nil, fmt.Errorf("%T: %w", idOrToken, ErrInvalidKey)
	}

	var obj T
	if err := q.Take(&obj).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			name := field[len("data."):]
			return nil, models.NewInvalidRequestData(field, name+" cannot be found")
		}
		return nil, err
	}
	return &obj, nil
}

// integerKey converts the integer kinds accepted as ids. ok is false for
// anything else; negative ids are ErrInvalidKey.
func integerKey(key any) (id uint, ok bool, err error) {
	var n int64
	switch k := key.(type) {
	case int:
		n = int64(k)
	case int32:
		n = int64(k)
	case int64:
		n = k
	case uint:
		return k, true, nil
	case uint32:
		return uint(k), true, nil
	case uint64:
		return uint(k), true, nil
	default:
		return 0, false, nil
	}
	if n < 0 {
		return 0, true, fmt.Errorf("%d: %w", n, ErrInvalidKey)
	}
	return uint(n), true, nil
}

// GetByIDOrToken dispatches to GetByID or GetByToken on the key type
func (r *Repository[T]) GetByIDOrToken(ctx context.Context, idOrToken any) (*T, error) {
	id, ok, err := integerKey(idOrToken)
	switch {
	case err != nil:
		return nil, err
	case ok:
		return r.GetByID(ctx, id)
	}
	if token, isString := idOrToken.(string); isString {
		return r.GetByToken(ctx, token)
	}
	return nil, fmt.Errorf("%T: %w", idOrToken, ErrInvalidKey)
}

func (r *Repository[T]) GetByID(ctx context.Context, id uint) (*T, error) {
	return r.takeOne(r.db(ctx).Where("id = ?", id))
}

func (r *Repository[T]) GetByToken(ctx context.Context, token string) (*T, error) {
	return r.takeOne(r.db(ctx).Where("token = ?", token))
}

// GetAll returns every row with status, or every row when status is empty
func (r *Repository[T]) GetAll(ctx context.Context, status string) ([]*T, error) {
	q := r.db(ctx)
	if status != "" {
		q = q.Where("status = ?", status)
	}
	return r.find(q)
}

func (r *Repository[T]) GetAllActive(ctx context.Context) ([]*T, error) {
	return r.GetAll(ctx, util.StatusActive)
}

// FilterByKeywords returns rows whose columns equal the given values
func (r *Repository[T]) FilterByKeywords(ctx context.Context, filters map[string]any) ([]*T, error) {
	return r.find(r.db(ctx).Where(filters))
}

func (r *Repository[T]) FilterOneByKeywords(ctx context.Context, filters map[string]any) (*T, error) {
	return r.takeOne(r.db(ctx).Where(filters))
}

// FilterByExpressions returns rows matching every expression, e.g.
// clause.Gt{Column: "age", Value: 30}
func (r *Repository[T]) FilterByExpressions(ctx context.Context, exprs ...clause.Expression) ([]*T, error) {
	return r.find(r.db(ctx).Clauses(clause.Where{Exprs: exprs}))
}

func (r *Repository[T]) FilterOneByExpressions(ctx context.Context, exprs ...clause.Expression) (*T, error) {
	return r.takeOne(r.db(ctx).Clauses(clause.Where{Exprs: exprs}))
}

// List applies the filters, ordering and pagination found in values on
// top of the given scopes. Pagination is nil when values carry no page.
func (r *Repository[T]) List(ctx context.Context, values url.Values, scopes ...func(*gorm.DB) *gorm.DB) ([]*T, *models.Pagination, error) {
	q := ApplyFilters(r.db(ctx).Model(new(T)).Scopes(scopes...), r.Fields, ParseFilters(values)).
		Session(&gorm.Session{})

	var total int64
	if err := q.Count(&total).Error; err != nil {
		return nil, nil, fmt.Errorf("failed to count rows: %w", err)
	}

	page := values.Get("page")
	q = ApplyOrdering(q, r.Fields, values.Get("order_by"), values.Get("reverse"))
	q = ApplyPagination(q, page, values.Get("page_size"))

	objs, err := r.find(q)
	if err != nil {
		return nil, nil, err
	}

	if page == "" {
		return objs, nil, nil
	}
	current, size := util.NormalizePagination(page, values.Get("page_size"), util.DefaultPage, util.DefaultPageSize)
	return objs, &models.Pagination{
		CurrentPage:      current,
		StandardPageSize: size,
		TotalPages:       util.TotalPages(total, size),
	}, nil
}

// CountActive counts rows with the active status
func (r *Repository[T]) CountActive(ctx context.Context) (int64, error) {
	var n int64
	err := r.db(ctx).Model(new(T)).Where("status = ?", util.StatusActive).Count(&n).Error
	return n, err
}

func (r *Repository[T]) Create(ctx context.Context, obj *T) error {
	return r.db(ctx).Create(obj).Error
}

func (r *Repository[T]) Save(ctx context.Context, obj *T) error {
	return r.db(ctx).Save(obj).Error
}

// Delete soft deletes obj and persists the change
func (r *Repository[T]) Delete(ctx context.Context, obj *T) error {
	sd, ok := any(obj).(interface{ SoftDelete() })
	if !ok {
		return fmt.Errorf("%T: %w", obj, ErrNotSoftDeletable)
	}
	sd.SoftDelete()
	return r.Save(ctx, obj)
}

func (r *Repository[T]) takeOne(q *gorm.DB) (*T, error) {
	var obj T
	if err := q.Take(&obj).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	return &obj, nil
}

func (r *Repository[T]) find(q *gorm.DB) ([]*T, error) {
	objs := make([]*T, 0)
	if err := q.Find(&objs).Error; err != nil {
		return nil, err
	}
	return objs, nil
}
