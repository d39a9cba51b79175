package gorm

import (
	"errors"
	"fmt"
	"strings"

	"github.com/jackc/pgconn"
	"gorm.io/gorm"

	"github.com/appboardguru/boardguru/pkg/server/store"
)

const uniqueViolation = "23505"

// mapErr translates driver errors into store sentinels.
func mapErr(err error) error {
	if err == nil {
		return nil
	}
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return store.ErrNotFound
	}
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) && pgErr.Code == uniqueViolation {
		return fmt.Errorf("%w: %s", store.ErrConflict, pgErr.ConstraintName)
	}
	return err
}

// affected returns ErrNotFound when a write touched no rows.
func affected(result *gorm.DB) error {
	if result.Error != nil {
		return mapErr(result.Error)
	}
	if result.RowsAffected == 0 {
		return store.ErrNotFound
	}
	return nil
}

// likePattern escapes s for use inside an ILIKE pattern.
func likePattern(s string) string {
	r := strings.NewReplacer(`\`, `\\`, `%`, `\%`, `_`, `\_`)
	return "%" + r.Replace(s) + "%"
}

// listPage counts the rows matched by q, then fetches one page of them.
// sorts maps accepted SortBy values to column names.
func listPage[T any](q *gorm.DB, opts store.ListOptions, sorts map[string]string, defaultOrder string) ([]T, int64, error) {
	q = q.Session(&gorm.Session{})

	var total int64
	if err := q.Count(&total).Error; err != nil {
		return nil, 0, mapErr(err)
	}

	order := defaultOrder
	if col, ok := sorts[opts.SortBy]; ok {
		order = col
		if opts.Desc {
			order += " DESC"
		}
	}

	items := make([]T, 0)
	page := q.Order(order).Offset(opts.Offset)
	if opts.Limit > 0 {
		page = page.Limit(opts.Limit)
	}
	if err := page.Find(&items).Error; err != nil {
		return nil, 0, mapErr(err)
	}
	return items, total, nil
}
