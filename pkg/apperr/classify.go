package apperr

import (
	"context"
	"database/sql/driver"
	"errors"
	"net"

	"github.com/jackc/pgconn"
	"github.com/lib/pq"
	"gorm.io/gorm"

	"github.com/appboardguru/boardguru/pkg/server/store"
)

// Postgres SQLSTATE codes we classify.
const (
	pgUniqueViolation     = "23505"
	pgForeignKeyViolation = "23503"
	pgCheckViolation      = "23514"
	pgNotNullViolation    = "23502"
	pgQueryCanceled       = "57014"
	pgSerialization       = "40001"
	pgDeadlock            = "40P01"
	pgTooManyConnections  = "53300"
)

// From converts any error into an *Error. It is idempotent.
func From(err error) *Error {
	if err == nil {
		return nil
	}

	var appErr *Error
	if errors.As(err, &appErr) {
		return appErr
	}

	switch {
	case errors.Is(err, store.ErrNotFound), errors.Is(err, gorm.ErrRecordNotFound):
		return &Error{Code: CodeNotFound, Message: "resource not found", Err: err}
	case errors.Is(err, store.ErrConflict):
		return &Error{Code: CodeConflict, Message: "resource already exists", Err: err}
	case errors.Is(err, store.ErrStale):
		return &Error{Code: CodeBusinessRule, Message: "resource was changed by another request", Err: err}
	case errors.Is(err, context.DeadlineExceeded):
		return &Error{Code: CodeDatabaseTimeout, Message: "operation timed out", Err: err}
	case errors.Is(err, context.Canceled):
		return &Error{Code: CodeServiceUnavailable, Message: "request canceled", Err: err}
	case errors.Is(err, driver.ErrBadConn):
		return &Error{Code: CodeDatabaseTimeout, Message: "database connection lost", Err: err}
	}

	if state, ok := sqlState(err); ok {
		return fromSQLState(state, err)
	}

	var netErr net.Error
	if errors.As(err, &netErr) {
		return &Error{Code: CodeNetwork, Message: "upstream network error", Err: err}
	}

	return Internal(err)
}

func sqlState(err error) (string, bool) {
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		return pgErr.Code, true
	}
	var pqErr *pq.Error
	if errors.As(err, &pqErr) {
		return string(pqErr.Code), true
	}
	return "", false
}

func fromSQLState(state string, err error) *Error {
	switch state {
	case pgUniqueViolation:
		return &Error{Code: CodeConflict, Message: "resource already exists", Err: err}
	case pgForeignKeyViolation:
		return &Error{Code: CodeBusinessRule, Message: "referenced resource does not exist", Err: err}
	case pgCheckViolation, pgNotNullViolation:
		return &Error{Code: CodeBusinessRule, Message: "value violates a data constraint", Err: err}
	case pgQueryCanceled, pgSerialization, pgDeadlock, pgTooManyConnections:
		return &Error{Code: CodeDatabaseTimeout, Message: "database temporarily unavailable", Err: err}
	default:
		return &Error{Code: CodeDatabase, Message: "database error", Err: err}
	}
}

// IsRecoverable reports whether err is worth retrying.
func IsRecoverable(err error) bool {
	if err == nil {
		return false
	}
	return From(err).Recoverable()
}
