package database

import (
	"context"
	"database/sql"
	"errors"

	"github.com/jackc/pgx/v5/pgconn"
	"github.com/lib/pq"
)

// Kind tags persistence failures so callers can branch without inspecting driver errors.
type Kind int

const (
	KindUnknown Kind = iota
	KindNotFound
	KindUniqueViolation
	KindForeignKeyViolation
	KindTimeout
)

func (k Kind) String() string {
	switch k {
	case KindNotFound:
		return "not_found"
	case KindUniqueViolation:
		return "unique_violation"
	case KindForeignKeyViolation:
		return "foreign_key_violation"
	case KindTimeout:
		return "timeout"
	default:
		return "unknown"
	}
}

// SQLSTATE codes handled by KindOf.
const (
	codeUniqueViolation     = "23505"
	codeForeignKeyViolation = "23503"
	codeQueryCanceled       = "57014"
)

// KindOf classifies err. A nil error is KindUnknown.
func KindOf(err error) Kind {
	if err == nil {
		return KindUnknown
	}
	if errors.Is(err, sql.ErrNoRows) {
		return KindNotFound
	}
	if errors.Is(err, context.DeadlineExceeded) {
		return KindTimeout
	}

	var pqErr *pq.Error
	if errors.As(err, &pqErr) {
		return kindFromCode(string(pqErr.Code))
	}
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		return kindFromCode(pgErr.Code)
	}
	return KindUnknown
}

// IsNotFound reports whether err means the row does not exist.
func IsNotFound(err error) bool {
	return KindOf(err) == KindNotFound
}

func kindFromCode(code string) Kind {
	switch code {
	case codeUniqueViolation:
		return KindUniqueViolation
	case codeForeignKeyViolation:
		return KindForeignKeyViolation
	case codeQueryCanceled:
		return KindTimeout
	default:
		return KindUnknown
	}
}
