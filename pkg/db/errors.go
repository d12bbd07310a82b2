package db

import (
	"errors"
	"strings"

	"github.com/jackc/pgx/v5/pgconn"
	"github.com/lib/pq"
	"gorm.io/gorm"
)

const (
	pgUniqueViolation     = "23505"
	pgForeignKeyViolation = "23503"
)

// IsUniqueViolation reports whether err is a unique constraint violation.
// When constraintHint is provided the constraint name (or, for drivers that
// do not expose it, the error text) must contain the hint as well.
func IsUniqueViolation(err error, constraintHint string) bool {
	return matchConstraint(err, pgUniqueViolation, constraintHint,
		"duplicate key value", "UNIQUE constraint failed")
}

// IsForeignKeyViolation reports whether err is a foreign key violation.
func IsForeignKeyViolation(err error, constraintHint string) bool {
	return matchConstraint(err, pgForeignKeyViolation, constraintHint,
		"violates foreign key constraint", "FOREIGN KEY constraint failed")
}

// IsNotFound reports whether err is gorm's record not found sentinel.
func IsNotFound(err error) bool {
	return errors.Is(err, gorm.ErrRecordNotFound)
}

func matchConstraint(err error, sqlState, hint string, fallbacks ...string) bool {
	if err == nil {
		return false
	}

	var pgxErr *pgconn.PgError
	if errors.As(err, &pgxErr) {
		return pgxErr.Code == sqlState && containsHint(pgxErr.ConstraintName+" "+pgxErr.Message, hint)
	}

	var pqErr *pq.Error
	if errors.As(err, &pqErr) {
		return string(pqErr.Code) == sqlState && containsHint(pqErr.Constraint+" "+pqErr.Message, hint)
	}

	msg := err.Error()
	for _, fallback := range fallbacks {
		if strings.Contains(msg, fallback) {
			return containsHint(msg, hint)
		}
	}
	return false
}

func containsHint(text, hint string) bool {
	if hint == "" {
		return true
	}
	return strings.Contains(text, hint)
}
