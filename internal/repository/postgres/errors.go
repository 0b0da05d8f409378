package postgres

import (
	"database/sql"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5/pgconn"

	"docvault/internal/errs"
)

// SQLSTATE codes treated as retryable transaction conflicts.
const (
	codeSerializationFailure = "40001"
	codeDeadlockDetected     = "40P01"
	codeUniqueViolation      = "23505"
)

// IsNoRowsError reports whether err is sql.ErrNoRows.
func IsNoRowsError(err error) bool {
	return errors.Is(err, sql.ErrNoRows)
}

func isConflict(err error) bool {
	var pg *pgconn.PgError
	if !errors.As(err, &pg) {
		return false
	}
	switch pg.Code {
	case codeSerializationFailure, codeDeadlockDetected, codeUniqueViolation:
		return true
	}
	return false
}

// dbErr maps a driver error onto the errs taxonomy.
func dbErr(op string, err error) error {
	switch {
	case err == nil:
		return nil
	case IsNoRowsError(err):
		return fmt.Errorf("%s: %w", op, errs.ErrNotFound)
	case isConflict(err):
		return fmt.Errorf("%s: %w: %w", op, errs.ErrConflict, err)
	default:
		return fmt.Errorf("%s: %w: %w", op, errs.ErrPersistence, err)
	}
}

type scanner interface {
	Scan(dest ...any) error
}
