package postgres

import (
	"database/sql"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5/pgconn"

	"github.com/phrazzld/flashlearn-api/internal/store"
)

// PostgreSQL error codes from the SQLSTATE standard.
const (
	// uniqueViolationCode is returned when a unique constraint is violated.
	uniqueViolationCode = "23505"

	// foreignKeyViolationCode is returned when a foreign key constraint is violated.
	foreignKeyViolationCode = "23503"

	// checkViolationCode is returned when a check constraint is violated.
	checkViolationCode = "23514"

	// notNullViolationCode is returned when a not-null constraint is violated.
	notNullViolationCode = "23502"
)

// IsUniqueViolation checks if the given error is a PostgreSQL unique
// constraint violation. When constraintName is non-empty, the violation must
// be on that specific constraint.
func IsUniqueViolation(err error, constraintName string) bool {
	var pgErr *pgconn.PgError
	if !errors.As(err, &pgErr) {
		return false
	}

	if pgErr.Code != uniqueViolationCode {
		return false
	}

	if constraintName != "" {
		return pgErr.ConstraintName == constraintName
	}

	return true
}

// IsForeignKeyViolation checks if the given error is a PostgreSQL foreign key
// constraint violation.
func IsForeignKeyViolation(err error) bool {
	var pgErr *pgconn.PgError
	if !errors.As(err, &pgErr) {
		return false
	}
	return pgErr.Code == foreignKeyViolationCode
}

// IsCheckConstraintViolation checks if the given error is a PostgreSQL check
// constraint violation.
func IsCheckConstraintViolation(err error) bool {
	var pgErr *pgconn.PgError
	if !errors.As(err, &pgErr) {
		return false
	}
	return pgErr.Code == checkViolationCode
}

// IsNotNullViolation checks if the given error is a PostgreSQL not-null
// constraint violation.
func IsNotNullViolation(err error) bool {
	var pgErr *pgconn.PgError
	if !errors.As(err, &pgErr) {
		return false
	}
	return pgErr.Code == notNullViolationCode
}

// MapError translates PostgreSQL driver errors into the store package's
// domain-agnostic error types. It handles common constraint violations and
// not-found conditions, wrapping the original error for context.
func MapError(err error) error {
	if err == nil {
		return nil
	}

	if errors.Is(err, sql.ErrNoRows) {
		return store.ErrNotFound
	}

	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		switch pgErr.Code {
		case uniqueViolationCode:
			return fmt.Errorf("%w: %v", store.ErrDuplicate, err)
		case foreignKeyViolationCode:
			return fmt.Errorf("%w: referenced entity does not exist: %v", store.ErrInvalidEntity, err)
		case checkViolationCode:
			return fmt.Errorf("%w: constraint check failed: %v", store.ErrInvalidEntity, err)
		case notNullViolationCode:
			return fmt.Errorf("%w: required field missing: %v", store.ErrInvalidEntity, err)
		}
	}

	return err
}

// MapUniqueViolation maps a unique constraint violation on the named
// constraint to the given entity-specific error. Any other error is passed
// through MapError.
func MapUniqueViolation(err error, constraintName string, specificError error) error {
	if err == nil {
		return nil
	}

	if IsUniqueViolation(err, constraintName) {
		return fmt.Errorf("%w: %v", specificError, err)
	}

	return MapError(err)
}

// CheckRowsAffected verifies that an UPDATE or DELETE touched at least one
// row, returning notFoundError when it did not.
func CheckRowsAffected(result sql.Result, notFoundError error) error {
	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to get rows affected: %w", err)
	}

	if rowsAffected == 0 {
		return notFoundError
	}

	return nil
}
