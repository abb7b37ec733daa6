package repository

import (
	"errors"
	"strings"

	"github.com/go-sql-driver/mysql"
)

var (
	// ErrInvalidID is returned when an identifier is not a 24-hex object ID.
	ErrInvalidID = errors.New("invalid id format")
	// ErrConstraint is returned when the database rejects a value against the schema.
	ErrConstraint = errors.New("value violates schema constraint")
)

// MySQL server error numbers.
const (
	mysqlDuplicateEntry = 1062
	mysqlDataTooLong    = 1406
	mysqlCheckViolated  = 3819
)

// isDuplicateEntryError checks for a unique-key violation from MySQL (1062) or SQLite.
func isDuplicateEntryError(err error) bool {
	if err == nil {
		return false
	}
	var myErr *mysql.MySQLError
	if errors.As(err, &myErr) {
		return myErr.Number == mysqlDuplicateEntry
	}
	return strings.Contains(err.Error(), "UNIQUE constraint failed")
}

// isConstraintError checks for schema violations other than uniqueness.
func isConstraintError(err error) bool {
	if err == nil {
		return false
	}
	var myErr *mysql.MySQLError
	if errors.As(err, &myErr) {
		return myErr.Number == mysqlDataTooLong || myErr.Number == mysqlCheckViolated
	}
	return strings.Contains(err.Error(), "CHECK constraint failed")
}

// classify maps driver errors onto the repository's sentinel errors.
func classify(err error, duplicate error) error {
	switch {
	case err == nil:
		return nil
	case duplicate != nil && isDuplicateEntryError(err):
		return duplicate
	case isConstraintError(err):
		return errors.Join(ErrConstraint, err)
	default:
		return err
	}
}
