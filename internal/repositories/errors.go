package repositories

import (
	"database/sql"
	"errors"

	"github.com/lib/pq"
)

var (
	// ErrNotFound is returned when a specific record is not found.
	ErrNotFound = errors.New("requested record not found")

	// ErrDatabaseError is returned for unexpected database errors.
	ErrDatabaseError = errors.New("database error")

	// ErrDuplicateKey is returned when an insert/update violates a unique constraint.
	ErrDuplicateKey = errors.New("duplicate key value violates unique constraint")

	// ErrForeignKey is returned when a referenced row is missing or still referenced.
	ErrForeignKey = errors.New("foreign key constraint violated")

	// ErrNegativeStock is returned when a stock change would take stock below zero.
	ErrNegativeStock = errors.New("stock cannot go below zero")
)

// SQLExecutor defines an interface that can be satisfied by *sql.DB or *sql.Tx
// This allows repository methods to be used within transactions or with a direct DB connection.
type SQLExecutor interface {
	Exec(query string, args ...interface{}) (sql.Result, error)
	QueryRow(query string, args ...interface{}) *sql.Row
	Query(query string, args ...interface{}) (*sql.Rows, error)
}

// scanner is an interface satisfied by *sql.Row and *sql.Rows.
type scanner interface {
	Scan(dest ...interface{}) error
}

func pqErrorName(err error) (string, string) {
	var pqErr *pq.Error
	if errors.As(err, &pqErr) {
		return pqErr.Code.Name(), pqErr.Constraint
	}
	return "", ""
}

func isUniqueViolation(err error) (bool, string) {
	name, constraint := pqErrorName(err)
	return name == "unique_violation", constraint
}

func isForeignKeyViolation(err error) bool {
	name, _ := pqErrorName(err)
	return name == "foreign_key_violation"
}

func checkRowsAffected(result sql.Result) error {
	n, err := result.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		return ErrNotFound
	}
	return nil
}

func offsetFor(page, pageSize int) int {
	if page < 1 {
		page = 1
	}
	return (page - 1) * pageSize
}
