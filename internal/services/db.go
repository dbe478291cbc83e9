package services

import (
	"database/sql"

	"supplestore_backend/internal/repositories"
)

// TxBeginner is satisfied by *sql.DB. Services that need transactions depend on it
// so tests can hand in a sqlmock connection.
type TxBeginner interface {
	repositories.SQLExecutor
	Begin() (*sql.Tx, error)
}
