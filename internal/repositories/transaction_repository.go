package repositories

import (
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	"supplestore_backend/internal/models"
)

// TransactionRepository persists the finance ledger.
type TransactionRepository interface {
	CreateTransaction(executor SQLExecutor, tx *models.Transaction) (int64, error)
	GetTransactionByID(storeID, id int64) (*models.Transaction, error)
	GetTransactions(storeID int64, filters models.TransactionFilters) ([]models.Transaction, int, error)
	UpdateTransaction(executor SQLExecutor, tx *models.Transaction) error
	DeleteTransaction(executor SQLExecutor, storeID, id int64) error
	GetSummary(storeID int64, from, to *time.Time) (*models.FinanceSummary, error)
}

type transactionRepository struct {
	db *sql.DB
}

// NewTransactionRepository creates a new instance of TransactionRepository.
func NewTransactionRepository(db *sql.DB) TransactionRepository {
	return &transactionRepository{db: db}
}

const transactionColumns = `id, store_id, order_id, description, category, type, category_type, amount, status,
	due_date, payment_date, created_at, updated_at`

func scanTransaction(row scanner, extra ...interface{}) (*models.Transaction, error) {
	t := &models.Transaction{}
	dest := []interface{}{&t.ID, &t.StoreID, &t.OrderID, &t.Description, &t.Category, &t.Type, &t.CategoryType,
		&t.Amount, &t.Status, &t.DueDate, &t.PaymentDate, &t.CreatedAt, &t.UpdatedAt}
	if err := row.Scan(append(dest, extra...)...); err != nil {
		return nil, err
	}
	return t, nil
}

func (r *transactionRepository) CreateTransaction(executor SQLExecutor, tx *models.Transaction) (int64, error) {
	query := `INSERT INTO transactions
	            (store_id, order_id, description, category, type, category_type, amount, status, due_date, payment_date, created_at, updated_at)
	          VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $11)
	          RETURNING id`
	now := time.Now()
	err := executor.QueryRow(query, tx.StoreID, tx.OrderID, tx.Description, tx.Category, tx.Type, tx.CategoryType,
		tx.Amount, tx.Status, tx.DueDate, tx.PaymentDate, now).Scan(&tx.ID)
	if err != nil {
		return 0, fmt.Errorf("%w: creating transaction: %v", ErrDatabaseError, err)
	}
	tx.CreatedAt, tx.UpdatedAt = now, now
	return tx.ID, nil
}

func (r *transactionRepository) GetTransactionByID(storeID, id int64) (*models.Transaction, error) {
	t, err := scanTransaction(r.db.QueryRow(`SELECT `+transactionColumns+` FROM transactions WHERE store_id = $1 AND id = $2`, storeID, id))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("%w: getting transaction by ID %d: %v", ErrDatabaseError, id, err)
	}
	return t, nil
}

func periodConditions(from, to *time.Time, argCounter int) ([]string, []interface{}, int) {
	var conditions []string
	var args []interface{}
	if from != nil {
		conditions = append(conditions, fmt.Sprintf("due_date >= $%d", argCounter))
		args = append(args, *from)
		argCounter++
	}
	if to != nil {
		conditions = append(conditions, fmt.Sprintf("due_date <= $%d", argCounter))
		args = append(args, *to)
		argCounter++
	}
	return conditions, args, argCounter
}

func (r *transactionRepository) GetTransactions(storeID int64, filters models.TransactionFilters) ([]models.Transaction, int, error) {
	transactions := []models.Transaction{}
	totalCount := 0

	conditions := []string{"store_id = $1"}
	args := []interface{}{storeID}
	periodConds, periodArgs, argCounter := periodConditions(filters.From, filters.To, 2)
	conditions = append(conditions, periodConds...)
	args = append(args, periodArgs...)

	if filters.Type != nil {
		conditions = append(conditions, fmt.Sprintf("type = $%d", argCounter))
		args = append(args, *filters.Type)
		argCounter++
	}
	if filters.Status != nil {
		conditions = append(conditions, fmt.Sprintf("status = $%d", argCounter))
		args = append(args, *filters.Status)
		argCounter++
	}

	var queryBuilder strings.Builder
	queryBuilder.WriteString(`SELECT ` + transactionColumns + `, COUNT(*) OVER() AS total_count FROM transactions`)
	queryBuilder.WriteString(" WHERE " + strings.Join(conditions, " AND "))
	queryBuilder.WriteString(" ORDER BY due_date DESC, id DESC")
	if filters.PageSize > 0 {
		queryBuilder.WriteString(fmt.Sprintf(" LIMIT $%d OFFSET $%d", argCounter, argCounter+1))
		args = append(args, filters.PageSize, offsetFor(filters.Page, filters.PageSize))
	}

	rows, err := r.db.Query(queryBuilder.String(), args...)
	if err != nil {
		return nil, 0, fmt.Errorf("%w: querying transactions: %v", ErrDatabaseError, err)
	}
	defer rows.Close()
	for rows.Next() {
		t, err := scanTransaction(rows, &totalCount)
		if err != nil {
			return nil, 0, fmt.Errorf("%w: scanning transaction: %v", ErrDatabaseError, err)
		}
		transactions = append(transactions, *t)
	}
	if err = rows.Err(); err != nil {
		return nil, 0, fmt.Errorf("%w: iterating transaction rows: %v", ErrDatabaseError, err)
	}
	return transactions, totalCount, nil
}

func (r *transactionRepository) UpdateTransaction(executor SQLExecutor, tx *models.Transaction) error {
	query := `UPDATE transactions SET description = $1, category = $2, type = $3, category_type = $4, amount = $5,
	            status = $6, due_date = $7, payment_date = $8, updated_at = $9
	          WHERE id = $10 AND store_id = $11`
	tx.UpdatedAt = time.Now()
	result, err := executor.Exec(query, tx.Description, tx.Category, tx.Type, tx.CategoryType, tx.Amount,
		tx.Status, tx.DueDate, tx.PaymentDate, tx.UpdatedAt, tx.ID, tx.StoreID)
	if err != nil {
		return fmt.Errorf("%w: updating transaction ID %d: %v", ErrDatabaseError, tx.ID, err)
	}
	return checkRowsAffected(result)
}

func (r *transactionRepository) DeleteTransaction(executor SQLExecutor, storeID, id int64) error {
	result, err := executor.Exec(`DELETE FROM transactions WHERE id = $1 AND store_id = $2`, id, storeID)
	if err != nil {
		return fmt.Errorf("%w: deleting transaction ID %d: %v", ErrDatabaseError, id, err)
	}
	return checkRowsAffected(result)
}

// GetSummary aggregates the ledger over an optional due_date window.
func (r *transactionRepository) GetSummary(storeID int64, from, to *time.Time) (*models.FinanceSummary, error) {
	conditions := []string{"store_id = $1"}
	args := []interface{}{storeID}
	periodConds, periodArgs, _ := periodConditions(from, to, 2)
	conditions = append(conditions, periodConds...)
	args = append(args, periodArgs...)

	query := `SELECT
	    COALESCE(SUM(amount) FILTER (WHERE type = 'income' AND status = 'paid'), 0),
	    COALESCE(SUM(amount) FILTER (WHERE type = 'expense' AND status = 'paid'), 0),
	    COALESCE(SUM(amount) FILTER (WHERE type = 'income' AND status = 'pending'), 0),
	    COALESCE(SUM(amount) FILTER (WHERE type = 'expense' AND status = 'pending'), 0)
	  FROM transactions WHERE ` + strings.Join(conditions, " AND ")

	s := &models.FinanceSummary{}
	if err := r.db.QueryRow(query, args...).Scan(&s.Income, &s.Expense, &s.ToReceive, &s.ToPay); err != nil {
		return nil, fmt.Errorf("%w: computing finance summary: %v", ErrDatabaseError, err)
	}
	s.Balance = s.Income.Sub(s.Expense)
	return s, nil
}
