package repositories

import (
	"errors"
	"regexp"
	"strings"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// Columns are scanned in this order: paid income, paid expense, pending income, pending expense.
var summaryQuery = `(?s)` + strings.Join([]string{
	regexp.QuoteMeta(`SUM(amount) FILTER (WHERE type = 'income' AND status = 'paid')`),
	regexp.QuoteMeta(`SUM(amount) FILTER (WHERE type = 'expense' AND status = 'paid')`),
	regexp.QuoteMeta(`SUM(amount) FILTER (WHERE type = 'income' AND status = 'pending')`),
	regexp.QuoteMeta(`SUM(amount) FILTER (WHERE type = 'expense' AND status = 'pending')`),
	regexp.QuoteMeta(`FROM transactions WHERE store_id = $1`),
}, `.*`)

func summaryRows(income, expense, toReceive, toPay string) *sqlmock.Rows {
	return sqlmock.NewRows([]string{"income", "expense", "to_receive", "to_pay"}).
		AddRow(income, expense, toReceive, toPay)
}

func TestGetSummary(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()
	repo := NewTransactionRepository(db)

	t.Run("balance counts paid entries only", func(t *testing.T) {
		mock.ExpectQuery(summaryQuery).WithArgs(1).
			WillReturnRows(summaryRows("1234.50", "800.00", "50.00", "300.00"))

		s, err := repo.GetSummary(1, nil, nil)
		require.NoError(t, err)
		assert.Equal(t, "1234.50", s.Income.StringFixed(2))
		assert.Equal(t, "800.00", s.Expense.StringFixed(2))
		assert.Equal(t, "434.50", s.Balance.StringFixed(2))
		assert.Equal(t, "50.00", s.ToReceive.StringFixed(2))
		assert.Equal(t, "300.00", s.ToPay.StringFixed(2))
	})

	t.Run("negative balance", func(t *testing.T) {
		mock.ExpectQuery(summaryQuery).WithArgs(1).
			WillReturnRows(summaryRows("100", "250.75", "0", "0"))

		s, err := repo.GetSummary(1, nil, nil)
		require.NoError(t, err)
		assert.True(t, s.Balance.Equal(decimal.RequireFromString("-150.75")))
	})

	t.Run("period bounds filter on due date", func(t *testing.T) {
		from := time.Date(2025, 3, 1, 0, 0, 0, 0, time.UTC)
		to := time.Date(2025, 3, 31, 0, 0, 0, 0, time.UTC)
		mock.ExpectQuery(summaryQuery+regexp.QuoteMeta(` AND due_date >= $2 AND due_date <= $3`)).
			WithArgs(1, from, to).
			WillReturnRows(summaryRows("0", "0", "0", "0"))

		s, err := repo.GetSummary(1, &from, &to)
		require.NoError(t, err)
		assert.True(t, s.Balance.IsZero())
	})

	t.Run("database failure", func(t *testing.T) {
		mock.ExpectQuery(summaryQuery).WillReturnError(errors.New("connection reset"))
		_, err := repo.GetSummary(1, nil, nil)
		assert.ErrorIs(t, err, ErrDatabaseError)
	})

	assert.NoError(t, mock.ExpectationsWereMet())
}
