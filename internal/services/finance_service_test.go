package services

import (
	"bytes"
	"encoding/csv"
	"testing"
	"time"

	"supplestore_backend/internal/models"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/xuri/excelize/v2"
)

func ledger() []models.Transaction {
	day := func(s string) time.Time {
		t, _ := time.Parse("2006-01-02", s)
		return t
	}
	return []models.Transaction{
		{Description: "Pedido #101 - Ana", Category: "Vendas", Type: models.TransactionIncome, Amount: d("1234.5"), Status: models.TransactionPaid, DueDate: day("2025-03-01")},
		{Description: "Aluguel, loja", Category: "Fixos", Type: models.TransactionExpense, Amount: d("800"), Status: models.TransactionPaid, DueDate: day("2025-03-05")},
		{Description: "Fornecedor", Category: "Estoque", Type: models.TransactionExpense, Amount: d("300"), Status: models.TransactionPending, DueDate: day("2025-03-20")},
		{Description: "Venda fiado", Category: "Vendas", Type: models.TransactionIncome, Amount: d("50"), Status: models.TransactionPending, DueDate: day("2025-03-25")},
	}
}

func TestWriteTransactionsCSV(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, WriteTransactionsCSV(&buf, ledger()))

	records, err := csv.NewReader(&buf).ReadAll()
	require.NoError(t, err)
	require.Len(t, records, 5)
	assert.Equal(t, []string{"Data", "Descrição", "Categoria", "Tipo", "Valor", "Status"}, records[0])
	assert.Equal(t, []string{"01/03/2025", "Pedido #101 - Ana", "Vendas", "Receita", "1.234,50", "Pago"}, records[1])
	assert.Equal(t, "Aluguel, loja", records[2][1], "commas in fields are quoted")
	assert.Equal(t, "Despesa", records[3][3])
	assert.Equal(t, "Pendente", records[3][5])
}

func TestWriteTransactionsCSVEmpty(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, WriteTransactionsCSV(&buf, nil))
	assert.Equal(t, "Data,Descrição,Categoria,Tipo,Valor,Status\n", buf.String())
}

func TestWriteTransactionsXLSX(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, WriteTransactionsXLSX(&buf, ledger()))

	f, err := excelize.OpenReader(&buf)
	require.NoError(t, err)
	defer f.Close()

	rows, err := f.GetRows("Financeiro")
	require.NoError(t, err)
	require.Len(t, rows, 5)
	assert.Equal(t, ExportHeader, rows[0])
	assert.Equal(t, "Pedido #101 - Ana", rows[1][1])
	assert.Equal(t, "Receita", rows[1][3])
}

func TestParsePeriod(t *testing.T) {
	p, err := ParsePeriod("2025-03-01", "2025-03-31")
	require.NoError(t, err)
	require.NotNil(t, p.From)
	require.NotNil(t, p.To)

	p, err = ParsePeriod("", "")
	require.NoError(t, err)
	assert.Nil(t, p.From)

	_, err = ParsePeriod("01/03/2025", "")
	assert.ErrorIs(t, err, ErrValidation)

	_, err = ParsePeriod("2025-03-31", "2025-03-01")
	assert.ErrorIs(t, err, ErrValidation)
}

func TestFinanceCreateTransaction(t *testing.T) {
	repo := &fakeTransactionRepo{}
	svc := NewFinanceService(repo, nil).(*financeService)
	fixed := time.Date(2025, 3, 10, 0, 0, 0, 0, time.UTC)
	svc.now = func() time.Time { return fixed }

	tx, err := svc.CreateTransaction(1, TransactionRequest{
		Description: " Luz ", Category: "Fixos", Type: "expense", Amount: d("120.456"), Status: "paid", DueDate: "2025-03-15",
	})
	require.NoError(t, err)
	assert.Equal(t, "Luz", tx.Description)
	assert.Equal(t, "120.46", tx.Amount.StringFixed(2))
	assert.Equal(t, models.CategoryVariable, tx.CategoryType)
	require.NotNil(t, tx.PaymentDate)
	assert.Equal(t, fixed, *tx.PaymentDate)
	require.Len(t, repo.created, 1)

	pending, err := svc.CreateTransaction(1, TransactionRequest{
		Description: "Conta", Category: "Fixos", Type: "expense", Amount: d("10"), DueDate: "2025-03-15", PaymentDate: strPtr("2025-03-10"),
	})
	require.NoError(t, err)
	assert.Equal(t, models.TransactionPending, pending.Status)
	assert.Nil(t, pending.PaymentDate)

	_, err = svc.CreateTransaction(1, TransactionRequest{Description: "x", Category: "y", Type: "income", Amount: d("-1"), DueDate: "2025-03-15"})
	assert.ErrorIs(t, err, ErrValidation)
}

func TestFinanceExportCSVUsesLedger(t *testing.T) {
	repo := &fakeTransactionRepo{list: ledger()[:1]}
	svc := NewFinanceService(repo, nil)

	var buf bytes.Buffer
	require.NoError(t, svc.ExportCSV(&buf, 1, Period{}))
	assert.Contains(t, buf.String(), "01/03/2025,Pedido #101 - Ana,Vendas,Receita,\"1.234,50\",Pago")
}
