package services

import (
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"strings"
	"time"

	"supplestore_backend/internal/models"
	"supplestore_backend/internal/repositories"
	"supplestore_backend/pkg/utils"

	"github.com/shopspring/decimal"
	"github.com/xuri/excelize/v2"
)

var ErrTransactionNotFound = errors.New("transaction not found")

const dateLayout = "2006-01-02"

// ExportHeader is the column header of the finance CSV and XLSX exports.
var ExportHeader = []string{"Data", "Descrição", "Categoria", "Tipo", "Valor", "Status"}

// TransactionRequest DTO used for create and update.
type TransactionRequest struct {
	Description  string          `json:"description" binding:"required"`
	Category     string          `json:"category" binding:"required"`
	Type         string          `json:"type" binding:"required,oneof=income expense"`
	CategoryType string          `json:"category_type" binding:"omitempty,oneof=fixed variable"`
	Amount       decimal.Decimal `json:"amount"`
	Status       string          `json:"status" binding:"omitempty,oneof=paid pending"`
	DueDate      string          `json:"due_date" binding:"required,datetime=2006-01-02"`
	PaymentDate  *string         `json:"payment_date" binding:"omitempty,datetime=2006-01-02"`
}

// Period is an inclusive due-date window; nil bounds are open.
type Period struct {
	From *time.Time
	To   *time.Time
}

// ParsePeriod reads "YYYY-MM-DD" bounds; empty strings leave the bound open.
func ParsePeriod(from, to string) (Period, error) {
	var p Period
	if from != "" {
		t, err := time.Parse(dateLayout, from)
		if err != nil {
			return p, fmt.Errorf("%w: from must be YYYY-MM-DD", ErrValidation)
		}
		p.From = &t
	}
	if to != "" {
		t, err := time.Parse(dateLayout, to)
		if err != nil {
			return p, fmt.Errorf("%w: to must be YYYY-MM-DD", ErrValidation)
		}
		p.To = &t
	}
	if p.From != nil && p.To != nil && p.To.Before(*p.From) {
		return p, fmt.Errorf("%w: to is before from", ErrValidation)
	}
	return p, nil
}

// FinanceService manages the ledger and its exports.
type FinanceService interface {
	CreateTransaction(storeID int64, req TransactionRequest) (*models.Transaction, error)
	GetTransaction(storeID, id int64) (*models.Transaction, error)
	ListTransactions(storeID int64, filters models.TransactionFilters) ([]models.Transaction, int, error)
	UpdateTransaction(storeID, id int64, req TransactionRequest) (*models.Transaction, error)
	MarkPaid(storeID, id int64, paidOn *time.Time) (*models.Transaction, error)
	DeleteTransaction(storeID, id int64) error
	Summary(storeID int64, period Period) (*models.FinanceSummary, error)
	ExportCSV(w io.Writer, storeID int64, period Period) error
	ExportXLSX(w io.Writer, storeID int64, period Period) error
}

type financeService struct {
	transactionRepo repositories.TransactionRepository
	db              repositories.SQLExecutor
	now             func() time.Time
}

// NewFinanceService creates a new instance of FinanceService.
func NewFinanceService(repo repositories.TransactionRepository, db repositories.SQLExecutor) FinanceService {
	return &financeService{transactionRepo: repo, db: db, now: time.Now}
}

func (s *financeService) fromRequest(storeID int64, req TransactionRequest) (*models.Transaction, error) {
	if !req.Amount.IsPositive() {
		return nil, fmt.Errorf("%w: amount must be positive", ErrValidation)
	}
	due, err := time.Parse(dateLayout, req.DueDate)
	if err != nil {
		return nil, fmt.Errorf("%w: due_date must be YYYY-MM-DD", ErrValidation)
	}
	t := &models.Transaction{
		StoreID:      storeID,
		Description:  strings.TrimSpace(req.Description),
		Category:     strings.TrimSpace(req.Category),
		Type:         models.TransactionType(req.Type),
		CategoryType: models.CategoryVariable,
		Amount:       utils.RoundMoney(req.Amount),
		Status:       models.TransactionPending,
		DueDate:      due,
	}
	if req.CategoryType != "" {
		t.CategoryType = models.TransactionCategoryType(req.CategoryType)
	}
	if req.Status != "" {
		t.Status = models.TransactionStatus(req.Status)
	}
	if req.PaymentDate != nil && *req.PaymentDate != "" {
		paid, err := time.Parse(dateLayout, *req.PaymentDate)
		if err != nil {
			return nil, fmt.Errorf("%w: payment_date must be YYYY-MM-DD", ErrValidation)
		}
		t.PaymentDate = &paid
	}
	if t.Status == models.TransactionPaid && t.PaymentDate == nil {
		today := s.now()
		t.PaymentDate = &today
	}
	if t.Status == models.TransactionPending {
		t.PaymentDate = nil
	}
	return t, nil
}

func (s *financeService) CreateTransaction(storeID int64, req TransactionRequest) (*models.Transaction, error) {
	t, err := s.fromRequest(storeID, req)
	if err != nil {
		return nil, err
	}
	if _, err := s.transactionRepo.CreateTransaction(s.db, t); err != nil {
		return nil, fmt.Errorf("failed to create transaction: %w", err)
	}
	return t, nil
}

func (s *financeService) GetTransaction(storeID, id int64) (*models.Transaction, error) {
	t, err := s.transactionRepo.GetTransactionByID(storeID, id)
	if err != nil {
		if errors.Is(err, repositories.ErrNotFound) {
			return nil, ErrTransactionNotFound
		}
		return nil, fmt.Errorf("failed to get transaction: %w", err)
	}
	return t, nil
}

func (s *financeService) ListTransactions(storeID int64, filters models.TransactionFilters) ([]models.Transaction, int, error) {
	list, total, err := s.transactionRepo.GetTransactions(storeID, filters)
	if err != nil {
		return nil, 0, fmt.Errorf("failed to list transactions: %w", err)
	}
	return list, total, nil
}

func (s *financeService) UpdateTransaction(storeID, id int64, req TransactionRequest) (*models.Transaction, error) {
	existing, err := s.GetTransaction(storeID, id)
	if err != nil {
		return nil, err
	}
	t, err := s.fromRequest(storeID, req)
	if err != nil {
		return nil, err
	}
	t.ID = existing.ID
	t.OrderID = existing.OrderID
	t.CreatedAt = existing.CreatedAt
	if err := s.transactionRepo.UpdateTransaction(s.db, t); err != nil {
		if errors.Is(err, repositories.ErrNotFound) {
			return nil, ErrTransactionNotFound
		}
		return nil, fmt.Errorf("failed to update transaction: %w", err)
	}
	return t, nil
}

func (s *financeService) MarkPaid(storeID, id int64, paidOn *time.Time) (*models.Transaction, error) {
	t, err := s.GetTransaction(storeID, id)
	if err != nil {
		return nil, err
	}
	if paidOn == nil {
		today := s.now()
		paidOn = &today
	}
	t.Status = models.TransactionPaid
	t.PaymentDate = paidOn
	if err := s.transactionRepo.UpdateTransaction(s.db, t); err != nil {
		if errors.Is(err, repositories.ErrNotFound) {
			return nil, ErrTransactionNotFound
		}
		return nil, fmt.Errorf("failed to mark transaction as paid: %w", err)
	}
	return t, nil
}

func (s *financeService) DeleteTransaction(storeID, id int64) error {
	if err := s.transactionRepo.DeleteTransaction(s.db, storeID, id); err != nil {
		if errors.Is(err, repositories.ErrNotFound) {
			return ErrTransactionNotFound
		}
		return fmt.Errorf("failed to delete transaction: %w", err)
	}
	return nil
}

func (s *financeService) Summary(storeID int64, period Period) (*models.FinanceSummary, error) {
	summary, err := s.transactionRepo.GetSummary(storeID, period.From, period.To)
	if err != nil {
		return nil, fmt.Errorf("failed to compute finance summary: %w", err)
	}
	return summary, nil
}

func (s *financeService) exportRows(storeID int64, period Period) ([]models.Transaction, error) {
	list, _, err := s.transactionRepo.GetTransactions(storeID, models.TransactionFilters{From: period.From, To: period.To})
	if err != nil {
		return nil, fmt.Errorf("failed to load transactions for export: %w", err)
	}
	return list, nil
}

func typeLabel(t models.TransactionType) string {
	if t == models.TransactionIncome {
		return "Receita"
	}
	return "Despesa"
}

func statusLabel(s models.TransactionStatus) string {
	if s == models.TransactionPaid {
		return "Pago"
	}
	return "Pendente"
}

// ExportRecord renders one ledger entry as a row of the export.
func ExportRecord(t models.Transaction) []string {
	return []string{
		t.DueDate.Format("02/01/2006"),
		t.Description,
		t.Category,
		typeLabel(t.Type),
		utils.FormatDecimalBR(t.Amount),
		statusLabel(t.Status),
	}
}

// WriteTransactionsCSV writes the header and one row per entry.
func WriteTransactionsCSV(w io.Writer, list []models.Transaction) error {
	cw := csv.NewWriter(w)
	if err := cw.Write(ExportHeader); err != nil {
		return err
	}
	for _, t := range list {
		if err := cw.Write(ExportRecord(t)); err != nil {
			return err
		}
	}
	cw.Flush()
	return cw.Error()
}

func (s *financeService) ExportCSV(w io.Writer, storeID int64, period Period) error {
	list, err := s.exportRows(storeID, period)
	if err != nil {
		return err
	}
	return WriteTransactionsCSV(w, list)
}

// WriteTransactionsXLSX writes the same columns as the CSV export. Amounts stay numeric.
func WriteTransactionsXLSX(w io.Writer, list []models.Transaction) error {
	const sheet = "Financeiro"
	f := excelize.NewFile()
	defer f.Close()

	if err := f.SetSheetName("Sheet1", sheet); err != nil {
		return err
	}
	header := make([]interface{}, len(ExportHeader))
	for i, h := range ExportHeader {
		header[i] = h
	}
	if err := f.SetSheetRow(sheet, "A1", &header); err != nil {
		return err
	}
	for i, t := range list {
		cell, err := excelize.CoordinatesToCellName(1, i+2)
		if err != nil {
			return err
		}
		row := []interface{}{
			t.DueDate.Format("02/01/2006"),
			t.Description,
			t.Category,
			typeLabel(t.Type),
			t.Amount.InexactFloat64(),
			statusLabel(t.Status),
		}
		if err := f.SetSheetRow(sheet, cell, &row); err != nil {
			return err
		}
	}
	if len(list) > 0 {
		style, err := f.NewStyle(&excelize.Style{NumFmt: 4})
		if err != nil {
			return err
		}
		last, _ := excelize.CoordinatesToCellName(5, len(list)+1)
		if err := f.SetCellStyle(sheet, "E2", last, style); err != nil {
			return err
		}
	}
	_ = f.SetColWidth(sheet, "B", "B", 40)
	_, err := f.WriteTo(w)
	return err
}

func (s *financeService) ExportXLSX(w io.Writer, storeID int64, period Period) error {
	list, err := s.exportRows(storeID, period)
	if err != nil {
		return err
	}
	return WriteTransactionsXLSX(w, list)
}
