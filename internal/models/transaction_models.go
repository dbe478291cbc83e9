package models

import (
	"time"

	"github.com/shopspring/decimal"
)

type TransactionType string

const (
	TransactionIncome  TransactionType = "income"
	TransactionExpense TransactionType = "expense"
)

type TransactionCategoryType string

const (
	CategoryFixed    TransactionCategoryType = "fixed"
	CategoryVariable TransactionCategoryType = "variable"
)

type TransactionStatus string

const (
	TransactionPaid    TransactionStatus = "paid"
	TransactionPending TransactionStatus = "pending"
)

// Transaction is one finance ledger entry.
type Transaction struct {
	ID           int64                   `json:"id"`
	StoreID      int64                   `json:"store_id"`
	OrderID      *int64                  `json:"order_id,omitempty"`
	Description  string                  `json:"description"`
	Category     string                  `json:"category"`
	Type         TransactionType         `json:"type"`
	CategoryType TransactionCategoryType `json:"category_type"`
	Amount       decimal.Decimal         `json:"amount"`
	Status       TransactionStatus       `json:"status"`
	DueDate      time.Time               `json:"due_date"`
	PaymentDate  *time.Time              `json:"payment_date,omitempty"`
	CreatedAt    time.Time               `json:"created_at"`
	UpdatedAt    time.Time               `json:"updated_at"`
}

// TransactionFilters narrows ledger listings; dates are inclusive YYYY-MM-DD bounds on due_date.
type TransactionFilters struct {
	From     *time.Time
	To       *time.Time
	Type     *TransactionType
	Status   *TransactionStatus
	Page     int
	PageSize int
}

// FinanceSummary aggregates the ledger. Balance only counts paid entries.
type FinanceSummary struct {
	Income    decimal.Decimal `json:"income"`
	Expense   decimal.Decimal `json:"expense"`
	Balance   decimal.Decimal `json:"balance"`
	ToReceive decimal.Decimal `json:"to_receive"`
	ToPay     decimal.Decimal `json:"to_pay"`
}
