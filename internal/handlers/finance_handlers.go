package handlers

import (
	"bytes"
	"errors"
	"fmt"
	"net/http"
	"time"

	"supplestore_backend/internal/middleware"
	"supplestore_backend/internal/models"
	"supplestore_backend/internal/services"
	"supplestore_backend/pkg/utils"

	"github.com/gin-gonic/gin"
)

const xlsxContentType = "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet"

// FinanceHandler holds the finance service.
type FinanceHandler struct {
	financeService services.FinanceService
}

// NewFinanceHandler creates a new FinanceHandler.
func NewFinanceHandler(fs services.FinanceService) *FinanceHandler {
	return &FinanceHandler{financeService: fs}
}

type markPaidRequest struct {
	PaymentDate *string `json:"payment_date" binding:"omitempty,datetime=2006-01-02"`
}

func respondFinanceError(c *gin.Context, err error, op string) {
	switch {
	case errors.Is(err, services.ErrTransactionNotFound):
		utils.RespondWithError(c, utils.NewAPIError(http.StatusNotFound, utils.ErrCodeNotFound, "Transaction not found.", err.Error()))
	case errors.Is(err, services.ErrValidation):
		utils.RespondValidationFailed(c, err.Error())
	default:
		utils.LogError(err, op+": Error from financeService")
		utils.RespondInternal(c, "Failed to process finance request.")
	}
}

// period reads the from/to query bounds; it writes the error response itself.
func period(c *gin.Context) (services.Period, bool) {
	p, err := services.ParsePeriod(c.Query("from"), c.Query("to"))
	if err != nil {
		utils.RespondValidationFailed(c, err.Error())
		return p, false
	}
	return p, true
}

// CreateTransaction records an income or expense.
func (h *FinanceHandler) CreateTransaction(c *gin.Context) {
	var req services.TransactionRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		utils.RespondWithError(c, utils.NewAPIError(http.StatusBadRequest, utils.ErrCodeValidationFailed, "Invalid request payload: "+err.Error(), err.Error()))
		return
	}
	t, err := h.financeService.CreateTransaction(middleware.StoreID(c), req)
	if err != nil {
		respondFinanceError(c, err, "CreateTransaction")
		return
	}
	c.JSON(http.StatusCreated, t)
}

// ListTransactions filters by from, to, type and status.
func (h *FinanceHandler) ListTransactions(c *gin.Context) {
	p, ok := period(c)
	if !ok {
		return
	}
	page, pageSize, ok := utils.Pagination(c)
	if !ok {
		return
	}
	filters := models.TransactionFilters{From: p.From, To: p.To, Page: page, PageSize: pageSize}
	if raw := c.Query("type"); raw != "" {
		t := models.TransactionType(raw)
		if t != models.TransactionIncome && t != models.TransactionExpense {
			utils.RespondValidationFailed(c, "type must be income or expense")
			return
		}
		filters.Type = &t
	}
	if raw := c.Query("status"); raw != "" {
		s := models.TransactionStatus(raw)
		if s != models.TransactionPaid && s != models.TransactionPending {
			utils.RespondValidationFailed(c, "status must be paid or pending")
			return
		}
		filters.Status = &s
	}

	list, total, err := h.financeService.ListTransactions(middleware.StoreID(c), filters)
	if err != nil {
		respondFinanceError(c, err, "ListTransactions")
		return
	}
	if list == nil {
		list = []models.Transaction{}
	}
	c.JSON(http.StatusOK, gin.H{"data": list, "total": total, "page": page, "page_size": pageSize})
}

func (h *FinanceHandler) GetTransaction(c *gin.Context) {
	id, ok := utils.ParamInt64(c, "id")
	if !ok {
		return
	}
	t, err := h.financeService.GetTransaction(middleware.StoreID(c), id)
	if err != nil {
		respondFinanceError(c, err, "GetTransaction")
		return
	}
	c.JSON(http.StatusOK, t)
}

// UpdateTransaction replaces a ledger entry.
func (h *FinanceHandler) UpdateTransaction(c *gin.Context) {
	id, ok := utils.ParamInt64(c, "id")
	if !ok {
		return
	}
	var req services.TransactionRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		utils.RespondWithError(c, utils.NewAPIError(http.StatusBadRequest, utils.ErrCodeValidationFailed, "Invalid request payload: "+err.Error(), err.Error()))
		return
	}
	t, err := h.financeService.UpdateTransaction(middleware.StoreID(c), id, req)
	if err != nil {
		respondFinanceError(c, err, "UpdateTransaction")
		return
	}
	c.JSON(http.StatusOK, t)
}

// MarkPaid settles a pending entry, on payment_date or today.
func (h *FinanceHandler) MarkPaid(c *gin.Context) {
	id, ok := utils.ParamInt64(c, "id")
	if !ok {
		return
	}
	var req markPaidRequest
	if c.Request.ContentLength > 0 {
		if err := c.ShouldBindJSON(&req); err != nil {
			utils.RespondWithError(c, utils.NewAPIError(http.StatusBadRequest, utils.ErrCodeValidationFailed, "Invalid request payload: "+err.Error(), err.Error()))
			return
		}
	}
	var paidOn *time.Time
	if req.PaymentDate != nil {
		d, _ := time.Parse("2006-01-02", *req.PaymentDate)
		paidOn = &d
	}
	t, err := h.financeService.MarkPaid(middleware.StoreID(c), id, paidOn)
	if err != nil {
		respondFinanceError(c, err, "MarkPaid")
		return
	}
	c.JSON(http.StatusOK, t)
}

func (h *FinanceHandler) DeleteTransaction(c *gin.Context) {
	id, ok := utils.ParamInt64(c, "id")
	if !ok {
		return
	}
	if err := h.financeService.DeleteTransaction(middleware.StoreID(c), id); err != nil {
		respondFinanceError(c, err, "DeleteTransaction")
		return
	}
	c.Status(http.StatusNoContent)
}

// Summary returns income, expense, balance, to_receive and to_pay for the period.
func (h *FinanceHandler) Summary(c *gin.Context) {
	p, ok := period(c)
	if !ok {
		return
	}
	summary, err := h.financeService.Summary(middleware.StoreID(c), p)
	if err != nil {
		respondFinanceError(c, err, "Summary")
		return
	}
	c.JSON(http.StatusOK, summary)
}

func exportFilename(ext string) string {
	return fmt.Sprintf("financeiro-%s.%s", time.Now().Format("2006-01-02"), ext)
}

// ExportCSV streams the ledger as text/csv.
func (h *FinanceHandler) ExportCSV(c *gin.Context) {
	p, ok := period(c)
	if !ok {
		return
	}
	var buf bytes.Buffer
	if err := h.financeService.ExportCSV(&buf, middleware.StoreID(c), p); err != nil {
		respondFinanceError(c, err, "ExportCSV")
		return
	}
	c.Header("Content-Disposition", fmt.Sprintf(`attachment; filename="%s"`, exportFilename("csv")))
	c.Data(http.StatusOK, "text/csv; charset=utf-8", buf.Bytes())
}

// ExportXLSX returns the same rows as a spreadsheet.
func (h *FinanceHandler) ExportXLSX(c *gin.Context) {
	p, ok := period(c)
	if !ok {
		return
	}
	var buf bytes.Buffer
	if err := h.financeService.ExportXLSX(&buf, middleware.StoreID(c), p); err != nil {
		respondFinanceError(c, err, "ExportXLSX")
		return
	}
	c.Header("Content-Disposition", fmt.Sprintf(`attachment; filename="%s"`, exportFilename("xlsx")))
	c.Data(http.StatusOK, xlsxContentType, buf.Bytes())
}
