package handlers

import (
	"errors"
	"net/http"

	"supplestore_backend/internal/middleware"
	"supplestore_backend/internal/models"
	"supplestore_backend/internal/services"
	"supplestore_backend/pkg/utils"

	"github.com/gin-gonic/gin"
)

const maxInvoiceBytes = 10 << 20

// OrderHandler holds the order service.
type OrderHandler struct {
	orderService services.OrderService
}

// NewOrderHandler creates a new OrderHandler.
func NewOrderHandler(os services.OrderService) *OrderHandler {
	return &OrderHandler{orderService: os}
}

func respondOrderError(c *gin.Context, err error, op string) {
	var advErr *services.AdvanceError
	switch {
	case errors.As(err, &advErr):
		apiErr := utils.NewAPIError(http.StatusConflict, utils.ErrCodeConflict, "Order status could not be updated.", advErr.Error())
		if !errors.Is(err, services.ErrOrderStatusChanged) {
			apiErr.StatusCode = http.StatusBadGateway
			apiErr.Code = utils.ErrCodeBadGateway
		}
		utils.RespondWithErrorPayload(c, apiErr, gin.H{"order": advErr.Current})
	case errors.Is(err, services.ErrOrderNotFound):
		utils.RespondWithError(c, utils.NewAPIError(http.StatusNotFound, utils.ErrCodeNotFound, "Order not found.", err.Error()))
	case errors.Is(err, services.ErrValidation):
		utils.RespondValidationFailed(c, err.Error())
	case errors.Is(err, services.ErrMediaUnavailable):
		utils.RespondWithError(c, utils.NewAPIError(http.StatusServiceUnavailable, utils.ErrCodeBadGateway, "File storage is not configured.", err.Error()))
	case errors.Is(err, services.ErrUploadFailed), errors.Is(err, services.ErrOrderUpdateFailed):
		utils.LogError(err, op+": upstream failure")
		utils.RespondWithError(c, utils.NewAPIError(http.StatusBadGateway, utils.ErrCodeBadGateway, "Order could not be saved.", err.Error()))
	default:
		utils.LogError(err, op+": Error from orderService")
		utils.RespondInternal(c, "Failed to process order request.")
	}
}

// GetOrders handles fetching orders with filters
func (h *OrderHandler) GetOrders(c *gin.Context) {
	var filters models.OrderFilters
	if err := c.ShouldBindQuery(&filters); err != nil {
		utils.RespondValidationFailed(c, err.Error())
		return
	}
	page, pageSize, ok := utils.Pagination(c)
	if !ok {
		return
	}
	filters.Page, filters.PageSize = page, pageSize

	orders, totalCount, err := h.orderService.GetOrders(middleware.StoreID(c), filters)
	if err != nil {
		respondOrderError(c, err, "GetOrders")
		return
	}
	if orders == nil { // Ensure we return an empty list instead of null if no orders found
		orders = []models.Order{}
	}
	c.JSON(http.StatusOK, gin.H{
		"data":      orders,
		"total":     totalCount,
		"page":      page,
		"page_size": pageSize,
	})
}

// GetOrder returns an order with its items.
func (h *OrderHandler) GetOrder(c *gin.Context) {
	id, ok := utils.ParamInt64(c, "id")
	if !ok {
		return
	}
	order, err := h.orderService.GetOrderByID(middleware.StoreID(c), id)
	if err != nil {
		respondOrderError(c, err, "GetOrder")
		return
	}
	c.JSON(http.StatusOK, order)
}

// AdvanceOrder moves the order to its next status. Completed orders are returned unchanged.
// On a failed write the response carries the re-read order under "order".
func (h *OrderHandler) AdvanceOrder(c *gin.Context) {
	id, ok := utils.ParamInt64(c, "id")
	if !ok {
		return
	}
	order, err := h.orderService.AdvanceOrderStatus(middleware.StoreID(c), id)
	if err != nil {
		respondOrderError(c, err, "AdvanceOrder")
		return
	}
	c.JSON(http.StatusOK, order)
}

// UpdateOrder edits the customer, address, payment method or notes.
func (h *OrderHandler) UpdateOrder(c *gin.Context) {
	id, ok := utils.ParamInt64(c, "id")
	if !ok {
		return
	}
	var req services.UpdateOrderRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		utils.RespondWithError(c, utils.NewAPIError(http.StatusBadRequest, utils.ErrCodeValidationFailed, "Invalid request payload: "+err.Error(), err.Error()))
		return
	}
	order, err := h.orderService.UpdateOrder(middleware.StoreID(c), id, req)
	if err != nil {
		respondOrderError(c, err, "UpdateOrder")
		return
	}
	c.JSON(http.StatusOK, order)
}

// DeleteOrder removes an order, returning stock for orders not yet completed.
func (h *OrderHandler) DeleteOrder(c *gin.Context) {
	id, ok := utils.ParamInt64(c, "id")
	if !ok {
		return
	}
	if err := h.orderService.DeleteOrder(middleware.StoreID(c), middleware.UserID(c), id); err != nil {
		respondOrderError(c, err, "DeleteOrder")
		return
	}
	c.Status(http.StatusNoContent)
}

// UploadInvoice stores a multipart "file" as the order's invoice.
func (h *OrderHandler) UploadInvoice(c *gin.Context) {
	id, ok := utils.ParamInt64(c, "id")
	if !ok {
		return
	}
	fileHeader, err := c.FormFile("file")
	if err != nil {
		utils.RespondValidationFailed(c, "file is required")
		return
	}
	if fileHeader.Size > maxInvoiceBytes {
		utils.RespondValidationFailed(c, "file must be at most 10MB")
		return
	}
	f, err := fileHeader.Open()
	if err != nil {
		utils.LogError(err, "UploadInvoice: failed to open upload")
		utils.RespondInternal(c, "Failed to read file.")
		return
	}
	defer f.Close()

	order, err := h.orderService.UploadInvoice(c.Request.Context(), middleware.StoreID(c), id, fileHeader.Filename, f)
	if err != nil {
		respondOrderError(c, err, "UploadInvoice")
		return
	}
	c.JSON(http.StatusOK, order)
}
