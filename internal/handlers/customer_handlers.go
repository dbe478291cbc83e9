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

// CustomerHandler holds the customer service.
type CustomerHandler struct {
	customerService services.CustomerService
}

// NewCustomerHandler creates a new CustomerHandler.
func NewCustomerHandler(cs services.CustomerService) *CustomerHandler {
	return &CustomerHandler{customerService: cs}
}

func respondCustomerError(c *gin.Context, err error, op string) {
	if errors.Is(err, services.ErrCustomerNotFound) {
		utils.RespondWithError(c, utils.NewAPIError(http.StatusNotFound, utils.ErrCodeNotFound, "Customer not found.", err.Error()))
	} else if errors.Is(err, services.ErrPhoneExists) {
		utils.RespondWithError(c, utils.NewAPIError(http.StatusConflict, utils.ErrCodeConflict, "Phone number already exists.", err.Error()))
	} else if errors.Is(err, services.ErrValidation) {
		utils.RespondValidationFailed(c, err.Error())
	} else {
		utils.LogError(err, op+": Error from customerService")
		utils.RespondInternal(c, "Failed to process customer request.")
	}
}

// CreateCustomer handles customer creation.
func (h *CustomerHandler) CreateCustomer(c *gin.Context) {
	var req services.CreateCustomerRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		utils.RespondWithError(c, utils.NewAPIError(http.StatusBadRequest, utils.ErrCodeValidationFailed, "Invalid request payload: "+err.Error(), err.Error()))
		return
	}
	customer, err := h.customerService.CreateCustomer(middleware.StoreID(c), req)
	if err != nil {
		respondCustomerError(c, err, "CreateCustomer")
		return
	}
	c.JSON(http.StatusCreated, customer)
}

// GetCustomers lists customers; search matches name or phone.
func (h *CustomerHandler) GetCustomers(c *gin.Context) {
	page, pageSize, ok := utils.Pagination(c)
	if !ok {
		return
	}
	customers, total, err := h.customerService.GetCustomers(middleware.StoreID(c), c.Query("search"), page, pageSize)
	if err != nil {
		respondCustomerError(c, err, "GetCustomers")
		return
	}
	if customers == nil {
		customers = []models.Customer{}
	}
	c.JSON(http.StatusOK, gin.H{"data": customers, "total": total, "page": page, "page_size": pageSize})
}

// GetCustomer returns one customer.
func (h *CustomerHandler) GetCustomer(c *gin.Context) {
	id, ok := utils.ParamInt64(c, "id")
	if !ok {
		return
	}
	customer, err := h.customerService.GetCustomerByID(middleware.StoreID(c), id)
	if err != nil {
		respondCustomerError(c, err, "GetCustomer")
		return
	}
	c.JSON(http.StatusOK, customer)
}

// UpdateCustomer applies a partial update.
func (h *CustomerHandler) UpdateCustomer(c *gin.Context) {
	id, ok := utils.ParamInt64(c, "id")
	if !ok {
		return
	}
	var req services.UpdateCustomerRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		utils.RespondWithError(c, utils.NewAPIError(http.StatusBadRequest, utils.ErrCodeValidationFailed, "Invalid request payload: "+err.Error(), err.Error()))
		return
	}
	customer, err := h.customerService.UpdateCustomer(middleware.StoreID(c), id, req)
	if err != nil {
		respondCustomerError(c, err, "UpdateCustomer")
		return
	}
	c.JSON(http.StatusOK, customer)
}

// DeleteCustomer removes a customer.
func (h *CustomerHandler) DeleteCustomer(c *gin.Context) {
	id, ok := utils.ParamInt64(c, "id")
	if !ok {
		return
	}
	if err := h.customerService.DeleteCustomer(middleware.StoreID(c), id); err != nil {
		respondCustomerError(c, err, "DeleteCustomer")
		return
	}
	c.Status(http.StatusNoContent)
}
