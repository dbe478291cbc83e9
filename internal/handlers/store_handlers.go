package handlers

import (
	"errors"
	"net/http"

	"supplestore_backend/internal/middleware"
	"supplestore_backend/internal/services"
	"supplestore_backend/pkg/utils"

	"github.com/gin-gonic/gin"
)

// StoreHandler serves the merchant's store settings.
type StoreHandler struct {
	storeService services.StoreService
}

// NewStoreHandler creates a new StoreHandler.
func NewStoreHandler(ss services.StoreService) *StoreHandler {
	return &StoreHandler{storeService: ss}
}

// GetStore returns the authenticated merchant's store.
func (h *StoreHandler) GetStore(c *gin.Context) {
	store, err := h.storeService.GetStore(middleware.StoreID(c))
	if err != nil {
		if errors.Is(err, services.ErrStoreNotFound) {
			utils.RespondWithError(c, utils.NewAPIError(http.StatusNotFound, utils.ErrCodeNotFound, "Store not found.", err.Error()))
			return
		}
		utils.LogError(err, "GetStore: Error from storeService.GetStore")
		utils.RespondInternal(c, "Failed to retrieve store.")
		return
	}
	c.JSON(http.StatusOK, store)
}

// UpdateStore applies a partial update to the store settings.
func (h *StoreHandler) UpdateStore(c *gin.Context) {
	var req services.UpdateStoreRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		utils.RespondWithError(c, utils.NewAPIError(http.StatusBadRequest, utils.ErrCodeValidationFailed, "Invalid request payload: "+err.Error(), err.Error()))
		return
	}

	store, err := h.storeService.UpdateStore(middleware.StoreID(c), req)
	if err != nil {
		switch {
		case errors.Is(err, services.ErrStoreNotFound):
			utils.RespondWithError(c, utils.NewAPIError(http.StatusNotFound, utils.ErrCodeNotFound, "Store not found.", err.Error()))
		case errors.Is(err, services.ErrSlugTaken):
			utils.RespondWithError(c, utils.NewAPIError(http.StatusConflict, utils.ErrCodeConflict, "Store address already taken.", err.Error()))
		case errors.Is(err, services.ErrValidation):
			utils.RespondValidationFailed(c, err.Error())
		default:
			utils.LogError(err, "UpdateStore: Error from storeService.UpdateStore")
			utils.RespondInternal(c, "Failed to update store.")
		}
		return
	}
	c.JSON(http.StatusOK, store)
}
