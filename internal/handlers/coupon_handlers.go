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

// CouponHandler holds the coupon service.
type CouponHandler struct {
	couponService services.CouponService
}

// NewCouponHandler creates a new CouponHandler.
func NewCouponHandler(cs services.CouponService) *CouponHandler {
	return &CouponHandler{couponService: cs}
}

func respondCouponError(c *gin.Context, err error, op string) {
	switch {
	case errors.Is(err, services.ErrCouponNotFound):
		utils.RespondWithError(c, utils.NewAPIError(http.StatusNotFound, utils.ErrCodeNotFound, "Coupon not found.", err.Error()))
	case errors.Is(err, services.ErrCouponCodeExists):
		utils.RespondWithError(c, utils.NewAPIError(http.StatusConflict, utils.ErrCodeConflict, "Coupon code already exists.", err.Error()))
	case errors.Is(err, services.ErrValidation):
		utils.RespondValidationFailed(c, err.Error())
	default:
		utils.LogError(err, op+": Error from couponService")
		utils.RespondInternal(c, "Failed to process coupon request.")
	}
}

// CreateCoupon handles coupon creation.
func (h *CouponHandler) CreateCoupon(c *gin.Context) {
	var req services.CouponRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		utils.RespondWithError(c, utils.NewAPIError(http.StatusBadRequest, utils.ErrCodeValidationFailed, "Invalid request payload: "+err.Error(), err.Error()))
		return
	}
	coupon, err := h.couponService.CreateCoupon(middleware.StoreID(c), req)
	if err != nil {
		respondCouponError(c, err, "CreateCoupon")
		return
	}
	c.JSON(http.StatusCreated, coupon)
}

// ListCoupons returns every coupon of the store.
func (h *CouponHandler) ListCoupons(c *gin.Context) {
	coupons, err := h.couponService.ListCoupons(middleware.StoreID(c))
	if err != nil {
		respondCouponError(c, err, "ListCoupons")
		return
	}
	if coupons == nil {
		coupons = []models.Coupon{}
	}
	c.JSON(http.StatusOK, coupons)
}

func (h *CouponHandler) GetCoupon(c *gin.Context) {
	id, ok := utils.ParamInt64(c, "id")
	if !ok {
		return
	}
	coupon, err := h.couponService.GetCoupon(middleware.StoreID(c), id)
	if err != nil {
		respondCouponError(c, err, "GetCoupon")
		return
	}
	c.JSON(http.StatusOK, coupon)
}

// UpdateCoupon replaces a coupon's settings.
func (h *CouponHandler) UpdateCoupon(c *gin.Context) {
	id, ok := utils.ParamInt64(c, "id")
	if !ok {
		return
	}
	var req services.CouponRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		utils.RespondWithError(c, utils.NewAPIError(http.StatusBadRequest, utils.ErrCodeValidationFailed, "Invalid request payload: "+err.Error(), err.Error()))
		return
	}
	coupon, err := h.couponService.UpdateCoupon(middleware.StoreID(c), id, req)
	if err != nil {
		respondCouponError(c, err, "UpdateCoupon")
		return
	}
	c.JSON(http.StatusOK, coupon)
}

func (h *CouponHandler) DeleteCoupon(c *gin.Context) {
	id, ok := utils.ParamInt64(c, "id")
	if !ok {
		return
	}
	if err := h.couponService.DeleteCoupon(middleware.StoreID(c), id); err != nil {
		respondCouponError(c, err, "DeleteCoupon")
		return
	}
	c.Status(http.StatusNoContent)
}
