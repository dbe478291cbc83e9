package handlers

import (
	"errors"
	"net/http"
	"strings"
	"time"

	"supplestore_backend/internal/middleware"
	"supplestore_backend/internal/models"
	"supplestore_backend/internal/services"
	"supplestore_backend/pkg/utils"

	"github.com/gin-gonic/gin"
)

// StorefrontHandler serves the public, slug-scoped shop.
type StorefrontHandler struct {
	productService  services.ProductService
	cartService     services.CartService
	checkoutService services.CheckoutService
	couponService   services.CouponService
}

// NewStorefrontHandler creates a new StorefrontHandler.
func NewStorefrontHandler(ps services.ProductService, cs services.CartService, cos services.CheckoutService, cps services.CouponService) *StorefrontHandler {
	return &StorefrontHandler{productService: ps, cartService: cs, checkoutService: cos, couponService: cps}
}

// cartToken returns the shopper's token, issuing a fresh one when the header is absent.
// The token is always echoed back in the response header.
func (h *StorefrontHandler) cartToken(c *gin.Context) string {
	token := strings.TrimSpace(c.GetHeader(middleware.CartTokenHeader))
	if token == "" {
		token = h.cartService.NewToken()
	}
	c.Header(middleware.CartTokenHeader, token)
	return token
}

func respondCartError(c *gin.Context, err error, op string) {
	switch {
	case errors.Is(err, services.ErrInvalidCartToken):
		utils.RespondWithError(c, utils.NewAPIError(http.StatusBadRequest, utils.ErrCodeValidationFailed, "Invalid cart token.", err.Error()))
	case errors.Is(err, services.ErrProductNotFound), errors.Is(err, services.ErrProductUnavailable):
		utils.RespondWithError(c, utils.NewAPIError(http.StatusNotFound, utils.ErrCodeNotFound, "Product not available.", err.Error()))
	case errors.Is(err, services.ErrInsufficientStock):
		utils.RespondWithError(c, utils.NewAPIError(http.StatusConflict, utils.ErrCodeConflict, "Insufficient stock.", err.Error()))
	case errors.Is(err, services.ErrCartItemNotFound):
		utils.RespondWithError(c, utils.NewAPIError(http.StatusNotFound, utils.ErrCodeNotFound, "Item not in cart.", err.Error()))
	case errors.Is(err, services.ErrCartBusy):
		utils.RespondWithError(c, utils.NewAPIError(http.StatusConflict, utils.ErrCodeConflict, "Cart is being updated, try again.", err.Error()))
	default:
		utils.LogError(err, op+": cart operation failed")
		utils.RespondInternal(c, "Failed to update cart.")
	}
}

// GetStore returns the public store profile with open_now.
func (h *StorefrontHandler) GetStore(c *gin.Context) {
	c.JSON(http.StatusOK, middleware.Store(c).Public(time.Now()))
}

// ListProducts lists the active catalog.
func (h *StorefrontHandler) ListProducts(c *gin.Context) {
	var filters models.ProductFilters
	if err := c.ShouldBindQuery(&filters); err != nil {
		utils.RespondValidationFailed(c, err.Error())
		return
	}
	page, pageSize, ok := utils.Pagination(c)
	if !ok {
		return
	}
	filters.Page, filters.PageSize = page, pageSize
	filters.OnlyActive = true

	products, total, err := h.productService.ListProducts(middleware.StoreID(c), filters)
	if err != nil {
		utils.LogError(err, "Storefront ListProducts: Error from productService.ListProducts")
		utils.RespondInternal(c, "Failed to fetch products.")
		return
	}
	if products == nil {
		products = []models.Product{}
	}
	c.JSON(http.StatusOK, gin.H{"data": products, "total": total, "page": page, "page_size": pageSize})
}

// GetProduct returns one active product.
func (h *StorefrontHandler) GetProduct(c *gin.Context) {
	id, ok := utils.ParamInt64(c, "id")
	if !ok {
		return
	}
	product, err := h.productService.GetProduct(middleware.StoreID(c), id)
	if err != nil || !product.IsActive {
		if err == nil || errors.Is(err, services.ErrProductNotFound) {
			utils.RespondWithError(c, utils.NewAPIError(http.StatusNotFound, utils.ErrCodeNotFound, "Product not found.", ""))
			return
		}
		utils.LogError(err, "Storefront GetProduct: Error from productService.GetProduct")
		utils.RespondInternal(c, "Failed to fetch product.")
		return
	}
	c.JSON(http.StatusOK, product)
}

// GetCart returns the shopper's cart, creating an empty one for new tokens.
func (h *StorefrontHandler) GetCart(c *gin.Context) {
	token := h.cartToken(c)
	cart, err := h.cartService.GetCart(c.Request.Context(), middleware.StoreID(c), token)
	if err != nil {
		respondCartError(c, err, "GetCart")
		return
	}
	c.JSON(http.StatusOK, services.NewCartView(token, cart))
}

// AddCartItem adds a product to the cart.
func (h *StorefrontHandler) AddCartItem(c *gin.Context) {
	var req services.AddCartItemRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		utils.RespondWithError(c, utils.NewAPIError(http.StatusBadRequest, utils.ErrCodeValidationFailed, "Invalid request payload: "+err.Error(), err.Error()))
		return
	}
	token := h.cartToken(c)
	cart, err := h.cartService.AddItem(c.Request.Context(), middleware.StoreID(c), token, req)
	if err != nil {
		respondCartError(c, err, "AddCartItem")
		return
	}
	c.JSON(http.StatusOK, services.NewCartView(token, cart))
}

// SetCartQuantity overwrites a line quantity; zero or less removes it.
func (h *StorefrontHandler) SetCartQuantity(c *gin.Context) {
	productID, ok := utils.ParamInt64(c, "productId")
	if !ok {
		return
	}
	var req services.SetCartQuantityRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		utils.RespondWithError(c, utils.NewAPIError(http.StatusBadRequest, utils.ErrCodeValidationFailed, "Invalid request payload: "+err.Error(), err.Error()))
		return
	}
	token := h.cartToken(c)
	cart, err := h.cartService.SetQuantity(c.Request.Context(), middleware.StoreID(c), token, productID, req.Quantity)
	if err != nil {
		respondCartError(c, err, "SetCartQuantity")
		return
	}
	c.JSON(http.StatusOK, services.NewCartView(token, cart))
}

// RemoveCartItem deletes a line; absent lines are not an error.
func (h *StorefrontHandler) RemoveCartItem(c *gin.Context) {
	productID, ok := utils.ParamInt64(c, "productId")
	if !ok {
		return
	}
	token := h.cartToken(c)
	cart, err := h.cartService.RemoveItem(c.Request.Context(), middleware.StoreID(c), token, productID)
	if err != nil {
		respondCartError(c, err, "RemoveCartItem")
		return
	}
	c.JSON(http.StatusOK, services.NewCartView(token, cart))
}

// ClearCart empties the cart.
func (h *StorefrontHandler) ClearCart(c *gin.Context) {
	token := h.cartToken(c)
	cart, err := h.cartService.Clear(c.Request.Context(), middleware.StoreID(c), token)
	if err != nil {
		respondCartError(c, err, "ClearCart")
		return
	}
	c.JSON(http.StatusOK, services.NewCartView(token, cart))
}

// SetAddress saves the delivery address on the cart session.
func (h *StorefrontHandler) SetAddress(c *gin.Context) {
	var req services.AddressRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		utils.RespondWithError(c, utils.NewAPIError(http.StatusBadRequest, utils.ErrCodeValidationFailed, "Invalid request payload: "+err.Error(), err.Error()))
		return
	}
	token := h.cartToken(c)
	cart, err := h.cartService.SetAddress(c.Request.Context(), middleware.StoreID(c), token, req)
	if err != nil {
		respondCartError(c, err, "SetAddress")
		return
	}
	c.JSON(http.StatusOK, services.NewCartView(token, cart))
}

// ValidateCoupon previews the discount a code grants on the current cart.
func (h *StorefrontHandler) ValidateCoupon(c *gin.Context) {
	var req services.ValidateCouponRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		utils.RespondWithError(c, utils.NewAPIError(http.StatusBadRequest, utils.ErrCodeValidationFailed, "Invalid request payload: "+err.Error(), err.Error()))
		return
	}
	storeID := middleware.StoreID(c)
	token := h.cartToken(c)
	cart, err := h.cartService.GetCart(c.Request.Context(), storeID, token)
	if err != nil {
		respondCartError(c, err, "ValidateCoupon")
		return
	}

	coupon, discount, err := h.couponService.Apply(storeID, req.Code, cart, req.Phone)
	if err != nil {
		switch {
		case errors.Is(err, services.ErrCouponNotFound):
			utils.RespondWithError(c, utils.NewAPIError(http.StatusNotFound, utils.ErrCodeNotFound, "Invalid coupon.", err.Error()))
		case errors.Is(err, services.ErrCouponNotApplied):
			utils.RespondWithError(c, utils.NewAPIError(http.StatusUnprocessableEntity, utils.ErrCodeValidationFailed, "Coupon does not apply to this cart.", err.Error()))
		default:
			utils.LogError(err, "ValidateCoupon: Error from couponService.Apply")
			utils.RespondInternal(c, "Failed to validate coupon.")
		}
		return
	}
	subtotal := cart.Total()
	c.JSON(http.StatusOK, services.CouponPreview{
		Code:     coupon.Code,
		Discount: discount,
		Subtotal: subtotal,
		Total:    subtotal.Sub(discount),
	})
}

// Checkout records the order and returns the WhatsApp handoff link.
func (h *StorefrontHandler) Checkout(c *gin.Context) {
	var req services.CheckoutRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		utils.RespondWithError(c, utils.NewAPIError(http.StatusBadRequest, utils.ErrCodeValidationFailed, "Invalid request payload: "+err.Error(), err.Error()))
		return
	}
	token := strings.TrimSpace(c.GetHeader(middleware.CartTokenHeader))
	if token == "" {
		utils.RespondWithError(c, utils.NewAPIError(http.StatusBadRequest, utils.ErrCodeValidationFailed, "Cart is empty.", services.ErrEmptyCart.Error()))
		return
	}

	result, err := h.checkoutService.Checkout(c.Request.Context(), middleware.Store(c), token, req)
	if err != nil {
		switch {
		case errors.Is(err, services.ErrEmptyCart):
			utils.RespondWithError(c, utils.NewAPIError(http.StatusBadRequest, utils.ErrCodeValidationFailed, "Cart is empty.", err.Error()))
		case errors.Is(err, services.ErrAddressRequired):
			utils.RespondWithError(c, utils.NewAPIError(http.StatusBadRequest, utils.ErrCodeValidationFailed, "Delivery address required.", err.Error()))
		case errors.Is(err, services.ErrValidation), errors.Is(err, services.ErrInvalidCartToken), errors.Is(err, services.ErrInvalidDeliveryMode):
			utils.RespondValidationFailed(c, err.Error())
		case errors.Is(err, services.ErrCouponNotFound):
			utils.RespondWithError(c, utils.NewAPIError(http.StatusBadRequest, utils.ErrCodeValidationFailed, "Invalid coupon.", err.Error()))
		case errors.Is(err, services.ErrCouponNotApplied):
			utils.RespondWithError(c, utils.NewAPIError(http.StatusBadRequest, utils.ErrCodeValidationFailed, "Coupon does not apply to this cart.", err.Error()))
		case errors.Is(err, services.ErrProductUnavailable), errors.Is(err, services.ErrInsufficientStock):
			utils.RespondWithError(c, utils.NewAPIError(http.StatusConflict, utils.ErrCodeConflict, "Some items are no longer available.", err.Error()))
		case errors.Is(err, services.ErrCartBusy):
			utils.RespondWithError(c, utils.NewAPIError(http.StatusConflict, utils.ErrCodeConflict, "Order is already being placed.", err.Error()))
		case errors.Is(err, services.ErrStoreUnreachable):
			utils.RespondWithError(c, utils.NewAPIError(http.StatusServiceUnavailable, utils.ErrCodeBadGateway, "Store is not accepting orders right now.", err.Error()))
		default:
			utils.LogError(err, "Checkout: Error from checkoutService.Checkout", map[string]interface{}{"store_id": middleware.StoreID(c)})
			utils.RespondInternal(c, "Failed to place order.")
		}
		return
	}
	c.JSON(http.StatusCreated, result)
}
