package handlers

import (
	"errors"
	"io"
	"net/http"
	"strconv"

	"supplestore_backend/internal/middleware"
	"supplestore_backend/internal/models"
	"supplestore_backend/internal/services"
	"supplestore_backend/pkg/utils"

	"github.com/gin-gonic/gin"
)

const maxImageBytes = 8 << 20

// ProductHandler holds the product service.
type ProductHandler struct {
	productService services.ProductService
}

// NewProductHandler creates a new ProductHandler.
func NewProductHandler(ps services.ProductService) *ProductHandler {
	return &ProductHandler{productService: ps}
}

func respondProductError(c *gin.Context, err error, op string) {
	switch {
	case errors.Is(err, services.ErrProductNotFound):
		utils.RespondWithError(c, utils.NewAPIError(http.StatusNotFound, utils.ErrCodeNotFound, "Product not found.", err.Error()))
	case errors.Is(err, services.ErrBarcodeExists):
		utils.RespondWithError(c, utils.NewAPIError(http.StatusConflict, utils.ErrCodeConflict, "Barcode already in use.", err.Error()))
	case errors.Is(err, services.ErrProductInUse):
		utils.RespondWithError(c, utils.NewAPIError(http.StatusConflict, utils.ErrCodeConflict, "Product is part of a kit or an order.", err.Error()))
	case errors.Is(err, services.ErrInsufficientStock):
		utils.RespondWithError(c, utils.NewAPIError(http.StatusConflict, utils.ErrCodeConflict, "Stock cannot go below zero.", err.Error()))
	case errors.Is(err, services.ErrInvalidKit), errors.Is(err, services.ErrValidation), errors.Is(err, services.ErrInvalidImage):
		utils.RespondValidationFailed(c, err.Error())
	case errors.Is(err, services.ErrMediaUnavailable):
		utils.RespondWithError(c, utils.NewAPIError(http.StatusServiceUnavailable, utils.ErrCodeBadGateway, "Image storage is not configured.", err.Error()))
	case errors.Is(err, services.ErrUploadFailed):
		utils.RespondWithError(c, utils.NewAPIError(http.StatusBadGateway, utils.ErrCodeBadGateway, "Image upload failed.", err.Error()))
	default:
		utils.LogError(err, op+": Error from productService")
		utils.RespondInternal(c, "Failed to process product request.")
	}
}

// CreateProduct handles the creation of a product or kit.
func (h *ProductHandler) CreateProduct(c *gin.Context) {
	var req services.CreateProductRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		utils.LogError(err, "CreateProduct: Failed to bind JSON")
		utils.RespondWithError(c, utils.NewAPIError(http.StatusBadRequest, utils.ErrCodeValidationFailed, "Invalid request payload: "+err.Error(), err.Error()))
		return
	}
	product, err := h.productService.CreateProduct(middleware.StoreID(c), req)
	if err != nil {
		respondProductError(c, err, "CreateProduct")
		return
	}
	c.JSON(http.StatusCreated, product)
}

// ListProducts handles fetching the catalog with filters.
// low_stock=<n> restricts to products with stock <= n.
func (h *ProductHandler) ListProducts(c *gin.Context) {
	var filters models.ProductFilters
	if err := c.ShouldBindQuery(&filters); err != nil {
		utils.RespondValidationFailed(c, err.Error())
		return
	}
	if raw := c.Query("low_stock"); raw != "" {
		n, err := strconv.Atoi(raw)
		if err != nil || n < 0 {
			utils.RespondValidationFailed(c, "low_stock must be a non-negative integer")
			return
		}
		filters.LowStock = &n
	}
	page, pageSize, ok := utils.Pagination(c)
	if !ok {
		return
	}
	filters.Page, filters.PageSize = page, pageSize

	products, total, err := h.productService.ListProducts(middleware.StoreID(c), filters)
	if err != nil {
		respondProductError(c, err, "ListProducts")
		return
	}
	if products == nil {
		products = []models.Product{}
	}
	c.JSON(http.StatusOK, gin.H{"data": products, "total": total, "page": page, "page_size": pageSize})
}

// GetProduct returns a product with its kit items.
func (h *ProductHandler) GetProduct(c *gin.Context) {
	id, ok := utils.ParamInt64(c, "id")
	if !ok {
		return
	}
	product, err := h.productService.GetProduct(middleware.StoreID(c), id)
	if err != nil {
		respondProductError(c, err, "GetProduct")
		return
	}
	c.JSON(http.StatusOK, product)
}

// GetProductByBarcode looks a product up by its barcode.
func (h *ProductHandler) GetProductByBarcode(c *gin.Context) {
	product, err := h.productService.GetProductByBarcode(middleware.StoreID(c), c.Param("barcode"))
	if err != nil {
		respondProductError(c, err, "GetProductByBarcode")
		return
	}
	c.JSON(http.StatusOK, product)
}

// UpdateProduct applies a partial update.
func (h *ProductHandler) UpdateProduct(c *gin.Context) {
	id, ok := utils.ParamInt64(c, "id")
	if !ok {
		return
	}
	var req services.UpdateProductRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		utils.RespondWithError(c, utils.NewAPIError(http.StatusBadRequest, utils.ErrCodeValidationFailed, "Invalid request payload: "+err.Error(), err.Error()))
		return
	}
	product, err := h.productService.UpdateProduct(middleware.StoreID(c), id, req)
	if err != nil {
		respondProductError(c, err, "UpdateProduct")
		return
	}
	c.JSON(http.StatusOK, product)
}

// DeleteProduct removes a product.
func (h *ProductHandler) DeleteProduct(c *gin.Context) {
	id, ok := utils.ParamInt64(c, "id")
	if !ok {
		return
	}
	if err := h.productService.DeleteProduct(middleware.StoreID(c), id); err != nil {
		respondProductError(c, err, "DeleteProduct")
		return
	}
	c.Status(http.StatusNoContent)
}

// AdjustStock applies a manual stock change and records the movement.
func (h *ProductHandler) AdjustStock(c *gin.Context) {
	id, ok := utils.ParamInt64(c, "id")
	if !ok {
		return
	}
	var req services.AdjustStockRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		utils.RespondWithError(c, utils.NewAPIError(http.StatusBadRequest, utils.ErrCodeValidationFailed, "Invalid request payload: "+err.Error(), err.Error()))
		return
	}
	product, err := h.productService.AdjustStock(middleware.StoreID(c), middleware.UserID(c), id, req)
	if err != nil {
		respondProductError(c, err, "AdjustStock")
		return
	}
	c.JSON(http.StatusOK, product)
}

// ListStockMovements returns the stock history, optionally for one product.
func (h *ProductHandler) ListStockMovements(c *gin.Context) {
	var productID *int64
	if raw := c.Query("product_id"); raw != "" {
		id, err := utils.StrToInt64(raw)
		if err != nil || id <= 0 {
			utils.RespondValidationFailed(c, "invalid product_id")
			return
		}
		productID = &id
	}
	page, pageSize, ok := utils.Pagination(c)
	if !ok {
		return
	}
	movements, total, err := h.productService.ListStockMovements(middleware.StoreID(c), productID, page, pageSize)
	if err != nil {
		respondProductError(c, err, "ListStockMovements")
		return
	}
	if movements == nil {
		movements = []models.StockMovement{}
	}
	c.JSON(http.StatusOK, gin.H{"data": movements, "total": total, "page": page, "page_size": pageSize})
}

// UploadImage accepts a multipart "image" field and stores a normalized copy.
func (h *ProductHandler) UploadImage(c *gin.Context) {
	id, ok := utils.ParamInt64(c, "id")
	if !ok {
		return
	}
	fileHeader, err := c.FormFile("image")
	if err != nil {
		utils.RespondValidationFailed(c, "image file is required")
		return
	}
	if fileHeader.Size > maxImageBytes {
		utils.RespondValidationFailed(c, "image must be at most 8MB")
		return
	}
	f, err := fileHeader.Open()
	if err != nil {
		utils.LogError(err, "UploadImage: failed to open upload")
		utils.RespondInternal(c, "Failed to read image.")
		return
	}
	defer f.Close()
	data, err := io.ReadAll(io.LimitReader(f, maxImageBytes+1))
	if err != nil {
		utils.LogError(err, "UploadImage: failed to read upload")
		utils.RespondInternal(c, "Failed to read image.")
		return
	}

	product, err := h.productService.UploadImage(c.Request.Context(), middleware.StoreID(c), id, data)
	if err != nil {
		respondProductError(c, err, "UploadImage")
		return
	}
	c.JSON(http.StatusOK, product)
}
