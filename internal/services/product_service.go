package services

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"supplestore_backend/internal/models"
	"supplestore_backend/internal/repositories"
	"supplestore_backend/pkg/utils"

	"github.com/shopspring/decimal"
)

var (
	ErrProductNotFound    = errors.New("product not found")
	ErrInsufficientStock  = errors.New("insufficient stock for item")
	ErrBarcodeExists      = errors.New("barcode already used by another product")
	ErrInvalidKit         = errors.New("invalid kit composition")
	ErrProductInUse       = errors.New("product is a component of a kit")
	ErrProductUnavailable = errors.New("product is not available")
)

// KitItemRequest is one component of a kit.
type KitItemRequest struct {
	ProductID int64 `json:"product_id" binding:"required,gt=0"`
	Quantity  int   `json:"quantity" binding:"required,gt=0"`
}

// CreateProductRequest DTO
type CreateProductRequest struct {
	Name        string           `json:"name" binding:"required"`
	Description *string          `json:"description"`
	Price       decimal.Decimal  `json:"price"`
	CostPrice   *decimal.Decimal `json:"cost_price"`
	Stock       int              `json:"stock" binding:"min=0"`
	Category    *string          `json:"category"`
	Brand       *string          `json:"brand"`
	Barcode     *string          `json:"barcode"`
	Volume      *string          `json:"volume"`
	Flavor      *string          `json:"flavor"`
	ImageURL    *string          `json:"image_url" binding:"omitempty,url"`
	IsKit       bool             `json:"is_kit"`
	IsActive    *bool            `json:"is_active"`
	KitItems    []KitItemRequest `json:"kit_items" binding:"dive"`
}

// UpdateProductRequest is a partial update. Stock is changed only through AdjustStock.
type UpdateProductRequest struct {
	Name        *string          `json:"name" binding:"omitempty,min=1"`
	Description *string          `json:"description"`
	Price       *decimal.Decimal `json:"price"`
	CostPrice   *decimal.Decimal `json:"cost_price"`
	Category    *string          `json:"category"`
	Brand       *string          `json:"brand"`
	Barcode     *string          `json:"barcode"`
	Volume      *string          `json:"volume"`
	Flavor      *string          `json:"flavor"`
	ImageURL    *string          `json:"image_url" binding:"omitempty,url"`
	IsActive    *bool            `json:"is_active"`
	KitItems    []KitItemRequest `json:"kit_items" binding:"omitempty,dive"`
}

// AdjustStockRequest applies a manual +n / -n change.
type AdjustStockRequest struct {
	Quantity int    `json:"quantity" binding:"required,ne=0"`
	Reason   string `json:"reason"`
}

// ProductService covers the catalog, kits and stock.
type ProductService interface {
	CreateProduct(storeID int64, req CreateProductRequest) (*models.Product, error)
	GetProduct(storeID, productID int64) (*models.Product, error)
	GetProductByBarcode(storeID int64, barcode string) (*models.Product, error)
	ListProducts(storeID int64, filters models.ProductFilters) ([]models.Product, int, error)
	UpdateProduct(storeID, productID int64, req UpdateProductRequest) (*models.Product, error)
	DeleteProduct(storeID, productID int64) error
	AdjustStock(storeID, userID, productID int64, req AdjustStockRequest) (*models.Product, error)
	ListStockMovements(storeID int64, productID *int64, page, pageSize int) ([]models.StockMovement, int, error)
	UploadImage(ctx context.Context, storeID, productID int64, data []byte) (*models.Product, error)
}

type productService struct {
	productRepo  repositories.ProductRepository
	movementRepo repositories.StockMovementRepository
	db           TxBeginner
	media        MediaStorage
}

// NewProductService creates a new instance of ProductService.
func NewProductService(pr repositories.ProductRepository, mr repositories.StockMovementRepository, db TxBeginner, media MediaStorage) ProductService {
	return &productService{productRepo: pr, movementRepo: mr, db: db, media: media}
}

func validateProductFields(name string, price decimal.Decimal, cost *decimal.Decimal) error {
	if utils.IsEmpty(name) {
		return fmt.Errorf("%w: name is required", ErrValidation)
	}
	if price.IsNegative() {
		return fmt.Errorf("%w: price must not be negative", ErrValidation)
	}
	if cost != nil && cost.IsNegative() {
		return fmt.Errorf("%w: cost_price must not be negative", ErrValidation)
	}
	return nil
}

// resolveKit loads the components, rejects nesting and self references, and
// returns the items with their names and costs filled in.
func (s *productService) resolveKit(storeID, kitID int64, reqs []KitItemRequest) ([]models.KitItem, error) {
	if len(reqs) == 0 {
		return nil, fmt.Errorf("%w: a kit needs at least one component", ErrInvalidKit)
	}
	ids := make([]int64, 0, len(reqs))
	seen := map[int64]bool{}
	for _, r := range reqs {
		if r.ProductID == kitID {
			return nil, fmt.Errorf("%w: a kit cannot contain itself", ErrInvalidKit)
		}
		if seen[r.ProductID] {
			return nil, fmt.Errorf("%w: product %d listed twice", ErrInvalidKit, r.ProductID)
		}
		seen[r.ProductID] = true
		ids = append(ids, r.ProductID)
	}
	products, err := s.productRepo.GetProductsByIDs(storeID, ids)
	if err != nil {
		return nil, fmt.Errorf("failed to load kit components: %w", err)
	}
	byID := make(map[int64]models.Product, len(products))
	for _, p := range products {
		byID[p.ID] = p
	}
	items := make([]models.KitItem, 0, len(reqs))
	for _, r := range reqs {
		p, ok := byID[r.ProductID]
		if !ok {
			return nil, fmt.Errorf("%w: component product %d not found", ErrInvalidKit, r.ProductID)
		}
		if p.IsKit {
			return nil, fmt.Errorf("%w: component %q is itself a kit", ErrInvalidKit, p.Name)
		}
		items = append(items, models.KitItem{ProductID: p.ID, Quantity: r.Quantity, ProductName: p.Name, CostPrice: p.CostPrice})
	}
	return items, nil
}

func (s *productService) CreateProduct(storeID int64, req CreateProductRequest) (*models.Product, error) {
	if err := validateProductFields(req.Name, req.Price, req.CostPrice); err != nil {
		return nil, err
	}
	product := &models.Product{
		StoreID:     storeID,
		Name:        strings.TrimSpace(req.Name),
		Description: req.Description,
		Price:       utils.RoundMoney(req.Price),
		Stock:       req.Stock,
		Category:    trimmedOrNil(req.Category),
		Brand:       trimmedOrNil(req.Brand),
		Barcode:     trimmedOrNil(req.Barcode),
		Volume:      trimmedOrNil(req.Volume),
		Flavor:      trimmedOrNil(req.Flavor),
		ImageURL:    req.ImageURL,
		IsKit:       req.IsKit,
		IsActive:    true,
	}
	if req.IsActive != nil {
		product.IsActive = *req.IsActive
	}
	if req.CostPrice != nil {
		product.CostPrice = utils.RoundMoney(*req.CostPrice)
	}

	var kitItems []models.KitItem
	if req.IsKit {
		var err error
		if kitItems, err = s.resolveKit(storeID, 0, req.KitItems); err != nil {
			return nil, err
		}
		if req.CostPrice == nil {
			product.CostPrice = models.KitCost(kitItems)
		}
	}

	tx, err := s.db.Begin()
	if err != nil {
		return nil, fmt.Errorf("failed to start database transaction: %w", err)
	}
	defer tx.Rollback()

	if _, err := s.productRepo.CreateProduct(tx, product); err != nil {
		if errors.Is(err, repositories.ErrDuplicateKey) {
			return nil, ErrBarcodeExists
		}
		return nil, fmt.Errorf("failed to create product: %w", err)
	}
	if req.IsKit {
		if err := s.productRepo.ReplaceKitItems(tx, product.ID, kitItems); err != nil {
			return nil, fmt.Errorf("failed to save kit items: %w", err)
		}
		product.KitItems = kitItems
	}
	if product.Stock > 0 {
		movement := &models.StockMovement{
			StoreID:         storeID,
			ProductID:       product.ID,
			MovementType:    models.MovementTypeAdjustmentIn,
			QuantityChanged: product.Stock,
			Reason:          utils.NewNullString("Initial stock"),
		}
		if _, err := s.movementRepo.CreateMovement(tx, movement); err != nil {
			return nil, fmt.Errorf("failed to record initial stock: %w", err)
		}
	}

	if err := tx.Commit(); err != nil {
		return nil, fmt.Errorf("failed to commit product creation: %w", err)
	}
	return product, nil
}

func (s *productService) GetProduct(storeID, productID int64) (*models.Product, error) {
	product, err := s.productRepo.GetProductByID(storeID, productID)
	if err != nil {
		if errors.Is(err, repositories.ErrNotFound) {
			return nil, ErrProductNotFound
		}
		return nil, fmt.Errorf("failed to get product: %w", err)
	}
	if product.IsKit {
		items, err := s.productRepo.GetKitItems(product.ID)
		if err != nil {
			return nil, fmt.Errorf("failed to get kit items: %w", err)
		}
		product.KitItems = items
	}
	return product, nil
}

func (s *productService) GetProductByBarcode(storeID int64, barcode string) (*models.Product, error) {
	if utils.IsEmpty(barcode) {
		return nil, fmt.Errorf("%w: barcode is required", ErrValidation)
	}
	product, err := s.productRepo.GetProductByBarcode(storeID, barcode)
	if err != nil {
		if errors.Is(err, repositories.ErrNotFound) {
			return nil, ErrProductNotFound
		}
		return nil, fmt.Errorf("failed to get product by barcode: %w", err)
	}
	return product, nil
}

func (s *productService) ListProducts(storeID int64, filters models.ProductFilters) ([]models.Product, int, error) {
	products, total, err := s.productRepo.GetProducts(storeID, filters)
	if err != nil {
		return nil, 0, fmt.Errorf("failed to list products: %w", err)
	}
	return products, total, nil
}

func (s *productService) UpdateProduct(storeID, productID int64, req UpdateProductRequest) (*models.Product, error) {
	product, err := s.GetProduct(storeID, productID)
	if err != nil {
		return nil, err
	}

	if req.Name != nil {
		product.Name = strings.TrimSpace(*req.Name)
	}
	if req.Description != nil {
		product.Description = utils.NewNullString(*req.Description)
	}
	if req.Price != nil {
		product.Price = utils.RoundMoney(*req.Price)
	}
	if req.CostPrice != nil {
		product.CostPrice = utils.RoundMoney(*req.CostPrice)
	}
	if req.Category != nil {
		product.Category = trimmedOrNil(req.Category)
	}
	if req.Brand != nil {
		product.Brand = trimmedOrNil(req.Brand)
	}
	if req.Barcode != nil {
		product.Barcode = trimmedOrNil(req.Barcode)
	}
	if req.Volume != nil {
		product.Volume = trimmedOrNil(req.Volume)
	}
	if req.Flavor != nil {
		product.Flavor = trimmedOrNil(req.Flavor)
	}
	if req.ImageURL != nil {
		product.ImageURL = utils.NewNullString(*req.ImageURL)
	}
	if req.IsActive != nil {
		product.IsActive = *req.IsActive
	}
	if err := validateProductFields(product.Name, product.Price, &product.CostPrice); err != nil {
		return nil, err
	}

	var kitItems []models.KitItem
	replaceKit := product.IsKit && req.KitItems != nil
	if replaceKit {
		if kitItems, err = s.resolveKit(storeID, productID, req.KitItems); err != nil {
			return nil, err
		}
		if req.CostPrice == nil {
			product.CostPrice = models.KitCost(kitItems)
		}
	}

	tx, err := s.db.Begin()
	if err != nil {
		return nil, fmt.Errorf("failed to start database transaction: %w", err)
	}
	defer tx.Rollback()

	if err := s.productRepo.UpdateProduct(tx, product); err != nil {
		if errors.Is(err, repositories.ErrDuplicateKey) {
			return nil, ErrBarcodeExists
		}
		if errors.Is(err, repositories.ErrNotFound) {
			return nil, ErrProductNotFound
		}
		return nil, fmt.Errorf("failed to update product: %w", err)
	}
	if replaceKit {
		if err := s.productRepo.ReplaceKitItems(tx, productID, kitItems); err != nil {
			return nil, fmt.Errorf("failed to save kit items: %w", err)
		}
		product.KitItems = kitItems
	}
	if err := tx.Commit(); err != nil {
		return nil, fmt.Errorf("failed to commit product update: %w", err)
	}
	return product, nil
}

func (s *productService) DeleteProduct(storeID, productID int64) error {
	tx, err := s.db.Begin()
	if err != nil {
		return fmt.Errorf("failed to start database transaction: %w", err)
	}
	defer tx.Rollback()

	if err := s.productRepo.DeleteProduct(tx, storeID, productID); err != nil {
		if errors.Is(err, repositories.ErrNotFound) {
			return ErrProductNotFound
		}
		if errors.Is(err, repositories.ErrForeignKey) {
			return ErrProductInUse
		}
		return fmt.Errorf("failed to delete product: %w", err)
	}
	return tx.Commit()
}

// AdjustStock applies a manual stock change and records it. Stock never goes below zero.
func (s *productService) AdjustStock(storeID, userID, productID int64, req AdjustStockRequest) (*models.Product, error) {
	if req.Quantity == 0 {
		return nil, fmt.Errorf("%w: quantity must not be zero", ErrValidation)
	}

	tx, err := s.db.Begin()
	if err != nil {
		return nil, fmt.Errorf("failed to start database transaction: %w", err)
	}
	defer tx.Rollback()

	if _, err := s.productRepo.UpdateStock(tx, storeID, productID, req.Quantity); err != nil {
		if errors.Is(err, repositories.ErrNotFound) {
			return nil, ErrProductNotFound
		}
		if errors.Is(err, repositories.ErrNegativeStock) {
			return nil, fmt.Errorf("%w: %v", ErrInsufficientStock, err)
		}
		return nil, fmt.Errorf("failed to adjust stock: %w", err)
	}

	movementType := models.MovementTypeAdjustmentIn
	if req.Quantity < 0 {
		movementType = models.MovementTypeAdjustmentOut
	}
	movement := &models.StockMovement{
		StoreID:         storeID,
		ProductID:       productID,
		MovementType:    movementType,
		QuantityChanged: req.Quantity,
		Reason:          utils.NewNullString(req.Reason),
	}
	if userID > 0 {
		movement.UserID = &userID
	}
	if _, err := s.movementRepo.CreateMovement(tx, movement); err != nil {
		return nil, fmt.Errorf("failed to record stock movement: %w", err)
	}
	if err := tx.Commit(); err != nil {
		return nil, fmt.Errorf("failed to commit stock adjustment: %w", err)
	}
	return s.GetProduct(storeID, productID)
}

func (s *productService) ListStockMovements(storeID int64, productID *int64, page, pageSize int) ([]models.StockMovement, int, error) {
	movements, total, err := s.movementRepo.GetMovements(storeID, productID, page, pageSize)
	if err != nil {
		return nil, 0, fmt.Errorf("failed to list stock movements: %w", err)
	}
	return movements, total, nil
}

func (s *productService) UploadImage(ctx context.Context, storeID, productID int64, data []byte) (*models.Product, error) {
	product, err := s.GetProduct(storeID, productID)
	if err != nil {
		return nil, err
	}
	url, err := s.media.UploadImage(ctx, fmt.Sprintf("stores/%d/products", storeID), fmt.Sprintf("product-%d", productID), data)
	if err != nil {
		return nil, err
	}
	product.ImageURL = &url
	if err := s.productRepo.UpdateProduct(s.db, product); err != nil {
		return nil, fmt.Errorf("failed to save product image: %w", err)
	}
	return product, nil
}

func trimmedOrNil(s *string) *string {
	if s == nil {
		return nil
	}
	return utils.NewNullString(strings.TrimSpace(*s))
}
