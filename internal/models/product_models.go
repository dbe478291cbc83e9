package models

import (
	"time"

	"github.com/shopspring/decimal"
)

// Product is a catalog entry. A kit (IsKit) bundles other products through KitItems.
type Product struct {
	ID          int64           `json:"id"`
	StoreID     int64           `json:"store_id"`
	Name        string          `json:"name"`
	Description *string         `json:"description,omitempty"`
	Price       decimal.Decimal `json:"price"`
	CostPrice   decimal.Decimal `json:"cost_price"`
	Stock       int             `json:"stock"`
	Category    *string         `json:"category,omitempty"`
	Brand       *string         `json:"brand,omitempty"`
	Barcode     *string         `json:"barcode,omitempty"`
	Volume      *string         `json:"volume,omitempty"`
	Flavor      *string         `json:"flavor,omitempty"`
	ImageURL    *string         `json:"image_url,omitempty"`
	IsKit       bool            `json:"is_kit"`
	IsActive    bool            `json:"is_active"`
	KitItems    []KitItem       `json:"kit_items,omitempty"`
	CreatedAt   time.Time       `json:"created_at"`
	UpdatedAt   time.Time       `json:"updated_at"`
}

// KitItem is one component of a kit.
type KitItem struct {
	ProductID   int64           `json:"product_id"`
	Quantity    int             `json:"quantity"`
	ProductName string          `json:"product_name,omitempty"`
	CostPrice   decimal.Decimal `json:"cost_price"`
}

// KitCost is the quantity-weighted sum of component costs.
func KitCost(items []KitItem) decimal.Decimal {
	total := decimal.Zero
	for _, it := range items {
		total = total.Add(it.CostPrice.Mul(decimal.NewFromInt(int64(it.Quantity))))
	}
	return total.Round(2)
}

// CartLine projects the product into a cart line.
func (p *Product) CartLine() CartItem {
	return CartItem{
		ID:       p.ID,
		Name:     p.Name,
		Price:    p.Price,
		ImageURL: p.ImageURL,
		Flavor:   p.Flavor,
		Volume:   p.Volume,
	}
}

// ProductFilters narrows catalog listings.
type ProductFilters struct {
	Category   string `form:"category"`
	Brand      string `form:"brand"`
	Search     string `form:"search"`
	OnlyActive bool   `form:"-"`
	LowStock   *int   `form:"-"`
	Page       int    `form:"page"`
	PageSize   int    `form:"page_size"`
}

const (
	MovementTypeSale           = "sale"
	MovementTypeAdjustmentIn   = "adjustment_in"
	MovementTypeAdjustmentOut  = "adjustment_out"
	MovementTypeReturnDeletion = "return_order_deletion"
)

// StockMovement records every change to a product's stock.
type StockMovement struct {
	ID              int64     `json:"id"`
	StoreID         int64     `json:"store_id"`
	ProductID       int64     `json:"product_id"`
	UserID          *int64    `json:"user_id,omitempty"`
	MovementType    string    `json:"movement_type"`
	QuantityChanged int       `json:"quantity_changed"`
	Reason          *string   `json:"reason,omitempty"`
	CreatedAt       time.Time `json:"created_at"`
	ProductName     string    `json:"product_name,omitempty"`
}
