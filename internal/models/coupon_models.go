package models

import (
	"time"

	"github.com/shopspring/decimal"
)

type DiscountType string

const (
	DiscountPercentage DiscountType = "percentage"
	DiscountFixed      DiscountType = "fixed"
)

type CouponUsage string

const (
	CouponUsageAll        CouponUsage = "all"
	CouponUsageFirstOrder CouponUsage = "first_order"
)

type CouponTarget string

const (
	CouponTargetAll      CouponTarget = "all"
	CouponTargetCategory CouponTarget = "category"
	CouponTargetBrand    CouponTarget = "brand"
	CouponTargetProduct  CouponTarget = "product"
)

// Coupon is a store discount code. TargetID holds a category name, a brand name
// or a product id (as text) depending on TargetType; it is nil only for "all".
type Coupon struct {
	ID            int64           `json:"id"`
	StoreID       int64           `json:"store_id"`
	Code          string          `json:"code"`
	DiscountType  DiscountType    `json:"discount_type"`
	DiscountValue decimal.Decimal `json:"discount_value"`
	UsageType     CouponUsage     `json:"usage_type"`
	TargetType    CouponTarget    `json:"target_type"`
	TargetID      *string         `json:"target_id,omitempty"`
	Active        bool            `json:"active"`
	CreatedAt     time.Time       `json:"created_at"`
	UpdatedAt     time.Time       `json:"updated_at"`
}
