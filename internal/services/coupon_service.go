package services

import (
	"errors"
	"fmt"
	"strconv"
	"strings"

	"supplestore_backend/internal/models"
	"supplestore_backend/internal/repositories"
	"supplestore_backend/pkg/utils"

	"github.com/go-playground/validator/v10"
	"github.com/shopspring/decimal"
)

var (
	ErrCouponNotFound   = errors.New("coupon not found")
	ErrCouponCodeExists = errors.New("coupon code already exists")
	ErrCouponNotApplied = errors.New("coupon does not apply to this cart")
)

var hundred = decimal.NewFromInt(100)

// CouponLine is the part of a cart line a coupon target is matched against.
type CouponLine struct {
	ProductID int64
	Category  string
	Brand     string
}

// CouponContext is what the resolver needs to know about the cart and the customer.
type CouponContext struct {
	Subtotal decimal.Decimal
	Lines    []CouponLine
	// PriorCompletedOrders is nil when the customer cannot be identified.
	PriorCompletedOrders *int
}

func (c *CouponContext) matches(coupon *models.Coupon) bool {
	if coupon.TargetType == models.CouponTargetAll {
		return true
	}
	if coupon.TargetID == nil {
		return false
	}
	target := strings.TrimSpace(*coupon.TargetID)
	for _, line := range c.Lines {
		switch coupon.TargetType {
		case models.CouponTargetCategory:
			if strings.EqualFold(line.Category, target) {
				return true
			}
		case models.CouponTargetBrand:
			if strings.EqualFold(line.Brand, target) {
				return true
			}
		case models.CouponTargetProduct:
			if strconv.FormatInt(line.ProductID, 10) == target {
				return true
			}
		}
	}
	return false
}

// ResolveCoupon returns the discount a coupon grants on the cart, rounded to cents.
// An inactive coupon, a cart with no matching line, or a first-order coupon for a
// returning or unidentified customer yields zero. The discount never exceeds the subtotal.
func ResolveCoupon(coupon *models.Coupon, cartCtx CouponContext) decimal.Decimal {
	if coupon == nil || !coupon.Active || !cartCtx.Subtotal.IsPositive() {
		return decimal.Zero
	}
	if coupon.UsageType == models.CouponUsageFirstOrder {
		if cartCtx.PriorCompletedOrders == nil || *cartCtx.PriorCompletedOrders > 0 {
			return decimal.Zero
		}
	}
	if !cartCtx.matches(coupon) {
		return decimal.Zero
	}

	var discount decimal.Decimal
	switch coupon.DiscountType {
	case models.DiscountPercentage:
		discount = cartCtx.Subtotal.Mul(coupon.DiscountValue).Div(hundred)
	case models.DiscountFixed:
		discount = decimal.Min(coupon.DiscountValue, cartCtx.Subtotal)
	default:
		return decimal.Zero
	}
	if discount.IsNegative() {
		return decimal.Zero
	}
	return utils.RoundMoney(discount)
}

// CouponRequest DTO used for create and update.
type CouponRequest struct {
	Code          string          `json:"code" binding:"required,min=3,max=32,alphanum"`
	DiscountType  string          `json:"discount_type" binding:"required,oneof=percentage fixed"`
	DiscountValue decimal.Decimal `json:"discount_value"`
	UsageType     string          `json:"usage_type" binding:"omitempty,oneof=all first_order"`
	TargetType    string          `json:"target_type" binding:"omitempty,oneof=all category brand product"`
	TargetID      *string         `json:"target_id"`
	Active        *bool           `json:"active"`
}

// CouponTargetStructLevel requires target_id whenever target_type narrows the coupon.
func CouponTargetStructLevel(sl validator.StructLevel) {
	req := sl.Current().Interface().(CouponRequest)
	if req.TargetType == "" || req.TargetType == string(models.CouponTargetAll) {
		return
	}
	if req.TargetID == nil || strings.TrimSpace(*req.TargetID) == "" {
		sl.ReportError(req.TargetID, "target_id", "TargetID", "coupon_target", req.TargetType)
	}
}

// ValidateCouponRequest DTO for the storefront preview.
type ValidateCouponRequest struct {
	Code  string `json:"code" binding:"required"`
	Phone string `json:"phone"`
}

// CouponPreview is the outcome of applying a code to a cart.
type CouponPreview struct {
	Code     string          `json:"code"`
	Discount decimal.Decimal `json:"discount"`
	Subtotal decimal.Decimal `json:"subtotal"`
	Total    decimal.Decimal `json:"total"`
}

// CouponService manages coupons and applies them to carts.
type CouponService interface {
	CreateCoupon(storeID int64, req CouponRequest) (*models.Coupon, error)
	GetCoupon(storeID, couponID int64) (*models.Coupon, error)
	ListCoupons(storeID int64) ([]models.Coupon, error)
	UpdateCoupon(storeID, couponID int64, req CouponRequest) (*models.Coupon, error)
	DeleteCoupon(storeID, couponID int64) error
	// Apply resolves a code against a cart. phone may be empty.
	Apply(storeID int64, code string, cart *models.Cart, phone string) (*models.Coupon, decimal.Decimal, error)
}

type couponService struct {
	couponRepo    repositories.CouponRepository
	productRepo   repositories.ProductRepository
	orderRepo     repositories.OrderRepository
	db            repositories.SQLExecutor
	defaultRegion string
}

// NewCouponService creates a new instance of CouponService.
func NewCouponService(cr repositories.CouponRepository, pr repositories.ProductRepository, or repositories.OrderRepository,
	db repositories.SQLExecutor, defaultRegion string) CouponService {
	return &couponService{couponRepo: cr, productRepo: pr, orderRepo: or, db: db, defaultRegion: defaultRegion}
}

func couponFromRequest(storeID int64, req CouponRequest) (*models.Coupon, error) {
	if !req.DiscountValue.IsPositive() {
		return nil, fmt.Errorf("%w: discount_value must be positive", ErrValidation)
	}
	if req.DiscountType == string(models.DiscountPercentage) && req.DiscountValue.GreaterThan(hundred) {
		return nil, fmt.Errorf("%w: percentage discount cannot exceed 100", ErrValidation)
	}
	coupon := &models.Coupon{
		StoreID:       storeID,
		Code:          strings.ToUpper(strings.TrimSpace(req.Code)),
		DiscountType:  models.DiscountType(req.DiscountType),
		DiscountValue: utils.RoundMoney(req.DiscountValue),
		UsageType:     models.CouponUsageAll,
		TargetType:    models.CouponTargetAll,
		Active:        true,
	}
	if req.UsageType != "" {
		coupon.UsageType = models.CouponUsage(req.UsageType)
	}
	if req.TargetType != "" {
		coupon.TargetType = models.CouponTarget(req.TargetType)
	}
	if coupon.TargetType != models.CouponTargetAll {
		if req.TargetID == nil || utils.IsEmpty(*req.TargetID) {
			return nil, fmt.Errorf("%w: target_id is required for target_type %s", ErrValidation, coupon.TargetType)
		}
		target := strings.TrimSpace(*req.TargetID)
		if coupon.TargetType == models.CouponTargetProduct {
			if id, err := strconv.ParseInt(target, 10, 64); err != nil || id <= 0 {
				return nil, fmt.Errorf("%w: target_id must be a product id", ErrValidation)
			}
		}
		coupon.TargetID = &target
	}
	if req.Active != nil {
		coupon.Active = *req.Active
	}
	return coupon, nil
}

func (s *couponService) CreateCoupon(storeID int64, req CouponRequest) (*models.Coupon, error) {
	coupon, err := couponFromRequest(storeID, req)
	if err != nil {
		return nil, err
	}
	if _, err := s.couponRepo.CreateCoupon(s.db, coupon); err != nil {
		if errors.Is(err, repositories.ErrDuplicateKey) {
			return nil, ErrCouponCodeExists
		}
		return nil, fmt.Errorf("failed to create coupon: %w", err)
	}
	return coupon, nil
}

func (s *couponService) GetCoupon(storeID, couponID int64) (*models.Coupon, error) {
	coupon, err := s.couponRepo.GetCouponByID(storeID, couponID)
	if err != nil {
		if errors.Is(err, repositories.ErrNotFound) {
			return nil, ErrCouponNotFound
		}
		return nil, fmt.Errorf("failed to get coupon: %w", err)
	}
	return coupon, nil
}

func (s *couponService) ListCoupons(storeID int64) ([]models.Coupon, error) {
	coupons, err := s.couponRepo.GetCoupons(storeID)
	if err != nil {
		return nil, fmt.Errorf("failed to list coupons: %w", err)
	}
	return coupons, nil
}

func (s *couponService) UpdateCoupon(storeID, couponID int64, req CouponRequest) (*models.Coupon, error) {
	existing, err := s.GetCoupon(storeID, couponID)
	if err != nil {
		return nil, err
	}
	coupon, err := couponFromRequest(storeID, req)
	if err != nil {
		return nil, err
	}
	coupon.ID = existing.ID
	coupon.CreatedAt = existing.CreatedAt
	if req.Active == nil {
		coupon.Active = existing.Active
	}
	if err := s.couponRepo.UpdateCoupon(s.db, coupon); err != nil {
		if errors.Is(err, repositories.ErrDuplicateKey) {
			return nil, ErrCouponCodeExists
		}
		if errors.Is(err, repositories.ErrNotFound) {
			return nil, ErrCouponNotFound
		}
		return nil, fmt.Errorf("failed to update coupon: %w", err)
	}
	return coupon, nil
}

func (s *couponService) DeleteCoupon(storeID, couponID int64) error {
	if err := s.couponRepo.DeleteCoupon(s.db, storeID, couponID); err != nil {
		if errors.Is(err, repositories.ErrNotFound) {
			return ErrCouponNotFound
		}
		return fmt.Errorf("failed to delete coupon: %w", err)
	}
	return nil
}

// Apply looks up the code, builds the resolver context from the cart's products and
// the customer's order history, and returns the coupon with the discount it grants.
// A zero discount is reported as ErrCouponNotApplied.
func (s *couponService) Apply(storeID int64, code string, cart *models.Cart, phone string) (*models.Coupon, decimal.Decimal, error) {
	coupon, err := s.couponRepo.GetCouponByCode(storeID, code)
	if err != nil {
		if errors.Is(err, repositories.ErrNotFound) {
			return nil, decimal.Zero, ErrCouponNotFound
		}
		return nil, decimal.Zero, fmt.Errorf("failed to get coupon: %w", err)
	}
	if !coupon.Active {
		return nil, decimal.Zero, ErrCouponNotFound
	}

	cartCtx := CouponContext{Subtotal: cart.Total()}
	if coupon.TargetType != models.CouponTargetAll {
		ids := make([]int64, 0, len(cart.Items))
		for _, it := range cart.Items {
			ids = append(ids, it.ID)
		}
		products, err := s.productRepo.GetProductsByIDs(storeID, ids)
		if err != nil {
			return nil, decimal.Zero, fmt.Errorf("failed to load cart products: %w", err)
		}
		for _, p := range products {
			cartCtx.Lines = append(cartCtx.Lines, CouponLine{
				ProductID: p.ID,
				Category:  utils.DerefString(p.Category, ""),
				Brand:     utils.DerefString(p.Brand, ""),
			})
		}
	}
	if coupon.UsageType == models.CouponUsageFirstOrder && !utils.IsEmpty(phone) {
		if normalized, err := utils.NormalizePhone(phone, s.defaultRegion); err == nil {
			count, err := s.orderRepo.CountCompletedOrdersByPhone(storeID, normalized)
			if err != nil {
				return nil, decimal.Zero, fmt.Errorf("failed to check order history: %w", err)
			}
			cartCtx.PriorCompletedOrders = &count
		}
	}

	discount := ResolveCoupon(coupon, cartCtx)
	if discount.IsZero() {
		return coupon, decimal.Zero, ErrCouponNotApplied
	}
	return coupon, discount, nil
}
