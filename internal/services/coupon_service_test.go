package services

import (
	"testing"

	"supplestore_backend/internal/models"

	"github.com/go-playground/validator/v10"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func intPtr(i int) *int { return &i }

func TestResolveCoupon(t *testing.T) {
	lines := []CouponLine{
		{ProductID: 1, Category: "Proteína", Brand: "Growth"},
		{ProductID: 2, Category: "Barras", Brand: "Bold"},
	}
	base := func(mod func(c *models.Coupon)) *models.Coupon {
		c := &models.Coupon{
			Code: "X", DiscountType: models.DiscountPercentage, DiscountValue: d("10"),
			UsageType: models.CouponUsageAll, TargetType: models.CouponTargetAll, Active: true,
		}
		if mod != nil {
			mod(c)
		}
		return c
	}

	tests := []struct {
		name   string
		coupon *models.Coupon
		prior  *int
		want   string
	}{
		{"percentage on subtotal", base(nil), nil, "2.50"},
		{"fixed below subtotal", base(func(c *models.Coupon) {
			c.DiscountType = models.DiscountFixed
			c.DiscountValue = d("5")
		}), nil, "5.00"},
		{"fixed clamped to subtotal", base(func(c *models.Coupon) {
			c.DiscountType = models.DiscountFixed
			c.DiscountValue = d("40")
		}), nil, "25.00"},
		{"inactive", base(func(c *models.Coupon) { c.Active = false }), nil, "0.00"},
		{"category match is case insensitive", base(func(c *models.Coupon) {
			c.TargetType = models.CouponTargetCategory
			c.TargetID = strPtr("proteína")
		}), nil, "2.50"},
		{"category miss", base(func(c *models.Coupon) {
			c.TargetType = models.CouponTargetCategory
			c.TargetID = strPtr("Creatina")
		}), nil, "0.00"},
		{"brand match", base(func(c *models.Coupon) {
			c.TargetType = models.CouponTargetBrand
			c.TargetID = strPtr("Bold")
		}), nil, "2.50"},
		{"product match", base(func(c *models.Coupon) {
			c.TargetType = models.CouponTargetProduct
			c.TargetID = strPtr("2")
		}), nil, "2.50"},
		{"product miss", base(func(c *models.Coupon) {
			c.TargetType = models.CouponTargetProduct
			c.TargetID = strPtr("9")
		}), nil, "0.00"},
		{"targeted without target id", base(func(c *models.Coupon) { c.TargetType = models.CouponTargetBrand }), nil, "0.00"},
		{"first order for unknown customer", base(func(c *models.Coupon) { c.UsageType = models.CouponUsageFirstOrder }), nil, "0.00"},
		{"first order for new customer", base(func(c *models.Coupon) { c.UsageType = models.CouponUsageFirstOrder }), intPtr(0), "2.50"},
		{"first order for returning customer", base(func(c *models.Coupon) { c.UsageType = models.CouponUsageFirstOrder }), intPtr(1), "0.00"},
		{"unknown discount type", base(func(c *models.Coupon) { c.DiscountType = "bogus" }), nil, "0.00"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := ResolveCoupon(tt.coupon, CouponContext{Subtotal: d("25"), Lines: lines, PriorCompletedOrders: tt.prior})
			assert.Equal(t, tt.want, got.StringFixed(2))
		})
	}
}

func TestResolveCouponRoundsAndHandlesEmptyCart(t *testing.T) {
	c := &models.Coupon{DiscountType: models.DiscountPercentage, DiscountValue: d("15"),
		UsageType: models.CouponUsageAll, TargetType: models.CouponTargetAll, Active: true}
	assert.Equal(t, "1.50", ResolveCoupon(c, CouponContext{Subtotal: d("9.99")}).StringFixed(2))
	assert.True(t, ResolveCoupon(c, CouponContext{Subtotal: decimal.Zero}).IsZero())
	assert.True(t, ResolveCoupon(nil, CouponContext{Subtotal: d("10")}).IsZero())
}

func TestCouponApply(t *testing.T) {
	products := newFakeProductRepo(
		models.Product{ID: 1, StoreID: 1, Name: "Whey", Price: d("10"), Category: strPtr("Proteína"), IsActive: true},
		models.Product{ID: 2, StoreID: 1, Name: "Barra", Price: d("5"), IsActive: true},
	)
	orders := newFakeOrderRepo()
	coupons := &fakeCouponRepo{byCode: map[string]*models.Coupon{
		"PROT": {StoreID: 1, Code: "PROT", DiscountType: models.DiscountFixed, DiscountValue: d("3"),
			UsageType: models.CouponUsageAll, TargetType: models.CouponTargetCategory, TargetID: strPtr("Proteína"), Active: true},
		"OFF": {StoreID: 1, Code: "OFF", DiscountType: models.DiscountFixed, DiscountValue: d("3"),
			UsageType: models.CouponUsageAll, TargetType: models.CouponTargetAll, Active: false},
		"NOVO": {StoreID: 1, Code: "NOVO", DiscountType: models.DiscountPercentage, DiscountValue: d("20"),
			UsageType: models.CouponUsageFirstOrder, TargetType: models.CouponTargetAll, Active: true},
	}}
	svc := NewCouponService(coupons, products, orders, nil, "BR")
	cart := &models.Cart{Items: exampleLines()}

	coupon, discount, err := svc.Apply(1, "PROT", cart, "")
	require.NoError(t, err)
	assert.Equal(t, "PROT", coupon.Code)
	assert.Equal(t, "3.00", discount.StringFixed(2))

	_, _, err = svc.Apply(1, "NOPE", cart, "")
	assert.ErrorIs(t, err, ErrCouponNotFound)

	_, _, err = svc.Apply(1, "OFF", cart, "")
	assert.ErrorIs(t, err, ErrCouponNotFound)

	_, _, err = svc.Apply(1, "NOVO", cart, "")
	assert.ErrorIs(t, err, ErrCouponNotApplied, "an anonymous shopper never qualifies for a first-order coupon")
	assert.Zero(t, orders.countCalls)

	_, discount, err = svc.Apply(1, "NOVO", cart, "+55 11 98765-4321")
	require.NoError(t, err)
	assert.Equal(t, "5.00", discount.StringFixed(2))
	assert.Equal(t, 1, orders.countCalls)
}

func TestCouponTargetStructLevel(t *testing.T) {
	v := validator.New()
	v.RegisterStructValidation(CouponTargetStructLevel, CouponRequest{})

	ok := CouponRequest{Code: "ABC", DiscountType: "fixed", DiscountValue: d("5"), TargetType: "category", TargetID: strPtr("Proteína")}
	assert.NoError(t, v.Struct(ok))

	missing := CouponRequest{Code: "ABC", DiscountType: "fixed", DiscountValue: d("5"), TargetType: "brand"}
	assert.Error(t, v.Struct(missing))

	all := CouponRequest{Code: "ABC", DiscountType: "fixed", DiscountValue: d("5")}
	assert.NoError(t, v.Struct(all))
}

func TestCouponFromRequest(t *testing.T) {
	c, err := couponFromRequest(1, CouponRequest{Code: " fit10 ", DiscountType: "percentage", DiscountValue: d("10")})
	require.NoError(t, err)
	assert.Equal(t, "FIT10", c.Code)
	assert.Equal(t, models.CouponUsageAll, c.UsageType)
	assert.True(t, c.Active)

	_, err = couponFromRequest(1, CouponRequest{Code: "BIG", DiscountType: "percentage", DiscountValue: d("120")})
	assert.ErrorIs(t, err, ErrValidation)

	_, err = couponFromRequest(1, CouponRequest{Code: "BIG", DiscountType: "fixed", DiscountValue: d("0")})
	assert.ErrorIs(t, err, ErrValidation)

	_, err = couponFromRequest(1, CouponRequest{Code: "P", DiscountType: "fixed", DiscountValue: d("1"), TargetType: "product", TargetID: strPtr("abc")})
	assert.ErrorIs(t, err, ErrValidation)
}
