package models

import (
	"time"

	"github.com/shopspring/decimal"
)

type OrderStatus string

const (
	OrderStatusPending    OrderStatus = "pending"
	OrderStatusProcessing OrderStatus = "processing"
	OrderStatusDelivering OrderStatus = "delivering"
	OrderStatusCompleted  OrderStatus = "completed"
)

// orderStatusFlow has exactly one forward transition per non-terminal state.
var orderStatusFlow = map[OrderStatus]OrderStatus{
	OrderStatusPending:    OrderStatusProcessing,
	OrderStatusProcessing: OrderStatusDelivering,
	OrderStatusDelivering: OrderStatusCompleted,
}

// IsValidOrderStatus checks if the provided status string is a known OrderStatus.
func IsValidOrderStatus(status string) bool {
	switch OrderStatus(status) {
	case OrderStatusPending, OrderStatusProcessing, OrderStatusDelivering, OrderStatusCompleted:
		return true
	default:
		return false
	}
}

// Next returns the following state, or false at the terminal state.
func (s OrderStatus) Next() (OrderStatus, bool) {
	next, ok := orderStatusFlow[s]
	return next, ok
}

func (s OrderStatus) IsTerminal() bool {
	_, ok := orderStatusFlow[s]
	return !ok
}

type DeliveryMode string

const (
	DeliveryModePickup   DeliveryMode = "pickup"
	DeliveryModeDelivery DeliveryMode = "delivery"
)

func (m DeliveryMode) IsValid() bool {
	return m == DeliveryModePickup || m == DeliveryModeDelivery
}

// Order is a merchant-side order record created at storefront checkout.
type Order struct {
	ID             int64           `json:"id"`
	StoreID        int64           `json:"store_id"`
	CustomerID     *int64          `json:"customer_id,omitempty"`
	CustomerName   string          `json:"customer_name"`
	CustomerPhone  *string         `json:"customer_phone,omitempty"`
	DeliveryMode   DeliveryMode    `json:"delivery_mode"`
	Address        *string         `json:"address,omitempty"`
	Subtotal       decimal.Decimal `json:"subtotal"`
	ShippingFee    decimal.Decimal `json:"shipping_fee"`
	DiscountAmount decimal.Decimal `json:"discount_amount"`
	CouponCode     *string         `json:"coupon_code,omitempty"`
	TotalAmount    decimal.Decimal `json:"total_amount"`
	Status         OrderStatus     `json:"status"`
	PaymentMethod  *string         `json:"payment_method,omitempty"`
	Notes          *string         `json:"notes,omitempty"`
	InvoiceURL     *string         `json:"invoice_url,omitempty"`
	Items          []OrderItem     `json:"items"`
	CreatedAt      time.Time       `json:"created_at"`
	UpdatedAt      time.Time       `json:"updated_at"`
}

// Advance moves the order one step forward. It reports false, leaving the
// order untouched, when the order is already terminal.
func (o *Order) Advance() bool {
	next, ok := o.Status.Next()
	if !ok {
		return false
	}
	o.Status = next
	return true
}

// OrderItem is a snapshot of a cart line at checkout time.
type OrderItem struct {
	ID          int64           `json:"id"`
	OrderID     int64           `json:"order_id"`
	ProductID   *int64          `json:"product_id,omitempty"`
	ProductName string          `json:"product_name"`
	Quantity    int             `json:"quantity"`
	UnitPrice   decimal.Decimal `json:"unit_price"`
	TotalPrice  decimal.Decimal `json:"total_price"`
}

// OrderFilters defines the available filters for querying orders.
type OrderFilters struct {
	Status   *string `form:"status"`
	DateFrom *string `form:"date_from"` // YYYY-MM-DD
	DateTo   *string `form:"date_to"`   // YYYY-MM-DD
	Search   string  `form:"search"`    // customer name or phone
	Page     int     `form:"page"`
	PageSize int     `form:"page_size"`
}
