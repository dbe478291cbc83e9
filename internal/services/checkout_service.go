package services

import (
	"context"
	"errors"
	"fmt"
	"net/url"
	"strings"
	"time"

	"supplestore_backend/internal/models"
	"supplestore_backend/internal/repositories"
	"supplestore_backend/pkg/utils"

	"github.com/shopspring/decimal"
)

var (
	ErrEmptyCart           = errors.New("cart is empty")
	ErrAddressRequired     = errors.New("a saved delivery address is required for delivery orders")
	ErrInvalidDeliveryMode = errors.New("delivery mode must be pickup or delivery")
	ErrStoreUnreachable    = errors.New("store has no WhatsApp number configured")
)

// SummaryLine is one itemized line of a checkout summary.
type SummaryLine struct {
	ProductID int64           `json:"product_id"`
	Name      string          `json:"name"`
	Quantity  int             `json:"quantity"`
	UnitPrice decimal.Decimal `json:"unit_price"`
	Total     decimal.Decimal `json:"total"`
}

// SummaryInput is everything the composer needs. It does no I/O.
type SummaryInput struct {
	StoreName     string
	Lines         []models.CartItem
	Mode          models.DeliveryMode
	Address       *models.Address
	CustomerName  string
	CouponCode    string
	Discount      decimal.Decimal
	ShippingFee   decimal.Decimal
	PaymentMethod string
	Notes         string
}

// OrderSummary is the composed checkout summary.
type OrderSummary struct {
	Lines       []SummaryLine   `json:"lines"`
	Subtotal    decimal.Decimal `json:"subtotal"`
	Discount    decimal.Decimal `json:"discount"`
	ShippingFee decimal.Decimal `json:"shipping_fee"`
	Total       decimal.Decimal `json:"total"`
	Message     string          `json:"message"`
}

// ComposeOrderSummary validates the checkout input and renders the order message.
// The shipping line and the address block appear only for delivery orders.
func ComposeOrderSummary(in SummaryInput) (*OrderSummary, error) {
	if len(in.Lines) == 0 {
		return nil, ErrEmptyCart
	}
	if !in.Mode.IsValid() {
		return nil, ErrInvalidDeliveryMode
	}
	delivery := in.Mode == models.DeliveryModeDelivery
	if delivery && !in.Address.IsComplete() {
		return nil, ErrAddressRequired
	}

	summary := &OrderSummary{Lines: make([]SummaryLine, 0, len(in.Lines))}
	for _, it := range in.Lines {
		line := SummaryLine{ProductID: it.ID, Name: it.Name, Quantity: it.Quantity, UnitPrice: it.Price, Total: it.Subtotal()}
		summary.Lines = append(summary.Lines, line)
		summary.Subtotal = summary.Subtotal.Add(line.Total)
	}
	summary.Subtotal = utils.RoundMoney(summary.Subtotal)

	summary.Discount = decimal.Min(decimal.Max(in.Discount, decimal.Zero), summary.Subtotal)
	if delivery {
		summary.ShippingFee = decimal.Max(in.ShippingFee, decimal.Zero)
	}
	summary.Total = utils.RoundMoney(summary.Subtotal.Sub(summary.Discount).Add(summary.ShippingFee))

	var b strings.Builder
	if in.StoreName != "" {
		fmt.Fprintf(&b, "*Novo pedido - %s*\n\n", in.StoreName)
	} else {
		b.WriteString("*Novo pedido*\n\n")
	}
	b.WriteString("*Itens:*\n")
	for _, line := range summary.Lines {
		fmt.Fprintf(&b, "%dx %s - %s\n", line.Quantity, line.Name, utils.FormatBRL(line.Total))
	}
	b.WriteString("\n")
	fmt.Fprintf(&b, "Subtotal: %s\n", utils.FormatBRL(summary.Subtotal))
	if summary.Discount.IsPositive() {
		label := "Desconto"
		if in.CouponCode != "" {
			label = fmt.Sprintf("Desconto (%s)", in.CouponCode)
		}
		fmt.Fprintf(&b, "%s: -%s\n", label, utils.FormatBRL(summary.Discount))
	}
	if delivery {
		if summary.ShippingFee.IsZero() {
			b.WriteString("Frete: Grátis\n")
		} else {
			fmt.Fprintf(&b, "Frete: %s\n", utils.FormatBRL(summary.ShippingFee))
		}
	}
	fmt.Fprintf(&b, "*Total: %s*\n\n", utils.FormatBRL(summary.Total))

	if delivery {
		b.WriteString("*Entrega*\n")
		for _, l := range in.Address.Lines() {
			b.WriteString(l + "\n")
		}
	} else {
		b.WriteString("*Retirada na loja*\n")
	}

	if in.CustomerName != "" {
		fmt.Fprintf(&b, "\n*Cliente:* %s\n", in.CustomerName)
	}
	if in.PaymentMethod != "" {
		fmt.Fprintf(&b, "*Pagamento:* %s\n", in.PaymentMethod)
	}
	if in.Notes != "" {
		fmt.Fprintf(&b, "*Observações:* %s\n", in.Notes)
	}
	summary.Message = strings.TrimRight(b.String(), "\n")
	return summary, nil
}

// BuildWhatsAppURL builds the wa.me deep link. phone must already be E.164 digits.
func BuildWhatsAppURL(phone, message string) string {
	text := strings.ReplaceAll(url.QueryEscape(message), "+", "%20")
	return "https://wa.me/" + strings.TrimPrefix(phone, "+") + "?text=" + text
}

// CheckoutRequest DTO
type CheckoutRequest struct {
	CustomerName  string `json:"customer_name" binding:"required"`
	CustomerPhone string `json:"customer_phone" binding:"required"`
	DeliveryMode  string `json:"delivery_mode" binding:"required,oneof=pickup delivery"`
	CouponCode    string `json:"coupon_code"`
	PaymentMethod string `json:"payment_method" binding:"omitempty,max=40"`
	Notes         string `json:"notes" binding:"omitempty,max=500"`
}

// CheckoutResult is returned to the storefront after a successful checkout.
type CheckoutResult struct {
	Order       *models.Order `json:"order"`
	Summary     *OrderSummary `json:"summary"`
	WhatsAppURL string        `json:"whatsapp_url"`
	// StoreOpen is informational; a closed store still accepts orders.
	StoreOpen bool `json:"store_open"`
}

// CheckoutService turns a storefront cart into a merchant order and a WhatsApp handoff.
type CheckoutService interface {
	Checkout(ctx context.Context, store *models.Store, cartToken string, req CheckoutRequest) (*CheckoutResult, error)
}

type checkoutService struct {
	cartRepo      repositories.CartRepository
	productRepo   repositories.ProductRepository
	orderRepo     repositories.OrderRepository
	customerRepo  repositories.CustomerRepository
	movementRepo  repositories.StockMovementRepository
	coupons       CouponService
	db            TxBeginner
	defaultRegion string
	now           func() time.Time
}

// NewCheckoutService creates a new instance of CheckoutService.
func NewCheckoutService(
	cartRepo repositories.CartRepository,
	productRepo repositories.ProductRepository,
	orderRepo repositories.OrderRepository,
	customerRepo repositories.CustomerRepository,
	movementRepo repositories.StockMovementRepository,
	coupons CouponService,
	db TxBeginner,
	defaultRegion string,
) CheckoutService {
	return &checkoutService{
		cartRepo:      cartRepo,
		productRepo:   productRepo,
		orderRepo:     orderRepo,
		customerRepo:  customerRepo,
		movementRepo:  movementRepo,
		coupons:       coupons,
		db:            db,
		defaultRegion: defaultRegion,
		now:           time.Now,
	}
}

// refreshLines re-reads every cart product so prices and availability are current.
func (s *checkoutService) refreshLines(storeID int64, cart *models.Cart) ([]models.CartItem, error) {
	ids := make([]int64, 0, len(cart.Items))
	for _, it := range cart.Items {
		ids = append(ids, it.ID)
	}
	products, err := s.productRepo.GetProductsByIDs(storeID, ids)
	if err != nil {
		return nil, fmt.Errorf("failed to load cart products: %w", err)
	}
	byID := make(map[int64]models.Product, len(products))
	for _, p := range products {
		byID[p.ID] = p
	}
	lines := make([]models.CartItem, 0, len(cart.Items))
	for _, it := range cart.Items {
		p, ok := byID[it.ID]
		if !ok || !p.IsActive {
			return nil, fmt.Errorf("%w: %s", ErrProductUnavailable, it.Name)
		}
		if p.Stock < it.Quantity {
			return nil, fmt.Errorf("%w: %s (requested %d, available %d)", ErrInsufficientStock, p.Name, it.Quantity, p.Stock)
		}
		line := p.CartLine()
		line.Quantity = it.Quantity
		lines = append(lines, line)
	}
	return lines, nil
}

// Checkout prices, records and clears the cart while holding the cart lock, so a
// repeated submit finds an empty cart instead of placing a second order.
func (s *checkoutService) Checkout(ctx context.Context, store *models.Store, cartToken string, req CheckoutRequest) (*CheckoutResult, error) {
	key, err := cartKey(store.ID, cartToken)
	if err != nil {
		return nil, err
	}
	if store.WhatsAppPhone == nil || *store.WhatsAppPhone == "" {
		return nil, ErrStoreUnreachable
	}
	phone, err := utils.NormalizePhone(req.CustomerPhone, s.defaultRegion)
	if err != nil {
		return nil, fmt.Errorf("%w: customer_phone: %v", ErrValidation, err)
	}

	var (
		order  *models.Order
		priced *pricedCheckout
	)
	_, err = s.cartRepo.Update(ctx, key, func(cart *models.Cart) error {
		var err error
		if priced, err = s.priceCart(store, cart, req, phone); err != nil {
			return err
		}
		if order, err = s.recordOrder(store.ID, priced.input, priced.OrderSummary, phone, priced.coupon); err != nil {
			return err
		}
		cart.Clear()
		return nil
	})
	switch {
	case err == nil:
	case order != nil:
		utils.LogWarn("Order recorded but cart could not be cleared", map[string]interface{}{
			"store_id": store.ID, "order_id": order.ID, "error": err.Error(),
		})
	case errors.Is(err, repositories.ErrCartBusy):
		return nil, ErrCartBusy
	default:
		return nil, err
	}

	return &CheckoutResult{
		Order:       order,
		Summary:     priced.OrderSummary,
		WhatsAppURL: BuildWhatsAppURL(*store.WhatsAppPhone, priced.Message),
		StoreOpen:   store.Hours.IsOpenAt(s.now()),
	}, nil
}

type pricedCheckout struct {
	*OrderSummary
	input  SummaryInput
	coupon *models.Coupon
}

// priceCart validates the locked cart against current catalog data and composes the summary.
func (s *checkoutService) priceCart(store *models.Store, cart *models.Cart, req CheckoutRequest, phone string) (*pricedCheckout, error) {
	if cart.IsEmpty() {
		return nil, ErrEmptyCart
	}
	mode := models.DeliveryMode(req.DeliveryMode)
	if mode == models.DeliveryModeDelivery && !cart.Address.IsComplete() {
		return nil, ErrAddressRequired
	}

	lines, err := s.refreshLines(store.ID, cart)
	if err != nil {
		return nil, err
	}
	priced := &models.Cart{Items: lines, Address: cart.Address}
	subtotal := priced.Total()

	var coupon *models.Coupon
	discount := decimal.Zero
	if code := strings.TrimSpace(req.CouponCode); code != "" {
		coupon, discount, err = s.coupons.Apply(store.ID, code, priced, phone)
		if err != nil {
			return nil, err
		}
	}

	shipping := decimal.Zero
	if mode == models.DeliveryModeDelivery {
		shipping = store.DeliveryFee.Compute(subtotal, cart.Address.DistanceKm)
	}

	in := SummaryInput{
		StoreName:     store.Name,
		Lines:         lines,
		Mode:          mode,
		Address:       cart.Address,
		CustomerName:  strings.TrimSpace(req.CustomerName),
		Discount:      discount,
		ShippingFee:   shipping,
		PaymentMethod: strings.TrimSpace(req.PaymentMethod),
		Notes:         strings.TrimSpace(req.Notes),
	}
	if coupon != nil {
		in.CouponCode = coupon.Code
	}
	summary, err := ComposeOrderSummary(in)
	if err != nil {
		return nil, err
	}
	return &pricedCheckout{OrderSummary: summary, input: in, coupon: coupon}, nil
}

// recordOrder upserts the customer, writes the pending order with its items and
// takes the sold quantities out of stock, all in one transaction.
func (s *checkoutService) recordOrder(storeID int64, in SummaryInput, summary *OrderSummary, phone string, coupon *models.Coupon) (*models.Order, error) {
	tx, err := s.db.Begin()
	if err != nil {
		return nil, fmt.Errorf("failed to start database transaction: %w", err)
	}
	defer tx.Rollback()

	customer := &models.Customer{StoreID: storeID, FullName: in.CustomerName, Phone: phone}
	var address *string
	if in.Mode == models.DeliveryModeDelivery {
		addr := in.Address.String()
		address = &addr
		customer.Address = &addr
	}
	if _, err := s.customerRepo.UpsertCustomerByPhone(tx, customer); err != nil {
		return nil, fmt.Errorf("failed to save customer: %w", err)
	}

	order := &models.Order{
		StoreID:        storeID,
		CustomerID:     &customer.ID,
		CustomerName:   in.CustomerName,
		CustomerPhone:  &phone,
		DeliveryMode:   in.Mode,
		Address:        address,
		Subtotal:       summary.Subtotal,
		ShippingFee:    summary.ShippingFee,
		DiscountAmount: summary.Discount,
		TotalAmount:    summary.Total,
		Status:         models.OrderStatusPending,
		PaymentMethod:  utils.NewNullString(in.PaymentMethod),
		Notes:          utils.NewNullString(in.Notes),
		CreatedAt:      s.now(),
	}
	if coupon != nil {
		order.CouponCode = &coupon.Code
	}
	if _, err := s.orderRepo.CreateOrder(tx, order); err != nil {
		return nil, fmt.Errorf("failed to create order record: %w", err)
	}

	for _, line := range summary.Lines {
		productID := line.ProductID
		item := models.OrderItem{
			OrderID:     order.ID,
			ProductID:   &productID,
			ProductName: line.Name,
			Quantity:    line.Quantity,
			UnitPrice:   line.UnitPrice,
			TotalPrice:  line.Total,
		}
		if _, err := s.orderRepo.CreateOrderItem(tx, &item); err != nil {
			return nil, fmt.Errorf("failed to create order item (product_id: %d): %w", productID, err)
		}
		order.Items = append(order.Items, item)

		if _, err := s.productRepo.UpdateStock(tx, storeID, productID, -line.Quantity); err != nil {
			if errors.Is(err, repositories.ErrNegativeStock) {
				return nil, fmt.Errorf("%w: %s", ErrInsufficientStock, line.Name)
			}
			return nil, fmt.Errorf("failed to update stock for %s: %w", line.Name, err)
		}
		movement := &models.StockMovement{
			StoreID:         storeID,
			ProductID:       productID,
			MovementType:    models.MovementTypeSale,
			QuantityChanged: -line.Quantity,
			Reason:          utils.NewNullString(fmt.Sprintf("Order %d", order.ID)),
		}
		if _, err := s.movementRepo.CreateMovement(tx, movement); err != nil {
			return nil, fmt.Errorf("failed to record stock movement for %s: %w", line.Name, err)
		}
	}

	if err := tx.Commit(); err != nil {
		return nil, fmt.Errorf("failed to commit order transaction: %w", err)
	}
	utils.LogInfo("Storefront order created", map[string]interface{}{
		"store_id": storeID, "order_id": order.ID, "total": order.TotalAmount.StringFixed(2),
	})
	return order, nil
}
