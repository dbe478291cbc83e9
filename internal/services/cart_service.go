package services

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"supplestore_backend/internal/models"
	"supplestore_backend/internal/repositories"

	"github.com/google/uuid"
)

var (
	ErrInvalidCartToken = errors.New("invalid cart token")
	ErrCartItemNotFound = errors.New("item not in cart")
	ErrCartBusy         = errors.New("cart is busy, try again")
)

// AddCartItemRequest DTO
type AddCartItemRequest struct {
	ProductID int64 `json:"product_id" binding:"required,gt=0"`
	Quantity  int   `json:"quantity"`
}

// SetCartQuantityRequest DTO; quantity < 1 removes the line.
type SetCartQuantityRequest struct {
	Quantity int `json:"quantity"`
}

// AddressRequest DTO
type AddressRequest struct {
	Street     string  `json:"street" binding:"required"`
	Number     string  `json:"number" binding:"required"`
	Complement string  `json:"complement"`
	District   string  `json:"district" binding:"required"`
	City       string  `json:"city" binding:"required"`
	State      string  `json:"state"`
	ZipCode    string  `json:"zip_code"`
	Reference  string  `json:"reference"`
	DistanceKm float64 `json:"distance_km" binding:"min=0"`
}

// CartView is the cart plus its derived totals.
type CartView struct {
	Token     string            `json:"token"`
	Items     []models.CartItem `json:"items"`
	Address   *models.Address   `json:"address,omitempty"`
	ItemCount int               `json:"item_count"`
	Total     string            `json:"total"`
}

// NewCartView projects a cart for API responses.
func NewCartView(token string, cart *models.Cart) *CartView {
	return &CartView{
		Token:     token,
		Items:     cart.Items,
		Address:   cart.Address,
		ItemCount: cart.ItemCount(),
		Total:     cart.Total().StringFixed(2),
	}
}

// CartService is the storefront shopping cart. Every mutation is persisted.
type CartService interface {
	// NewToken issues a cart token for a browser that has none.
	NewToken() string
	GetCart(ctx context.Context, storeID int64, token string) (*models.Cart, error)
	AddItem(ctx context.Context, storeID int64, token string, req AddCartItemRequest) (*models.Cart, error)
	SetQuantity(ctx context.Context, storeID int64, token string, productID int64, qty int) (*models.Cart, error)
	RemoveItem(ctx context.Context, storeID int64, token string, productID int64) (*models.Cart, error)
	Clear(ctx context.Context, storeID int64, token string) (*models.Cart, error)
	SetAddress(ctx context.Context, storeID int64, token string, req AddressRequest) (*models.Cart, error)
}

type cartService struct {
	cartRepo    repositories.CartRepository
	productRepo repositories.ProductRepository
}

// NewCartService creates a new instance of CartService.
func NewCartService(cartRepo repositories.CartRepository, productRepo repositories.ProductRepository) CartService {
	return &cartService{cartRepo: cartRepo, productRepo: productRepo}
}

func (s *cartService) NewToken() string {
	return uuid.NewString()
}

func cartKey(storeID int64, token string) (string, error) {
	id, err := uuid.Parse(strings.TrimSpace(token))
	if err != nil {
		return "", ErrInvalidCartToken
	}
	return repositories.CartKey(storeID, id.String()), nil
}

func (s *cartService) update(ctx context.Context, storeID int64, token string, fn func(cart *models.Cart) error) (*models.Cart, error) {
	key, err := cartKey(storeID, token)
	if err != nil {
		return nil, err
	}
	cart, err := s.cartRepo.Update(ctx, key, fn)
	if err != nil {
		if errors.Is(err, repositories.ErrCartBusy) {
			return nil, ErrCartBusy
		}
		return nil, err
	}
	return cart, nil
}

func (s *cartService) GetCart(ctx context.Context, storeID int64, token string) (*models.Cart, error) {
	key, err := cartKey(storeID, token)
	if err != nil {
		return nil, err
	}
	cart, err := s.cartRepo.Load(ctx, key)
	if err != nil {
		return nil, fmt.Errorf("failed to load cart: %w", err)
	}
	return cart, nil
}

// AddItem snapshots the product's current name and price into the cart.
func (s *cartService) AddItem(ctx context.Context, storeID int64, token string, req AddCartItemRequest) (*models.Cart, error) {
	product, err := s.productRepo.GetProductByID(storeID, req.ProductID)
	if err != nil {
		if errors.Is(err, repositories.ErrNotFound) {
			return nil, ErrProductNotFound
		}
		return nil, fmt.Errorf("failed to load product for cart: %w", err)
	}
	if !product.IsActive {
		return nil, ErrProductUnavailable
	}
	return s.update(ctx, storeID, token, func(cart *models.Cart) error {
		cart.AddItem(product.CartLine(), req.Quantity)
		return nil
	})
}

func (s *cartService) SetQuantity(ctx context.Context, storeID int64, token string, productID int64, qty int) (*models.Cart, error) {
	return s.update(ctx, storeID, token, func(cart *models.Cart) error {
		if !cart.Has(productID) {
			return ErrCartItemNotFound
		}
		cart.SetQuantity(productID, qty)
		return nil
	})
}

func (s *cartService) RemoveItem(ctx context.Context, storeID int64, token string, productID int64) (*models.Cart, error) {
	return s.update(ctx, storeID, token, func(cart *models.Cart) error {
		cart.RemoveItem(productID)
		return nil
	})
}

func (s *cartService) Clear(ctx context.Context, storeID int64, token string) (*models.Cart, error) {
	return s.update(ctx, storeID, token, func(cart *models.Cart) error {
		cart.Clear()
		return nil
	})
}

func (s *cartService) SetAddress(ctx context.Context, storeID int64, token string, req AddressRequest) (*models.Cart, error) {
	addr := &models.Address{
		Street:     strings.TrimSpace(req.Street),
		Number:     strings.TrimSpace(req.Number),
		Complement: strings.TrimSpace(req.Complement),
		District:   strings.TrimSpace(req.District),
		City:       strings.TrimSpace(req.City),
		State:      strings.TrimSpace(req.State),
		ZipCode:    strings.TrimSpace(req.ZipCode),
		Reference:  strings.TrimSpace(req.Reference),
		DistanceKm: req.DistanceKm,
	}
	if !addr.IsComplete() {
		return nil, fmt.Errorf("%w: street, number, district and city are required", ErrValidation)
	}
	return s.update(ctx, storeID, token, func(cart *models.Cart) error {
		cart.Address = addr
		return nil
	})
}
