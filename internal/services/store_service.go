package services

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"supplestore_backend/internal/models"
	"supplestore_backend/internal/repositories"
	"supplestore_backend/pkg/utils"

	"github.com/shopspring/decimal"
)

var (
	ErrStoreNotFound = errors.New("store not found")
	ErrSlugTaken     = errors.New("store slug already taken")
)

// DeliveryFeeRequest mirrors models.DeliveryFeeConfig for input.
type DeliveryFeeRequest struct {
	Type      string           `json:"type" binding:"required,oneof=fixed per_km free_above"`
	Fee       decimal.Decimal  `json:"fee"`
	PerKm     *decimal.Decimal `json:"per_km"`
	FreeAbove *decimal.Decimal `json:"free_above"`
}

// OpeningHoursRequest carries local "HH:MM" times and weekday numbers (0 = Sunday).
type OpeningHoursRequest struct {
	OpensAt  string `json:"opens_at" binding:"required,hhmm"`
	ClosesAt string `json:"closes_at" binding:"required,hhmm"`
	Days     []int  `json:"days" binding:"dive,min=0,max=6"`
	Timezone string `json:"timezone"`
}

// UpdateStoreRequest is a partial update; nil fields are left untouched.
type UpdateStoreRequest struct {
	Name              *string              `json:"name" binding:"omitempty,min=2"`
	Slug              *string              `json:"slug"`
	Description       *string              `json:"description"`
	LogoURL           *string              `json:"logo_url" binding:"omitempty,url"`
	WhatsAppPhone     *string              `json:"whatsapp_phone"`
	ThemeColor        *string              `json:"theme_color" binding:"omitempty,hexcolor"`
	Address           *string              `json:"address"`
	DeliveryFee       *DeliveryFeeRequest  `json:"delivery_fee"`
	Hours             *OpeningHoursRequest `json:"hours"`
	LowStockThreshold *int                 `json:"low_stock_threshold" binding:"omitempty,min=0"`
}

// StoreService manages the merchant's store profile and resolves storefronts.
type StoreService interface {
	GetStore(storeID int64) (*models.Store, error)
	GetStoreBySlug(slug string) (*models.Store, error)
	GetPublicStore(slug string) (*models.PublicStore, error)
	UpdateStore(storeID int64, req UpdateStoreRequest) (*models.Store, error)
}

type storeService struct {
	storeRepo     repositories.StoreRepository
	db            repositories.SQLExecutor
	defaultRegion string
	now           func() time.Time
}

// NewStoreService creates a new instance of StoreService.
func NewStoreService(storeRepo repositories.StoreRepository, db repositories.SQLExecutor, defaultRegion string) StoreService {
	return &storeService{storeRepo: storeRepo, db: db, defaultRegion: defaultRegion, now: time.Now}
}

func (s *storeService) GetStore(storeID int64) (*models.Store, error) {
	store, err := s.storeRepo.GetStoreByID(storeID)
	if err != nil {
		if errors.Is(err, repositories.ErrNotFound) {
			return nil, ErrStoreNotFound
		}
		return nil, fmt.Errorf("failed to get store: %w", err)
	}
	return store, nil
}

func (s *storeService) GetStoreBySlug(slug string) (*models.Store, error) {
	store, err := s.storeRepo.GetStoreBySlug(strings.ToLower(strings.TrimSpace(slug)))
	if err != nil {
		if errors.Is(err, repositories.ErrNotFound) {
			return nil, ErrStoreNotFound
		}
		return nil, fmt.Errorf("failed to get store by slug: %w", err)
	}
	return store, nil
}

func (s *storeService) GetPublicStore(slug string) (*models.PublicStore, error) {
	store, err := s.GetStoreBySlug(slug)
	if err != nil {
		return nil, err
	}
	public := store.Public(s.now())
	return &public, nil
}

func (s *storeService) UpdateStore(storeID int64, req UpdateStoreRequest) (*models.Store, error) {
	store, err := s.GetStore(storeID)
	if err != nil {
		return nil, err
	}

	if req.Name != nil {
		store.Name = strings.TrimSpace(*req.Name)
	}
	if req.Slug != nil {
		slug := utils.Slugify(*req.Slug)
		if slug == "" {
			return nil, fmt.Errorf("%w: slug must contain letters or digits", ErrValidation)
		}
		store.Slug = slug
	}
	if req.Description != nil {
		store.Description = utils.NewNullString(*req.Description)
	}
	if req.LogoURL != nil {
		store.LogoURL = utils.NewNullString(*req.LogoURL)
	}
	if req.WhatsAppPhone != nil {
		if utils.IsEmpty(*req.WhatsAppPhone) {
			store.WhatsAppPhone = nil
		} else {
			phone, err := utils.NormalizePhone(*req.WhatsAppPhone, s.defaultRegion)
			if err != nil {
				return nil, fmt.Errorf("%w: whatsapp_phone: %v", ErrValidation, err)
			}
			store.WhatsAppPhone = &phone
		}
	}
	if req.ThemeColor != nil {
		store.ThemeColor = *req.ThemeColor
	}
	if req.Address != nil {
		store.Address = utils.NewNullString(*req.Address)
	}
	if req.DeliveryFee != nil {
		if err := applyDeliveryFee(&store.DeliveryFee, *req.DeliveryFee); err != nil {
			return nil, err
		}
	}
	if req.Hours != nil {
		store.Hours.OpensAt = req.Hours.OpensAt
		store.Hours.ClosesAt = req.Hours.ClosesAt
		if req.Hours.Days != nil {
			store.Hours.Days = req.Hours.Days
		}
		if req.Hours.Timezone != "" {
			if _, err := time.LoadLocation(req.Hours.Timezone); err != nil {
				return nil, fmt.Errorf("%w: unknown timezone %q", ErrValidation, req.Hours.Timezone)
			}
			store.Hours.Timezone = req.Hours.Timezone
		}
	}
	if req.LowStockThreshold != nil {
		store.LowStockThreshold = *req.LowStockThreshold
	}

	if err := s.storeRepo.UpdateStore(s.db, store); err != nil {
		if errors.Is(err, repositories.ErrDuplicateKey) {
			return nil, ErrSlugTaken
		}
		return nil, fmt.Errorf("failed to update store: %w", err)
	}
	return store, nil
}

func applyDeliveryFee(cfg *models.DeliveryFeeConfig, req DeliveryFeeRequest) error {
	feeType := models.DeliveryFeeType(req.Type)
	if !feeType.IsValid() {
		return fmt.Errorf("%w: unknown delivery fee type %q", ErrValidation, req.Type)
	}
	if req.Fee.IsNegative() {
		return fmt.Errorf("%w: delivery fee must not be negative", ErrValidation)
	}
	cfg.Type = feeType
	cfg.Fee = req.Fee
	if req.PerKm != nil {
		if req.PerKm.IsNegative() {
			return fmt.Errorf("%w: per_km must not be negative", ErrValidation)
		}
		cfg.PerKm = *req.PerKm
	}
	if req.FreeAbove != nil {
		if req.FreeAbove.IsNegative() {
			return fmt.Errorf("%w: free_above must not be negative", ErrValidation)
		}
		cfg.FreeAbove = *req.FreeAbove
	}
	if feeType == models.DeliveryFeeFreeAbove && !cfg.FreeAbove.IsPositive() {
		return fmt.Errorf("%w: free_above must be positive for free_above delivery", ErrValidation)
	}
	return nil
}
