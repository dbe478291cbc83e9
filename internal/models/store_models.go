package models

import (
	"strconv"
	"strings"
	"time"

	"github.com/shopspring/decimal"
)

type DeliveryFeeType string

const (
	DeliveryFeeFixed     DeliveryFeeType = "fixed"
	DeliveryFeePerKm     DeliveryFeeType = "per_km"
	DeliveryFeeFreeAbove DeliveryFeeType = "free_above"
)

func (t DeliveryFeeType) IsValid() bool {
	switch t {
	case DeliveryFeeFixed, DeliveryFeePerKm, DeliveryFeeFreeAbove:
		return true
	}
	return false
}

// DeliveryFeeConfig describes how a store charges for delivery.
//   - fixed: Fee on every delivery
//   - per_km: Fee + PerKm * distance
//   - free_above: zero when the subtotal reaches FreeAbove, Fee otherwise
type DeliveryFeeConfig struct {
	Type      DeliveryFeeType `json:"type"`
	Fee       decimal.Decimal `json:"fee"`
	PerKm     decimal.Decimal `json:"per_km"`
	FreeAbove decimal.Decimal `json:"free_above"`
}

// Compute returns the delivery fee for a subtotal and distance, rounded to cents.
func (c DeliveryFeeConfig) Compute(subtotal decimal.Decimal, distanceKm float64) decimal.Decimal {
	var fee decimal.Decimal
	switch c.Type {
	case DeliveryFeePerKm:
		if distanceKm < 0 {
			distanceKm = 0
		}
		fee = c.Fee.Add(c.PerKm.Mul(decimal.NewFromFloat(distanceKm)))
	case DeliveryFeeFreeAbove:
		if c.FreeAbove.IsPositive() && subtotal.GreaterThanOrEqual(c.FreeAbove) {
			return decimal.Zero
		}
		fee = c.Fee
	default:
		fee = c.Fee
	}
	if fee.IsNegative() {
		return decimal.Zero
	}
	return fee.Round(2)
}

// OpeningHours are local times "HH:MM"; Days uses time.Weekday numbering (0 = Sunday).
// A closing time earlier than the opening time means the store closes after midnight.
type OpeningHours struct {
	OpensAt  string `json:"opens_at"`
	ClosesAt string `json:"closes_at"`
	Days     []int  `json:"days"`
	Timezone string `json:"timezone"`
}

func minutesOfDay(hhmm string) (int, bool) {
	h, m, ok := strings.Cut(hhmm, ":")
	if !ok {
		return 0, false
	}
	hours, err1 := strconv.Atoi(h)
	mins, err2 := strconv.Atoi(m)
	if err1 != nil || err2 != nil || hours < 0 || hours > 23 || mins < 0 || mins > 59 {
		return 0, false
	}
	return hours*60 + mins, true
}

func (h OpeningHours) openOn(day time.Weekday) bool {
	for _, d := range h.Days {
		if d == int(day) {
			return true
		}
	}
	return false
}

// IsOpenAt reports whether the store is open at instant t.
func (h OpeningHours) IsOpenAt(t time.Time) bool {
	loc, err := time.LoadLocation(h.Timezone)
	if err != nil || h.Timezone == "" {
		loc = time.UTC
	}
	local := t.In(loc)

	opens, ok1 := minutesOfDay(h.OpensAt)
	closes, ok2 := minutesOfDay(h.ClosesAt)
	if !ok1 || !ok2 || opens == closes {
		return false
	}
	now := local.Hour()*60 + local.Minute()

	if opens < closes {
		return h.openOn(local.Weekday()) && now >= opens && now < closes
	}
	// overnight shift
	if now >= opens {
		return h.openOn(local.Weekday())
	}
	if now < closes {
		return h.openOn(local.AddDate(0, 0, -1).Weekday())
	}
	return false
}

type SubscriptionStatus string

const (
	SubscriptionTrial    SubscriptionStatus = "trial"
	SubscriptionActive   SubscriptionStatus = "active"
	SubscriptionPastDue  SubscriptionStatus = "past_due"
	SubscriptionCanceled SubscriptionStatus = "canceled"
)

// Store is the merchant's storefront and also carries the merchant's billing state.
type Store struct {
	ID                 int64              `json:"id"`
	OwnerID            int64              `json:"owner_id"`
	Name               string             `json:"name"`
	Slug               string             `json:"slug"`
	Description        *string            `json:"description,omitempty"`
	LogoURL            *string            `json:"logo_url,omitempty"`
	WhatsAppPhone      *string            `json:"whatsapp_phone,omitempty"`
	ThemeColor         string             `json:"theme_color"`
	Address            *string            `json:"address,omitempty"`
	DeliveryFee        DeliveryFeeConfig  `json:"delivery_fee"`
	Hours              OpeningHours       `json:"hours"`
	LowStockThreshold  int                `json:"low_stock_threshold"`
	SubscriptionStatus SubscriptionStatus `json:"subscription_status"`
	TrialEndsAt        *time.Time         `json:"trial_ends_at,omitempty"`
	SubscriptionEndsAt *time.Time         `json:"subscription_ends_at,omitempty"`
	CreatedAt          time.Time          `json:"created_at"`
	UpdatedAt          time.Time          `json:"updated_at"`
}

// PublicStore is what the storefront exposes; billing fields stay private.
type PublicStore struct {
	ID            int64             `json:"id"`
	Name          string            `json:"name"`
	Slug          string            `json:"slug"`
	Description   *string           `json:"description,omitempty"`
	LogoURL       *string           `json:"logo_url,omitempty"`
	WhatsAppPhone *string           `json:"whatsapp_phone,omitempty"`
	ThemeColor    string            `json:"theme_color"`
	Address       *string           `json:"address,omitempty"`
	DeliveryFee   DeliveryFeeConfig `json:"delivery_fee"`
	Hours         OpeningHours      `json:"hours"`
	OpenNow       bool              `json:"open_now"`
}

// Public projects the store for anonymous visitors.
func (s *Store) Public(now time.Time) PublicStore {
	return PublicStore{
		ID:            s.ID,
		Name:          s.Name,
		Slug:          s.Slug,
		Description:   s.Description,
		LogoURL:       s.LogoURL,
		WhatsAppPhone: s.WhatsAppPhone,
		ThemeColor:    s.ThemeColor,
		Address:       s.Address,
		DeliveryFee:   s.DeliveryFee,
		Hours:         s.Hours,
		OpenNow:       s.Hours.IsOpenAt(now),
	}
}
