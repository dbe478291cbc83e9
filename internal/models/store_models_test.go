package models

import (
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
)

func dec(s string) decimal.Decimal { return decimal.RequireFromString(s) }

func TestDeliveryFeeCompute(t *testing.T) {
	tests := []struct {
		name     string
		cfg      DeliveryFeeConfig
		subtotal string
		km       float64
		want     string
	}{
		{"fixed", DeliveryFeeConfig{Type: DeliveryFeeFixed, Fee: dec("8")}, "100", 3, "8.00"},
		{"per km", DeliveryFeeConfig{Type: DeliveryFeePerKm, Fee: dec("5"), PerKm: dec("1.5")}, "100", 4.2, "11.30"},
		{"per km negative distance", DeliveryFeeConfig{Type: DeliveryFeePerKm, Fee: dec("5"), PerKm: dec("2")}, "10", -3, "5.00"},
		{"free above reached", DeliveryFeeConfig{Type: DeliveryFeeFreeAbove, Fee: dec("10"), FreeAbove: dec("150")}, "150", 0, "0.00"},
		{"free above not reached", DeliveryFeeConfig{Type: DeliveryFeeFreeAbove, Fee: dec("10"), FreeAbove: dec("150")}, "149.99", 0, "10.00"},
		{"unset type is fixed", DeliveryFeeConfig{Fee: dec("3")}, "1", 0, "3.00"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := tt.cfg.Compute(dec(tt.subtotal), tt.km)
			assert.Equal(t, tt.want, got.StringFixed(2))
		})
	}
}

func TestOpeningHoursIsOpenAt(t *testing.T) {
	weekdays := OpeningHours{OpensAt: "09:00", ClosesAt: "18:00", Days: []int{1, 2, 3, 4, 5}, Timezone: "UTC"}
	// 2026-10-19 is a Monday
	monday := func(h, m int) time.Time { return time.Date(2026, 10, 19, h, m, 0, 0, time.UTC) }

	assert.True(t, weekdays.IsOpenAt(monday(9, 0)))
	assert.True(t, weekdays.IsOpenAt(monday(17, 59)))
	assert.False(t, weekdays.IsOpenAt(monday(18, 0)))
	assert.False(t, weekdays.IsOpenAt(monday(8, 59)))
	assert.False(t, weekdays.IsOpenAt(time.Date(2026, 10, 18, 12, 0, 0, 0, time.UTC)), "sunday")

	overnight := OpeningHours{OpensAt: "20:00", ClosesAt: "02:00", Days: []int{5}, Timezone: "UTC"}
	friday := time.Date(2026, 10, 23, 23, 0, 0, 0, time.UTC)
	assert.True(t, overnight.IsOpenAt(friday))
	assert.True(t, overnight.IsOpenAt(friday.Add(2*time.Hour)), "saturday 01:00 belongs to friday's shift")
	assert.False(t, overnight.IsOpenAt(friday.Add(4*time.Hour)))

	assert.False(t, OpeningHours{OpensAt: "bad", ClosesAt: "18:00", Days: []int{1}}.IsOpenAt(monday(12, 0)))
}

func TestOpeningHoursUsesStoreTimezone(t *testing.T) {
	h := OpeningHours{OpensAt: "09:00", ClosesAt: "18:00", Days: []int{1}, Timezone: "America/Sao_Paulo"}
	// 11:00 UTC is 08:00 in Sao Paulo
	assert.False(t, h.IsOpenAt(time.Date(2026, 10, 19, 11, 0, 0, 0, time.UTC)))
	assert.True(t, h.IsOpenAt(time.Date(2026, 10, 19, 13, 0, 0, 0, time.UTC)))
}

func TestStorePublicHidesBilling(t *testing.T) {
	s := &Store{ID: 3, Name: "Loja", Slug: "loja", SubscriptionStatus: SubscriptionActive}
	p := s.Public(time.Now())
	assert.Equal(t, int64(3), p.ID)
	assert.Equal(t, "loja", p.Slug)
	assert.False(t, p.OpenNow)
}
