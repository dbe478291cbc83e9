package services

import (
	"testing"

	"supplestore_backend/internal/models"
	"supplestore_backend/internal/repositories"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newStoreFixture() (StoreService, *fakeStoreRepo) {
	repo := &fakeStoreRepo{stores: map[int64]*models.Store{
		1: {ID: 1, Name: "Loja", Slug: "loja", DeliveryFee: models.DeliveryFeeConfig{Type: models.DeliveryFeeFixed, Fee: d("5")}},
	}}
	return NewStoreService(repo, nil, "BR"), repo
}

func TestUpdateStore(t *testing.T) {
	svc, repo := newStoreFixture()
	perKm := d("1.5")

	store, err := svc.UpdateStore(1, UpdateStoreRequest{
		Name:          strPtr(" Loja Fit "),
		Slug:          strPtr("Loja Fit"),
		WhatsAppPhone: strPtr("(11) 99999-8888"),
		DeliveryFee:   &DeliveryFeeRequest{Type: "per_km", Fee: d("4"), PerKm: &perKm},
		Hours:         &OpeningHoursRequest{OpensAt: "08:00", ClosesAt: "18:00", Days: []int{1, 2, 3, 4, 5}, Timezone: "America/Sao_Paulo"},
	})
	require.NoError(t, err)
	assert.Equal(t, "Loja Fit", store.Name)
	assert.Equal(t, "loja-fit", store.Slug)
	assert.Equal(t, "5511999998888", *store.WhatsAppPhone)
	assert.Equal(t, models.DeliveryFeePerKm, store.DeliveryFee.Type)
	assert.Equal(t, "America/Sao_Paulo", store.Hours.Timezone)
	assert.Equal(t, "loja-fit", repo.stores[1].Slug)

	store, err = svc.UpdateStore(1, UpdateStoreRequest{WhatsAppPhone: strPtr("  ")})
	require.NoError(t, err)
	assert.Nil(t, store.WhatsAppPhone)
}

func TestUpdateStoreValidation(t *testing.T) {
	svc, repo := newStoreFixture()
	negative := d("-1")

	tests := []struct {
		name string
		req  UpdateStoreRequest
	}{
		{"bad phone", UpdateStoreRequest{WhatsAppPhone: strPtr("12")}},
		{"empty slug", UpdateStoreRequest{Slug: strPtr("!!!")}},
		{"negative fee", UpdateStoreRequest{DeliveryFee: &DeliveryFeeRequest{Type: "fixed", Fee: d("-2")}}},
		{"negative per km", UpdateStoreRequest{DeliveryFee: &DeliveryFeeRequest{Type: "per_km", Fee: d("2"), PerKm: &negative}}},
		{"free above without threshold", UpdateStoreRequest{DeliveryFee: &DeliveryFeeRequest{Type: "free_above", Fee: d("2")}}},
		{"unknown timezone", UpdateStoreRequest{Hours: &OpeningHoursRequest{OpensAt: "08:00", ClosesAt: "18:00", Timezone: "Mars/Olympus"}}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := svc.UpdateStore(1, tt.req)
			assert.ErrorIs(t, err, ErrValidation)
		})
	}
	assert.Equal(t, "loja", repo.stores[1].Slug)
	assert.True(t, repo.stores[1].DeliveryFee.Fee.Equal(decimal.NewFromInt(5)))
}

func TestUpdateStoreSlugTaken(t *testing.T) {
	svc, repo := newStoreFixture()
	repo.updateErr = repositories.ErrDuplicateKey

	_, err := svc.UpdateStore(1, UpdateStoreRequest{Slug: strPtr("outra")})
	assert.ErrorIs(t, err, ErrSlugTaken)

	_, err = svc.UpdateStore(2, UpdateStoreRequest{})
	assert.ErrorIs(t, err, ErrStoreNotFound)
}
