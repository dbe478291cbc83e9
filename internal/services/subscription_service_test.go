package services

import (
	"errors"
	"testing"
	"time"

	"supplestore_backend/internal/models"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func timePtr(t time.Time) *time.Time { return &t }

func TestCheckAccess(t *testing.T) {
	now := time.Date(2025, 3, 10, 12, 0, 0, 0, time.UTC)

	tests := []struct {
		name     string
		store    models.Store
		allowed  bool
		plan     models.Plan
		daysLeft *int
	}{
		{"active and paid up", models.Store{SubscriptionStatus: models.SubscriptionActive, SubscriptionEndsAt: timePtr(now.Add(48 * time.Hour))}, true, models.PlanPro, nil},
		{"active but lapsed", models.Store{SubscriptionStatus: models.SubscriptionActive, SubscriptionEndsAt: timePtr(now.Add(-time.Minute))}, false, models.PlanPro, nil},
		{"active without end", models.Store{SubscriptionStatus: models.SubscriptionActive}, false, models.PlanPro, nil},
		{"trial with days left", models.Store{SubscriptionStatus: models.SubscriptionTrial, TrialEndsAt: timePtr(now.Add(50 * time.Hour))}, true, models.PlanTrial, intPtr(3)},
		{"trial ending in an hour", models.Store{SubscriptionStatus: models.SubscriptionTrial, TrialEndsAt: timePtr(now.Add(time.Hour))}, true, models.PlanTrial, intPtr(1)},
		{"trial expired inside grace", models.Store{SubscriptionStatus: models.SubscriptionTrial, TrialEndsAt: timePtr(now.Add(-23 * time.Hour))}, true, models.PlanTrial, intPtr(0)},
		{"trial expired past grace", models.Store{SubscriptionStatus: models.SubscriptionTrial, TrialEndsAt: timePtr(now.Add(-25 * time.Hour))}, false, models.PlanTrial, intPtr(0)},
		{"trial without end", models.Store{SubscriptionStatus: models.SubscriptionTrial}, false, models.PlanTrial, nil},
		{"past due", models.Store{SubscriptionStatus: models.SubscriptionPastDue, SubscriptionEndsAt: timePtr(now.Add(48 * time.Hour))}, false, models.PlanPro, nil},
		{"canceled", models.Store{SubscriptionStatus: models.SubscriptionCanceled}, false, models.PlanPro, nil},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := CheckAccess(&tt.store, now)
			assert.Equal(t, tt.allowed, got.Allowed)
			assert.Equal(t, tt.plan, got.Plan)
			if tt.daysLeft == nil {
				assert.Nil(t, got.DaysLeft)
			} else {
				require.NotNil(t, got.DaysLeft)
				assert.Equal(t, *tt.daysLeft, *got.DaysLeft)
			}
			assert.False(t, got.FailOpen)
		})
	}
}

func TestCheckStoreAccess(t *testing.T) {
	now := time.Date(2025, 3, 10, 12, 0, 0, 0, time.UTC)
	repo := &fakeStoreRepo{stores: map[int64]*models.Store{
		1: {ID: 1, SubscriptionStatus: models.SubscriptionTrial, TrialEndsAt: timePtr(now.Add(24 * time.Hour))},
	}}

	svc := NewSubscriptionService(repo, true).(*subscriptionService)
	svc.now = func() time.Time { return now }

	got := svc.CheckStoreAccess(1)
	assert.True(t, got.Allowed)
	assert.Equal(t, 1, *got.DaysLeft)

	repo.loadErr = errors.New("connection refused")
	got = svc.CheckStoreAccess(1)
	assert.True(t, got.Allowed)
	assert.True(t, got.FailOpen)
	assert.Equal(t, models.PlanTrial, got.Plan)

	strict := NewSubscriptionService(repo, false)
	got = strict.CheckStoreAccess(1)
	assert.False(t, got.Allowed)
	assert.False(t, got.FailOpen)
}
