package services

import (
	"errors"
	"math"
	"time"

	"supplestore_backend/internal/models"
	"supplestore_backend/internal/repositories"
	"supplestore_backend/pkg/utils"
)

// TrialGrace is how long after trial expiry access is still granted.
const TrialGrace = 24 * time.Hour

// CheckAccess decides whether the merchant may use the admin dashboard at now.
func CheckAccess(store *models.Store, now time.Time) models.AccessDecision {
	switch store.SubscriptionStatus {
	case models.SubscriptionActive:
		if store.SubscriptionEndsAt != nil && now.Before(*store.SubscriptionEndsAt) {
			return models.AccessDecision{Allowed: true, Plan: models.PlanPro, EndsAt: store.SubscriptionEndsAt}
		}
		return models.AccessDecision{Allowed: false, Plan: models.PlanPro, EndsAt: store.SubscriptionEndsAt}
	case models.SubscriptionTrial, "":
		if store.TrialEndsAt == nil {
			return models.AccessDecision{Allowed: false, Plan: models.PlanTrial}
		}
		ends := *store.TrialEndsAt
		daysLeft := int(math.Ceil(ends.Sub(now).Hours() / 24))
		if daysLeft < 0 {
			daysLeft = 0
		}
		return models.AccessDecision{
			Allowed:  now.Before(ends.Add(TrialGrace)),
			Plan:     models.PlanTrial,
			DaysLeft: &daysLeft,
			EndsAt:   store.TrialEndsAt,
		}
	default:
		return models.AccessDecision{Allowed: false, Plan: models.PlanPro, EndsAt: store.SubscriptionEndsAt}
	}
}

// SubscriptionService evaluates the gate against stored merchant records.
type SubscriptionService interface {
	CheckStoreAccess(storeID int64) models.AccessDecision
}

type subscriptionService struct {
	storeRepo repositories.StoreRepository
	failOpen  bool
	now       func() time.Time
}

// NewSubscriptionService creates a new instance of SubscriptionService.
// failOpen grants trial access when the store record cannot be read.
func NewSubscriptionService(storeRepo repositories.StoreRepository, failOpen bool) SubscriptionService {
	return &subscriptionService{storeRepo: storeRepo, failOpen: failOpen, now: time.Now}
}

func (s *subscriptionService) CheckStoreAccess(storeID int64) models.AccessDecision {
	store, err := s.storeRepo.GetStoreByID(storeID)
	if err != nil {
		fields := map[string]interface{}{"store_id": storeID, "fail_open": s.failOpen}
		if errors.Is(err, repositories.ErrNotFound) {
			fields["reason"] = "store not found"
		} else {
			fields["reason"] = err.Error()
		}
		if s.failOpen {
			utils.LogWarn("Subscription check could not read store, granting trial access", fields)
			return models.AccessDecision{Allowed: true, Plan: models.PlanTrial, FailOpen: true}
		}
		utils.LogWarn("Subscription check could not read store, denying access", fields)
		return models.AccessDecision{Allowed: false, Plan: models.PlanTrial}
	}
	return CheckAccess(store, s.now())
}
