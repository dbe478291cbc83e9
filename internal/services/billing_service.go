package services

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"

	"supplestore_backend/internal/models"
	"supplestore_backend/internal/repositories"
	"supplestore_backend/pkg/utils"

	"github.com/stripe/stripe-go/v76"
	"github.com/stripe/stripe-go/v76/client"
	"github.com/stripe/stripe-go/v76/webhook"
)

var (
	ErrUnknownPrice        = errors.New("no price configured for plan and cycle")
	ErrBillingUnavailable  = errors.New("billing is not configured")
	ErrCheckoutFailed      = errors.New("payment provider rejected the checkout")
	ErrInvalidSignature    = errors.New("invalid webhook signature")
	ErrInvalidWebhookEvent = errors.New("invalid webhook event payload")
)

const (
	CycleMonthly = "monthly"
	CycleYearly  = "yearly"
)

// BillingCheckoutRequest DTO
type BillingCheckoutRequest struct {
	Plan  string `json:"plan" binding:"required,oneof=pro"`
	Cycle string `json:"cycle" binding:"required,oneof=monthly yearly"`
}

// CheckoutSessionParams is what the gateway needs to open a hosted checkout.
type CheckoutSessionParams struct {
	PriceID    string
	StoreID    int64
	Email      string
	Cycle      string
	SuccessURL string
	CancelURL  string
}

// BillingGateway opens hosted subscription checkouts.
type BillingGateway interface {
	CreateCheckoutSession(ctx context.Context, params CheckoutSessionParams) (string, error)
}

type stripeGateway struct {
	sc *client.API
}

// NewStripeGateway returns a gateway backed by the Stripe API. An empty key
// yields a gateway that always reports ErrBillingUnavailable.
func NewStripeGateway(secretKey string) BillingGateway {
	if secretKey == "" {
		return disabledGateway{}
	}
	return &stripeGateway{sc: client.New(secretKey, nil)}
}

func (g *stripeGateway) CreateCheckoutSession(ctx context.Context, p CheckoutSessionParams) (string, error) {
	metadata := map[string]string{
		"store_id": strconv.FormatInt(p.StoreID, 10),
		"cycle":    p.Cycle,
	}
	params := &stripe.CheckoutSessionParams{
		Mode: stripe.String(string(stripe.CheckoutSessionModeSubscription)),
		LineItems: []*stripe.CheckoutSessionLineItemParams{
			{Price: stripe.String(p.PriceID), Quantity: stripe.Int64(1)},
		},
		SuccessURL:        stripe.String(p.SuccessURL),
		CancelURL:         stripe.String(p.CancelURL),
		ClientReferenceID: stripe.String(strconv.FormatInt(p.StoreID, 10)),
		SubscriptionData:  &stripe.CheckoutSessionSubscriptionDataParams{Metadata: metadata},
		Metadata:          metadata,
	}
	if p.Email != "" {
		params.CustomerEmail = stripe.String(p.Email)
	}
	params.Context = ctx

	session, err := g.sc.CheckoutSessions.New(params)
	if err != nil {
		return "", fmt.Errorf("%w: %v", ErrCheckoutFailed, err)
	}
	return session.URL, nil
}

type disabledGateway struct{}

func (disabledGateway) CreateCheckoutSession(context.Context, CheckoutSessionParams) (string, error) {
	return "", ErrBillingUnavailable
}

// BillingService starts subscription checkouts and applies provider webhooks.
type BillingService interface {
	CreateCheckout(ctx context.Context, storeID int64, email string, req BillingCheckoutRequest) (string, error)
	HandleWebhook(payload []byte, signatureHeader string) error
}

type billingService struct {
	gateway       BillingGateway
	storeRepo     repositories.StoreRepository
	db            repositories.SQLExecutor
	prices        map[string]string
	webhookSecret string
	appBaseURL    string
	now           func() time.Time
}

// NewBillingService creates a new instance of BillingService. prices maps "plan.cycle" to a price id.
func NewBillingService(gateway BillingGateway, storeRepo repositories.StoreRepository, db repositories.SQLExecutor,
	prices map[string]string, webhookSecret, appBaseURL string) BillingService {
	return &billingService{
		gateway:       gateway,
		storeRepo:     storeRepo,
		db:            db,
		prices:        prices,
		webhookSecret: webhookSecret,
		appBaseURL:    strings.TrimRight(appBaseURL, "/"),
		now:           time.Now,
	}
}

func (s *billingService) CreateCheckout(ctx context.Context, storeID int64, email string, req BillingCheckoutRequest) (string, error) {
	priceID := s.prices[req.Plan+"."+req.Cycle]
	if priceID == "" {
		return "", fmt.Errorf("%w: %s.%s", ErrUnknownPrice, req.Plan, req.Cycle)
	}
	url, err := s.gateway.CreateCheckoutSession(ctx, CheckoutSessionParams{
		PriceID:    priceID,
		StoreID:    storeID,
		Email:      email,
		Cycle:      req.Cycle,
		SuccessURL: s.appBaseURL + "/admin/assinatura?status=success",
		CancelURL:  s.appBaseURL + "/admin/assinatura?status=cancel",
	})
	if err != nil {
		return "", err
	}
	utils.LogInfo("Billing checkout created", map[string]interface{}{"store_id": storeID, "plan": req.Plan, "cycle": req.Cycle})
	return url, nil
}

func storeIDFromMetadata(md map[string]string, fallback string) (int64, bool) {
	raw := md["store_id"]
	if raw == "" {
		raw = fallback
	}
	id, err := strconv.ParseInt(raw, 10, 64)
	return id, err == nil && id > 0
}

// mapSubscriptionStatus folds provider statuses into the store's subscription states.
func mapSubscriptionStatus(status stripe.SubscriptionStatus) models.SubscriptionStatus {
	switch status {
	case stripe.SubscriptionStatusActive, stripe.SubscriptionStatusTrialing:
		return models.SubscriptionActive
	case stripe.SubscriptionStatusCanceled, stripe.SubscriptionStatusIncompleteExpired:
		return models.SubscriptionCanceled
	default:
		return models.SubscriptionPastDue
	}
}

// HandleWebhook verifies the signature and applies subscription events. Events
// that carry no store id are acknowledged and ignored.
func (s *billingService) HandleWebhook(payload []byte, signatureHeader string) error {
	event, err := webhook.ConstructEventWithOptions(payload, signatureHeader, s.webhookSecret,
		webhook.ConstructEventOptions{IgnoreAPIVersionMismatch: true})
	if err != nil {
		return fmt.Errorf("%w: %v", ErrInvalidSignature, err)
	}

	var (
		storeID int64
		ok      bool
		status  models.SubscriptionStatus
		endsAt  *time.Time
	)

	switch string(event.Type) {
	case "checkout.session.completed":
		var session stripe.CheckoutSession
		if err := json.Unmarshal(event.Data.Raw, &session); err != nil {
			return fmt.Errorf("%w: %v", ErrInvalidWebhookEvent, err)
		}
		storeID, ok = storeIDFromMetadata(session.Metadata, session.ClientReferenceID)
		status = models.SubscriptionActive
		ends := s.now().AddDate(0, 1, 0)
		if session.Metadata["cycle"] == CycleYearly {
			ends = s.now().AddDate(1, 0, 0)
		}
		endsAt = &ends
	case "customer.subscription.updated", "customer.subscription.deleted":
		var sub stripe.Subscription
		if err := json.Unmarshal(event.Data.Raw, &sub); err != nil {
			return fmt.Errorf("%w: %v", ErrInvalidWebhookEvent, err)
		}
		storeID, ok = storeIDFromMetadata(sub.Metadata, "")
		status = mapSubscriptionStatus(sub.Status)
		if string(event.Type) == "customer.subscription.deleted" {
			status = models.SubscriptionCanceled
		}
		if sub.CurrentPeriodEnd > 0 {
			ends := time.Unix(sub.CurrentPeriodEnd, 0).UTC()
			endsAt = &ends
		}
	default:
		utils.LogDebug("Ignoring billing event", map[string]interface{}{"type": string(event.Type), "id": event.ID})
		return nil
	}

	if !ok {
		utils.LogWarn("Billing event without store id", map[string]interface{}{"type": string(event.Type), "id": event.ID})
		return nil
	}

	if err := s.storeRepo.UpdateSubscription(s.db, storeID, status, endsAt); err != nil {
		if errors.Is(err, repositories.ErrNotFound) {
			utils.LogWarn("Billing event for unknown store", map[string]interface{}{"store_id": storeID, "type": string(event.Type)})
			return nil
		}
		return fmt.Errorf("failed to apply billing event: %w", err)
	}
	utils.LogInfo("Subscription updated", map[string]interface{}{
		"store_id": storeID, "status": status, "type": string(event.Type),
	})
	return nil
}
