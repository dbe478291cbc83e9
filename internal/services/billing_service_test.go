package services

import (
	"context"
	"crypto/hmac"
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"testing"
	"time"

	"supplestore_backend/internal/models"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const testWebhookSecret = "whsec_test"

type fakeGateway struct {
	params CheckoutSessionParams
	err    error
}

func (g *fakeGateway) CreateCheckoutSession(_ context.Context, p CheckoutSessionParams) (string, error) {
	g.params = p
	if g.err != nil {
		return "", g.err
	}
	return "https://checkout.stripe.com/c/pay/cs_test", nil
}

func signPayload(payload []byte, secret string, ts time.Time) string {
	mac := hmac.New(sha256.New, []byte(secret))
	fmt.Fprintf(mac, "%d.%s", ts.Unix(), payload)
	return fmt.Sprintf("t=%d,v1=%s", ts.Unix(), hex.EncodeToString(mac.Sum(nil)))
}

func newBillingFixture() (*billingService, *fakeStoreRepo, *fakeGateway) {
	stores := &fakeStoreRepo{stores: map[int64]*models.Store{7: {ID: 7}}}
	gw := &fakeGateway{}
	prices := map[string]string{"pro.monthly": "price_m", "pro.yearly": "price_y"}
	svc := NewBillingService(gw, stores, nil, prices, testWebhookSecret, "https://app.example.com/").(*billingService)
	return svc, stores, gw
}

func TestCreateCheckout(t *testing.T) {
	svc, _, gw := newBillingFixture()

	url, err := svc.CreateCheckout(context.Background(), 7, "owner@example.com", BillingCheckoutRequest{Plan: "pro", Cycle: "yearly"})
	require.NoError(t, err)
	assert.Equal(t, "https://checkout.stripe.com/c/pay/cs_test", url)
	assert.Equal(t, "price_y", gw.params.PriceID)
	assert.Equal(t, int64(7), gw.params.StoreID)
	assert.Equal(t, "https://app.example.com/admin/assinatura?status=success", gw.params.SuccessURL)

	_, err = svc.CreateCheckout(context.Background(), 7, "", BillingCheckoutRequest{Plan: "enterprise", Cycle: "monthly"})
	assert.ErrorIs(t, err, ErrUnknownPrice)
}

func TestDisabledGateway(t *testing.T) {
	_, err := NewStripeGateway("").CreateCheckoutSession(context.Background(), CheckoutSessionParams{})
	assert.ErrorIs(t, err, ErrBillingUnavailable)
}

func TestHandleWebhookRejectsBadSignature(t *testing.T) {
	svc, stores, _ := newBillingFixture()
	payload := []byte(`{"id":"evt_1","object":"event","type":"checkout.session.completed","data":{"object":{}}}`)

	err := svc.HandleWebhook(payload, signPayload(payload, "whsec_other", time.Now()))
	assert.ErrorIs(t, err, ErrInvalidSignature)

	err = svc.HandleWebhook(payload, "")
	assert.ErrorIs(t, err, ErrInvalidSignature)
	assert.Empty(t, stores.updates)
}

func TestHandleWebhookCheckoutCompleted(t *testing.T) {
	svc, stores, _ := newBillingFixture()
	now := time.Date(2025, 3, 10, 12, 0, 0, 0, time.UTC)
	svc.now = func() time.Time { return now }

	payload := []byte(`{"id":"evt_1","object":"event","type":"checkout.session.completed","data":{"object":{"id":"cs_1","object":"checkout.session","client_reference_id":"7","metadata":{"store_id":"7","cycle":"yearly"}}}}`)
	require.NoError(t, svc.HandleWebhook(payload, signPayload(payload, testWebhookSecret, time.Now())))

	require.Len(t, stores.updates, 1)
	u := stores.updates[0]
	assert.Equal(t, int64(7), u.StoreID)
	assert.Equal(t, models.SubscriptionActive, u.Status)
	require.NotNil(t, u.EndsAt)
	assert.Equal(t, now.AddDate(1, 0, 0), *u.EndsAt)
}

func TestHandleWebhookSubscriptionEvents(t *testing.T) {
	tests := []struct {
		name   string
		typ    string
		status string
		want   models.SubscriptionStatus
	}{
		{"renewed", "customer.subscription.updated", "active", models.SubscriptionActive},
		{"payment failed", "customer.subscription.updated", "past_due", models.SubscriptionPastDue},
		{"deleted", "customer.subscription.deleted", "active", models.SubscriptionCanceled},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			svc, stores, _ := newBillingFixture()
			payload := []byte(fmt.Sprintf(`{"id":"evt_2","object":"event","type":%q,"data":{"object":{"id":"sub_1","object":"subscription","status":%q,"current_period_end":1767225600,"metadata":{"store_id":"7"}}}}`, tt.typ, tt.status))
			require.NoError(t, svc.HandleWebhook(payload, signPayload(payload, testWebhookSecret, time.Now())))

			require.Len(t, stores.updates, 1)
			assert.Equal(t, tt.want, stores.updates[0].Status)
			require.NotNil(t, stores.updates[0].EndsAt)
			assert.Equal(t, int64(1767225600), stores.updates[0].EndsAt.Unix())
		})
	}
}

func TestHandleWebhookIgnoresUnrelatedEvents(t *testing.T) {
	svc, stores, _ := newBillingFixture()

	payload := []byte(`{"id":"evt_3","object":"event","type":"invoice.created","data":{"object":{}}}`)
	require.NoError(t, svc.HandleWebhook(payload, signPayload(payload, testWebhookSecret, time.Now())))

	payload = []byte(`{"id":"evt_4","object":"event","type":"checkout.session.completed","data":{"object":{"id":"cs_2","object":"checkout.session"}}}`)
	require.NoError(t, svc.HandleWebhook(payload, signPayload(payload, testWebhookSecret, time.Now())))

	payload = []byte(`{"id":"evt_5","object":"event","type":"checkout.session.completed","data":{"object":{"id":"cs_3","object":"checkout.session","metadata":{"store_id":"99"}}}}`)
	require.NoError(t, svc.HandleWebhook(payload, signPayload(payload, testWebhookSecret, time.Now())))

	assert.Empty(t, stores.updates)
}
