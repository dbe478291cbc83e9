package handlers

import (
	"errors"
	"io"
	"net/http"

	"supplestore_backend/internal/middleware"
	"supplestore_backend/internal/services"
	"supplestore_backend/pkg/utils"

	"github.com/gin-gonic/gin"
)

const maxWebhookBytes = 64 << 10

// BillingHandler starts subscription checkouts and receives payment webhooks.
type BillingHandler struct {
	billingService services.BillingService
}

// NewBillingHandler creates a new BillingHandler.
func NewBillingHandler(bs services.BillingService) *BillingHandler {
	return &BillingHandler{billingService: bs}
}

// CreateCheckout returns the hosted payment page url for { plan, cycle }.
func (h *BillingHandler) CreateCheckout(c *gin.Context) {
	var req services.BillingCheckoutRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		utils.RespondWithError(c, utils.NewAPIError(http.StatusBadRequest, utils.ErrCodeValidationFailed, "Invalid request payload: "+err.Error(), err.Error()))
		return
	}

	url, err := h.billingService.CreateCheckout(c.Request.Context(), middleware.StoreID(c), c.GetString(middleware.ContextEmail), req)
	if err != nil {
		switch {
		case errors.Is(err, services.ErrUnknownPrice):
			utils.RespondWithError(c, utils.NewAPIError(http.StatusBadRequest, utils.ErrCodeValidationFailed, "Unknown plan or billing cycle.", err.Error()))
		case errors.Is(err, services.ErrBillingUnavailable):
			utils.RespondWithError(c, utils.NewAPIError(http.StatusServiceUnavailable, utils.ErrCodeBadGateway, "Billing is not available.", err.Error()))
		default:
			utils.LogError(err, "CreateCheckout: Error from billingService.CreateCheckout", map[string]interface{}{"store_id": middleware.StoreID(c)})
			utils.RespondWithError(c, utils.NewAPIError(http.StatusBadGateway, utils.ErrCodeBadGateway, "Failed to start checkout.", "Payment provider error"))
		}
		return
	}
	c.JSON(http.StatusOK, gin.H{"url": url})
}

// StripeWebhook verifies the Stripe-Signature header and applies the event.
func (h *BillingHandler) StripeWebhook(c *gin.Context) {
	payload, err := io.ReadAll(io.LimitReader(c.Request.Body, maxWebhookBytes))
	if err != nil {
		utils.RespondWithError(c, utils.NewAPIError(http.StatusBadRequest, utils.ErrCodeBadRequest, "Unreadable body.", err.Error()))
		return
	}

	if err := h.billingService.HandleWebhook(payload, c.GetHeader("Stripe-Signature")); err != nil {
		switch {
		case errors.Is(err, services.ErrInvalidSignature):
			utils.LogWarn("Rejected webhook with invalid signature", map[string]interface{}{"ip": c.ClientIP()})
			utils.RespondWithError(c, utils.NewAPIError(http.StatusBadRequest, utils.ErrCodeBadRequest, "Invalid signature.", ""))
		case errors.Is(err, services.ErrInvalidWebhookEvent):
			utils.RespondWithError(c, utils.NewAPIError(http.StatusBadRequest, utils.ErrCodeBadRequest, "Invalid event payload.", err.Error()))
		default:
			utils.LogError(err, "StripeWebhook: failed to apply event")
			utils.RespondInternal(c, "Failed to process webhook.")
		}
		return
	}
	c.JSON(http.StatusOK, gin.H{"received": true})
}
