package middleware

import (
	"net/http"

	"supplestore_backend/internal/services"
	"supplestore_backend/pkg/utils"

	"github.com/gin-gonic/gin"
)

// SubscriptionGate blocks admin routes for merchants whose trial or plan has lapsed.
// Must run after AuthMiddleware.
func SubscriptionGate(subscriptions services.SubscriptionService) gin.HandlerFunc {
	return func(c *gin.Context) {
		decision := subscriptions.CheckStoreAccess(StoreID(c))
		if !decision.Allowed {
			c.JSON(http.StatusPaymentRequired, gin.H{
				"error":        utils.NewAPIError(http.StatusPaymentRequired, utils.ErrCodePaymentRequired, "Subscription required", "Your trial or plan has ended"),
				"subscription": decision,
			})
			c.Abort()
			return
		}
		c.Set("subscription", decision)
		c.Next()
	}
}
