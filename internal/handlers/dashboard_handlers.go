package handlers

import (
	"net/http"

	"supplestore_backend/internal/middleware"
	"supplestore_backend/internal/services"
	"supplestore_backend/pkg/utils"

	"github.com/gin-gonic/gin"
)

// DashboardHandler serves the merchant dashboard and subscription status.
type DashboardHandler struct {
	reportService       services.ReportService
	subscriptionService services.SubscriptionService
}

// NewDashboardHandler creates a new DashboardHandler.
func NewDashboardHandler(rs services.ReportService, ss services.SubscriptionService) *DashboardHandler {
	return &DashboardHandler{reportService: rs, subscriptionService: ss}
}

// Summary returns the dashboard counters.
func (h *DashboardHandler) Summary(c *gin.Context) {
	summary, err := h.reportService.DashboardSummary(middleware.StoreID(c))
	if err != nil {
		utils.LogError(err, "Dashboard Summary: Error from reportService.DashboardSummary")
		utils.RespondInternal(c, "Failed to build dashboard.")
		return
	}
	c.JSON(http.StatusOK, summary)
}

// SubscriptionStatus reports the gate decision without blocking.
func (h *DashboardHandler) SubscriptionStatus(c *gin.Context) {
	c.JSON(http.StatusOK, h.subscriptionService.CheckStoreAccess(middleware.StoreID(c)))
}
