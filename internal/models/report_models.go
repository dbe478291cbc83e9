package models

import "github.com/shopspring/decimal"

// DashboardSummary holds key metrics for the admin dashboard.
type DashboardSummary struct {
	PendingOrdersCount    int             `json:"pending_orders_count"`
	InProgressOrdersCount int             `json:"in_progress_orders_count"`
	SalesToday            decimal.Decimal `json:"sales_today"`
	SalesThisMonth        decimal.Decimal `json:"sales_this_month"`
	OrdersThisMonth       int             `json:"orders_this_month"`
	LowStockProducts      int             `json:"low_stock_products"`
	ActiveProducts        int             `json:"active_products"`
}
