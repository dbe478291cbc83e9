package repositories

import (
	"database/sql"
	"fmt"
	"time"

	"supplestore_backend/internal/models"
)

// ReportRepository reads dashboard aggregates.
type ReportRepository interface {
	GetDashboardSummary(storeID int64, lowStockThreshold int, now time.Time) (*models.DashboardSummary, error)
}

type reportRepository struct {
	db *sql.DB
}

// NewReportRepository creates a new instance of ReportRepository.
func NewReportRepository(db *sql.DB) ReportRepository {
	return &reportRepository{db: db}
}

func (r *reportRepository) GetDashboardSummary(storeID int64, lowStockThreshold int, now time.Time) (*models.DashboardSummary, error) {
	summary := &models.DashboardSummary{}
	startOfDay := time.Date(now.Year(), now.Month(), now.Day(), 0, 0, 0, 0, now.Location())
	startOfMonth := time.Date(now.Year(), now.Month(), 1, 0, 0, 0, 0, now.Location())

	err := r.db.QueryRow(`SELECT
	    COUNT(*) FILTER (WHERE status = 'pending'),
	    COUNT(*) FILTER (WHERE status IN ('processing', 'delivering')),
	    COALESCE(SUM(total_amount) FILTER (WHERE status = 'completed' AND created_at >= $2), 0),
	    COALESCE(SUM(total_amount) FILTER (WHERE status = 'completed' AND created_at >= $3), 0),
	    COUNT(*) FILTER (WHERE created_at >= $3)
	  FROM orders WHERE store_id = $1`, storeID, startOfDay, startOfMonth).Scan(
		&summary.PendingOrdersCount, &summary.InProgressOrdersCount,
		&summary.SalesToday, &summary.SalesThisMonth, &summary.OrdersThisMonth,
	)
	if err != nil {
		return nil, fmt.Errorf("%w: fetching order totals: %v", ErrDatabaseError, err)
	}

	err = r.db.QueryRow(`SELECT
	    COUNT(*) FILTER (WHERE is_active),
	    COUNT(*) FILTER (WHERE is_active AND NOT is_kit AND stock <= $2)
	  FROM products WHERE store_id = $1`, storeID, lowStockThreshold).Scan(
		&summary.ActiveProducts, &summary.LowStockProducts,
	)
	if err != nil {
		return nil, fmt.Errorf("%w: fetching product counts: %v", ErrDatabaseError, err)
	}
	return summary, nil
}
