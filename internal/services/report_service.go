package services

import (
	"fmt"
	"time"

	"supplestore_backend/internal/models"
	"supplestore_backend/internal/repositories"
)

// ReportService aggregates dashboard figures.
type ReportService interface {
	DashboardSummary(storeID int64) (*models.DashboardSummary, error)
}

type reportService struct {
	reportRepo repositories.ReportRepository
	storeRepo  repositories.StoreRepository
	now        func() time.Time
}

// NewReportService creates a new instance of ReportService.
func NewReportService(rr repositories.ReportRepository, sr repositories.StoreRepository) ReportService {
	return &reportService{reportRepo: rr, storeRepo: sr, now: time.Now}
}

// DashboardSummary counts "today" and "this month" in the store's timezone.
func (s *reportService) DashboardSummary(storeID int64) (*models.DashboardSummary, error) {
	store, err := s.storeRepo.GetStoreByID(storeID)
	if err != nil {
		return nil, fmt.Errorf("failed to load store: %w", err)
	}
	now := s.now()
	if loc, err := time.LoadLocation(store.Hours.Timezone); err == nil && store.Hours.Timezone != "" {
		now = now.In(loc)
	}
	summary, err := s.reportRepo.GetDashboardSummary(storeID, store.LowStockThreshold, now)
	if err != nil {
		return nil, fmt.Errorf("failed to build dashboard summary: %w", err)
	}
	return summary, nil
}
