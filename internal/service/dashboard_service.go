package service

import (
	"context"
	"time"

	"github.com/bimuz/bimuz-backend/internal/config"
	"github.com/bimuz/bimuz-backend/internal/model"
	"github.com/bimuz/bimuz-backend/internal/repository"
)

// DashboardService handles the staff dashboard.
type DashboardService struct {
	repo *repository.ReportRepository
	cfg  *config.Config
	now  func() time.Time
}

// NewDashboardService creates a new DashboardService.
func NewDashboardService(repo *repository.ReportRepository, cfg *config.Config) *DashboardService {
	return &DashboardService{repo: repo, cfg: cfg, now: time.Now}
}

// Summary returns the headline counts as of today.
func (s *DashboardService) Summary(ctx context.Context) (*model.DashboardSummary, error) {
	today := model.DateIn(s.now(), s.cfg.Location)
	from, to := model.MonthOf(today).Range(s.cfg.Location)
	return s.repo.DashboardCounts(ctx, today, from, to)
}
