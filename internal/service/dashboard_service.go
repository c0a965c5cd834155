package service

import (
	"context"
	"fmt"
	"time"

	"go.uber.org/zap"

	"github.com/reformcases/portfolio-api/internal/dto"
	"github.com/reformcases/portfolio-api/internal/models"
	appErrors "github.com/reformcases/portfolio-api/pkg/errors"
)

// DashboardService assembles the contractor dashboard: per-status totals and
// the case lists behind each tab.
type DashboardService struct {
	repo   caseStore
	cache  *CacheService
	logger *zap.Logger
	ttl    time.Duration
}

// NewDashboardService constructs a DashboardService.
func NewDashboardService(repo caseStore, cache *CacheService, ttl time.Duration, logger *zap.Logger) *DashboardService {
	if ttl <= 0 {
		ttl = time.Minute
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &DashboardService{repo: repo, cache: cache, ttl: ttl, logger: logger}
}

// Overview returns the dashboard payload for one company.
func (s *DashboardService) Overview(ctx context.Context, companyID string) (*dto.DashboardResponse, error) {
	cacheKey := fmt.Sprintf("dashboard:%s", companyID)
	if s.cache.Enabled() {
		var cached dto.DashboardResponse
		if hit, _ := s.cache.Get(ctx, cacheKey, &cached); hit {
			return &cached, nil
		}
	}

	counts, err := s.repo.CountByStatus(ctx, companyID)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to count cases")
	}
	cases, err := s.repo.List(ctx, models.CaseFilter{CompanyID: companyID})
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to list cases")
	}

	resp := &dto.DashboardResponse{
		Counts:    counts,
		Published: make([]models.Case, 0),
		Drafts:    make([]models.Case, 0),
		Scheduled: make([]models.Case, 0),
	}
	for _, c := range cases {
		switch c.Status {
		case models.StatusPublished:
			resp.Published = append(resp.Published, c)
		case models.StatusDraft:
			resp.Drafts = append(resp.Drafts, c)
		case models.StatusScheduled:
			resp.Scheduled = append(resp.Scheduled, c)
		}
	}

	if s.cache.Enabled() {
		if err := s.cache.Set(ctx, cacheKey, resp, s.ttl); err != nil {
			s.logger.Sugar().Warnw("failed to cache dashboard", "company_id", companyID, "error", err)
		}
	}
	return resp, nil
}

// Invalidate drops the cached dashboard for a company after a write.
func (s *DashboardService) Invalidate(ctx context.Context, companyID string) {
	if !s.cache.Enabled() {
		return
	}
	if err := s.cache.Invalidate(ctx, fmt.Sprintf("dashboard:%s", companyID)); err != nil {
		s.logger.Sugar().Warnw("failed to invalidate dashboard cache", "company_id", companyID, "error", err)
	}
}
