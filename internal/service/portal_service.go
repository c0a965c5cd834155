package service

import (
	"context"
	"fmt"
	"sort"
	"time"

	"go.uber.org/zap"

	"github.com/reformcases/portfolio-api/internal/dto"
	"github.com/reformcases/portfolio-api/internal/models"
	appErrors "github.com/reformcases/portfolio-api/pkg/errors"
)

type portalCompanyStore interface {
	List(ctx context.Context, search string) ([]models.Company, error)
	GetByID(ctx context.Context, id string) (*models.Company, error)
}

// Categories offered by the portal's filter chips. "すべて" is a client-side
// pseudo entry and deliberately not part of this list.
var portalCategories = []string{"キッチン", "浴室", "居室", "外壁", "その他"}

// PortalService serves the public, unauthenticated portal surface. Only
// published cases are visible here.
type PortalService struct {
	cases     caseStore
	companies portalCompanyStore
	cache     *CacheService
	logger    *zap.Logger
	ttl       time.Duration
}

// NewPortalService constructs a PortalService.
func NewPortalService(cases caseStore, companies portalCompanyStore, cache *CacheService, ttl time.Duration, logger *zap.Logger) *PortalService {
	if ttl <= 0 {
		ttl = 5 * time.Minute
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &PortalService{cases: cases, companies: companies, cache: cache, ttl: ttl, logger: logger}
}

// ListCases returns published cases, optionally narrowed by category and a
// free-text search over title and category.
func (s *PortalService) ListCases(ctx context.Context, category, search string) (*dto.PortalCaseList, error) {
	cacheKey := fmt.Sprintf("portal:cases:%s:%s", category, search)
	if s.cache.Enabled() {
		var cached dto.PortalCaseList
		if hit, _ := s.cache.Get(ctx, cacheKey, &cached); hit {
			return &cached, nil
		}
	}

	published := models.StatusPublished
	filter := models.CaseFilter{Status: &published, Search: search}
	if category != "" && category != "すべて" {
		filter.Category = category
	}
	cases, err := s.cases.List(ctx, filter)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to list portal cases")
	}

	resp := &dto.PortalCaseList{
		Cases:      make([]dto.PortalCase, 0, len(cases)),
		Categories: portalCategories,
	}
	for _, c := range cases {
		resp.Cases = append(resp.Cases, toPortalCase(c))
	}

	if s.cache.Enabled() {
		if err := s.cache.Set(ctx, cacheKey, resp, s.ttl); err != nil {
			s.logger.Sugar().Warnw("failed to cache portal cases", "error", err)
		}
	}
	return resp, nil
}

// GetCase returns one published case for the portal detail view.
func (s *PortalService) GetCase(ctx context.Context, id int64) (*dto.PortalCase, error) {
	c, err := s.cases.GetByID(ctx, id)
	if err != nil {
		return nil, appErrors.ErrNotFound
	}
	if c.Status != models.StatusPublished {
		return nil, appErrors.ErrNotFound
	}
	portal := toPortalCase(*c)
	return &portal, nil
}

// ListCompanies returns the contractor directory ordered by rating.
func (s *PortalService) ListCompanies(ctx context.Context, search string) (*dto.PortalCompanyList, error) {
	cacheKey := fmt.Sprintf("portal:companies:%s", search)
	if s.cache.Enabled() {
		var cached dto.PortalCompanyList
		if hit, _ := s.cache.Get(ctx, cacheKey, &cached); hit {
			return &cached, nil
		}
	}

	companies, err := s.companies.List(ctx, search)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to list companies")
	}
	sort.SliceStable(companies, func(i, j int) bool {
		return companies[i].Rating > companies[j].Rating
	})

	resp := &dto.PortalCompanyList{Companies: companies}
	if s.cache.Enabled() {
		if err := s.cache.Set(ctx, cacheKey, resp, s.ttl); err != nil {
			s.logger.Sugar().Warnw("failed to cache portal companies", "error", err)
		}
	}
	return resp, nil
}

// GetCompany returns one directory entry for the portal detail view.
func (s *PortalService) GetCompany(ctx context.Context, id string) (*models.Company, error) {
	c, err := s.companies.GetByID(ctx, id)
	if err != nil {
		return nil, appErrors.ErrNotFound
	}
	return c, nil
}

// Invalidate drops cached portal payloads after a case publication changes.
func (s *PortalService) Invalidate(ctx context.Context) {
	if !s.cache.Enabled() {
		return
	}
	if err := s.cache.Invalidate(ctx, "portal:*"); err != nil {
		s.logger.Sugar().Warnw("failed to invalidate portal cache", "error", err)
	}
}

func toPortalCase(c models.Case) dto.PortalCase {
	portal := dto.PortalCase{
		ID:          c.ID,
		Title:       c.Title,
		Company:     c.Company,
		Location:    c.Location,
		Category:    c.Category,
		BeforeImage: c.BeforeImage,
		AfterImage:  c.AfterImage,
		Description: c.Description,
		WorkPeriod:  c.WorkPeriod,
	}
	if c.PublishedAt != nil {
		portal.PublishedAt = c.PublishedAt.UTC().Format("2006-01-02")
	}
	return portal
}
