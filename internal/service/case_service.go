package service

import (
	"context"
	"database/sql"
	"errors"
	"time"

	"github.com/go-playground/validator/v10"
	"go.uber.org/zap"

	"github.com/reformcases/portfolio-api/internal/dto"
	"github.com/reformcases/portfolio-api/internal/models"
	"github.com/reformcases/portfolio-api/internal/repository"
	appErrors "github.com/reformcases/portfolio-api/pkg/errors"
)

type caseStore interface {
	Create(ctx context.Context, c *models.Case) error
	GetByID(ctx context.Context, id int64) (*models.Case, error)
	List(ctx context.Context, filter models.CaseFilter) ([]models.Case, error)
	Update(ctx context.Context, id int64, params repository.UpdateCaseParams) error
	Delete(ctx context.Context, id int64) error
	CountByStatus(ctx context.Context, companyID string) (models.CaseCounts, error)
}

type companyDirectory interface {
	IncrementCaseCount(ctx context.Context, id string, delta int) error
}

// CaseServiceConfig governs publication rules.
type CaseServiceConfig struct {
	// RequireAfterImage blocks publication until a completion photo exists.
	RequireAfterImage bool
}

// CaseService implements the case lifecycle: draft, scheduled, published.
type CaseService struct {
	repo      caseStore
	companies companyDirectory
	validator *validator.Validate
	logger    *zap.Logger
	cfg       CaseServiceConfig
}

// NewCaseService constructs a CaseService.
func NewCaseService(repo caseStore, companies companyDirectory, validate *validator.Validate, logger *zap.Logger, cfg CaseServiceConfig) *CaseService {
	if validate == nil {
		validate = validator.New()
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &CaseService{repo: repo, companies: companies, validator: validate, logger: logger, cfg: cfg}
}

// Create stores a new case. The wizard's final step decides whether it lands
// as a draft, a scheduled entry or an immediately published one.
func (s *CaseService) Create(ctx context.Context, req dto.CreateCaseRequest, actor models.UserInfo) (*models.Case, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid case payload")
	}
	if len(req.BeforeImages) == 0 {
		return nil, appErrors.Clone(appErrors.ErrValidation, "at least one before photo is required")
	}

	now := time.Now().UTC()
	c := &models.Case{
		CompanyID:   actor.CompanyID,
		Company:     actor.CompanyName,
		Title:       req.Title,
		Description: req.Description,
		Category:    req.Category,
		Location:    req.Location,
		WorkPeriod:  req.WorkPeriod,
		BeforeImage: req.BeforeImages[0],
		Status:      models.StatusDraft,
		CreatedAt:   now,
	}
	if len(req.AfterImages) > 0 {
		after := req.AfterImages[0]
		c.AfterImage = &after
	}

	switch {
	case req.PublishNow:
		if err := s.publishable(c); err != nil {
			return nil, err
		}
		c.Status = models.StatusPublished
		c.PublishedAt = &now
	case req.ScheduledDate != nil && *req.ScheduledDate != "":
		c.Status = models.StatusScheduled
		c.ScheduledDate = req.ScheduledDate
		c.ReminderTime = req.ReminderTime
	}

	if err := s.repo.Create(ctx, c); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to create case")
	}
	if c.Status == models.StatusPublished {
		s.bumpCaseCount(ctx, c.CompanyID, 1)
	}
	return c, nil
}

// Get loads a single case, enforcing company ownership.
func (s *CaseService) Get(ctx context.Context, id int64, companyID string) (*models.Case, error) {
	c, err := s.loadOwned(ctx, id, companyID)
	if err != nil {
		return nil, err
	}
	return c, nil
}

// List returns the company's cases matching the filter together with the
// per-status totals shown on the dashboard tabs.
func (s *CaseService) List(ctx context.Context, filter models.CaseFilter) (*dto.CaseListResponse, error) {
	cases, err := s.repo.List(ctx, filter)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to list cases")
	}
	counts, err := s.repo.CountByStatus(ctx, filter.CompanyID)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to count cases")
	}
	return &dto.CaseListResponse{Cases: cases, Counts: counts}, nil
}

// Update applies a partial edit. Only the targeted case changes; fields the
// request leaves nil keep their stored value.
func (s *CaseService) Update(ctx context.Context, id int64, companyID string, req dto.UpdateCaseRequest) (*models.Case, error) {
	c, err := s.loadOwned(ctx, id, companyID)
	if err != nil {
		return nil, err
	}
	if c.Status == models.StatusPublished {
		if req.Title != nil && *req.Title == "" {
			return nil, appErrors.Clone(appErrors.ErrValidation, "a published case must keep its title")
		}
		if req.BeforeImage != nil && *req.BeforeImage == "" {
			return nil, appErrors.Clone(appErrors.ErrValidation, "a published case must keep its before photo")
		}
		if s.cfg.RequireAfterImage && req.AfterImage != nil && *req.AfterImage == "" {
			return nil, appErrors.Clone(appErrors.ErrValidation, "a published case must keep its after photo")
		}
	}

	params := repository.UpdateCaseParams{
		Title:       req.Title,
		Description: req.Description,
		Category:    req.Category,
		Location:    req.Location,
		WorkPeriod:  req.WorkPeriod,
		BeforeImage: req.BeforeImage,
	}
	if req.AfterImage != nil {
		after := req.AfterImage
		if *after == "" {
			after = nil
		}
		params.AfterImage = &after
	}
	if req.ScheduledDate != nil {
		scheduled := req.ScheduledDate
		if *scheduled == "" {
			scheduled = nil
		}
		params.ScheduledDate = &scheduled
	}
	if req.ReminderTime != nil {
		reminder := req.ReminderTime
		if *reminder == "" {
			reminder = nil
		}
		params.ReminderTime = &reminder
	}

	if err := s.repo.Update(ctx, id, params); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.ErrNotFound
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to update case")
	}
	return s.repo.GetByID(ctx, id)
}

// Delete removes a case and keeps the directory's published counter honest.
func (s *CaseService) Delete(ctx context.Context, id int64, companyID string) error {
	c, err := s.loadOwned(ctx, id, companyID)
	if err != nil {
		return err
	}
	if err := s.repo.Delete(ctx, id); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return appErrors.ErrNotFound
		}
		return appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to delete case")
	}
	if c.Status == models.StatusPublished {
		s.bumpCaseCount(ctx, companyID, -1)
	}
	return nil
}

// Publish promotes a draft or scheduled case to the public portal.
func (s *CaseService) Publish(ctx context.Context, id int64, companyID string) (*models.Case, error) {
	c, err := s.loadOwned(ctx, id, companyID)
	if err != nil {
		return nil, err
	}
	if c.Status == models.StatusPublished {
		return nil, appErrors.ErrAlreadyPublished
	}
	if err := s.publishable(c); err != nil {
		return nil, err
	}

	published := models.StatusPublished
	now := time.Now().UTC()
	if err := s.repo.Update(ctx, id, repository.UpdateCaseParams{
		Status:      &published,
		PublishedAt: &now,
	}); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to publish case")
	}
	s.bumpCaseCount(ctx, companyID, 1)
	return s.repo.GetByID(ctx, id)
}

// ValidateWizardStep applies the upload wizard's step guards and returns
// field-level reasons when advancing is blocked.
func (s *CaseService) ValidateWizardStep(req dto.WizardValidateRequest) dto.WizardValidateResponse {
	reasons := make(map[string]string)
	switch req.Step {
	case dto.StepBeforePhotos:
		if len(req.BeforeImages) == 0 {
			reasons["before_images"] = "施工前の写真を1枚以上アップロードしてください"
		}
		if req.Category == "" {
			reasons["category"] = "カテゴリを選択してください"
		}
	case dto.StepDetails:
		if req.Title == "" {
			reasons["title"] = "タイトルを入力してください"
		}
	case dto.StepPublish:
		if req.PublishNow && s.cfg.RequireAfterImage && len(req.AfterImages) == 0 {
			reasons["after_images"] = "公開するには施工後の写真が必要です"
		}
	default:
		reasons["step"] = "unknown wizard step"
	}
	if len(reasons) == 0 {
		return dto.WizardValidateResponse{Allowed: true}
	}
	return dto.WizardValidateResponse{Allowed: false, Reasons: reasons}
}

// publishable enforces the published-case invariant: a title, a before
// photo, and an after photo when the flag demands one.
func (s *CaseService) publishable(c *models.Case) error {
	if c.Title == "" {
		return appErrors.Clone(appErrors.ErrPublishBlocked, "a title is required before publishing")
	}
	if c.BeforeImage == "" {
		return appErrors.Clone(appErrors.ErrPublishBlocked, "a before photo is required before publishing")
	}
	if s.cfg.RequireAfterImage && (c.AfterImage == nil || *c.AfterImage == "") {
		return appErrors.Clone(appErrors.ErrPublishBlocked, "an after photo is required before publishing")
	}
	return nil
}

func (s *CaseService) loadOwned(ctx context.Context, id int64, companyID string) (*models.Case, error) {
	c, err := s.repo.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.ErrNotFound
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load case")
	}
	if companyID != "" && c.CompanyID != companyID {
		return nil, appErrors.ErrForbidden
	}
	return c, nil
}

func (s *CaseService) bumpCaseCount(ctx context.Context, companyID string, delta int) {
	if s.companies == nil || companyID == "" {
		return
	}
	if err := s.companies.IncrementCaseCount(ctx, companyID, delta); err != nil {
		s.logger.Sugar().Warnw("failed to adjust company case count", "company_id", companyID, "error", err)
	}
}
