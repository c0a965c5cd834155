package service

import (
	"context"
	"database/sql"
	"errors"
	"time"

	"go.uber.org/zap"

	"github.com/reformcases/portfolio-api/internal/dto"
	"github.com/reformcases/portfolio-api/internal/models"
	"github.com/reformcases/portfolio-api/internal/repository"
	appErrors "github.com/reformcases/portfolio-api/pkg/errors"
	"github.com/reformcases/portfolio-api/pkg/jobs"
)

type generationJobStore interface {
	Create(ctx context.Context, job *models.GenerationJob) error
	GetByID(ctx context.Context, id string) (*models.GenerationJob, error)
	Update(ctx context.Context, id string, params repository.UpdateGenerationJobParams) error
}

type generationCaseStore interface {
	GetByID(ctx context.Context, id int64) (*models.Case, error)
	Update(ctx context.Context, id int64, params repository.UpdateCaseParams) error
}

type jobDispatcher interface {
	Enqueue(job jobs.Job) error
}

type dashboardInvalidator interface {
	Invalidate(ctx context.Context, companyID string)
}

type portalInvalidator interface {
	Invalidate(ctx context.Context)
}

// GenerationService owns the summary-generation job lifecycle: accept a
// request, run the generator in the background, and surface the result to
// polling clients.
type GenerationService struct {
	repo   generationJobStore
	cases  generationCaseStore
	queue  jobDispatcher
	logger *zap.Logger
}

// NewGenerationService constructs the generation service.
func NewGenerationService(repo generationJobStore, cases generationCaseStore, queue jobDispatcher, logger *zap.Logger) *GenerationService {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &GenerationService{repo: repo, cases: cases, queue: queue, logger: logger}
}

// CreateJob validates the request, persists the job and enqueues processing.
// A job may target one of the actor's own cases; foreign case ids are
// rejected before anything is stored.
func (s *GenerationService) CreateJob(ctx context.Context, req dto.GenerationRequest, actor models.UserInfo) (*dto.GenerationJobResponse, error) {
	if req.Category == "" {
		return nil, appErrors.Clone(appErrors.ErrValidation, "category is required")
	}
	if req.WorkOrderFile == "" {
		return nil, appErrors.Clone(appErrors.ErrValidation, "workOrderFile is required")
	}
	if req.CaseID != nil {
		target, err := s.cases.GetByID(ctx, *req.CaseID)
		if err != nil {
			if errors.Is(err, sql.ErrNoRows) {
				return nil, appErrors.ErrNotFound
			}
			return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load case")
		}
		if target.CompanyID != actor.CompanyID {
			return nil, appErrors.ErrForbidden
		}
	}
	job := &models.GenerationJob{
		CaseID:        req.CaseID,
		Category:      req.Category,
		WorkOrderFile: req.WorkOrderFile,
		Status:        models.GenerationStatusQueued,
		CreatedBy:     actor.ID,
	}
	if err := s.repo.Create(ctx, job); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to create generation job")
	}
	if err := s.queue.Enqueue(jobs.Job{ID: job.ID, Type: "generation"}); err != nil {
		status := models.GenerationStatusFailed
		msg := "failed to enqueue job"
		now := time.Now().UTC()
		_ = s.repo.Update(ctx, job.ID, repository.UpdateGenerationJobParams{
			Status:       &status,
			ErrorMessage: &msg,
			FinishedAt:   &now,
		})
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to enqueue generation job")
	}
	return &dto.GenerationJobResponse{ID: job.ID, Status: job.Status}, nil
}

// GetStatus exposes job progress to clients, enforcing ownership.
func (s *GenerationService) GetStatus(ctx context.Context, id, actorID string) (*dto.GenerationStatusResponse, error) {
	job, err := s.repo.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.ErrNotFound
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load generation job")
	}
	if job.CreatedBy != actorID {
		return nil, appErrors.ErrForbidden
	}
	resp := &dto.GenerationStatusResponse{
		ID:     job.ID,
		Status: job.Status,
	}
	if job.Title != nil {
		resp.Title = job.Title
	}
	if job.Description != nil {
		resp.Description = job.Description
	}
	if job.ErrorMessage != nil && *job.ErrorMessage != "" {
		resp.Error = job.ErrorMessage
	}
	return resp, nil
}

// GenerationWorker bridges queue jobs to the generator and applies the
// result to the job record, and to the linked case when one exists.
type GenerationWorker struct {
	repo      generationJobStore
	cases     generationCaseStore
	generator SummaryGenerator
	dashboard dashboardInvalidator
	portal    portalInvalidator
	logger    *zap.Logger
}

// NewGenerationWorker constructs a worker. The invalidators may be nil when
// no cached views exist (tests, cache disabled).
func NewGenerationWorker(repo generationJobStore, cases generationCaseStore, generator SummaryGenerator, dashboard dashboardInvalidator, portal portalInvalidator, logger *zap.Logger) *GenerationWorker {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &GenerationWorker{repo: repo, cases: cases, generator: generator, dashboard: dashboard, portal: portal, logger: logger}
}

// Handle processes a queue job.
func (w *GenerationWorker) Handle(ctx context.Context, job jobs.Job) error {
	record, err := w.repo.GetByID(ctx, job.ID)
	if err != nil {
		return err
	}
	processing := models.GenerationStatusProcessing
	if err := w.repo.Update(ctx, job.ID, repository.UpdateGenerationJobParams{Status: &processing}); err != nil {
		return err
	}

	summary, err := w.generator.Generate(ctx, record.Category, record.WorkOrderFile)
	if err != nil {
		failed := models.GenerationStatusFailed
		msg := err.Error()
		now := time.Now().UTC()
		if updateErr := w.repo.Update(ctx, job.ID, repository.UpdateGenerationJobParams{
			Status:       &failed,
			ErrorMessage: &msg,
			FinishedAt:   &now,
		}); updateErr != nil {
			w.logger.Sugar().Warnw("failed to mark generation job failed", "job_id", job.ID, "error", updateErr)
		}
		return err
	}

	finished := models.GenerationStatusFinished
	now := time.Now().UTC()
	if err := w.repo.Update(ctx, job.ID, repository.UpdateGenerationJobParams{
		Status:      &finished,
		Title:       &summary.Title,
		Description: &summary.Description,
		FinishedAt:  &now,
	}); err != nil {
		w.logger.Sugar().Warnw("failed to mark generation job finished", "job_id", job.ID, "error", err)
		return err
	}

	// When the request targeted an existing case, the generated copy wins
	// over whatever the form holds at that moment.
	if record.CaseID != nil && w.cases != nil {
		target, err := w.cases.GetByID(ctx, *record.CaseID)
		if err != nil {
			w.logger.Sugar().Warnw("generated summary has no case to land on", "case_id", *record.CaseID, "error", err)
			return nil
		}
		if err := w.cases.Update(ctx, *record.CaseID, repository.UpdateCaseParams{
			Title:       &summary.Title,
			Description: &summary.Description,
		}); err != nil {
			w.logger.Sugar().Warnw("failed to apply generated summary to case", "case_id", *record.CaseID, "error", err)
			return nil
		}
		// The write bypassed the handlers, so cached views go stale here.
		if w.dashboard != nil {
			w.dashboard.Invalidate(ctx, target.CompanyID)
		}
		if w.portal != nil {
			w.portal.Invalidate(ctx)
		}
	}
	return nil
}
