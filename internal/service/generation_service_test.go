package service

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/reformcases/portfolio-api/internal/dto"
	"github.com/reformcases/portfolio-api/internal/models"
	"github.com/reformcases/portfolio-api/internal/repository"
	appErrors "github.com/reformcases/portfolio-api/pkg/errors"
	"github.com/reformcases/portfolio-api/pkg/jobs"
)

type generationQueueStub struct {
	jobs []jobs.Job
	err  error
}

func (q *generationQueueStub) Enqueue(job jobs.Job) error {
	if q.err != nil {
		return q.err
	}
	q.jobs = append(q.jobs, job)
	return nil
}

type dashboardInvalidatorSpy struct {
	companies []string
}

func (s *dashboardInvalidatorSpy) Invalidate(_ context.Context, companyID string) {
	s.companies = append(s.companies, companyID)
}

type portalInvalidatorSpy struct {
	calls int
}

func (s *portalInvalidatorSpy) Invalidate(_ context.Context) {
	s.calls++
}

func generationActor(userID, companyID string) models.UserInfo {
	return models.UserInfo{
		ID:          userID,
		Email:       "demo@reformcases.jp",
		CompanyName: "東京リフォーム株式会社",
		CompanyID:   companyID,
	}
}

func TestGenerationServiceCreateJob(t *testing.T) {
	repo := repository.NewMemoryGenerationRepository()
	queue := &generationQueueStub{}
	svc := NewGenerationService(repo, repository.NewMemoryCaseRepository(), queue, zap.NewNop())

	resp, err := svc.CreateJob(context.Background(), dto.GenerationRequest{
		Category:      "キッチン",
		WorkOrderFile: "workorder/abc.pdf",
	}, generationActor("user-1", "company-1"))
	require.NoError(t, err)
	require.NotEmpty(t, resp.ID)
	assert.Equal(t, models.GenerationStatusQueued, resp.Status)
	require.Len(t, queue.jobs, 1)
	assert.Equal(t, resp.ID, queue.jobs[0].ID)
}

func TestGenerationServiceCreateJobValidation(t *testing.T) {
	svc := NewGenerationService(repository.NewMemoryGenerationRepository(), repository.NewMemoryCaseRepository(), &generationQueueStub{}, zap.NewNop())

	_, err := svc.CreateJob(context.Background(), dto.GenerationRequest{WorkOrderFile: "x.pdf"}, generationActor("user-1", "company-1"))
	require.Error(t, err)

	_, err = svc.CreateJob(context.Background(), dto.GenerationRequest{Category: "キッチン"}, generationActor("user-1", "company-1"))
	require.Error(t, err)
}

func TestGenerationServiceCreateJobCaseOwnership(t *testing.T) {
	jobRepo := repository.NewMemoryGenerationRepository()
	caseRepo := repository.NewMemoryCaseRepository()
	queue := &generationQueueStub{}
	svc := NewGenerationService(jobRepo, caseRepo, queue, zap.NewNop())

	existing := &models.Case{
		CompanyID:   "company-b",
		Title:       "他社の公開事例",
		Category:    "キッチン",
		BeforeImage: "before.jpg",
		Status:      models.StatusPublished,
	}
	require.NoError(t, caseRepo.Create(context.Background(), existing))

	t.Run("foreign case is rejected", func(t *testing.T) {
		_, err := svc.CreateJob(context.Background(), dto.GenerationRequest{
			Category:      "キッチン",
			WorkOrderFile: "workorder/doc.pdf",
			CaseID:        &existing.ID,
		}, generationActor("user-a", "company-a"))
		require.ErrorIs(t, err, appErrors.ErrForbidden)
		assert.Empty(t, queue.jobs)
	})

	t.Run("missing case is rejected", func(t *testing.T) {
		missing := int64(9999)
		_, err := svc.CreateJob(context.Background(), dto.GenerationRequest{
			Category:      "キッチン",
			WorkOrderFile: "workorder/doc.pdf",
			CaseID:        &missing,
		}, generationActor("user-b", "company-b"))
		require.ErrorIs(t, err, appErrors.ErrNotFound)
	})

	t.Run("own case is accepted", func(t *testing.T) {
		resp, err := svc.CreateJob(context.Background(), dto.GenerationRequest{
			Category:      "キッチン",
			WorkOrderFile: "workorder/doc.pdf",
			CaseID:        &existing.ID,
		}, generationActor("user-b", "company-b"))
		require.NoError(t, err)
		assert.NotEmpty(t, resp.ID)
	})
}

func TestGenerationServiceGetStatusOwnership(t *testing.T) {
	repo := repository.NewMemoryGenerationRepository()
	queue := &generationQueueStub{}
	svc := NewGenerationService(repo, repository.NewMemoryCaseRepository(), queue, zap.NewNop())

	resp, err := svc.CreateJob(context.Background(), dto.GenerationRequest{
		Category:      "浴室",
		WorkOrderFile: "workorder/doc.pdf",
	}, generationActor("owner", "company-1"))
	require.NoError(t, err)

	_, err = svc.GetStatus(context.Background(), resp.ID, "intruder")
	require.ErrorIs(t, err, appErrors.ErrForbidden)

	status, err := svc.GetStatus(context.Background(), resp.ID, "owner")
	require.NoError(t, err)
	assert.Equal(t, models.GenerationStatusQueued, status.Status)
}

func TestGenerationWorkerHandleAppliesResult(t *testing.T) {
	jobRepo := repository.NewMemoryGenerationRepository()
	caseRepo := repository.NewMemoryCaseRepository()

	target := &models.Case{
		CompanyID:   "company-1",
		Title:       "手入力のタイトル",
		Category:    "キッチン",
		BeforeImage: "before.jpg",
	}
	require.NoError(t, caseRepo.Create(context.Background(), target))

	caseID := target.ID
	job := &models.GenerationJob{
		CaseID:        &caseID,
		Category:      "キッチン",
		WorkOrderFile: "workorder/doc.pdf",
		CreatedBy:     "user-1",
	}
	require.NoError(t, jobRepo.Create(context.Background(), job))

	dashboards := &dashboardInvalidatorSpy{}
	portal := &portalInvalidatorSpy{}
	worker := NewGenerationWorker(jobRepo, caseRepo, NewTemplateGenerator(0), dashboards, portal, zap.NewNop())
	require.NoError(t, worker.Handle(context.Background(), jobs.Job{ID: job.ID}))

	stored, err := jobRepo.GetByID(context.Background(), job.ID)
	require.NoError(t, err)
	assert.Equal(t, models.GenerationStatusFinished, stored.Status)
	require.NotNil(t, stored.Title)
	assert.Equal(t, "キッチン工事：機能性とデザイン性を両立した施工事例", *stored.Title)
	require.NotNil(t, stored.Description)
	assert.Contains(t, *stored.Description, "キッチン工事を実施いたしました")
	require.NotNil(t, stored.FinishedAt)

	updated, err := caseRepo.GetByID(context.Background(), caseID)
	require.NoError(t, err)
	assert.Equal(t, *stored.Title, updated.Title)
	assert.Equal(t, *stored.Description, updated.Description)

	assert.Equal(t, []string{"company-1"}, dashboards.companies)
	assert.Equal(t, 1, portal.calls)
}

func TestGenerationWorkerHandleWithoutCase(t *testing.T) {
	jobRepo := repository.NewMemoryGenerationRepository()
	job := &models.GenerationJob{
		Category:      "浴室",
		WorkOrderFile: "workorder/doc.pdf",
		CreatedBy:     "user-1",
	}
	require.NoError(t, jobRepo.Create(context.Background(), job))

	dashboards := &dashboardInvalidatorSpy{}
	portal := &portalInvalidatorSpy{}
	worker := NewGenerationWorker(jobRepo, nil, NewTemplateGenerator(0), dashboards, portal, zap.NewNop())
	require.NoError(t, worker.Handle(context.Background(), jobs.Job{ID: job.ID}))

	stored, err := jobRepo.GetByID(context.Background(), job.ID)
	require.NoError(t, err)
	assert.Equal(t, models.GenerationStatusFinished, stored.Status)
	assert.Empty(t, dashboards.companies)
	assert.Zero(t, portal.calls)
}

func TestGenerationWorkerHandleCancelled(t *testing.T) {
	jobRepo := repository.NewMemoryGenerationRepository()
	job := &models.GenerationJob{
		Category:      "外壁",
		WorkOrderFile: "workorder/doc.pdf",
		CreatedBy:     "user-1",
	}
	require.NoError(t, jobRepo.Create(context.Background(), job))

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	worker := NewGenerationWorker(jobRepo, nil, NewTemplateGenerator(time.Minute), nil, nil, zap.NewNop())
	err := worker.Handle(ctx, jobs.Job{ID: job.ID})
	require.Error(t, err)

	stored, err := jobRepo.GetByID(context.Background(), job.ID)
	require.NoError(t, err)
	assert.Equal(t, models.GenerationStatusFailed, stored.Status)
	require.NotNil(t, stored.ErrorMessage)
}
