package repository

import (
	"context"
	"database/sql"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/reformcases/portfolio-api/internal/models"
)

// MemoryGenerationRepository tracks summary-generation jobs. Jobs are
// transient by design: they exist to report progress to the caller and are
// not persisted across restarts.
type MemoryGenerationRepository struct {
	mu   sync.RWMutex
	jobs map[string]models.GenerationJob
}

// NewMemoryGenerationRepository returns an empty job store.
func NewMemoryGenerationRepository() *MemoryGenerationRepository {
	return &MemoryGenerationRepository{jobs: make(map[string]models.GenerationJob)}
}

// Create stores a new job with generated defaults.
func (r *MemoryGenerationRepository) Create(ctx context.Context, job *models.GenerationJob) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if job.ID == "" {
		job.ID = uuid.NewString()
	}
	if job.Status == "" {
		job.Status = models.GenerationStatusQueued
	}
	if job.CreatedAt.IsZero() {
		job.CreatedAt = time.Now().UTC()
	}
	r.jobs[job.ID] = *job
	return nil
}

// GetByID returns a copy of a job.
func (r *MemoryGenerationRepository) GetByID(ctx context.Context, id string) (*models.GenerationJob, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	stored, ok := r.jobs[id]
	if !ok {
		return nil, fmt.Errorf("get generation job %s: %w", id, sql.ErrNoRows)
	}
	return &stored, nil
}

// UpdateGenerationJobParams defines the mutable job fields.
type UpdateGenerationJobParams struct {
	Status       *models.GenerationStatus
	Title        *string
	Description  *string
	ErrorMessage *string
	FinishedAt   *time.Time
}

// Update applies the provided changes to a job.
func (r *MemoryGenerationRepository) Update(ctx context.Context, id string, params UpdateGenerationJobParams) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	stored, ok := r.jobs[id]
	if !ok {
		return fmt.Errorf("update generation job %s: %w", id, sql.ErrNoRows)
	}
	if params.Status != nil {
		stored.Status = *params.Status
	}
	if params.Title != nil {
		stored.Title = params.Title
	}
	if params.Description != nil {
		stored.Description = params.Description
	}
	if params.ErrorMessage != nil {
		stored.ErrorMessage = params.ErrorMessage
	}
	if params.FinishedAt != nil {
		finishedAt := *params.FinishedAt
		stored.FinishedAt = &finishedAt
	}
	r.jobs[id] = stored
	return nil
}
