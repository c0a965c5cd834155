package repository

import (
	"context"
	"database/sql"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"

	"github.com/reformcases/portfolio-api/internal/models"
)

const generationJobColumns = `id, case_id, category, work_order_file, status, title, description, created_by, created_at, finished_at, error_message`

// GenerationRepository persists summary-generation jobs so their status
// survives restarts when the postgres store is active.
type GenerationRepository struct {
	db *sqlx.DB
}

// NewGenerationRepository creates a new instance of GenerationRepository.
func NewGenerationRepository(db *sqlx.DB) *GenerationRepository {
	return &GenerationRepository{db: db}
}

// Create inserts a new job row with generated defaults.
func (r *GenerationRepository) Create(ctx context.Context, job *models.GenerationJob) error {
	if job.ID == "" {
		job.ID = uuid.NewString()
	}
	if job.Status == "" {
		job.Status = models.GenerationStatusQueued
	}
	if job.CreatedAt.IsZero() {
		job.CreatedAt = time.Now().UTC()
	}
	const query = `INSERT INTO generation_jobs (id, case_id, category, work_order_file, status, created_by, created_at)
VALUES (:id, :case_id, :category, :work_order_file, :status, :created_by, :created_at)`
	if _, err := r.db.NamedExecContext(ctx, query, job); err != nil {
		return fmt.Errorf("create generation job: %w", err)
	}
	return nil
}

// GetByID returns a job by identifier.
func (r *GenerationRepository) GetByID(ctx context.Context, id string) (*models.GenerationJob, error) {
	query := fmt.Sprintf(`SELECT %s FROM generation_jobs WHERE id = $1 LIMIT 1`, generationJobColumns)
	var job models.GenerationJob
	if err := r.db.GetContext(ctx, &job, query, id); err != nil {
		if err == sql.ErrNoRows {
			return nil, err
		}
		return nil, fmt.Errorf("get generation job: %w", err)
	}
	return &job, nil
}

// Update applies the provided changes to a job.
func (r *GenerationRepository) Update(ctx context.Context, id string, params UpdateGenerationJobParams) error {
	sets := []string{}
	args := []interface{}{}
	idx := 1

	addSet := func(column string, value interface{}) {
		sets = append(sets, fmt.Sprintf("%s = $%d", column, idx))
		args = append(args, value)
		idx++
	}

	if params.Status != nil {
		addSet("status", *params.Status)
	}
	if params.Title != nil {
		addSet("title", *params.Title)
	}
	if params.Description != nil {
		addSet("description", *params.Description)
	}
	if params.ErrorMessage != nil {
		addSet("error_message", *params.ErrorMessage)
	}
	if params.FinishedAt != nil {
		addSet("finished_at", *params.FinishedAt)
	}
	if len(sets) == 0 {
		return nil
	}

	query := fmt.Sprintf(`UPDATE generation_jobs SET %s WHERE id = $%d`, strings.Join(sets, ", "), idx)
	args = append(args, id)

	result, err := r.db.ExecContext(ctx, query, args...)
	if err != nil {
		return fmt.Errorf("update generation job: %w", err)
	}
	rows, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("update generation job: %w", err)
	}
	if rows == 0 {
		return fmt.Errorf("update generation job %s: %w", id, sql.ErrNoRows)
	}
	return nil
}
