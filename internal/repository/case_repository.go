package repository

import (
	"context"
	"database/sql"
	"fmt"
	"strings"
	"time"

	"github.com/jmoiron/sqlx"

	"github.com/reformcases/portfolio-api/internal/models"
)

const caseColumns = `id, company_id, title, description, category, location, company, work_period,
before_image, after_image, status, created_at, published_at, scheduled_date, reminder_time, reminder_sent`

// CaseRepository persists cases in PostgreSQL.
type CaseRepository struct {
	db *sqlx.DB
}

// NewCaseRepository constructs the repository.
func NewCaseRepository(db *sqlx.DB) *CaseRepository {
	return &CaseRepository{db: db}
}

// Create inserts a case row and fills the generated id.
func (r *CaseRepository) Create(ctx context.Context, c *models.Case) error {
	if c.CreatedAt.IsZero() {
		c.CreatedAt = time.Now().UTC()
	}
	if c.Status == "" {
		c.Status = models.StatusDraft
	}
	const query = `INSERT INTO cases (company_id, title, description, category, location, company, work_period,
before_image, after_image, status, created_at, published_at, scheduled_date, reminder_time, reminder_sent)
VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15)
RETURNING id`
	if err := r.db.QueryRowxContext(ctx, query,
		c.CompanyID, c.Title, c.Description, c.Category, c.Location, c.Company, c.WorkPeriod,
		c.BeforeImage, c.AfterImage, c.Status, c.CreatedAt, c.PublishedAt, c.ScheduledDate, c.ReminderTime, c.ReminderSent,
	).Scan(&c.ID); err != nil {
		return fmt.Errorf("create case: %w", err)
	}
	return nil
}

// GetByID returns a single case row.
func (r *CaseRepository) GetByID(ctx context.Context, id int64) (*models.Case, error) {
	query := fmt.Sprintf(`SELECT %s FROM cases WHERE id = $1`, caseColumns)
	var c models.Case
	if err := r.db.GetContext(ctx, &c, query, id); err != nil {
		return nil, fmt.Errorf("get case: %w", err)
	}
	return &c, nil
}

// List returns cases matching the filter, newest first.
func (r *CaseRepository) List(ctx context.Context, filter models.CaseFilter) ([]models.Case, error) {
	conditions := []string{"1=1"}
	args := make([]interface{}, 0, 4)
	argPos := 1

	if filter.CompanyID != "" {
		conditions = append(conditions, fmt.Sprintf("company_id = $%d", argPos))
		args = append(args, filter.CompanyID)
		argPos++
	}
	if filter.Status != nil {
		conditions = append(conditions, fmt.Sprintf("status = $%d", argPos))
		args = append(args, *filter.Status)
		argPos++
	}
	if filter.Category != "" {
		conditions = append(conditions, fmt.Sprintf("category = $%d", argPos))
		args = append(args, filter.Category)
		argPos++
	}
	if filter.Search != "" {
		conditions = append(conditions, fmt.Sprintf("(title ILIKE $%d OR category ILIKE $%d)", argPos, argPos))
		args = append(args, "%"+filter.Search+"%")
		argPos++
	}

	query := fmt.Sprintf(`SELECT %s FROM cases WHERE %s ORDER BY created_at DESC, id DESC`,
		caseColumns, strings.Join(conditions, " AND "))
	if filter.PageSize > 0 {
		page := filter.Page
		if page <= 0 {
			page = 1
		}
		query += fmt.Sprintf(" LIMIT %d OFFSET %d", filter.PageSize, (page-1)*filter.PageSize)
	}

	var cases []models.Case
	if err := r.db.SelectContext(ctx, &cases, query, args...); err != nil {
		return nil, fmt.Errorf("list cases: %w", err)
	}
	return cases, nil
}

// UpdateCaseParams defines the mutable fields of a case row.
type UpdateCaseParams struct {
	Title         *string
	Description   *string
	Category      *string
	Location      *string
	WorkPeriod    *string
	BeforeImage   *string
	AfterImage    **string
	Status        *models.CaseStatus
	PublishedAt   *time.Time
	ScheduledDate **string
	ReminderTime  **string
	ReminderSent  *bool
}

// Update persists the provided changes for a case row.
func (r *CaseRepository) Update(ctx context.Context, id int64, params UpdateCaseParams) error {
	set := make([]string, 0, 8)
	args := make([]interface{}, 0, 9)
	argPos := 1

	add := func(column string, value interface{}) {
		set = append(set, fmt.Sprintf("%s = $%d", column, argPos))
		args = append(args, value)
		argPos++
	}

	if params.Title != nil {
		add("title", *params.Title)
	}
	if params.Description != nil {
		add("description", *params.Description)
	}
	if params.Category != nil {
		add("category", *params.Category)
	}
	if params.Location != nil {
		add("location", *params.Location)
	}
	if params.WorkPeriod != nil {
		add("work_period", *params.WorkPeriod)
	}
	if params.BeforeImage != nil {
		add("before_image", *params.BeforeImage)
	}
	if params.AfterImage != nil {
		add("after_image", *params.AfterImage)
	}
	if params.Status != nil {
		add("status", *params.Status)
	}
	if params.PublishedAt != nil {
		add("published_at", *params.PublishedAt)
	}
	if params.ScheduledDate != nil {
		add("scheduled_date", *params.ScheduledDate)
	}
	if params.ReminderTime != nil {
		add("reminder_time", *params.ReminderTime)
	}
	if params.ReminderSent != nil {
		add("reminder_sent", *params.ReminderSent)
	}

	if len(set) == 0 {
		return nil
	}

	query := fmt.Sprintf("UPDATE cases SET %s WHERE id = $%d", strings.Join(set, ", "), argPos)
	args = append(args, id)

	result, err := r.db.ExecContext(ctx, query, args...)
	if err != nil {
		return fmt.Errorf("update case: %w", err)
	}
	if affected, err := result.RowsAffected(); err == nil && affected == 0 {
		return fmt.Errorf("update case %d: %w", id, sql.ErrNoRows)
	}
	return nil
}

// Delete removes a case row.
func (r *CaseRepository) Delete(ctx context.Context, id int64) error {
	result, err := r.db.ExecContext(ctx, `DELETE FROM cases WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("delete case: %w", err)
	}
	if affected, err := result.RowsAffected(); err == nil && affected == 0 {
		return fmt.Errorf("delete case %d: %w", id, sql.ErrNoRows)
	}
	return nil
}

// CountByStatus aggregates totals per status for one company.
func (r *CaseRepository) CountByStatus(ctx context.Context, companyID string) (models.CaseCounts, error) {
	const query = `SELECT status, COUNT(*) AS count FROM cases WHERE company_id = $1 GROUP BY status`
	rows, err := r.db.QueryxContext(ctx, query, companyID)
	if err != nil {
		return models.CaseCounts{}, fmt.Errorf("count cases: %w", err)
	}
	defer rows.Close() //nolint:errcheck

	var counts models.CaseCounts
	for rows.Next() {
		var status models.CaseStatus
		var count int
		if err := rows.Scan(&status, &count); err != nil {
			return models.CaseCounts{}, fmt.Errorf("scan case counts: %w", err)
		}
		switch status {
		case models.StatusPublished:
			counts.Published = count
		case models.StatusDraft:
			counts.Draft = count
		case models.StatusScheduled:
			counts.Scheduled = count
		}
		counts.Total += count
	}
	if err := rows.Err(); err != nil {
		return models.CaseCounts{}, fmt.Errorf("iterate case counts: %w", err)
	}
	return counts, nil
}

// ListDueReminders returns scheduled cases whose reminder moment has passed
// and that have not yet been notified.
func (r *CaseRepository) ListDueReminders(ctx context.Context, now time.Time, limit int) ([]models.Case, error) {
	if limit <= 0 {
		limit = 50
	}
	query := fmt.Sprintf(`SELECT %s FROM cases
WHERE status = 'scheduled' AND reminder_sent = FALSE AND scheduled_date IS NOT NULL
AND (scheduled_date || ' ' || COALESCE(reminder_time, '00:00'))::timestamp <= $1
ORDER BY scheduled_date ASC LIMIT $2`, caseColumns)
	var cases []models.Case
	if err := r.db.SelectContext(ctx, &cases, query, now, limit); err != nil {
		return nil, fmt.Errorf("list due reminders: %w", err)
	}
	return cases, nil
}
