package repository

import (
	"context"
	"database/sql"
	"fmt"
	"sort"
	"sync"
	"time"

	"github.com/reformcases/portfolio-api/internal/models"
)

// MemoryCaseRepository keeps cases in a map keyed by id. It is the default
// backend in demo deployments and mirrors the semantics of the PostgreSQL
// repository, so services are oblivious to which one they hold.
type MemoryCaseRepository struct {
	mu     sync.RWMutex
	cases  map[int64]models.Case
	nextID int64
}

// NewMemoryCaseRepository returns an empty in-memory store.
func NewMemoryCaseRepository() *MemoryCaseRepository {
	return &MemoryCaseRepository{
		cases:  make(map[int64]models.Case),
		nextID: 1,
	}
}

// Create assigns the next id and stores a copy of the case.
func (r *MemoryCaseRepository) Create(ctx context.Context, c *models.Case) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if c.CreatedAt.IsZero() {
		c.CreatedAt = time.Now().UTC()
	}
	if c.Status == "" {
		c.Status = models.StatusDraft
	}
	c.ID = r.nextID
	r.nextID++
	r.cases[c.ID] = cloneCase(*c)
	return nil
}

// GetByID returns a copy of the stored case.
func (r *MemoryCaseRepository) GetByID(ctx context.Context, id int64) (*models.Case, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	stored, ok := r.cases[id]
	if !ok {
		return nil, fmt.Errorf("get case %d: %w", id, sql.ErrNoRows)
	}
	c := cloneCase(stored)
	return &c, nil
}

// List returns copies of cases matching the filter, newest first.
func (r *MemoryCaseRepository) List(ctx context.Context, filter models.CaseFilter) ([]models.Case, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	matched := make([]models.Case, 0, len(r.cases))
	for _, stored := range r.cases {
		if filter.CompanyID != "" && stored.CompanyID != filter.CompanyID {
			continue
		}
		if filter.Status != nil && stored.Status != *filter.Status {
			continue
		}
		if filter.Category != "" && stored.Category != filter.Category {
			continue
		}
		if !stored.MatchesSearch(filter.Search) {
			continue
		}
		matched = append(matched, cloneCase(stored))
	}

	sort.Slice(matched, func(i, j int) bool {
		if matched[i].CreatedAt.Equal(matched[j].CreatedAt) {
			return matched[i].ID > matched[j].ID
		}
		return matched[i].CreatedAt.After(matched[j].CreatedAt)
	})

	if filter.PageSize > 0 {
		page := filter.Page
		if page <= 0 {
			page = 1
		}
		start := (page - 1) * filter.PageSize
		if start >= len(matched) {
			return []models.Case{}, nil
		}
		end := start + filter.PageSize
		if end > len(matched) {
			end = len(matched)
		}
		matched = matched[start:end]
	}

	return matched, nil
}

// Update applies the provided changes to a stored case.
func (r *MemoryCaseRepository) Update(ctx context.Context, id int64, params UpdateCaseParams) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	stored, ok := r.cases[id]
	if !ok {
		return fmt.Errorf("update case %d: %w", id, sql.ErrNoRows)
	}

	if params.Title != nil {
		stored.Title = *params.Title
	}
	if params.Description != nil {
		stored.Description = *params.Description
	}
	if params.Category != nil {
		stored.Category = *params.Category
	}
	if params.Location != nil {
		stored.Location = *params.Location
	}
	if params.WorkPeriod != nil {
		stored.WorkPeriod = *params.WorkPeriod
	}
	if params.BeforeImage != nil {
		stored.BeforeImage = *params.BeforeImage
	}
	if params.AfterImage != nil {
		stored.AfterImage = cloneStringPtr(*params.AfterImage)
	}
	if params.Status != nil {
		stored.Status = *params.Status
	}
	if params.PublishedAt != nil {
		publishedAt := *params.PublishedAt
		stored.PublishedAt = &publishedAt
	}
	if params.ScheduledDate != nil {
		stored.ScheduledDate = cloneStringPtr(*params.ScheduledDate)
	}
	if params.ReminderTime != nil {
		stored.ReminderTime = cloneStringPtr(*params.ReminderTime)
	}
	if params.ReminderSent != nil {
		stored.ReminderSent = *params.ReminderSent
	}

	r.cases[id] = stored
	return nil
}

// Delete removes a stored case.
func (r *MemoryCaseRepository) Delete(ctx context.Context, id int64) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, ok := r.cases[id]; !ok {
		return fmt.Errorf("delete case %d: %w", id, sql.ErrNoRows)
	}
	delete(r.cases, id)
	return nil
}

// CountByStatus aggregates totals per status for one company.
func (r *MemoryCaseRepository) CountByStatus(ctx context.Context, companyID string) (models.CaseCounts, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	var counts models.CaseCounts
	for _, stored := range r.cases {
		if companyID != "" && stored.CompanyID != companyID {
			continue
		}
		switch stored.Status {
		case models.StatusPublished:
			counts.Published++
		case models.StatusDraft:
			counts.Draft++
		case models.StatusScheduled:
			counts.Scheduled++
		}
		counts.Total++
	}
	return counts, nil
}

// ListDueReminders returns scheduled cases whose reminder moment has passed
// and that have not yet been notified.
func (r *MemoryCaseRepository) ListDueReminders(ctx context.Context, now time.Time, limit int) ([]models.Case, error) {
	if limit <= 0 {
		limit = 50
	}

	r.mu.RLock()
	defer r.mu.RUnlock()

	due := make([]models.Case, 0)
	for _, stored := range r.cases {
		if stored.Status != models.StatusScheduled || stored.ReminderSent || stored.ScheduledDate == nil {
			continue
		}
		if reminderDue(stored, now) {
			due = append(due, cloneCase(stored))
		}
	}
	sort.Slice(due, func(i, j int) bool {
		return *due[i].ScheduledDate < *due[j].ScheduledDate
	})
	if len(due) > limit {
		due = due[:limit]
	}
	return due, nil
}

// reminderDue parses the scheduled date plus optional reminder time in the
// formats the date/time form inputs produce (2006-01-02 and 15:04).
func reminderDue(c models.Case, now time.Time) bool {
	raw := *c.ScheduledDate
	clock := "00:00"
	if c.ReminderTime != nil && *c.ReminderTime != "" {
		clock = *c.ReminderTime
	}
	at, err := time.Parse("2006-01-02 15:04", raw+" "+clock)
	if err != nil {
		return false
	}
	return !at.After(now)
}

func cloneCase(c models.Case) models.Case {
	c.AfterImage = cloneStringPtr(c.AfterImage)
	c.ScheduledDate = cloneStringPtr(c.ScheduledDate)
	c.ReminderTime = cloneStringPtr(c.ReminderTime)
	if c.PublishedAt != nil {
		publishedAt := *c.PublishedAt
		c.PublishedAt = &publishedAt
	}
	return c
}

func cloneStringPtr(s *string) *string {
	if s == nil {
		return nil
	}
	v := *s
	return &v
}
