package repository

import (
	"context"
	"database/sql"
	"fmt"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/reformcases/portfolio-api/internal/models"
)

// MemoryCompanyRepository holds the portal's contractor directory. The
// directory is read-mostly: entries are added on account registration and
// otherwise come from seed data.
type MemoryCompanyRepository struct {
	mu        sync.RWMutex
	companies map[string]models.Company
}

// NewMemoryCompanyRepository returns an empty directory.
func NewMemoryCompanyRepository() *MemoryCompanyRepository {
	return &MemoryCompanyRepository{companies: make(map[string]models.Company)}
}

// Create stores a directory entry, generating an id when absent.
func (r *MemoryCompanyRepository) Create(ctx context.Context, c *models.Company) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if c.ID == "" {
		c.ID = uuid.NewString()
	}
	if c.CreatedAt.IsZero() {
		c.CreatedAt = time.Now().UTC()
	}
	r.companies[c.ID] = cloneCompany(*c)
	return nil
}

// GetByID returns a copy of a directory entry.
func (r *MemoryCompanyRepository) GetByID(ctx context.Context, id string) (*models.Company, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	stored, ok := r.companies[id]
	if !ok {
		return nil, fmt.Errorf("get company %s: %w", id, sql.ErrNoRows)
	}
	c := cloneCompany(stored)
	return &c, nil
}

// List returns directory entries matching the search term, ordered by name.
func (r *MemoryCompanyRepository) List(ctx context.Context, search string) ([]models.Company, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	matched := make([]models.Company, 0, len(r.companies))
	for _, stored := range r.companies {
		if !stored.MatchesSearch(search) {
			continue
		}
		matched = append(matched, cloneCompany(stored))
	}
	sort.Slice(matched, func(i, j int) bool {
		return matched[i].Name < matched[j].Name
	})
	return matched, nil
}

// IncrementCaseCount bumps the published-case counter shown on the directory
// card.
func (r *MemoryCompanyRepository) IncrementCaseCount(ctx context.Context, id string, delta int) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	stored, ok := r.companies[id]
	if !ok {
		return fmt.Errorf("increment case count %s: %w", id, sql.ErrNoRows)
	}
	stored.CaseCount += delta
	if stored.CaseCount < 0 {
		stored.CaseCount = 0
	}
	r.companies[id] = stored
	return nil
}

func cloneCompany(c models.Company) models.Company {
	if c.Specialties != nil {
		specialties := make(models.Specialties, len(c.Specialties))
		copy(specialties, c.Specialties)
		c.Specialties = specialties
	}
	return c
}
