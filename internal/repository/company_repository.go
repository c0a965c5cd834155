package repository

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"

	"github.com/reformcases/portfolio-api/internal/models"
)

const companyColumns = `id, name, rating, review_count, description, specialties, location, case_count, image, created_at`

// CompanyRepository provides database access for the contractor directory.
type CompanyRepository struct {
	db *sqlx.DB
}

// NewCompanyRepository creates a new instance of CompanyRepository.
func NewCompanyRepository(db *sqlx.DB) *CompanyRepository {
	return &CompanyRepository{db: db}
}

// Create inserts a directory entry.
func (r *CompanyRepository) Create(ctx context.Context, c *models.Company) error {
	if c.ID == "" {
		c.ID = uuid.NewString()
	}
	if c.CreatedAt.IsZero() {
		c.CreatedAt = time.Now().UTC()
	}
	const query = `INSERT INTO companies (id, name, rating, review_count, description, specialties, location, case_count, image, created_at)
VALUES (:id, :name, :rating, :review_count, :description, :specialties, :location, :case_count, :image, :created_at)`
	if _, err := r.db.NamedExecContext(ctx, query, c); err != nil {
		return fmt.Errorf("create company: %w", err)
	}
	return nil
}

// GetByID returns a directory entry by identifier.
func (r *CompanyRepository) GetByID(ctx context.Context, id string) (*models.Company, error) {
	query := fmt.Sprintf(`SELECT %s FROM companies WHERE id = $1 LIMIT 1`, companyColumns)
	var c models.Company
	if err := r.db.GetContext(ctx, &c, query, id); err != nil {
		if err == sql.ErrNoRows {
			return nil, err
		}
		return nil, fmt.Errorf("get company: %w", err)
	}
	return &c, nil
}

// List returns directory entries matching the search term, ordered by name.
// The search covers name, location and the specialties JSON.
func (r *CompanyRepository) List(ctx context.Context, search string) ([]models.Company, error) {
	query := fmt.Sprintf(`SELECT %s FROM companies`, companyColumns)
	args := []interface{}{}
	if search != "" {
		query += ` WHERE (name ILIKE $1 OR location ILIKE $1 OR specialties::text ILIKE $1)`
		args = append(args, "%"+search+"%")
	}
	query += ` ORDER BY name ASC`

	companies := []models.Company{}
	if err := r.db.SelectContext(ctx, &companies, query, args...); err != nil {
		return nil, fmt.Errorf("list companies: %w", err)
	}
	return companies, nil
}

// IncrementCaseCount adjusts the published-case counter shown on the
// directory card, clamping at zero.
func (r *CompanyRepository) IncrementCaseCount(ctx context.Context, id string, delta int) error {
	const query = `UPDATE companies SET case_count = GREATEST(case_count + $1, 0) WHERE id = $2`
	result, err := r.db.ExecContext(ctx, query, delta, id)
	if err != nil {
		return fmt.Errorf("increment case count: %w", err)
	}
	rows, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("increment case count: %w", err)
	}
	if rows == 0 {
		return fmt.Errorf("increment case count %s: %w", id, sql.ErrNoRows)
	}
	return nil
}
