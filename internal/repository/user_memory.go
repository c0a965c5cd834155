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

// MemoryUserRepository keeps company accounts and refresh-token sessions in
// memory for demo deployments.
type MemoryUserRepository struct {
	mu      sync.RWMutex
	users   map[string]models.User
	byEmail map[string]string
	tokens  map[string]models.RefreshToken
}

// NewMemoryUserRepository returns an empty account store.
func NewMemoryUserRepository() *MemoryUserRepository {
	return &MemoryUserRepository{
		users:   make(map[string]models.User),
		byEmail: make(map[string]string),
		tokens:  make(map[string]models.RefreshToken),
	}
}

// Create stores a new account. Emails are unique.
func (r *MemoryUserRepository) Create(ctx context.Context, user *models.User) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, exists := r.byEmail[user.Email]; exists {
		return fmt.Errorf("create user: email %s already registered", user.Email)
	}
	if user.ID == "" {
		user.ID = uuid.NewString()
	}
	now := time.Now().UTC()
	if user.CreatedAt.IsZero() {
		user.CreatedAt = now
	}
	user.UpdatedAt = now
	r.users[user.ID] = *user
	r.byEmail[user.Email] = user.ID
	return nil
}

// FindByEmail returns an account by email address.
func (r *MemoryUserRepository) FindByEmail(ctx context.Context, email string) (*models.User, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	id, ok := r.byEmail[email]
	if !ok {
		return nil, sql.ErrNoRows
	}
	user := r.users[id]
	return &user, nil
}

// FindByID returns an account by identifier.
func (r *MemoryUserRepository) FindByID(ctx context.Context, id string) (*models.User, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	user, ok := r.users[id]
	if !ok {
		return nil, sql.ErrNoRows
	}
	return &user, nil
}

// FindByCompanyID returns the account owning a company profile.
func (r *MemoryUserRepository) FindByCompanyID(ctx context.Context, companyID string) (*models.User, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	for _, user := range r.users {
		if user.CompanyID == companyID {
			found := user
			return &found, nil
		}
	}
	return nil, sql.ErrNoRows
}

// UpdateLastLogin records the login timestamp.
func (r *MemoryUserRepository) UpdateLastLogin(ctx context.Context, id string, ts time.Time) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	user, ok := r.users[id]
	if !ok {
		return sql.ErrNoRows
	}
	user.LastLogin = &ts
	user.UpdatedAt = ts
	r.users[id] = user
	return nil
}

// CreateRefreshToken stores a refresh token session.
func (r *MemoryUserRepository) CreateRefreshToken(ctx context.Context, token *models.RefreshToken) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	r.tokens[token.Token] = *token
	return nil
}

// FindRefreshToken loads a refresh token session by its opaque value.
func (r *MemoryUserRepository) FindRefreshToken(ctx context.Context, token string) (*models.RefreshToken, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	stored, ok := r.tokens[token]
	if !ok {
		return nil, sql.ErrNoRows
	}
	return &stored, nil
}

// RevokeRefreshToken marks a single session revoked.
func (r *MemoryUserRepository) RevokeRefreshToken(ctx context.Context, id string, revokedAt time.Time) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	for key, stored := range r.tokens {
		if stored.ID == id {
			stored.Revoked = true
			stored.RevokedAt = &revokedAt
			r.tokens[key] = stored
			return nil
		}
	}
	return sql.ErrNoRows
}

// RevokeUserRefreshTokens revokes every live session for an account.
func (r *MemoryUserRepository) RevokeUserRefreshTokens(ctx context.Context, userID string) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	now := time.Now().UTC()
	for key, stored := range r.tokens {
		if stored.UserID == userID && !stored.Revoked {
			stored.Revoked = true
			stored.RevokedAt = &now
			r.tokens[key] = stored
		}
	}
	return nil
}
