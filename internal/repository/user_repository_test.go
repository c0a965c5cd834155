package repository

import (
	"context"
	"regexp"
	"testing"
	"time"

	sqlmock "github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/reformcases/portfolio-api/internal/models"
)

func userRows(now time.Time) *sqlmock.Rows {
	return sqlmock.NewRows([]string{"id", "email", "password_hash", "company_name", "company_id", "active", "last_login", "created_at", "updated_at"}).
		AddRow("u1", "demo@reformcases.jp", "hash", "東京リフォーム株式会社", "company-1", true, now, now, now)
}

func TestUserFindByEmail(t *testing.T) {
	db, mock, cleanup := newMock(t)
	defer cleanup()
	repo := NewUserRepository(db)

	mock.ExpectQuery(regexp.QuoteMeta("SELECT id, email, password_hash, company_name, company_id, active, last_login, created_at, updated_at FROM users WHERE email = $1 LIMIT 1")).
		WithArgs("demo@reformcases.jp").
		WillReturnRows(userRows(time.Now()))

	user, err := repo.FindByEmail(context.Background(), "demo@reformcases.jp")
	require.NoError(t, err)
	assert.Equal(t, "company-1", user.CompanyID)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestUserFindByCompanyID(t *testing.T) {
	db, mock, cleanup := newMock(t)
	defer cleanup()
	repo := NewUserRepository(db)

	mock.ExpectQuery(regexp.QuoteMeta("WHERE company_id = $1 LIMIT 1")).
		WithArgs("company-1").
		WillReturnRows(userRows(time.Now()))

	user, err := repo.FindByCompanyID(context.Background(), "company-1")
	require.NoError(t, err)
	assert.Equal(t, "demo@reformcases.jp", user.Email)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestUserCreate(t *testing.T) {
	db, mock, cleanup := newMock(t)
	defer cleanup()
	repo := NewUserRepository(db)

	mock.ExpectExec("INSERT INTO users").WillReturnResult(sqlmock.NewResult(1, 1))

	user := &models.User{
		Email:        "new@reformcases.jp",
		PasswordHash: "hash",
		CompanyName:  "新規工務店",
		CompanyID:    "company-2",
		Active:       true,
	}
	require.NoError(t, repo.Create(context.Background(), user))
	assert.NotEmpty(t, user.ID)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestUserCreateRefreshToken(t *testing.T) {
	db, mock, cleanup := newMock(t)
	defer cleanup()
	repo := NewUserRepository(db)

	mock.ExpectExec("INSERT INTO refresh_tokens").WillReturnResult(sqlmock.NewResult(1, 1))

	err := repo.CreateRefreshToken(context.Background(), &models.RefreshToken{
		ID:        "t1",
		UserID:    "u1",
		Token:     "token",
		ExpiresAt: time.Now(),
		CreatedAt: time.Now(),
	})
	require.NoError(t, err)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestUserRevokeRefreshToken(t *testing.T) {
	db, mock, cleanup := newMock(t)
	defer cleanup()
	repo := NewUserRepository(db)

	mock.ExpectExec("UPDATE refresh_tokens SET revoked = TRUE").
		WillReturnResult(sqlmock.NewResult(0, 1))

	require.NoError(t, repo.RevokeRefreshToken(context.Background(), "t1", time.Now()))
	assert.NoError(t, mock.ExpectationsWereMet())
}
