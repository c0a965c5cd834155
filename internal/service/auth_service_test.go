package service

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"golang.org/x/crypto/bcrypt"

	"github.com/reformcases/portfolio-api/internal/models"
	"github.com/reformcases/portfolio-api/internal/repository"
	appErrors "github.com/reformcases/portfolio-api/pkg/errors"
)

func newAuthServiceForTest(t *testing.T) (*AuthService, *repository.MemoryUserRepository, *repository.MemoryCompanyRepository) {
	t.Helper()
	users := repository.NewMemoryUserRepository()
	companies := repository.NewMemoryCompanyRepository()
	svc := NewAuthService(users, companies, nil, zap.NewNop(), AuthConfig{
		AccessTokenSecret:  "test-secret",
		AccessTokenExpiry:  15 * time.Minute,
		RefreshTokenExpiry: 24 * time.Hour,
		Issuer:             "reformcases",
	})
	return svc, users, companies
}

func seedAccount(t *testing.T, users *repository.MemoryUserRepository) *models.User {
	t.Helper()
	hash, err := bcrypt.GenerateFromPassword([]byte("secret123"), bcrypt.MinCost)
	require.NoError(t, err)
	user := &models.User{
		Email:        "demo@reformcases.jp",
		PasswordHash: string(hash),
		CompanyName:  "東京リフォーム株式会社",
		CompanyID:    "company-1",
		Active:       true,
	}
	require.NoError(t, users.Create(context.Background(), user))
	return user
}

func TestAuthServiceRegister(t *testing.T) {
	svc, _, companies := newAuthServiceForTest(t)

	resp, err := svc.Register(context.Background(), models.RegisterRequest{
		Email:           "new@reformcases.jp",
		Password:        "secret123",
		PasswordConfirm: "secret123",
		CompanyName:     "株式会社新規工務店",
		Location:        "東京都新宿区",
	})
	require.NoError(t, err)
	require.NotEmpty(t, resp.AccessToken)
	require.NotEmpty(t, resp.RefreshToken)
	assert.Equal(t, "株式会社新規工務店", resp.User.CompanyName)
	require.NotEmpty(t, resp.User.CompanyID)

	created, err := companies.GetByID(context.Background(), resp.User.CompanyID)
	require.NoError(t, err)
	assert.Equal(t, "株式会社新規工務店", created.Name)
	assert.Equal(t, "東京都新宿区", created.Location)
}

func TestAuthServiceRegisterPasswordMismatch(t *testing.T) {
	svc, _, _ := newAuthServiceForTest(t)

	_, err := svc.Register(context.Background(), models.RegisterRequest{
		Email:           "new@reformcases.jp",
		Password:        "secret123",
		PasswordConfirm: "different",
		CompanyName:     "株式会社新規工務店",
	})
	require.Error(t, err)
	typed := appErrors.FromError(err)
	assert.Equal(t, appErrors.ErrValidation.Code, typed.Code)
}

func TestAuthServiceRegisterDuplicateEmail(t *testing.T) {
	svc, users, _ := newAuthServiceForTest(t)
	seedAccount(t, users)

	_, err := svc.Register(context.Background(), models.RegisterRequest{
		Email:           "demo@reformcases.jp",
		Password:        "secret123",
		PasswordConfirm: "secret123",
		CompanyName:     "別の会社",
	})
	require.Error(t, err)
	typed := appErrors.FromError(err)
	assert.Equal(t, appErrors.ErrConflict.Code, typed.Code)
}

func TestAuthServiceLogin(t *testing.T) {
	svc, users, _ := newAuthServiceForTest(t)
	user := seedAccount(t, users)

	resp, err := svc.Login(context.Background(), models.LoginRequest{
		Email:    user.Email,
		Password: "secret123",
	})
	require.NoError(t, err)
	require.NotEmpty(t, resp.AccessToken)
	assert.Equal(t, user.CompanyID, resp.User.CompanyID)

	claims, err := svc.ValidateToken(resp.AccessToken)
	require.NoError(t, err)
	assert.Equal(t, user.ID, claims.UserID)
	assert.Equal(t, user.CompanyID, claims.CompanyID)
}

func TestAuthServiceLoginWrongPassword(t *testing.T) {
	svc, users, _ := newAuthServiceForTest(t)
	user := seedAccount(t, users)

	_, err := svc.Login(context.Background(), models.LoginRequest{
		Email:    user.Email,
		Password: "wrong",
	})
	require.Error(t, err)
	typed := appErrors.FromError(err)
	assert.Equal(t, appErrors.ErrInvalidCredentials.Code, typed.Code)
}

func TestAuthServiceLoginInactiveAccount(t *testing.T) {
	svc, users, _ := newAuthServiceForTest(t)
	hash, err := bcrypt.GenerateFromPassword([]byte("secret123"), bcrypt.MinCost)
	require.NoError(t, err)
	require.NoError(t, users.Create(context.Background(), &models.User{
		Email:        "inactive@reformcases.jp",
		PasswordHash: string(hash),
		CompanyID:    "company-9",
		Active:       false,
	}))

	_, err = svc.Login(context.Background(), models.LoginRequest{
		Email:    "inactive@reformcases.jp",
		Password: "secret123",
	})
	require.Error(t, err)
	typed := appErrors.FromError(err)
	assert.Equal(t, appErrors.ErrInactiveAccount.Code, typed.Code)
}

func TestAuthServiceRefreshRotatesToken(t *testing.T) {
	svc, users, _ := newAuthServiceForTest(t)
	user := seedAccount(t, users)

	login, err := svc.Login(context.Background(), models.LoginRequest{
		Email:    user.Email,
		Password: "secret123",
	})
	require.NoError(t, err)

	refreshed, err := svc.RefreshToken(context.Background(), models.RefreshTokenRequest{
		RefreshToken: login.RefreshToken,
	})
	require.NoError(t, err)
	assert.NotEqual(t, login.RefreshToken, refreshed.RefreshToken)

	// The consumed token must be rejected on replay.
	_, err = svc.RefreshToken(context.Background(), models.RefreshTokenRequest{
		RefreshToken: login.RefreshToken,
	})
	require.Error(t, err)
	typed := appErrors.FromError(err)
	assert.Equal(t, appErrors.ErrUnauthorized.Code, typed.Code)
}

func TestAuthServiceLogout(t *testing.T) {
	svc, users, _ := newAuthServiceForTest(t)
	user := seedAccount(t, users)

	login, err := svc.Login(context.Background(), models.LoginRequest{
		Email:    user.Email,
		Password: "secret123",
	})
	require.NoError(t, err)

	require.NoError(t, svc.Logout(context.Background(), login.RefreshToken, user.ID))

	_, err = svc.RefreshToken(context.Background(), models.RefreshTokenRequest{
		RefreshToken: login.RefreshToken,
	})
	require.Error(t, err)
}
