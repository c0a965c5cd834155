package service

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/reformcases/portfolio-api/internal/models"
	"github.com/reformcases/portfolio-api/internal/repository"
)

func newReminderFixture(t *testing.T) (*ReminderService, *repository.MemoryCaseRepository, *NotificationService) {
	t.Helper()
	cases := repository.NewMemoryCaseRepository()
	users := repository.NewMemoryUserRepository()
	notifier := NewNotificationService(zap.NewNop())

	require.NoError(t, users.Create(context.Background(), &models.User{
		ID:        "user-1",
		Email:     "demo@reformcases.jp",
		CompanyID: "company-1",
		Active:    true,
	}))

	svc := NewReminderService(cases, users, notifier, zap.NewNop(), ReminderServiceConfig{
		SweepInterval: time.Minute,
	})
	return svc, cases, notifier
}

func scheduledCase(t *testing.T, repo *repository.MemoryCaseRepository, date, clock string) *models.Case {
	t.Helper()
	c := &models.Case{
		CompanyID:     "company-1",
		Title:         "和室から洋室への大変身",
		Category:      "居室",
		BeforeImage:   "before.jpg",
		Status:        models.StatusScheduled,
		ScheduledDate: &date,
	}
	if clock != "" {
		c.ReminderTime = &clock
	}
	require.NoError(t, repo.Create(context.Background(), c))
	return c
}

func TestReminderSweepDeliversOnce(t *testing.T) {
	svc, cases, notifier := newReminderFixture(t)
	c := scheduledCase(t, cases, "2024-01-25", "09:00")

	svc.Sweep(context.Background())

	list, err := notifier.List(context.Background(), "user-1")
	require.NoError(t, err)
	require.Len(t, list, 1)
	assert.Equal(t, "アフター写真を撮影する時間です！", list[0].Title)
	assert.Equal(t, c.Title, list[0].Body)
	assert.Equal(t, []models.NotificationAction{models.ActionExplore, models.ActionClose}, list[0].Actions)
	require.NotNil(t, list[0].CaseID)
	assert.Equal(t, c.ID, *list[0].CaseID)

	stored, err := cases.GetByID(context.Background(), c.ID)
	require.NoError(t, err)
	assert.True(t, stored.ReminderSent)

	// A second sweep must not enqueue again.
	svc.Sweep(context.Background())
	list, err = notifier.List(context.Background(), "user-1")
	require.NoError(t, err)
	assert.Len(t, list, 1)
}

func TestReminderSweepSkipsFutureSchedules(t *testing.T) {
	svc, cases, notifier := newReminderFixture(t)
	future := time.Now().UTC().Add(48 * time.Hour).Format("2006-01-02")
	scheduledCase(t, cases, future, "")

	svc.Sweep(context.Background())

	list, err := notifier.List(context.Background(), "user-1")
	require.NoError(t, err)
	assert.Empty(t, list)
}

func TestReminderSweepIgnoresUnknownCompany(t *testing.T) {
	svc, cases, notifier := newReminderFixture(t)
	date := "2024-01-25"
	orphan := &models.Case{
		CompanyID:     "company-without-account",
		Title:         "持ち主不明の案件",
		Category:      "外壁",
		BeforeImage:   "before.jpg",
		Status:        models.StatusScheduled,
		ScheduledDate: &date,
	}
	require.NoError(t, cases.Create(context.Background(), orphan))

	svc.Sweep(context.Background())

	list, err := notifier.List(context.Background(), "user-1")
	require.NoError(t, err)
	assert.Empty(t, list)
}
