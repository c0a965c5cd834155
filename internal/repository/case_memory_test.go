package repository

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/reformcases/portfolio-api/internal/models"
)

func seedMemoryCases(t *testing.T, repo *MemoryCaseRepository) []*models.Case {
	t.Helper()
	ctx := context.Background()
	now := time.Now().UTC()

	published := &models.Case{
		CompanyID:   "company-1",
		Title:       "キッチン全面リフォーム",
		Category:    "キッチン",
		BeforeImage: "a.jpg",
		Status:      models.StatusPublished,
		PublishedAt: &now,
		CreatedAt:   now.Add(-2 * time.Hour),
	}
	draft := &models.Case{
		CompanyID:   "company-1",
		Title:       "バリアフリー浴室リフォーム",
		Category:    "浴室",
		BeforeImage: "b.jpg",
		Status:      models.StatusDraft,
		CreatedAt:   now.Add(-time.Hour),
	}
	scheduled := &models.Case{
		CompanyID:     "company-1",
		Title:         "和室から洋室への大変身",
		Category:      "居室",
		BeforeImage:   "c.jpg",
		Status:        models.StatusScheduled,
		ScheduledDate: strPtr("2024-01-25"),
		ReminderTime:  strPtr("09:00"),
		CreatedAt:     now,
	}
	for _, c := range []*models.Case{published, draft, scheduled} {
		require.NoError(t, repo.Create(ctx, c))
	}
	return []*models.Case{published, draft, scheduled}
}

func TestMemoryCaseListNewestFirst(t *testing.T) {
	repo := NewMemoryCaseRepository()
	seeded := seedMemoryCases(t, repo)

	cases, err := repo.List(context.Background(), models.CaseFilter{CompanyID: "company-1"})
	require.NoError(t, err)
	require.Len(t, cases, 3)
	assert.Equal(t, seeded[2].ID, cases[0].ID)
	assert.Equal(t, seeded[0].ID, cases[2].ID)
}

func TestMemoryCaseSearchMatchesTitleAndCategory(t *testing.T) {
	repo := NewMemoryCaseRepository()
	seedMemoryCases(t, repo)

	byTitle, err := repo.List(context.Background(), models.CaseFilter{Search: "バリアフリー"})
	require.NoError(t, err)
	require.Len(t, byTitle, 1)
	assert.Equal(t, "バリアフリー浴室リフォーム", byTitle[0].Title)

	byCategory, err := repo.List(context.Background(), models.CaseFilter{Search: "浴室"})
	require.NoError(t, err)
	assert.Len(t, byCategory, 1)

	none, err := repo.List(context.Background(), models.CaseFilter{Search: "外壁"})
	require.NoError(t, err)
	assert.Empty(t, none)
}

func TestMemoryCaseUpdateIsolation(t *testing.T) {
	repo := NewMemoryCaseRepository()
	seeded := seedMemoryCases(t, repo)
	ctx := context.Background()

	title := "更新後のタイトル"
	require.NoError(t, repo.Update(ctx, seeded[1].ID, UpdateCaseParams{Title: &title}))

	updated, err := repo.GetByID(ctx, seeded[1].ID)
	require.NoError(t, err)
	assert.Equal(t, title, updated.Title)
	assert.Equal(t, "浴室", updated.Category)

	for _, other := range []*models.Case{seeded[0], seeded[2]} {
		stored, err := repo.GetByID(ctx, other.ID)
		require.NoError(t, err)
		assert.Equal(t, other.Title, stored.Title)
	}
}

func TestMemoryCaseReturnsCopies(t *testing.T) {
	repo := NewMemoryCaseRepository()
	seeded := seedMemoryCases(t, repo)
	ctx := context.Background()

	got, err := repo.GetByID(ctx, seeded[2].ID)
	require.NoError(t, err)
	*got.ScheduledDate = "9999-12-31"
	got.Title = "書き換え"

	stored, err := repo.GetByID(ctx, seeded[2].ID)
	require.NoError(t, err)
	assert.Equal(t, "2024-01-25", *stored.ScheduledDate)
	assert.Equal(t, "和室から洋室への大変身", stored.Title)
}

func TestMemoryCaseClearAfterImage(t *testing.T) {
	repo := NewMemoryCaseRepository()
	ctx := context.Background()

	after := "after.jpg"
	c := &models.Case{
		CompanyID:   "company-1",
		Title:       "案件",
		Category:    "キッチン",
		BeforeImage: "before.jpg",
		AfterImage:  &after,
	}
	require.NoError(t, repo.Create(ctx, c))

	var cleared *string
	require.NoError(t, repo.Update(ctx, c.ID, UpdateCaseParams{AfterImage: &cleared}))

	stored, err := repo.GetByID(ctx, c.ID)
	require.NoError(t, err)
	assert.Nil(t, stored.AfterImage)
}

func TestMemoryCasePagination(t *testing.T) {
	repo := NewMemoryCaseRepository()
	ctx := context.Background()
	base := time.Now().UTC()
	for i := 0; i < 5; i++ {
		require.NoError(t, repo.Create(ctx, &models.Case{
			CompanyID:   "company-1",
			Title:       "案件",
			Category:    "キッチン",
			BeforeImage: "a.jpg",
			CreatedAt:   base.Add(time.Duration(i) * time.Minute),
		}))
	}

	page1, err := repo.List(ctx, models.CaseFilter{PageSize: 2, Page: 1})
	require.NoError(t, err)
	require.Len(t, page1, 2)

	page3, err := repo.List(ctx, models.CaseFilter{PageSize: 2, Page: 3})
	require.NoError(t, err)
	assert.Len(t, page3, 1)

	page4, err := repo.List(ctx, models.CaseFilter{PageSize: 2, Page: 4})
	require.NoError(t, err)
	assert.Empty(t, page4)
}

func TestMemoryCaseListDueReminders(t *testing.T) {
	repo := NewMemoryCaseRepository()
	seedMemoryCases(t, repo)
	ctx := context.Background()

	due, err := repo.ListDueReminders(ctx, time.Date(2024, 1, 25, 9, 30, 0, 0, time.UTC), 10)
	require.NoError(t, err)
	require.Len(t, due, 1)
	assert.Equal(t, "和室から洋室への大変身", due[0].Title)

	early, err := repo.ListDueReminders(ctx, time.Date(2024, 1, 25, 8, 0, 0, 0, time.UTC), 10)
	require.NoError(t, err)
	assert.Empty(t, early)

	sent := true
	require.NoError(t, repo.Update(ctx, due[0].ID, UpdateCaseParams{ReminderSent: &sent}))
	after, err := repo.ListDueReminders(ctx, time.Date(2024, 1, 25, 9, 30, 0, 0, time.UTC), 10)
	require.NoError(t, err)
	assert.Empty(t, after)
}

func TestMemoryCaseCounts(t *testing.T) {
	repo := NewMemoryCaseRepository()
	seedMemoryCases(t, repo)

	counts, err := repo.CountByStatus(context.Background(), "company-1")
	require.NoError(t, err)
	assert.Equal(t, 1, counts.Published)
	assert.Equal(t, 1, counts.Draft)
	assert.Equal(t, 1, counts.Scheduled)
	assert.Equal(t, 3, counts.Total)
}
