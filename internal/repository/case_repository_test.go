package repository

import (
	"context"
	"database/sql"
	"regexp"
	"testing"
	"time"

	sqlmock "github.com/DATA-DOG/go-sqlmock"
	"github.com/jmoiron/sqlx"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/reformcases/portfolio-api/internal/models"
)

func newMock(t *testing.T) (*sqlx.DB, sqlmock.Sqlmock, func()) {
	db, mock, err := sqlmock.New(sqlmock.QueryMatcherOption(sqlmock.QueryMatcherRegexp))
	require.NoError(t, err)
	sqlxdb := sqlx.NewDb(db, "sqlmock")
	return sqlxdb, mock, func() {
		db.Close()
	}
}

func caseRows(now time.Time) *sqlmock.Rows {
	return sqlmock.NewRows([]string{
		"id", "company_id", "title", "description", "category", "location", "company", "work_period",
		"before_image", "after_image", "status", "created_at", "published_at", "scheduled_date", "reminder_time", "reminder_sent",
	}).AddRow(
		int64(1), "company-1", "キッチン全面リフォーム", "説明", "キッチン", "東京都", "東京リフォーム株式会社", "5日間",
		"before.jpg", nil, string(models.StatusDraft), now, nil, nil, nil, false,
	)
}

func TestCaseCreate(t *testing.T) {
	db, mock, cleanup := newMock(t)
	defer cleanup()
	repo := NewCaseRepository(db)

	mock.ExpectQuery("INSERT INTO cases").
		WillReturnRows(sqlmock.NewRows([]string{"id"}).AddRow(int64(5)))

	c := &models.Case{
		CompanyID:   "company-1",
		Title:       "キッチン全面リフォーム",
		Category:    "キッチン",
		BeforeImage: "before.jpg",
	}
	require.NoError(t, repo.Create(context.Background(), c))
	assert.Equal(t, int64(5), c.ID)
	assert.Equal(t, models.StatusDraft, c.Status)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestCaseGetByID(t *testing.T) {
	db, mock, cleanup := newMock(t)
	defer cleanup()
	repo := NewCaseRepository(db)

	mock.ExpectQuery("SELECT (.+) FROM cases WHERE id = ").
		WithArgs(int64(1)).
		WillReturnRows(caseRows(time.Now()))

	c, err := repo.GetByID(context.Background(), 1)
	require.NoError(t, err)
	assert.Equal(t, "キッチン全面リフォーム", c.Title)
	assert.Equal(t, models.StatusDraft, c.Status)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestCaseListWithFilter(t *testing.T) {
	db, mock, cleanup := newMock(t)
	defer cleanup()
	repo := NewCaseRepository(db)

	published := models.StatusPublished
	mock.ExpectQuery(regexp.QuoteMeta("company_id = $1 AND status = $2 AND (title ILIKE $3 OR category ILIKE $3)")).
		WithArgs("company-1", published, "%浴室%").
		WillReturnRows(caseRows(time.Now()))

	cases, err := repo.List(context.Background(), models.CaseFilter{
		CompanyID: "company-1",
		Status:    &published,
		Search:    "浴室",
	})
	require.NoError(t, err)
	assert.Len(t, cases, 1)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestCaseUpdate(t *testing.T) {
	db, mock, cleanup := newMock(t)
	defer cleanup()
	repo := NewCaseRepository(db)

	mock.ExpectExec(regexp.QuoteMeta("UPDATE cases SET title = $1, status = $2 WHERE id = $3")).
		WithArgs("新タイトル", models.StatusPublished, int64(1)).
		WillReturnResult(sqlmock.NewResult(0, 1))

	title := "新タイトル"
	status := models.StatusPublished
	err := repo.Update(context.Background(), 1, UpdateCaseParams{Title: &title, Status: &status})
	require.NoError(t, err)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestCaseUpdateMissingRow(t *testing.T) {
	db, mock, cleanup := newMock(t)
	defer cleanup()
	repo := NewCaseRepository(db)

	mock.ExpectExec("UPDATE cases SET").
		WillReturnResult(sqlmock.NewResult(0, 0))

	title := "新タイトル"
	err := repo.Update(context.Background(), 99, UpdateCaseParams{Title: &title})
	require.ErrorIs(t, err, sql.ErrNoRows)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestCaseUpdateNoChanges(t *testing.T) {
	db, _, cleanup := newMock(t)
	defer cleanup()
	repo := NewCaseRepository(db)

	require.NoError(t, repo.Update(context.Background(), 1, UpdateCaseParams{}))
}

func TestCaseDelete(t *testing.T) {
	db, mock, cleanup := newMock(t)
	defer cleanup()
	repo := NewCaseRepository(db)

	mock.ExpectExec("DELETE FROM cases WHERE id = ").
		WithArgs(int64(1)).
		WillReturnResult(sqlmock.NewResult(0, 1))

	require.NoError(t, repo.Delete(context.Background(), 1))
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestCaseCountByStatus(t *testing.T) {
	db, mock, cleanup := newMock(t)
	defer cleanup()
	repo := NewCaseRepository(db)

	rows := sqlmock.NewRows([]string{"status", "count"}).
		AddRow(string(models.StatusPublished), 3).
		AddRow(string(models.StatusDraft), 2).
		AddRow(string(models.StatusScheduled), 1)
	mock.ExpectQuery("SELECT status, COUNT").
		WithArgs("company-1").
		WillReturnRows(rows)

	counts, err := repo.CountByStatus(context.Background(), "company-1")
	require.NoError(t, err)
	assert.Equal(t, 3, counts.Published)
	assert.Equal(t, 2, counts.Draft)
	assert.Equal(t, 1, counts.Scheduled)
	assert.Equal(t, 6, counts.Total)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestCaseListDueReminders(t *testing.T) {
	db, mock, cleanup := newMock(t)
	defer cleanup()
	repo := NewCaseRepository(db)

	now := time.Now().UTC()
	mock.ExpectQuery("reminder_sent = FALSE").
		WithArgs(now, 50).
		WillReturnRows(caseRows(now))

	cases, err := repo.ListDueReminders(context.Background(), now, 0)
	require.NoError(t, err)
	assert.Len(t, cases, 1)
	assert.NoError(t, mock.ExpectationsWereMet())
}
