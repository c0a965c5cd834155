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
	appErrors "github.com/reformcases/portfolio-api/pkg/errors"
)

func newPortalFixture(t *testing.T) (*PortalService, *repository.MemoryCaseRepository, *repository.MemoryCompanyRepository) {
	t.Helper()
	cases := repository.NewMemoryCaseRepository()
	companies := repository.NewMemoryCompanyRepository()
	svc := NewPortalService(cases, companies, nil, time.Minute, zap.NewNop())
	return svc, cases, companies
}

func portalCase(t *testing.T, repo *repository.MemoryCaseRepository, title, category string, status models.CaseStatus) *models.Case {
	t.Helper()
	c := &models.Case{
		CompanyID:   "company-1",
		Company:     "東京リフォーム株式会社",
		Title:       title,
		Category:    category,
		Location:    "東京都",
		BeforeImage: "before.jpg",
		Status:      status,
	}
	if status == models.StatusPublished {
		now := time.Now().UTC()
		c.PublishedAt = &now
	}
	require.NoError(t, repo.Create(context.Background(), c))
	return c
}

func TestPortalListCasesShowsOnlyPublished(t *testing.T) {
	svc, cases, _ := newPortalFixture(t)
	portalCase(t, cases, "公開済みキッチン", "キッチン", models.StatusPublished)
	portalCase(t, cases, "下書き浴室", "浴室", models.StatusDraft)
	portalCase(t, cases, "予約中居室", "居室", models.StatusScheduled)

	resp, err := svc.ListCases(context.Background(), "", "")
	require.NoError(t, err)
	require.Len(t, resp.Cases, 1)
	assert.Equal(t, "公開済みキッチン", resp.Cases[0].Title)
	assert.Equal(t, portalCategories, resp.Categories)
}

func TestPortalListCasesCategoryFilter(t *testing.T) {
	svc, cases, _ := newPortalFixture(t)
	portalCase(t, cases, "キッチン事例", "キッチン", models.StatusPublished)
	portalCase(t, cases, "浴室事例", "浴室", models.StatusPublished)

	resp, err := svc.ListCases(context.Background(), "浴室", "")
	require.NoError(t, err)
	require.Len(t, resp.Cases, 1)
	assert.Equal(t, "浴室事例", resp.Cases[0].Title)

	// The pseudo category matches everything.
	resp, err = svc.ListCases(context.Background(), "すべて", "")
	require.NoError(t, err)
	assert.Len(t, resp.Cases, 2)
}

func TestPortalGetCaseHidesUnpublished(t *testing.T) {
	svc, cases, _ := newPortalFixture(t)
	draft := portalCase(t, cases, "下書き", "キッチン", models.StatusDraft)
	published := portalCase(t, cases, "公開済み", "浴室", models.StatusPublished)

	_, err := svc.GetCase(context.Background(), draft.ID)
	require.ErrorIs(t, err, appErrors.ErrNotFound)

	got, err := svc.GetCase(context.Background(), published.ID)
	require.NoError(t, err)
	assert.Equal(t, "公開済み", got.Title)
	assert.NotEmpty(t, got.PublishedAt)
}

func TestPortalListCompaniesSortedByRating(t *testing.T) {
	svc, _, companies := newPortalFixture(t)
	for _, c := range []models.Company{
		{ID: "a", Name: "田中リフォーム", Rating: 4.6, Location: "大阪府"},
		{ID: "b", Name: "株式会社山田工務店", Rating: 4.8, Location: "東京都"},
		{ID: "c", Name: "鈴木住宅設備", Rating: 4.5, Location: "神奈川県"},
	} {
		entry := c
		require.NoError(t, companies.Create(context.Background(), &entry))
	}

	resp, err := svc.ListCompanies(context.Background(), "")
	require.NoError(t, err)
	require.Len(t, resp.Companies, 3)
	assert.Equal(t, "株式会社山田工務店", resp.Companies[0].Name)
	assert.Equal(t, "鈴木住宅設備", resp.Companies[2].Name)
}

func TestPortalListCompaniesSearch(t *testing.T) {
	svc, _, companies := newPortalFixture(t)
	for _, c := range []models.Company{
		{ID: "a", Name: "田中リフォーム", Rating: 4.6, Location: "大阪府大阪市"},
		{ID: "b", Name: "佐藤建設", Rating: 4.7, Location: "愛知県名古屋市", Specialties: models.Specialties{"外壁塗装"}},
	} {
		entry := c
		require.NoError(t, companies.Create(context.Background(), &entry))
	}

	resp, err := svc.ListCompanies(context.Background(), "外壁")
	require.NoError(t, err)
	require.Len(t, resp.Companies, 1)
	assert.Equal(t, "佐藤建設", resp.Companies[0].Name)
}

func TestPortalGetCompany(t *testing.T) {
	svc, _, companies := newPortalFixture(t)
	require.NoError(t, companies.Create(context.Background(), &models.Company{
		ID:       "yamada-koumuten",
		Name:     "株式会社山田工務店",
		Rating:   4.8,
		Location: "東京都",
	}))

	found, err := svc.GetCompany(context.Background(), "yamada-koumuten")
	require.NoError(t, err)
	assert.Equal(t, "株式会社山田工務店", found.Name)

	_, err = svc.GetCompany(context.Background(), "missing")
	assert.ErrorIs(t, err, appErrors.ErrNotFound)
}
