package service

import (
	"context"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/reformcases/portfolio-api/internal/models"
	"github.com/reformcases/portfolio-api/internal/repository"
)

func TestExportCasesCSV(t *testing.T) {
	cases := repository.NewMemoryCaseRepository()
	ctx := context.Background()

	now := time.Now().UTC()
	for _, c := range []models.Case{
		{CompanyID: "company-1", Title: "キッチン全面リフォーム", Category: "キッチン", BeforeImage: "a.jpg", Status: models.StatusPublished, PublishedAt: &now},
		{CompanyID: "company-1", Title: "浴室リフォーム", Category: "浴室", BeforeImage: "b.jpg", Status: models.StatusDraft},
		{CompanyID: "other", Title: "他社案件", Category: "外壁", BeforeImage: "c.jpg", Status: models.StatusPublished, PublishedAt: &now},
	} {
		entry := c
		require.NoError(t, cases.Create(ctx, &entry))
	}

	svc := NewExportService(cases, ExportConfig{}, zap.NewNop(), nil, nil)
	file, err := svc.ExportCases(ctx, "company-1", nil, ExportFormatCSV)
	require.NoError(t, err)
	assert.Equal(t, "text/csv", file.ContentType)
	assert.True(t, strings.HasSuffix(file.Filename, ".csv"))

	body := string(file.Content)
	assert.Contains(t, body, "キッチン全面リフォーム")
	assert.Contains(t, body, "浴室リフォーム")
	assert.NotContains(t, body, "他社案件")
}

func TestExportCasesStatusFilter(t *testing.T) {
	cases := repository.NewMemoryCaseRepository()
	ctx := context.Background()

	now := time.Now().UTC()
	for _, c := range []models.Case{
		{CompanyID: "company-1", Title: "公開済み", Category: "キッチン", BeforeImage: "a.jpg", Status: models.StatusPublished, PublishedAt: &now},
		{CompanyID: "company-1", Title: "下書き", Category: "浴室", BeforeImage: "b.jpg", Status: models.StatusDraft},
	} {
		entry := c
		require.NoError(t, cases.Create(ctx, &entry))
	}

	svc := NewExportService(cases, ExportConfig{}, zap.NewNop(), nil, nil)
	published := models.StatusPublished
	file, err := svc.ExportCases(ctx, "company-1", &published, ExportFormatCSV)
	require.NoError(t, err)

	body := string(file.Content)
	assert.Contains(t, body, "公開済み")
	assert.NotContains(t, body, "下書き")
}

func TestExportCasesPDF(t *testing.T) {
	cases := repository.NewMemoryCaseRepository()
	ctx := context.Background()
	require.NoError(t, cases.Create(ctx, &models.Case{
		CompanyID:   "company-1",
		Title:       "Case",
		Category:    "Kitchen",
		BeforeImage: "a.jpg",
		Status:      models.StatusDraft,
	}))

	svc := NewExportService(cases, ExportConfig{}, zap.NewNop(), nil, nil)
	file, err := svc.ExportCases(ctx, "company-1", nil, ExportFormatPDF)
	require.NoError(t, err)
	assert.Equal(t, "application/pdf", file.ContentType)
	assert.True(t, strings.HasPrefix(string(file.Content), "%PDF"))
}

func TestExportCasesUnsupportedFormat(t *testing.T) {
	svc := NewExportService(repository.NewMemoryCaseRepository(), ExportConfig{}, zap.NewNop(), nil, nil)
	_, err := svc.ExportCases(context.Background(), "company-1", nil, ExportFormat("xlsx"))
	require.Error(t, err)
}
