package service

import (
	"context"
	"fmt"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/reformcases/portfolio-api/internal/models"
	appErrors "github.com/reformcases/portfolio-api/pkg/errors"
	"github.com/reformcases/portfolio-api/pkg/export"
)

// ExportFormat names the supported download formats.
type ExportFormat string

const (
	// ExportFormatCSV renders a spreadsheet-friendly listing.
	ExportFormatCSV ExportFormat = "csv"
	// ExportFormatPDF renders a printable table.
	ExportFormatPDF ExportFormat = "pdf"
)

type csvRenderer interface {
	Render(data export.Dataset) ([]byte, error)
}

type pdfRenderer interface {
	Render(data export.Dataset, title string) ([]byte, error)
}

// ExportConfig tunes export behaviour.
type ExportConfig struct {
	// MaxCases caps the number of rows in a single download.
	MaxCases int
}

// ExportFile is a rendered download ready to stream to the client.
type ExportFile struct {
	Content     []byte
	Filename    string
	ContentType string
}

// ExportService renders a company's case portfolio into downloadable files.
type ExportService struct {
	cases  caseStore
	csv    csvRenderer
	pdf    pdfRenderer
	logger *zap.Logger
	cfg    ExportConfig
}

// NewExportService constructs an ExportService.
func NewExportService(cases caseStore, cfg ExportConfig, logger *zap.Logger, csv csvRenderer, pdf pdfRenderer) *ExportService {
	if logger == nil {
		logger = zap.NewNop()
	}
	if cfg.MaxCases <= 0 {
		cfg.MaxCases = 1000
	}
	if csv == nil {
		csv = export.NewCSVExporter()
	}
	if pdf == nil {
		pdf = export.NewPDFExporter()
	}
	return &ExportService{cases: cases, csv: csv, pdf: pdf, logger: logger, cfg: cfg}
}

// ExportCases renders the company's portfolio, optionally narrowed to one
// status, into the requested format.
func (s *ExportService) ExportCases(ctx context.Context, companyID string, status *models.CaseStatus, format ExportFormat) (*ExportFile, error) {
	if format != ExportFormatCSV && format != ExportFormatPDF {
		return nil, appErrors.Clone(appErrors.ErrValidation, fmt.Sprintf("unsupported export format %q", format))
	}

	cases, err := s.cases.List(ctx, models.CaseFilter{
		CompanyID: companyID,
		Status:    status,
		PageSize:  s.cfg.MaxCases,
		Page:      1,
	})
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to list cases for export")
	}

	dataset := buildCaseDataset(cases)
	title := fmt.Sprintf("Case Portfolio %s", time.Now().UTC().Format("2006-01-02"))

	var payload []byte
	switch format {
	case ExportFormatCSV:
		payload, err = s.csv.Render(dataset)
	case ExportFormatPDF:
		payload, err = s.pdf.Render(dataset, title)
	}
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to render export")
	}

	return &ExportFile{
		Content:     payload,
		Filename:    buildExportFilename(format),
		ContentType: contentTypeFor(format),
	}, nil
}

func buildCaseDataset(cases []models.Case) export.Dataset {
	headers := []string{"ID", "Title", "Category", "Status", "Location", "Work Period", "Created At", "Published At"}
	rows := make([]map[string]string, 0, len(cases))
	for _, c := range cases {
		publishedAt := ""
		if c.PublishedAt != nil {
			publishedAt = c.PublishedAt.UTC().Format(time.RFC3339)
		}
		rows = append(rows, map[string]string{
			"ID":           fmt.Sprintf("%d", c.ID),
			"Title":        c.Title,
			"Category":     c.Category,
			"Status":       string(c.Status),
			"Location":     c.Location,
			"Work Period":  c.WorkPeriod,
			"Created At":   c.CreatedAt.UTC().Format(time.RFC3339),
			"Published At": publishedAt,
		})
	}
	return export.Dataset{Headers: headers, Rows: rows}
}

func buildExportFilename(format ExportFormat) string {
	timestamp := time.Now().UTC().Format("20060102_150405")
	return fmt.Sprintf("cases_%s.%s", timestamp, strings.ToLower(string(format)))
}

func contentTypeFor(format ExportFormat) string {
	if format == ExportFormatPDF {
		return "application/pdf"
	}
	return "text/csv"
}
