package dto

import "github.com/reformcases/portfolio-api/internal/models"

// DashboardResponse aggregates the company dashboard: per-status counts plus
// the search-filtered cases grouped into status tabs.
type DashboardResponse struct {
	Counts    models.CaseCounts `json:"counts"`
	Published []models.Case     `json:"published"`
	Drafts    []models.Case     `json:"drafts"`
	Scheduled []models.Case     `json:"scheduled"`
}
