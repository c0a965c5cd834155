package dto

import "github.com/reformcases/portfolio-api/internal/models"

// PortalCase is the public projection of a published case. Internal fields
// (reminder bookkeeping, owning account) never leave the service.
type PortalCase struct {
	ID          int64   `json:"id"`
	Title       string  `json:"title"`
	Company     string  `json:"company"`
	Location    string  `json:"location"`
	Category    string  `json:"category"`
	BeforeImage string  `json:"before_image"`
	AfterImage  *string `json:"after_image"`
	Description string  `json:"description"`
	WorkPeriod  string  `json:"work_period"`
	PublishedAt string  `json:"published_at,omitempty"`
}

// PortalCaseList wraps the public case listing.
type PortalCaseList struct {
	Cases      []PortalCase `json:"cases"`
	Categories []string     `json:"categories"`
}

// PortalCompanyList wraps the company directory listing.
type PortalCompanyList struct {
	Companies []models.Company `json:"companies"`
}
