package dto

import "github.com/reformcases/portfolio-api/internal/models"

// CreateCaseRequest captures POST /cases payload. Submission mirrors the
// upload wizard's final step: the caller chooses draft, scheduled or
// immediate publication.
type CreateCaseRequest struct {
	Title         string   `json:"title"`
	Description   string   `json:"description"`
	Category      string   `json:"category" binding:"required" validate:"required"`
	Location      string   `json:"location"`
	WorkPeriod    string   `json:"work_period"`
	BeforeImages  []string `json:"before_images" binding:"required,min=1" validate:"required,min=1"`
	AfterImages   []string `json:"after_images"`
	PublishNow    bool     `json:"publish_now"`
	ScheduledDate *string  `json:"scheduled_date,omitempty"`
	ReminderTime  *string  `json:"reminder_time,omitempty"`
}

// UpdateCaseRequest captures PUT /cases/:id. Nil pointers leave the stored
// value untouched; identity and timestamps are never client-writable.
type UpdateCaseRequest struct {
	Title         *string `json:"title,omitempty"`
	Description   *string `json:"description,omitempty"`
	Category      *string `json:"category,omitempty"`
	Location      *string `json:"location,omitempty"`
	WorkPeriod    *string `json:"work_period,omitempty"`
	BeforeImage   *string `json:"before_image,omitempty"`
	AfterImage    *string `json:"after_image,omitempty"`
	ScheduledDate *string `json:"scheduled_date,omitempty"`
	ReminderTime  *string `json:"reminder_time,omitempty"`
}

// WizardStep names the upload wizard stages.
type WizardStep string

const (
	StepBeforePhotos WizardStep = "before_photos"
	StepDetails      WizardStep = "details"
	StepPublish      WizardStep = "publish"
)

// WizardValidateRequest asks whether the form may advance past a step.
type WizardValidateRequest struct {
	Step         WizardStep `json:"step" binding:"required"`
	Category     string     `json:"category"`
	BeforeImages []string   `json:"before_images"`
	AfterImages  []string   `json:"after_images"`
	Title        string     `json:"title"`
	Description  string     `json:"description"`
	PublishNow   bool       `json:"publish_now"`
}

// WizardValidateResponse reports the guard outcome with field-level reasons.
type WizardValidateResponse struct {
	Allowed bool              `json:"allowed"`
	Reasons map[string]string `json:"reasons,omitempty"`
}

// CaseListResponse wraps a listing with its aggregate counts.
type CaseListResponse struct {
	Cases  []models.Case     `json:"cases"`
	Counts models.CaseCounts `json:"counts"`
}
