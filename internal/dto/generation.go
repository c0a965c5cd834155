package dto

import "github.com/reformcases/portfolio-api/internal/models"

// GenerationRequest captures POST /generations. The work-order file must have
// been uploaded beforehand; only its stored name travels here.
type GenerationRequest struct {
	Category      string `json:"category" binding:"required"`
	WorkOrderFile string `json:"work_order_file" binding:"required"`
	CaseID        *int64 `json:"case_id,omitempty"`
}

// GenerationJobResponse is returned after enqueueing a generation.
type GenerationJobResponse struct {
	ID     string                  `json:"id"`
	Status models.GenerationStatus `json:"status"`
}

// GenerationStatusResponse exposes job state and, once finished, the
// generated copy.
type GenerationStatusResponse struct {
	ID          string                  `json:"id"`
	Status      models.GenerationStatus `json:"status"`
	Title       *string                 `json:"title,omitempty"`
	Description *string                 `json:"description,omitempty"`
	Error       *string                 `json:"error,omitempty"`
}
