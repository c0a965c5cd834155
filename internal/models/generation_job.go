package models

import "time"

// GenerationStatus captures the summary-generation job lifecycle.
type GenerationStatus string

const (
	GenerationStatusQueued     GenerationStatus = "QUEUED"
	GenerationStatusProcessing GenerationStatus = "PROCESSING"
	GenerationStatusFinished   GenerationStatus = "FINISHED"
	GenerationStatusFailed     GenerationStatus = "FAILED"
)

// GenerationJob tracks one work-order summary generation request. The
// generator behind it is a stand-in for a real OCR + text service; the job
// record is the contract callers program against.
type GenerationJob struct {
	ID            string           `db:"id" json:"id"`
	CaseID        *int64           `db:"case_id" json:"case_id,omitempty"`
	Category      string           `db:"category" json:"category"`
	WorkOrderFile string           `db:"work_order_file" json:"work_order_file"`
	Status        GenerationStatus `db:"status" json:"status"`
	Title         *string          `db:"title" json:"title,omitempty"`
	Description   *string          `db:"description" json:"description,omitempty"`
	CreatedBy     string           `db:"created_by" json:"created_by"`
	CreatedAt     time.Time        `db:"created_at" json:"created_at"`
	FinishedAt    *time.Time       `db:"finished_at" json:"finished_at,omitempty"`
	ErrorMessage  *string          `db:"error_message" json:"error_message,omitempty"`
}
