package models

import (
	"strings"
	"time"
)

// CaseStatus captures where a renovation case sits in its lifecycle.
type CaseStatus string

const (
	// StatusDraft marks a case not yet visible on the public portal.
	StatusDraft CaseStatus = "draft"
	// StatusScheduled marks a draft with a pending after-photo reminder.
	StatusScheduled CaseStatus = "scheduled"
	// StatusPublished marks a case visible on the public portal.
	StatusPublished CaseStatus = "published"
)

// Valid reports whether the status is one of the known lifecycle states.
func (s CaseStatus) Valid() bool {
	switch s {
	case StatusDraft, StatusScheduled, StatusPublished:
		return true
	default:
		return false
	}
}

// Case is a single before/after renovation project record.
// AfterImage is nullable on purpose: its absence means the work is not yet
// photographed and the portal renders a placeholder.
type Case struct {
	ID            int64      `db:"id" json:"id"`
	CompanyID     string     `db:"company_id" json:"company_id"`
	Title         string     `db:"title" json:"title"`
	Description   string     `db:"description" json:"description"`
	Category      string     `db:"category" json:"category"`
	Location      string     `db:"location" json:"location"`
	Company       string     `db:"company" json:"company"`
	WorkPeriod    string     `db:"work_period" json:"work_period"`
	BeforeImage   string     `db:"before_image" json:"before_image"`
	AfterImage    *string    `db:"after_image" json:"after_image"`
	Status        CaseStatus `db:"status" json:"status"`
	CreatedAt     time.Time  `db:"created_at" json:"created_at"`
	PublishedAt   *time.Time `db:"published_at" json:"published_at,omitempty"`
	ScheduledDate *string    `db:"scheduled_date" json:"scheduled_date,omitempty"`
	ReminderTime  *string    `db:"reminder_time" json:"reminder_time,omitempty"`
	ReminderSent  bool       `db:"reminder_sent" json:"-"`
}

// CaseFilter narrows case listings.
type CaseFilter struct {
	CompanyID string
	Status    *CaseStatus
	Category  string
	Search    string
	Page      int
	PageSize  int
}

// CaseCounts aggregates per-status totals for the dashboard header.
type CaseCounts struct {
	Published int `json:"published"`
	Draft     int `json:"draft"`
	Scheduled int `json:"scheduled"`
	Total     int `json:"total"`
}

// MatchesSearch reports whether the case title or category contains the term,
// case-insensitively. An empty term matches everything.
func (c *Case) MatchesSearch(term string) bool {
	if term == "" {
		return true
	}
	return containsFold(c.Title, term) || containsFold(c.Category, term)
}

func containsFold(haystack, needle string) bool {
	return strings.Contains(strings.ToLower(haystack), strings.ToLower(needle))
}
