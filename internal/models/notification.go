package models

import "time"

// NotificationAction names a button attached to a notification.
type NotificationAction string

const (
	// ActionExplore jumps to the case to take the after photo.
	ActionExplore NotificationAction = "explore"
	// ActionClose dismisses the reminder for later.
	ActionClose NotificationAction = "close"
)

// Notification is one entry in the process-wide notification queue. It
// replaces the ad hoc toast calls the dashboard used to scatter through every
// handler.
type Notification struct {
	ID        string               `json:"id"`
	UserID    string               `json:"user_id"`
	Title     string               `json:"title"`
	Body      string               `json:"body"`
	Actions   []NotificationAction `json:"actions,omitempty"`
	CaseID    *int64               `json:"case_id,omitempty"`
	Read      bool                 `json:"read"`
	CreatedAt time.Time            `json:"created_at"`
}
