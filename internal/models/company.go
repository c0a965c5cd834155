package models

import (
	"database/sql/driver"
	"encoding/json"
	"fmt"
	"time"
)

// Company is a contractor directory entry on the public portal.
type Company struct {
	ID          string      `db:"id" json:"id"`
	Name        string      `db:"name" json:"name"`
	Rating      float64     `db:"rating" json:"rating"`
	ReviewCount int         `db:"review_count" json:"review_count"`
	Description string      `db:"description" json:"description"`
	Specialties Specialties `db:"specialties" json:"specialties"`
	Location    string      `db:"location" json:"location"`
	CaseCount   int         `db:"case_count" json:"case_count"`
	Image       string      `db:"image" json:"image"`
	CreatedAt   time.Time   `db:"created_at" json:"created_at"`
}

// Specialties is a list of work categories a company advertises, persisted
// as JSON.
type Specialties []string

// Value marshals the list for persistence.
func (s Specialties) Value() (driver.Value, error) {
	if s == nil {
		s = Specialties{}
	}
	data, err := json.Marshal(s)
	if err != nil {
		return nil, fmt.Errorf("marshal specialties: %w", err)
	}
	return data, nil
}

// Scan unmarshals JSON payloads into the list.
func (s *Specialties) Scan(value interface{}) error {
	if value == nil {
		*s = Specialties{}
		return nil
	}
	var data []byte
	switch v := value.(type) {
	case []byte:
		data = v
	case string:
		data = []byte(v)
	default:
		return fmt.Errorf("unsupported type %T for Specialties", value)
	}
	if len(data) == 0 {
		*s = Specialties{}
		return nil
	}
	if err := json.Unmarshal(data, s); err != nil {
		return fmt.Errorf("unmarshal specialties: %w", err)
	}
	return nil
}

// MatchesSearch reports whether the company name, location or any specialty
// contains the term, case-insensitively.
func (c *Company) MatchesSearch(term string) bool {
	if term == "" {
		return true
	}
	if containsFold(c.Name, term) || containsFold(c.Location, term) {
		return true
	}
	for _, specialty := range c.Specialties {
		if containsFold(specialty, term) {
			return true
		}
	}
	return false
}
