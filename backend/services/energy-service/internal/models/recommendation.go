package models

import (
	"strings"
	"time"
)

// Priority of a stored recommendation.
type Priority string

const (
	PriorityHigh   Priority = "high"
	PriorityMedium Priority = "medium"
	PriorityLow    Priority = "low"
)

// NormalizePriority maps free text to a known priority, defaulting to medium.
func NormalizePriority(raw string) Priority {
	p := Priority(strings.ToLower(strings.TrimSpace(raw)))
	switch p {
	case PriorityHigh, PriorityMedium, PriorityLow:
		return p
	}
	return PriorityMedium
}

// Recommendation is the persisted mirror of an externally generated suggestion.
type Recommendation struct {
	ID                  int64     `db:"id" json:"id"`
	HouseholdID         int64     `db:"household_id" json:"household_id"`
	Text                string    `db:"recommendation_text" json:"text"`
	PotentialSavingsKWh float64   `db:"potential_savings_kwh" json:"potential_savings_kwh"`
	PotentialSavingsUSD float64   `db:"potential_savings_usd" json:"potential_savings_usd"`
	Priority            Priority  `db:"priority" json:"priority"`
	Steps               []string  `db:"-" json:"steps,omitempty"`
	CreatedAt           time.Time `db:"created_at" json:"created_at"`
}
