package models

import "time"

// Priority ranks how important it is to address a review item.
type Priority string

const (
	PriorityHigh   Priority = "high"
	PriorityMedium Priority = "medium"
	PriorityLow    Priority = "low"
)

// Severity ranks how damaging the underlying criticism is.
type Severity string

const (
	SeverityMajor Severity = "major"
	SeverityMinor Severity = "minor"
)

// Item statuses. Done items are excluded from agent-assisted reordering.
const (
	ItemStatusOpen = "open"
	ItemStatusDone = "done"
)

// ReviewItem is one normalized reviewer point extracted from a paper's
// review material.
type ReviewItem struct {
	ID                string    `json:"id"`
	ResourceID        string    `json:"resource_id"`
	Reviewer          string    `json:"reviewer,omitempty"`
	Summary           string    `json:"summary"`
	Quote             string    `json:"quote,omitempty"`
	Category          string    `json:"category,omitempty"`
	Priority          Priority  `json:"priority"`
	Severity          Severity  `json:"severity"`
	SuggestedResponse string    `json:"suggested_response,omitempty"`
	Status            string    `json:"status"`
	SortOrder         int       `json:"sort_order"`
	NeedsManualReview bool      `json:"needs_manual_review"`
	CreatedAt         time.Time `json:"created_at"`
}
