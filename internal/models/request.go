package models

import "time"

// Agent request statuses for the asynchronous bridge.
const (
	RequestStatusPending   = "pending"
	RequestStatusCompleted = "completed"
)

// AgentRequest is one record of the asynchronous agent bridge. A caller
// enqueues it, a background worker fulfills it, and the caller polls for the
// completed response. Duplicate completions are last-write-wins.
type AgentRequest struct {
	ID          string    `json:"id"`
	ResourceID  string    `json:"resource_id"`
	ContextTag  string    `json:"context_tag,omitempty"`
	Prompt      string    `json:"prompt"`
	Status      string    `json:"status"`
	Response    string    `json:"response,omitempty"`
	SubmittedAt time.Time `json:"submitted_at"`
}
