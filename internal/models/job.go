// Package models defines data structures shared across the reviso services.
package models

import "time"

// JobStatus represents the state of an extraction job.
type JobStatus string

const (
	JobStatusPending   JobStatus = "pending"
	JobStatusRunning   JobStatus = "running"
	JobStatusCompleted JobStatus = "completed"
	JobStatusFailed    JobStatus = "failed"
)

// Terminal reports whether the status is a final state.
func (s JobStatus) Terminal() bool {
	return s == JobStatusCompleted || s == JobStatusFailed
}

// Step names one stage of the extraction pipeline.
type Step string

const (
	StepNone              Step = "none"
	StepSavingInputs      Step = "saving_inputs"
	StepPrimaryDocument   Step = "processing_primary_document"
	StepAuxiliaryFiles    Step = "processing_auxiliary_files"
	StepAnnotations       Step = "processing_annotations"
	StepSummarizing       Step = "summarizing"
	StepExtractingRecords Step = "extracting_structured_records"
	StepPersisting        Step = "persisting"
	StepCompleted         Step = "completed"
)

// LogEntry is one line of a job's append-only log.
type LogEntry struct {
	Timestamp time.Time `json:"timestamp"`
	Level     string    `json:"level"`
	Message   string    `json:"message"`
}

// JobSnapshot is an immutable copy of a job's state, safe to hand to pollers.
// Field names are part of the progress API contract.
type JobSnapshot struct {
	ID          string     `json:"id"`
	ResourceID  string     `json:"resource_id"`
	Status      JobStatus  `json:"status"`
	CurrentStep Step       `json:"current_step"`
	Progress    int        `json:"progress"`
	Logs        []LogEntry `json:"logs"`
	Error       string     `json:"error,omitempty"`
	CreatedAt   time.Time  `json:"created_at"`
	UpdatedAt   time.Time  `json:"updated_at"`
}
