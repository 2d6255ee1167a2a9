package handler

import (
	"context"
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/mgrundel/reviso/internal/models"
)

// JobSubmitter starts extraction jobs. Implemented by pipeline.Runner.
type JobSubmitter interface {
	Submit(ctx context.Context, resourceID string) (string, error)
}

// JobTracker reads and cancels in-flight jobs. Implemented by
// pipeline.JobStore.
type JobTracker interface {
	Snapshot(id string) (models.JobSnapshot, error)
	Cancel(id string) error
}

// JobHandler handles extraction job endpoints.
type JobHandler struct {
	runner JobSubmitter
	jobs   JobTracker
}

// NewJobHandler creates a new JobHandler.
func NewJobHandler(runner JobSubmitter, jobs JobTracker) *JobHandler {
	return &JobHandler{runner: runner, jobs: jobs}
}

// Submit starts a job for a resource. Returns 202 with the job id, or 409
// when the resource is already locked by a running job.
func (h *JobHandler) Submit(c echo.Context) error {
	resourceID := c.Param("resource_id")
	if resourceID == "" {
		return &ValidationError{Field: "resource_id", Message: "must not be empty"}
	}

	jobID, err := h.runner.Submit(c.Request().Context(), resourceID)
	if err != nil {
		return err
	}

	return JSON(c, http.StatusAccepted, map[string]string{"job_id": jobID})
}

// Get returns the current snapshot of a job for progress polling.
func (h *JobHandler) Get(c echo.Context) error {
	snap, err := h.jobs.Snapshot(c.Param("job_id"))
	if err != nil {
		return err
	}
	return JSON(c, http.StatusOK, snap)
}

// Cancel requests cooperative cancellation of a running job. Best effort:
// the job stops at the next file boundary, already-completed work is kept.
func (h *JobHandler) Cancel(c echo.Context) error {
	if err := h.jobs.Cancel(c.Param("job_id")); err != nil {
		return err
	}
	return JSON(c, http.StatusOK, map[string]string{"status": "cancellation requested"})
}
