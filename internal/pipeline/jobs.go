package pipeline

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"sync/atomic"
	"time"

	"github.com/mgrundel/reviso/internal/models"
)

// ErrJobNotFound indicates an unknown job id. Pollers see this after a
// process restart dropped the in-memory store; they treat it as failure.
var ErrJobNotFound = errors.New("job not found")

// JobRecorder persists job snapshots so finished jobs survive the process.
// Implemented by the db package; a nil recorder keeps jobs memory-only.
type JobRecorder interface {
	SaveJob(ctx context.Context, snap models.JobSnapshot) error
}

// Job is one extraction job. It is mutated by exactly one runner goroutine
// through the JobStore and read concurrently by pollers via Snapshot.
type Job struct {
	id         string
	resourceID string

	mu        sync.Mutex
	status    models.JobStatus
	step      models.Step
	progress  int
	logs      []models.LogEntry
	errMsg    string
	createdAt time.Time
	updatedAt time.Time

	cancel          context.CancelFunc
	cancelRequested atomic.Bool
}

// ID returns the job id.
func (j *Job) ID() string { return j.id }

// ResourceID returns the resource this job operates on.
func (j *Job) ResourceID() string { return j.resourceID }

// CancelRequested reports whether a cooperative cancel was asked for.
func (j *Job) CancelRequested() bool { return j.cancelRequested.Load() }

// Snapshot returns an atomic copy of the job state. Once the job is
// terminal, repeated snapshots are identical.
func (j *Job) Snapshot() models.JobSnapshot {
	j.mu.Lock()
	defer j.mu.Unlock()
	logs := make([]models.LogEntry, len(j.logs))
	copy(logs, j.logs)
	return models.JobSnapshot{
		ID:          j.id,
		ResourceID:  j.resourceID,
		Status:      j.status,
		CurrentStep: j.step,
		Progress:    j.progress,
		Logs:        logs,
		Error:       j.errMsg,
		CreatedAt:   j.createdAt,
		UpdatedAt:   j.updatedAt,
	}
}

// JobStore tracks jobs by id. It is injected into the runner and the HTTP
// layer so tests can instantiate isolated instances.
type JobStore struct {
	mu       sync.RWMutex
	jobs     map[string]*Job
	recorder JobRecorder
	logger   *slog.Logger
}

// NewJobStore creates a job store. recorder may be nil.
func NewJobStore(recorder JobRecorder, logger *slog.Logger) *JobStore {
	if logger == nil {
		logger = slog.Default()
	}
	return &JobStore{
		jobs:     make(map[string]*Job),
		recorder: recorder,
		logger:   logger,
	}
}

// Create registers a new pending job.
func (s *JobStore) Create(ctx context.Context, id, resourceID string) *Job {
	now := time.Now()
	job := &Job{
		id:         id,
		resourceID: resourceID,
		status:     models.JobStatusPending,
		step:       models.StepNone,
		createdAt:  now,
		updatedAt:  now,
	}

	s.mu.Lock()
	s.jobs[id] = job
	s.mu.Unlock()

	s.persist(ctx, job)
	s.logger.Info("job created", "job_id", id, "resource_id", resourceID)
	return job
}

// Get returns a job by id.
func (s *JobStore) Get(id string) (*Job, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	job, ok := s.jobs[id]
	return job, ok
}

// Snapshot returns the current snapshot for a job id.
func (s *JobStore) Snapshot(id string) (models.JobSnapshot, error) {
	job, ok := s.Get(id)
	if !ok {
		return models.JobSnapshot{}, fmt.Errorf("%w: %s", ErrJobNotFound, id)
	}
	return job.Snapshot(), nil
}

// Cancel requests cooperative cancellation of a job. Best effort: a job that
// already reached a terminal state is left untouched.
func (s *JobStore) Cancel(id string) error {
	job, ok := s.Get(id)
	if !ok {
		return fmt.Errorf("%w: %s", ErrJobNotFound, id)
	}

	job.mu.Lock()
	terminal := job.status.Terminal()
	cancel := job.cancel
	job.mu.Unlock()
	if terminal {
		return nil
	}

	job.cancelRequested.Store(true)
	if cancel != nil {
		cancel()
	}
	s.logger.Info("job cancellation requested", "job_id", id)
	return nil
}

// bindCancel attaches the runner's cancel func so Cancel can reach it.
func (s *JobStore) bindCancel(job *Job, cancel context.CancelFunc) {
	job.mu.Lock()
	job.cancel = cancel
	job.mu.Unlock()
}

// MarkRunning moves a pending job to running.
func (s *JobStore) MarkRunning(ctx context.Context, job *Job) {
	job.mu.Lock()
	job.status = models.JobStatusRunning
	job.updatedAt = time.Now()
	job.mu.Unlock()
	s.persist(ctx, job)
}

// SetStep records the stage a job is entering and lifts progress to the
// given floor. Progress never moves backwards.
func (s *JobStore) SetStep(ctx context.Context, job *Job, step models.Step, progress int) {
	job.mu.Lock()
	job.step = step
	if progress > job.progress {
		job.progress = progress
	}
	job.updatedAt = time.Now()
	job.mu.Unlock()
	s.persist(ctx, job)
}

// AppendLog adds one entry to the job's append-only log.
func (s *JobStore) AppendLog(job *Job, level, format string, args ...any) {
	msg := fmt.Sprintf(format, args...)
	job.mu.Lock()
	job.logs = append(job.logs, models.LogEntry{
		Timestamp: time.Now(),
		Level:     level,
		Message:   msg,
	})
	job.updatedAt = time.Now()
	job.mu.Unlock()
	s.logger.Debug("job log", "job_id", job.id, "level", level, "message", msg)
}

// Complete marks a job completed.
func (s *JobStore) Complete(ctx context.Context, job *Job) {
	job.mu.Lock()
	job.status = models.JobStatusCompleted
	job.step = models.StepCompleted
	job.progress = 100
	job.updatedAt = time.Now()
	job.mu.Unlock()
	s.persist(ctx, job)
	s.logger.Info("job completed", "job_id", job.id, "resource_id", job.resourceID)
}

// Fail marks a job failed with a readable error. Pollers never see raw
// transport errors, only this string.
func (s *JobStore) Fail(ctx context.Context, job *Job, err error) {
	job.mu.Lock()
	job.status = models.JobStatusFailed
	job.errMsg = err.Error()
	job.updatedAt = time.Now()
	job.mu.Unlock()
	s.persist(ctx, job)
	s.logger.Error("job failed", "job_id", job.id, "resource_id", job.resourceID, "error", err)
}

func (s *JobStore) persist(ctx context.Context, job *Job) {
	if s.recorder == nil {
		return
	}
	if err := s.recorder.SaveJob(ctx, job.Snapshot()); err != nil {
		s.logger.Warn("failed to persist job", "job_id", job.id, "error", err)
	}
}
