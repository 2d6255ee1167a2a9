// Package pipeline runs the staged extraction job for one resource: lock
// admission, stage walk, progress accounting, and terminal cleanup.
package pipeline

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/mgrundel/reviso/internal/extract"
	"github.com/mgrundel/reviso/internal/filestore"
	"github.com/mgrundel/reviso/internal/models"
	"github.com/mgrundel/reviso/internal/payload"
)

// ErrResourceLocked indicates another job currently owns the resource.
// Submission is rejected outright; the caller retries later if it wants.
var ErrResourceLocked = errors.New("resource locked")

// errCancelled marks a cooperative cancellation inside a stage.
var errCancelled = errors.New("job cancelled")

// RecordStore persists the extracted review items. Implemented by the db
// package; a nil store skips persistence (useful in tests).
type RecordStore interface {
	ReplaceItems(ctx context.Context, resourceID string, items []models.ReviewItem) error
}

// Runner drives jobs through the stage sequence.
type Runner struct {
	locks   *LockTable
	jobs    *JobStore
	files   *filestore.Store
	procs   *extract.Set
	records RecordStore
	logger  *slog.Logger
}

// NewRunner wires a runner from its injected collaborators.
func NewRunner(locks *LockTable, jobs *JobStore, files *filestore.Store, procs *extract.Set, records RecordStore, logger *slog.Logger) *Runner {
	if logger == nil {
		logger = slog.Default()
	}
	return &Runner{
		locks:   locks,
		jobs:    jobs,
		files:   files,
		procs:   procs,
		records: records,
		logger:  logger,
	}
}

// stage is one step of the fixed sequence. The weight is the progress floor
// reached once the stage finishes; agent-heavy stages carry more of the
// range since they dominate wall-clock time.
type stage struct {
	step   models.Step
	weight int
	fn     func(ctx context.Context, job *Job, st *runState) error
}

// runState accumulates intermediate results across stages of one job.
type runState struct {
	manuscriptName string
	auxNames       []string
	reviewNames    []string

	manuscriptSummary string
	auxSummaries      []string
	reviewSummaries   []string
	candidateCount    int

	brief string
	items []models.ReviewItem
}

// Submit admission-checks the resource lock and, on success, creates a job
// and starts it in the background. If the lock is held no job is created;
// the conflict is synchronous and final for this attempt.
func (r *Runner) Submit(ctx context.Context, resourceID string) (string, error) {
	jobID := uuid.New().String()[:8]
	if !r.locks.Acquire(resourceID, jobID) {
		holder, _ := r.locks.Holder(resourceID)
		return "", fmt.Errorf("%w: %s (job %s)", ErrResourceLocked, resourceID, holder)
	}

	job := r.jobs.Create(ctx, jobID, resourceID)
	go r.run(job)
	return jobID, nil
}

func (r *Runner) run(job *Job) {
	ctx, cancel := context.WithCancel(context.Background())
	r.jobs.bindCancel(job, cancel)
	defer cancel()
	defer r.locks.Release(job.ResourceID())
	defer func() {
		if rec := recover(); rec != nil {
			r.logger.Error("job goroutine panicked", "job_id", job.ID(), "panic", rec)
			r.jobs.Fail(context.Background(), job, fmt.Errorf("internal error: %v", rec))
		}
	}()

	r.jobs.MarkRunning(ctx, job)

	stages := []stage{
		{models.StepSavingInputs, 5, r.stageSaveInputs},
		{models.StepPrimaryDocument, 25, r.stagePrimaryDocument},
		{models.StepAuxiliaryFiles, 45, r.stageAuxiliaryFiles},
		{models.StepAnnotations, 65, r.stageAnnotations},
		{models.StepSummarizing, 75, r.stageSummarize},
		{models.StepExtractingRecords, 95, r.stageExtractRecords},
		{models.StepPersisting, 100, r.stagePersist},
	}

	st := &runState{}
	progress := 0
	for _, s := range stages {
		r.jobs.SetStep(ctx, job, s.step, progress)

		start := time.Now()
		err := s.fn(ctx, job, st)
		if err == nil && job.CancelRequested() {
			err = errCancelled
		}
		if err != nil {
			// No further stages run. The deferred release frees the lock
			// on this path exactly as on success.
			bg := context.Background()
			if errors.Is(err, errCancelled) || errors.Is(err, context.Canceled) {
				r.jobs.AppendLog(job, "warn", "cancellation requested, stopping after %s; completed work is kept", s.step)
				r.jobs.Fail(bg, job, errCancelled)
			} else {
				r.jobs.AppendLog(job, "error", "stage %s failed: %v", s.step, err)
				r.jobs.Fail(bg, job, err)
			}
			return
		}

		progress = s.weight
		r.jobs.SetStep(ctx, job, s.step, progress)
		r.logger.Debug("stage complete",
			"job_id", job.ID(),
			"stage", s.step,
			"duration_ms", time.Since(start).Milliseconds(),
		)
	}

	r.jobs.Complete(context.Background(), job)
}

func (r *Runner) stageSaveInputs(_ context.Context, job *Job, st *runState) error {
	resource := job.ResourceID()

	manuscripts, err := r.files.List(resource, filestore.CategoryManuscript)
	if err != nil {
		return err
	}
	if len(manuscripts) == 0 {
		return fmt.Errorf("%w: no manuscript file for %s", filestore.ErrMissingInput, resource)
	}
	st.manuscriptName = manuscripts[0]

	if st.auxNames, err = r.files.List(resource, filestore.CategoryAux); err != nil {
		return err
	}
	if st.reviewNames, err = r.files.List(resource, filestore.CategoryReviews); err != nil {
		return err
	}

	r.jobs.AppendLog(job, "info", "inputs registered: manuscript %s, %d review file(s), %d auxiliary file(s)",
		st.manuscriptName, len(st.reviewNames), len(st.auxNames))
	return nil
}

func (r *Runner) stagePrimaryDocument(ctx context.Context, job *Job, st *runState) error {
	text, err := r.files.Read(job.ResourceID(), filestore.CategoryManuscript, st.manuscriptName)
	if err != nil {
		return err
	}

	res, err := r.procs.Manuscript.Process(ctx, extract.Input{
		ResourceID: job.ResourceID(),
		Name:       st.manuscriptName,
		Text:       text,
	})
	if err != nil {
		return fmt.Errorf("process manuscript: %w", err)
	}

	st.manuscriptSummary = res.Summary
	r.jobs.AppendLog(job, "info", "manuscript %s processed (%d chars in, %d chars summary)",
		st.manuscriptName, len(text), len(res.Summary))
	return nil
}

func (r *Runner) stageAuxiliaryFiles(ctx context.Context, job *Job, st *runState) error {
	for _, name := range st.auxNames {
		// Cancellation is checked at file boundaries only: finished
		// summaries stay, the current file is never half-processed.
		if job.CancelRequested() || ctx.Err() != nil {
			return errCancelled
		}

		text, err := r.files.Read(job.ResourceID(), filestore.CategoryAux, name)
		if err != nil {
			return err
		}
		res, err := r.procs.Auxiliary.Process(ctx, extract.Input{
			ResourceID:   job.ResourceID(),
			Name:         name,
			Text:         text,
			PriorSummary: st.manuscriptSummary,
		})
		if err != nil {
			return fmt.Errorf("process auxiliary %s: %w", name, err)
		}

		st.auxSummaries = append(st.auxSummaries, fmt.Sprintf("%s: %s", name, res.Summary))
		r.jobs.AppendLog(job, "info", "auxiliary file %s processed (%d chars)", name, len(text))
	}
	return nil
}

func (r *Runner) stageAnnotations(ctx context.Context, job *Job, st *runState) error {
	for _, name := range st.reviewNames {
		if job.CancelRequested() || ctx.Err() != nil {
			return errCancelled
		}

		text, err := r.files.Read(job.ResourceID(), filestore.CategoryReviews, name)
		if err != nil {
			return err
		}
		res, err := r.procs.Review.Process(ctx, extract.Input{
			ResourceID:   job.ResourceID(),
			Name:         name,
			Text:         text,
			PriorSummary: st.manuscriptSummary,
		})
		if err != nil {
			return fmt.Errorf("process review %s: %w", name, err)
		}

		st.reviewSummaries = append(st.reviewSummaries, fmt.Sprintf("%s: %s", name, res.Summary))
		st.candidateCount += len(res.Items)
		r.jobs.AppendLog(job, "info", "review %s processed, %d candidate item(s)", name, len(res.Items))
	}
	return nil
}

func (r *Runner) stageSummarize(ctx context.Context, job *Job, st *runState) error {
	brief, err := r.procs.Summarize(ctx, job.ResourceID(), st.digest())
	if err != nil {
		return fmt.Errorf("summarize: %w", err)
	}
	st.brief = brief
	r.jobs.AppendLog(job, "info", "revision overview written (%d chars)", len(brief))
	return nil
}

func (r *Runner) stageExtractRecords(ctx context.Context, job *Job, st *runState) error {
	items, err := r.procs.ExtractRecords(ctx, job.ResourceID(), st.digest())
	switch {
	case err == nil:
		st.items = items
		r.jobs.AppendLog(job, "info", "%d review item(s) extracted", len(items))

	case errors.Is(err, payload.ErrNoPayload) || errors.Is(err, payload.ErrInvalidPayload):
		// Deliberate partial-failure policy: a malformed agent reply
		// degrades to a single flagged placeholder instead of aborting an
		// otherwise-successful ingestion.
		st.items = []models.ReviewItem{placeholderItem(job.ResourceID())}
		r.jobs.AppendLog(job, "warn", "agent reply had no usable item payload, inserting placeholder for manual follow-up: %v", err)

	default:
		return fmt.Errorf("extract records: %w", err)
	}

	now := time.Now()
	for i := range st.items {
		if st.items[i].ID == "" {
			st.items[i].ID = uuid.New().String()[:8]
		}
		st.items[i].ResourceID = job.ResourceID()
		st.items[i].SortOrder = i
		st.items[i].CreatedAt = now
		if st.items[i].Status == "" {
			st.items[i].Status = models.ItemStatusOpen
		}
	}
	return nil
}

func (r *Runner) stagePersist(ctx context.Context, job *Job, st *runState) error {
	if r.records == nil {
		r.jobs.AppendLog(job, "warn", "no record store configured, %d item(s) not persisted", len(st.items))
		return nil
	}
	if err := r.records.ReplaceItems(ctx, job.ResourceID(), st.items); err != nil {
		return fmt.Errorf("persist items: %w", err)
	}
	r.jobs.AppendLog(job, "info", "%d review item(s) persisted", len(st.items))
	return nil
}

// digest builds the combined material handed to the summarize and extract
// calls. The agent also has its session history; the digest keeps the call
// self-contained in case the session was reset mid-pipeline.
func (st *runState) digest() string {
	var b strings.Builder
	b.WriteString("Manuscript summary:\n")
	b.WriteString(st.manuscriptSummary)
	if len(st.auxSummaries) > 0 {
		b.WriteString("\n\nAuxiliary material:\n")
		b.WriteString(strings.Join(st.auxSummaries, "\n"))
	}
	if len(st.reviewSummaries) > 0 {
		b.WriteString("\n\nReviewer reports:\n")
		b.WriteString(strings.Join(st.reviewSummaries, "\n"))
	}
	return b.String()
}

func placeholderItem(resourceID string) models.ReviewItem {
	return models.ReviewItem{
		ResourceID:        resourceID,
		Summary:           "Extraction incomplete: the agent reply could not be parsed. Review the source material manually.",
		Priority:          models.PriorityHigh,
		Severity:          models.SeverityMajor,
		Status:            models.ItemStatusOpen,
		NeedsManualReview: true,
	}
}
