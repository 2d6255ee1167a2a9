package pipeline

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mgrundel/reviso/internal/models"
)

func TestJobStoreSnapshotUnknownJob(t *testing.T) {
	store := NewJobStore(nil, nil)

	_, err := store.Snapshot("missing")
	assert.ErrorIs(t, err, ErrJobNotFound)
}

func TestJobStoreProgressMonotonic(t *testing.T) {
	store := NewJobStore(nil, nil)
	ctx := context.Background()
	job := store.Create(ctx, "j1", "paper-42")

	store.SetStep(ctx, job, models.StepSavingInputs, 5)
	store.SetStep(ctx, job, models.StepPrimaryDocument, 25)
	// A lower floor must not move progress backwards.
	store.SetStep(ctx, job, models.StepAuxiliaryFiles, 10)

	snap := job.Snapshot()
	assert.Equal(t, 25, snap.Progress)
	assert.Equal(t, models.StepAuxiliaryFiles, snap.CurrentStep)
}

func TestJobStoreLogAppendOnly(t *testing.T) {
	store := NewJobStore(nil, nil)
	ctx := context.Background()
	job := store.Create(ctx, "j1", "paper-42")

	store.AppendLog(job, "info", "first")
	first := job.Snapshot().Logs
	store.AppendLog(job, "info", "second")
	store.AppendLog(job, "warn", "third")

	logs := job.Snapshot().Logs
	require.Len(t, logs, 3)
	assert.Equal(t, "first", logs[0].Message)
	assert.Equal(t, "second", logs[1].Message)
	assert.Equal(t, "third", logs[2].Message)

	// The earlier snapshot is unaffected by later appends.
	require.Len(t, first, 1)
	assert.Equal(t, "first", first[0].Message)
}

func TestJobStoreTerminalSnapshotStable(t *testing.T) {
	store := NewJobStore(nil, nil)
	ctx := context.Background()
	job := store.Create(ctx, "j1", "paper-42")

	store.Fail(ctx, job, errors.New("agent unavailable: dial tcp"))

	a := job.Snapshot()
	b := job.Snapshot()
	assert.Equal(t, a, b)
	assert.Equal(t, models.JobStatusFailed, a.Status)
	assert.Equal(t, "agent unavailable: dial tcp", a.Error)
}

func TestJobStoreCancelTerminalJobIsNoop(t *testing.T) {
	store := NewJobStore(nil, nil)
	ctx := context.Background()
	job := store.Create(ctx, "j1", "paper-42")
	store.Complete(ctx, job)

	require.NoError(t, store.Cancel("j1"))
	assert.False(t, job.CancelRequested())
	assert.Equal(t, models.JobStatusCompleted, job.Snapshot().Status)
}

type recordingRecorder struct {
	snaps []models.JobSnapshot
}

func (r *recordingRecorder) SaveJob(_ context.Context, snap models.JobSnapshot) error {
	r.snaps = append(r.snaps, snap)
	return nil
}

func TestJobStorePersistsTransitions(t *testing.T) {
	rec := &recordingRecorder{}
	store := NewJobStore(rec, nil)
	ctx := context.Background()

	job := store.Create(ctx, "j1", "paper-42")
	store.MarkRunning(ctx, job)
	store.Complete(ctx, job)

	require.NotEmpty(t, rec.snaps)
	assert.Equal(t, models.JobStatusPending, rec.snaps[0].Status)
	assert.Equal(t, models.JobStatusCompleted, rec.snaps[len(rec.snaps)-1].Status)
}
