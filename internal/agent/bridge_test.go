package agent

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mgrundel/reviso/internal/models"
)

func TestPollTimesOutBeforeFulfillment(t *testing.T) {
	store := NewMemoryRequestStore()
	bridge := NewBridge(newTestClient(&fakeModel{}), store, nil)
	ctx := context.Background()

	id, err := bridge.Enqueue(ctx, "paper-42", "summarize section 3", "")
	require.NoError(t, err)

	// No worker running: the record stays pending.
	_, err = bridge.Poll(ctx, id, 200*time.Millisecond, 50*time.Millisecond)
	assert.ErrorIs(t, err, ErrPollTimeout)
}

func TestPollReturnsCompletedResponse(t *testing.T) {
	store := NewMemoryRequestStore()
	bridge := NewBridge(newTestClient(&fakeModel{}), store, nil)
	ctx := context.Background()

	id, err := bridge.Enqueue(ctx, "paper-42", "summarize section 3", "")
	require.NoError(t, err)

	// Simulate worker fulfillment arriving after the first timeout.
	require.NoError(t, store.CompleteRequest(ctx, id, "X"))

	got, err := bridge.Poll(ctx, id, time.Second, 20*time.Millisecond)
	require.NoError(t, err)
	assert.Equal(t, "X", got)

	// A late duplicate completion is last-write-wins, not an error.
	require.NoError(t, store.CompleteRequest(ctx, id, "Y"))
	got, err = bridge.Poll(ctx, id, time.Second, 20*time.Millisecond)
	require.NoError(t, err)
	assert.Equal(t, "Y", got)
}

func TestPollUnknownRequest(t *testing.T) {
	bridge := NewBridge(newTestClient(&fakeModel{}), NewMemoryRequestStore(), nil)

	_, err := bridge.Poll(context.Background(), "nope", time.Second, 20*time.Millisecond)
	assert.ErrorIs(t, err, ErrRequestNotFound)
}

func TestWorkerFulfillsPendingRequests(t *testing.T) {
	store := NewMemoryRequestStore()
	model := &fakeModel{replies: []string{"the answer"}}
	bridge := NewBridge(newTestClient(model), store, nil)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	id, err := bridge.Enqueue(ctx, "paper-42", "what did reviewer 1 ask", "reviewer-1")
	require.NoError(t, err)

	go bridge.RunWorker(ctx, 20*time.Millisecond)

	got, err := bridge.Poll(ctx, id, 2*time.Second, 20*time.Millisecond)
	require.NoError(t, err)
	assert.Equal(t, "the answer", got)

	req, err := store.GetRequest(ctx, id)
	require.NoError(t, err)
	assert.Equal(t, models.RequestStatusCompleted, req.Status)
}

func TestFailedFulfillmentStaysPending(t *testing.T) {
	store := NewMemoryRequestStore()
	ctx := context.Background()

	require.NoError(t, store.CreateRequest(ctx, models.AgentRequest{
		ID: "req_1", ResourceID: "paper-42", Prompt: "p",
		Status: models.RequestStatusPending, SubmittedAt: time.Now(),
	}))

	bridge := NewBridge(newTestClient(&fakeModel{err: context.DeadlineExceeded}), store, nil)
	bridge.sweep(ctx)

	req, err := store.GetRequest(ctx, "req_1")
	require.NoError(t, err)
	assert.Equal(t, models.RequestStatusPending, req.Status)
}
