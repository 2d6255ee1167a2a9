package agent

import (
	"context"
	"errors"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/tmc/langchaingo/llms"
)

// fakeModel is a scriptable llms.Model.
type fakeModel struct {
	mu      sync.Mutex
	replies []string
	err     error
	calls   [][]llms.MessageContent
}

func (f *fakeModel) GenerateContent(_ context.Context, messages []llms.MessageContent, _ ...llms.CallOption) (*llms.ContentResponse, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.calls = append(f.calls, messages)
	if f.err != nil {
		return nil, f.err
	}
	reply := "ok"
	if len(f.replies) > 0 {
		reply = f.replies[0]
		if len(f.replies) > 1 {
			f.replies = f.replies[1:]
		}
	}
	return &llms.ContentResponse{
		Choices: []*llms.ContentChoice{{Content: reply}},
	}, nil
}

func (f *fakeModel) Call(ctx context.Context, prompt string, options ...llms.CallOption) (string, error) {
	resp, err := f.GenerateContent(ctx, []llms.MessageContent{llms.TextParts(llms.ChatMessageTypeHuman, prompt)}, options...)
	if err != nil {
		return "", err
	}
	return resp.Choices[0].Content, nil
}

func newTestClient(model *fakeModel) *Client {
	return NewClientWithModel(model, "fake-model", NewSessionRegistry(), nil)
}

func TestSendThreadsSessionHistory(t *testing.T) {
	model := &fakeModel{replies: []string{"first", "second"}}
	client := newTestClient(model)
	ctx := context.Background()

	_, err := client.Send(ctx, "paper-42", "summarize the manuscript", "")
	require.NoError(t, err)
	_, err = client.Send(ctx, "paper-42", "now the reviews", "")
	require.NoError(t, err)

	// Second call carries the first exchange plus the new prompt.
	require.Len(t, model.calls, 2)
	assert.Len(t, model.calls[0], 1)
	assert.Len(t, model.calls[1], 3)

	sess := client.sessions.Get("paper-42")
	assert.Equal(t, 2, sess.Messages())
}

func TestSendSessionsAreNotSharedAcrossResources(t *testing.T) {
	model := &fakeModel{}
	client := newTestClient(model)
	ctx := context.Background()

	_, err := client.Send(ctx, "paper-1", "a", "")
	require.NoError(t, err)
	_, err = client.Send(ctx, "paper-2", "b", "")
	require.NoError(t, err)

	// Each resource starts its own conversation.
	assert.Len(t, model.calls[1], 1)
	assert.NotEqual(t,
		client.SessionHandle("paper-1"),
		client.SessionHandle("paper-2"),
	)
}

func TestResetSessionYieldsDistinctHandle(t *testing.T) {
	model := &fakeModel{}
	client := newTestClient(model)
	ctx := context.Background()

	_, err := client.Send(ctx, "paper-42", "hello", "")
	require.NoError(t, err)

	before := client.SessionHandle("paper-42")
	client.ResetSession("paper-42")
	after := client.SessionHandle("paper-42")

	assert.NotEqual(t, before, after)
	assert.Equal(t, 0, client.sessions.Get("paper-42").Messages())
}

func TestSendContextTagPrefixesPrompt(t *testing.T) {
	model := &fakeModel{}
	client := newTestClient(model)

	_, err := client.Send(context.Background(), "paper-42", "extract items", "reviewer-2")
	require.NoError(t, err)

	require.Len(t, model.calls, 1)
	last := model.calls[0][len(model.calls[0])-1]
	text, ok := last.Parts[0].(llms.TextContent)
	require.True(t, ok)
	assert.Contains(t, text.Text, "[context: reviewer-2]")
	assert.Contains(t, text.Text, "extract items")
}

func TestSendClassifiesErrors(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want error
	}{
		{"transport", errors.New("dial tcp: connection refused"), ErrUnavailable},
		{"timeout", context.DeadlineExceeded, ErrUnavailable},
		{"provider", errors.New("invalid api key"), ErrAgent},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			client := newTestClient(&fakeModel{err: tt.err})
			_, err := client.Send(context.Background(), "paper-42", "x", "")
			assert.ErrorIs(t, err, tt.want)
		})
	}
}

func TestSendFailureDoesNotAdvanceSession(t *testing.T) {
	model := &fakeModel{err: errors.New("connection reset")}
	client := newTestClient(model)

	_, err := client.Send(context.Background(), "paper-42", "x", "")
	require.Error(t, err)
	assert.Equal(t, 0, client.sessions.Get("paper-42").Messages())
}

func TestResetDuringInflightSendIsSafe(t *testing.T) {
	model := &fakeModel{}
	client := newTestClient(model)
	ctx := context.Background()

	var wg sync.WaitGroup
	for i := 0; i < 20; i++ {
		wg.Add(2)
		go func() {
			defer wg.Done()
			_, _ = client.Send(ctx, "paper-42", "prompt", "")
		}()
		go func() {
			defer wg.Done()
			client.ResetSession("paper-42")
		}()
	}
	wg.Wait()

	// The registry must stay usable after the races.
	_, err := client.Send(ctx, "paper-42", "still alive", "")
	assert.NoError(t, err)
}
