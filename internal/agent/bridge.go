package agent

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/mgrundel/reviso/internal/models"
)

// RequestStore persists async agent request records. Implemented by the db
// package for the server and by MemoryRequestStore for tests and
// single-process use.
type RequestStore interface {
	CreateRequest(ctx context.Context, req models.AgentRequest) error
	GetRequest(ctx context.Context, id string) (*models.AgentRequest, error)
	CompleteRequest(ctx context.Context, id, response string) error
	PendingRequests(ctx context.Context) ([]models.AgentRequest, error)
}

// Bridge is the asynchronous variant of the agent client for callers that
// cannot block on Send: enqueue a request record, let the worker fulfill it,
// poll for the result.
type Bridge struct {
	caller Caller
	store  RequestStore
	logger *slog.Logger
}

// NewBridge creates a bridge over the given caller and store.
func NewBridge(caller Caller, store RequestStore, logger *slog.Logger) *Bridge {
	if logger == nil {
		logger = slog.Default()
	}
	return &Bridge{caller: caller, store: store, logger: logger}
}

// Enqueue appends a pending request record and returns its id.
func (b *Bridge) Enqueue(ctx context.Context, resourceID, prompt, contextTag string) (string, error) {
	req := models.AgentRequest{
		ID:          uuid.New().String()[:8],
		ResourceID:  resourceID,
		ContextTag:  contextTag,
		Prompt:      prompt,
		Status:      models.RequestStatusPending,
		SubmittedAt: time.Now(),
	}
	if err := b.store.CreateRequest(ctx, req); err != nil {
		return "", fmt.Errorf("enqueue agent request: %w", err)
	}
	b.logger.Info("agent request enqueued", "request_id", req.ID, "resource_id", resourceID)
	return req.ID, nil
}

// Poll reads the request record every interval until it is completed or the
// timeout elapses. Interval and timeout are caller-supplied; agent calls take
// tens of seconds, so multi-second intervals with multi-minute timeouts are
// typical. A timeout abandons only the client-side wait: the record may
// still complete later and is simply never read.
func (b *Bridge) Poll(ctx context.Context, id string, timeout, interval time.Duration) (string, error) {
	deadline := time.Now().Add(timeout)
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		req, err := b.store.GetRequest(ctx, id)
		if err != nil {
			return "", err
		}
		if req == nil {
			return "", fmt.Errorf("%w: %s", ErrRequestNotFound, id)
		}
		if req.Status == models.RequestStatusCompleted {
			return req.Response, nil
		}

		if time.Now().After(deadline) {
			return "", fmt.Errorf("%w: request %s after %s", ErrPollTimeout, id, timeout)
		}

		select {
		case <-ctx.Done():
			return "", ctx.Err()
		case <-ticker.C:
		}
	}
}

// RunWorker drains pending request records until the context is cancelled,
// fulfilling each through the synchronous client. Failed sends stay pending
// and are retried on the next sweep; the caller's poll timeout bounds how
// long anyone waits for them.
func (b *Bridge) RunWorker(ctx context.Context, sweep time.Duration) {
	ticker := time.NewTicker(sweep)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			b.sweep(ctx)
		}
	}
}

func (b *Bridge) sweep(ctx context.Context) {
	pending, err := b.store.PendingRequests(ctx)
	if err != nil {
		b.logger.Warn("failed to list pending agent requests", "error", err)
		return
	}
	for _, req := range pending {
		if ctx.Err() != nil {
			return
		}
		response, err := b.caller.Send(ctx, req.ResourceID, req.Prompt, req.ContextTag)
		if err != nil {
			b.logger.Warn("agent request fulfillment failed", "request_id", req.ID, "error", err)
			continue
		}
		if err := b.store.CompleteRequest(ctx, req.ID, response); err != nil {
			b.logger.Warn("failed to complete agent request", "request_id", req.ID, "error", err)
			continue
		}
		b.logger.Info("agent request completed", "request_id", req.ID, "resource_id", req.ResourceID)
	}
}

// MemoryRequestStore is an in-memory RequestStore.
type MemoryRequestStore struct {
	mu       sync.Mutex
	requests map[string]models.AgentRequest
}

// NewMemoryRequestStore creates an empty in-memory store.
func NewMemoryRequestStore() *MemoryRequestStore {
	return &MemoryRequestStore{requests: make(map[string]models.AgentRequest)}
}

// CreateRequest stores a new request record.
func (s *MemoryRequestStore) CreateRequest(_ context.Context, req models.AgentRequest) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.requests[req.ID] = req
	return nil
}

// GetRequest returns a copy of the record, or nil if unknown.
func (s *MemoryRequestStore) GetRequest(_ context.Context, id string) (*models.AgentRequest, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	req, ok := s.requests[id]
	if !ok {
		return nil, nil
	}
	return &req, nil
}

// CompleteRequest marks a record completed. Last write wins.
func (s *MemoryRequestStore) CompleteRequest(_ context.Context, id, response string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	req, ok := s.requests[id]
	if !ok {
		return fmt.Errorf("%w: %s", ErrRequestNotFound, id)
	}
	req.Status = models.RequestStatusCompleted
	req.Response = response
	s.requests[id] = req
	return nil
}

// PendingRequests lists records still awaiting fulfillment.
func (s *MemoryRequestStore) PendingRequests(_ context.Context) ([]models.AgentRequest, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	var pending []models.AgentRequest
	for _, req := range s.requests {
		if req.Status == models.RequestStatusPending {
			pending = append(pending, req)
		}
	}
	return pending, nil
}
