package db

import (
	"context"
	"fmt"

	"github.com/surrealdb/surrealdb.go"

	"github.com/mgrundel/reviso/internal/models"
)

// Record ids live in SurrealDB as record ids but as plain strings in the
// domain models, so every SELECT projects record::id(id) AS id explicitly.
const itemFields = `record::id(id) AS id, resource_id, reviewer, summary, quote,
	category, priority, severity, suggested_response, status, sort_order,
	needs_manual_review, created_at`

const jobFields = `record::id(id) AS id, resource_id, status, current_step,
	progress, logs, error, created_at, updated_at`

const requestFields = `record::id(id) AS id, resource_id, context_tag, prompt,
	status, response, submitted_at`

// SaveJob upserts the persisted mirror of a job's state. Called on every
// transition; the whole snapshot is written each time, logs included.
func (c *Client) SaveJob(ctx context.Context, snap models.JobSnapshot) error {
	_, err := surrealdb.Query[any](ctx, c.db, `
		UPSERT type::record("extract_job", $id) SET
			resource_id = $resource_id,
			status = $status,
			current_step = $current_step,
			progress = $progress,
			logs = $logs,
			error = $error,
			created_at = $created_at,
			updated_at = $updated_at
	`, map[string]any{
		"id":           snap.ID,
		"resource_id":  snap.ResourceID,
		"status":       string(snap.Status),
		"current_step": string(snap.CurrentStep),
		"progress":     snap.Progress,
		"logs":         snap.Logs,
		"error":        snap.Error,
		"created_at":   snap.CreatedAt,
		"updated_at":   snap.UpdatedAt,
	})
	if err != nil {
		return fmt.Errorf("save job: %w", wrapQueryError(err))
	}
	return nil
}

// GetJob reads a persisted job snapshot. Returns ErrNotFound for unknown ids.
func (c *Client) GetJob(ctx context.Context, id string) (*models.JobSnapshot, error) {
	results, err := surrealdb.Query[[]models.JobSnapshot](ctx, c.db, fmt.Sprintf(`
		SELECT %s FROM type::record("extract_job", $id)
	`, jobFields), map[string]any{"id": id})
	if err != nil {
		return nil, fmt.Errorf("get job: %w", wrapQueryError(err))
	}

	if results == nil || len(*results) == 0 || len((*results)[0].Result) == 0 {
		return nil, fmt.Errorf("%w: job %s", ErrNotFound, id)
	}
	return &(*results)[0].Result[0], nil
}

// ListJobs returns the persisted jobs for a resource, newest first.
func (c *Client) ListJobs(ctx context.Context, resourceID string) ([]models.JobSnapshot, error) {
	results, err := surrealdb.Query[[]models.JobSnapshot](ctx, c.db, fmt.Sprintf(`
		SELECT %s FROM extract_job WHERE resource_id = $resource_id
		ORDER BY created_at DESC
	`, jobFields), map[string]any{"resource_id": resourceID})
	if err != nil {
		return nil, fmt.Errorf("list jobs: %w", wrapQueryError(err))
	}

	if results == nil || len(*results) == 0 {
		return []models.JobSnapshot{}, nil
	}
	return (*results)[0].Result, nil
}

// ReplaceItems swaps the stored review items for a resource with a fresh
// extraction result. Delete and recreate run in one transaction so pollers
// never observe a half-replaced set.
func (c *Client) ReplaceItems(ctx context.Context, resourceID string, items []models.ReviewItem) error {
	_, err := surrealdb.Query[any](ctx, c.db, `
		BEGIN TRANSACTION;
		DELETE review_item WHERE resource_id = $resource_id;
		FOR $item IN $items {
			CREATE type::record("review_item", $item.id)
			CONTENT object::remove($item, "id");
		};
		COMMIT TRANSACTION;
	`, map[string]any{
		"resource_id": resourceID,
		"items":       items,
	})
	if err != nil {
		return fmt.Errorf("replace items: %w", wrapQueryError(err))
	}
	return nil
}

// ListItems returns a resource's review items in working order.
func (c *Client) ListItems(ctx context.Context, resourceID string) ([]models.ReviewItem, error) {
	results, err := surrealdb.Query[[]models.ReviewItem](ctx, c.db, fmt.Sprintf(`
		SELECT %s FROM review_item WHERE resource_id = $resource_id
		ORDER BY sort_order ASC
	`, itemFields), map[string]any{"resource_id": resourceID})
	if err != nil {
		return nil, fmt.Errorf("list items: %w", wrapQueryError(err))
	}

	if results == nil || len(*results) == 0 {
		return []models.ReviewItem{}, nil
	}
	return (*results)[0].Result, nil
}

// UpdateSortOrders persists new sort positions for the given items. Items
// not listed keep their stored position.
func (c *Client) UpdateSortOrders(ctx context.Context, items []models.ReviewItem) error {
	type pair struct {
		ID        string `json:"id"`
		SortOrder int    `json:"sort_order"`
	}
	pairs := make([]pair, len(items))
	for i, it := range items {
		pairs[i] = pair{ID: it.ID, SortOrder: it.SortOrder}
	}

	_, err := surrealdb.Query[any](ctx, c.db, `
		FOR $p IN $pairs {
			UPDATE type::record("review_item", $p.id) SET sort_order = $p.sort_order;
		};
	`, map[string]any{"pairs": pairs})
	if err != nil {
		return fmt.Errorf("update sort orders: %w", wrapQueryError(err))
	}
	return nil
}

// UpdateItemStatus marks a review item open or done.
// Returns ErrNotFound for unknown ids.
func (c *Client) UpdateItemStatus(ctx context.Context, id, status string) (*models.ReviewItem, error) {
	results, err := surrealdb.Query[[]models.ReviewItem](ctx, c.db, fmt.Sprintf(`
		UPDATE type::record("review_item", $id) SET status = $status;
		SELECT %s FROM type::record("review_item", $id);
	`, itemFields), map[string]any{"id": id, "status": status})
	if err != nil {
		return nil, fmt.Errorf("update item status: %w", wrapQueryError(err))
	}

	if results == nil || len(*results) < 2 || len((*results)[1].Result) == 0 {
		return nil, fmt.Errorf("%w: item %s", ErrNotFound, id)
	}
	return &(*results)[1].Result[0], nil
}

// CreateRequest stores a pending agent request record.
func (c *Client) CreateRequest(ctx context.Context, req models.AgentRequest) error {
	_, err := surrealdb.Query[any](ctx, c.db, `
		CREATE type::record("agent_request", $id) SET
			resource_id = $resource_id,
			context_tag = $context_tag,
			prompt = $prompt,
			status = $status,
			response = $response,
			submitted_at = $submitted_at
	`, map[string]any{
		"id":           req.ID,
		"resource_id":  req.ResourceID,
		"context_tag":  req.ContextTag,
		"prompt":       req.Prompt,
		"status":       req.Status,
		"response":     req.Response,
		"submitted_at": req.SubmittedAt,
	})
	if err != nil {
		return fmt.Errorf("create request: %w", wrapQueryError(err))
	}
	return nil
}

// GetRequest reads an agent request record. Returns nil if unknown, matching
// the in-memory store's contract.
func (c *Client) GetRequest(ctx context.Context, id string) (*models.AgentRequest, error) {
	results, err := surrealdb.Query[[]models.AgentRequest](ctx, c.db, fmt.Sprintf(`
		SELECT %s FROM type::record("agent_request", $id)
	`, requestFields), map[string]any{"id": id})
	if err != nil {
		return nil, fmt.Errorf("get request: %w", wrapQueryError(err))
	}

	if results == nil || len(*results) == 0 || len((*results)[0].Result) == 0 {
		return nil, nil
	}
	return &(*results)[0].Result[0], nil
}

// CompleteRequest marks a request completed with its response.
// Last write wins on duplicate completion.
func (c *Client) CompleteRequest(ctx context.Context, id, response string) error {
	_, err := surrealdb.Query[any](ctx, c.db, `
		UPDATE type::record("agent_request", $id) SET
			status = $status,
			response = $response
	`, map[string]any{
		"id":       id,
		"status":   models.RequestStatusCompleted,
		"response": response,
	})
	if err != nil {
		return fmt.Errorf("complete request: %w", wrapQueryError(err))
	}
	return nil
}

// PendingRequests lists records still awaiting fulfillment, oldest first.
func (c *Client) PendingRequests(ctx context.Context) ([]models.AgentRequest, error) {
	results, err := surrealdb.Query[[]models.AgentRequest](ctx, c.db, fmt.Sprintf(`
		SELECT %s FROM agent_request WHERE status = $status
		ORDER BY submitted_at ASC
	`, requestFields), map[string]any{"status": models.RequestStatusPending})
	if err != nil {
		return nil, fmt.Errorf("pending requests: %w", wrapQueryError(err))
	}

	if results == nil || len(*results) == 0 {
		return []models.AgentRequest{}, nil
	}
	return (*results)[0].Result, nil
}
