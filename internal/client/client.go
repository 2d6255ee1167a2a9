// Package client provides a REST client for the reviso server.
package client

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"os"
	"time"

	"github.com/mgrundel/reviso/internal/models"
)

// Client is a REST client for the reviso server.
type Client struct {
	baseURL    string
	httpClient *http.Client
}

// New creates a new client.
// If baseURL is empty, uses REVISO_SERVER_URL env var or defaults to
// localhost:8486. Timeout can be configured via REVISO_CLIENT_TIMEOUT
// (default 10m; reorder calls block on an agent round trip).
func New(baseURL string) *Client {
	if baseURL == "" {
		baseURL = os.Getenv("REVISO_SERVER_URL")
	}
	if baseURL == "" {
		baseURL = "http://localhost:8486"
	}

	timeout := 10 * time.Minute
	if t := os.Getenv("REVISO_CLIENT_TIMEOUT"); t != "" {
		if d, err := time.ParseDuration(t); err == nil {
			timeout = d
		}
	}

	return &Client{
		baseURL: baseURL,
		httpClient: &http.Client{
			Timeout: timeout,
		},
	}
}

// envelope mirrors the server's response wrapper.
type envelope struct {
	Data  json.RawMessage `json:"data"`
	Error *apiError       `json:"error,omitempty"`
}

type apiError struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}

// APIError is a server-reported error with its machine-readable code.
type APIError struct {
	Status  int
	Code    string
	Message string
}

func (e *APIError) Error() string {
	return fmt.Sprintf("%s: %s", e.Code, e.Message)
}

// do sends a request and decodes the envelope into result.
func (c *Client) do(ctx context.Context, method, path string, body, result any) error {
	var reqBody io.Reader
	if body != nil {
		encoded, err := json.Marshal(body)
		if err != nil {
			return fmt.Errorf("marshal request: %w", err)
		}
		reqBody = bytes.NewReader(encoded)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, reqBody)
	if err != nil {
		return fmt.Errorf("create request: %w", err)
	}
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("execute request: %w", err)
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(resp.Body)
	if err != nil {
		return fmt.Errorf("read response: %w", err)
	}

	var env envelope
	if err := json.Unmarshal(raw, &env); err != nil {
		return fmt.Errorf("server error: %s - %s", resp.Status, string(raw))
	}

	if env.Error != nil {
		return &APIError{Status: resp.StatusCode, Code: env.Error.Code, Message: env.Error.Message}
	}
	if resp.StatusCode >= http.StatusBadRequest {
		return fmt.Errorf("server error: %s", resp.Status)
	}

	if result != nil && len(env.Data) > 0 {
		if err := json.Unmarshal(env.Data, result); err != nil {
			return fmt.Errorf("unmarshal data: %w", err)
		}
	}
	return nil
}

// StartJob submits an extraction job for a resource and returns the job id.
func (c *Client) StartJob(ctx context.Context, resourceID string) (string, error) {
	var result struct {
		JobID string `json:"job_id"`
	}
	err := c.do(ctx, http.MethodPost, "/api/v1/resources/"+resourceID+"/jobs", nil, &result)
	if err != nil {
		return "", err
	}
	return result.JobID, nil
}

// GetJob fetches the current snapshot of a job.
func (c *Client) GetJob(ctx context.Context, jobID string) (*models.JobSnapshot, error) {
	var snap models.JobSnapshot
	if err := c.do(ctx, http.MethodGet, "/api/v1/jobs/"+jobID, nil, &snap); err != nil {
		return nil, err
	}
	return &snap, nil
}

// CancelJob requests cooperative cancellation of a running job.
func (c *Client) CancelJob(ctx context.Context, jobID string) error {
	return c.do(ctx, http.MethodPost, "/api/v1/jobs/"+jobID+"/cancel", nil, nil)
}

// ResetSession discards the resource's agent conversation.
// Returns the new session handle.
func (c *Client) ResetSession(ctx context.Context, resourceID string) (string, error) {
	var result struct {
		SessionHandle string `json:"session_handle"`
	}
	err := c.do(ctx, http.MethodPost, "/api/v1/resources/"+resourceID+"/session/reset", nil, &result)
	if err != nil {
		return "", err
	}
	return result.SessionHandle, nil
}

// ListItems returns a resource's review items in working order.
func (c *Client) ListItems(ctx context.Context, resourceID string) ([]models.ReviewItem, error) {
	var items []models.ReviewItem
	if err := c.do(ctx, http.MethodGet, "/api/v1/resources/"+resourceID+"/items", nil, &items); err != nil {
		return nil, err
	}
	return items, nil
}

// Reorder asks the server for an agent-assisted reordering of the open
// items. Blocks on the agent round trip.
func (c *Client) Reorder(ctx context.Context, resourceID string) ([]models.ReviewItem, error) {
	body := map[string]string{"resource_id": resourceID}
	var items []models.ReviewItem
	if err := c.do(ctx, http.MethodPost, "/api/v1/reorder", body, &items); err != nil {
		return nil, err
	}
	return items, nil
}

// SetItemStatus marks a review item open or done.
func (c *Client) SetItemStatus(ctx context.Context, itemID, status string) (*models.ReviewItem, error) {
	body := map[string]string{"status": status}
	var item models.ReviewItem
	if err := c.do(ctx, http.MethodPatch, "/api/v1/items/"+itemID, body, &item); err != nil {
		return nil, err
	}
	return &item, nil
}
