// Package db integration tests run against a throwaway SurrealDB container.
package db

import (
	"context"
	"errors"
	"fmt"
	"log"
	"os"
	"testing"
	"time"

	"github.com/testcontainers/testcontainers-go"
	"github.com/testcontainers/testcontainers-go/wait"

	"github.com/mgrundel/reviso/internal/models"
)

var testDB *Client
var testContainer testcontainers.Container

// TestMain sets up and tears down the SurrealDB container for all tests.
func TestMain(m *testing.M) {
	// Disable ryuk (cleanup container) as it can cause issues in some environments
	os.Setenv("TESTCONTAINERS_RYUK_DISABLED", "true")

	ctx := context.Background()

	var err error
	testContainer, err = testcontainers.GenericContainer(ctx, testcontainers.GenericContainerRequest{
		ContainerRequest: testcontainers.ContainerRequest{
			Image:        "surrealdb/surrealdb:v3.0.0-beta.1",
			ExposedPorts: []string{"8000/tcp"},
			Cmd:          []string{"start", "--log", "info", "--user", "root", "--pass", "root"},
			WaitingFor:   wait.ForLog("Started web server").WithStartupTimeout(60 * time.Second),
		},
		Started: true,
	})
	if err != nil {
		log.Fatalf("Failed to start SurrealDB container: %v", err)
	}

	host, err := testContainer.Host(ctx)
	if err != nil {
		log.Fatalf("Failed to get container host: %v", err)
	}
	// Workaround: testcontainers may return "null" as host in some environments
	if host == "" || host == "null" {
		host = "localhost"
	}
	mappedPort, err := testContainer.MappedPort(ctx, "8000")
	if err != nil {
		log.Fatalf("Failed to get mapped port: %v", err)
	}

	testDB, err = NewClient(ctx, Config{
		URL:       fmt.Sprintf("ws://%s:%s/rpc", host, mappedPort.Port()),
		Namespace: "test",
		Database:  "test",
		Username:  "root",
		Password:  "root",
		AuthLevel: "root",
	}, nil)
	if err != nil {
		log.Fatalf("Failed to connect to test database: %v", err)
	}

	if err := testDB.InitSchema(ctx); err != nil {
		log.Fatalf("Failed to initialize schema: %v", err)
	}

	code := m.Run()

	_ = testDB.Close(ctx)
	_ = testContainer.Terminate(ctx)

	os.Exit(code)
}

func testItem(id, resource string, order int) models.ReviewItem {
	return models.ReviewItem{
		ID:         id,
		ResourceID: resource,
		Reviewer:   "R1",
		Summary:    "summary for " + id,
		Priority:   models.PriorityMedium,
		Severity:   models.SeverityMinor,
		Status:     models.ItemStatusOpen,
		SortOrder:  order,
		CreatedAt:  time.Now().UTC().Truncate(time.Millisecond),
	}
}

// =============================================================================
// JOB TESTS
// =============================================================================

func TestSaveAndGetJob(t *testing.T) {
	ctx := context.Background()
	defer func() { _ = testDB.WipeData(ctx) }()

	snap := models.JobSnapshot{
		ID:          "job-save-1",
		ResourceID:  "paper-1",
		Status:      models.JobStatusRunning,
		CurrentStep: models.StepSummarizing,
		Progress:    65,
		Logs: []models.LogEntry{
			{Timestamp: time.Now().UTC().Truncate(time.Millisecond), Level: "info", Message: "started"},
		},
		CreatedAt: time.Now().UTC().Truncate(time.Millisecond),
		UpdatedAt: time.Now().UTC().Truncate(time.Millisecond),
	}
	if err := testDB.SaveJob(ctx, snap); err != nil {
		t.Fatalf("SaveJob failed: %v", err)
	}

	got, err := testDB.GetJob(ctx, "job-save-1")
	if err != nil {
		t.Fatalf("GetJob failed: %v", err)
	}
	if got.Status != models.JobStatusRunning {
		t.Errorf("Expected status running, got %q", got.Status)
	}
	if got.Progress != 65 {
		t.Errorf("Expected progress 65, got %d", got.Progress)
	}
	if len(got.Logs) != 1 || got.Logs[0].Message != "started" {
		t.Errorf("Expected one log entry 'started', got %+v", got.Logs)
	}

	// Upsert with the same id updates in place.
	snap.Status = models.JobStatusCompleted
	snap.Progress = 100
	if err := testDB.SaveJob(ctx, snap); err != nil {
		t.Fatalf("SaveJob update failed: %v", err)
	}
	got, err = testDB.GetJob(ctx, "job-save-1")
	if err != nil {
		t.Fatalf("GetJob after update failed: %v", err)
	}
	if got.Status != models.JobStatusCompleted || got.Progress != 100 {
		t.Errorf("Expected completed/100, got %q/%d", got.Status, got.Progress)
	}
}

func TestGetJobNotFound(t *testing.T) {
	_, err := testDB.GetJob(context.Background(), "no-such-job")
	if !errors.Is(err, ErrNotFound) {
		t.Errorf("Expected ErrNotFound, got %v", err)
	}
}

func TestListJobsByResource(t *testing.T) {
	ctx := context.Background()
	defer func() { _ = testDB.WipeData(ctx) }()

	for i, id := range []string{"job-l1", "job-l2"} {
		snap := models.JobSnapshot{
			ID:          id,
			ResourceID:  "paper-list",
			Status:      models.JobStatusCompleted,
			CurrentStep: models.StepCompleted,
			Progress:    100,
			CreatedAt:   time.Now().UTC().Add(time.Duration(i) * time.Second).Truncate(time.Millisecond),
			UpdatedAt:   time.Now().UTC().Truncate(time.Millisecond),
		}
		if err := testDB.SaveJob(ctx, snap); err != nil {
			t.Fatalf("SaveJob failed: %v", err)
		}
	}

	jobs, err := testDB.ListJobs(ctx, "paper-list")
	if err != nil {
		t.Fatalf("ListJobs failed: %v", err)
	}
	if len(jobs) != 2 {
		t.Fatalf("Expected 2 jobs, got %d", len(jobs))
	}
	if jobs[0].ID != "job-l2" {
		t.Errorf("Expected newest job first, got %q", jobs[0].ID)
	}
}

// =============================================================================
// REVIEW ITEM TESTS
// =============================================================================

func TestReplaceAndListItems(t *testing.T) {
	ctx := context.Background()
	defer func() { _ = testDB.WipeData(ctx) }()

	items := []models.ReviewItem{
		testItem("item-a", "paper-2", 1),
		testItem("item-b", "paper-2", 0),
	}
	if err := testDB.ReplaceItems(ctx, "paper-2", items); err != nil {
		t.Fatalf("ReplaceItems failed: %v", err)
	}

	got, err := testDB.ListItems(ctx, "paper-2")
	if err != nil {
		t.Fatalf("ListItems failed: %v", err)
	}
	if len(got) != 2 {
		t.Fatalf("Expected 2 items, got %d", len(got))
	}
	if got[0].ID != "item-b" || got[1].ID != "item-a" {
		t.Errorf("Expected sort_order ordering item-b, item-a, got %q, %q", got[0].ID, got[1].ID)
	}
	if got[0].Summary != "summary for item-b" {
		t.Errorf("Unexpected summary %q", got[0].Summary)
	}

	// A second replacement fully supersedes the first set.
	if err := testDB.ReplaceItems(ctx, "paper-2", []models.ReviewItem{
		testItem("item-c", "paper-2", 0),
	}); err != nil {
		t.Fatalf("ReplaceItems second run failed: %v", err)
	}
	got, err = testDB.ListItems(ctx, "paper-2")
	if err != nil {
		t.Fatalf("ListItems after replace failed: %v", err)
	}
	if len(got) != 1 || got[0].ID != "item-c" {
		t.Errorf("Expected only item-c after replacement, got %+v", got)
	}
}

func TestReplaceItemsScopedToResource(t *testing.T) {
	ctx := context.Background()
	defer func() { _ = testDB.WipeData(ctx) }()

	if err := testDB.ReplaceItems(ctx, "paper-x", []models.ReviewItem{testItem("item-x", "paper-x", 0)}); err != nil {
		t.Fatalf("ReplaceItems failed: %v", err)
	}
	if err := testDB.ReplaceItems(ctx, "paper-y", []models.ReviewItem{testItem("item-y", "paper-y", 0)}); err != nil {
		t.Fatalf("ReplaceItems failed: %v", err)
	}

	got, err := testDB.ListItems(ctx, "paper-x")
	if err != nil {
		t.Fatalf("ListItems failed: %v", err)
	}
	if len(got) != 1 || got[0].ID != "item-x" {
		t.Errorf("Replacement for paper-y must not touch paper-x, got %+v", got)
	}
}

func TestUpdateSortOrders(t *testing.T) {
	ctx := context.Background()
	defer func() { _ = testDB.WipeData(ctx) }()

	items := []models.ReviewItem{
		testItem("item-1", "paper-3", 0),
		testItem("item-2", "paper-3", 1),
		testItem("item-3", "paper-3", 2),
	}
	if err := testDB.ReplaceItems(ctx, "paper-3", items); err != nil {
		t.Fatalf("ReplaceItems failed: %v", err)
	}

	// Reverse the order.
	items[0].SortOrder = 2
	items[2].SortOrder = 0
	if err := testDB.UpdateSortOrders(ctx, items); err != nil {
		t.Fatalf("UpdateSortOrders failed: %v", err)
	}

	got, err := testDB.ListItems(ctx, "paper-3")
	if err != nil {
		t.Fatalf("ListItems failed: %v", err)
	}
	if got[0].ID != "item-3" || got[2].ID != "item-1" {
		t.Errorf("Expected reversed order, got %q first and %q last", got[0].ID, got[2].ID)
	}
}

func TestUpdateItemStatus(t *testing.T) {
	ctx := context.Background()
	defer func() { _ = testDB.WipeData(ctx) }()

	if err := testDB.ReplaceItems(ctx, "paper-4", []models.ReviewItem{testItem("item-s", "paper-4", 0)}); err != nil {
		t.Fatalf("ReplaceItems failed: %v", err)
	}

	updated, err := testDB.UpdateItemStatus(ctx, "item-s", models.ItemStatusDone)
	if err != nil {
		t.Fatalf("UpdateItemStatus failed: %v", err)
	}
	if updated.Status != models.ItemStatusDone {
		t.Errorf("Expected status done, got %q", updated.Status)
	}

	_, err = testDB.UpdateItemStatus(ctx, "no-such-item", models.ItemStatusDone)
	if !errors.Is(err, ErrNotFound) {
		t.Errorf("Expected ErrNotFound, got %v", err)
	}
}

// =============================================================================
// AGENT REQUEST TESTS
// =============================================================================

func TestAgentRequestLifecycle(t *testing.T) {
	ctx := context.Background()
	defer func() { _ = testDB.WipeData(ctx) }()

	req := models.AgentRequest{
		ID:          "req-1",
		ResourceID:  "paper-5",
		ContextTag:  "summary",
		Prompt:      "Summarize the revision state.",
		Status:      models.RequestStatusPending,
		SubmittedAt: time.Now().UTC().Truncate(time.Millisecond),
	}
	if err := testDB.CreateRequest(ctx, req); err != nil {
		t.Fatalf("CreateRequest failed: %v", err)
	}

	pending, err := testDB.PendingRequests(ctx)
	if err != nil {
		t.Fatalf("PendingRequests failed: %v", err)
	}
	if len(pending) != 1 || pending[0].ID != "req-1" {
		t.Fatalf("Expected req-1 pending, got %+v", pending)
	}

	if err := testDB.CompleteRequest(ctx, "req-1", "done and dusted"); err != nil {
		t.Fatalf("CompleteRequest failed: %v", err)
	}

	got, err := testDB.GetRequest(ctx, "req-1")
	if err != nil {
		t.Fatalf("GetRequest failed: %v", err)
	}
	if got == nil || got.Status != models.RequestStatusCompleted {
		t.Fatalf("Expected completed request, got %+v", got)
	}
	if got.Response != "done and dusted" {
		t.Errorf("Unexpected response %q", got.Response)
	}

	pending, err = testDB.PendingRequests(ctx)
	if err != nil {
		t.Fatalf("PendingRequests failed: %v", err)
	}
	if len(pending) != 0 {
		t.Errorf("Expected no pending requests, got %d", len(pending))
	}
}

func TestGetRequestUnknownReturnsNil(t *testing.T) {
	got, err := testDB.GetRequest(context.Background(), "no-such-request")
	if err != nil {
		t.Fatalf("GetRequest failed: %v", err)
	}
	if got != nil {
		t.Errorf("Expected nil for unknown request, got %+v", got)
	}
}
