// Package extract turns raw input documents into summaries and candidate
// review items by way of the agent. Each document class has its own
// processor; all of them ask the agent to embed a JSON payload in its reply
// and treat a missing or malformed payload as a degraded result, not an
// error.
package extract

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/mgrundel/reviso/internal/agent"
	"github.com/mgrundel/reviso/internal/models"
	"github.com/mgrundel/reviso/internal/payload"
)

// Input is one document handed to a processor.
type Input struct {
	ResourceID   string
	Name         string
	Text         string
	PriorSummary string
}

// Result is what a processor produced: the prose summary and, when the
// agent's payload parsed, structured candidate items. Items is nil when the
// payload was absent or malformed; the summary is still usable.
type Result struct {
	Summary string
	Items   []models.ReviewItem
}

// Processor turns one raw input into a Result. Errors are agent failures
// only; payload parse failures degrade inside the Result.
type Processor interface {
	Process(ctx context.Context, in Input) (Result, error)
}

// Set bundles the per-class processors plus the two whole-resource calls.
type Set struct {
	Manuscript Processor
	Review     Processor
	Auxiliary  Processor

	caller  agent.Caller
	prompts Prompts
	logger  *slog.Logger
}

// NewSet creates the processor set for a caller.
func NewSet(caller agent.Caller, prompts Prompts, logger *slog.Logger) *Set {
	if logger == nil {
		logger = slog.Default()
	}
	s := &Set{caller: caller, prompts: prompts, logger: logger}
	s.Manuscript = &manuscriptProcessor{set: s}
	s.Review = &reviewProcessor{set: s}
	s.Auxiliary = &auxiliaryProcessor{set: s}
	return s
}

// Summarize asks the agent for the combined revision overview. Prose only,
// no payload expected.
func (s *Set) Summarize(ctx context.Context, resourceID, digest string) (string, error) {
	return s.caller.Send(ctx, resourceID, fmt.Sprintf(s.prompts.Summarize, digest), "summary")
}

// ExtractRecords asks the agent for the final normalized item list. Unlike
// the per-document processors this call requires the payload: a missing or
// malformed one surfaces as payload.ErrNoPayload / payload.ErrInvalidPayload
// so the pipeline can apply its placeholder policy.
func (s *Set) ExtractRecords(ctx context.Context, resourceID, digest string) ([]models.ReviewItem, error) {
	reply, err := s.caller.Send(ctx, resourceID, fmt.Sprintf(s.prompts.Extract, digest), "records")
	if err != nil {
		return nil, err
	}

	var decoded itemsPayload
	if err := payload.Unmarshal(reply, &decoded); err != nil {
		return nil, err
	}
	if len(decoded.Items) == 0 {
		return nil, fmt.Errorf("%w: empty item list", payload.ErrInvalidPayload)
	}
	return decoded.reviewItems(resourceID), nil
}

type manuscriptProcessor struct{ set *Set }

func (p *manuscriptProcessor) Process(ctx context.Context, in Input) (Result, error) {
	prompt := fmt.Sprintf(p.set.prompts.Manuscript, in.Name, in.Text)
	return p.set.call(ctx, in, prompt)
}

type reviewProcessor struct{ set *Set }

func (p *reviewProcessor) Process(ctx context.Context, in Input) (Result, error) {
	prompt := fmt.Sprintf(p.set.prompts.Review, in.Name, in.Text)
	return p.set.call(ctx, in, prompt)
}

type auxiliaryProcessor struct{ set *Set }

func (p *auxiliaryProcessor) Process(ctx context.Context, in Input) (Result, error) {
	prior := in.PriorSummary
	if prior == "" {
		prior = "(none yet)"
	}
	prompt := fmt.Sprintf(p.set.prompts.Auxiliary, prior, in.Name, in.Text)
	return p.set.call(ctx, in, prompt)
}

// call runs one agent exchange and splits the reply into prose summary and
// optional structured items.
func (s *Set) call(ctx context.Context, in Input, prompt string) (Result, error) {
	start := time.Now()
	reply, err := s.caller.Send(ctx, in.ResourceID, prompt, in.Name)
	if err != nil {
		return Result{}, err
	}
	s.logger.Debug("document processed",
		"resource_id", in.ResourceID,
		"file", in.Name,
		"duration_ms", time.Since(start).Milliseconds(),
	)

	result := Result{Summary: proseOf(reply)}

	var decoded itemsPayload
	if err := payload.Unmarshal(reply, &decoded); err != nil {
		if !errors.Is(err, payload.ErrNoPayload) {
			s.logger.Debug("payload did not parse", "file", in.Name, "error", err)
		}
		return result, nil
	}
	result.Items = decoded.reviewItems(in.ResourceID)
	return result, nil
}

// proseOf strips the embedded payload region from a reply, keeping the
// surrounding prose as the summary. Falls back to the full reply.
func proseOf(reply string) string {
	region, err := payload.Extract(reply)
	if err != nil {
		return strings.TrimSpace(reply)
	}
	return strings.TrimSpace(strings.Replace(reply, region, "", 1))
}

// itemsPayload is the JSON shape the prompts ask for.
type itemsPayload struct {
	Items []struct {
		Reviewer          string `json:"reviewer"`
		Summary           string `json:"summary"`
		Quote             string `json:"quote"`
		Category          string `json:"category"`
		Priority          string `json:"priority"`
		Severity          string `json:"severity"`
		SuggestedResponse string `json:"suggested_response"`
	} `json:"items"`
}

func (p itemsPayload) reviewItems(resourceID string) []models.ReviewItem {
	items := make([]models.ReviewItem, 0, len(p.Items))
	for _, it := range p.Items {
		if strings.TrimSpace(it.Summary) == "" {
			continue
		}
		items = append(items, models.ReviewItem{
			ResourceID:        resourceID,
			Reviewer:          it.Reviewer,
			Summary:           it.Summary,
			Quote:             it.Quote,
			Category:          it.Category,
			Priority:          normalizePriority(it.Priority),
			Severity:          normalizeSeverity(it.Severity),
			SuggestedResponse: it.SuggestedResponse,
			Status:            models.ItemStatusOpen,
		})
	}
	return items
}

func normalizePriority(s string) models.Priority {
	switch models.Priority(strings.ToLower(strings.TrimSpace(s))) {
	case models.PriorityHigh:
		return models.PriorityHigh
	case models.PriorityLow:
		return models.PriorityLow
	default:
		return models.PriorityMedium
	}
}

func normalizeSeverity(s string) models.Severity {
	if models.Severity(strings.ToLower(strings.TrimSpace(s))) == models.SeverityMajor {
		return models.SeverityMajor
	}
	return models.SeverityMinor
}
