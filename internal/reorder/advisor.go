// Package reorder proposes a working order for open review items. The agent
// is asked for an ordering by id; when its reply is unusable the advisor
// falls back to a deterministic priority sort so the caller always gets a
// complete ordering back.
package reorder

import (
	"context"
	"fmt"
	"log/slog"
	"slices"
	"strings"

	"github.com/mgrundel/reviso/internal/agent"
	"github.com/mgrundel/reviso/internal/models"
	"github.com/mgrundel/reviso/internal/payload"
)

// Advisor ranks review items.
type Advisor struct {
	agent  agent.Caller
	logger *slog.Logger
}

// NewAdvisor creates an advisor backed by the given agent caller.
func NewAdvisor(caller agent.Caller, logger *slog.Logger) *Advisor {
	if logger == nil {
		logger = slog.Default()
	}
	return &Advisor{agent: caller, logger: logger}
}

// ProposeOrder returns the open items in suggested working order with
// contiguous sort orders assigned. Done items are excluded from the
// proposal. Every open item appears exactly once: ids the agent omits are
// appended at the end, ids it invents are ignored.
func (a *Advisor) ProposeOrder(ctx context.Context, items []models.ReviewItem) []models.ReviewItem {
	open := make([]models.ReviewItem, 0, len(items))
	for _, it := range items {
		if it.Status != models.ItemStatusDone {
			open = append(open, it)
		}
	}
	if len(open) < 2 {
		return assignOrder(open)
	}

	ordered, err := a.askAgent(ctx, open)
	if err != nil {
		a.logger.Warn("agent ordering unusable, falling back to priority sort", "error", err)
		ordered = prioritySort(open)
	}
	return assignOrder(ordered)
}

func (a *Advisor) askAgent(ctx context.Context, open []models.ReviewItem) ([]models.ReviewItem, error) {
	var b strings.Builder
	b.WriteString("Order the following review items so the most impactful work comes first. ")
	b.WriteString("Group related items together. Reply with a JSON array of the ids in the proposed order, nothing else.\n\n")
	for _, it := range open {
		fmt.Fprintf(&b, "%s: %s (%s priority, %s)\n", it.ID, it.Summary, it.Priority, it.Severity)
	}

	reply, err := a.agent.Send(ctx, open[0].ResourceID, b.String(), "reorder")
	if err != nil {
		return nil, err
	}
	ids, err := payload.IDs(reply)
	if err != nil {
		return nil, err
	}

	byID := make(map[string]models.ReviewItem, len(open))
	for _, it := range open {
		byID[it.ID] = it
	}

	ordered := make([]models.ReviewItem, 0, len(open))
	seen := make(map[string]bool, len(open))
	for _, id := range ids {
		it, ok := byID[id]
		if !ok || seen[id] {
			continue
		}
		seen[id] = true
		ordered = append(ordered, it)
	}
	// Items the agent dropped keep their relative order at the tail.
	for _, it := range open {
		if !seen[it.ID] {
			ordered = append(ordered, it)
		}
	}
	return ordered, nil
}

var priorityRank = map[models.Priority]int{
	models.PriorityHigh:   0,
	models.PriorityMedium: 1,
	models.PriorityLow:    2,
}

// prioritySort is the deterministic fallback: high before low, major before
// minor within a priority, original order otherwise.
func prioritySort(items []models.ReviewItem) []models.ReviewItem {
	out := make([]models.ReviewItem, len(items))
	copy(out, items)
	slices.SortStableFunc(out, func(a, b models.ReviewItem) int {
		if d := priorityRank[a.Priority] - priorityRank[b.Priority]; d != 0 {
			return d
		}
		if a.Severity != b.Severity {
			if a.Severity == models.SeverityMajor {
				return -1
			}
			return 1
		}
		return 0
	})
	return out
}

func assignOrder(items []models.ReviewItem) []models.ReviewItem {
	for i := range items {
		items[i].SortOrder = i
	}
	return items
}
