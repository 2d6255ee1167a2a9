package extract

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mgrundel/reviso/internal/models"
	"github.com/mgrundel/reviso/internal/payload"
)

type fakeCaller struct {
	reply  string
	err    error
	prompt string
	tag    string
}

func (f *fakeCaller) Send(_ context.Context, _, prompt, tag string) (string, error) {
	f.prompt = prompt
	f.tag = tag
	return f.reply, f.err
}

func TestManuscriptProcessorSplitsProseAndPayload(t *testing.T) {
	caller := &fakeCaller{reply: `The paper proposes a new caching scheme.
{"items": [{"reviewer": "R1", "summary": "Benchmarks are too narrow", "priority": "high", "severity": "major"}]}
That is my assessment.`}
	set := NewSet(caller, DefaultPrompts(), nil)

	res, err := set.Manuscript.Process(context.Background(), Input{
		ResourceID: "paper-42",
		Name:       "paper.md",
		Text:       "manuscript body",
	})

	require.NoError(t, err)
	assert.Contains(t, caller.prompt, "paper.md")
	assert.Contains(t, caller.prompt, "manuscript body")
	assert.Equal(t, "paper.md", caller.tag)

	assert.Contains(t, res.Summary, "caching scheme")
	assert.NotContains(t, res.Summary, `"items"`)

	require.Len(t, res.Items, 1)
	assert.Equal(t, "Benchmarks are too narrow", res.Items[0].Summary)
	assert.Equal(t, models.PriorityHigh, res.Items[0].Priority)
	assert.Equal(t, "paper-42", res.Items[0].ResourceID)
}

func TestProcessorDegradesWithoutPayload(t *testing.T) {
	caller := &fakeCaller{reply: "Just prose, no structure here."}
	set := NewSet(caller, DefaultPrompts(), nil)

	res, err := set.Review.Process(context.Background(), Input{
		ResourceID: "paper-42",
		Name:       "review1.txt",
		Text:       "the review",
	})

	require.NoError(t, err)
	assert.Equal(t, "Just prose, no structure here.", res.Summary)
	assert.Nil(t, res.Items)
}

func TestProcessorPropagatesAgentError(t *testing.T) {
	caller := &fakeCaller{err: errors.New("agent unavailable")}
	set := NewSet(caller, DefaultPrompts(), nil)

	_, err := set.Review.Process(context.Background(), Input{
		ResourceID: "paper-42",
		Name:       "review1.txt",
		Text:       "the review",
	})

	assert.ErrorContains(t, err, "agent unavailable")
}

func TestAuxiliaryProcessorUsesPriorSummary(t *testing.T) {
	caller := &fakeCaller{reply: "Supplementary tables."}
	set := NewSet(caller, DefaultPrompts(), nil)

	_, err := set.Auxiliary.Process(context.Background(), Input{
		ResourceID:   "paper-42",
		Name:         "tables.csv",
		Text:         "a,b,c",
		PriorSummary: "the manuscript is about caching",
	})

	require.NoError(t, err)
	assert.Contains(t, caller.prompt, "the manuscript is about caching")

	// Without a prior summary the slot is filled with a placeholder.
	_, err = set.Auxiliary.Process(context.Background(), Input{
		ResourceID: "paper-42",
		Name:       "tables.csv",
		Text:       "a,b,c",
	})
	require.NoError(t, err)
	assert.Contains(t, caller.prompt, "(none yet)")
}

func TestExtractRecords(t *testing.T) {
	caller := &fakeCaller{reply: `Here is the list:
{"items": [
  {"reviewer": "R1", "summary": "Fix the statistics", "priority": "high", "severity": "major", "suggested_response": "Redo the test"},
  {"reviewer": "R2", "summary": "Typos in section 3", "priority": "whatever", "severity": ""}
]}`}
	set := NewSet(caller, DefaultPrompts(), nil)

	items, err := set.ExtractRecords(context.Background(), "paper-42", "digest text")

	require.NoError(t, err)
	assert.Equal(t, "records", caller.tag)
	require.Len(t, items, 2)
	assert.Equal(t, "Redo the test", items[0].SuggestedResponse)

	// Unknown ranks normalize to the defaults.
	assert.Equal(t, models.PriorityMedium, items[1].Priority)
	assert.Equal(t, models.SeverityMinor, items[1].Severity)
	assert.Equal(t, models.ItemStatusOpen, items[1].Status)
}

func TestExtractRecordsRequiresPayload(t *testing.T) {
	set := NewSet(&fakeCaller{reply: "Sorry, I lost the thread."}, DefaultPrompts(), nil)

	_, err := set.ExtractRecords(context.Background(), "paper-42", "digest")
	assert.ErrorIs(t, err, payload.ErrNoPayload)

	set = NewSet(&fakeCaller{reply: `{"items": []}`}, DefaultPrompts(), nil)
	_, err = set.ExtractRecords(context.Background(), "paper-42", "digest")
	assert.ErrorIs(t, err, payload.ErrInvalidPayload)
}

func TestExtractRecordsSkipsEmptySummaries(t *testing.T) {
	caller := &fakeCaller{reply: `{"items": [
  {"reviewer": "R1", "summary": "  "},
  {"reviewer": "R1", "summary": "A real point"}
]}`}
	set := NewSet(caller, DefaultPrompts(), nil)

	items, err := set.ExtractRecords(context.Background(), "paper-42", "digest")
	require.NoError(t, err)
	require.Len(t, items, 1)
	assert.Equal(t, "A real point", items[0].Summary)
}

func TestLoadPromptsMergesOverrides(t *testing.T) {
	path := filepath.Join(t.TempDir(), "prompts.yaml")
	require.NoError(t, os.WriteFile(path, []byte("summarize: |\n  Custom overview of %s\n"), 0644))

	prompts, err := LoadPrompts(path)
	require.NoError(t, err)

	assert.Contains(t, prompts.Summarize, "Custom overview")
	// Untouched fields keep the defaults.
	assert.Equal(t, DefaultPrompts().Extract, prompts.Extract)
}

func TestLoadPromptsMissingFile(t *testing.T) {
	_, err := LoadPrompts("/nonexistent/prompts.yaml")
	assert.Error(t, err)

	prompts, err := LoadPrompts("")
	require.NoError(t, err)
	assert.Equal(t, DefaultPrompts(), prompts)
}
