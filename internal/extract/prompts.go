package extract

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"
)

// Prompts holds the instruction templates sent to the agent. Each template
// is completed with fmt verbs by its processor.
type Prompts struct {
	Manuscript string `yaml:"manuscript"`
	Review     string `yaml:"review"`
	Auxiliary  string `yaml:"auxiliary"`
	Summarize  string `yaml:"summarize"`
	Extract    string `yaml:"extract"`
}

// DefaultPrompts returns the built-in templates.
func DefaultPrompts() Prompts {
	return Prompts{
		Manuscript: `You are assisting with a peer-review revision. Summarize this manuscript
so later questions about reviewer comments can be answered from your summary.
Cover: the core claim, methods, datasets, and the main limitations.

Manuscript (%s):
%s

Reply with the summary as prose, then a JSON object of the form
{"key_points": ["..."]} listing the points most likely to draw criticism.`,

		Review: `This is one reviewer report for the manuscript you summarized earlier.
Identify every distinct point the reviewer raises.

Review (%s):
%s

Reply with a short prose summary, then a JSON object of the form
{"items": [{"reviewer": "...", "summary": "...", "quote": "...",
"category": "...", "priority": "high|medium|low",
"severity": "major|minor"}]}.`,

		Auxiliary: `This is a supporting file for the manuscript you summarized earlier.
Prior summary for context:
%s

File (%s):
%s

Reply with a one-paragraph summary of what this file contributes, then a
JSON object of the form {"key_points": ["..."]}.`,

		Summarize: `Combine what you have seen of this paper and its reviews into a brief
revision overview: the manuscript's standing, the main lines of criticism,
and any conflicts between reviewers.

Material:
%s

Reply with prose only.`,

		Extract: `Produce the final normalized list of review items for this paper from
everything discussed so far.

Digest:
%s

Reply with a JSON object of the form
{"items": [{"reviewer": "...", "summary": "...", "quote": "...",
"category": "...", "priority": "high|medium|low", "severity": "major|minor",
"suggested_response": "..."}]}. Every distinct reviewer point must appear
exactly once. The JSON object is required.`,
	}
}

// LoadPrompts reads a YAML file of template overrides and merges non-empty
// fields over the defaults.
func LoadPrompts(path string) (Prompts, error) {
	prompts := DefaultPrompts()
	if path == "" {
		return prompts, nil
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return prompts, fmt.Errorf("read prompts file: %w", err)
	}

	var overrides Prompts
	if err := yaml.Unmarshal(data, &overrides); err != nil {
		return prompts, fmt.Errorf("parse prompts file: %w", err)
	}

	if overrides.Manuscript != "" {
		prompts.Manuscript = overrides.Manuscript
	}
	if overrides.Review != "" {
		prompts.Review = overrides.Review
	}
	if overrides.Auxiliary != "" {
		prompts.Auxiliary = overrides.Auxiliary
	}
	if overrides.Summarize != "" {
		prompts.Summarize = overrides.Summarize
	}
	if overrides.Extract != "" {
		prompts.Extract = overrides.Extract
	}
	return prompts, nil
}
