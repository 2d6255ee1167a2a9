// Package agent wraps the external natural-language agent behind a small
// client with per-resource conversational sessions and an asynchronous
// request/response bridge for callers that cannot block on a call.
package agent

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/service/bedrockruntime"
	"github.com/tmc/langchaingo/llms"
	"github.com/tmc/langchaingo/llms/anthropic"
	"github.com/tmc/langchaingo/llms/bedrock"
	"github.com/tmc/langchaingo/llms/ollama"
	"github.com/tmc/langchaingo/llms/openai"

	"github.com/mgrundel/reviso/internal/config"
)

// Caller is the capability the pipeline and advisor depend on: send one
// prompt for a resource and get the agent's reply.
type Caller interface {
	Send(ctx context.Context, resourceID, prompt, contextTag string) (string, error)
}

// Client talks to the configured LLM provider, threading per-resource
// session history into every call.
type Client struct {
	llm       llms.Model
	modelName string
	sessions  *SessionRegistry
	logger    *slog.Logger
}

// NewClient creates an agent client based on configuration.
func NewClient(ctx context.Context, cfg config.Config, sessions *SessionRegistry, logger *slog.Logger) (*Client, error) {
	var model llms.Model
	var err error

	switch cfg.LLMProvider {
	case config.ProviderOllama:
		model, err = ollama.New(
			ollama.WithModel(cfg.LLMModel),
			ollama.WithServerURL(cfg.OllamaHost),
		)
		if err != nil {
			return nil, fmt.Errorf("create ollama model: %w", err)
		}

	case config.ProviderOpenAI:
		if cfg.OpenAIAPIKey == "" {
			return nil, fmt.Errorf("OpenAI API key required")
		}
		model, err = openai.New(
			openai.WithToken(cfg.OpenAIAPIKey),
			openai.WithModel(cfg.LLMModel),
		)
		if err != nil {
			return nil, fmt.Errorf("create openai model: %w", err)
		}

	case config.ProviderAnthropic:
		if cfg.AnthropicAPIKey == "" {
			return nil, fmt.Errorf("Anthropic API key required")
		}
		model, err = anthropic.New(
			anthropic.WithToken(cfg.AnthropicAPIKey),
			anthropic.WithModel(cfg.LLMModel),
		)
		if err != nil {
			return nil, fmt.Errorf("create anthropic model: %w", err)
		}

	case config.ProviderBedrock:
		awsCfg, awsErr := awsconfig.LoadDefaultConfig(ctx, awsconfig.WithRegion(cfg.BedrockRegion))
		if awsErr != nil {
			return nil, fmt.Errorf("load aws config: %w", awsErr)
		}
		model, err = bedrock.New(
			bedrock.WithClient(bedrockruntime.NewFromConfig(awsCfg)),
			bedrock.WithModel(cfg.LLMModel),
		)
		if err != nil {
			return nil, fmt.Errorf("create bedrock model: %w", err)
		}

	default:
		return nil, fmt.Errorf("unsupported LLM provider: %s", cfg.LLMProvider)
	}

	return NewClientWithModel(model, cfg.LLMModel, sessions, logger), nil
}

// NewClientWithModel wraps an existing langchaingo model. Used by tests and
// by callers that construct providers themselves.
func NewClientWithModel(model llms.Model, modelName string, sessions *SessionRegistry, logger *slog.Logger) *Client {
	if sessions == nil {
		sessions = NewSessionRegistry()
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &Client{
		llm:       model,
		modelName: modelName,
		sessions:  sessions,
		logger:    logger,
	}
}

// Model returns the configured model name.
func (c *Client) Model() string {
	return c.modelName
}

// Send sends a prompt for a resource and returns the agent's reply. The
// resource's session history rides along so the agent can use prior context;
// the session message counter is incremented on success only.
//
// A contextTag names the sub-item this call concerns (a reviewer, a file)
// and is prefixed into the prompt and the logs.
func (c *Client) Send(ctx context.Context, resourceID, prompt, contextTag string) (string, error) {
	if contextTag != "" {
		prompt = fmt.Sprintf("[context: %s]\n%s", contextTag, prompt)
	}

	// Capture the session up front. A concurrent reset swaps the registry
	// entry but cannot touch the history copy this call works against.
	sess := c.sessions.Get(resourceID)
	messages := sess.historyWith(prompt)

	start := time.Now()
	c.logger.Debug("agent call",
		"resource_id", resourceID,
		"session", sess.Handle(),
		"context_tag", contextTag,
		"prompt_len", len(prompt),
		"history", len(messages)-1,
	)

	resp, err := c.llm.GenerateContent(ctx, messages)
	duration := time.Since(start)
	if err != nil {
		c.logger.Warn("agent call failed",
			"resource_id", resourceID,
			"duration_ms", duration.Milliseconds(),
			"error", err,
		)
		return "", classify(err)
	}
	if len(resp.Choices) == 0 {
		return "", fmt.Errorf("%w: empty response", ErrAgent)
	}

	reply := resp.Choices[0].Content
	sess.record(prompt, reply)

	c.logger.Debug("agent call complete",
		"resource_id", resourceID,
		"duration_ms", duration.Milliseconds(),
		"reply_len", len(reply),
	)
	return reply, nil
}

// ResetSession discards the conversation for a resource. Safe to call at any
// time, including while a Send for the same resource is in flight.
func (c *Client) ResetSession(resourceID string) {
	c.sessions.Reset(resourceID)
	c.logger.Info("agent session reset", "resource_id", resourceID)
}

// SessionHandle returns the current session handle for a resource, creating
// the session if needed.
func (c *Client) SessionHandle(resourceID string) string {
	return c.sessions.Get(resourceID).Handle()
}
