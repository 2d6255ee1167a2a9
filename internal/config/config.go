// Package config loads reviso configuration from the environment.
package config

import (
	"log/slog"
	"os"
	"strings"
	"time"
)

// LLM provider names.
const (
	ProviderOllama    = "ollama"
	ProviderOpenAI    = "openai"
	ProviderAnthropic = "anthropic"
	ProviderBedrock   = "bedrock"
)

// Config holds all configuration values.
type Config struct {
	// SurrealDB connection
	SurrealDBURL       string
	SurrealDBNamespace string
	SurrealDBDatabase  string
	SurrealDBUser      string
	SurrealDBPass      string
	SurrealDBAuthLevel string

	// LLM agent
	LLMProvider     string
	LLMModel        string
	OllamaHost      string
	OpenAIAPIKey    string
	AnthropicAPIKey string
	BedrockRegion   string

	// Input file store root: <root>/<resource_id>/{manuscript,reviews,aux}
	FileRoot string

	// Optional YAML file overriding the built-in extraction prompts.
	PromptsFile string

	// HTTP server
	Port string

	// Async bridge worker
	BridgePollInterval time.Duration

	// Logging
	LogFile  string
	LogLevel slog.Level
}

// Load reads configuration from environment variables.
func Load() Config {
	return Config{
		SurrealDBURL:       getEnv("SURREALDB_URL", "ws://localhost:8000/rpc"),
		SurrealDBNamespace: getEnv("SURREALDB_NAMESPACE", "reviso"),
		SurrealDBDatabase:  getEnv("SURREALDB_DATABASE", "reviews"),
		SurrealDBUser:      getEnv("SURREALDB_USER", "root"),
		SurrealDBPass:      getEnv("SURREALDB_PASS", "root"),
		SurrealDBAuthLevel: getEnv("SURREALDB_AUTH_LEVEL", "root"),

		LLMProvider:     getEnv("REVISO_LLM_PROVIDER", ProviderOllama),
		LLMModel:        getEnv("REVISO_LLM_MODEL", "llama3.1"),
		OllamaHost:      getEnv("OLLAMA_HOST", "http://localhost:11434"),
		OpenAIAPIKey:    os.Getenv("OPENAI_API_KEY"),
		AnthropicAPIKey: os.Getenv("ANTHROPIC_API_KEY"),
		BedrockRegion:   getEnv("AWS_REGION", "us-east-1"),

		FileRoot:    getEnv("REVISO_FILE_ROOT", "./data"),
		PromptsFile: os.Getenv("REVISO_PROMPTS_FILE"),

		Port: getEnv("REVISO_PORT", "8486"),

		BridgePollInterval: getDuration("REVISO_BRIDGE_POLL_INTERVAL", 2*time.Second),

		LogFile:  getEnv("REVISO_LOG_FILE", "/tmp/reviso.log"),
		LogLevel: parseLogLevel(getEnv("REVISO_LOG_LEVEL", "INFO")),
	}
}

func getEnv(key, defaultVal string) string {
	if val := os.Getenv(key); val != "" {
		return val
	}
	return defaultVal
}

func getDuration(key string, defaultVal time.Duration) time.Duration {
	if val := os.Getenv(key); val != "" {
		if d, err := time.ParseDuration(val); err == nil {
			return d
		}
	}
	return defaultVal
}

func parseLogLevel(s string) slog.Level {
	switch strings.ToUpper(s) {
	case "DEBUG":
		return slog.LevelDebug
	case "INFO":
		return slog.LevelInfo
	case "WARN", "WARNING":
		return slog.LevelWarn
	case "ERROR":
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}
