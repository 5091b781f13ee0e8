// Package assistant talks to an OpenAI compatible chat completion service and
// turns its replies into canvas tool calls.
package assistant

import (
	"os"
	"time"

	"artisan-canvas/toolcall"

	"github.com/google/uuid"
)

const (
	RoleUser      = "user"
	RoleAssistant = "assistant"

	defaultBaseURL = "https://api.openai.com"
	defaultModel   = "gpt-4o-mini"
)

type (
	// Config holds the chat service settings.
	Config struct {
		APIKey  string
		BaseURL string
		Model   string
	}

	// Message is one entry of a design chat transcript.
	Message struct {
		ID        string              `json:"id"`
		Role      string              `json:"role"`
		Content   string              `json:"content"`
		ToolCalls []toolcall.ToolCall `json:"toolCalls,omitempty"`
		Summaries []string            `json:"summaries,omitempty"`
		Timestamp int64               `json:"timestamp"`
	}

	// Reply is the assistant's answer to one turn.
	Reply struct {
		Content   string
		ToolCalls []toolcall.ToolCall
	}
)

// ConfigFromEnv reads ASSISTANT_* variables, falling back to the OPENAI_*
// names.
func ConfigFromEnv() Config {
	cfg := Config{
		APIKey:  firstEnv("ASSISTANT_API_KEY", "OPENAI_API_KEY"),
		BaseURL: firstEnv("ASSISTANT_BASE_URL", "OPENAI_BASE_URL"),
		Model:   os.Getenv("ASSISTANT_MODEL"),
	}
	if cfg.BaseURL == "" {
		cfg.BaseURL = defaultBaseURL
	}
	if cfg.Model == "" {
		cfg.Model = defaultModel
	}
	return cfg
}

// Enabled reports whether an API key is configured.
func (c Config) Enabled() bool {
	return c.APIKey != ""
}

// NewMessage stamps a transcript entry with a fresh id and the current time.
func NewMessage(role, content string) Message {
	return Message{
		ID:        uuid.NewString(),
		Role:      role,
		Content:   content,
		Timestamp: time.Now().UnixMilli(),
	}
}

func firstEnv(keys ...string) string {
	for _, k := range keys {
		if v := os.Getenv(k); v != "" {
			return v
		}
	}
	return ""
}
