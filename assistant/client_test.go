package assistant

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"artisan-canvas/canvas"
	"artisan-canvas/toolcall"

	"github.com/sirupsen/logrus/hooks/test"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestClient(t *testing.T, handler http.HandlerFunc) *Client {
	t.Helper()
	srv := httptest.NewServer(handler)
	t.Cleanup(srv.Close)

	logger, _ := test.NewNullLogger()
	return NewClient(context.Background(), Config{APIKey: "sk-test", BaseURL: srv.URL + "/", Model: "test-model"}, WithLogger(logger))
}

func TestClient_Respond(t *testing.T) {
	var got chatCompletionRequest
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/v1/chat/completions", r.URL.Path)
		assert.Equal(t, "Bearer sk-test", r.Header.Get("Authorization"))
		assert.NoError(t, json.NewDecoder(r.Body).Decode(&got))

		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(`{
			"id": "cmpl-1",
			"choices": [{
				"index": 0,
				"finish_reason": "tool_calls",
				"message": {
					"role": "assistant",
					"content": "Added a red circle.",
					"tool_calls": [
						{"id": "call_1", "type": "function", "function": {"name": "canvas_tool", "arguments": "{\"action\":\"add\",\"elementType\":\"circle\",\"properties\":{\"color\":\"#ff0000\"}}"}},
						{"id": "call_2", "type": "function", "function": {"name": "web_search", "arguments": ""}}
					]
				}
			}]
		}`))
	})

	transcript := []Message{
		NewMessage(RoleUser, "add a red circle"),
		{Role: RoleAssistant, Summaries: []string{"Added a new text"}},
		{Role: RoleAssistant},
	}
	reply, err := c.Respond(context.Background(), transcript, canvas.New().State())
	require.NoError(t, err)

	assert.Equal(t, "Added a red circle.", reply.Content)
	require.Len(t, reply.ToolCalls, 2)
	assert.Equal(t, toolcall.ToolName, reply.ToolCalls[0].Name)
	assert.JSONEq(t, `{"action":"add","elementType":"circle","properties":{"color":"#ff0000"}}`, string(reply.ToolCalls[0].Result))
	assert.Nil(t, reply.ToolCalls[1].Result)

	assert.Equal(t, "test-model", got.Model)
	require.Len(t, got.Tools, 1)
	assert.Equal(t, toolcall.ToolName, got.Tools[0].Function.Name)
	require.Len(t, got.Messages, 3, "system prompt plus two non-empty transcript entries")
	assert.Equal(t, "system", got.Messages[0].Role)
	assert.Contains(t, got.Messages[0].Content, `"canvasWidth":800`)
	assert.Equal(t, "add a red circle", got.Messages[1].Content)
	assert.Equal(t, "Added a new text", got.Messages[2].Content)
}

func TestClient_RespondStatusError(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "rate limited", http.StatusTooManyRequests)
	})

	_, err := c.Respond(context.Background(), nil, canvas.New().State())

	var statusErr *StatusError
	require.True(t, errors.As(err, &statusErr))
	assert.Equal(t, http.StatusTooManyRequests, statusErr.StatusCode)
	assert.Equal(t, "rate limited", statusErr.Body)
}

func TestClient_RespondNoChoices(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{"id":"cmpl-2","choices":[]}`))
	})

	_, err := c.Respond(context.Background(), nil, canvas.New().State())
	assert.Error(t, err)
}

func TestClient_NotConfigured(t *testing.T) {
	c := NewClient(context.Background(), Config{BaseURL: "http://127.0.0.1:1"})

	_, err := c.Respond(context.Background(), nil, canvas.New().State())
	assert.ErrorIs(t, err, ErrNotConfigured)
}

func TestConfigFromEnv(t *testing.T) {
	t.Run("defaults", func(t *testing.T) {
		t.Setenv("ASSISTANT_API_KEY", "")
		t.Setenv("OPENAI_API_KEY", "")
		t.Setenv("ASSISTANT_BASE_URL", "")
		t.Setenv("OPENAI_BASE_URL", "")
		t.Setenv("ASSISTANT_MODEL", "")

		cfg := ConfigFromEnv()
		assert.False(t, cfg.Enabled())
		assert.Equal(t, "https://api.openai.com", cfg.BaseURL)
		assert.Equal(t, "gpt-4o-mini", cfg.Model)
	})

	t.Run("openai fallback", func(t *testing.T) {
		t.Setenv("ASSISTANT_API_KEY", "")
		t.Setenv("OPENAI_API_KEY", "sk-openai")
		t.Setenv("ASSISTANT_BASE_URL", "")
		t.Setenv("OPENAI_BASE_URL", "http://proxy")

		cfg := ConfigFromEnv()
		assert.Equal(t, "sk-openai", cfg.APIKey)
		assert.Equal(t, "http://proxy", cfg.BaseURL)
	})

	t.Run("assistant names win", func(t *testing.T) {
		t.Setenv("ASSISTANT_API_KEY", "sk-artisan")
		t.Setenv("OPENAI_API_KEY", "sk-openai")

		assert.Equal(t, "sk-artisan", ConfigFromEnv().APIKey)
	})
}

func TestNewMessage(t *testing.T) {
	a := NewMessage(RoleUser, "hi")
	b := NewMessage(RoleUser, "hi")

	assert.NotEqual(t, a.ID, b.ID)
	assert.NotZero(t, a.Timestamp)
}
