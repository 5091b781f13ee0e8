package assistant

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"

	"artisan-canvas/canvas"
	"artisan-canvas/core"
	"artisan-canvas/toolcall"

	"github.com/sirupsen/logrus"
	"golang.org/x/oauth2"
)

// ErrNotConfigured is returned when no API key is set.
var ErrNotConfigured = errors.New("assistant API key is not configured")

const systemPrompt = `You are Artisan, a graphic design assistant working on a single canvas.
Change the design only through the canvas_tool function. Coordinates are in canvas pixels with the origin at the top left.
When no elementId is given, updates apply to the selected element, or to the top-most element when nothing is selected.
Current canvas state:
`

// Structures for OpenAI compatibility

type (
	chatMessage struct {
		Role      string        `json:"role"`
		Content   string        `json:"content"`
		ToolCalls []apiToolCall `json:"tool_calls,omitempty"`
	}

	apiToolCall struct {
		ID       string `json:"id,omitempty"`
		Type     string `json:"type"`
		Function struct {
			Name      string `json:"name"`
			Arguments string `json:"arguments"`
		} `json:"function"`
	}

	toolDefinition struct {
		Type     string             `json:"type"`
		Function functionDefinition `json:"function"`
	}

	functionDefinition struct {
		Name        string         `json:"name"`
		Description string         `json:"description"`
		Parameters  map[string]any `json:"parameters"`
	}

	chatCompletionRequest struct {
		Model    string           `json:"model"`
		Messages []chatMessage    `json:"messages"`
		Tools    []toolDefinition `json:"tools"`
		Stream   bool             `json:"stream"`
	}

	chatCompletionResponse struct {
		ID      string `json:"id"`
		Choices []struct {
			Index        int         `json:"index"`
			Message      chatMessage `json:"message"`
			FinishReason string      `json:"finish_reason"`
		} `json:"choices"`
	}

	// Client is a chat completion client with canvas_tool support.
	Client struct {
		cfg  Config
		http *http.Client
		log  logrus.FieldLogger
	}

	// ClientOption configures a Client.
	ClientOption func(*Client)
)

// StatusError is returned for non-2xx answers from the chat service.
type StatusError struct {
	StatusCode int
	Body       string
}

func (e *StatusError) Error() string {
	return fmt.Sprintf("chat service returned %d: %s", e.StatusCode, e.Body)
}

// WithLogger sets the client's logger.
func WithLogger(log logrus.FieldLogger) ClientOption {
	return func(c *Client) {
		c.log = log
	}
}

// NewClient returns a client that authenticates with the configured API key
// as a static bearer token.
func NewClient(ctx context.Context, cfg Config, opts ...ClientOption) *Client {
	src := oauth2.StaticTokenSource(&oauth2.Token{AccessToken: cfg.APIKey, TokenType: "Bearer"})
	c := &Client{
		cfg:  cfg,
		http: oauth2.NewClient(ctx, src),
		log:  logrus.StandardLogger(),
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Respond sends the transcript and the current canvas to the chat service and
// returns the assistant's text together with its canvas tool calls.
func (c *Client) Respond(ctx context.Context, transcript []Message, state canvas.State) (Reply, error) {
	if !c.cfg.Enabled() {
		return Reply{}, ErrNotConfigured
	}

	body, err := json.Marshal(c.buildRequest(transcript, state))
	if err != nil {
		return Reply{}, err
	}

	url := strings.TrimRight(c.cfg.BaseURL, "/") + "/v1/chat/completions"
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(body))
	if err != nil {
		return Reply{}, err
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.http.Do(req)
	if err != nil {
		return Reply{}, fmt.Errorf("failed to reach chat service: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		msg, _ := io.ReadAll(io.LimitReader(resp.Body, 4096))
		c.log.WithField("status", resp.StatusCode).Warn("Chat service rejected request")
		return Reply{}, &StatusError{StatusCode: resp.StatusCode, Body: strings.TrimSpace(string(msg))}
	}

	var out chatCompletionResponse
	if err := json.NewDecoder(resp.Body).Decode(&out); err != nil {
		return Reply{}, fmt.Errorf("failed to decode chat response: %w", err)
	}
	if len(out.Choices) == 0 {
		return Reply{}, errors.New("chat response has no choices")
	}

	msg := out.Choices[0].Message
	reply := Reply{Content: msg.Content}
	for _, tc := range msg.ToolCalls {
		call := toolcall.ToolCall{Name: tc.Function.Name}
		if args := strings.TrimSpace(tc.Function.Arguments); args != "" {
			call.Result = json.RawMessage(args)
		}
		reply.ToolCalls = append(reply.ToolCalls, call)
	}

	c.log.WithFields(logrus.Fields{
		"completion_id": out.ID,
		"tool_calls":    len(reply.ToolCalls),
	}).Debug("Chat completion received")
	return reply, nil
}

func (c *Client) buildRequest(transcript []Message, state canvas.State) chatCompletionRequest {
	stateJSON, _ := json.Marshal(state)
	messages := []chatMessage{{Role: "system", Content: systemPrompt + string(stateJSON)}}

	for _, m := range transcript {
		content := m.Content
		if content == "" && len(m.Summaries) > 0 {
			content = strings.Join(m.Summaries, "; ")
		}
		if content == "" {
			continue
		}
		messages = append(messages, chatMessage{Role: m.Role, Content: content})
	}

	return chatCompletionRequest{
		Model:    c.cfg.Model,
		Messages: messages,
		Tools:    []toolDefinition{canvasTool()},
	}
}

func canvasTool() toolDefinition {
	types := make([]string, len(core.ElementTypes))
	for i, t := range core.ElementTypes {
		types[i] = string(t)
	}
	number := map[string]any{"type": "number"}
	str := map[string]any{"type": "string"}

	return toolDefinition{
		Type: "function",
		Function: functionDefinition{
			Name:        toolcall.ToolName,
			Description: "Add, update, delete or reorder elements on the design canvas.",
			Parameters: map[string]any{
				"type": "object",
				"properties": map[string]any{
					"action": map[string]any{
						"type": "string",
						"enum": []string{
							string(toolcall.ActionAdd),
							string(toolcall.ActionUpdate),
							string(toolcall.ActionDelete),
							string(toolcall.ActionBringToFront),
							string(toolcall.ActionSendToBack),
						},
					},
					"elementId":   str,
					"elementType": map[string]any{"type": "string", "enum": types},
					"properties": map[string]any{
						"type": "object",
						"properties": map[string]any{
							"x": number, "y": number, "width": number, "height": number,
							"rotation": number, "opacity": number, "fontSize": number,
							"color": str, "border": str, "imageSrc": str,
							"textContent": str, "fontFamily": str, "fontWeight": str,
						},
					},
				},
				"required": []string{"action"},
			},
		},
	}
}
