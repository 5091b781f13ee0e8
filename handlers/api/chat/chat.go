package chat

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"strings"

	"artisan-canvas/assistant"
	"artisan-canvas/canvas"
	"artisan-canvas/handlers/api"
	"artisan-canvas/session"
	"artisan-canvas/toolcall"

	"github.com/go-chi/render"
	"github.com/sirupsen/logrus"
)

type (
	messageRequest struct {
		Content string `json:"content"`
	}

	dispatchResponse struct {
		Results []toolcall.Result `json:"results"`
		State   canvas.State      `json:"state"`
	}
)

// HandleSendMessage runs one assistant turn and applies its canvas tool calls.
func HandleSendMessage(editors api.Editors) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req messageRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			api.RenderError(w, r, http.StatusBadRequest, "Invalid request body")
			return
		}
		content := strings.TrimSpace(req.Content)
		if content == "" {
			api.RenderError(w, r, http.StatusBadRequest, "Message content is required")
			return
		}

		editor, ok := api.EditorFor(w, r, editors)
		if !ok {
			return
		}
		turn, err := editor.Ask(r.Context(), content)
		if err != nil {
			renderAssistantError(w, r, err)
			return
		}
		render.JSON(w, r, turn)
	}
}

func HandleListMessages(editors api.Editors) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		editor, ok := api.EditorFor(w, r, editors)
		if !ok {
			return
		}
		render.JSON(w, r, editor.Transcript())
	}
}

func HandleClearMessages(editors api.Editors) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		editor, ok := api.EditorFor(w, r, editors)
		if !ok {
			return
		}
		editor.ClearTranscript()
		w.WriteHeader(http.StatusNoContent)
	}
}

// HandleDispatchToolCalls applies a batch of tool calls supplied by the client,
// e.g. when replaying the last assistant message of a stored chat.
func HandleDispatchToolCalls(editors api.Editors) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var calls []toolcall.ToolCall
		if err := json.NewDecoder(r.Body).Decode(&calls); err != nil {
			api.RenderError(w, r, http.StatusBadRequest, "Body must be an array of tool calls")
			return
		}

		editor, ok := api.EditorFor(w, r, editors)
		if !ok {
			return
		}
		results, state, err := editor.Dispatch(r.Context(), calls)
		if err != nil {
			api.RenderEditorError(w, r, err)
			return
		}
		if results == nil {
			results = []toolcall.Result{}
		}
		render.JSON(w, r, dispatchResponse{Results: results, State: state})
	}
}

func renderAssistantError(w http.ResponseWriter, r *http.Request, err error) {
	var statusErr *assistant.StatusError
	switch {
	case errors.Is(err, session.ErrNoAssistant), errors.Is(err, assistant.ErrNotConfigured):
		api.RenderError(w, r, http.StatusServiceUnavailable, "Assistant is not configured on the server")
	case errors.Is(err, session.ErrClosed), errors.Is(err, context.Canceled), errors.Is(err, context.DeadlineExceeded):
		api.RenderEditorError(w, r, err)
	case errors.As(err, &statusErr):
		api.RenderError(w, r, http.StatusBadGateway, "Assistant service error")
	default:
		logrus.WithError(err).Error("Assistant turn failed")
		api.RenderError(w, r, http.StatusBadGateway, "Assistant service unavailable")
	}
}
