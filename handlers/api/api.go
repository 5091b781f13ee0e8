// Package api holds what the /api/v2 handlers share: finding the caller's
// editor and rendering errors.
package api

import (
	"context"
	"errors"
	"net/http"

	"artisan-canvas/middleware"
	"artisan-canvas/session"

	"github.com/go-chi/render"
	"github.com/sirupsen/logrus"
)

// Editors hands out the editor of a session. *session.Registry satisfies it.
type Editors interface {
	Get(sessionID string) *session.Editor
}

// EditorFor returns the editor of the authenticated caller. It writes a 401
// and reports false when the request carries no claims.
func EditorFor(w http.ResponseWriter, r *http.Request, editors Editors) (*session.Editor, bool) {
	claims, ok := middleware.Claims(r.Context())
	if !ok {
		RenderError(w, r, http.StatusUnauthorized, "User claims not found")
		return nil, false
	}
	return editors.Get(claims.Subject), true
}

// RenderError writes {"error": msg} with the given status.
func RenderError(w http.ResponseWriter, r *http.Request, status int, msg string) {
	render.Status(r, status)
	render.JSON(w, r, map[string]string{"error": msg})
}

// RenderEditorError maps an error returned by an editor call to a response.
func RenderEditorError(w http.ResponseWriter, r *http.Request, err error) {
	switch {
	case errors.Is(err, session.ErrClosed):
		RenderError(w, r, http.StatusServiceUnavailable, "Design session has ended")
	case errors.Is(err, context.Canceled), errors.Is(err, context.DeadlineExceeded):
		RenderError(w, r, http.StatusRequestTimeout, "Request cancelled")
	default:
		logrus.WithError(err).Error("Editor call failed")
		RenderError(w, r, http.StatusInternalServerError, "Internal server error")
	}
}
