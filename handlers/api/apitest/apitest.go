// Package apitest helps handler tests run requests as a logged-in session.
package apitest

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"artisan-canvas/handlers/auth"
	"artisan-canvas/middleware"
	"artisan-canvas/session"

	"github.com/go-chi/chi/v5"
	"github.com/sirupsen/logrus/hooks/test"
)

// SessionID is the session every request made through Router belongs to.
const SessionID = "test-session"

// AsSession stores claims for sessionID in the request context, standing in
// for middleware.AuthJWT.
func AsSession(sessionID string) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			claims := &auth.AppClaims{Name: "Tester"}
			claims.Subject = sessionID
			ctx := context.WithValue(r.Context(), middleware.ClaimsContextKey, claims)
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

// NewRegistry returns a quiet registry that is closed when the test ends.
func NewRegistry(t *testing.T, opts ...session.Option) *session.Registry {
	t.Helper()
	logger, _ := test.NewNullLogger()
	reg := session.NewRegistry(append([]session.Option{session.WithLogger(logger)}, opts...)...)
	t.Cleanup(reg.CloseAll)
	return reg
}

// Router returns a chi router whose requests belong to SessionID.
func Router() chi.Router {
	r := chi.NewRouter()
	r.Use(AsSession(SessionID))
	return r
}

// Do sends a request with an optional JSON body.
func Do(h http.Handler, method, path, body string) *httptest.ResponseRecorder {
	var req *http.Request
	if body == "" {
		req = httptest.NewRequest(method, path, nil)
	} else {
		req = httptest.NewRequest(method, path, strings.NewReader(body))
		req.Header.Set("Content-Type", "application/json")
	}
	rr := httptest.NewRecorder()
	h.ServeHTTP(rr, req)
	return rr
}

// Decode unmarshals a JSON response body, failing the test on error.
func Decode(t *testing.T, rr *httptest.ResponseRecorder, v any) {
	t.Helper()
	if err := json.Unmarshal(rr.Body.Bytes(), v); err != nil {
		t.Fatalf("failed to decode response %q: %v", rr.Body.String(), err)
	}
}
