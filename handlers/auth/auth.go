package auth

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"os"
	"strings"
	"time"

	"artisan-canvas/core"

	"github.com/go-chi/render"
	"github.com/golang-jwt/jwt/v5"
	"github.com/oklog/ulid/v2"
	"github.com/sirupsen/logrus"
)

const tokenTTL = time.Hour * 24 * 7

var (
	// ErrInvalidCredentials is returned for a failed login.
	ErrInvalidCredentials = errors.New("invalid email or password")
	// ErrLoggedOut is returned for a valid token whose session has ended.
	ErrLoggedOut = errors.New("session is logged out")
)

type (
	// AppClaims represents the custom claims for the JWT. The subject is the
	// session id.
	AppClaims struct {
		jwt.RegisteredClaims
		Email string `json:"email,omitempty"`
		Name  string `json:"name"`
	}

	// Config holds the mock account and the token signing secret.
	Config struct {
		Email    string
		Password string
		Name     string
		Secret   []byte
	}

	// Service issues and checks logins backed by a key-value store.
	Service struct {
		store    core.KVStore
		cfg      Config
		onLogout func(sessionID string)
		now      func() time.Time
	}

	// Option configures a Service.
	Option func(*Service)

	loginRequest struct {
		Email    string `json:"email"`
		Password string `json:"password"`
	}

	signupRequest struct {
		Name     string `json:"name"`
		Email    string `json:"email"`
		Password string `json:"password"`
	}

	loginResponse struct {
		Token string `json:"token"`
		core.AuthRecord
	}
)

// ConfigFromEnv reads MOCK_USER_* and JWT_SECRET.
func ConfigFromEnv() Config {
	cfg := Config{
		Email:    envOr("MOCK_USER_EMAIL", "demo@artisan.design"),
		Password: envOr("MOCK_USER_PASSWORD", "artisan"),
		Name:     envOr("MOCK_USER_NAME", "Demo Designer"),
		Secret:   []byte(os.Getenv("JWT_SECRET")),
	}
	if len(cfg.Secret) == 0 {
		logrus.Warn("JWT_SECRET is not set. Authentication will not work.")
	}
	return cfg
}

// WithLogoutHook registers a callback run after a session logs out.
func WithLogoutHook(fn func(sessionID string)) Option {
	return func(s *Service) {
		s.onLogout = fn
	}
}

// WithClock replaces time.Now for token timestamps.
func WithClock(now func() time.Time) Option {
	return func(s *Service) {
		s.now = now
	}
}

func NewService(store core.KVStore, cfg Config, opts ...Option) *Service {
	s := &Service{store: store, cfg: cfg, now: time.Now}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

func recordKey(sessionID string) string {
	return "auth/" + sessionID
}

// Login checks the credentials against the mock account and starts a session.
func (s *Service) Login(ctx context.Context, email, password string) (string, core.User, error) {
	if email != s.cfg.Email || password != s.cfg.Password {
		return "", core.User{}, ErrInvalidCredentials
	}
	user := core.User{Email: s.cfg.Email, Name: s.cfg.Name}
	token, err := s.startSession(ctx, user)
	return token, user, err
}

// Signup always succeeds and logs the new user in.
func (s *Service) Signup(ctx context.Context, name, email string) (string, core.User, error) {
	user := core.User{Email: email, Name: name}
	token, err := s.startSession(ctx, user)
	return token, user, err
}

func (s *Service) startSession(ctx context.Context, user core.User) (string, error) {
	sessionID := ulid.Make().String()
	record, err := json.Marshal(core.AuthRecord{IsLoggedIn: true, User: &user})
	if err != nil {
		return "", err
	}
	if err := s.store.Put(ctx, recordKey(sessionID), record); err != nil {
		return "", fmt.Errorf("failed to store session: %w", err)
	}

	token, err := s.CreateJWT(sessionID, user)
	if err != nil {
		return "", err
	}
	logrus.WithFields(logrus.Fields{"session_id": sessionID, "email": user.Email}).Info("User logged in")
	return token, nil
}

// Logout removes the session record and runs the logout hook.
func (s *Service) Logout(ctx context.Context, sessionID string) error {
	if err := s.store.Delete(ctx, recordKey(sessionID)); err != nil {
		return err
	}
	if s.onLogout != nil {
		s.onLogout(sessionID)
	}
	logrus.WithField("session_id", sessionID).Info("User logged out")
	return nil
}

// Record returns the stored login state. Missing or unreadable records read
// as logged out.
func (s *Service) Record(ctx context.Context, sessionID string) core.AuthRecord {
	data, err := s.store.Get(ctx, recordKey(sessionID))
	if err != nil {
		if !errors.Is(err, core.ErrNotFound) {
			logrus.WithError(err).WithField("session_id", sessionID).Error("Failed to read session record")
		}
		return core.AuthRecord{}
	}
	var record core.AuthRecord
	if err := json.Unmarshal(data, &record); err != nil || !record.IsLoggedIn {
		if err != nil {
			logrus.WithError(err).WithField("session_id", sessionID).Error("Failed to parse session record")
		}
		return core.AuthRecord{}
	}
	return record
}

// Authenticate validates a bearer token and checks that its session is still
// logged in.
func (s *Service) Authenticate(ctx context.Context, token string) (*AppClaims, error) {
	claims, err := s.ParseJWT(token)
	if err != nil {
		return nil, err
	}
	if !s.Record(ctx, claims.Subject).IsLoggedIn {
		return nil, ErrLoggedOut
	}
	return claims, nil
}

func (s *Service) CreateJWT(sessionID string, user core.User) (string, error) {
	now := s.now()
	claims := AppClaims{
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   sessionID,
			ExpiresAt: jwt.NewNumericDate(now.Add(tokenTTL)),
			IssuedAt:  jwt.NewNumericDate(now),
		},
		Email: user.Email,
		Name:  user.Name,
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	return token.SignedString(s.cfg.Secret)
}

func (s *Service) ParseJWT(tokenString string) (*AppClaims, error) {
	token, err := jwt.ParseWithClaims(tokenString, &AppClaims{}, func(token *jwt.Token) (interface{}, error) {
		if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method: %v", token.Header["alg"])
		}
		return s.cfg.Secret, nil
	}, jwt.WithTimeFunc(s.now))

	if err != nil {
		return nil, err
	}

	if claims, ok := token.Claims.(*AppClaims); ok && token.Valid && claims.Subject != "" {
		return claims, nil
	}

	return nil, fmt.Errorf("invalid token")
}

func (s *Service) HandleLogin() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req loginRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			render.Status(r, http.StatusBadRequest)
			render.JSON(w, r, map[string]string{"error": "Invalid request body"})
			return
		}

		token, user, err := s.Login(r.Context(), strings.TrimSpace(req.Email), req.Password)
		if err != nil {
			status := http.StatusInternalServerError
			if errors.Is(err, ErrInvalidCredentials) {
				status = http.StatusUnauthorized
			} else {
				logrus.WithError(err).Error("Login failed")
			}
			render.Status(r, status)
			render.JSON(w, r, map[string]string{"error": err.Error()})
			return
		}

		render.JSON(w, r, loginResponse{Token: token, AuthRecord: core.AuthRecord{IsLoggedIn: true, User: &user}})
	}
}

func (s *Service) HandleSignup() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req signupRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			render.Status(r, http.StatusBadRequest)
			render.JSON(w, r, map[string]string{"error": "Invalid request body"})
			return
		}

		token, user, err := s.Signup(r.Context(), strings.TrimSpace(req.Name), strings.TrimSpace(req.Email))
		if err != nil {
			logrus.WithError(err).Error("Signup failed")
			render.Status(r, http.StatusInternalServerError)
			render.JSON(w, r, map[string]string{"error": "Could not create account"})
			return
		}

		render.Status(r, http.StatusCreated)
		render.JSON(w, r, loginResponse{Token: token, AuthRecord: core.AuthRecord{IsLoggedIn: true, User: &user}})
	}
}

// HandleLogout ends the session named by the bearer token. It answers with
// the logged-out state even when the token is already unusable.
func (s *Service) HandleLogout() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if claims, err := s.ParseJWT(BearerToken(r)); err == nil {
			if err := s.Logout(r.Context(), claims.Subject); err != nil {
				logrus.WithError(err).Error("Logout failed")
				render.Status(r, http.StatusInternalServerError)
				render.JSON(w, r, map[string]string{"error": "Failed to log out"})
				return
			}
		}
		render.JSON(w, r, core.AuthRecord{})
	}
}

// HandleMe reports the caller's login state.
func (s *Service) HandleMe() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		claims, err := s.ParseJWT(BearerToken(r))
		if err != nil {
			render.JSON(w, r, core.AuthRecord{})
			return
		}
		render.JSON(w, r, s.Record(r.Context(), claims.Subject))
	}
}

// BearerToken extracts the token from an "Authorization: Bearer" header.
func BearerToken(r *http.Request) string {
	parts := strings.Split(r.Header.Get("Authorization"), " ")
	if len(parts) != 2 || strings.ToLower(parts[0]) != "bearer" {
		return ""
	}
	return parts[1]
}

func envOr(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}
