package handlers

import (
	"encoding/json"
	"net/http"
	"time"

	"go.uber.org/zap"

	"github.com/moop-bio/moop-engine/pkg/apperrors"
	"github.com/moop-bio/moop-engine/pkg/auth"
	"github.com/moop-bio/moop-engine/pkg/config"
	"github.com/moop-bio/moop-engine/pkg/registry"
)

// tokenTTL is the lifetime of issued API bearer tokens.
const tokenTTL = 24 * time.Hour

// LoginRequest is the POST /login body.
type LoginRequest struct {
	Username string `json:"username"`
	Password string `json:"password"`
}

// LoginResponse confirms a login. Token is set when a JWT secret is
// configured; browser callers rely on the session cookie alone.
type LoginResponse struct {
	Username string `json:"username"`
	Admin    bool   `json:"admin"`
	Token    string `json:"token,omitempty"`
}

// AuthHandler serves login and logout.
type AuthHandler struct {
	registry *registry.Loader
	sessions *auth.SessionManager
	cfg      config.AuthConfig
	logger   *zap.Logger
}

// NewAuthHandler creates an AuthHandler.
func NewAuthHandler(reg *registry.Loader, sessions *auth.SessionManager, cfg config.AuthConfig, logger *zap.Logger) *AuthHandler {
	return &AuthHandler{registry: reg, sessions: sessions, cfg: cfg, logger: logger}
}

// RegisterRoutes registers the auth routes on the given mux.
func (h *AuthHandler) RegisterRoutes(mux *http.ServeMux) {
	mux.HandleFunc("POST /login", h.Login)
	mux.HandleFunc("POST /logout", h.Logout)
}

// Login handles POST /login. Credentials check against the current user
// file, so a revoked account is locked out without a restart. Missing
// accounts and wrong passwords share one answer.
func (h *AuthHandler) Login(w http.ResponseWriter, r *http.Request) {
	var body LoginRequest
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil || body.Username == "" {
		_ = ErrorResponse(w, http.StatusBadRequest, "invalid_request", "username and password are required")
		return
	}

	snap, err := h.registry.Snapshot()
	if err != nil {
		h.logger.Error("failed to load registry snapshot", zap.Error(err))
		_ = ServiceError(w, err)
		return
	}

	user, ok := snap.User(body.Username)
	if !ok || !user.CheckPassword(body.Password) {
		h.logger.Warn("failed login attempt", zap.String("username", body.Username))
		_ = ServiceError(w, apperrors.ErrInvalidLogin)
		return
	}

	if h.sessions != nil {
		if err := h.sessions.Establish(w, r, user.Name, user.Admin); err != nil {
			h.logger.Error("failed to establish session", zap.Error(err))
			_ = ErrorResponse(w, http.StatusInternalServerError, "session_error", "failed to establish session")
			return
		}
	}

	response := LoginResponse{Username: user.Name, Admin: user.Admin}
	if h.cfg.JWTSecret != "" {
		token, err := auth.IssueToken(h.cfg.JWTSecret, user.Name, user.Admin, tokenTTL)
		if err != nil {
			h.logger.Error("failed to issue token", zap.Error(err))
			_ = ErrorResponse(w, http.StatusInternalServerError, "token_error", "failed to issue token")
			return
		}
		response.Token = token
	}

	h.logger.Info("login", zap.String("username", user.Name), zap.Bool("admin", user.Admin))
	_ = WriteJSON(w, http.StatusOK, response)
}

// Logout handles POST /logout by dropping the session cookie. Bearer tokens
// are not revocable; they simply expire.
func (h *AuthHandler) Logout(w http.ResponseWriter, r *http.Request) {
	if h.sessions != nil {
		if err := h.sessions.Clear(w, r); err != nil {
			h.logger.Warn("failed to clear session", zap.Error(err))
		}
	}
	_ = WriteJSON(w, http.StatusOK, map[string]string{"status": "logged_out"})
}
