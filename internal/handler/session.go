package handler

import (
	"errors"
	"log/slog"
	"net/http"
	"time"

	"golang.org/x/crypto/bcrypt"

	"github.com/julieginest/prjCyberA3/internal/auth"
	mw "github.com/julieginest/prjCyberA3/internal/server/middleware"
	"github.com/julieginest/prjCyberA3/internal/store"
	"github.com/julieginest/prjCyberA3/internal/telemetry"
)

// SessionHandler owns login, password change, and the current-identity
// endpoint.
type SessionHandler struct {
	store   *store.Store
	tokens  *auth.TokenCodec
	limiter auth.LoginLimiter
	ttl     time.Duration
	metrics *telemetry.Module
	logger  *slog.Logger
}

// NewSessionHandler creates a SessionHandler.
func NewSessionHandler(st *store.Store, tokens *auth.TokenCodec, limiter auth.LoginLimiter,
	ttl time.Duration, metrics *telemetry.Module, logger *slog.Logger) *SessionHandler {
	return &SessionHandler{
		store:   st,
		tokens:  tokens,
		limiter: limiter,
		ttl:     ttl,
		metrics: metrics,
		logger:  logger,
	}
}

type loginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

type loginResponse struct {
	Token     string `json:"token"`
	TokenType string `json:"token_type"`
	ExpiresIn int    `json:"expires_in"`
	UserID    int64  `json:"user_id"`
	Email     string `json:"email"`
	Name      string `json:"display_name"`
}

// Login authenticates email/password and returns a signed bearer token.
// The rate limiter runs first and stamps the window on admission, so failed
// attempts are throttled exactly like successful ones.
// POST /api/v1/session
func (h *SessionHandler) Login(w http.ResponseWriter, r *http.Request) {
	var req loginRequest
	if err := readJSON(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	if req.Email == "" || req.Password == "" {
		writeError(w, http.StatusBadRequest, "email and password are required")
		return
	}

	if err := h.limiter.Check(req.Email); err != nil {
		h.metrics.RecordLoginThrottled(r.Context())
		mw.WriteError(w, r, h.logger, err)
		return
	}

	user, err := h.store.GetUserByEmail(r.Context(), req.Email)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			writeError(w, http.StatusUnauthorized, "invalid credentials")
			return
		}
		h.logger.Error("login lookup failed", "error", err)
		writeError(w, http.StatusInternalServerError, "internal error")
		return
	}

	if bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte(req.Password)) != nil {
		writeError(w, http.StatusUnauthorized, "invalid credentials")
		return
	}

	token, err := h.tokens.Sign(user.ID, user.Email, h.ttl)
	if err != nil {
		h.logger.Error("token issue failed", "error", err)
		writeError(w, http.StatusInternalServerError, "internal error")
		return
	}

	writeJSON(w, http.StatusOK, loginResponse{
		Token:     token,
		TokenType: "bearer",
		ExpiresIn: int(h.ttl.Seconds()),
		UserID:    user.ID,
		Email:     user.Email,
		Name:      user.DisplayName,
	})
}

type changePasswordRequest struct {
	CurrentPassword string `json:"current_password"`
	NewPassword     string `json:"new_password"`
}

// ChangePassword rotates the caller's password and stamps the
// credential-change time, invalidating every bearer token issued before
// this moment. The token used for this request dies with the rest.
// PUT /api/v1/session/password
func (h *SessionHandler) ChangePassword(w http.ResponseWriter, r *http.Request) {
	identity := mw.GetIdentity(r.Context())
	if identity == nil {
		writeError(w, http.StatusUnauthorized, auth.ErrUnauthenticated.Error())
		return
	}

	var req changePasswordRequest
	if err := readJSON(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	if len(req.NewPassword) < 8 {
		writeError(w, http.StatusBadRequest, "new password must be at least 8 characters")
		return
	}

	user, err := h.store.GetUserByID(r.Context(), identity.UserID)
	if err != nil {
		h.logger.Error("password change lookup failed", "error", err)
		writeError(w, http.StatusInternalServerError, "internal error")
		return
	}
	if bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte(req.CurrentPassword)) != nil {
		writeError(w, http.StatusUnauthorized, "invalid credentials")
		return
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(req.NewPassword), bcrypt.DefaultCost)
	if err != nil {
		h.logger.Error("password hash failed", "error", err)
		writeError(w, http.StatusInternalServerError, "internal error")
		return
	}
	if err := h.store.UpdateUserPassword(r.Context(), user.ID, string(hash)); err != nil {
		h.logger.Error("password update failed", "error", err)
		writeError(w, http.StatusInternalServerError, "internal error")
		return
	}

	writeJSON(w, http.StatusOK, map[string]any{"success": true})
}

// Me returns the caller's identity as resolved by the pipeline.
// GET /api/v1/me
func (h *SessionHandler) Me(w http.ResponseWriter, r *http.Request) {
	identity := mw.GetIdentity(r.Context())
	if identity == nil {
		writeError(w, http.StatusUnauthorized, auth.ErrUnauthenticated.Error())
		return
	}
	writeJSON(w, http.StatusOK, identity)
}
