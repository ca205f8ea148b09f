package handler

import (
	"errors"
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/julieginest/prjCyberA3/internal/auth"
	"github.com/julieginest/prjCyberA3/internal/model"
	mw "github.com/julieginest/prjCyberA3/internal/server/middleware"
)

// KeyHandler manages the caller's API keys. All routes sit behind the
// manage_api_keys permission gate.
type KeyHandler struct {
	keys   *auth.APIKeys
	logger *slog.Logger
}

// NewKeyHandler creates a KeyHandler.
func NewKeyHandler(keys *auth.APIKeys, logger *slog.Logger) *KeyHandler {
	return &KeyHandler{keys: keys, logger: logger}
}

type createKeyRequest struct {
	Name string `json:"name"`
}

// keySummary is the sanitized key shape: never the hash, never the secret.
type keySummary struct {
	ID         string     `json:"id"`
	Name       string     `json:"name"`
	Revoked    bool       `json:"revoked"`
	CreatedAt  time.Time  `json:"created_at"`
	LastUsedAt *time.Time `json:"last_used_at,omitempty"`
}

type createKeyResponse struct {
	APIKey keySummary `json:"apiKey"`
	Key    string     `json:"key"` // plaintext, shown once, never stored
}

func summarize(k *model.APIKey) keySummary {
	return keySummary{
		ID:         k.ID,
		Name:       k.Name,
		Revoked:    k.Revoked,
		CreatedAt:  k.CreatedAt,
		LastUsedAt: k.LastUsedAt,
	}
}

// Create issues a new key for the caller and returns the plaintext exactly
// once. POST /api/v1/api-key
func (h *KeyHandler) Create(w http.ResponseWriter, r *http.Request) {
	identity := mw.GetIdentity(r.Context())

	var req createKeyRequest
	if err := readJSON(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	if req.Name == "" {
		writeError(w, http.StatusBadRequest, "key name is required")
		return
	}

	issued, err := h.keys.Issue(r.Context(), identity.UserID, req.Name)
	if err != nil {
		if errors.Is(err, auth.ErrDuplicateName) {
			writeError(w, http.StatusConflict, err.Error())
			return
		}
		h.logger.Error("key issue failed", "error", err)
		writeError(w, http.StatusInternalServerError, "internal error")
		return
	}

	writeJSON(w, http.StatusCreated, createKeyResponse{
		APIKey: summarize(issued.Key),
		Key:    issued.Plaintext,
	})
}

// List returns the caller's keys without secrets.
// GET /api/v1/api-key
func (h *KeyHandler) List(w http.ResponseWriter, r *http.Request) {
	identity := mw.GetIdentity(r.Context())

	keys, err := h.keys.List(r.Context(), identity.UserID)
	if err != nil {
		h.logger.Error("key list failed", "error", err)
		writeError(w, http.StatusInternalServerError, "internal error")
		return
	}

	items := make([]keySummary, 0, len(keys))
	for i := range keys {
		items = append(items, summarize(&keys[i]))
	}
	writeJSON(w, http.StatusOK, model.ListResponse[keySummary]{Items: items, Count: len(items)})
}

// Revoke soft-deletes one of the caller's keys.
// DELETE /api/v1/api-key/{keyID}
func (h *KeyHandler) Revoke(w http.ResponseWriter, r *http.Request) {
	identity := mw.GetIdentity(r.Context())
	keyID := chi.URLParam(r, "keyID")

	if err := h.keys.Revoke(r.Context(), identity.UserID, keyID); err != nil {
		switch {
		case errors.Is(err, auth.ErrKeyNotFound):
			writeError(w, http.StatusNotFound, err.Error())
		case errors.Is(err, auth.ErrForbidden):
			writeError(w, http.StatusForbidden, err.Error())
		default:
			h.logger.Error("key revoke failed", "error", err)
			writeError(w, http.StatusInternalServerError, "internal error")
		}
		return
	}

	writeJSON(w, http.StatusOK, map[string]any{"success": true})
}
