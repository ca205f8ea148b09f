package middleware

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"strconv"

	"github.com/julieginest/prjCyberA3/internal/auth"
	"github.com/julieginest/prjCyberA3/internal/model"
	"github.com/julieginest/prjCyberA3/internal/telemetry"
)

// APIKeyHeader is the API key credential header. Header lookup is
// case-insensitive per net/http.
const APIKeyHeader = "X-Api-Key"

const identityKey contextKey = "identity"

// Authenticate runs the auth pipeline once per request and attaches the
// resulting Identity to the request context. On failure it writes the
// mapped status and a JSON error envelope; handlers behind it can assume an
// identity is present.
func Authenticate(pipeline *auth.Pipeline, metrics *telemetry.Module, logger *slog.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			identity, err := pipeline.Authenticate(r.Context(),
				r.Header.Get("Authorization"), r.Header.Get(APIKeyHeader))
			if err != nil {
				metrics.RecordAuth(r.Context(), "none", outcomeFor(err))
				WriteError(w, r, logger, err)
				return
			}

			metrics.RecordAuth(r.Context(), identity.AuthMethod, "ok")
			ctx := context.WithValue(r.Context(), identityKey, identity)
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

// RequirePermission enforces a named permission. Must run after
// Authenticate; a bare context fails 401 rather than panicking.
func RequirePermission(perm string) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if err := auth.Require(GetIdentity(r.Context()), perm); err != nil {
				WriteError(w, r, nil, err)
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}

// GetIdentity extracts the authenticated identity from the context, or nil.
func GetIdentity(ctx context.Context) *model.Identity {
	id, _ := ctx.Value(identityKey).(*model.Identity)
	return id
}

// StatusFor maps an auth failure to its HTTP status. Unknown errors are
// treated as internal: backing-store failures must never reach the client
// in detail.
func StatusFor(err error) int {
	var rl *auth.RateLimitedError
	switch {
	case errors.Is(err, auth.ErrMissingCredential),
		errors.Is(err, auth.ErrInvalidToken),
		errors.Is(err, auth.ErrTokenExpired),
		errors.Is(err, auth.ErrTokenRevoked),
		errors.Is(err, auth.ErrInvalidAPIKey),
		errors.Is(err, auth.ErrUnknownSubject),
		errors.Is(err, auth.ErrUnauthenticated):
		return http.StatusUnauthorized
	case errors.Is(err, auth.ErrAPIKeyRevoked),
		errors.Is(err, auth.ErrForbidden):
		return http.StatusForbidden
	case errors.As(err, &rl):
		return http.StatusTooManyRequests
	default:
		return http.StatusInternalServerError
	}
}

// WriteError writes the JSON error envelope for an auth failure. Rate
// limits carry a Retry-After header; internal failures are logged with
// their real cause and surfaced generically.
func WriteError(w http.ResponseWriter, r *http.Request, logger *slog.Logger, err error) {
	status := StatusFor(err)
	msg := err.Error()

	var rl *auth.RateLimitedError
	if errors.As(err, &rl) {
		w.Header().Set("Retry-After", strconv.Itoa(rl.RetryAfter))
	}
	if status == http.StatusInternalServerError {
		if logger != nil {
			logger.Error("internal auth failure",
				"error", err, "request_id", GetRequestID(r.Context()))
		}
		msg = "internal error"
	}

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(model.ErrorResponse{Error: msg})
}

// outcomeFor buckets an auth failure for metrics.
func outcomeFor(err error) string {
	switch {
	case errors.Is(err, auth.ErrMissingCredential):
		return "missing_credential"
	case errors.Is(err, auth.ErrTokenExpired):
		return "token_expired"
	case errors.Is(err, auth.ErrTokenRevoked):
		return "token_revoked"
	case errors.Is(err, auth.ErrInvalidToken):
		return "invalid_token"
	case errors.Is(err, auth.ErrAPIKeyRevoked):
		return "api_key_revoked"
	case errors.Is(err, auth.ErrInvalidAPIKey):
		return "invalid_api_key"
	case errors.Is(err, auth.ErrUnknownSubject):
		return "unknown_subject"
	default:
		return "error"
	}
}
