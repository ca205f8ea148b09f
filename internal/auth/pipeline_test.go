package auth

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"

	"github.com/julieginest/prjCyberA3/internal/model"
	"github.com/julieginest/prjCyberA3/internal/store"
)

type pipelineEnv struct {
	store    *store.Store
	tokens   *TokenCodec
	keys     *APIKeys
	pipeline *Pipeline
}

func newPipelineEnv(t *testing.T) *pipelineEnv {
	t.Helper()
	st := newTestStore(t)
	tokens := NewTokenCodec([]byte(testTokenSecret))
	keys := newKeyService(t, st)
	return &pipelineEnv{
		store:    st,
		tokens:   tokens,
		keys:     keys,
		pipeline: NewPipeline(tokens, keys, NewResolver(st), 0),
	}
}

func TestAuthenticateMissingCredential(t *testing.T) {
	env := newPipelineEnv(t)

	if _, err := env.pipeline.Authenticate(context.Background(), "", ""); !errors.Is(err, ErrMissingCredential) {
		t.Errorf("got %v, want ErrMissingCredential", err)
	}
	// A non-bearer Authorization header alone is not a credential.
	if _, err := env.pipeline.Authenticate(context.Background(), "Basic dXNlcjpwdw==", ""); !errors.Is(err, ErrMissingCredential) {
		t.Errorf("got %v, want ErrMissingCredential for basic auth", err)
	}
}

func TestAuthenticateToken(t *testing.T) {
	env := newPipelineEnv(t)
	ctx := context.Background()

	user := seedUser(t, env.store, "ana@example.com", "admin")
	tok, err := env.tokens.Sign(user.ID, user.Email, time.Hour)
	if err != nil {
		t.Fatalf("Sign: %v", err)
	}

	id, err := env.pipeline.Authenticate(ctx, "Bearer "+tok, "")
	if err != nil {
		t.Fatalf("Authenticate: %v", err)
	}
	if id.UserID != user.ID {
		t.Errorf("got user %d, want %d", id.UserID, user.ID)
	}
	if id.AuthMethod != model.AuthMethodToken {
		t.Errorf("got method %q, want token", id.AuthMethod)
	}
	if !id.Can(model.PermManageAPIKeys) {
		t.Error("admin identity missing manage_api_keys")
	}
	if id.APIKeyID != "" {
		t.Error("token identity should carry no api key id")
	}
}

func TestAuthenticateAPIKey(t *testing.T) {
	env := newPipelineEnv(t)
	ctx := context.Background()

	user := seedUser(t, env.store, "ana@example.com", "viewer")
	issued, err := env.keys.Issue(ctx, user.ID, "ci")
	if err != nil {
		t.Fatalf("Issue: %v", err)
	}

	id, err := env.pipeline.Authenticate(ctx, "", issued.Plaintext)
	if err != nil {
		t.Fatalf("Authenticate: %v", err)
	}
	if id.AuthMethod != model.AuthMethodAPIKey {
		t.Errorf("got method %q, want api_key", id.AuthMethod)
	}
	if id.APIKeyID != issued.Key.ID || id.APIKeyName != "ci" {
		t.Errorf("got key %s/%s, want %s/ci", id.APIKeyID, id.APIKeyName, issued.Key.ID)
	}
	if !id.Can(model.PermViewProducts) || id.Can(model.PermCreateProduct) {
		t.Error("viewer identity has wrong permissions")
	}
}

func TestAuthenticateBearerWins(t *testing.T) {
	env := newPipelineEnv(t)
	ctx := context.Background()

	user := seedUser(t, env.store, "ana@example.com", "admin")
	issued, err := env.keys.Issue(ctx, user.ID, "ci")
	if err != nil {
		t.Fatalf("Issue: %v", err)
	}
	tok, err := env.tokens.Sign(user.ID, user.Email, time.Hour)
	if err != nil {
		t.Fatalf("Sign: %v", err)
	}

	id, err := env.pipeline.Authenticate(ctx, "Bearer "+tok, issued.Plaintext)
	if err != nil {
		t.Fatalf("Authenticate: %v", err)
	}
	if id.AuthMethod != model.AuthMethodToken {
		t.Errorf("got method %q, want token when both credentials present", id.AuthMethod)
	}

	// A bad token fails outright; the valid key alongside it is ignored.
	if _, err := env.pipeline.Authenticate(ctx, "Bearer garbage", issued.Plaintext); !errors.Is(err, ErrInvalidToken) {
		t.Errorf("got %v, want ErrInvalidToken", err)
	}
}

func TestAuthenticateUnknownSubject(t *testing.T) {
	env := newPipelineEnv(t)

	tok, err := env.tokens.Sign(9999, "ghost@example.com", time.Hour)
	if err != nil {
		t.Fatalf("Sign: %v", err)
	}
	if _, err := env.pipeline.Authenticate(context.Background(), "Bearer "+tok, ""); !errors.Is(err, ErrUnknownSubject) {
		t.Errorf("got %v, want ErrUnknownSubject", err)
	}
}

func TestTokenRevokedAfterPasswordChange(t *testing.T) {
	env := newPipelineEnv(t)
	ctx := context.Background()

	user := seedUser(t, env.store, "ana@example.com", "admin")
	issued, err := env.keys.Issue(ctx, user.ID, "ci")
	if err != nil {
		t.Fatalf("Issue: %v", err)
	}

	// Sign a token issued well before the upcoming credential change.
	tok := signAt(t, user.ID, time.Now().Add(-time.Hour))

	if _, err := env.pipeline.Authenticate(ctx, "Bearer "+tok, ""); err != nil {
		t.Fatalf("Authenticate before change: %v", err)
	}

	if err := env.store.UpdateUserPassword(ctx, user.ID, "new-hash"); err != nil {
		t.Fatalf("UpdateUserPassword: %v", err)
	}

	if _, err := env.pipeline.Authenticate(ctx, "Bearer "+tok, ""); !errors.Is(err, ErrTokenRevoked) {
		t.Errorf("got %v, want ErrTokenRevoked", err)
	}

	// API keys are exempt from credential-change revocation.
	if _, err := env.pipeline.Authenticate(ctx, "", issued.Plaintext); err != nil {
		t.Errorf("api key rejected after password change: %v", err)
	}
}

// signAt issues a token with a forced issued-at time.
func signAt(t *testing.T, subjectID int64, issuedAt time.Time) string {
	t.Helper()
	claims := Claims{
		SubjectID: subjectID,
		RegisteredClaims: jwt.RegisteredClaims{
			IssuedAt:  jwt.NewNumericDate(issuedAt),
			ExpiresAt: jwt.NewNumericDate(issuedAt.Add(24 * time.Hour)),
			Issuer:    tokenIssuer,
		},
	}
	tok, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString([]byte(testTokenSecret))
	if err != nil {
		t.Fatalf("signAt: %v", err)
	}
	return tok
}

func TestRevokedByCredentialChange(t *testing.T) {
	now := time.Now().Truncate(time.Second)
	iat := func(ts time.Time) *Claims {
		return &Claims{RegisteredClaims: jwt.RegisteredClaims{IssuedAt: jwt.NewNumericDate(ts)}}
	}
	changedAt := func(ts time.Time) *model.User {
		return &model.User{PasswordChangedAt: &ts}
	}

	if revokedByCredentialChange(&Claims{}, changedAt(now)) {
		t.Error("missing iat must not revoke")
	}
	if revokedByCredentialChange(iat(now), &model.User{}) {
		t.Error("missing change timestamp must not revoke")
	}
	if !revokedByCredentialChange(iat(now.Add(-time.Minute)), changedAt(now)) {
		t.Error("token issued before the change must be revoked")
	}
	if revokedByCredentialChange(iat(now.Add(time.Minute)), changedAt(now)) {
		t.Error("token issued after the change must survive")
	}
	// Sub-second skew inside the same second does not revoke.
	if revokedByCredentialChange(iat(now), changedAt(now.Add(300*time.Millisecond))) {
		t.Error("same-second change must not revoke")
	}
}
