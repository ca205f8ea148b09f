package auth

import (
	"context"
	"strings"
	"time"

	"github.com/julieginest/prjCyberA3/internal/model"
)

const bearerPrefix = "Bearer "

// DefaultStoreTimeout bounds each backing-store call made by the pipeline,
// so a stalled store cannot hang a request indefinitely.
const DefaultStoreTimeout = 2 * time.Second

// Pipeline authenticates one request: it picks the credential scheme
// present, verifies it, resolves the identity, applies revocation policy,
// and yields an immutable Identity or a typed failure. It mutates no
// caller-visible state beyond the key last-used side effect.
type Pipeline struct {
	tokens       *TokenCodec
	keys         *APIKeys
	resolver     *Resolver
	storeTimeout time.Duration
}

// NewPipeline wires the pipeline. storeTimeout <= 0 selects
// DefaultStoreTimeout.
func NewPipeline(tokens *TokenCodec, keys *APIKeys, resolver *Resolver, storeTimeout time.Duration) *Pipeline {
	if storeTimeout <= 0 {
		storeTimeout = DefaultStoreTimeout
	}
	return &Pipeline{
		tokens:       tokens,
		keys:         keys,
		resolver:     resolver,
		storeTimeout: storeTimeout,
	}
}

// Authenticate runs the pipeline against the two credential headers. When
// both are present the bearer token wins and the API key header is ignored:
// both paths require proof of possession, so the precedence is a
// deterministic convenience, not a security decision.
func (p *Pipeline) Authenticate(ctx context.Context, authorization, apiKey string) (*model.Identity, error) {
	switch {
	case strings.HasPrefix(authorization, bearerPrefix):
		return p.fromToken(ctx, strings.TrimPrefix(authorization, bearerPrefix))
	case apiKey != "":
		return p.fromAPIKey(ctx, apiKey)
	default:
		return nil, ErrMissingCredential
	}
}

func (p *Pipeline) fromToken(ctx context.Context, raw string) (*model.Identity, error) {
	claims, err := p.tokens.Verify(raw)
	if err != nil {
		return nil, err
	}

	sctx, cancel := context.WithTimeout(ctx, p.storeTimeout)
	defer cancel()

	user, err := p.resolver.Resolve(sctx, claims.SubjectID)
	if err != nil {
		return nil, err
	}

	if revokedByCredentialChange(claims, user) {
		return nil, ErrTokenRevoked
	}

	role, err := p.resolver.LoadRole(sctx, user.RoleName)
	if err != nil {
		return nil, err
	}

	return identityFor(user, role, model.AuthMethodToken, nil), nil
}

func (p *Pipeline) fromAPIKey(ctx context.Context, raw string) (*model.Identity, error) {
	sctx, cancel := context.WithTimeout(ctx, p.storeTimeout)
	defer cancel()

	key, err := p.keys.Verify(sctx, raw)
	if err != nil {
		return nil, err
	}

	user, err := p.resolver.Resolve(sctx, key.OwnerUserID)
	if err != nil {
		return nil, err
	}

	// API keys are exempt from credential-change revocation; their
	// revocation is the explicit flag checked during Verify.
	role, err := p.resolver.LoadRole(sctx, user.RoleName)
	if err != nil {
		return nil, err
	}

	return identityFor(user, role, model.AuthMethodAPIKey, key), nil
}

// revokedByCredentialChange applies the monotonic token revocation policy:
// any credential change invalidates every token issued strictly before it,
// with no blacklist. If either timestamp is absent the check is skipped.
func revokedByCredentialChange(claims *Claims, user *model.User) bool {
	if claims.IssuedAt == nil || user.PasswordChangedAt == nil {
		return false
	}
	// iat carries second resolution; compare at the same granularity.
	changed := user.PasswordChangedAt.Truncate(time.Second)
	return claims.IssuedAt.Time.Before(changed)
}

func identityFor(user *model.User, role *model.Role, method string, key *model.APIKey) *model.Identity {
	id := &model.Identity{
		UserID:      user.ID,
		DisplayName: user.DisplayName,
		Email:       user.Email,
		CreatedAt:   user.CreatedAt,
		RoleName:    user.RoleName,
		Role:        role,
		AuthMethod:  method,
	}
	if key != nil {
		id.APIKeyID = key.ID
		id.APIKeyName = key.Name
	}
	return id
}
