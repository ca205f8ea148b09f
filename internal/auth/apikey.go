package auth

import (
	"context"
	"crypto/rand"
	"encoding/hex"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/julieginest/prjCyberA3/internal/model"
	"github.com/julieginest/prjCyberA3/internal/store"
)

const (
	secretBytes  = 32 // 256 bits of entropy
	touchBacklog = 256
	touchTimeout = 5 * time.Second
)

// APIKeys issues, verifies, revokes, and lists opaque API keys. Presented
// keys have the form "<id>.<secret>": the id half makes verification a
// primary-key lookup instead of a hash scan over the whole table.
type APIKeys struct {
	store  *store.Store
	signer *Signer
	logger *slog.Logger

	touches chan string
	once    sync.Once
	done    chan struct{}
	wg      sync.WaitGroup
}

// NewAPIKeys creates the key service. hashSecret keys the HMAC applied to
// key secrets before storage. A background worker records last-used
// timestamps off the request path; call Close to stop it.
func NewAPIKeys(st *store.Store, hashSecret []byte, logger *slog.Logger) *APIKeys {
	a := &APIKeys{
		store:   st,
		signer:  NewSigner(hashSecret),
		logger:  logger,
		touches: make(chan string, touchBacklog),
		done:    make(chan struct{}),
	}
	a.wg.Add(1)
	go a.touchLoop()
	return a
}

// Close stops the background touch worker. Touches still queued are
// dropped; last-used is advisory data.
func (a *APIKeys) Close() {
	a.once.Do(func() { close(a.done) })
	a.wg.Wait()
}

// IssuedKey pairs a stored key record with its plaintext, which exists only
// in this value and is never persisted.
type IssuedKey struct {
	Key       *model.APIKey
	Plaintext string
}

// Issue creates a new key for the owner. Fails ErrDuplicateName if the
// owner already has a live key with that name. The returned plaintext is
// the only copy that will ever exist.
func (a *APIKeys) Issue(ctx context.Context, ownerID int64, name string) (*IssuedKey, error) {
	name = strings.TrimSpace(name)
	if name == "" {
		return nil, fmt.Errorf("key name is required")
	}

	taken, err := a.store.HasLiveAPIKey(ctx, ownerID, name)
	if err != nil {
		return nil, fmt.Errorf("check key name: %w", err)
	}
	if taken {
		return nil, ErrDuplicateName
	}

	raw := make([]byte, secretBytes)
	if _, err := rand.Read(raw); err != nil {
		return nil, fmt.Errorf("generate key secret: %w", err)
	}
	secret := hex.EncodeToString(raw)

	key := &model.APIKey{
		ID:          uuid.Must(uuid.NewV7()).String(),
		OwnerUserID: ownerID,
		Name:        name,
		SecretHash:  a.signer.SumHex([]byte(secret)),
	}
	if err := a.store.CreateAPIKey(ctx, key); err != nil {
		return nil, fmt.Errorf("store api key: %w", err)
	}

	return &IssuedKey{Key: key, Plaintext: key.ID + "." + secret}, nil
}

// Verify authenticates a presented key and returns its record. Malformed
// input fails before any store lookup. The stored hash is compared in
// constant time; a variable-time comparison would let an attacker recover
// the hash byte by byte through timing. On success the key's last-used
// timestamp is queued for a best-effort background update.
func (a *APIKeys) Verify(ctx context.Context, presented string) (*model.APIKey, error) {
	id, secret, ok := strings.Cut(presented, ".")
	if !ok || id == "" || secret == "" {
		return nil, ErrInvalidAPIKey
	}

	key, err := a.store.GetAPIKeyByID(ctx, id)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return nil, ErrInvalidAPIKey
		}
		return nil, fmt.Errorf("lookup api key: %w", err)
	}
	if key.Revoked {
		return nil, ErrAPIKeyRevoked
	}

	if !constantTimeEqual(a.signer.SumHex([]byte(secret)), key.SecretHash) {
		return nil, ErrInvalidAPIKey
	}

	a.queueTouch(key.ID)
	return key, nil
}

// Revoke soft-deletes a key. Only the owner may revoke; revocation is
// terminal and idempotent.
func (a *APIKeys) Revoke(ctx context.Context, ownerID int64, keyID string) error {
	key, err := a.store.GetAPIKeyByID(ctx, keyID)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return ErrKeyNotFound
		}
		return fmt.Errorf("lookup api key: %w", err)
	}
	if key.OwnerUserID != ownerID {
		return ErrForbidden
	}
	if err := a.store.RevokeAPIKey(ctx, keyID); err != nil {
		return fmt.Errorf("revoke api key: %w", err)
	}
	return nil
}

// List returns the owner's keys. Hashes never leave the store layer's
// struct and are excluded from serialization.
func (a *APIKeys) List(ctx context.Context, ownerID int64) ([]model.APIKey, error) {
	return a.store.ListAPIKeysByOwner(ctx, ownerID)
}

// queueTouch hands a key id to the touch worker without blocking. Under
// pressure the touch is dropped; last-used is advisory data.
func (a *APIKeys) queueTouch(id string) {
	select {
	case <-a.done:
	case a.touches <- id:
	default:
		a.logger.Debug("api key touch dropped, backlog full", "key_id", id)
	}
}

func (a *APIKeys) touchLoop() {
	defer a.wg.Done()
	for {
		select {
		case <-a.done:
			return
		case id := <-a.touches:
			ctx, cancel := context.WithTimeout(context.Background(), touchTimeout)
			if err := a.store.TouchAPIKey(ctx, id); err != nil {
				a.logger.Warn("api key last-used update failed", "key_id", id, "error", err)
			}
			cancel()
		}
	}
}
