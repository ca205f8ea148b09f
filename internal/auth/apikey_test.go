package auth

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"strings"
	"testing"

	"github.com/google/uuid"

	"github.com/julieginest/prjCyberA3/internal/model"
	"github.com/julieginest/prjCyberA3/internal/store"
)

func newTestStore(t *testing.T) *store.Store {
	t.Helper()
	s, err := store.Open("sqlite", "") // in-memory
	if err != nil {
		t.Fatalf("store.Open: %v", err)
	}
	t.Cleanup(func() { s.Close() })
	return s
}

func seedUser(t *testing.T, st *store.Store, email, roleName string) *model.User {
	t.Helper()
	u := &model.User{
		DisplayName:  "Test User",
		Email:        email,
		PasswordHash: "not-a-real-hash",
		RoleName:     roleName,
	}
	if err := st.CreateUser(context.Background(), u); err != nil {
		t.Fatalf("seedUser: %v", err)
	}
	return u
}

func newKeyService(t *testing.T, st *store.Store) *APIKeys {
	t.Helper()
	keys := NewAPIKeys(st, []byte("key-hash-secret"), slog.New(slog.NewTextHandler(io.Discard, nil)))
	t.Cleanup(keys.Close)
	return keys
}

func TestIssueAndVerify(t *testing.T) {
	st := newTestStore(t)
	keys := newKeyService(t, st)
	ctx := context.Background()

	owner := seedUser(t, st, "owner@example.com", "admin")

	issued, err := keys.Issue(ctx, owner.ID, "ci pipeline")
	if err != nil {
		t.Fatalf("Issue: %v", err)
	}

	id, secret, ok := strings.Cut(issued.Plaintext, ".")
	if !ok || id != issued.Key.ID || secret == "" {
		t.Fatalf("plaintext %q does not have the form <id>.<secret>", issued.Plaintext)
	}
	if strings.Contains(issued.Key.SecretHash, secret) {
		t.Error("stored hash contains the plaintext secret")
	}

	key, err := keys.Verify(ctx, issued.Plaintext)
	if err != nil {
		t.Fatalf("Verify: %v", err)
	}
	if key.ID != issued.Key.ID {
		t.Errorf("got key %s, want %s", key.ID, issued.Key.ID)
	}
	if key.OwnerUserID != owner.ID {
		t.Errorf("got owner %d, want %d", key.OwnerUserID, owner.ID)
	}
}

func TestVerifyMalformed(t *testing.T) {
	st := newTestStore(t)
	keys := newKeyService(t, st)
	ctx := context.Background()

	for _, presented := range []string{"", "nodot", ".secret-only", "id-only."} {
		if _, err := keys.Verify(ctx, presented); !errors.Is(err, ErrInvalidAPIKey) {
			t.Errorf("Verify(%q) = %v, want ErrInvalidAPIKey", presented, err)
		}
	}
}

func TestVerifyWrongSecret(t *testing.T) {
	st := newTestStore(t)
	keys := newKeyService(t, st)
	ctx := context.Background()

	owner := seedUser(t, st, "owner@example.com", "admin")
	issued, err := keys.Issue(ctx, owner.ID, "ci")
	if err != nil {
		t.Fatalf("Issue: %v", err)
	}

	if _, err := keys.Verify(ctx, issued.Key.ID+".deadbeef"); !errors.Is(err, ErrInvalidAPIKey) {
		t.Errorf("got %v, want ErrInvalidAPIKey for wrong secret", err)
	}
}

func TestVerifyUnknownID(t *testing.T) {
	st := newTestStore(t)
	keys := newKeyService(t, st)

	presented := uuid.Must(uuid.NewV7()).String() + ".somesecret"
	if _, err := keys.Verify(context.Background(), presented); !errors.Is(err, ErrInvalidAPIKey) {
		t.Errorf("got %v, want ErrInvalidAPIKey for unknown id", err)
	}
}

func TestIssueDuplicateName(t *testing.T) {
	st := newTestStore(t)
	keys := newKeyService(t, st)
	ctx := context.Background()

	owner := seedUser(t, st, "owner@example.com", "admin")

	first, err := keys.Issue(ctx, owner.ID, "ci")
	if err != nil {
		t.Fatalf("Issue: %v", err)
	}
	if _, err := keys.Issue(ctx, owner.ID, "ci"); !errors.Is(err, ErrDuplicateName) {
		t.Fatalf("got %v, want ErrDuplicateName", err)
	}

	// A different owner can reuse the name.
	other := seedUser(t, st, "other@example.com", "admin")
	if _, err := keys.Issue(ctx, other.ID, "ci"); err != nil {
		t.Fatalf("Issue for other owner: %v", err)
	}

	// Revoking frees the name for its owner.
	if err := keys.Revoke(ctx, owner.ID, first.Key.ID); err != nil {
		t.Fatalf("Revoke: %v", err)
	}
	if _, err := keys.Issue(ctx, owner.ID, "ci"); err != nil {
		t.Fatalf("Issue after revoke: %v", err)
	}
}

func TestRevoke(t *testing.T) {
	st := newTestStore(t)
	keys := newKeyService(t, st)
	ctx := context.Background()

	owner := seedUser(t, st, "owner@example.com", "admin")
	stranger := seedUser(t, st, "stranger@example.com", "viewer")

	issued, err := keys.Issue(ctx, owner.ID, "ci")
	if err != nil {
		t.Fatalf("Issue: %v", err)
	}

	// Only the owner may revoke.
	if err := keys.Revoke(ctx, stranger.ID, issued.Key.ID); !errors.Is(err, ErrForbidden) {
		t.Errorf("got %v, want ErrForbidden for non-owner revoke", err)
	}

	if err := keys.Revoke(ctx, owner.ID, issued.Key.ID); err != nil {
		t.Fatalf("Revoke: %v", err)
	}

	// Revocation is terminal: the original plaintext no longer verifies.
	if _, err := keys.Verify(ctx, issued.Plaintext); !errors.Is(err, ErrAPIKeyRevoked) {
		t.Errorf("got %v, want ErrAPIKeyRevoked", err)
	}

	// And idempotent.
	if err := keys.Revoke(ctx, owner.ID, issued.Key.ID); err != nil {
		t.Errorf("second Revoke: %v", err)
	}

	if err := keys.Revoke(ctx, owner.ID, "no-such-key"); !errors.Is(err, ErrKeyNotFound) {
		t.Errorf("got %v, want ErrKeyNotFound", err)
	}
}

func TestList(t *testing.T) {
	st := newTestStore(t)
	keys := newKeyService(t, st)
	ctx := context.Background()

	owner := seedUser(t, st, "owner@example.com", "admin")
	for _, name := range []string{"ci", "staging", "prod"} {
		if _, err := keys.Issue(ctx, owner.ID, name); err != nil {
			t.Fatalf("Issue %s: %v", name, err)
		}
	}

	list, err := keys.List(ctx, owner.ID)
	if err != nil {
		t.Fatalf("List: %v", err)
	}
	if len(list) != 3 {
		t.Errorf("got %d keys, want 3", len(list))
	}
}
