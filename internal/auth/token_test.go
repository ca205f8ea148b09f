package auth

import (
	"errors"
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

const testTokenSecret = "test-token-secret"

func TestTokenRoundTrip(t *testing.T) {
	codec := NewTokenCodec([]byte(testTokenSecret))

	tok, err := codec.Sign(42, "ana@example.com", time.Hour)
	if err != nil {
		t.Fatalf("Sign: %v", err)
	}

	claims, err := codec.Verify(tok)
	if err != nil {
		t.Fatalf("Verify: %v", err)
	}
	if claims.SubjectID != 42 {
		t.Errorf("got subject %d, want 42", claims.SubjectID)
	}
	if claims.Email != "ana@example.com" {
		t.Errorf("got email %q, want ana@example.com", claims.Email)
	}
	if claims.IssuedAt == nil || claims.ExpiresAt == nil {
		t.Fatal("expected iat and exp to be set")
	}
	if got := claims.ExpiresAt.Sub(claims.IssuedAt.Time); got != time.Hour {
		t.Errorf("got ttl %v, want 1h", got)
	}
}

func TestTokenExpired(t *testing.T) {
	codec := NewTokenCodec([]byte(testTokenSecret))

	tok, err := codec.Sign(1, "", -time.Minute)
	if err != nil {
		t.Fatalf("Sign: %v", err)
	}

	if _, err := codec.Verify(tok); !errors.Is(err, ErrTokenExpired) {
		t.Errorf("got %v, want ErrTokenExpired", err)
	}
}

func TestTokenWrongSecret(t *testing.T) {
	tok, err := NewTokenCodec([]byte("secret-a")).Sign(1, "", time.Hour)
	if err != nil {
		t.Fatalf("Sign: %v", err)
	}

	if _, err := NewTokenCodec([]byte("secret-b")).Verify(tok); !errors.Is(err, ErrInvalidToken) {
		t.Errorf("got %v, want ErrInvalidToken", err)
	}
}

func TestTokenGarbage(t *testing.T) {
	codec := NewTokenCodec([]byte(testTokenSecret))

	for _, tok := range []string{"", "garbage", "a.b.c", "eyJhbGciOiJIUzI1NiJ9.e30."} {
		if _, err := codec.Verify(tok); !errors.Is(err, ErrInvalidToken) {
			t.Errorf("Verify(%q) = %v, want ErrInvalidToken", tok, err)
		}
	}
}

func TestTokenRejectsUnsignedAlgorithm(t *testing.T) {
	codec := NewTokenCodec([]byte(testTokenSecret))

	now := time.Now()
	claims := Claims{
		SubjectID: 1,
		RegisteredClaims: jwt.RegisteredClaims{
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(time.Hour)),
		},
	}
	tok, err := jwt.NewWithClaims(jwt.SigningMethodNone, claims).
		SignedString(jwt.UnsafeAllowNoneSignatureType)
	if err != nil {
		t.Fatalf("sign none token: %v", err)
	}

	if _, err := codec.Verify(tok); !errors.Is(err, ErrInvalidToken) {
		t.Errorf("got %v, want ErrInvalidToken for alg=none", err)
	}
}
