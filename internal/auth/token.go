package auth

import (
	"errors"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

const tokenIssuer = "atelier"

// Claims is the signed payload of a bearer token. Validity is computed from
// the signature and timestamps; nothing is stored server-side.
type Claims struct {
	SubjectID int64  `json:"uid"`
	Email     string `json:"email,omitempty"`
	jwt.RegisteredClaims
}

// TokenCodec signs and verifies bearer tokens with a single shared HS256
// secret. No other algorithm is accepted on verification, so a token
// claiming "none" or an asymmetric algorithm is rejected outright.
type TokenCodec struct {
	secret []byte
}

// NewTokenCodec creates a codec for the given signing secret.
func NewTokenCodec(secret []byte) *TokenCodec {
	return &TokenCodec{secret: secret}
}

// Sign issues a token for the subject, embedding the issued-at time at
// second resolution and an expiry ttl from now.
func (c *TokenCodec) Sign(subjectID int64, email string, ttl time.Duration) (string, error) {
	now := time.Now()
	claims := Claims{
		SubjectID: subjectID,
		Email:     email,
		RegisteredClaims: jwt.RegisteredClaims{
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(ttl)),
			Issuer:    tokenIssuer,
		},
	}
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	return token.SignedString(c.secret)
}

// Verify checks the signature and expiry and returns the embedded claims.
// Fails ErrTokenExpired past the expiry, ErrInvalidToken for everything
// else (bad signature, malformed structure, unexpected algorithm).
func (c *TokenCodec) Verify(tokenStr string) (*Claims, error) {
	claims := &Claims{}
	token, err := jwt.ParseWithClaims(tokenStr, claims, func(t *jwt.Token) (any, error) {
		if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, errors.New("unexpected signing method")
		}
		return c.secret, nil
	}, jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}))
	if err != nil {
		if errors.Is(err, jwt.ErrTokenExpired) {
			return nil, ErrTokenExpired
		}
		return nil, ErrInvalidToken
	}
	if !token.Valid {
		return nil, ErrInvalidToken
	}
	return claims, nil
}
