package auth

import (
	"crypto/hmac"
	"crypto/sha256"
	"encoding/base64"
	"encoding/hex"
)

// Signer computes and verifies HMAC-SHA256 message authentication codes
// under a fixed secret. API key hashing and webhook verification share this
// primitive.
type Signer struct {
	secret []byte
}

// NewSigner creates a Signer for the given secret.
func NewSigner(secret []byte) *Signer {
	return &Signer{secret: secret}
}

// Sum returns the raw HMAC-SHA256 of data.
func (s *Signer) Sum(data []byte) []byte {
	mac := hmac.New(sha256.New, s.secret)
	mac.Write(data)
	return mac.Sum(nil)
}

// SumHex returns the hex-encoded HMAC of data.
func (s *Signer) SumHex(data []byte) string {
	return hex.EncodeToString(s.Sum(data))
}

// SumBase64 returns the base64-encoded HMAC of data.
func (s *Signer) SumBase64(data []byte) string {
	return base64.StdEncoding.EncodeToString(s.Sum(data))
}

// Verify reports whether mac is the HMAC of data. hmac.Equal rejects
// mismatched lengths up front and compares equal-length inputs in constant
// time, so the comparison leaks nothing about where the inputs diverge.
func (s *Signer) Verify(data, mac []byte) bool {
	return hmac.Equal(s.Sum(data), mac)
}

// constantTimeEqual compares two strings without early exit. Unequal lengths
// are a mismatch, not an error.
func constantTimeEqual(a, b string) bool {
	return hmac.Equal([]byte(a), []byte(b))
}
