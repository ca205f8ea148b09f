package auth

// SignatureHeader is the inbound webhook signature header name.
const SignatureHeader = "X-Shopify-Hmac-Sha256"

// WebhookVerifier authenticates inbound webhook payloads. Verification runs
// over the exact raw request bytes, never a re-serialized form: JSON
// round-tripping is not byte-identical, so parsing must wait until the
// signature has been checked.
type WebhookVerifier struct {
	signer *Signer
}

// NewWebhookVerifier creates a verifier for the shared webhook secret.
func NewWebhookVerifier(secret []byte) *WebhookVerifier {
	return &WebhookVerifier{signer: NewSigner(secret)}
}

// Verify checks the base64 signature header against the HMAC of rawBody.
// An empty header fails ErrMissingSignature; any other divergence,
// including a length mismatch, fails ErrSignatureMismatch.
func (v *WebhookVerifier) Verify(rawBody []byte, signatureHeader string) error {
	if signatureHeader == "" {
		return ErrMissingSignature
	}
	if !constantTimeEqual(v.signer.SumBase64(rawBody), signatureHeader) {
		return ErrSignatureMismatch
	}
	return nil
}
