package whatsapp

import (
	"crypto/hmac"
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"strings"
)

// WebhookVerifier validates Meta webhook signatures
// (X-Hub-Signature-256: sha256=<hex hmac of the raw body>).
type WebhookVerifier struct {
	appSecret string
}

// NewWebhookVerifier creates a verifier for an app secret.
func NewWebhookVerifier(appSecret string) *WebhookVerifier {
	return &WebhookVerifier{appSecret: appSecret}
}

// Verify checks the signature header against the raw payload.
func (v *WebhookVerifier) Verify(payload []byte, signatureHeader string) error {
	if v.appSecret == "" {
		return fmt.Errorf("app secret is not configured")
	}
	signature := strings.TrimPrefix(signatureHeader, "sha256=")
	if signature == "" {
		return fmt.Errorf("missing signature header")
	}

	mac := hmac.New(sha256.New, []byte(v.appSecret))
	mac.Write(payload)
	expected := hex.EncodeToString(mac.Sum(nil))

	if !hmac.Equal([]byte(expected), []byte(signature)) {
		return fmt.Errorf("signature mismatch")
	}
	return nil
}
