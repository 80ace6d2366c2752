package webhooks

import (
	"context"
	"crypto/hmac"
	"crypto/sha256"
	"crypto/subtle"
	"encoding/base64"
	"strings"

	goerrors "github.com/goliatone/go-errors"
	"github.com/goliatone/go-linebot/core"
)

const SignatureHeader = "X-Line-Signature"

type Verifier interface {
	Verify(ctx context.Context, req core.Request) error
}

// Sign returns the base64 HMAC-SHA256 of body keyed by secret.
func Sign(secret string, body []byte) string {
	mac := hmac.New(sha256.New, []byte(secret))
	_, _ = mac.Write(body)
	return base64.StdEncoding.EncodeToString(mac.Sum(nil))
}

// VerifySignature reports whether signature is the base64 HMAC-SHA256 of body
// keyed by secret. The comparison runs in constant time.
func VerifySignature(secret string, body []byte, signature string) bool {
	if secret == "" {
		return false
	}
	decoded, err := base64.StdEncoding.DecodeString(strings.TrimSpace(signature))
	if err != nil || len(decoded) == 0 {
		return false
	}
	mac := hmac.New(sha256.New, []byte(secret))
	_, _ = mac.Write(body)
	return subtle.ConstantTimeCompare(decoded, mac.Sum(nil)) == 1
}

// SignatureVerifier checks the channel signature header of a raw request.
type SignatureVerifier struct {
	Secret string
}

func (v SignatureVerifier) Verify(_ context.Context, req core.Request) error {
	signature := strings.TrimSpace(headerValue(req.Headers, SignatureHeader))
	if signature == "" {
		return invalidSignature("webhooks: signature header is required")
	}
	if strings.TrimSpace(v.Secret) == "" {
		return core.Internal("webhooks: channel secret is not configured", nil)
	}
	if !VerifySignature(v.Secret, req.Body, signature) {
		return invalidSignature("webhooks: signature verification failed")
	}
	return nil
}

func invalidSignature(message string) error {
	return core.NewError(message, goerrors.CategoryAuth, core.ErrorInvalidSignature, map[string]any{
		"header": SignatureHeader,
	})
}

func headerValue(headers map[string]string, key string) string {
	for existing, value := range headers {
		if strings.EqualFold(strings.TrimSpace(existing), strings.TrimSpace(key)) {
			return strings.TrimSpace(value)
		}
	}
	return ""
}
