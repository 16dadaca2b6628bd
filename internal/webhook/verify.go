// Package webhook receives lifecycle events from the media platform,
// verifies their origin, stores them durably, and routes them to the
// reconcilers.
package webhook

import (
	"crypto/hmac"
	"crypto/sha256"
	"encoding/base64"
	"fmt"
	"net/http"
	"strings"

	"github.com/golang-jwt/jwt/v5"
)

// SignatureHeader carries the raw HMAC signature of the request body,
// used by senders configured without the platform's token mechanism.
const SignatureHeader = "X-Greenroom-Signature"

// Verifier checks inbound webhook deliveries against one of two trust
// paths: the platform's signed access token in the Authorization header,
// or an HMAC-SHA256 signature of the raw body.
type Verifier struct {
	apiKey        string
	apiSecret     []byte
	webhookSecret []byte
}

// VerifierOpts holds parameters for creating a Verifier.
type VerifierOpts struct {
	APIKey    string
	APISecret string
	// WebhookSecret enables the raw signature path; defaults to APISecret.
	WebhookSecret string
}

// NewVerifier creates a Verifier.
func NewVerifier(opts VerifierOpts) (*Verifier, error) {
	if opts.APISecret == "" {
		return nil, fmt.Errorf("webhook: api secret is required")
	}
	whs := opts.WebhookSecret
	if whs == "" {
		whs = opts.APISecret
	}
	return &Verifier{
		apiKey:        opts.APIKey,
		apiSecret:     []byte(opts.APISecret),
		webhookSecret: []byte(whs),
	}, nil
}

// Verify accepts or rejects a delivery. The Authorization token path is
// tried first; the raw signature path only applies when no Authorization
// header is present. Any verification failure, and a request carrying
// neither credential, is a rejection.
func (v *Verifier) Verify(header http.Header, body []byte) error {
	if auth := header.Get("Authorization"); auth != "" {
		return v.verifyToken(strings.TrimPrefix(auth, "Bearer "), body)
	}
	if sig := header.Get(SignatureHeader); sig != "" {
		return v.verifySignature(sig, body)
	}
	return fmt.Errorf("webhook: no credentials presented")
}

// verifyToken validates the platform's signed access token. The token is
// HS256-signed with the shared API secret, issued under our API key, and
// carries a base64 SHA-256 of the body in its sha256 claim.
func (v *Verifier) verifyToken(raw string, body []byte) error {
	claims := jwt.MapClaims{}
	_, err := jwt.ParseWithClaims(raw, claims, func(t *jwt.Token) (interface{}, error) {
		if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method %v", t.Header["alg"])
		}
		return v.apiSecret, nil
	})
	if err != nil {
		return fmt.Errorf("webhook: token verification: %w", err)
	}

	if v.apiKey != "" {
		if iss, _ := claims["iss"].(string); iss != v.apiKey {
			return fmt.Errorf("webhook: token issued for key %q", iss)
		}
	}

	if claimed, _ := claims["sha256"].(string); claimed != "" {
		sum := sha256.Sum256(body)
		want := base64.StdEncoding.EncodeToString(sum[:])
		if !hmac.Equal([]byte(claimed), []byte(want)) {
			return fmt.Errorf("webhook: token body hash mismatch")
		}
	}
	return nil
}

// verifySignature recomputes the HMAC-SHA256 of the raw body and compares
// in constant time against the presented "sha256=<base64>" value.
func (v *Verifier) verifySignature(presented string, body []byte) error {
	mac := hmac.New(sha256.New, v.webhookSecret)
	mac.Write(body)
	want := "sha256=" + base64.StdEncoding.EncodeToString(mac.Sum(nil))
	if !hmac.Equal([]byte(presented), []byte(want)) {
		return fmt.Errorf("webhook: signature mismatch")
	}
	return nil
}
