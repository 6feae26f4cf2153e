package auth

import (
	"crypto/hmac"
	"crypto/rand"
	"crypto/sha256"
	"encoding/base64"
	"encoding/hex"
	"fmt"
	"strings"
)

// Scheme is the Authorization header scheme used by applications.
const Scheme = "Signature"

// Signer computes and verifies request signatures for one application
// secret. The signature is an HMAC-SHA256 digest over the request
// method, URI (path including the query string), and body, joined by
// newlines.
type Signer struct {
	secret []byte
}

// NewSigner creates a signer for the given shared secret.
func NewSigner(secret string) *Signer {
	return &Signer{secret: []byte(secret)}
}

// Sign computes the hex-encoded digest for the given request parts.
// uri must include the query string when one is present, so GET
// parameters are bound by the signature.
func (s *Signer) Sign(method, uri string, body []byte) string {
	mac := hmac.New(sha256.New, s.secret)
	mac.Write([]byte(method))
	mac.Write([]byte{'\n'})
	mac.Write([]byte(uri))
	mac.Write([]byte{'\n'})
	mac.Write(body)
	return hex.EncodeToString(mac.Sum(nil))
}

// Verify checks a hex-encoded digest against the request parts using a
// constant-time comparison.
func (s *Signer) Verify(method, uri string, body []byte, digest string) bool {
	got, err := hex.DecodeString(digest)
	if err != nil {
		return false
	}
	mac := hmac.New(sha256.New, s.secret)
	mac.Write([]byte(method))
	mac.Write([]byte{'\n'})
	mac.Write([]byte(uri))
	mac.Write([]byte{'\n'})
	mac.Write(body)
	return hmac.Equal(got, mac.Sum(nil))
}

// ParseAuthorization splits an Authorization header value of the form
// "Signature <app>:<digest>" into its application name and digest.
func ParseAuthorization(header string) (app, digest string, err error) {
	scheme, rest, ok := strings.Cut(header, " ")
	if !ok || !strings.EqualFold(scheme, Scheme) {
		return "", "", fmt.Errorf("authorization scheme must be %q", Scheme)
	}
	app, digest, ok = strings.Cut(strings.TrimSpace(rest), ":")
	if !ok || app == "" || digest == "" {
		return "", "", fmt.Errorf("credentials must have the form <app>:<digest>")
	}
	return app, digest, nil
}

// GenerateSecret creates a cryptographically random application secret.
func GenerateSecret() (string, error) {
	b := make([]byte, 32)
	if _, err := rand.Read(b); err != nil {
		return "", fmt.Errorf("generate random bytes: %w", err)
	}
	return base64.RawURLEncoding.EncodeToString(b), nil
}
