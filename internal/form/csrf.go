// internal/form/csrf.go
//
// Forms subsystem: stateless CSRF tokens.
//
// Context
//   Every POST form embeds a hidden `csrf_token` input generated at render
//   time.  The token is stateless:
//
//      base64url( nonce | unixMicro | HMAC_SHA256(key, nonce+unixMicro) )
//
//   •  nonce – 16 random bytes.
//   •  unixMicro – issue time, 8 bytes, big-endian.
//   •  HMAC – keyed with the "csrf" key derived from security.secret_key.
//
//   Verification checks the signature and that the issue time is within
//   MaxAge.  No server-side state, so any instance can verify any token.
//
// Workflow
//   •  c.Token()          → token string for the template.
//   •  c.Verify(tok)      → constant-time verify; false on any failure.
//   •  c.Protect(next)    → middleware rejecting unsafe requests with 403.
//
//------------------------------------------------------------------------------

package form

import (
	"crypto/hmac"
	"crypto/rand"
	"crypto/sha256"
	"encoding/base64"
	"encoding/binary"
	"net/http"
	"time"

	"go.uber.org/zap"
)

const (
	// FieldCSRF is the hidden input name carrying the token.
	FieldCSRF = "csrf_token"

	tokenBytes = 16 + 8 + sha256.Size // nonce + ts + sig
	maxAge     = 2 * time.Hour
	maxSkew    = time.Minute
)

// CSRF issues and verifies tokens.  Safe for concurrent use.
type CSRF struct {
	key []byte
	now func() time.Time
}

// NewCSRF returns a token issuer keyed with key (32 bytes recommended).
func NewCSRF(key []byte) *CSRF {
	return &CSRF{key: key, now: time.Now}
}

// Token creates a new token.  Call once per form render.
func (c *CSRF) Token() (string, error) {
	nonce := make([]byte, 16)
	if _, err := rand.Read(nonce); err != nil {
		return "", err
	}

	ts := make([]byte, 8)
	binary.BigEndian.PutUint64(ts, uint64(c.now().UnixMicro()))

	buf := make([]byte, 0, tokenBytes)
	buf = append(buf, nonce...)
	buf = append(buf, ts...)
	buf = append(buf, c.sign(nonce, ts)...)

	return base64.RawURLEncoding.EncodeToString(buf), nil
}

// Verify returns true if tok passes HMAC and age checks.
func (c *CSRF) Verify(tok string) bool {
	raw, err := base64.RawURLEncoding.DecodeString(tok)
	if err != nil || len(raw) != tokenBytes {
		return false
	}
	nonce, tsBytes, sig := raw[:16], raw[16:24], raw[24:]

	issued := time.UnixMicro(int64(binary.BigEndian.Uint64(tsBytes)))
	now := c.now()
	if now.Sub(issued) > maxAge || issued.Sub(now) > maxSkew {
		return false
	}
	return hmac.Equal(sig, c.sign(nonce, tsBytes))
}

func (c *CSRF) sign(nonce, ts []byte) []byte {
	mac := hmac.New(sha256.New, c.key)
	mac.Write(nonce)
	mac.Write(ts)
	return mac.Sum(nil)
}

// Protect rejects POST, PUT, PATCH, and DELETE requests whose form does not
// carry a valid token.  Multipart bodies are parsed up to 32 MiB.
func (c *CSRF) Protect(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch r.Method {
		case http.MethodGet, http.MethodHead, http.MethodOptions:
			next.ServeHTTP(w, r)
			return
		}
		if err := r.ParseMultipartForm(32 << 20); err != nil && err != http.ErrNotMultipart {
			http.Error(w, "Bad request", http.StatusBadRequest)
			return
		}
		if !c.Verify(r.PostFormValue(FieldCSRF)) {
			zap.L().Warn("csrf token rejected",
				zap.String("path", r.URL.Path),
				zap.String("method", r.Method))
			http.Error(w, "Formularul a expirat. Reîncărcați pagina și încercați din nou.", http.StatusForbidden)
			return
		}
		next.ServeHTTP(w, r)
	})
}
