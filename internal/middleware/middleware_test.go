package middleware

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/go-chi/chi/v5"
	"github.com/stretchr/testify/assert"
)

var noContent = http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
	w.WriteHeader(http.StatusNoContent)
})

func TestSecurity_SetsHeadersBeforeWrite(t *testing.T) {
	rec := httptest.NewRecorder()
	Security(noContent).ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/", nil))

	assert.Equal(t, "DENY", rec.Header().Get("X-Frame-Options"))
	assert.Equal(t, "nosniff", rec.Header().Get("X-Content-Type-Options"))
	assert.Contains(t, rec.Header().Get("Content-Security-Policy"), "res.cloudinary.com")
	assert.Empty(t, rec.Header().Get("Strict-Transport-Security"), "HSTS over plain HTTP")

	r := httptest.NewRequest(http.MethodGet, "/", nil)
	r.Header.Set("X-Forwarded-Proto", "https")
	rec = httptest.NewRecorder()
	Security(noContent).ServeHTTP(rec, r)
	assert.NotEmpty(t, rec.Header().Get("Strict-Transport-Security"))
}

func TestForceHTTPS(t *testing.T) {
	h := ForceHTTPS(noContent)

	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "http://servicii.example/city/berlin?x=1", nil))
	assert.Equal(t, http.StatusPermanentRedirect, rec.Code)
	assert.Equal(t, "https://servicii.example/city/berlin?x=1", rec.Header().Get("Location"))

	for _, target := range []string{"http://localhost:8080/", "http://servicii.example/healthz"} {
		rec = httptest.NewRecorder()
		h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, target, nil))
		assert.Equal(t, http.StatusNoContent, rec.Code, target)
	}

	r := httptest.NewRequest(http.MethodGet, "http://servicii.example/", nil)
	r.Header.Set("X-Forwarded-Proto", "https")
	rec = httptest.NewRecorder()
	h.ServeHTTP(rec, r)
	assert.Equal(t, http.StatusNoContent, rec.Code)
}

func TestAccessLog_PassesThrough(t *testing.T) {
	r := chi.NewRouter()
	r.Use(AccessLog)
	r.Get("/listing/{slug}", func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte("ok"))
	})

	rec := httptest.NewRecorder()
	r.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/listing/x", nil))
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "ok", rec.Body.String())
}
