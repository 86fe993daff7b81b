package form

import (
	"net/http"
	"net/http/httptest"
	"net/url"
	"strings"
	"testing"
	"time"
)

func TestCSRF_RoundTrip(t *testing.T) {
	c := NewCSRF([]byte("0123456789abcdef0123456789abcdef"))
	tok, err := c.Token()
	if err != nil {
		t.Fatalf("Token: %v", err)
	}
	if !c.Verify(tok) {
		t.Fatalf("fresh token rejected")
	}

	other := NewCSRF([]byte("another key, same length......!!"))
	if other.Verify(tok) {
		t.Fatalf("token verified under a different key")
	}
	if c.Verify(tok[:len(tok)-2]) || c.Verify("") {
		t.Fatalf("truncated token accepted")
	}
}

func TestCSRF_Expiry(t *testing.T) {
	c := NewCSRF([]byte("k"))
	issued := time.Date(2024, 5, 1, 12, 0, 0, 0, time.UTC)
	c.now = func() time.Time { return issued }
	tok, _ := c.Token()

	c.now = func() time.Time { return issued.Add(maxAge - time.Second) }
	if !c.Verify(tok) {
		t.Fatalf("token rejected inside window")
	}
	c.now = func() time.Time { return issued.Add(maxAge + time.Second) }
	if c.Verify(tok) {
		t.Fatalf("expired token accepted")
	}
	c.now = func() time.Time { return issued.Add(-2 * maxSkew) }
	if c.Verify(tok) {
		t.Fatalf("future token accepted")
	}
}

func TestCSRF_Protect(t *testing.T) {
	c := NewCSRF([]byte("k"))
	h := c.Protect(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNoContent)
	}))

	post := func(form url.Values) int {
		r := httptest.NewRequest(http.MethodPost, "/recommend", strings.NewReader(form.Encode()))
		r.Header.Set("Content-Type", "application/x-www-form-urlencoded")
		rec := httptest.NewRecorder()
		h.ServeHTTP(rec, r)
		return rec.Code
	}

	if code := post(url.Values{}); code != http.StatusForbidden {
		t.Fatalf("missing token: %d", code)
	}
	tok, _ := c.Token()
	if code := post(url.Values{FieldCSRF: {tok}}); code != http.StatusNoContent {
		t.Fatalf("valid token: %d", code)
	}

	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/recommend", nil))
	if rec.Code != http.StatusNoContent {
		t.Fatalf("GET blocked: %d", rec.Code)
	}
}

func TestTrapped(t *testing.T) {
	req := func(v url.Values) *http.Request {
		r := httptest.NewRequest(http.MethodPost, "/", strings.NewReader(v.Encode()))
		r.Header.Set("Content-Type", "application/x-www-form-urlencoded")
		return r
	}

	if !Trapped(req(url.Values{FieldHoneypot: {"http://spam.example"}})) {
		t.Errorf("filled honeypot not trapped")
	}
	if Trapped(req(url.Values{FieldHoneypot: {"  "}})) {
		t.Errorf("blank honeypot trapped")
	}
	if Trapped(req(url.Values{"business_name": {"Cabinet Ionescu"}})) {
		t.Errorf("ordinary submission trapped")
	}
}

type sample struct {
	Name  string `form:"business_name" validate:"required"`
	Email string `form:"submitter_email" validate:"omitempty,email"`
	Note  string `validate:"max=3"`
}

func TestFieldErrors(t *testing.T) {
	err := NewValidator().Struct(sample{Email: "nope", Note: "long"})
	got := FieldErrors(err)

	if got["business_name"] != "Câmpul este obligatoriu." {
		t.Errorf("business_name = %q", got["business_name"])
	}
	if got["submitter_email"] != "Adresa de e-mail nu este validă." {
		t.Errorf("submitter_email = %q", got["submitter_email"])
	}
	if got["Note"] != "Maximum 3 caractere." {
		t.Errorf("Note = %q", got["Note"])
	}
	if len(FieldErrors(nil)) != 0 {
		t.Errorf("nil error produced messages")
	}
}
