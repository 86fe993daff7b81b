// Package comptest wires component.Deps over in-memory doubles for handler
// tests.
package comptest

import (
	"bytes"
	"context"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"net/url"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/servicii-ro/directory/internal/auth"
	"github.com/servicii-ro/directory/internal/component"
	"github.com/servicii-ro/directory/internal/directory"
	"github.com/servicii-ro/directory/internal/directory/dirtest"
	"github.com/servicii-ro/directory/internal/form"
	"github.com/servicii-ro/directory/internal/imagestore"
	"github.com/servicii-ro/directory/internal/mailer"
	"github.com/servicii-ro/directory/internal/session"
	"github.com/servicii-ro/directory/internal/view"
)

const (
	AdminPassword = "parola-de-test"
	AdminPrefix   = "/panou-x1"
	ContactTo     = "office@example.org"
)

// Mailer records every message.  Err, when set, is returned by Send.
type Mailer struct {
	mu   sync.Mutex
	Sent []mailer.Message
	Err  error
}

func (m *Mailer) Send(_ context.Context, msg mailer.Message) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.Err != nil {
		return m.Err
	}
	m.Sent = append(m.Sent, msg)
	return nil
}

// Images returns Result for every upload and counts the calls that carried a
// file.
type Images struct {
	Result imagestore.Result
	Calls  int
}

func (u *Images) Upload(_ context.Context, f multipart.File, h *multipart.FileHeader) imagestore.Result {
	if f == nil || h == nil || h.Size == 0 {
		return imagestore.Result{Failure: imagestore.FailureNoFile}
	}
	u.Calls++
	return u.Result
}

// Env is a test application.
type Env struct {
	Deps   *component.Deps
	Store  *dirtest.Store
	Mailer *Mailer
	Images *Images
	Router chi.Router
}

// New builds an Env and mounts the given components on a router carrying
// the same session middleware as production.
func New(t *testing.T, mount ...func(*component.Deps) component.Component) *Env {
	t.Helper()
	store := dirtest.New()
	m := &Mailer{}
	img := &Images{Result: imagestore.Result{URL: "https://res.cloudinary.com/demo/image/upload/x.jpg"}}

	d := &component.Deps{
		Store:         store,
		Search:        directory.NewSearch(store, nil),
		Submissions:   directory.NewSubmissions(store),
		View:          view.New(),
		Sessions:      session.NewManager(bytes.Repeat([]byte("h"), 32), bytes.Repeat([]byte("b"), 32), false),
		CSRF:          form.NewCSRF(bytes.Repeat([]byte("c"), 32)),
		Mailer:        m,
		Images:        img,
		AdminPassword: AdminPassword,
		AdminPrefix:   AdminPrefix,
		ContactTo:     ContactTo,
		BaseURL:       "https://example.org",
		Now:           func() time.Time { return time.Now() },
	}

	r := chi.NewRouter()
	r.Use(auth.Attach(d.Sessions))
	for _, f := range mount {
		f(d).Mount(r)
	}
	return &Env{Deps: d, Store: store, Mailer: m, Images: img, Router: r}
}

// Do serves req and returns the recorder.
func (e *Env) Do(req *http.Request) *httptest.ResponseRecorder {
	rec := httptest.NewRecorder()
	e.Router.ServeHTTP(rec, req)
	return rec
}

// Get issues a GET carrying cookies.
func (e *Env) Get(path string, cookies ...*http.Cookie) *httptest.ResponseRecorder {
	req := httptest.NewRequest(http.MethodGet, path, nil)
	for _, c := range cookies {
		req.AddCookie(c)
	}
	return e.Do(req)
}

// Post submits vals as a urlencoded form with a valid CSRF token.
func (e *Env) Post(t *testing.T, path string, vals url.Values, cookies ...*http.Cookie) *httptest.ResponseRecorder {
	t.Helper()
	if vals == nil {
		vals = url.Values{}
	}
	if vals.Get(form.FieldCSRF) == "" {
		tok, err := e.Deps.CSRF.Token()
		if err != nil {
			t.Fatalf("csrf token: %v", err)
		}
		vals.Set(form.FieldCSRF, tok)
	}
	req := httptest.NewRequest(http.MethodPost, path, strings.NewReader(vals.Encode()))
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	for _, c := range cookies {
		req.AddCookie(c)
	}
	return e.Do(req)
}

// AdminCookie returns a session cookie for a logged-in administrator.
func (e *Env) AdminCookie(t *testing.T) *http.Cookie {
	t.Helper()
	rec := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, "/", nil)
	if err := e.Deps.Sessions.Login(rec, req); err != nil {
		t.Fatalf("login: %v", err)
	}
	return SessionCookie(t, rec)
}

// SessionCookie extracts the session cookie set on rec.
func SessionCookie(t *testing.T, rec *httptest.ResponseRecorder) *http.Cookie {
	t.Helper()
	for _, c := range rec.Result().Cookies() {
		if c.Name == session.CookieName {
			return c
		}
	}
	t.Fatalf("no session cookie in response")
	return nil
}
