package component

import (
	"context"
	"errors"
	"net/http"
	"time"

	"go.uber.org/zap"

	"github.com/servicii-ro/directory/internal/auth"
	"github.com/servicii-ro/directory/internal/directory"
	"github.com/servicii-ro/directory/internal/form"
	"github.com/servicii-ro/directory/internal/head"
	"github.com/servicii-ro/directory/internal/imagestore"
	"github.com/servicii-ro/directory/internal/mailer"
	"github.com/servicii-ro/directory/internal/session"
	"github.com/servicii-ro/directory/internal/view"
)

// Deps is everything a component may need.  Built once in cmd/web.
type Deps struct {
	Store       directory.Store
	Search      *directory.Search
	Submissions *directory.Submissions
	View        *view.Engine
	Sessions    *session.Manager
	CSRF        *form.CSRF
	Mailer      mailer.Sender
	Images      imagestore.Uploader

	AdminPassword string
	AdminPrefix   string
	ContactTo     string
	BaseURL       string // empty: derive from the request

	// Health reports backend readiness for /healthz.
	Health func(ctx context.Context) error
	Now    func() time.Time
}

// Clock returns the current time, honouring Now when set.
func (d *Deps) Clock() time.Time {
	if d.Now != nil {
		return d.Now()
	}
	return time.Now()
}

// Page builds the common template value: navigation data, flashes, CSRF
// token, and render timestamp.  Lookup failures only empty the navigation.
func (d *Deps) Page(w http.ResponseWriter, r *http.Request, h *head.Builder, data any) view.Page {
	ctx := r.Context()
	cats, err := d.Store.Categories(ctx)
	if err != nil {
		zap.L().Warn("navigation categories", zap.Error(err))
	}
	cities, err := d.Store.Cities(ctx)
	if err != nil {
		zap.L().Warn("navigation cities", zap.Error(err))
	}
	tok, err := d.CSRF.Token()
	if err != nil {
		zap.L().Error("csrf token", zap.Error(err))
	}
	if h == nil {
		h = head.New()
	}
	now := d.Clock()
	return view.Page{
		Head:        h,
		Categories:  cats,
		Cities:      cities,
		Flashes:     d.Sessions.Flashes(w, r),
		CSRF:        tok,
		Admin:       auth.FromContext(ctx).Admin,
		AdminPrefix: d.AdminPrefix,
		Path:        r.URL.Path,
		Year:        now.Year(),
		Data:        data,
	}
}

// Render writes page, falling back to a plain 500 when execution fails.
func (d *Deps) Render(w http.ResponseWriter, r *http.Request, status int, page string, p view.Page) {
	if err := d.View.Render(w, status, page, p); err != nil {
		zap.L().Error("render", zap.String("page", page), zap.String("path", r.URL.Path), zap.Error(err))
		http.Error(w, http.StatusText(http.StatusInternalServerError), http.StatusInternalServerError)
	}
}

// NotFound renders the 404 page.
func (d *Deps) NotFound(w http.ResponseWriter, r *http.Request) {
	h := head.New()
	h.SetTitle("Pagina nu a fost găsită")
	h.NoIndex()
	d.Render(w, r, http.StatusNotFound, "notfound", d.Page(w, r, h, nil))
}

// Fail maps err to a response: ErrNotFound → 404, anything else → 500
// with the error logged.
func (d *Deps) Fail(w http.ResponseWriter, r *http.Request, err error) {
	if errors.Is(err, directory.ErrNotFound) {
		d.NotFound(w, r)
		return
	}
	zap.L().Error("request failed",
		zap.String("method", r.Method),
		zap.String("path", r.URL.Path),
		zap.Error(err))
	h := head.New()
	h.SetTitle("Eroare")
	h.NoIndex()
	d.Render(w, r, http.StatusInternalServerError, "error", d.Page(w, r, h, nil))
}

// Origin returns the public scheme://host used in absolute URLs.
func (d *Deps) Origin(r *http.Request) string {
	if d.BaseURL != "" {
		return d.BaseURL
	}
	scheme := "http"
	if r.TLS != nil || r.Header.Get("X-Forwarded-Proto") == "https" {
		scheme = "https"
	}
	return scheme + "://" + r.Host
}
