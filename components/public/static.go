package public

import (
	"context"
	"net/http"
	"time"

	"go.uber.org/zap"

	"github.com/servicii-ro/directory/internal/head"
	"github.com/servicii-ro/directory/internal/sitemap"
)

func (c *Comp) sitemap(w http.ResponseWriter, r *http.Request) {
	locs, err := sitemap.Locations(r.Context(), c.d.Store, c.d.Origin(r))
	if err != nil {
		zap.L().Error("sitemap", zap.Error(err))
		http.Error(w, http.StatusText(http.StatusInternalServerError), http.StatusInternalServerError)
		return
	}
	body, err := sitemap.Render(locs)
	if err != nil {
		zap.L().Error("sitemap render", zap.Error(err))
		http.Error(w, http.StatusText(http.StatusInternalServerError), http.StatusInternalServerError)
		return
	}
	w.Header().Set("Content-Type", "application/xml; charset=utf-8")
	_, _ = w.Write(body)
}

// static serves a template with no data of its own.
func (c *Comp) static(page, title string) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		h := head.New()
		h.SetTitle(title)
		h.Canonical(c.d.Origin(r) + "/" + page)
		c.d.Render(w, r, http.StatusOK, page, c.d.Page(w, r, h, nil))
	}
}

func (c *Comp) healthz(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "text/plain; charset=utf-8")
	if c.d.Health != nil {
		ctx, cancel := context.WithTimeout(r.Context(), 2*time.Second)
		defer cancel()
		if err := c.d.Health(ctx); err != nil {
			zap.L().Warn("health check failed", zap.Error(err))
			w.WriteHeader(http.StatusServiceUnavailable)
			_, _ = w.Write([]byte("unavailable\n"))
			return
		}
	}
	_, _ = w.Write([]byte("ok\n"))
}
