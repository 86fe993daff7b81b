// components/admin/admin.go
//
// Admin panel component – login, dashboard, listing CRUD and moderation of
// public recommendations.  Everything is mounted under Deps.AdminPrefix;
// every route except login requires an admin principal.
package admin

import (
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"

	"github.com/servicii-ro/directory/internal/auth"
	"github.com/servicii-ro/directory/internal/component"
	"github.com/servicii-ro/directory/internal/head"
	"github.com/servicii-ro/directory/internal/session"
)

// compile-time assertion
var _ component.Component = (*Comp)(nil)

type Comp struct {
	d *component.Deps
}

func New(d *component.Deps) *Comp { return &Comp{d: d} }

func init() {
	component.Register("admin", func(d *component.Deps) component.Component { return New(d) })
}

func (c *Comp) Name() string { return "admin" }

// Mount registers the panel routes under the configured prefix.
func (c *Comp) Mount(r chi.Router) {
	r.Route(c.d.AdminPrefix, func(a chi.Router) {
		a.Use(c.d.CSRF.Protect)

		a.Get("/login", c.loginForm)
		a.Post("/login", c.login)
		a.Get("/logout", c.logout)

		a.Group(func(p chi.Router) {
			p.Use(auth.RequireAdmin(c.path("/login")))

			p.Get("/", c.dashboard)
			p.Get("/listings", c.listings)
			p.Get("/listings/new", c.newListingForm)
			p.Post("/listings/new", c.createListing)
			p.Get("/listings/{id}/edit", c.editListingForm)
			p.Post("/listings/{id}/edit", c.updateListing)
			p.Post("/listings/{id}/delete", c.deleteListing)
			p.Get("/submissions", c.submissions)
			p.Post("/submissions/{id}/approve", c.approve)
			p.Post("/submissions/{id}/reject", c.reject)
		})
	})
}

func (c *Comp) path(p string) string { return c.d.AdminPrefix + p }

// adminHead marks every panel page noindex.
func adminHead(title string) *head.Builder {
	h := head.New()
	h.SetTitle(title)
	h.NoIndex()
	return h
}

// redirect queues notes and answers 303.
func (c *Comp) redirect(w http.ResponseWriter, r *http.Request, to string, notes ...session.FlashMessage) {
	if len(notes) > 0 {
		if err := c.d.Sessions.Queue(w, r, notes...); err != nil {
			zap.L().Warn("flash not queued", zap.Error(err))
		}
	}
	http.Redirect(w, r, to, http.StatusSeeOther)
}

// idParam parses {id}; anything but a positive integer is a 404.
func idParam(r *http.Request) (int64, bool) {
	id, err := strconv.ParseInt(chi.URLParam(r, "id"), 10, 64)
	return id, err == nil && id > 0
}

func flash(category, text string) session.FlashMessage {
	return session.FlashMessage{Category: category, Text: text}
}
