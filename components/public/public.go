// components/public/public.go
//
// Public site component – search pages, listing detail, recommendation and
// contact forms, sitemap, and legal pages.
package public

import (
	"github.com/go-chi/chi/v5"

	"github.com/servicii-ro/directory/internal/component"
)

// compile-time assertion
var _ component.Component = (*Comp)(nil)

// Comp serves every anonymous route.
type Comp struct {
	d *component.Deps
}

// New returns the component over d.
func New(d *component.Deps) *Comp { return &Comp{d: d} }

func init() {
	component.Register("public", func(d *component.Deps) component.Component { return New(d) })
}

func (c *Comp) Name() string { return "public" }

// Mount registers the public routes.
func (c *Comp) Mount(r chi.Router) {
	r.Get("/", c.home)
	r.Get("/category/{slug}", c.category)
	r.Get("/city/{slug}", c.city)
	r.Get("/listing/{slug}", c.listing)
	r.Get("/servicii/{category}/{city}", c.landing)

	r.Get("/recommend", c.recommendForm)
	r.With(c.d.CSRF.Protect).Post("/recommend", c.recommendSubmit)
	r.Get("/contact", c.contactForm)
	r.With(c.d.CSRF.Protect).Post("/contact", c.contactSubmit)

	r.Get("/sitemap.xml", c.sitemap)
	r.Get("/impressum", c.static("impressum", "Impressum"))
	r.Get("/datenschutz", c.static("datenschutz", "Datenschutzerklärung"))
	r.Get("/healthz", c.healthz)

	// The panel lives under a private prefix; the obvious path is a dead end.
	r.Get("/admin", c.d.NotFound)
	r.Get("/admin/", c.d.NotFound)
}
