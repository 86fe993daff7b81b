package public

import (
	"encoding/json"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/servicii-ro/directory/internal/directory"
	"github.com/servicii-ro/directory/internal/head"
)

type listingData struct {
	Listing directory.ListingView
}

func (c *Comp) listing(w http.ResponseWriter, r *http.Request) {
	l, err := c.d.Store.ListingBySlug(r.Context(), chi.URLParam(r, "slug"))
	if err != nil {
		c.d.Fail(w, r, err)
		return
	}

	url := c.d.Origin(r) + "/listing/" + l.Slug
	h := head.New()
	h.SetTitle(l.Name + " – " + l.CategoryName + " în " + l.CityName)
	desc := head.Excerpt(l.Description.String, 160)
	if desc == "" {
		desc = l.CategoryName + " care vorbește română în " + l.CityName + "."
	}
	h.SetDescription(desc)
	h.Canonical(url)
	if js, err := localBusiness(l, url); err == nil {
		h.JSONLD(js)
	}

	c.d.Render(w, r, http.StatusOK, "listing", c.d.Page(w, r, h, listingData{Listing: l}))
}

// localBusiness is the schema.org block for a listing page.
func localBusiness(l directory.ListingView, url string) (string, error) {
	doc := map[string]any{
		"@context": "https://schema.org",
		"@type":    "LocalBusiness",
		"name":     l.Name,
		"url":      url,
		"address": map[string]any{
			"@type":           "PostalAddress",
			"addressLocality": l.CityName,
			"addressCountry":  "DE",
		},
	}
	if l.Address.Valid {
		doc["address"].(map[string]any)["streetAddress"] = l.Address.String
	}
	if l.Phone.Valid {
		doc["telephone"] = l.Phone.String
	}
	if l.ImageURL.Valid {
		doc["image"] = l.ImageURL.String
	}
	if l.Website.Valid {
		doc["sameAs"] = l.Website.String
	}
	if langs := l.LanguageList(); len(langs) > 0 {
		doc["knowsLanguage"] = langs
	}
	b, err := json.Marshal(doc)
	if err != nil {
		return "", err
	}
	return string(b), nil
}
