package public

import (
	"net/http"
	"strings"

	"github.com/go-chi/chi/v5"

	"github.com/servicii-ro/directory/internal/directory"
	"github.com/servicii-ro/directory/internal/head"
)

// searchForm echoes the query string back into the filter forms.
type searchForm struct {
	Q            string
	Category     string
	City         string
	Location     string
	Radius       string
	VerifiedOnly bool
	FeaturedOnly bool
}

func readForm(r *http.Request) searchForm {
	q := r.URL.Query()
	get := func(k string) string { return strings.TrimSpace(q.Get(k)) }
	return searchForm{
		Q:            get("q"),
		Category:     get("category"),
		City:         get("city"),
		Location:     get("location"),
		Radius:       get("radius"),
		VerifiedOnly: get("verified") == "1",
		FeaturedOnly: get("featured") == "1",
	}
}

type homeData struct {
	Form          searchForm
	Listings      []directory.ListingView
	Featured      []directory.ListingView
	RadiusKm      int
	GeocodeFailed bool
}

// home: q, category, location, radius.  City filtering happens only
// through the geocoded location.
func (c *Comp) home(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	f := readForm(r)

	res, err := c.d.Search.Listings(ctx, directory.SearchParams{
		Text:         f.Q,
		CategorySlug: f.Category,
		Location:     f.Location,
		Radius:       f.Radius,
		Limit:        directory.HomeLimit,
		Page:         "home",
	})
	if err != nil {
		c.d.Fail(w, r, err)
		return
	}
	featured, err := c.d.Search.Featured(ctx)
	if err != nil {
		c.d.Fail(w, r, err)
		return
	}

	h := head.New()
	h.SetDescription("Firme și specialiști care vorbesc română în Germania: " +
		"dentiști, avocați, contabili, meșteri și alții.")
	h.Canonical(c.d.Origin(r) + "/")

	data := homeData{
		Form:          f,
		Listings:      res.Listings,
		Featured:      featured,
		RadiusKm:      res.RadiusKm,
		GeocodeFailed: res.Geocode != nil && !res.Geocode.OK(),
	}
	c.d.Render(w, r, http.StatusOK, "home", c.d.Page(w, r, h, data))
}

type categoryData struct {
	Category directory.Category
	Form     searchForm
	Listings []directory.ListingView
	RadiusKm int
}

// category: city, radius (around the city centroid), verified, featured.
func (c *Comp) category(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	cat, err := c.d.Store.CategoryBySlug(ctx, chi.URLParam(r, "slug"))
	if err != nil {
		c.d.Fail(w, r, err)
		return
	}
	f := readForm(r)

	res, err := c.d.Search.Listings(ctx, directory.SearchParams{
		CategorySlug: cat.Slug,
		CitySlug:     f.City,
		Radius:       f.Radius,
		VerifiedOnly: f.VerifiedOnly,
		FeaturedOnly: f.FeaturedOnly,
		Page:         "category",
	})
	if err != nil {
		c.d.Fail(w, r, err)
		return
	}

	h := head.New()
	title := cat.Name + " care vorbesc română în Germania"
	if res.City != nil {
		title = head.LandingTitle(cat.Name, res.City.Name)
	}
	h.SetTitle(title)
	h.SetDescription("Găsește " + strings.ToLower(cat.Name) + " care vorbesc română în Germania.")
	h.Canonical(c.d.Origin(r) + "/category/" + cat.Slug)

	data := categoryData{Category: cat, Form: f, Listings: res.Listings, RadiusKm: res.RadiusKm}
	c.d.Render(w, r, http.StatusOK, "category", c.d.Page(w, r, h, data))
}

type cityData struct {
	City     directory.City
	Form     searchForm
	Listings []directory.ListingView
}

// city: category, verified, featured.
func (c *Comp) city(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	city, err := c.d.Store.CityBySlug(ctx, chi.URLParam(r, "slug"))
	if err != nil {
		c.d.Fail(w, r, err)
		return
	}
	f := readForm(r)

	res, err := c.d.Search.Listings(ctx, directory.SearchParams{
		CitySlug:     city.Slug,
		CategorySlug: f.Category,
		VerifiedOnly: f.VerifiedOnly,
		FeaturedOnly: f.FeaturedOnly,
		Page:         "city",
	})
	if err != nil {
		c.d.Fail(w, r, err)
		return
	}

	h := head.New()
	h.SetTitle("Servicii în limba română în " + city.Name)
	h.SetDescription("Firme și specialiști care vorbesc română în " + city.Name + ".")
	h.Canonical(c.d.Origin(r) + "/city/" + city.Slug)

	data := cityData{City: city, Form: f, Listings: res.Listings}
	c.d.Render(w, r, http.StatusOK, "city", c.d.Page(w, r, h, data))
}

type landingData struct {
	Category directory.Category
	City     directory.City
	Listings []directory.ListingView
}

// landing is the SEO page for one category in one city.  Both slugs must
// exist.
func (c *Comp) landing(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	cat, err := c.d.Store.CategoryBySlug(ctx, chi.URLParam(r, "category"))
	if err != nil {
		c.d.Fail(w, r, err)
		return
	}
	city, err := c.d.Store.CityBySlug(ctx, chi.URLParam(r, "city"))
	if err != nil {
		c.d.Fail(w, r, err)
		return
	}

	res, err := c.d.Search.Listings(ctx, directory.SearchParams{
		CategorySlug: cat.Slug,
		CitySlug:     city.Slug,
		Page:         "landing",
	})
	if err != nil {
		c.d.Fail(w, r, err)
		return
	}

	h := head.New()
	h.SetTitle(head.LandingTitle(cat.Name, city.Name))
	h.SetDescription(head.LandingDescription(cat.Name, city.Name))
	h.Canonical(c.d.Origin(r) + "/servicii/" + cat.Slug + "/" + city.Slug)

	data := landingData{Category: cat, City: city, Listings: res.Listings}
	c.d.Render(w, r, http.StatusOK, "landing", c.d.Page(w, r, h, data))
}
