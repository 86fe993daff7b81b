package directory

import (
	"context"
	"errors"
	"strconv"
	"strings"

	"go.uber.org/zap"

	"github.com/servicii-ro/directory/internal/geo"
	"github.com/servicii-ro/directory/internal/metrics"
)

const (
	HomeLimit     = 30
	FeaturedLimit = 8
)

// AllowedRadii are the only radius values search honours, in km.
var AllowedRadii = []int{5, 10, 20, 50}

// ParseRadius returns the radius in km when s is one of AllowedRadii.
func ParseRadius(s string) (int, bool) {
	n, err := strconv.Atoi(strings.TrimSpace(s))
	if err != nil {
		return 0, false
	}
	for _, r := range AllowedRadii {
		if n == r {
			return n, true
		}
	}
	return 0, false
}

// SearchParams is a listing query as the public pages express it.
type SearchParams struct {
	Text         string
	CategorySlug string
	CitySlug     string
	Location     string // free text, geocoded
	Radius       string // raw query value
	VerifiedOnly bool
	FeaturedOnly bool
	Limit        uint
	Page         string // metrics label
}

// SearchResult carries the listings plus the filters that actually applied,
// so pages can echo them back.
type SearchResult struct {
	Listings []ListingView
	Category *Category
	City     *City
	Center   *geo.Point
	RadiusKm int // zero when no radius filter applied
	Geocode  *geo.Result
}

// Search composes listing queries.
type Search struct {
	repo    Repository
	locator geo.Locator
}

// NewSearch returns a Search.  locator may be nil, which disables
// location-based radius search.
func NewSearch(repo Repository, locator geo.Locator) *Search {
	return &Search{repo: repo, locator: locator}
}

// Listings runs p.  Unknown slugs are ignored, never errors.  A radius
// needs an allowed value and a center: the geocoded Location when given,
// otherwise the selected city's centroid.  Geocoding failures only drop the
// radius filter.  A radius centred on the selected city replaces the
// city equality filter, so neighbouring cities inside the circle match.
func (s *Search) Listings(ctx context.Context, p SearchParams) (SearchResult, error) {
	var (
		res SearchResult
		f   = ListingFilter{
			Text:         strings.TrimSpace(p.Text),
			VerifiedOnly: p.VerifiedOnly,
			FeaturedOnly: p.FeaturedOnly,
			Limit:        p.Limit,
		}
	)

	if slug := strings.TrimSpace(p.CategorySlug); slug != "" {
		c, err := s.repo.CategoryBySlug(ctx, slug)
		switch {
		case err == nil:
			res.Category = &c
			f.CategoryID = c.ID
		case !errors.Is(err, ErrNotFound):
			return res, err
		}
	}
	if slug := strings.TrimSpace(p.CitySlug); slug != "" {
		c, err := s.repo.CityBySlug(ctx, slug)
		switch {
		case err == nil:
			res.City = &c
			f.CityID = c.ID
		case !errors.Is(err, ErrNotFound):
			return res, err
		}
	}

	radius, radiusOK := ParseRadius(p.Radius)
	if radiusOK {
		if loc := strings.TrimSpace(p.Location); loc != "" && s.locator != nil {
			g := s.locator.Geocode(ctx, loc)
			res.Geocode = &g
			if g.OK() {
				pt := g.Point
				res.Center = &pt
			}
		} else if res.City != nil {
			if pt, ok := res.City.Centroid(); ok {
				res.Center = &pt
				// The circle around the city subsumes it.
				f.CityID = 0
			}
		}
	}

	if res.Center != nil {
		box := geo.BoundingBox(*res.Center, float64(radius))
		f.Box = &box
		f.Limit = 0
		res.RadiusKm = radius
	}

	rows, err := s.repo.SearchListings(ctx, f)
	if err != nil {
		return res, err
	}
	if res.Center != nil {
		rows = withinRadius(rows, *res.Center, float64(radius))
		if p.Limit > 0 && uint(len(rows)) > p.Limit {
			rows = rows[:p.Limit]
		}
	}
	res.Listings = rows

	label := p.Page
	if label == "" {
		label = "other"
	}
	metrics.SearchesTotal.WithLabelValues(label, strconv.FormatBool(res.Center != nil)).Inc()
	if res.Geocode != nil && !res.Geocode.OK() {
		zap.L().Debug("radius filter skipped",
			zap.String("location", p.Location),
			zap.String("reason", string(res.Geocode.Failure)))
	}
	return res, nil
}

// withinRadius keeps rows whose city centroid is within radiusKm of
// center, inclusive, and records each distance.  Order is preserved.
func withinRadius(rows []ListingView, center geo.Point, radiusKm float64) []ListingView {
	out := rows[:0]
	for _, v := range rows {
		if !v.CityLat.Valid || !v.CityLng.Valid {
			continue
		}
		pt := geo.Point{Lat: v.CityLat.Float64, Lng: v.CityLng.Float64}
		d := geo.DistanceKm(center, pt)
		if d > radiusKm {
			continue
		}
		v.DistanceKm = &d
		out = append(out, v)
	}
	return out
}

// Featured returns the home page carousel: up to FeaturedLimit featured
// listings, most recently updated first, ignoring every search filter.
func (s *Search) Featured(ctx context.Context) ([]ListingView, error) {
	return s.repo.FeaturedListings(ctx, FeaturedLimit)
}
