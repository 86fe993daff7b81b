package directory

import (
	"errors"
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/servicii-ro/directory/internal/geo"
)

func TestParseCityInput(t *testing.T) {
	cases := []struct {
		in, want string
	}{
		{"31655 Stadthagen", "Stadthagen"},
		{"Berlin", "Berlin"},
		{"  10115   Berlin  Mitte ", "Berlin Mitte"},
		{"Frankfurt am Main", "Frankfurt am Main"},
		{"A1 Street", "A1 Street"},
	}
	for _, tc := range cases {
		got, err := ParseCityInput(tc.in)
		require.NoError(t, err, tc.in)
		assert.Equal(t, tc.want, got, tc.in)
	}
}

func TestParseCityInput_Invalid(t *testing.T) {
	for _, in := range []string{"", "   ", "31655", " 80331 "} {
		_, err := ParseCityInput(in)
		assert.True(t, errors.Is(err, ErrInvalidCity), "input %q: %v", in, err)
		assert.True(t, IsValidation(err))
	}
}

func TestParseRadius(t *testing.T) {
	for _, ok := range []string{"5", "10", "20", "50", " 20 "} {
		_, got := ParseRadius(ok)
		assert.True(t, got, ok)
	}
	for _, bad := range []string{"", "0", "15", "100", "-5", "ten"} {
		_, got := ParseRadius(bad)
		assert.False(t, got, bad)
	}
}

func view(id int64, lat, lng float64) ListingView {
	v := ListingView{Listing: Listing{ID: id}}
	v.CityLat.Float64, v.CityLat.Valid = lat, true
	v.CityLng.Float64, v.CityLng.Valid = lng, true
	return v
}

func TestWithinRadius_BoundaryInclusive(t *testing.T) {
	center := geo.Point{Lat: 52.52, Lng: 13.405}
	potsdam := geo.Point{Lat: 52.3906, Lng: 13.0645}
	d := geo.DistanceKm(center, potsdam)

	rows := []ListingView{view(1, potsdam.Lat, potsdam.Lng)}
	got := withinRadius(rows, center, d)
	require.Len(t, got, 1)
	require.NotNil(t, got[0].DistanceKm)
	assert.Equal(t, d, *got[0].DistanceKm)

	rows = []ListingView{view(1, potsdam.Lat, potsdam.Lng)}
	assert.Empty(t, withinRadius(rows, center, math.Nextafter(d, 0)))
}

func TestWithinRadius_SkipsCitiesWithoutCentroid(t *testing.T) {
	rows := []ListingView{{Listing: Listing{ID: 1}}, view(2, 52.52, 13.405)}
	got := withinRadius(rows, geo.Point{Lat: 52.52, Lng: 13.405}, 5)
	require.Len(t, got, 1)
	assert.Equal(t, int64(2), got[0].ID)
}

func TestMatchKindString(t *testing.T) {
	assert.Equal(t, "matched", Matched.String())
	assert.Equal(t, "fallback_default", FallbackDefault.String())
	assert.Equal(t, "not_found", NotFound.String())
}
