package geo

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var (
	berlin  = Point{Lat: 52.5200, Lng: 13.4050}
	hamburg = Point{Lat: 53.5511, Lng: 9.9937}
	munich  = Point{Lat: 48.1351, Lng: 11.5820}
)

func TestDistanceKm_KnownPairs(t *testing.T) {
	assert.InDelta(t, 255.0, DistanceKm(berlin, hamburg), 3.0)
	assert.InDelta(t, 504.0, DistanceKm(berlin, munich), 5.0)
	assert.Zero(t, DistanceKm(berlin, berlin))
	assert.InDelta(t, DistanceKm(berlin, hamburg), DistanceKm(hamburg, berlin), 1e-9)
}

func TestWithin_BoundaryInclusive(t *testing.T) {
	d := DistanceKm(berlin, hamburg)

	assert.True(t, Within(berlin, hamburg, d), "point exactly on the radius must be included")
	assert.False(t, Within(berlin, hamburg, math.Nextafter(d, 0)), "point just outside must be excluded")
	assert.True(t, Within(berlin, hamburg, 300))
	assert.False(t, Within(berlin, hamburg, 50))
}

func TestBoundingBox_ContainsRadius(t *testing.T) {
	for _, r := range []float64{5, 10, 20, 50} {
		box := BoundingBox(berlin, r)
		// Probe the circle at 16 bearings; every point must fall inside.
		for i := 0; i < 16; i++ {
			bearing := float64(i) * math.Pi / 8
			p := destination(berlin, r, bearing)
			require.InDelta(t, r, DistanceKm(berlin, p), 1e-6)
			assert.GreaterOrEqual(t, p.Lat, box.MinLat)
			assert.LessOrEqual(t, p.Lat, box.MaxLat)
			assert.GreaterOrEqual(t, p.Lng, box.MinLng)
			assert.LessOrEqual(t, p.Lng, box.MaxLng)
		}
	}
}

// destination walks distKm from p along bearing (radians).
func destination(p Point, distKm, bearing float64) Point {
	ang := distKm / EarthRadiusKm
	lat1, lng1 := radians(p.Lat), radians(p.Lng)
	lat2 := math.Asin(math.Sin(lat1)*math.Cos(ang) + math.Cos(lat1)*math.Sin(ang)*math.Cos(bearing))
	lng2 := lng1 + math.Atan2(math.Sin(bearing)*math.Sin(ang)*math.Cos(lat1), math.Cos(ang)-math.Sin(lat1)*math.Sin(lat2))
	return Point{Lat: degrees(lat2), Lng: degrees(lng2)}
}
