// Package geo holds the coordinate math used by radius search and the
// best-effort geocoding client.
//
// Distances are great-circle distances on a sphere of radius EarthRadiusKm.
// A listing has no coordinates of its own; callers pass its city centroid.
package geo

import "math"

// EarthRadiusKm is the mean Earth radius used by every distance helper.
const EarthRadiusKm = 6371.0

// Point is a WGS84 coordinate in decimal degrees.
type Point struct {
	Lat float64
	Lng float64
}

// DistanceKm returns the haversine distance between a and b.
func DistanceKm(a, b Point) float64 {
	lat1, lat2 := radians(a.Lat), radians(b.Lat)
	dLat := lat2 - lat1
	dLng := radians(b.Lng - a.Lng)

	h := math.Sin(dLat/2)*math.Sin(dLat/2) +
		math.Cos(lat1)*math.Cos(lat2)*math.Sin(dLng/2)*math.Sin(dLng/2)
	if h > 1 {
		h = 1
	}
	return 2 * EarthRadiusKm * math.Asin(math.Sqrt(h))
}

// Within reports whether p lies at most radiusKm from center.  The boundary
// is inclusive.
func Within(center, p Point, radiusKm float64) bool {
	return DistanceKm(center, p) <= radiusKm
}

// Box is a latitude/longitude rectangle.
type Box struct {
	MinLat, MaxLat float64
	MinLng, MaxLng float64
}

// boxSlack widens the box so float rounding never drops a boundary point
// before the exact haversine check runs.
const boxSlack = 1e-6

// BoundingBox returns a rectangle containing every point within radiusKm of
// center.  It is a cheap SQL pre-filter; Within still has to run on each
// candidate.
func BoundingBox(center Point, radiusKm float64) Box {
	angular := radiusKm / EarthRadiusKm
	dLat := degrees(angular)

	b := Box{
		MinLat: center.Lat - dLat - boxSlack,
		MaxLat: center.Lat + dLat + boxSlack,
		MinLng: -180,
		MaxLng: 180,
	}

	latRad := radians(center.Lat)
	if s := math.Sin(angular) / math.Cos(latRad); s < 1 && b.MaxLat < 90 && b.MinLat > -90 {
		dLng := degrees(math.Asin(s))
		b.MinLng = center.Lng - dLng - boxSlack
		b.MaxLng = center.Lng + dLng + boxSlack
	}
	return b
}

func radians(d float64) float64 { return d * math.Pi / 180 }
func degrees(r float64) float64 { return r * 180 / math.Pi }
