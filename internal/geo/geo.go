// Package geo contains the geographic primitives shared by the client and the
// server: coordinate points, bounding boxes and distance helpers.
package geo

import "math"

const (
	// EarthRadiusMeters is the mean Earth radius used by Distance.
	EarthRadiusMeters = 6371000.0

	// MetersPerDegreeLat is the flat approximation used to convert a
	// real-world distance into degrees for grid sizing.
	MetersPerDegreeLat = 111000.0
)

// Point is a WGS 84 coordinate pair. Two points are the same entity only when
// both components are exactly equal.
type Point struct {
	Latitude  float64 `json:"latitude"`
	Longitude float64 `json:"longitude"`
}

// Valid reports whether both components are finite numbers.
func (p Point) Valid() bool {
	return !math.IsNaN(p.Latitude) && !math.IsInf(p.Latitude, 0) &&
		!math.IsNaN(p.Longitude) && !math.IsInf(p.Longitude, 0)
}

// Less orders points by latitude, then longitude.
func (p Point) Less(o Point) bool {
	if p.Latitude != o.Latitude {
		return p.Latitude < o.Latitude
	}
	return p.Longitude < o.Longitude
}

// Bounds is an axis-aligned latitude/longitude box, inclusive on all edges.
type Bounds struct {
	MinLat float64 `json:"min_lat"`
	MinLon float64 `json:"min_lon"`
	MaxLat float64 `json:"max_lat"`
	MaxLon float64 `json:"max_lon"`
}

// Contains checks if a point is within the box.
func (b Bounds) Contains(p Point) bool {
	return p.Latitude >= b.MinLat && p.Latitude <= b.MaxLat &&
		p.Longitude >= b.MinLon && p.Longitude <= b.MaxLon
}

// Expand grows the box by deg degrees on every side.
func (b Bounds) Expand(deg float64) Bounds {
	return Bounds{
		MinLat: b.MinLat - deg,
		MinLon: b.MinLon - deg,
		MaxLat: b.MaxLat + deg,
		MaxLon: b.MaxLon + deg,
	}
}

// MetersToDegrees converts a distance to degrees of latitude using
// MetersPerDegreeLat.
func MetersToDegrees(m float64) float64 {
	return m / MetersPerDegreeLat
}

// Distance returns the great-circle distance between a and b in meters.
func Distance(a, b Point) float64 {
	lat1 := a.Latitude * math.Pi / 180
	lat2 := b.Latitude * math.Pi / 180
	dLat := (b.Latitude - a.Latitude) * math.Pi / 180
	dLon := (b.Longitude - a.Longitude) * math.Pi / 180

	h := math.Sin(dLat/2)*math.Sin(dLat/2) +
		math.Cos(lat1)*math.Cos(lat2)*
			math.Sin(dLon/2)*math.Sin(dLon/2)
	c := 2 * math.Atan2(math.Sqrt(h), math.Sqrt(1-h))

	return EarthRadiusMeters * c
}

// OffsetNorth returns p moved m meters along its meridian.
func OffsetNorth(p Point, m float64) Point {
	return Point{
		Latitude:  p.Latitude + m/EarthRadiusMeters*180/math.Pi,
		Longitude: p.Longitude,
	}
}
