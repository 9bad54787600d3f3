// Package geo provides the small amount of spherical and planar geometry the
// rest of the system needs: great-circle distance between fixes and the
// enclosed area of a walked boundary polygon.
package geo

import (
	"errors"
	"fmt"
	"math"
)

// EarthRadiusMeters is the mean Earth radius used for both the haversine
// distance and the local planar projection.
const EarthRadiusMeters = 6371000.0

// ErrInsufficientPoints is returned when a polygon operation is given fewer
// than three vertices. A zero return would be indistinguishable from a
// legitimately degenerate (collinear) polygon, so this is always an error.
var ErrInsufficientPoints = errors.New("polygon requires at least 3 points")

// Point is a geographic coordinate in degrees.
type Point struct {
	Lat float64 `json:"lat"`
	Lon float64 `json:"lon"`
}

// Validate checks that the coordinate is within the valid geographic range.
func (p Point) Validate() error {
	if math.IsNaN(p.Lat) || p.Lat < -90 || p.Lat > 90 {
		return fmt.Errorf("latitude %v out of range [-90, 90]", p.Lat)
	}
	if math.IsNaN(p.Lon) || p.Lon < -180 || p.Lon > 180 {
		return fmt.Errorf("longitude %v out of range [-180, 180]", p.Lon)
	}
	return nil
}

func (p Point) String() string {
	return fmt.Sprintf("(%.6f, %.6f)", p.Lat, p.Lon)
}

// Haversine returns the great-circle distance between two points in meters,
// assuming a spherical Earth. Good to well under a percent at the scales this
// system cares about, which is all the precision a walked GPS trace deserves.
func Haversine(a, b Point) float64 {
	lat1 := a.Lat * math.Pi / 180
	lat2 := b.Lat * math.Pi / 180
	dLat := (b.Lat - a.Lat) * math.Pi / 180
	dLon := (b.Lon - a.Lon) * math.Pi / 180

	h := math.Sin(dLat/2)*math.Sin(dLat/2) +
		math.Cos(lat1)*math.Cos(lat2)*math.Sin(dLon/2)*math.Sin(dLon/2)
	return 2 * EarthRadiusMeters * math.Atan2(math.Sqrt(h), math.Sqrt(1-h))
}

// Project maps a geographic point onto a local flat plane in meters using an
// equirectangular approximation: longitude is scaled by the cosine of the
// point's own latitude, latitude by the Earth radius directly. No recentering
// is performed. Valid only for small regions; distortion grows with the
// region's extent and its distance from the equator.
func Project(p Point) (x, y float64) {
	latRad := p.Lat * math.Pi / 180
	lonRad := p.Lon * math.Pi / 180
	x = EarthRadiusMeters * lonRad * math.Cos(latRad)
	y = EarthRadiusMeters * latRad
	return x, y
}

// PolygonArea returns the planar area in square meters enclosed by the given
// vertices. The polygon is implicitly closed: the last vertex connects back
// to the first, and the caller must not repeat the first point at the end.
// The result is independent of winding direction. Fewer than three vertices
// yields ErrInsufficientPoints.
func PolygonArea(points []Point) (float64, error) {
	if len(points) < 3 {
		return 0, fmt.Errorf("%w: got %d", ErrInsufficientPoints, len(points))
	}

	// Shoelace over the projected vertices, treating the sequence as cyclic.
	signed := 0.0
	n := len(points)
	xPrev, yPrev := Project(points[n-1])
	for i := 0; i < n; i++ {
		x, y := Project(points[i])
		signed += (xPrev + x) * (yPrev - y)
		xPrev, yPrev = x, y
	}
	return math.Abs(signed) / 2, nil
}

// Perimeter returns the total great-circle length in meters of the closed
// boundary through the given vertices, including the leg from the last
// vertex back to the first. Fewer than two vertices yields zero.
func Perimeter(points []Point) float64 {
	if len(points) < 2 {
		return 0
	}
	total := 0.0
	for i := 1; i < len(points); i++ {
		total += Haversine(points[i-1], points[i])
	}
	total += Haversine(points[len(points)-1], points[0])
	return total
}
