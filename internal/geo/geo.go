// Package geo provides the distance and bounding-box math used by driver
// matching and surge pricing.
package geo

import "math"

const (
	earthRadiusMeters = 6371000

	// metersPerDegree is the approximate length of one degree of
	// latitude. Longitude degrees shrink with cos(latitude).
	metersPerDegree = 111000

	// polarLatLimit is the latitude beyond which the longitude offset
	// calculation degenerates (cos approaches zero). Past it the box is
	// widened to the full longitude range instead of dividing by a
	// vanishing cosine.
	polarLatLimit = 89.9
)

// DistanceMeters returns the great-circle distance between two points
// using the haversine formula.
func DistanceMeters(lat1, lng1, lat2, lng2 float64) float64 {
	phi1 := lat1 * math.Pi / 180
	phi2 := lat2 * math.Pi / 180
	dPhi := (lat2 - lat1) * math.Pi / 180
	dLambda := (lng2 - lng1) * math.Pi / 180

	a := math.Sin(dPhi/2)*math.Sin(dPhi/2) +
		math.Cos(phi1)*math.Cos(phi2)*math.Sin(dLambda/2)*math.Sin(dLambda/2)
	c := 2 * math.Atan2(math.Sqrt(a), math.Sqrt(1-a))

	return earthRadiusMeters * c
}

// BoundingBox is a rectangular coordinate window. It over-approximates a
// radius search: callers must refine candidates with DistanceMeters.
type BoundingBox struct {
	MinLat float64
	MaxLat float64
	MinLng float64
	MaxLng float64
}

// NewBoundingBox returns the bounding box covering radiusMeters around
// (lat, lng). Latitudes are clamped to [-90, 90]; near the poles the
// longitude window widens to the full range rather than dividing by a
// cosine that tends to zero.
func NewBoundingBox(lat, lng, radiusMeters float64) BoundingBox {
	latOffset := radiusMeters / metersPerDegree

	box := BoundingBox{
		MinLat: math.Max(lat-latOffset, -90),
		MaxLat: math.Min(lat+latOffset, 90),
	}

	if math.Abs(lat) >= polarLatLimit {
		box.MinLng = -180
		box.MaxLng = 180
		return box
	}

	lngOffset := radiusMeters / (metersPerDegree * math.Cos(lat*math.Pi/180))
	box.MinLng = lng - lngOffset
	box.MaxLng = lng + lngOffset
	return box
}

// Contains reports whether the point falls inside the box.
func (b BoundingBox) Contains(lat, lng float64) bool {
	return lat >= b.MinLat && lat <= b.MaxLat && lng >= b.MinLng && lng <= b.MaxLng
}
