package geo

import (
	"fmt"
	"math"
)

// EarthRadius is the mean earth radius in meters, used for
// great-circle distance
const EarthRadius = 6371000.0

const maxMargin = 1.0e-9

// LatLng represents a geographic coordinate in degrees.
// No range invariant is enforced here; wrapping a coordinate into a CRS's
// valid range is a CRS operation, not a property of the type.
type LatLng struct {
	Lat float64
	Lng float64
	Alt float64
}

// NewLatLng creates a coordinate from latitude/longitude in degrees
func NewLatLng(lat, lng float64) LatLng {
	return LatLng{Lat: lat, Lng: lng}
}

// Equals reports whether two coordinates match within a small margin
func (ll LatLng) Equals(other LatLng) bool {
	margin := math.Max(
		math.Abs(ll.Lat-other.Lat),
		math.Abs(ll.Lng-other.Lng),
	)
	return margin <= maxMargin
}

// DistanceTo returns the great-circle distance to other in meters,
// using the haversine formula
func (ll LatLng) DistanceTo(other LatLng) float64 {
	lat1 := ll.Lat * math.Pi / 180
	lat2 := other.Lat * math.Pi / 180
	dLat := (other.Lat - ll.Lat) * math.Pi / 180
	dLng := (other.Lng - ll.Lng) * math.Pi / 180

	a := math.Sin(dLat/2)*math.Sin(dLat/2) +
		math.Cos(lat1)*math.Cos(lat2)*math.Sin(dLng/2)*math.Sin(dLng/2)
	c := 2 * math.Atan2(math.Sqrt(a), math.Sqrt(1-a))

	return EarthRadius * c
}

// IsFinite reports whether both components are finite numbers
func (ll LatLng) IsFinite() bool {
	return !math.IsInf(ll.Lat, 0) && !math.IsNaN(ll.Lat) &&
		!math.IsInf(ll.Lng, 0) && !math.IsNaN(ll.Lng)
}

// ToBounds returns a geographic rectangle of the given size in meters
// centered on ll
func (ll LatLng) ToBounds(sizeInMeters float64) LatLngBounds {
	latAccuracy := 180 * sizeInMeters / 40075017
	lngAccuracy := latAccuracy / math.Cos(ll.Lat*math.Pi/180)

	var b LatLngBounds
	b = b.Extend(LatLng{Lat: ll.Lat - latAccuracy, Lng: ll.Lng - lngAccuracy})
	b = b.Extend(LatLng{Lat: ll.Lat + latAccuracy, Lng: ll.Lng + lngAccuracy})
	return b
}

func (ll LatLng) String() string {
	return fmt.Sprintf("LatLng(%.6f, %.6f)", ll.Lat, ll.Lng)
}
