// Package crs composes projections with affine pixel transformations into
// coordinate reference systems: the sole authority translating geographic
// coordinates into pixel space at a given zoom.
package crs

import (
	"math"

	"slippymap/geo"
)

// baseTileSize is the pixel size of the world at zoom 0; the scale law is
// baseTileSize * 2^zoom
const baseTileSize = 256

// WrapRange is an inclusive [min, max] interval a coordinate axis wraps
// into
type WrapRange struct {
	Min float64
	Max float64
}

// CRS is a coordinate reference system: one projection, one pixel
// transformation, a scale law and optional world-wrap rules. A map owns
// exactly one CRS for its lifetime.
type CRS struct {
	// Code identifies the CRS, e.g. "EPSG:3857"
	Code string

	Projection     Projection
	Transformation Transformation

	// WrapLng and WrapLat, when non-nil, declare the range the respective
	// axis wraps into
	WrapLng *WrapRange
	WrapLat *WrapRange

	// Infinite marks a CRS without world bounds (the Simple CRS)
	Infinite bool

	// Flat switches Distance to planar Euclidean instead of great-circle
	Flat bool

	// ScaleFn and ZoomFn override the default 256*2^zoom scale law; both
	// must be set together and remain mutual inverses
	ScaleFn func(zoom float64) float64
	ZoomFn  func(scale float64) float64
}

// Scale returns the pixel size of the whole world at the given zoom
func (c *CRS) Scale(zoom float64) float64 {
	if c.ScaleFn != nil {
		return c.ScaleFn(zoom)
	}
	return baseTileSize * math.Pow(2, zoom)
}

// Zoom returns the zoom level at which the world has the given pixel size;
// the inverse of Scale
func (c *CRS) Zoom(scale float64) float64 {
	if c.ZoomFn != nil {
		return c.ZoomFn(scale)
	}
	return math.Log2(scale / baseTileSize)
}

// LatLngToPoint projects a geographic coordinate into pixel space at the
// given zoom
func (c *CRS) LatLngToPoint(ll geo.LatLng, zoom float64) geo.Point {
	projected := c.Projection.Project(ll)
	return c.Transformation.Transform(projected, c.Scale(zoom))
}

// PointToLatLng converts a pixel-space point at the given zoom back into a
// geographic coordinate; the exact inverse of LatLngToPoint
func (c *CRS) PointToLatLng(p geo.Point, zoom float64) geo.LatLng {
	untransformed := c.Transformation.Untransform(p, c.Scale(zoom))
	return c.Projection.Unproject(untransformed)
}

// Project converts a geographic coordinate into the projection's planar
// space, without pixel scaling
func (c *CRS) Project(ll geo.LatLng) geo.Point {
	return c.Projection.Project(ll)
}

// Unproject converts a planar coordinate back into a geographic one
func (c *CRS) Unproject(p geo.Point) geo.LatLng {
	return c.Projection.Unproject(p)
}

// ProjectedBounds returns the planar world extent, or an invalid bounds
// for an infinite CRS
func (c *CRS) ProjectedBounds() geo.Bounds {
	if c.Infinite {
		return geo.Bounds{}
	}
	return c.Projection.Bounds()
}

// PixelBounds returns the pixel-space world extent at the given zoom, or
// an invalid bounds for an infinite CRS
func (c *CRS) PixelBounds(zoom float64) geo.Bounds {
	if c.Infinite {
		return geo.Bounds{}
	}
	b := c.Projection.Bounds()
	s := c.Scale(zoom)
	min := c.Transformation.Transform(b.Min, s)
	max := c.Transformation.Transform(b.Max, s)
	return geo.NewBounds(min, max)
}

// Wraps reports whether the CRS wraps on at least one axis
func (c *CRS) Wraps() bool {
	return c.WrapLng != nil || c.WrapLat != nil
}

// WrapLatLng reduces a coordinate into the CRS's wrap ranges; axes without
// a wrap range pass through unchanged. Altitude is preserved.
func (c *CRS) WrapLatLng(ll geo.LatLng) geo.LatLng {
	lat := ll.Lat
	lng := ll.Lng
	if c.WrapLat != nil {
		lat = wrapNum(lat, *c.WrapLat, true)
	}
	if c.WrapLng != nil {
		lng = wrapNum(lng, *c.WrapLng, true)
	}
	return geo.LatLng{Lat: lat, Lng: lng, Alt: ll.Alt}
}

// WrapLatLngBounds shifts a geographic rectangle so that its center lies
// within the wrap ranges, preserving the rectangle's size
func (c *CRS) WrapLatLngBounds(b geo.LatLngBounds) geo.LatLngBounds {
	center := b.Center()
	wrapped := c.WrapLatLng(center)
	latShift := center.Lat - wrapped.Lat
	lngShift := center.Lng - wrapped.Lng

	if latShift == 0 && lngShift == 0 {
		return b
	}

	sw := b.SouthWest
	ne := b.NorthEast
	return geo.NewLatLngBounds(
		geo.LatLng{Lat: sw.Lat - latShift, Lng: sw.Lng - lngShift},
		geo.LatLng{Lat: ne.Lat - latShift, Lng: ne.Lng - lngShift},
	)
}

// Distance returns the distance between two coordinates in CRS units:
// great-circle meters for geographic systems, planar Euclidean for a flat
// one
func (c *CRS) Distance(a, b geo.LatLng) float64 {
	if c.Flat {
		dx := b.Lng - a.Lng
		dy := b.Lat - a.Lat
		return math.Sqrt(dx*dx + dy*dy)
	}
	return a.DistanceTo(b)
}

// wrapNum reduces x into [rng.Min, rng.Max) using a floored modulo that is
// well-defined for any finite input, never returning a negative offset.
// With includeMax, an exact rng.Max input is kept as is.
func wrapNum(x float64, rng WrapRange, includeMax bool) float64 {
	max := rng.Max
	min := rng.Min
	d := max - min

	if x == max && includeMax {
		return x
	}
	return math.Mod(math.Mod(x-min, d)+d, d) + min
}

// EPSG3857 is the spherical-mercator CRS used by web tile maps
var EPSG3857 = &CRS{
	Code:           "EPSG:3857",
	Projection:     SphericalMercator{},
	Transformation: mercatorTransformation(),
	WrapLng:        &WrapRange{Min: -180, Max: 180},
}

// EPSG900913 is the legacy alias for EPSG:3857
var EPSG900913 = &CRS{
	Code:           "EPSG:900913",
	Projection:     SphericalMercator{},
	Transformation: mercatorTransformation(),
	WrapLng:        &WrapRange{Min: -180, Max: 180},
}

// EPSG4326 is the plate-carrée CRS: planar space is lng/lat degrees
var EPSG4326 = &CRS{
	Code:           "EPSG:4326",
	Projection:     LonLat{},
	Transformation: NewTransformation(1.0/180, 1, -1.0/180, 0.5),
	WrapLng:        &WrapRange{Min: -180, Max: 180},
}

// EPSG3395 is the elliptical-mercator CRS
var EPSG3395 = &CRS{
	Code:           "EPSG:3395",
	Projection:     Mercator{},
	Transformation: ellipticalTransformation(),
	WrapLng:        &WrapRange{Min: -180, Max: 180},
}

// Simple is a flat CRS for non-geographic maps: one planar unit maps to
// one pixel at zoom 0, distances are Euclidean and nothing wraps
var Simple = &CRS{
	Code:           "Simple",
	Projection:     LonLat{},
	Transformation: NewTransformation(1, 0, -1, 0),
	Infinite:       true,
	Flat:           true,
	ScaleFn:        func(zoom float64) float64 { return math.Pow(2, zoom) },
	ZoomFn:         math.Log2,
}

func mercatorTransformation() Transformation {
	scale := 0.5 / (math.Pi * EarthRadius)
	return NewTransformation(scale, 0.5, -scale, 0.5)
}

func ellipticalTransformation() Transformation {
	scale := 0.5 / (math.Pi * EarthRadius)
	return NewTransformation(scale, 0.5, -scale, 0.5)
}
