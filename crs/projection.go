package crs

import (
	"math"

	"slippymap/geo"
)

// Projection maps a geographic coordinate onto a planar one and back.
// Implementations are stateless; Unproject(Project(ll)) returns ll within
// floating-point tolerance for coordinates inside Bounds.
type Projection interface {
	Project(ll geo.LatLng) geo.Point
	Unproject(p geo.Point) geo.LatLng

	// Bounds returns the valid planar extent of the projection
	Bounds() geo.Bounds
}

const (
	// EarthRadius is the WGS84 equatorial radius in meters
	EarthRadius = 6378137.0

	// earthRadiusMinor is the WGS84 polar radius in meters
	earthRadiusMinor = 6356752.314245179
)

// MaxMercatorLatitude is the latitude beyond which the spherical mercator
// y-coordinate diverges; inputs are clamped to it before projecting
const MaxMercatorLatitude = 85.0511287798

// SphericalMercator is the Web-Mercator projection used by most tile
// providers (EPSG:3857). Latitude is clamped to ±MaxMercatorLatitude.
type SphericalMercator struct{}

// Project converts a geographic coordinate to mercator meters
func (SphericalMercator) Project(ll geo.LatLng) geo.Point {
	d := math.Pi / 180
	lat := math.Max(math.Min(MaxMercatorLatitude, ll.Lat), -MaxMercatorLatitude)
	sin := math.Sin(lat * d)

	return geo.Point{
		X: EarthRadius * ll.Lng * d,
		Y: EarthRadius * math.Log((1+sin)/(1-sin)) / 2,
	}
}

// Unproject converts mercator meters back to a geographic coordinate
func (SphericalMercator) Unproject(p geo.Point) geo.LatLng {
	d := 180 / math.Pi

	return geo.LatLng{
		Lat: (2*math.Atan(math.Exp(p.Y/EarthRadius)) - math.Pi/2) * d,
		Lng: p.X * d / EarthRadius,
	}
}

// Bounds returns the square mercator world extent
func (SphericalMercator) Bounds() geo.Bounds {
	r := EarthRadius * math.Pi
	return geo.NewBounds(geo.NewPoint(-r, -r), geo.NewPoint(r, r))
}

// Mercator is the elliptical mercator projection (EPSG:3395), accounting
// for the WGS84 flattening
type Mercator struct{}

// Project converts a geographic coordinate to elliptical mercator meters
func (Mercator) Project(ll geo.LatLng) geo.Point {
	d := math.Pi / 180
	y := ll.Lat * d
	tmp := earthRadiusMinor / EarthRadius
	e := math.Sqrt(1 - tmp*tmp)
	con := e * math.Sin(y)

	ts := math.Tan(math.Pi/4-y/2) / math.Pow((1-con)/(1+con), e/2)
	y = -EarthRadius * math.Log(math.Max(ts, 1e-10))

	return geo.Point{X: ll.Lng * d * EarthRadius, Y: y}
}

// Unproject converts elliptical mercator meters back to a geographic
// coordinate, iterating the latitude to convergence
func (Mercator) Unproject(p geo.Point) geo.LatLng {
	d := 180 / math.Pi
	tmp := earthRadiusMinor / EarthRadius
	e := math.Sqrt(1 - tmp*tmp)
	ts := math.Exp(-p.Y / EarthRadius)
	phi := math.Pi/2 - 2*math.Atan(ts)

	for i, dphi := 0, 0.1; i < 15 && math.Abs(dphi) > 1e-7; i++ {
		con := e * math.Sin(phi)
		con = math.Pow((1-con)/(1+con), e/2)
		dphi = math.Pi/2 - 2*math.Atan(ts*con) - phi
		phi += dphi
	}

	return geo.LatLng{Lat: phi * d, Lng: p.X * d / EarthRadius}
}

// Bounds returns the elliptical mercator world extent
func (Mercator) Bounds() geo.Bounds {
	return geo.NewBounds(
		geo.NewPoint(-20037508.34279, -15496570.73972),
		geo.NewPoint(20037508.34279, 18764656.23138),
	)
}

// LonLat is the identity projection: planar x/y are longitude/latitude
// degrees. Used for flat maps and EPSG:4326.
type LonLat struct{}

// Project returns the coordinate unchanged, as lng/lat degrees
func (LonLat) Project(ll geo.LatLng) geo.Point {
	return geo.Point{X: ll.Lng, Y: ll.Lat}
}

// Unproject interprets planar x/y as lng/lat degrees
func (LonLat) Unproject(p geo.Point) geo.LatLng {
	return geo.LatLng{Lat: p.Y, Lng: p.X}
}

// Bounds returns the full geographic extent in degrees
func (LonLat) Bounds() geo.Bounds {
	return geo.NewBounds(geo.NewPoint(-180, -90), geo.NewPoint(180, 90))
}
