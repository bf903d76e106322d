package crs

import (
	"fmt"

	"slippymap/geo"
)

// Transformation is an affine map of a projection's planar output into
// pixel space: (x, y) -> (scale * (a*x + b), scale * (c*y + d)).
type Transformation struct {
	a float64
	b float64
	c float64
	d float64
}

// NewTransformation creates an affine transformation from its four
// coefficients. A zero a or c coefficient would make the transformation
// non-invertible, which is a programmer error, so it panics.
func NewTransformation(a, b, c, d float64) Transformation {
	if a == 0 || c == 0 {
		panic(fmt.Sprintf("crs: degenerate transformation coefficients a=%g c=%g", a, c))
	}
	return Transformation{a: a, b: b, c: c, d: d}
}

// Transform applies the transformation to a point at the given scale
func (t Transformation) Transform(p geo.Point, scale float64) geo.Point {
	return geo.Point{
		X: scale * (t.a*p.X + t.b),
		Y: scale * (t.c*p.Y + t.d),
	}
}

// Untransform reverses the transformation at the given scale
func (t Transformation) Untransform(p geo.Point, scale float64) geo.Point {
	return geo.Point{
		X: (p.X/scale - t.b) / t.a,
		Y: (p.Y/scale - t.d) / t.c,
	}
}
