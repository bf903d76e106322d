package geo

import (
	"fmt"
	"math"
)

// Point represents a 2D vector in pixel space.
// All arithmetic is component-wise and returns a new value; a Point is
// never mutated in place.
type Point struct {
	X float64
	Y float64
}

// NewPoint creates a point from x/y pixel coordinates
func NewPoint(x, y float64) Point {
	return Point{X: x, Y: y}
}

// Add returns the component-wise sum of p and other
func (p Point) Add(other Point) Point {
	return Point{X: p.X + other.X, Y: p.Y + other.Y}
}

// Subtract returns the component-wise difference of p and other
func (p Point) Subtract(other Point) Point {
	return Point{X: p.X - other.X, Y: p.Y - other.Y}
}

// MultiplyBy returns p scaled by a scalar factor
func (p Point) MultiplyBy(factor float64) Point {
	return Point{X: p.X * factor, Y: p.Y * factor}
}

// DivideBy returns p divided by a scalar factor
func (p Point) DivideBy(factor float64) Point {
	return Point{X: p.X / factor, Y: p.Y / factor}
}

// ScaleBy multiplies p component-wise by another point
func (p Point) ScaleBy(other Point) Point {
	return Point{X: p.X * other.X, Y: p.Y * other.Y}
}

// UnscaleBy divides p component-wise by another point
func (p Point) UnscaleBy(other Point) Point {
	return Point{X: p.X / other.X, Y: p.Y / other.Y}
}

// Floor rounds both components down to the nearest integer
func (p Point) Floor() Point {
	return Point{X: math.Floor(p.X), Y: math.Floor(p.Y)}
}

// Ceil rounds both components up to the nearest integer
func (p Point) Ceil() Point {
	return Point{X: math.Ceil(p.X), Y: math.Ceil(p.Y)}
}

// Round rounds both components to the nearest integer
func (p Point) Round() Point {
	return Point{X: math.Round(p.X), Y: math.Round(p.Y)}
}

// DistanceTo returns the Euclidean distance between p and other
func (p Point) DistanceTo(other Point) float64 {
	dx := other.X - p.X
	dy := other.Y - p.Y
	return math.Sqrt(dx*dx + dy*dy)
}

// Equals reports whether both components match exactly
func (p Point) Equals(other Point) bool {
	return p.X == other.X && p.Y == other.Y
}

// IsFinite reports whether both components are finite numbers
func (p Point) IsFinite() bool {
	return !math.IsInf(p.X, 0) && !math.IsNaN(p.X) &&
		!math.IsInf(p.Y, 0) && !math.IsNaN(p.Y)
}

func (p Point) String() string {
	return fmt.Sprintf("Point(%g, %g)", p.X, p.Y)
}
