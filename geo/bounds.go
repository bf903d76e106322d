package geo

// Bounds represents an axis-aligned rectangle in pixel space.
// The zero value is empty; grow it with Extend or build it directly from
// two corners with NewBounds. Once valid, Min <= Max holds component-wise.
type Bounds struct {
	Min   Point
	Max   Point
	valid bool
}

// NewBounds creates a bounds rectangle from two corner points, in any order
func NewBounds(a, b Point) Bounds {
	var bounds Bounds
	bounds = bounds.Extend(a)
	bounds = bounds.Extend(b)
	return bounds
}

// IsValid reports whether the bounds contain at least one point
func (b Bounds) IsValid() bool {
	return b.valid
}

// Extend returns bounds grown to contain the given point
func (b Bounds) Extend(p Point) Bounds {
	if !b.valid {
		return Bounds{Min: p, Max: p, valid: true}
	}
	out := b
	if p.X < out.Min.X {
		out.Min.X = p.X
	}
	if p.X > out.Max.X {
		out.Max.X = p.X
	}
	if p.Y < out.Min.Y {
		out.Min.Y = p.Y
	}
	if p.Y > out.Max.Y {
		out.Max.Y = p.Y
	}
	return out
}

// ExtendBounds returns bounds grown to contain another bounds rectangle
func (b Bounds) ExtendBounds(other Bounds) Bounds {
	if !other.valid {
		return b
	}
	return b.Extend(other.Min).Extend(other.Max)
}

// Center returns the center point of the rectangle
func (b Bounds) Center() Point {
	return Point{
		X: (b.Min.X + b.Max.X) / 2,
		Y: (b.Min.Y + b.Max.Y) / 2,
	}
}

// Size returns the width/height of the rectangle as a point
func (b Bounds) Size() Point {
	return b.Max.Subtract(b.Min)
}

// BottomLeft returns the bottom-left corner (min x, max y)
func (b Bounds) BottomLeft() Point {
	return Point{X: b.Min.X, Y: b.Max.Y}
}

// TopRight returns the top-right corner (max x, min y)
func (b Bounds) TopRight() Point {
	return Point{X: b.Max.X, Y: b.Min.Y}
}

// Contains reports whether other lies entirely inside b
func (b Bounds) Contains(other Bounds) bool {
	return b.valid && other.valid &&
		other.Min.X >= b.Min.X && other.Max.X <= b.Max.X &&
		other.Min.Y >= b.Min.Y && other.Max.Y <= b.Max.Y
}

// ContainsPoint reports whether the point lies inside b (inclusive)
func (b Bounds) ContainsPoint(p Point) bool {
	return b.valid &&
		p.X >= b.Min.X && p.X <= b.Max.X &&
		p.Y >= b.Min.Y && p.Y <= b.Max.Y
}

// Intersects reports whether the rectangles share at least one point,
// touching edges included
func (b Bounds) Intersects(other Bounds) bool {
	return b.valid && other.valid &&
		other.Max.X >= b.Min.X && other.Min.X <= b.Max.X &&
		other.Max.Y >= b.Min.Y && other.Min.Y <= b.Max.Y
}

// Overlaps reports whether the rectangles share interior area,
// touching edges excluded
func (b Bounds) Overlaps(other Bounds) bool {
	return b.valid && other.valid &&
		other.Max.X > b.Min.X && other.Min.X < b.Max.X &&
		other.Max.Y > b.Min.Y && other.Min.Y < b.Max.Y
}

// Pad returns bounds grown by the given ratio of their size in each
// direction; a negative ratio shrinks them
func (b Bounds) Pad(ratio float64) Bounds {
	size := b.Size().MultiplyBy(ratio)
	return Bounds{
		Min:   b.Min.Subtract(size),
		Max:   b.Max.Add(size),
		valid: b.valid,
	}
}

// IsFinite reports whether all four coordinates are finite numbers
func (b Bounds) IsFinite() bool {
	return b.Min.IsFinite() && b.Max.IsFinite()
}
