// Package vector holds overlay geometry: polylines, polygons and
// circles projected through a map view into pixel space, with the
// clipping and simplification a renderer needs to draw them cheaply.
package vector

import (
	"math"

	"slippymap/geo"
)

// Cohen-Sutherland region codes
const (
	codeInside = 0
	codeLeft   = 1
	codeRight  = 2
	codeTop    = 4
	codeBottom = 8
)

func bitCode(p geo.Point, b geo.Bounds) int {
	code := codeInside
	if p.X < b.Min.X {
		code |= codeLeft
	} else if p.X > b.Max.X {
		code |= codeRight
	}
	if p.Y < b.Min.Y {
		code |= codeTop
	} else if p.Y > b.Max.Y {
		code |= codeBottom
	}
	return code
}

// ClipSegment clips the segment a-b to the bounds, returning the clipped
// endpoints and whether any part of the segment is inside
func ClipSegment(a, b geo.Point, bounds geo.Bounds) (geo.Point, geo.Point, bool) {
	codeA := bitCode(a, bounds)
	codeB := bitCode(b, bounds)

	for {
		if codeA|codeB == 0 {
			return a, b, true
		}
		if codeA&codeB != 0 {
			return a, b, false
		}
		code := codeA
		if code == 0 {
			code = codeB
		}
		p := edgeIntersection(a, b, code, bounds)
		if code == codeA {
			a = p
			codeA = bitCode(a, bounds)
		} else {
			b = p
			codeB = bitCode(b, bounds)
		}
	}
}

func edgeIntersection(a, b geo.Point, code int, bounds geo.Bounds) geo.Point {
	dx := b.X - a.X
	dy := b.Y - a.Y
	switch {
	case code&codeBottom != 0:
		return geo.NewPoint(a.X+dx*(bounds.Max.Y-a.Y)/dy, bounds.Max.Y)
	case code&codeTop != 0:
		return geo.NewPoint(a.X+dx*(bounds.Min.Y-a.Y)/dy, bounds.Min.Y)
	case code&codeRight != 0:
		return geo.NewPoint(bounds.Max.X, a.Y+dy*(bounds.Max.X-a.X)/dx)
	default:
		return geo.NewPoint(bounds.Min.X, a.Y+dy*(bounds.Min.X-a.X)/dx)
	}
}

// ClipRing clips an open ring (a polyline) to the bounds, splitting it
// into the visible parts
func ClipRing(points []geo.Point, bounds geo.Bounds) [][]geo.Point {
	var parts [][]geo.Point
	var part []geo.Point
	for i := 0; i+1 < len(points); i++ {
		a, b, ok := ClipSegment(points[i], points[i+1], bounds)
		if !ok {
			if len(part) > 1 {
				parts = append(parts, part)
			}
			part = nil
			continue
		}
		if len(part) == 0 {
			part = append(part, a)
		} else if !part[len(part)-1].Equals(a) {
			// the previous segment left the bounds and this one re-enters
			if len(part) > 1 {
				parts = append(parts, part)
			}
			part = []geo.Point{a}
		}
		part = append(part, b)
	}
	if len(part) > 1 {
		parts = append(parts, part)
	}
	return parts
}

// ClipPolygon clips a closed ring to the bounds using
// Sutherland-Hodgman, one viewport edge at a time. The result may be
// empty when the ring lies entirely outside.
func ClipPolygon(points []geo.Point, bounds geo.Bounds) []geo.Point {
	for _, edge := range []int{codeLeft, codeTop, codeRight, codeBottom} {
		var clipped []geo.Point
		for i := 0; i < len(points); i++ {
			a := points[i]
			b := points[(i+len(points)-1)%len(points)]
			aOut := bitCode(a, bounds)&edge != 0
			bOut := bitCode(b, bounds)&edge != 0
			switch {
			case !aOut && bOut:
				clipped = append(clipped, edgeIntersection(b, a, edge, bounds), a)
			case !aOut:
				clipped = append(clipped, a)
			case !bOut:
				clipped = append(clipped, edgeIntersection(b, a, edge, bounds))
			}
		}
		points = clipped
		if len(points) == 0 {
			return nil
		}
	}
	return points
}

// Simplify reduces a ring with a radial-distance pass followed by
// Douglas-Peucker, dropping points that contribute less than the
// tolerance in pixels. Zero or negative tolerance returns the input
// unchanged.
func Simplify(points []geo.Point, tolerance float64) []geo.Point {
	if tolerance <= 0 || len(points) <= 2 {
		return points
	}
	sqTol := tolerance * tolerance
	return simplifyDP(reduceByDistance(points, sqTol), sqTol)
}

// reduceByDistance drops points closer than the tolerance to their
// predecessor, always keeping the endpoints
func reduceByDistance(points []geo.Point, sqTol float64) []geo.Point {
	reduced := points[:1:1]
	for i := 1; i < len(points)-1; i++ {
		if sqDist(points[i], reduced[len(reduced)-1]) > sqTol {
			reduced = append(reduced, points[i])
		}
	}
	return append(reduced, points[len(points)-1])
}

func simplifyDP(points []geo.Point, sqTol float64) []geo.Point {
	keep := make([]bool, len(points))
	keep[0], keep[len(points)-1] = true, true
	dpStep(points, 0, len(points)-1, sqTol, keep)

	out := make([]geo.Point, 0, len(points))
	for i, k := range keep {
		if k {
			out = append(out, points[i])
		}
	}
	return out
}

func dpStep(points []geo.Point, first, last int, sqTol float64, keep []bool) {
	maxDist := 0.0
	index := 0
	for i := first + 1; i < last; i++ {
		d := sqSegDist(points[i], points[first], points[last])
		if d > maxDist {
			index, maxDist = i, d
		}
	}
	if maxDist > sqTol {
		keep[index] = true
		dpStep(points, first, index, sqTol, keep)
		dpStep(points, index, last, sqTol, keep)
	}
}

func sqDist(a, b geo.Point) float64 {
	dx := a.X - b.X
	dy := a.Y - b.Y
	return dx*dx + dy*dy
}

// sqSegDist is the squared distance from p to the segment a-b
func sqSegDist(p, a, b geo.Point) float64 {
	x, y := a.X, a.Y
	dx, dy := b.X-x, b.Y-y
	if dx != 0 || dy != 0 {
		t := ((p.X-x)*dx + (p.Y-y)*dy) / (dx*dx + dy*dy)
		if t > 1 {
			x, y = b.X, b.Y
		} else if t > 0 {
			x += dx * t
			y += dy * t
		}
	}
	return (p.X-x)*(p.X-x) + (p.Y-y)*(p.Y-y)
}

// ClosestPointOnSegment returns the point on segment a-b nearest to p
func ClosestPointOnSegment(p, a, b geo.Point) geo.Point {
	dx, dy := b.X-a.X, b.Y-a.Y
	if dx == 0 && dy == 0 {
		return a
	}
	t := ((p.X-a.X)*dx + (p.Y-a.Y)*dy) / (dx*dx + dy*dy)
	t = math.Max(0, math.Min(1, t))
	return geo.NewPoint(a.X+dx*t, a.Y+dy*t)
}
