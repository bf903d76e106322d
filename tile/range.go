package tile

import (
	"math"
	"sort"

	"slippymap/geo"
)

// Range represents the inclusive min/max column and row bounds of a tile
// set at one zoom level
type Range struct {
	MinX int
	MaxX int
	MinY int
	MaxY int
}

// RangeFromPixelBounds converts viewport pixel bounds into the tile range
// covering them at the given tile size
func RangeFromPixelBounds(b geo.Bounds, tileSize float64) Range {
	return Range{
		MinX: int(math.Floor(b.Min.X / tileSize)),
		MinY: int(math.Floor(b.Min.Y / tileSize)),
		MaxX: int(math.Ceil(b.Max.X/tileSize)) - 1,
		MaxY: int(math.Ceil(b.Max.Y/tileSize)) - 1,
	}
}

// Cols returns the number of columns in the range
func (r Range) Cols() int {
	return r.MaxX - r.MinX + 1
}

// Rows returns the number of rows in the range
func (r Range) Rows() int {
	return r.MaxY - r.MinY + 1
}

// Contains reports whether the column/row pair lies inside the range
func (r Range) Contains(x, y int) bool {
	return x >= r.MinX && x <= r.MaxX && y >= r.MinY && y <= r.MaxY
}

// Center returns the fractional center of the range in tile units
func (r Range) Center() geo.Point {
	return geo.Point{
		X: (float64(r.MinX) + float64(r.MaxX) + 1) / 2,
		Y: (float64(r.MinY) + float64(r.MaxY) + 1) / 2,
	}
}

// Pad returns the range grown by buffer tiles on every side
func (r Range) Pad(buffer int) Range {
	return Range{
		MinX: r.MinX - buffer,
		MaxX: r.MaxX + buffer,
		MinY: r.MinY - buffer,
		MaxY: r.MaxY + buffer,
	}
}

// Coords enumerates every coordinate in the range at zoom z, row-major
func (r Range) Coords(z int) []Coord {
	if r.Cols() <= 0 || r.Rows() <= 0 {
		return nil
	}
	out := make([]Coord, 0, r.Cols()*r.Rows())
	for y := r.MinY; y <= r.MaxY; y++ {
		for x := r.MinX; x <= r.MaxX; x++ {
			out = append(out, Coord{X: x, Y: y, Z: z})
		}
	}
	return out
}

// SortByDistance orders coordinates by ascending Euclidean distance of
// their tile center from the given point in tile units, so tiles nearest
// the viewport center load first. The sort is stable, keeping row-major
// order among equidistant tiles.
func SortByDistance(coords []Coord, from geo.Point) {
	dist := func(c Coord) float64 {
		dx := float64(c.X) + 0.5 - from.X
		dy := float64(c.Y) + 0.5 - from.Y
		return dx*dx + dy*dy
	}
	sort.SliceStable(coords, func(i, j int) bool {
		return dist(coords[i]) < dist(coords[j])
	})
}
