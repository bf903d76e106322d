// Package tile holds the integer tile addressing shared by the grid
// engine and tile sources.
package tile

import (
	"fmt"
	"strconv"
	"strings"

	"slippymap/geo"
)

// Coord addresses one tile: column X, row Y, integer zoom Z
type Coord struct {
	X int
	Y int
	Z int
}

// Key encodes the coordinate as "x:y:z". The encoding is injective, so it
// is safe as a cache map key.
func (c Coord) Key() string {
	return strconv.Itoa(c.X) + ":" + strconv.Itoa(c.Y) + ":" + strconv.Itoa(c.Z)
}

// ParseKey decodes a key produced by Key
func ParseKey(key string) (Coord, error) {
	parts := strings.Split(key, ":")
	if len(parts) != 3 {
		return Coord{}, fmt.Errorf("tile: malformed key %q", key)
	}
	x, err := strconv.Atoi(parts[0])
	if err != nil {
		return Coord{}, fmt.Errorf("tile: malformed key %q: %w", key, err)
	}
	y, err := strconv.Atoi(parts[1])
	if err != nil {
		return Coord{}, fmt.Errorf("tile: malformed key %q: %w", key, err)
	}
	z, err := strconv.Atoi(parts[2])
	if err != nil {
		return Coord{}, fmt.Errorf("tile: malformed key %q: %w", key, err)
	}
	return Coord{X: x, Y: y, Z: z}, nil
}

// Parent returns the coordinate of the containing tile one zoom level
// lower
func (c Coord) Parent() Coord {
	return Coord{X: floorDiv(c.X, 2), Y: floorDiv(c.Y, 2), Z: c.Z - 1}
}

// Children returns the four tiles covering c one zoom level higher
func (c Coord) Children() [4]Coord {
	return [4]Coord{
		{X: 2 * c.X, Y: 2 * c.Y, Z: c.Z + 1},
		{X: 2*c.X + 1, Y: 2 * c.Y, Z: c.Z + 1},
		{X: 2 * c.X, Y: 2*c.Y + 1, Z: c.Z + 1},
		{X: 2*c.X + 1, Y: 2*c.Y + 1, Z: c.Z + 1},
	}
}

// ToPoint returns the tile's top-left corner in tile units
func (c Coord) ToPoint() geo.Point {
	return geo.Point{X: float64(c.X), Y: float64(c.Y)}
}

func (c Coord) String() string {
	return fmt.Sprintf("z%d/%d/%d", c.Z, c.X, c.Y)
}

// floorDiv divides rounding toward negative infinity, so parent addresses
// stay correct for negative (unwrapped) columns
func floorDiv(a, b int) int {
	q := a / b
	if a%b != 0 && (a < 0) != (b < 0) {
		q--
	}
	return q
}
