// Package source implements tile factories: the caller-supplied
// capability the grid engine uses to materialize tile images. The engine
// never interprets tile pixel content; it only hands coordinates to a
// Source and consumes completion callbacks.
package source

import (
	"image"
	"image/color"

	"slippymap/tile"
)

// DoneFunc receives the result of an asynchronous tile load. Exactly one
// of err and img is meaningful. The callback may arrive on any goroutine.
type DoneFunc func(err error, img image.Image)

// Source creates tile images for coordinates. CreateTile must not block
// the caller; it reports completion through done.
type Source interface {
	CreateTile(coord tile.Coord, done DoneFunc)
}

// Func adapts a plain function to the Source interface
type Func func(coord tile.Coord, done DoneFunc)

// CreateTile calls the wrapped function
func (f Func) CreateTile(coord tile.Coord, done DoneFunc) {
	f(coord, done)
}

// ErrorTile renders a flat-color placeholder substituted for tiles whose
// load failed
func ErrorTile(size int, c color.Color) image.Image {
	img := image.NewRGBA(image.Rect(0, 0, size, size))
	for y := 0; y < size; y++ {
		for x := 0; x < size; x++ {
			img.Set(x, y, c)
		}
	}
	return img
}

// DefaultErrorTileColor is the placeholder fill used when no explicit
// error tile is configured
var DefaultErrorTileColor = color.RGBA{R: 0xdd, G: 0xdd, B: 0xdd, A: 0xff}
