package tilegrid

import (
	"image"
	"time"

	"slippymap/geo"
)

// Options configures a tile grid. The zero value is usable after
// ApplyDefaults.
type Options struct {
	// TileSize is the square tile edge in pixels (default 256)
	TileSize int

	// MinZoom and MaxZoom bound the tile zoom levels the grid will
	// display (defaults 0 and 18)
	MinZoom int
	MaxZoom int

	// MinNativeZoom and MaxNativeZoom, when non-negative, bound the zoom
	// levels tiles are actually fetched at; outside them the nearest
	// native level is scaled. -1 means unbounded.
	MinNativeZoom int
	MaxNativeZoom int

	// KeepBuffer is the extra tile margin kept loaded beyond the visible
	// range to reduce pop-in during small pans (default 2)
	KeepBuffer int

	// NoUpdateWhenZooming stops the grid from refreshing tiles on every
	// animated zoom frame; tiles then update only when the zoom settles
	NoUpdateWhenZooming bool

	// NoWrap suppresses longitude wrapping even when the CRS wraps; tiles
	// outside the single world copy are then invalid
	NoWrap bool

	// Bounds optionally restricts tiles to a geographic rectangle
	Bounds geo.LatLngBounds

	// RetainParentDepth and RetainChildDepth bound how far the prune pass
	// walks the pyramid looking for loaded fallback tiles (defaults 5 up,
	// 2 down)
	RetainParentDepth int
	RetainChildDepth  int

	// FadeDuration is how long a freshly loaded tile fades in before it
	// counts as active (default 200ms; negative disables fading)
	FadeDuration time.Duration

	// ErrorTile, when set, is displayed in place of tiles whose load
	// failed
	ErrorTile image.Image
}

// ApplyDefaults fills unset options with their defaults
func (o *Options) ApplyDefaults() {
	if o.TileSize == 0 {
		o.TileSize = 256
	}
	if o.MaxZoom == 0 {
		o.MaxZoom = 18
	}
	if o.MinNativeZoom == 0 {
		o.MinNativeZoom = -1
	}
	if o.MaxNativeZoom == 0 {
		o.MaxNativeZoom = -1
	}
	if o.KeepBuffer == 0 {
		o.KeepBuffer = 2
	}
	if o.RetainParentDepth == 0 {
		o.RetainParentDepth = 5
	}
	if o.RetainChildDepth == 0 {
		o.RetainChildDepth = 2
	}
	if o.FadeDuration == 0 {
		o.FadeDuration = 200 * time.Millisecond
	}
}
