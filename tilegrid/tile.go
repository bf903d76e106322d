package tilegrid

import (
	"image"
	"time"

	"slippymap/geo"
	"slippymap/tile"
)

// Tile is one cache entry of the grid. An entry is keyed by its wrapped
// coordinate, so a single entry serves every visually repeated world copy;
// Placements lists the unwrapped coordinates it is rendered at.
type Tile struct {
	// Coord is the wrapped coordinate handed to the tile source
	Coord tile.Coord

	// Placements are the unwrapped coordinates this entry is displayed
	// at, one per visible world copy
	Placements []tile.Coord

	// Current marks the tile as inside the desired visible range
	Current bool

	// Loaded is set once the source completed, successfully or not
	Loaded bool

	// Active is set once the fade-in finished; only active tiles anchor
	// the retain walk and only inactive ones are candidates for fallback
	Active bool

	// Retain protects the tile from the current prune pass
	Retain bool

	// Err holds the load failure, if any
	Err error

	// Img is the tile image, or the configured error placeholder after a
	// failed load
	Img image.Image

	loadedAt   time.Time
	generation uint64
}

// Opacity returns the fade-in opacity in [0, 1] at the given instant
func (t *Tile) Opacity(now time.Time, fade time.Duration) float64 {
	if !t.Loaded {
		return 0
	}
	if fade <= 0 || t.Active {
		return 1
	}
	elapsed := now.Sub(t.loadedAt)
	if elapsed >= fade {
		return 1
	}
	return float64(elapsed) / float64(fade)
}

func (t *Tile) hasPlacement(c tile.Coord) bool {
	for _, p := range t.Placements {
		if p == c {
			return true
		}
	}
	return false
}

// Level is one pyramid layer: the bookkeeping for all tiles of a single
// integer zoom seen since the last full reset
type Level struct {
	// Zoom is the level's native integer zoom
	Zoom int

	// Scale is the CRS scale ratio between the displayed zoom and the
	// level's native zoom, applied while a zoom animation is running
	Scale float64

	// Translate is the pixel offset the scaled level must be shifted by
	// to stay aligned with the displayed view
	Translate geo.Point
}

// RenderTile is one entry of the grid's draw list, in paint order
type RenderTile struct {
	// Img may be nil for a placeholder entry still loading
	Img image.Image

	// Pos is the tile's top-left corner in world pixels at the tile's
	// native zoom; scale with Level.Scale and shift by Level.Translate to
	// place it on screen
	Pos geo.Point

	// Size is the tile edge length in pixels at native zoom
	Size float64

	// Opacity is the current fade-in opacity in [0, 1]
	Opacity float64

	// Level is the pyramid level the tile belongs to
	Level Level
}
