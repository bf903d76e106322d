// Package tilegrid implements the tile-grid engine: it decides, for the
// current center/zoom/viewport, the minimal centered set of tiles to
// display, keeps fallback tiles across zoom transitions and reclaims the
// rest.
package tilegrid

import (
	"fmt"
	"image"
	"log"
	"math"
	"sort"
	"sync"
	"time"

	"github.com/samber/lo"

	"slippymap/crs"
	"slippymap/events"
	"slippymap/geo"
	"slippymap/source"
	"slippymap/tile"
)

// View is the read-only slice of map state the grid tracks. The map
// controller implements it; tests supply a stub.
type View interface {
	CRS() *crs.CRS
	Center() geo.LatLng
	Zoom() float64
	Size() geo.Point
	Events() *events.Emitter
}

// TileEvent is the payload of tile lifecycle events
type TileEvent struct {
	Coord tile.Coord
	Err   error
}

// Grid is the tile-grid engine. It owns its tile cache and pyramid-level
// map exclusively; other layers observe it through events and read-only
// calls.
type Grid struct {
	mu   sync.Mutex
	view View
	src  source.Source
	opts Options

	emitter events.Emitter

	tiles       map[string]*Tile
	levels      map[int]*Level
	tileZoom    int
	hasTileZoom bool
	generation  uint64
	loading     int

	subs []subscription
}

type subscription struct {
	event string
	id    uint64
}

type pendingLoad struct {
	key   string
	coord tile.Coord
	gen   uint64
}

// New creates a grid for the given view and tile source
func New(view View, src source.Source, opts Options) (*Grid, error) {
	if view == nil {
		return nil, fmt.Errorf("tilegrid: view is required")
	}
	if src == nil {
		return nil, fmt.Errorf("tilegrid: tile source is required")
	}
	opts.ApplyDefaults()
	if opts.MinZoom > opts.MaxZoom {
		return nil, fmt.Errorf("tilegrid: MinZoom %d exceeds MaxZoom %d", opts.MinZoom, opts.MaxZoom)
	}

	g := &Grid{
		view:   view,
		src:    src,
		opts:   opts,
		tiles:  make(map[string]*Tile),
		levels: make(map[int]*Level),
	}
	g.emitter.SetTarget(g)
	return g, nil
}

// Events returns the grid's event bus. Fired events: "loading",
// "tileloadstart", "tileload", "tileerror", "tileunload", "load".
func (g *Grid) Events() *events.Emitter {
	return &g.emitter
}

// Attach subscribes the grid to the view's lifecycle events and performs
// the initial tile update
func (g *Grid) Attach() {
	ev := g.view.Events()
	g.subs = []subscription{
		{"viewreset", ev.On("viewreset", func(events.Event) { g.ViewReset() })},
		{"move", ev.On("move", func(events.Event) { g.ViewChanged() })},
		{"moveend", ev.On("moveend", func(events.Event) { g.ViewChanged(); g.Prune() })},
		{"zoom", ev.On("zoom", func(events.Event) { g.onZoomFrame() })},
		{"zoomend", ev.On("zoomend", func(events.Event) { g.ViewChanged() })},
	}
	g.ViewReset()
}

// Detach unsubscribes from the view and drops every tile
func (g *Grid) Detach() {
	ev := g.view.Events()
	for _, s := range g.subs {
		ev.Off(s.event, s.id)
	}
	g.subs = nil
	g.RemoveAllTiles()
}

func (g *Grid) onZoomFrame() {
	if g.opts.NoUpdateWhenZooming {
		return
	}
	g.ViewChanged()
}

// ViewReset handles a non-incremental view change: every cached tile is
// invalidated and the pyramid is rebuilt around the new view
func (g *Grid) ViewReset() {
	g.mu.Lock()
	g.generation++
	for _, t := range g.tiles {
		t.Current = false
	}
	// placeholders from the old view have nothing to contribute
	var stale []string
	for key, t := range g.tiles {
		if !t.Loaded {
			stale = append(stale, key)
		}
	}
	removed := g.removeTilesLocked(stale)
	g.mu.Unlock()

	g.fireUnloads(removed)
	g.ViewChanged()
}

// ViewChanged recomputes the wanted tile zoom and updates the grid; the
// funnel behind every subscribed view event
func (g *Grid) ViewChanged() {
	center := g.view.Center()
	zoom := g.view.Zoom()

	tz := g.clampNativeZoom(int(math.Round(zoom)))

	if tz > g.opts.MaxZoom || tz < g.opts.MinZoom {
		g.RemoveAllTiles()
		g.mu.Lock()
		g.hasTileZoom = false
		g.mu.Unlock()
		return
	}

	g.mu.Lock()
	bigJump := g.hasTileZoom && abs(tz-g.tileZoom) > 1
	g.tileZoom = tz
	g.hasTileZoom = true
	g.updateLevelsLocked()
	g.mu.Unlock()

	if bigJump {
		// two pyramid levels this far apart would render nonsense
		// together, so take the full reset path instead
		g.ViewReset()
		return
	}

	g.update(center)
}

// update runs the core algorithm: compute the visible tile range at the
// tile zoom, invalidate tiles outside its padded version, enqueue missing
// tiles nearest-first
func (g *Grid) update(center geo.LatLng) {
	g.mu.Lock()

	if !g.hasTileZoom {
		g.mu.Unlock()
		return
	}

	pixelBounds := g.tiledPixelBoundsLocked(center)
	if !pixelBounds.IsFinite() {
		g.mu.Unlock()
		panic(fmt.Sprintf("tilegrid: non-finite pixel bounds %v at tile zoom %d; corrupt projection/zoom state", pixelBounds, g.tileZoom))
	}

	tileRange := tile.RangeFromPixelBounds(pixelBounds, float64(g.opts.TileSize))
	padded := tileRange.Pad(g.opts.KeepBuffer)

	// currency is recomputed from scratch: anything not re-claimed below
	// is eligible for the next prune pass
	for _, t := range g.tiles {
		t.Current = false
		if t.Coord.Z == g.tileZoom {
			t.Placements = t.Placements[:0]
		}
	}

	var queue []tile.Coord
	queued := map[string][]tile.Coord{}
	for _, c := range padded.Coords(g.tileZoom) {
		wrapped, ok := g.wrapCoordLocked(c)
		if !ok {
			continue
		}
		key := wrapped.Key()
		if t, exists := g.tiles[key]; exists {
			t.Current = true
			if !t.hasPlacement(c) {
				t.Placements = append(t.Placements, c)
			}
			continue
		}
		if tileRange.Contains(c.X, c.Y) {
			if len(queued[key]) == 0 {
				queue = append(queue, c)
			}
			queued[key] = append(queued[key], c)
		}
	}

	var loads []pendingLoad
	if len(queue) > 0 {
		// nearest tiles are most likely visible immediately, load them
		// first
		tile.SortByDistance(queue, tileRange.Center())

		for _, c := range queue {
			wrapped, _ := g.wrapCoordLocked(c)
			key := wrapped.Key()
			t := &Tile{
				Coord:      wrapped,
				Placements: queued[key],
				Current:    true,
				generation: g.generation,
			}
			g.tiles[key] = t
			g.loading++
			loads = append(loads, pendingLoad{key: key, coord: wrapped, gen: g.generation})
		}
	}
	wasIdle := g.loading == len(loads)
	g.mu.Unlock()

	if len(loads) == 0 {
		return
	}
	if wasIdle {
		g.emitter.Fire("loading", nil)
	}
	for _, l := range loads {
		l := l
		g.emitter.Fire("tileloadstart", TileEvent{Coord: l.coord})
		g.src.CreateTile(l.coord, func(err error, img image.Image) {
			g.tileDone(l.key, l.gen, err, img)
		})
	}
}

// tileDone handles a load completion. Completions may arrive on any
// goroutine and in any order; one for an entry evicted in the interim is
// dropped.
func (g *Grid) tileDone(key string, gen uint64, err error, img image.Image) {
	g.mu.Lock()
	t, ok := g.tiles[key]
	if !ok || t.generation != gen || t.Loaded {
		g.mu.Unlock()
		return
	}

	t.Loaded = true
	t.loadedAt = time.Now()
	t.Err = err
	if err != nil {
		if g.opts.ErrorTile != nil {
			t.Img = g.opts.ErrorTile
		}
	} else {
		t.Img = img
	}
	if g.opts.FadeDuration <= 0 {
		t.Active = true
	}

	g.loading--
	idle := g.loading == 0
	coord := t.Coord
	g.mu.Unlock()

	if err != nil {
		log.Printf("[TileGrid] tile %s failed to load: %v", coord, err)
		g.emitter.Fire("tileerror", TileEvent{Coord: coord, Err: err})
	} else {
		g.emitter.Fire("tileload", TileEvent{Coord: coord})
	}
	if idle {
		g.emitter.Fire("load", nil)
		g.Prune()
	}
}

// Prune removes every tile that is neither current nor needed as a
// fallback for a current tile still fading or loading. Running it twice
// with no view change in between removes nothing the second time.
func (g *Grid) Prune() {
	g.mu.Lock()

	for _, t := range g.tiles {
		t.Retain = t.Current
	}
	for _, t := range g.tiles {
		if t.Current && !t.Active {
			c := t.Coord
			if !g.retainParentLocked(c, c.Z-g.opts.RetainParentDepth) {
				g.retainChildrenLocked(c, c.Z+g.opts.RetainChildDepth)
			}
		}
	}

	var doomed []string
	for key, t := range g.tiles {
		if !t.Retain {
			doomed = append(doomed, key)
		}
	}
	removed := g.removeTilesLocked(doomed)
	g.removeEmptyLevelsLocked()
	g.mu.Unlock()

	g.fireUnloads(removed)
}

// retainParentLocked walks toward lower zooms looking for a loaded-and-
// active ancestor; loaded-but-fading ancestors are retained along the way
func (g *Grid) retainParentLocked(c tile.Coord, minZoom int) bool {
	p := c.Parent()
	if p.Z < 0 || p.Z < minZoom {
		return false
	}
	if t, ok := g.tiles[p.Key()]; ok {
		if t.Active {
			t.Retain = true
			return true
		}
		if t.Loaded {
			t.Retain = true
		}
	}
	return g.retainParentLocked(p, minZoom)
}

// retainChildrenLocked walks toward higher zooms retaining loaded
// descendants that can stand in for a missing coarse tile
func (g *Grid) retainChildrenLocked(c tile.Coord, maxZoom int) {
	for _, ch := range c.Children() {
		if ch.Z > maxZoom {
			return
		}
		if t, ok := g.tiles[ch.Key()]; ok {
			if t.Active {
				t.Retain = true
				continue
			}
			if t.Loaded {
				t.Retain = true
			}
		}
		g.retainChildrenLocked(ch, maxZoom)
	}
}

// RemoveAllTiles drops the whole cache and every pyramid level
func (g *Grid) RemoveAllTiles() {
	g.mu.Lock()
	g.generation++
	keys := lo.Keys(g.tiles)
	removed := g.removeTilesLocked(keys)
	g.levels = make(map[int]*Level)
	g.mu.Unlock()

	g.fireUnloads(removed)
}

// Redraw drops every tile and reloads the visible range
func (g *Grid) Redraw() {
	g.RemoveAllTiles()
	g.ViewChanged()
}

func (g *Grid) removeTilesLocked(keys []string) []tile.Coord {
	var removed []tile.Coord
	for _, key := range keys {
		t, ok := g.tiles[key]
		if !ok {
			continue
		}
		delete(g.tiles, key)
		if !t.Loaded {
			// a completion still in flight will find no entry and drop
			// itself
			g.loading--
		}
		removed = append(removed, t.Coord)
	}
	return removed
}

func (g *Grid) fireUnloads(coords []tile.Coord) {
	for _, c := range coords {
		g.emitter.Fire("tileunload", TileEvent{Coord: c})
	}
}

// UpdateFade advances fade-in state at the given instant. It returns true
// while any tile is still fading, so the host knows to keep scheduling
// frames.
func (g *Grid) UpdateFade(now time.Time) bool {
	g.mu.Lock()
	fading := false
	activated := false
	for _, t := range g.tiles {
		if !t.Loaded || t.Active {
			continue
		}
		if t.Opacity(now, g.opts.FadeDuration) >= 1 {
			t.Active = true
			activated = true
		} else {
			fading = true
		}
	}
	idle := g.loading == 0
	g.mu.Unlock()

	if activated && idle {
		g.Prune()
	}
	return fading
}

// TileZoom returns the active integer tile zoom; ok is false before the
// first view update or when the view zoom is outside the grid's range
func (g *Grid) TileZoom() (zoom int, ok bool) {
	g.mu.Lock()
	defer g.mu.Unlock()
	return g.tileZoom, g.hasTileZoom
}

// TileCount returns the number of cached tile entries
func (g *Grid) TileCount() int {
	g.mu.Lock()
	defer g.mu.Unlock()
	return len(g.tiles)
}

// Tile returns a snapshot of the cache entry for a wrapped coordinate
func (g *Grid) Tile(c tile.Coord) (Tile, bool) {
	g.mu.Lock()
	defer g.mu.Unlock()
	t, ok := g.tiles[c.Key()]
	if !ok {
		return Tile{}, false
	}
	out := *t
	out.Placements = append([]tile.Coord(nil), t.Placements...)
	return out, true
}

// IsLoading reports whether any issued tile load is still outstanding
func (g *Grid) IsLoading() bool {
	g.mu.Lock()
	defer g.mu.Unlock()
	return g.loading > 0
}

// RenderList returns the draw list for the current instant, coarse levels
// first so finer tiles paint over them
func (g *Grid) RenderList(now time.Time) []RenderTile {
	center := g.view.Center()
	zoom := g.view.Zoom()
	size := g.view.Size()
	c := g.view.CRS()

	topLeft := c.LatLngToPoint(center, zoom).Subtract(size.DivideBy(2))

	g.mu.Lock()
	tiles := lo.Filter(lo.Values(g.tiles), func(t *Tile, _ int) bool {
		return t.Img != nil
	})
	fade := g.opts.FadeDuration
	tileSize := float64(g.opts.TileSize)
	levels := make(map[int]Level, len(g.levels))
	for z := range g.levels {
		scale := c.Scale(zoom) / c.Scale(float64(z))
		levels[z] = Level{
			Zoom:      z,
			Scale:     scale,
			Translate: topLeft.MultiplyBy(-1),
		}
	}

	var out []RenderTile
	for _, t := range tiles {
		level, ok := levels[t.Coord.Z]
		if !ok {
			scale := c.Scale(zoom) / c.Scale(float64(t.Coord.Z))
			level = Level{Zoom: t.Coord.Z, Scale: scale, Translate: topLeft.MultiplyBy(-1)}
		}
		opacity := t.Opacity(now, fade)
		for _, placement := range t.Placements {
			out = append(out, RenderTile{
				Img:     t.Img,
				Pos:     placement.ToPoint().MultiplyBy(tileSize),
				Size:    tileSize,
				Opacity: opacity,
				Level:   level,
			})
		}
	}
	g.mu.Unlock()

	sort.SliceStable(out, func(i, j int) bool {
		return out[i].Level.Zoom < out[j].Level.Zoom
	})
	return out
}

// tiledPixelBoundsLocked returns the viewport pixel bounds at the integer
// tile zoom, which may differ from the continuous map zoom mid-animation
func (g *Grid) tiledPixelBoundsLocked(center geo.LatLng) geo.Bounds {
	c := g.view.CRS()
	mapZoom := g.view.Zoom()
	scale := c.Scale(mapZoom) / c.Scale(float64(g.tileZoom))
	pixelCenter := c.LatLngToPoint(center, float64(g.tileZoom)).Floor()
	halfSize := g.view.Size().DivideBy(scale * 2)
	return geo.NewBounds(pixelCenter.Subtract(halfSize), pixelCenter.Add(halfSize))
}

// wrapCoordLocked reduces an unwrapped coordinate into the CRS's valid
// tile index range. ok is false when the coordinate addresses no tile:
// outside a non-wrapping world or outside the configured bounds
// restriction.
func (g *Grid) wrapCoordLocked(c tile.Coord) (tile.Coord, bool) {
	crsObj := g.view.CRS()

	if !crsObj.Infinite {
		world := tile.RangeFromPixelBounds(crsObj.PixelBounds(float64(c.Z)), float64(g.opts.TileSize))

		if crsObj.WrapLng != nil && !g.opts.NoWrap {
			c.X = floorMod(c.X-world.MinX, world.Cols()) + world.MinX
		} else if !betweenInt(c.X, world.MinX, world.MaxX) {
			return c, false
		}

		if crsObj.WrapLat != nil && !g.opts.NoWrap {
			c.Y = floorMod(c.Y-world.MinY, world.Rows()) + world.MinY
		} else if !betweenInt(c.Y, world.MinY, world.MaxY) {
			return c, false
		}
	}

	if g.opts.Bounds.IsValid() && !g.opts.Bounds.Intersects(g.tileLatLngBoundsLocked(c)) {
		return c, false
	}
	return c, true
}

// tileLatLngBoundsLocked returns the geographic rectangle a tile covers
func (g *Grid) tileLatLngBoundsLocked(c tile.Coord) geo.LatLngBounds {
	crsObj := g.view.CRS()
	size := float64(g.opts.TileSize)
	nwPoint := c.ToPoint().MultiplyBy(size)
	sePoint := nwPoint.Add(geo.NewPoint(size, size))
	nw := crsObj.PointToLatLng(nwPoint, float64(c.Z))
	se := crsObj.PointToLatLng(sePoint, float64(c.Z))
	return geo.NewLatLngBounds(nw, se)
}

// updateLevelsLocked creates the level for the active tile zoom and tears
// down levels that hold no tiles and are not the active zoom
func (g *Grid) updateLevelsLocked() {
	if _, ok := g.levels[g.tileZoom]; !ok {
		g.levels[g.tileZoom] = &Level{Zoom: g.tileZoom, Scale: 1}
	}
	g.removeEmptyLevelsLocked()
}

func (g *Grid) removeEmptyLevelsLocked() {
	used := map[int]bool{}
	for _, t := range g.tiles {
		used[t.Coord.Z] = true
	}
	for z := range g.levels {
		if z != g.tileZoom && !used[z] {
			delete(g.levels, z)
		}
	}
}

// clampNativeZoom snaps a wanted tile zoom into the native zoom range, so
// the grid scales existing native tiles instead of fetching nonexistent
// levels
func (g *Grid) clampNativeZoom(z int) int {
	if g.opts.MaxNativeZoom >= 0 && z > g.opts.MaxNativeZoom {
		return g.opts.MaxNativeZoom
	}
	if g.opts.MinNativeZoom >= 0 && z < g.opts.MinNativeZoom {
		return g.opts.MinNativeZoom
	}
	return z
}

// floorMod is a modulo that is never negative for positive m
func floorMod(a, m int) int {
	return ((a % m) + m) % m
}

func betweenInt(v, min, max int) bool {
	return v >= min && v <= max
}

func abs(v int) int {
	if v < 0 {
		return -v
	}
	return v
}
