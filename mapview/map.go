// Package mapview is the view controller: it owns the authoritative
// center and zoom, funnels every view change through one clamping and
// snapping pipeline, and drives pan, zoom and flight animations on a
// frame scheduler. It implements tilegrid.View, so a tile grid attached
// to a Map follows it through events alone.
package mapview

import (
	"fmt"
	"sync"

	"github.com/bep/debounce"

	"slippymap/crs"
	"slippymap/events"
	"slippymap/geo"
)

// Map event types, in the order they fire around a view change
const (
	EventZoomStart = "zoomstart"
	EventMoveStart = "movestart"
	EventZoom      = "zoom"
	EventMove      = "move"
	EventZoomEnd   = "zoomend"
	EventMoveEnd   = "moveend"
	EventViewReset = "viewreset"
	EventLoad      = "load"
	EventResize    = "resize"
)

// Map is the view controller. All methods are safe for concurrent use,
// but the intended shape is a single host loop driving input and a
// scheduler delivering animation frames.
type Map struct {
	mu      sync.Mutex
	opts    Options
	emitter events.Emitter
	sizeFn  SizeProvider

	center geo.LatLng
	zoom   float64
	loaded bool

	pixelOrigin geo.Point

	anim *animation

	resizeDebounce func(func())
	lastSize       geo.Point
}

// New creates a map reading its viewport size from sizeFn. The view is
// unset until the first SetView (or FitBounds and friends).
func New(sizeFn SizeProvider, opts Options) (*Map, error) {
	if sizeFn == nil {
		return nil, fmt.Errorf("mapview: size provider is required")
	}
	opts.ApplyDefaults()
	if opts.MinZoom > opts.MaxZoom {
		return nil, fmt.Errorf("mapview: min zoom %g exceeds max zoom %g", opts.MinZoom, opts.MaxZoom)
	}
	m := &Map{
		opts:           opts,
		sizeFn:         sizeFn,
		resizeDebounce: debounce.New(opts.SizeDebounce),
	}
	m.emitter.SetTarget(m)
	m.lastSize = sizeFn()
	return m, nil
}

// Events exposes the map's event emitter
func (m *Map) Events() *events.Emitter { return &m.emitter }

// CRS returns the coordinate reference system the map projects with
func (m *Map) CRS() *crs.CRS { return m.opts.CRS }

// Center returns the current center. Undefined before the first view is
// set.
func (m *Map) Center() geo.LatLng {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.center
}

// Zoom returns the current zoom, fractional during animations
func (m *Map) Zoom() float64 {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.zoom
}

// MinZoom returns the lower zoom limit
func (m *Map) MinZoom() float64 { return m.opts.MinZoom }

// MaxZoom returns the upper zoom limit
func (m *Map) MaxZoom() float64 { return m.opts.MaxZoom }

// Loaded reports whether a view has been set
func (m *Map) Loaded() bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.loaded
}

// Size returns the viewport size in pixels
func (m *Map) Size() geo.Point { return m.sizeFn() }

// Project converts a geographic position to absolute pixel coordinates
// at the given zoom
func (m *Map) Project(ll geo.LatLng, zoom float64) geo.Point {
	return m.opts.CRS.LatLngToPoint(ll, zoom)
}

// Unproject converts absolute pixel coordinates at the given zoom back
// to a geographic position
func (m *Map) Unproject(p geo.Point, zoom float64) geo.LatLng {
	return m.opts.CRS.PointToLatLng(p, zoom)
}

// GetPixelOrigin returns the absolute pixel of the viewport's top-left
// corner as of the last view reset. Layer points are measured from it.
func (m *Map) GetPixelOrigin() geo.Point {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.pixelOrigin
}

// LatLngToLayerPoint converts a geographic position to a pixel offset
// from the pixel origin
func (m *Map) LatLngToLayerPoint(ll geo.LatLng) geo.Point {
	m.mu.Lock()
	origin, zoom := m.pixelOrigin, m.zoom
	m.mu.Unlock()
	return m.Project(ll, zoom).Subtract(origin)
}

// LayerPointToLatLng converts a pixel offset from the pixel origin back
// to a geographic position
func (m *Map) LayerPointToLatLng(p geo.Point) geo.LatLng {
	m.mu.Lock()
	origin, zoom := m.pixelOrigin, m.zoom
	m.mu.Unlock()
	return m.Unproject(p.Add(origin), zoom)
}

// LatLngToContainerPoint converts a geographic position to a pixel
// offset from the viewport's current top-left corner
func (m *Map) LatLngToContainerPoint(ll geo.LatLng) geo.Point {
	m.mu.Lock()
	topLeft, zoom := m.topLeftLocked(), m.zoom
	m.mu.Unlock()
	return m.Project(ll, zoom).Subtract(topLeft)
}

// ContainerPointToLatLng converts a pixel offset from the viewport's
// current top-left corner back to a geographic position
func (m *Map) ContainerPointToLatLng(p geo.Point) geo.LatLng {
	m.mu.Lock()
	topLeft, zoom := m.topLeftLocked(), m.zoom
	m.mu.Unlock()
	return m.Unproject(p.Add(topLeft), zoom)
}

// GetPixelBounds returns the viewport's absolute pixel bounds at the
// current zoom
func (m *Map) GetPixelBounds() geo.Bounds {
	m.mu.Lock()
	topLeft := m.topLeftLocked()
	m.mu.Unlock()
	return geo.NewBounds(topLeft, topLeft.Add(m.Size()))
}

// GetBounds returns the geographic bounds currently visible
func (m *Map) GetBounds() geo.LatLngBounds {
	m.mu.Lock()
	topLeft, zoom := m.topLeftLocked(), m.zoom
	m.mu.Unlock()
	size := m.Size()
	var b geo.LatLngBounds
	b.Extend(m.Unproject(topLeft, zoom))
	b.Extend(m.Unproject(topLeft.Add(size), zoom))
	return b
}

// topLeftLocked is the viewport's top-left corner in absolute pixels at
// the current zoom. Caller holds m.mu.
func (m *Map) topLeftLocked() geo.Point {
	half := m.sizeFn().DivideBy(2)
	return m.opts.CRS.LatLngToPoint(m.center, m.zoom).Subtract(half)
}

// InvalidateSize re-reads the viewport size after a debounce interval
// and, if it changed, fires resize followed by a move. Resize storms
// from window drags collapse into one update.
func (m *Map) InvalidateSize() {
	m.resizeDebounce(m.invalidateSizeNow)
}

// InvalidateSizeNow re-reads the viewport size immediately
func (m *Map) InvalidateSizeNow() {
	m.invalidateSizeNow()
}

func (m *Map) invalidateSizeNow() {
	m.mu.Lock()
	old := m.lastSize
	next := m.sizeFn()
	m.lastSize = next
	loaded := m.loaded
	center, zoom := m.center, m.zoom
	m.mu.Unlock()

	if next.Equals(old) || !loaded {
		return
	}
	m.emitter.Fire(EventResize, map[string]geo.Point{"old": old, "new": next})
	// the center is re-clamped because a larger viewport may no longer
	// fit inside MaxBounds
	m.SetView(center, zoom, &ViewOptions{Animate: Bool(false), NoMoveStart: true})
}

// moveLocked applies one animation frame's center and zoom. Caller holds
// m.mu; returns the events to fire after unlocking.
func (m *Map) moveLocked(center geo.LatLng, zoom float64) (fire []string) {
	zoomChanged := zoom != m.zoom
	m.center = center
	m.zoom = zoom
	if zoomChanged {
		fire = append(fire, EventZoom)
	}
	return append(fire, EventMove)
}

func (m *Map) fireAll(types []string) {
	for _, t := range types {
		m.emitter.Fire(t, nil)
	}
}
