package mapview

import (
	"log"
	"math"

	"slippymap/geo"
)

// SetView is the single funnel every view change goes through: the zoom
// is snapped and clamped, the center is clamped against MaxBounds, any
// running animation is canceled, and the change is applied animated when
// it is small enough or as a hard reset otherwise.
func (m *Map) SetView(center geo.LatLng, zoom float64, vo *ViewOptions) {
	zoom = m.limitZoom(zoom)
	center = m.limitCenter(m.opts.CRS.WrapLatLng(center), zoom)

	m.Stop()

	m.mu.Lock()
	loaded := m.loaded
	curCenter, curZoom := m.center, m.zoom
	m.mu.Unlock()

	if loaded && vo.animate(true) {
		if zoom == curZoom {
			offset := m.Project(center, zoom).Subtract(m.Project(curCenter, zoom))
			size := m.Size()
			if math.Abs(offset.X) <= size.X && math.Abs(offset.Y) <= size.Y {
				m.panAnimate(center, vo)
				return
			}
		} else if math.Abs(zoom-curZoom) <= m.opts.ZoomAnimationThreshold {
			m.zoomAnimate(center, zoom, vo)
			return
		}
	}

	m.resetView(center, zoom, vo)
}

// resetView applies a view change without animation, bracketing it with
// viewreset so layers rebuild from scratch
func (m *Map) resetView(center geo.LatLng, zoom float64, vo *ViewOptions) {
	m.mu.Lock()
	wasLoaded := m.loaded
	zoomChanged := !wasLoaded || zoom != m.zoom
	m.center = center
	m.zoom = zoom
	m.loaded = true
	m.pixelOrigin = m.topLeftLocked().Round()
	m.mu.Unlock()

	if wasLoaded {
		if zoomChanged {
			m.emitter.Fire(EventZoomStart, nil)
		}
		if vo == nil || !vo.NoMoveStart {
			m.emitter.Fire(EventMoveStart, nil)
		}
	}
	m.emitter.Fire(EventViewReset, nil)
	if wasLoaded {
		if zoomChanged {
			m.emitter.Fire(EventZoom, nil)
		}
		m.emitter.Fire(EventMove, nil)
		if zoomChanged {
			m.emitter.Fire(EventZoomEnd, nil)
		}
	}
	m.emitter.Fire(EventMoveEnd, nil)
	if !wasLoaded {
		log.Printf("[MapView] view initialized: center=%s zoom=%g", center, zoom)
		m.emitter.Fire(EventLoad, nil)
	}
}

// limitZoom clamps a zoom to the configured range, snapping first so a
// snapped value never escapes the limits
func (m *Map) limitZoom(zoom float64) float64 {
	if snap := m.opts.ZoomSnap; snap > 0 {
		zoom = math.Round(zoom/snap) * snap
	}
	return math.Max(m.opts.MinZoom, math.Min(m.opts.MaxZoom, zoom))
}

// limitCenter shifts the center so the viewport stays inside MaxBounds.
// When the world is smaller than the viewport on an axis, the correction
// with the larger magnitude wins and the world is kept in view.
func (m *Map) limitCenter(center geo.LatLng, zoom float64) geo.LatLng {
	if !m.opts.MaxBounds.IsValid() {
		return center
	}
	centerPx := m.Project(center, zoom)
	half := m.Size().DivideBy(2)
	viewBounds := geo.NewBounds(centerPx.Subtract(half), centerPx.Add(half))
	offset := m.boundsOffset(viewBounds, m.opts.MaxBounds, zoom)
	if offset.Round().Equals(geo.Point{}) {
		return center
	}
	return m.Unproject(centerPx.Add(offset), zoom)
}

// boundsOffset computes the pixel shift that moves viewBounds inside the
// projected maxBounds
func (m *Map) boundsOffset(viewBounds geo.Bounds, maxBounds geo.LatLngBounds, zoom float64) geo.Point {
	projected := geo.NewBounds(
		m.Project(maxBounds.NorthWest(), zoom),
		m.Project(maxBounds.SouthEast(), zoom),
	)
	minOffset := projected.Min.Subtract(viewBounds.Min)
	maxOffset := projected.Max.Subtract(viewBounds.Max)
	return geo.NewPoint(rebound(minOffset.X, -maxOffset.X), rebound(minOffset.Y, -maxOffset.Y))
}

// rebound combines the corrections needed at the two opposite edges.
// left is how far the view sticks out past the minimum edge, right past
// the maximum edge; both positive at once means the bounds are smaller
// than the view, in which case the view centers on them.
func rebound(left, right float64) float64 {
	if left+right > 0 {
		return math.Round(left-right) / 2
	}
	return math.Max(0, math.Ceil(left)) - math.Max(0, math.Floor(right))
}

// PanTo moves to a new center at the current zoom, animated by default
func (m *Map) PanTo(center geo.LatLng, vo *ViewOptions) {
	m.SetView(center, m.Zoom(), vo)
}

// SetZoom changes the zoom keeping the current center
func (m *Map) SetZoom(zoom float64, vo *ViewOptions) {
	if !m.Loaded() {
		m.mu.Lock()
		m.zoom = m.limitZoom(zoom)
		m.mu.Unlock()
		return
	}
	m.SetView(m.Center(), zoom, vo)
}

// ZoomIn raises the zoom by delta steps of ZoomDelta (delta 0 means 1)
func (m *Map) ZoomIn(delta float64, vo *ViewOptions) {
	if delta == 0 {
		delta = 1
	}
	m.SetZoom(m.Zoom()+delta*m.opts.ZoomDelta, vo)
}

// ZoomOut lowers the zoom by delta steps of ZoomDelta (delta 0 means 1)
func (m *Map) ZoomOut(delta float64, vo *ViewOptions) {
	if delta == 0 {
		delta = 1
	}
	m.SetZoom(m.Zoom()-delta*m.opts.ZoomDelta, vo)
}

// SetZoomAround zooms keeping the given container point fixed on screen,
// the math behind zoom-to-cursor
func (m *Map) SetZoomAround(containerPoint geo.Point, zoom float64, vo *ViewOptions) {
	zoom = m.limitZoom(zoom)
	scale := m.opts.CRS.Scale(zoom) / m.opts.CRS.Scale(m.Zoom())
	viewHalf := m.Size().DivideBy(2)
	centerOffset := containerPoint.Subtract(viewHalf).MultiplyBy(1 - 1/scale)
	newCenter := m.ContainerPointToLatLng(viewHalf.Add(centerOffset))
	m.SetView(newCenter, zoom, vo)
}

// GetBoundsZoom returns the maximum zoom at which the bounds fit the
// viewport. With inside true it is instead the minimum zoom at which the
// bounds cover the viewport. Padding shrinks the viewport on all sides.
func (m *Map) GetBoundsZoom(b geo.LatLngBounds, inside bool, padding geo.Point) float64 {
	zoom := m.Zoom()
	size := m.Size().Subtract(padding.MultiplyBy(2))
	boundsSize := geo.NewBounds(
		m.Project(b.SouthEast(), zoom),
		m.Project(b.NorthWest(), zoom),
	).Size()

	scaleX := size.X / boundsSize.X
	scaleY := size.Y / boundsSize.Y
	scale := math.Min(scaleX, scaleY)
	if inside {
		scale = math.Max(scaleX, scaleY)
	}
	zoom = m.opts.CRS.Zoom(scale * m.opts.CRS.Scale(zoom))

	if snap := m.opts.ZoomSnap; snap > 0 {
		// shave float noise before snapping so an exact fit is not
		// pushed a whole step down
		zoom = math.Round(zoom/(snap/100)) * (snap / 100)
		if inside {
			zoom = math.Ceil(zoom/snap) * snap
		} else {
			zoom = math.Floor(zoom/snap) * snap
		}
	}
	return math.Max(m.opts.MinZoom, math.Min(m.opts.MaxZoom, zoom))
}

// FitBounds sets a view that contains the given bounds as large as
// possible. Passing invalid bounds is a programmer error, so it panics.
func (m *Map) FitBounds(b geo.LatLngBounds, fo *FitOptions) {
	if !b.IsValid() {
		panic("mapview: FitBounds called with invalid bounds")
	}
	center, zoom := m.fitTarget(b, fo)
	m.SetView(center, zoom, fitViewOptions(fo))
}

// FitWorld fits the whole world into the view
func (m *Map) FitWorld(fo *FitOptions) {
	m.FitBounds(geo.NewLatLngBounds(geo.NewLatLng(-90, -180), geo.NewLatLng(90, 180)), fo)
}

func (m *Map) fitTarget(b geo.LatLngBounds, fo *FitOptions) (geo.LatLng, float64) {
	var padding geo.Point
	if fo != nil {
		padding = fo.Padding
	}
	zoom := m.GetBoundsZoom(b, false, padding)
	if fo != nil && fo.MaxZoom > 0 {
		zoom = math.Min(zoom, fo.MaxZoom)
	}
	swPoint := m.Project(b.SouthWest, zoom)
	nePoint := m.Project(b.NorthEast, zoom)
	center := m.Unproject(swPoint.Add(nePoint).DivideBy(2), zoom)
	return center, zoom
}

func fitViewOptions(fo *FitOptions) *ViewOptions {
	if fo == nil {
		return nil
	}
	return &ViewOptions{Animate: fo.Animate}
}

// PanInsideBounds pans the smallest distance that brings the view fully
// inside the given bounds
func (m *Map) PanInsideBounds(b geo.LatLngBounds, vo *ViewOptions) {
	if !b.IsValid() {
		panic("mapview: PanInsideBounds called with invalid bounds")
	}
	if !m.Loaded() {
		return
	}
	zoom := m.Zoom()
	offset := m.boundsOffset(m.GetPixelBounds(), b, zoom)
	if offset.Round().Equals(geo.Point{}) {
		return
	}
	center := m.Unproject(m.Project(m.Center(), zoom).Add(offset), zoom)
	m.PanTo(center, vo)
}
