package vector

import (
	"sync"

	"slippymap/events"
	"slippymap/geo"
)

// clipPad grows the clip bounds so stroke caps at the viewport edge stay
// off screen
const clipPad = 0.1

// Polyline is one or more runs of geographic positions drawn as
// connected line segments
type Polyline struct {
	mu      sync.Mutex
	view    View
	style   Style
	latlngs [][]geo.LatLng

	rings    [][]geo.Point // absolute pixels at projZoom
	projZoom float64
	subs     []subscription
}

// NewPolyline creates a polyline from a single run of positions
func NewPolyline(latlngs []geo.LatLng, style Style) *Polyline {
	return NewMultiPolyline([][]geo.LatLng{latlngs}, style)
}

// NewMultiPolyline creates a polyline with several disjoint runs
func NewMultiPolyline(latlngs [][]geo.LatLng, style Style) *Polyline {
	style.Stroke = true
	style.ApplyDefaults()
	p := &Polyline{style: style}
	p.setLatLngsLocked(latlngs)
	return p
}

// Style returns the paint style
func (p *Polyline) Style() Style { return p.style }

// Attach binds the polyline to a view and projects it. The polyline
// re-projects itself on view resets and zoom changes.
func (p *Polyline) Attach(view View) {
	p.mu.Lock()
	p.view = view
	p.mu.Unlock()
	reproject := func(events.Event) { p.Project() }
	p.subs = []subscription{
		{"viewreset", view.Events().On("viewreset", reproject)},
		{"zoomend", view.Events().On("zoomend", reproject)},
	}
	p.Project()
}

// Detach unbinds the polyline from its view
func (p *Polyline) Detach() {
	p.mu.Lock()
	view := p.view
	subs := p.subs
	p.view = nil
	p.subs = nil
	p.rings = nil
	p.mu.Unlock()
	if view != nil {
		unsubscribe(view, subs)
	}
}

// SetLatLngs replaces the geometry and re-projects if attached
func (p *Polyline) SetLatLngs(latlngs []geo.LatLng) {
	p.SetMultiLatLngs([][]geo.LatLng{latlngs})
}

// SetMultiLatLngs replaces the geometry with several runs
func (p *Polyline) SetMultiLatLngs(latlngs [][]geo.LatLng) {
	p.mu.Lock()
	p.setLatLngsLocked(latlngs)
	p.mu.Unlock()
	p.Project()
}

func (p *Polyline) setLatLngsLocked(latlngs [][]geo.LatLng) {
	p.latlngs = make([][]geo.LatLng, len(latlngs))
	for i, ring := range latlngs {
		p.latlngs[i] = append([]geo.LatLng(nil), ring...)
	}
}

// AddLatLng appends a position to the last run
func (p *Polyline) AddLatLng(ll geo.LatLng) {
	p.mu.Lock()
	if len(p.latlngs) == 0 {
		p.latlngs = [][]geo.LatLng{nil}
	}
	p.latlngs[len(p.latlngs)-1] = append(p.latlngs[len(p.latlngs)-1], ll)
	p.mu.Unlock()
	p.Project()
}

// GetBounds returns the geographic bounds of all runs
func (p *Polyline) GetBounds() geo.LatLngBounds {
	p.mu.Lock()
	defer p.mu.Unlock()
	var b geo.LatLngBounds
	for _, ring := range p.latlngs {
		for _, ll := range ring {
			b = b.Extend(ll)
		}
	}
	return b
}

// Project recomputes the pixel rings at the view's current zoom
func (p *Polyline) Project() {
	p.mu.Lock()
	view := p.view
	latlngs := p.latlngs
	p.mu.Unlock()
	if view == nil {
		return
	}

	zoom := view.Zoom()
	rings := make([][]geo.Point, len(latlngs))
	for i, ring := range latlngs {
		pts := make([]geo.Point, len(ring))
		for j, ll := range ring {
			pts[j] = view.Project(ll, zoom)
		}
		rings[i] = pts
	}

	p.mu.Lock()
	p.rings = rings
	p.projZoom = zoom
	p.mu.Unlock()
}

// Render returns the visible parts in absolute pixels at the view's
// current zoom, clipped to the given pixel bounds and simplified. The
// cached projection is rescaled when a zoom animation has moved the view
// off the projected zoom.
func (p *Polyline) Render(pixelBounds geo.Bounds) [][]geo.Point {
	p.mu.Lock()
	view := p.view
	rings := p.rings
	projZoom := p.projZoom
	style := p.style
	p.mu.Unlock()
	if view == nil || len(rings) == 0 {
		return nil
	}

	factor := view.CRS().Scale(view.Zoom()) / view.CRS().Scale(projZoom)
	clip := pixelBounds.Pad(clipPad)

	var out [][]geo.Point
	for _, ring := range rings {
		scaled := scaleRing(ring, factor)
		parts := [][]geo.Point{scaled}
		if !style.NoClip {
			parts = ClipRing(scaled, clip)
		}
		for _, part := range parts {
			if simplified := Simplify(part, style.SmoothFactor); len(simplified) > 1 {
				out = append(out, simplified)
			}
		}
	}
	return out
}

// ClosestPoint returns the point on the polyline nearest to the given
// absolute pixel position at the view's current zoom
func (p *Polyline) ClosestPoint(px geo.Point) (geo.Point, bool) {
	p.mu.Lock()
	view := p.view
	rings := p.rings
	projZoom := p.projZoom
	p.mu.Unlock()
	if view == nil {
		return geo.Point{}, false
	}

	factor := view.CRS().Scale(view.Zoom()) / view.CRS().Scale(projZoom)
	best := geo.Point{}
	bestDist := -1.0
	for _, ring := range rings {
		scaled := scaleRing(ring, factor)
		for i := 0; i+1 < len(scaled); i++ {
			c := ClosestPointOnSegment(px, scaled[i], scaled[i+1])
			if d := sqDist(px, c); bestDist < 0 || d < bestDist {
				best, bestDist = c, d
			}
		}
	}
	return best, bestDist >= 0
}
