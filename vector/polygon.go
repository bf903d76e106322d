package vector

import (
	"slippymap/geo"
)

// Polygon is a closed shape. The first ring is the outer boundary;
// additional rings are holes. The closing segment back to the first
// vertex is implicit.
type Polygon struct {
	Polyline
}

// NewPolygon creates a polygon from its outer ring
func NewPolygon(latlngs []geo.LatLng, style Style) *Polygon {
	return NewPolygonWithHoles([][]geo.LatLng{latlngs}, style)
}

// NewPolygonWithHoles creates a polygon from an outer ring and holes
func NewPolygonWithHoles(rings [][]geo.LatLng, style Style) *Polygon {
	style.Stroke = true
	style.Fill = true
	style.ApplyDefaults()
	pg := &Polygon{}
	pg.style = style
	pg.setLatLngsLocked(dropClosingVertices(rings))
	return pg
}

// dropClosingVertices removes an explicit closing vertex so rings are
// stored open
func dropClosingVertices(rings [][]geo.LatLng) [][]geo.LatLng {
	out := make([][]geo.LatLng, len(rings))
	for i, ring := range rings {
		if len(ring) > 2 && ring[0].Equals(ring[len(ring)-1]) {
			ring = ring[:len(ring)-1]
		}
		out[i] = ring
	}
	return out
}

// Render returns the visible rings in absolute pixels at the view's
// current zoom, each clipped as a closed polygon. Rings clipped away
// entirely are dropped.
func (pg *Polygon) Render(pixelBounds geo.Bounds) [][]geo.Point {
	pg.mu.Lock()
	view := pg.view
	rings := pg.rings
	projZoom := pg.projZoom
	style := pg.style
	pg.mu.Unlock()
	if view == nil || len(rings) == 0 {
		return nil
	}

	factor := view.CRS().Scale(view.Zoom()) / view.CRS().Scale(projZoom)
	clip := pixelBounds.Pad(clipPad)

	var out [][]geo.Point
	for _, ring := range rings {
		scaled := scaleRing(ring, factor)
		if !style.NoClip {
			scaled = ClipPolygon(scaled, clip)
		}
		if simplified := Simplify(scaled, style.SmoothFactor); len(simplified) >= 3 {
			out = append(out, simplified)
		}
	}
	return out
}

// ContainsPoint reports whether the given absolute pixel position at the
// view's current zoom falls inside the polygon, holes excluded, by ray
// casting
func (pg *Polygon) ContainsPoint(px geo.Point) bool {
	pg.mu.Lock()
	view := pg.view
	rings := pg.rings
	projZoom := pg.projZoom
	pg.mu.Unlock()
	if view == nil {
		return false
	}

	factor := view.CRS().Scale(view.Zoom()) / view.CRS().Scale(projZoom)
	inside := false
	for _, ring := range rings {
		scaled := scaleRing(ring, factor)
		for i, j := 0, len(scaled)-1; i < len(scaled); j, i = i, i+1 {
			a, b := scaled[i], scaled[j]
			if (a.Y > px.Y) != (b.Y > px.Y) &&
				px.X < (b.X-a.X)*(px.Y-a.Y)/(b.Y-a.Y)+a.X {
				inside = !inside
			}
		}
	}
	return inside
}
