package main

import (
	"fmt"
	"image"
	"image/color"
	"log"
	"sync"
	"time"

	"gioui.org/f32"
	"gioui.org/io/event"
	"gioui.org/io/pointer"
	"gioui.org/layout"
	"gioui.org/op"
	"gioui.org/op/clip"
	"gioui.org/op/paint"

	"slippymap/events"
	"slippymap/geo"
	"slippymap/internal/config"
	"slippymap/mapview"
	"slippymap/source"
	"slippymap/tilecache"
	"slippymap/tilegrid"
	"slippymap/vector"
)

// velocityWindow is how far back drag samples count toward the release
// velocity
const velocityWindow = 120 * time.Millisecond

type dragSample struct {
	at  time.Duration
	pos f32.Point
}

// MapWidget hosts a mapview.Map and its tile grid inside a Gio window
type MapWidget struct {
	view *mapview.Map
	grid *tilegrid.Grid

	mu   sync.Mutex
	size geo.Point

	dragging bool
	lastPos  f32.Point
	samples  []dragSample

	route  *vector.Polyline
	area   *vector.Polygon
	marker *vector.Circle
}

func newMapWidget(settings *config.ViewerSettings, refresh chan<- struct{}) (*MapWidget, error) {
	w := &MapWidget{size: geo.NewPoint(1, 1)}

	view, err := mapview.New(w.viewportSize, mapview.Options{})
	if err != nil {
		return nil, err
	}
	w.view = view

	src := settings.Sources[0]
	if err := src.Validate(); err != nil {
		return nil, fmt.Errorf("tile source: %w", err)
	}
	cache, err := tilecache.New(settings.CacheTiles)
	if err != nil {
		return nil, err
	}
	var disk *tilecache.DiskCache
	if settings.CacheDiskMB > 0 {
		disk, err = tilecache.NewDisk(config.TileCachePath(), settings.CacheDiskMB)
		if err != nil {
			log.Printf("[MapViewer] disk cache unavailable: %v", err)
		}
	}
	httpSrc, err := source.NewHTTPSource(source.HTTPOptions{
		URLTemplate: src.URL,
		Subdomains:  src.Subdomains,
		Cache:       cache,
		DiskCache:   disk,
	})
	if err != nil {
		return nil, err
	}

	maxZoom := 18
	if src.MaxZoom > 0 {
		maxZoom = src.MaxZoom
	}
	grid, err := tilegrid.New(view, httpSrc, tilegrid.Options{
		MinZoom: src.MinZoom,
		MaxZoom: maxZoom,
	})
	if err != nil {
		return nil, err
	}
	w.grid = grid

	if settings.ShowOverlays {
		w.attachOverlays()
	}

	// any view or tile change redraws the window
	redraw := func(events.Event) {
		select {
		case refresh <- struct{}{}:
		default:
		}
	}
	for _, typ := range []string{"move", "zoom", "viewreset", "moveend"} {
		view.Events().On(typ, redraw)
	}
	for _, typ := range []string{"tileload", "tileerror", "load"} {
		grid.Events().On(typ, redraw)
	}

	grid.Attach()

	center := geo.NewLatLng(settings.DefaultCenterLat, settings.DefaultCenterLon)
	zoom := settings.DefaultZoom
	if settings.HasLastView {
		center = geo.NewLatLng(settings.LastCenterLat, settings.LastCenterLon)
		zoom = settings.LastZoom
	}
	view.SetView(center, zoom, nil)

	return w, nil
}

func (w *MapWidget) viewportSize() geo.Point {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.size
}

func (w *MapWidget) attachOverlays() {
	w.route = vector.NewPolyline([]geo.LatLng{
		geo.NewLatLng(51.503, -0.119),
		geo.NewLatLng(51.506, -0.1),
		geo.NewLatLng(51.511, -0.08),
	}, vector.Style{})
	w.area = vector.NewPolygon([]geo.LatLng{
		geo.NewLatLng(51.509, -0.08),
		geo.NewLatLng(51.503, -0.06),
		geo.NewLatLng(51.51, -0.047),
	}, vector.Style{})
	w.marker = vector.NewCircle(geo.NewLatLng(51.508, -0.11), 300, vector.Style{})
	w.route.Attach(w.view)
	w.area.Attach(w.view)
	w.marker.Attach(w.view)
}

// Layout processes input and draws one frame
func (w *MapWidget) Layout(gtx layout.Context) layout.Dimensions {
	w.updateSize(gtx.Constraints.Max)
	w.processEvents(gtx)

	defer clip.Rect{Max: gtx.Constraints.Max}.Push(gtx.Ops).Pop()
	event.Op(gtx.Ops, w)

	now := time.Now()
	w.drawTiles(gtx.Ops, now)
	w.drawOverlays(gtx.Ops)

	if w.grid.UpdateFade(now) {
		op.InvalidateOp{}.Add(gtx.Ops)
	}
	return layout.Dimensions{Size: gtx.Constraints.Max}
}

func (w *MapWidget) updateSize(max image.Point) {
	next := geo.NewPoint(float64(max.X), float64(max.Y))
	w.mu.Lock()
	changed := !w.size.Equals(next)
	w.size = next
	w.mu.Unlock()
	if changed {
		w.view.InvalidateSizeNow()
	}
}

func (w *MapWidget) processEvents(gtx layout.Context) {
	for {
		ev, ok := gtx.Event(pointer.Filter{
			Target:  w,
			Kinds:   pointer.Press | pointer.Drag | pointer.Release | pointer.Cancel | pointer.Scroll,
			ScrollY: pointer.ScrollRange{Min: -10, Max: 10},
		})
		if !ok {
			break
		}
		pe, ok := ev.(pointer.Event)
		if !ok {
			continue
		}
		switch pe.Kind {
		case pointer.Press:
			w.dragging = true
			w.lastPos = pe.Position
			w.samples = w.samples[:0]
			w.samples = append(w.samples, dragSample{at: pe.Time, pos: pe.Position})
			w.view.DragStart()

		case pointer.Drag:
			if !w.dragging {
				continue
			}
			delta := pe.Position.Sub(w.lastPos)
			w.lastPos = pe.Position
			w.samples = append(w.samples, dragSample{at: pe.Time, pos: pe.Position})
			// the map moves opposite to the pointer
			w.view.DragBy(geo.NewPoint(float64(-delta.X), float64(-delta.Y)))

		case pointer.Release, pointer.Cancel:
			if !w.dragging {
				continue
			}
			w.dragging = false
			w.view.DragEnd(w.releaseVelocity(pe.Time))

		case pointer.Scroll:
			at := geo.NewPoint(float64(pe.Position.X), float64(pe.Position.Y))
			if pe.Scroll.Y < 0 {
				w.view.SetZoomAround(at, w.view.Zoom()+1, nil)
			} else if pe.Scroll.Y > 0 {
				w.view.SetZoomAround(at, w.view.Zoom()-1, nil)
			}
		}
	}
}

// releaseVelocity estimates the pointer speed over the last few samples,
// converted to map-center space
func (w *MapWidget) releaseVelocity(at time.Duration) geo.Point {
	oldest := -1
	for i, s := range w.samples {
		if at-s.at <= velocityWindow {
			oldest = i
			break
		}
	}
	if oldest < 0 || oldest == len(w.samples)-1 {
		return geo.Point{}
	}
	first := w.samples[oldest]
	last := w.samples[len(w.samples)-1]
	dt := (last.at - first.at).Seconds()
	if dt <= 0 {
		return geo.Point{}
	}
	dx := float64(last.pos.X-first.pos.X) / dt
	dy := float64(last.pos.Y-first.pos.Y) / dt
	return geo.NewPoint(-dx, -dy)
}

func (w *MapWidget) drawTiles(ops *op.Ops, now time.Time) {
	for _, rt := range w.grid.RenderList(now) {
		if rt.Img == nil {
			continue
		}
		pos := rt.Pos.MultiplyBy(rt.Level.Scale).Add(rt.Level.Translate)
		imgScale := rt.Size * rt.Level.Scale / float64(rt.Img.Bounds().Dx())

		var opacity paint.OpacityStack
		faded := rt.Opacity < 1
		if faded {
			opacity = paint.PushOpacityOp(ops, float32(rt.Opacity))
		}
		tr := op.Affine(f32.Affine2D{}.
			Scale(f32.Point{}, f32.Pt(float32(imgScale), float32(imgScale))).
			Offset(f32.Pt(float32(pos.X), float32(pos.Y)))).Push(ops)
		paint.NewImageOp(rt.Img).Add(ops)
		paint.PaintOp{}.Add(ops)
		tr.Pop()
		if faded {
			opacity.Pop()
		}
	}
}

func (w *MapWidget) drawOverlays(ops *op.Ops) {
	if w.route == nil {
		return
	}
	bounds := w.view.GetPixelBounds()
	topLeft := bounds.Min

	for _, part := range w.route.Render(bounds) {
		strokeRing(ops, part, topLeft, w.route.Style(), false)
	}
	for _, ring := range w.area.Render(bounds) {
		fillRing(ops, ring, topLeft, w.area.Style())
		strokeRing(ops, ring, topLeft, w.area.Style(), true)
	}
	if center, radius, visible := w.marker.Render(bounds); visible {
		drawCircle(ops, center.Subtract(topLeft), radius, w.marker.Style())
	}
}

func strokeRing(ops *op.Ops, ring []geo.Point, topLeft geo.Point, style vector.Style, closed bool) {
	if len(ring) < 2 {
		return
	}
	var path clip.Path
	path.Begin(ops)
	path.MoveTo(screenPt(ring[0], topLeft))
	for _, p := range ring[1:] {
		path.LineTo(screenPt(p, topLeft))
	}
	if closed {
		path.Close()
	}
	paint.FillShape(ops, withAlpha(style.Color, style.Opacity),
		clip.Stroke{Path: path.End(), Width: float32(style.Weight)}.Op())
}

func fillRing(ops *op.Ops, ring []geo.Point, topLeft geo.Point, style vector.Style) {
	if len(ring) < 3 {
		return
	}
	var path clip.Path
	path.Begin(ops)
	path.MoveTo(screenPt(ring[0], topLeft))
	for _, p := range ring[1:] {
		path.LineTo(screenPt(p, topLeft))
	}
	path.Close()
	paint.FillShape(ops, withAlpha(style.FillColor, style.FillOpacity),
		clip.Outline{Path: path.End()}.Op())
}

func drawCircle(ops *op.Ops, center geo.Point, radius float64, style vector.Style) {
	r := int(radius)
	rect := image.Rect(int(center.X)-r, int(center.Y)-r, int(center.X)+r, int(center.Y)+r)
	circle := clip.Ellipse(rect)
	paint.FillShape(ops, withAlpha(style.FillColor, style.FillOpacity), circle.Op(ops))
	paint.FillShape(ops, withAlpha(style.Color, style.Opacity),
		clip.Stroke{Path: circle.Path(ops), Width: float32(style.Weight)}.Op())
}

func screenPt(p, topLeft geo.Point) f32.Point {
	return f32.Pt(float32(p.X-topLeft.X), float32(p.Y-topLeft.Y))
}

func withAlpha(c color.NRGBA, opacity float64) color.NRGBA {
	c.A = uint8(float64(c.A) * opacity)
	return c
}
