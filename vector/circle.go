package vector

import (
	"math"
	"sync"

	"slippymap/events"
	"slippymap/geo"
)

// Circle is a circle of fixed ground radius in meters (CRS units for
// flat coordinate systems). Its pixel radius grows with zoom.
type Circle struct {
	mu     sync.Mutex
	view   View
	style  Style
	center geo.LatLng
	radius float64

	centerPx geo.Point
	radiusPx float64
	projZoom float64
	subs     []subscription
}

// NewCircle creates a circle centered on the given position
func NewCircle(center geo.LatLng, radius float64, style Style) *Circle {
	style.Stroke = true
	style.Fill = true
	style.ApplyDefaults()
	return &Circle{style: style, center: center, radius: radius}
}

// Style returns the paint style
func (c *Circle) Style() Style { return c.style }

// Center returns the geographic center
func (c *Circle) Center() geo.LatLng {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.center
}

// Radius returns the ground radius
func (c *Circle) Radius() float64 {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.radius
}

// SetCenter moves the circle and re-projects if attached
func (c *Circle) SetCenter(center geo.LatLng) {
	c.mu.Lock()
	c.center = center
	c.mu.Unlock()
	c.Project()
}

// SetRadius changes the ground radius and re-projects if attached
func (c *Circle) SetRadius(radius float64) {
	c.mu.Lock()
	c.radius = radius
	c.mu.Unlock()
	c.Project()
}

// Attach binds the circle to a view and projects it
func (c *Circle) Attach(view View) {
	c.mu.Lock()
	c.view = view
	c.mu.Unlock()
	reproject := func(events.Event) { c.Project() }
	c.subs = []subscription{
		{"viewreset", view.Events().On("viewreset", reproject)},
		{"zoomend", view.Events().On("zoomend", reproject)},
	}
	c.Project()
}

// Detach unbinds the circle from its view
func (c *Circle) Detach() {
	c.mu.Lock()
	view := c.view
	subs := c.subs
	c.view = nil
	c.subs = nil
	c.mu.Unlock()
	if view != nil {
		unsubscribe(view, subs)
	}
}

// GetBounds returns the geographic bounds enclosing the circle
func (c *Circle) GetBounds() geo.LatLngBounds {
	c.mu.Lock()
	center, radius := c.center, c.radius
	c.mu.Unlock()
	return center.ToBounds(radius * 2)
}

// Project recomputes the pixel center and radius at the view's current
// zoom. On spherical coordinate systems the radius is measured along a
// parallel, so circles stay circular on screen under web mercator's
// latitude stretch.
func (c *Circle) Project() {
	c.mu.Lock()
	view := c.view
	center, radius := c.center, c.radius
	c.mu.Unlock()
	if view == nil {
		return
	}

	zoom := view.Zoom()
	centerPx := view.Project(center, zoom)

	var radiusPx float64
	if view.CRS().Flat {
		edge := view.Project(geo.NewLatLng(center.Lat, center.Lng+radius), zoom)
		radiusPx = math.Abs(edge.X - centerPx.X)
	} else {
		latRad := center.Lat * math.Pi / 180
		lngR := radius / (geo.EarthRadius * math.Cos(latRad)) * 180 / math.Pi
		edge := view.Project(geo.NewLatLng(center.Lat, center.Lng-lngR), zoom)
		radiusPx = math.Abs(centerPx.X - edge.X)
	}

	c.mu.Lock()
	c.centerPx = centerPx
	c.radiusPx = radiusPx
	c.projZoom = zoom
	c.mu.Unlock()
}

// Render returns the circle's pixel center and radius at the view's
// current zoom, and whether it intersects the given pixel bounds
func (c *Circle) Render(pixelBounds geo.Bounds) (geo.Point, float64, bool) {
	c.mu.Lock()
	view := c.view
	centerPx, radiusPx, projZoom := c.centerPx, c.radiusPx, c.projZoom
	c.mu.Unlock()
	if view == nil {
		return geo.Point{}, 0, false
	}

	factor := view.CRS().Scale(view.Zoom()) / view.CRS().Scale(projZoom)
	centerPx = centerPx.MultiplyBy(factor)
	radiusPx *= factor

	r := radiusPx + c.style.Weight
	box := geo.NewBounds(
		centerPx.Subtract(geo.NewPoint(r, r)),
		centerPx.Add(geo.NewPoint(r, r)),
	)
	return centerPx, radiusPx, pixelBounds.Intersects(box)
}
