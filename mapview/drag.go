package mapview

import (
	"math"
	"time"

	"slippymap/geo"
)

// Drag helpers for host input loops. The host translates pointer events
// into DragStart, a DragBy per movement, and DragEnd with the release
// velocity; the map handles bounds viscosity and inertia.

// DragStart cancels animations and opens the move sequence
func (m *Map) DragStart() {
	m.Stop()
	m.emitter.Fire(EventMoveStart, nil)
}

// DragBy pans immediately by a pixel offset. With MaxBounds set, motion
// past the edge is damped by MaxBoundsViscosity.
func (m *Map) DragBy(offset geo.Point) {
	if m.opts.MaxBounds.IsValid() && m.opts.MaxBoundsViscosity > 0 {
		offset = m.viscousOffset(offset)
	}
	if offset.Equals(geo.Point{}) {
		return
	}
	m.mu.Lock()
	zoom := m.zoom
	centerPx := m.opts.CRS.LatLngToPoint(m.center, zoom)
	fire := m.moveLocked(m.opts.CRS.PointToLatLng(centerPx.Add(offset), zoom), zoom)
	m.mu.Unlock()
	m.fireAll(fire)
}

// viscousOffset shrinks the part of the offset that would push the view
// outside MaxBounds
func (m *Map) viscousOffset(offset geo.Point) geo.Point {
	m.mu.Lock()
	zoom := m.zoom
	topLeft := m.topLeftLocked()
	m.mu.Unlock()

	shifted := geo.NewBounds(topLeft.Add(offset), topLeft.Add(offset).Add(m.Size()))
	limit := m.boundsOffset(shifted, m.opts.MaxBounds, zoom)
	v := math.Min(m.opts.MaxBoundsViscosity, 1)
	return offset.Add(limit.MultiplyBy(v))
}

// DragEnd closes the gesture. The velocity is the recent center speed in
// pixels per second, in the same space as DragBy offsets; a non-zero
// velocity starts an inertial glide that decelerates to a stop, and the
// glide's completion fires moveend. With no velocity the view settles in
// place.
func (m *Map) DragEnd(velocity geo.Point) {
	speed := math.Hypot(velocity.X, velocity.Y)
	if speed < 1 {
		m.settleDrag()
		return
	}
	if speed > m.opts.InertiaMaxSpeed {
		velocity = velocity.MultiplyBy(m.opts.InertiaMaxSpeed / speed)
		speed = m.opts.InertiaMaxSpeed
	}

	lin := m.opts.EaseLinearity
	duration := time.Duration(speed / (m.opts.InertiaDeceleration * lin) * float64(time.Second))
	offset := velocity.MultiplyBy(float64(duration) / float64(time.Second) / 2)
	if m.opts.MaxBounds.IsValid() && m.opts.MaxBoundsViscosity >= 1 {
		offset = m.viscousOffset(offset)
	}
	offset = offset.Round()
	if offset.Equals(geo.Point{}) {
		m.settleDrag()
		return
	}
	m.PanBy(offset, &ViewOptions{Duration: duration, NoMoveStart: true})
}

// settleDrag ends a drag without inertia, bouncing back inside MaxBounds
// when viscosity let the view overshoot
func (m *Map) settleDrag() {
	if m.opts.MaxBounds.IsValid() {
		limited := m.limitCenter(m.Center(), m.Zoom())
		if !limited.Equals(m.Center()) {
			m.PanTo(limited, &ViewOptions{NoMoveStart: true})
			return
		}
	}
	m.emitter.Fire(EventMoveEnd, nil)
}
