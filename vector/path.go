package vector

import (
	"image/color"

	"slippymap/crs"
	"slippymap/events"
	"slippymap/geo"
)

// View is the slice of the map a path needs: projection, the current
// zoom and the event stream that tells it when to re-project.
// mapview.Map satisfies it.
type View interface {
	CRS() *crs.CRS
	Zoom() float64
	Project(ll geo.LatLng, zoom float64) geo.Point
	Events() *events.Emitter
}

// Style describes how a renderer should paint a path
type Style struct {
	Stroke      bool
	Color       color.NRGBA
	Weight      float64
	Opacity     float64
	Fill        bool
	FillColor   color.NRGBA
	FillOpacity float64

	// SmoothFactor is the simplification tolerance in pixels. Zero
	// means 1; negative disables simplification.
	SmoothFactor float64

	// NoClip disables viewport clipping
	NoClip bool
}

// DefaultColor is the stock path blue
var DefaultColor = color.NRGBA{R: 0x33, G: 0x88, B: 0xff, A: 0xff}

// ApplyDefaults fills unset style fields in place. Stroke and Fill
// default per shape, so the shapes set them before calling this.
func (s *Style) ApplyDefaults() {
	if (s.Color == color.NRGBA{}) {
		s.Color = DefaultColor
	}
	if s.Weight == 0 {
		s.Weight = 3
	}
	if s.Opacity == 0 {
		s.Opacity = 1
	}
	if (s.FillColor == color.NRGBA{}) {
		s.FillColor = s.Color
	}
	if s.FillOpacity == 0 {
		s.FillOpacity = 0.2
	}
	if s.SmoothFactor == 0 {
		s.SmoothFactor = 1
	}
	if s.SmoothFactor < 0 {
		s.SmoothFactor = 0
	}
}

// subscription pairs an event type with its handler id for Detach
type subscription struct {
	typ string
	id  uint64
}

func unsubscribe(view View, subs []subscription) {
	for _, s := range subs {
		view.Events().Off(s.typ, s.id)
	}
}

// scaleRing converts a ring projected at one zoom to another zoom.
// Absolute pixel coordinates scale exactly between zooms, so cached
// projections stay valid through fractional zoom frames.
func scaleRing(ring []geo.Point, factor float64) []geo.Point {
	if factor == 1 {
		return ring
	}
	out := make([]geo.Point, len(ring))
	for i, p := range ring {
		out[i] = p.MultiplyBy(factor)
	}
	return out
}
