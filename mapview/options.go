package mapview

import (
	"time"

	"slippymap/crs"
	"slippymap/geo"
	"slippymap/internal/sched"
)

// SizeProvider reports the current viewport size in CSS pixels. The host
// owns the surface, so the map asks rather than tracks.
type SizeProvider func() geo.Point

// Options configures a Map. Zero values are filled in by ApplyDefaults.
type Options struct {
	// CRS defaults to crs.EPSG3857
	CRS *crs.CRS

	// MinZoom and MaxZoom bound every view change. MaxZoom <= 0 means 22.
	MinZoom float64
	MaxZoom float64

	// ZoomSnap rounds every resolved zoom to the nearest multiple.
	// Negative disables snapping; zero means 1.
	ZoomSnap float64

	// ZoomDelta is the step used by ZoomIn and ZoomOut. Zero means 1.
	ZoomDelta float64

	// MaxBounds restricts the visible area. The map clamps the center so
	// the viewport stays inside; an invalid (zero) bounds disables it.
	MaxBounds geo.LatLngBounds

	// MaxBoundsViscosity controls how firmly drags resist leaving
	// MaxBounds, from 0 (rubber-band freely) to 1 (solid wall).
	MaxBoundsViscosity float64

	// ZoomAnimationThreshold is the largest zoom difference that still
	// animates; bigger jumps snap. Zero means 4.
	ZoomAnimationThreshold float64

	// PanDuration is the default animated pan length. Zero means 250ms.
	PanDuration time.Duration

	// Inertia tuning for EndDrag. Zero values mean 3400 px/s², 1500 px/s
	// and 0.2 respectively.
	InertiaDeceleration float64
	InertiaMaxSpeed     float64
	EaseLinearity       float64

	// SizeDebounce delays debounced InvalidateSize calls. Zero means
	// 150ms.
	SizeDebounce time.Duration

	// Scheduler drives animation frames; defaults to a 60Hz timer
	Scheduler sched.Scheduler
}

// ApplyDefaults fills unset options in place
func (o *Options) ApplyDefaults() {
	if o.CRS == nil {
		o.CRS = crs.EPSG3857
	}
	if o.MaxZoom <= 0 {
		o.MaxZoom = 22
	}
	if o.ZoomSnap == 0 {
		o.ZoomSnap = 1
	}
	if o.ZoomSnap < 0 {
		o.ZoomSnap = 0
	}
	if o.ZoomDelta <= 0 {
		o.ZoomDelta = 1
	}
	if o.ZoomAnimationThreshold <= 0 {
		o.ZoomAnimationThreshold = 4
	}
	if o.PanDuration <= 0 {
		o.PanDuration = 250 * time.Millisecond
	}
	if o.InertiaDeceleration <= 0 {
		o.InertiaDeceleration = 3400
	}
	if o.InertiaMaxSpeed <= 0 {
		o.InertiaMaxSpeed = 1500
	}
	if o.EaseLinearity <= 0 {
		o.EaseLinearity = 0.2
	}
	if o.SizeDebounce <= 0 {
		o.SizeDebounce = 150 * time.Millisecond
	}
	if o.Scheduler == nil {
		o.Scheduler = sched.NewTimer(0)
	}
}

// ViewOptions tweaks a single view change
type ViewOptions struct {
	// Animate forces animation on or off; nil lets the map decide
	Animate *bool

	// Duration overrides the animated pan length for this change
	Duration time.Duration

	// NoMoveStart suppresses the movestart event, for continuous
	// gestures that already fired it
	NoMoveStart bool
}

func (vo *ViewOptions) animate(fallback bool) bool {
	if vo == nil || vo.Animate == nil {
		return fallback
	}
	return *vo.Animate
}

func (vo *ViewOptions) duration(fallback time.Duration) time.Duration {
	if vo == nil || vo.Duration <= 0 {
		return fallback
	}
	return vo.Duration
}

// FitOptions tweaks FitBounds and FlyToBounds
type FitOptions struct {
	// Padding insets the target bounds from the viewport edges, in
	// pixels, applied on all four sides
	Padding geo.Point

	// MaxZoom caps the resolved zoom; zero means no extra cap
	MaxZoom float64

	// Animate forces animation on or off; nil lets the map decide
	Animate *bool
}

// Bool is a convenience for ViewOptions.Animate and FitOptions.Animate
func Bool(v bool) *bool { return &v }
