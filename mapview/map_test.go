package mapview

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"slippymap/events"
	"slippymap/geo"
	"slippymap/internal/sched"
)

func newTestMap(t *testing.T, opts Options) (*Map, *sched.Manual) {
	t.Helper()
	clock := sched.NewManual(time.Unix(0, 0))
	opts.Scheduler = clock
	size := geo.NewPoint(512, 512)
	m, err := New(func() geo.Point { return size }, opts)
	require.NoError(t, err)
	return m, clock
}

// recorder captures event types in firing order
type recorder struct {
	types []string
}

func record(m *Map) *recorder {
	r := &recorder{}
	for _, typ := range []string{
		EventZoomStart, EventMoveStart, EventZoom, EventMove,
		EventZoomEnd, EventMoveEnd, EventViewReset, EventLoad, EventResize,
	} {
		typ := typ
		m.Events().On(typ, func(events.Event) { r.types = append(r.types, typ) })
	}
	return r
}

func (r *recorder) count(typ string) int {
	n := 0
	for _, t := range r.types {
		if t == typ {
			n++
		}
	}
	return n
}

func (r *recorder) reset() { r.types = nil }

func TestNewRequiresSizeProvider(t *testing.T) {
	_, err := New(nil, Options{})
	assert.Error(t, err)
}

func TestNewRejectsInvertedZoomRange(t *testing.T) {
	_, err := New(func() geo.Point { return geo.NewPoint(512, 512) }, Options{MinZoom: 10, MaxZoom: 5})
	assert.Error(t, err)
}

func TestFirstSetViewFiresViewResetThenLoadOnce(t *testing.T) {
	m, _ := newTestMap(t, Options{})
	r := record(m)

	m.SetView(geo.NewLatLng(40, -3), 5, nil)

	assert.Equal(t, []string{EventViewReset, EventMoveEnd, EventLoad}, r.types)
	assert.True(t, m.Loaded())

	r.reset()
	m.SetView(geo.NewLatLng(50, 10), 12, nil)
	assert.Zero(t, r.count(EventLoad), "load fires only once")
}

func TestSetViewSnapsAndClampsZoom(t *testing.T) {
	m, _ := newTestMap(t, Options{ZoomSnap: 0.5, MinZoom: 2, MaxZoom: 10})

	m.SetView(geo.NewLatLng(0, 0), 3.3, nil)
	assert.InDelta(t, 3.5, m.Zoom(), 1e-12)

	m.SetView(geo.NewLatLng(0, 0), 30, &ViewOptions{Animate: Bool(false)})
	assert.InDelta(t, 10, m.Zoom(), 1e-12)

	m.SetView(geo.NewLatLng(0, 0), -4, &ViewOptions{Animate: Bool(false)})
	assert.InDelta(t, 2, m.Zoom(), 1e-12)
}

func TestSetViewWrapsLongitude(t *testing.T) {
	m, _ := newTestMap(t, Options{})

	m.SetView(geo.NewLatLng(10, 190), 3, nil)
	assert.InDelta(t, -170, m.Center().Lng, 1e-9)
}

func TestResetViewEventOrder(t *testing.T) {
	m, _ := newTestMap(t, Options{})
	m.SetView(geo.NewLatLng(0, 0), 2, nil)
	r := record(m)

	// a jump past the animation threshold resets instead of animating
	m.SetView(geo.NewLatLng(30, 30), 12, nil)

	assert.Equal(t, []string{
		EventZoomStart, EventMoveStart, EventViewReset,
		EventZoom, EventMove, EventZoomEnd, EventMoveEnd,
	}, r.types)
}

func TestAnimatedZoomEventOrder(t *testing.T) {
	m, clock := newTestMap(t, Options{})
	m.SetView(geo.NewLatLng(0, 0), 3, nil)
	r := record(m)

	m.SetView(geo.NewLatLng(0, 0), 4, nil)
	require.True(t, m.Animating())
	assert.Equal(t, []string{EventZoomStart, EventMoveStart}, r.types)

	for i := 0; i < 30 && m.Animating(); i++ {
		clock.Advance(50 * time.Millisecond)
	}
	require.False(t, m.Animating())

	n := len(r.types)
	require.GreaterOrEqual(t, n, 6)
	assert.Equal(t, EventZoomEnd, r.types[n-2])
	assert.Equal(t, EventMoveEnd, r.types[n-1])
	for _, typ := range r.types[2 : n-2] {
		assert.Contains(t, []string{EventZoom, EventMove}, typ)
	}
	assert.InDelta(t, 4, m.Zoom(), 1e-12)
	assert.Zero(t, r.count(EventViewReset), "incremental changes do not reset")
}

func TestAnimatedPanFiresNoZoomEvents(t *testing.T) {
	m, clock := newTestMap(t, Options{})
	m.SetView(geo.NewLatLng(0, 0), 3, nil)
	r := record(m)

	m.SetView(geo.NewLatLng(0, 10), 3, nil)
	require.True(t, m.Animating())

	for i := 0; i < 30 && m.Animating(); i++ {
		clock.Advance(50 * time.Millisecond)
	}

	assert.Zero(t, r.count(EventZoomStart))
	assert.Zero(t, r.count(EventZoom))
	assert.Zero(t, r.count(EventZoomEnd))
	assert.Equal(t, 1, r.count(EventMoveStart))
	assert.Equal(t, 1, r.count(EventMoveEnd))
	assert.Equal(t, EventMoveEnd, r.types[len(r.types)-1])
	assert.InDelta(t, 10, m.Center().Lng, 1e-6)
}

func TestStopCancelsAnimationSilently(t *testing.T) {
	m, clock := newTestMap(t, Options{})
	m.SetView(geo.NewLatLng(0, 0), 3, nil)
	r := record(m)

	m.SetView(geo.NewLatLng(0, 10), 3, nil)
	clock.Advance(50 * time.Millisecond)
	require.True(t, m.Animating())

	m.Stop()
	clock.Advance(time.Second)
	clock.Advance(time.Second)

	assert.False(t, m.Animating())
	assert.Zero(t, r.count(EventMoveEnd), "a canceled animation fires no completion events")
	// the view stays wherever the last frame left it
	assert.Greater(t, m.Center().Lng, 0.0)
	assert.Less(t, m.Center().Lng, 10.0)
}

func TestNewViewChangeReplacesRunningAnimation(t *testing.T) {
	m, clock := newTestMap(t, Options{})
	m.SetView(geo.NewLatLng(0, 0), 3, nil)

	m.SetView(geo.NewLatLng(0, 10), 3, nil)
	clock.Advance(50 * time.Millisecond)
	m.SetView(geo.NewLatLng(0, -10), 3, nil)

	for i := 0; i < 30 && m.Animating(); i++ {
		clock.Advance(50 * time.Millisecond)
	}
	assert.InDelta(t, -10, m.Center().Lng, 1e-6)
}

func TestMaxBoundsClampsCenter(t *testing.T) {
	maxBounds := geo.NewLatLngBounds(geo.NewLatLng(-75, -100), geo.NewLatLng(75, 100))
	m, _ := newTestMap(t, Options{MaxBounds: maxBounds})

	m.SetView(geo.NewLatLng(0, 100), 2, &ViewOptions{Animate: Bool(false)})

	visible := m.GetBounds()
	assert.LessOrEqual(t, visible.East(), 100.0+1e-6)
	assert.GreaterOrEqual(t, visible.West(), -100.0-1e-6)
	assert.Less(t, m.Center().Lng, 100.0)
}

func TestMaxBoundsSmallerThanViewportCentersOnIt(t *testing.T) {
	maxBounds := geo.NewLatLngBounds(geo.NewLatLng(-5, -5), geo.NewLatLng(5, 5))
	m, _ := newTestMap(t, Options{MaxBounds: maxBounds})

	m.SetView(geo.NewLatLng(40, 60), 3, &ViewOptions{Animate: Bool(false)})

	assert.InDelta(t, 0, m.Center().Lng, 1.0)
	assert.InDelta(t, 0, m.Center().Lat, 1.0)
}

func TestFitWorld(t *testing.T) {
	m, _ := newTestMap(t, Options{})

	m.FitWorld(&FitOptions{Animate: Bool(false)})

	assert.InDelta(t, 1, m.Zoom(), 1e-12, "a 512px viewport fits the world at zoom 1")
	assert.InDelta(t, 0, m.Center().Lng, 1e-6)
}

func TestFitBoundsRespectsPaddingAndMaxZoom(t *testing.T) {
	m, _ := newTestMap(t, Options{})
	m.SetView(geo.NewLatLng(0, 0), 2, nil)

	b := geo.NewLatLngBounds(geo.NewLatLng(40, -3.8), geo.NewLatLng(40.6, -3.5))
	m.FitBounds(b, &FitOptions{MaxZoom: 8, Animate: Bool(false)})
	assert.InDelta(t, 8, m.Zoom(), 1e-12)

	m.FitBounds(b, &FitOptions{Padding: geo.NewPoint(64, 64), Animate: Bool(false)})
	padded := m.GetBoundsZoom(b, false, geo.NewPoint(64, 64))
	assert.InDelta(t, padded, m.Zoom(), 1e-12)
	unpadded := m.GetBoundsZoom(b, false, geo.Point{})
	assert.GreaterOrEqual(t, unpadded, padded)
}

func TestInvalidBoundsPanic(t *testing.T) {
	m, _ := newTestMap(t, Options{})
	m.SetView(geo.NewLatLng(0, 0), 5, nil)

	assert.Panics(t, func() { m.FitBounds(geo.LatLngBounds{}, nil) })
	assert.Panics(t, func() { m.FlyToBounds(geo.LatLngBounds{}, nil) })
	assert.Panics(t, func() { m.PanInsideBounds(geo.LatLngBounds{}, nil) })
	assert.InDelta(t, 5, m.Zoom(), 1e-12, "the view is untouched")
}

func TestGetBoundsZoomExactFitDoesNotDropAStep(t *testing.T) {
	m, _ := newTestMap(t, Options{})
	m.SetView(geo.NewLatLng(0, 0), 3, nil)

	z := m.GetBoundsZoom(m.GetBounds(), false, geo.Point{})
	assert.InDelta(t, 3, z, 1e-12)
}

func TestGetBoundsZoomInside(t *testing.T) {
	m, _ := newTestMap(t, Options{})
	m.SetView(geo.NewLatLng(0, 0), 3, nil)

	b := geo.NewLatLngBounds(geo.NewLatLng(-20, -40), geo.NewLatLng(20, 40))
	cover := m.GetBoundsZoom(b, true, geo.Point{})
	fit := m.GetBoundsZoom(b, false, geo.Point{})
	assert.GreaterOrEqual(t, cover, fit, "covering the viewport needs at least the fitting zoom")
}

func TestSetZoomAroundKeepsPointFixed(t *testing.T) {
	m, _ := newTestMap(t, Options{})
	m.SetView(geo.NewLatLng(20, 30), 4, nil)

	p := geo.NewPoint(100, 140)
	before := m.ContainerPointToLatLng(p)
	m.SetZoomAround(p, 5, &ViewOptions{Animate: Bool(false)})
	after := m.ContainerPointToLatLng(p)

	assert.InDelta(t, before.Lat, after.Lat, 1e-6)
	assert.InDelta(t, before.Lng, after.Lng, 1e-6)
	assert.InDelta(t, 5, m.Zoom(), 1e-12)
}

func TestZoomInOutUseZoomDelta(t *testing.T) {
	m, _ := newTestMap(t, Options{ZoomSnap: -1, ZoomDelta: 0.5})
	m.SetView(geo.NewLatLng(0, 0), 4, nil)

	m.ZoomIn(1, &ViewOptions{Animate: Bool(false)})
	assert.InDelta(t, 4.5, m.Zoom(), 1e-12)
	m.ZoomOut(2, &ViewOptions{Animate: Bool(false)})
	assert.InDelta(t, 3.5, m.Zoom(), 1e-12)
}

func TestConversionsRoundTrip(t *testing.T) {
	m, _ := newTestMap(t, Options{})
	m.SetView(geo.NewLatLng(48.8566, 2.3522), 12, nil)

	center := m.LatLngToContainerPoint(m.Center())
	assert.InDelta(t, 256, center.X, 1e-6)
	assert.InDelta(t, 256, center.Y, 1e-6)

	p := geo.NewPoint(37, 401)
	ll := m.ContainerPointToLatLng(p)
	back := m.LatLngToContainerPoint(ll)
	assert.InDelta(t, p.X, back.X, 1e-6)
	assert.InDelta(t, p.Y, back.Y, 1e-6)

	layer := m.LatLngToLayerPoint(ll)
	assert.True(t, m.LayerPointToLatLng(layer).Equals(ll))
}

func TestPanByShiftsByPixelOffset(t *testing.T) {
	m, clock := newTestMap(t, Options{})
	m.SetView(geo.NewLatLng(0, 0), 2, nil)
	before := m.Project(m.Center(), 2)

	m.PanBy(geo.NewPoint(64, -32), nil)
	for i := 0; i < 30 && m.Animating(); i++ {
		clock.Advance(50 * time.Millisecond)
	}

	after := m.Project(m.Center(), 2)
	assert.InDelta(t, 64, after.X-before.X, 1e-6)
	assert.InDelta(t, -32, after.Y-before.Y, 1e-6)
}

func TestPanInsideBoundsNoopWhenInside(t *testing.T) {
	m, _ := newTestMap(t, Options{})
	m.SetView(geo.NewLatLng(0, 0), 3, nil)
	r := record(m)

	m.PanInsideBounds(geo.NewLatLngBounds(geo.NewLatLng(-80, -170), geo.NewLatLng(80, 170)), nil)

	assert.Empty(t, r.types)
}

func TestInvalidateSizeFiresResizeAndReclamps(t *testing.T) {
	size := geo.NewPoint(512, 512)
	clock := sched.NewManual(time.Unix(0, 0))
	m, err := New(func() geo.Point { return size }, Options{Scheduler: clock})
	require.NoError(t, err)
	m.SetView(geo.NewLatLng(0, 0), 3, nil)
	r := record(m)

	m.InvalidateSizeNow()
	assert.Empty(t, r.types, "unchanged size is a no-op")

	size = geo.NewPoint(800, 600)
	m.InvalidateSizeNow()
	assert.Equal(t, 1, r.count(EventResize))
	assert.Equal(t, 1, r.count(EventMoveEnd))
}
