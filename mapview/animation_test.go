package mapview

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"slippymap/events"
	"slippymap/geo"
)

func runToCompletion(t *testing.T, m *Map, clock interface{ Advance(time.Duration) }) {
	t.Helper()
	for i := 0; i < 600; i++ {
		if !m.Animating() {
			return
		}
		clock.Advance(50 * time.Millisecond)
	}
	t.Fatal("animation never finished")
}

func TestFlyToLandsExactlyOnTarget(t *testing.T) {
	m, clock := newTestMap(t, Options{})
	m.SetView(geo.NewLatLng(40, -100), 8, nil)

	target := geo.NewLatLng(35, 25)
	m.FlyTo(target, 10, nil)
	require.True(t, m.Animating())
	runToCompletion(t, m, clock)

	assert.InDelta(t, target.Lat, m.Center().Lat, 1e-6)
	assert.InDelta(t, target.Lng, m.Center().Lng, 1e-6)
	assert.InDelta(t, 10, m.Zoom(), 1e-12)
}

func TestFlyToZoomsOutOverLongDistances(t *testing.T) {
	m, clock := newTestMap(t, Options{})
	m.SetView(geo.NewLatLng(40, -100), 8, nil)

	minZoom := m.Zoom()
	m.Events().On(EventZoom, func(events.Event) {
		if z := m.Zoom(); z < minZoom {
			minZoom = z
		}
	})

	m.FlyTo(geo.NewLatLng(35, 25), 8, nil)
	runToCompletion(t, m, clock)

	assert.Less(t, minZoom, 7.0, "a cross-continent flight dips well below the endpoints")
	assert.InDelta(t, 8, m.Zoom(), 1e-12)
}

func TestFlyToEventOrder(t *testing.T) {
	m, clock := newTestMap(t, Options{})
	m.SetView(geo.NewLatLng(0, 0), 6, nil)
	r := record(m)

	m.FlyTo(geo.NewLatLng(20, 40), 9, nil)
	runToCompletion(t, m, clock)

	require.GreaterOrEqual(t, len(r.types), 6)
	assert.Equal(t, EventZoomStart, r.types[0])
	assert.Equal(t, EventMoveStart, r.types[1])
	assert.Equal(t, EventZoomEnd, r.types[len(r.types)-2])
	assert.Equal(t, EventMoveEnd, r.types[len(r.types)-1])
	assert.Zero(t, r.count(EventViewReset))
}

func TestFlyToWithoutAnimationFallsBackToSetView(t *testing.T) {
	m, _ := newTestMap(t, Options{})
	m.SetView(geo.NewLatLng(0, 0), 6, nil)

	m.FlyTo(geo.NewLatLng(20, 40), 16, &ViewOptions{Animate: Bool(false)})

	assert.False(t, m.Animating())
	assert.InDelta(t, 16, m.Zoom(), 1e-12)
	assert.InDelta(t, 20, m.Center().Lat, 1e-9)
}

func TestFlyToPureZoomDoesNotDivideByZero(t *testing.T) {
	m, clock := newTestMap(t, Options{})
	center := geo.NewLatLng(10, 10)
	m.SetView(center, 5, nil)

	m.FlyTo(center, 7, nil)
	runToCompletion(t, m, clock)

	assert.InDelta(t, 7, m.Zoom(), 1e-12)
	assert.InDelta(t, center.Lat, m.Center().Lat, 1e-6)
}

func TestFlyToBoundsMatchesFitTarget(t *testing.T) {
	m, clock := newTestMap(t, Options{})
	m.SetView(geo.NewLatLng(0, 0), 3, nil)

	b := geo.NewLatLngBounds(geo.NewLatLng(40, -5), geo.NewLatLng(50, 10))
	wantZoom := m.GetBoundsZoom(b, false, geo.Point{})
	m.FlyToBounds(b, nil)
	runToCompletion(t, m, clock)

	assert.InDelta(t, wantZoom, m.Zoom(), 1e-12)
}

func TestDragSequence(t *testing.T) {
	m, _ := newTestMap(t, Options{})
	m.SetView(geo.NewLatLng(0, 0), 2, nil)
	r := record(m)
	before := m.Project(m.Center(), 2)

	m.DragStart()
	m.DragBy(geo.NewPoint(30, 0))
	m.DragBy(geo.NewPoint(20, 10))
	m.DragEnd(geo.Point{})

	after := m.Project(m.Center(), 2)
	assert.InDelta(t, 50, after.X-before.X, 1e-6)
	assert.InDelta(t, 10, after.Y-before.Y, 1e-6)
	assert.Equal(t, EventMoveStart, r.types[0])
	assert.Equal(t, EventMoveEnd, r.types[len(r.types)-1])
	assert.Equal(t, 2, r.count(EventMove))
}

func TestDragEndInertiaGlides(t *testing.T) {
	m, clock := newTestMap(t, Options{})
	m.SetView(geo.NewLatLng(0, 0), 2, nil)
	r := record(m)
	before := m.Project(m.Center(), 2)

	m.DragStart()
	m.DragBy(geo.NewPoint(10, 0))
	m.DragEnd(geo.NewPoint(200, 0))
	require.True(t, m.Animating(), "a fast release keeps gliding")
	runToCompletion(t, m, clock)

	after := m.Project(m.Center(), 2)
	assert.Greater(t, after.X-before.X, 20.0, "the glide travels past the drag itself")
	assert.Equal(t, 1, r.count(EventMoveEnd))
	assert.Equal(t, 1, r.count(EventMoveStart), "inertia continues the gesture's move sequence")
}

func TestDragViscosityStopsAtMaxBounds(t *testing.T) {
	maxBounds := geo.NewLatLngBounds(geo.NewLatLng(-75, -100), geo.NewLatLng(75, 100))
	m, _ := newTestMap(t, Options{MaxBounds: maxBounds, MaxBoundsViscosity: 1})
	m.SetView(geo.NewLatLng(0, 100), 2, &ViewOptions{Animate: Bool(false)})
	edge := m.Center()

	m.DragStart()
	m.DragBy(geo.NewPoint(100, 0))

	assert.InDelta(t, edge.Lng, m.Center().Lng, 1e-6, "a solid wall lets nothing through")
}
