package vector

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"slippymap/crs"
	"slippymap/events"
	"slippymap/geo"
)

// stubView projects through a real CRS at a settable zoom
type stubView struct {
	crs  *crs.CRS
	zoom float64
	ev   events.Emitter
}

func (v *stubView) CRS() *crs.CRS           { return v.crs }
func (v *stubView) Zoom() float64           { return v.zoom }
func (v *stubView) Events() *events.Emitter { return &v.ev }
func (v *stubView) Project(ll geo.LatLng, zoom float64) geo.Point {
	return v.crs.LatLngToPoint(ll, zoom)
}

func newStubView(zoom float64) *stubView {
	return &stubView{crs: crs.EPSG3857, zoom: zoom}
}

func TestClipSegmentFullyInside(t *testing.T) {
	b := geo.NewBounds(geo.NewPoint(0, 0), geo.NewPoint(100, 100))
	a, c, ok := ClipSegment(geo.NewPoint(10, 10), geo.NewPoint(90, 90), b)
	require.True(t, ok)
	assert.Equal(t, geo.NewPoint(10, 10), a)
	assert.Equal(t, geo.NewPoint(90, 90), c)
}

func TestClipSegmentFullyOutside(t *testing.T) {
	b := geo.NewBounds(geo.NewPoint(0, 0), geo.NewPoint(100, 100))
	_, _, ok := ClipSegment(geo.NewPoint(-50, -10), geo.NewPoint(-10, -50), b)
	assert.False(t, ok)
}

func TestClipSegmentCrossing(t *testing.T) {
	b := geo.NewBounds(geo.NewPoint(0, 0), geo.NewPoint(100, 100))
	a, c, ok := ClipSegment(geo.NewPoint(-50, 50), geo.NewPoint(150, 50), b)
	require.True(t, ok)
	assert.Equal(t, geo.NewPoint(0, 50), a)
	assert.Equal(t, geo.NewPoint(100, 50), c)
}

func TestClipSegmentDiagonalThroughCorner(t *testing.T) {
	b := geo.NewBounds(geo.NewPoint(0, 0), geo.NewPoint(100, 100))
	a, c, ok := ClipSegment(geo.NewPoint(-50, -50), geo.NewPoint(150, 150), b)
	require.True(t, ok)
	assert.Equal(t, geo.NewPoint(0, 0), a)
	assert.Equal(t, geo.NewPoint(100, 100), c)
}

func TestClipRingSplitsAtGaps(t *testing.T) {
	b := geo.NewBounds(geo.NewPoint(0, 0), geo.NewPoint(100, 100))
	// enters, leaves, re-enters
	ring := []geo.Point{
		{X: 10, Y: 50}, {X: 150, Y: 50}, {X: 150, Y: 80}, {X: 60, Y: 80},
	}
	parts := ClipRing(ring, b)
	require.Len(t, parts, 2)
	assert.Equal(t, geo.NewPoint(10, 50), parts[0][0])
	assert.Equal(t, geo.NewPoint(100, 50), parts[0][1])
	assert.Equal(t, geo.NewPoint(100, 80), parts[1][0])
	assert.Equal(t, geo.NewPoint(60, 80), parts[1][1])
}

func TestClipPolygonCutsCorner(t *testing.T) {
	b := geo.NewBounds(geo.NewPoint(0, 0), geo.NewPoint(100, 100))
	tri := []geo.Point{{X: 50, Y: 50}, {X: 200, Y: 50}, {X: 50, Y: 200}}
	clipped := ClipPolygon(tri, b)
	require.NotEmpty(t, clipped)
	for _, p := range clipped {
		assert.True(t, b.ContainsPoint(p), "clipped vertex %v outside bounds", p)
	}
}

func TestClipPolygonEntirelyOutside(t *testing.T) {
	b := geo.NewBounds(geo.NewPoint(0, 0), geo.NewPoint(100, 100))
	sq := []geo.Point{{X: 200, Y: 200}, {X: 300, Y: 200}, {X: 300, Y: 300}, {X: 200, Y: 300}}
	assert.Empty(t, ClipPolygon(sq, b))
}

func TestSimplifyDropsCollinearPoints(t *testing.T) {
	pts := []geo.Point{
		{X: 0, Y: 0}, {X: 10, Y: 0.01}, {X: 20, Y: 0}, {X: 30, Y: -0.01}, {X: 40, Y: 0},
	}
	out := Simplify(pts, 1)
	assert.Equal(t, []geo.Point{{X: 0, Y: 0}, {X: 40, Y: 0}}, out)
}

func TestSimplifyKeepsSharpCorners(t *testing.T) {
	pts := []geo.Point{{X: 0, Y: 0}, {X: 50, Y: 40}, {X: 100, Y: 0}}
	out := Simplify(pts, 1)
	assert.Len(t, out, 3)
}

func TestSimplifyZeroToleranceIsIdentity(t *testing.T) {
	pts := []geo.Point{{X: 0, Y: 0}, {X: 1, Y: 1}, {X: 2, Y: 0}}
	assert.Equal(t, pts, Simplify(pts, 0))
}

func TestPolylineBounds(t *testing.T) {
	p := NewPolyline([]geo.LatLng{
		geo.NewLatLng(40, -3),
		geo.NewLatLng(48, 2),
		geo.NewLatLng(52, 13),
	}, Style{})

	b := p.GetBounds()
	assert.InDelta(t, 40, b.South(), 1e-12)
	assert.InDelta(t, 52, b.North(), 1e-12)
	assert.InDelta(t, -3, b.West(), 1e-12)
	assert.InDelta(t, 13, b.East(), 1e-12)
}

func TestPolylineRenderClipsToViewport(t *testing.T) {
	v := newStubView(3)
	p := NewPolyline([]geo.LatLng{
		geo.NewLatLng(0, -170),
		geo.NewLatLng(0, 170),
	}, Style{})
	p.Attach(v)
	defer p.Detach()

	// a small viewport centered on (0, 0), which the line crosses
	world := v.crs.Scale(3)
	clip := geo.NewBounds(geo.NewPoint(world/2-100, world/2-100), geo.NewPoint(world/2+100, world/2+100))
	parts := p.Render(clip)
	require.Len(t, parts, 1)
	for _, pt := range parts[0] {
		assert.True(t, clip.Pad(clipPad).ContainsPoint(pt))
	}
}

func TestPolylineReprojectsOnViewReset(t *testing.T) {
	v := newStubView(2)
	p := NewPolyline([]geo.LatLng{geo.NewLatLng(0, 0), geo.NewLatLng(10, 10)}, Style{})
	p.Attach(v)
	defer p.Detach()

	before := p.rings[0][0]
	v.zoom = 3
	v.ev.Fire("viewreset", nil)
	after := p.rings[0][0]

	assert.InDelta(t, before.X*2, after.X, 1e-9, "one zoom level doubles pixel coordinates")
	assert.InDelta(t, 3, p.projZoom, 1e-12)
}

func TestPolylineRenderRescalesDuringZoom(t *testing.T) {
	v := newStubView(2)
	p := NewPolyline([]geo.LatLng{geo.NewLatLng(0, 0), geo.NewLatLng(0, 45)}, Style{NoClip: true})
	p.Attach(v)
	defer p.Detach()

	at2 := p.Render(geo.Bounds{})
	v.zoom = 3 // mid-animation, no zoomend yet
	at3 := p.Render(geo.Bounds{})

	require.Len(t, at2, 1)
	require.Len(t, at3, 1)
	assert.InDelta(t, at2[0][1].X*2, at3[0][1].X, 1e-9)
}

func TestPolylineClosestPoint(t *testing.T) {
	v := &stubView{crs: crs.Simple, zoom: 0}
	p := NewPolyline([]geo.LatLng{geo.NewLatLng(0, 0), geo.NewLatLng(0, 100)}, Style{})
	p.Attach(v)
	defer p.Detach()

	// Simple CRS maps lng to x directly at zoom 0
	got, ok := p.ClosestPoint(geo.NewPoint(50, 30))
	require.True(t, ok)
	assert.InDelta(t, 50, got.X, 1e-9)
	assert.InDelta(t, 0, got.Y, 1e-9)
}

func TestPolygonDropsExplicitClosingVertex(t *testing.T) {
	pg := NewPolygon([]geo.LatLng{
		geo.NewLatLng(0, 0), geo.NewLatLng(0, 10), geo.NewLatLng(10, 10), geo.NewLatLng(0, 0),
	}, Style{})
	assert.Len(t, pg.latlngs[0], 3)
}

func TestPolygonContainsPoint(t *testing.T) {
	v := &stubView{crs: crs.Simple, zoom: 0}
	pg := NewPolygon([]geo.LatLng{
		geo.NewLatLng(0, 0), geo.NewLatLng(0, 100), geo.NewLatLng(100, 100), geo.NewLatLng(100, 0),
	}, Style{})
	pg.Attach(v)
	defer pg.Detach()

	inside := v.Project(geo.NewLatLng(50, 50), 0)
	outside := v.Project(geo.NewLatLng(150, 50), 0)
	assert.True(t, pg.ContainsPoint(inside))
	assert.False(t, pg.ContainsPoint(outside))
}

func TestPolygonRenderClipsClosed(t *testing.T) {
	v := &stubView{crs: crs.Simple, zoom: 0}
	pg := NewPolygon([]geo.LatLng{
		geo.NewLatLng(-50, -50), geo.NewLatLng(-50, 50), geo.NewLatLng(50, 50), geo.NewLatLng(50, -50),
	}, Style{})
	pg.Attach(v)
	defer pg.Detach()

	clip := geo.NewBounds(geo.NewPoint(0, 0), geo.NewPoint(200, 200))
	rings := pg.Render(clip)
	require.Len(t, rings, 1)
	assert.GreaterOrEqual(t, len(rings[0]), 3)
}

func TestCircleRadiusScalesWithZoom(t *testing.T) {
	v := newStubView(4)
	c := NewCircle(geo.NewLatLng(45, 7), 10000, Style{})
	c.Attach(v)
	defer c.Detach()

	_, r4, _ := c.Render(v.crs.PixelBounds(4))
	v.zoom = 5
	v.ev.Fire("zoomend", nil)
	_, r5, _ := c.Render(v.crs.PixelBounds(5))

	assert.InDelta(t, r4*2, r5, 1e-6)
	assert.Greater(t, r4, 0.0)
}

func TestCircleVisibility(t *testing.T) {
	v := newStubView(4)
	c := NewCircle(geo.NewLatLng(0, 0), 10000, Style{})
	c.Attach(v)
	defer c.Detach()

	center, _, visible := c.Render(v.crs.PixelBounds(4))
	assert.True(t, visible)
	world := v.crs.Scale(4)
	assert.InDelta(t, world/2, center.X, 1e-6)

	farAway := geo.NewBounds(geo.NewPoint(0, 0), geo.NewPoint(10, 10))
	_, _, visible = c.Render(farAway)
	assert.False(t, visible)
}

func TestStyleDefaults(t *testing.T) {
	p := NewPolyline(nil, Style{})
	s := p.Style()
	assert.True(t, s.Stroke)
	assert.False(t, s.Fill)
	assert.Equal(t, DefaultColor, s.Color)
	assert.Equal(t, 3.0, s.Weight)
	assert.Equal(t, 1.0, s.SmoothFactor)

	pg := NewPolygon(nil, Style{})
	assert.True(t, pg.Style().Fill)
	assert.Equal(t, DefaultColor, pg.Style().FillColor)
}
