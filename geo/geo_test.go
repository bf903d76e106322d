package geo

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestPointArithmetic(t *testing.T) {
	p := NewPoint(10, 20)

	assert.Equal(t, Point{X: 15, Y: 25}, p.Add(NewPoint(5, 5)))
	assert.Equal(t, Point{X: 5, Y: 15}, p.Subtract(NewPoint(5, 5)))
	assert.Equal(t, Point{X: 20, Y: 40}, p.MultiplyBy(2))
	assert.Equal(t, Point{X: 5, Y: 10}, p.DivideBy(2))
	assert.Equal(t, Point{X: 20, Y: 60}, p.ScaleBy(NewPoint(2, 3)))
	assert.Equal(t, Point{X: 5, Y: 10}, p.UnscaleBy(NewPoint(2, 2)))

	// arithmetic never mutates the receiver
	assert.Equal(t, Point{X: 10, Y: 20}, p)
}

func TestPointRounding(t *testing.T) {
	p := NewPoint(10.4, -20.6)

	assert.Equal(t, Point{X: 10, Y: -21}, p.Floor())
	assert.Equal(t, Point{X: 11, Y: -20}, p.Ceil())
	assert.Equal(t, Point{X: 10, Y: -21}, p.Round())
}

func TestPointDistanceTo(t *testing.T) {
	assert.Equal(t, 5.0, NewPoint(0, 0).DistanceTo(NewPoint(3, 4)))
}

func TestPointIsFinite(t *testing.T) {
	assert.True(t, NewPoint(1, 2).IsFinite())
	assert.False(t, NewPoint(math.Inf(1), 0).IsFinite())
	assert.False(t, NewPoint(0, math.NaN()).IsFinite())
}

func TestBoundsExtend(t *testing.T) {
	var b Bounds
	assert.False(t, b.IsValid())

	b = b.Extend(NewPoint(5, 10))
	require.True(t, b.IsValid())
	assert.Equal(t, NewPoint(5, 10), b.Min)
	assert.Equal(t, NewPoint(5, 10), b.Max)

	b = b.Extend(NewPoint(-5, 30))
	assert.Equal(t, NewPoint(-5, 10), b.Min)
	assert.Equal(t, NewPoint(5, 30), b.Max)
}

func TestBoundsCenterAndSize(t *testing.T) {
	b := NewBounds(NewPoint(0, 0), NewPoint(100, 50))

	assert.Equal(t, NewPoint(50, 25), b.Center())
	assert.Equal(t, NewPoint(100, 50), b.Size())
	assert.Equal(t, NewPoint(0, 50), b.BottomLeft())
	assert.Equal(t, NewPoint(100, 0), b.TopRight())
}

func TestBoundsContainsIntersects(t *testing.T) {
	outer := NewBounds(NewPoint(0, 0), NewPoint(100, 100))
	inner := NewBounds(NewPoint(20, 20), NewPoint(40, 40))
	touching := NewBounds(NewPoint(100, 0), NewPoint(150, 50))
	apart := NewBounds(NewPoint(200, 200), NewPoint(300, 300))

	assert.True(t, outer.Contains(inner))
	assert.False(t, inner.Contains(outer))
	assert.True(t, outer.ContainsPoint(NewPoint(50, 50)))
	assert.False(t, outer.ContainsPoint(NewPoint(101, 50)))

	assert.True(t, outer.Intersects(touching))
	assert.False(t, outer.Overlaps(touching))
	assert.False(t, outer.Intersects(apart))
}

func TestBoundsPad(t *testing.T) {
	b := NewBounds(NewPoint(0, 0), NewPoint(100, 100)).Pad(0.1)

	assert.Equal(t, NewPoint(-10, -10), b.Min)
	assert.Equal(t, NewPoint(110, 110), b.Max)
}

func TestLatLngEquals(t *testing.T) {
	a := NewLatLng(10, 20)

	assert.True(t, a.Equals(NewLatLng(10, 20)))
	assert.True(t, a.Equals(NewLatLng(10+1e-10, 20)))
	assert.False(t, a.Equals(NewLatLng(10.001, 20)))
}

func TestLatLngDistanceTo(t *testing.T) {
	// LHR to JFK is roughly 5570 km
	lhr := NewLatLng(51.4700, -0.4543)
	jfk := NewLatLng(40.6413, -73.7781)

	d := lhr.DistanceTo(jfk)
	assert.InDelta(t, 5540000, d, 50000)

	assert.Equal(t, 0.0, lhr.DistanceTo(lhr))
}

func TestLatLngBoundsExtend(t *testing.T) {
	var b LatLngBounds
	assert.False(t, b.IsValid())

	b = b.Extend(NewLatLng(10, 20))
	b = b.Extend(NewLatLng(-5, 40))

	require.True(t, b.IsValid())
	assert.Equal(t, -5.0, b.South())
	assert.Equal(t, 10.0, b.North())
	assert.Equal(t, 20.0, b.West())
	assert.Equal(t, 40.0, b.East())
	assert.Equal(t, NewLatLng(2.5, 30), b.Center())
}

func TestLatLngBoundsContains(t *testing.T) {
	b := NewLatLngBounds(NewLatLng(-10, -10), NewLatLng(10, 10))

	assert.True(t, b.ContainsLatLng(NewLatLng(0, 0)))
	assert.True(t, b.ContainsLatLng(NewLatLng(10, 10)))
	assert.False(t, b.ContainsLatLng(NewLatLng(11, 0)))

	inner := NewLatLngBounds(NewLatLng(-5, -5), NewLatLng(5, 5))
	assert.True(t, b.Contains(inner))
	assert.True(t, b.Intersects(inner))
	assert.False(t, inner.Contains(b))
}

func TestLatLngBoundsPad(t *testing.T) {
	b := NewLatLngBounds(NewLatLng(0, 0), NewLatLng(10, 10)).Pad(0.5)

	assert.Equal(t, -5.0, b.South())
	assert.Equal(t, 15.0, b.North())
}
