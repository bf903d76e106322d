package mapview

import (
	"math"
	"time"

	"slippymap/geo"
	"slippymap/internal/sched"
)

// flyRho shapes the flight path: higher values zoom out further on long
// flights
const flyRho = 1.42

type animKind int

const (
	animPan animKind = iota
	animZoom
	animFly
)

// animation is the state of one in-flight view animation. A new
// animation (or Stop) replaces m.anim, and frames for the old one see
// the mismatch and die silently.
type animation struct {
	kind     animKind
	handle   sched.Handle
	start    time.Time
	duration time.Duration

	target     geo.LatLng
	targetZoom float64

	// pan
	fromPx, toPx geo.Point

	// zoom and fly
	startCenter geo.LatLng
	startZoom   float64

	// fly profile, precomputed
	fromF, toF geo.Point
	w0, u1, r0 float64
	flyS       float64
}

// Stop cancels any running animation. A canceled animation fires no
// further events; the view stays wherever the last frame left it.
func (m *Map) Stop() {
	m.mu.Lock()
	a := m.anim
	m.anim = nil
	m.mu.Unlock()
	if a != nil {
		m.opts.Scheduler.Cancel(a.handle)
	}
}

// Animating reports whether a view animation is in flight
func (m *Map) Animating() bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.anim != nil
}

// PanBy shifts the view by a pixel offset, animated by default. Unlike
// SetView it does not clamp against MaxBounds; drag helpers apply
// viscosity before calling it.
func (m *Map) PanBy(offset geo.Point, vo *ViewOptions) {
	if offset.Round().Equals(geo.Point{}) {
		m.emitter.Fire(EventMoveEnd, nil)
		return
	}
	m.Stop()

	m.mu.Lock()
	zoom := m.zoom
	fromPx := m.opts.CRS.LatLngToPoint(m.center, zoom)
	toPx := fromPx.Add(offset)
	target := m.opts.CRS.PointToLatLng(toPx, zoom)
	m.mu.Unlock()

	if !vo.animate(true) {
		if vo == nil || !vo.NoMoveStart {
			m.emitter.Fire(EventMoveStart, nil)
		}
		m.mu.Lock()
		fire := m.moveLocked(target, zoom)
		m.mu.Unlock()
		m.fireAll(fire)
		m.emitter.Fire(EventMoveEnd, nil)
		return
	}

	a := &animation{
		kind:       animPan,
		start:      m.opts.Scheduler.Now(),
		duration:   vo.duration(m.opts.PanDuration),
		fromPx:     fromPx,
		toPx:       toPx,
		target:     target,
		targetZoom: zoom,
	}
	m.startAnimation(a, vo == nil || !vo.NoMoveStart, false)
}

// panAnimate runs an animated pan to an already-clamped center at the
// current zoom
func (m *Map) panAnimate(center geo.LatLng, vo *ViewOptions) {
	m.mu.Lock()
	zoom := m.zoom
	fromPx := m.opts.CRS.LatLngToPoint(m.center, zoom)
	m.mu.Unlock()

	a := &animation{
		kind:       animPan,
		start:      m.opts.Scheduler.Now(),
		duration:   vo.duration(m.opts.PanDuration),
		fromPx:     fromPx,
		toPx:       m.opts.CRS.LatLngToPoint(center, zoom),
		target:     center,
		targetZoom: zoom,
	}
	m.startAnimation(a, vo == nil || !vo.NoMoveStart, false)
}

// zoomAnimate runs an animated zoom to an already-clamped view
func (m *Map) zoomAnimate(center geo.LatLng, zoom float64, vo *ViewOptions) {
	m.mu.Lock()
	a := &animation{
		kind:        animZoom,
		start:       m.opts.Scheduler.Now(),
		duration:    vo.duration(m.opts.PanDuration),
		startCenter: m.center,
		startZoom:   m.zoom,
		target:      center,
		targetZoom:  zoom,
	}
	m.mu.Unlock()
	m.startAnimation(a, vo == nil || !vo.NoMoveStart, true)
}

// FlyTo pans and zooms along a curve that zooms out, glides and zooms
// back in, so the flight stays readable even across continents
func (m *Map) FlyTo(center geo.LatLng, zoom float64, vo *ViewOptions) {
	zoom = m.limitZoom(zoom)
	center = m.limitCenter(m.opts.CRS.WrapLatLng(center), zoom)

	if !m.Loaded() || !vo.animate(true) {
		m.SetView(center, zoom, vo)
		return
	}
	m.Stop()

	m.mu.Lock()
	startZoom := m.zoom
	from := m.opts.CRS.LatLngToPoint(m.center, startZoom)
	to := m.opts.CRS.LatLngToPoint(center, startZoom)
	startCenter := m.center
	m.mu.Unlock()

	size := m.Size()
	w0 := math.Max(size.X, size.Y)
	w1 := w0 * m.opts.CRS.Scale(startZoom) / m.opts.CRS.Scale(zoom)
	u1 := to.DistanceTo(from)
	if u1 == 0 {
		u1 = 1
	}

	rho2 := flyRho * flyRho
	r := func(i float64) float64 {
		s1 := w1*w1 - w0*w0
		s2 := rho2 * rho2 * u1 * u1
		b := (s1 + i*s2) / (2 * pick(i, w0, w1) * rho2 * u1)
		return math.Log(math.Sqrt(b*b+1) - b)
	}
	r0 := r(1)
	flyS := (r(-1) - r0) / flyRho

	duration := vo.duration(time.Duration(flyS * 0.8 * float64(time.Second)))
	a := &animation{
		kind:        animFly,
		start:       m.opts.Scheduler.Now(),
		duration:    duration,
		startCenter: startCenter,
		startZoom:   startZoom,
		target:      center,
		targetZoom:  zoom,
		fromF:       from,
		toF:         to,
		w0:          w0,
		u1:          u1,
		r0:          r0,
		flyS:        flyS,
	}
	m.startAnimation(a, vo == nil || !vo.NoMoveStart, true)
}

// pick selects w0 for the outbound branch and w1 for the inbound one
func pick(i, w0, w1 float64) float64 {
	if i > 0 {
		return w0
	}
	return w1
}

// FlyToBounds flies to the view that fits the given bounds. Invalid
// bounds panic, as in FitBounds.
func (m *Map) FlyToBounds(b geo.LatLngBounds, fo *FitOptions) {
	if !b.IsValid() {
		panic("mapview: FlyToBounds called with invalid bounds")
	}
	center, zoom := m.fitTarget(b, fo)
	var vo *ViewOptions
	if fo != nil {
		vo = &ViewOptions{Animate: fo.Animate}
	}
	m.FlyTo(center, zoom, vo)
}

// startAnimation installs a as the running animation, fires the opening
// events and schedules the first frame
func (m *Map) startAnimation(a *animation, moveStart, zoomStart bool) {
	m.mu.Lock()
	m.anim = a
	m.mu.Unlock()

	if zoomStart {
		m.emitter.Fire(EventZoomStart, nil)
	}
	if moveStart {
		m.emitter.Fire(EventMoveStart, nil)
	}
	m.scheduleFrame(a)
}

func (m *Map) scheduleFrame(a *animation) {
	h := m.opts.Scheduler.ScheduleFrame(func(now time.Time) { m.animFrame(a, now) })
	m.mu.Lock()
	if m.anim == a {
		a.handle = h
	} else {
		// canceled between frames
		m.mu.Unlock()
		m.opts.Scheduler.Cancel(h)
		return
	}
	m.mu.Unlock()
}

// animFrame advances one animation step. Frames belonging to a replaced
// animation return without touching the view.
func (m *Map) animFrame(a *animation, now time.Time) {
	m.mu.Lock()
	if m.anim != a {
		m.mu.Unlock()
		return
	}

	t := float64(now.Sub(a.start)) / float64(a.duration)
	done := t >= 1
	if done {
		t = 1
		m.anim = nil
	}

	var center geo.LatLng
	var zoom float64
	if done {
		center, zoom = a.target, a.targetZoom
	} else {
		center, zoom = a.at(m, t)
	}
	fire := m.moveLocked(center, zoom)
	zoomChanged := a.targetZoom != a.startZoom || a.kind == animFly
	if done && a.kind == animPan {
		m.pixelOrigin = m.topLeftLocked().Round()
	}
	m.mu.Unlock()

	m.fireAll(fire)
	if done {
		if a.kind != animPan {
			m.mu.Lock()
			m.pixelOrigin = m.topLeftLocked().Round()
			m.mu.Unlock()
			if zoomChanged {
				m.emitter.Fire(EventZoomEnd, nil)
			}
		}
		m.emitter.Fire(EventMoveEnd, nil)
		return
	}
	m.scheduleFrame(a)
}

// at computes the interpolated view at eased progress t in (0,1)
func (a *animation) at(m *Map, t float64) (geo.LatLng, float64) {
	switch a.kind {
	case animPan:
		e := easeOut(t, m.opts.EaseLinearity)
		cur := a.fromPx.Add(a.toPx.Subtract(a.fromPx).MultiplyBy(e))
		return m.opts.CRS.PointToLatLng(cur, a.targetZoom), a.targetZoom

	case animZoom:
		e := easeOut(t, m.opts.EaseLinearity)
		zoom := a.startZoom + (a.targetZoom-a.startZoom)*e
		fromPx := m.opts.CRS.LatLngToPoint(a.startCenter, zoom)
		toPx := m.opts.CRS.LatLngToPoint(a.target, zoom)
		cur := fromPx.Add(toPx.Subtract(fromPx).MultiplyBy(e))
		return m.opts.CRS.PointToLatLng(cur, zoom), zoom

	default: // animFly
		s := a.flyS * (1 - math.Pow(1-t, 1.5))
		rho2 := flyRho * flyRho
		w := a.w0 * math.Cosh(a.r0) / math.Cosh(a.r0+flyRho*s)
		u := a.w0 * (math.Cosh(a.r0)*math.Tanh(a.r0+flyRho*s) - math.Sinh(a.r0)) / rho2
		cur := a.fromF.Add(a.toF.Subtract(a.fromF).MultiplyBy(u / a.u1))
		zoom := m.opts.CRS.Zoom(a.w0 / w * m.opts.CRS.Scale(a.startZoom))
		return m.opts.CRS.PointToLatLng(cur, a.startZoom), zoom
	}
}

func easeOut(t, linearity float64) float64 {
	power := 1 / math.Max(linearity, 0.2)
	return 1 - math.Pow(1-t, power)
}
