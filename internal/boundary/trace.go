package boundary

import (
	"github.com/greensward-data/turf.report/internal/geo"
)

// DefaultMinSpacingMeters is the minimum distance between consecutive trace
// points. Fixes closer than this to the previous point are treated as the
// device standing still (or GPS jitter) and rejected. Empirically chosen.
const DefaultMinSpacingMeters = 2.0

// Trace is the ordered sequence of fixes collected during one tracking
// session. Insertion order is significant: it defines the vertex order of
// the boundary polygon as walked. A Trace is created empty at session start,
// appended to while tracking, and read out once the session stops.
type Trace struct {
	points []geo.Point
}

// NewTrace returns an empty trace.
func NewTrace() *Trace {
	return &Trace{}
}

// Len returns the number of points collected so far.
func (t *Trace) Len() int {
	return len(t.points)
}

// Last returns the most recently appended point. The boolean is false when
// the trace is empty.
func (t *Trace) Last() (geo.Point, bool) {
	if len(t.points) == 0 {
		return geo.Point{}, false
	}
	return t.points[len(t.points)-1], true
}

// Points returns a copy of the collected points in insertion order.
func (t *Trace) Points() []geo.Point {
	out := make([]geo.Point, len(t.points))
	copy(out, t.points)
	return out
}

// Reset discards all collected points.
func (t *Trace) Reset() {
	t.points = t.points[:0]
}

func (t *Trace) append(p geo.Point) {
	t.points = append(t.points, p)
}

// Collector decides whether an incoming fix belongs on the trace.
type Collector struct {
	// MinSpacing is the minimum great-circle distance in meters a candidate
	// must be from the last collected point. Zero or negative disables the
	// spacing check entirely.
	MinSpacing float64
}

// NewCollector returns a Collector with the default minimum spacing.
func NewCollector() Collector {
	return Collector{MinSpacing: DefaultMinSpacingMeters}
}

// Offer appends p to the trace if it passes the spacing policy and reports
// whether it was kept. The first point of a session is always kept. Offer
// has no side effects beyond the append; the caller is responsible for
// validating p before offering it.
func (c Collector) Offer(t *Trace, p geo.Point) bool {
	last, ok := t.Last()
	if !ok {
		t.append(p)
		return true
	}
	if c.MinSpacing > 0 && geo.Haversine(last, p) <= c.MinSpacing {
		return false
	}
	t.append(p)
	return true
}
