package boundary

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/greensward-data/turf.report/internal/geo"
)

// metersNorth returns p shifted north by the given number of meters.
func metersNorth(p geo.Point, m float64) geo.Point {
	return geo.Point{Lat: p.Lat + m/geo.EarthRadiusMeters*180/math.Pi, Lon: p.Lon}
}

func TestOfferFirstPointAlwaysKept(t *testing.T) {
	c := NewCollector()

	tests := []struct {
		name  string
		point geo.Point
	}{
		{"origin", geo.Point{Lat: 0, Lon: 0}},
		{"mid latitude", geo.Point{Lat: 47.6, Lon: -122.3}},
		{"extreme", geo.Point{Lat: -89.9, Lon: 179.9}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			trace := NewTrace()
			assert.True(t, c.Offer(trace, tt.point))
			assert.Equal(t, 1, trace.Len())
		})
	}
}

func TestOfferRejectsWithinMinSpacing(t *testing.T) {
	c := NewCollector()
	trace := NewTrace()
	start := geo.Point{Lat: 47.6, Lon: -122.3}

	require.True(t, c.Offer(trace, start))

	// A point 1m away is inside the 2m default spacing: rejected, no mutation.
	near := metersNorth(start, 1)
	assert.False(t, c.Offer(trace, near))
	assert.Equal(t, 1, trace.Len())
	last, ok := trace.Last()
	require.True(t, ok)
	assert.Equal(t, start, last)

	// The identical point is trivially rejected too.
	assert.False(t, c.Offer(trace, start))
	assert.Equal(t, 1, trace.Len())
}

func TestOfferAcceptsBeyondMinSpacing(t *testing.T) {
	c := NewCollector()
	trace := NewTrace()
	start := geo.Point{Lat: 47.6, Lon: -122.3}

	require.True(t, c.Offer(trace, start))

	far := metersNorth(start, 3)
	assert.True(t, c.Offer(trace, far))
	assert.Equal(t, 2, trace.Len())
	last, ok := trace.Last()
	require.True(t, ok)
	assert.Equal(t, far, last)
}

func TestOfferSpacingMeasuredFromLastKeptPoint(t *testing.T) {
	c := NewCollector()
	trace := NewTrace()
	start := geo.Point{Lat: 47.6, Lon: -122.3}
	require.True(t, c.Offer(trace, start))

	// Each step is 1.5m from the start; rejected points do not move the
	// reference, so repeated sub-threshold offers never accumulate.
	step := metersNorth(start, 1.5)
	for i := 0; i < 5; i++ {
		assert.False(t, c.Offer(trace, step))
	}
	assert.Equal(t, 1, trace.Len())

	// 2.5m from start clears the threshold.
	assert.True(t, c.Offer(trace, metersNorth(start, 2.5)))
	assert.Equal(t, 2, trace.Len())
}

func TestCollectorZeroSpacingDisablesCheck(t *testing.T) {
	c := Collector{MinSpacing: 0}
	trace := NewTrace()
	p := geo.Point{Lat: 47.6, Lon: -122.3}

	assert.True(t, c.Offer(trace, p))
	assert.True(t, c.Offer(trace, p))
	assert.Equal(t, 2, trace.Len())
}

func TestTraceReset(t *testing.T) {
	c := NewCollector()
	trace := NewTrace()
	require.True(t, c.Offer(trace, geo.Point{Lat: 47.6, Lon: -122.3}))

	trace.Reset()
	assert.Zero(t, trace.Len())
	_, ok := trace.Last()
	assert.False(t, ok)
}

func TestTracePointsIsACopy(t *testing.T) {
	c := NewCollector()
	trace := NewTrace()
	start := geo.Point{Lat: 47.6, Lon: -122.3}
	require.True(t, c.Offer(trace, start))

	snapshot := trace.Points()
	snapshot[0] = geo.Point{Lat: 0, Lon: 0}

	last, ok := trace.Last()
	require.True(t, ok)
	assert.Equal(t, start, last, "mutating the snapshot must not touch the trace")
}
