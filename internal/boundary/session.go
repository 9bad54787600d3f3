package boundary

import (
	"errors"
	"sync"
	"time"

	"github.com/google/uuid"
	"gonum.org/v1/gonum/stat"

	"github.com/greensward-data/turf.report/internal/geo"
	"github.com/greensward-data/turf.report/internal/monitoring"
	"github.com/greensward-data/turf.report/internal/timeutil"
)

// State is the lifecycle state of a tracking session.
type State string

const (
	StateIdle     State = "idle"     // No session started yet
	StateTracking State = "tracking" // Actively collecting boundary points
	StateStopped  State = "stopped"  // Session finished; terminal until the next start
)

// ErrNotTracking is returned when a state transition or a position is applied
// outside the Tracking state.
var ErrNotTracking = errors.New("session is not tracking")

// ErrAlreadyTracking is returned by Start while a session is in progress.
var ErrAlreadyTracking = errors.New("session already tracking")

// ErrTooFewPoints is returned by Stop when fewer than the minimum number of
// boundary points were collected, so no area can be computed.
var ErrTooFewPoints = errors.New("too few boundary points to compute area")

// Survey is the result of one completed tracking session.
type Survey struct {
	SurveyID        string      `json:"survey_id"`
	StartedAt       time.Time   `json:"started_at"`
	StoppedAt       time.Time   `json:"stopped_at"`
	Points          []geo.Point `json:"points,omitempty"`
	PointCount      int         `json:"point_count"`
	AreaSqMeters    float64     `json:"area_sq_meters"`
	PerimeterMeters float64     `json:"perimeter_meters"`

	// Spacing statistics over consecutive trace legs, useful for judging
	// how evenly the perimeter was walked.
	MeanSpacingMeters   float64 `json:"mean_spacing_meters"`
	StddevSpacingMeters float64 `json:"stddev_spacing_meters"`
}

// ControllerConfig holds the tunables for a session controller.
type ControllerConfig struct {
	// MinSpacingMeters is the Collector spacing threshold.
	MinSpacingMeters float64
	// MinPolygonPoints is the fewest trace points Stop will accept.
	MinPolygonPoints int
}

// DefaultControllerConfig returns the default session tunables.
func DefaultControllerConfig() ControllerConfig {
	return ControllerConfig{
		MinSpacingMeters: DefaultMinSpacingMeters,
		MinPolygonPoints: 3,
	}
}

// Controller owns the state of the current tracking session: the trace, the
// lifecycle state, and a generation counter used to discard position results
// that resolve after the session they belong to has stopped. All methods are
// safe for concurrent use; position ingestion and control commands arrive on
// different goroutines.
type Controller struct {
	mu         sync.Mutex
	state      State
	generation uint64
	trace      *Trace
	collector  Collector
	cfg        ControllerConfig
	clock      timeutil.Clock
	startedAt  time.Time
}

// NewController returns an idle Controller with the given tunables. A nil
// clock falls back to the real clock.
func NewController(cfg ControllerConfig, clock timeutil.Clock) *Controller {
	if cfg.MinPolygonPoints < 3 {
		cfg.MinPolygonPoints = 3
	}
	if clock == nil {
		clock = timeutil.RealClock{}
	}
	return &Controller{
		state:     StateIdle,
		trace:     NewTrace(),
		collector: Collector{MinSpacing: cfg.MinSpacingMeters},
		cfg:       cfg,
		clock:     clock,
	}
}

// State returns the current session state.
func (c *Controller) State() State {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.state
}

// Generation returns the current session generation. Position callbacks
// should capture it at request time and pass it back to OfferPosition.
func (c *Controller) Generation() uint64 {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.generation
}

// PointCount returns the number of points collected in the current session.
func (c *Controller) PointCount() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.trace.Len()
}

// TracePoints returns a snapshot of the current trace.
func (c *Controller) TracePoints() []geo.Point {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.trace.Points()
}

// SetMinSpacing updates the collector spacing threshold for the current and
// subsequent sessions.
func (c *Controller) SetMinSpacing(meters float64) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.collector.MinSpacing = meters
	c.cfg.MinSpacingMeters = meters
}

// MinSpacing returns the active collector spacing threshold.
func (c *Controller) MinSpacing() float64 {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.collector.MinSpacing
}

// Start begins a new tracking session. The trace is cleared and the session
// generation is advanced so that stale position results from any previous
// session are ignored. Returns ErrAlreadyTracking if a session is already in
// progress.
func (c *Controller) Start() (uint64, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.state == StateTracking {
		return c.generation, ErrAlreadyTracking
	}
	c.generation++
	c.trace.Reset()
	c.state = StateTracking
	c.startedAt = c.clock.Now()
	monitoring.Debugf("session %d started", c.generation)
	return c.generation, nil
}

// OfferPosition applies a resolved position fix to the current session. The
// generation must match the value captured when the fix was requested; a
// stale or future generation means the fix belongs to a session that is no
// longer (or not yet) tracking and is dropped. Returns whether the point was
// appended to the trace.
func (c *Controller) OfferPosition(generation uint64, p geo.Point) (bool, error) {
	if err := p.Validate(); err != nil {
		return false, err
	}
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.state != StateTracking {
		return false, ErrNotTracking
	}
	if generation != c.generation {
		monitoring.Debugf("dropping stale position for generation %d (current %d)", generation, c.generation)
		return false, nil
	}
	kept := c.collector.Offer(c.trace, p)
	if kept {
		monitoring.Debugf("collected boundary point %d at %s", c.trace.Len(), p)
	}
	return kept, nil
}

// Stop ends the current tracking session and computes the survey result.
// The session transitions to Stopped regardless of outcome; a trace with
// fewer than MinPolygonPoints yields ErrTooFewPoints and no survey.
func (c *Controller) Stop() (*Survey, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.state != StateTracking {
		return nil, ErrNotTracking
	}
	c.state = StateStopped
	stoppedAt := c.clock.Now()

	points := c.trace.Points()
	if len(points) < c.cfg.MinPolygonPoints {
		return nil, ErrTooFewPoints
	}

	area, err := geo.PolygonArea(points)
	if err != nil {
		return nil, err
	}

	mean, stddev := spacingStats(points)
	survey := &Survey{
		SurveyID:            uuid.New().String(),
		StartedAt:           c.startedAt,
		StoppedAt:           stoppedAt,
		Points:              points,
		PointCount:          len(points),
		AreaSqMeters:        area,
		PerimeterMeters:     geo.Perimeter(points),
		MeanSpacingMeters:   mean,
		StddevSpacingMeters: stddev,
	}
	monitoring.Logf("session %d stopped: %d points, %.1f m^2", c.generation, survey.PointCount, survey.AreaSqMeters)
	return survey, nil
}

// spacingStats returns the mean and standard deviation of the great-circle
// distances between consecutive trace points, excluding the closing leg.
func spacingStats(points []geo.Point) (mean, stddev float64) {
	if len(points) < 2 {
		return 0, 0
	}
	legs := make([]float64, 0, len(points)-1)
	for i := 1; i < len(points); i++ {
		legs = append(legs, geo.Haversine(points[i-1], points[i]))
	}
	mean = stat.Mean(legs, nil)
	if len(legs) > 1 {
		stddev = stat.StdDev(legs, nil)
	}
	return mean, stddev
}
