package api

import (
	"net/http"
	"strconv"
	"sync"
	"time"

	"github.com/greensward-data/turf.report/internal/boundary"
	"github.com/greensward-data/turf.report/internal/config"
	"github.com/greensward-data/turf.report/internal/db"
	"github.com/greensward-data/turf.report/internal/geo"
	"github.com/greensward-data/turf.report/internal/monitoring"
	"github.com/greensward-data/turf.report/internal/segment"
	"github.com/greensward-data/turf.report/internal/timeutil"
)

// ANSI escape codes for request logging
const colorCyan = "\033[36m"
const colorReset = "\033[0m"
const colorYellow = "\033[33m"
const colorBoldGreen = "\033[1;32m"
const colorBoldRed = "\033[1;31m"

// maxFixAge is how long a GPS fix stays usable for detection events. A
// detection arriving later than this after the last fix simply collects no
// point; GPS updates normally arrive every second.
const maxFixAge = 10 * time.Second

// Server wires the tracking session controller, the detector, and the
// survey store to the HTTP API.
type Server struct {
	controller *boundary.Controller
	database   *db.DB
	clock      timeutil.Clock

	mu       sync.Mutex
	cfg      *config.TuningConfig
	detector segment.Detector
	lastFix  geo.Point
	fixAt    time.Time
	hasFix   bool
}

// NewServer creates a Server around the given controller, store, and
// effective tuning configuration. A nil clock falls back to the real clock.
func NewServer(controller *boundary.Controller, database *db.DB, cfg *config.TuningConfig, clock timeutil.Clock) *Server {
	if cfg == nil {
		cfg = config.EmptyTuningConfig()
	}
	if clock == nil {
		clock = timeutil.RealClock{}
	}
	return &Server{
		controller: controller,
		database:   database,
		clock:      clock,
		cfg:        cfg,
		detector: segment.Detector{
			TargetLabel:     cfg.GetTargetLabel(),
			WindowSize:      cfg.GetWindowSize(),
			MinTargetPixels: cfg.GetMinTargetPixels(),
		},
	}
}

// RecordFix stores the most recent GPS fix. Invalid fixes are dropped with a
// log line; a position failure never aborts a session.
func (s *Server) RecordFix(p geo.Point) {
	if err := p.Validate(); err != nil {
		monitoring.Logf("ignoring invalid fix %s: %v", p, err)
		return
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.lastFix = p
	s.fixAt = s.clock.Now()
	s.hasFix = true
}

// currentFix returns the last fix if one arrived recently enough.
func (s *Server) currentFix() (geo.Point, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if !s.hasFix || s.clock.Since(s.fixAt) > maxFixAge {
		return geo.Point{}, false
	}
	return s.lastFix, true
}

type loggingResponseWriter struct {
	http.ResponseWriter
	statusCode int
}

func (lrw *loggingResponseWriter) WriteHeader(code int) {
	lrw.statusCode = code
	lrw.ResponseWriter.WriteHeader(code)
}

func (lrw *loggingResponseWriter) Flush() {
	if flusher, ok := lrw.ResponseWriter.(http.Flusher); ok {
		flusher.Flush()
	}
}

func statusCodeColor(statusCode int) string {
	switch {
	case statusCode >= 200 && statusCode < 300:
		return colorBoldGreen + strconv.Itoa(statusCode) + colorReset
	case statusCode >= 300 && statusCode < 400:
		return colorYellow + strconv.Itoa(statusCode) + colorReset
	case statusCode >= 400:
		return colorBoldRed + strconv.Itoa(statusCode) + colorReset
	default:
		return strconv.Itoa(statusCode)
	}
}

// LoggingMiddleware logs method, path, query, status, and duration
func LoggingMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		lrw := &loggingResponseWriter{w, http.StatusOK}
		next.ServeHTTP(lrw, r)
		monitoring.Logf(
			"[%s] %s %s%s%s %vms",
			statusCodeColor(lrw.statusCode), r.Method,
			colorCyan, r.RequestURI, colorReset,
			float64(time.Since(start).Nanoseconds())/1e6,
		)
	})
}

// ServeMux returns the API routing table.
func (s *Server) ServeMux() *http.ServeMux {
	mux := http.NewServeMux()
	mux.HandleFunc("/api/session/start", s.startSession)
	mux.HandleFunc("/api/session/stop", s.stopSession)
	mux.HandleFunc("/api/session", s.showSession)
	mux.HandleFunc("/api/position", s.ingestPosition)
	mux.HandleFunc("/api/frame", s.ingestFrame)
	mux.HandleFunc("/api/surveys", s.handleSurveys)
	mux.HandleFunc("/api/params", s.handleParams)
	mux.HandleFunc("/api/charts/surveys", s.surveysChart)
	mux.HandleFunc("/api/charts/trace", s.traceChart)
	return mux
}
