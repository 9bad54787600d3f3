package api

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strconv"

	"github.com/greensward-data/turf.report/internal/boundary"
	"github.com/greensward-data/turf.report/internal/config"
	"github.com/greensward-data/turf.report/internal/db"
	"github.com/greensward-data/turf.report/internal/geo"
	"github.com/greensward-data/turf.report/internal/httputil"
	"github.com/greensward-data/turf.report/internal/monitoring"
	"github.com/greensward-data/turf.report/internal/units"
)

// surveyResponse wraps a survey with unit-converted display fields.
type surveyResponse struct {
	*boundary.Survey
	Units       string  `json:"units"`
	Area        float64 `json:"area"`
	AreaDisplay string  `json:"area_display"`
}

func newSurveyResponse(s *boundary.Survey, targetUnits string) surveyResponse {
	area := units.ConvertArea(s.AreaSqMeters, targetUnits)
	return surveyResponse{
		Survey:      s,
		Units:       targetUnits,
		Area:        area,
		AreaDisplay: fmt.Sprintf("%.1f %s", area, targetUnits),
	}
}

// resolveUnits picks the display units: the units query parameter when
// present (rejecting unknown values), otherwise the configured default.
func (s *Server) resolveUnits(r *http.Request) (string, error) {
	q := r.URL.Query().Get("units")
	if q == "" {
		s.mu.Lock()
		defer s.mu.Unlock()
		return s.cfg.GetUnits(), nil
	}
	if !units.IsValid(q) {
		return "", fmt.Errorf("invalid units %q: valid values are %s", q, units.GetValidUnitsString())
	}
	return q, nil
}

func (s *Server) startSession(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		httputil.MethodNotAllowed(w)
		return
	}

	generation, err := s.controller.Start()
	if errors.Is(err, boundary.ErrAlreadyTracking) {
		httputil.Conflict(w, "session already tracking")
		return
	}
	if err != nil {
		httputil.InternalServerError(w, err.Error())
		return
	}

	httputil.WriteJSONOK(w, map[string]interface{}{
		"state":      boundary.StateTracking,
		"generation": generation,
	})
}

func (s *Server) stopSession(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		httputil.MethodNotAllowed(w)
		return
	}

	survey, err := s.controller.Stop()
	switch {
	case errors.Is(err, boundary.ErrNotTracking):
		httputil.Conflict(w, "no session is tracking")
		return
	case errors.Is(err, boundary.ErrTooFewPoints):
		// Non-fatal: the operator simply didn't walk far enough. The session
		// data is discarded.
		httputil.UnprocessableEntity(w, "too few boundary points to compute an area")
		return
	case err != nil:
		httputil.InternalServerError(w, err.Error())
		return
	}

	if s.database != nil {
		if err := s.database.InsertSurvey(survey); err != nil {
			monitoring.Logf("failed to store survey %s: %v", survey.SurveyID, err)
			httputil.InternalServerError(w, "failed to store survey")
			return
		}
	}

	targetUnits, err := s.resolveUnits(r)
	if err != nil {
		httputil.BadRequest(w, err.Error())
		return
	}
	httputil.WriteJSONOK(w, newSurveyResponse(survey, targetUnits))
}

func (s *Server) showSession(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		httputil.MethodNotAllowed(w)
		return
	}

	httputil.WriteJSONOK(w, map[string]interface{}{
		"state":       s.controller.State(),
		"generation":  s.controller.Generation(),
		"point_count": s.controller.PointCount(),
	})
}

// positionRequest is a candidate fix from a position source (typically the
// browser's geolocation callback). Generation is optional; when present it
// must match the session generation the fix was requested under, so results
// that resolve after a session stop are dropped rather than applied.
type positionRequest struct {
	Lat        float64 `json:"lat"`
	Lon        float64 `json:"lon"`
	Generation *uint64 `json:"generation,omitempty"`
}

func (s *Server) ingestPosition(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		httputil.MethodNotAllowed(w)
		return
	}

	var req positionRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		httputil.BadRequest(w, fmt.Sprintf("failed to decode position: %v", err))
		return
	}

	p := geo.Point{Lat: req.Lat, Lon: req.Lon}
	if err := p.Validate(); err != nil {
		httputil.BadRequest(w, err.Error())
		return
	}

	generation := s.controller.Generation()
	if req.Generation != nil {
		generation = *req.Generation
	}

	kept, err := s.controller.OfferPosition(generation, p)
	if errors.Is(err, boundary.ErrNotTracking) {
		httputil.Conflict(w, "no session is tracking")
		return
	}
	if err != nil {
		httputil.BadRequest(w, err.Error())
		return
	}

	httputil.WriteJSONOK(w, map[string]interface{}{
		"kept":        kept,
		"point_count": s.controller.PointCount(),
	})
}

// frameRequest carries one frame's segmentation output: a row-major
// width×height per-pixel class buffer.
type frameRequest struct {
	Labels []int `json:"labels"`
	Width  int   `json:"width"`
	Height int   `json:"height"`
}

func (s *Server) ingestFrame(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		httputil.MethodNotAllowed(w)
		return
	}

	var req frameRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		httputil.BadRequest(w, fmt.Sprintf("failed to decode frame: %v", err))
		return
	}

	s.mu.Lock()
	detector := s.detector
	s.mu.Unlock()

	detected, err := detector.Detect(req.Labels, req.Width, req.Height)
	if err != nil {
		// Malformed segmentation output: skip the frame, keep the session.
		monitoring.Debugf("skipping malformed frame: %v", err)
		httputil.BadRequest(w, err.Error())
		return
	}

	resp := map[string]interface{}{
		"detected": detected,
		"kept":     false,
	}

	// On detection, collect the current position while tracking. A missing
	// or stale fix means no point this frame; the loop carries on.
	if detected && s.controller.State() == boundary.StateTracking {
		if fix, ok := s.currentFix(); ok {
			kept, err := s.controller.OfferPosition(s.controller.Generation(), fix)
			if err == nil {
				resp["kept"] = kept
			}
		} else {
			monitoring.Debugf("detection with no usable fix; skipping point")
		}
	}

	resp["point_count"] = s.controller.PointCount()
	httputil.WriteJSONOK(w, resp)
}

func (s *Server) handleSurveys(w http.ResponseWriter, r *http.Request) {
	if s.database == nil {
		httputil.InternalServerError(w, "survey store not configured")
		return
	}

	switch r.Method {
	case http.MethodGet:
		s.listSurveys(w, r)
	case http.MethodDelete:
		s.deleteSurvey(w, r)
	default:
		httputil.MethodNotAllowed(w)
	}
}

func (s *Server) listSurveys(w http.ResponseWriter, r *http.Request) {
	targetUnits, err := s.resolveUnits(r)
	if err != nil {
		httputil.BadRequest(w, err.Error())
		return
	}

	if id := r.URL.Query().Get("id"); id != "" {
		survey, err := s.database.GetSurvey(id)
		if errors.Is(err, db.ErrSurveyNotFound) {
			httputil.NotFound(w, fmt.Sprintf("survey %s not found", id))
			return
		}
		if err != nil {
			httputil.InternalServerError(w, err.Error())
			return
		}
		httputil.WriteJSONOK(w, newSurveyResponse(survey, targetUnits))
		return
	}

	limit := 0
	if l := r.URL.Query().Get("limit"); l != "" {
		limit, err = strconv.Atoi(l)
		if err != nil || limit < 0 {
			httputil.BadRequest(w, fmt.Sprintf("invalid limit %q", l))
			return
		}
	}

	surveys, err := s.database.ListSurveys(limit)
	if err != nil {
		httputil.InternalServerError(w, err.Error())
		return
	}

	resp := make([]surveyResponse, 0, len(surveys))
	for _, survey := range surveys {
		resp = append(resp, newSurveyResponse(survey, targetUnits))
	}
	httputil.WriteJSONOK(w, resp)
}

func (s *Server) deleteSurvey(w http.ResponseWriter, r *http.Request) {
	id := r.URL.Query().Get("id")
	if id == "" {
		httputil.BadRequest(w, "id query parameter is required")
		return
	}

	err := s.database.DeleteSurvey(id)
	if errors.Is(err, db.ErrSurveyNotFound) {
		httputil.NotFound(w, fmt.Sprintf("survey %s not found", id))
		return
	}
	if err != nil {
		httputil.InternalServerError(w, err.Error())
		return
	}
	httputil.WriteJSONOK(w, map[string]string{"deleted": id})
}

// handleParams exposes the effective tuning configuration for inspection
// (GET) and partial runtime updates (PUT). Updates are merged over the
// current config, validated as a whole, and applied to the live controller
// and detector.
func (s *Server) handleParams(w http.ResponseWriter, r *http.Request) {
	switch r.Method {
	case http.MethodGet:
		s.mu.Lock()
		effective := config.DefaultTuningConfig().Merge(s.cfg)
		s.mu.Unlock()
		httputil.WriteJSONOK(w, effective)

	case http.MethodPut, http.MethodPost:
		update := config.EmptyTuningConfig()
		if err := json.NewDecoder(r.Body).Decode(update); err != nil {
			httputil.BadRequest(w, fmt.Sprintf("failed to decode params: %v", err))
			return
		}

		s.mu.Lock()
		merged := s.cfg.Merge(update)
		if err := merged.Validate(); err != nil {
			s.mu.Unlock()
			httputil.BadRequest(w, err.Error())
			return
		}
		s.cfg = merged
		s.detector.TargetLabel = merged.GetTargetLabel()
		s.detector.WindowSize = merged.GetWindowSize()
		s.detector.MinTargetPixels = merged.GetMinTargetPixels()
		s.mu.Unlock()

		s.controller.SetMinSpacing(merged.GetMinSpacingMeters())
		monitoring.Logf("tuning params updated")

		httputil.WriteJSONOK(w, config.DefaultTuningConfig().Merge(merged))

	default:
		httputil.MethodNotAllowed(w)
	}
}
