package api

import (
	"errors"
	"fmt"
	"net/http"

	"github.com/go-echarts/go-echarts/v2/charts"
	"github.com/go-echarts/go-echarts/v2/opts"

	"github.com/greensward-data/turf.report/internal/db"
	"github.com/greensward-data/turf.report/internal/geo"
	"github.com/greensward-data/turf.report/internal/httputil"
	"github.com/greensward-data/turf.report/internal/monitoring"
	"github.com/greensward-data/turf.report/internal/units"
)

// surveysChart renders a quick HTML bar chart of stored survey areas using
// go-echarts. This is a review aid, not part of the JSON API proper.
func (s *Server) surveysChart(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		httputil.MethodNotAllowed(w)
		return
	}
	if s.database == nil {
		httputil.InternalServerError(w, "survey store not configured")
		return
	}

	targetUnits, err := s.resolveUnits(r)
	if err != nil {
		httputil.BadRequest(w, err.Error())
		return
	}

	surveys, err := s.database.ListSurveys(0)
	if err != nil {
		httputil.InternalServerError(w, err.Error())
		return
	}
	if len(surveys) == 0 {
		httputil.NotFound(w, "no surveys recorded yet")
		return
	}

	// ListSurveys returns newest first; chart oldest to newest.
	labels := make([]string, 0, len(surveys))
	values := make([]opts.BarData, 0, len(surveys))
	for i := len(surveys) - 1; i >= 0; i-- {
		survey := surveys[i]
		labels = append(labels, survey.StoppedAt.Format("Jan 2 15:04"))
		values = append(values, opts.BarData{
			Value: units.ConvertArea(survey.AreaSqMeters, targetUnits),
		})
	}

	bar := charts.NewBar()
	bar.SetGlobalOptions(
		charts.WithTitleOpts(opts.Title{
			Title:    "Survey areas",
			Subtitle: fmt.Sprintf("%d surveys, %s", len(surveys), targetUnits),
		}),
		charts.WithTooltipOpts(opts.Tooltip{Show: opts.Bool(true)}),
	)
	bar.SetXAxis(labels).AddSeries("area", values)

	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	if err := bar.Render(w); err != nil {
		monitoring.Logf("failed to render surveys chart: %v", err)
	}
}

// traceChart renders the boundary polygon of the current session (or, with
// ?id=, a stored survey) as a scatter plot in projected meters. The
// projection origin is shifted to the first point so the axes read as local
// offsets rather than absolute planar coordinates.
func (s *Server) traceChart(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		httputil.MethodNotAllowed(w)
		return
	}

	var (
		points []geo.Point
		title  string
	)
	if id := r.URL.Query().Get("id"); id != "" {
		if s.database == nil {
			httputil.InternalServerError(w, "survey store not configured")
			return
		}
		survey, err := s.database.GetSurvey(id)
		if errors.Is(err, db.ErrSurveyNotFound) {
			httputil.NotFound(w, fmt.Sprintf("survey %s not found", id))
			return
		}
		if err != nil {
			httputil.InternalServerError(w, err.Error())
			return
		}
		points = survey.Points
		title = fmt.Sprintf("Survey %s", id)
	} else {
		points = s.controller.TracePoints()
		title = "Current trace"
	}

	if len(points) == 0 {
		httputil.NotFound(w, "no boundary points to plot")
		return
	}

	x0, y0 := geo.Project(points[0])
	data := make([]opts.ScatterData, 0, len(points))
	for _, p := range points {
		x, y := geo.Project(p)
		data = append(data, opts.ScatterData{
			Value: []interface{}{x - x0, y - y0},
		})
	}

	scatter := charts.NewScatter()
	scatter.SetGlobalOptions(
		charts.WithTitleOpts(opts.Title{
			Title:    title,
			Subtitle: fmt.Sprintf("%d points, meters from first point", len(points)),
		}),
		charts.WithXAxisOpts(opts.XAxis{Name: "east (m)", Type: "value"}),
		charts.WithYAxisOpts(opts.YAxis{Name: "north (m)", Type: "value"}),
	)
	scatter.AddSeries("boundary", data)

	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	if err := scatter.Render(w); err != nil {
		monitoring.Logf("failed to render trace chart: %v", err)
	}
}
