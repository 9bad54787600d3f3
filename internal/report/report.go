// Package report renders stored surveys to static PNG plots for offline
// review. Points are projected to local planar meters with the origin at
// the first boundary point, so the axes read as walking distances.
package report

import (
	"fmt"
	"image/color"
	"path/filepath"
	"strings"

	"gonum.org/v1/plot"
	"gonum.org/v1/plot/plotter"
	"gonum.org/v1/plot/vg"

	"github.com/greensward-data/turf.report/internal/boundary"
	"github.com/greensward-data/turf.report/internal/geo"
	"github.com/greensward-data/turf.report/internal/security"
	"github.com/greensward-data/turf.report/internal/units"
)

// projectLocal converts boundary points to planar XYs relative to the first
// point. The polygon is closed by repeating the first vertex.
func projectLocal(points []geo.Point, closed bool) plotter.XYs {
	if len(points) == 0 {
		return nil
	}
	x0, y0 := geo.Project(points[0])
	n := len(points)
	if closed {
		n++
	}
	pts := make(plotter.XYs, 0, n)
	for _, p := range points {
		x, y := geo.Project(p)
		pts = append(pts, plotter.XY{X: x - x0, Y: y - y0})
	}
	if closed {
		pts = append(pts, pts[0])
	}
	return pts
}

// RenderSurvey plots the survey boundary polygon and writes it to outputDir
// as <survey_id>.png. Returns the written file path.
func RenderSurvey(survey *boundary.Survey, targetUnits, outputDir string) (string, error) {
	if survey == nil || len(survey.Points) == 0 {
		return "", fmt.Errorf("survey has no boundary points to plot")
	}

	area := units.ConvertArea(survey.AreaSqMeters, targetUnits)

	p := plot.New()
	p.Title.Text = fmt.Sprintf("Survey %s", shortID(survey.SurveyID))
	p.X.Label.Text = "East (m)"
	p.Y.Label.Text = "North (m)"

	outline, err := plotter.NewLine(projectLocal(survey.Points, true))
	if err != nil {
		return "", fmt.Errorf("build outline: %w", err)
	}
	outline.Width = vg.Points(1.5)
	outline.Color = color.RGBA{R: 34, G: 139, B: 34, A: 255}

	markers, err := plotter.NewScatter(projectLocal(survey.Points, false))
	if err != nil {
		return "", fmt.Errorf("build markers: %w", err)
	}
	markers.Radius = vg.Points(2)
	markers.Color = color.RGBA{R: 25, G: 25, B: 112, A: 255}

	p.Add(outline, markers)
	p.Legend.Add(fmt.Sprintf("%.1f %s, %d points", area, targetUnits, survey.PointCount), outline)
	p.Legend.Top = true
	p.Legend.Left = true

	// Survey IDs come from the database; keep a hostile ID from writing
	// outside the output directory.
	outFile := filepath.Join(outputDir, fmt.Sprintf("%s.png", survey.SurveyID))
	if err := security.ValidatePathWithinDirectory(outFile, outputDir); err != nil {
		return "", fmt.Errorf("unsafe survey id %q: %w", survey.SurveyID, err)
	}
	if err := p.Save(8*vg.Inch, 8*vg.Inch, outFile); err != nil {
		return "", fmt.Errorf("save survey plot: %w", err)
	}
	return outFile, nil
}

// shortID trims a UUID to its first segment for plot titles.
func shortID(id string) string {
	if i := strings.Index(id, "-"); i > 0 {
		return id[:i]
	}
	return id
}
