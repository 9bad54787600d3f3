package report

import (
	"math"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/greensward-data/turf.report/internal/boundary"
	"github.com/greensward-data/turf.report/internal/geo"
)

func sampleSurvey() *boundary.Survey {
	side := 10.0 / geo.EarthRadiusMeters * 180 / math.Pi
	lonSide := side / math.Cos(47.6*math.Pi/180)
	points := []geo.Point{
		{Lat: 47.6, Lon: -122.3},
		{Lat: 47.6, Lon: -122.3 + lonSide},
		{Lat: 47.6 + side, Lon: -122.3 + lonSide},
		{Lat: 47.6 + side, Lon: -122.3},
	}
	return &boundary.Survey{
		SurveyID:        "0b1c2d3e-0000-4000-8000-000000000000",
		StartedAt:       time.Date(2025, 6, 1, 9, 0, 0, 0, time.UTC),
		StoppedAt:       time.Date(2025, 6, 1, 9, 12, 0, 0, time.UTC),
		Points:          points,
		PointCount:      len(points),
		AreaSqMeters:    100,
		PerimeterMeters: 40,
	}
}

func TestRenderSurvey(t *testing.T) {
	dir := t.TempDir()
	path, err := RenderSurvey(sampleSurvey(), "sqm", dir)
	require.NoError(t, err)
	assert.Equal(t, filepath.Join(dir, "0b1c2d3e-0000-4000-8000-000000000000.png"), path)

	info, err := os.Stat(path)
	require.NoError(t, err)
	assert.Greater(t, info.Size(), int64(0))
}

func TestRenderSurveyNoPoints(t *testing.T) {
	_, err := RenderSurvey(&boundary.Survey{SurveyID: "empty"}, "sqm", t.TempDir())
	assert.Error(t, err)

	_, err = RenderSurvey(nil, "sqm", t.TempDir())
	assert.Error(t, err)
}

func TestProjectLocal(t *testing.T) {
	survey := sampleSurvey()

	open := projectLocal(survey.Points, false)
	require.Len(t, open, 4)
	assert.InDelta(t, 0, open[0].X, 1e-9)
	assert.InDelta(t, 0, open[0].Y, 1e-9)
	assert.InDelta(t, 10, open[2].Y, 0.1)

	closed := projectLocal(survey.Points, true)
	require.Len(t, closed, 5)
	assert.Equal(t, closed[0], closed[4])

	assert.Nil(t, projectLocal(nil, true))
}
