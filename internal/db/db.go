// Package db persists completed surveys to SQLite. The live boundary trace
// is never written here; only the result of a stopped session is stored.
package db

import (
	"database/sql"
	"errors"
	"fmt"
	"net/http"
	"os"
	"time"

	"github.com/google/uuid"
	"github.com/tailscale/tailsql/server/tailsql"
	_ "modernc.org/sqlite"
	"tailscale.com/tsweb"

	"github.com/greensward-data/turf.report/internal/boundary"
	"github.com/greensward-data/turf.report/internal/geo"
	"github.com/greensward-data/turf.report/internal/monitoring"
)

// ErrSurveyNotFound is returned when a survey lookup matches nothing.
var ErrSurveyNotFound = errors.New("survey not found")

type DB struct {
	*sql.DB
	path string
}

// Open opens (creating if needed) the survey database at path. The schema is
// managed by migrations; call MigrateUp before first use.
func Open(path string) (*DB, error) {
	sqlDB, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, err
	}

	// modernc sqlite allows one writer; serialize access rather than
	// surfacing SQLITE_BUSY to callers.
	sqlDB.SetMaxOpenConns(1)

	if _, err := sqlDB.Exec(`PRAGMA foreign_keys = ON;`); err != nil {
		sqlDB.Close()
		return nil, fmt.Errorf("failed to enable foreign keys: %w", err)
	}

	return &DB{DB: sqlDB, path: path}, nil
}

// InsertSurvey stores a completed survey and its boundary points. A missing
// SurveyID is filled with a fresh UUID.
func (db *DB) InsertSurvey(s *boundary.Survey) error {
	if s.SurveyID == "" {
		s.SurveyID = uuid.New().String()
	}

	tx, err := db.Begin()
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	_, err = tx.Exec(
		`INSERT INTO surveys (
			survey_id, started_at, stopped_at, point_count, area_sq_meters,
			perimeter_meters, mean_spacing_meters, stddev_spacing_meters
		) VALUES (?, ?, ?, ?, ?, ?, ?, ?)`,
		s.SurveyID, s.StartedAt.UnixNano(), s.StoppedAt.UnixNano(), s.PointCount,
		s.AreaSqMeters, s.PerimeterMeters, s.MeanSpacingMeters, s.StddevSpacingMeters,
	)
	if err != nil {
		return fmt.Errorf("failed to insert survey: %w", err)
	}

	for i, p := range s.Points {
		if _, err := tx.Exec(
			`INSERT INTO survey_points (survey_id, seq, lat, lon) VALUES (?, ?, ?, ?)`,
			s.SurveyID, i, p.Lat, p.Lon,
		); err != nil {
			return fmt.Errorf("failed to insert survey point %d: %w", i, err)
		}
	}

	return tx.Commit()
}

// GetSurvey loads one survey including its boundary points in walk order.
func (db *DB) GetSurvey(surveyID string) (*boundary.Survey, error) {
	var (
		s         boundary.Survey
		startedNs int64
		stoppedNs int64
	)
	err := db.QueryRow(
		`SELECT survey_id, started_at, stopped_at, point_count, area_sq_meters,
			perimeter_meters, mean_spacing_meters, stddev_spacing_meters
		FROM surveys WHERE survey_id = ?`, surveyID,
	).Scan(
		&s.SurveyID, &startedNs, &stoppedNs, &s.PointCount, &s.AreaSqMeters,
		&s.PerimeterMeters, &s.MeanSpacingMeters, &s.StddevSpacingMeters,
	)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrSurveyNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to load survey: %w", err)
	}
	s.StartedAt = time.Unix(0, startedNs).UTC()
	s.StoppedAt = time.Unix(0, stoppedNs).UTC()

	rows, err := db.Query(
		`SELECT lat, lon FROM survey_points WHERE survey_id = ? ORDER BY seq`, surveyID)
	if err != nil {
		return nil, fmt.Errorf("failed to load survey points: %w", err)
	}
	defer rows.Close()

	for rows.Next() {
		var p geo.Point
		if err := rows.Scan(&p.Lat, &p.Lon); err != nil {
			return nil, err
		}
		s.Points = append(s.Points, p)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}

	return &s, nil
}

// ListSurveys returns stored surveys without their points, most recent
// first, up to limit (<= 0 means the default of 100).
func (db *DB) ListSurveys(limit int) ([]*boundary.Survey, error) {
	if limit <= 0 {
		limit = 100
	}
	rows, err := db.Query(
		`SELECT survey_id, started_at, stopped_at, point_count, area_sq_meters,
			perimeter_meters, mean_spacing_meters, stddev_spacing_meters
		FROM surveys ORDER BY stopped_at DESC LIMIT ?`, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to list surveys: %w", err)
	}
	defer rows.Close()

	var surveys []*boundary.Survey
	for rows.Next() {
		var (
			s         boundary.Survey
			startedNs int64
			stoppedNs int64
		)
		if err := rows.Scan(
			&s.SurveyID, &startedNs, &stoppedNs, &s.PointCount, &s.AreaSqMeters,
			&s.PerimeterMeters, &s.MeanSpacingMeters, &s.StddevSpacingMeters,
		); err != nil {
			return nil, err
		}
		s.StartedAt = time.Unix(0, startedNs).UTC()
		s.StoppedAt = time.Unix(0, stoppedNs).UTC()
		surveys = append(surveys, &s)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}

	return surveys, nil
}

// DeleteSurvey removes a survey and its points.
func (db *DB) DeleteSurvey(surveyID string) error {
	res, err := db.Exec(`DELETE FROM surveys WHERE survey_id = ?`, surveyID)
	if err != nil {
		return fmt.Errorf("failed to delete survey: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		return ErrSurveyNotFound
	}
	// survey_points rows go with the parent via ON DELETE CASCADE.
	return nil
}

// AttachAdminRoutes mounts debug endpoints on the given mux under /debug/:
// a tailSQL console over the survey database and a VACUUM INTO backup
// download. These routes are for operator debugging only and are not part
// of the public API surface.
func (db *DB) AttachAdminRoutes(mux *http.ServeMux) {
	debug := tsweb.Debugger(mux)

	tsql, err := tailsql.NewServer(tailsql.Options{
		RoutePrefix: "/debug/tailsql/",
	})
	if err != nil {
		monitoring.Logf("failed to create tailsql server: %v", err)
		return
	}
	tsql.SetDB("sqlite://"+db.path, db.DB, &tailsql.DBOptions{
		Label: "Survey DB",
	})
	debug.Handle("tailsql/", "SQL live debugging", tsql.NewMux())

	debug.Handle("backup", "Create and download a backup of the survey database", http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		backupPath := fmt.Sprintf("backup-%d.db", time.Now().Unix())
		if _, err := db.Exec("VACUUM INTO ?", backupPath); err != nil {
			http.Error(w, fmt.Sprintf("Failed to create backup: %v", err), http.StatusInternalServerError)
			return
		}
		defer func() {
			if err := os.Remove(backupPath); err != nil {
				monitoring.Logf("failed to remove backup file: %v", err)
			}
		}()

		w.Header().Set("Content-Disposition", fmt.Sprintf("attachment; filename=%s", backupPath))
		w.Header().Set("Content-Type", "application/octet-stream")
		http.ServeFile(w, r, backupPath)
	}))
}
