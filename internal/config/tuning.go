package config

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"

	"github.com/greensward-data/turf.report/internal/units"
)

// DefaultConfigPath is the path to the canonical tuning defaults file.
// This is the single source of truth for all default tuning values.
const DefaultConfigPath = "config/tuning.defaults.json"

// TuningConfig represents the root configuration for tuning parameters.
// The schema matches the /api/params endpoint so the same JSON can be used
// for both startup configuration and runtime updates. All thresholds here
// are empirically chosen and tunable; none of them encode a principled
// model of GPS or segmentation behaviour.
type TuningConfig struct {
	// Boundary collection params
	MinSpacingMeters *float64 `json:"min_spacing_meters,omitempty"`
	MinPolygonPoints *int     `json:"min_polygon_points,omitempty"`

	// Detection params
	TargetLabel     *int `json:"target_label,omitempty"`
	WindowSize      *int `json:"window_size,omitempty"`
	MinTargetPixels *int `json:"min_target_pixels,omitempty"`

	// Display params
	Units *string `json:"units,omitempty"`

	// GPS serial params (optional)
	GPSBaudRate *int `json:"gps_baud_rate,omitempty"`
}

// Helper functions to create pointers
func ptrFloat64(v float64) *float64 { return &v }
func ptrString(v string) *string    { return &v }
func ptrInt(v int) *int             { return &v }

// EmptyTuningConfig returns a TuningConfig with all fields set to nil.
// Use LoadTuningConfig to load actual values from the defaults file.
func EmptyTuningConfig() *TuningConfig {
	return &TuningConfig{}
}

// DefaultTuningConfig returns a TuningConfig with every field populated with
// its default value. Intended for the params endpoint, which reports the
// effective configuration rather than only the overridden fields.
func DefaultTuningConfig() *TuningConfig {
	return &TuningConfig{
		MinSpacingMeters: ptrFloat64(2.0),
		MinPolygonPoints: ptrInt(3),
		TargetLabel:      ptrInt(21),
		WindowSize:       ptrInt(40),
		MinTargetPixels:  ptrInt(200),
		Units:            ptrString(units.SquareMeters),
		GPSBaudRate:      ptrInt(9600),
	}
}

// LoadTuningConfig loads a TuningConfig from a JSON file.
// The file is validated to ensure it has a .json extension and is under the max file size.
// Fields omitted from the JSON file retain their default values, so
// partial configs are safe.
func LoadTuningConfig(path string) (*TuningConfig, error) {
	// Validate the config file path.
	cleanPath := filepath.Clean(path)
	if ext := filepath.Ext(cleanPath); ext != ".json" {
		return nil, fmt.Errorf("config file must have .json extension, got %q", ext)
	}

	// Check file size for safety (max 1MB)
	fileInfo, err := os.Stat(cleanPath)
	if err != nil {
		return nil, fmt.Errorf("failed to stat config file: %w", err)
	}
	const maxFileSize = 1 * 1024 * 1024 // 1MB
	if fileInfo.Size() > maxFileSize {
		return nil, fmt.Errorf("config file too large: %d bytes (max %d)", fileInfo.Size(), maxFileSize)
	}

	data, err := os.ReadFile(cleanPath)
	if err != nil {
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}

	// Parse JSON into empty config. The Get* methods provide fallback
	// defaults for any fields not specified in the JSON.
	cfg := EmptyTuningConfig()
	if err := json.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("failed to parse config JSON: %w", err)
	}

	// Validate the configuration
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}

	return cfg, nil
}

// Validate checks that the configuration values are valid.
func (c *TuningConfig) Validate() error {
	if c.MinSpacingMeters != nil {
		if *c.MinSpacingMeters < 0 {
			return fmt.Errorf("min_spacing_meters must be non-negative, got %f", *c.MinSpacingMeters)
		}
	}

	if c.MinPolygonPoints != nil {
		if *c.MinPolygonPoints < 3 {
			return fmt.Errorf("min_polygon_points must be at least 3, got %d", *c.MinPolygonPoints)
		}
	}

	if c.TargetLabel != nil {
		if *c.TargetLabel < 0 || *c.TargetLabel > 255 {
			return fmt.Errorf("target_label must be between 0 and 255, got %d", *c.TargetLabel)
		}
	}

	if c.WindowSize != nil {
		if *c.WindowSize <= 0 {
			return fmt.Errorf("window_size must be positive, got %d", *c.WindowSize)
		}
	}

	if c.MinTargetPixels != nil {
		if *c.MinTargetPixels < 0 {
			return fmt.Errorf("min_target_pixels must be non-negative, got %d", *c.MinTargetPixels)
		}
		if c.WindowSize != nil && *c.MinTargetPixels > *c.WindowSize**c.WindowSize {
			return fmt.Errorf("min_target_pixels %d cannot exceed window area %d", *c.MinTargetPixels, *c.WindowSize**c.WindowSize)
		}
	}

	if c.Units != nil && *c.Units != "" {
		if !units.IsValid(*c.Units) {
			return fmt.Errorf("invalid units %q: valid values are %s", *c.Units, units.GetValidUnitsString())
		}
	}

	if c.GPSBaudRate != nil {
		if *c.GPSBaudRate <= 0 {
			return fmt.Errorf("gps_baud_rate must be positive, got %d", *c.GPSBaudRate)
		}
	}

	return nil
}

// Merge overlays the non-nil fields of other onto a copy of c. Used by the
// params endpoint to apply partial runtime updates.
func (c *TuningConfig) Merge(other *TuningConfig) *TuningConfig {
	merged := *c
	if other == nil {
		return &merged
	}
	if other.MinSpacingMeters != nil {
		merged.MinSpacingMeters = other.MinSpacingMeters
	}
	if other.MinPolygonPoints != nil {
		merged.MinPolygonPoints = other.MinPolygonPoints
	}
	if other.TargetLabel != nil {
		merged.TargetLabel = other.TargetLabel
	}
	if other.WindowSize != nil {
		merged.WindowSize = other.WindowSize
	}
	if other.MinTargetPixels != nil {
		merged.MinTargetPixels = other.MinTargetPixels
	}
	if other.Units != nil {
		merged.Units = other.Units
	}
	if other.GPSBaudRate != nil {
		merged.GPSBaudRate = other.GPSBaudRate
	}
	return &merged
}

// GetMinSpacingMeters returns the min_spacing_meters value or the default.
func (c *TuningConfig) GetMinSpacingMeters() float64 {
	if c.MinSpacingMeters == nil {
		return 2.0 // default
	}
	return *c.MinSpacingMeters
}

// GetMinPolygonPoints returns the min_polygon_points value or the default.
func (c *TuningConfig) GetMinPolygonPoints() int {
	if c.MinPolygonPoints == nil {
		return 3 // default
	}
	return *c.MinPolygonPoints
}

// GetTargetLabel returns the target_label value or the default.
// Label 21 is grass under the 21-class segmentation scheme the reference
// model was trained with.
func (c *TuningConfig) GetTargetLabel() int {
	if c.TargetLabel == nil {
		return 21
	}
	return *c.TargetLabel
}

// GetWindowSize returns the window_size value or the default.
func (c *TuningConfig) GetWindowSize() int {
	if c.WindowSize == nil {
		return 40
	}
	return *c.WindowSize
}

// GetMinTargetPixels returns the min_target_pixels value or the default.
func (c *TuningConfig) GetMinTargetPixels() int {
	if c.MinTargetPixels == nil {
		return 200
	}
	return *c.MinTargetPixels
}

// GetUnits returns the units value or the default.
func (c *TuningConfig) GetUnits() string {
	if c.Units == nil || *c.Units == "" {
		return units.SquareMeters // default
	}
	return *c.Units
}

// GetGPSBaudRate returns the gps_baud_rate value or the default.
func (c *TuningConfig) GetGPSBaudRate() int {
	if c.GPSBaudRate == nil {
		return 9600 // NMEA default
	}
	return *c.GPSBaudRate
}
