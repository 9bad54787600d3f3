package config

import (
	"os"
	"path/filepath"
	"testing"
)

func TestDefaultTuningConfig(t *testing.T) {
	cfg := DefaultTuningConfig()

	// Defaults are set via pointers
	if cfg.MinSpacingMeters == nil || *cfg.MinSpacingMeters != 2.0 {
		t.Errorf("Expected MinSpacingMeters 2.0, got %v", cfg.MinSpacingMeters)
	}
	if cfg.MinPolygonPoints == nil || *cfg.MinPolygonPoints != 3 {
		t.Errorf("Expected MinPolygonPoints 3, got %v", cfg.MinPolygonPoints)
	}
	if cfg.TargetLabel == nil || *cfg.TargetLabel != 21 {
		t.Errorf("Expected TargetLabel 21, got %v", cfg.TargetLabel)
	}
	if cfg.WindowSize == nil || *cfg.WindowSize != 40 {
		t.Errorf("Expected WindowSize 40, got %v", cfg.WindowSize)
	}
	if cfg.MinTargetPixels == nil || *cfg.MinTargetPixels != 200 {
		t.Errorf("Expected MinTargetPixels 200, got %v", cfg.MinTargetPixels)
	}
	if cfg.Units == nil || *cfg.Units != "sqm" {
		t.Errorf("Expected Units 'sqm', got %v", cfg.Units)
	}

	if err := cfg.Validate(); err != nil {
		t.Errorf("default config should validate, got %v", err)
	}
}

func TestEmptyTuningConfigGetters(t *testing.T) {
	cfg := EmptyTuningConfig()

	// Getters fall back to defaults when fields are nil
	if got := cfg.GetMinSpacingMeters(); got != 2.0 {
		t.Errorf("GetMinSpacingMeters() = %f, want 2.0", got)
	}
	if got := cfg.GetMinPolygonPoints(); got != 3 {
		t.Errorf("GetMinPolygonPoints() = %d, want 3", got)
	}
	if got := cfg.GetTargetLabel(); got != 21 {
		t.Errorf("GetTargetLabel() = %d, want 21", got)
	}
	if got := cfg.GetWindowSize(); got != 40 {
		t.Errorf("GetWindowSize() = %d, want 40", got)
	}
	if got := cfg.GetMinTargetPixels(); got != 200 {
		t.Errorf("GetMinTargetPixels() = %d, want 200", got)
	}
	if got := cfg.GetUnits(); got != "sqm" {
		t.Errorf("GetUnits() = %s, want sqm", got)
	}
	if got := cfg.GetGPSBaudRate(); got != 9600 {
		t.Errorf("GetGPSBaudRate() = %d, want 9600", got)
	}
}

func TestLoadTuningConfig(t *testing.T) {
	dir := t.TempDir()

	t.Run("partial config keeps defaults", func(t *testing.T) {
		path := filepath.Join(dir, "partial.json")
		if err := os.WriteFile(path, []byte(`{"min_spacing_meters": 3.5}`), 0o644); err != nil {
			t.Fatal(err)
		}

		cfg, err := LoadTuningConfig(path)
		if err != nil {
			t.Fatalf("LoadTuningConfig failed: %v", err)
		}
		if got := cfg.GetMinSpacingMeters(); got != 3.5 {
			t.Errorf("GetMinSpacingMeters() = %f, want 3.5", got)
		}
		// Unset fields still default
		if got := cfg.GetWindowSize(); got != 40 {
			t.Errorf("GetWindowSize() = %d, want 40", got)
		}
	})

	t.Run("rejects non-json extension", func(t *testing.T) {
		path := filepath.Join(dir, "config.yaml")
		if err := os.WriteFile(path, []byte(`{}`), 0o644); err != nil {
			t.Fatal(err)
		}
		if _, err := LoadTuningConfig(path); err == nil {
			t.Error("expected error for non-json extension")
		}
	})

	t.Run("rejects missing file", func(t *testing.T) {
		if _, err := LoadTuningConfig(filepath.Join(dir, "absent.json")); err == nil {
			t.Error("expected error for missing file")
		}
	})

	t.Run("rejects malformed json", func(t *testing.T) {
		path := filepath.Join(dir, "broken.json")
		if err := os.WriteFile(path, []byte(`{"min_spacing`), 0o644); err != nil {
			t.Fatal(err)
		}
		if _, err := LoadTuningConfig(path); err == nil {
			t.Error("expected error for malformed json")
		}
	})

	t.Run("rejects invalid values", func(t *testing.T) {
		path := filepath.Join(dir, "invalid.json")
		if err := os.WriteFile(path, []byte(`{"min_spacing_meters": -1}`), 0o644); err != nil {
			t.Fatal(err)
		}
		if _, err := LoadTuningConfig(path); err == nil {
			t.Error("expected error for negative min_spacing_meters")
		}
	})
}

func TestTuningConfigValidate(t *testing.T) {
	tests := []struct {
		name    string
		mutate  func(*TuningConfig)
		wantErr bool
	}{
		{"empty is valid", func(c *TuningConfig) {}, false},
		{"negative spacing", func(c *TuningConfig) { c.MinSpacingMeters = ptrFloat64(-0.5) }, true},
		{"zero spacing ok", func(c *TuningConfig) { c.MinSpacingMeters = ptrFloat64(0) }, false},
		{"min polygon points below 3", func(c *TuningConfig) { c.MinPolygonPoints = ptrInt(2) }, true},
		{"target label out of range", func(c *TuningConfig) { c.TargetLabel = ptrInt(300) }, true},
		{"negative target label", func(c *TuningConfig) { c.TargetLabel = ptrInt(-1) }, true},
		{"zero window size", func(c *TuningConfig) { c.WindowSize = ptrInt(0) }, true},
		{"pixel threshold exceeds window area", func(c *TuningConfig) {
			c.WindowSize = ptrInt(10)
			c.MinTargetPixels = ptrInt(101)
		}, true},
		{"pixel threshold within window area", func(c *TuningConfig) {
			c.WindowSize = ptrInt(10)
			c.MinTargetPixels = ptrInt(100)
		}, false},
		{"bad units", func(c *TuningConfig) { c.Units = ptrString("furlongs") }, true},
		{"good units", func(c *TuningConfig) { c.Units = ptrString("acre") }, false},
		{"bad baud rate", func(c *TuningConfig) { c.GPSBaudRate = ptrInt(-9600) }, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := EmptyTuningConfig()
			tt.mutate(cfg)
			err := cfg.Validate()
			if tt.wantErr && err == nil {
				t.Error("expected validation error, got nil")
			}
			if !tt.wantErr && err != nil {
				t.Errorf("unexpected validation error: %v", err)
			}
		})
	}
}

func TestTuningConfigMerge(t *testing.T) {
	base := DefaultTuningConfig()
	update := &TuningConfig{
		MinSpacingMeters: ptrFloat64(5.0),
		Units:            ptrString("sqft"),
	}

	merged := base.Merge(update)

	if got := merged.GetMinSpacingMeters(); got != 5.0 {
		t.Errorf("merged GetMinSpacingMeters() = %f, want 5.0", got)
	}
	if got := merged.GetUnits(); got != "sqft" {
		t.Errorf("merged GetUnits() = %s, want sqft", got)
	}
	// Untouched fields keep base values
	if got := merged.GetWindowSize(); got != 40 {
		t.Errorf("merged GetWindowSize() = %d, want 40", got)
	}
	// Base is unchanged
	if got := base.GetMinSpacingMeters(); got != 2.0 {
		t.Errorf("base GetMinSpacingMeters() = %f, want 2.0", got)
	}

	t.Run("nil update is a copy", func(t *testing.T) {
		merged := base.Merge(nil)
		if got := merged.GetMinSpacingMeters(); got != 2.0 {
			t.Errorf("GetMinSpacingMeters() = %f, want 2.0", got)
		}
	})
}
