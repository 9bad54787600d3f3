package units

import (
	"math"
	"testing"
)

func TestIsValid(t *testing.T) {
	tests := []struct {
		name     string
		unit     string
		expected bool
	}{
		{"valid sqm", SquareMeters, true},
		{"valid sqft", SquareFeet, true},
		{"valid acre", Acres, true},
		{"valid ha", Hectares, true},
		{"invalid unit", "invalid", false},
		{"empty unit", "", false},
		{"uppercase SQM", "SQM", false}, // Case-sensitive
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			result := IsValid(tt.unit)
			if result != tt.expected {
				t.Errorf("IsValid(%s) = %v, want %v", tt.unit, result, tt.expected)
			}
		})
	}
}

func TestGetValidUnitsString(t *testing.T) {
	result := GetValidUnitsString()
	expected := "sqm, sqft, acre, ha"
	if result != expected {
		t.Errorf("GetValidUnitsString() = %s, want %s", result, expected)
	}
}

func TestConvertArea(t *testing.T) {
	tests := []struct {
		name     string
		areaSqM  float64
		unit     string
		expected float64
	}{
		// Square meters (no conversion)
		{"0 m2 to sqm", 0.0, SquareMeters, 0.0},
		{"100 m2 to sqm", 100.0, SquareMeters, 100.0},

		// Square feet (1 m^2 = 10.7639104 ft^2)
		{"0 m2 to sqft", 0.0, SquareFeet, 0.0},
		{"1 m2 to sqft", 1.0, SquareFeet, 10.7639104},
		{"100 m2 to sqft", 100.0, SquareFeet, 1076.39104},

		// Acres (1 acre = 4046.8564224 m^2)
		{"0 m2 to acre", 0.0, Acres, 0.0},
		{"1 acre worth of m2", 4046.8564224, Acres, 1.0},
		{"half acre", 2023.4282112, Acres, 0.5},

		// Hectares (1 ha = 10000 m^2)
		{"0 m2 to ha", 0.0, Hectares, 0.0},
		{"10000 m2 to ha", 10000.0, Hectares, 1.0},
		{"2500 m2 to ha", 2500.0, Hectares, 0.25},

		// Unknown unit falls back to square meters
		{"unknown unit", 42.0, "bogus", 42.0},
		{"empty unit", 42.0, "", 42.0},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			result := ConvertArea(tt.areaSqM, tt.unit)
			if math.Abs(result-tt.expected) > 1e-6 {
				t.Errorf("ConvertArea(%f, %s) = %f, want %f", tt.areaSqM, tt.unit, result, tt.expected)
			}
		})
	}
}
