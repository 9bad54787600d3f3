// Package units provides shared constants and conversion for area units
package units

// Unit constants
const (
	SquareMeters = "sqm"
	SquareFeet   = "sqft"
	Acres        = "acre"
	Hectares     = "ha"
)

// ValidUnits contains all valid unit values
var ValidUnits = []string{SquareMeters, SquareFeet, Acres, Hectares}

// IsValid checks if the given unit is in the list of valid units
func IsValid(unit string) bool {
	for _, validUnit := range ValidUnits {
		if unit == validUnit {
			return true
		}
	}
	return false
}

// GetValidUnitsString returns a comma-separated string of valid units for error messages
func GetValidUnitsString() string {
	return "sqm, sqft, acre, ha"
}

// ConvertArea converts an area from square meters to the target units.
// The database stores areas in square meters.
func ConvertArea(areaSqM float64, targetUnits string) float64 {
	switch targetUnits {
	case SquareFeet:
		return areaSqM * 10.7639104 // m^2 to ft^2
	case Acres:
		return areaSqM / 4046.8564224 // m^2 to acres
	case Hectares:
		return areaSqM / 10000 // m^2 to hectares
	case SquareMeters:
		return areaSqM // no conversion needed
	default:
		return areaSqM // default to m^2 if unknown unit
	}
}
