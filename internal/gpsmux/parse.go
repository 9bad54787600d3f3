package gpsmux

import (
	"errors"
	"fmt"

	nmea "github.com/adrianmo/go-nmea"

	"github.com/greensward-data/turf.report/internal/geo"
)

// ErrNoFix is returned for well-formed sentences that carry no usable
// position: a void RMC, a GGA with fix quality zero, or a sentence type
// without position data at all.
var ErrNoFix = errors.New("sentence carries no position fix")

// ParseFix extracts a geographic position from a single NMEA 0183 sentence.
// Only RMC and GGA sentences carry positions; everything else (satellite
// info, DOP, course) yields ErrNoFix. A malformed sentence is a parse error.
func ParseFix(line string) (geo.Point, error) {
	s, err := nmea.Parse(line)
	if err != nil {
		return geo.Point{}, fmt.Errorf("failed to parse NMEA sentence: %w", err)
	}

	switch m := s.(type) {
	case nmea.RMC:
		if m.Validity != nmea.ValidRMC {
			return geo.Point{}, fmt.Errorf("%w: void RMC", ErrNoFix)
		}
		return fixPoint(m.Latitude, m.Longitude)
	case nmea.GGA:
		if m.FixQuality == nmea.Invalid {
			return geo.Point{}, fmt.Errorf("%w: GGA fix quality 0", ErrNoFix)
		}
		return fixPoint(m.Latitude, m.Longitude)
	default:
		return geo.Point{}, fmt.Errorf("%w: %s sentence", ErrNoFix, s.DataType())
	}
}

func fixPoint(lat, lon float64) (geo.Point, error) {
	p := geo.Point{Lat: lat, Lon: lon}
	if err := p.Validate(); err != nil {
		return geo.Point{}, err
	}
	return p, nil
}
