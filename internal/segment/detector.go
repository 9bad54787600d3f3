// Package segment derives the per-frame detection signal from the output of
// an external semantic segmentation model. The model itself is a collaborator
// outside this process; we only ever see its per-pixel label buffer and
// reduce it to a single boolean per frame: is the target surface present at
// the frame center.
package segment

import (
	"fmt"
)

// Default detection tunables. Empirically chosen for the reference 21-class
// segmentation model; treat as configuration, not as algorithmic constants.
const (
	DefaultTargetLabel     = 21 // grass
	DefaultWindowSize      = 40
	DefaultMinTargetPixels = 200
)

// Detector reduces a label buffer to a detection decision.
type Detector struct {
	// TargetLabel is the class value denoting the target surface.
	TargetLabel int
	// WindowSize is the side length in pixels of the square window centered
	// on the frame within which target pixels are counted.
	WindowSize int
	// MinTargetPixels is the count of target pixels inside the window at or
	// above which the frame counts as a detection.
	MinTargetPixels int
}

// NewDetector returns a Detector with the default tunables.
func NewDetector() Detector {
	return Detector{
		TargetLabel:     DefaultTargetLabel,
		WindowSize:      DefaultWindowSize,
		MinTargetPixels: DefaultMinTargetPixels,
	}
}

// Detect reports whether the target surface is present at the center of a
// frame. labels is a row-major width×height per-pixel class buffer. A
// malformed buffer (empty, or size not matching width×height) is an error;
// the caller should skip the frame and keep the loop running.
func (d Detector) Detect(labels []int, width, height int) (bool, error) {
	if width <= 0 || height <= 0 {
		return false, fmt.Errorf("invalid frame dimensions %dx%d", width, height)
	}
	if len(labels) == 0 {
		return false, fmt.Errorf("empty label buffer for %dx%d frame", width, height)
	}
	if len(labels) != width*height {
		return false, fmt.Errorf("label buffer size %d does not match %dx%d frame", len(labels), width, height)
	}

	window := d.WindowSize
	if window <= 0 {
		window = DefaultWindowSize
	}

	// Clamp the centered window to the frame bounds so small frames still
	// produce a sensible count.
	x0 := (width - window) / 2
	x1 := x0 + window
	if x0 < 0 {
		x0, x1 = 0, width
	}
	y0 := (height - window) / 2
	y1 := y0 + window
	if y0 < 0 {
		y0, y1 = 0, height
	}

	count := 0
	for y := y0; y < y1; y++ {
		row := y * width
		for x := x0; x < x1; x++ {
			if labels[row+x] == d.TargetLabel {
				count++
			}
		}
	}
	return count >= d.MinTargetPixels, nil
}
