package segment

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// frame builds a width×height label buffer filled with background, then
// paints n target pixels starting from the center of the frame outward in
// row-major order within the given window.
func frame(width, height, window, n, target int) []int {
	labels := make([]int, width*height)
	x0 := (width - window) / 2
	y0 := (height - window) / 2
	painted := 0
	for y := y0; y < y0+window && painted < n; y++ {
		for x := x0; x < x0+window && painted < n; x++ {
			labels[y*width+x] = target
			painted++
		}
	}
	return labels
}

func TestDetect(t *testing.T) {
	d := NewDetector()

	tests := []struct {
		name         string
		targetPixels int
		want         bool
	}{
		{"no target pixels", 0, false},
		{"just below threshold", 199, false},
		{"at threshold", 200, true},
		{"well above threshold", 1200, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			labels := frame(640, 480, d.WindowSize, tt.targetPixels, d.TargetLabel)
			got, err := d.Detect(labels, 640, 480)
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestDetectIgnoresPixelsOutsideWindow(t *testing.T) {
	d := NewDetector()

	// Fill the whole frame with the target label except the centered window.
	width, height := 640, 480
	labels := make([]int, width*height)
	for i := range labels {
		labels[i] = d.TargetLabel
	}
	x0 := (width - d.WindowSize) / 2
	y0 := (height - d.WindowSize) / 2
	for y := y0; y < y0+d.WindowSize; y++ {
		for x := x0; x < x0+d.WindowSize; x++ {
			labels[y*width+x] = 0
		}
	}

	got, err := d.Detect(labels, width, height)
	require.NoError(t, err)
	assert.False(t, got, "target pixels outside the center window must not count")
}

func TestDetectSmallFrameClampsWindow(t *testing.T) {
	d := Detector{TargetLabel: 21, WindowSize: 40, MinTargetPixels: 4}

	// A 10x10 frame is smaller than the window; the whole frame is counted.
	labels := make([]int, 100)
	for i := 0; i < 4; i++ {
		labels[i] = 21
	}
	got, err := d.Detect(labels, 10, 10)
	require.NoError(t, err)
	assert.True(t, got)
}

func TestDetectMalformedBuffer(t *testing.T) {
	d := NewDetector()

	tests := []struct {
		name   string
		labels []int
		width  int
		height int
	}{
		{"empty buffer", nil, 640, 480},
		{"short buffer", make([]int, 100), 640, 480},
		{"oversized buffer", make([]int, 640*480+1), 640, 480},
		{"zero width", make([]int, 100), 0, 480},
		{"negative height", make([]int, 100), 640, -1},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := d.Detect(tt.labels, tt.width, tt.height)
			assert.Error(t, err)
		})
	}
}

func TestDetectCustomLabel(t *testing.T) {
	d := Detector{TargetLabel: 7, WindowSize: 40, MinTargetPixels: 10}

	// 10 pixels of label 7 in the window trips the detector; label 21 does not.
	labels := frame(640, 480, 40, 10, 7)
	got, err := d.Detect(labels, 640, 480)
	require.NoError(t, err)
	assert.True(t, got)

	labels = frame(640, 480, 40, 10, 21)
	got, err = d.Detect(labels, 640, 480)
	require.NoError(t, err)
	assert.False(t, got)
}
