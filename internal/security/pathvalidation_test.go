package security

import (
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestValidatePathWithinDirectory(t *testing.T) {
	base := t.TempDir()

	tests := []struct {
		name    string
		path    string
		wantErr bool
	}{
		{"file in base", filepath.Join(base, "plot.png"), false},
		{"nested file", filepath.Join(base, "sub", "plot.png"), false},
		{"dot segments resolved inside", filepath.Join(base, "sub", "..", "plot.png"), false},
		{"parent escape", filepath.Join(base, "..", "plot.png"), true},
		{"deep escape", filepath.Join(base, "..", "..", "etc", "passwd"), true},
		{"sibling directory", base + "-other/plot.png", true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := ValidatePathWithinDirectory(tt.path, base)
			if tt.wantErr {
				assert.Error(t, err)
			} else {
				assert.NoError(t, err)
			}
		})
	}
}

func TestSanitizeFilename(t *testing.T) {
	tests := []struct {
		in   string
		want string
	}{
		{"", "unknown"},
		{"survey-01.png", "survey-01.png"},
		{"../../etc/passwd", ".._.._etc_passwd"},
		{"a b\tc", "a_b_c"},
		{"///", "unknown"},
		{"UPPER_lower.123", "UPPER_lower.123"},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, SanitizeFilename(tt.in), "input %q", tt.in)
	}

	long := SanitizeFilename(strings.Repeat("x", 500))
	assert.LessOrEqual(t, len(long), 128)
}
