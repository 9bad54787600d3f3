// Package security holds path safety helpers for code that builds file
// names from identifiers it did not generate itself.
package security

import (
	"fmt"
	"path/filepath"
	"strings"
)

// ValidatePathWithinDirectory rejects paths that resolve outside baseDir.
// The target does not need to exist; baseDir does. Symlinks in baseDir are
// resolved so the comparison uses canonical paths.
func ValidatePathWithinDirectory(path, baseDir string) error {
	absPath, err := filepath.Abs(filepath.Clean(path))
	if err != nil {
		return fmt.Errorf("failed to resolve path: %w", err)
	}

	absBase, err := filepath.Abs(baseDir)
	if err != nil {
		return fmt.Errorf("failed to resolve base directory: %w", err)
	}
	if resolved, err := filepath.EvalSymlinks(absBase); err == nil {
		absBase = resolved
		// The target usually doesn't exist yet; canonicalize it against the
		// resolved base by re-rooting its relative part.
		if rel, err := filepath.Rel(absBase, absPath); err == nil && !strings.HasPrefix(rel, "..") {
			absPath = filepath.Join(absBase, rel)
		}
	}

	rel, err := filepath.Rel(absBase, absPath)
	if err != nil {
		return fmt.Errorf("path is outside %s: %w", baseDir, err)
	}
	if rel == ".." || strings.HasPrefix(rel, ".."+string(filepath.Separator)) || filepath.IsAbs(rel) {
		return fmt.Errorf("path traversal detected: %s escapes %s", path, baseDir)
	}
	return nil
}

// SanitizeFilename replaces characters outside [A-Za-z0-9._-] with
// underscores and caps the length, so arbitrary identifiers can be embedded
// in file names.
func SanitizeFilename(s string) string {
	if s == "" {
		return "unknown"
	}
	const maxLen = 128
	var b strings.Builder
	lastUnderscore := false
	for _, r := range s {
		switch {
		case r >= 'a' && r <= 'z', r >= 'A' && r <= 'Z', r >= '0' && r <= '9', r == '.', r == '_', r == '-':
			b.WriteRune(r)
			lastUnderscore = false
		default:
			if !lastUnderscore {
				b.WriteByte('_')
				lastUnderscore = true
			}
		}
		if b.Len() >= maxLen {
			break
		}
	}
	out := strings.Trim(b.String(), "_")
	if out == "" {
		return "unknown"
	}
	return out
}
