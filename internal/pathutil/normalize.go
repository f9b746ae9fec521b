package pathutil

import "path/filepath"

// Normalize returns a canonical filesystem path string.
// It removes trailing slashes, collapses "." and "..", and
// preserves relative paths when provided.
func Normalize(path string) string {
	if path == "" {
		return path
	}
	return filepath.Clean(path)
}

// IsDirectChild reports whether path names an entry directly inside base.
// Both paths are cleaned first; no symlinks are resolved.
func IsDirectChild(base, path string) bool {
	base = Normalize(base)
	path = Normalize(path)
	if path == base {
		return false
	}
	return filepath.Dir(path) == base
}
