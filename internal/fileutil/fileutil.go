package fileutil

import (
	"fmt"
	"os"
	"path/filepath"
)

// CanonicalPath resolves path against the real filesystem: it is made
// absolute, every symlink along it is followed, and the result is cleaned.
// The path must exist.
func CanonicalPath(path string) (string, error) {
	abs, err := filepath.Abs(path)
	if err != nil {
		return "", fmt.Errorf("absolute path: %w", err)
	}
	resolved, err := filepath.EvalSymlinks(abs)
	if err != nil {
		return "", err
	}
	return filepath.Clean(resolved), nil
}

// SameFile reports whether a and b name the same filesystem object. Identity
// comes from the filesystem, so differing case on case-insensitive volumes,
// relative spellings, and links all compare equal. Any stat failure reports
// false.
func SameFile(a, b string) bool {
	if a == "" || b == "" {
		return false
	}
	ai, err := os.Stat(a)
	if err != nil {
		return false
	}
	bi, err := os.Stat(b)
	if err != nil {
		return false
	}
	return os.SameFile(ai, bi)
}

// ParentDir returns the directory that will hold path once it is written.
func ParentDir(path string) (string, error) {
	abs, err := filepath.Abs(path)
	if err != nil {
		return "", fmt.Errorf("absolute path: %w", err)
	}
	return filepath.Dir(abs), nil
}
