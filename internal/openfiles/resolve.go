package openfiles

import (
	"fmt"
	"os"
	"slices"

	"ffmpegout/internal/fileutil"
)

// resolvePath turns a confirmed file object into a canonical path. The
// disk-backed check runs first: path queries against pipes and some devices
// can block forever.
func resolvePath(h *ImportedHandle) (string, error) {
	disk, err := h.handle.DiskBacked()
	if err != nil {
		return "", fmt.Errorf("query file type: %w", err)
	}
	if !disk {
		return "", ErrNotDiskBacked
	}
	final, err := h.handle.FinalPath()
	if err != nil {
		return "", fmt.Errorf("final path: %w", err)
	}
	canonical, err := fileutil.CanonicalPath(final)
	if err != nil {
		return "", fmt.Errorf("canonicalize %q: %w", final, err)
	}
	info, err := os.Stat(canonical)
	if err != nil {
		return "", fmt.Errorf("stat %q: %w", canonical, err)
	}
	if !info.Mode().IsRegular() {
		return "", fmt.Errorf("%q is not a regular file", canonical)
	}
	return canonical, nil
}

// OpenFileSet is a sorted, duplicate-free list of canonical paths.
type OpenFileSet []string

func newOpenFileSet(paths []string) OpenFileSet {
	out := slices.Clone(paths)
	slices.Sort(out)
	return OpenFileSet(slices.Compact(out))
}
