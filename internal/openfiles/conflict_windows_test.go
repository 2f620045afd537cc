//go:build windows

package openfiles

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"ffmpegout/internal/testsupport"
)

func TestOpenFileSetMatchIgnoresCase(t *testing.T) {
	dir := t.TempDir()
	held := testsupport.WriteFile(t, filepath.Join(dir, "Out", "a.mp4"), 1)
	f, err := os.Open(held)
	if err != nil {
		t.Fatalf("open: %v", err)
	}
	defer f.Close()

	set := newOpenFileSet([]string{canonical(t, held)})
	spellings := []string{
		held,
		filepath.Join(dir, "OUT", "A.MP4"),
		strings.ToUpper(held),
		strings.ToLower(held),
	}
	for _, spelling := range spellings {
		if _, ok := set.Match(spelling); !ok {
			t.Fatalf("spelling %q should match %q", spelling, set[0])
		}
	}

	t.Chdir(filepath.Join(dir, "OUT"))
	if _, ok := set.Match("a.MP4"); !ok {
		t.Fatal("relative spelling from another working directory should match")
	}
	if _, ok := set.Match(filepath.Join(dir, "out", "b.mp4")); ok {
		t.Fatal("missing sibling must not match")
	}
}
