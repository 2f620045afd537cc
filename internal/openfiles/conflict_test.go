package openfiles

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/google/go-cmp/cmp"

	"ffmpegout/internal/testsupport"
)

func TestOpenFileSetMatch(t *testing.T) {
	dir := t.TempDir()
	held := testsupport.WriteFile(t, filepath.Join(dir, "held.mkv"), 1)
	other := testsupport.WriteFile(t, filepath.Join(dir, "other.mkv"), 1)
	set := newOpenFileSet([]string{canonical(t, held)})

	if _, ok := set.Match(""); ok {
		t.Fatal("empty candidate must not match")
	}
	if _, ok := set.Match(other); ok {
		t.Fatal("different file matched")
	}
	if _, ok := set.Match(filepath.Join(dir, "missing.mkv")); ok {
		t.Fatal("missing candidate matched")
	}
	if err := os.Mkdir(filepath.Join(dir, "sub"), 0o755); err != nil {
		t.Fatalf("mkdir: %v", err)
	}
	if match, ok := set.Match(dir + "/./sub/../held.mkv"); !ok || match != set[0] {
		t.Fatalf("unclean spelling should match, got %q %v", match, ok)
	}

	t.Chdir(dir)
	if _, ok := set.Match("held.mkv"); !ok {
		t.Fatal("relative spelling should match")
	}
}

func TestOpenFileSetMatchHardLink(t *testing.T) {
	dir := t.TempDir()
	held := testsupport.WriteFile(t, filepath.Join(dir, "held.mkv"), 1)
	hard := filepath.Join(dir, "hard.mkv")
	if err := os.Link(held, hard); err != nil {
		t.Skipf("hard links unavailable: %v", err)
	}
	set := newOpenFileSet([]string{canonical(t, held)})
	if _, ok := set.Match(hard); !ok {
		t.Fatal("hard link to an open file should match")
	}
}

func TestNewOpenFileSetSortsAndDedupes(t *testing.T) {
	got := newOpenFileSet([]string{"/b", "/a", "/b", "/c", "/a"})
	if diff := cmp.Diff(OpenFileSet{"/a", "/b", "/c"}, got); diff != "" {
		t.Fatalf("set mismatch (-want +got):\n%s", diff)
	}
	if got := newOpenFileSet(nil); len(got) != 0 {
		t.Fatalf("expected empty set, got %v", got)
	}
}
