package fileutil

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
)

func writeFile(t *testing.T, path string) {
	t.Helper()
	if err := os.WriteFile(path, []byte("x"), 0o644); err != nil {
		t.Fatal(err)
	}
}

func TestCanonicalPathFollowsSymlinks(t *testing.T) {
	dir := t.TempDir()
	target := filepath.Join(dir, "target.mp4")
	writeFile(t, target)
	link := filepath.Join(dir, "link.mp4")
	if err := os.Symlink(target, link); err != nil {
		t.Skipf("symlinks unavailable: %v", err)
	}

	want, err := CanonicalPath(target)
	if err != nil {
		t.Fatal(err)
	}
	got, err := CanonicalPath(link)
	if err != nil {
		t.Fatal(err)
	}
	if got != want {
		t.Fatalf("canonical link = %q, want %q", got, want)
	}
}

func TestCanonicalPathRelative(t *testing.T) {
	dir := t.TempDir()
	writeFile(t, filepath.Join(dir, "a.mp4"))
	t.Chdir(dir)

	got, err := CanonicalPath(filepath.Join(".", "sub", "..", "a.mp4"))
	if err != nil {
		t.Fatal(err)
	}
	if !filepath.IsAbs(got) || filepath.Base(got) != "a.mp4" {
		t.Fatalf("unexpected canonical path %q", got)
	}
}

func TestCanonicalPathMissing(t *testing.T) {
	if _, err := CanonicalPath(filepath.Join(t.TempDir(), "gone.mp4")); err == nil {
		t.Fatal("expected error for missing file")
	}
}

func TestSameFile(t *testing.T) {
	dir := t.TempDir()
	a := filepath.Join(dir, "a.mp4")
	b := filepath.Join(dir, "b.mp4")
	writeFile(t, a)
	writeFile(t, b)

	if !SameFile(a, a) {
		t.Fatal("file should equal itself")
	}
	if SameFile(a, b) {
		t.Fatal("distinct files reported equal")
	}
	if SameFile(a, filepath.Join(dir, "missing.mp4")) {
		t.Fatal("missing file reported equal")
	}
	if SameFile("", a) {
		t.Fatal("empty path reported equal")
	}
}

func TestSameFileRelativeFromOtherDirectory(t *testing.T) {
	root := t.TempDir()
	out := filepath.Join(root, "Out")
	other := filepath.Join(root, "work")
	for _, d := range []string{out, other} {
		if err := os.Mkdir(d, 0o755); err != nil {
			t.Fatal(err)
		}
	}
	target := filepath.Join(out, "a.mp4")
	writeFile(t, target)
	t.Chdir(other)

	if !SameFile(filepath.Join("..", "Out", "a.mp4"), target) {
		t.Fatal("relative spelling not matched")
	}
}

func TestSameFileCaseInsensitiveVolume(t *testing.T) {
	dir := t.TempDir()
	target := filepath.Join(dir, "Out.mp4")
	writeFile(t, target)
	upper := filepath.Join(dir, strings.ToUpper("Out.mp4"))
	if _, err := os.Stat(upper); err != nil {
		t.Skip("temp volume is case-sensitive")
	}
	if !SameFile(upper, target) {
		t.Fatal("case variant not matched on case-insensitive volume")
	}
}

func TestParentDir(t *testing.T) {
	dir := t.TempDir()
	got, err := ParentDir(filepath.Join(dir, "x", "out.mp4"))
	if err != nil {
		t.Fatal(err)
	}
	if got != filepath.Join(dir, "x") {
		t.Fatalf("ParentDir = %q", got)
	}
}
