package testsupport

import (
	"os"
	"os/exec"
	"runtime"
	"testing"
)

// HoldOpen starts a child process that inherits an open descriptor for path
// and keeps running until the test ends. The test process's own descriptor is
// closed before returning, so only the child holds the file. It returns the
// child's pid.
func HoldOpen(t testing.TB, path string) int {
	t.Helper()

	if runtime.GOOS == "windows" {
		t.Skip("descriptor inheritance via ExtraFiles is not available on windows")
	}
	sleep, err := exec.LookPath("sleep")
	if err != nil {
		t.Skipf("sleep not available: %v", err)
	}

	f, err := os.OpenFile(path, os.O_CREATE|os.O_RDWR, 0o644)
	if err != nil {
		t.Fatalf("open %s: %v", path, err)
	}
	cmd := exec.Command(sleep, "300")
	cmd.ExtraFiles = []*os.File{f}
	if err := cmd.Start(); err != nil {
		_ = f.Close()
		t.Fatalf("start holder: %v", err)
	}
	if err := f.Close(); err != nil {
		t.Fatalf("close parent descriptor: %v", err)
	}
	t.Cleanup(func() {
		_ = cmd.Process.Kill()
		_ = cmd.Wait()
	})
	return cmd.Process.Pid
}
