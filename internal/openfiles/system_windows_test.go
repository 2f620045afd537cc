//go:build windows

package openfiles

import (
	"bufio"
	"io"
	"os"
	"os/exec"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"ffmpegout/internal/testsupport"
)

func TestTrimExtendedPrefix(t *testing.T) {
	cases := map[string]string{
		`\\?\C:\media\out.mkv`:       `C:\media\out.mkv`,
		`\\?\UNC\server\share\a.mkv`: `\\server\share\a.mkv`,
		`C:\already\plain.mkv`:       `C:\already\plain.mkv`,
		`\\server\share\plain.mkv`:   `\\server\share\plain.mkv`,
	}
	for in, want := range cases {
		if got := trimExtendedPrefix(in); got != want {
			t.Fatalf("trimExtendedPrefix(%q) = %q, want %q", in, got, want)
		}
	}
}

func TestNativeScanFindsOwnOpenFile(t *testing.T) {
	path := testsupport.WriteFile(t, filepath.Join(t.TempDir(), "own.mkv"), 1)
	f, err := os.Open(path)
	if err != nil {
		t.Fatalf("open: %v", err)
	}
	defer f.Close()

	res := NewScanner(NewSystem(NativeOptions{})).Scan()
	if res.Degraded != nil {
		t.Skipf("handle table unavailable on this host: %v", res.Degraded)
	}
	if _, ok := res.Match(path); !ok {
		t.Fatalf("own open file not reported; stats=%+v", res.Stats)
	}
	if _, err := f.Stat(); err != nil {
		t.Fatalf("own handle closed by scan: %v", err)
	}
}

// holdFileEnv makes the test binary act as a child that opens the named file
// and holds it until its stdin is closed.
const holdFileEnv = "FFMPEGOUT_HOLD_FILE"

func TestHoldFileChild(t *testing.T) {
	path := os.Getenv(holdFileEnv)
	if path == "" {
		t.Skip("only runs as a child of TestNativeScanFindsFileHeldByChild")
	}
	f, err := os.OpenFile(path, os.O_RDWR, 0)
	if err != nil {
		t.Fatalf("open %s: %v", path, err)
	}
	defer f.Close()
	if _, err := os.Stdout.WriteString("ready\n"); err != nil {
		t.Fatalf("signal ready: %v", err)
	}
	_, _ = io.Copy(io.Discard, os.Stdin)
}

// holdOpenInChild re-runs the test binary so a descendant process owns the
// only handle to path. It returns the child's pid once the file is open.
func holdOpenInChild(t *testing.T, path string) PID {
	t.Helper()

	cmd := exec.Command(os.Args[0], "-test.run=^TestHoldFileChild$")
	cmd.Env = append(os.Environ(), holdFileEnv+"="+path)
	stdin, err := cmd.StdinPipe()
	if err != nil {
		t.Fatalf("stdin pipe: %v", err)
	}
	stdout, err := cmd.StdoutPipe()
	if err != nil {
		t.Fatalf("stdout pipe: %v", err)
	}
	if err := cmd.Start(); err != nil {
		t.Fatalf("start child: %v", err)
	}
	t.Cleanup(func() {
		_ = stdin.Close()
		done := make(chan struct{})
		go func() {
			_ = cmd.Wait()
			close(done)
		}()
		select {
		case <-done:
		case <-time.After(10 * time.Second):
			_ = cmd.Process.Kill()
			<-done
		}
	})

	ready := make(chan bool, 1)
	go func() {
		lines := bufio.NewScanner(stdout)
		for lines.Scan() {
			if strings.TrimSpace(lines.Text()) == "ready" {
				ready <- true
				_, _ = io.Copy(io.Discard, stdout)
				return
			}
		}
		ready <- false
	}()
	select {
	case ok := <-ready:
		if !ok {
			t.Fatal("child exited before opening the file")
		}
	case <-time.After(30 * time.Second):
		t.Fatal("child did not open the file in time")
	}
	return PID(cmd.Process.Pid)
}

func TestNativeScanFindsFileHeldByChild(t *testing.T) {
	path := testsupport.WriteFile(t, filepath.Join(t.TempDir(), "Held", "out.mkv"), 1)
	child := holdOpenInChild(t, path)

	res := NewScanner(NewSystem(NativeOptions{})).Scan()
	if res.Degraded != nil {
		t.Skipf("handle table unavailable on this host: %v", res.Degraded)
	}
	if !res.Processes.Contains(child) {
		t.Fatalf("child %d missing from process tree %v", child, res.Processes.Sorted())
	}
	if res.Stats.Duplicated == 0 {
		t.Fatalf("expected handles duplicated from the child, stats=%+v", res.Stats)
	}
	if _, ok := res.Match(strings.ToUpper(path)); !ok {
		t.Fatalf("file held by child not reported; files=%v stats=%+v", res.Files, res.Stats)
	}
}
