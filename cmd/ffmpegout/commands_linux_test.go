package main

import (
	"errors"
	"os"
	"path/filepath"
	"strconv"
	"testing"

	"ffmpegout/internal/preflight"
	"ffmpegout/internal/testsupport"
)

func TestCheckRejectsOutputHeldOpen(t *testing.T) {
	env := setupCLITestEnv(t)
	output := filepath.Join(t.TempDir(), "held.mkv")
	testsupport.HoldOpen(t, output)

	out, _, err := runCLI(t, []string{"check", output, "--pid", strconv.Itoa(os.Getpid())}, env.configPath)
	if !errors.Is(err, preflight.ErrOutputOpen) {
		t.Fatalf("expected ErrOutputOpen, got %v\n%s", err, out)
	}
	requireContains(t, out, "FAIL")
}

func TestScanListsHeldFile(t *testing.T) {
	env := setupCLITestEnv(t)
	output := filepath.Join(t.TempDir(), "held.mkv")
	testsupport.HoldOpen(t, output)

	out, _, err := runCLI(t, []string{"scan", "--pid", strconv.Itoa(os.Getpid())}, env.configPath)
	if err != nil {
		t.Fatalf("scan: %v", err)
	}
	requireContains(t, out, "held.mkv")
}
