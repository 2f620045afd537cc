package main

import (
	"encoding/json"
	"os"
	"path/filepath"
	"strconv"
	"testing"

	"ffmpegout/internal/openfiles"
)

func TestTreeJSONIncludesRoot(t *testing.T) {
	env := setupCLITestEnv(t)
	self := os.Getpid()

	out, _, err := runCLI(t, []string{"tree", "--json", "--pid", strconv.Itoa(self)}, env.configPath)
	if err != nil {
		t.Fatalf("tree: %v", err)
	}
	var payload treeOutput
	if err := json.Unmarshal([]byte(out), &payload); err != nil {
		t.Fatalf("decode: %v\n%s", err, out)
	}
	if payload.RootPID != uint32(self) {
		t.Fatalf("unexpected root %d", payload.RootPID)
	}
	found := false
	for _, pid := range payload.Processes {
		if pid == openfiles.PID(self) {
			found = true
		}
	}
	if !found {
		t.Fatalf("root missing from %v", payload.Processes)
	}
}

func TestTreeTable(t *testing.T) {
	env := setupCLITestEnv(t)
	out, _, err := runCLI(t, []string{"tree", "--pid", strconv.Itoa(os.Getpid())}, env.configPath)
	if err != nil {
		t.Fatalf("tree: %v", err)
	}
	requireContains(t, out, "root")
}

func TestScanJSON(t *testing.T) {
	env := setupCLITestEnv(t)
	out, _, err := runCLI(t, []string{"scan", "--json", "--pid", strconv.Itoa(os.Getpid())}, env.configPath)
	if err != nil {
		t.Fatalf("scan: %v", err)
	}
	var payload scanOutput
	if err := json.Unmarshal([]byte(out), &payload); err != nil {
		t.Fatalf("decode: %v\n%s", err, out)
	}
	if payload.ScanID == "" {
		t.Fatal("expected scan id")
	}
	if payload.Files == nil {
		t.Fatal("files should encode as a list, not null")
	}
}

func TestCheckPassesForFreshOutput(t *testing.T) {
	env := setupCLITestEnv(t)
	output := filepath.Join(t.TempDir(), "movie.mkv")
	temp := filepath.Join(env.cfg.Paths.TempDir, "movie.part")

	out, _, err := runCLI(t, []string{"check", output, "--temp", temp, "--pid", strconv.Itoa(os.Getpid())}, env.configPath)
	if err != nil {
		t.Fatalf("check: %v\n%s", err, out)
	}
	requireContains(t, out, "is ready to be written")
	requireContains(t, out, "Output directory")
}

func TestCheckFailsForMissingDirectory(t *testing.T) {
	env := setupCLITestEnv(t)
	output := filepath.Join(t.TempDir(), "missing", "movie.mkv")

	out, _, err := runCLI(t, []string{"check", output, "--json"}, env.configPath)
	if err == nil {
		t.Fatal("expected failure for missing output directory")
	}
	var payload checkOutput
	if err := json.Unmarshal([]byte(out), &payload); err != nil {
		t.Fatalf("decode: %v\n%s", err, out)
	}
	if payload.Passed || payload.Error == "" {
		t.Fatalf("unexpected payload %+v", payload)
	}
}

func TestCommandsRejectOutOfRangePID(t *testing.T) {
	env := setupCLITestEnv(t)
	cases := map[string][]string{
		"check negative": {"check", "out.mkv", "--pid", "-3"},
		"check too big":  {"check", "out.mkv", "--pid", "4294967297"},
		"scan too big":   {"scan", "--pid", "4294967297"},
		"tree too big":   {"tree", "--pid", "4294967297"},
	}
	for name, args := range cases {
		t.Run(name, func(t *testing.T) {
			if _, _, err := runCLI(t, args, env.configPath); err == nil {
				t.Fatalf("expected error for %v", args)
			}
		})
	}
}
