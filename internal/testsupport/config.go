package testsupport

import (
	"os"
	"path/filepath"
	"runtime"
	"testing"

	"ffmpegout/internal/config"
)

// ConfigOption allows callers to customize the generated test configuration.
type ConfigOption func(*configBuilder)

type configBuilder struct {
	t       testing.TB
	baseDir string
	cfg     *config.Config
}

// NewConfig produces a config seeded with unique temp directories per test.
func NewConfig(t testing.TB, opts ...ConfigOption) *config.Config {
	t.Helper()

	base := t.TempDir()
	cfgVal := config.Default()
	cfgVal.Paths.TempDir = filepath.Join(base, "tmp")
	cfgVal.Paths.LogDir = logDir(t)
	if err := os.MkdirAll(cfgVal.Paths.TempDir, 0o755); err != nil {
		t.Fatalf("mkdir temp dir: %v", err)
	}

	builder := &configBuilder{t: t, baseDir: base, cfg: &cfgVal}
	for _, opt := range opts {
		opt(builder)
	}
	return builder.cfg
}

// logDir lives outside t.TempDir: loggers keep their file open, and Windows
// refuses to remove it until the process exits.
func logDir(t testing.TB) string {
	t.Helper()
	dir, err := os.MkdirTemp("", "ffmpegout-logs-")
	if err != nil {
		t.Fatalf("mkdir log dir: %v", err)
	}
	t.Cleanup(func() { _ = os.RemoveAll(dir) })
	return dir
}

// WithOpenFiles replaces the open_files section.
func WithOpenFiles(section config.OpenFiles) ConfigOption {
	return func(b *configBuilder) {
		b.cfg.OpenFiles = section
	}
}

// WithStubbedBinaries writes stub executables for the provided names, points
// the config at them, and replaces PATH with the stub directory. With no names
// the default ffmpeg and muxer binaries are stubbed.
func WithStubbedBinaries(names ...string) ConfigOption {
	return func(b *configBuilder) {
		if len(names) == 0 {
			names = append([]string{b.cfg.Encoder.FFmpegBinary}, b.cfg.Encoder.MuxerBinaries...)
		}
		binDir := filepath.Join(b.baseDir, "bin")
		if err := os.MkdirAll(binDir, 0o755); err != nil {
			b.t.Fatalf("mkdir bin dir: %v", err)
		}
		script := []byte("#!/bin/sh\nexit 0\n")
		for _, name := range names {
			if runtime.GOOS == "windows" {
				name += ".exe"
			}
			target := filepath.Join(binDir, name)
			if err := os.WriteFile(target, script, 0o755); err != nil {
				b.t.Fatalf("write stub %s: %v", name, err)
			}
		}
		b.t.Setenv("PATH", binDir)
	}
}
