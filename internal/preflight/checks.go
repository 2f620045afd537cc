package preflight

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/gofrs/flock"

	"ffmpegout/internal/config"
	"ffmpegout/internal/deps"
	"ffmpegout/internal/fileutil"
	"ffmpegout/internal/openfiles"
)

// CheckOutputDirectory verifies that the directory that will contain path
// exists and is writable.
func CheckOutputDirectory(path string) Result {
	const name = "Output directory"

	if strings.TrimSpace(path) == "" {
		return Result{Name: name, Detail: "output path not set"}
	}
	dir, err := fileutil.ParentDir(path)
	if err != nil {
		return Result{Name: name, Detail: fmt.Sprintf("%s (error: %v)", path, err), Err: err}
	}
	info, err := os.Stat(dir)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return Result{Name: name, Detail: fmt.Sprintf("%s (error: does not exist)", dir), Err: err}
		}
		return Result{Name: name, Detail: fmt.Sprintf("%s (error: stat: %v)", dir, err), Err: err}
	}
	if !info.IsDir() {
		return Result{Name: name, Detail: fmt.Sprintf("%s (error: is not a directory)", dir)}
	}
	if err := checkWritable(dir); err != nil {
		return Result{Name: name, Detail: fmt.Sprintf("%s (error: insufficient permissions: %v)", dir, err), Err: err}
	}
	return Result{Name: name, Passed: true, Detail: fmt.Sprintf("%s (writable)", dir)}
}

// CheckTempFile verifies that path can be created and exclusively locked.
// A file created by the probe is removed again.
func CheckTempFile(path string) Result {
	const name = "Temp file"

	if strings.TrimSpace(path) == "" {
		return Result{Name: name, Detail: "temp path not set"}
	}
	existed := false
	if info, err := os.Stat(path); err == nil {
		if info.IsDir() {
			return Result{Name: name, Detail: fmt.Sprintf("%s (error: is a directory)", path)}
		}
		existed = true
	}

	lock := flock.New(path, flock.SetFlag(os.O_CREATE|os.O_RDWR), flock.SetPermissions(0o644))
	locked, err := lock.TryLock()
	if err != nil {
		return Result{Name: name, Detail: fmt.Sprintf("%s (error: %v)", path, err), Err: err}
	}
	if !locked {
		_ = lock.Close()
		return Result{Name: name, Detail: fmt.Sprintf("%s (error: locked by another job)", path)}
	}
	if err := lock.Unlock(); err != nil {
		return Result{Name: name, Detail: fmt.Sprintf("%s (error: unlock: %v)", path, err), Err: err}
	}
	if !existed {
		if err := os.Remove(path); err != nil && !errors.Is(err, os.ErrNotExist) {
			return Result{Name: name, Detail: fmt.Sprintf("%s (error: remove probe: %v)", path, err), Err: err}
		}
	}
	return Result{Name: name, Passed: true, Detail: fmt.Sprintf("%s (creatable)", path)}
}

// CheckNotOpen reports a conflict when candidate is among the files the scan
// found open. A degraded scan passes unverified unless blockOnDegraded is set.
func CheckNotOpen(scan openfiles.Result, candidate string, blockOnDegraded bool) Result {
	name := "Not open: " + filepath.Base(candidate)

	if scan.Degraded != nil {
		detail := fmt.Sprintf("not verified (%v)", scan.Degraded)
		if blockOnDegraded {
			return Result{Name: name, Detail: detail, Err: scan.Degraded}
		}
		return Result{Name: name, Passed: true, Detail: detail}
	}
	if match, ok := scan.Match(candidate); ok {
		return Result{
			Name:   name,
			Detail: fmt.Sprintf("%s is open in process tree of pid %d", match, scan.Root),
			Err:    fmt.Errorf("%s: %w", candidate, ErrOutputOpen),
		}
	}
	return Result{
		Name:   name,
		Passed: true,
		Detail: fmt.Sprintf("not open (%d files across %d processes)", len(scan.Files), len(scan.Processes)),
	}
}

// CheckEncoderBinaries reports ffmpeg and the configured muxers. Missing
// muxers pass with a note since they are optional.
func CheckEncoderBinaries(cfg *config.Config) []Result {
	statuses := deps.CheckBinaries(deps.EncoderRequirements(cfg))
	results := make([]Result, 0, len(statuses))
	for _, status := range statuses {
		res := Result{Name: status.Name, Passed: status.Available, Detail: status.Command}
		if !status.Available {
			res.Detail = status.Detail
			if status.Optional {
				res.Passed = true
				res.Detail = "optional: " + status.Detail
			}
		}
		results = append(results, res)
	}
	return results
}
