package deps

import (
	"fmt"
	"os"
	"os/exec"
	"path/filepath"
	"runtime"
	"strings"

	"ffmpegout/internal/config"
)

// Requirement defines an external program an encode job may run.
type Requirement struct {
	Name        string
	Command     string
	Description string
	Optional    bool
}

// Status reports the availability of a requirement. Command holds the
// resolved executable path when the program was found.
type Status struct {
	Requirement
	Available bool
	Detail    string
}

// EncoderRequirements lists ffmpeg followed by each configured muxer.
func EncoderRequirements(cfg *config.Config) []Requirement {
	ffmpeg := "ffmpeg"
	var muxers []string
	if cfg != nil {
		if cfg.Encoder.FFmpegBinary != "" {
			ffmpeg = cfg.Encoder.FFmpegBinary
		}
		muxers = cfg.Encoder.MuxerBinaries
	}
	reqs := make([]Requirement, 0, 1+len(muxers))
	reqs = append(reqs, Requirement{
		Name:        "FFmpeg",
		Command:     ffmpeg,
		Description: "Encodes and writes the output file",
	})
	for _, muxer := range muxers {
		reqs = append(reqs, Requirement{
			Name:        muxer,
			Command:     muxer,
			Description: "Optional container muxer",
			Optional:    true,
		})
	}
	return reqs
}

// CheckBinaries evaluates the provided requirements. Optional programs are
// looked up next to the first required binary before falling back to PATH,
// which matches how ffmpeg bundles usually ship their tools.
func CheckBinaries(requirements []Requirement) []Status {
	results := make([]Status, 0, len(requirements))
	var bundleDir string
	for _, req := range requirements {
		req.Command = strings.TrimSpace(req.Command)
		req.Description = strings.TrimSpace(req.Description)
		status := Status{Requirement: req}

		if req.Command == "" {
			status.Detail = "command not configured"
			results = append(results, status)
			continue
		}

		if req.Optional && bundleDir != "" && !strings.ContainsAny(req.Command, `/\`) {
			candidate := filepath.Join(bundleDir, executableName(req.Command))
			if info, err := os.Stat(candidate); err == nil && isExecutable(info) {
				status.Command = candidate
				status.Available = true
				results = append(results, status)
				continue
			}
		}

		resolved, err := exec.LookPath(req.Command)
		if err != nil {
			status.Detail = fmt.Sprintf("binary %q not found", req.Command)
			results = append(results, status)
			continue
		}
		status.Command = resolved
		status.Available = true
		if !req.Optional && bundleDir == "" {
			bundleDir = filepath.Dir(resolved)
		}
		results = append(results, status)
	}
	return results
}

// MissingRequired returns the statuses of required programs that were not found.
func MissingRequired(statuses []Status) []Status {
	var missing []Status
	for _, status := range statuses {
		if !status.Available && !status.Optional {
			missing = append(missing, status)
		}
	}
	return missing
}

func executableName(base string) string {
	if runtime.GOOS == "windows" && filepath.Ext(base) == "" {
		return base + ".exe"
	}
	return base
}

func isExecutable(info os.FileInfo) bool {
	if info == nil || info.IsDir() {
		return false
	}
	if runtime.GOOS == "windows" {
		return true
	}
	return info.Mode().Perm()&0o111 != 0
}
