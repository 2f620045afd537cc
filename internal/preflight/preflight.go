package preflight

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"ffmpegout/internal/config"
	"ffmpegout/internal/logging"
	"ffmpegout/internal/openfiles"
)

// ErrOutputOpen reports that an output or temp path is held open by the host
// application's process tree.
var ErrOutputOpen = errors.New("output file is already opened by the host application")

// Result reports the outcome of a single preflight check.
type Result struct {
	Name   string `json:"name"`
	Passed bool   `json:"passed"`
	Detail string `json:"detail"`
	// Err is set on failed checks that carry a typed cause.
	Err error `json:"-"`
}

// Job describes the files one encode will write.
type Job struct {
	ID     string
	Output string
	Temps  []string
}

// Scanner produces a fresh open-file scan of the host process tree.
type Scanner interface {
	Scan() openfiles.Result
}

// Option configures RunAll.
type Option func(*runner)

// WithScanner replaces the platform scanner built from configuration.
func WithScanner(scanner Scanner) Option {
	return func(r *runner) {
		if scanner != nil {
			r.scanner = scanner
		}
	}
}

// WithLogger sets the logger used for check outcomes.
func WithLogger(logger *slog.Logger) Option {
	return func(r *runner) {
		if logger != nil {
			r.logger = logger
		}
	}
}

type runner struct {
	scanner Scanner
	logger  *slog.Logger
}

// NewScanner builds the platform scanner described by cfg. root overrides
// open_files.root_pid when non-zero; with both unset the current process is
// the root.
func NewScanner(cfg *config.Config, root openfiles.PID, logger *slog.Logger) *openfiles.Scanner {
	native := openfiles.NativeOptions{}
	if cfg != nil {
		native.HandleTableAttempts = cfg.OpenFiles.HandleTableAttempts
		native.HandleTableSlack = cfg.OpenFiles.HandleTableSlackKiB * 1024
		if root == 0 && cfg.OpenFiles.RootPID > 0 {
			root = openfiles.PID(cfg.OpenFiles.RootPID)
		}
	}
	return openfiles.NewScanner(openfiles.NewSystem(native),
		openfiles.WithRoot(root),
		openfiles.WithLogger(logger),
	)
}

// RunAll executes every check for job. Checks after a cancelled context are
// reported as failed rather than skipped silently.
func RunAll(ctx context.Context, cfg *config.Config, job Job, opts ...Option) []Result {
	if cfg == nil {
		defaults := config.Default()
		cfg = &defaults
	}
	if ctx == nil {
		ctx = context.Background()
	}
	ctx = logging.WithJobID(ctx, job.ID)

	r := &runner{logger: logging.NewNop()}
	for _, opt := range opts {
		opt(r)
	}
	logger := logging.WithContext(ctx, logging.NewComponentLogger(r.logger, "preflight"))

	var results []Result
	add := func(res Result) {
		results = append(results, res)
		if res.Passed {
			logger.Debug("preflight check passed", logging.String("check", res.Name), logging.String("detail", res.Detail))
			return
		}
		logging.WarnWithContext(logger, "preflight check failed", "preflight_check_failed",
			logging.String("check", res.Name),
			logging.String("detail", res.Detail),
			logging.String(logging.FieldImpact, "encode job will not start"),
		)
	}
	cancelled := func(name string) bool {
		if err := ctx.Err(); err != nil {
			add(Result{Name: name, Detail: "cancelled", Err: err})
			return true
		}
		return false
	}

	if !cancelled("Output directory") {
		add(CheckOutputDirectory(job.Output))
	}
	for _, temp := range job.Temps {
		if !cancelled("Temp file") {
			add(CheckTempFile(temp))
		}
	}

	if cfg.OpenFiles.Enabled && !cancelled("Open files") {
		scanner := r.scanner
		if scanner == nil {
			scanner = NewScanner(cfg, 0, r.logger)
		}
		scan := scanner.Scan()
		add(CheckNotOpen(scan, job.Output, cfg.OpenFiles.BlockOnDegraded))
		for _, temp := range job.Temps {
			add(CheckNotOpen(scan, temp, cfg.OpenFiles.BlockOnDegraded))
		}
	}

	if !cancelled("Encoder binaries") {
		for _, res := range CheckEncoderBinaries(cfg) {
			add(res)
		}
	}
	return results
}

// FirstBlocking returns an error for the first failed check, or nil when every
// check passed. Open-file conflicts come first and wrap ErrOutputOpen.
func FirstBlocking(results []Result) error {
	for _, res := range results {
		if !res.Passed && errors.Is(res.Err, ErrOutputOpen) {
			return res.Err
		}
	}
	for _, res := range results {
		if res.Passed {
			continue
		}
		if res.Err != nil {
			return fmt.Errorf("%s: %s: %w", res.Name, res.Detail, res.Err)
		}
		return fmt.Errorf("%s: %s", res.Name, res.Detail)
	}
	return nil
}
