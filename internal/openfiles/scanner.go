package openfiles

import (
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"

	"ffmpegout/internal/logging"
)

// Stats counts what happened to each handle record during a scan.
type Stats struct {
	Processes       int `json:"processes"`
	Records         int `json:"records"`
	Borrowed        int `json:"borrowed"`
	Duplicated      int `json:"duplicated"`
	ImportFailed    int `json:"import_failed"`
	TypeQueryFailed int `json:"type_query_failed"`
	NonFile         int `json:"non_file"`
	NotDisk         int `json:"not_disk"`
	Unresolved      int `json:"unresolved"`
	ReleaseFailed   int `json:"release_failed"`
	Files           int `json:"files"`
}

// Result is the outcome of one scan.
type Result struct {
	ScanID    string
	Root      PID
	Processes PIDSet
	Files     OpenFileSet
	Stats     Stats
	Duration  time.Duration
	// Degraded is set when the process snapshot or the handle table could not
	// be read. Files is empty in that case and says nothing about safety.
	Degraded error
}

// Match reports whether candidate is one of the scanned open files.
func (r Result) Match(candidate string) (string, bool) {
	return r.Files.Match(candidate)
}

// Option configures a Scanner.
type Option func(*Scanner)

// WithRoot sets the root of the scanned process tree. Zero keeps the default,
// which is the current process.
func WithRoot(pid PID) Option {
	return func(s *Scanner) {
		if pid != 0 {
			s.root = pid
		}
	}
}

// WithLogger sets the logger used for degradations and per-scan summaries.
func WithLogger(logger *slog.Logger) Option {
	return func(s *Scanner) {
		if logger != nil {
			s.logger = logger
		}
	}
}

// WithScanIDs overrides scan id generation.
func WithScanIDs(next func() string) Option {
	return func(s *Scanner) {
		if next != nil {
			s.nextID = next
		}
	}
}

// Scanner finds the files held open by a process tree.
type Scanner struct {
	sys    System
	root   PID
	logger *slog.Logger
	nextID func() string
}

// NewScanner builds a Scanner over sys rooted at the current process.
func NewScanner(sys System, opts ...Option) *Scanner {
	s := &Scanner{
		sys:    sys,
		root:   sys.CurrentPID(),
		logger: logging.NewNop(),
		nextID: uuid.NewString,
	}
	for _, opt := range opts {
		opt(s)
	}
	s.logger = logging.NewComponentLogger(s.logger, "openfiles")
	return s
}

// Root returns the pid whose process tree is scanned.
func (s *Scanner) Root() PID {
	return s.root
}

// IsPathOpen runs a fresh scan and reports whether candidate is held open by
// the root process tree, along with the matching open path.
func (s *Scanner) IsPathOpen(candidate string) (string, bool) {
	return s.Scan().Match(candidate)
}

// Scan runs the full pipeline once. It never fails: enumeration problems are
// reported through Result.Degraded and per-handle problems through Stats.
func (s *Scanner) Scan() (res Result) {
	started := time.Now()
	res = Result{
		ScanID:    s.nextID(),
		Root:      s.root,
		Processes: PIDSet{},
		Files:     OpenFileSet{},
	}
	logger := s.logger.With(
		logging.String(logging.FieldScanID, res.ScanID),
		logging.Int64(logging.FieldRootPID, int64(s.root)),
	)
	defer func() {
		res.Duration = time.Since(started)
	}()

	procs, err := ProcessTree(s.sys, s.root)
	if err != nil {
		res.Degraded = err
		logging.WarnWithContext(logger, "process snapshot failed; open-file check skipped", "process_snapshot_failed",
			logging.Error(err),
			logging.String(logging.FieldErrorHint, "the OS process list could not be read"),
			logging.String(logging.FieldImpact, "outputs are not checked against open files"),
		)
		return res
	}
	res.Processes = procs
	res.Stats.Processes = len(procs)

	records, err := s.sys.HandleTable(procs.Contains)
	if err != nil {
		res.Degraded = fmt.Errorf("handle table: %w", err)
		eventType := "handle_table_unavailable"
		hint := "the system handle table query failed or kept growing past the retry limit"
		if errors.Is(err, ErrUnsupported) {
			eventType = "open_file_scan_unsupported"
			hint = "this platform has no supported handle enumeration"
		}
		logging.WarnWithContext(logger, "handle table unavailable; open-file check skipped", eventType,
			logging.Error(err),
			logging.String(logging.FieldErrorHint, hint),
			logging.String(logging.FieldImpact, "outputs are not checked against open files"),
		)
		return res
	}
	res.Stats.Records = len(records)

	self := s.sys.CurrentPID()
	paths := make([]string, 0, len(records))
	for _, rec := range records {
		if path, ok := s.inspect(logger, self, rec, &res.Stats); ok {
			paths = append(paths, path)
		}
	}
	res.Files = newOpenFileSet(paths)
	res.Stats.Files = len(res.Files)

	logger.Debug("open-file scan complete",
		logging.Int("processes", res.Stats.Processes),
		logging.Int("records", res.Stats.Records),
		logging.Int("import_failed", res.Stats.ImportFailed),
		logging.Int("non_file", res.Stats.NonFile),
		logging.Int("not_disk", res.Stats.NotDisk),
		logging.Int("unresolved", res.Stats.Unresolved),
		logging.Int("files", res.Stats.Files),
		logging.Duration("elapsed", time.Since(started)),
	)
	return res
}

// inspect carries one record through import, classification, and resolution.
// The imported handle is released before inspect returns on every path.
func (s *Scanner) inspect(logger *slog.Logger, self PID, rec HandleRecord, stats *Stats) (path string, ok bool) {
	h, err := importHandle(s.sys, self, rec)
	if err != nil {
		stats.ImportFailed++
		logger.Debug("handle import failed", logging.Int64("pid", int64(rec.PID)), logging.Error(err))
		return "", false
	}
	if h.Owned() {
		stats.Duplicated++
	} else {
		stats.Borrowed++
	}
	defer func() {
		if err := h.Release(); err != nil {
			stats.ReleaseFailed++
			logger.Debug("handle release failed", logging.Int64("pid", int64(rec.PID)), logging.Error(err))
		}
	}()

	isFile, err := isFileObject(h)
	if err != nil {
		stats.TypeQueryFailed++
		return "", false
	}
	if !isFile {
		stats.NonFile++
		return "", false
	}

	resolved, err := resolvePath(h)
	switch {
	case errors.Is(err, ErrNotDiskBacked):
		stats.NotDisk++
		return "", false
	case err != nil:
		stats.Unresolved++
		logger.Debug("open file path unresolved", logging.Int64("pid", int64(rec.PID)), logging.Error(err))
		return "", false
	}
	return resolved, true
}
