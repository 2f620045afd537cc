package openfiles

import (
	"errors"
	"time"
)

// FileObjectType is the object-type name carried by file handles. Pipes and
// character devices are also file objects on some platforms, which is why path
// resolution additionally requires a disk-backed handle.
const FileObjectType = "File"

var (
	// ErrUnsupported reports that the OS exposes no handle table we can read.
	ErrUnsupported = errors.New("open-file scanning not supported on this platform")
	// ErrHandleTableUnavailable reports that the system handle table could not be fetched.
	ErrHandleTableUnavailable = errors.New("system handle table unavailable")
	// ErrNotFileObject marks handles rejected by the object-type classifier.
	ErrNotFileObject = errors.New("handle is not a file object")
	// ErrNotDiskBacked marks file handles that do not refer to a disk file.
	ErrNotDiskBacked = errors.New("handle is not disk-backed")
)

// PID identifies a process. It is only meaningful inside the snapshot that
// produced it.
type PID uint32

// ProcessEntry is one row of a process-list snapshot.
type ProcessEntry struct {
	PID    PID
	Parent PID
	// Started is zero when the platform could not report a start time.
	Started time.Time
}

// HandleRecord is one entry of the system-wide handle table.
type HandleRecord struct {
	PID       PID
	Value     uintptr // process-local handle value
	Object    uint64  // kernel object identity
	Access    uint32
	TypeIndex uint16
}

// Handle is a handle usable from the current process.
type Handle interface {
	// ObjectType returns the kernel object-type name, e.g. "File".
	ObjectType() (string, error)
	// DiskBacked reports whether a file object refers to an on-disk file.
	// It must never block, even for pipes.
	DiskBacked() (bool, error)
	// FinalPath returns the normalized path of a disk-backed file handle.
	// Callers only invoke it after ObjectType and DiskBacked succeeded.
	FinalPath() (string, error)
	Close() error
}

// System is the platform seam: process snapshots, the global handle table,
// and the two ways of making a handle usable locally.
type System interface {
	CurrentPID() PID
	Processes() ([]ProcessEntry, error)
	// HandleTable returns every handle whose owner satisfies keep. Records for
	// other owners are dropped while decoding, before any per-handle work.
	HandleTable(keep func(PID) bool) ([]HandleRecord, error)
	// Borrow wraps a handle owned by the current process. The returned Handle
	// does not own the underlying OS handle; Close on it is never called.
	Borrow(rec HandleRecord) (Handle, error)
	// Duplicate copies a handle owned by another process into this one. The
	// caller owns the result and must Close it.
	Duplicate(rec HandleRecord) (Handle, error)
}
