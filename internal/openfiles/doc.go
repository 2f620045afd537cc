// Package openfiles reports which files are currently held open by a process
// and everything it spawned.
//
// A scan snapshots the process list, narrows the OS-wide handle table to the
// root's descendant set, imports each remote handle into this process,
// discards everything that is not a disk-backed file object, and resolves the
// survivors to canonical paths. Callers then ask whether a candidate output
// path is one of them before overwriting it.
//
// The result is a best-effort snapshot. A negative answer means "not known to
// be open", never "safe": files can be opened or closed between the scan and
// the write, and any enumeration failure degrades to an empty set rather than
// blocking the job. Native OS access lives behind the System interface so the
// pipeline can be exercised with synthetic handle tables.
package openfiles
