package openfiles

import (
	"fmt"
	"slices"
)

// PIDSet is a set of process ids from a single snapshot.
type PIDSet map[PID]struct{}

// Contains reports whether pid is in the set.
func (s PIDSet) Contains(pid PID) bool {
	_, ok := s[pid]
	return ok
}

// Sorted returns the members in ascending order.
func (s PIDSet) Sorted() []PID {
	out := make([]PID, 0, len(s))
	for pid := range s {
		out = append(out, pid)
	}
	slices.Sort(out)
	return out
}

// Descendants returns root plus every process in entries whose parent chain
// leads back to root.
//
// Each upward walk is capped at len(entries) hops: parent ids are reused after
// a process exits, and a reused id can close a loop that would otherwise never
// terminate. A link is also rejected when the claimed parent started after the
// child, which is the other visible symptom of a reused id.
func Descendants(entries []ProcessEntry, root PID) PIDSet {
	byPID := make(map[PID]ProcessEntry, len(entries))
	for _, e := range entries {
		byPID[e.PID] = e
	}

	set := PIDSet{root: {}}
	limit := len(byPID)
	for pid, entry := range byPID {
		if pid == root {
			continue
		}
		if descendsFrom(entry, root, byPID, limit) {
			set[pid] = struct{}{}
		}
	}
	return set
}

func descendsFrom(entry ProcessEntry, root PID, byPID map[PID]ProcessEntry, limit int) bool {
	child := entry
	for hops := 0; hops < limit; hops++ {
		parentID := child.Parent
		if parentID == child.PID {
			return false
		}
		parent, known := byPID[parentID]
		if known && !plausibleParent(parent, child) {
			return false
		}
		if parentID == root {
			return true
		}
		if parentID == 0 || !known {
			return false
		}
		child = parent
	}
	return false
}

func plausibleParent(parent, child ProcessEntry) bool {
	if parent.Started.IsZero() || child.Started.IsZero() {
		return true
	}
	return !parent.Started.After(child.Started)
}

// ProcessTree snapshots the process list from sys and returns the descendant
// set of root. A failed snapshot yields an empty set and the cause.
func ProcessTree(sys System, root PID) (PIDSet, error) {
	entries, err := sys.Processes()
	if err != nil {
		return PIDSet{}, fmt.Errorf("process snapshot: %w", err)
	}
	return Descendants(entries, root), nil
}
