package openfiles

import "fmt"

// ImportedHandle is a HandleRecord made usable from this process. Handles
// owned by the current process are borrowed and never closed here; handles
// from other processes are duplicates owned by the scan.
type ImportedHandle struct {
	Record HandleRecord
	handle Handle
	owned  bool
}

// Owned reports whether Release closes the underlying OS handle.
func (h *ImportedHandle) Owned() bool {
	return h != nil && h.owned
}

// Release closes an owned duplicate. It is a no-op for borrowed handles and
// safe to call more than once.
func (h *ImportedHandle) Release() error {
	if h == nil || h.handle == nil {
		return nil
	}
	handle := h.handle
	h.handle = nil
	if !h.owned {
		return nil
	}
	return handle.Close()
}

// importHandle makes rec dereferenceable from the current process. Failure to
// open or duplicate a remote handle affects only this record.
func importHandle(sys System, self PID, rec HandleRecord) (*ImportedHandle, error) {
	if rec.PID == self {
		h, err := sys.Borrow(rec)
		if err != nil {
			return nil, fmt.Errorf("borrow handle %#x: %w", rec.Value, err)
		}
		return &ImportedHandle{Record: rec, handle: h}, nil
	}
	h, err := sys.Duplicate(rec)
	if err != nil {
		return nil, fmt.Errorf("duplicate handle %#x from pid %d: %w", rec.Value, rec.PID, err)
	}
	return &ImportedHandle{Record: rec, handle: h, owned: true}, nil
}
