//go:build !linux && !windows

package openfiles

import (
	"os"
	"os/exec"
	"strconv"
	"strings"
)

// otherSystem can list processes through ps(1) but has no handle table, so
// every scan degrades with ErrUnsupported.
type otherSystem struct {
	self PID
}

// NewSystem returns the native System for this platform.
func NewSystem(NativeOptions) System {
	return otherSystem{self: PID(os.Getpid())}
}

func (s otherSystem) CurrentPID() PID { return s.self }

func (s otherSystem) Processes() ([]ProcessEntry, error) {
	out, err := exec.Command("ps", "-A", "-o", "pid=,ppid=").Output()
	if err != nil {
		return nil, err
	}
	var entries []ProcessEntry
	for _, line := range strings.Split(string(out), "\n") {
		fields := strings.Fields(line)
		if len(fields) != 2 {
			continue
		}
		pid, err1 := strconv.ParseUint(fields[0], 10, 32)
		ppid, err2 := strconv.ParseUint(fields[1], 10, 32)
		if err1 != nil || err2 != nil {
			continue
		}
		entries = append(entries, ProcessEntry{PID: PID(pid), Parent: PID(ppid)})
	}
	return entries, nil
}

func (otherSystem) HandleTable(func(PID) bool) ([]HandleRecord, error) {
	return nil, ErrUnsupported
}

func (otherSystem) Borrow(HandleRecord) (Handle, error) { return nil, ErrUnsupported }

func (otherSystem) Duplicate(HandleRecord) (Handle, error) { return nil, ErrUnsupported }
