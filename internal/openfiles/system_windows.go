//go:build windows

package openfiles

import (
	"errors"
	"fmt"
	"strings"
	"time"
	"unsafe"

	"golang.org/x/sys/windows"
)

const (
	systemExtendedHandleInformation = 0x40
	objectTypeInformation           = 2

	// GetFinalPathNameByHandle flags; x/sys/windows does not export them.
	fileNameNormalized = 0x0
	volumeNameDOS      = 0x0
)

var (
	modntdll          = windows.NewLazySystemDLL("ntdll.dll")
	procNtQueryObject = modntdll.NewProc("NtQueryObject")
)

type windowsSystem struct {
	self   PID
	opts   NativeOptions
	layout handleTableLayout
	err    error
}

// NewSystem returns the native System for this platform.
func NewSystem(opts NativeOptions) System {
	layout, err := layoutForPointerSize(unsafe.Sizeof(uintptr(0)))
	return &windowsSystem{
		self:   PID(windows.GetCurrentProcessId()),
		opts:   opts.withDefaults(),
		layout: layout,
		err:    err,
	}
}

func (s *windowsSystem) CurrentPID() PID { return s.self }

func (s *windowsSystem) Processes() ([]ProcessEntry, error) {
	snap, err := windows.CreateToolhelp32Snapshot(windows.TH32CS_SNAPPROCESS, 0)
	if err != nil {
		return nil, fmt.Errorf("CreateToolhelp32Snapshot: %w", err)
	}
	defer windows.CloseHandle(snap)

	var pe windows.ProcessEntry32
	pe.Size = uint32(unsafe.Sizeof(pe))
	if err := windows.Process32First(snap, &pe); err != nil {
		return nil, fmt.Errorf("Process32First: %w", err)
	}
	var entries []ProcessEntry
	for {
		entries = append(entries, ProcessEntry{
			PID:     PID(pe.ProcessID),
			Parent:  PID(pe.ParentProcessID),
			Started: processStartTime(pe.ProcessID),
		})
		if err := windows.Process32Next(snap, &pe); err != nil {
			if errors.Is(err, windows.ERROR_NO_MORE_FILES) {
				break
			}
			return nil, fmt.Errorf("Process32Next: %w", err)
		}
	}
	return entries, nil
}

// processStartTime returns the creation time of pid, or zero when the process
// cannot be opened (protected, exited, or the idle process).
func processStartTime(pid uint32) time.Time {
	if pid == 0 {
		return time.Time{}
	}
	h, err := windows.OpenProcess(windows.PROCESS_QUERY_LIMITED_INFORMATION, false, pid)
	if err != nil {
		return time.Time{}
	}
	defer windows.CloseHandle(h)
	var creation, exit, kernel, user windows.Filetime
	if err := windows.GetProcessTimes(h, &creation, &exit, &kernel, &user); err != nil {
		return time.Time{}
	}
	return time.Unix(0, creation.Nanoseconds())
}

// HandleTable fetches SystemExtendedHandleInformation. The table keeps
// changing size, so a mismatch is retried with a larger buffer even right
// after the sizing call.
func (s *windowsSystem) HandleTable(keep func(PID) bool) ([]HandleRecord, error) {
	if s.err != nil {
		return nil, fmt.Errorf("%w: %w", ErrUnsupported, s.err)
	}
	var size uint32
	_ = windows.NtQuerySystemInformation(systemExtendedHandleInformation, nil, 0, &size)

	var lastErr error
	for attempt := 0; attempt < s.opts.HandleTableAttempts; attempt++ {
		buf := make([]byte, int(size)+s.opts.HandleTableSlack)
		if len(buf) < s.layout.headerSize {
			buf = make([]byte, s.layout.headerSize+s.opts.HandleTableSlack+s.layout.entrySize)
		}
		var needed uint32
		err := windows.NtQuerySystemInformation(systemExtendedHandleInformation,
			unsafe.Pointer(&buf[0]), uint32(len(buf)), &needed)
		if err == nil {
			return s.layout.decode(buf, keep)
		}
		if !errors.Is(err, windows.STATUS_INFO_LENGTH_MISMATCH) {
			return nil, fmt.Errorf("%w: NtQuerySystemInformation: %w", ErrHandleTableUnavailable, err)
		}
		lastErr = err
		if needed > uint32(len(buf)) {
			size = needed
		} else {
			size = uint32(len(buf)) * 2
		}
	}
	return nil, fmt.Errorf("%w: table still growing after %d attempts: %w",
		ErrHandleTableUnavailable, s.opts.HandleTableAttempts, lastErr)
}

func (s *windowsSystem) Borrow(rec HandleRecord) (Handle, error) {
	return &winHandle{h: windows.Handle(rec.Value)}, nil
}

func (s *windowsSystem) Duplicate(rec HandleRecord) (Handle, error) {
	proc, err := windows.OpenProcess(windows.PROCESS_DUP_HANDLE, false, uint32(rec.PID))
	if err != nil {
		return nil, fmt.Errorf("OpenProcess: %w", err)
	}
	defer windows.CloseHandle(proc)

	var dup windows.Handle
	if err := windows.DuplicateHandle(proc, windows.Handle(rec.Value), windows.CurrentProcess(),
		&dup, 0, false, windows.DUPLICATE_SAME_ACCESS); err != nil {
		return nil, fmt.Errorf("DuplicateHandle: %w", err)
	}
	return &winHandle{h: dup, owned: true}, nil
}

type winHandle struct {
	h     windows.Handle
	owned bool
}

// ObjectType uses NtQueryObject(ObjectTypeInformation): one call with no
// buffer to learn the size, a second to fetch the name.
func (h *winHandle) ObjectType() (string, error) {
	var size uint32
	procNtQueryObject.Call(uintptr(h.h), objectTypeInformation, 0, 0, uintptr(unsafe.Pointer(&size)))
	if size < uint32(unsafe.Sizeof(windows.NTUnicodeString{})) {
		size = 1024
	}
	buf := make([]byte, size)
	r1, _, _ := procNtQueryObject.Call(uintptr(h.h), objectTypeInformation,
		uintptr(unsafe.Pointer(&buf[0])), uintptr(len(buf)), uintptr(unsafe.Pointer(&size)))
	if status := windows.NTStatus(r1); status != windows.STATUS_SUCCESS {
		return "", fmt.Errorf("NtQueryObject: %w", status)
	}
	// OBJECT_TYPE_INFORMATION starts with the TypeName UNICODE_STRING, whose
	// buffer points back into buf.
	name := (*windows.NTUnicodeString)(unsafe.Pointer(&buf[0]))
	if name.Buffer == nil {
		return "", errors.New("NtQueryObject: empty type name")
	}
	return name.String(), nil
}

func (h *winHandle) DiskBacked() (bool, error) {
	t, err := windows.GetFileType(h.h)
	if err != nil {
		return false, fmt.Errorf("GetFileType: %w", err)
	}
	return t == windows.FILE_TYPE_DISK, nil
}

func (h *winHandle) FinalPath() (string, error) {
	buf := make([]uint16, windows.MAX_PATH)
	for {
		n, err := windows.GetFinalPathNameByHandle(h.h, &buf[0], uint32(len(buf)),
			fileNameNormalized|volumeNameDOS)
		if err != nil {
			return "", fmt.Errorf("GetFinalPathNameByHandle: %w", err)
		}
		if int(n) < len(buf) {
			return trimExtendedPrefix(windows.UTF16ToString(buf[:n])), nil
		}
		buf = make([]uint16, n+1)
	}
}

func (h *winHandle) Close() error {
	if !h.owned {
		return nil
	}
	return windows.CloseHandle(h.h)
}

// trimExtendedPrefix turns \\?\C:\x into C:\x and \\?\UNC\srv\x into \\srv\x.
func trimExtendedPrefix(path string) string {
	switch {
	case strings.HasPrefix(path, `\\?\UNC\`):
		return `\\` + path[len(`\\?\UNC\`):]
	case strings.HasPrefix(path, `\\?\`):
		return path[len(`\\?\`):]
	default:
		return path
	}
}
