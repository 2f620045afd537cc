//go:build linux

package openfiles

import (
	"bufio"
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"golang.org/x/sys/unix"
)

const procRoot = "/proc"

// linuxSystem reads process and descriptor tables from /proc. Descriptors play
// the part of handles: a record's Value is the fd number in its owner.
type linuxSystem struct {
	proc     string
	self     PID
	bootTime time.Time
}

// NewSystem returns the native System for this platform.
func NewSystem(NativeOptions) System {
	return &linuxSystem{
		proc:     procRoot,
		self:     PID(os.Getpid()),
		bootTime: readBootTime(procRoot),
	}
}

func (s *linuxSystem) CurrentPID() PID { return s.self }

func (s *linuxSystem) Processes() ([]ProcessEntry, error) {
	dirs, err := os.ReadDir(s.proc)
	if err != nil {
		return nil, fmt.Errorf("read %s: %w", s.proc, err)
	}
	entries := make([]ProcessEntry, 0, len(dirs))
	for _, d := range dirs {
		if !d.IsDir() {
			continue
		}
		pid, err := strconv.ParseUint(d.Name(), 10, 32)
		if err != nil {
			continue
		}
		entry, err := s.readStat(PID(pid))
		if err != nil {
			// Exited between readdir and open.
			continue
		}
		entries = append(entries, entry)
	}
	if len(entries) == 0 {
		return nil, fmt.Errorf("no processes listed under %s", s.proc)
	}
	return entries, nil
}

func (s *linuxSystem) readStat(pid PID) (ProcessEntry, error) {
	raw, err := os.ReadFile(fmt.Sprintf("%s/%d/stat", s.proc, pid))
	if err != nil {
		return ProcessEntry{}, err
	}
	return parseStat(pid, string(raw), s.bootTime)
}

// parseStat extracts the parent pid and start time from /proc/<pid>/stat. The
// command name sits in parentheses and may itself contain spaces or ')'.
func parseStat(pid PID, raw string, boot time.Time) (ProcessEntry, error) {
	closeIdx := strings.LastIndexByte(raw, ')')
	if closeIdx < 0 || closeIdx+2 > len(raw) {
		return ProcessEntry{}, fmt.Errorf("pid %d: malformed stat", pid)
	}
	fields := strings.Fields(raw[closeIdx+2:])
	if len(fields) < 20 {
		return ProcessEntry{}, fmt.Errorf("pid %d: stat has %d fields", pid, len(fields))
	}
	ppid, err := strconv.ParseUint(fields[1], 10, 32)
	if err != nil {
		return ProcessEntry{}, fmt.Errorf("pid %d: parse ppid: %w", pid, err)
	}
	entry := ProcessEntry{PID: pid, Parent: PID(ppid)}
	if ticks, err := strconv.ParseInt(fields[19], 10, 64); err == nil && !boot.IsZero() {
		entry.Started = boot.Add(time.Duration(ticks) * time.Second / clockTicks)
	}
	return entry, nil
}

// USER_HZ is fixed at 100 on every mainstream architecture.
const clockTicks = 100

func readBootTime(proc string) time.Time {
	f, err := os.Open(proc + "/stat")
	if err != nil {
		return time.Time{}
	}
	defer f.Close()

	scanner := bufio.NewScanner(f)
	for scanner.Scan() {
		line := scanner.Text()
		if !strings.HasPrefix(line, "btime ") {
			continue
		}
		sec, err := strconv.ParseInt(strings.TrimSpace(strings.TrimPrefix(line, "btime ")), 10, 64)
		if err != nil {
			return time.Time{}
		}
		return time.Unix(sec, 0)
	}
	return time.Time{}
}

func (s *linuxSystem) HandleTable(keep func(PID) bool) ([]HandleRecord, error) {
	dirs, err := os.ReadDir(s.proc)
	if err != nil {
		return nil, fmt.Errorf("%w: read %s: %w", ErrHandleTableUnavailable, s.proc, err)
	}
	var records []HandleRecord
	for _, d := range dirs {
		pid64, err := strconv.ParseUint(d.Name(), 10, 32)
		if err != nil {
			continue
		}
		pid := PID(pid64)
		if keep != nil && !keep(pid) {
			continue
		}
		fds, err := os.ReadDir(fmt.Sprintf("%s/%d/fd", s.proc, pid))
		if err != nil {
			// Exited, or not ours to inspect.
			continue
		}
		for _, fd := range fds {
			n, err := strconv.ParseUint(fd.Name(), 10, 31)
			if err != nil {
				continue
			}
			records = append(records, HandleRecord{PID: pid, Value: uintptr(n)})
		}
	}
	return records, nil
}

func (s *linuxSystem) Borrow(rec HandleRecord) (Handle, error) {
	return &fdHandle{fd: int(rec.Value), link: fmt.Sprintf("%s/self/fd/%d", s.proc, rec.Value)}, nil
}

// Duplicate copies a descriptor out of another process with pidfd_getfd. When
// the kernel lacks it or ptrace rules forbid it, the descriptor is reopened
// through its /proc magic link with O_PATH, which never blocks on FIFOs and
// performs no I/O on the target.
func (s *linuxSystem) Duplicate(rec HandleRecord) (Handle, error) {
	fd, err := pidfdGetfd(rec)
	if err != nil {
		path := fmt.Sprintf("%s/%d/fd/%d", s.proc, rec.PID, rec.Value)
		var openErr error
		fd, openErr = unix.Open(path, unix.O_PATH|unix.O_CLOEXEC, 0)
		if openErr != nil {
			return nil, errors.Join(err, fmt.Errorf("reopen %s: %w", path, openErr))
		}
	}
	return &fdHandle{fd: fd, owned: true, link: fmt.Sprintf("%s/self/fd/%d", s.proc, fd)}, nil
}

func pidfdGetfd(rec HandleRecord) (int, error) {
	pidfd, err := unix.PidfdOpen(int(rec.PID), 0)
	if err != nil {
		return -1, fmt.Errorf("pidfd_open %d: %w", rec.PID, err)
	}
	defer unix.Close(pidfd)
	fd, err := unix.PidfdGetfd(pidfd, int(rec.Value), 0)
	if err != nil {
		return -1, fmt.Errorf("pidfd_getfd %d/%d: %w", rec.PID, rec.Value, err)
	}
	return fd, nil
}

// fdHandle is a descriptor in this process. Object types follow the NT
// vocabulary: anything with an inode reached through the VFS is a "File",
// including pipes and devices, so the disk check stays meaningful.
type fdHandle struct {
	fd    int
	owned bool
	link  string
}

func (h *fdHandle) target() (string, error) {
	return os.Readlink(h.link)
}

func (h *fdHandle) ObjectType() (string, error) {
	target, err := h.target()
	if err != nil {
		return "", err
	}
	switch {
	case strings.HasPrefix(target, "socket:["):
		return "Socket", nil
	case strings.HasPrefix(target, "anon_inode:"):
		return "AnonInode", nil
	case strings.HasPrefix(target, "pipe:["):
		return FileObjectType, nil
	}
	var st unix.Stat_t
	if err := unix.Fstat(h.fd, &st); err != nil {
		return "", fmt.Errorf("fstat: %w", err)
	}
	switch st.Mode & unix.S_IFMT {
	case unix.S_IFSOCK:
		return "Socket", nil
	case 0:
		return "AnonInode", nil
	default:
		return FileObjectType, nil
	}
}

func (h *fdHandle) DiskBacked() (bool, error) {
	var st unix.Stat_t
	if err := unix.Fstat(h.fd, &st); err != nil {
		return false, fmt.Errorf("fstat: %w", err)
	}
	switch st.Mode & unix.S_IFMT {
	case unix.S_IFREG, unix.S_IFDIR:
		return true, nil
	default:
		return false, nil
	}
}

func (h *fdHandle) FinalPath() (string, error) {
	target, err := h.target()
	if err != nil {
		return "", err
	}
	if !strings.HasPrefix(target, "/") {
		return "", fmt.Errorf("descriptor target %q is not a path", target)
	}
	if strings.HasSuffix(target, " (deleted)") {
		return "", fmt.Errorf("%s: %w", strings.TrimSuffix(target, " (deleted)"), os.ErrNotExist)
	}
	return target, nil
}

func (h *fdHandle) Close() error {
	if !h.owned {
		return nil
	}
	return unix.Close(h.fd)
}
