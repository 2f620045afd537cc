package openfiles

import (
	"errors"
	"fmt"
	"testing"

	"golang.org/x/text/cases"
)

type handleKey struct {
	pid   PID
	value uintptr
}

// fakeObject describes what a handle refers to.
type fakeObject struct {
	typ      string
	typeErr  error
	disk     bool
	diskErr  error
	path     string
	pathErr  error
	closeErr error
}

func fileObject(path string) fakeObject {
	return fakeObject{typ: FileObjectType, disk: true, path: path}
}

// fakeHandle fails the test when a query is issued out of order or a
// borrowed handle is closed.
type fakeHandle struct {
	t      *testing.T
	rec    HandleRecord
	obj    fakeObject
	owned  bool
	closes int
}

func (h *fakeHandle) ObjectType() (string, error) {
	if h.closes > 0 {
		h.t.Errorf("type query on closed handle %+v", h.rec)
	}
	return h.obj.typ, h.obj.typeErr
}

func (h *fakeHandle) DiskBacked() (bool, error) {
	if h.obj.typ == "" || h.obj.typeErr != nil || !isFileTypeName(h.obj.typ) {
		h.t.Errorf("disk query on non-file handle %+v (%q)", h.rec, h.obj.typ)
	}
	return h.obj.disk, h.obj.diskErr
}

func (h *fakeHandle) FinalPath() (string, error) {
	if !isFileTypeName(h.obj.typ) || h.obj.typeErr != nil {
		h.t.Errorf("path query on non-file handle %+v (%q)", h.rec, h.obj.typ)
	}
	if !h.obj.disk || h.obj.diskErr != nil {
		h.t.Errorf("path query on non-disk handle %+v", h.rec)
	}
	return h.obj.path, h.obj.pathErr
}

func (h *fakeHandle) Close() error {
	if !h.owned {
		h.t.Errorf("closed borrowed handle %+v", h.rec)
	}
	h.closes++
	if h.closes > 1 {
		h.t.Errorf("handle %+v closed %d times", h.rec, h.closes)
	}
	return h.obj.closeErr
}

func isFileTypeName(name string) bool {
	return cases.Fold().String(name) == fileTypeFolded
}

type fakeSystem struct {
	t        *testing.T
	self     PID
	procs    []ProcessEntry
	procErr  error
	objects  map[handleKey]fakeObject
	order    []handleKey
	tableErr error
	dupErr   map[handleKey]error

	tableCalls int
	issued     []*fakeHandle
	imported   map[PID]int
}

func newFakeSystem(t *testing.T, self PID, procs ...ProcessEntry) *fakeSystem {
	return &fakeSystem{
		t:        t,
		self:     self,
		procs:    procs,
		objects:  map[handleKey]fakeObject{},
		dupErr:   map[handleKey]error{},
		imported: map[PID]int{},
	}
}

func (f *fakeSystem) add(pid PID, obj fakeObject) HandleRecord {
	value := uintptr(4 * (len(f.order) + 1))
	key := handleKey{pid: pid, value: value}
	f.objects[key] = obj
	f.order = append(f.order, key)
	return HandleRecord{PID: pid, Value: value}
}

func (f *fakeSystem) CurrentPID() PID { return f.self }

func (f *fakeSystem) Processes() ([]ProcessEntry, error) {
	if f.procErr != nil {
		return nil, f.procErr
	}
	return append([]ProcessEntry(nil), f.procs...), nil
}

func (f *fakeSystem) HandleTable(keep func(PID) bool) ([]HandleRecord, error) {
	f.tableCalls++
	if f.tableErr != nil {
		return nil, f.tableErr
	}
	var out []HandleRecord
	for _, key := range f.order {
		if keep(key.pid) {
			out = append(out, HandleRecord{PID: key.pid, Value: key.value})
		}
	}
	return out, nil
}

func (f *fakeSystem) Borrow(rec HandleRecord) (Handle, error) {
	if rec.PID != f.self {
		f.t.Errorf("borrow of foreign handle %+v", rec)
	}
	return f.issue(rec, false)
}

func (f *fakeSystem) Duplicate(rec HandleRecord) (Handle, error) {
	if rec.PID == f.self {
		f.t.Errorf("duplicate of own handle %+v", rec)
	}
	if err := f.dupErr[handleKey{rec.PID, rec.Value}]; err != nil {
		return nil, err
	}
	return f.issue(rec, true)
}

func (f *fakeSystem) issue(rec HandleRecord, owned bool) (Handle, error) {
	obj, ok := f.objects[handleKey{rec.PID, rec.Value}]
	if !ok {
		return nil, fmt.Errorf("no handle %d/%d", rec.PID, rec.Value)
	}
	f.imported[rec.PID]++
	h := &fakeHandle{t: f.t, rec: rec, obj: obj, owned: owned}
	f.issued = append(f.issued, h)
	return h, nil
}

// assertReleased checks that every duplicate was closed exactly once.
func (f *fakeSystem) assertReleased() {
	f.t.Helper()
	for _, h := range f.issued {
		if h.owned && h.closes != 1 {
			f.t.Errorf("duplicate %+v closed %d times, want 1", h.rec, h.closes)
		}
		if !h.owned && h.closes != 0 {
			f.t.Errorf("borrowed %+v closed %d times, want 0", h.rec, h.closes)
		}
	}
}

var errAccessDenied = errors.New("access denied")
