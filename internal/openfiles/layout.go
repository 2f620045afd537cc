package openfiles

import (
	"encoding/binary"
	"fmt"
)

// handleTableLayout describes the binary shape of the extended system handle
// table (SYSTEM_HANDLE_INFORMATION_EX). The structure is undocumented, so the
// offsets are pinned per pointer width and nothing outside this file reads the
// raw buffer.
type handleTableLayout struct {
	name       string
	ptrSize    int
	headerSize int
	entrySize  int
	objectOff  int
	pidOff     int
	valueOff   int
	accessOff  int
	typeIdxOff int
	maxHandles uint64
}

var (
	// SYSTEM_HANDLE_TABLE_ENTRY_INFO_EX on 64-bit Windows:
	// Object, UniqueProcessId, HandleValue (8 each), GrantedAccess (4),
	// CreatorBackTraceIndex (2), ObjectTypeIndex (2), HandleAttributes (4), Reserved (4).
	layoutEx64 = handleTableLayout{
		name:       "handle_info_ex/64",
		ptrSize:    8,
		headerSize: 16,
		entrySize:  40,
		objectOff:  0,
		pidOff:     8,
		valueOff:   16,
		accessOff:  24,
		typeIdxOff: 30,
		maxHandles: 1 << 26,
	}
	// Same structure with 4-byte pointers.
	layoutEx32 = handleTableLayout{
		name:       "handle_info_ex/32",
		ptrSize:    4,
		headerSize: 8,
		entrySize:  28,
		objectOff:  0,
		pidOff:     4,
		valueOff:   8,
		accessOff:  12,
		typeIdxOff: 18,
		maxHandles: 1 << 24,
	}
)

func layoutForPointerSize(size uintptr) (handleTableLayout, error) {
	switch size {
	case 8:
		return layoutEx64, nil
	case 4:
		return layoutEx32, nil
	default:
		return handleTableLayout{}, fmt.Errorf("no handle table layout for %d-byte pointers", size)
	}
}

func (l handleTableLayout) ptr(buf []byte, off int) uint64 {
	if l.ptrSize == 8 {
		return binary.LittleEndian.Uint64(buf[off:])
	}
	return uint64(binary.LittleEndian.Uint32(buf[off:]))
}

// decode walks a filled handle-table buffer and returns the records whose
// owner satisfies keep. Entries for other owners are skipped without being
// materialized.
func (l handleTableLayout) decode(buf []byte, keep func(PID) bool) ([]HandleRecord, error) {
	if len(buf) < l.headerSize {
		return nil, fmt.Errorf("%s: buffer of %d bytes shorter than header", l.name, len(buf))
	}
	count := l.ptr(buf, 0)
	if count > l.maxHandles {
		return nil, fmt.Errorf("%s: implausible handle count %d", l.name, count)
	}
	need := uint64(l.headerSize) + count*uint64(l.entrySize)
	if need > uint64(len(buf)) {
		return nil, fmt.Errorf("%s: %d handles need %d bytes, buffer has %d", l.name, count, need, len(buf))
	}

	var records []HandleRecord
	for i := uint64(0); i < count; i++ {
		base := l.headerSize + int(i)*l.entrySize
		pid := PID(l.ptr(buf, base+l.pidOff))
		if keep != nil && !keep(pid) {
			continue
		}
		records = append(records, HandleRecord{
			PID:       pid,
			Value:     uintptr(l.ptr(buf, base+l.valueOff)),
			Object:    l.ptr(buf, base+l.objectOff),
			Access:    binary.LittleEndian.Uint32(buf[base+l.accessOff:]),
			TypeIndex: binary.LittleEndian.Uint16(buf[base+l.typeIdxOff:]),
		})
	}
	return records, nil
}
