package entity

import (
	"github.com/entitykv/entitykv/errs"
	"github.com/entitykv/entitykv/ptr"
	"github.com/entitykv/entitykv/storage"
)

// AuditEntry locates one ghost-member row found by AuditObject: a payload
// row in main whose name is absent from arr[ptr] (spec §3 fault classes,
// §4.8).
type AuditEntry struct {
	Ptr         ptr.Ptr
	NameOffset  uint64
	NameLen     uint64
	ValueOffset uint64
	ValueLen    uint64
}

// AuditReport is a packed ghost-member report together with its decoded
// entries (spec §6.2 AuditReport).
type AuditReport struct {
	Buf     []byte
	Entries []AuditEntry
}

const auditHeaderSize = wordSize
const auditEntrySize = ptr.Len + descriptorSize*2

// AuditObject walks main forward from obj_ptr's prefix and, for each
// payload row found, checks membership in arr[ptr]. Rows whose name is not
// a member are ghosts, appended to the report using the same double-ended
// packing as the bulk-read engine (spec §4.8).
func AuditObject(txn *storage.Txn, p ptr.Ptr, buf []byte) (*AuditReport, error) {
	if err := assertTag(p, ptr.Object); err != nil {
		return nil, err
	}
	if len(buf) < auditHeaderSize+auditEntrySize {
		return nil, errs.Wrap(errs.ErrBufferTooSmall)
	}

	pk, err := newPacker(buf, auditHeaderSize)
	if err != nil {
		return nil, err
	}

	count := 0
	prefix := storage.MainPrefix(p)
	err = txn.Iterate(prefix, storage.PrefixUpperBound(prefix), func(key, value []byte) (bool, error) {
		name := storage.NameFromMainKey(key)

		isMember, rerr := txn.Exists(storage.ArrKey(p, name))
		if rerr != nil {
			return false, rerr
		}
		if isMember {
			return true, nil
		}

		entryOff, rerr := pk.reserveDescriptor(auditEntrySize)
		if rerr != nil {
			return false, rerr
		}
		nameOff, rerr := pk.packBytes(name)
		if rerr != nil {
			return false, rerr
		}
		valueOff, rerr := pk.packBytes(value)
		if rerr != nil {
			return false, rerr
		}

		copy(buf[entryOff:], p[:])
		putWord(buf, entryOff+ptr.Len, uint64(nameOff))
		putWord(buf, entryOff+ptr.Len+8, uint64(len(name)))
		putWord(buf, entryOff+ptr.Len+16, uint64(valueOff))
		putWord(buf, entryOff+ptr.Len+24, uint64(len(value)))

		count++
		return true, nil
	})
	if err != nil {
		return nil, err
	}

	putWord(buf, 0, uint64(count))
	return decodeAuditReport(buf)
}

func decodeAuditReport(buf []byte) (*AuditReport, error) {
	count := int(getWord(buf, 0))
	r := &AuditReport{Buf: buf}
	for i := 0; i < count; i++ {
		off := auditHeaderSize + i*auditEntrySize
		var e AuditEntry
		copy(e.Ptr[:], buf[off:off+ptr.Len])
		e.NameOffset = getWord(buf, off+ptr.Len)
		e.NameLen = getWord(buf, off+ptr.Len+8)
		e.ValueOffset = getWord(buf, off+ptr.Len+16)
		e.ValueLen = getWord(buf, off+ptr.Len+24)
		r.Entries = append(r.Entries, e)
	}
	return r, nil
}

// Name returns the ghost member's name bytes referenced by entry e.
func (r *AuditReport) Name(e AuditEntry) []byte {
	return r.Buf[e.NameOffset : e.NameOffset+e.NameLen]
}

// Value returns the ghost member's payload bytes referenced by entry e.
func (r *AuditReport) Value(e AuditEntry) []byte {
	return r.Buf[e.ValueOffset : e.ValueOffset+e.ValueLen]
}

// RepairObject deletes main[ptr‖name] for every entry in report, stopping
// at the first backend failure. The deletes are staged in txn like any
// other write: the caller commits or aborts the enclosing transaction to
// make the repair durable or to roll it back (spec §4.8 repair_object).
func RepairObject(txn *storage.Txn, report *AuditReport) error {
	for _, e := range report.Entries {
		name := report.Name(e)
		if err := txn.Delete(storage.MainKey(e.Ptr, name)); err != nil {
			return err
		}
	}
	return nil
}

// ScanGhostObjects walks the entire main sub-store looking for payload
// rows whose Ptr has no corresponding arr membership key at all — the
// "ghost object" fault class that spec §4.8 documents but scopes out of
// audit_object (object-scoped by design). This supplements the core with
// the whole-database sweep spec §9 calls "an extension."
//
// It reports distinct Ptrs only, not individual rows: a ghost object's
// entire main‖ptr‖* range is, by definition, orphaned.
func ScanGhostObjects(txn *storage.Txn) ([]ptr.Ptr, error) {
	var ghosts []ptr.Ptr
	var lastChecked ptr.Ptr
	haveLast := false

	lower, upper := storage.AllMainRange()
	err := txn.Iterate(lower, upper, func(key, _ []byte) (bool, error) {
		p := storage.PtrFromMainKey(key)
		if haveLast && p == lastChecked {
			return true, nil
		}
		lastChecked = p
		haveLast = true

		exists, err := txn.Exists(storage.ArrKey(p, nil))
		if err != nil {
			return false, err
		}
		if !exists {
			ghosts = append(ghosts, p)
		}
		return true, nil
	})
	if err != nil {
		return nil, err
	}
	return ghosts, nil
}
