package entity

import (
	"encoding/binary"

	"github.com/cockroachdb/errors"

	"github.com/entitykv/entitykv/errs"
	"github.com/entitykv/entitykv/ptr"
	"github.com/entitykv/entitykv/storage"
)

// The bulk-read engine (spec §4.6, §6.2) packs a Result into a
// caller-supplied buffer with descriptors growing forward from just after
// the header and byte payloads growing backward from the buffer end. This
// is the one part of the module built directly on encoding/binary rather
// than on a pack/serialization dependency from elsewhere in the corpus:
// nothing in the reference stack implements a manual double-ended buffer
// protocol, since it only exists here to avoid per-read heap allocation
// for an unbounded number of members or elements, a constraint none of the
// sibling repos' document/record encoders share.

const (
	wordSize = 8

	// readErrorSize: code(4, padded to 8) + offset(8) + len(8) + ptr(17,
	// padded to 24) = one fixed-size slot.
	readErrorSize = 8 + 8 + 8 + 24

	headerSize = wordSize /* error_count */ + MaxReadErrors*readErrorSize + wordSize /* count */

	descriptorSize       = 8 + 8
	memberDescriptorSize = descriptorSize * 2
)

// ReadErrorCode identifies a soft error recorded inline in a Result header.
type ReadErrorCode int32

const (
	// SoftEntityNotFound records that the probed entity had no arr row.
	SoftEntityNotFound ReadErrorCode = ReadErrorCode(errs.EntityNotFound)
	// SoftMemberMissing records a member registered without a value.
	SoftMemberMissing ReadErrorCode = ReadErrorCode(errs.MemberMissing)
)

// ReadError is one slot of a Result header's inline error array.
type ReadError struct {
	Code   ReadErrorCode
	Offset uint64
	Len    uint64
	Ptr    ptr.Ptr
}

// packer implements the double-ended layout: descriptors are appended
// starting at descFront (growing up), payload bytes are appended starting
// at dataBack (growing down). Success requires descFront <= dataBack at
// every step.
type packer struct {
	buf       []byte
	descFront int
	dataBack  int
}

func newPacker(buf []byte, headerLen int) (*packer, error) {
	if len(buf) < headerLen {
		return nil, errs.Wrap(errs.ErrBufferTooSmall)
	}
	for i := range buf {
		buf[i] = 0
	}
	return &packer{buf: buf, descFront: headerLen, dataBack: len(buf)}, nil
}

// reserveDescriptor claims n bytes at the front for one descriptor and
// returns its offset, failing hard if doing so would cross dataBack.
func (p *packer) reserveDescriptor(n int) (int, error) {
	if p.descFront+n > p.dataBack {
		return 0, errs.Wrap(errs.ErrBufferTooSmall)
	}
	off := p.descFront
	p.descFront += n
	return off, nil
}

// packBytes copies b to the back of the buffer and returns its offset,
// failing hard if doing so would cross descFront.
func (p *packer) packBytes(b []byte) (int, error) {
	if p.dataBack-len(b) < p.descFront {
		return 0, errs.Wrap(errs.ErrBufferTooSmall)
	}
	p.dataBack -= len(b)
	copy(p.buf[p.dataBack:], b)
	return p.dataBack, nil
}

func putWord(buf []byte, off int, v uint64) {
	binary.LittleEndian.PutUint64(buf[off:], v)
}

func getWord(buf []byte, off int) uint64 {
	return binary.LittleEndian.Uint64(buf[off:])
}

func writeReadError(buf []byte, slot int, re ReadError) {
	off := wordSize + slot*readErrorSize
	putWord(buf, off, uint64(re.Code))
	putWord(buf, off+8, re.Offset)
	putWord(buf, off+16, re.Len)
	copy(buf[off+24:], re.Ptr[:])
}

func readReadError(buf []byte, slot int) ReadError {
	off := wordSize + slot*readErrorSize
	var re ReadError
	re.Code = ReadErrorCode(getWord(buf, off))
	re.Offset = getWord(buf, off+8)
	re.Len = getWord(buf, off+16)
	copy(re.Ptr[:], buf[off+24:off+24+ptr.Len])
	return re
}

// appendSoftError records a soft error in the header, silently dropping it
// once MaxReadErrors slots are full (spec §4.6 step 4).
func appendSoftError(buf []byte, count *int, re ReadError) {
	if *count < MaxReadErrors {
		writeReadError(buf, *count, re)
	}
	*count++
}

// MemberDescriptor locates one object member's name and value bytes within
// a packed Result buffer.
type MemberDescriptor struct {
	NameOffset  uint64
	NameLen     uint64
	ValueOffset uint64
	ValueLen    uint64
}

// ObjectResult is a packed Result(Object) buffer together with the header
// fields already decoded for convenient access; the buffer itself remains
// the source of truth for offsets (spec §6.2).
type ObjectResult struct {
	Buf         []byte
	ErrorCount  int
	Errors      []ReadError
	MemberCount int
}

// ReadObject materializes an object's members into buf using the
// double-ended packing layout (spec §4.6 object variant). A minimum-size
// buffer that cannot hold the header plus one descriptor fails immediately
// with BUFFER_TOO_SMALL; an absent entity is a soft ENTITY_NOT_FOUND, not
// a hard failure.
func ReadObject(txn *storage.Txn, p ptr.Ptr, buf []byte) (*ObjectResult, error) {
	if err := assertTag(p, ptr.Object); err != nil {
		return nil, err
	}
	if len(buf) < headerSize+memberDescriptorSize {
		return nil, errs.Wrap(errs.ErrBufferTooSmall)
	}

	pk, err := newPacker(buf, headerSize)
	if err != nil {
		return nil, err
	}

	errCount := 0
	memberCount := 0

	exists, err := Exists(txn, p)
	if err != nil {
		return nil, err
	}
	if !exists {
		appendSoftError(buf, &errCount, ReadError{Code: SoftEntityNotFound, Ptr: p})
		putWord(buf, 0, uint64(errCount))
		putWord(buf, wordSize+MaxReadErrors*readErrorSize, 0)
		return decodeObjectResult(buf)
	}

	prefix := storage.ArrPrefix(p)
	err = txn.Iterate(prefix, storage.PrefixUpperBound(prefix), func(key, _ []byte) (bool, error) {
		name := storage.SuffixFromArrKey(key)
		if isSentinel(name) {
			return true, nil
		}

		descOff, rerr := pk.reserveDescriptor(memberDescriptorSize)
		if rerr != nil {
			return false, rerr
		}

		nameOff, rerr := pk.packBytes(name)
		if rerr != nil {
			return false, rerr
		}

		value, rerr := txn.Get(storage.MainKey(p, name))
		var valueOff, valueLen int
		if rerr != nil {
			if !errors.Is(rerr, storage.ErrKeyNotFound) {
				return false, rerr
			}
			appendSoftError(buf, &errCount, ReadError{
				Code: SoftMemberMissing, Offset: uint64(nameOff), Len: uint64(len(name)), Ptr: p,
			})
		} else {
			valueOff, rerr = pk.packBytes(value)
			if rerr != nil {
				return false, rerr
			}
			valueLen = len(value)
		}

		putWord(buf, descOff, uint64(nameOff))
		putWord(buf, descOff+8, uint64(len(name)))
		putWord(buf, descOff+16, uint64(valueOff))
		putWord(buf, descOff+24, uint64(valueLen))

		memberCount++
		return true, nil
	})
	if err != nil {
		return nil, err
	}

	putWord(buf, 0, uint64(errCount))
	putWord(buf, wordSize+MaxReadErrors*readErrorSize, uint64(memberCount))

	return decodeObjectResult(buf)
}

func decodeObjectResult(buf []byte) (*ObjectResult, error) {
	errCount := int(getWord(buf, 0))
	memberCount := int(getWord(buf, wordSize+MaxReadErrors*readErrorSize))

	r := &ObjectResult{Buf: buf, ErrorCount: errCount, MemberCount: memberCount}
	for i := 0; i < errCount && i < MaxReadErrors; i++ {
		r.Errors = append(r.Errors, readReadError(buf, i))
	}
	return r, nil
}

// Member decodes the i'th MemberDescriptor and its bytes from r.Buf.
func (r *ObjectResult) Member(i int) (name, value []byte, hasValue bool, d MemberDescriptor) {
	off := headerSize + i*memberDescriptorSize
	d.NameOffset = getWord(r.Buf, off)
	d.NameLen = getWord(r.Buf, off+8)
	d.ValueOffset = getWord(r.Buf, off+16)
	d.ValueLen = getWord(r.Buf, off+24)

	name = r.Buf[d.NameOffset : d.NameOffset+d.NameLen]
	hasValue = d.ValueLen > 0 || d.ValueOffset != 0
	value = r.Buf[d.ValueOffset : d.ValueOffset+d.ValueLen]
	return name, value, hasValue, d
}

// ArrayResult is a packed Result(Array) buffer with plain element
// descriptors (spec §6.2).
type ArrayResult struct {
	Buf          []byte
	ErrorCount   int
	Errors       []ReadError
	ElementCount int
}

// ReadArray materializes an array's elements into buf (spec §4.6 array
// variant).
func ReadArray(txn *storage.Txn, p ptr.Ptr, buf []byte) (*ArrayResult, error) {
	if err := assertTag(p, ptr.Array); err != nil {
		return nil, err
	}
	if len(buf) < headerSize+descriptorSize {
		return nil, errs.Wrap(errs.ErrBufferTooSmall)
	}

	pk, err := newPacker(buf, headerSize)
	if err != nil {
		return nil, err
	}

	errCount := 0
	elemCount := 0

	exists, err := Exists(txn, p)
	if err != nil {
		return nil, err
	}
	if !exists {
		appendSoftError(buf, &errCount, ReadError{Code: SoftEntityNotFound, Ptr: p})
		putWord(buf, 0, uint64(errCount))
		putWord(buf, wordSize+MaxReadErrors*readErrorSize, 0)
		return decodeArrayResult(buf)
	}

	prefix := storage.ArrPrefix(p)
	err = txn.Iterate(prefix, storage.PrefixUpperBound(prefix), func(key, _ []byte) (bool, error) {
		elem := storage.SuffixFromArrKey(key)
		if isSentinel(elem) {
			return true, nil
		}

		descOff, rerr := pk.reserveDescriptor(descriptorSize)
		if rerr != nil {
			return false, rerr
		}
		elemOff, rerr := pk.packBytes(elem)
		if rerr != nil {
			return false, rerr
		}

		putWord(buf, descOff, uint64(elemOff))
		putWord(buf, descOff+8, uint64(len(elem)))

		elemCount++
		return true, nil
	})
	if err != nil {
		return nil, err
	}

	putWord(buf, 0, uint64(errCount))
	putWord(buf, wordSize+MaxReadErrors*readErrorSize, uint64(elemCount))

	return decodeArrayResult(buf)
}

func decodeArrayResult(buf []byte) (*ArrayResult, error) {
	errCount := int(getWord(buf, 0))
	elemCount := int(getWord(buf, wordSize+MaxReadErrors*readErrorSize))

	r := &ArrayResult{Buf: buf, ErrorCount: errCount, ElementCount: elemCount}
	for i := 0; i < errCount && i < MaxReadErrors; i++ {
		r.Errors = append(r.Errors, readReadError(buf, i))
	}
	return r, nil
}

// Element decodes the i'th Descriptor and its bytes from r.Buf.
func (r *ArrayResult) Element(i int) []byte {
	off := headerSize + i*descriptorSize
	eo := getWord(r.Buf, off)
	el := getWord(r.Buf, off+8)
	return r.Buf[eo : eo+el]
}
