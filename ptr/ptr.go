// Package ptr defines the fixed-width identifier used to address entities
// stored by the kv layer.
package ptr

import (
	"encoding/hex"

	"github.com/cockroachdb/errors"
)

// Len is the fixed byte length of a Ptr: one type tag byte plus a 16-byte body.
const Len = 17

// Tag identifies the kind of entity a Ptr addresses. It occupies byte 0.
type Tag byte

const (
	// Untyped is used for Ptrs that have not yet been assigned to an entity kind.
	Untyped Tag = 0x00
	// Object tags a Ptr addressing a member-name-to-value mapping.
	Object Tag = 0x01
	// Array tags a Ptr addressing an ordered set of byte-string elements.
	Array Tag = 0x02
)

func (t Tag) String() string {
	switch t {
	case Object:
		return "object"
	case Array:
		return "array"
	default:
		return "untyped"
	}
}

// ErrInvalidPointer is returned when a hex string cannot be parsed into a Ptr.
var ErrInvalidPointer = errors.New("invalid pointer")

// Ptr is a 17-byte opaque identifier. Byte 0 is a Tag, bytes 1..16 are an
// unstructured body, typically produced by an idgen.Generator. Ptr is a
// value type: two Ptrs are equal iff they agree byte-for-byte.
type Ptr [Len]byte

// New builds a Ptr from a tag and a 16-byte body.
func New(tag Tag, body [Len - 1]byte) Ptr {
	var p Ptr
	p[0] = byte(tag)
	copy(p[1:], body[:])
	return p
}

// Tag returns the type tag carried in byte 0.
func (p Ptr) Tag() Tag {
	return Tag(p[0])
}

// Is reports whether p carries the given tag.
func (p Ptr) Is(tag Tag) bool {
	return p.Tag() == tag
}

// WithTag returns a copy of p with byte 0 overwritten by tag. Generators are
// free to return a Ptr with an Untyped tag; callers overwrite it with the
// tag of the entity kind they are creating.
func (p Ptr) WithTag(tag Tag) Ptr {
	p[0] = byte(tag)
	return p
}

// Bytes returns the 17 raw bytes of p.
func (p Ptr) Bytes() []byte {
	b := make([]byte, Len)
	copy(b, p[:])
	return b
}

// FromBytes builds a Ptr from a 17-byte slice. The slice is copied.
func FromBytes(b []byte) (Ptr, error) {
	var p Ptr
	if len(b) != Len {
		return p, errors.WithStack(ErrInvalidPointer)
	}
	copy(p[:], b)
	return p, nil
}

// String encodes p as 34 lowercase hex characters, byte 0 first.
func (p Ptr) String() string {
	return hex.EncodeToString(p[:])
}

// FromString decodes a 34-character hex string (either case) into a Ptr.
// Any deviation in length or character set returns ErrInvalidPointer.
func FromString(s string) (Ptr, error) {
	var p Ptr
	if len(s) != Len*2 {
		return p, errors.WithStack(ErrInvalidPointer)
	}

	n, err := hex.Decode(p[:], []byte(s))
	if err != nil || n != Len {
		return p, errors.WithStack(ErrInvalidPointer)
	}

	return p, nil
}
