// Package errs defines the numeric error taxonomy returned by the core
// entity operations, alongside the cockroachdb/errors stack-trace wrapping
// used throughout the module.
package errs

import (
	"fmt"

	"github.com/cockroachdb/errors"
)

// Errno is a negative integer error code drawn from the fixed taxonomy
// below. Success is always represented by a nil error, never by an Errno
// value of 0.
type Errno int32

// The taxonomy, grouped the way spec §7 groups them.
const (
	// param band
	InvalidParam   Errno = -1
	NullPointer    Errno = -2
	InvalidPointer Errno = -3
	MemberTooLong  Errno = -4
	BufferTooSmall Errno = -5

	// txn band
	ReadOnlyTxn    Errno = -6
	ReadOnlyParent Errno = -7

	// entity band
	EntityNotFound      Errno = -8
	EntityExists        Errno = -9
	EntityTypeMismatch  Errno = -10

	// member band
	MemberNotFound Errno = -11
	MemberExists   Errno = -12
	MemberMissing  Errno = -13

	// resource band
	MemoryAllocationFailed Errno = -14

	// audit band (informational)
	GhostMember Errno = -15
)

var names = map[Errno]string{
	InvalidParam:           "invalid parameter",
	NullPointer:            "null pointer",
	InvalidPointer:         "invalid pointer",
	MemberTooLong:          "member name too long",
	BufferTooSmall:         "buffer too small",
	ReadOnlyTxn:            "transaction is read-only",
	ReadOnlyParent:         "read-only transaction cannot be a parent",
	EntityNotFound:         "entity not found",
	EntityExists:           "entity already exists",
	EntityTypeMismatch:     "entity type mismatch",
	MemberNotFound:         "member not found",
	MemberExists:           "member already exists",
	MemberMissing:          "member value missing",
	MemoryAllocationFailed: "memory allocation failed",
	GhostMember:            "ghost member",
}

// StrError maps a core Errno to a human-readable string. Codes outside the
// taxonomy, backend codes included, map to "unknown error (N)".
func StrError(code Errno) string {
	if s, ok := names[code]; ok {
		return s
	}
	return fmt.Sprintf("unknown error (%d)", int32(code))
}

// Error is a sentinel carrying an Errno. Core functions wrap it with
// errors.WithStack at the call site that detects the failure, exactly like
// the teacher wraps its own sentinels.
type Error struct {
	code Errno
}

// New creates a sentinel Error for the given code.
func New(code Errno) *Error {
	return &Error{code: code}
}

func (e *Error) Error() string {
	return StrError(e.code)
}

// Code returns the Errno carried by e.
func (e *Error) Code() Errno {
	return e.code
}

// Is lets errors.Is match two *Error values that share the same code, so
// callers can compare against the exported sentinels below regardless of
// how many times the error has been wrapped.
func (e *Error) Is(target error) bool {
	other, ok := target.(*Error)
	if !ok {
		return false
	}
	return e.code == other.code
}

// Sentinels, one per taxonomy entry, wrapped with a stack trace at the
// point of use via errors.WithStack(errs.ErrXxx).
var (
	ErrInvalidParam           = New(InvalidParam)
	ErrNullPointer            = New(NullPointer)
	ErrInvalidPointer         = New(InvalidPointer)
	ErrMemberTooLong          = New(MemberTooLong)
	ErrBufferTooSmall         = New(BufferTooSmall)
	ErrReadOnlyTxn            = New(ReadOnlyTxn)
	ErrReadOnlyParent         = New(ReadOnlyParent)
	ErrEntityNotFound         = New(EntityNotFound)
	ErrEntityExists           = New(EntityExists)
	ErrEntityTypeMismatch     = New(EntityTypeMismatch)
	ErrMemberNotFound         = New(MemberNotFound)
	ErrMemberExists           = New(MemberExists)
	ErrMemberMissing          = New(MemberMissing)
	ErrMemoryAllocationFailed = New(MemoryAllocationFailed)
	ErrGhostMember            = New(GhostMember)
)

// Code extracts the Errno carried by err, walking the error chain with
// errors.As. It returns ok=false for backend-native errors that were passed
// through verbatim, per spec §7's "backend pass-through" band.
func Code(err error) (code Errno, ok bool) {
	var e *Error
	if errors.As(err, &e) {
		return e.code, true
	}
	return 0, false
}

// Wrap attaches a stack trace to a core sentinel, the same convention the
// teacher's kv layer uses for its own ErrXxx sentinels.
func Wrap(err *Error) error {
	return errors.WithStack(err)
}
