// Package entity implements the entity lifecycle operations of spec §4.3-
// §4.5 — object and array create/register/put/get/delete, stats, and the
// type-tag assertions every operation performs before touching storage —
// on top of the dual-database schema the storage package exposes.
package entity

import (
	"context"

	"github.com/entitykv/entitykv/errs"
	"github.com/entitykv/entitykv/ptr"
	"github.com/entitykv/entitykv/storage"
)

// MaxMemberNameLen is the largest member name the main sub-store's 511-byte
// key limit allows once the 17-byte Ptr and the sub-store tag are
// subtracted: 511 - 17 - 1.
const MaxMemberNameLen = 493

// MaxReadErrors bounds the inline soft-error slots carried by a Result
// header (spec §4.6, §6.2).
const MaxReadErrors = 8

func assertTag(p ptr.Ptr, want ptr.Tag) error {
	if !p.Is(want) {
		return errs.Wrap(errs.ErrInvalidParam)
	}
	return nil
}

func validateName(name []byte) error {
	if len(name) < 1 || len(name) > MaxMemberNameLen {
		return errs.Wrap(errs.ErrMemberTooLong)
	}
	return nil
}

// Exists probes the arr sub-store's membership key, spec §4.3: present iff
// the key exists, possibly holding only the empty sentinel.
func Exists(txn *storage.Txn, p ptr.Ptr) (bool, error) {
	return txn.Exists(storage.ArrKey(p, nil))
}

func create(ctx context.Context, txn *storage.Txn, env *storage.Env, tag ptr.Tag) (ptr.Ptr, error) {
	id, err := env.Generator().Generate(ctx)
	if err != nil {
		return ptr.Ptr{}, err
	}
	p := id.WithTag(tag)

	if err := txn.Put(storage.ArrKey(p, nil), nil); err != nil {
		return ptr.Ptr{}, err
	}

	return p, nil
}

func register(txn *storage.Txn, p ptr.Ptr, tag ptr.Tag) error {
	if err := assertTag(p, tag); err != nil {
		return err
	}

	exists, err := Exists(txn, p)
	if err != nil {
		return err
	}
	if exists {
		return errs.Wrap(errs.ErrEntityExists)
	}

	return txn.Put(storage.ArrKey(p, nil), nil)
}

// isSentinel reports whether an arr-sub-store suffix is the zero-length
// membership sentinel written by create/register, which must never surface
// in member/element iteration, counts, or bulk reads (spec §3's
// membership invariant combined with §8 invariant 1).
func isSentinel(suffix []byte) bool {
	return len(suffix) == 0
}
