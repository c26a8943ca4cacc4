// Package configobj is a thin convenience wrapper around a single object
// entity addressed by a fixed, well-known Ptr, the "config object at a
// fixed identifier" spec.md §1 lists as an external collaborator rather
// than core. It exists so an application can keep small amounts of
// configuration alongside its entities without inventing a second storage
// mechanism.
package configobj

import (
	"github.com/cockroachdb/errors"

	"github.com/entitykv/entitykv/entity"
	"github.com/entitykv/entitykv/errs"
	"github.com/entitykv/entitykv/ptr"
	"github.com/entitykv/entitykv/storage"
)

// getInitialBufSize is the starting guess for a config value's size; Get
// doubles it and retries on BUFFER_TOO_SMALL rather than requiring callers
// to size a buffer themselves.
const getInitialBufSize = 256

// Ptr is the fixed, well-known identifier every configobj call addresses.
// Its body is the all-zero 16 bytes; callers never generate or choose it.
var Ptr = ptr.New(ptr.Object, [16]byte{})

// Ensure registers the config object if it does not already exist. It is
// idempotent: calling it on an already-registered config object is a
// no-op, not ENTITY_EXISTS.
func Ensure(txn *storage.Txn) error {
	exists, err := entity.Exists(txn, Ptr)
	if err != nil {
		return err
	}
	if exists {
		return nil
	}

	return entity.RegisterObject(txn, Ptr)
}

// Get returns the value of config key name, growing its read buffer and
// retrying until entity.GetMember no longer reports BUFFER_TOO_SMALL.
func Get(txn *storage.Txn, name []byte) ([]byte, error) {
	buf := make([]byte, getInitialBufSize)
	for {
		n, err := entity.GetMember(txn, Ptr, name, buf)
		if err == nil {
			return buf[:n], nil
		}
		if !errors.Is(err, errs.ErrBufferTooSmall) {
			return nil, err
		}
		buf = make([]byte, len(buf)*2)
	}
}

// Set writes the value of config key name, creating the config object
// first if it does not yet exist.
func Set(txn *storage.Txn, name, value []byte) error {
	if err := Ensure(txn); err != nil {
		return err
	}
	return entity.PutMember(txn, Ptr, name, value)
}

// Delete removes config key name, leaving the config object itself intact.
func Delete(txn *storage.Txn, name []byte) error {
	return entity.DeleteMember(txn, Ptr, name)
}
