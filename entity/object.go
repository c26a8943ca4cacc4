package entity

import (
	"context"

	"github.com/cockroachdb/errors"

	"github.com/entitykv/entitykv/errs"
	"github.com/entitykv/entitykv/ptr"
	"github.com/entitykv/entitykv/storage"
)

// CreateObject generates a Ptr tagged OBJECT, writes the empty membership
// sentinel, and returns it (spec §4.4 obj_create).
func CreateObject(ctx context.Context, txn *storage.Txn, env *storage.Env) (ptr.Ptr, error) {
	return create(ctx, txn, env, ptr.Object)
}

// RegisterObject accepts a caller-supplied Ptr, requiring tag OBJECT and
// that the entity does not already exist (spec §4.4 obj_register).
func RegisterObject(txn *storage.Txn, p ptr.Ptr) error {
	return register(txn, p, ptr.Object)
}

// PutMember validates the name, inserts it into the membership set
// (treating an already-present name as success), then writes the payload
// row, overwriting any prior value (spec §4.4 obj_member_put).
func PutMember(txn *storage.Txn, p ptr.Ptr, name, value []byte) error {
	if err := assertTag(p, ptr.Object); err != nil {
		return err
	}
	if err := validateName(name); err != nil {
		return err
	}

	if err := txn.Put(storage.ArrKey(p, name), nil); err != nil {
		return err
	}

	return txn.Put(storage.MainKey(p, name), value)
}

// RegisterMember inserts name into the membership set only, leaving the
// payload row absent — a legal missing-value state (spec §4.4
// obj_member_register).
func RegisterMember(txn *storage.Txn, p ptr.Ptr, name []byte) error {
	if err := assertTag(p, ptr.Object); err != nil {
		return err
	}
	if err := validateName(name); err != nil {
		return err
	}

	return txn.Put(storage.ArrKey(p, name), nil)
}

// GetMember copies the value stored at name into outBuf and returns the
// number of bytes copied, or the spec §4.4 obj_member_get error taxonomy:
// ENTITY_NOT_FOUND, MEMBER_TOO_LONG, MEMBER_NOT_FOUND, or BUFFER_TOO_SMALL
// when outBuf cannot hold the value (confirmed as a real contract, not a C
// calling-convention artifact, by original_source/core/src/lmjcore.c's
// lmjcore_obj_member_get, which takes value_buf/value_buf_size and returns
// LMJCORE_ERROR_BUFFER_TOO_SMALL when the stored value overflows it).
func GetMember(txn *storage.Txn, p ptr.Ptr, name, outBuf []byte) (int, error) {
	if err := assertTag(p, ptr.Object); err != nil {
		return 0, err
	}

	exists, err := Exists(txn, p)
	if err != nil {
		return 0, err
	}
	if !exists {
		return 0, errs.Wrap(errs.ErrEntityNotFound)
	}

	if err := validateName(name); err != nil {
		return 0, err
	}

	v, err := txn.Get(storage.MainKey(p, name))
	if err != nil {
		if errors.Is(err, storage.ErrKeyNotFound) {
			return 0, errs.Wrap(errs.ErrMemberNotFound)
		}
		return 0, err
	}

	if len(outBuf) < len(v) {
		return 0, errs.Wrap(errs.ErrBufferTooSmall)
	}

	return copy(outBuf, v), nil
}

// MemberValueExists reports whether main[ptr‖name] holds a value, without
// requiring the member to be present in the membership set at all (used by
// the S3 scenario's member_value_exist probe).
func MemberValueExists(txn *storage.Txn, p ptr.Ptr, name []byte) (bool, error) {
	if err := assertTag(p, ptr.Object); err != nil {
		return false, err
	}
	return txn.Exists(storage.MainKey(p, name))
}

// DeleteMemberValue removes main[ptr‖name] only, transitioning the member
// to the missing-value state (spec §4.4 obj_member_value_del).
func DeleteMemberValue(txn *storage.Txn, p ptr.Ptr, name []byte) error {
	if err := assertTag(p, ptr.Object); err != nil {
		return err
	}
	return txn.Delete(storage.MainKey(p, name))
}

// DeleteMember deletes main[ptr‖name] if present, then removes name from
// the membership set (spec §4.4 obj_member_del). Payload before membership,
// same order as DeleteObject: if the second delete fails, the name is left
// registered without a value (the legal missing-value state), never as a
// ghost-member row.
func DeleteMember(txn *storage.Txn, p ptr.Ptr, name []byte) error {
	if err := assertTag(p, ptr.Object); err != nil {
		return err
	}

	if err := txn.Delete(storage.MainKey(p, name)); err != nil {
		return err
	}
	return txn.Delete(storage.ArrKey(p, name))
}

// DeleteObject enumerates arr[ptr], deletes every main[ptr‖name], then
// removes the membership key entirely. Each payload row is deleted before
// its membership row and the sentinel is removed last, so a failure part
// way through leaves at most one name registered without a value (the
// legal missing-value state) and no ghost-member rows (spec §4.4 obj_del,
// §9).
func DeleteObject(txn *storage.Txn, p ptr.Ptr) error {
	if err := assertTag(p, ptr.Object); err != nil {
		return err
	}

	prefix := storage.ArrPrefix(p)
	var names [][]byte
	err := txn.Iterate(prefix, storage.PrefixUpperBound(prefix), func(key, _ []byte) (bool, error) {
		suffix := storage.SuffixFromArrKey(key)
		if isSentinel(suffix) {
			return true, nil
		}
		cp := make([]byte, len(suffix))
		copy(cp, suffix)
		names = append(names, cp)
		return true, nil
	})
	if err != nil {
		return err
	}

	for _, name := range names {
		if err := txn.Delete(storage.MainKey(p, name)); err != nil {
			return err
		}
		if err := txn.Delete(storage.ArrKey(p, name)); err != nil {
			return err
		}
	}

	return txn.Delete(prefix)
}

// ListMembers reuses the bulk-read engine to materialize an object's member
// names (and, incidentally, their values) into buf (spec §4.4
// obj_member_list).
func ListMembers(txn *storage.Txn, p ptr.Ptr, buf []byte) (*ObjectResult, error) {
	return ReadObject(txn, p, buf)
}

// StatValues scans main for keys with prefix ptr and sums value length and
// count. The result may include ghost-member rows; callers that need an
// authoritative count should use StatMembers instead (spec §4.4
// obj_stat_values).
func StatValues(txn *storage.Txn, p ptr.Ptr) (totalBytes, count int, err error) {
	if err := assertTag(p, ptr.Object); err != nil {
		return 0, 0, err
	}

	prefix := storage.MainPrefix(p)
	err = txn.Iterate(prefix, storage.PrefixUpperBound(prefix), func(_, value []byte) (bool, error) {
		totalBytes += len(value)
		count++
		return true, nil
	})
	if err != nil {
		return 0, 0, err
	}
	return totalBytes, count, nil
}

// StatMembers scans arr[ptr] duplicates (excluding the sentinel) and sums
// name length and count (spec §4.4 obj_stat_members, §4.7).
func StatMembers(txn *storage.Txn, p ptr.Ptr) (totalBytes, count int, err error) {
	if err := assertTag(p, ptr.Object); err != nil {
		return 0, 0, err
	}

	prefix := storage.ArrPrefix(p)
	err = txn.Iterate(prefix, storage.PrefixUpperBound(prefix), func(key, _ []byte) (bool, error) {
		suffix := storage.SuffixFromArrKey(key)
		if isSentinel(suffix) {
			return true, nil
		}
		totalBytes += len(suffix)
		count++
		return true, nil
	})
	if err != nil {
		return 0, 0, err
	}
	return totalBytes, count, nil
}
