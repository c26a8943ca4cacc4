package entity

import (
	"context"

	"github.com/entitykv/entitykv/ptr"
	"github.com/entitykv/entitykv/storage"
)

// CreateArray generates a Ptr tagged ARRAY and writes the empty membership
// sentinel (spec §4.5 arr_create).
func CreateArray(ctx context.Context, txn *storage.Txn, env *storage.Env) (ptr.Ptr, error) {
	return create(ctx, txn, env, ptr.Array)
}

// RegisterArray accepts a caller-supplied Ptr, requiring tag ARRAY and that
// the entity does not already exist.
func RegisterArray(txn *storage.Txn, p ptr.Ptr) error {
	return register(txn, p, ptr.Array)
}

// AppendElement inserts value into arr[ptr] as a duplicate row. Because
// duplicates are unique-by-value, re-appending an equal element is a
// silent no-op rather than ENTITY_EXISTS, per the spec's own ordered-set
// recommendation (spec §4.5 arr_append, §9 open question).
func AppendElement(txn *storage.Txn, p ptr.Ptr, value []byte) error {
	if err := assertTag(p, ptr.Array); err != nil {
		return err
	}
	return txn.Put(storage.ArrKey(p, value), nil)
}

// DeleteElement removes the matching duplicate from arr[ptr] (spec §4.5
// arr_element_del). Deleting an element that was never present is not an
// error, matching DeleteMember's tolerance of an absent row.
func DeleteElement(txn *storage.Txn, p ptr.Ptr, value []byte) error {
	if err := assertTag(p, ptr.Array); err != nil {
		return err
	}
	return txn.Delete(storage.ArrKey(p, value))
}

// DeleteArray removes the entire arr[ptr] key, all duplicates included
// (spec §4.5 arr_del). Elements are deleted one at a time, rather than via
// a single range delete, so the operation works the same whether it runs
// in a top-level or a nested write transaction.
func DeleteArray(txn *storage.Txn, p ptr.Ptr) error {
	if err := assertTag(p, ptr.Array); err != nil {
		return err
	}

	prefix := storage.ArrPrefix(p)
	var keys [][]byte
	err := txn.Iterate(prefix, storage.PrefixUpperBound(prefix), func(key, _ []byte) (bool, error) {
		cp := make([]byte, len(key))
		copy(cp, key)
		keys = append(keys, cp)
		return true, nil
	})
	if err != nil {
		return err
	}

	for _, key := range keys {
		if err := txn.Delete(key); err != nil {
			return err
		}
	}
	return nil
}

// StatElements walks arr[ptr] (excluding the sentinel) and returns total
// bytes and count (spec §4.5 arr_stat_element).
func StatElements(txn *storage.Txn, p ptr.Ptr) (totalBytes, count int, err error) {
	if err := assertTag(p, ptr.Array); err != nil {
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
