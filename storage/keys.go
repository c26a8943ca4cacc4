package storage

import (
	"github.com/entitykv/entitykv/ptr"
)

// The two logical sub-stores described in spec §3/§6.1 share one physical
// pebble keyspace. Every physical key starts with one of these tag bytes,
// the same namespacing trick the teacher's internal/kv/helpers.go uses to
// fit multiple logical stores ("s\x1fname...") inside one pebble instance.
const (
	mainTag byte = 'M'
	arrTag  byte = 'A'
)

// MainKey builds the physical main key for a member row: tag + Ptr + name.
func MainKey(p ptr.Ptr, name []byte) []byte {
	k := make([]byte, 0, 1+ptr.Len+len(name))
	k = append(k, mainTag)
	k = append(k, p[:]...)
	k = append(k, name...)
	return k
}

// MainPrefix builds the physical key prefix that matches every main row
// belonging to p, used for prefix scans (obj_stat_values, audit).
func MainPrefix(p ptr.Ptr) []byte {
	k := make([]byte, 0, 1+ptr.Len)
	k = append(k, mainTag)
	k = append(k, p[:]...)
	return k
}

// NameFromMainKey strips the tag+Ptr prefix from a physical main key,
// returning the member name suffix.
func NameFromMainKey(key []byte) []byte {
	return key[1+ptr.Len:]
}

// PtrFromMainKey extracts the Ptr embedded in a physical main key.
func PtrFromMainKey(key []byte) ptr.Ptr {
	var p ptr.Ptr
	copy(p[:], key[1:1+ptr.Len])
	return p
}

// ArrKey builds the physical key for one duplicate-value row in the arr
// sub-store: tag + Ptr + suffix. A zero-length suffix is the sentinel row
// written by create/register (spec §3, §6.1).
func ArrKey(p ptr.Ptr, suffix []byte) []byte {
	k := make([]byte, 0, 1+ptr.Len+len(suffix))
	k = append(k, arrTag)
	k = append(k, p[:]...)
	k = append(k, suffix...)
	return k
}

// ArrPrefix builds the physical key prefix that matches every row in the
// arr sub-store's duplicate set for p (including the sentinel).
func ArrPrefix(p ptr.Ptr) []byte {
	k := make([]byte, 0, 1+ptr.Len)
	k = append(k, arrTag)
	k = append(k, p[:]...)
	return k
}

// SuffixFromArrKey strips the tag+Ptr prefix from a physical arr key,
// returning the member-name or element suffix (empty for the sentinel).
func SuffixFromArrKey(key []byte) []byte {
	return key[1+ptr.Len:]
}

// AllMainRange returns the [lower, upper) bounds that match every key in
// the main sub-store, for whole-database sweeps (e.g. ghost-object scans).
func AllMainRange() (lower, upper []byte) {
	lower = []byte{mainTag}
	return lower, PrefixUpperBound(lower)
}

// PrefixUpperBound returns the smallest key that is strictly greater than
// every key sharing prefix, suitable as a pebble IterOptions.UpperBound.
// It returns nil if prefix is all 0xFF bytes (no finite upper bound needed).
func PrefixUpperBound(prefix []byte) []byte {
	end := make([]byte, len(prefix))
	copy(end, prefix)

	for i := len(end) - 1; i >= 0; i-- {
		if end[i] == 0xFF {
			continue
		}
		end[i]++
		return end[:i+1]
	}

	return nil
}
