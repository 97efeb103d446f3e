// entry.go: table entries and their reclaimable key references
//
// Copyright (c) 2025 AGILira - A. Giordano
// Series: an AGILira fragment
// SPDX-License-Identifier: MPL-2.0

package reftable

import (
	"fmt"
	"runtime"
	"weak"
)

// MapEntry is a key/value pair as seen from outside a table.
type MapEntry[K, V any] interface {
	Key() *K
	Value() V
}

// keyRef holds an entry's key without keeping it alive. A literal nil key
// is represented by null and never clears.
type keyRef[K any] struct {
	ptr  weak.Pointer[K]
	null bool
}

// get returns the key, or nil if it is the nil key or has been collected.
func (r keyRef[K]) get() *K {
	if r.null {
		return nil
	}
	return r.ptr.Value()
}

// cleared reports whether the runtime has collected the key.
func (r keyRef[K]) cleared() bool {
	return !r.null && r.ptr.Value() == nil
}

// entryOps carries the comparison strategy of the owning table. Entries
// reference it instead of the table so that a pending cleanup never keeps
// the table, and through its pin set the key, reachable.
type entryOps[K, V any] struct {
	hasher     Hasher[K]
	valueEqual func(a, b V) bool
	valueHash  func(v V) uint32
}

// Entry is a node of a bucket chain.
//
// The key is held weakly and the value strongly. A value that references
// its own key keeps the key reachable and the entry is never reclaimed.
type Entry[K, V any] struct {
	key   keyRef[K]
	value V
	hash  uint32
	next  *Entry[K, V]
	ops   *entryOps[K, V]

	cleanup runtime.Cleanup
	armed   bool // cleanup registered and not yet stopped
}

// Key returns the entry's key. It returns nil for the nil key and for a key
// that has already been collected.
func (e *Entry[K, V]) Key() *K {
	return e.key.get()
}

// Value returns the entry's value.
func (e *Entry[K, V]) Value() V {
	return e.value
}

// SetValue replaces the value in place and returns the previous one.
// It does not count as a structural modification.
func (e *Entry[K, V]) SetValue(v V) V {
	old := e.value
	e.value = v
	return old
}

// Cleared reports whether the entry's key has been collected.
func (e *Entry[K, V]) Cleared() bool {
	return e.key.cleared()
}

// Equal reports whether o has an equal key and an equal value. Keys compare
// with the table's Hasher; two absent keys are equal.
func (e *Entry[K, V]) Equal(o MapEntry[K, V]) bool {
	if o == nil {
		return false
	}
	k1, k2 := e.Key(), o.Key()
	switch {
	case k1 == nil && k2 == nil:
	case k1 == nil || k2 == nil:
		return false
	case !e.ops.hasher.Equal(k1, k2):
		return false
	}
	return e.ops.valueEqual(e.value, o.Value())
}

// HashCode returns the key hash XOR the value hash. An absent key and a nil
// value both contribute 0.
func (e *Entry[K, V]) HashCode() uint32 {
	var kh uint32
	if k := e.Key(); k != nil {
		h := e.ops.hasher.Hash(k)
		kh = uint32(h ^ h>>32)
	}
	return kh ^ e.ops.valueHash(e.value)
}

// String renders the entry as key=value.
func (e *Entry[K, V]) String() string {
	k := e.Key()
	if k == nil {
		return fmt.Sprintf("<nil>=%v", e.value)
	}
	return fmt.Sprintf("%v=%v", *k, e.value)
}
