// hash.go: key hashing strategies and hash mixing
//
// Copyright (c) 2025 AGILira - A. Giordano
// Series: an AGILira fragment
// SPDX-License-Identifier: MPL-2.0

package reftable

import (
	"fmt"
	"hash/fnv"
	"hash/maphash"
	"reflect"
)

// hashSeed is shared by every hasher in the process so that equal keys hash
// equally across tables (Clone relies on it).
var hashSeed = maphash.MakeSeed()

// Hasher decides how a table hashes and compares keys.
//
// Implementations must be consistent: Equal(a, b) implies Hash(a) == Hash(b).
// Neither method is called with a nil key.
type Hasher[K any] interface {
	Hash(key *K) uint64
	Equal(a, b *K) bool
}

// IdentityHasher compares keys by pointer identity. It is the default.
type IdentityHasher[K any] struct{}

// Hash hashes the pointer value itself.
func (IdentityHasher[K]) Hash(key *K) uint64 {
	return maphash.Comparable(hashSeed, key)
}

// Equal reports whether a and b are the same pointer.
func (IdentityHasher[K]) Equal(a, b *K) bool {
	return a == b
}

// ValueHasher compares keys by the content they point to. Two distinct
// pointers to equal values address the same entry.
type ValueHasher[K comparable] struct{}

// Hash hashes the pointed-to value.
func (ValueHasher[K]) Hash(key *K) uint64 {
	return maphash.Comparable(hashSeed, *key)
}

// Equal reports whether *a == *b.
func (ValueHasher[K]) Equal(a, b *K) bool {
	return a == b || *a == *b
}

// spread folds a 64-bit hash to 32 bits and applies the supplemental mixing
// step. Bucket indexing masks the low bits, so poor hashes that differ only
// in their high bits would otherwise collide.
func spread(h uint64) uint32 {
	x := uint32(h ^ h>>32)
	x += ^(x << 9)
	x ^= x >> 14
	x += x << 4
	x ^= x >> 10
	return x
}

// indexFor returns the bucket index of hash h in a table of length n.
// n is always a power of two.
func indexFor(h uint32, n int) int {
	return int(h) & (n - 1)
}

// isNil reports whether v is nil, including typed nils held in an interface.
func isNil(v any) bool {
	if v == nil {
		return true
	}
	rv := reflect.ValueOf(v)
	switch rv.Kind() {
	case reflect.Pointer, reflect.Map, reflect.Slice, reflect.Func, reflect.Chan, reflect.Interface, reflect.UnsafePointer:
		return rv.IsNil()
	}
	return false
}

// defaultValueEqual compares values with reflect.DeepEqual. Two nil values
// are equal.
func defaultValueEqual[V any](a, b V) bool {
	return reflect.DeepEqual(a, b)
}

// defaultValueHash hashes the printed form of v with FNV-1a. nil hashes to 0.
func defaultValueHash[V any](v V) uint32 {
	if isNil(v) {
		return 0
	}
	h := fnv.New32a()
	_, _ = fmt.Fprintf(h, "%v", v)
	return h.Sum32()
}
