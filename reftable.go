// Package reftable provides hash tables whose entries disappear once their
// key is no longer reachable from outside the table.
//
// A Table holds its keys through weak pointers and its values strongly.
// When the garbage collector reclaims a key, the runtime reports the entry
// on the table's notification queue and the table unlinks it lazily, at the
// start of the next size-affecting operation.
//
// Two reclamation strengths are available:
//
//	weak := reftable.Must(reftable.New[Session, *Conn](reftable.DefaultConfig()))
//
//	soft := reftable.Must(reftable.New[Session, *Conn](reftable.Config{
//		LoadFactor:   reftable.DefaultLoadFactor,
//		Strength:     reftable.Soft,
//		SoftPinLimit: 1_000,
//	}))
//
// Copyright (c) 2025 AGILira - A. Giordano
// Series: an AGILira fragment
// SPDX-License-Identifier: MPL-2.0

package reftable

const (
	// Version of the reftable library
	Version = "v0.1.0-dev"

	// DefaultInitialCapacity is the bucket count used when Config.InitialCapacity is 0
	DefaultInitialCapacity = 16

	// MaximumCapacity is the largest bucket array a table will allocate
	MaximumCapacity = 1 << 30

	// DefaultLoadFactor is used when Config.LoadFactor is 0
	DefaultLoadFactor = 0.75

	// DefaultSoftPinLimit bounds the number of keys a Soft table keeps pinned
	DefaultSoftPinLimit = 4096

	// revertDivisor controls when a resize that mostly shed reclaimed
	// entries is rolled back: count < threshold/revertDivisor.
	revertDivisor = 2
)

// Must panics if err is non-nil and returns t otherwise.
func Must[K, V any](t *Table[K, V], err error) *Table[K, V] {
	if err != nil {
		panic(err)
	}
	return t
}
