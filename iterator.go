// iterator.go: fail-fast iterators over a table
//
// Copyright (c) 2025 AGILira - A. Giordano
// Series: an AGILira fragment
// SPDX-License-Identifier: MPL-2.0

package reftable

// hashIterator walks the buckets from the highest index down and each chain
// front to back, skipping entries whose key is gone. The key of the entry
// about to be returned is held in nextKey so it cannot be collected between
// HasNext and Next.
type hashIterator[K, V any] struct {
	t        *Table[K, V]
	index    int
	entry    *Entry[K, V] // candidate for the next call to Next
	last     *Entry[K, V] // returned by the previous call to Next
	expected int

	nextKey *K
	ready   bool // entry is live and nextKey holds its key
	current *K   // key of last
}

func newHashIterator[K, V any](t *Table[K, V]) *hashIterator[K, V] {
	it := &hashIterator[K, V]{t: t}
	if t.Len() != 0 {
		it.index = len(t.buckets)
	}
	it.expected = t.modCount
	return it
}

// HasNext reports whether another live entry remains.
func (it *hashIterator[K, V]) HasNext() bool {
	for !it.ready {
		buckets := it.t.buckets
		e, i := it.entry, it.index
		if i > len(buckets) {
			i = len(buckets)
		}
		for e == nil && i > 0 {
			i--
			e = buckets[i]
		}
		it.entry, it.index = e, i
		if e == nil {
			return false
		}
		if e.key.null {
			it.nextKey, it.ready = nil, true
		} else if k := e.key.ptr.Value(); k != nil {
			it.nextKey, it.ready = k, true
		} else {
			it.entry = e.next
		}
	}
	return true
}

func (it *hashIterator[K, V]) nextEntry() (*Entry[K, V], error) {
	if it.t.modCount != it.expected {
		return nil, NewErrConcurrentModification(it.expected, it.t.modCount)
	}
	if !it.ready && !it.HasNext() {
		return nil, NewErrNoSuchElement("Next")
	}
	it.last = it.entry
	it.entry = it.entry.next
	it.current = it.nextKey
	it.nextKey, it.ready = nil, false
	return it.last, nil
}

// Remove deletes the entry returned by the previous call to Next. It fails
// if Next has not been called, if Remove was already called for that entry,
// or if the table was modified other than through this iterator.
func (it *hashIterator[K, V]) Remove() error {
	if it.last == nil {
		return NewErrIllegalState("Remove")
	}
	if it.t.modCount != it.expected {
		return NewErrConcurrentModification(it.expected, it.t.modCount)
	}
	it.t.removeEntry(it.last)
	it.expected = it.t.modCount
	it.last = nil
	it.current = nil
	return nil
}

// KeyIterator iterates over the keys of a table. The nil key is returned
// as nil.
type KeyIterator[K, V any] struct {
	*hashIterator[K, V]
}

// Next returns the next key.
func (it KeyIterator[K, V]) Next() (*K, error) {
	if _, err := it.nextEntry(); err != nil {
		return nil, err
	}
	return it.current, nil
}

// ValueIterator iterates over the values of a table.
type ValueIterator[K, V any] struct {
	*hashIterator[K, V]
}

// Next returns the next value.
func (it ValueIterator[K, V]) Next() (V, error) {
	e, err := it.nextEntry()
	if err != nil {
		var zero V
		return zero, err
	}
	return e.value, nil
}

// EntryIterator iterates over the entries of a table.
type EntryIterator[K, V any] struct {
	*hashIterator[K, V]
}

// Next returns the next entry. The entry's key stays reachable until the
// following call to Next or Remove; callers that need it longer must keep
// the pointer returned by Entry.Key.
func (it EntryIterator[K, V]) Next() (*Entry[K, V], error) {
	return it.nextEntry()
}
