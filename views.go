// views.go: key, value and entry views backed by a table
//
// Copyright (c) 2025 AGILira - A. Giordano
// Series: an AGILira fragment
// SPDX-License-Identifier: MPL-2.0

package reftable

import "iter"

// KeySet is a view of a table's keys. Removals through the view remove the
// mapping from the table. Insertion is not supported.
type KeySet[K, V any] struct {
	t *Table[K, V]
}

// Len returns the number of live keys.
func (s *KeySet[K, V]) Len() int { return s.t.Len() }

// Contains reports whether key is present.
func (s *KeySet[K, V]) Contains(key *K) bool { return s.t.ContainsKey(key) }

// Remove deletes key and reports whether it was present.
func (s *KeySet[K, V]) Remove(key *K) bool {
	_, ok := s.t.Remove(key)
	return ok
}

// Clear removes every mapping from the table.
func (s *KeySet[K, V]) Clear() { s.t.Clear() }

// Iterator returns a fresh fail-fast iterator over the keys.
func (s *KeySet[K, V]) Iterator() KeyIterator[K, V] {
	return KeyIterator[K, V]{newHashIterator(s.t)}
}

// All returns an iterator over the keys. See Table.All.
func (s *KeySet[K, V]) All() iter.Seq[*K] {
	return func(yield func(*K) bool) {
		for k := range s.t.All() {
			if !yield(k) {
				return
			}
		}
	}
}

// Slice returns the live keys. Holding the slice keeps the keys alive.
func (s *KeySet[K, V]) Slice() []*K {
	out := make([]*K, 0, s.Len())
	for k := range s.All() {
		out = append(out, k)
	}
	return out
}

// ValueCollection is a view of a table's values.
type ValueCollection[K, V any] struct {
	t *Table[K, V]
}

// Len returns the number of live mappings.
func (c *ValueCollection[K, V]) Len() int { return c.t.Len() }

// Contains reports whether some mapping holds a value equal to v.
func (c *ValueCollection[K, V]) Contains(v V) bool { return c.t.ContainsValue(v) }

// Remove deletes the first mapping found whose value equals v.
func (c *ValueCollection[K, V]) Remove(v V) bool {
	it := c.Iterator()
	for it.HasNext() {
		got, err := it.Next()
		if err != nil {
			return false
		}
		if c.t.ops.valueEqual(got, v) {
			return it.Remove() == nil
		}
	}
	return false
}

// Clear removes every mapping from the table.
func (c *ValueCollection[K, V]) Clear() { c.t.Clear() }

// Iterator returns a fresh fail-fast iterator over the values.
func (c *ValueCollection[K, V]) Iterator() ValueIterator[K, V] {
	return ValueIterator[K, V]{newHashIterator(c.t)}
}

// All returns an iterator over the values. See Table.All.
func (c *ValueCollection[K, V]) All() iter.Seq[V] {
	return func(yield func(V) bool) {
		for _, v := range c.t.All() {
			if !yield(v) {
				return
			}
		}
	}
}

// Slice returns the values of the live mappings.
func (c *ValueCollection[K, V]) Slice() []V {
	out := make([]V, 0, c.Len())
	for v := range c.All() {
		out = append(out, v)
	}
	return out
}

// EntrySet is a view of a table's mappings.
type EntrySet[K, V any] struct {
	t *Table[K, V]
}

// Len returns the number of live mappings.
func (s *EntrySet[K, V]) Len() int { return s.t.Len() }

// Contains reports whether key maps to a value equal to v.
func (s *EntrySet[K, V]) Contains(key *K, v V) bool {
	e := s.t.getEntry(key)
	return e != nil && s.t.ops.valueEqual(e.value, v)
}

// ContainsEntry is Contains for a MapEntry.
func (s *EntrySet[K, V]) ContainsEntry(me MapEntry[K, V]) bool {
	if me == nil {
		return false
	}
	return s.Contains(me.Key(), me.Value())
}

// Remove deletes key only if it maps to a value equal to v.
func (s *EntrySet[K, V]) Remove(key *K, v V) bool {
	return s.t.removeMapping(key, v)
}

// Clear removes every mapping from the table.
func (s *EntrySet[K, V]) Clear() { s.t.Clear() }

// Iterator returns a fresh fail-fast iterator over the entries.
func (s *EntrySet[K, V]) Iterator() EntryIterator[K, V] {
	return EntryIterator[K, V]{newHashIterator(s.t)}
}

// All returns an iterator over the entries. See Table.All.
func (s *EntrySet[K, V]) All() iter.Seq[*Entry[K, V]] {
	return func(yield func(*Entry[K, V]) bool) {
		it := newHashIterator(s.t)
		for it.HasNext() {
			e, err := it.nextEntry()
			if err != nil {
				panic(err)
			}
			if !yield(e) {
				return
			}
		}
	}
}

// Slice returns the live entries.
func (s *EntrySet[K, V]) Slice() []*Entry[K, V] {
	out := make([]*Entry[K, V], 0, s.Len())
	for e := range s.All() {
		out = append(out, e)
	}
	return out
}
