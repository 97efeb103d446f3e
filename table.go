// table.go: hash table with reclaimable keys
//
// Copyright (c) 2025 AGILira - A. Giordano
// Series: an AGILira library
// SPDX-License-Identifier: MPL-2.0

package reftable

import (
	"iter"
	"math"
	"runtime"
	"strings"
	"weak"
)

// Table maps keys of type *K to values of type V without keeping the keys
// alive. Once nothing outside the table references a key, the garbage
// collector reclaims it and the table drops the entry at the start of its
// next size-affecting operation.
//
// A Table is not safe for concurrent use. Callers must serialize every
// operation, including reads, which may unlink reclaimed entries. The
// runtime reports reclaimed keys concurrently; that path is lock-free and
// needs no external synchronization.
//
// Keys passed to a table should be heap allocated. Pointers to package
// level variables or to small pointer-free objects batched by the allocator
// may never be reported as reclaimed.
type Table[K, V any] struct {
	buckets    []*Entry[K, V]
	count      int
	threshold  int
	loadFactor float64
	modCount   int

	strength  Strength
	queue     *notifyQueue[Entry[K, V]]
	pins      *pinSet
	ops       *entryOps[K, V]
	onReclaim func(V)

	config  Config
	logger  Logger
	metrics MetricsCollector

	keySet  *KeySet[K, V]
	values  *ValueCollection[K, V]
	entries *EntrySet[K, V]

	stats tableStats
}

type tableStats struct {
	puts        uint64
	replaces    uint64
	removes     uint64
	reclaimed   uint64
	resizes     uint64
	reverts     uint64
	lastReclaim int64
}

// Option customizes a Table.
type Option[K, V any] func(*tableOptions[K, V])

type tableOptions[K, V any] struct {
	hasher     Hasher[K]
	valueEqual func(a, b V) bool
	valueHash  func(v V) uint32
	onReclaim  func(V)
}

// WithHasher sets how keys are hashed and compared. The default is
// IdentityHasher.
func WithHasher[K, V any](h Hasher[K]) Option[K, V] {
	return func(o *tableOptions[K, V]) {
		if h != nil {
			o.hasher = h
		}
	}
}

// WithValueEqual sets the value equality used by ContainsValue, value
// removal and Entry.Equal. The default is reflect.DeepEqual.
func WithValueEqual[K, V any](eq func(a, b V) bool) Option[K, V] {
	return func(o *tableOptions[K, V]) {
		if eq != nil {
			o.valueEqual = eq
		}
	}
}

// WithValueHash sets the value hash used by Entry.HashCode. The default
// hashes the printed value with FNV-1a.
func WithValueHash[K, V any](h func(V) uint32) Option[K, V] {
	return func(o *tableOptions[K, V]) {
		if h != nil {
			o.valueHash = h
		}
	}
}

// WithOnReclaim registers fn to receive the value of every entry dropped
// because its key was collected. fn runs on the goroutine operating on the
// table and must not call back into it.
func WithOnReclaim[K, V any](fn func(V)) Option[K, V] {
	return func(o *tableOptions[K, V]) {
		o.onReclaim = fn
	}
}

// New creates a table from a validated cfg; see Config.Validate for the
// rules. A zero LoadFactor is rejected, so start from DefaultConfig.
//
// Example:
//
//	cfg := reftable.DefaultConfig()
//	cfg.InitialCapacity = 64
//	cfg.Strength = reftable.Soft
//	t, err := reftable.New[Session, *Conn](cfg)
func New[K, V any](cfg Config, opts ...Option[K, V]) (*Table[K, V], error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	o := tableOptions[K, V]{
		hasher:     IdentityHasher[K]{},
		valueEqual: defaultValueEqual[V],
		valueHash:  defaultValueHash[V],
	}
	for _, opt := range opts {
		opt(&o)
	}

	ops := &entryOps[K, V]{
		hasher:     o.hasher,
		valueEqual: o.valueEqual,
		valueHash:  o.valueHash,
	}
	return newTable(cfg, ops, o.onReclaim)
}

// newTable builds a table from a validated configuration.
func newTable[K, V any](cfg Config, ops *entryOps[K, V], onReclaim func(V)) (*Table[K, V], error) {
	capacity := tableSizeFor(cfg.InitialCapacity)
	t := &Table[K, V]{
		buckets:    make([]*Entry[K, V], capacity),
		threshold:  thresholdFor(capacity, cfg.LoadFactor),
		loadFactor: cfg.LoadFactor,
		strength:   cfg.Strength,
		queue:      newNotifyQueue[Entry[K, V]](),
		ops:        ops,
		onReclaim:  onReclaim,
		config:     cfg,
		logger:     cfg.Logger,
		metrics:    cfg.MetricsCollector,
	}

	if cfg.Strength == Soft {
		pins, err := newPinSet(cfg.SoftPinLimit)
		if err != nil {
			return nil, err
		}
		t.pins = pins
		if cfg.PressureMonitor != nil {
			cfg.PressureMonitor.register(pins)
		}
	}
	return t, nil
}

// hashOf returns the mixed hash of key. The nil key hashes as 0.
func (t *Table[K, V]) hashOf(key *K) uint32 {
	if key == nil {
		return spread(0)
	}
	return spread(t.ops.hasher.Hash(key))
}

// matches reports whether e holds key. A cleared entry matches nothing.
func (t *Table[K, V]) matches(e *Entry[K, V], key *K) bool {
	if key == nil {
		return e.key.null
	}
	if e.key.null {
		return false
	}
	k := e.key.ptr.Value()
	if k == nil {
		return false
	}
	return k == key || t.ops.hasher.Equal(k, key)
}

// getEntry returns the live entry holding key, or nil.
func (t *Table[K, V]) getEntry(key *K) *Entry[K, V] {
	h := t.hashOf(key)
	t.expunge()
	for e := t.buckets[indexFor(h, len(t.buckets))]; e != nil; e = e.next {
		if e.hash == h && t.matches(e, key) {
			return e
		}
	}
	return nil
}

// newEntry creates an entry for key and arms its reclamation.
func (t *Table[K, V]) newEntry(key *K, value V, h uint32, next *Entry[K, V]) *Entry[K, V] {
	e := &Entry[K, V]{value: value, hash: h, next: next, ops: t.ops}
	if key == nil {
		e.key = keyRef[K]{null: true}
		return e
	}
	e.key = keyRef[K]{ptr: weak.Make(key)}
	e.cleanup = runtime.AddCleanup(key, t.queue.push, e)
	e.armed = true
	if t.pins != nil {
		t.pins.pin(e, key)
	}
	return e
}

// disarm stops e's cleanup and drops its pin. Called whenever e leaves the
// table.
func (t *Table[K, V]) disarm(e *Entry[K, V]) {
	if e.armed {
		e.cleanup.Stop()
		e.armed = false
	}
	if t.pins != nil && !e.key.null {
		t.pins.unpin(e)
	}
}

// reclaim finishes an entry whose key was collected: its value is handed to
// the reclaim hook and released.
func (t *Table[K, V]) reclaim(e *Entry[K, V]) {
	e.armed = false
	if t.pins != nil {
		t.pins.unpin(e)
	}
	v := e.value
	var zero V
	e.value = zero
	t.stats.reclaimed++
	if t.onReclaim != nil {
		t.onReclaim(v)
	}
}

// unlink removes e from its chain by identity and reports whether it was
// linked.
func (t *Table[K, V]) unlink(e *Entry[K, V]) bool {
	i := indexFor(e.hash, len(t.buckets))
	var prev *Entry[K, V]
	for p := t.buckets[i]; p != nil; prev, p = p, p.next {
		if p != e {
			continue
		}
		if prev == nil {
			t.buckets[i] = p.next
		} else {
			prev.next = p.next
		}
		return true
	}
	return false
}

// expunge drains the notification queue and unlinks every reported entry
// that is still linked. Cost is proportional to the number of pending
// notifications.
func (t *Table[K, V]) expunge() {
	n := 0
	for {
		e, ok := t.queue.poll()
		if !ok {
			break
		}
		if !t.unlink(e) {
			// Already removed, overwritten by Clear, or dropped by a transfer.
			continue
		}
		t.count--
		t.reclaim(e)
		n++
	}
	if n > 0 {
		t.stats.lastReclaim = t.config.TimeProvider.Now()
		t.metrics.RecordExpunge(n)
		t.logger.Debug("expunged reclaimed entries", "count", n, "size", t.count)
	}
}

// Len returns the number of live entries.
func (t *Table[K, V]) Len() int {
	if t.count == 0 {
		return 0
	}
	t.expunge()
	return t.count
}

// IsEmpty reports whether the table has no live entries.
func (t *Table[K, V]) IsEmpty() bool {
	return t.Len() == 0
}

// Get returns the value stored for key. A nil key addresses the nil-key
// entry.
func (t *Table[K, V]) Get(key *K) (V, bool) {
	e := t.getEntry(key)
	if e == nil {
		t.metrics.RecordLookup(false)
		var zero V
		return zero, false
	}
	if t.pins != nil && !e.key.null {
		t.pins.touch(e)
	}
	t.metrics.RecordLookup(true)
	return e.value, true
}

// ContainsKey reports whether the table holds key.
func (t *Table[K, V]) ContainsKey(key *K) bool {
	found := t.getEntry(key) != nil
	t.metrics.RecordLookup(found)
	return found
}

// ContainsValue reports whether some live entry holds a value equal to v.
// It scans every bucket.
func (t *Table[K, V]) ContainsValue(v V) bool {
	t.expunge()
	for _, e := range t.buckets {
		for ; e != nil; e = e.next {
			if !e.Cleared() && t.ops.valueEqual(e.value, v) {
				return true
			}
		}
	}
	return false
}

// Put associates value with key. If key was present its value is replaced in
// place and the previous value is returned with replaced set to true.
func (t *Table[K, V]) Put(key *K, value V) (previous V, replaced bool) {
	h := t.hashOf(key)
	t.expunge()

	i := indexFor(h, len(t.buckets))
	for e := t.buckets[i]; e != nil; e = e.next {
		if e.hash == h && t.matches(e, key) {
			previous = e.value
			e.value = value
			if t.pins != nil && !e.key.null {
				t.pins.touch(e)
			}
			t.stats.replaces++
			t.metrics.RecordPut(true)
			return previous, true
		}
	}

	t.modCount++
	t.buckets[i] = t.newEntry(key, value, h, t.buckets[i])
	t.stats.puts++
	t.metrics.RecordPut(false)
	t.count++
	if t.count >= t.threshold {
		t.resize(len(t.buckets) * 2)
	}
	return previous, false
}

// PutAll copies every mapping of src into the table. The table is grown at
// most once up front when src is larger than the current threshold.
func (t *Table[K, V]) PutAll(src map[*K]V) {
	n := len(src)
	if n == 0 {
		return
	}
	if n > t.threshold {
		target := math.Ceil(float64(n) / t.loadFactor)
		if target > MaximumCapacity {
			target = MaximumCapacity
		}
		newCapacity := len(t.buckets)
		for float64(newCapacity) < target && newCapacity < MaximumCapacity {
			newCapacity <<= 1
		}
		if newCapacity > len(t.buckets) {
			t.resize(newCapacity)
		}
	}
	for k, v := range src {
		t.Put(k, v)
	}
}

// Remove deletes key and returns its value.
func (t *Table[K, V]) Remove(key *K) (V, bool) {
	h := t.hashOf(key)
	t.expunge()

	i := indexFor(h, len(t.buckets))
	var prev *Entry[K, V]
	for e := t.buckets[i]; e != nil; prev, e = e, e.next {
		if e.hash != h || !t.matches(e, key) {
			continue
		}
		if prev == nil {
			t.buckets[i] = e.next
		} else {
			prev.next = e.next
		}
		t.removed(e)
		return e.value, true
	}
	var zero V
	return zero, false
}

// removeEntry deletes e by identity. Used by iterators.
func (t *Table[K, V]) removeEntry(e *Entry[K, V]) bool {
	t.expunge()
	if !t.unlink(e) {
		return false
	}
	t.removed(e)
	return true
}

// removeMapping deletes key only if it currently maps to a value equal to v.
func (t *Table[K, V]) removeMapping(key *K, v V) bool {
	e := t.getEntry(key)
	if e == nil || !t.ops.valueEqual(e.value, v) {
		return false
	}
	return t.removeEntry(e)
}

// removed does the bookkeeping for an entry just unlinked by a caller.
func (t *Table[K, V]) removed(e *Entry[K, V]) {
	t.modCount++
	t.count--
	t.disarm(e)
	t.stats.removes++
	t.metrics.RecordRemove()
}

// Clear removes every entry.
func (t *Table[K, V]) Clear() {
	t.expunge()
	t.modCount++
	for i, e := range t.buckets {
		for ; e != nil; e = e.next {
			t.disarm(e)
		}
		t.buckets[i] = nil
	}
	if t.pins != nil {
		t.pins.purge()
	}
	t.count = 0
	// Keys collected while the chains were being severed.
	t.expunge()
}

// resize moves every live entry into a bucket array of newCapacity. If the
// move shed enough reclaimed entries to leave the table under half of its
// current threshold, the old array is kept instead.
func (t *Table[K, V]) resize(newCapacity int) {
	old := t.buckets
	oldCapacity := len(old)
	if oldCapacity == MaximumCapacity {
		t.threshold = math.MaxInt
		return
	}

	before := t.count
	next := make([]*Entry[K, V], newCapacity)
	t.transfer(old, next)
	t.buckets = next
	t.modCount++
	t.expunge()

	shed := before - t.count
	if shed > 0 && t.count < t.threshold/revertDivisor {
		t.transfer(next, old)
		t.buckets = old
		t.stats.reverts++
		t.metrics.RecordResize(oldCapacity, newCapacity, true)
		t.logger.Debug("table resize reverted",
			"capacity", oldCapacity,
			"attempted_capacity", newCapacity,
			"size", t.count,
			"shed", shed)
		return
	}

	t.threshold = thresholdFor(newCapacity, t.loadFactor)
	if newCapacity == MaximumCapacity {
		t.threshold = math.MaxInt
	}
	t.stats.resizes++
	t.metrics.RecordResize(oldCapacity, newCapacity, false)
	t.logger.Debug("table resized",
		"old_capacity", oldCapacity,
		"new_capacity", newCapacity,
		"size", t.count,
		"threshold", t.threshold)
}

// transfer moves the entries of src into dst, emptying src. Entries whose
// key is already gone are reclaimed instead of moved.
func (t *Table[K, V]) transfer(src, dst []*Entry[K, V]) {
	for j, e := range src {
		src[j] = nil
		for e != nil {
			next := e.next
			if e.Cleared() {
				e.next = nil
				t.count--
				t.reclaim(e)
			} else {
				i := indexFor(e.hash, len(dst))
				e.next = dst[i]
				dst[i] = e
			}
			e = next
		}
	}
}

// Keys returns the key-set view. The same view is returned on every call.
func (t *Table[K, V]) Keys() *KeySet[K, V] {
	if t.keySet == nil {
		t.keySet = &KeySet[K, V]{t: t}
	}
	return t.keySet
}

// Values returns the value-collection view.
func (t *Table[K, V]) Values() *ValueCollection[K, V] {
	if t.values == nil {
		t.values = &ValueCollection[K, V]{t: t}
	}
	return t.values
}

// Entries returns the entry-set view.
func (t *Table[K, V]) Entries() *EntrySet[K, V] {
	if t.entries == nil {
		t.entries = &EntrySet[K, V]{t: t}
	}
	return t.entries
}

// All returns an iterator over the live mappings.
//
// All is fail-fast: it panics with a REFTABLE_CONCURRENT_MODIFICATION error
// if the table is structurally modified during the loop. Use an
// EntryIterator to remove entries while iterating.
func (t *Table[K, V]) All() iter.Seq2[*K, V] {
	return func(yield func(*K, V) bool) {
		it := newHashIterator(t)
		for it.HasNext() {
			e, err := it.nextEntry()
			if err != nil {
				panic(err)
			}
			if !yield(it.current, e.value) {
				return
			}
		}
	}
}

// Clone returns a new table with the same configuration, capacity and live
// mappings. Values are copied, not deep-cloned.
func (t *Table[K, V]) Clone() *Table[K, V] {
	t.expunge()
	cfg := t.config
	cfg.InitialCapacity = len(t.buckets)
	if t.pins != nil {
		cfg.SoftPinLimit = t.pins.capacity()
	}
	c, err := newTable(cfg, t.ops, t.onReclaim)
	if err != nil {
		// cfg was validated when t was built
		panic(err)
	}
	c.threshold = t.threshold
	for i := len(t.buckets) - 1; i >= 0; i-- {
		for e := t.buckets[i]; e != nil; e = e.next {
			k := e.Key()
			if k == nil && !e.key.null {
				continue
			}
			c.Put(k, e.value)
			runtime.KeepAlive(k)
		}
	}
	c.modCount = 0
	c.stats = tableStats{}
	return c
}

// Capacity returns the current number of buckets.
func (t *Table[K, V]) Capacity() int {
	return len(t.buckets)
}

// LoadFactor returns the load factor fixed at construction.
func (t *Table[K, V]) LoadFactor() float64 {
	return t.loadFactor
}

// Strength returns the reclamation strength of the table.
func (t *Table[K, V]) Strength() Strength {
	return t.strength
}

// Logger returns the table's logger.
func (t *Table[K, V]) Logger() Logger {
	return t.logger
}

// SetSoftPinLimit changes how many keys a Soft table keeps pinned. Shrinking
// the limit releases the least recently used pins. No-op on Weak tables or
// for n <= 0.
func (t *Table[K, V]) SetSoftPinLimit(n int) {
	if t.pins == nil || n <= 0 {
		return
	}
	t.pins.resize(n)
	t.logger.Debug("soft pin limit changed", "limit", n)
}

// ReleaseSoftPins releases up to n of the least recently used pins of a Soft
// table and returns how many were released. Released keys stay in the table
// until they are collected. Returns 0 on Weak tables.
func (t *Table[K, V]) ReleaseSoftPins(n int) int {
	if t.pins == nil || n <= 0 {
		return 0
	}
	return t.pins.release(n)
}

// Stats returns a snapshot of the table's bookkeeping.
func (t *Table[K, V]) Stats() Stats {
	t.expunge()
	s := Stats{
		Size:        t.count,
		Capacity:    len(t.buckets),
		Threshold:   t.threshold,
		Puts:        t.stats.puts,
		Replaces:    t.stats.replaces,
		Removes:     t.stats.removes,
		Reclaimed:   t.stats.reclaimed,
		Resizes:     t.stats.resizes,
		Reverts:     t.stats.reverts,
		LastReclaim: t.stats.lastReclaim,
		Pending:     t.queue.pending(),
	}
	if t.pins != nil {
		s.Pinned = t.pins.len()
		s.PinReleases = t.pins.releases()
	}
	return s
}

// String renders the table as {k1=v1, k2=v2}.
func (t *Table[K, V]) String() string {
	var b strings.Builder
	b.WriteByte('{')
	it := newHashIterator(t)
	first := true
	for it.HasNext() {
		e, err := it.nextEntry()
		if err != nil {
			break
		}
		if !first {
			b.WriteString(", ")
		}
		first = false
		b.WriteString(e.String())
	}
	b.WriteByte('}')
	return b.String()
}
