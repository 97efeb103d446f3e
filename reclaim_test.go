// reclaim_test.go: tests for key reclamation, expunging and resize reverts
//
// Copyright (c) 2025 AGILira - A. Giordano
// Series: an AGILira fragment
// SPDX-License-Identifier: MPL-2.0

package reftable

import (
	"fmt"
	"runtime"
	"testing"
	"time"
)

// eventually runs GC until cond holds or the attempts run out. Cleanups run
// on a runtime goroutine after the cycle that found the key unreachable, so
// a single GC is not enough.
func eventually(cond func() bool) bool {
	for i := 0; i < 100; i++ {
		runtime.GC()
		if cond() {
			return true
		}
		time.Sleep(5 * time.Millisecond)
	}
	return false
}

// putTransient inserts n keys that nothing else references.
//
//go:noinline
func putTransient[V any](table *Table[testKey, V], n int, value V) {
	for i := 0; i < n; i++ {
		table.Put(&testKey{name: fmt.Sprintf("transient-%d", i)}, value)
	}
}

// clearedEntry fabricates an entry whose key is already gone: the zero weak
// pointer always reports nil.
func clearedEntry[V any](table *Table[testKey, V], h uint32, value V) *Entry[testKey, V] {
	return &Entry[testKey, V]{key: keyRef[testKey]{}, hash: h, value: value, ops: table.ops}
}

// link pushes e onto the head of its bucket and counts it.
func link[V any](table *Table[testKey, V], e *Entry[testKey, V]) {
	i := indexFor(e.hash, len(table.buckets))
	e.next = table.buckets[i]
	table.buckets[i] = e
	table.count++
}

func TestWeak_ReclaimsUnreachableKeys(t *testing.T) {
	var reclaimed []int
	table := Must(New[testKey, int](DefaultConfig(), WithOnReclaim[testKey, int](func(v int) {
		reclaimed = append(reclaimed, v)
	})))

	kept := newKey("kept")
	table.Put(kept, 1)
	putTransient(table, 10, 7)

	if !eventually(func() bool { return table.Len() == 1 }) {
		t.Fatalf("Len() = %d, transient keys were not reclaimed", table.Len())
	}
	if v, ok := table.Get(kept); !ok || v != 1 {
		t.Errorf("Get(kept) = %d, %v", v, ok)
	}
	if len(reclaimed) != 10 {
		t.Errorf("OnReclaim called %d times, want 10", len(reclaimed))
	}
	for _, v := range reclaimed {
		if v != 7 {
			t.Errorf("OnReclaim value = %d, want 7", v)
		}
	}
	if got := table.Stats().Reclaimed; got != 10 {
		t.Errorf("Stats().Reclaimed = %d, want 10", got)
	}
	runtime.KeepAlive(kept)
}

func TestWeak_NilKeyNeverReclaimed(t *testing.T) {
	table := Must(New[testKey, int](DefaultConfig()))
	table.Put(nil, 1)
	for i := 0; i < 3; i++ {
		runtime.GC()
	}
	if !table.ContainsKey(nil) {
		t.Error("nil key was reclaimed")
	}
}

func TestWeak_RemovedEntryIgnoresLateNotification(t *testing.T) {
	table := Must(New[testKey, int](DefaultConfig()))
	k := newKey("a")
	other := newKey("b")
	table.Put(k, 1)
	table.Put(other, 2)

	e := table.getEntry(k)
	table.Remove(k)
	// A notification for an entry that was already removed must not
	// decrement the count again.
	table.queue.push(e)

	if table.Len() != 1 {
		t.Errorf("Len() = %d, want 1", table.Len())
	}
	runtime.KeepAlive(other)
}

func TestExpunge_UnlinksQueuedEntries(t *testing.T) {
	collector := &recordingCollector{}
	var reclaimed []string
	table := Must(New[testKey, string](sized(Config{MetricsCollector: collector}),
		WithOnReclaim[testKey, string](func(v string) { reclaimed = append(reclaimed, v) })))

	live := newKey("live")
	table.Put(live, "live")

	dead := clearedEntry(table, table.hashOf(live), "dead")
	link(table, dead)
	table.queue.push(dead)

	if table.Len() != 1 {
		t.Fatalf("Len() = %d, want 1", table.Len())
	}
	if len(reclaimed) != 1 || reclaimed[0] != "dead" {
		t.Errorf("reclaimed = %v", reclaimed)
	}
	if dead.value != "" {
		t.Error("expunged entry still holds its value")
	}
	if collector.expunged != 1 {
		t.Errorf("RecordExpunge total = %d, want 1", collector.expunged)
	}
	if v, ok := table.Get(live); !ok || v != "live" {
		t.Errorf("Get(live) = %q, %v", v, ok)
	}
	if table.Stats().LastReclaim == 0 {
		t.Error("LastReclaim not stamped")
	}
}

func TestGet_SkipsClearedEntries(t *testing.T) {
	table := Must(New[testKey, int](DefaultConfig()))
	k := newKey("k")
	// A cleared entry in front of a live one in the same bucket.
	table.Put(k, 1)
	link(table, clearedEntry(table, table.hashOf(k), 99))

	if v, ok := table.Get(k); !ok || v != 1 {
		t.Errorf("Get(k) = %d, %v", v, ok)
	}
	if table.ContainsValue(99) {
		t.Error("ContainsValue matched a cleared entry")
	}
}

func TestResize_RevertsWhenTransferShedsEntries(t *testing.T) {
	collector := &recordingCollector{}
	var reclaimed int
	table := Must(New[testKey, int](sized(Config{InitialCapacity: 16, MetricsCollector: collector}),
		WithOnReclaim[testKey, int](func(int) { reclaimed++ })))

	a, b := newKey("a"), newKey("b")
	table.Put(a, 1)
	table.Put(b, 2)
	for i := 0; i < 10; i++ {
		link(table, clearedEntry(table, uint32(i), -1))
	}
	if table.count != 12 {
		t.Fatalf("count = %d, want 12", table.count)
	}

	table.resize(32)

	if table.Capacity() != 16 {
		t.Errorf("Capacity() = %d, want 16 after revert", table.Capacity())
	}
	if table.Stats().Reverts != 1 || collector.reverts != 1 {
		t.Errorf("reverts: stats=%d collector=%d, want 1", table.Stats().Reverts, collector.reverts)
	}
	if table.Len() != 2 {
		t.Errorf("Len() = %d, want 2", table.Len())
	}
	if reclaimed != 10 {
		t.Errorf("reclaimed = %d, want 10", reclaimed)
	}
	for k, want := range map[*testKey]int{a: 1, b: 2} {
		if v, ok := table.Get(k); !ok || v != want {
			t.Errorf("Get(%s) = %d, %v", k.name, v, ok)
		}
	}
}

func TestResize_KeepsGrowthWhenEnoughSurvive(t *testing.T) {
	table := Must(New[testKey, int](sized(Config{InitialCapacity: 16})))
	keys := make([]*testKey, 8)
	for i := range keys {
		keys[i] = newKey(fmt.Sprint(i))
		table.Put(keys[i], i)
	}
	for i := 0; i < 4; i++ {
		link(table, clearedEntry(table, uint32(i), -1))
	}

	table.resize(32)

	if table.Capacity() != 32 {
		t.Errorf("Capacity() = %d, want 32", table.Capacity())
	}
	if table.Stats().Threshold != 24 {
		t.Errorf("threshold = %d, want 24", table.Stats().Threshold)
	}
	if table.Len() != 8 {
		t.Errorf("Len() = %d, want 8", table.Len())
	}
}

func TestClear_DropsPendingNotifications(t *testing.T) {
	table := Must(New[testKey, int](DefaultConfig()))
	k := newKey("k")
	table.Put(k, 1)
	e := table.getEntry(k)

	table.Clear()
	table.queue.push(e)

	if table.Len() != 0 {
		t.Errorf("Len() = %d after Clear", table.Len())
	}
	table.Put(k, 2)
	if table.Len() != 1 {
		t.Errorf("Len() = %d, want 1", table.Len())
	}
}

func TestSoft_PinnedKeysSurviveCollection(t *testing.T) {
	table := Must(New[testKey, int](sized(Config{Strength: Soft, SoftPinLimit: 100})))
	putTransient(table, 10, 1)

	for i := 0; i < 5; i++ {
		runtime.GC()
		time.Sleep(time.Millisecond)
	}
	if table.Len() != 10 {
		t.Fatalf("Len() = %d, pinned keys were reclaimed", table.Len())
	}
	if table.Stats().Pinned != 10 {
		t.Errorf("Pinned = %d, want 10", table.Stats().Pinned)
	}

	if n := table.ReleaseSoftPins(10); n != 10 {
		t.Errorf("ReleaseSoftPins() = %d, want 10", n)
	}
	if !eventually(func() bool { return table.Len() == 0 }) {
		t.Errorf("Len() = %d after releasing pins", table.Len())
	}
	if table.Stats().PinReleases != 10 {
		t.Errorf("PinReleases = %d, want 10", table.Stats().PinReleases)
	}
}

func TestSoft_PinLimitReleasesOldest(t *testing.T) {
	table := Must(New[testKey, int](sized(Config{Strength: Soft, SoftPinLimit: 4})))
	putTransient(table, 10, 1)

	if got := table.Stats().Pinned; got != 4 {
		t.Errorf("Pinned = %d, want 4", got)
	}
	if !eventually(func() bool { return table.Len() == 4 }) {
		t.Errorf("Len() = %d, want the 4 pinned keys", table.Len())
	}
}

func TestSoft_SetSoftPinLimit(t *testing.T) {
	table := Must(New[testKey, int](sized(Config{Strength: Soft, SoftPinLimit: 10})))
	putTransient(table, 10, 1)

	table.SetSoftPinLimit(3)
	if got := table.Stats().Pinned; got != 3 {
		t.Errorf("Pinned = %d, want 3", got)
	}
	if !eventually(func() bool { return table.Len() == 3 }) {
		t.Errorf("Len() = %d, want 3", table.Len())
	}
}

func TestSoft_RemoveUnpins(t *testing.T) {
	table := Must(New[testKey, int](sized(Config{Strength: Soft})))
	k := newKey("k")
	table.Put(k, 1)
	table.Remove(k)
	if got := table.Stats().Pinned; got != 0 {
		t.Errorf("Pinned = %d after Remove", got)
	}

	table.Put(k, 1)
	table.Clear()
	if got := table.Stats().Pinned; got != 0 {
		t.Errorf("Pinned = %d after Clear", got)
	}
}

func TestSoft_PressureMonitorRelievesPins(t *testing.T) {
	// A one byte limit is always exceeded.
	monitor := NewPressureMonitor(PressureConfig{Limit: 1, ReleaseFraction: 1})
	table := Must(New[testKey, int](sized(Config{Strength: Soft, PressureMonitor: monitor})))
	putTransient(table, 20, 1)

	if n := monitor.Check(); n != 20 {
		t.Errorf("Check() released %d pins, want 20", n)
	}
	if !eventually(func() bool { return table.Len() == 0 }) {
		t.Errorf("Len() = %d after pressure relief", table.Len())
	}
	if reliefs, released := monitor.Reliefs(); reliefs != 1 || released != 20 {
		t.Errorf("Reliefs() = %d, %d", reliefs, released)
	}
}
