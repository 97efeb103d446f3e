// Package reftable provides hash tables whose entries are dropped once the
// garbage collector reclaims their key.
//
// # Overview
//
// A Table[K, V] maps *K keys to V values. Keys are held through weak
// pointers, values strongly. Whenever a key becomes unreachable from outside
// the table, the runtime reports its entry on a lock-free notification queue
// and the table unlinks it at the start of its next size-affecting call.
// Nothing runs in the background and no operation blocks.
//
// # Features
//
//   - Two reclamation strengths: Weak and Soft
//   - Chained buckets with power-of-two capacity and load-factor growth
//   - Lazy expunging, proportional to the number of reclaimed keys
//   - A nil key, stored like any other key and never reclaimed
//   - Fail-fast iterators and key, value and entry views backed by the table
//   - Identity (default) or content key equality through a Hasher
//   - Structured errors with codes, pluggable Logger and MetricsCollector
//
// # Quick Start
//
//	type Session struct{ ID string }
//
//	sessions := reftable.Must(reftable.New[Session, *Conn](reftable.DefaultConfig()))
//
//	s := &Session{ID: "abc"}
//	sessions.Put(s, conn)
//
//	if c, ok := sessions.Get(s); ok {
//	    c.Ping()
//	}
//
//	s = nil // once collected, the mapping disappears
//
// # Reclamation Strengths
//
// Weak entries disappear as soon as the key has no strong holder outside the
// table, which makes a Weak table suitable for canonicalizing maps and side
// tables that must never keep their keys alive.
//
// Soft entries additionally pin their key in a bounded LRU. A pinned key
// survives collections; once its pin is released the entry behaves like a
// Weak one. Pins are released when the pin set overflows SoftPinLimit, when
// ReleaseSoftPins is called, or when a PressureMonitor observes the heap
// nearing its limit:
//
//	monitor := reftable.NewPressureMonitor(reftable.PressureConfig{
//	    Limit:           512 << 20,
//	    ReleaseFraction: 0.25,
//	})
//	_ = monitor.Start()
//	defer monitor.Stop()
//
//	handles := reftable.Must(reftable.New[Environment, *Locator](reftable.Config{
//	    InitialCapacity: reftable.DefaultInitialCapacity,
//	    LoadFactor:      reftable.DefaultLoadFactor,
//	    Strength:        reftable.Soft,
//	    SoftPinLimit:    1_000,
//	    PressureMonitor: monitor,
//	}))
//
// # Growth
//
// A table doubles its bucket array whenever an insert brings the size to the
// threshold (capacity × load factor), up to MaximumCapacity. If the move to
// the larger array sheds so many reclaimed entries that the table ends below
// half of its threshold, the old array is kept. PutAll grows at most once
// before inserting.
//
// # Concurrency Model
//
// A Table has no internal locking. Callers serialize all operations, reads
// included, since a read may unlink reclaimed entries. The runtime reports
// reclaimed keys from its own goroutine; that path only pushes onto the
// notification queue. Pin sets and the pressure monitor are safe for
// concurrent use.
//
// The locator package shows a typical wrapper: one mutex guarding two Soft
// tables, with expensive construction done outside the lock.
//
// # Error Handling
//
// Constructors return REFTABLE_INVALID_CAPACITY, REFTABLE_INVALID_LOAD_FACTOR
// or REFTABLE_INVALID_STRENGTH. Iterators return
// REFTABLE_CONCURRENT_MODIFICATION, REFTABLE_NO_SUCH_ELEMENT and
// REFTABLE_ILLEGAL_STATE. A missing key is never an error:
//
//	it := table.Keys().Iterator()
//	for it.HasNext() {
//	    k, err := it.Next()
//	    if reftable.IsConcurrentModification(err) {
//	        break
//	    }
//	    use(k)
//	}
//
// # Observability
//
// Set Config.MetricsCollector to receive lookups, puts, removals, expunges
// and resizes. The reftable/otel package provides an OpenTelemetry
// implementation. Stats returns a snapshot of the table's counters.
//
// # Packages
//
//   - github.com/agilira/reftable: the table
//   - github.com/agilira/reftable/otel: OpenTelemetry metrics collector
//   - github.com/agilira/reftable/locator: environment-keyed handle cache
//   - github.com/agilira/reftable/cmd/reftable: churn workload CLI
//
// # License
//
// See LICENSE file in the repository.
package reftable
