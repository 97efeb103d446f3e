// interfaces.go: public interfaces for reftable
//
// Copyright (c) 2025 AGILira - A. Giordano
// Series: an AGILira library
// SPDX-License-Identifier: MPL-2.0

package reftable

// Stats provides a snapshot of a table's bookkeeping.
type Stats struct {
	// Size is the number of live entries after expunging
	Size int

	// Capacity is the current number of buckets
	Capacity int

	// Threshold is the size at which the next resize happens
	Threshold int

	// Puts is the number of Put calls that inserted a new entry
	Puts uint64

	// Replaces is the number of Put calls that overwrote an existing value
	Replaces uint64

	// Removes is the number of entries removed explicitly
	Removes uint64

	// Reclaimed is the number of entries dropped because their key was collected
	Reclaimed uint64

	// Resizes is the number of completed bucket array growths
	Resizes uint64

	// Reverts is the number of growths rolled back because the
	// transfer shed too many reclaimed entries
	Reverts uint64

	// LastReclaim is when reclaimed entries were last dropped, in
	// nanoseconds since epoch (0 if never)
	LastReclaim int64

	// Pending is the approximate number of reclamation notifications
	// queued after this snapshot was taken
	Pending int

	// Pinned is the number of keys currently pinned (Soft tables only)
	Pinned int

	// PinReleases is the number of pins released by overflow, resize,
	// ReleaseSoftPins or memory pressure (Soft tables only)
	PinReleases uint64
}

// Logger defines a minimal logging interface with zero overhead.
// Implementations should use structured logging and be allocation-free.
type Logger interface {
	// Debug logs a debug message with optional key-value pairs.
	Debug(msg string, keyvals ...interface{})

	// Info logs an info message with optional key-value pairs.
	Info(msg string, keyvals ...interface{})

	// Warn logs a warning message with optional key-value pairs.
	Warn(msg string, keyvals ...interface{})

	// Error logs an error message with optional key-value pairs.
	Error(msg string, keyvals ...interface{})
}

// NoOpLogger is a logger that does nothing. Used as default to avoid nil checks.
type NoOpLogger struct{}

// Debug does nothing (no-op implementation).
func (NoOpLogger) Debug(msg string, keyvals ...interface{}) {}

// Info does nothing (no-op implementation).
func (NoOpLogger) Info(msg string, keyvals ...interface{}) {}

// Warn does nothing (no-op implementation).
func (NoOpLogger) Warn(msg string, keyvals ...interface{}) {}

// Error does nothing (no-op implementation).
func (NoOpLogger) Error(msg string, keyvals ...interface{}) {}

// TimeProvider provides current time with caching for performance.
type TimeProvider interface {
	// Now returns the current time in nanoseconds since epoch.
	Now() int64
}

// MetricsCollector receives table events. Implementations can forward them
// to OpenTelemetry, Prometheus or any other backend.
//
// Table methods call the collector synchronously from the caller's
// goroutine; a collector shared by several tables must be safe for
// concurrent use.
type MetricsCollector interface {
	// RecordLookup records a Get or ContainsKey call and whether the key was found.
	RecordLookup(hit bool)

	// RecordPut records a Put. replaced is true when an existing value was overwritten.
	RecordPut(replaced bool)

	// RecordRemove records the explicit removal of one entry.
	RecordRemove()

	// RecordExpunge records n entries dropped after their key was collected.
	RecordExpunge(n int)

	// RecordResize records a growth from oldCapacity to newCapacity.
	// reverted is true when the table rolled back to oldCapacity.
	RecordResize(oldCapacity, newCapacity int, reverted bool)
}

// NoOpMetricsCollector is a metrics collector that does nothing.
type NoOpMetricsCollector struct{}

// RecordLookup does nothing.
func (NoOpMetricsCollector) RecordLookup(hit bool) {}

// RecordPut does nothing.
func (NoOpMetricsCollector) RecordPut(replaced bool) {}

// RecordRemove does nothing.
func (NoOpMetricsCollector) RecordRemove() {}

// RecordExpunge does nothing.
func (NoOpMetricsCollector) RecordExpunge(n int) {}

// RecordResize does nothing.
func (NoOpMetricsCollector) RecordResize(oldCapacity, newCapacity int, reverted bool) {}
