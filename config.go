// config.go: configuration for reftable
//
// Copyright (c) 2025 AGILira - A. Giordano
// Series: an AGILira library
// SPDX-License-Identifier: MPL-2.0

package reftable

import (
	"math"

	"github.com/agilira/go-timecache"
)

// Strength selects when the runtime may clear an entry's key.
type Strength uint8

const (
	// Weak entries are cleared as soon as nothing outside the table
	// holds the key.
	Weak Strength = iota

	// Soft entries keep their key pinned until memory pressure, or the
	// pin limit, releases the pin. From then on they behave like Weak.
	Soft
)

// String returns the strength name.
func (s Strength) String() string {
	switch s {
	case Weak:
		return "weak"
	case Soft:
		return "soft"
	default:
		return "unknown"
	}
}

// Config holds configuration parameters for a table.
type Config struct {
	// InitialCapacity is the number of buckets to start with, rounded up
	// to a power of two. Must be >= 0; zero starts with a single bucket.
	// DefaultConfig uses DefaultInitialCapacity.
	InitialCapacity int

	// LoadFactor is the fill ratio that triggers a resize.
	// Must be positive and finite. DefaultConfig uses DefaultLoadFactor.
	LoadFactor float64

	// Strength selects the reclamation strength. Default: Weak.
	Strength Strength

	// SoftPinLimit bounds the number of pinned keys of a Soft table.
	// Ignored for Weak tables. Default: DefaultSoftPinLimit.
	SoftPinLimit int

	// PressureMonitor, if set, releases pins of a Soft table when the
	// heap approaches its limit. Ignored for Weak tables.
	PressureMonitor *PressureMonitor

	// Logger is used for debugging and monitoring.
	// If nil, NoOpLogger is used.
	Logger Logger

	// TimeProvider provides the current time for statistics.
	// If nil, a go-timecache backed provider is used.
	TimeProvider TimeProvider

	// MetricsCollector receives table events.
	// If nil, NoOpMetricsCollector is used.
	MetricsCollector MetricsCollector
}

// Validate checks configuration parameters and applies defaults.
//
// A negative capacity, or a zero, negative, NaN or infinite load factor,
// is rejected. Start from DefaultConfig to get the default sizing.
// Nil dependencies and a non-positive pin limit select defaults.
func (c *Config) Validate() error {
	if c.InitialCapacity < 0 {
		return NewErrInvalidCapacity(c.InitialCapacity)
	}
	if math.IsNaN(c.LoadFactor) || math.IsInf(c.LoadFactor, 0) || c.LoadFactor <= 0 {
		return NewErrInvalidLoadFactor(c.LoadFactor)
	}
	if c.Strength != Weak && c.Strength != Soft {
		return NewErrInvalidStrength(c.Strength)
	}

	if c.InitialCapacity > MaximumCapacity {
		c.InitialCapacity = MaximumCapacity
	}

	if c.SoftPinLimit <= 0 {
		c.SoftPinLimit = DefaultSoftPinLimit
	}

	if c.Logger == nil {
		c.Logger = NoOpLogger{}
	}

	if c.TimeProvider == nil {
		c.TimeProvider = &systemTimeProvider{}
	}

	if c.MetricsCollector == nil {
		c.MetricsCollector = NoOpMetricsCollector{}
	}

	return nil
}

// DefaultConfig returns a configuration with sensible defaults.
func DefaultConfig() Config {
	return Config{
		InitialCapacity:  DefaultInitialCapacity,
		LoadFactor:       DefaultLoadFactor,
		Strength:         Weak,
		SoftPinLimit:     DefaultSoftPinLimit,
		Logger:           NoOpLogger{},
		TimeProvider:     &systemTimeProvider{},
		MetricsCollector: NoOpMetricsCollector{},
	}
}

// systemTimeProvider is the default time provider using go-timecache.
type systemTimeProvider struct{}

func (t *systemTimeProvider) Now() int64 {
	return timecache.CachedTimeNano()
}

// SystemTimeProvider returns the go-timecache backed TimeProvider used by default.
func SystemTimeProvider() TimeProvider {
	return &systemTimeProvider{}
}

// tableSizeFor returns the smallest power of two >= n, clamped to
// [1, MaximumCapacity].
func tableSizeFor(n int) int {
	if n >= MaximumCapacity {
		return MaximumCapacity
	}
	capacity := 1
	for capacity < n {
		capacity <<= 1
	}
	return capacity
}

// thresholdFor computes capacity × loadFactor, pinned to math.MaxInt at
// maximum capacity.
func thresholdFor(capacity int, loadFactor float64) int {
	t := float64(capacity) * loadFactor
	if t >= float64(math.MaxInt) {
		return math.MaxInt
	}
	return int(t)
}
