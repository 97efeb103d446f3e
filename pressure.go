// pressure.go: heap pressure monitor releasing Soft pins
//
// Copyright (c) 2025 AGILira - A. Giordano
// Series: an AGILira library
// SPDX-License-Identifier: MPL-2.0

package reftable

import (
	"math"
	"runtime/debug"
	"runtime/metrics"
	"sync"
	"sync/atomic"
	"time"
	"weak"
)

const (
	// DefaultPressureInterval is how often a started monitor samples the heap
	DefaultPressureInterval = time.Second

	// DefaultHighWatermark is the fraction of the limit at which relief starts
	DefaultHighWatermark = 0.9

	// DefaultReleaseFraction is the share of each pin set released per relief
	DefaultReleaseFraction = 0.5

	heapObjectsMetric = "/memory/classes/heap/objects:bytes"
)

// PressureConfig configures a PressureMonitor.
type PressureConfig struct {
	// Limit is the heap budget in bytes. If 0, the runtime soft memory
	// limit is used; when that is unset the monitor is disabled.
	Limit uint64

	// HighWatermark is the fraction of Limit at which pins are released.
	// Must be in (0, 1]. Default: DefaultHighWatermark.
	HighWatermark float64

	// ReleaseFraction is the share of every pin set released per relief.
	// Must be in (0, 1]. Default: DefaultReleaseFraction.
	ReleaseFraction float64

	// Interval is the sampling period used by Start.
	// Default: DefaultPressureInterval.
	Interval time.Duration

	// Logger receives relief events. If nil, NoOpLogger is used.
	Logger Logger

	// TimeProvider stamps reliefs. If nil, a go-timecache provider is used.
	TimeProvider TimeProvider
}

// PressureMonitor samples heap usage and releases pins of the Soft tables
// registered with it once usage crosses the high watermark. It turns memory
// pressure, which Go does not report to weak references, into the signal
// that clears Soft keys.
//
// Tables register themselves when built with Config.PressureMonitor.
// The monitor references their pin sets weakly, so it never keeps a table
// alive. A monitor is safe for concurrent use.
type PressureMonitor struct {
	limit     uint64
	watermark float64
	interval  time.Duration
	logger    Logger
	clock     TimeProvider

	fraction atomic.Uint64 // math.Float64bits of the release fraction

	mu      sync.Mutex
	sets    []weak.Pointer[pinSet]
	running bool
	stop    chan struct{}
	done    chan struct{}

	reliefs    atomic.Uint64
	released   atomic.Uint64
	lastRelief atomic.Int64

	sample []metrics.Sample
	sampMu sync.Mutex
}

// NewPressureMonitor creates a stopped monitor. Call Start to sample
// periodically, or Check to sample once.
func NewPressureMonitor(cfg PressureConfig) *PressureMonitor {
	if cfg.Limit == 0 {
		if l := debug.SetMemoryLimit(-1); l > 0 && l != math.MaxInt64 {
			cfg.Limit = uint64(l)
		}
	}
	if cfg.HighWatermark <= 0 || cfg.HighWatermark > 1 || math.IsNaN(cfg.HighWatermark) {
		cfg.HighWatermark = DefaultHighWatermark
	}
	if cfg.ReleaseFraction <= 0 || cfg.ReleaseFraction > 1 || math.IsNaN(cfg.ReleaseFraction) {
		cfg.ReleaseFraction = DefaultReleaseFraction
	}
	if cfg.Interval <= 0 {
		cfg.Interval = DefaultPressureInterval
	}
	if cfg.Logger == nil {
		cfg.Logger = NoOpLogger{}
	}
	if cfg.TimeProvider == nil {
		cfg.TimeProvider = &systemTimeProvider{}
	}

	m := &PressureMonitor{
		limit:     cfg.Limit,
		watermark: cfg.HighWatermark,
		interval:  cfg.Interval,
		logger:    cfg.Logger,
		clock:     cfg.TimeProvider,
		sample:    []metrics.Sample{{Name: heapObjectsMetric}},
	}
	m.fraction.Store(math.Float64bits(cfg.ReleaseFraction))
	return m
}

// Enabled reports whether the monitor has a heap limit to compare against.
func (m *PressureMonitor) Enabled() bool {
	return m.limit > 0
}

// Limit returns the heap budget in bytes, 0 if disabled.
func (m *PressureMonitor) Limit() uint64 {
	return m.limit
}

// ReleaseFraction returns the share of each pin set released per relief.
func (m *PressureMonitor) ReleaseFraction() float64 {
	return math.Float64frombits(m.fraction.Load())
}

// SetReleaseFraction changes the relief share. Values outside (0, 1] are ignored.
func (m *PressureMonitor) SetReleaseFraction(f float64) {
	if f <= 0 || f > 1 || math.IsNaN(f) {
		return
	}
	m.fraction.Store(math.Float64bits(f))
}

func (m *PressureMonitor) register(p *pinSet) {
	m.mu.Lock()
	m.sets = append(m.sets, weak.Make(p))
	m.mu.Unlock()
}

// Tables returns the number of live pin sets registered with the monitor.
func (m *PressureMonitor) Tables() int {
	return len(m.liveSets())
}

// liveSets returns the registered pin sets that are still alive and
// forgets the collected ones.
func (m *PressureMonitor) liveSets() []*pinSet {
	m.mu.Lock()
	defer m.mu.Unlock()
	live := make([]*pinSet, 0, len(m.sets))
	kept := m.sets[:0]
	for _, w := range m.sets {
		if p := w.Value(); p != nil {
			live = append(live, p)
			kept = append(kept, w)
		}
	}
	clear(m.sets[len(kept):])
	m.sets = kept
	return live
}

// HeapInUse returns the bytes currently occupied by heap objects.
func (m *PressureMonitor) HeapInUse() uint64 {
	m.sampMu.Lock()
	defer m.sampMu.Unlock()
	metrics.Read(m.sample)
	if m.sample[0].Value.Kind() != metrics.KindUint64 {
		return 0
	}
	return m.sample[0].Value.Uint64()
}

// Check samples the heap once and, if usage is at or above the high
// watermark, releases pins. It returns the number of pins released.
func (m *PressureMonitor) Check() int {
	if !m.Enabled() {
		return 0
	}
	inUse := m.HeapInUse()
	if float64(inUse) < float64(m.limit)*m.watermark {
		return 0
	}
	n := m.Relieve()
	if n > 0 {
		m.logger.Info("memory pressure relieved",
			"heap_in_use", inUse,
			"limit", m.limit,
			"pins_released", n)
	}
	return n
}

// Relieve releases ReleaseFraction of every registered pin set regardless of
// heap usage and returns the number of pins released.
func (m *PressureMonitor) Relieve() int {
	fraction := m.ReleaseFraction()
	total := 0
	for _, p := range m.liveSets() {
		total += p.releaseFraction(fraction)
	}
	m.reliefs.Add(1)
	m.released.Add(uint64(total))
	m.lastRelief.Store(m.clock.Now())
	return total
}

// Reliefs returns how many reliefs ran and how many pins they released.
func (m *PressureMonitor) Reliefs() (reliefs, released uint64) {
	return m.reliefs.Load(), m.released.Load()
}

// LastRelief returns the time of the last relief in nanoseconds since the
// epoch, or 0 if none ran.
func (m *PressureMonitor) LastRelief() int64 {
	return m.lastRelief.Load()
}

// Start begins periodic sampling in a background goroutine.
func (m *PressureMonitor) Start() error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.running {
		return NewErrMonitorRunning()
	}
	m.running = true
	m.stop = make(chan struct{})
	m.done = make(chan struct{})
	go m.loop(m.stop, m.done)
	m.logger.Debug("pressure monitor started", "limit", m.limit, "interval", m.interval)
	return nil
}

// Stop ends periodic sampling and waits for the sampling goroutine to exit.
func (m *PressureMonitor) Stop() error {
	m.mu.Lock()
	if !m.running {
		m.mu.Unlock()
		return NewErrMonitorStopped()
	}
	m.running = false
	stop, done := m.stop, m.done
	m.mu.Unlock()

	close(stop)
	<-done
	m.logger.Debug("pressure monitor stopped")
	return nil
}

// IsRunning reports whether periodic sampling is active.
func (m *PressureMonitor) IsRunning() bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.running
}

func (m *PressureMonitor) loop(stop <-chan struct{}, done chan<- struct{}) {
	defer close(done)
	ticker := time.NewTicker(m.interval)
	defer ticker.Stop()
	for {
		select {
		case <-stop:
			return
		case <-ticker.C:
			m.Check()
		}
	}
}
