// metrics.go: VictoriaMetrics implementation of reftable.MetricsCollector
//
// Copyright (c) 2025 AGILira - A. Giordano
// Series: an AGILira library
// SPDX-License-Identifier: MPL-2.0

package main

import (
	"fmt"
	"io"

	"github.com/VictoriaMetrics/metrics"
	"github.com/agilira/reftable"
)

// vmCollector exposes table events in Prometheus text format. Metric names
// match the reftable/otel collector.
type vmCollector struct {
	set *metrics.Set

	hits     *metrics.Counter
	misses   *metrics.Counter
	puts     *metrics.Counter
	replaces *metrics.Counter
	removes  *metrics.Counter
	expunged *metrics.Counter
	resizes  *metrics.Counter
	reverts  *metrics.Counter
	capacity *metrics.Histogram
}

func newVMCollector(table string) *vmCollector {
	set := metrics.NewSet()
	name := func(metric string) string {
		return fmt.Sprintf("%s{table=%q}", metric, table)
	}
	return &vmCollector{
		set:      set,
		hits:     set.NewCounter(name("reftable_lookup_hits_total")),
		misses:   set.NewCounter(name("reftable_lookup_misses_total")),
		puts:     set.NewCounter(name("reftable_puts_total")),
		replaces: set.NewCounter(name("reftable_replaces_total")),
		removes:  set.NewCounter(name("reftable_removes_total")),
		expunged: set.NewCounter(name("reftable_expunged_total")),
		resizes:  set.NewCounter(name("reftable_resizes_total")),
		reverts:  set.NewCounter(name("reftable_resize_reverts_total")),
		capacity: set.NewHistogram(name("reftable_capacity_buckets")),
	}
}

func (c *vmCollector) RecordLookup(hit bool) {
	if hit {
		c.hits.Inc()
		return
	}
	c.misses.Inc()
}

func (c *vmCollector) RecordPut(replaced bool) {
	if replaced {
		c.replaces.Inc()
		return
	}
	c.puts.Inc()
}

func (c *vmCollector) RecordRemove() {
	c.removes.Inc()
}

func (c *vmCollector) RecordExpunge(n int) {
	if n > 0 {
		c.expunged.Add(n)
	}
}

// RecordResize records the capacity the table kept: the old one when the
// resize was reverted.
func (c *vmCollector) RecordResize(oldCapacity, newCapacity int, reverted bool) {
	c.resizes.Inc()
	capacity := newCapacity
	if reverted {
		c.reverts.Inc()
		capacity = oldCapacity
	}
	c.capacity.Update(float64(capacity))
}

// WritePrometheus writes every metric in Prometheus text format.
func (c *vmCollector) WritePrometheus(w io.Writer) {
	c.set.WritePrometheus(w)
}

var _ reftable.MetricsCollector = (*vmCollector)(nil)
