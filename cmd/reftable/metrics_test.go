// metrics_test.go: tests for the VictoriaMetrics collector
//
// Copyright (c) 2025 AGILira - A. Giordano
// Series: an AGILira library
// SPDX-License-Identifier: MPL-2.0

package main

import (
	"bytes"
	"runtime"
	"strings"
	"testing"

	"github.com/agilira/reftable"
)

func TestVMCollector_Counters(t *testing.T) {
	c := newVMCollector("sessions")
	c.RecordLookup(true)
	c.RecordLookup(true)
	c.RecordLookup(false)
	c.RecordPut(false)
	c.RecordPut(true)
	c.RecordRemove()
	c.RecordExpunge(4)
	c.RecordExpunge(0)
	c.RecordExpunge(-2)
	c.RecordResize(16, 32, false)
	c.RecordResize(32, 64, true)

	tests := map[string]uint64{
		"reftable_lookup_hits_total":    c.hits.Get(),
		"reftable_lookup_misses_total":  c.misses.Get(),
		"reftable_puts_total":           c.puts.Get(),
		"reftable_replaces_total":       c.replaces.Get(),
		"reftable_removes_total":        c.removes.Get(),
		"reftable_expunged_total":       c.expunged.Get(),
		"reftable_resizes_total":        c.resizes.Get(),
		"reftable_resize_reverts_total": c.reverts.Get(),
	}
	want := map[string]uint64{
		"reftable_lookup_hits_total":    2,
		"reftable_lookup_misses_total":  1,
		"reftable_puts_total":           1,
		"reftable_replaces_total":       1,
		"reftable_removes_total":        1,
		"reftable_expunged_total":       4,
		"reftable_resizes_total":        2,
		"reftable_resize_reverts_total": 1,
	}
	for name, got := range tests {
		if got != want[name] {
			t.Errorf("%s = %d, want %d", name, got, want[name])
		}
	}

	var buf bytes.Buffer
	c.WritePrometheus(&buf)
	out := buf.String()
	for _, line := range []string{
		`reftable_lookup_hits_total{table="sessions"} 2`,
		`reftable_expunged_total{table="sessions"} 4`,
		`reftable_capacity_buckets_count{table="sessions"} 2`,
	} {
		if !strings.Contains(out, line) {
			t.Errorf("Prometheus output lacks %q:\n%s", line, out)
		}
	}
}

func TestVMCollector_WithTable(t *testing.T) {
	c := newVMCollector("weak")
	table := reftable.Must(reftable.New[string, int](reftable.Config{
		InitialCapacity:  4,
		LoadFactor:       reftable.DefaultLoadFactor,
		MetricsCollector: c,
	}))

	keys := make([]*string, 6)
	for i := range keys {
		s := string(rune('a' + i))
		keys[i] = &s
		table.Put(keys[i], i)
	}
	table.Get(keys[0])
	table.Remove(keys[1])
	runtime.KeepAlive(keys)

	if got := c.puts.Get(); got != 6 {
		t.Errorf("puts = %d, want 6", got)
	}
	if got := c.hits.Get(); got != 1 {
		t.Errorf("hits = %d, want 1", got)
	}
	if got := c.removes.Get(); got != 1 {
		t.Errorf("removes = %d, want 1", got)
	}
	if got := c.resizes.Get(); got != 2 {
		t.Errorf("resizes = %d, want 2", got)
	}
}
