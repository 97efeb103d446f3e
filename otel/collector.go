// collector.go: OpenTelemetry MetricsCollector for reftable
//
// Copyright (c) 2025 AGILira - A. Giordano
// Series: an AGILira fragment
// SPDX-License-Identifier: MPL-2.0
package otel

import (
	"context"
	"errors"

	"github.com/agilira/reftable"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"
)

// OTelMetricsCollector implements reftable.MetricsCollector using OpenTelemetry.
//
// Thread-safety: Safe for concurrent use by multiple goroutines.
// The underlying OTEL instruments are thread-safe and lock-free.
type OTelMetricsCollector struct {
	hits     metric.Int64Counter
	misses   metric.Int64Counter
	puts     metric.Int64Counter
	replaces metric.Int64Counter
	removes  metric.Int64Counter
	expunged metric.Int64Counter
	resizes  metric.Int64Counter
	reverts  metric.Int64Counter
	capacity metric.Int64Histogram

	attrs    metric.MeasurementOption
	hasAttrs bool
}

// Options for configuring OTelMetricsCollector.
type Options struct {
	// MeterName is the name of the OpenTelemetry meter.
	// Default: "github.com/agilira/reftable"
	MeterName string

	// TableName, if set, is attached to every measurement as the
	// "table" attribute.
	TableName string
}

// Option is a functional option for configuring OTelMetricsCollector.
type Option func(*Options)

// WithMeterName sets a custom meter name.
func WithMeterName(name string) Option {
	return func(o *Options) {
		o.MeterName = name
	}
}

// WithTableName labels every measurement with the given table name.
// Useful when several tables share one meter.
func WithTableName(name string) Option {
	return func(o *Options) {
		o.TableName = name
	}
}

// NewOTelMetricsCollector creates a new OpenTelemetry metrics collector.
//
// Returns an error if provider is nil or an instrument cannot be created.
//
// Example:
//
//	exporter, _ := prometheus.New()
//	provider := metric.NewMeterProvider(metric.WithReader(exporter))
//	collector, err := NewOTelMetricsCollector(provider)
//	if err != nil {
//	    log.Fatal(err)
//	}
func NewOTelMetricsCollector(provider metric.MeterProvider, opts ...Option) (*OTelMetricsCollector, error) {
	if provider == nil {
		return nil, errors.New("meter provider cannot be nil")
	}

	options := Options{
		MeterName: "github.com/agilira/reftable",
	}
	for _, opt := range opts {
		opt(&options)
	}

	meter := provider.Meter(options.MeterName)
	collector := &OTelMetricsCollector{}
	if options.TableName != "" {
		collector.attrs = metric.WithAttributes(attribute.String("table", options.TableName))
		collector.hasAttrs = true
	}

	counters := []struct {
		dst  *metric.Int64Counter
		name string
		desc string
	}{
		{&collector.hits, "reftable_lookup_hits_total", "Total number of lookups that found a live entry"},
		{&collector.misses, "reftable_lookup_misses_total", "Total number of lookups that found nothing"},
		{&collector.puts, "reftable_puts_total", "Total number of inserted entries"},
		{&collector.replaces, "reftable_replaces_total", "Total number of in-place value replacements"},
		{&collector.removes, "reftable_removes_total", "Total number of explicit removals"},
		{&collector.expunged, "reftable_expunged_total", "Total number of entries dropped after key reclamation"},
		{&collector.resizes, "reftable_resizes_total", "Total number of bucket array resizes"},
		{&collector.reverts, "reftable_resize_reverts_total", "Total number of resizes reverted after shedding reclaimed entries"},
	}

	var err error
	for _, c := range counters {
		*c.dst, err = meter.Int64Counter(c.name, metric.WithDescription(c.desc))
		if err != nil {
			return nil, err
		}
	}

	collector.capacity, err = meter.Int64Histogram(
		"reftable_capacity_buckets",
		metric.WithDescription("Bucket array capacity after each resize"),
		metric.WithUnit("{bucket}"),
	)
	if err != nil {
		return nil, err
	}

	return collector, nil
}

func (c *OTelMetricsCollector) add(counter metric.Int64Counter, n int64) {
	if c.hasAttrs {
		counter.Add(context.Background(), n, c.attrs)
		return
	}
	counter.Add(context.Background(), n)
}

// RecordLookup increments the hit or miss counter.
func (c *OTelMetricsCollector) RecordLookup(hit bool) {
	if hit {
		c.add(c.hits, 1)
	} else {
		c.add(c.misses, 1)
	}
}

// RecordPut increments the put or replace counter.
func (c *OTelMetricsCollector) RecordPut(replaced bool) {
	if replaced {
		c.add(c.replaces, 1)
	} else {
		c.add(c.puts, 1)
	}
}

// RecordRemove increments the remove counter.
func (c *OTelMetricsCollector) RecordRemove() {
	c.add(c.removes, 1)
}

// RecordExpunge adds n reclaimed entries to the expunged counter.
func (c *OTelMetricsCollector) RecordExpunge(n int) {
	if n <= 0 {
		return
	}
	c.add(c.expunged, int64(n))
}

// RecordResize counts a resize and records the resulting capacity. A
// reverted resize records the old capacity, which the table kept.
func (c *OTelMetricsCollector) RecordResize(oldCapacity, newCapacity int, reverted bool) {
	c.add(c.resizes, 1)
	capacity := newCapacity
	if reverted {
		c.add(c.reverts, 1)
		capacity = oldCapacity
	}
	if c.hasAttrs {
		c.capacity.Record(context.Background(), int64(capacity), c.attrs)
		return
	}
	c.capacity.Record(context.Background(), int64(capacity))
}

// Compile-time interface check
var _ reftable.MetricsCollector = (*OTelMetricsCollector)(nil)
