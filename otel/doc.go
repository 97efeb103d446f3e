// Package otel provides OpenTelemetry integration for reftable metrics.
//
// # Overview
//
// This package implements the reftable.MetricsCollector interface using
// OpenTelemetry, so table activity (lookups, insertions, removals, key
// reclamation and resizes) can be exported to any OTEL backend.
//
// The package is a separate module to keep the reftable core lightweight.
// Applications that don't need metrics collection don't pay for the OTEL dependencies.
//
// # Installation
//
//	go get github.com/agilira/reftable/otel
//
// # Quick Start
//
//	import (
//	    "github.com/agilira/reftable"
//	    reftableotel "github.com/agilira/reftable/otel"
//	    "go.opentelemetry.io/otel/exporters/prometheus"
//	    "go.opentelemetry.io/otel/sdk/metric"
//	)
//
//	exporter, err := prometheus.New()
//	if err != nil {
//	    log.Fatal(err)
//	}
//	provider := metric.NewMeterProvider(metric.WithReader(exporter))
//	defer provider.Shutdown(context.Background())
//
//	collector, err := reftableotel.NewOTelMetricsCollector(provider,
//	    reftableotel.WithTableName("sessions"))
//	if err != nil {
//	    log.Fatal(err)
//	}
//
//	cfg := reftable.DefaultConfig()
//	cfg.MetricsCollector = collector
//	table, err := reftable.New[Session, *Conn](cfg)
//
// # Metrics Exposed
//
// Counters:
//   - reftable_lookup_hits_total: lookups that found a live entry
//   - reftable_lookup_misses_total: lookups that found nothing
//   - reftable_puts_total: inserted entries
//   - reftable_replaces_total: in-place value replacements
//   - reftable_removes_total: explicit removals
//   - reftable_expunged_total: entries dropped after their key was collected
//   - reftable_resizes_total: bucket array resizes
//   - reftable_resize_reverts_total: resizes reverted after shedding reclaimed entries
//
// Histograms:
//   - reftable_capacity_buckets: bucket array capacity after each resize
//
// # Prometheus Queries
//
// Hit ratio:
//
//	rate(reftable_lookup_hits_total[5m]) /
//	(rate(reftable_lookup_hits_total[5m]) + rate(reftable_lookup_misses_total[5m]))
//
// Keys reclaimed per minute:
//
//	rate(reftable_expunged_total[1m]) * 60
//
// # Thread Safety
//
// All methods are thread-safe and use lock-free OTEL instruments. A single
// collector may be shared by several tables; use WithTableName on separate
// collectors to tell them apart.
//
// Copyright (c) 2025 AGILira - A. Giordano
// Series: an AGILira library
// SPDX-License-Identifier: MPL-2.0
package otel
