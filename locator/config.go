// config.go: configuration for the locator manager
//
// Copyright (c) 2025 AGILira - A. Giordano
// Series: an AGILira library
// SPDX-License-Identifier: MPL-2.0

package locator

import (
	"strings"
	"sync/atomic"

	"github.com/agilira/reftable"
)

// DefaultSoftPinLimit bounds the pinned keys of each manager table.
const DefaultSoftPinLimit = 256

// Config holds configuration parameters for a Manager.
type Config struct {
	// AppLookup is the application prefix prepended to every lookup name,
	// e.g. "myapp". Empty disables prefixing. It can be changed at run
	// time with Manager.SetAppLookup or HotConfig.
	AppLookup string

	// DefaultEnvironment is the environment of Manager.Locator.
	// Default: an environment of DefaultFactory with no provider URL.
	DefaultEnvironment Environment

	// SoftPinLimit bounds how many environments and locators stay pinned
	// while nothing else references them. Default: DefaultSoftPinLimit.
	SoftPinLimit int

	// PressureMonitor, if set, releases pins under memory pressure.
	PressureMonitor *reftable.PressureMonitor

	// Logger is used for lookup failures and lifecycle events.
	// If nil, reftable.NoOpLogger is used.
	Logger reftable.Logger

	// TimeProvider stamps locator creation.
	// If nil, reftable.SystemTimeProvider is used.
	TimeProvider reftable.TimeProvider

	// MetricsCollector receives events of the manager's locator table.
	// If nil, reftable.NoOpMetricsCollector is used.
	MetricsCollector reftable.MetricsCollector
}

// Validate checks configuration parameters and applies defaults.
func (c *Config) Validate() error {
	if c.SoftPinLimit < 0 {
		return NewErrInvalidConfig("SoftPinLimit", c.SoftPinLimit)
	}
	if c.SoftPinLimit == 0 {
		c.SoftPinLimit = DefaultSoftPinLimit
	}
	if c.DefaultEnvironment.IsZero() {
		c.DefaultEnvironment = Environment{Factory: DefaultFactory}
	}
	c.DefaultEnvironment = c.DefaultEnvironment.normalize()
	c.AppLookup = strings.TrimSpace(c.AppLookup)

	if c.Logger == nil {
		c.Logger = reftable.NoOpLogger{}
	}
	if c.TimeProvider == nil {
		c.TimeProvider = reftable.SystemTimeProvider()
	}
	if c.MetricsCollector == nil {
		c.MetricsCollector = reftable.NoOpMetricsCollector{}
	}
	return nil
}

// DefaultConfig returns a configuration with sensible defaults.
func DefaultConfig() Config {
	cfg := Config{}
	_ = cfg.Validate()
	return cfg
}

// appLookup is the application prefix shared by a manager and its locators.
type appLookup struct {
	v atomic.Pointer[string]
}

func newAppLookup(prefix string) *appLookup {
	a := &appLookup{}
	a.set(prefix)
	return a
}

func (a *appLookup) get() string {
	return *a.v.Load()
}

func (a *appLookup) set(prefix string) {
	prefix = strings.TrimSpace(prefix)
	a.v.Store(&prefix)
}

// fullPath composes the lookup path of name under prefix. Names already
// starting with the prefix are returned unchanged.
func fullPath(prefix, name string) string {
	if prefix == "" || strings.HasPrefix(name, prefix) {
		return name
	}
	if strings.HasSuffix(prefix, "/") {
		return prefix + name
	}
	return prefix + "/" + name
}
