// hot-reload.go: dynamic manager settings with Argus integration
//
// Copyright (c) 2025 AGILira - A. Giordano
// Series: an AGILira library
// SPDX-License-Identifier: MPL-2.0

package locator

import (
	"sync"
	"time"

	"github.com/agilira/argus"
	"github.com/agilira/reftable"
)

const (
	// DefaultReloadInterval is how often the configuration file is polled.
	DefaultReloadInterval = time.Second

	minReloadInterval = 100 * time.Millisecond
)

// Settings are the manager parameters that can change at run time.
type Settings struct {
	AppLookup       string
	SoftPinLimit    int
	ReleaseFraction float64
}

// HotConfig watches a configuration file and applies its "locator" section
// to a running Manager.
type HotConfig struct {
	manager *Manager
	watcher *argus.Watcher
	logger  reftable.Logger

	mu       sync.RWMutex
	base     Settings
	settings Settings

	// OnReload is called after settings are applied. It must be fast and
	// non-blocking.
	OnReload func(oldSettings, newSettings Settings)
}

// HotConfigOptions configures hot reload behavior.
type HotConfigOptions struct {
	// ConfigPath is the path to the configuration file to watch.
	// Supports JSON, YAML, TOML, HCL, INI, Properties formats.
	ConfigPath string

	// PollInterval is how often to check for configuration changes.
	// Default: DefaultReloadInterval. Minimum: 100ms.
	PollInterval time.Duration

	// OnReload is called after settings are applied.
	OnReload func(oldSettings, newSettings Settings)

	// Logger for hot reload operations. If nil, the manager's logger is used.
	Logger reftable.Logger
}

// NewHotConfig creates a hot-reloadable configuration for m. Keys missing
// from the file fall back to the values m had when NewHotConfig was called.
//
// Example configuration file (YAML):
//
//	locator:
//	  app_lookup: "billing"
//	  soft_pin_limit: 512
//	  release_fraction: 0.25
//
// release_fraction is applied to the manager's PressureMonitor, if any.
func NewHotConfig(m *Manager, opts HotConfigOptions) (*HotConfig, error) {
	if opts.ConfigPath == "" {
		return nil, NewErrInvalidConfig("ConfigPath", opts.ConfigPath)
	}
	if opts.PollInterval == 0 {
		opts.PollInterval = DefaultReloadInterval
	} else if opts.PollInterval < minReloadInterval {
		opts.PollInterval = minReloadInterval
	}
	if opts.Logger == nil {
		opts.Logger = m.logger
	}

	base := m.settings()
	hc := &HotConfig{
		manager:  m,
		logger:   opts.Logger,
		base:     base,
		settings: base,
		OnReload: opts.OnReload,
	}

	watcher, err := argus.UniversalConfigWatcherWithConfig(opts.ConfigPath, hc.handleConfigChange, argus.Config{
		PollInterval: opts.PollInterval,
	})
	if err != nil {
		return nil, err
	}
	hc.watcher = watcher
	return hc, nil
}

// Start begins watching the configuration file.
func (hc *HotConfig) Start() error {
	if hc.watcher.IsRunning() {
		return nil
	}
	return hc.watcher.Start()
}

// Stop stops watching the configuration file.
func (hc *HotConfig) Stop() error {
	return hc.watcher.Stop()
}

// GetConfig returns the settings last applied.
func (hc *HotConfig) GetConfig() Settings {
	hc.mu.RLock()
	defer hc.mu.RUnlock()
	return hc.settings
}

func (hc *HotConfig) handleConfigChange(data map[string]interface{}) {
	hc.mu.Lock()
	old := hc.settings
	next := hc.parseConfig(data)
	hc.settings = next
	hc.mu.Unlock()

	hc.applyChanges(old, next)

	if hc.OnReload != nil {
		hc.OnReload(old, next)
	}
}

// parseConfig reads the "locator" section of data. Invalid values are
// ignored and keep their base value.
func (hc *HotConfig) parseConfig(data map[string]interface{}) Settings {
	s := hc.base

	section, ok := data["locator"].(map[string]interface{})
	if !ok {
		// Some parsers flatten a nested section into top-level keys
		if !hasSettingsKey(data) {
			return s
		}
		section = data
	}
	if v, ok := section["app_lookup"].(string); ok {
		s.AppLookup = v
	}
	if n, ok := parsePositiveInt(section["soft_pin_limit"]); ok {
		s.SoftPinLimit = n
	}
	if f, ok := parseFraction(section["release_fraction"]); ok {
		s.ReleaseFraction = f
	}
	return s
}

func hasSettingsKey(data map[string]interface{}) bool {
	for _, key := range []string{"app_lookup", "soft_pin_limit", "release_fraction"} {
		if _, ok := data[key]; ok {
			return true
		}
	}
	return false
}

func (hc *HotConfig) applyChanges(old, next Settings) {
	m := hc.manager
	if old.AppLookup != next.AppLookup {
		m.SetAppLookup(next.AppLookup)
	}
	if old.SoftPinLimit != next.SoftPinLimit {
		m.SetSoftPinLimit(next.SoftPinLimit)
	}
	if old.ReleaseFraction != next.ReleaseFraction && m.config.PressureMonitor != nil {
		m.config.PressureMonitor.SetReleaseFraction(next.ReleaseFraction)
	}
	hc.logger.Info("locator settings reloaded",
		"app_lookup", next.AppLookup,
		"soft_pin_limit", next.SoftPinLimit,
		"release_fraction", next.ReleaseFraction)
}

// settings returns the current run-time parameters of m.
func (m *Manager) settings() Settings {
	s := Settings{
		AppLookup:    m.AppLookup(),
		SoftPinLimit: m.config.SoftPinLimit,
	}
	if m.config.PressureMonitor != nil {
		s.ReleaseFraction = m.config.PressureMonitor.ReleaseFraction()
	}
	return s
}

// parsePositiveInt accepts int and float64 values; YAML and JSON decoders
// differ.
func parsePositiveInt(value interface{}) (int, bool) {
	switch v := value.(type) {
	case int:
		if v > 0 {
			return v, true
		}
	case int64:
		if v > 0 {
			return int(v), true
		}
	case float64:
		if v > 0 {
			return int(v), true
		}
	}
	return 0, false
}

// parseFraction accepts a float64 in (0, 1].
func parseFraction(value interface{}) (float64, bool) {
	if v, ok := value.(float64); ok && v > 0 && v <= 1 {
		return v, true
	}
	return 0, false
}
