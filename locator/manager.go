// manager.go: environment-keyed cache of locators
//
// Copyright (c) 2025 AGILira - A. Giordano
// Series: an AGILira library
// SPDX-License-Identifier: MPL-2.0

package locator

import (
	"context"
	"fmt"
	"math"
	"sort"
	"sync"

	"github.com/agilira/reftable"
)

// Manager caches one Locator per Environment. Both of its tables are Soft
// reftables: environments nobody asked for in a while lose their pins under
// memory pressure or pin overflow. Once no caller holds their Locator either,
// they are collected and their naming contexts closed and dropped. The
// default environment is held for the lifetime of the Manager.
//
// Naming contexts are built outside the manager lock, once per environment
// even under concurrent requests. A Manager is safe for concurrent use.
type Manager struct {
	mu sync.Mutex

	// canonical key string -> environment; the environment pointers are the
	// keys of locators and are held by every Locator handed out
	environments *reftable.Table[string, *Environment]
	locators     *reftable.Table[Environment, *binding]
	defaultEnv   *Environment

	flights *inflight
	prefix  *appLookup
	config  Config
	logger  reftable.Logger
}

// ManagerStats is a snapshot of both manager tables.
type ManagerStats struct {
	Environments reftable.Stats
	Locators     reftable.Stats
	Building     int
}

var defaultManager = sync.OnceValue(func() *Manager {
	return mustManager(NewManager(DefaultConfig()))
})

// Default returns the process-wide Manager built from DefaultConfig.
func Default() *Manager {
	return defaultManager()
}

func mustManager(m *Manager, err error) *Manager {
	if err != nil {
		panic(err)
	}
	return m
}

// NewManager creates a Manager. The configuration is validated and
// defaults are applied.
func NewManager(cfg Config) (*Manager, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	m := &Manager{
		flights: newInflight(),
		prefix:  newAppLookup(cfg.AppLookup),
		config:  cfg,
		logger:  cfg.Logger,
	}

	tableConfig := reftable.Config{
		InitialCapacity: reftable.DefaultInitialCapacity,
		LoadFactor:      reftable.DefaultLoadFactor,
		Strength:        reftable.Soft,
		SoftPinLimit:    cfg.SoftPinLimit,
		PressureMonitor: cfg.PressureMonitor,
		Logger:          cfg.Logger,
		TimeProvider:    cfg.TimeProvider,
	}

	var err error
	m.environments, err = reftable.New(tableConfig,
		reftable.WithHasher[string, *Environment](reftable.ValueHasher[string]{}))
	if err != nil {
		return nil, err
	}

	tableConfig.MetricsCollector = cfg.MetricsCollector
	m.locators, err = reftable.New(tableConfig,
		reftable.WithHasher[Environment, *binding](reftable.ValueHasher[Environment]{}),
		reftable.WithOnReclaim[Environment](m.reclaimed))
	if err != nil {
		return nil, err
	}

	env := cfg.DefaultEnvironment
	m.defaultEnv = &env
	key := env.Key()
	m.environments.Put(&key, m.defaultEnv)
	return m, nil
}

// reclaimed runs under m.mu, from the expunge step of the locator table.
// Every Locator holds its key, so none of b's Locators is still in use.
func (m *Manager) reclaimed(b *binding) {
	if b == nil {
		return
	}
	m.logger.Info("locator reclaimed", "environment", b.env.Key())
	_ = b.close()
}

// Locator returns the Locator of the default environment.
func (m *Manager) Locator(ctx context.Context) (*Locator, error) {
	return m.ForEnvironment(ctx, *m.defaultEnv)
}

// ForHost returns the Locator of HostEnvironment(host, port).
func (m *Manager) ForHost(ctx context.Context, host, port string) (*Locator, error) {
	return m.ForEnvironment(ctx, HostEnvironment(host, port))
}

// ForFactory returns the Locator of FactoryEnvironment(factory, host, port).
func (m *Manager) ForFactory(ctx context.Context, factory, host, port string) (*Locator, error) {
	return m.ForEnvironment(ctx, FactoryEnvironment(factory, host, port))
}

// ForFactoryPrefix returns the Locator of
// PrefixEnvironment(factory, pkgPrefixes, host, port).
func (m *Manager) ForFactoryPrefix(ctx context.Context, factory, pkgPrefixes, host, port string) (*Locator, error) {
	return m.ForEnvironment(ctx, PrefixEnvironment(factory, pkgPrefixes, host, port))
}

// ForEnvironment returns the cached Locator of env, building it on first
// use. A zero env selects the default environment. Construction errors are
// returned to every concurrent caller and are not cached.
func (m *Manager) ForEnvironment(ctx context.Context, env Environment) (*Locator, error) {
	env = env.normalize()
	if env.IsZero() {
		env = *m.defaultEnv
	}
	if l := m.cached(env); l != nil {
		return l, nil
	}

	key := env.Key()
	return m.flights.do(ctx, key, func(ctx context.Context) (*Locator, error) {
		if l := m.cached(env); l != nil {
			return l, nil
		}
		naming, err := m.build(ctx, env)
		if err != nil {
			m.logger.Warn("could not build naming context",
				"environment", key,
				"error", err)
			return nil, err
		}
		return m.store(env, naming), nil
	})
}

// build runs the factory of env without holding the manager lock.
func (m *Manager) build(ctx context.Context, env Environment) (Context, error) {
	factory, err := lookupFactory(env)
	if err != nil {
		return nil, err
	}
	naming, err := factory(ctx, env)
	switch {
	case err != nil && ctx.Err() != nil:
		return nil, ctx.Err()
	case err != nil:
		return nil, NewErrFactoryFailed(env.Key(), err)
	case naming == nil:
		return nil, NewErrFactoryFailed(env.Key(), fmt.Errorf("factory %q returned no context", env.FactoryName()))
	}
	return naming, nil
}

func (m *Manager) cached(env Environment) *Locator {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.lookup(env)
}

// lookup returns a Locator for the cached binding of env, or nil. Callers
// hold m.mu.
func (m *Manager) lookup(env Environment) *Locator {
	b, ok := m.locators.Get(&env)
	if !ok {
		return nil
	}
	return b.locator()
}

// store caches a freshly built naming context, or closes it and returns
// the Locator that won a race for the same environment.
func (m *Manager) store(env Environment, naming Context) *Locator {
	m.mu.Lock()
	defer m.mu.Unlock()
	if existing := m.lookup(env); existing != nil {
		b := newBinding(&env, naming, m.prefix, m.logger, m.config.TimeProvider.Now())
		_ = b.close()
		return existing
	}
	key := m.canonical(env)
	b := newBinding(key, naming, m.prefix, m.logger, m.config.TimeProvider.Now())
	m.locators.Put(key, b)
	m.logger.Debug("locator created", "environment", env.Key())
	return b.locator()
}

// canonical returns the environment pointer used as key for env, creating
// it if needed. Callers hold m.mu.
func (m *Manager) canonical(env Environment) *Environment {
	key := env.Key()
	if e, ok := m.environments.Get(&key); ok {
		return e
	}
	if env == *m.defaultEnv {
		m.environments.Put(&key, m.defaultEnv)
		return m.defaultEnv
	}
	e := &env
	m.environments.Put(&key, e)
	return e
}

// Remove closes and forgets the Locator of env, including any copy a
// caller still holds. It reports whether one was cached.
func (m *Manager) Remove(env Environment) bool {
	env = env.normalize()
	if env.IsZero() {
		env = *m.defaultEnv
	}
	key := env.Key()

	m.mu.Lock()
	b, ok := m.locators.Remove(&env)
	m.environments.Remove(&key)
	m.mu.Unlock()

	if ok {
		_ = b.close()
		m.logger.Debug("locator removed", "environment", key)
	}
	return ok
}

// RemoveDefault closes and forgets the Locator of the default environment.
// The next Locator call builds a new one.
func (m *Manager) RemoveDefault() bool {
	return m.Remove(*m.defaultEnv)
}

// RemoveHost closes and forgets the Locator of HostEnvironment(host, port).
func (m *Manager) RemoveHost(host, port string) bool {
	return m.Remove(HostEnvironment(host, port))
}

// RemoveFactory closes and forgets the Locator of
// FactoryEnvironment(factory, host, port).
func (m *Manager) RemoveFactory(factory, host, port string) bool {
	return m.Remove(FactoryEnvironment(factory, host, port))
}

// RemoveFactoryPrefix closes and forgets the Locator of
// PrefixEnvironment(factory, pkgPrefixes, host, port).
func (m *Manager) RemoveFactoryPrefix(factory, pkgPrefixes, host, port string) bool {
	return m.Remove(PrefixEnvironment(factory, pkgPrefixes, host, port))
}

// Close closes every cached Locator and empties both tables. The Manager
// stays usable: later requests build new Locators.
func (m *Manager) Close() error {
	m.mu.Lock()
	open := m.locators.Values().Slice()
	m.locators.Clear()
	m.environments.Clear()
	m.mu.Unlock()

	var firstErr error
	for _, b := range open {
		if err := b.close(); err != nil && firstErr == nil {
			firstErr = err
		}
	}
	m.logger.Debug("locator manager closed", "closed", len(open))
	return firstErr
}

// Len returns the number of cached Locators.
func (m *Manager) Len() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.environments.Len()
	return m.locators.Len()
}

// Environments returns the keys of the cached Locators in sorted order.
func (m *Manager) Environments() []string {
	m.mu.Lock()
	keys := make([]string, 0, m.locators.Len())
	for env := range m.locators.All() {
		keys = append(keys, env.Key())
	}
	m.mu.Unlock()
	sort.Strings(keys)
	return keys
}

// AppLookup returns the application lookup prefix.
func (m *Manager) AppLookup() string {
	return m.prefix.get()
}

// SetAppLookup changes the application lookup prefix of every Locator of
// this Manager, including the ones already handed out.
func (m *Manager) SetAppLookup(prefix string) {
	m.prefix.set(prefix)
	m.logger.Info("app lookup prefix changed", "prefix", m.prefix.get())
}

// SetSoftPinLimit changes the pin limit of both tables.
func (m *Manager) SetSoftPinLimit(n int) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.environments.SetSoftPinLimit(n)
	m.locators.SetSoftPinLimit(n)
}

// ReleasePins releases every pin of both tables, leaving cached entries to
// the collector. It returns the number of pins released.
func (m *Manager) ReleasePins() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.environments.ReleaseSoftPins(math.MaxInt) + m.locators.ReleaseSoftPins(math.MaxInt)
}

// Stats returns a snapshot of both tables.
func (m *Manager) Stats() ManagerStats {
	m.mu.Lock()
	defer m.mu.Unlock()
	return ManagerStats{
		Environments: m.environments.Stats(),
		Locators:     m.locators.Stats(),
		Building:     m.flights.pending(),
	}
}
