// context.go: naming contexts and the factory registry
//
// Copyright (c) 2025 AGILira - A. Giordano
// Series: an AGILira library
// SPDX-License-Identifier: MPL-2.0

package locator

import (
	"context"
	"sort"

	"github.com/puzpuzpuz/xsync/v3"
)

// Context resolves names to objects. It is the handle a Locator wraps and
// the expensive resource the Manager caches per Environment.
//
// Implementations must be safe for concurrent use. Lookup returns an error
// with code LOCATOR_NAME_NOT_FOUND for an unbound name; any other error is
// reported to callers as LOCATOR_LOOKUP_FAILED.
type Context interface {
	// Lookup resolves name.
	Lookup(ctx context.Context, name string) (interface{}, error)

	// Close releases the context. Lookups after Close fail.
	Close() error
}

// Factory builds a naming context for env. It may block; ctx bounds it.
type Factory func(ctx context.Context, env Environment) (Context, error)

var factories = xsync.NewMapOf[string, Factory]()

func init() {
	factories.Store(DefaultFactory, newMemoryContext)
}

// Register makes factory available under name, replacing any previous
// registration. The name "memory" is the built-in in-process directory and
// may be replaced too.
func Register(name string, factory Factory) error {
	if name == "" || factory == nil {
		return NewErrInvalidFactory(name)
	}
	factories.Store(name, factory)
	return nil
}

// Unregister removes the factory registered under name.
func Unregister(name string) {
	factories.Delete(name)
}

// Factories returns the registered factory names in sorted order.
func Factories() []string {
	names := make([]string, 0, factories.Size())
	factories.Range(func(name string, _ Factory) bool {
		names = append(names, name)
		return true
	})
	sort.Strings(names)
	return names
}

// lookupFactory returns the factory named by env.
func lookupFactory(env Environment) (Factory, error) {
	name := env.FactoryName()
	f, ok := factories.Load(name)
	if !ok {
		return nil, NewErrUnknownFactory(name)
	}
	return f, nil
}
