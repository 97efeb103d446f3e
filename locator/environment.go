// environment.go: naming environments keying the locator cache
//
// Copyright (c) 2025 AGILira - A. Giordano
// Series: an AGILira library
// SPDX-License-Identifier: MPL-2.0

package locator

import (
	"strings"
)

const (
	// DefaultFactory is the factory used when an environment names none.
	DefaultFactory = "memory"

	// DefaultPkgPrefixes is the package prefix list of host environments.
	DefaultPkgPrefixes = "reftable.locator:reftable.naming"

	keySeparator = ":"
)

// Environment describes how to build a naming context. It is an immutable
// value: two environments with equal fields address the same Locator.
type Environment struct {
	// Factory names the registered factory that builds the context.
	Factory string

	// PkgPrefixes is a colon separated list of package prefixes handed
	// to the factory. Factories may ignore it.
	PkgPrefixes string

	// ProviderURL locates the naming service, usually "host:port".
	ProviderURL string
}

// HostEnvironment returns the environment of the default factory for the
// naming service at host:port.
func HostEnvironment(host, port string) Environment {
	return Environment{
		Factory:     DefaultFactory,
		PkgPrefixes: DefaultPkgPrefixes,
		ProviderURL: combineKey(host, port),
	}
}

// FactoryEnvironment returns the environment of factory for the naming
// service at host:port.
func FactoryEnvironment(factory, host, port string) Environment {
	return Environment{
		Factory:     strings.TrimSpace(factory),
		ProviderURL: combineKey(host, port),
	}
}

// PrefixEnvironment returns the environment of factory with the given
// package prefixes for the naming service at host:port.
func PrefixEnvironment(factory, pkgPrefixes, host, port string) Environment {
	return Environment{
		Factory:     strings.TrimSpace(factory),
		PkgPrefixes: strings.TrimSpace(pkgPrefixes),
		ProviderURL: combineKey(host, port),
	}
}

// Key returns the canonical cache key "factory:pkgPrefixes:providerURL",
// each part trimmed of surrounding whitespace.
func (e Environment) Key() string {
	return combineKey(e.Factory, e.PkgPrefixes, e.ProviderURL)
}

// FactoryName returns the factory to use, DefaultFactory if none is set.
func (e Environment) FactoryName() string {
	if f := strings.TrimSpace(e.Factory); f != "" {
		return f
	}
	return DefaultFactory
}

// IsZero reports whether no field is set.
func (e Environment) IsZero() bool {
	return e == Environment{}
}

func (e Environment) String() string {
	return e.Key()
}

// normalize trims every field so that environments differing only by
// surrounding whitespace share a Locator.
func (e Environment) normalize() Environment {
	return Environment{
		Factory:     strings.TrimSpace(e.Factory),
		PkgPrefixes: strings.TrimSpace(e.PkgPrefixes),
		ProviderURL: strings.TrimSpace(e.ProviderURL),
	}
}

// combineKey joins the trimmed parts with ':'.
func combineKey(parts ...string) string {
	switch len(parts) {
	case 0:
		return ""
	case 1:
		return parts[0]
	}
	var b strings.Builder
	for i, p := range parts {
		if i > 0 {
			b.WriteString(keySeparator)
		}
		b.WriteString(strings.TrimSpace(p))
	}
	return b.String()
}
