// locator.go: lookup facade over a naming context
//
// Copyright (c) 2025 AGILira - A. Giordano
// Series: an AGILira library
// SPDX-License-Identifier: MPL-2.0

package locator

import (
	"context"
	"fmt"
	"reflect"
	"sync"
	"sync/atomic"
	"weak"

	"github.com/agilira/reftable"
)

const (
	remoteSuffix = "/remote"
	localSuffix  = "/local"
)

// Locator resolves component names through one naming context. Names are
// composed under the application lookup prefix of the Manager that built
// the Locator.
//
// A Locator is safe for concurrent use. It keeps its environment cached in
// the Manager for as long as the caller holds it. It is closed when the
// Manager removes it or is closed. Once no caller holds a Locator for an
// environment, the environment may be reclaimed and its naming context
// closed.
type Locator struct {
	// canonical key of the Manager's locator table
	key *Environment
	b   *binding
}

// binding is the naming state the Manager's locator table stores for one
// environment. It references its key only weakly, so the key, and with it
// the table entry, lives exactly as long as a pin or a Locator holds it.
type binding struct {
	env     Environment
	naming  Context
	prefix  *appLookup
	logger  reftable.Logger
	created int64

	key weak.Pointer[Environment]
	// last handle given out; guarded by the Manager lock
	handle weak.Pointer[Locator]

	mu     sync.Mutex
	closed atomic.Bool
}

func newBinding(key *Environment, naming Context, prefix *appLookup, logger reftable.Logger, created int64) *binding {
	return &binding{
		env:     *key,
		naming:  naming,
		prefix:  prefix,
		logger:  logger,
		created: created,
		key:     weak.Make(key),
	}
}

func newLocator(key *Environment, naming Context, prefix *appLookup, logger reftable.Logger, created int64) *Locator {
	return newBinding(key, naming, prefix, logger, created).locator()
}

// locator returns the Locator currently handed out for b, or a new one.
// It returns nil once the key was collected.
func (b *binding) locator() *Locator {
	if l := b.handle.Value(); l != nil {
		return l
	}
	key := b.key.Value()
	if key == nil {
		return nil
	}
	l := &Locator{key: key, b: b}
	b.handle = weak.Make(l)
	return l
}

// close closes the naming context once.
func (b *binding) close() error {
	b.mu.Lock()
	defer b.mu.Unlock()
	if b.closed.Load() {
		return nil
	}
	b.closed.Store(true)
	if err := b.naming.Close(); err != nil {
		b.logger.Warn("could not close naming context",
			"environment", b.env.Key(),
			"error", err)
		return err
	}
	return nil
}

// Environment returns the environment the Locator was built for.
func (l *Locator) Environment() Environment {
	return *l.key
}

// Created returns when the Locator was built, in nanoseconds since epoch.
func (l *Locator) Created() int64 {
	return l.b.created
}

// FullPath returns name under the current application lookup prefix.
func (l *Locator) FullPath(name string) string {
	return fullPath(l.b.prefix.get(), name)
}

// Lookup resolves name under the application lookup prefix.
func (l *Locator) Lookup(ctx context.Context, name string) (interface{}, error) {
	if name == "" {
		return nil, NewErrInvalidName("Lookup")
	}
	if l.b.closed.Load() {
		return nil, NewErrClosed("Lookup")
	}
	path := l.FullPath(name)
	obj, err := l.b.naming.Lookup(ctx, path)
	if err == nil {
		return obj, nil
	}

	switch {
	case IsNotFound(err), IsClosed(err):
	case ctx.Err() != nil:
		err = ctx.Err()
	default:
		err = NewErrLookupFailed(path, err)
	}
	l.b.logger.Warn("lookup failed",
		"name", name,
		"path", path,
		"environment", l.key.Key(),
		"error", err)
	return nil, err
}

// Remote resolves the remote interface of bean, bound at "bean/remote".
func (l *Locator) Remote(ctx context.Context, bean string) (interface{}, error) {
	if bean == "" {
		return nil, NewErrInvalidName("Remote")
	}
	return l.Lookup(ctx, bean+remoteSuffix)
}

// Local resolves the local interface of bean, bound at "bean/local".
func (l *Locator) Local(ctx context.Context, bean string) (interface{}, error) {
	if bean == "" {
		return nil, NewErrInvalidName("Local")
	}
	return l.Lookup(ctx, bean+localSuffix)
}

// LookupRef resolves the reference ref of bean, bound at "bean/ref".
func (l *Locator) LookupRef(ctx context.Context, bean, ref string) (interface{}, error) {
	if bean == "" || ref == "" {
		return nil, NewErrInvalidName("LookupRef")
	}
	return l.Lookup(ctx, bean+"/"+ref)
}

// Close closes the naming context. Further lookups fail with
// LOCATOR_CLOSED. Closing twice is a no-op.
func (l *Locator) Close() error {
	return l.b.close()
}

// Closed reports whether the Locator was closed.
func (l *Locator) Closed() bool {
	return l.b.closed.Load()
}

func (l *Locator) String() string {
	return fmt.Sprintf("Locator(%s)", l.key.Key())
}

// LookupAs resolves name and asserts the result to T.
func LookupAs[T any](ctx context.Context, l *Locator, name string) (T, error) {
	obj, err := l.Lookup(ctx, name)
	return assertAs[T](l, name, obj, err)
}

// RemoteAs resolves the remote interface of bean and asserts it to T.
func RemoteAs[T any](ctx context.Context, l *Locator, bean string) (T, error) {
	obj, err := l.Remote(ctx, bean)
	return assertAs[T](l, bean+remoteSuffix, obj, err)
}

// LocalAs resolves the local interface of bean and asserts it to T.
func LocalAs[T any](ctx context.Context, l *Locator, bean string) (T, error) {
	obj, err := l.Local(ctx, bean)
	return assertAs[T](l, bean+localSuffix, obj, err)
}

// LookupRefAs resolves the reference ref of bean and asserts it to T.
func LookupRefAs[T any](ctx context.Context, l *Locator, bean, ref string) (T, error) {
	obj, err := l.LookupRef(ctx, bean, ref)
	return assertAs[T](l, bean+"/"+ref, obj, err)
}

func assertAs[T any](l *Locator, name string, obj interface{}, err error) (T, error) {
	var zero T
	if err != nil {
		return zero, err
	}
	v, ok := obj.(T)
	if !ok {
		want := reflect.TypeFor[T]().String()
		err := NewErrTypeMismatch(l.FullPath(name), want, obj)
		l.b.logger.Warn("lookup type mismatch",
			"name", name,
			"expected", want,
			"actual", fmt.Sprintf("%T", obj))
		return zero, err
	}
	return v, nil
}
