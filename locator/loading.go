// loading.go: single-flight construction of naming contexts
//
// Concurrent requests for a Locator that is not cached yet share one
// factory call per environment. Factory errors and panics are returned to
// every waiter and are never cached.
//
// Copyright (c) 2025 AGILira - A. Giordano
// Series: an AGILira library
// SPDX-License-Identifier: MPL-2.0

package locator

import (
	"context"

	"github.com/puzpuzpuz/xsync/v3"
)

// inflightCall is one in-progress build. done is closed once loc and err
// are set, broadcasting the result to every waiter.
type inflightCall struct {
	done chan struct{}
	loc  *Locator
	err  error
}

// inflight deduplicates concurrent builds by environment key.
type inflight struct {
	calls *xsync.MapOf[string, *inflightCall]
}

func newInflight() *inflight {
	return &inflight{calls: xsync.NewMapOf[string, *inflightCall]()}
}

// do runs build once for concurrent callers sharing key. Waiters stop
// waiting when their ctx is done; the build itself keeps running for the
// caller that started it.
func (f *inflight) do(ctx context.Context, key string, build func(context.Context) (*Locator, error)) (*Locator, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	call := &inflightCall{done: make(chan struct{})}
	actual, loaded := f.calls.LoadOrStore(key, call)
	if loaded {
		select {
		case <-actual.done:
			return actual.loc, actual.err
		case <-ctx.Done():
			return nil, ctx.Err()
		}
	}

	defer func() {
		close(call.done)
		f.calls.Delete(key)
	}()

	func() {
		defer func() {
			if r := recover(); r != nil {
				call.loc, call.err = nil, NewErrPanicRecovered(key, r)
			}
		}()
		call.loc, call.err = build(ctx)
	}()
	return call.loc, call.err
}

// pending returns the number of builds in progress.
func (f *inflight) pending() int {
	return f.calls.Size()
}
