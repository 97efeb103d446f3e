// memory.go: in-process naming directory behind the "memory" factory
//
// Copyright (c) 2025 AGILira - A. Giordano
// Series: an AGILira library
// SPDX-License-Identifier: MPL-2.0

package locator

import (
	"context"
	"strings"
	"sync"
	"sync/atomic"

	iradix "github.com/hashicorp/go-immutable-radix"
	"github.com/puzpuzpuz/xsync/v3"
)

// Directory is an in-process naming directory. Bindings live in an
// immutable radix tree: readers load the current tree without locking and
// writers publish a new tree under a mutex.
type Directory struct {
	mu   sync.Mutex
	tree atomic.Pointer[iradix.Tree]
}

// NewDirectory creates an empty directory.
func NewDirectory() *Directory {
	d := &Directory{}
	d.tree.Store(iradix.New())
	return d
}

var directories = xsync.NewMapOf[string, *Directory]()

// MemoryDirectory returns the process-wide directory served by the
// "memory" factory for providerURL, creating it on first use.
func MemoryDirectory(providerURL string) *Directory {
	d, _ := directories.LoadOrCompute(strings.TrimSpace(providerURL), NewDirectory)
	return d
}

// DropMemoryDirectory forgets the directory for providerURL. Contexts
// already built on it keep their reference.
func DropMemoryDirectory(providerURL string) {
	directories.Delete(strings.TrimSpace(providerURL))
}

// Bind associates name with obj, replacing any previous binding.
func (d *Directory) Bind(name string, obj interface{}) error {
	if name == "" {
		return NewErrInvalidName("Bind")
	}
	d.mu.Lock()
	tree, _, _ := d.tree.Load().Insert([]byte(name), obj)
	d.tree.Store(tree)
	d.mu.Unlock()
	return nil
}

// Unbind removes the binding of name and reports whether it existed.
func (d *Directory) Unbind(name string) bool {
	d.mu.Lock()
	defer d.mu.Unlock()
	tree, _, ok := d.tree.Load().Delete([]byte(name))
	if ok {
		d.tree.Store(tree)
	}
	return ok
}

// Get returns the object bound to name.
func (d *Directory) Get(name string) (interface{}, bool) {
	return d.tree.Load().Get([]byte(name))
}

// List returns the bound names starting with prefix, in lexical order.
func (d *Directory) List(prefix string) []string {
	var names []string
	d.tree.Load().Root().WalkPrefix([]byte(prefix), func(k []byte, _ interface{}) bool {
		names = append(names, string(k))
		return false
	})
	return names
}

// Len returns the number of bindings.
func (d *Directory) Len() int {
	return d.tree.Load().Len()
}

// memoryContext is the Context built by the "memory" factory.
type memoryContext struct {
	dir    *Directory
	closed atomic.Bool
}

func newMemoryContext(ctx context.Context, env Environment) (Context, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	return &memoryContext{dir: MemoryDirectory(env.ProviderURL)}, nil
}

func (c *memoryContext) Lookup(ctx context.Context, name string) (interface{}, error) {
	if c.closed.Load() {
		return nil, NewErrClosed("Lookup")
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	obj, ok := c.dir.Get(name)
	if !ok {
		return nil, NewErrNameNotFound(name)
	}
	return obj, nil
}

func (c *memoryContext) Close() error {
	c.closed.Store(true)
	return nil
}
