// strength.go: pin set backing the Soft reclamation strength
//
// Copyright (c) 2025 AGILira - A. Giordano
// Series: an AGILira fragment
// SPDX-License-Identifier: MPL-2.0

package reftable

import (
	"math"
	"sync/atomic"

	lru "github.com/hashicorp/golang-lru"
)

// pinSet keeps the keys of a Soft table strongly reachable. Keys are pinned
// per entry and released least recently used first, either when the set
// overflows its limit or when the pressure monitor asks for relief. A key
// whose pin is released behaves like a Weak key from then on.
//
// pinSet is safe for concurrent use: the table and the pressure monitor
// operate on it from different goroutines.
type pinSet struct {
	cache    *lru.Cache
	limit    atomic.Int64
	released atomic.Uint64
}

func newPinSet(limit int) (*pinSet, error) {
	cache, err := lru.New(limit)
	if err != nil {
		return nil, err
	}
	p := &pinSet{cache: cache}
	p.limit.Store(int64(limit))
	return p, nil
}

// pin holds key strongly on behalf of owner. Overflow releases the oldest pin.
func (p *pinSet) pin(owner, key interface{}) {
	if evicted := p.cache.Add(owner, key); evicted {
		p.released.Add(1)
	}
}

// touch marks owner's pin as recently used.
func (p *pinSet) touch(owner interface{}) {
	p.cache.Get(owner)
}

// unpin drops owner's pin. It is not counted as a release.
func (p *pinSet) unpin(owner interface{}) {
	p.cache.Remove(owner)
}

// release drops up to n of the least recently used pins and returns how many
// were dropped.
func (p *pinSet) release(n int) int {
	dropped := 0
	for dropped < n {
		if _, _, ok := p.cache.RemoveOldest(); !ok {
			break
		}
		dropped++
	}
	p.released.Add(uint64(dropped))
	return dropped
}

// releaseFraction drops ceil(len × fraction) pins.
func (p *pinSet) releaseFraction(fraction float64) int {
	if fraction <= 0 || math.IsNaN(fraction) {
		return 0
	}
	if fraction > 1 {
		fraction = 1
	}
	n := int(math.Ceil(float64(p.cache.Len()) * fraction))
	return p.release(n)
}

// resize changes the pin limit, releasing the oldest pins if the set shrinks.
func (p *pinSet) resize(limit int) {
	if limit <= 0 {
		return
	}
	evicted := p.cache.Resize(limit)
	p.released.Add(uint64(evicted))
	p.limit.Store(int64(limit))
}

func (p *pinSet) len() int {
	return p.cache.Len()
}

func (p *pinSet) capacity() int {
	return int(p.limit.Load())
}

// purge drops every pin. It is not counted as a release.
func (p *pinSet) purge() {
	p.cache.Purge()
}

// releases returns how many pins were released by overflow, resize or relief.
func (p *pinSet) releases() uint64 {
	return p.released.Load()
}
