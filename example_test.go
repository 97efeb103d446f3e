// example_test.go: godoc examples for reftable
//
// These examples appear in the generated documentation on pkg.go.dev
// and are executed as part of the test suite to ensure they remain valid.
//
// Copyright (c) 2025 AGILira - A. Giordano
// Series: an AGILira library
// SPDX-License-Identifier: MPL-2.0

package reftable_test

import (
	"fmt"
	"runtime"
	"time"

	"github.com/agilira/reftable"
)

type session struct {
	user string
}

// ExampleNew demonstrates basic table creation and usage.
func ExampleNew() {
	table, err := reftable.New[session, string](reftable.DefaultConfig())
	if err != nil {
		panic(err)
	}

	// Keys are compared by pointer identity.
	alice := &session{user: "alice"}
	table.Put(alice, "token-1")

	if token, found := table.Get(alice); found {
		fmt.Println("token:", token)
	}
	_, found := table.Get(&session{user: "alice"})
	fmt.Println("other pointer found:", found)

	// Output:
	// token: token-1
	// other pointer found: false
}

// ExampleValueHasher demonstrates keys compared by content.
func ExampleValueHasher() {
	table := reftable.Must(reftable.New[session, int](reftable.DefaultConfig(),
		reftable.WithHasher[session, int](reftable.ValueHasher[session]{})))

	first, second := &session{user: "bob"}, &session{user: "bob"}
	table.Put(first, 1)
	previous, replaced := table.Put(second, 2)
	fmt.Println(previous, replaced, table.Len())
	runtime.KeepAlive(first)

	// Output: 1 true 1
}

// ExampleTable_Put demonstrates replacing values in place.
func ExampleTable_Put() {
	table := reftable.Must(reftable.New[session, int](reftable.DefaultConfig()))
	k := &session{user: "carol"}

	_, replaced := table.Put(k, 1)
	fmt.Println("replaced:", replaced)
	previous, replaced := table.Put(k, 2)
	fmt.Println("replaced:", replaced, "previous:", previous)

	// Output:
	// replaced: false
	// replaced: true previous: 1
}

// ExampleTable_Remove demonstrates removing a key and the nil key.
func ExampleTable_Remove() {
	table := reftable.Must(reftable.New[session, string](reftable.DefaultConfig()))
	table.Put(nil, "anonymous")

	v, ok := table.Remove(nil)
	fmt.Println(v, ok)
	_, ok = table.Remove(nil)
	fmt.Println(ok)

	// Output:
	// anonymous true
	// false
}

// ExampleEntrySet_Iterator demonstrates removing entries through an iterator.
func ExampleEntrySet_Iterator() {
	table := reftable.Must(reftable.New[session, int](reftable.DefaultConfig()))
	keys := []*session{{"a"}, {"b"}, {"c"}, {"d"}}
	for i, k := range keys {
		table.Put(k, i)
	}

	it := table.Entries().Iterator()
	for it.HasNext() {
		e, err := it.Next()
		if err != nil {
			panic(err)
		}
		if e.Value()%2 == 1 {
			if err := it.Remove(); err != nil {
				panic(err)
			}
		}
	}
	fmt.Println("remaining:", table.Keys().Len())
	runtime.KeepAlive(keys)

	// Output: remaining: 2
}

// ExampleWithOnReclaim demonstrates release of values whose keys were
// collected.
func ExampleWithOnReclaim() {
	closed := 0
	table := reftable.Must(reftable.New[session, string](reftable.DefaultConfig(),
		reftable.WithOnReclaim[session, string](func(string) { closed++ })))

	table.Put(&session{user: "temporary"}, "conn")

	for i := 0; i < 100 && table.Len() > 0; i++ {
		runtime.GC()
		time.Sleep(time.Millisecond)
	}
	fmt.Println("size:", table.Len(), "closed:", closed)

	// Output: size: 0 closed: 1
}

// ExampleConfig_soft demonstrates a Soft table keeping unreferenced keys
// until their pins are released.
func ExampleConfig_soft() {
	table := reftable.Must(reftable.New[session, int](reftable.Config{
		LoadFactor:   reftable.DefaultLoadFactor,
		Strength:     reftable.Soft,
		SoftPinLimit: 16,
	}))
	table.Put(&session{user: "cached"}, 1)

	runtime.GC()
	fmt.Println("after GC:", table.Len())

	released := table.ReleaseSoftPins(1)
	for i := 0; i < 100 && table.Len() > 0; i++ {
		runtime.GC()
		time.Sleep(time.Millisecond)
	}
	fmt.Println("released:", released, "after release:", table.Len())

	// Output:
	// after GC: 1
	// released: 1 after release: 0
}

// ExampleTable_Stats demonstrates reading table statistics.
func ExampleTable_Stats() {
	table := reftable.Must(reftable.New[session, int](reftable.Config{InitialCapacity: 4, LoadFactor: reftable.DefaultLoadFactor}))
	keys := []*session{{"a"}, {"b"}, {"c"}}
	for i, k := range keys {
		table.Put(k, i)
	}

	stats := table.Stats()
	fmt.Printf("size=%d capacity=%d resizes=%d\n", stats.Size, stats.Capacity, stats.Resizes)
	runtime.KeepAlive(keys)

	// Output: size=3 capacity=8 resizes=1
}
