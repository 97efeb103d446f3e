// Package locator caches naming-context handles per environment on top of
// Soft reftables.
//
// A Manager hands out one Locator per Environment. Building a Locator runs
// the Factory registered for the environment, which may be slow, so the
// Manager keeps Locators in a Soft reftable keyed by canonical environment
// pointers. Every Locator holds its environment pointer, so an environment
// stays cached while a caller holds its Locator. Environments that stop
// being requested and held lose their pins under pin overflow or memory
// pressure, are collected, and their naming contexts are closed. The
// default environment is never reclaimed.
//
// Quick start:
//
//	dir := locator.MemoryDirectory("")
//	_ = dir.Bind("billing/Invoices/remote", invoices)
//
//	m, _ := locator.NewManager(locator.Config{AppLookup: "billing"})
//	loc, _ := m.Locator(ctx)
//	svc, err := locator.RemoteAs[InvoiceService](ctx, loc, "Invoices")
//
// Factories are registered process-wide with Register. The built-in
// "memory" factory serves the Directory returned by MemoryDirectory for
// the environment's provider URL.
//
// Errors carry codes from github.com/agilira/go-errors. Use IsNotFound,
// IsTypeMismatch, IsClosed and IsFactoryError to classify them; factory
// failures and failed lookups are retryable.
//
// Copyright (c) 2025 AGILira - A. Giordano
// Series: an AGILira library
// SPDX-License-Identifier: MPL-2.0
package locator
