// Copyright 2025 The Terminator Authors
// SPDX-License-Identifier: Apache-2.0

// Package locator implements the selector resolver: deadline-bounded
// polling of a selector.Selector against a live tree, and the
// convenience operations (first, all, nth, wait) built on top of it.
// It depends on selector and types but never on tree, action or process,
// keeping the dependency graph leaves-first as the component design
// requires.
package locator
