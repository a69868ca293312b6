// Copyright 2025 The Terminator Authors
// SPDX-License-Identifier: Apache-2.0

// Package pool provides strongly-typed object pooling over [sync.Pool],
// with predefined pools for [*bytes.Buffer] and [*strings.Builder]. Used
// on the hot paths of selector matching, where a resolve touches every
// candidate node in a subtree.
package pool
