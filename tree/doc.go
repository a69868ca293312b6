// Copyright 2025 The Terminator Authors
// SPDX-License-Identifier: Apache-2.0

// Package tree gives higher layers a uniform view of an accessibility
// tree: breadth-first traversal, JSON snapshot serialization an agent can
// reason over offline, and structural diffing between two snapshots of
// the same subtree.
package tree
