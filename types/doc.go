// Copyright 2025 The Terminator Authors
// SPDX-License-Identifier: Apache-2.0

// Package types holds the contracts shared across the terminator packages:
// the [Node] and [Backend] interfaces that every platform variant
// implements, the value types that cross package boundaries (bounds,
// points, roles, mouse/key specs), and the single error taxonomy
// ([AutomationError]) every public operation returns through.
//
// Concrete implementations live in other packages (the platform package's
// backends implement Backend, each platform variant produces values
// implementing Node), so no package reaches a backend except through
// these interfaces. selector, tree and platform import no sibling package
// but types (selector also uses internal/pool); locator builds on
// selector, and action on selector and tree.
package types
