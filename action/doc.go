// Copyright 2025 The Terminator Authors
// SPDX-License-Identifier: Apache-2.0

// Package action executes user-visible operations (click, type, scroll,
// set value, focus, invoke) on resolved accessibility nodes. Pointer
// input is preceded by a precondition protocol: viewport check with
// focus-first and scroll-into-view fallbacks, a bounds-stability wait,
// and an enabled check. After the operation the engine can verify the
// effect with selector queries and attach a before/after tree diff to
// the result.
package action
