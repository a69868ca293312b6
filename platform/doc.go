// Copyright 2025 The Terminator Authors
// SPDX-License-Identifier: Apache-2.0

// Package platform implements the [types.Backend] contract for each
// operating system: Windows UI Automation (with transparent Java Access
// Bridge routing for JAB-backed windows), Linux AT-SPI over the session
// D-Bus, and a macOS placeholder, plus an in-memory Simulated backend
// used by tests and headless tooling.
//
// New picks the variant for the running OS; callers that need a specific
// one (usually Simulated) construct it directly. Higher layers only ever
// see types.Backend and types.Node; nothing platform-specific leaks
// upward.
package platform
