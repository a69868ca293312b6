// Copyright 2025 The Terminator Authors
// SPDX-License-Identifier: Apache-2.0

// Package process owns the lifetime of child processes spawned on behalf
// of automation: workflow executors, external tools, and (optionally)
// containers. A process-wide registry tracks every live child; on
// Windows a kernel job object configured with kill-on-close guarantees
// children cannot outlive the parent, and elsewhere the registry's
// shutdown kill is the best-effort fallback.
package process
