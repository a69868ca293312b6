// Copyright 2025 The Terminator Authors
// SPDX-License-Identifier: Apache-2.0

// Package logging carries a [*log/slog.Logger] through [context.Context].
// Components pull their logger from the context with FromContext instead
// of taking one as a constructor argument, so callers control handlers,
// levels and output per call tree without plumbing a logger everywhere.
package logging
