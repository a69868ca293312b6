// Copyright 2025 The Terminator Authors
// SPDX-License-Identifier: Apache-2.0

//go:build darwin

package platform

import (
	"context"

	"github.com/mediar-ai/terminator-sub003/types"
)

// newNative reports the macOS backend as unavailable. The AX APIs
// (AXUIElement and friends) are C-only and need a cgo bridge; until that
// lands every operation surfaces a typed Unsupported error rather than a
// partial, misleading tree.
func newNative(ctx context.Context) (types.Backend, error) {
	return nil, types.NewUnsupported("macOS accessibility backend")
}
