// Copyright 2025 The Terminator Authors
// SPDX-License-Identifier: Apache-2.0

package platform

import (
	"context"
	"sync"

	"github.com/mediar-ai/terminator-sub003/types"
)

var (
	sharedOnce sync.Once
	shared     types.Backend
	sharedErr  error
)

// New returns the process-wide backend for the running operating system,
// creating it on first call. Platform backends hold OS-global resources
// (COM apartments, D-Bus connections), so there is exactly one per
// process.
func New(ctx context.Context) (types.Backend, error) {
	sharedOnce.Do(func() {
		shared, sharedErr = newNative(ctx)
	})
	return shared, sharedErr
}
