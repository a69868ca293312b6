// Copyright 2025 The Terminator Authors
// SPDX-License-Identifier: Apache-2.0

//go:build !windows && !linux && !darwin

package platform

import (
	"context"

	"github.com/mediar-ai/terminator-sub003/types"
)

func newNative(ctx context.Context) (types.Backend, error) {
	return nil, types.NewUnsupported("accessibility backend for this OS")
}
