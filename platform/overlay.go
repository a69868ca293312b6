// Copyright 2025 The Terminator Authors
// SPDX-License-Identifier: Apache-2.0

package platform

import (
	"sync"

	"github.com/mediar-ai/terminator-sub003/types"
)

// overlayManager enforces the at-most-one-overlay-per-anchor-window rule:
// showing a new overlay on a window closes the previous one first. The
// Windows and Simulated backends route OverlayRectangles through one of
// these; the Linux backend holds one but reports overlays as Unsupported.
type overlayManager struct {
	mu     sync.Mutex
	active map[string]types.OverlayHandle // anchor window HandleID -> shown overlay
}

func newOverlayManager() *overlayManager {
	return &overlayManager{active: map[string]types.OverlayHandle{}}
}

// replace installs handle as the overlay for anchorID, closing any prior
// overlay on the same anchor. The returned handle wraps the caller's so
// that closing it also clears the manager's slot.
func (m *overlayManager) replace(anchorID string, handle types.OverlayHandle) types.OverlayHandle {
	m.mu.Lock()
	prior := m.active[anchorID]
	wrapped := &managedOverlay{manager: m, anchorID: anchorID, inner: handle}
	m.active[anchorID] = wrapped
	m.mu.Unlock()

	if prior != nil {
		prior.Close()
	}
	return wrapped
}

type managedOverlay struct {
	manager  *overlayManager
	anchorID string
	inner    types.OverlayHandle

	mu     sync.Mutex
	closed bool
}

func (o *managedOverlay) Close() error {
	o.mu.Lock()
	if o.closed {
		o.mu.Unlock()
		return nil
	}
	o.closed = true
	o.mu.Unlock()

	o.manager.mu.Lock()
	if o.manager.active[o.anchorID] == types.OverlayHandle(o) {
		delete(o.manager.active, o.anchorID)
	}
	o.manager.mu.Unlock()
	return o.inner.Close()
}
