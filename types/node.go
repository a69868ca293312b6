// Copyright 2025 The Terminator Authors
// SPDX-License-Identifier: Apache-2.0

package types

import "context"

// Variant identifies which platform accessibility backend produced a Node,
// so the public Node type stays opaque while still letting the backend
// dispatch on it internally.
type Variant int

const (
	VariantWindows Variant = iota
	VariantDarwin
	VariantLinux
	VariantJavaAccessBridge
	VariantSimulated // in-memory backend used by tests and headless demos
)

func (v Variant) String() string {
	switch v {
	case VariantWindows:
		return "windows"
	case VariantDarwin:
		return "darwin"
	case VariantLinux:
		return "linux"
	case VariantJavaAccessBridge:
		return "java-access-bridge"
	case VariantSimulated:
		return "simulated"
	default:
		return "unknown"
	}
}

// Node is a borrowed view onto one element of the accessibility tree of one
// running application. It wraps a reference-counted platform handle;
// it is never safe to assume two Node values obtained from separate queries
// compare equal by identity, and any method may return a KindStaleElement
// AutomationError if the underlying OS object has gone away.
//
// Node implementations are produced exclusively by a Backend; callers never
// construct one directly.
type Node interface {
	// HandleID is an opaque identifier for the underlying platform handle,
	// stable for this node's lifetime, but not guaranteed stable across
	// repeated queries of the same on-screen element. It is used internally for
	// deduplication (tree traversal, chain-step candidate sets) and as
	// the diff identity key. It is not the accessibility "id" attribute
	// a selector's id: atom matches; see AccessibilityID.
	HandleID() string

	// ProcessID is the owning process's id. It does not change for the
	// node's lifetime even if other attributes do.
	ProcessID() int

	// AccessibilityID is the accessibility-framework "id" property (what
	// selector.ID matches), distinct from both HandleID (opaque platform
	// handle) and NativeID (the framework's automation id).
	AccessibilityID() (string, error)

	// NativeID is the platform automation id (e.g. Windows AutomationId),
	// empty if the platform/element does not expose one.
	NativeID() string

	// Variant reports which backend produced this node.
	Variant() Variant

	Role() (string, error)
	LocalizedRole() (string, error)
	ClassName() (string, error)
	Name() (string, error)
	Value() (string, error)
	Description() (string, error)
	HelpText() (string, error)

	Bounds() (Bounds, error)
	IsVisible() (bool, error)
	IsOffscreen() (bool, error)

	IsEnabled() (bool, error)
	IsFocused() (bool, error)
	IsSelected() (bool, error)
	IsKeyboardFocusable() (bool, error)
	IsToggleOn() (bool, error)
	IsExpanded() (bool, error)

	// Attribute fetches a single named attribute not otherwise exposed by
	// a typed accessor above.
	Attribute(ctx context.Context, key string) (string, error)

	Parent(ctx context.Context) (Node, error)
	// Children returns immediate children in accessibility-tree order,
	// used for deterministic nth: indexing.
	Children(ctx context.Context) ([]Node, error)
	Window(ctx context.Context) (Node, error)
}

// ClickTarget names what synthesise_click acts on: either a resolved node
// (centroid used unless Point is set) or an explicit screen point.
type ClickTarget struct {
	Node  Node
	Point *Point
}
