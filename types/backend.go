// Copyright 2025 The Terminator Authors
// SPDX-License-Identifier: Apache-2.0

package types

import "context"

// Backend abstracts one operating system's accessibility surface: one
// instance per process, putting enumeration, traversal, attribute reads
// and input synthesis behind a single interface so the
// selector/tree/action layers never know which OS they run on. The
// Windows UI Automation backend (which routes Java Access Bridge windows
// internally), the Linux AT-SPI backend and the in-memory Simulated
// backend implement it; on macOS no backend is available.
//
// Every operation may fail with an *AutomationError from the taxonomy in
// errors.go; "element not found" is never one of them, that being the
// selector resolver's responsibility, not the backend's.
type Backend interface {
	Variant() Variant

	Applications(ctx context.Context) ([]Node, error)
	FocusedElement(ctx context.Context) (Node, error)
	Root(ctx context.Context) (Node, error)
	FindWindowByPID(ctx context.Context, pid int) (Node, error)
	TopWindowForProcess(ctx context.Context, name string) (Node, error)

	Children(ctx context.Context, n Node) ([]Node, error)
	Parent(ctx context.Context, n Node) (Node, error)
	WindowOf(ctx context.Context, n Node) (Node, error)
	Attribute(ctx context.Context, n Node, key string) (string, error)
	Bounds(ctx context.Context, n Node) (Bounds, error)

	// WorkArea is the primary monitor's usable rectangle (the screen minus
	// the taskbar/dock), the region the action engine's viewport check
	// tests element bounds against.
	WorkArea(ctx context.Context) (Bounds, error)

	SynthesizeClick(ctx context.Context, target ClickTarget, button MouseButton, kind ClickType) error
	SynthesizeKeys(ctx context.Context, n Node, keys KeySpec) error
	TypeText(ctx context.Context, n Node, text string) error
	SetValue(ctx context.Context, n Node, value string) error
	SetSelected(ctx context.Context, n Node, selected bool) error
	Focus(ctx context.Context, n Node) error
	Invoke(ctx context.Context, n Node) error
	ScrollIntoView(ctx context.Context, n Node) error
	Scroll(ctx context.Context, n Node, dir ScrollDirection, amount float64) error

	Capture(ctx context.Context, n Node) (Bitmap, error)
	OverlayRectangles(ctx context.Context, shapes []OverlayShape, anchor Node) (OverlayHandle, error)
}
