// Copyright 2025 The Terminator Authors
// SPDX-License-Identifier: Apache-2.0

package locator

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/mediar-ai/terminator-sub003/selector"
	"github.com/mediar-ai/terminator-sub003/types"
)

type fakeNode struct {
	id       string
	role     string
	name     string
	children []*fakeNode
}

func (n *fakeNode) HandleID() string                { return n.id }
func (n *fakeNode) ProcessID() int                   { return 1 }
func (n *fakeNode) AccessibilityID() (string, error) { return n.id, nil }
func (n *fakeNode) NativeID() string                 { return "" }
func (n *fakeNode) Variant() types.Variant           { return types.VariantSimulated }
func (n *fakeNode) Role() (string, error)            { return n.role, nil }
func (n *fakeNode) LocalizedRole() (string, error)   { return n.role, nil }
func (n *fakeNode) ClassName() (string, error)       { return "", nil }
func (n *fakeNode) Name() (string, error)            { return n.name, nil }
func (n *fakeNode) Value() (string, error)           { return "", nil }
func (n *fakeNode) Description() (string, error)     { return "", nil }
func (n *fakeNode) HelpText() (string, error)        { return "", nil }
func (n *fakeNode) Bounds() (types.Bounds, error)     { return types.Bounds{Width: 10, Height: 10}, nil }
func (n *fakeNode) IsVisible() (bool, error)          { return true, nil }
func (n *fakeNode) IsOffscreen() (bool, error)        { return false, nil }
func (n *fakeNode) IsEnabled() (bool, error)          { return true, nil }
func (n *fakeNode) IsFocused() (bool, error)          { return false, nil }
func (n *fakeNode) IsSelected() (bool, error)         { return false, nil }
func (n *fakeNode) IsKeyboardFocusable() (bool, error) { return false, nil }
func (n *fakeNode) IsToggleOn() (bool, error)          { return false, nil }
func (n *fakeNode) IsExpanded() (bool, error)          { return false, nil }
func (n *fakeNode) Attribute(ctx context.Context, key string) (string, error) { return "", nil }
func (n *fakeNode) Parent(ctx context.Context) (types.Node, error)            { return nil, nil }
func (n *fakeNode) Children(ctx context.Context) ([]types.Node, error) {
	out := make([]types.Node, len(n.children))
	for i, c := range n.children {
		out[i] = c
	}
	return out, nil
}
func (n *fakeNode) Window(ctx context.Context) (types.Node, error) { return n, nil }

// fakeBackend reveals its root's children only after revealAfter calls to
// Children, simulating a control that appears on screen after a delay,
// exercising the resolver's back-off loop.
type fakeBackend struct {
	calls       int
	revealAfter int
	revealed    []*fakeNode
}

func (b *fakeBackend) Children(ctx context.Context, n types.Node) ([]types.Node, error) {
	b.calls++
	if b.calls <= b.revealAfter {
		return nil, nil
	}
	out := make([]types.Node, len(b.revealed))
	for i, c := range b.revealed {
		out[i] = c
	}
	return out, nil
}
func (b *fakeBackend) Variant() types.Variant { return types.VariantSimulated }
func (b *fakeBackend) Applications(ctx context.Context) ([]types.Node, error) { return nil, nil }
func (b *fakeBackend) FocusedElement(ctx context.Context) (types.Node, error) { return nil, nil }
func (b *fakeBackend) Root(ctx context.Context) (types.Node, error)           { return nil, nil }
func (b *fakeBackend) FindWindowByPID(ctx context.Context, pid int) (types.Node, error) {
	return nil, nil
}
func (b *fakeBackend) TopWindowForProcess(ctx context.Context, name string) (types.Node, error) {
	return nil, nil
}
func (b *fakeBackend) Parent(ctx context.Context, n types.Node) (types.Node, error) { return nil, nil }
func (b *fakeBackend) WindowOf(ctx context.Context, n types.Node) (types.Node, error) {
	return n, nil
}
func (b *fakeBackend) Attribute(ctx context.Context, n types.Node, key string) (string, error) {
	return "", nil
}
func (b *fakeBackend) Bounds(ctx context.Context, n types.Node) (types.Bounds, error) {
	return n.Bounds()
}
func (b *fakeBackend) WorkArea(ctx context.Context) (types.Bounds, error) {
	return types.Bounds{Width: 1920, Height: 1080}, nil
}
func (b *fakeBackend) SynthesizeClick(ctx context.Context, target types.ClickTarget, button types.MouseButton, kind types.ClickType) error {
	return nil
}
func (b *fakeBackend) SynthesizeKeys(ctx context.Context, n types.Node, keys types.KeySpec) error {
	return nil
}
func (b *fakeBackend) TypeText(ctx context.Context, n types.Node, text string) error  { return nil }
func (b *fakeBackend) SetValue(ctx context.Context, n types.Node, value string) error { return nil }
func (b *fakeBackend) SetSelected(ctx context.Context, n types.Node, selected bool) error {
	return nil
}
func (b *fakeBackend) Focus(ctx context.Context, n types.Node) error          { return nil }
func (b *fakeBackend) Invoke(ctx context.Context, n types.Node) error         { return nil }
func (b *fakeBackend) ScrollIntoView(ctx context.Context, n types.Node) error { return nil }
func (b *fakeBackend) Scroll(ctx context.Context, n types.Node, dir types.ScrollDirection, amount float64) error {
	return nil
}
func (b *fakeBackend) Capture(ctx context.Context, n types.Node) (types.Bitmap, error) {
	return types.Bitmap{}, nil
}
func (b *fakeBackend) OverlayRectangles(ctx context.Context, shapes []types.OverlayShape, anchor types.Node) (types.OverlayHandle, error) {
	return nil, nil
}

var _ types.Backend = (*fakeBackend)(nil)
var _ types.Node = (*fakeNode)(nil)

func TestFirstWaitsForDelayedAppearance(t *testing.T) {
	root := &fakeNode{id: "root", role: "window"}
	backend := &fakeBackend{revealAfter: 2, revealed: []*fakeNode{{id: "btn", role: "button", name: "Save"}}}

	loc := New(backend, selector.Parse("role:button"), root).WithTimeout(2 * time.Second)
	n, err := loc.First(context.Background())
	if err != nil {
		t.Fatalf("First: %v", err)
	}
	if n.HandleID() != "btn" {
		t.Fatalf("First returned %v, want btn", n.HandleID())
	}
}

func TestFirstTimesOut(t *testing.T) {
	root := &fakeNode{id: "root", role: "window"}
	backend := &fakeBackend{revealAfter: 1 << 30}

	loc := New(backend, selector.Parse("role:button"), root).WithTimeout(120 * time.Millisecond)
	_, err := loc.First(context.Background())
	if err == nil {
		t.Fatal("expected a timeout error")
	}
	var autoErr *types.AutomationError
	if !errors.As(err, &autoErr) || autoErr.Kind != types.KindTimeout {
		t.Fatalf("got %v, want KindTimeout", err)
	}
}

func TestNthWrapsAround(t *testing.T) {
	root := &fakeNode{id: "root", role: "window", children: []*fakeNode{
		{id: "a", role: "button"}, {id: "b", role: "button"}, {id: "c", role: "button"},
	}}

	loc := New(directBackend{}, selector.Parse("role:button"), root)
	n, err := loc.Nth(context.Background(), -1)
	if err != nil {
		t.Fatalf("Nth: %v", err)
	}
	if n.HandleID() != "c" {
		t.Fatalf("Nth(-1) = %v, want c", n.HandleID())
	}
	n, err = loc.Nth(context.Background(), 3) // wraps to index 0
	if err != nil {
		t.Fatalf("Nth: %v", err)
	}
	if n.HandleID() != "a" {
		t.Fatalf("Nth(3) = %v, want a (wrapped)", n.HandleID())
	}
}

// directBackend delegates Children straight to the node, for tests that
// don't need fakeBackend's reveal-after-N-calls behaviour; every other
// operation is unused by Locator and left unimplemented.
type directBackend struct{}

func (directBackend) Children(ctx context.Context, n types.Node) ([]types.Node, error) {
	return n.Children(ctx)
}
func (directBackend) Variant() types.Variant                                 { return types.VariantSimulated }
func (directBackend) Applications(ctx context.Context) ([]types.Node, error) { return nil, nil }
func (directBackend) FocusedElement(ctx context.Context) (types.Node, error) { return nil, nil }
func (directBackend) Root(ctx context.Context) (types.Node, error)           { return nil, nil }
func (directBackend) FindWindowByPID(ctx context.Context, pid int) (types.Node, error) {
	return nil, nil
}
func (directBackend) TopWindowForProcess(ctx context.Context, name string) (types.Node, error) {
	return nil, nil
}
func (directBackend) Parent(ctx context.Context, n types.Node) (types.Node, error) { return nil, nil }
func (directBackend) WindowOf(ctx context.Context, n types.Node) (types.Node, error) {
	return n, nil
}
func (directBackend) Attribute(ctx context.Context, n types.Node, key string) (string, error) {
	return "", nil
}
func (directBackend) Bounds(ctx context.Context, n types.Node) (types.Bounds, error) {
	return n.Bounds()
}
func (directBackend) WorkArea(ctx context.Context) (types.Bounds, error) {
	return types.Bounds{Width: 1920, Height: 1080}, nil
}
func (directBackend) SynthesizeClick(ctx context.Context, target types.ClickTarget, button types.MouseButton, kind types.ClickType) error {
	return nil
}
func (directBackend) SynthesizeKeys(ctx context.Context, n types.Node, keys types.KeySpec) error {
	return nil
}
func (directBackend) TypeText(ctx context.Context, n types.Node, text string) error  { return nil }
func (directBackend) SetValue(ctx context.Context, n types.Node, value string) error { return nil }
func (directBackend) SetSelected(ctx context.Context, n types.Node, selected bool) error {
	return nil
}
func (directBackend) Focus(ctx context.Context, n types.Node) error          { return nil }
func (directBackend) Invoke(ctx context.Context, n types.Node) error         { return nil }
func (directBackend) ScrollIntoView(ctx context.Context, n types.Node) error { return nil }
func (directBackend) Scroll(ctx context.Context, n types.Node, dir types.ScrollDirection, amount float64) error {
	return nil
}
func (directBackend) Capture(ctx context.Context, n types.Node) (types.Bitmap, error) {
	return types.Bitmap{}, nil
}
func (directBackend) OverlayRectangles(ctx context.Context, shapes []types.OverlayShape, anchor types.Node) (types.OverlayHandle, error) {
	return nil, nil
}

var _ types.Backend = directBackend{}

func TestLocatorComposesAndFlattensChains(t *testing.T) {
	root := &fakeNode{id: "root", role: "window"}
	base := New(directBackend{}, selector.Parse("role:window >> role:button"), root)
	composed := base.Locator(selector.Parse("role:label"))

	chain, ok := composed.Selector().(selector.Chain)
	if !ok {
		t.Fatalf("composed selector is not a Chain: %#v", composed.Selector())
	}
	if len(chain.Steps) != 3 {
		t.Fatalf("got %d steps, want 3 (flattened, not nested): %#v", len(chain.Steps), chain.Steps)
	}
}
