// Copyright 2025 The Terminator Authors
// SPDX-License-Identifier: Apache-2.0

package selector

import (
	"context"
	"testing"

	"github.com/mediar-ai/terminator-sub003/types"
)

// fakeNode and fakeBackend give the selector package a tiny in-memory tree
// to evaluate against, independent of any real platform backend.
type fakeNode struct {
	id       string
	role     string
	name     string
	value    string
	bounds   types.Bounds
	visible  bool
	children []*fakeNode
	parent   *fakeNode
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
func (n *fakeNode) Value() (string, error)           { return n.value, nil }
func (n *fakeNode) Description() (string, error)     { return "", nil }
func (n *fakeNode) HelpText() (string, error)        { return "", nil }
func (n *fakeNode) Bounds() (types.Bounds, error)     { return n.bounds, nil }
func (n *fakeNode) IsVisible() (bool, error)          { return n.visible, nil }
func (n *fakeNode) IsOffscreen() (bool, error)        { return !n.visible, nil }
func (n *fakeNode) IsEnabled() (bool, error)          { return true, nil }
func (n *fakeNode) IsFocused() (bool, error)          { return false, nil }
func (n *fakeNode) IsSelected() (bool, error)         { return false, nil }
func (n *fakeNode) IsKeyboardFocusable() (bool, error) { return false, nil }
func (n *fakeNode) IsToggleOn() (bool, error)          { return false, nil }
func (n *fakeNode) IsExpanded() (bool, error)          { return false, nil }
func (n *fakeNode) Attribute(ctx context.Context, key string) (string, error) { return "", nil }
func (n *fakeNode) Parent(ctx context.Context) (types.Node, error) {
	if n.parent == nil {
		return nil, nil
	}
	return n.parent, nil
}
func (n *fakeNode) Children(ctx context.Context) ([]types.Node, error) {
	out := make([]types.Node, len(n.children))
	for i, c := range n.children {
		out[i] = c
	}
	return out, nil
}
func (n *fakeNode) Window(ctx context.Context) (types.Node, error) { return n, nil }

type fakeBackend struct{}

func (fakeBackend) Variant() types.Variant { return types.VariantSimulated }
func (fakeBackend) Applications(ctx context.Context) ([]types.Node, error) {
	return nil, types.NewUnsupported("Applications")
}
func (fakeBackend) FocusedElement(ctx context.Context) (types.Node, error) {
	return nil, types.NewUnsupported("FocusedElement")
}
func (fakeBackend) Root(ctx context.Context) (types.Node, error) {
	return nil, types.NewUnsupported("Root")
}
func (fakeBackend) FindWindowByPID(ctx context.Context, pid int) (types.Node, error) {
	return nil, types.NewUnsupported("FindWindowByPID")
}
func (fakeBackend) TopWindowForProcess(ctx context.Context, name string) (types.Node, error) {
	return nil, types.NewUnsupported("TopWindowForProcess")
}
func (fakeBackend) Children(ctx context.Context, n types.Node) ([]types.Node, error) {
	return n.Children(ctx)
}
func (fakeBackend) Parent(ctx context.Context, n types.Node) (types.Node, error) {
	return n.Parent(ctx)
}
func (fakeBackend) WindowOf(ctx context.Context, n types.Node) (types.Node, error) { return n, nil }
func (fakeBackend) Attribute(ctx context.Context, n types.Node, key string) (string, error) {
	return n.Attribute(ctx, key)
}
func (fakeBackend) Bounds(ctx context.Context, n types.Node) (types.Bounds, error) {
	return n.Bounds()
}
func (fakeBackend) WorkArea(ctx context.Context) (types.Bounds, error) {
	return types.Bounds{Width: 1920, Height: 1080}, nil
}
func (fakeBackend) SynthesizeClick(ctx context.Context, target types.ClickTarget, button types.MouseButton, kind types.ClickType) error {
	return types.NewUnsupported("SynthesizeClick")
}
func (fakeBackend) SynthesizeKeys(ctx context.Context, n types.Node, keys types.KeySpec) error {
	return types.NewUnsupported("SynthesizeKeys")
}
func (fakeBackend) TypeText(ctx context.Context, n types.Node, text string) error {
	return types.NewUnsupported("TypeText")
}
func (fakeBackend) SetValue(ctx context.Context, n types.Node, value string) error {
	return types.NewUnsupported("SetValue")
}
func (fakeBackend) SetSelected(ctx context.Context, n types.Node, selected bool) error {
	return types.NewUnsupported("SetSelected")
}
func (fakeBackend) Focus(ctx context.Context, n types.Node) error {
	return types.NewUnsupported("Focus")
}
func (fakeBackend) Invoke(ctx context.Context, n types.Node) error {
	return types.NewUnsupported("Invoke")
}
func (fakeBackend) ScrollIntoView(ctx context.Context, n types.Node) error {
	return types.NewUnsupported("ScrollIntoView")
}
func (fakeBackend) Scroll(ctx context.Context, n types.Node, dir types.ScrollDirection, amount float64) error {
	return types.NewUnsupported("Scroll")
}
func (fakeBackend) Capture(ctx context.Context, n types.Node) (types.Bitmap, error) {
	return types.Bitmap{}, types.NewUnsupported("Capture")
}
func (fakeBackend) OverlayRectangles(ctx context.Context, shapes []types.OverlayShape, anchor types.Node) (types.OverlayHandle, error) {
	return nil, types.NewUnsupported("OverlayRectangles")
}

var _ types.Backend = fakeBackend{}
var _ types.Node = (*fakeNode)(nil)

// buildTestTree mirrors a small login window:
//
//	window "Login"
//	├── button "Save"   (100,100,80,30)
//	├── button "Cancel" (200,100,80,30)
//	└── checkbox "Remember me" (100,140,80,20)
func buildTestTree() *fakeNode {
	root := &fakeNode{id: "win", role: "window", name: "Login", visible: true, bounds: types.Bounds{X: 0, Y: 0, Width: 400, Height: 300}}
	save := &fakeNode{id: "save", role: "button", name: "Save", visible: true, bounds: types.Bounds{X: 100, Y: 100, Width: 80, Height: 30}, parent: root}
	cancel := &fakeNode{id: "cancel", role: "button", name: "Cancel", visible: true, bounds: types.Bounds{X: 200, Y: 100, Width: 80, Height: 30}, parent: root}
	remember := &fakeNode{id: "remember", role: "checkbox", name: "Remember me", visible: true, bounds: types.Bounds{X: 100, Y: 140, Width: 80, Height: 20}, parent: root}
	root.children = []*fakeNode{save, cancel, remember}
	return root
}

func TestMatches(t *testing.T) {
	ctx := context.Background()
	var backend fakeBackend
	tree := buildTestTree()
	save := tree.children[0]

	tests := []struct {
		name string
		sel  Selector
		node *fakeNode
		want bool
	}{
		{"role match", Role{Role: "button"}, save, true},
		{"role synonym match", Role{Role: "pushbutton"}, save, true},
		{"role mismatch", Role{Role: "checkbox"}, save, false},
		{"role with name match", Role{Role: "button", Name: "sav", HasName: true}, save, true},
		{"and both true", And{Items: []Selector{Role{Role: "button"}, Name{Value: "Save"}}}, save, true},
		{"and one false", And{Items: []Selector{Role{Role: "button"}, Name{Value: "Cancel"}}}, save, false},
		{"or one true", Or{Items: []Selector{Role{Role: "checkbox"}, Name{Value: "Save"}}}, save, true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := Matches(ctx, backend, tt.node, tt.sel)
			if err != nil {
				t.Fatalf("Matches: %v", err)
			}
			if got != tt.want {
				t.Errorf("Matches(%v, %v) = %v, want %v", tt.sel, tt.node.name, got, tt.want)
			}
		})
	}
}

func TestEvalChain(t *testing.T) {
	ctx := context.Background()
	var backend fakeBackend
	tree := buildTestTree()

	got, err := Eval(ctx, backend, tree, Parse("role:window >> role:button"))
	if err != nil {
		t.Fatalf("Eval: %v", err)
	}
	if len(got) != 2 {
		t.Fatalf("got %d nodes, want 2: %v", len(got), got)
	}
}

func TestEvalSpatial(t *testing.T) {
	ctx := context.Background()
	var backend fakeBackend
	tree := buildTestTree()

	got, err := Eval(ctx, backend, tree, Parse("rightof:name:Save"))
	if err != nil {
		t.Fatalf("Eval: %v", err)
	}
	if len(got) != 1 || got[0].HandleID() != "cancel" {
		t.Fatalf("rightof:name:Save = %v, want [cancel]", got)
	}
}

func TestEvalNth(t *testing.T) {
	ctx := context.Background()
	var backend fakeBackend
	tree := buildTestTree()

	got, err := Eval(ctx, backend, tree, Parse("role:button >> nth:-1"))
	if err != nil {
		t.Fatalf("Eval: %v", err)
	}
	if len(got) != 1 || got[0].HandleID() != "cancel" {
		t.Fatalf("role:button >> nth:-1 = %v, want [cancel]", got)
	}
}

func TestEvalHas(t *testing.T) {
	ctx := context.Background()
	var backend fakeBackend
	tree := buildTestTree()

	got, err := Eval(ctx, backend, tree, Parse("role:window && has:role:checkbox"))
	if err != nil {
		t.Fatalf("Eval: %v", err)
	}
	if len(got) != 1 || got[0].HandleID() != "win" {
		t.Fatalf("role:window && has:role:checkbox = %v, want [win]", got)
	}
}
