// Copyright 2025 The Terminator Authors
// SPDX-License-Identifier: Apache-2.0

package tree

import (
	"context"
	"strings"
	"testing"

	"github.com/mediar-ai/terminator-sub003/types"
)

type fakeNode struct {
	id       string
	role     string
	name     string
	bounds   types.Bounds
	enabled  bool
	visible  bool
	focused  bool
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
func (n *fakeNode) Bounds() (types.Bounds, error)     { return n.bounds, nil }
func (n *fakeNode) IsVisible() (bool, error)          { return n.visible, nil }
func (n *fakeNode) IsOffscreen() (bool, error)        { return !n.visible, nil }
func (n *fakeNode) IsEnabled() (bool, error)          { return n.enabled, nil }
func (n *fakeNode) IsFocused() (bool, error)          { return n.focused, nil }
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

type fakeBackend struct{}

func (fakeBackend) Children(ctx context.Context, n types.Node) ([]types.Node, error) {
	return n.Children(ctx)
}
func (fakeBackend) Variant() types.Variant { return types.VariantSimulated }
func (fakeBackend) Applications(ctx context.Context) ([]types.Node, error) { return nil, nil }
func (fakeBackend) FocusedElement(ctx context.Context) (types.Node, error) { return nil, nil }
func (fakeBackend) Root(ctx context.Context) (types.Node, error)           { return nil, nil }
func (fakeBackend) FindWindowByPID(ctx context.Context, pid int) (types.Node, error) {
	return nil, nil
}
func (fakeBackend) TopWindowForProcess(ctx context.Context, name string) (types.Node, error) {
	return nil, nil
}
func (fakeBackend) Parent(ctx context.Context, n types.Node) (types.Node, error) { return nil, nil }
func (fakeBackend) WindowOf(ctx context.Context, n types.Node) (types.Node, error) { return n, nil }
func (fakeBackend) Attribute(ctx context.Context, n types.Node, key string) (string, error) {
	return "", nil
}
func (fakeBackend) Bounds(ctx context.Context, n types.Node) (types.Bounds, error) {
	return n.Bounds()
}
func (fakeBackend) WorkArea(ctx context.Context) (types.Bounds, error) {
	return types.Bounds{Width: 1920, Height: 1080}, nil
}
func (fakeBackend) SynthesizeClick(ctx context.Context, target types.ClickTarget, button types.MouseButton, kind types.ClickType) error {
	return nil
}
func (fakeBackend) SynthesizeKeys(ctx context.Context, n types.Node, keys types.KeySpec) error {
	return nil
}
func (fakeBackend) TypeText(ctx context.Context, n types.Node, text string) error     { return nil }
func (fakeBackend) SetValue(ctx context.Context, n types.Node, value string) error    { return nil }
func (fakeBackend) SetSelected(ctx context.Context, n types.Node, selected bool) error { return nil }
func (fakeBackend) Focus(ctx context.Context, n types.Node) error                      { return nil }
func (fakeBackend) Invoke(ctx context.Context, n types.Node) error                     { return nil }
func (fakeBackend) ScrollIntoView(ctx context.Context, n types.Node) error             { return nil }
func (fakeBackend) Scroll(ctx context.Context, n types.Node, dir types.ScrollDirection, amount float64) error {
	return nil
}
func (fakeBackend) Capture(ctx context.Context, n types.Node) (types.Bitmap, error) {
	return types.Bitmap{}, nil
}
func (fakeBackend) OverlayRectangles(ctx context.Context, shapes []types.OverlayShape, anchor types.Node) (types.OverlayHandle, error) {
	return nil, nil
}

var _ types.Backend = fakeBackend{}
var _ types.Node = (*fakeNode)(nil)

func buildTestTree() *fakeNode {
	root := &fakeNode{id: "win", role: "window", name: "Login", enabled: true, visible: true, bounds: types.Bounds{Width: 400, Height: 300}}
	save := &fakeNode{id: "save", role: "button", name: "Save", enabled: true, visible: true, bounds: types.Bounds{X: 100, Y: 100, Width: 80, Height: 30}}
	cancel := &fakeNode{id: "cancel", role: "button", name: "Cancel", enabled: true, visible: true, bounds: types.Bounds{X: 200, Y: 100, Width: 80, Height: 30}}
	root.children = []*fakeNode{save, cancel}
	return root
}

func TestBuildAssignsDepthFirstIndexes(t *testing.T) {
	ctx := context.Background()
	var backend fakeBackend
	snap, err := Build(ctx, backend, buildTestTree(), DefaultMaxDepth)
	if err != nil {
		t.Fatalf("Build: %v", err)
	}
	if snap.Index != 0 {
		t.Fatalf("root index = %d, want 0", snap.Index)
	}
	if len(snap.Children) != 2 {
		t.Fatalf("got %d children, want 2", len(snap.Children))
	}
	if snap.Children[0].Index != 1 || snap.Children[1].Index != 2 {
		t.Fatalf("child indexes = %d,%d, want 1,2", snap.Children[0].Index, snap.Children[1].Index)
	}
}

func TestBuildMaxDepthZeroOmitsChildren(t *testing.T) {
	ctx := context.Background()
	var backend fakeBackend
	snap, err := Build(ctx, backend, buildTestTree(), 0)
	if err != nil {
		t.Fatalf("Build: %v", err)
	}
	if snap.Children != nil {
		t.Fatalf("expected no children at depth 0, got %d", len(snap.Children))
	}
}

func TestToJSONMatchesSchema(t *testing.T) {
	ctx := context.Background()
	var backend fakeBackend
	snap, err := Build(ctx, backend, buildTestTree(), DefaultMaxDepth)
	if err != nil {
		t.Fatalf("Build: %v", err)
	}
	data, err := snap.ToJSON()
	if err != nil {
		t.Fatalf("ToJSON: %v", err)
	}
	for _, field := range []string{`"index"`, `"role"`, `"name"`, `"bounds"`, `"enabled"`, `"visible"`, `"focused"`, `"children"`} {
		if !strings.Contains(string(data), field) {
			t.Errorf("snapshot JSON missing field %s:\n%s", field, data)
		}
	}
}

func TestDiffDetectsMovedAndRemoved(t *testing.T) {
	ctx := context.Background()
	var backend fakeBackend

	before := buildTestTree()
	beforeSnap, err := Build(ctx, backend, before, DefaultMaxDepth)
	if err != nil {
		t.Fatalf("Build before: %v", err)
	}

	after := buildTestTree()
	after.children[0].bounds.X = 150 // save: moved only
	after.children = after.children[:1] // cancel dropped entirely
	afterSnap, err := Build(ctx, backend, after, DefaultMaxDepth)
	if err != nil {
		t.Fatalf("Build after: %v", err)
	}

	changes, err := Diff(beforeSnap, afterSnap)
	if err != nil {
		t.Fatalf("Diff: %v", err)
	}

	var sawMoved, sawRemoved bool
	for _, c := range changes {
		switch {
		case c.HandleID == "save" && c.Kind == ChangeMoved:
			sawMoved = true
		case c.HandleID == "cancel" && c.Kind == ChangeRemoved:
			sawRemoved = true
		}
	}
	if !sawMoved {
		t.Errorf("expected a Moved change for save, got %+v", changes)
	}
	if !sawRemoved {
		t.Errorf("expected a Removed change for cancel, got %+v", changes)
	}
}

func TestDiffChangedAttribute(t *testing.T) {
	ctx := context.Background()
	var backend fakeBackend

	before := buildTestTree()
	beforeSnap, err := Build(ctx, backend, before, DefaultMaxDepth)
	if err != nil {
		t.Fatalf("Build before: %v", err)
	}

	after := buildTestTree()
	after.children[1].name = "Cancel All"
	afterSnap, err := Build(ctx, backend, after, DefaultMaxDepth)
	if err != nil {
		t.Fatalf("Build after: %v", err)
	}

	changes, err := Diff(beforeSnap, afterSnap)
	if err != nil {
		t.Fatalf("Diff: %v", err)
	}
	var found bool
	for _, c := range changes {
		if c.HandleID == "cancel" && c.Kind == ChangeChanged {
			found = true
			if got := c.Attributes["name"]; got.Old != "Cancel" || got.New != "Cancel All" {
				t.Errorf("name attribute change = %+v, want Old=Cancel New=Cancel All", got)
			}
		}
	}
	if !found {
		t.Errorf("expected a Changed change for cancel, got %+v", changes)
	}
}
