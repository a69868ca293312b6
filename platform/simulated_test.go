// Copyright 2025 The Terminator Authors
// SPDX-License-Identifier: Apache-2.0

package platform

import (
	"context"
	"testing"

	"github.com/google/go-cmp/cmp"

	"github.com/mediar-ai/terminator-sub003/types"
)

func demoTree() (*Simulated, *SimNode, *SimNode) {
	field := &SimNode{
		ID:        "field",
		Role:      "textfield",
		Name:      "Email",
		Focusable: true,
		Bounds:    types.Bounds{X: 100, Y: 100, Width: 200, Height: 24},
	}
	button := &SimNode{
		ID:     "save",
		Role:   "button",
		Name:   "Save",
		Bounds: types.Bounds{X: 100, Y: 140, Width: 80, Height: 24},
	}
	window := &SimNode{
		ID:       "win",
		PID:      42,
		Role:     "window",
		Name:     "Demo App",
		Bounds:   types.Bounds{X: 0, Y: 0, Width: 800, Height: 600},
		Children: []*SimNode{field, button},
	}
	root := &SimNode{ID: "root", Role: "desktop", Children: []*SimNode{window}}
	sim := NewSimulated(types.Bounds{Width: 1920, Height: 1040}, root)
	return sim, field, button
}

func TestSimulatedTypeTextAppendsValue(t *testing.T) {
	sim, field, _ := demoTree()
	ctx := context.Background()

	root, err := sim.Root(ctx)
	if err != nil {
		t.Fatal(err)
	}
	nodes, err := root.Children(ctx)
	if err != nil {
		t.Fatal(err)
	}
	win := nodes[0]
	kids, err := win.Children(ctx)
	if err != nil {
		t.Fatal(err)
	}
	if err := sim.TypeText(ctx, kids[0], "héllo 世界"); err != nil {
		t.Fatal(err)
	}
	if field.Value != "héllo 世界" {
		t.Errorf("value = %q, want %q", field.Value, "héllo 世界")
	}
}

func TestSimulatedClickFocusesAndLogs(t *testing.T) {
	sim, _, button := demoTree()
	ctx := context.Background()

	win, err := sim.FindWindowByPID(ctx, 42)
	if err != nil {
		t.Fatal(err)
	}
	kids, err := win.Children(ctx)
	if err != nil {
		t.Fatal(err)
	}
	save := kids[1]
	if err := sim.SynthesizeClick(ctx, types.ClickTarget{Node: save}, types.ButtonLeft, types.ClickSingle); err != nil {
		t.Fatal(err)
	}

	focused, err := sim.FocusedElement(ctx)
	if err != nil {
		t.Fatal(err)
	}
	if focused.HandleID() != button.ID {
		t.Errorf("focused = %s, want %s", focused.HandleID(), button.ID)
	}
	want := []string{"click save"}
	if diff := cmp.Diff(want, sim.CallLog()); diff != "" {
		t.Errorf("call log mismatch (-want +got):\n%s", diff)
	}
}

func TestSimulatedScrollIntoView(t *testing.T) {
	sim, field, _ := demoTree()
	ctx := context.Background()

	field.Bounds.Y = 5000 // way below the work area
	win, err := sim.FindWindowByPID(ctx, 42)
	if err != nil {
		t.Fatal(err)
	}
	kids, err := win.Children(ctx)
	if err != nil {
		t.Fatal(err)
	}
	node := kids[0]
	if visible, _ := node.IsVisible(); visible {
		t.Fatal("field should start out of view")
	}
	if err := sim.ScrollIntoView(ctx, node); err != nil {
		t.Fatal(err)
	}
	if visible, _ := node.IsVisible(); !visible {
		t.Errorf("field still out of view after ScrollIntoView, bounds %+v", field.Bounds)
	}
}

func TestSimulatedStaleNode(t *testing.T) {
	sim, field, _ := demoTree()
	ctx := context.Background()

	win, err := sim.FindWindowByPID(ctx, 42)
	if err != nil {
		t.Fatal(err)
	}
	kids, err := win.Children(ctx)
	if err != nil {
		t.Fatal(err)
	}
	node := kids[0]
	field.Detach()

	_, err = node.Name()
	var ae *types.AutomationError
	if !asAutomationError(err, &ae) || ae.Kind != types.KindStaleElement {
		t.Errorf("Name() after Detach = %v, want StaleElement", err)
	}
	if err := sim.TypeText(ctx, node, "x"); err == nil {
		t.Error("TypeText on stale node should fail")
	}
}

func TestSimulatedOverlayReplacesPrior(t *testing.T) {
	sim, _, _ := demoTree()
	ctx := context.Background()

	win, err := sim.FindWindowByPID(ctx, 42)
	if err != nil {
		t.Fatal(err)
	}
	shapes := []types.OverlayShape{{Bounds: types.Bounds{X: 10, Y: 10, Width: 50, Height: 20}}}
	first, err := sim.OverlayRectangles(ctx, shapes, win)
	if err != nil {
		t.Fatal(err)
	}
	second, err := sim.OverlayRectangles(ctx, shapes, win)
	if err != nil {
		t.Fatal(err)
	}
	if first == second {
		t.Fatal("expected distinct overlay handles")
	}
	if err := second.Close(); err != nil {
		t.Fatal(err)
	}
	// Closing twice is harmless.
	if err := second.Close(); err != nil {
		t.Fatal(err)
	}
}

func TestSimulatedRadioSelection(t *testing.T) {
	a := &SimNode{ID: "a", Role: "radiobutton", Selected: true}
	b := &SimNode{ID: "b", Role: "radiobutton"}
	group := &SimNode{ID: "group", Role: "group", Children: []*SimNode{a, b}}
	root := &SimNode{ID: "root", Role: "desktop", Children: []*SimNode{group}}
	sim := NewSimulated(types.Bounds{Width: 800, Height: 600}, root)
	ctx := context.Background()

	rootNode, _ := sim.Root(ctx)
	groups, _ := rootNode.Children(ctx)
	radios, _ := groups[0].Children(ctx)

	if err := sim.SetSelected(ctx, radios[1], true); err != nil {
		t.Fatal(err)
	}
	if !b.Selected {
		t.Error("b should be selected")
	}
	if a.Selected {
		t.Error("a should have been deselected by b's selection")
	}
}

func asAutomationError(err error, target **types.AutomationError) bool {
	ae, ok := err.(*types.AutomationError)
	if ok {
		*target = ae
	}
	return ok
}
