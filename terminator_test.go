// Copyright 2025 The Terminator Authors
// SPDX-License-Identifier: Apache-2.0

package terminator

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/mediar-ai/terminator-sub003/action"
	"github.com/mediar-ai/terminator-sub003/platform"
	"github.com/mediar-ai/terminator-sub003/tree"
	"github.com/mediar-ai/terminator-sub003/types"
)

func demoDesktop(t *testing.T) *Desktop {
	t.Helper()
	root := &platform.SimNode{ID: "root", Role: "desktop", Children: []*platform.SimNode{
		{
			ID: "win", PID: 11, Role: "window", Name: "Editor",
			Bounds: types.Bounds{Width: 800, Height: 600},
			Children: []*platform.SimNode{
				{ID: "save", Role: "button", Name: "Save", Bounds: types.Bounds{X: 10, Y: 10, Width: 60, Height: 20}},
				{ID: "body", Role: "textfield", Name: "Body", Bounds: types.Bounds{X: 10, Y: 40, Width: 300, Height: 200}},
			},
		},
	}}
	sim := platform.NewSimulated(types.Bounds{Width: 1920, Height: 1040}, root)
	d, err := New(context.Background(), WithBackend(sim))
	if err != nil {
		t.Fatal(err)
	}
	return d
}

func TestDesktopLocatorResolvesAndClicks(t *testing.T) {
	d := demoDesktop(t)
	ctx := context.Background()

	loc, err := d.Locator(ctx, "role:button && name:Save")
	if err != nil {
		t.Fatal(err)
	}
	node, err := loc.WithTimeout(time.Second).First(ctx)
	if err != nil {
		t.Fatal(err)
	}
	if _, err := d.Engine().Click(ctx, node, action.Options{}); err != nil {
		t.Fatal(err)
	}
}

func TestDesktopInvalidSelectorSurfacesOnFirstUse(t *testing.T) {
	d := demoDesktop(t)
	ctx := context.Background()

	loc, err := d.Locator(ctx, "role:button|name:Save")
	if err != nil {
		t.Fatal(err)
	}
	_, err = loc.WithTimeout(100 * time.Millisecond).First(ctx)
	var ae *types.AutomationError
	if !errors.As(err, &ae) || ae.Kind != types.KindInvalidSelector {
		t.Fatalf("err = %v, want InvalidSelector", err)
	}
}

func TestDesktopSnapshotRoundTrips(t *testing.T) {
	d := demoDesktop(t)
	ctx := context.Background()

	data, err := d.Snapshot(ctx, nil)
	if err != nil {
		t.Fatal(err)
	}
	snap, err := tree.ParseSnapshot(data)
	if err != nil {
		t.Fatal(err)
	}
	if snap.Role != "desktop" || len(snap.Children) != 1 {
		t.Fatalf("snapshot root = %+v", snap)
	}
	win := snap.Children[0]
	if win.Name != "Editor" || len(win.Children) != 2 {
		t.Fatalf("window snapshot = %+v", win)
	}
}
