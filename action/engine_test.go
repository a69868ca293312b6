// Copyright 2025 The Terminator Authors
// SPDX-License-Identifier: Apache-2.0

package action

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/google/go-cmp/cmp"

	"github.com/mediar-ai/terminator-sub003/platform"
	"github.com/mediar-ai/terminator-sub003/types"
)

func newFixture(t *testing.T) (*Engine, *platform.Simulated, types.Node, types.Node) {
	t.Helper()
	button := &platform.SimNode{
		ID:     "save",
		Role:   "button",
		Name:   "Save",
		Bounds: types.Bounds{X: 100, Y: 140, Width: 80, Height: 24},
	}
	field := &platform.SimNode{
		ID:        "email",
		Role:      "textfield",
		Name:      "Email",
		Focusable: true,
		Bounds:    types.Bounds{X: 100, Y: 100, Width: 200, Height: 24},
	}
	window := &platform.SimNode{
		ID:       "win",
		PID:      7,
		Role:     "window",
		Name:     "Demo",
		Bounds:   types.Bounds{X: 0, Y: 0, Width: 800, Height: 600},
		Children: []*platform.SimNode{field, button},
	}
	root := &platform.SimNode{ID: "root", Role: "desktop", Children: []*platform.SimNode{window}}
	sim := platform.NewSimulated(types.Bounds{Width: 1920, Height: 1040}, root)

	ctx := context.Background()
	win, err := sim.FindWindowByPID(ctx, 7)
	if err != nil {
		t.Fatal(err)
	}
	kids, err := win.Children(ctx)
	if err != nil {
		t.Fatal(err)
	}
	return NewEngine(sim), sim, kids[0], kids[1]
}

func TestClickInViewport(t *testing.T) {
	engine, sim, _, save := newFixture(t)

	if _, err := engine.Click(context.Background(), save, Options{}); err != nil {
		t.Fatal(err)
	}
	want := []string{"click save"}
	if diff := cmp.Diff(want, sim.CallLog()); diff != "" {
		t.Errorf("call log mismatch (-want +got):\n%s", diff)
	}
}

func TestClickOutOfViewportScrollsFirst(t *testing.T) {
	button := &platform.SimNode{
		ID:     "below",
		Role:   "button",
		Name:   "Below the fold",
		Bounds: types.Bounds{X: 100, Y: 5000, Width: 80, Height: 24},
	}
	window := &platform.SimNode{
		ID:       "win",
		PID:      7,
		Role:     "window",
		Bounds:   types.Bounds{X: 0, Y: 0, Width: 800, Height: 600},
		Children: []*platform.SimNode{button},
	}
	root := &platform.SimNode{ID: "root", Role: "desktop", Children: []*platform.SimNode{window}}
	sim := platform.NewSimulated(types.Bounds{Width: 1920, Height: 1040}, root)
	engine := NewEngine(sim)

	ctx := context.Background()
	win, err := sim.FindWindowByPID(ctx, 7)
	if err != nil {
		t.Fatal(err)
	}
	kids, err := win.Children(ctx)
	if err != nil {
		t.Fatal(err)
	}
	if _, err := engine.Click(ctx, kids[0], Options{}); err != nil {
		t.Fatal(err)
	}

	// Focus first, explicit scroll second, click last.
	log := sim.CallLog()
	var order []string
	for _, entry := range log {
		switch entry {
		case "focus below", "scroll_into_view below", "click below":
			order = append(order, entry)
		}
	}
	want := []string{"focus below", "scroll_into_view below", "click below"}
	if diff := cmp.Diff(want, order); diff != "" {
		t.Errorf("precondition ordering mismatch (-want +got):\n%s\nfull log: %v", diff, log)
	}
}

func TestClickDisabledElement(t *testing.T) {
	button := &platform.SimNode{
		ID:       "off",
		Role:     "button",
		Name:     "Disabled",
		Disabled: true,
		Bounds:   types.Bounds{X: 10, Y: 10, Width: 50, Height: 20},
	}
	root := &platform.SimNode{ID: "root", Role: "desktop", Children: []*platform.SimNode{
		{ID: "win", PID: 9, Role: "window", Bounds: types.Bounds{Width: 400, Height: 300}, Children: []*platform.SimNode{button}},
	}}
	sim := platform.NewSimulated(types.Bounds{Width: 1920, Height: 1040}, root)
	engine := NewEngine(sim)

	ctx := context.Background()
	win, err := sim.FindWindowByPID(ctx, 9)
	if err != nil {
		t.Fatal(err)
	}
	kids, err := win.Children(ctx)
	if err != nil {
		t.Fatal(err)
	}
	_, err = engine.Click(ctx, kids[0], Options{})
	var ae *types.AutomationError
	if !errors.As(err, &ae) || ae.Kind != types.KindElementNotEnabled {
		t.Fatalf("Click on disabled element = %v, want ElementNotEnabled", err)
	}
	if ae.Element.Role != "button" || ae.Element.ProcessID != 9 {
		t.Errorf("error element info = %+v, want role/pid filled in", ae.Element)
	}
}

func TestClickRadioRoutesToSetSelected(t *testing.T) {
	radio := &platform.SimNode{
		ID:     "opt",
		Role:   "radiobutton",
		Name:   "Option A",
		Bounds: types.Bounds{X: 10, Y: 10, Width: 20, Height: 20},
	}
	root := &platform.SimNode{ID: "root", Role: "desktop", Children: []*platform.SimNode{
		{ID: "win", PID: 9, Role: "window", Bounds: types.Bounds{Width: 400, Height: 300}, Children: []*platform.SimNode{radio}},
	}}
	sim := platform.NewSimulated(types.Bounds{Width: 1920, Height: 1040}, root)
	engine := NewEngine(sim)

	ctx := context.Background()
	win, err := sim.FindWindowByPID(ctx, 9)
	if err != nil {
		t.Fatal(err)
	}
	kids, err := win.Children(ctx)
	if err != nil {
		t.Fatal(err)
	}
	if _, err := engine.Click(ctx, kids[0], Options{}); err != nil {
		t.Fatal(err)
	}
	if !radio.Selected {
		t.Error("radio should be selected")
	}
	for _, entry := range sim.CallLog() {
		if entry == "click opt" {
			t.Error("radio control should not receive a raw click")
		}
	}
}

func TestTypeWithVerification(t *testing.T) {
	engine, _, field, _ := newFixture(t)
	ctx := context.Background()

	result, err := engine.Type(ctx, field, "user@example.com", Options{
		VerifyExists: "text:user@example.com",
	})
	if err != nil {
		t.Fatal(err)
	}
	if result.Verification == nil || !result.Verification.Passed {
		t.Fatalf("verification = %+v, want passed", result.Verification)
	}
}

func TestVerificationFailureFailsAction(t *testing.T) {
	engine, _, field, _ := newFixture(t)
	ctx := context.Background()

	result, err := engine.Type(ctx, field, "abc", Options{
		VerifyExists:  "name:No Such Element Anywhere",
		VerifyTimeout: 150 * time.Millisecond,
	})
	var ae *types.AutomationError
	if !errors.As(err, &ae) || ae.Kind != types.KindTimeout {
		t.Fatalf("err = %v, want verification timeout", err)
	}
	if result == nil || result.Verification == nil || result.Verification.Passed {
		t.Fatalf("result = %+v, want failed verification outcome attached", result)
	}
}

func TestClickCapturesDiff(t *testing.T) {
	engine, _, _, save := newFixture(t)
	ctx := context.Background()

	result, err := engine.Click(ctx, save, Options{CaptureDiff: true})
	if err != nil {
		t.Fatal(err)
	}
	// The click moved focus to the button; the diff must notice.
	found := false
	for _, ch := range result.Diff {
		if ch.HandleID == "save" {
			if _, ok := ch.Attributes["focused"]; ok {
				found = true
			}
		}
	}
	if !found {
		t.Errorf("diff %+v does not record the focus change", result.Diff)
	}
}

func TestHighlight(t *testing.T) {
	engine, _, _, save := newFixture(t)
	handle, err := engine.Highlight(context.Background(), save, "target")
	if err != nil {
		t.Fatal(err)
	}
	if err := handle.Close(); err != nil {
		t.Fatal(err)
	}
}
