// Copyright 2025 The Terminator Authors
// SPDX-License-Identifier: Apache-2.0

package action

import (
	"context"
	"time"

	"github.com/mediar-ai/terminator-sub003/pkg/logging"
	"github.com/mediar-ai/terminator-sub003/types"
)

const (
	// focusSettleDelay is how long the engine waits after a focus call
	// before re-reading bounds, giving the application time to scroll to
	// the newly focused control.
	focusSettleDelay = 50 * time.Millisecond

	// stabilityPollInterval is the bounds-polling cadence of the
	// stability wait.
	stabilityPollInterval = 16 * time.Millisecond

	// stabilityEpsilon is the per-edge tolerance within which two
	// consecutive bounds reads count as agreeing.
	stabilityEpsilon = 1.0

	// edgeMargin is how close to a work-area edge an element may sit
	// after scroll-into-view before the engine applies one fine-tuning
	// scroll.
	edgeMargin = 20.0

	// fineTuneAmount is the fine-tuning scroll distance in screen units.
	fineTuneAmount = 0.3
)

// preconditions runs the pre-action protocol: viewport check with
// focus-first and explicit-scroll fallbacks (pointer actions only),
// bounds-stability wait, and the enabled check.
func (e *Engine) preconditions(ctx context.Context, n types.Node, op string, opts Options, pointer bool) error {
	log := logging.FromContext(ctx)

	if pointer && !opts.BypassViewportCheck {
		if err := e.ensureInViewport(ctx, n, op); err != nil {
			return err
		}
	}

	if !opts.BypassStabilityCheck {
		log.Debug("precondition: stability wait", "op", op)
		if err := e.waitStable(ctx, n); err != nil {
			if ae, ok := err.(*types.AutomationError); ok {
				return ae.WithElement(e.elementInfo(ctx, n)).WithOp(op)
			}
			return err
		}
	}

	enabled, err := n.IsEnabled()
	if err != nil {
		return err
	}
	if !enabled {
		log.Debug("precondition: element disabled", "op", op)
		return (&types.AutomationError{
			Kind:    types.KindElementNotEnabled,
			Message: "element is disabled",
		}).WithElement(e.elementInfo(ctx, n)).WithOp(op)
	}
	return nil
}

// ensureInViewport brings the node into the work area: first by focusing
// it (many applications scroll to the focused control), then by an
// explicit scroll-into-view, with one fine-tuning scroll if the element
// lands too near an edge.
func (e *Engine) ensureInViewport(ctx context.Context, n types.Node, op string) error {
	log := logging.FromContext(ctx)

	workArea, err := e.backend.WorkArea(ctx)
	if err != nil {
		return err
	}
	bounds, err := n.Bounds()
	if err != nil {
		return err
	}
	if inWorkArea(bounds, workArea) {
		log.Debug("precondition: already in viewport", "op", op)
		return nil
	}

	log.Debug("precondition: focus-first scroll", "op", op)
	if err := e.backend.Focus(ctx, n); err == nil {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-time.After(focusSettleDelay):
		}
		if bounds, err = n.Bounds(); err != nil {
			return err
		}
		if inWorkArea(bounds, workArea) {
			return nil
		}
	}

	log.Debug("precondition: explicit scroll-into-view", "op", op)
	if err := e.backend.ScrollIntoView(ctx, n); err != nil {
		return err
	}
	bounds, err = n.Bounds()
	if err != nil {
		return err
	}
	if !inWorkArea(bounds, workArea) {
		return (&types.AutomationError{
			Kind:    types.KindElementNotVisible,
			Message: "element remains outside the work area after scrolling",
		}).WithElement(e.elementInfo(ctx, n)).WithOp(op)
	}

	if dir, tooClose := nearEdge(bounds, workArea); tooClose {
		log.Warn("element near viewport edge after scroll, fine-tuning", "op", op, "direction", dir.String())
		if err := e.backend.Scroll(ctx, n, dir, fineTuneAmount); err != nil {
			return err
		}
	}
	return nil
}

// inWorkArea reports whether bounds are usable as a click target: a
// non-empty rectangle whose centroid lies inside the work area.
func inWorkArea(b, workArea types.Bounds) bool {
	if b.IsEmpty() {
		return false
	}
	c := b.Center()
	return c.X >= workArea.X && c.X < workArea.X+workArea.Width &&
		c.Y >= workArea.Y && c.Y < workArea.Y+workArea.Height
}

// nearEdge reports whether bounds hug a work-area edge, and which way to
// scroll to pull the element away from it.
func nearEdge(b, workArea types.Bounds) (types.ScrollDirection, bool) {
	switch {
	case b.Y-workArea.Y < edgeMargin:
		return types.ScrollUp, true
	case workArea.Y+workArea.Height-(b.Y+b.Height) < edgeMargin:
		return types.ScrollDown, true
	case b.X-workArea.X < edgeMargin:
		return types.ScrollLeft, true
	case workArea.X+workArea.Width-(b.X+b.Width) < edgeMargin:
		return types.ScrollRight, true
	}
	return types.ScrollUp, false
}

// waitStable polls bounds until two consecutive reads agree within
// stabilityEpsilon, or the stability deadline expires.
func (e *Engine) waitStable(ctx context.Context, n types.Node) error {
	deadline := time.Now().Add(e.stabilityTimeout)
	prev, err := n.Bounds()
	if err != nil {
		return err
	}
	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-time.After(stabilityPollInterval):
		}
		cur, err := n.Bounds()
		if err != nil {
			return err
		}
		if cur.CloseTo(prev, stabilityEpsilon) {
			return nil
		}
		prev = cur
		if time.Now().After(deadline) {
			return &types.AutomationError{
				Kind:    types.KindElementNotStable,
				Message: "bounds kept changing through the stability window",
			}
		}
	}
}
