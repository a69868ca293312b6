// Copyright 2025 The Terminator Authors
// SPDX-License-Identifier: Apache-2.0

package action

import (
	"context"
	"strings"
	"time"

	"github.com/mediar-ai/terminator-sub003/pkg/logging"
	"github.com/mediar-ai/terminator-sub003/tree"
	"github.com/mediar-ai/terminator-sub003/types"
)

// Default deadlines, overridable per engine and per call.
const (
	DefaultStabilityTimeout = 800 * time.Millisecond
	DefaultVerifyTimeout    = 2 * time.Second
)

// Engine executes user-visible operations on resolved nodes, running the
// precondition protocol before pointer input and optional verification
// and UI-diff capture after.
type Engine struct {
	backend          types.Backend
	stabilityTimeout time.Duration
	verifyTimeout    time.Duration
}

// Option configures an Engine.
type Option func(*Engine)

// WithStabilityTimeout overrides the bounds-stability deadline.
func WithStabilityTimeout(d time.Duration) Option {
	return func(e *Engine) { e.stabilityTimeout = d }
}

// WithVerifyTimeout overrides the default post-action verification
// deadline.
func WithVerifyTimeout(d time.Duration) Option {
	return func(e *Engine) { e.verifyTimeout = d }
}

// NewEngine builds an Engine over backend.
func NewEngine(backend types.Backend, opts ...Option) *Engine {
	e := &Engine{
		backend:          backend,
		stabilityTimeout: DefaultStabilityTimeout,
		verifyTimeout:    DefaultVerifyTimeout,
	}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

// Options tunes a single action call.
type Options struct {
	// BypassViewportCheck skips the viewport / focus-scroll /
	// scroll-into-view preconditions.
	BypassViewportCheck bool
	// BypassStabilityCheck skips the bounds-stability wait.
	BypassStabilityCheck bool
	// ClickPoint overrides the default centroid click coordinates.
	ClickPoint *types.Point

	// VerifyExists / VerifyNotExists are selector strings that must
	// match / must not match after the action for it to count as
	// successful. Empty strings disable the corresponding condition.
	VerifyExists    string
	VerifyNotExists string
	// VerifyTimeout overrides the engine's verification deadline for
	// this call.
	VerifyTimeout time.Duration

	// CaptureDiff snapshots the element's window before and after the
	// action and attaches the classified changes to the Result.
	CaptureDiff bool
}

// VerificationOutcome reports what post-action verification observed.
type VerificationOutcome struct {
	Passed    bool   `json:"passed"`
	Method    string `json:"method"`
	ElapsedMS int64  `json:"elapsed_ms"`
	Details   string `json:"details"`
}

// Result is what every action returns on success (and, for verification
// failures, alongside the error, whose *VerificationFailure cause carries
// the same outcome).
type Result struct {
	Verification *VerificationOutcome
	Diff         []tree.Change
}

// elementInfo gathers the identifying attributes every action error and
// log line carries.
func (e *Engine) elementInfo(ctx context.Context, n types.Node) types.ElementInfo {
	info := types.ElementInfo{ProcessID: n.ProcessID()}
	if role, err := n.Role(); err == nil {
		info.Role = role
	}
	if name, err := n.Name(); err == nil {
		info.Name = name
	}
	if win, err := n.Window(ctx); err == nil && win != nil {
		if title, err := win.Name(); err == nil {
			info.WindowTitle = title
		}
	}
	return info
}

// perform wraps one action: optional before-snapshot, preconditions,
// the operation itself, verification, after-snapshot diff.
func (e *Engine) perform(ctx context.Context, n types.Node, op string, opts Options, pointer bool, do func(context.Context) error) (*Result, error) {
	log := logging.FromContext(ctx)
	info := e.elementInfo(ctx, n)

	var before *tree.Snapshot
	if opts.CaptureDiff {
		var err error
		before, err = e.windowSnapshot(ctx, n)
		if err != nil {
			log.Debug("before-snapshot failed, diff capture disabled for this call",
				"op", op, "error", err)
			before = nil
		}
	}

	if err := e.preconditions(ctx, n, op, opts, pointer); err != nil {
		log.Info("action failed in preconditions",
			"op", op, "role", info.Role, "name", info.Name, "pid", info.ProcessID, "window", info.WindowTitle,
			"error", err)
		return nil, err
	}

	if err := do(ctx); err != nil {
		log.Info("action failed",
			"op", op, "role", info.Role, "name", info.Name, "pid", info.ProcessID, "window", info.WindowTitle,
			"error", err)
		if ae, ok := err.(*types.AutomationError); ok {
			return nil, ae.WithElement(info).WithOp(op)
		}
		return nil, err
	}

	result := &Result{}
	if opts.VerifyExists != "" || opts.VerifyNotExists != "" {
		outcome, err := e.verify(ctx, n, opts)
		result.Verification = outcome
		if err != nil {
			log.Info("action verification failed",
				"op", op, "role", info.Role, "name", info.Name, "pid", info.ProcessID,
				"passed", outcome != nil && outcome.Passed)
			if ae, ok := err.(*types.AutomationError); ok {
				return result, ae.WithElement(info).WithOp(op)
			}
			return result, err
		}
	}

	if before != nil {
		after, err := e.windowSnapshot(ctx, n)
		if err == nil {
			changes, diffErr := tree.Diff(before, after)
			if diffErr == nil {
				result.Diff = changes
			}
		}
	}

	log.Info("action succeeded",
		"op", op, "role", info.Role, "name", info.Name, "pid", info.ProcessID, "window", info.WindowTitle)
	return result, nil
}

func (e *Engine) windowSnapshot(ctx context.Context, n types.Node) (*tree.Snapshot, error) {
	win, err := n.Window(ctx)
	if err != nil || win == nil {
		win = n
	}
	return tree.Build(ctx, e.backend, win, tree.DefaultMaxDepth)
}

// Click left-clicks the node's centroid (or Options.ClickPoint).
// Radio-style controls route through SetSelected instead, since many
// platforms do not deliver a selection event for a raw click on them.
func (e *Engine) Click(ctx context.Context, n types.Node, opts Options) (*Result, error) {
	if role, err := n.Role(); err == nil && strings.Contains(strings.ToLower(role), "radio") {
		return e.SetSelected(ctx, n, true, opts)
	}
	return e.perform(ctx, n, "click", opts, true, func(ctx context.Context) error {
		return e.backend.SynthesizeClick(ctx, types.ClickTarget{Node: n, Point: opts.ClickPoint}, types.ButtonLeft, types.ClickSingle)
	})
}

// DoubleClick double-left-clicks the node.
func (e *Engine) DoubleClick(ctx context.Context, n types.Node, opts Options) (*Result, error) {
	return e.perform(ctx, n, "double_click", opts, true, func(ctx context.Context) error {
		return e.backend.SynthesizeClick(ctx, types.ClickTarget{Node: n, Point: opts.ClickPoint}, types.ButtonLeft, types.ClickDouble)
	})
}

// RightClick right-clicks the node.
func (e *Engine) RightClick(ctx context.Context, n types.Node, opts Options) (*Result, error) {
	return e.perform(ctx, n, "right_click", opts, true, func(ctx context.Context) error {
		return e.backend.SynthesizeClick(ctx, types.ClickTarget{Node: n, Point: opts.ClickPoint}, types.ButtonRight, types.ClickSingle)
	})
}

// Type sends text to the node as Unicode keystrokes.
func (e *Engine) Type(ctx context.Context, n types.Node, text string, opts Options) (*Result, error) {
	return e.perform(ctx, n, "type", opts, false, func(ctx context.Context) error {
		return e.backend.TypeText(ctx, n, text)
	})
}

// PressKey sends a key-spec sequence ({Enter}, ^c, ...) to the node.
func (e *Engine) PressKey(ctx context.Context, n types.Node, keys types.KeySpec, opts Options) (*Result, error) {
	return e.perform(ctx, n, "press_key", opts, false, func(ctx context.Context) error {
		return e.backend.SynthesizeKeys(ctx, n, keys)
	})
}

// Focus moves keyboard focus to the node.
func (e *Engine) Focus(ctx context.Context, n types.Node, opts Options) (*Result, error) {
	return e.perform(ctx, n, "focus", opts, false, func(ctx context.Context) error {
		return e.backend.Focus(ctx, n)
	})
}

// Invoke triggers the node's default accessibility action.
func (e *Engine) Invoke(ctx context.Context, n types.Node, opts Options) (*Result, error) {
	return e.perform(ctx, n, "invoke", opts, false, func(ctx context.Context) error {
		return e.backend.Invoke(ctx, n)
	})
}

// Scroll scrolls the node's container.
func (e *Engine) Scroll(ctx context.Context, n types.Node, dir types.ScrollDirection, amount float64, opts Options) (*Result, error) {
	return e.perform(ctx, n, "scroll", opts, true, func(ctx context.Context) error {
		return e.backend.Scroll(ctx, n, dir, amount)
	})
}

// SetValue replaces the node's value, preferring the accessibility
// setter with a focus-select-type fallback inside the backend.
func (e *Engine) SetValue(ctx context.Context, n types.Node, value string, opts Options) (*Result, error) {
	return e.perform(ctx, n, "set_value", opts, false, func(ctx context.Context) error {
		return e.backend.SetValue(ctx, n, value)
	})
}

// SetSelected selects or deselects the node.
func (e *Engine) SetSelected(ctx context.Context, n types.Node, selected bool, opts Options) (*Result, error) {
	return e.perform(ctx, n, "set_selected", opts, false, func(ctx context.Context) error {
		return e.backend.SetSelected(ctx, n, selected)
	})
}

// CaptureElementScreenshot rasters the node's screen rectangle.
func (e *Engine) CaptureElementScreenshot(ctx context.Context, n types.Node, opts Options) (types.Bitmap, error) {
	var bitmap types.Bitmap
	_, err := e.perform(ctx, n, "capture_element_screenshot", opts, false, func(ctx context.Context) error {
		var captureErr error
		bitmap, captureErr = e.backend.Capture(ctx, n)
		return captureErr
	})
	return bitmap, err
}

// Highlight draws a translucent annotation rectangle over the node,
// pinned to its window. Closing the returned handle removes it.
func (e *Engine) Highlight(ctx context.Context, n types.Node, label string) (types.OverlayHandle, error) {
	win, err := n.Window(ctx)
	if err != nil || win == nil {
		win = n
	}
	winBounds, err := win.Bounds()
	if err != nil {
		return nil, err
	}
	bounds, err := n.Bounds()
	if err != nil {
		return nil, err
	}
	shape := types.OverlayShape{
		Bounds: types.Bounds{
			X:      bounds.X - winBounds.X,
			Y:      bounds.Y - winBounds.Y,
			Width:  bounds.Width,
			Height: bounds.Height,
		},
		Label: label,
	}
	return e.backend.OverlayRectangles(ctx, []types.OverlayShape{shape}, win)
}
