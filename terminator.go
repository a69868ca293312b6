// Copyright 2025 The Terminator Authors
// SPDX-License-Identifier: Apache-2.0

// Package terminator drives real GUI applications through the operating
// system's accessibility tree: selectors name on-screen controls, the
// resolver turns them into live nodes under a deadline, and the action
// engine clicks, types and scrolls with pre- and post-conditions.
package terminator

import (
	"context"

	"github.com/mediar-ai/terminator-sub003/action"
	"github.com/mediar-ai/terminator-sub003/config"
	"github.com/mediar-ai/terminator-sub003/locator"
	"github.com/mediar-ai/terminator-sub003/platform"
	"github.com/mediar-ai/terminator-sub003/process"
	"github.com/mediar-ai/terminator-sub003/selector"
	"github.com/mediar-ai/terminator-sub003/tree"
	"github.com/mediar-ai/terminator-sub003/types"
)

// Version is the library version.
const Version = "0.1.0"

// Desktop is the top-level entry point: one per process, wrapping the
// platform backend, the action engine and the child-process registry.
type Desktop struct {
	backend types.Backend
	cfg     *config.Config
	engine  *action.Engine
}

// Option configures a Desktop.
type Option func(*Desktop)

// WithBackend substitutes a backend (usually platform.NewSimulated in
// tests) for the OS one.
func WithBackend(b types.Backend) Option {
	return func(d *Desktop) { d.backend = b }
}

// WithConfig supplies a loaded configuration instead of the defaults.
func WithConfig(cfg *config.Config) Option {
	return func(d *Desktop) { d.cfg = cfg }
}

// New builds a Desktop over the OS accessibility backend (or the one an
// option supplies).
func New(ctx context.Context, opts ...Option) (*Desktop, error) {
	d := &Desktop{}
	for _, opt := range opts {
		opt(d)
	}
	if d.cfg == nil {
		d.cfg = config.Default()
	}
	if d.backend == nil {
		backend, err := platform.New(ctx)
		if err != nil {
			return nil, err
		}
		d.backend = backend
	}
	d.engine = action.NewEngine(d.backend,
		action.WithStabilityTimeout(d.cfg.StabilityTimeout),
		action.WithVerifyTimeout(d.cfg.VerifyTimeout),
	)
	return d, nil
}

// Backend exposes the platform backend for callers that need raw
// operations.
func (d *Desktop) Backend() types.Backend { return d.backend }

// Engine is the action engine bound to this desktop.
func (d *Desktop) Engine() *action.Engine { return d.engine }

// Registry is the process-wide child-process registry.
func (d *Desktop) Registry() *process.Registry { return process.Shared() }

// Root returns the desktop root node.
func (d *Desktop) Root(ctx context.Context) (types.Node, error) {
	return d.backend.Root(ctx)
}

// Applications enumerates the top-level window of each user-facing
// process.
func (d *Desktop) Applications(ctx context.Context) ([]types.Node, error) {
	return d.backend.Applications(ctx)
}

// FocusedElement returns the element holding keyboard focus.
func (d *Desktop) FocusedElement(ctx context.Context) (types.Node, error) {
	return d.backend.FocusedElement(ctx)
}

// Locator parses sel and returns a resolver rooted at the desktop, with
// the configured deadline. A malformed selector still returns a Locator;
// it surfaces the parse error on first use.
func (d *Desktop) Locator(ctx context.Context, sel string) (*locator.Locator, error) {
	root, err := d.backend.Root(ctx)
	if err != nil {
		return nil, err
	}
	return locator.New(d.backend, selector.Parse(sel), root).WithTimeout(d.cfg.LocatorTimeout), nil
}

// LocatorWithin is Locator with an explicit search root.
func (d *Desktop) LocatorWithin(root types.Node, sel string) *locator.Locator {
	return locator.New(d.backend, selector.Parse(sel), root).WithTimeout(d.cfg.LocatorTimeout)
}

// Snapshot serialises the subtree under n (the desktop root when n is
// nil) as the indexed JSON document agents reason over.
func (d *Desktop) Snapshot(ctx context.Context, n types.Node) ([]byte, error) {
	if n == nil {
		root, err := d.backend.Root(ctx)
		if err != nil {
			return nil, err
		}
		n = root
	}
	snap, err := tree.Build(ctx, d.backend, n, d.cfg.MaxTraversalDepth)
	if err != nil {
		return nil, err
	}
	return snap.ToJSON()
}
