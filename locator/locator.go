// Copyright 2025 The Terminator Authors
// SPDX-License-Identifier: Apache-2.0

package locator

import (
	"context"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/mediar-ai/terminator-sub003/selector"
	"github.com/mediar-ai/terminator-sub003/types"
)

// DefaultTimeout is the resolver deadline used when the caller does not
// override it.
const DefaultTimeout = 30 * time.Second

const (
	initialBackoff = 50 * time.Millisecond
	maxBackoff     = 400 * time.Millisecond
)

// Locator names zero or more UI nodes by selector, root and deadline. It
// is immutable; every With* method and Locator returns a new value.
type Locator struct {
	backend types.Backend
	sel     selector.Selector
	timeout time.Duration
	root    types.Node
}

// New builds a Locator rooted at root with the package default timeout.
func New(backend types.Backend, sel selector.Selector, root types.Node) *Locator {
	return &Locator{backend: backend, sel: sel, timeout: DefaultTimeout, root: root}
}

// WithTimeout returns a copy of l with its deadline overridden.
func (l *Locator) WithTimeout(d time.Duration) *Locator {
	cp := *l
	cp.timeout = d
	return &cp
}

// Selector returns the AST this Locator resolves.
func (l *Locator) Selector() selector.Selector { return l.sel }

// Locator composes sub onto l: the result's AST is Chain(l's steps ++
// sub's steps), flattened eagerly so chains are never nested.
func (l *Locator) Locator(sub selector.Selector) *Locator {
	steps := append(flattenSteps(l.sel), flattenSteps(sub)...)
	cp := *l
	cp.sel = selector.Chain{Steps: steps}
	return &cp
}

func flattenSteps(sel selector.Selector) []selector.Selector {
	if c, ok := sel.(selector.Chain); ok {
		out := make([]selector.Selector, len(c.Steps))
		copy(out, c.Steps)
		return out
	}
	return []selector.Selector{sel}
}

// All performs a one-shot exhaustive enumeration: no back-off, no wait.
func (l *Locator) All(ctx context.Context) ([]types.Node, error) {
	if inv, ok := l.sel.(selector.Invalid); ok {
		return nil, types.NewInvalidSelector(inv.String(), inv.Reason)
	}
	return selector.Eval(ctx, l.backend, l.root, l.sel)
}

// First is a deadline-bounded wait for the first match, returning as soon
// as the result set is non-empty.
func (l *Locator) First(ctx context.Context) (types.Node, error) {
	nodes, err := l.resolve(ctx)
	if err != nil {
		return nil, err
	}
	return nodes[0], nil
}

// Wait resolves like First, but offloads the blocking poll loop onto its
// own goroutine via errgroup so a cooperative caller scheduling many
// locators never stalls on this one.
func (l *Locator) Wait(ctx context.Context) ([]types.Node, error) {
	g, gctx := errgroup.WithContext(ctx)
	var result []types.Node
	g.Go(func() error {
		nodes, err := l.resolve(gctx)
		if err != nil {
			return err
		}
		result = nodes
		return nil
	})
	if err := g.Wait(); err != nil {
		return nil, err
	}
	return result, nil
}

// Nth resolves All and indexes into it with wrap-around: a negative or
// out-of-range i wraps modulo the result count rather than erroring,
// distinct from the nth: selector atom, whose out-of-range index reports
// ElementNotFound.
func (l *Locator) Nth(ctx context.Context, i int) (types.Node, error) {
	nodes, err := l.All(ctx)
	if err != nil {
		return nil, err
	}
	if len(nodes) == 0 {
		return nil, types.NewElementNotFound(l.sel.String())
	}
	idx := i % len(nodes)
	if idx < 0 {
		idx += len(nodes)
	}
	return nodes[idx], nil
}

// resolve evaluates the selector and, while the result is empty, backs
// off (50ms doubling to a 400ms cap) and retries until the deadline.
func (l *Locator) resolve(ctx context.Context) ([]types.Node, error) {
	if inv, ok := l.sel.(selector.Invalid); ok {
		return nil, types.NewInvalidSelector(inv.String(), inv.Reason)
	}
	start := time.Now()
	deadline := start.Add(l.timeout)
	backoff := initialBackoff
	for {
		nodes, err := selector.Eval(ctx, l.backend, l.root, l.sel)
		if err != nil {
			return nil, err
		}
		if len(nodes) > 0 {
			return nodes, nil
		}
		remaining := time.Until(deadline)
		if remaining <= 0 {
			return nil, types.NewTimeout(l.sel.String(), time.Since(start))
		}
		wait := backoff
		if wait > remaining {
			wait = remaining
		}
		select {
		case <-ctx.Done():
			return nil, ctx.Err()
		case <-time.After(wait):
		}
		backoff *= 2
		if backoff > maxBackoff {
			backoff = maxBackoff
		}
	}
}
