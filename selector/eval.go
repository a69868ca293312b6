// Copyright 2025 The Terminator Authors
// SPDX-License-Identifier: Apache-2.0

package selector

import (
	"context"
	"math"
	"sort"

	"github.com/mediar-ai/terminator-sub003/types"
)

// maxTraversalDepth bounds subtree walks a selector evaluation performs on
// its own (independent of the tree package's snapshot depth), guarding
// against accessibility trees that cycle or recurse pathologically deep.
const maxTraversalDepth = 30

// Eval resolves sel against the tree rooted at root, returning every
// matching node. For a Chain, R0 = {root} and each step replaces the
// candidate set with descendants-or-self of the previous set that satisfy
// that step; for any other Selector, Eval behaves as a one-step chain.
func Eval(ctx context.Context, backend types.Backend, root types.Node, sel Selector) ([]types.Node, error) {
	switch s := sel.(type) {
	case Chain:
		candidates := []types.Node{root}
		for _, step := range s.Steps {
			next, err := evalStep(ctx, backend, root, candidates, step)
			if err != nil {
				return nil, err
			}
			candidates = next
		}
		return candidates, nil
	default:
		return evalStep(ctx, backend, root, []types.Node{root}, sel)
	}
}

func evalStep(ctx context.Context, backend types.Backend, root types.Node, prev []types.Node, step Selector) ([]types.Node, error) {
	switch s := step.(type) {
	case Invalid:
		return nil, types.NewInvalidSelector(s.String(), s.Reason)

	case Parent:
		seen := map[string]bool{}
		var out []types.Node
		for _, n := range prev {
			p, err := backend.Parent(ctx, n)
			if err != nil || p == nil {
				continue
			}
			if !seen[p.HandleID()] {
				seen[p.HandleID()] = true
				out = append(out, p)
			}
		}
		return out, nil

	case Nth:
		idx := s.Index
		if idx < 0 {
			idx += len(prev)
		}
		if idx < 0 || idx >= len(prev) {
			return nil, types.NewElementNotFound(s.String())
		}
		return []types.Node{prev[idx]}, nil

	case Spatial:
		return evalSpatial(ctx, backend, root, prev, s)

	default:
		return filterDescendants(ctx, backend, prev, step)
	}
}

func filterDescendants(ctx context.Context, backend types.Backend, prev []types.Node, step Selector) ([]types.Node, error) {
	seen := map[string]bool{}
	var out []types.Node
	for _, base := range prev {
		subtree, err := collectSubtree(ctx, backend, base)
		if err != nil {
			return nil, err
		}
		for _, cand := range subtree {
			if seen[cand.HandleID()] {
				continue
			}
			ok, err := Matches(ctx, backend, cand, step)
			if err != nil {
				return nil, err
			}
			if ok {
				seen[cand.HandleID()] = true
				out = append(out, cand)
			}
		}
	}
	return out, nil
}

func evalSpatial(ctx context.Context, backend types.Backend, root types.Node, prev []types.Node, s Spatial) ([]types.Node, error) {
	anchors, err := Eval(ctx, backend, root, s.Anchor)
	if err != nil {
		return nil, err
	}
	if len(anchors) == 0 {
		return nil, nil
	}
	anchorBounds := make([]types.Bounds, 0, len(anchors))
	for _, a := range anchors {
		b, err := a.Bounds()
		if err != nil {
			continue
		}
		anchorBounds = append(anchorBounds, b)
	}

	seen := map[string]bool{}
	var pool []types.Node
	for _, base := range prev {
		subtree, err := collectSubtree(ctx, backend, base)
		if err != nil {
			return nil, err
		}
		for _, cand := range subtree {
			if !seen[cand.HandleID()] {
				seen[cand.HandleID()] = true
				pool = append(pool, cand)
			}
		}
	}

	var out []types.Node
	for _, cand := range pool {
		cb, err := cand.Bounds()
		if err != nil {
			continue
		}
		for _, ab := range anchorBounds {
			if types.SatisfiesRelation(cb, ab, s.Relation, s.MaxPx) {
				out = append(out, cand)
				break
			}
		}
	}
	if s.Relation == types.RelationNear {
		sortByNearestAnchor(out, anchorBounds)
	}
	return out, nil
}

// sortByNearestAnchor orders near: results by ascending distance to their
// closest anchor.
func sortByNearestAnchor(nodes []types.Node, anchors []types.Bounds) {
	dist := make(map[string]float64, len(nodes))
	for _, n := range nodes {
		b, err := n.Bounds()
		if err != nil {
			dist[n.HandleID()] = math.MaxFloat64
			continue
		}
		best := math.MaxFloat64
		for _, a := range anchors {
			if d := b.Center().Distance(a.Center()); d < best {
				best = d
			}
		}
		dist[n.HandleID()] = best
	}
	sort.SliceStable(nodes, func(i, j int) bool {
		return dist[nodes[i].HandleID()] < dist[nodes[j].HandleID()]
	})
}

// collectSubtree returns base and every descendant reachable within
// maxTraversalDepth, breadth first.
func collectSubtree(ctx context.Context, backend types.Backend, base types.Node) ([]types.Node, error) {
	out := []types.Node{base}
	type item struct {
		node  types.Node
		depth int
	}
	queue := []item{{base, 0}}
	for len(queue) > 0 {
		cur := queue[0]
		queue = queue[1:]
		if cur.depth >= maxTraversalDepth {
			continue
		}
		children, err := backend.Children(ctx, cur.node)
		if err != nil {
			return nil, err
		}
		for _, c := range children {
			out = append(out, c)
			queue = append(queue, item{c, cur.depth + 1})
		}
	}
	return out, nil
}
