// Copyright 2025 The Terminator Authors
// SPDX-License-Identifier: Apache-2.0

package tree

import (
	"context"

	"github.com/mediar-ai/terminator-sub003/types"
)

// DefaultMaxDepth bounds traversal unless the caller asks otherwise;
// Unbounded is the explicit-request sentinel that removes the limit.
const (
	DefaultMaxDepth = 30
	Unbounded       = -1
)

// WalkBFS returns root and every descendant reachable within maxDepth,
// breadth first, for callers that only need the node set (not an indexed,
// serializable snapshot; see Build for that).
func WalkBFS(ctx context.Context, backend types.Backend, root types.Node, maxDepth int) ([]types.Node, error) {
	out := []types.Node{root}
	type item struct {
		node  types.Node
		depth int
	}
	queue := []item{{root, 0}}
	for len(queue) > 0 {
		cur := queue[0]
		queue = queue[1:]
		if maxDepth != Unbounded && cur.depth >= maxDepth {
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
