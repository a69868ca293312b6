// Copyright 2025 The Terminator Authors
// SPDX-License-Identifier: Apache-2.0

package tree

import (
	"context"

	"github.com/mediar-ai/terminator-sub003/types"
)

// Rect is the JSON rendering of a node's bounds.
type Rect struct {
	X float64 `json:"x"`
	Y float64 `json:"y"`
	W float64 `json:"w"`
	H float64 `json:"h"`
}

// Snapshot is one node of a serialised accessibility-tree view. Index is
// assigned in a single
// deterministic depth-first, left-to-right traversal and is stable only
// for the snapshot it belongs to.
type Snapshot struct {
	Index     int         `json:"index"`
	Role      string      `json:"role"`
	Name      string      `json:"name,omitempty"`
	ID        string      `json:"id,omitempty"`
	NativeID  string      `json:"native_id,omitempty"`
	ClassName string      `json:"class_name,omitempty"`
	Bounds    *Rect       `json:"bounds,omitempty"`
	Enabled   bool        `json:"enabled"`
	Visible   bool        `json:"visible"`
	Focused   bool        `json:"focused"`
	Children  []*Snapshot `json:"children,omitempty"`

	// handleID is the diff identity key (types.Node.HandleID); it is
	// deliberately not part of the wire schema.
	handleID string
}

// HandleID returns the identity key Diff uses to correlate nodes across
// two snapshots of the same subtree.
func (s *Snapshot) HandleID() string { return s.handleID }

// Build walks the tree rooted at root and produces its Snapshot, assigning
// indexes in traversal order (depth-first, left-to-right). maxDepth
// bounds how far the walk descends; pass Unbounded to
// remove the limit.
func Build(ctx context.Context, backend types.Backend, root types.Node, maxDepth int) (*Snapshot, error) {
	counter := 0
	return buildNode(ctx, backend, root, 0, maxDepth, &counter)
}

func buildNode(ctx context.Context, backend types.Backend, n types.Node, depth, maxDepth int, counter *int) (*Snapshot, error) {
	role, err := n.Role()
	if err != nil {
		return nil, err
	}
	name, err := n.Name()
	if err != nil {
		return nil, err
	}
	id, err := n.AccessibilityID()
	if err != nil {
		return nil, err
	}
	className, err := n.ClassName()
	if err != nil {
		return nil, err
	}
	bounds, err := n.Bounds()
	if err != nil {
		return nil, err
	}
	enabled, err := n.IsEnabled()
	if err != nil {
		return nil, err
	}
	visible, err := n.IsVisible()
	if err != nil {
		return nil, err
	}
	focused, err := n.IsFocused()
	if err != nil {
		return nil, err
	}

	snap := &Snapshot{
		Index:     *counter,
		Role:      role,
		Name:      name,
		ID:        id,
		NativeID:  n.NativeID(),
		ClassName: className,
		Enabled:   enabled,
		Visible:   visible,
		Focused:   focused,
		handleID:  n.HandleID(),
	}
	*counter++
	if !bounds.IsEmpty() {
		snap.Bounds = &Rect{X: bounds.X, Y: bounds.Y, W: bounds.Width, H: bounds.Height}
	}

	if maxDepth != Unbounded && depth >= maxDepth {
		return snap, nil
	}
	children, err := backend.Children(ctx, n)
	if err != nil {
		return nil, err
	}
	snap.Children = make([]*Snapshot, 0, len(children))
	for _, c := range children {
		child, err := buildNode(ctx, backend, c, depth+1, maxDepth, counter)
		if err != nil {
			return nil, err
		}
		snap.Children = append(snap.Children, child)
	}
	return snap, nil
}
