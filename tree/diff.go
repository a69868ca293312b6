// Copyright 2025 The Terminator Authors
// SPDX-License-Identifier: Apache-2.0

package tree

import (
	"fmt"

	deepcopy "github.com/tiendc/go-deepcopy"
)

// ChangeKind classifies one node's difference between two snapshots.
type ChangeKind int

const (
	ChangeAdded ChangeKind = iota
	ChangeRemoved
	ChangeMoved
	ChangeChanged
)

func (k ChangeKind) String() string {
	switch k {
	case ChangeAdded:
		return "added"
	case ChangeRemoved:
		return "removed"
	case ChangeMoved:
		return "moved"
	case ChangeChanged:
		return "changed"
	default:
		return "unknown"
	}
}

// AttributeChange is one attribute's before/after value, rendered as
// strings so bounds, booleans and plain fields share one representation.
type AttributeChange struct {
	Old string
	New string
}

// Change is one node's classification in a Diff result.
type Change struct {
	Kind       ChangeKind
	HandleID   string
	Snapshot   *Snapshot // the after-state snapshot (before-state for Removed)
	Attributes map[string]AttributeChange
}

// Diff compares two snapshots of the same subtree taken at different
// times and classifies every node present in either as Added, Removed,
// Moved (bounds changed and nothing else did), or Changed (attribute-set
// changed, possibly including bounds). Nodes present in both with no
// attribute change are omitted entirely: the result is order-independent
// with respect to siblings whose identity (HandleID) matches.
func Diff(before, after *Snapshot) ([]Change, error) {
	// Work against isolated copies so the identity maps below can never
	// alias (and be mutated through) the caller's own snapshot trees.
	var beforeCopy, afterCopy Snapshot
	if err := deepcopy.Copy(&beforeCopy, before); err != nil {
		return nil, fmt.Errorf("tree: copy before-snapshot: %w", err)
	}
	if err := deepcopy.Copy(&afterCopy, after); err != nil {
		return nil, fmt.Errorf("tree: copy after-snapshot: %w", err)
	}

	beforeIdx := map[string]*Snapshot{}
	indexByHandle(&beforeCopy, beforeIdx)
	afterIdx := map[string]*Snapshot{}
	indexByHandle(&afterCopy, afterIdx)

	var changes []Change
	for handle, b := range beforeIdx {
		a, ok := afterIdx[handle]
		if !ok {
			changes = append(changes, Change{Kind: ChangeRemoved, HandleID: handle, Snapshot: b})
			continue
		}
		attrs := compareAttributes(b, a)
		if len(attrs) == 0 {
			continue
		}
		kind := ChangeChanged
		if _, onlyBounds := attrs["bounds"]; onlyBounds && len(attrs) == 1 {
			kind = ChangeMoved
		}
		changes = append(changes, Change{Kind: kind, HandleID: handle, Snapshot: a, Attributes: attrs})
	}
	for handle, a := range afterIdx {
		if _, ok := beforeIdx[handle]; !ok {
			changes = append(changes, Change{Kind: ChangeAdded, HandleID: handle, Snapshot: a})
		}
	}
	return changes, nil
}

func indexByHandle(s *Snapshot, out map[string]*Snapshot) {
	if s == nil {
		return
	}
	out[s.handleID] = s
	for _, c := range s.Children {
		indexByHandle(c, out)
	}
}

func compareAttributes(b, a *Snapshot) map[string]AttributeChange {
	changes := map[string]AttributeChange{}
	if b.Role != a.Role {
		changes["role"] = AttributeChange{Old: b.Role, New: a.Role}
	}
	if b.Name != a.Name {
		changes["name"] = AttributeChange{Old: b.Name, New: a.Name}
	}
	if b.ClassName != a.ClassName {
		changes["class_name"] = AttributeChange{Old: b.ClassName, New: a.ClassName}
	}
	if b.Enabled != a.Enabled {
		changes["enabled"] = AttributeChange{Old: fmt.Sprint(b.Enabled), New: fmt.Sprint(a.Enabled)}
	}
	if b.Visible != a.Visible {
		changes["visible"] = AttributeChange{Old: fmt.Sprint(b.Visible), New: fmt.Sprint(a.Visible)}
	}
	if b.Focused != a.Focused {
		changes["focused"] = AttributeChange{Old: fmt.Sprint(b.Focused), New: fmt.Sprint(a.Focused)}
	}
	if !rectEqual(b.Bounds, a.Bounds) {
		changes["bounds"] = AttributeChange{Old: rectString(b.Bounds), New: rectString(a.Bounds)}
	}
	return changes
}

func rectEqual(a, b *Rect) bool {
	if a == nil || b == nil {
		return a == b
	}
	return *a == *b
}

func rectString(r *Rect) string {
	if r == nil {
		return ""
	}
	return fmt.Sprintf("%g,%g,%g,%g", r.X, r.Y, r.W, r.H)
}
