// Copyright 2025 The Terminator Authors
// SPDX-License-Identifier: Apache-2.0

package selector

import (
	"fmt"
	"strings"

	"github.com/mediar-ai/terminator-sub003/types"
)

// Selector is one node of the selector AST. It is immutable once built;
// every concrete type below implements it. The zero value of any concrete
// type is a valid, if usually uninteresting, Selector.
type Selector interface {
	// String renders the canonical surface syntax. For every non-Invalid
	// Selector produced by Parse, Parse(s.String()) reproduces an AST equal
	// to s (the round-trip law); Invalid is exempt, since a parse failure
	// has no canonical reconstruction.
	String() string

	isSelector()
}

// Role matches the accessibility role, and optionally the name in the same
// atom (only reachable through the bare-role shorthand, e.g. "button:Save",
// or an unrecognized "prefix:value" atom, which parses the same way; the
// explicit "role:" prefix never carries a name; combine with
// "&& name:..." instead).
type Role struct {
	Role    string
	Name    string
	HasName bool
}

func (Role) isSelector() {}
func (s Role) String() string {
	if s.HasName {
		return fmt.Sprintf("%s:%s", s.Role, s.Name)
	}
	return "role:" + s.Role
}

// ID matches the accessibility-framework "id" property exactly.
type ID struct{ Value string }

func (ID) isSelector()        {}
func (s ID) String() string   { return "id:" + s.Value }

// NativeID matches the platform automation id (e.g. Windows AutomationId).
type NativeID struct{ Value string }

func (NativeID) isSelector()      {}
func (s NativeID) String() string { return "nativeid:" + s.Value }

// Name matches the accessible name, case-insensitively, by substring.
type Name struct{ Value string }

func (Name) isSelector()      {}
func (s Name) String() string { return "name:" + s.Value }

// Text matches the node's text content, case-sensitively, by substring.
// Its value is opaque: the parser stops consuming at the next ">>", never
// splitting on "&&", "||", "," or "!" inside it.
type Text struct{ Value string }

func (Text) isSelector()      {}
func (s Text) String() string { return "text:" + s.Value }

// ClassName matches the platform class name, case-insensitively, by
// substring.
type ClassName struct{ Value string }

func (ClassName) isSelector()      {}
func (s ClassName) String() string { return "classname:" + s.Value }

// LocalizedRole matches the platform's localized role string exactly.
type LocalizedRole struct{ Value string }

func (LocalizedRole) isSelector()      {}
func (s LocalizedRole) String() string { return "localizedrole:" + s.Value }

// Attributes matches one or more arbitrary attribute(node, key) lookups.
// A value of "" (present with no '=') means "attribute exists, any value".
type Attributes struct{ Values map[string]string }

func (Attributes) isSelector() {}
func (s Attributes) String() string {
	parts := make([]string, 0, len(s.Values))
	for k, v := range s.Values {
		if v == "" {
			parts = append(parts, k)
			continue
		}
		parts = append(parts, k+"="+v)
	}
	return "attr:" + strings.Join(parts, ",")
}

// Visible matches the node's IsVisible flag.
type Visible struct{ Value bool }

func (Visible) isSelector() {}
func (s Visible) String() string {
	if s.Value {
		return "visible:true"
	}
	return "visible:false"
}

// Path matches a platform-specific structural path (e.g. an AX path or a
// UIA runtime id chain rendered as a string); interpretation is backend
// specific, the matcher delegates to types.Node.Attribute(ctx, "path").
type Path struct{ Value string }

func (Path) isSelector()      {}
func (s Path) String() string { return "/" + s.Value }

// Nth indexes into the previous chain step's candidate set (0-based;
// negative counts from the end, -1 being the last element).
type Nth struct{ Index int }

func (Nth) isSelector()      {}
func (s Nth) String() string { return fmt.Sprintf("nth:%d", s.Index) }

// Has keeps only candidates that have at least one descendant matching Sub.
type Has struct{ Sub Selector }

func (Has) isSelector()      {}
func (s Has) String() string { return "has:" + s.Sub.String() }

// Parent replaces every candidate with its immediate parent, dropping
// candidates with no parent (the root).
type Parent struct{}

func (Parent) isSelector()      {}
func (Parent) String() string   { return ".." }

// Chain threads candidate sets through Steps in order: R0 is the search
// root, and Ri is computed from Ri-1 by applying Steps[i].
type Chain struct{ Steps []Selector }

func (Chain) isSelector() {}
func (s Chain) String() string {
	parts := make([]string, len(s.Steps))
	for i, step := range s.Steps {
		parts[i] = step.String()
	}
	return strings.Join(parts, " >> ")
}

// And requires every Item to match (segment-level "&&" combinator).
type And struct{ Items []Selector }

func (And) isSelector() {}
func (s And) String() string {
	parts := make([]string, len(s.Items))
	for i, it := range s.Items {
		parts[i] = it.String()
	}
	return strings.Join(parts, " && ")
}

// Or requires at least one Item to match (segment-level "," or "||").
type Or struct{ Items []Selector }

func (Or) isSelector() {}
func (s Or) String() string {
	parts := make([]string, len(s.Items))
	for i, it := range s.Items {
		parts[i] = it.String()
	}
	return strings.Join(parts, " || ")
}

// Spatial matches candidates whose bounds stand in Relation to the bounds
// of at least one node Anchor resolves to (against the same search root), within
// MaxPx for RelationNear; MaxPx is ignored for the directional relations.
type Spatial struct {
	Relation types.SpatialRelation
	Anchor   Selector
	MaxPx    float64
}

func (Spatial) isSelector() {}
func (s Spatial) String() string {
	return s.Relation.String() + ":" + s.Anchor.String()
}

// Invalid is the result of a malformed selector string. The parser never
// panics and never returns a nil Selector; a string it cannot make sense
// of becomes Invalid(reason). Matching or evaluating an Invalid always
// fails with a KindInvalidSelector error.
type Invalid struct{ Reason string }

func (Invalid) isSelector()      {}
func (s Invalid) String() string { return "invalid:" + s.Reason }

// DefaultNearPx is the distance threshold "near:" uses when the string
// grammar does not (and cannot unambiguously) specify one; build a Spatial
// value directly for a custom radius.
const DefaultNearPx = 50.0
