// Copyright 2025 The Terminator Authors
// SPDX-License-Identifier: Apache-2.0

package selector

import (
	"context"
	"strconv"
	"strings"

	"github.com/mediar-ai/terminator-sub003/internal/pool"
	"github.com/mediar-ai/terminator-sub003/types"
)

// roleSynonyms groups platform-specific role spellings that should compare
// equal under a Role match, so a selector written once against one
// platform's vocabulary (e.g. "button") also matches another platform's
// native spelling (e.g. Windows UIA's "pushbutton", AT-SPI's
// "push button").
var roleSynonyms = map[string]string{
	"button":       "button",
	"pushbutton":   "button",
	"push button":  "button",
	"axbutton":     "button",
	"checkbox":     "checkbox",
	"check box":    "checkbox",
	"axcheckbox":   "checkbox",
	"menuitem":     "menuitem",
	"menu item":    "menuitem",
	"axmenuitem":   "menuitem",
	"textfield":    "textfield",
	"text field":   "textfield",
	"edit":         "textfield",
	"axtextfield":  "textfield",
	"window":       "window",
	"axwindow":     "window",
	"application":  "application",
	"app":          "application",
	"axapplication": "application",
}

// canonicalRole normalizes a role string through roleSynonyms so
// cross-platform spellings compare equal; unknown roles normalize to their
// own lowercase form.
func canonicalRole(role string) string {
	lower := strings.ToLower(strings.TrimSpace(role))
	if canon, ok := roleSynonyms[lower]; ok {
		return canon
	}
	return lower
}

// Matches reports whether n satisfies the per-node predicate sel: one of
// Role, ID, NativeID, Name, Text, ClassName, LocalizedRole, Attributes,
// Visible, Path, Has, And or Or. Control-flow selectors that only make
// sense against a candidate set rather than a single node (Chain, Nth,
// Parent, Spatial) are handled by Eval, not Matches; passing one here
// reports a KindInvalidSelector error.
func Matches(ctx context.Context, backend types.Backend, n types.Node, sel Selector) (bool, error) {
	switch s := sel.(type) {
	case Invalid:
		return false, types.NewInvalidSelector(s.String(), s.Reason)
	case Role:
		role, err := n.Role()
		if err != nil {
			return false, err
		}
		if canonicalRole(role) != canonicalRole(s.Role) {
			return false, nil
		}
		if !s.HasName {
			return true, nil
		}
		name, err := n.Name()
		if err != nil {
			return false, err
		}
		return strings.Contains(strings.ToLower(name), strings.ToLower(s.Name)), nil
	case ID:
		id, err := n.AccessibilityID()
		if err != nil {
			return false, err
		}
		return id == s.Value, nil
	case NativeID:
		return n.NativeID() == s.Value, nil
	case Name:
		name, err := n.Name()
		if err != nil {
			return false, err
		}
		return strings.Contains(strings.ToLower(name), strings.ToLower(s.Value)), nil
	case Text:
		content, err := visibleTextContent(ctx, backend, n, textContentDepth)
		if err != nil {
			return false, err
		}
		return strings.Contains(content, s.Value), nil
	case ClassName:
		cn, err := n.ClassName()
		if err != nil {
			return false, err
		}
		return strings.Contains(strings.ToLower(cn), strings.ToLower(s.Value)), nil
	case LocalizedRole:
		lr, err := n.LocalizedRole()
		if err != nil {
			return false, err
		}
		return lr == s.Value, nil
	case Attributes:
		for k, want := range s.Values {
			got, err := n.Attribute(ctx, k)
			if err != nil {
				return false, err
			}
			// "true" (and the bare-key "attr:expanded" shorthand, which
			// parses to an empty want) both mean "attribute is present",
			// not "attribute's value is literally the string true".
			if want == "" || want == "true" {
				if got == "" {
					return false, nil
				}
				continue
			}
			if got != want {
				return false, nil
			}
		}
		return true, nil
	case Visible:
		visible, err := n.IsVisible()
		if err != nil {
			return false, err
		}
		return visible == s.Value, nil
	case Path:
		path, err := n.Attribute(ctx, "path")
		if err != nil {
			return false, err
		}
		return path == s.Value, nil
	case Has:
		children, err := collectSubtree(ctx, backend, n)
		if err != nil {
			return false, err
		}
		for _, cand := range children {
			if cand.HandleID() == n.HandleID() {
				continue
			}
			ok, err := Matches(ctx, backend, cand, s.Sub)
			if err != nil {
				return false, err
			}
			if ok {
				return true, nil
			}
		}
		return false, nil
	case And:
		for _, item := range s.Items {
			ok, err := Matches(ctx, backend, n, item)
			if err != nil {
				return false, err
			}
			if !ok {
				return false, nil
			}
		}
		return true, nil
	case Or:
		for _, item := range s.Items {
			ok, err := Matches(ctx, backend, n, item)
			if err != nil {
				return false, err
			}
			if ok {
				return true, nil
			}
		}
		return false, nil
	default:
		return false, types.NewInvalidSelector(sel.String(), "selector type "+strconv.Quote(sel.String())+" is only valid as a chain step, not a node predicate")
	}
}

// textContentDepth bounds how many levels of descendants visibleTextContent
// concatenates when matching text: atoms.
const textContentDepth = 2

// visibleTextContent concatenates n's name, value, and the name/value of
// its descendants up to depth levels, the text: atom's match target. The
// builder is pooled: text matching runs once per candidate node, which
// makes this the hottest allocation site in a resolve.
func visibleTextContent(ctx context.Context, backend types.Backend, n types.Node, depth int) (string, error) {
	b := pool.String.Get()
	defer func() {
		b.Reset()
		pool.String.Put(b)
	}()
	if err := collectText(ctx, backend, n, depth, b); err != nil {
		return "", err
	}
	return b.String(), nil
}

func collectText(ctx context.Context, backend types.Backend, n types.Node, depth int, b *strings.Builder) error {
	name, err := n.Name()
	if err != nil {
		return err
	}
	value, err := n.Value()
	if err != nil {
		return err
	}
	b.WriteString(name)
	b.WriteByte(' ')
	b.WriteString(value)
	b.WriteByte(' ')
	if depth <= 0 {
		return nil
	}
	children, err := backend.Children(ctx, n)
	if err != nil {
		return err
	}
	for _, c := range children {
		if err := collectText(ctx, backend, c, depth-1, b); err != nil {
			return err
		}
	}
	return nil
}
