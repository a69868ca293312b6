// Copyright 2025 The Terminator Authors
// SPDX-License-Identifier: Apache-2.0

package selector

import (
	"strconv"
	"strings"

	"github.com/mediar-ai/terminator-sub003/types"
)

// bareRoleKeywords are the role names the string grammar accepts without a
// "role:" prefix, optionally followed by ":name" (e.g. "button:Save").
var bareRoleKeywords = map[string]bool{
	"app":         true,
	"application": true,
	"window":      true,
	"button":      true,
	"checkbox":    true,
	"menu":        true,
	"menuitem":    true,
	"menubar":     true,
	"textfield":   true,
	"input":       true,
}

// Parse parses s into a Selector AST. It never panics and never returns a
// nil Selector: a string it cannot make sense of becomes Invalid(reason).
func Parse(s string) Selector {
	s = strings.TrimSpace(s)
	if s == "" {
		return Invalid{Reason: "empty selector"}
	}
	steps := splitTop(s, ">>")
	if len(steps) == 0 {
		return Invalid{Reason: "empty selector"}
	}
	if len(steps) == 1 {
		return parseSegment(steps[0])
	}
	parsed := make([]Selector, len(steps))
	for i, step := range steps {
		parsed[i] = parseSegment(step)
	}
	return Chain{Steps: parsed}
}

// parseSegment parses one ">>"-delimited segment: a boolean combination of
// atoms joined by "&&" (all must match) or "," / "||" (any must match).
func parseSegment(s string) Selector {
	s = strings.TrimSpace(s)
	if s == "" {
		return Invalid{Reason: "empty segment"}
	}
	// text: is opaque: it owns everything to the next ">>" verbatim, so it
	// must never be split on && / || / , below.
	if v, ok := cutPrefixExact(s, "text:"); ok {
		return Text{Value: v}
	}

	if strings.Contains(s, "||") || strings.Contains(s, ",") {
		parts := splitAny(s, "||", ",")
		if len(parts) > 1 {
			items := make([]Selector, len(parts))
			for i, p := range parts {
				items[i] = parseSegment(p)
			}
			return Or{Items: items}
		}
	}
	if strings.ContainsRune(s, '|') {
		// A lone '|' (not part of "||", ruled out above) is a common typo
		// for the AND combinator.
		return Invalid{Reason: "use '&&'"}
	}
	if strings.Contains(s, "&&") {
		parts := splitTop(s, "&&")
		items := make([]Selector, len(parts))
		for i, p := range parts {
			items[i] = parseSegment(p)
		}
		return And{Items: items}
	}
	return parseAtom(s)
}

func parseAtom(s string) Selector {
	s = strings.TrimSpace(s)

	if s == ".." {
		return Parent{}
	}
	if v, ok := cutPrefixExact(s, "/"); ok {
		return Path{Value: v}
	}
	if v, ok := cutPrefixExact(s, "#"); ok {
		return ID{Value: v}
	}

	type prefixRule struct {
		prefix string
		build  func(value string) Selector
	}
	rules := []prefixRule{
		{"role:", func(v string) Selector { return Role{Role: v} }},
		{"id:", func(v string) Selector { return ID{Value: v} }},
		{"nativeid:", func(v string) Selector { return NativeID{Value: v} }},
		{"classname:", func(v string) Selector { return ClassName{Value: v} }},
		{"localizedrole:", func(v string) Selector { return LocalizedRole{Value: v} }},
		{"name:", func(v string) Selector { return Name{Value: v} }},
		{"visible:", func(v string) Selector { return Visible{Value: strings.EqualFold(v, "true")} }},
		{"attr:", parseAttributes},
		{"above:", spatialBuilder(types.RelationAbove)},
		{"below:", spatialBuilder(types.RelationBelow)},
		{"leftof:", spatialBuilder(types.RelationLeftOf)},
		{"rightof:", spatialBuilder(types.RelationRightOf)},
		{"near:", spatialBuilder(types.RelationNear)},
		{"has:", func(v string) Selector { return Has{Sub: parseSegment(v)} }},
		{"nth:", parseNth},
		{"nth=", parseNth},
	}
	for _, r := range rules {
		if v, ok := cutPrefixFold(s, r.prefix); ok {
			return r.build(v)
		}
	}

	if head, rest, hasColon := strings.Cut(s, ":"); hasColon {
		if bareRoleKeywords[strings.ToLower(head)] {
			return Role{Role: head, Name: rest, HasName: true}
		}
	} else if bareRoleKeywords[strings.ToLower(s)] {
		return Role{Role: s}
	}

	if strings.HasPrefix(s, "AX") {
		return Role{Role: s}
	}

	// Generic fallback: any "prefix:value" we didn't recognize above is
	// still treated as a named role with a name.
	if head, rest, hasColon := strings.Cut(s, ":"); hasColon && head != "" {
		return Role{Role: head, Name: rest, HasName: true}
	}

	return Invalid{Reason: "unrecognized selector " + strconv.Quote(s) + "\n" + Grammar}
}

func spatialBuilder(rel types.SpatialRelation) func(string) Selector {
	return func(v string) Selector {
		maxPx := 0.0
		if rel == types.RelationNear {
			maxPx = DefaultNearPx
		}
		return Spatial{Relation: rel, Anchor: parseSegment(v), MaxPx: maxPx}
	}
}

func parseAttributes(v string) Selector {
	values := map[string]string{}
	for _, pair := range splitTop(v, ",") {
		if k, val, ok := strings.Cut(pair, "="); ok {
			values[strings.TrimSpace(k)] = strings.TrimSpace(val)
		} else if pair != "" {
			values[strings.TrimSpace(pair)] = ""
		}
	}
	return Attributes{Values: values}
}

func parseNth(v string) Selector {
	n, err := strconv.Atoi(strings.TrimSpace(v))
	if err != nil {
		return Invalid{Reason: "nth: expects an integer index, got " + strconv.Quote(v)}
	}
	return Nth{Index: n}
}

// cutPrefixExact is strings.CutPrefix under a name that pairs with
// cutPrefixFold below.
func cutPrefixExact(s, prefix string) (string, bool) {
	if !strings.HasPrefix(s, prefix) {
		return "", false
	}
	return s[len(prefix):], true
}

func cutPrefixFold(s, prefix string) (string, bool) {
	if len(s) < len(prefix) || !strings.EqualFold(s[:len(prefix)], prefix) {
		return "", false
	}
	return s[len(prefix):], true
}

// splitTop splits s on every top-level occurrence of sep, trims, and drops
// empty pieces. The grammar has no grouping/parens, so "top-level" is
// simply "anywhere in the string".
func splitTop(s, sep string) []string {
	raw := strings.Split(s, sep)
	out := make([]string, 0, len(raw))
	for _, p := range raw {
		p = strings.TrimSpace(p)
		if p != "" {
			out = append(out, p)
		}
	}
	return out
}

// splitAny splits s on whichever of seps occurs, treating them as
// equivalent (used for "," / "||" both meaning OR).
func splitAny(s string, seps ...string) []string {
	marker := "\x00"
	normalized := s
	for _, sep := range seps {
		normalized = strings.ReplaceAll(normalized, sep, marker)
	}
	return splitTop(normalized, marker)
}
