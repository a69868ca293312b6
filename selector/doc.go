// Copyright 2025 The Terminator Authors
// SPDX-License-Identifier: Apache-2.0

// Package selector implements the Terminator selector language: an AST of
// matching criteria (role, name, id, attribute, spatial relation, chain,
// and boolean combinators), a total panic-free parser from the string
// grammar onto that AST, and a matcher that evaluates an AST against an
// accessibility tree rooted at a types.Node.
//
// Callers that need full fidelity (arbitrary near: distance thresholds,
// programmatically built combinators) should construct the AST directly;
// Parse is a thin shell around it for the common string-grammar case.
package selector
