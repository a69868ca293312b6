// Copyright 2025 The Terminator Authors
// SPDX-License-Identifier: Apache-2.0

package selector

import "github.com/MakeNowJust/heredoc/v2"

// Grammar documents the selector surface syntax. Parse appends it to the
// reason of an unrecognized-selector failure so agents see the full
// grammar next to the input that broke.
var Grammar = heredoc.Doc(`
	selector  = segment { ">>" segment } ;
	segment   = atom { ("&&" | "||" | ",") atom } | ".." ;
	atom      = prefix ":" value
	          | bare-role [ ":" name ]
	          | "nth:" integer
	          | "has:" segment ;
	prefix    = "role" | "name" | "id" | "nativeid" | "classname"
	          | "localizedrole" | "text" | "visible" | "attr"
	          | "above" | "below" | "leftof" | "rightof" | "near" ;
	bare-role = "app" | "application" | "window" | "button" | "checkbox"
	          | "menu" | "menuitem" | "menubar" | "textfield" | "input" ;

	name: values match case-insensitively by substring and cannot contain
	( ) ! & | ; compose with &&. text: values are case-sensitive and run
	to the next >>. nth: accepts negative indexes counting from the end.
	Spatial prefixes take a nested segment naming the anchor element.
`)
