// Copyright 2025 The Terminator Authors
// SPDX-License-Identifier: Apache-2.0

package platform

import (
	"fmt"
	"strings"

	"github.com/mediar-ai/terminator-sub003/types"
)

// Chord is one decoded key press: a single key plus the modifiers held
// while it is pressed. Key is either a name from namedKeys ("enter",
// "f5", ...) or a single literal rune typed as Unicode text.
type Chord struct {
	Key     string
	Literal rune // set when Key is "", a plain character to type
	Ctrl    bool
	Shift   bool
	Alt     bool
}

// namedKeys are the brace-enclosed key names the key-spec grammar accepts,
// normalized to lower case. F1..F12 are handled separately.
var namedKeys = map[string]bool{
	"enter": true, "tab": true, "esc": true, "escape": true,
	"space": true, "backspace": true, "delete": true, "del": true,
	"insert": true, "ins": true, "home": true, "end": true,
	"pgup": true, "pgdn": true, "up": true, "down": true,
	"left": true, "right": true, "win": true, "apps": true,
	"printscreen": true, "capslock": true, "numlock": true,
}

// ParseKeySpec decodes a textual key sequence into chords. The grammar:
// ^ holds Ctrl for the next key, + holds Shift, % holds Alt; {Enter},
// {Tab}, {F1}..{F12} and the other namedKeys press a named key; {{} and
// {}} (and {^}, {+}, {%}) escape the control characters; everything else
// is literal Unicode text, one chord per rune. Multi-byte runes pass
// through whole, never split.
func ParseKeySpec(spec types.KeySpec) ([]Chord, error) {
	var out []Chord
	var ctrl, shift, alt bool

	emit := func(c Chord) {
		c.Ctrl, c.Shift, c.Alt = ctrl, shift, alt
		ctrl, shift, alt = false, false, false
		out = append(out, c)
	}

	runes := []rune(string(spec))
	for i := 0; i < len(runes); i++ {
		r := runes[i]
		switch r {
		case '^':
			ctrl = true
		case '+':
			shift = true
		case '%':
			alt = true
		case '{':
			// "{}}" is the escape for a literal '}': its body is itself a
			// '}', so the closing-brace search below would stop short.
			if i+2 < len(runes) && runes[i+1] == '}' && runes[i+2] == '}' {
				emit(Chord{Literal: '}'})
				i += 2
				continue
			}
			end := -1
			for j := i + 1; j < len(runes); j++ {
				if runes[j] == '}' {
					end = j
					break
				}
			}
			if end < 0 {
				return nil, fmt.Errorf("unterminated '{' at position %d in key spec %q", i, spec)
			}
			body := string(runes[i+1 : end])
			i = end
			// A one-rune body that is a control character is an escape
			// for that literal character.
			if br := []rune(body); len(br) == 1 && strings.ContainsRune("^+%{}", br[0]) {
				emit(Chord{Literal: br[0]})
				continue
			}
			name := strings.ToLower(body)
			if isFunctionKey(name) || namedKeys[name] {
				emit(Chord{Key: name})
				continue
			}
			return nil, fmt.Errorf("unknown key name %q in key spec %q", body, spec)
		case '}':
			return nil, fmt.Errorf("unmatched '}' at position %d in key spec %q", i, spec)
		default:
			emit(Chord{Literal: r})
		}
	}
	if ctrl || shift || alt {
		return nil, fmt.Errorf("dangling modifier at end of key spec %q", spec)
	}
	return out, nil
}

func isFunctionKey(name string) bool {
	if len(name) < 2 || name[0] != 'f' {
		return false
	}
	switch name[1:] {
	case "1", "2", "3", "4", "5", "6", "7", "8", "9", "10", "11", "12":
		return true
	}
	return false
}
