/*
 * lexer.go, part of gotraj.
 *
 * Copyright 2026 The gotraj Authors
 *
 * This program is free software; you can redistribute it and/or modify
 * it under the terms of the GNU Lesser General Public License as
 * published by the Free Software Foundation; either version 2.1 of the
 * License, or (at your option) any later version.
 *
 * This program is distributed in the hope that it will be useful,
 * but WITHOUT ANY WARRANTY; without even the implied warranty of
 * MERCHANTABILITY or FITNESS FOR A PARTICULAR PURPOSE.  See the
 * GNU General Public License for more details.
 *
 * You should have received a copy of the GNU Lesser General
 * Public License along with this program.  If not, see
 * <http://www.gnu.org/licenses/>.
 *
 */

package selection

import (
	"strings"
	"unicode"
)

type tokenKind int

const (
	tEOF tokenKind = iota
	tWord
	tOpen
	tClose
	tComma
	tAnd
	tOr
	tNot
)

type token struct {
	kind tokenKind
	text string
	pos  int
}

const special = "(),&|~"

// tokenize splits expr into tokens. Quoted words ('...' or "...") may contain spaces and
// the special characters.
func tokenize(expr string) ([]token, error) {
	var toks []token
	r := []rune(expr)
	for i := 0; i < len(r); {
		c := r[i]
		switch {
		case unicode.IsSpace(c):
			i++
		case c == '(':
			toks = append(toks, token{tOpen, "(", i})
			i++
		case c == ')':
			toks = append(toks, token{tClose, ")", i})
			i++
		case c == ',':
			toks = append(toks, token{tComma, ",", i})
			i++
		case c == '&':
			toks = append(toks, token{tAnd, "&", i})
			i++
		case c == '|':
			toks = append(toks, token{tOr, "|", i})
			i++
		case c == '~':
			toks = append(toks, token{tNot, "~", i})
			i++
		case c == '\'' || c == '"':
			j := i + 1
			for j < len(r) && r[j] != c {
				j++
			}
			if j == len(r) {
				return nil, newError(expr, i, "tokenize", "unterminated quote")
			}
			toks = append(toks, token{tWord, string(r[i+1 : j]), i})
			i = j + 1
		default:
			j := i
			for j < len(r) && !unicode.IsSpace(r[j]) && !strings.ContainsRune(special, r[j]) {
				j++
			}
			w := string(r[i:j])
			t := token{tWord, w, i}
			switch strings.ToLower(w) {
			case "and":
				t.kind = tAnd
			case "or":
				t.kind = tOr
			case "not":
				t.kind = tNot
			}
			toks = append(toks, t)
			i = j
		}
	}
	return append(toks, token{tEOF, "", len(r)}), nil
}
