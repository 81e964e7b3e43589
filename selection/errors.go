/*
 * errors.go, part of gotraj.
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

import "fmt"

// SelectionParserError is returned for malformed expressions, unknown selectors, and
// empty selections where a non-empty one is required.
type SelectionParserError struct {
	msg  string
	expr string
	pos  int
	deco []string
}

func newError(expr string, pos int, caller, format string, args ...interface{}) *SelectionParserError {
	return &SelectionParserError{msg: fmt.Sprintf(format, args...), expr: expr, pos: pos, deco: []string{caller}}
}

func (err *SelectionParserError) Error() string {
	if err.pos >= 0 {
		return fmt.Sprintf("%s (at %d in %q)", err.msg, err.pos, err.expr)
	}
	return fmt.Sprintf("%s (in %q)", err.msg, err.expr)
}

func (err *SelectionParserError) Kind() string { return "SelectionParserError" }

// Expression returns the expression that caused the error.
func (err *SelectionParserError) Expression() string { return err.expr }

// Decorate adds dec to the decoration slice and returns it. An empty dec only returns the slice.
func (err *SelectionParserError) Decorate(dec string) []string {
	if dec != "" {
		err.deco = append(err.deco, dec)
	}
	return err.deco
}
