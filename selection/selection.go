/*
 * selection.go, part of gotraj.
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

// Package selection turns selection expressions into sorted lists of atom indexes.
//
// An expression combines selectors with and, or, not (or &, |, ~) and parentheses.
// Selector arguments go between parentheses or, for a single argument list, as bare
// words: "element(H, O)" and "chain_name A" are both valid.
package selection

import chem "github.com/rmera/gotraj"

// Evaluate returns the sorted indexes of the atoms of S selected by n.
func Evaluate(S *chem.ChemicalSystem, n Node) ([]int, error) {
	s, err := n.eval(S, n.String())
	if err != nil {
		return nil, err
	}
	return s.indexes(), nil
}

// Select parses expr and evaluates it on S. An empty result is not an error.
func Select(S *chem.ChemicalSystem, expr string) ([]int, error) {
	n, err := Parse(expr)
	if err != nil {
		return nil, err
	}
	s, err := n.eval(S, expr)
	if err != nil {
		return nil, err
	}
	return s.indexes(), nil
}

// SelectNonEmpty is like Select, but an empty result is a SelectionParserError.
func SelectNonEmpty(S *chem.ChemicalSystem, expr string) ([]int, error) {
	ret, err := Select(S, expr)
	if err != nil {
		return nil, err
	}
	if len(ret) == 0 {
		return nil, newError(expr, -1, "SelectNonEmpty", "the selection is empty")
	}
	return ret, nil
}
