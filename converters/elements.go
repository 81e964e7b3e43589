/*
 * elements.go, part of gotraj.
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

package converters

import (
	"fmt"
	"math"
	"strings"

	chem "github.com/rmera/gotraj"
)

// ParseAliases reads "name=symbol" pairs separated by commas, such as "OW=O, HW=H".
func ParseAliases(s string) (map[string]string, error) {
	ret := make(map[string]string)
	for _, p := range strings.Split(s, ",") {
		p = strings.TrimSpace(p)
		if p == "" {
			continue
		}
		name, sym, ok := strings.Cut(p, "=")
		name, sym = strings.TrimSpace(name), strings.TrimSpace(sym)
		if !ok || name == "" || sym == "" {
			return nil, fmt.Errorf("invalid alias %q, expected name=symbol", p)
		}
		e, err := chem.Elements.Get(sym)
		if err != nil {
			return nil, err
		}
		ret[name] = e.Symbol
	}
	return ret, nil
}

// ElementByMass returns the element whose atomic weight is closest to mass, if it is within tol.
func ElementByMass(mass, tol float64) (string, error) {
	cands, err := chem.Elements.MatchNumericProperty("atomic_weight", mass, tol)
	if err != nil {
		return "", err
	}
	best, diff := "", math.Inf(1)
	for _, c := range cands {
		e, _ := chem.Elements.Get(c)
		if d := math.Abs(e.AtomicWeight - mass); d < diff {
			best, diff = c, d
		}
	}
	if best == "" {
		return "", fmt.Errorf("no element with a mass of %v±%v", mass, tol)
	}
	return best, nil
}

// GuessElement finds the element of an atom called name, with the given mass: first from
// the aliases, then from the first two or one letters of the name when the mass agrees
// within tol (or is not positive), then from the mass alone.
func GuessElement(name string, mass, tol float64, aliases map[string]string) (string, error) {
	if s, ok := aliases[name]; ok {
		return s, nil
	}
	letters := strings.TrimLeft(name, "0123456789")
	for _, n := range []int{2, 1} {
		if len(letters) < n {
			continue
		}
		e, err := chem.Elements.Get(letters[:n])
		if err != nil {
			continue
		}
		if mass <= 0 || math.Abs(e.AtomicWeight-mass) <= tol {
			return e.Symbol, nil
		}
	}
	if mass > 0 {
		return ElementByMass(mass, tol)
	}
	return "", fmt.Errorf("can't guess the element of %q", name)
}
