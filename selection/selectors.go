/*
 * selectors.go, part of gotraj.
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
	"fmt"
	"strconv"
	"strings"
	"sync"

	chem "github.com/rmera/gotraj"
	"golang.org/x/exp/slices"
)

// Selector marks in out the atoms of S it selects, given its arguments.
// out has one element per indexed atom.
type Selector func(S *chem.ChemicalSystem, args []string, out []bool) error

var (
	regMu    sync.RWMutex
	registry = map[string]Selector{}
)

// Register adds or replaces a selector. Names are case-insensitive.
func Register(name string, sel Selector) {
	regMu.Lock()
	defer regMu.Unlock()
	registry[strings.ToLower(name)] = sel
}

func lookup(name string) (Selector, bool) {
	regMu.RLock()
	defer regMu.RUnlock()
	s, ok := registry[strings.ToLower(name)]
	return s, ok
}

// Names returns the registered selector names, sorted.
func Names() []string {
	regMu.RLock()
	defer regMu.RUnlock()
	ret := make([]string, 0, len(registry))
	for k := range registry {
		ret = append(ret, k)
	}
	slices.Sort(ret)
	return ret
}

func init() {
	Register("all", selectAll)
	Register("atom_index", selectIndex)
	Register("atom_name", byAtom(func(a *chem.Atom) string { return a.Name() }))
	Register("name", byAtom(func(a *chem.Atom) string { return a.Name() }))
	Register("atom_fullname", byAtom(func(a *chem.Atom) string { return a.FullName() }))
	Register("fullname", byAtom(func(a *chem.Atom) string { return a.FullName() }))
	Register("name_contains", selectContains)
	Register("element", selectElement)
	Register("chain_name", byAncestor(chem.KindPeptideChain, chem.KindNucleotideChain))
	Register("residue_name", byAncestor(chem.KindResidue))
	Register("nucleotide_name", byAncestor(chem.KindNucleotide))
	Register("molecule_name", byAncestor(chem.KindMolecule))
	Register("hs_on", selectHsOn)
	Register("hs_on_heteroatom", selectHsOnHetero)
	Register("smarts", selectSMARTS)
}

func noArgs(args []string) error {
	if len(args) != 0 {
		return fmt.Errorf("takes no arguments, got %d", len(args))
	}
	return nil
}

func needArgs(args []string) error {
	if len(args) == 0 {
		return fmt.Errorf("needs at least one argument")
	}
	return nil
}

func selectAll(S *chem.ChemicalSystem, args []string, out []bool) error {
	if err := noArgs(args); err != nil {
		return err
	}
	for i := range out {
		out[i] = true
	}
	return nil
}

// selectIndex accepts single indexes and inclusive ranges like 3-7.
func selectIndex(S *chem.ChemicalSystem, args []string, out []bool) error {
	if err := needArgs(args); err != nil {
		return err
	}
	for _, a := range args {
		first, last := a, a
		if f, l, ok := strings.Cut(a, "-"); ok && f != "" {
			first, last = f, l
		}
		i, err := strconv.Atoi(first)
		if err != nil {
			return fmt.Errorf("invalid index %q", a)
		}
		j, err := strconv.Atoi(last)
		if err != nil {
			return fmt.Errorf("invalid index %q", a)
		}
		if i < 0 || j >= len(out) || i > j {
			return fmt.Errorf("index %q out of range [0, %d)", a, len(out))
		}
		for k := i; k <= j; k++ {
			out[k] = true
		}
	}
	return nil
}

func byAtom(field func(*chem.Atom) string) Selector {
	return func(S *chem.ChemicalSystem, args []string, out []bool) error {
		if err := needArgs(args); err != nil {
			return err
		}
		for i := range out {
			out[i] = slices.Contains(args, field(S.Atom(i)))
		}
		return nil
	}
}

func selectContains(S *chem.ChemicalSystem, args []string, out []bool) error {
	if err := needArgs(args); err != nil {
		return err
	}
	for i := range out {
		fn := S.Atom(i).FullName()
		for _, a := range args {
			if strings.Contains(fn, a) {
				out[i] = true
				break
			}
		}
	}
	return nil
}

func symbols(args []string) ([]string, error) {
	ret := make([]string, len(args))
	for i, a := range args {
		e, err := chem.Elements.Get(a)
		if err != nil {
			return nil, err
		}
		ret[i] = e.Symbol
	}
	return ret, nil
}

func selectElement(S *chem.ChemicalSystem, args []string, out []bool) error {
	if err := needArgs(args); err != nil {
		return err
	}
	syms, err := symbols(args)
	if err != nil {
		return err
	}
	for i := range out {
		out[i] = slices.Contains(syms, S.Atom(i).Symbol())
	}
	return nil
}

type coded interface {
	Code() string
}

// byAncestor selects the atoms whose closest ancestor of one of kinds is named (or, for
// database-built entities, has the code) given in the arguments.
func byAncestor(kinds ...chem.EntityKind) Selector {
	return func(S *chem.ChemicalSystem, args []string, out []bool) error {
		if err := needArgs(args); err != nil {
			return err
		}
		for i := range out {
			for _, k := range kinds {
				anc := chem.Ancestor(S.Atom(i), k)
				if anc == nil {
					continue
				}
				if slices.Contains(args, anc.Name()) {
					out[i] = true
				} else if c, ok := anc.(coded); ok && slices.Contains(args, c.Code()) {
					out[i] = true
				}
			}
		}
		return nil
	}
}

func hydrogensOn(S *chem.ChemicalSystem, out []bool, heavy func(*chem.Atom) bool) {
	for i := range out {
		a := S.Atom(i)
		if a.Symbol() != "H" {
			continue
		}
		for _, b := range a.Bonds() {
			if heavy(b) {
				out[i] = true
				break
			}
		}
	}
}

// selectHsOn selects the hydrogens bonded to atoms of the given elements.
func selectHsOn(S *chem.ChemicalSystem, args []string, out []bool) error {
	if err := needArgs(args); err != nil {
		return err
	}
	syms, err := symbols(args)
	if err != nil {
		return err
	}
	hydrogensOn(S, out, func(b *chem.Atom) bool { return slices.Contains(syms, b.Symbol()) })
	return nil
}

func selectHsOnHetero(S *chem.ChemicalSystem, args []string, out []bool) error {
	if err := noArgs(args); err != nil {
		return err
	}
	hydrogensOn(S, out, func(b *chem.Atom) bool { return b.Symbol() != "C" && b.Symbol() != "H" })
	return nil
}

func selectSMARTS(S *chem.ChemicalSystem, args []string, out []bool) error {
	if err := needArgs(args); err != nil {
		return err
	}
	idx, err := S.SubstructureMatches(args)
	if err != nil {
		return err
	}
	for _, i := range idx {
		out[i] = true
	}
	return nil
}
