/*
 * atoms.go, part of gotraj.
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

package configurators

import (
	"strings"

	chem "github.com/rmera/gotraj"
	"github.com/rmera/gotraj/selection"
	"golang.org/x/exp/slices"
)

// Kinds of the atom related configurators.
const (
	KindAtomSelection = "AtomSelectionConfigurator"
	KindGroupingLevel = "GroupingLevelConfigurator"
	KindWeights       = "WeightsConfigurator"
)

func uniqueSorted(s []string) []string {
	ret := slices.Clone(s)
	slices.Sort(ret)
	return slices.Compact(ret)
}

// AtomSelection evaluates a selection expression on the chemical system of the trajectory.
// A list of expressions selects their union. The selection must not be empty.
// Requires the "trajectory" role. Derived keys: indexes, flat_indexes, names, unique_names,
// selection_length, expression.
type AtomSelection struct {
	base
	Expression string
	// Indexes has one single-atom list per selected atom.
	Indexes         [][]int
	Flat            []int
	Names           []string
	UniqueNames     []string
	SelectionLength int
}

func NewAtomSelection(name string, opts Options) *AtomSelection {
	if opts.Default == nil {
		opts.Default = "all()"
	}
	return &AtomSelection{base: newBase(KindAtomSelection, name, opts)}
}

func (A *AtomSelection) Requires() []string { return []string{"trajectory"} }

func (A *AtomSelection) Configure(raw any, deps map[string]Configurator) error {
	t, err := trajectoryDep(A, deps, "AtomSelection.Configure")
	if err != nil {
		return err
	}
	exprs, err := toStrings(A.orDefault(raw))
	if err != nil || len(exprs) == 0 {
		return newError(A, "AtomSelection.Configure", "expected a selection expression, got %v", raw)
	}
	for i, e := range exprs {
		exprs[i] = "(" + e + ")"
	}
	expr := strings.Join(exprs, " or ")
	idx, err := selection.SelectNonEmpty(t.System, expr)
	if err != nil {
		return wrapError(err, A, "AtomSelection.Configure", "invalid selection")
	}
	A.Expression = expr
	A.Flat = idx
	A.Indexes = make([][]int, len(idx))
	A.Names = make([]string, len(idx))
	for i, a := range idx {
		A.Indexes[i] = []int{a}
		A.Names[i] = t.System.Atom(a).Symbol()
	}
	A.UniqueNames = uniqueSorted(A.Names)
	A.SelectionLength = len(idx)
	A.set(expr, map[string]any{
		"indexes":          A.Indexes,
		"flat_indexes":     A.Flat,
		"names":            A.Names,
		"unique_names":     A.UniqueNames,
		"selection_length": A.SelectionLength,
		"expression":       expr,
	})
	return nil
}

// Grouping levels.
const (
	LevelAtom       = "atom"
	LevelGroup      = "group"
	LevelMolecule   = "molecule"
	LevelResidue    = "residue"
	LevelNucleotide = "nucleotide"
	LevelChain      = "chain"
)

func groupOf(a *chem.Atom, level string) chem.Entity {
	switch level {
	case LevelGroup:
		return chem.TopLevel(a)
	case LevelMolecule:
		return chem.Ancestor(a, chem.KindMolecule)
	case LevelResidue:
		return chem.Ancestor(a, chem.KindResidue)
	case LevelNucleotide:
		return chem.Ancestor(a, chem.KindNucleotide)
	case LevelChain:
		if c := chem.Ancestor(a, chem.KindPeptideChain); c != nil {
			return c
		}
		return chem.Ancestor(a, chem.KindNucleotideChain)
	}
	return a
}

// GroupingLevel groups the selected atoms by the entity of the given level that contains
// them (atom, group, molecule, residue, nucleotide, chain). Atoms without an entity of that
// level form their own group. Groups are sorted by their first atom.
// Requires the "trajectory" and "atom_selection" roles. Derived keys: indexes, names,
// unique_names, selection_length, level.
type GroupingLevel struct {
	base
	Level           string
	Indexes         [][]int
	Names           []string
	UniqueNames     []string
	SelectionLength int
}

func NewGroupingLevel(name string, opts Options) *GroupingLevel {
	if opts.Default == nil {
		opts.Default = LevelAtom
	}
	if opts.Choices == nil {
		opts.Choices = []any{LevelAtom, LevelGroup, LevelMolecule, LevelResidue, LevelNucleotide, LevelChain}
	}
	return &GroupingLevel{base: newBase(KindGroupingLevel, name, opts)}
}

func (G *GroupingLevel) Requires() []string { return []string{"trajectory", "atom_selection"} }

func (G *GroupingLevel) Configure(raw any, deps map[string]Configurator) error {
	t, err := trajectoryDep(G, deps, "GroupingLevel.Configure")
	if err != nil {
		return err
	}
	sel, ok := deps["atom_selection"].(*AtomSelection)
	if !ok || !sel.Configured() {
		return newError(G, "GroupingLevel.Configure", "needs a configured atom selection")
	}
	level, err := toString(G.orDefault(raw))
	if err != nil {
		return wrapError(err, G, "GroupingLevel.Configure", "invalid level")
	}
	level = strings.ToLower(level)
	if err := G.checkChoice(G, level); err != nil {
		return err
	}
	pos := make(map[chem.Entity]int)
	G.Indexes, G.Names = nil, nil
	for _, i := range sel.Flat {
		a := t.System.Atom(i)
		e := groupOf(a, level)
		if e == nil {
			e = a
		}
		p, seen := pos[e]
		if !seen {
			p = len(G.Indexes)
			pos[e] = p
			G.Indexes = append(G.Indexes, nil)
			name := a.Symbol()
			if e != chem.Entity(a) {
				name = e.Name()
				if c, ok := e.(interface{ Code() string }); ok {
					name = c.Code()
				}
			}
			G.Names = append(G.Names, name)
		}
		G.Indexes[p] = append(G.Indexes[p], i)
	}
	G.Level = level
	G.UniqueNames = uniqueSorted(G.Names)
	G.SelectionLength = len(G.Indexes)
	G.set(level, map[string]any{
		"indexes":          G.Indexes,
		"names":            G.Names,
		"unique_names":     G.UniqueNames,
		"selection_length": G.SelectionLength,
		"level":            level,
	})
	return nil
}

// Weights chooses the element property used to weight atoms: equal, mass, atomic_weight,
// atomic_number, covalent_radius, vdw_radius or b_coherent. Requires the "atom_selection" role.
type Weights struct {
	base
	Property string
	symbols  []string
}

func NewWeights(name string, opts Options) *Weights {
	if opts.Default == nil {
		opts.Default = "equal"
	}
	return &Weights{base: newBase(KindWeights, name, opts)}
}

func (W *Weights) Requires() []string { return []string{"atom_selection"} }

func (W *Weights) Configure(raw any, deps map[string]Configurator) error {
	sel, ok := deps["atom_selection"].(*AtomSelection)
	if !ok || !sel.Configured() {
		return newError(W, "Weights.Configure", "needs a configured atom selection")
	}
	p, err := toString(W.orDefault(raw))
	if err != nil {
		return wrapError(err, W, "Weights.Configure", "invalid weight")
	}
	if err := W.checkChoice(W, p); err != nil {
		return err
	}
	if _, ok := (chem.Element{}).Property(p); !ok {
		return newError(W, "Weights.Configure", "unknown weight %q", p)
	}
	W.Property = p
	W.symbols = sel.UniqueNames
	W.set(p, map[string]any{"weights": W.Weights()})
	return nil
}

// Weights returns the weight of each element of the selection, by symbol.
func (W *Weights) Weights() map[string]float64 {
	ret := make(map[string]float64, len(W.symbols))
	for _, s := range W.symbols {
		ret[s] = W.weight(s)
	}
	return ret
}

func (W *Weights) weight(symbol string) float64 {
	e, err := chem.Elements.Get(symbol)
	if err != nil {
		return 0
	}
	v, _ := e.Property(W.Property)
	return v
}

// GroupWeights returns, for each group of atom indexes of S, the sum of the weights of its atoms.
func (W *Weights) GroupWeights(S *chem.ChemicalSystem, groups [][]int) []float64 {
	ret := make([]float64, len(groups))
	for i, g := range groups {
		for _, a := range g {
			ret[i] += W.weight(S.Atom(a).Symbol())
		}
	}
	return ret
}
