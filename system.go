/*
 * system.go, part of gotraj.
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

package chem

import (
	"fmt"

	"golang.org/x/exp/slices"
)

// ChemicalSystem is the root of the entity tree. It owns the top-level entities
// and indexes their non-ghost atoms in insertion order.
type ChemicalSystem struct {
	name     string
	entities []Entity
	atoms    []*Atom
	conf     Configuration
}

var (
	_ Atomer = (*ChemicalSystem)(nil)
	_ Masser = (*ChemicalSystem)(nil)
)

// NewChemicalSystem returns an empty system.
func NewChemicalSystem(name string) *ChemicalSystem {
	return &ChemicalSystem{name: name}
}

func (S *ChemicalSystem) Name() string { return S.name }
func (S *ChemicalSystem) FullName() string { return S.name }
func (S *ChemicalSystem) Kind() EntityKind { return KindChemicalSystem }
func (S *ChemicalSystem) Parent() Entity { return nil }
func (S *ChemicalSystem) setParent(Entity) {}
func (S *ChemicalSystem) allAtoms() []*Atom { return collectAtoms(S.entities, true) }
func (S *ChemicalSystem) Children() []Entity { return append([]Entity(nil), S.entities...) }
func (S *ChemicalSystem) Entities() []Entity { return S.Children() }
func (S *ChemicalSystem) NumberOfAtoms() int { return len(S.atoms) }
func (S *ChemicalSystem) Len() int { return len(S.atoms) }
func (S *ChemicalSystem) Atom(i int) *Atom { return S.atoms[i] }
func (S *ChemicalSystem) TotalNumberOfAtoms() int { return len(S.allAtoms()) }

// AtomList returns the non-ghost atoms of the system. The atom with index i is in the
// position i of the slice.
func (S *ChemicalSystem) AtomList() []*Atom {
	return append([]*Atom(nil), S.atoms...)
}

// Configuration returns the configuration attached to the system, or nil.
func (S *ChemicalSystem) Configuration() Configuration { return S.conf }

// SetConfiguration attaches conf to the system. conf must have been built for S.
// A nil conf detaches the current configuration.
func (S *ChemicalSystem) SetConfiguration(conf Configuration) error {
	if conf != nil && conf.System() != S {
		return &InconsistentChemicalSystemError{newCError("ChemicalSystem.SetConfiguration", nil, "the configuration belongs to another chemical system")}
	}
	S.conf = conf
	return nil
}

// AddEntity appends e to the system and indexes its non-ghost atoms. Any attached
// configuration is dropped. Nothing is modified if e is rejected.
func (S *ChemicalSystem) AddEntity(e Entity) error {
	if e == nil {
		return &InvalidChemicalEntityError{newCError("ChemicalSystem.AddEntity", nil, "nil entity")}
	}
	if e.Kind() == KindChemicalSystem {
		return &InvalidChemicalEntityError{newCError("ChemicalSystem.AddEntity", nil, "a chemical system can't contain another one")}
	}
	if e.Parent() != nil {
		return &InvalidChemicalEntityError{newCError("ChemicalSystem.AddEntity", nil, "entity %s already has a parent", e.Name())}
	}
	all := e.allAtoms()
	for _, a := range all {
		if a.index >= 0 {
			return &InvalidChemicalEntityError{newCError("ChemicalSystem.AddEntity", nil, "atom %s is already indexed", a.FullName())}
		}
	}
	e.setParent(S)
	S.entities = append(S.entities, e)
	for _, a := range all {
		if a.ghost {
			continue
		}
		a.setIndex(len(S.atoms))
		S.atoms = append(S.atoms, a)
	}
	S.conf = nil
	return nil
}

// AddEntities adds each of the entities, stopping at the first error.
func (S *ChemicalSystem) AddEntities(entities ...Entity) error {
	for _, e := range entities {
		if err := S.AddEntity(e); err != nil {
			return errDecorate(err, "ChemicalSystem.AddEntities")
		}
	}
	return nil
}

// Copy returns a deep copy of the system, with the same atom indexes. The configuration
// is not copied.
func (S *ChemicalSystem) Copy() Entity { return S.CopySystem() }

// CopySystem is Copy, but returns the concrete type.
func (S *ChemicalSystem) CopySystem() *ChemicalSystem {
	m := make(map[*Atom]*Atom, len(S.atoms))
	return S.clone(m).(*ChemicalSystem)
}

func (S *ChemicalSystem) clone(m map[*Atom]*Atom) Entity {
	n := NewChemicalSystem(S.name)
	for _, e := range S.entities {
		c := e.clone(m)
		c.setParent(n)
		n.entities = append(n.entities, c)
	}
	rebond(m)
	n.atoms = make([]*Atom, len(S.atoms))
	for i, a := range S.atoms {
		n.atoms[i] = m[a]
	}
	return n
}

// Masses returns the masses of the atoms, in index order.
func (S *ChemicalSystem) Masses() ([]float64, error) {
	ret := make([]float64, len(S.atoms))
	for i, a := range S.atoms {
		ret[i] = a.Mass()
	}
	return ret, nil
}

// Symbols returns the element symbols of the atoms, in index order.
func (S *ChemicalSystem) Symbols() []string {
	ret := make([]string, len(S.atoms))
	for i, a := range S.atoms {
		ret[i] = a.symbol
	}
	return ret
}

// AddBond bonds the atoms with indexes i and j.
func (S *ChemicalSystem) AddBond(i, j int) error {
	if i < 0 || j < 0 || i >= len(S.atoms) || j >= len(S.atoms) || i == j {
		return &InconsistentChemicalSystemError{newCError("ChemicalSystem.AddBond", nil, "invalid bond %d-%d for %d atoms", i, j, len(S.atoms))}
	}
	S.atoms[i].AddBond(S.atoms[j])
	return nil
}

// Bonds returns the concrete bonds between indexed atoms, as sorted index pairs with
// the lower index first.
func (S *ChemicalSystem) Bonds() [][2]int {
	var ret [][2]int
	for _, a := range S.atoms {
		for _, b := range a.bonds {
			if b.Symbolic() || b.Atom.index < 0 || b.Atom.ghost {
				continue
			}
			if a.index < b.Atom.index {
				ret = append(ret, [2]int{a.index, b.Atom.index})
			}
		}
	}
	slices.SortFunc(ret, func(x, y [2]int) int {
		if x[0] != y[0] {
			return x[0] - y[0]
		}
		return x[1] - y[1]
	})
	return ret
}

// TopLevelIndexes returns, for each top-level entity, the indexes of its atoms.
func (S *ChemicalSystem) TopLevelIndexes() [][]int {
	ret := make([][]int, 0, len(S.entities))
	for _, e := range S.entities {
		ret = append(ret, Indexes(e.AtomList()))
	}
	return ret
}

func (S *ChemicalSystem) String() string {
	return fmt.Sprintf("ChemicalSystem %s (%d entities, %d atoms)", S.name, len(S.entities), len(S.atoms))
}

// Indexes returns the indexes of the atoms.
func Indexes(atoms []*Atom) []int {
	ret := make([]int, len(atoms))
	for i, a := range atoms {
		ret[i] = a.index
	}
	return ret
}

// Walk calls fn on e and its descendants, depth first, in order. If fn returns
// false the descendants of that entity are skipped.
func Walk(e Entity, fn func(Entity) bool) {
	if !fn(e) {
		return
	}
	for _, c := range e.Children() {
		Walk(c, fn)
	}
}

// Ancestor returns the closest ancestor of a with the given kind, or nil.
func Ancestor(a Entity, kind EntityKind) Entity {
	for p := a.Parent(); p != nil; p = p.Parent() {
		if p.Kind() == kind {
			return p
		}
	}
	return nil
}
