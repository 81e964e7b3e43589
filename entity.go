/*
 * entity.go, part of gotraj.
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
	"strings"

	"golang.org/x/exp/slices"
)

// EntityKind is the discriminator of the chemical entity tagged union.
type EntityKind string

const (
	KindAtom            EntityKind = "atom"
	KindAtomCluster     EntityKind = "atom_cluster"
	KindMolecule        EntityKind = "molecule"
	KindResidue         EntityKind = "residue"
	KindNucleotide      EntityKind = "nucleotide"
	KindPeptideChain    EntityKind = "peptide_chain"
	KindNucleotideChain EntityKind = "nucleotide_chain"
	KindProtein         EntityKind = "protein"
	KindChemicalSystem  EntityKind = "chemical_system"
)

// Entity is a node of the chemical entity tree. The parent is a plain back-reference,
// the ownership goes from the root ChemicalSystem down to the atoms.
// Only the types in this package implement Entity.
type Entity interface {
	Name() string
	FullName() string
	Kind() EntityKind
	Parent() Entity

	// AtomList returns the non-ghost atoms of the entity, in order.
	AtomList() []*Atom
	NumberOfAtoms() int
	TotalNumberOfAtoms() int

	// Copy returns a deep copy of the entity. Indexes are preserved, the copy has no parent,
	// and bonds to atoms outside the entity are dropped.
	Copy() Entity

	Children() []Entity

	setParent(Entity)
	allAtoms() []*Atom
	clone(map[*Atom]*Atom) Entity
}

// fullName returns the dotted path of e from its top-level entity.
func fullName(e Entity) string {
	parts := []string{e.Name()}
	for p := e.Parent(); p != nil && p.Kind() != KindChemicalSystem; p = p.Parent() {
		parts = append(parts, p.Name())
	}
	slices.Reverse(parts)
	return strings.Join(parts, ".")
}

// TopLevel returns the entity right below the chemical system that contains e,
// or e itself if it has no parent.
func TopLevel(e Entity) Entity {
	for p := e.Parent(); p != nil && p.Kind() != KindChemicalSystem; p = e.Parent() {
		e = p
	}
	return e
}

// copyEntity clones e and rebuilds the concrete bonds between the cloned atoms.
func copyEntity(e Entity) Entity {
	m := make(map[*Atom]*Atom, e.TotalNumberOfAtoms())
	n := e.clone(m)
	rebond(m)
	return n
}

func rebond(m map[*Atom]*Atom) {
	for old, nw := range m {
		for _, b := range old.bonds {
			if b.Symbolic() {
				continue
			}
			if other, ok := m[b.Atom]; ok {
				nw.AddBond(other)
			}
		}
	}
}

func (A *Atom) clone(m map[*Atom]*Atom) Entity {
	n := A.copyAtom()
	m[A] = n
	return n
}

func (A *Atom) Children() []Entity { return nil }

// atomGroup is the common part of the entities that directly own atoms.
type atomGroup struct {
	name   string
	atoms  []*Atom
	parent Entity
}

func (G *atomGroup) Name() string { return G.name }
func (G *atomGroup) Parent() Entity { return G.parent }
func (G *atomGroup) setParent(p Entity) { G.parent = p }
func (G *atomGroup) allAtoms() []*Atom { return G.atoms }
func (G *atomGroup) Len() int { return len(G.atoms) }
func (G *atomGroup) Atom(i int) *Atom { return G.atoms[i] }
func (G *atomGroup) TotalNumberOfAtoms() int { return len(G.atoms) }

func (G *atomGroup) AtomList() []*Atom {
	ret := make([]*Atom, 0, len(G.atoms))
	for _, a := range G.atoms {
		if !a.ghost {
			ret = append(ret, a)
		}
	}
	return ret
}

func (G *atomGroup) NumberOfAtoms() int {
	n := 0
	for _, a := range G.atoms {
		if !a.ghost {
			n++
		}
	}
	return n
}

func (G *atomGroup) Children() []Entity {
	ret := make([]Entity, len(G.atoms))
	for i, a := range G.atoms {
		ret[i] = a
	}
	return ret
}

// AtomByName returns the first atom named name, or nil.
func (G *atomGroup) AtomByName(name string) *Atom {
	for _, a := range G.atoms {
		if a.name == name {
			return a
		}
	}
	return nil
}

// Names returns the names of the atoms in the group, in order.
func (G *atomGroup) Names() []string {
	ret := make([]string, len(G.atoms))
	for i, a := range G.atoms {
		ret[i] = a.name
	}
	return ret
}

func (G *atomGroup) cloneAtoms(m map[*Atom]*Atom, owner Entity) []*Atom {
	ret := make([]*Atom, len(G.atoms))
	for i, a := range G.atoms {
		ret[i] = a.clone(m).(*Atom)
		ret[i].parent = owner
	}
	return ret
}

func (G *atomGroup) adopt(owner Entity) {
	for _, a := range G.atoms {
		a.parent = owner
	}
}

// reorder sets the order of the atoms to the one given by names, which must be
// a permutation of the current names. It is rejected once the atoms are indexed.
func (G *atomGroup) reorder(names []string, caller string) error {
	if len(names) != len(G.atoms) {
		return &InconsistentAtomNamesError{newCError(caller, nil, "%d names given for %d atoms", len(names), len(G.atoms)), names}
	}
	byName := make(map[string]*Atom, len(G.atoms))
	for _, a := range G.atoms {
		byName[a.name] = a
	}
	ret := make([]*Atom, 0, len(names))
	seen := make(map[string]bool, len(names))
	for _, n := range names {
		a, ok := byName[n]
		if !ok || seen[n] {
			return &InconsistentAtomNamesError{newCError(caller, nil, "names %v don't match the atoms %v", names, G.Names()), names}
		}
		seen[n] = true
		ret = append(ret, a)
	}
	for _, a := range G.atoms {
		if a.index >= 0 {
			return &InconsistentAtomNamesError{newCError(caller, nil, "can't reorder atoms that already have indexes"), names}
		}
	}
	G.atoms = ret
	return nil
}

// AtomCluster is a free-form group of atoms (e.g. a crystal, or a set of ions).
type AtomCluster struct {
	atomGroup
}

// NewAtomCluster returns a cluster containing atoms, which must not have a parent.
func NewAtomCluster(name string, atoms []*Atom) (*AtomCluster, error) {
	for _, a := range atoms {
		if a == nil || a.parent != nil {
			return nil, &InvalidChemicalEntityError{newCError("NewAtomCluster", nil, "atoms must be non-nil and without parent")}
		}
	}
	C := &AtomCluster{atomGroup{name: name, atoms: append([]*Atom(nil), atoms...)}}
	C.adopt(C)
	return C, nil
}

func (C *AtomCluster) Kind() EntityKind { return KindAtomCluster }
func (C *AtomCluster) FullName() string { return fullName(C) }
func (C *AtomCluster) Copy() Entity { return copyEntity(C) }

func (C *AtomCluster) clone(m map[*Atom]*Atom) Entity {
	n := &AtomCluster{atomGroup{name: C.name}}
	n.atoms = C.cloneAtoms(m, n)
	return n
}

// ReorderAtoms sets the order of the atoms in the cluster.
func (C *AtomCluster) ReorderAtoms(names []string) error {
	return errDecorate(C.reorder(names, "AtomCluster.ReorderAtoms"), "")
}

func (C *AtomCluster) String() string {
	return fmt.Sprintf("AtomCluster %s (%d atoms)", C.name, len(C.atoms))
}
