/*
 * atom.go, part of gotraj.
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
	"strings"
)

// Symbolic bond markers, used by the residue and nucleotide databases
// for bonds to the previous (-R) and next (+R) unit in a chain.
const (
	PrevMarker = "-R"
	NextMarker = "+R"
)

// Bond is a reference from one atom to another. It is either concrete (Atom is not nil)
// or symbolic (Marker is one of the chain markers), the latter being resolved when a chain
// is assembled.
type Bond struct {
	Atom   *Atom
	Marker string
}

// Symbolic returns true if the bond has not been resolved to a concrete atom.
func (B Bond) Symbolic() bool { return B.Atom == nil }

// Atom is the leaf of the chemical entity tree.
type Atom struct {
	name    string
	symbol  string
	index   int
	ghost   bool
	bonds   []Bond
	flags   map[string]bool
	parent  Entity
	element Element
}

// NewAtom returns a new, unindexed, atom for the element symbol, or an UnknownAtomError
// if the symbol is not in the element database. If name is empty, the symbol is used.
func NewAtom(symbol, name string) (*Atom, error) {
	e, err := Elements.Get(symbol)
	if err != nil {
		return nil, errDecorate(err, "NewAtom")
	}
	if name == "" {
		name = e.Symbol
	}
	return &Atom{name: name, symbol: e.Symbol, index: -1, element: e}, nil
}

// NewGhostAtom is like NewAtom but the atom will not be indexed, nor counted in NumberOfAtoms.
func NewGhostAtom(symbol, name string) (*Atom, error) {
	a, err := NewAtom(symbol, name)
	if err != nil {
		return nil, errDecorate(err, "NewGhostAtom")
	}
	a.ghost = true
	return a, nil
}

func (A *Atom) Name() string { return A.name }
func (A *Atom) Symbol() string { return A.symbol }
func (A *Atom) Ghost() bool { return A.ghost }
func (A *Atom) Element() Element { return A.element }
func (A *Atom) Mass() float64 { return A.element.AtomicWeight }
func (A *Atom) Parent() Entity { return A.parent }
func (A *Atom) Kind() EntityKind { return KindAtom }
func (A *Atom) setParent(p Entity) { A.parent = p }
func (A *Atom) allAtoms() []*Atom { return []*Atom{A} }
func (A *Atom) TotalNumberOfAtoms() int { return 1 }

// Index returns the index of the atom in its chemical system, or -1 if it hasn't been
// set.
func (A *Atom) Index() int { return A.index }

// setIndex sets the index of the atom. The index is write-once, so this will panic if it was already set
// to a different value, which can only be a programming error in this package.
func (A *Atom) setIndex(i int) {
	if A.index >= 0 && A.index != i {
		panic("chem: atom index is write-once")
	}
	A.index = i
}

// Flag returns the value of the database flag name (e.g. nter_connected).
func (A *Atom) Flag(name string) bool { return A.flags[name] }

// SetFlag sets the database flag name.
func (A *Atom) SetFlag(name string, v bool) {
	if A.flags == nil {
		A.flags = make(map[string]bool, 1)
	}
	A.flags[name] = v
}

// FullName returns the dotted name of the atom, starting from its top-level entity.
func (A *Atom) FullName() string {
	return fullName(A)
}

// AtomList returns the atom itself, unless it is a ghost.
func (A *Atom) AtomList() []*Atom {
	if A.ghost {
		return nil
	}
	return []*Atom{A}
}

func (A *Atom) NumberOfAtoms() int {
	if A.ghost {
		return 0
	}
	return 1
}

// Bonds returns the atoms concretely bonded to A.
func (A *Atom) Bonds() []*Atom {
	ret := make([]*Atom, 0, len(A.bonds))
	for _, b := range A.bonds {
		if !b.Symbolic() {
			ret = append(ret, b.Atom)
		}
	}
	return ret
}

// RawBonds returns a copy of all the bond references, including symbolic ones.
func (A *Atom) RawBonds() []Bond {
	return append([]Bond(nil), A.bonds...)
}

// HasMarker returns true if A holds the symbolic bond marker.
func (A *Atom) HasMarker(marker string) bool {
	for _, b := range A.bonds {
		if b.Symbolic() && b.Marker == marker {
			return true
		}
	}
	return false
}

// BondedTo returns true if A is concretely bonded to B.
func (A *Atom) BondedTo(B *Atom) bool {
	for _, b := range A.bonds {
		if b.Atom == B {
			return true
		}
	}
	return false
}

// AddBond bonds A and B. Bonds are undirected, so both atoms are modified.
// Adding an existing bond does nothing.
func (A *Atom) AddBond(B *Atom) {
	if A == B || A.BondedTo(B) {
		return
	}
	A.bonds = append(A.bonds, Bond{Atom: B})
	B.bonds = append(B.bonds, Bond{Atom: A})
}

// RemoveBond removes the bond between A and B, if present.
func (A *Atom) RemoveBond(B *Atom) {
	A.bonds = removeBondRef(A.bonds, func(b Bond) bool { return b.Atom == B })
	B.bonds = removeBondRef(B.bonds, func(b Bond) bool { return b.Atom == A })
}

func (A *Atom) addMarker(marker string) {
	if !A.HasMarker(marker) {
		A.bonds = append(A.bonds, Bond{Marker: marker})
	}
}

// replaceMarker replaces the symbolic marker in A for a concrete bond to B.
func (A *Atom) replaceMarker(marker string, B *Atom) {
	A.bonds = removeBondRef(A.bonds, func(b Bond) bool { return b.Symbolic() && b.Marker == marker })
	A.AddBond(B)
}

func removeBondRef(bonds []Bond, match func(Bond) bool) []Bond {
	ret := bonds[:0]
	for _, b := range bonds {
		if !match(b) {
			ret = append(ret, b)
		}
	}
	return ret
}

// Copy returns a copy of the atom, without parent and without concrete bonds. Symbolic
// bonds, flags and index are preserved. Containers rebuild the concrete bonds.
func (A *Atom) Copy() Entity {
	return A.copyAtom()
}

func (A *Atom) copyAtom() *Atom {
	n := &Atom{name: A.name, symbol: A.symbol, index: A.index, ghost: A.ghost, element: A.element}
	for _, b := range A.bonds {
		if b.Symbolic() {
			n.bonds = append(n.bonds, b)
		}
	}
	for k, v := range A.flags {
		n.SetFlag(k, v)
	}
	return n
}

func (A *Atom) String() string {
	var b strings.Builder
	b.WriteString(A.FullName())
	if A.ghost {
		b.WriteString(" (ghost)")
	}
	return b.String()
}
