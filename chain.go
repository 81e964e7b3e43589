/*
 * chain.go, part of gotraj.
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

import "fmt"

// chainTermini describes how the ends of a chain are resolved.
type chainTermini struct {
	firstFlag, lastFlag string
	fail                func(c CError) error
}

var (
	peptideTermini = chainTermini{"nter_connected", "cter_connected", func(c CError) error { return &InvalidPeptideChainError{c} }}
	nucleicTermini = chainTermini{"ter5_connected", "ter3_connected", func(c CError) error { return &InvalidNucleotideChainError{c} }}
)

type link struct {
	holder *Atom
	marker string
	to     *Atom
}

// assemble resolves the symbolic bonds of the units. Every boundary atom is located
// before anything is modified, so a failed assembly leaves the units untouched.
func (T chainTermini) assemble(units []*monomer, caller string) error {
	if len(units) == 0 {
		return T.fail(newCError(caller, nil, "empty chain"))
	}
	var links []link
	first, last := units[0], units[len(units)-1]
	for _, u := range units {
		if u == nil {
			return T.fail(newCError(caller, nil, "nil unit in chain"))
		}
	}
	term, holder := first.flagged(T.firstFlag), first.holding(PrevMarker)
	if term == nil || holder == nil {
		return T.fail(newCError(caller, nil, "first unit %s (%s) has no %s atom bound to a %s atom", first.name, first.code, T.firstFlag, PrevMarker))
	}
	links = append(links, link{holder, PrevMarker, term})
	term, holder = last.flagged(T.lastFlag), last.holding(NextMarker)
	if term == nil || holder == nil {
		return T.fail(newCError(caller, nil, "last unit %s (%s) has no %s atom bound to a %s atom", last.name, last.code, T.lastFlag, NextMarker))
	}
	links = append(links, link{holder, NextMarker, term})
	for i := 0; i < len(units)-1; i++ {
		next, prev := units[i].holding(NextMarker), units[i+1].holding(PrevMarker)
		if next == nil || prev == nil {
			return T.fail(newCError(caller, nil, "units %s and %s can't be linked", units[i].name, units[i+1].name))
		}
		links = append(links, link{next, NextMarker, prev}, link{prev, PrevMarker, next})
	}
	for _, l := range links {
		l.holder.replaceMarker(l.marker, l.to)
	}
	return nil
}

// PeptideChain is a chain of residues. The first residue must carry the N-terminal variant,
// and the last one the C-terminal variant.
type PeptideChain struct {
	name     string
	residues []*Residue
	parent   Entity
}

// NewPeptideChain assembles residues into a chain. The residues must not have a parent.
func NewPeptideChain(name string, residues []*Residue) (*PeptideChain, error) {
	units := make([]*monomer, len(residues))
	for i, r := range residues {
		if r == nil || r.parent != nil {
			return nil, &InvalidPeptideChainError{newCError("NewPeptideChain", nil, "residue %d is nil or already has a parent", i)}
		}
		units[i] = &r.monomer
	}
	if err := peptideTermini.assemble(units, "NewPeptideChain"); err != nil {
		return nil, err
	}
	C := &PeptideChain{name: name, residues: append([]*Residue(nil), residues...)}
	for _, r := range C.residues {
		r.parent = C
	}
	return C, nil
}

func (C *PeptideChain) Name() string { return C.name }
func (C *PeptideChain) FullName() string { return fullName(C) }
func (C *PeptideChain) Kind() EntityKind { return KindPeptideChain }
func (C *PeptideChain) Parent() Entity { return C.parent }
func (C *PeptideChain) setParent(p Entity) { C.parent = p }
func (C *PeptideChain) Residues() []*Residue { return C.residues }
func (C *PeptideChain) Copy() Entity { return copyEntity(C) }

func (C *PeptideChain) Children() []Entity {
	ret := make([]Entity, len(C.residues))
	for i, r := range C.residues {
		ret[i] = r
	}
	return ret
}

func (C *PeptideChain) AtomList() []*Atom { return collectAtoms(C.Children(), false) }
func (C *PeptideChain) allAtoms() []*Atom { return collectAtoms(C.Children(), true) }
func (C *PeptideChain) NumberOfAtoms() int { return len(C.AtomList()) }
func (C *PeptideChain) TotalNumberOfAtoms() int { return len(C.allAtoms()) }

func (C *PeptideChain) clone(m map[*Atom]*Atom) Entity {
	n := &PeptideChain{name: C.name, residues: make([]*Residue, len(C.residues))}
	for i, r := range C.residues {
		n.residues[i] = r.clone(m).(*Residue)
		n.residues[i].parent = n
	}
	return n
}

func (C *PeptideChain) String() string {
	return fmt.Sprintf("PeptideChain %s (%d residues)", C.name, len(C.residues))
}

// NucleotideChain is a chain of nucleotides, going from the 5' end to the 3' end.
type NucleotideChain struct {
	name        string
	nucleotides []*Nucleotide
	parent      Entity
}

// NewNucleotideChain assembles nucleotides into a chain. The first one must carry
// the 5T variant and the last one the 3T variant.
func NewNucleotideChain(name string, nucleotides []*Nucleotide) (*NucleotideChain, error) {
	units := make([]*monomer, len(nucleotides))
	for i, n := range nucleotides {
		if n == nil || n.parent != nil {
			return nil, &InvalidNucleotideChainError{newCError("NewNucleotideChain", nil, "nucleotide %d is nil or already has a parent", i)}
		}
		units[i] = &n.monomer
	}
	if err := nucleicTermini.assemble(units, "NewNucleotideChain"); err != nil {
		return nil, err
	}
	C := &NucleotideChain{name: name, nucleotides: append([]*Nucleotide(nil), nucleotides...)}
	for _, n := range C.nucleotides {
		n.parent = C
	}
	return C, nil
}

func (C *NucleotideChain) Name() string { return C.name }
func (C *NucleotideChain) FullName() string { return fullName(C) }
func (C *NucleotideChain) Kind() EntityKind { return KindNucleotideChain }
func (C *NucleotideChain) Parent() Entity { return C.parent }
func (C *NucleotideChain) setParent(p Entity) { C.parent = p }
func (C *NucleotideChain) Nucleotides() []*Nucleotide { return C.nucleotides }
func (C *NucleotideChain) Copy() Entity { return copyEntity(C) }

func (C *NucleotideChain) Children() []Entity {
	ret := make([]Entity, len(C.nucleotides))
	for i, n := range C.nucleotides {
		ret[i] = n
	}
	return ret
}

func (C *NucleotideChain) AtomList() []*Atom { return collectAtoms(C.Children(), false) }
func (C *NucleotideChain) allAtoms() []*Atom { return collectAtoms(C.Children(), true) }
func (C *NucleotideChain) NumberOfAtoms() int { return len(C.AtomList()) }
func (C *NucleotideChain) TotalNumberOfAtoms() int { return len(C.allAtoms()) }

func (C *NucleotideChain) clone(m map[*Atom]*Atom) Entity {
	n := &NucleotideChain{name: C.name, nucleotides: make([]*Nucleotide, len(C.nucleotides))}
	for i, u := range C.nucleotides {
		n.nucleotides[i] = u.clone(m).(*Nucleotide)
		n.nucleotides[i].parent = n
	}
	return n
}

func (C *NucleotideChain) String() string {
	return fmt.Sprintf("NucleotideChain %s (%d nucleotides)", C.name, len(C.nucleotides))
}

// Protein is a set of peptide chains.
type Protein struct {
	name   string
	chains []*PeptideChain
	parent Entity
}

// NewProtein groups the chains, which must not have a parent, into a protein.
func NewProtein(name string, chains []*PeptideChain) (*Protein, error) {
	for i, c := range chains {
		if c == nil || c.parent != nil {
			return nil, &InvalidChemicalEntityError{newCError("NewProtein", nil, "chain %d is nil or already has a parent", i)}
		}
	}
	P := &Protein{name: name, chains: append([]*PeptideChain(nil), chains...)}
	for _, c := range P.chains {
		c.parent = P
	}
	return P, nil
}

func (P *Protein) Name() string { return P.name }
func (P *Protein) FullName() string { return fullName(P) }
func (P *Protein) Kind() EntityKind { return KindProtein }
func (P *Protein) Parent() Entity { return P.parent }
func (P *Protein) setParent(p Entity) { P.parent = p }
func (P *Protein) PeptideChains() []*PeptideChain { return P.chains }
func (P *Protein) Copy() Entity { return copyEntity(P) }

func (P *Protein) Children() []Entity {
	ret := make([]Entity, len(P.chains))
	for i, c := range P.chains {
		ret[i] = c
	}
	return ret
}

func (P *Protein) AtomList() []*Atom { return collectAtoms(P.Children(), false) }
func (P *Protein) allAtoms() []*Atom { return collectAtoms(P.Children(), true) }
func (P *Protein) NumberOfAtoms() int { return len(P.AtomList()) }
func (P *Protein) TotalNumberOfAtoms() int { return len(P.allAtoms()) }

func (P *Protein) clone(m map[*Atom]*Atom) Entity {
	n := &Protein{name: P.name, chains: make([]*PeptideChain, len(P.chains))}
	for i, c := range P.chains {
		n.chains[i] = c.clone(m).(*PeptideChain)
		n.chains[i].parent = n
	}
	return n
}

func (P *Protein) String() string {
	return fmt.Sprintf("Protein %s (%d chains)", P.name, len(P.chains))
}

// collectAtoms concatenates the atoms of the children, ghosts included only if ghosts is true.
func collectAtoms(children []Entity, ghosts bool) []*Atom {
	var ret []*Atom
	for _, c := range children {
		if ghosts {
			ret = append(ret, c.allAtoms()...)
		} else {
			ret = append(ret, c.AtomList()...)
		}
	}
	return ret
}
