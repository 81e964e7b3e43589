/*
 * molecule.go, part of gotraj.
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

// Molecule is a small molecule built from the molecule database.
type Molecule struct {
	atomGroup
	code string
}

// NewMolecule returns a new molecule of type code (e.g. WAT) named name.
// If name is empty, the code is used.
func NewMolecule(code, name string) (*Molecule, error) {
	atoms, err := Molecules.buildAtoms(code, "")
	if err != nil {
		return nil, errDecorate(err, "NewMolecule")
	}
	if name == "" {
		name = code
	}
	M := &Molecule{atomGroup{name: name, atoms: atoms}, code}
	M.adopt(M)
	return M, nil
}

func (M *Molecule) Code() string { return M.code }
func (M *Molecule) Kind() EntityKind { return KindMolecule }
func (M *Molecule) FullName() string { return fullName(M) }
func (M *Molecule) Copy() Entity { return copyEntity(M) }

func (M *Molecule) clone(m map[*Atom]*Atom) Entity {
	n := &Molecule{atomGroup{name: M.name}, M.code}
	n.atoms = M.cloneAtoms(m, n)
	return n
}

// ReorderAtoms sets the order of the atoms of the molecule. names must contain
// exactly the names of the molecule definition.
func (M *Molecule) ReorderAtoms(names []string) error {
	return errDecorate(M.reorder(names, "Molecule.ReorderAtoms"), "")
}

func (M *Molecule) String() string {
	return fmt.Sprintf("Molecule %s (%s, %d atoms)", M.name, M.code, len(M.atoms))
}

// monomer is a chain unit: a residue or a nucleotide.
type monomer struct {
	atomGroup
	code    string
	variant string
}

func newMonomer(db *Database, code, name, variant string) (monomer, error) {
	atoms, err := db.buildAtoms(code, variant)
	if err != nil {
		return monomer{}, err
	}
	if name == "" {
		name = code
	}
	return monomer{atomGroup{name: name, atoms: atoms}, code, variant}, nil
}

// Code returns the database code of the unit.
func (U *monomer) Code() string { return U.code }

// Variant returns the terminus variant of the unit, or an empty string.
func (U *monomer) Variant() string { return U.variant }

// flagged returns the first atom with the database flag f set.
func (U *monomer) flagged(f string) *Atom {
	for _, a := range U.atoms {
		if a.Flag(f) {
			return a
		}
	}
	return nil
}

// holding returns the first atom with the symbolic bond marker.
func (U *monomer) holding(marker string) *Atom {
	for _, a := range U.atoms {
		if a.HasMarker(marker) {
			return a
		}
	}
	return nil
}

func (U *monomer) cloneMonomer(m map[*Atom]*Atom, owner Entity) monomer {
	n := monomer{atomGroup{name: U.name}, U.code, U.variant}
	n.atoms = U.cloneAtoms(m, owner)
	return n
}

// Residue is an amino acid residue.
type Residue struct {
	monomer
}

// NewResidue builds the residue code from the residue database, with the terminus
// variant (NT, CT) applied if not empty.
func NewResidue(code, name, variant string) (*Residue, error) {
	u, err := newMonomer(Residues, code, name, variant)
	if err != nil {
		return nil, errDecorate(err, "NewResidue")
	}
	R := &Residue{u}
	R.adopt(R)
	return R, nil
}

func (R *Residue) Kind() EntityKind { return KindResidue }
func (R *Residue) FullName() string { return fullName(R) }
func (R *Residue) Copy() Entity { return copyEntity(R) }

func (R *Residue) clone(m map[*Atom]*Atom) Entity {
	n := &Residue{}
	n.monomer = R.cloneMonomer(m, n)
	return n
}

// ReorderAtoms sets the order of the atoms of the residue.
func (R *Residue) ReorderAtoms(names []string) error {
	return errDecorate(R.reorder(names, "Residue.ReorderAtoms"), "")
}

func (R *Residue) String() string {
	return fmt.Sprintf("Residue %s (%s%s)", R.name, R.code, variantSuffix(R.variant))
}

// Nucleotide is a nucleic acid unit.
type Nucleotide struct {
	monomer
}

// NewNucleotide builds the nucleotide code from the nucleotide database, with the
// terminus variant (5T, 3T) applied if not empty.
func NewNucleotide(code, name, variant string) (*Nucleotide, error) {
	u, err := newMonomer(Nucleotides, code, name, variant)
	if err != nil {
		return nil, errDecorate(err, "NewNucleotide")
	}
	N := &Nucleotide{u}
	N.adopt(N)
	return N, nil
}

func (N *Nucleotide) Kind() EntityKind { return KindNucleotide }
func (N *Nucleotide) FullName() string { return fullName(N) }
func (N *Nucleotide) Copy() Entity { return copyEntity(N) }

func (N *Nucleotide) clone(m map[*Atom]*Atom) Entity {
	n := &Nucleotide{}
	n.monomer = N.cloneMonomer(m, n)
	return n
}

// ReorderAtoms sets the order of the atoms of the nucleotide.
func (N *Nucleotide) ReorderAtoms(names []string) error {
	return errDecorate(N.reorder(names, "Nucleotide.ReorderAtoms"), "")
}

func (N *Nucleotide) String() string {
	return fmt.Sprintf("Nucleotide %s (%s%s)", N.name, N.code, variantSuffix(N.variant))
}

func variantSuffix(v string) string {
	if v == "" {
		return ""
	}
	return ", " + v
}
