/*
 * chem_test.go, part of gotraj.
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
	"errors"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestElements(Te *testing.T) {
	e, err := Elements.Get("CL")
	require.NoError(Te, err)
	require.Equal(Te, "Cl", e.Symbol)
	require.Equal(Te, 17, e.AtomicNumber)
	_, err = Elements.Get("Qq")
	var uerr *UnknownAtomError
	require.True(Te, errors.As(err, &uerr))
	m, err := Elements.MatchNumericProperty("atomic_weight", 1.0, 0.1)
	require.NoError(Te, err)
	require.Equal(Te, []string{"H"}, m)
	_, err = Elements.MatchNumericProperty("colour", 1, 1)
	require.Error(Te, err)
}

func TestNewAtom(Te *testing.T) {
	a, err := NewAtom("c", "")
	require.NoError(Te, err)
	require.Equal(Te, "C", a.Name())
	require.Equal(Te, -1, a.Index())
	_, err = NewAtom("Xx", "X1")
	var uerr *UnknownAtomError
	require.ErrorAs(Te, err, &uerr)
	require.Equal(Te, "UnknownAtomError", uerr.Kind())
}

func water(Te *testing.T, name string) *Molecule {
	w, err := NewMolecule("WAT", name)
	require.NoError(Te, err)
	return w
}

func peptide(Te *testing.T, name string) *PeptideChain {
	r1, err := NewResidue("GLY", "GLY1", "NT")
	require.NoError(Te, err)
	r2, err := NewResidue("ALA", "ALA2", "")
	require.NoError(Te, err)
	r3, err := NewResidue("SER", "SER3", "CT")
	require.NoError(Te, err)
	c, err := NewPeptideChain(name, []*Residue{r1, r2, r3})
	require.NoError(Te, err)
	return c
}

func TestAddEntity(Te *testing.T) {
	S := NewChemicalSystem("test")
	h, err := NewAtom("H", "H1")
	require.NoError(Te, err)
	g, err := NewGhostAtom("C", "X")
	require.NoError(Te, err)
	na, err := NewAtom("Na", "NA")
	require.NoError(Te, err)
	cl, err := NewAtomCluster("ions", []*Atom{na, g})
	require.NoError(Te, err)
	require.NoError(Te, S.AddEntities(water(Te, "w1"), h, cl, water(Te, "w2")))
	require.Equal(Te, 8, S.NumberOfAtoms())
	require.Equal(Te, 9, S.TotalNumberOfAtoms())
	require.Equal(Te, -1, g.Index())
	for i, a := range S.AtomList() {
		require.Equal(Te, i, a.Index())
		require.Same(Te, a, S.Atom(a.Index()))
	}
	require.Equal(Te, "ions.NA", na.FullName())
	require.Equal(Te, "w2.OW", S.Atom(5).FullName())
	require.Same(Te, S, TopLevel(na).Parent())

	//Rejected entities leave the system untouched.
	var ierr *InvalidChemicalEntityError
	require.ErrorAs(Te, S.AddEntity(h), &ierr)
	require.ErrorAs(Te, S.AddEntity(nil), &ierr)
	require.ErrorAs(Te, S.AddEntity(NewChemicalSystem("other")), &ierr)
	require.ErrorAs(Te, S.AddEntity(cl.Copy()), &ierr) //copies keep their indexes
	require.Equal(Te, 8, S.NumberOfAtoms())
	require.Len(Te, S.Entities(), 4)
}

type fakeConf struct{ S *ChemicalSystem }

func (f fakeConf) System() *ChemicalSystem { return f.S }

func TestSetConfiguration(Te *testing.T) {
	S := NewChemicalSystem("a")
	require.NoError(Te, S.AddEntity(water(Te, "w")))
	require.NoError(Te, S.SetConfiguration(fakeConf{S}))
	require.NotNil(Te, S.Configuration())
	var cerr *InconsistentChemicalSystemError
	require.ErrorAs(Te, S.SetConfiguration(fakeConf{NewChemicalSystem("b")}), &cerr)
	require.NoError(Te, S.AddEntity(water(Te, "w2")))
	require.Nil(Te, S.Configuration())
}

func TestDatabaseErrors(Te *testing.T) {
	_, err := NewResidue("XYZ", "", "")
	var rerr *UnknownResidueError
	require.ErrorAs(Te, err, &rerr)
	_, err = NewNucleotide("ZZ", "", "")
	require.ErrorAs(Te, err, &rerr)
	_, err = NewMolecule("NOPE", "")
	var merr *UnknownMoleculeError
	require.ErrorAs(Te, err, &merr)
	_, err = NewResidue("GLY", "", "5T")
	var verr *InvalidVariantError
	require.ErrorAs(Te, err, &verr)
	require.Equal(Te, "5T", verr.Variant)
	names, err := Residues.AtomNames("GLY", "NT")
	require.NoError(Te, err)
	require.Equal(Te, []string{"N", "CA", "C", "O", "HA2", "HA3", "H1", "H2", "H3"}, names)
	require.Contains(Te, Nucleotides.Codes(), "DT")
}

func TestPeptideChain(Te *testing.T) {
	c := peptide(Te, "A")
	require.Equal(Te, 9+10+12, c.NumberOfAtoms())
	r := c.Residues()
	n1, h1 := r[0].AtomByName("N"), r[0].AtomByName("H1")
	require.True(Te, n1.BondedTo(h1))
	require.False(Te, n1.HasMarker(PrevMarker))
	require.True(Te, r[0].AtomByName("C").BondedTo(r[1].AtomByName("N")))
	require.True(Te, r[1].AtomByName("C").BondedTo(r[2].AtomByName("N")))
	require.True(Te, r[2].AtomByName("C").BondedTo(r[2].AtomByName("OXT")))
	for _, a := range c.AtomList() {
		require.False(Te, a.HasMarker(PrevMarker) || a.HasMarker(NextMarker), a.FullName())
	}
	require.Equal(Te, "A.ALA2.CB", r[1].AtomByName("CB").FullName())

	//No N-terminal variant, the residues must stay as they were.
	g, _ := NewResidue("GLY", "", "")
	v, _ := NewResidue("VAL", "", "CT")
	_, err := NewPeptideChain("B", []*Residue{g, v})
	var perr *InvalidPeptideChainError
	require.ErrorAs(Te, err, &perr)
	require.True(Te, g.AtomByName("C").HasMarker(NextMarker))
	require.True(Te, v.AtomByName("N").HasMarker(PrevMarker))
	require.Nil(Te, g.Parent())
}

func TestNucleotideChain(Te *testing.T) {
	n1, err := NewNucleotide("DC", "DC1", "5T")
	require.NoError(Te, err)
	require.Nil(Te, n1.AtomByName("P"))
	n2, err := NewNucleotide("DT", "DT2", "3T")
	require.NoError(Te, err)
	c, err := NewNucleotideChain("D", []*Nucleotide{n1, n2})
	require.NoError(Te, err)
	require.True(Te, n1.AtomByName("O5'").BondedTo(n1.AtomByName("H5T")))
	require.True(Te, n1.AtomByName("O3'").BondedTo(n2.AtomByName("P")))
	require.True(Te, n2.AtomByName("O3'").BondedTo(n2.AtomByName("H3T")))
	require.Equal(Te, KindNucleotideChain, c.Kind())

	m1, _ := NewNucleotide("DC", "", "")
	m2, _ := NewNucleotide("DT", "", "3T")
	_, err = NewNucleotideChain("E", []*Nucleotide{m1, m2})
	var nerr *InvalidNucleotideChainError
	require.ErrorAs(Te, err, &nerr)
}

func TestReorderAtoms(Te *testing.T) {
	w := water(Te, "w")
	require.NoError(Te, w.ReorderAtoms([]string{"HW1", "OW", "HW2"}))
	require.Equal(Te, []string{"HW1", "OW", "HW2"}, w.Names())
	var nerr *InconsistentAtomNamesError
	require.ErrorAs(Te, w.ReorderAtoms([]string{"HW1", "OW"}), &nerr)
	require.ErrorAs(Te, w.ReorderAtoms([]string{"HW1", "OW", "OW"}), &nerr)
	require.ErrorAs(Te, w.ReorderAtoms([]string{"HW1", "OW", "H3"}), &nerr)
	S := NewChemicalSystem("s")
	require.NoError(Te, S.AddEntity(w))
	require.ErrorAs(Te, w.ReorderAtoms([]string{"OW", "HW1", "HW2"}), &nerr)
}

func protein(Te *testing.T) *ChemicalSystem {
	p, err := NewProtein("prot", []*PeptideChain{peptide(Te, "A"), peptide(Te, "B")})
	require.NoError(Te, err)
	S := NewChemicalSystem("protein")
	require.NoError(Te, S.AddEntities(p, water(Te, "w")))
	return S
}

func TestCopy(Te *testing.T) {
	S := protein(Te)
	C := S.CopySystem()
	require.Equal(Te, S.NumberOfAtoms(), C.NumberOfAtoms())
	require.Equal(Te, S.Bonds(), C.Bonds())
	for i, a := range C.AtomList() {
		orig := S.Atom(i)
		require.Equal(Te, i, a.Index())
		require.NotSame(Te, orig, a)
		require.Equal(Te, orig.FullName(), a.FullName())
		require.NotSame(Te, orig.Parent(), a.Parent())
	}
	require.Same(Te, C, C.Entities()[0].Parent())

	//copying a sub-entity drops the bonds to the outside.
	r := S.Entities()[0].(*Protein).PeptideChains()[0].Residues()[1].Copy().(*Residue)
	require.Nil(Te, r.Parent())
	require.Len(Te, r.AtomByName("N").Bonds(), 2)
	require.Equal(Te, S.Atom(9).Index(), r.Atom(0).Index())
}

func TestSerialize(Te *testing.T) {
	S := protein(Te)
	g, _ := NewGhostAtom("C", "G")
	na, _ := NewAtom("Na", "")
	cl, _ := NewAtomCluster("ions", []*Atom{g, na})
	require.NoError(Te, S.AddEntity(cl))
	st := S.Serialize()
	require.Len(Te, st.Contents, 3)
	require.Len(Te, st.PeptideChains, 2)
	require.Equal(Te, []EntityKind{KindAtomCluster, KindMolecule, KindProtein}, st.Kinds())

	path := filepath.Join(Te.TempDir(), "system.json")
	require.NoError(Te, S.WriteFile(path))
	R, err := ReadFile(path)
	require.NoError(Te, err)
	require.Equal(Te, S.NumberOfAtoms(), R.NumberOfAtoms())
	require.Equal(Te, S.TotalNumberOfAtoms(), R.TotalNumberOfAtoms())
	require.Equal(Te, S.Bonds(), R.Bonds())
	for i := 0; i < S.Len(); i++ {
		assert.Equal(Te, S.Atom(i).FullName(), R.Atom(i).FullName())
		assert.Equal(Te, S.Atom(i).Symbol(), R.Atom(i).Symbol())
	}
	res := R.Entities()[0].(*Protein).PeptideChains()[1].Residues()[2]
	require.Equal(Te, "CT", res.Variant())
	require.True(Te, res.AtomByName("OXT").Flag("cter_connected"))

	//broken stores are rejected
	st.Contents = st.Contents[1:]
	_, err = st.Build()
	var cerr *InconsistentChemicalSystemError
	require.ErrorAs(Te, err, &cerr)
}

func TestSubstructure(Te *testing.T) {
	S := protein(Te)
	hs, err := S.SubstructureMatches([]string{"[#1]"})
	require.NoError(Te, err)
	for _, i := range hs {
		require.Equal(Te, "H", S.Atom(i).Symbol())
	}
	water, err := S.SubstructureMatches([]string{"O([H])[H]"})
	require.NoError(Te, err)
	//the water and the serine hydroxyls have no second H, so only the water matches.
	require.Len(Te, water, 3)
	require.Equal(Te, "w", TopLevel(S.Atom(water[0])).Name())
	amide, err := S.SubstructureMatches([]string{"C(=O)N"})
	require.NoError(Te, err)
	//2 peptide bonds per chain, C O N each.
	require.Len(Te, amide, 12)
	sg, err := S.SubstructureMatches([]string{"[S,O;!#8]"})
	require.NoError(Te, err)
	require.Empty(Te, sg)
	_, err = S.SubstructureMatches([]string{"C(O"})
	var perr *PatternError
	require.ErrorAs(Te, err, &perr)
	_, err = S.SubstructureMatches([]string{"[Qq]"})
	require.ErrorAs(Te, err, &perr)
}
