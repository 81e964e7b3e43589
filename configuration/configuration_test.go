/*
 * configuration_test.go, part of gotraj.
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

package configuration

import (
	"math/rand"
	"testing"

	chem "github.com/rmera/gotraj"
	v3 "github.com/rmera/gotraj/v3"
	"github.com/stretchr/testify/require"
)

func argonSystem(Te *testing.T, n int) *chem.ChemicalSystem {
	S := chem.NewChemicalSystem("argon")
	for i := 0; i < n; i++ {
		a, err := chem.NewAtom("Ar", "")
		require.NoError(Te, err)
		require.NoError(Te, S.AddEntity(a))
	}
	return S
}

func coords(Te *testing.T, data ...float64) *v3.Matrix {
	m, err := v3.NewMatrix(data)
	require.NoError(Te, err)
	return m
}

func TestUnitCell(Te *testing.T) {
	_, err := NewUnitCell([9]float64{1, 0, 0, 2, 0, 0, 0, 0, 1})
	var cerr *ConfigurationError
	require.ErrorAs(Te, err, &cerr)
	o, err := Orthorhombic(2, 3, 4)
	require.NoError(Te, err)
	require.InDelta(Te, 24.0, o.Volume(), 1e-12)
	require.Equal(Te, [3]float64{0, 3, 0}, o.Vector(1))
	require.InDelta(Te, 0.25, o.Inverse().At(2, 2), 1e-14)
	t, err := FromParameters(1.2, 1.5, 1.9, 80, 95, 110)
	require.NoError(Te, err)
	l := t.Lengths()
	require.InDeltaSlice(Te, []float64{1.2, 1.5, 1.9}, l[:], 1e-12)
	x := [3]float64{0.3, -2.1, 7.7}
	back := t.ToReal(t.ToFrac(x))
	require.InDeltaSlice(Te, x[:], back[:], 1e-12)
	require.True(Te, t.Equal(t, 0))
}

func randomConfiguration(Te *testing.T, n int, cell *UnitCell) *RealConfiguration {
	r := rand.New(rand.NewSource(42))
	data := make([]float64, 3*n)
	for i := range data {
		data[i] = r.Float64()*20 - 10
	}
	R, err := NewRealConfiguration(argonSystem(Te, n), coords(Te, data...), cell)
	require.NoError(Te, err)
	return R
}

func TestFoldIdempotent(Te *testing.T) {
	cell, err := FromParameters(2, 2.5, 3, 70, 100, 95)
	require.NoError(Te, err)
	R := randomConfiguration(Te, 50, cell)
	R.FoldCoordinates()
	once := R.Coordinates().Clone()
	R.FoldCoordinates()
	for i := 0; i < once.NVecs(); i++ {
		a, b := once.Vec(i), R.Coordinates().Vec(i)
		require.InDeltaSlice(Te, a[:], b[:], 1e-9)
		f := cell.ToFrac(a)
		for _, c := range f {
			require.True(Te, c >= -1e-9 && c < 1+1e-9, "%v", f)
		}
	}
	//aperiodic: nothing happens
	A := randomConfiguration(Te, 5, nil)
	before := A.Coordinates().Clone()
	A.FoldCoordinates()
	require.Equal(Te, before.RawMatrix().Data, A.Coordinates().RawMatrix().Data)
	_, err = A.BoxCoordinates()
	require.Error(Te, err)
}

func TestBoxRealRoundTrip(Te *testing.T) {
	cell, err := FromParameters(3, 3.5, 4, 90, 110, 90)
	require.NoError(Te, err)
	R := randomConfiguration(Te, 20, cell)
	vel := v3.Zeros(20)
	vel.Set(3, 1, 2.5)
	require.NoError(Te, R.SetVariable(Velocities, vel))
	B, err := R.ToBox()
	require.NoError(Te, err)
	back := B.ToReal()
	for i := 0; i < 20; i++ {
		a, b := R.Coordinates().Vec(i), back.Coordinates().Vec(i)
		require.InDeltaSlice(Te, a[:], b[:], 1e-10*10)
	}
	v, ok := back.Variable(Velocities)
	require.True(Te, ok)
	require.Equal(Te, 2.5, v.At(3, 1))
	require.Equal(Te, []string{Velocities}, B.Variables())
	require.Error(Te, R.SetVariable(Gradients, v3.Zeros(3)))

	_, err = NewBoxConfiguration(R.System(), nil, nil)
	var cerr *ConfigurationError
	require.ErrorAs(Te, err, &cerr)
	_, err = NewRealConfiguration(R.System(), v3.Zeros(3), nil)
	require.ErrorAs(Te, err, &cerr)
}

func TestAtomsInShell(Te *testing.T) {
	cell, err := Orthorhombic(4, 4, 4)
	require.NoError(Te, err)
	R, err := NewRealConfiguration(argonSystem(Te, 3), coords(Te, 0.1, 0, 0, 3.9, 0, 0, 2, 0, 0), cell)
	require.NoError(Te, err)
	got, err := AtomsInShell(R, 0, 0, 0.5)
	require.NoError(Te, err)
	require.Equal(Te, []int{1}, got)
	got, _ = AtomsInShell(R, 0, 0.1, 2.5)
	require.Equal(Te, []int{1, 2}, got)
	got, _ = AtomsInShell(R, 0, 0.5, 3)
	require.Equal(Te, []int{2}, got)
	exact, _ := Orthorhombic(8, 8, 8)
	E, err := NewRealConfiguration(R.System(), coords(Te, 0, 0, 0, 1, 0, 0, 0, 2, 0), exact)
	require.NoError(Te, err)
	got, _ = AtomsInShell(E, 0, 1, 2) //rmin is included, rmax is not
	require.Equal(Te, []int{1}, got)
	_, err = AtomsInShell(R, 3, 0, 1)
	require.Error(Te, err)

	//Without cell the image is not used.
	A, _ := NewRealConfiguration(R.System(), R.Coordinates().Clone(), nil)
	got, _ = AtomsInShell(A, 0, 0, 0.5)
	require.Empty(Te, got)
}

func waterSystem(Te *testing.T) *chem.ChemicalSystem {
	S := chem.NewChemicalSystem("water")
	w, err := chem.NewMolecule("WAT", "w")
	require.NoError(Te, err)
	na, _ := chem.NewAtom("Na", "")
	cl, _ := chem.NewAtom("Cl", "")
	ions, err := chem.NewAtomCluster("ions", []*chem.Atom{na, cl})
	require.NoError(Te, err)
	require.NoError(Te, S.AddEntities(w, ions))
	return S
}

func TestContiguous(Te *testing.T) {
	S := waterSystem(Te)
	cell, _ := Orthorhombic(1, 1, 1)
	R, err := NewRealConfiguration(S, coords(Te,
		0.05, 0.5, 0.5,
		0.95, 0.5, 0.5,
		0.05, 0.58, 0.5,
		0.1, 0.1, 0.1,
		0.1, 0.1, 0.9), cell)
	require.NoError(Te, err)
	off, err := ContiguousOffsets(R, nil)
	require.NoError(Te, err)
	require.Equal(Te, [][3]int{{0, 0, 0}, {-1, 0, 0}, {0, 0, 0}, {0, 0, 0}, {0, 0, -1}}, off)
	C, err := ContiguousConfiguration(R)
	require.NoError(Te, err)
	require.InDelta(Te, -0.05, C.Coordinates().At(1, 0), 1e-12)
	require.InDelta(Te, -0.1, C.Coordinates().At(4, 2), 1e-12)
	require.InDelta(Te, 0.95, R.Coordinates().At(1, 0), 1e-12) //the original is untouched

	//The ions are not bonded, so the continuous version leaves them alone.
	off, err = ContinuousOffsets(R)
	require.NoError(Te, err)
	require.Equal(Te, [3]int{-1, 0, 0}, off[1])
	require.Equal(Te, [3]int{0, 0, 0}, off[4])

	B, err := R.ToBox()
	require.NoError(Te, err)
	CB, err := ContinuousConfiguration(B)
	require.NoError(Te, err)
	_, isBox := CB.(*BoxConfiguration)
	require.True(Te, isBox)
	require.InDelta(Te, -0.05, CB.Coordinates().At(1, 0), 1e-12)

	A, _ := NewRealConfiguration(S, R.Coordinates().Clone(), nil)
	off, _ = ContiguousOffsets(A, nil)
	require.Equal(Te, make([][3]int, 5), off)
}

func TestConnectivity(Te *testing.T) {
	S := chem.NewChemicalSystem("free")
	var atoms []*chem.Atom
	for _, s := range []string{"O", "H", "H", "O", "H", "H"} {
		a, err := chem.NewAtom(s, "")
		require.NoError(Te, err)
		atoms = append(atoms, a)
	}
	cl, err := chem.NewAtomCluster("all", atoms)
	require.NoError(Te, err)
	require.NoError(Te, S.AddEntity(cl))
	cell, _ := Orthorhombic(2, 2, 2)
	R, err := NewRealConfiguration(S, coords(Te,
		0, 0, 0,
		0.0957, 0, 0,
		-0.024, 0.0927, 0,
		1, 1, 1,
		1.0957, 1, 1,
		1, 1, 0.9043+0.0), cell)
	require.NoError(Te, err)
	require.Equal(Te, [][2]int{{0, 1}, {0, 2}, {3, 4}, {3, 5}}, DetectBonds(R, DefaultBondTolerance))
	n, err := BuildConnectivity([]Configuration{R, R}, DefaultBondTolerance)
	require.NoError(Te, err)
	require.Equal(Te, 4, n)
	require.Equal(Te, [][]int{{0, 1, 2}, {3, 4, 5}}, MoleculesFromBonds(S))

	//across the boundary
	R.Coordinates().Set(1, 0, 1.97)
	R.Coordinates().Set(0, 0, 0.03)
	require.Contains(Te, DetectBonds(R, DefaultBondTolerance), [2]int{0, 1})
}
