/*
 * traj_test.go, part of gotraj.
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

package traj

import (
	"math"
	"path/filepath"
	"testing"

	chem "github.com/rmera/gotraj"
	"github.com/rmera/gotraj/configuration"
	v3 "github.com/rmera/gotraj/v3"
	"github.com/stretchr/testify/require"
)

func atomsSystem(Te *testing.T, symbols ...string) *chem.ChemicalSystem {
	S := chem.NewChemicalSystem("test")
	for _, s := range symbols {
		a, err := chem.NewAtom(s, "")
		require.NoError(Te, err)
		require.NoError(Te, S.AddEntity(a))
	}
	return S
}

func matrix(Te *testing.T, data ...float64) *v3.Matrix {
	m, err := v3.NewMatrix(data)
	require.NoError(Te, err)
	return m
}

// write creates a trajectory with a frame per call to gen.
func write(Te *testing.T, S *chem.ChemicalSystem, n int, opts *WriterOptions, gen func(t int) (*v3.Matrix, *configuration.UnitCell)) string {
	path := filepath.Join(Te.TempDir(), "traj.gtj")
	W, err := NewWriter(path, S, n, opts)
	require.NoError(Te, err)
	for t := 0; t < n; t++ {
		c, cell := gen(t)
		conf, err := configuration.NewRealConfiguration(S, c, cell)
		require.NoError(Te, err)
		require.NoError(Te, W.DumpConfiguration(conf, float64(t)*0.5))
	}
	require.NoError(Te, W.Close())
	return path
}

func TestStaticTrajectory(Te *testing.T) {
	S := atomsSystem(Te, "H")
	cell, err := configuration.Orthorhombic(1, 1, 1)
	require.NoError(Te, err)
	path := write(Te, S, 10, nil, func(int) (*v3.Matrix, *configuration.UnitCell) {
		return matrix(Te, 1, 0, 0), cell
	})
	T, err := Open(path)
	require.NoError(Te, err)
	defer T.Close()
	require.Equal(Te, 10, T.Len())
	c3, err := T.Configuration(3)
	require.NoError(Te, err)
	c7, err := T.Configuration(7)
	require.NoError(Te, err)
	require.Equal(Te, c3.Coordinates().RawMatrix().Data, c7.Coordinates().RawMatrix().Data)
	require.True(Te, c3.UnitCell().Equal(cell, 0))
	com, err := T.ReadCOMTrajectory([]int{0}, 0, 10, 1, false, nil)
	require.NoError(Te, err)
	raw, err := T.ReadConfigurationTrajectory(0, 0, 10, 1, "coordinates")
	require.NoError(Te, err)
	require.Equal(Te, raw.RawMatrix().Data, com.RawMatrix().Data)
	require.Equal(Te, 0.5, T.TimeStep())
	require.Equal(Te, "nm", T.Units("coordinates"))
	require.Equal(Te, S.NumberOfAtoms(), T.System().NumberOfAtoms())
	_, err = T.Configuration(10)
	var terr *TrajectoryError
	require.ErrorAs(Te, err, &terr)
	_, err = T.Configuration(-1)
	require.ErrorAs(Te, err, &terr)
}

func TestModulatedTrajectory(Te *testing.T) {
	S := atomsSystem(Te, "Ar", "Ar", "Ar")
	cell, _ := configuration.Orthorhombic(4, 4, 4)
	initial := []float64{1, 1, 1, 1, 2, 1, 1, 2, 1.9}
	path := write(Te, S, 100, &WriterOptions{Compression: Gzip}, func(t int) (*v3.Matrix, *configuration.UnitCell) {
		d := make([]float64, 9)
		for i, v := range initial {
			d[i] = v + 0.2*math.Sin(2*math.Pi*float64(t)/20)
		}
		return matrix(Te, d...), cell
	})
	T, err := Open(path)
	require.NoError(Te, err)
	defer T.Close()
	c0, _ := T.Coordinates(0)
	c2, _ := T.Coordinates(2)
	c20, _ := T.Coordinates(20)
	require.InDeltaSlice(Te, c0.RawMatrix().Data, c20.RawMatrix().Data, 1e-12)
	require.NotEqual(Te, c0.RawMatrix().Data, c2.RawMatrix().Data)
}

func TestUnwrapAperiodic(Te *testing.T) {
	S := atomsSystem(Te, "H", "H")
	path := write(Te, S, 5, nil, func(t int) (*v3.Matrix, *configuration.UnitCell) {
		if t == 0 {
			return matrix(Te, 0.1, 0, 0, 0.1, 0, 0), nil
		}
		return matrix(Te, 3.2, 0, 0, 3.2, 0, 0), nil
	})
	T, err := Open(path)
	require.NoError(Te, err)
	defer T.Close()
	u, err := T.ReadAtomicTrajectory(0, 0, 5, 1, false)
	require.NoError(Te, err)
	var x []float64
	for i := 0; i < u.NVecs(); i++ {
		x = append(x, u.At(i, 0))
	}
	require.Equal(Te, []float64{0.1, 3.2, 3.2, 3.2, 3.2}, x)
	_, err = T.ReadAtomicTrajectory(0, 0, 5, 1, true)
	require.Error(Te, err)
}

func TestUnwrapPeriodic(Te *testing.T) {
	S := atomsSystem(Te, "Ar")
	cell, err := configuration.FromParameters(1, 1.2, 1.1, 80, 100, 75)
	require.NoError(Te, err)
	step := [3]float64{0.33, -0.21, 0.17}
	path := write(Te, S, 30, nil, func(t int) (*v3.Matrix, *configuration.UnitCell) {
		x := [3]float64{0.5 + step[0]*float64(t), 0.5 + step[1]*float64(t), 0.5 + step[2]*float64(t)}
		conf, _ := configuration.NewRealConfiguration(S, matrix(Te, x[:]...), cell)
		conf.FoldCoordinates()
		return conf.Coordinates(), cell
	})
	T, err := Open(path)
	require.NoError(Te, err)
	defer T.Close()
	u, err := T.ReadAtomicTrajectory(0, 0, 30, 1, false)
	require.NoError(Te, err)
	for t := 1; t < u.NVecs(); t++ {
		d := v3.Sub3(u.Vec(t), u.Vec(t-1))
		require.InDeltaSlice(Te, step[:], d[:], 1e-9)
		//no lattice translation brings it closer to the previous position
		for _, k := range [][3]float64{{1, 0, 0}, {0, 1, 0}, {0, 0, 1}, {-1, 0, 0}, {0, -1, 0}, {0, 0, -1}, {1, 1, 0}, {1, -1, 1}} {
			shifted := v3.Add3(d, cell.ToReal(k))
			require.LessOrEqual(Te, v3.Norm3(d), v3.Norm3(shifted))
		}
	}
	b, err := T.ReadAtomicTrajectory(0, 0, 30, 1, true)
	require.NoError(Te, err)
	require.Equal(Te, 30, b.NVecs())
	for t := 0; t < b.NVecs(); t++ {
		r := cell.ToReal(b.Vec(t))
		exp := u.Vec(t)
		require.InDeltaSlice(Te, exp[:], r[:], 1e-9)
	}
	few, err := T.ReadAtomicTrajectory(0, 0, 30, 10, false)
	require.NoError(Te, err)
	require.Equal(Te, 3, few.NVecs())
}

func TestCOMAcrossBoundary(Te *testing.T) {
	S := chem.NewChemicalSystem("water")
	w, err := chem.NewMolecule("WAT", "w")
	require.NoError(Te, err)
	require.NoError(Te, S.AddEntity(w))
	cell, _ := configuration.Orthorhombic(1, 1, 1)
	path := write(Te, S, 4, nil, func(t int) (*v3.Matrix, *configuration.UnitCell) {
		dx := 0.3 * float64(t)
		conf, _ := configuration.NewRealConfiguration(S, matrix(Te, 0.9+dx, 0.5, 0.5, 1.02+dx, 0.5, 0.5, 0.9+dx, 0.59, 0.5), cell)
		conf.FoldCoordinates()
		return conf.Coordinates(), cell
	})
	T, err := Open(path)
	require.NoError(Te, err)
	defer T.Close()
	com, err := T.ReadCOMTrajectory([]int{0, 1, 2}, 0, 4, 1, false, nil)
	require.NoError(Te, err)
	m, _ := S.Masses()
	x0 := (m[0]*0.9 + m[1]*1.02 + m[2]*0.9) / (m[0] + m[1] + m[2])
	for t := 0; t < 4; t++ {
		require.InDelta(Te, x0+0.3*float64(t), com.At(t, 0), 1e-9)
	}
	center, err := T.ReadCOMTrajectory([]int{0, 1, 2}, 0, 1, 1, false, []float64{1, 1, 1})
	require.NoError(Te, err)
	require.InDelta(Te, 0.94, center.At(0, 0), 1e-9)
	_, err = T.ReadCOMTrajectory([]int{0, 1, 2}, 0, 4, 1, false, []float64{1, 1})
	require.Error(Te, err)
	_, err = T.ReadCOMTrajectory([]int{0, 3}, 0, 4, 1, false, nil)
	require.Error(Te, err)
}

func TestWriterLimits(Te *testing.T) {
	S := atomsSystem(Te, "H", "O")
	path := filepath.Join(Te.TempDir(), "limits.gtj")
	W, err := NewWriter(path, S, 10, nil)
	require.NoError(Te, err)
	conf, _ := configuration.NewRealConfiguration(S, nil, nil)
	for i := 0; i < 10; i++ {
		require.NoError(Te, W.DumpConfiguration(conf, float64(i)))
	}
	err = W.DumpConfiguration(conf, 10)
	var terr *TrajectoryError
	require.ErrorAs(Te, err, &terr)
	require.Equal(Te, 10, W.Written())
	require.NoError(Te, W.Close())
	require.NoError(Te, W.Close())

	_, err = NewWriter(path, S, 10, &WriterOptions{DType: 8})
	require.ErrorAs(Te, err, &terr)
	wrong, _ := configuration.NewRealConfiguration(atomsSystem(Te, "H"), nil, nil)
	W, err = NewWriter(path, S, 10, nil)
	require.NoError(Te, err)
	require.ErrorAs(Te, W.DumpConfiguration(wrong, 0), &terr)
	W.Close()
}

func TestTruncated(Te *testing.T) {
	S := atomsSystem(Te, "H")
	path := filepath.Join(Te.TempDir(), "short.gtj")
	W, err := NewWriter(path, S, 10, nil)
	require.NoError(Te, err)
	conf, _ := configuration.NewRealConfiguration(S, matrix(Te, 1, 2, 3), nil)
	require.NoError(Te, W.DumpConfiguration(conf, 0))
	require.NoError(Te, W.Close())
	T, err := Open(path)
	require.NoError(Te, err)
	defer T.Close()
	require.Equal(Te, 1, T.Len())
	require.Equal(Te, DefaultTimeStep, T.TimeStep())
	_, err = T.Frames(0, 2, 1)
	require.Error(Te, err)
}

func TestDTypesAndVariables(Te *testing.T) {
	S := atomsSystem(Te, "H", "C", "N")
	cell, _ := configuration.Orthorhombic(3, 3, 3)
	for _, bits := range []int{16, 32, 64} {
		for _, comp := range []Compression{None, Zstd, Gzip, Flate} {
			path := filepath.Join(Te.TempDir(), comp.String()+".gtj")
			W, err := NewWriter(path, S, 2, &WriterOptions{DType: bits, Compression: comp, Selection: []int{2, 0}, Metadata: map[string]string{"source": "test"}})
			require.NoError(Te, err)
			for t := 0; t < 2; t++ {
				conf, _ := configuration.NewRealConfiguration(S, matrix(Te, 0.5, 1, 1.5, 2, 2.5, 1.25, 0.125, 0.25, float64(t)), cell)
				vel := matrix(Te, 1, 0, 0, 0, 1, 0, 0, 0, -1)
				require.NoError(Te, conf.SetVariable(configuration.Velocities, vel))
				require.NoError(Te, W.DumpConfiguration(conf, float64(t)))
			}
			require.NoError(Te, W.Close())
			T, err := Open(path)
			require.NoError(Te, err)
			require.Equal(Te, bits, T.DType())
			require.Equal(Te, []int{0, 2}, T.Selection())
			require.Equal(Te, "test", T.Metadata()["source"])
			require.True(Te, T.HasVariable(configuration.Velocities))
			c, err := T.Coordinates(1)
			require.NoError(Te, err)
			require.InDelta(Te, 1.5, c.At(0, 2), 1e-3)
			require.True(Te, c.HasNaN(1))
			require.InDelta(Te, 1.0, c.At(2, 2), 1e-3)
			v, err := T.ReadConfigurationTrajectory(2, 0, 2, 1, configuration.Velocities)
			require.NoError(Te, err)
			require.Equal(Te, -1.0, v.At(1, 2))
			_, err = T.ReadConfigurationTrajectory(2, 0, 2, 1, "forces")
			require.Error(Te, err)
			conf, err := T.Configuration(0)
			require.NoError(Te, err)
			require.Equal(Te, []string{configuration.Velocities}, conf.Variables())
			require.NoError(Te, T.Close())
		}
	}
}

func TestNotAContainer(Te *testing.T) {
	_, err := Open(filepath.Join(Te.TempDir(), "missing"))
	require.Error(Te, err)
	_, err = ParseCompression("lzma")
	require.Error(Te, err)
	c, err := ParseCompression("GZIP")
	require.NoError(Te, err)
	require.Equal(Te, Gzip, c)
}
