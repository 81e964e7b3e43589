/*
 * analysis_test.go, part of gotraj.
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

package analysis

import (
	"context"
	"math"
	"math/rand"
	"path/filepath"
	"testing"

	chem "github.com/rmera/gotraj"
	"github.com/rmera/gotraj/configuration"
	"github.com/rmera/gotraj/job"
	"github.com/rmera/gotraj/output"
	"github.com/rmera/gotraj/traj"
	v3 "github.com/rmera/gotraj/v3"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type generator func(t int) (*v3.Matrix, *configuration.UnitCell, *v3.Matrix)

// writeTrajectory creates a trajectory of S with n frames, dt ps apart.
func writeTrajectory(Te *testing.T, S *chem.ChemicalSystem, n int, dt float64, gen generator) string {
	path := filepath.Join(Te.TempDir(), "input.gtj")
	W, err := traj.NewWriter(path, S, n, nil)
	require.NoError(Te, err)
	for t := 0; t < n; t++ {
		c, cell, vel := gen(t)
		conf, err := configuration.NewRealConfiguration(S, c, cell)
		require.NoError(Te, err)
		if vel != nil {
			require.NoError(Te, conf.SetVariable(configuration.Velocities, vel))
		}
		require.NoError(Te, W.DumpConfiguration(conf, dt*float64(t)))
	}
	require.NoError(Te, W.Close())
	return path
}

func atoms(Te *testing.T, symbols ...string) *chem.ChemicalSystem {
	S := chem.NewChemicalSystem("test")
	for _, s := range symbols {
		a, err := chem.NewAtom(s, s)
		require.NoError(Te, err)
		require.NoError(Te, S.AddEntity(a))
	}
	return S
}

// randomWalk writes 100 frames of 32 atoms (16 Ar, 16 Ne) diffusing in a 3 nm box, folded.
func randomWalk(Te *testing.T) string {
	symbols := make([]string, 32)
	for i := range symbols {
		symbols[i] = "Ar"
		if i%2 == 1 {
			symbols[i] = "Ne"
		}
	}
	S := atoms(Te, symbols...)
	cell, err := configuration.Orthorhombic(3, 3, 3)
	require.NoError(Te, err)
	rng := rand.New(rand.NewSource(7))
	pos := make([][3]float64, 32)
	for i := range pos {
		pos[i] = [3]float64{3 * rng.Float64(), 3 * rng.Float64(), 3 * rng.Float64()}
	}
	return writeTrajectory(Te, S, 100, 0.1, func(int) (*v3.Matrix, *configuration.UnitCell, *v3.Matrix) {
		c := v3.Zeros(32)
		for i := range pos {
			for j := range pos[i] {
				pos[i][j] += 0.1 * (rng.Float64() - 0.5)
			}
			c.SetVec(i, pos[i])
		}
		conf, _ := configuration.NewRealConfiguration(S, c, cell)
		conf.FoldCoordinates()
		return conf.Coordinates(), cell, nil
	})
}

// ballistic writes 20 frames, 0.5 ps apart, of 4 Ar atoms moving at 0.1 nm/ps along x
// in a 2 nm box, folded.
func ballistic(Te *testing.T, velocities bool) string {
	S := atoms(Te, "Ar", "Ar", "Ar", "Ar")
	cell, err := configuration.Orthorhombic(2, 2, 2)
	require.NoError(Te, err)
	return writeTrajectory(Te, S, 20, 0.5, func(t int) (*v3.Matrix, *configuration.UnitCell, *v3.Matrix) {
		c := v3.Zeros(4)
		var vel *v3.Matrix
		if velocities {
			vel = v3.Zeros(4)
		}
		for i := 0; i < 4; i++ {
			x := math.Mod(0.4*float64(i)+0.05*float64(t), 2)
			c.SetVec(i, [3]float64{x, 0.5 * float64(i), 1})
			if vel != nil {
				vel.SetVec(i, [3]float64{0.1, 0, 0})
			}
		}
		return c, cell, vel
	})
}

func run(Te *testing.T, name string, params map[string]any, workers int) (*job.Result, error) {
	J, err := job.Get(name)
	require.NoError(Te, err)
	return job.Run(context.Background(), J, params, &job.RunOptions{Workers: workers})
}

func TestVanHoveParallelEquivalence(Te *testing.T) {
	input := randomWalk(Te)
	dir := Te.TempDir()
	var results []*output.Data
	for _, workers := range []int{1, 4} {
		root := filepath.Join(dir, "vh"+string(rune('0'+workers)))
		res, err := run(Te, VanHoveName, map[string]any{
			"trajectory":   input,
			"output_files": []any{root, []any{"mdh"}},
		}, workers)
		require.NoError(Te, err)
		assert.Equal(Te, 32, res.Completed)
		D, err := output.ReadMDH(root + ".mdh")
		require.NoError(Te, err)
		results = append(results, D)
	}
	mono, multi := results[0], results[1]
	require.Equal(Te, mono.Names(), multi.Names())
	for _, n := range mono.Names() {
		assert.InDeltaSlice(Te, mono.Get(n).Data, multi.Get(n).Data, 1e-12, n)
	}
	assert.Equal(Te, VanHoveName, mono.Metadata["job"])
	// at t=0 every displacement falls in the first bin
	p := mono.Get("4_pi_r2_g(r,t)_Ar")
	require.NotNil(Te, p)
	assert.Equal(Te, []int{99, 50}, p.Shape)
	assert.InDelta(Te, 100, p.At(0, 0), 1e-9)
	assert.InDelta(Te, 0, p.At(1, 0), 1e-12)
	total := mono.Get("4_pi_r2_g(r,t)_total")
	assert.InDelta(Te, 100, total.At(0, 0), 1e-9)
	// probability densities integrate to at most 1
	for t := 0; t < 50; t++ {
		sum := 0.0
		for r := 0; r < 99; r++ {
			sum += p.At(r, t) * 0.01
		}
		assert.LessOrEqual(Te, sum, 1+1e-9)
	}
}

func TestMeanSquareDisplacement(Te *testing.T) {
	input := ballistic(Te, false)
	root := filepath.Join(Te.TempDir(), "msd")
	_, err := run(Te, MSDName, map[string]any{
		"trajectory":   input,
		"frames":       []any{0, -1, 1, 10},
		"output_files": []any{root, []any{"mdh", "toml"}},
	}, 2)
	require.NoError(Te, err)
	D, err := output.ReadMDH(root + ".mdh")
	require.NoError(Te, err)
	msd := D.Get("msd_Ar").Data
	require.Len(Te, msd, 10)
	for k, v := range msd {
		d := 0.05 * float64(k)
		assert.InDelta(Te, d*d, v, 1e-9, "lag %d", k)
	}
	assert.InDeltaSlice(Te, msd, D.Get("msd_total").Data, 1e-12)
	assert.InDelta(Te, 4.5, D.Get("time").Data[9], 1e-12)
	assert.FileExists(Te, root+".toml")

	root = filepath.Join(Te.TempDir(), "msd_y")
	_, err = run(Te, MSDName, map[string]any{
		"trajectory":          input,
		"project_coordinates": []any{"y"},
		"grouping_level":      "atom",
		"output_files":        []any{root, []any{"mdh"}},
	}, 1)
	require.NoError(Te, err)
	D, err = output.ReadMDH(root + ".mdh")
	require.NoError(Te, err)
	for _, v := range D.Get("msd_total").Data {
		assert.InDelta(Te, 0, v, 1e-9)
	}
}

func TestVelocityAutoCorrelation(Te *testing.T) {
	for _, velocities := range []bool{true, false} {
		input := ballistic(Te, velocities)
		root := filepath.Join(Te.TempDir(), "vacf")
		_, err := run(Te, VACFName, map[string]any{
			"trajectory":   input,
			"output_files": []any{root, []any{"mdh"}},
		}, 3)
		require.NoError(Te, err)
		D, err := output.ReadMDH(root + ".mdh")
		require.NoError(Te, err)
		for _, v := range D.Get("vacf_total").Data {
			assert.InDelta(Te, 0.01, v, 1e-9)
		}

		_, err = run(Te, VACFName, map[string]any{
			"trajectory":   input,
			"normalize":    true,
			"output_files": []any{root, []any{"mdh"}},
		}, 1)
		require.NoError(Te, err)
		D, err = output.ReadMDH(root + ".mdh")
		require.NoError(Te, err)
		norm := D.Get("vacf_Ar").Data
		require.Greater(Te, len(norm), 2)
		for k, v := range norm {
			assert.InDelta(Te, 1, v, 1e-9, "lag %d", k)
		}
		for k, v := range D.Get("vacf_total").Data {
			assert.InDelta(Te, 1, v, 1e-9, "lag %d", k)
		}
	}
}

func TestPairDistributionFunction(Te *testing.T) {
	S := atoms(Te, "Ar", "Ar")
	cell, err := configuration.Orthorhombic(2, 2, 2)
	require.NoError(Te, err)
	input := writeTrajectory(Te, S, 5, 1, func(int) (*v3.Matrix, *configuration.UnitCell, *v3.Matrix) {
		c := v3.Zeros(2)
		c.SetVec(0, [3]float64{0.1, 1, 1})
		c.SetVec(1, [3]float64{1.85, 1, 1})
		return c, cell, nil
	})
	root := filepath.Join(Te.TempDir(), "pdf")
	res, err := run(Te, PDFName, map[string]any{
		"trajectory":   input,
		"r_values":     []any{0.0, 1.0, 0.1},
		"output_files": []any{root, []any{"mdh", "ascii"}},
	}, 2)
	require.NoError(Te, err)
	assert.Equal(Te, 5, res.Completed)
	D, err := output.ReadMDH(root + ".mdh")
	require.NoError(Te, err)
	g := D.Get("pdf_Ar-Ar").Data
	require.Len(Te, g, 9)
	// the minimum image distance is 0.25 nm
	want := 8 / (4 * math.Pi * 0.25 * 0.25 * 0.1)
	for k, v := range g {
		if k == 2 {
			assert.InDelta(Te, want, v, 1e-9*want)
		} else {
			assert.Equal(Te, 0.0, v)
		}
	}
	assert.InDeltaSlice(Te, g, D.Get("pdf_total").Data, 1e-9)
	assert.FileExists(Te, root+".tar")

	aperiodic := writeTrajectory(Te, S, 2, 1, func(int) (*v3.Matrix, *configuration.UnitCell, *v3.Matrix) {
		return v3.Zeros(2), nil, nil
	})
	_, err = run(Te, PDFName, map[string]any{
		"trajectory":   aperiodic,
		"output_files": []any{filepath.Join(Te.TempDir(), "pdf"), []any{"mdh"}},
	}, 1)
	var serr *job.StepError
	require.ErrorAs(Te, err, &serr)
	assert.Equal(Te, "AnalysisError", job.ErrorKind(err))
}

func TestUnfoldedTrajectory(Te *testing.T) {
	S := chem.NewChemicalSystem("dimer")
	a, err := chem.NewAtom("O", "O1")
	require.NoError(Te, err)
	b, err := chem.NewAtom("O", "O2")
	require.NoError(Te, err)
	a.AddBond(b)
	cl, err := chem.NewAtomCluster("O2", []*chem.Atom{a, b})
	require.NoError(Te, err)
	require.NoError(Te, S.AddEntity(cl))
	cell, err := configuration.Orthorhombic(2, 2, 2)
	require.NoError(Te, err)
	input := writeTrajectory(Te, S, 6, 0.5, func(t int) (*v3.Matrix, *configuration.UnitCell, *v3.Matrix) {
		c := v3.Zeros(2)
		c.SetVec(0, [3]float64{0.05, 0.1 * float64(t), 1})
		c.SetVec(1, [3]float64{1.95, 0.1 * float64(t), 1})
		return c, cell, nil
	})
	out := filepath.Join(Te.TempDir(), "unfolded.gtj")
	res, err := run(Te, UnfoldedName, map[string]any{
		"trajectory":  input,
		"frames":      []any{1, 6, 1},
		"output_file": []any{out, 32},
	}, 3)
	require.NoError(Te, err)
	assert.Equal(Te, 5, res.Completed)
	T, err := traj.Open(out)
	require.NoError(Te, err)
	defer T.Close()
	require.Equal(Te, 5, T.Len())
	assert.InDeltaSlice(Te, []float64{0.5, 1, 1.5, 2, 2.5}, T.Times(), 1e-12)
	for f := 0; f < 5; f++ {
		c, err := T.Coordinates(f)
		require.NoError(Te, err)
		assert.InDelta(Te, 0.1, v3.Norm3(v3.Sub3(c.Vec(1), c.Vec(0))), 1e-6)
		assert.InDelta(Te, 0.1*float64(f+1), c.Vec(0)[1], 1e-6)
	}
	assert.Equal(Te, UnfoldedName, T.Metadata()["job"])
}

func TestRegistered(Te *testing.T) {
	names := job.Names()
	for _, n := range []string{VanHoveName, MSDName, VACFName, PDFName, UnfoldedName} {
		assert.Contains(Te, names, n)
		J, err := job.Get(n)
		require.NoError(Te, err)
		assert.Equal(Te, n, J.Info().Name)
	}
}
