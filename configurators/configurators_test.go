/*
 * configurators_test.go, part of gotraj.
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
	"path/filepath"
	"testing"

	chem "github.com/rmera/gotraj"
	"github.com/rmera/gotraj/configuration"
	"github.com/rmera/gotraj/traj"
	v3 "github.com/rmera/gotraj/v3"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// trajectory writes 6 frames, 0.5 ps apart, of two waters and an argon atom.
func trajectory(Te *testing.T) string {
	S := chem.NewChemicalSystem("test")
	for _, n := range []string{"w1", "w2"} {
		w, err := chem.NewMolecule("WAT", n)
		require.NoError(Te, err)
		require.NoError(Te, S.AddEntity(w))
	}
	ar, err := chem.NewAtom("Ar", "AR")
	require.NoError(Te, err)
	require.NoError(Te, S.AddEntity(ar))
	cell, err := configuration.Orthorhombic(2, 2, 2)
	require.NoError(Te, err)
	path := filepath.Join(Te.TempDir(), "water.gtj")
	W, err := traj.NewWriter(path, S, 6, nil)
	require.NoError(Te, err)
	for t := 0; t < 6; t++ {
		c := v3.Zeros(S.Len())
		for i := 0; i < S.Len(); i++ {
			c.SetVec(i, [3]float64{0.1 * float64(i), 0.01 * float64(t), 0})
		}
		conf, err := configuration.NewRealConfiguration(S, c, cell)
		require.NoError(Te, err)
		require.NoError(Te, W.DumpConfiguration(conf, 0.5*float64(t)))
	}
	require.NoError(Te, W.Close())
	return path
}

func analysisSettings() []Setting {
	return []Setting{
		{Name: "frames", Kind: KindCorrelationFrames},
		{Name: "trajectory", Kind: KindHDFTrajectory},
		{Name: "atom_selection", Kind: KindAtomSelection},
		{Name: "grouping_level", Kind: KindGroupingLevel},
		{Name: "weights", Kind: KindWeights},
		{Name: "r_values", Kind: KindRange, Options: Options{Default: []any{0.0, 1.0, 0.25}, Min: F(0)}},
		{Name: "output_files", Kind: KindOutputFiles},
		{Name: "running_mode", Kind: KindRunningMode},
		{Name: "n_bins", Kind: KindInteger, Options: Options{Default: 10, Min: F(1), Max: F(100)}},
		{Name: "normalize", Kind: KindBoolean},
		{Name: "cell", Kind: KindUnitCell},
	}
}

func TestOrder(Te *testing.T) {
	s, err := NewSet(analysisSettings())
	require.NoError(Te, err)
	order := s.Order()
	pos := map[string]int{}
	for i, n := range order {
		pos[n] = i
	}
	assert.Less(Te, pos["trajectory"], pos["frames"])
	assert.Less(Te, pos["atom_selection"], pos["grouping_level"])
	assert.Less(Te, pos["atom_selection"], pos["weights"])
	assert.Equal(Te, "frames", s.Names()[0])

	_, err = NewSet([]Setting{
		{Name: "a", Kind: KindFrames, Options: Options{Dependencies: map[string]string{"trajectory": "b"}}},
		{Name: "b", Kind: KindFrames, Options: Options{Dependencies: map[string]string{"trajectory": "a"}}},
	})
	var cerr *ConfiguratorError
	require.ErrorAs(Te, err, &cerr)
	assert.Contains(Te, cerr.Error(), "cyclic")

	_, err = NewSet([]Setting{{Name: "frames", Kind: KindFrames}})
	assert.ErrorAs(Te, err, &cerr)
	_, err = NewSet([]Setting{{Name: "x", Kind: "NoSuchConfigurator"}})
	assert.ErrorAs(Te, err, &cerr)
}

func TestConfigure(Te *testing.T) {
	path := trajectory(Te)
	out := filepath.Join(Te.TempDir(), "sub", "res")
	s, err := NewSet(analysisSettings())
	require.NoError(Te, err)
	defer s.Close()
	err = s.Configure(map[string]any{
		"trajectory":     path,
		"frames":         []any{int64(0), int64(-1), int64(1), int64(2)},
		"atom_selection": "molecule_name WAT",
		"grouping_level": "molecule",
		"weights":        "mass",
		"output_files":   []any{out, []any{"mdh", "TOML"}},
		"running_mode":   []any{"multiprocessor", 3},
		"normalize":      "true",
		"cell":           []any{2, 0, 0, 0, 2, 0, 0, 0, 2},
	})
	require.NoError(Te, err)

	t, err := Lookup[*HDFTrajectory](s, "trajectory")
	require.NoError(Te, err)
	assert.Equal(Te, 6, t.Length)
	assert.Equal(Te, 0.5, t.TimeStep)
	assert.False(Te, t.HasVelocities)
	v, ok := t.Get("md_time_step")
	assert.True(Te, ok)
	assert.Equal(Te, 0.5, v)

	f, err := Lookup[*CorrelationFrames](s, "frames")
	require.NoError(Te, err)
	assert.Equal(Te, []int{0, 1, 2, 3, 4, 5}, f.Indexes)
	assert.Equal(Te, 2, f.NFrames)
	assert.Equal(Te, 5, f.NConfigs)
	assert.Equal(Te, []float64{0, 0.5}, f.Duration)

	sel, _ := Lookup[*AtomSelection](s, "atom_selection")
	assert.Equal(Te, []int{0, 1, 2, 3, 4, 5}, sel.Flat)
	assert.Equal(Te, []string{"H", "O"}, sel.UniqueNames)

	g, _ := Lookup[*GroupingLevel](s, "grouping_level")
	assert.Equal(Te, [][]int{{0, 1, 2}, {3, 4, 5}}, g.Indexes)
	assert.Equal(Te, []string{"WAT", "WAT"}, g.Names)

	w, _ := Lookup[*Weights](s, "weights")
	ws := w.Weights()
	assert.InDelta(Te, 15.999, ws["O"], 0.01)
	gw := w.GroupWeights(t.System, g.Indexes)
	assert.InDelta(Te, 18.015, gw[0], 0.01)

	r, _ := Lookup[*Range](s, "r_values")
	assert.Equal(Te, []float64{0, 0.25, 0.5, 0.75}, r.Values)
	assert.Equal(Te, []float64{0.125, 0.375, 0.625}, r.MidPoints)

	o, _ := Lookup[*OutputFiles](s, "output_files")
	assert.Equal(Te, []string{"mdh", "toml"}, o.Formats)
	assert.Equal(Te, []string{out + ".mdh", out + ".toml"}, o.Files)
	assert.DirExists(Te, filepath.Dir(out))

	m, _ := Lookup[*RunningMode](s, "running_mode")
	assert.Equal(Te, Multiprocessor, m.Mode)
	assert.Equal(Te, 3, m.Workers)

	n, _ := Lookup[*Integer](s, "n_bins")
	assert.Equal(Te, 10, n.Int)
	b, _ := Lookup[*Boolean](s, "normalize")
	assert.True(Te, b.Bool)
	c, _ := Lookup[*UnitCell](s, "cell")
	assert.True(Te, c.Apply)
	assert.InDelta(Te, 8, c.Cell.Volume(), 1e-12)

	_, err = Lookup[*Frames](s, "frames")
	assert.Error(Te, err)
}

func TestRejections(Te *testing.T) {
	path := trajectory(Te)
	base := func() map[string]any {
		return map[string]any{"trajectory": path, "output_files": filepath.Join(Te.TempDir(), "x")}
	}
	cases := map[string]any{
		"frames":         []any{0, 10, 1},
		"atom_selection": "not all()",
		"grouping_level": "planet",
		"weights":        "charm",
		"running_mode":   "quantum",
		"n_bins":         1000,
		"r_values":       []any{1.0, 0.5, 0.1},
		"cell":           []any{1, 2, 3},
		"unknown":        1,
	}
	for name, raw := range cases {
		s, err := NewSet(analysisSettings())
		require.NoError(Te, err)
		params := base()
		params[name] = raw
		err = s.Configure(params)
		var cerr *ConfiguratorError
		require.ErrorAs(Te, err, &cerr, name)
		if name != "unknown" {
			require.NotNil(Te, cerr.Configurator(), name)
			assert.Equal(Te, name, cerr.Configurator().Name())
		}
		s.Close()
	}
}

func TestScalars(Te *testing.T) {
	I := NewInteger("i", Options{Choices: []any{1, 2, 3}})
	assert.NoError(Te, I.Configure(int64(2), nil))
	assert.Error(Te, I.Configure(4, nil))
	assert.Error(Te, I.Configure(2.5, nil))
	assert.Error(Te, I.Configure(nil, nil))

	Fl := NewFloat("f", Options{Default: 1.5, Max: F(2)})
	require.NoError(Te, Fl.Configure(nil, nil))
	assert.Equal(Te, 1.5, Fl.Float)
	assert.Error(Te, Fl.Configure("3", nil))

	M := NewMultipleChoices("m", Options{Choices: []any{"a", "b", "c"}, MaxChoices: 2})
	require.NoError(Te, M.Configure([]string{"a", "c"}, nil))
	assert.Equal(Te, []string{"a", "c"}, M.Selected)
	assert.Error(Te, M.Configure([]string{"a", "a"}, nil))
	assert.Error(Te, M.Configure([]string{"a", "b", "c"}, nil))
	assert.Error(Te, M.Configure([]string{"d"}, nil))

	O := NewOutputTrajectory("o", Options{})
	p := filepath.Join(Te.TempDir(), "o.gtj")
	require.NoError(Te, O.Configure(map[string]any{"file": p, "dtype": 32, "compression": "gzip"}, nil))
	assert.Equal(Te, 32, O.DType)
	assert.Equal(Te, traj.Gzip, O.WriterOptions().Compression)
	assert.Error(Te, O.Configure([]any{p, 8}, nil))

	U := NewUnitCell("u", Options{})
	require.NoError(Te, U.Configure(nil, nil))
	assert.False(Te, U.Apply)
	require.NoError(Te, U.Configure([]any{[]any{[]any{1, 0, 0}, []any{0, 1, 0}, []any{0, 0, 1}}, false}, nil))
	assert.False(Te, U.Apply)
	assert.NotNil(Te, U.Cell)

	D := NewInputDirectory("d", Options{})
	dir := filepath.Join(Te.TempDir(), "a", "b")
	require.NoError(Te, D.Configure(dir, nil))
	assert.DirExists(Te, dir)

	In := NewInputFile("in", Options{})
	assert.Error(Te, In.Configure(dir, nil))
}
