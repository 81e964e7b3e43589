/*
 * dlpoly_test.go, part of gotraj.
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

package dlpoly

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/rmera/gotraj/configuration"
	"github.com/rmera/gotraj/job"
	"github.com/rmera/gotraj/traj"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const field = `Two waters and an argon
UNITS kJ
MOLECULES 2
Water
NUMMOLS 2
ATOMS 3
OW 15.9994 -0.82 1 0
HW 1.008 0.41 2 0
CONSTRAINTS 2
1 2 1.0
1 3 1.0
FINISH
Argon
NUMMOLS 1
ATOMS 1
Ar 39.948 0.0
FINISH
CLOSE
`

// history writes a version 2 HISTORY file with nframes frames of 7 atoms in a 20 Å box.
// Atom a of frame t is at (3a + 10t, 1, 25) Å, with velocity (1, 2, 3) Å/ps and force (10, 0, 0).
func history(Te *testing.T, dir string, nframes int) string {
	var b strings.Builder
	rec := func(format string, args ...interface{}) {
		fmt.Fprintf(&b, "%-80s\n", fmt.Sprintf(format, args...))
	}
	rec("test history")
	rec("%10d%10d%10d", 2, 1, 7)
	names := []string{"OW", "HW", "HW", "OW", "HW", "HW", "Ar"}
	for t := 0; t < nframes; t++ {
		rec("timestep%10d%10d%10d%10d%12.6f", 100*(t+1), 7, 2, 1, 0.001)
		rec("%20.10f%20.10f%20.10f", 20.0, 0.0, 0.0)
		rec("%20.10f%20.10f%20.10f", 0.0, 20.0, 0.0)
		rec("%20.10f%20.10f%20.10f", 0.0, 0.0, 20.0)
		for a, n := range names {
			rec("%-8s%10d%12.6f%12.6f", n, a+1, 1.0, 0.0)
			rec("%20.10f%20.10f%20.10f", 3.0*float64(a)+10*float64(t), 1.0, 25.0)
			rec("%20.10f%20.10f%20.10f", 1.0, 2.0, 3.0)
			rec("%20.10f%20.10f%20.10f", 10.0, 0.0, 0.0)
		}
	}
	p := filepath.Join(dir, "HISTORY")
	require.NoError(Te, os.WriteFile(p, []byte(b.String()), 0o644))
	return p
}

func TestFieldFile(Te *testing.T) {
	p := filepath.Join(Te.TempDir(), "FIELD")
	require.NoError(Te, os.WriteFile(p, []byte(field), 0o644))
	F, err := ReadFieldFile(p, nil)
	require.NoError(Te, err)
	assert.Equal(Te, "kJ", F.Units)
	require.Len(Te, F.Molecules, 2)
	assert.Equal(Te, 7, F.NumberOfAtoms())
	assert.Equal(Te, "O", F.Molecules[0].Atoms[0].Symbol)
	assert.Equal(Te, "H", F.Molecules[0].Atoms[2].Symbol)
	assert.Equal(Te, "Ar", F.Molecules[1].Atoms[0].Symbol)
	S, err := F.System("test")
	require.NoError(Te, err)
	assert.Equal(Te, 7, S.NumberOfAtoms())
	assert.Equal(Te, [][2]int{{0, 1}, {0, 2}, {3, 4}, {3, 5}}, S.Bonds())
	assert.Equal(Te, "Water_2.OW", S.Atom(3).FullName())

	aliased, err := ReadFieldFile(p, map[string]string{"HW": "D"})
	require.NoError(Te, err)
	assert.Equal(Te, "D", aliased.Molecules[0].Atoms[1].Symbol)

	bad := filepath.Join(Te.TempDir(), "FIELD_bad")
	require.NoError(Te, os.WriteFile(bad, []byte(strings.Replace(field, "NUMMOLS 1\n", "", 1)), 0o644))
	_, err = ReadFieldFile(bad, nil)
	var ferr *FieldFileError
	require.ErrorAs(Te, err, &ferr)
	assert.Equal(Te, "FieldFileError", ferr.Kind())
}

func TestHistoryLayout(Te *testing.T) {
	p := history(Te, Te.TempDir(), 4)
	H, err := OpenHistory(p, "2")
	require.NoError(Te, err)
	defer H.Close()
	st, err := os.Stat(p)
	require.NoError(Te, err)
	stride := int64(81 * (4 + 7*4))
	assert.Equal(Te, int((st.Size()-2*81)/stride), H.NFrames)
	assert.Equal(Te, 4, H.NFrames)
	fr, err := H.Frame(2)
	require.NoError(Te, err)
	assert.InDelta(Te, 0.3, fr.Time, 1e-12)
	assert.Equal(Te, [3]float64{2, 2, 2}, fr.Cell.Lengths())
	x := fr.Coordinates.Vec(1)
	assert.InDeltaSlice(Te, []float64{0.3 + 2, 0.1, 2.5}, x[:], 1e-9)
	v := fr.Variables[configuration.Velocities].Vec(6)
	assert.InDeltaSlice(Te, []float64{0.1, 0.2, 0.3}, v[:], 1e-12)
	g := fr.Variables[configuration.Gradients].Vec(0)
	assert.InDeltaSlice(Te, []float64{-1, 0, 0}, g[:], 1e-12)
	_, err = H.Frame(4)
	assert.Error(Te, err)

	_, err = OpenHistory(p, "4")
	var herr *HistoryFileError
	require.ErrorAs(Te, err, &herr)
	_, err = OpenHistory(p, "5")
	require.ErrorAs(Te, err, &herr)
}

func TestConvert(Te *testing.T) {
	dir := Te.TempDir()
	fp := filepath.Join(dir, "FIELD")
	require.NoError(Te, os.WriteFile(fp, []byte(field), 0o644))
	hp := history(Te, dir, 3)
	out := filepath.Join(dir, "out", "cumen.gtj")
	for _, workers := range []int{1, 3} {
		J, err := job.Get(JobName)
		require.NoError(Te, err)
		res, err := job.Run(context.Background(), J, map[string]any{
			"field_file":   fp,
			"history_file": hp,
			"version":      "2",
			"fold":         true,
			"output_file":  []any{out, 64, "zstd"},
		}, &job.RunOptions{Workers: workers})
		require.NoError(Te, err)
		assert.Equal(Te, 3, res.Completed)

		T, err := traj.Open(out)
		require.NoError(Te, err)
		require.Equal(Te, 3, T.Len())
		cell, err := T.UnitCell(0)
		require.NoError(Te, err)
		assert.Equal(Te, [3]float64{2, 2, 2}, cell.Lengths())
		assert.InDeltaSlice(Te, []float64{0.1, 0.2, 0.3}, T.Times(), 1e-12)
		for f := 0; f < 3; f++ {
			c, err := T.Coordinates(f)
			require.NoError(Te, err)
			for i := 0; i < c.NVecs(); i++ {
				for _, x := range c.Vec(i) {
					assert.GreaterOrEqual(Te, x, 0.0)
					assert.Less(Te, x, 2.0)
				}
			}
		}
		c, _ := T.Coordinates(0)
		assert.InDelta(Te, 0.5, c.Vec(0)[2], 1e-9)
		assert.True(Te, T.HasVariable(configuration.Velocities))
		assert.True(Te, T.HasVariable(configuration.Gradients))
		assert.Equal(Te, JobName, T.Metadata()["converter"])
		assert.Equal(Te, [][2]int{{0, 1}, {0, 2}, {3, 4}, {3, 5}}, T.System().Bonds())
		require.NoError(Te, T.Close())
	}
}
