/*
 * output_test.go, part of gotraj.
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

package output

import (
	"archive/tar"
	"io"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/pelletier/go-toml"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func sample(Te *testing.T) *Data {
	D := NewData()
	D.Metadata["job"] = "test"
	D.Parameters["frames"] = "all"
	t, err := D.Add("time", []int{4}, []string{"time"}, "ps")
	require.NoError(Te, err)
	for i := 0; i < 4; i++ {
		t.Set(float64(i)*0.5, i)
	}
	g, err := D.Add("g", []int{2, 3}, []string{"r", "time"}, "au")
	require.NoError(Te, err)
	g.Set(1.5, 1, 2)
	g.Add(1, 1, 2)
	c, err := D.Add("cube", []int{2, 2, 2}, []string{"x", "y", "z"}, "")
	require.NoError(Te, err)
	for i := range c.Data {
		c.Data[i] = float64(i)
	}
	return D
}

func TestVariable(Te *testing.T) {
	D := sample(Te)
	assert.Equal(Te, 2.5, D.Get("g").At(1, 2))
	assert.Equal(Te, []float64{0, 0, 2.5}, D.Get("g").Row(1))
	assert.Equal(Te, []string{"time", "g", "cube"}, D.Names())
	_, err := D.Add("g", []int{1}, []string{"x"}, "")
	assert.Error(Te, err)
	_, err = D.Add("bad", []int{1, 2}, []string{"x"}, "")
	assert.Error(Te, err)
	assert.Panics(Te, func() { D.Get("g").At(2, 0) })
}

func TestMDHRoundTrip(Te *testing.T) {
	D := sample(Te)
	p := filepath.Join(Te.TempDir(), "out.mdh")
	require.NoError(Te, Write(D, "mdh", p))
	R, err := ReadMDH(p)
	require.NoError(Te, err)
	assert.Equal(Te, D.Names(), R.Names())
	for _, n := range D.Names() {
		assert.Equal(Te, D.Get(n).Data, R.Get(n).Data, n)
		assert.Equal(Te, D.Get(n).Shape, R.Get(n).Shape, n)
		assert.Equal(Te, D.Get(n).Units, R.Get(n).Units, n)
		assert.Equal(Te, D.Get(n).Axis, R.Get(n).Axis, n)
	}
	assert.Equal(Te, "test", R.Metadata["job"])

	bad := filepath.Join(Te.TempDir(), "bad.mdh")
	require.NoError(Te, os.WriteFile(bad, []byte("nothing here"), 0o644))
	_, err = ReadMDH(bad)
	assert.Error(Te, err)
}

func TestASCII(Te *testing.T) {
	D := sample(Te)
	p := filepath.Join(Te.TempDir(), "out.tar")
	require.NoError(Te, Write(D, "ascii", p))
	f, err := os.Open(p)
	require.NoError(Te, err)
	defer f.Close()
	files := map[string]string{}
	tr := tar.NewReader(f)
	for {
		h, err := tr.Next()
		if err == io.EOF {
			break
		}
		require.NoError(Te, err)
		b, err := io.ReadAll(tr)
		require.NoError(Te, err)
		files[h.Name] = string(b)
	}
	require.Contains(Te, files, "metadata.txt")
	assert.Contains(Te, files["metadata.txt"], "job: test")
	assert.Contains(Te, files["g.dat"], "0 0 2.5\n")
	assert.Contains(Te, files["time.dat"], "# units: ps")
	cube := files["cube.dat"]
	assert.Equal(Te, 2, strings.Count(cube, "#slice:"))
	assert.Contains(Te, cube, "#slice:[1]\n4 5\n6 7\n")
}

func TestTOMLAndWriteAll(Te *testing.T) {
	D := sample(Te)
	root := filepath.Join(Te.TempDir(), "res")
	files, err := WriteAll(D, root, []string{"toml", "mdh"})
	require.NoError(Te, err)
	assert.Equal(Te, []string{root + ".toml", root + ".mdh"}, files)
	tree, err := toml.LoadFile(root + ".toml")
	require.NoError(Te, err)
	assert.Equal(Te, "test", tree.Get("metadata.job"))
	assert.Equal(Te, "ps", tree.Get("variables.time.units"))
	assert.Equal(Te, 2.5, tree.Get("variables.g.max"))

	_, err = WriteAll(D, root, []string{"hdf"})
	assert.Error(Te, err)
	assert.Equal(Te, "mdh", Formats()[0])
}
