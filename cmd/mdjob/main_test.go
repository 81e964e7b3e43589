/*
 * main_test.go, part of gotraj.
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

package main

import (
	"bytes"
	"context"
	"fmt"
	"os"
	"path/filepath"
	"testing"

	chem "github.com/rmera/gotraj"
	"github.com/rmera/gotraj/analysis"
	"github.com/rmera/gotraj/configuration"
	"github.com/rmera/gotraj/status"
	"github.com/rmera/gotraj/traj"
	v3 "github.com/rmera/gotraj/v3"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// trajectory writes 10 frames of two argon atoms drifting along x.
func trajectory(Te *testing.T) string {
	S := chem.NewChemicalSystem("argon")
	for _, name := range []string{"Ar1", "Ar2"} {
		a, err := chem.NewAtom("Ar", name)
		require.NoError(Te, err)
		require.NoError(Te, S.AddEntity(a))
	}
	cell, err := configuration.Orthorhombic(2, 2, 2)
	require.NoError(Te, err)
	path := filepath.Join(Te.TempDir(), "argon.gtj")
	W, err := traj.NewWriter(path, S, 10, nil)
	require.NoError(Te, err)
	for t := 0; t < 10; t++ {
		c := v3.Zeros(2)
		c.SetVec(0, [3]float64{0.1 + 0.05*float64(t), 0.5, 0.5})
		c.SetVec(1, [3]float64{1.1 + 0.05*float64(t), 1.5, 0.5})
		conf, err := configuration.NewRealConfiguration(S, c, cell)
		require.NoError(Te, err)
		require.NoError(Te, W.DumpConfiguration(conf, 0.5*float64(t)))
	}
	require.NoError(Te, W.Close())
	return path
}

func TestLoadParameters(Te *testing.T) {
	dir := Te.TempDir()
	tomlPath := filepath.Join(dir, "p.toml")
	require.NoError(Te, os.WriteFile(tomlPath, []byte("trajectory = \"a.gtj\"\nframes = [0, -1, 2]\nnormalize = true\noutput_files = {root = \"out\", formats = [\"mdh\"]}\n"), 0o644))
	p, err := loadParameters(tomlPath)
	require.NoError(Te, err)
	assert.Equal(Te, "a.gtj", p["trajectory"])
	assert.Equal(Te, []any{int64(0), int64(-1), int64(2)}, p["frames"])
	assert.Equal(Te, true, p["normalize"])
	assert.Equal(Te, map[string]any{"root": "out", "formats": []any{"mdh"}}, p["output_files"])

	yamlPath := filepath.Join(dir, "p.yml")
	require.NoError(Te, os.WriteFile(yamlPath, []byte("trajectory: a.gtj\nframes: [0, -1, 2]\n"), 0o644))
	p, err = loadParameters(yamlPath)
	require.NoError(Te, err)
	assert.Equal(Te, []any{0, -1, 2}, p["frames"])

	_, err = loadParameters(filepath.Join(dir, "p.json"))
	assert.Error(Te, err)
}

func TestListAndSettings(Te *testing.T) {
	var out, errb bytes.Buffer
	require.Equal(Te, 0, run(context.Background(), []string{"list"}, &out, &errb))
	assert.Contains(Te, out.String(), analysis.MSDName)
	assert.Contains(Te, out.String(), "LAMMPS")

	out.Reset()
	require.Equal(Te, 0, run(context.Background(), []string{"settings", analysis.MSDName}, &out, &errb))
	assert.Contains(Te, out.String(), "project_coordinates")

	errb.Reset()
	assert.Equal(Te, 1, run(context.Background(), []string{"settings", "NoSuchJob"}, &out, &errb))
	assert.Contains(Te, errb.String(), "JobError")
	assert.Equal(Te, 1, run(context.Background(), nil, &out, &errb))
}

func TestRunPipe(Te *testing.T) {
	dir := Te.TempDir()
	root := filepath.Join(dir, "msd")
	params := filepath.Join(dir, "msd.toml")
	body := fmt.Sprintf(`trajectory = %q
frames = [0, -1, 1, 4]
output_files = {root = %q, formats = ["mdh"]}
running_mode = {mode = "multiprocessor", workers = 2}
`, trajectory(Te), root)
	require.NoError(Te, os.WriteFile(params, []byte(body), 0o644))

	var out, errb bytes.Buffer
	code := run(context.Background(), []string{"run", "-pipe", "-heartbeat", "1h", analysis.MSDName, params}, &out, &errb)
	require.Equal(Te, 0, code, errb.String())
	assert.FileExists(Te, root+".mdh")

	var keys []string
	var last status.Message
	require.NoError(Te, status.ReadMessages(&out, func(m status.Message) bool {
		keys = append(keys, m.Key)
		last = m
		return true
	}))
	require.NotEmpty(Te, keys)
	assert.Equal(Te, status.KeyStarted, keys[0])
	fin, ok := last.Bool()
	assert.True(Te, ok)
	assert.True(Te, fin)
}

func TestRunErrors(Te *testing.T) {
	dir := Te.TempDir()
	params := filepath.Join(dir, "bad.yaml")
	require.NoError(Te, os.WriteFile(params, []byte("trajectory: "+filepath.Join(dir, "missing.gtj")+"\n"), 0o644))
	var out, errb bytes.Buffer
	assert.Equal(Te, 1, run(context.Background(), []string{"run", analysis.MSDName, params}, &out, &errb))
	assert.Contains(Te, errb.String(), "ConfiguratorError")

	errb.Reset()
	assert.Equal(Te, 1, run(context.Background(), []string{"run", analysis.MSDName}, &out, &errb))
	assert.Contains(Te, errb.String(), "usage")
}
