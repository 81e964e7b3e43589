/*
 * toml.go, part of gotraj.
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
	"fmt"
	"os"

	"github.com/pelletier/go-toml"
	"gonum.org/v1/gonum/floats"
)

// TOMLWriter writes a summary: metadata, parameters, and for each variable its units,
// axes, shape and a few statistics. Rank 0 and 1 variables are written in full.
type TOMLWriter struct{}

type tomlVariable struct {
	Units  string    `toml:"units"`
	Axis   []string  `toml:"axis"`
	Shape  []int     `toml:"shape"`
	Min    float64   `toml:"min"`
	Max    float64   `toml:"max"`
	Sum    float64   `toml:"sum"`
	Values []float64 `toml:"values,omitempty"`
}

func (TOMLWriter) Write(path string, D *Data) (err error) {
	f, err := os.Create(path)
	if err != nil {
		return wrapError(err, path, "TOMLWriter.Write", "can't create the file")
	}
	defer func() {
		if cerr := f.Close(); err == nil && cerr != nil {
			err = wrapError(cerr, path, "TOMLWriter.Write", "can't close the file")
		}
	}()
	vars := make(map[string]tomlVariable, len(D.order))
	for _, n := range D.order {
		v := D.vars[n]
		tv := tomlVariable{Units: v.Units, Axis: v.Axis, Shape: v.Shape}
		if tv.Axis == nil {
			tv.Axis = []string{}
		}
		if tv.Shape == nil {
			tv.Shape = []int{}
		}
		if len(v.Data) > 0 {
			tv.Min, tv.Max, tv.Sum = floats.Min(v.Data), floats.Max(v.Data), floats.Sum(v.Data)
		}
		if len(v.Shape) <= 1 {
			tv.Values = v.Data
		}
		vars[n] = tv
	}
	params := make(map[string]string, len(D.Parameters))
	for k, v := range D.Parameters {
		params[k] = fmt.Sprint(v)
	}
	doc := struct {
		Metadata   map[string]string       `toml:"metadata"`
		Parameters map[string]string       `toml:"parameters"`
		Variables  map[string]tomlVariable `toml:"variables"`
	}{D.Metadata, params, vars}
	if err = toml.NewEncoder(f).Encode(doc); err != nil {
		return wrapError(err, path, "TOMLWriter.Write", "can't encode the summary")
	}
	return nil
}
