/*
 * data.go, part of gotraj.
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

// Package output holds the results of a job and writes them in several formats:
// mdh, a compressed binary container with one dataset per variable; ascii, a tar archive
// with one text file per variable; and toml, a human-readable summary.
package output

import (
	"fmt"
	"sort"

	"golang.org/x/exp/maps"
	"golang.org/x/exp/slices"
)

// OutputError is returned when variables are inconsistent or files can't be written or read.
type OutputError struct {
	msg  string
	file string
	deco []string
	err  error
}

func newError(file, caller, format string, args ...interface{}) *OutputError {
	return &OutputError{msg: fmt.Sprintf(format, args...), file: file, deco: []string{caller}}
}

func wrapError(err error, file, caller, format string, args ...interface{}) *OutputError {
	e := newError(file, caller, format, args...)
	e.err = err
	return e
}

func (err *OutputError) Error() string {
	msg := err.msg
	if err.file != "" {
		msg = err.file + ": " + msg
	}
	if err.err != nil {
		msg = fmt.Sprintf("%s: %v", msg, err.err)
	}
	return msg
}

func (err *OutputError) Unwrap() error { return err.err }
func (err *OutputError) Kind() string  { return "OutputError" }

// Decorate adds dec to the decoration slice and returns it. An empty dec only returns the slice.
func (err *OutputError) Decorate(dec string) []string {
	if dec != "" {
		err.deco = append(err.deco, dec)
	}
	return err.deco
}

// Variable is an n-dimensional array of float64 in row-major order, with the names of its
// axes (time, q, r...) and its units.
type Variable struct {
	Name  string    `json:"name"`
	Units string    `json:"units"`
	Axis  []string  `json:"axis"`
	Shape []int     `json:"shape"`
	DType string    `json:"dtype"`
	Data  []float64 `json:"-"`
}

func size(shape []int) int {
	n := 1
	for _, s := range shape {
		n *= s
	}
	return n
}

// NewVariable returns a zeroed variable.
func NewVariable(name string, shape []int, axis []string, units string) *Variable {
	return &Variable{Name: name, Units: units, Axis: slices.Clone(axis), Shape: slices.Clone(shape), DType: "float64", Data: make([]float64, size(shape))}
}

// Rank returns the number of dimensions.
func (V *Variable) Rank() int { return len(V.Shape) }

func (V *Variable) offset(idx []int) int {
	if len(idx) != len(V.Shape) {
		panic(fmt.Sprintf("output: %d indexes for a rank %d variable %s", len(idx), len(V.Shape), V.Name))
	}
	o := 0
	for i, x := range idx {
		if x < 0 || x >= V.Shape[i] {
			panic(fmt.Sprintf("output: index %d out of range for axis %d of %s", x, i, V.Name))
		}
		o = o*V.Shape[i] + x
	}
	return o
}

// At returns the element at idx. It panics if idx is out of range.
func (V *Variable) At(idx ...int) float64 { return V.Data[V.offset(idx)] }

// Set sets the element at idx.
func (V *Variable) Set(v float64, idx ...int) { V.Data[V.offset(idx)] = v }

// Add adds v to the element at idx.
func (V *Variable) Add(v float64, idx ...int) { V.Data[V.offset(idx)] += v }

// Row returns the i-th row of a rank 2 variable, sharing the storage.
func (V *Variable) Row(i int) []float64 {
	n := V.Shape[len(V.Shape)-1]
	return V.Data[i*n : (i+1)*n]
}

// Data is an ordered collection of variables, plus metadata about the run that made them.
type Data struct {
	order      []string
	vars       map[string]*Variable
	Metadata   map[string]string
	Parameters map[string]any
}

// NewData returns an empty collection.
func NewData() *Data {
	return &Data{vars: make(map[string]*Variable), Metadata: make(map[string]string), Parameters: make(map[string]any)}
}

// Add creates a zeroed variable. The length of axis must match the rank.
func (D *Data) Add(name string, shape []int, axis []string, units string) (*Variable, error) {
	if _, ok := D.vars[name]; ok {
		return nil, newError("", "Data.Add", "variable %q already exists", name)
	}
	if len(axis) != len(shape) {
		return nil, newError("", "Data.Add", "variable %q has rank %d but %d axes", name, len(shape), len(axis))
	}
	for _, s := range shape {
		if s < 0 {
			return nil, newError("", "Data.Add", "negative dimension for variable %q", name)
		}
	}
	v := NewVariable(name, shape, axis, units)
	D.vars[name] = v
	D.order = append(D.order, name)
	return v, nil
}

// Put adds an existing variable.
func (D *Data) Put(v *Variable) error {
	if _, ok := D.vars[v.Name]; ok {
		return newError("", "Data.Put", "variable %q already exists", v.Name)
	}
	if len(v.Data) != size(v.Shape) {
		return newError("", "Data.Put", "variable %q has %d values for shape %v", v.Name, len(v.Data), v.Shape)
	}
	D.vars[v.Name] = v
	D.order = append(D.order, v.Name)
	return nil
}

// Get returns the variable called name, or nil.
func (D *Data) Get(name string) *Variable { return D.vars[name] }

// Names returns the variable names in insertion order.
func (D *Data) Names() []string { return slices.Clone(D.order) }

// Len returns the number of variables.
func (D *Data) Len() int { return len(D.order) }

func sortedKeys[V any](m map[string]V) []string {
	k := maps.Keys(m)
	sort.Strings(k)
	return k
}
