/*
 * configuration.go, part of gotraj.
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

// Package configuration contains the per-frame state of a chemical system: coordinates,
// optional unit cell and auxiliary per-atom variables such as velocities.
package configuration

import (
	"math"

	chem "github.com/rmera/gotraj"
	v3 "github.com/rmera/gotraj/v3"
	"golang.org/x/exp/slices"
)

// Standard variable names.
const (
	Velocities = "velocities"
	Gradients  = "gradients"
	Forces     = "forces"
)

// Configuration is implemented by RealConfiguration and BoxConfiguration.
type Configuration interface {
	chem.Configuration
	Coordinates() *v3.Matrix
	UnitCell() *UnitCell
	IsPeriodic() bool
	Variables() []string
	Variable(name string) (*v3.Matrix, bool)
	SetVariable(name string, values *v3.Matrix) error

	// RealCoordinates returns a new matrix with the coordinates in real space.
	RealCoordinates() *v3.Matrix
	// BoxCoordinates returns a new matrix with fractional coordinates. It fails
	// on aperiodic configurations.
	BoxCoordinates() (*v3.Matrix, error)
	FoldCoordinates()
	Clone() Configuration
}

// base holds what both variants share.
type base struct {
	system *chem.ChemicalSystem
	coords *v3.Matrix
	cell   *UnitCell
	names  []string
	vars   map[string]*v3.Matrix
}

func newBase(caller string, S *chem.ChemicalSystem, coords *v3.Matrix, cell *UnitCell) (base, error) {
	if S == nil {
		return base{}, newError(caller, "nil chemical system")
	}
	if coords == nil {
		coords = v3.Zeros(S.NumberOfAtoms())
	}
	if coords.NVecs() != S.NumberOfAtoms() {
		return base{}, newError(caller, "%d coordinates for a system of %d atoms", coords.NVecs(), S.NumberOfAtoms())
	}
	return base{system: S, coords: coords, cell: cell, vars: make(map[string]*v3.Matrix)}, nil
}

func (B *base) System() *chem.ChemicalSystem { return B.system }

// Coordinates returns the coordinates, not a copy.
func (B *base) Coordinates() *v3.Matrix { return B.coords }
func (B *base) UnitCell() *UnitCell     { return B.cell }
func (B *base) IsPeriodic() bool        { return B.cell != nil }

// Variables returns the names of the auxiliary variables, in the order they were set.
func (B *base) Variables() []string { return append([]string(nil), B.names...) }

func (B *base) Variable(name string) (*v3.Matrix, bool) {
	v, ok := B.vars[name]
	return v, ok
}

// SetVariable sets, or replaces, the auxiliary variable name. values must have one row per atom.
func (B *base) SetVariable(name string, values *v3.Matrix) error {
	if values == nil || values.NVecs() != B.coords.NVecs() {
		return newError("SetVariable", "variable %s doesn't have %d rows", name, B.coords.NVecs())
	}
	if !slices.Contains(B.names, name) {
		B.names = append(B.names, name)
	}
	B.vars[name] = values
	return nil
}

func (B *base) cloneBase() base {
	n := base{system: B.system, coords: B.coords.Clone(), cell: B.cell, names: append([]string(nil), B.names...), vars: make(map[string]*v3.Matrix, len(B.vars))}
	for k, v := range B.vars {
		n.vars[k] = v.Clone()
	}
	return n
}

// copyVars shares the auxiliary variables of B with n.
func (B *base) copyVars(n *base) {
	n.names = append([]string(nil), B.names...)
	for k, v := range B.vars {
		n.vars[k] = v
	}
}

// RealConfiguration holds coordinates in real units (nm). The unit cell is optional.
type RealConfiguration struct {
	base
}

// NewRealConfiguration returns a configuration for S. If coords is nil all the atoms are
// put at the origin. cell can be nil.
func NewRealConfiguration(S *chem.ChemicalSystem, coords *v3.Matrix, cell *UnitCell) (*RealConfiguration, error) {
	b, err := newBase("NewRealConfiguration", S, coords, cell)
	if err != nil {
		return nil, err
	}
	return &RealConfiguration{b}, nil
}

func (R *RealConfiguration) RealCoordinates() *v3.Matrix { return R.coords.Clone() }

func (R *RealConfiguration) BoxCoordinates() (*v3.Matrix, error) {
	if R.cell == nil {
		return nil, newError("RealConfiguration.BoxCoordinates", "the configuration is not periodic")
	}
	return transform(R.coords, R.cell.ToFrac), nil
}

// FoldCoordinates puts every atom inside the unit cell. It does nothing
// on aperiodic configurations.
func (R *RealConfiguration) FoldCoordinates() {
	if R.cell == nil {
		return
	}
	for i := 0; i < R.coords.NVecs(); i++ {
		R.coords.SetVec(i, R.cell.ToReal(fold(R.cell.ToFrac(R.coords.Vec(i)))))
	}
}

func (R *RealConfiguration) Clone() Configuration { return &RealConfiguration{R.cloneBase()} }

// ToBox returns the equivalent box configuration, sharing the auxiliary variables.
func (R *RealConfiguration) ToBox() (*BoxConfiguration, error) {
	c, err := R.BoxCoordinates()
	if err != nil {
		return nil, err
	}
	b, _ := newBase("", R.system, c, R.cell)
	R.copyVars(&b)
	return &BoxConfiguration{b}, nil
}

// BoxConfiguration holds fractional coordinates. It always has a unit cell.
type BoxConfiguration struct {
	base
}

// NewBoxConfiguration returns a configuration for S with fractional coordinates.
func NewBoxConfiguration(S *chem.ChemicalSystem, coords *v3.Matrix, cell *UnitCell) (*BoxConfiguration, error) {
	if cell == nil {
		return nil, newError("NewBoxConfiguration", "a box configuration needs a unit cell")
	}
	b, err := newBase("NewBoxConfiguration", S, coords, cell)
	if err != nil {
		return nil, err
	}
	return &BoxConfiguration{b}, nil
}

func (X *BoxConfiguration) RealCoordinates() *v3.Matrix { return transform(X.coords, X.cell.ToReal) }

func (X *BoxConfiguration) BoxCoordinates() (*v3.Matrix, error) { return X.coords.Clone(), nil }

// FoldCoordinates brings every fractional coordinate into [0,1).
func (X *BoxConfiguration) FoldCoordinates() {
	for i := 0; i < X.coords.NVecs(); i++ {
		X.coords.SetVec(i, fold(X.coords.Vec(i)))
	}
}

func (X *BoxConfiguration) Clone() Configuration { return &BoxConfiguration{X.cloneBase()} }

// ToReal returns the equivalent real configuration, sharing the auxiliary variables.
func (X *BoxConfiguration) ToReal() *RealConfiguration {
	b, _ := newBase("", X.system, X.RealCoordinates(), X.cell)
	X.copyVars(&b)
	return &RealConfiguration{b}
}

func fold(f [3]float64) [3]float64 {
	for j := range f {
		f[j] -= math.Floor(f[j])
		if f[j] >= 1 {
			f[j] = 0
		}
	}
	return f
}

func transform(M *v3.Matrix, fn func([3]float64) [3]float64) *v3.Matrix {
	ret := v3.Zeros(M.NVecs())
	for i := 0; i < M.NVecs(); i++ {
		ret.SetVec(i, fn(M.Vec(i)))
	}
	return ret
}

// AtomsInShell returns the indexes of the atoms whose distance to the atom ref is in [rmin, rmax).
// ref itself is never included. Periodic configurations use the minimum image convention.
func AtomsInShell(conf Configuration, ref int, rmin, rmax float64) ([]int, error) {
	n := conf.Coordinates().NVecs()
	if ref < 0 || ref >= n {
		return nil, newError("AtomsInShell", "reference atom %d out of range for %d atoms", ref, n)
	}
	x := conf.RealCoordinates()
	r := x.Vec(ref)
	cell := conf.UnitCell()
	var ret []int
	for i := 0; i < n; i++ {
		if i == ref {
			continue
		}
		d := v3.Sub3(x.Vec(i), r)
		if cell != nil {
			d = cell.MinimumImage(d)
		}
		dist := v3.Norm3(d)
		if dist >= rmin && dist < rmax {
			ret = append(ret, i)
		}
	}
	return ret, nil
}

// CenterOfMass returns the mass-weighted center of the atoms in indexes, using the coordinates
// as they are (no periodic handling). If masses is nil, the atomic masses are used.
func CenterOfMass(conf Configuration, indexes []int, masses []float64) [3]float64 {
	x := conf.RealCoordinates()
	if masses == nil {
		masses, _ = conf.System().Masses()
	}
	var com [3]float64
	total := 0.0
	for _, i := range indexes {
		v := x.Vec(i)
		m := masses[i]
		for j := range com {
			com[j] += m * v[j]
		}
		total += m
	}
	if total == 0 {
		return com
	}
	for j := range com {
		com[j] /= total
	}
	return com
}
