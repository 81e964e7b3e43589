/*
 * unitcell.go, part of gotraj.
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
	"fmt"
	"math"

	"gonum.org/v1/gonum/mat"
)

// singularTol is the smallest volume, relative to the product of the lattice vector
// lengths, that a cell can have.
const singularTol = 1e-10

// UnitCell is a periodic box. The rows of the direct matrix are the lattice vectors a, b and c,
// so a real position is x = f·H for fractional coordinates f (both row vectors), and f = x·H⁻¹.
// The inverse is computed once, at construction.
type UnitCell struct {
	direct  *mat.Dense
	inverse *mat.Dense
	volume  float64
}

// NewUnitCell returns the cell with the lattice vectors as the rows of the
// row-major data. A singular cell gives a ConfigurationError.
func NewUnitCell(data [9]float64) (*UnitCell, error) {
	d := mat.NewDense(3, 3, append([]float64(nil), data[:]...))
	det := mat.Det(d)
	scale := 1.0
	for i := 0; i < 3; i++ {
		scale *= mat.Norm(d.RowView(i), 2)
	}
	if scale == 0 || math.Abs(det) < singularTol*scale {
		return nil, newError("NewUnitCell", "singular unit cell %v", data)
	}
	inv := mat.NewDense(3, 3, nil)
	if err := inv.Inverse(d); err != nil {
		return nil, newError("NewUnitCell", "can't invert unit cell: %v", err)
	}
	return &UnitCell{direct: d, inverse: inv, volume: math.Abs(det)}, nil
}

// Orthorhombic returns the cell with lattice vectors along the axes.
func Orthorhombic(a, b, c float64) (*UnitCell, error) {
	return NewUnitCell([9]float64{a, 0, 0, 0, b, 0, 0, 0, c})
}

// FromParameters builds a cell from the lengths and the angles (alpha between b and c, beta between a
// and c, gamma between a and b, all in degrees). a is put along x, b in the xy plane.
func FromParameters(a, b, c, alpha, beta, gamma float64) (*UnitCell, error) {
	toRad := math.Pi / 180
	ca, cb, cg := math.Cos(alpha*toRad), math.Cos(beta*toRad), math.Cos(gamma*toRad)
	sg := math.Sin(gamma * toRad)
	cx := c * cb
	cy := c * (ca - cb*cg) / sg
	cz := math.Sqrt(c*c - cx*cx - cy*cy)
	return NewUnitCell([9]float64{a, 0, 0, b * cg, b * sg, 0, cx, cy, cz})
}

// Data returns the row-major elements of the direct matrix.
func (U *UnitCell) Data() [9]float64 {
	var ret [9]float64
	copy(ret[:], U.direct.RawMatrix().Data)
	return ret
}

// Direct returns a copy of the direct matrix.
func (U *UnitCell) Direct() *mat.Dense { return mat.DenseCopyOf(U.direct) }

// TransposedDirect returns a copy of the transpose of the direct matrix (lattice vectors as columns).
func (U *UnitCell) TransposedDirect() *mat.Dense { return mat.DenseCopyOf(U.direct.T()) }

// Inverse returns a copy of the inverse of the direct matrix.
func (U *UnitCell) Inverse() *mat.Dense { return mat.DenseCopyOf(U.inverse) }

// TransposedInverse returns a copy of the transpose of the inverse.
func (U *UnitCell) TransposedInverse() *mat.Dense { return mat.DenseCopyOf(U.inverse.T()) }

// Volume returns the volume of the cell.
func (U *UnitCell) Volume() float64 { return U.volume }

// Vector returns the lattice vector i (0 is a, 1 is b, 2 is c).
func (U *UnitCell) Vector(i int) [3]float64 {
	return [3]float64{U.direct.At(i, 0), U.direct.At(i, 1), U.direct.At(i, 2)}
}

// Lengths returns the lengths of the three lattice vectors.
func (U *UnitCell) Lengths() [3]float64 {
	var ret [3]float64
	for i := range ret {
		ret[i] = mat.Norm(U.direct.RowView(i), 2)
	}
	return ret
}

// ToFrac returns the fractional coordinates of the real position x.
func (U *UnitCell) ToFrac(x [3]float64) [3]float64 {
	return rowTimes(x, U.inverse)
}

// ToReal returns the real position for the fractional coordinates f.
func (U *UnitCell) ToReal(f [3]float64) [3]float64 {
	return rowTimes(f, U.direct)
}

// Equal returns true if both cells have the same direct matrix, within tol.
func (U *UnitCell) Equal(V *UnitCell, tol float64) bool {
	return mat.EqualApprox(U.direct, V.direct, tol)
}

func (U *UnitCell) String() string {
	return fmt.Sprintf("UnitCell %v", U.Data())
}

func rowTimes(v [3]float64, M *mat.Dense) [3]float64 {
	var ret [3]float64
	for j := 0; j < 3; j++ {
		ret[j] = v[0]*M.At(0, j) + v[1]*M.At(1, j) + v[2]*M.At(2, j)
	}
	return ret
}

// Round3 rounds each component of v to the nearest integer.
func Round3(v [3]float64) [3]float64 {
	return [3]float64{math.Round(v[0]), math.Round(v[1]), math.Round(v[2])}
}

// MinimumImage returns the real displacement equivalent to d under the lattice translations
// of the cell, obtained by rounding the fractional components.
func (U *UnitCell) MinimumImage(d [3]float64) [3]float64 {
	f := U.ToFrac(d)
	r := Round3(f)
	return U.ToReal([3]float64{f[0] - r[0], f[1] - r[1], f[2] - r[2]})
}
