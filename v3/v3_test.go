/*
 * v3_test.go, part of gotraj.
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

package v3

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestSomeVecs(Te *testing.T) {
	a := []float64{1.0, 2.0, 3, 4, 5, 6, 7, 8, 9, 10, 11, 12, 13, 14, 15, 16, 17, 18}
	A, err := NewMatrix(a)
	require.NoError(Te, err)
	B := Zeros(3)
	require.NoError(Te, B.SomeVecsSafe(A, []int{1, 3, 5}))
	require.Equal(Te, [3]float64{4, 5, 6}, B.Vec(0))
	require.Equal(Te, [3]float64{16, 17, 18}, B.Vec(2))
	require.Error(Te, B.SomeVecsSafe(A, []int{1, 7, 5}))
}

func TestVecView(Te *testing.T) {
	A, err := NewMatrix([]float64{1, 2, 3, 4, 5, 6})
	require.NoError(Te, err)
	v := A.VecView(1)
	v.Set(0, 0, 100)
	require.Equal(Te, 100.0, A.At(1, 0))
	C := A.Clone()
	C.Set(0, 0, -1)
	require.Equal(Te, 1.0, A.At(0, 0))
	_, err = NewMatrix([]float64{1, 2})
	require.Error(Te, err)
}

func TestAddVec(Te *testing.T) {
	A, _ := NewMatrix([]float64{1, 2, 3, 4, 5, 6})
	A.SubVec(A, [3]float64{1, 2, 3})
	require.Equal(Te, [3]float64{0, 0, 0}, A.Vec(0))
	require.Equal(Te, [3]float64{3, 3, 3}, A.Vec(1))
	require.InDelta(Te, 5.0, Norm3([3]float64{3, 4, 0}), 1e-12)
}
