/*
 * histo_test.go, part of gotraj.
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

package histo

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var rawdata = []float64{1, 6, 3, 2, 4, 5, 7, 6, 3.5, 3, 5, 1, 1, 0, 0, 5, 8, 1, 2, 3, 44, 3, 7, 3, 1, 3, 5, 32, 1, -1}

func TestData(Te *testing.T) {
	div := []float64{0, 1, 2, 3, 4, 8}
	D := NewData(div, append([]float64(nil), rawdata...))
	assert.Equal(Te, []float64{2, 6, 2, 7, 9}, D.View())
	assert.Equal(Te, 26, D.Total())
	A := NewData(div, nil)
	A.AddData(rawdata...)
	assert.Equal(Te, D.View(), A.View())
	assert.Equal(Te, D.Total(), A.Total())
	assert.Equal(Te, -1, A.Bin(8))
	assert.Equal(Te, 4, A.Bin(7.99))
	assert.Equal(Te, 0, A.Bin(0))
	assert.Equal(Te, []float64{0.5, 1.5, 2.5, 3.5, 6}, A.MidPoints())

	require.NoError(Te, A.Merge(D))
	assert.Equal(Te, []float64{4, 12, 4, 14, 18}, A.View())
	A.Normalize()
	assert.InDelta(Te, 1.0, A.Sum(), 1e-12)
	assert.Error(Te, A.Merge(D))
	A.UnNormalize()
	assert.InDelta(Te, 52.0, A.Sum(), 1e-12)
	assert.Error(Te, A.Merge(NewData([]float64{0, 1}, nil)))

	j, err := json.Marshal(D)
	require.NoError(Te, err)
	D2 := new(Data)
	require.NoError(Te, json.Unmarshal(j, D2))
	assert.Equal(Te, D.View(), D2.View())
	assert.Equal(Te, D.CopyDividers(), D2.CopyDividers())
}

func TestMatrix(Te *testing.T) {
	div := []float64{0, 1, 2, 3, 4, 8}
	M := NewMatrix(3, 2, div)
	N := NewMatrix(3, 2, div)
	M.AddData(0, 1, rawdata...)
	N.AddData(0, 1, 0.5)
	N.AddData(2, 0, 7)
	require.NoError(Te, M.Merge(N))
	assert.Equal(Te, []float64{3, 6, 2, 7, 9}, M.View(0, 1).View())
	assert.Equal(Te, 1.0, M.View(2, 0).Sum())
	assert.Error(Te, M.Merge(NewMatrix(2, 2, div)))
	sums, err := M.FromAll(func(D *Data) (float64, error) { return D.Sum(), nil })
	require.NoError(Te, err)
	assert.Equal(Te, [][]float64{{0, 27}, {0, 0}, {1, 0}}, sums)
	assert.Panics(Te, func() { M.View(3, 0) })

	j, err := json.Marshal(M)
	require.NoError(Te, err)
	M2 := new(Matrix)
	require.NoError(Te, json.Unmarshal(j, M2))
	r, c := M2.Dims()
	assert.Equal(Te, 3, r)
	assert.Equal(Te, 2, c)
	assert.Equal(Te, M.View(0, 1).View(), M2.View(0, 1).View())
}
