/*
 * timecorr_test.go, part of gotraj.
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

package chemstat

import (
	"math"
	"testing"

	v3 "github.com/rmera/gotraj/v3"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func directCorrelation(x, y []float64) []float64 {
	n := len(x)
	ret := make([]float64, n)
	for k := 0; k < n; k++ {
		for t := 0; t+k < n; t++ {
			ret[k] += x[t] * y[t+k]
		}
		ret[k] /= float64(n - k)
	}
	return ret
}

func TestCrossCorrelation(Te *testing.T) {
	x := make([]float64, 37)
	y := make([]float64, 37)
	for i := range x {
		x[i] = math.Sin(0.3*float64(i)) + 0.1*float64(i%5)
		y[i] = math.Cos(0.2 * float64(i))
	}
	assert.InDeltaSlice(Te, directCorrelation(x, y), CrossCorrelation(x, y), 1e-10)
	assert.InDeltaSlice(Te, directCorrelation(x, x), AutoCorrelation(x), 1e-10)
	assert.Panics(Te, func() { CrossCorrelation(x, y[1:]) })
	assert.Nil(Te, AutoCorrelation(nil))
}

func TestMeanSquareDisplacement(Te *testing.T) {
	n := 25
	R := v3.Zeros(n)
	for t := 0; t < n; t++ {
		ft := float64(t)
		R.SetVec(t, [3]float64{0.1 * ft, math.Sin(ft), 0.02 * ft * ft})
	}
	msd := MeanSquareDisplacement(R)
	require.Len(Te, msd, n)
	for k := 0; k < n; k++ {
		want := 0.0
		for t := 0; t+k < n; t++ {
			d := v3.Sub3(R.Vec(t+k), R.Vec(t))
			want += d[0]*d[0] + d[1]*d[1] + d[2]*d[2]
		}
		want /= float64(n - k)
		assert.InDelta(Te, want, msd[k], 1e-9, "lag %d", k)
	}
	assert.InDelta(Te, 0, msd[0], 1e-9)
}
