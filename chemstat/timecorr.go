/*
 * timecorr.go, part of gotraj.
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

// Package chemstat computes time correlation functions of MD observables with FFTs.
package chemstat

import (
	"fmt"
	"math/cmplx"

	v3 "github.com/rmera/gotraj/v3"
	"gonum.org/v1/gonum/dsp/fourier"
)

func cmplxMulConj(dst, b []complex128) {
	if len(dst) != len(b) {
		panic(fmt.Sprintf("complex conjugate multiplication of slices: Both slices should have the same len %d, %d", len(dst), len(b)))
	}
	for i, v := range b {
		dst[i] *= cmplx.Conj(v)
	}
}

// lagSums returns s(k) = Σ_t x_t·y_{t+k} for k in [0, len(x)), via an FFT of the
// zero-padded series.
func lagSums(x, y []float64) []float64 {
	n := len(x)
	if n == 0 {
		return nil
	}
	xp := make([]complex128, 2*n)
	yp := make([]complex128, 2*n)
	for i := range x {
		xp[i] = complex(x[i], 0)
		yp[i] = complex(y[i], 0)
	}
	f := fourier.NewCmplxFFT(2 * n)
	f.Coefficients(xp, xp)
	f.Coefficients(yp, yp)
	// conj(X)·Y transforms back to Σ_t x_t·y_{t+k}
	cmplxMulConj(yp, xp)
	f.Sequence(yp, yp)
	ret := make([]float64, n)
	for k := range ret {
		ret[k] = real(yp[k]) / float64(2*n)
	}
	return ret
}

// CrossCorrelation returns C(k) = <x_t·y_{t+k}>, averaged over the n-k time origins, for
// k in [0, n). x and y must have the same length.
func CrossCorrelation(x, y []float64) []float64 {
	if len(x) != len(y) {
		panic(fmt.Sprintf("chemstat.CrossCorrelation: series of different lengths %d, %d", len(x), len(y)))
	}
	s := lagSums(x, y)
	n := len(x)
	for k := range s {
		s[k] /= float64(n - k)
	}
	return s
}

// AutoCorrelation is CrossCorrelation(x, x).
func AutoCorrelation(x []float64) []float64 {
	return CrossCorrelation(x, x)
}

// VectorAutoCorrelation returns <v_t·v_{t+k}> for the rows of V, one per time.
func VectorAutoCorrelation(V *v3.Matrix) []float64 {
	n := V.NVecs()
	ret := make([]float64, n)
	x := make([]float64, n)
	for j := 0; j < 3; j++ {
		for t := 0; t < n; t++ {
			x[t] = V.Vec(t)[j]
		}
		for k, c := range AutoCorrelation(x) {
			ret[k] += c
		}
	}
	return ret
}

// MeanSquareDisplacement returns <|r_{t+k} - r_t|²>, averaged over the n-k time origins,
// for k in [0, n), with the rows of R as the positions at each time. It uses
// MSD(k) = S1(k) - 2·S2(k), with S2 the position autocorrelation and S1 computed by the
// recursion on the squared norms.
func MeanSquareDisplacement(R *v3.Matrix) []float64 {
	n := R.NVecs()
	if n == 0 {
		return nil
	}
	d := make([]float64, n+1)
	sumsq := 0.0
	for t := 0; t < n; t++ {
		v := R.Vec(t)
		d[t] = v[0]*v[0] + v[1]*v[1] + v[2]*v[2]
		sumsq += d[t]
	}
	s2 := VectorAutoCorrelation(R)
	ret := make([]float64, n)
	q := 2 * sumsq
	for k := 0; k < n; k++ {
		if k > 0 {
			q -= d[k-1] + d[n-k]
		}
		ret[k] = q/float64(n-k) - 2*s2[k]
	}
	return ret
}
