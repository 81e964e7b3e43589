/*
 * matrix.go, part of gotraj.
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
	"fmt"
	"strings"

	"gonum.org/v1/gonum/floats"
)

// Matrix is a matrix of histograms that share their dividers.
type Matrix struct {
	rows, cols int
	d          []*Data // row-major
	dividers   []float64
}

// NewMatrix returns an r×c matrix of empty histograms with the given dividers.
func NewMatrix(r, c int, dividers []float64) *Matrix {
	M := &Matrix{rows: r, cols: c, d: make([]*Data, r*c), dividers: append([]float64(nil), dividers...)}
	for i := range M.d {
		M.d[i] = NewData(dividers, nil, i)
	}
	return M
}

func (M *Matrix) Dims() (int, int) { return M.rows, M.cols }

// CopyDividers copies the dividers of the histograms.
func (M *Matrix) CopyDividers(dest ...[]float64) []float64 {
	d := getCopySlice(len(M.dividers), dest...)
	copy(d, M.dividers)
	return d
}

// rc2i panics on indexes out of range, like slices do.
func (M *Matrix) rc2i(r, c int) int {
	if r < 0 || r >= M.rows || c < 0 || c >= M.cols {
		panic(fmt.Sprintf("histo.Matrix: index (%d, %d) out of range for %d×%d", r, c, M.rows, M.cols))
	}
	return M.cols*r + c
}

// View returns the histogram at r, c.
func (M *Matrix) View(r, c int) *Data { return M.d[M.rc2i(r, c)] }

// AddData adds values to the histogram at r, c.
func (M *Matrix) AddData(r, c int, point ...float64) {
	M.d[M.rc2i(r, c)].AddData(point...)
}

// Merge adds the counts of each histogram of o to the matching one of the receiver.
func (M *Matrix) Merge(o *Matrix) error {
	if M.rows != o.rows || M.cols != o.cols || !floats.Equal(M.dividers, o.dividers) {
		return newError("Matrix.Merge", "can't merge a %d×%d matrix into a %d×%d one, or dividers differ", o.rows, o.cols, M.rows, M.cols)
	}
	for i, v := range M.d {
		if err := v.Merge(o.d[i]); err != nil {
			return err
		}
	}
	return nil
}

// NormalizeAll normalizes all the histograms.
func (M *Matrix) NormalizeAll() {
	for _, v := range M.d {
		v.Normalize()
	}
}

// UnNormalizeAll un-normalizes all the histograms.
func (M *Matrix) UnNormalizeAll() {
	for _, v := range M.d {
		v.UnNormalize()
	}
}

// FromAll applies f to each histogram, and returns the results as a [][]float64.
func (M *Matrix) FromAll(f func(D *Data) (float64, error)) ([][]float64, error) {
	r := make([][]float64, M.rows)
	for i := range r {
		r[i] = make([]float64, M.cols)
		for j := range r[i] {
			var err error
			if r[i][j], err = f(M.View(i, j)); err != nil {
				return nil, fmt.Errorf("histo.Matrix.FromAll: at %d, %d: %w", i, j, err)
			}
		}
	}
	return r, nil
}

func (M *Matrix) String() string {
	ret := fmt.Sprintf("rows:%d cols:%d | Data:\n", M.rows, M.cols)
	t := make([]string, 0, len(M.d))
	for _, v := range M.d {
		t = append(t, v.String())
	}
	return ret + strings.Join(t, "\n\n")
}

type jsonMatrix struct {
	Rows     int       `json:"rows"`
	Cols     int       `json:"cols"`
	D        []*Data   `json:"data"`
	Dividers []float64 `json:"dividers"`
}

func (M *Matrix) MarshalJSON() ([]byte, error) {
	return json.Marshal(jsonMatrix{M.rows, M.cols, M.d, M.dividers})
}

func (M *Matrix) UnmarshalJSON(b []byte) error {
	var a jsonMatrix
	if err := json.Unmarshal(b, &a); err != nil {
		return err
	}
	if len(a.D) != a.Rows*a.Cols {
		return fmt.Errorf("histo: %d histograms for a %d×%d matrix", len(a.D), a.Rows, a.Cols)
	}
	M.rows, M.cols, M.d, M.dividers = a.Rows, a.Cols, a.D, a.Dividers
	return nil
}
