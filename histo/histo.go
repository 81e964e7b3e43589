/*
 * histo.go, part of gotraj.
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

// Package histo implements histograms with fixed dividers, alone or in matrices that share
// them. Values below the first divider or at or above the last one are not counted.
package histo

import (
	"encoding/json"
	"fmt"
	"sort"
	"strings"

	"gonum.org/v1/gonum/floats"
	"gonum.org/v1/gonum/stat"
)

// Error is returned when histograms can't be combined.
type Error struct {
	msg  string
	deco []string
}

func newError(caller, format string, args ...interface{}) *Error {
	return &Error{msg: fmt.Sprintf(format, args...), deco: []string{caller}}
}

func (err *Error) Error() string { return err.msg }
func (err *Error) Kind() string  { return "HistogramError" }

// Decorate adds dec to the decoration slice and returns it. An empty dec only returns the slice.
func (err *Error) Decorate(dec string) []string {
	if dec != "" {
		err.deco = append(err.deco, dec)
	}
	return err.deco
}

// Data is a histogram. The bin i counts the values v with dividers[i] <= v < dividers[i+1].
type Data struct {
	id         int
	normalized bool
	total      int
	dividers   []float64
	histo      []float64
}

// NewData returns a histogram with the given dividers (at least two, increasing),
// filled with rawdata, which can be nil. An ID can be given; it is -1 otherwise.
func NewData(dividers []float64, rawdata []float64, ID ...int) *Data {
	if len(dividers) < 2 || !sort.Float64sAreSorted(dividers) {
		panic("histo.NewData: at least two sorted dividers are needed")
	}
	d := &Data{id: -1, dividers: append([]float64(nil), dividers...)}
	d.histo = make([]float64, len(dividers)-1)
	if len(ID) > 0 {
		d.id = ID[0]
	}
	if rawdata != nil {
		d.ReHisto(rawdata)
	}
	return d
}

// ID returns the ID of the histogram.
func (D *Data) ID() int { return D.id }

// Total returns the number of values counted.
func (D *Data) Total() int { return D.total }

// Bin returns the bin of v, or -1 if v is out of range.
func (D *Data) Bin(v float64) int {
	last := len(D.dividers) - 1
	if v < D.dividers[0] || v >= D.dividers[last] {
		return -1
	}
	// first divider larger than v, minus one
	return sort.Search(last+1, func(i int) bool { return D.dividers[i] > v }) - 1
}

// AddData counts the given values.
func (D *Data) AddData(point ...float64) {
	norma := D.normalized
	if norma {
		D.UnNormalize()
	}
	for _, v := range point {
		if b := D.Bin(v); b >= 0 {
			D.histo[b]++
			D.total++
		}
	}
	if norma {
		D.Normalize()
	}
}

// ReHisto replaces the content of the histogram with the counts of rawdata, which is sorted
// in place.
func (D *Data) ReHisto(rawdata []float64) {
	sort.Float64s(rawdata)
	// stat.Histogram panics on values out of range.
	lo := sort.SearchFloat64s(rawdata, D.dividers[0])
	hi := sort.SearchFloat64s(rawdata, D.dividers[len(D.dividers)-1])
	rawdata = rawdata[lo:hi]
	D.total = len(rawdata)
	D.histo = stat.Histogram(nil, D.dividers, rawdata, nil)
	D.normalized = false
}

// Normalized returns true if the histogram is normalized.
func (D *Data) Normalized() bool { return D.normalized }

// Normalize divides the bins by the number of values counted.
func (D *Data) Normalize() { D.normaunnorma(true) }

// UnNormalize undoes Normalize.
func (D *Data) UnNormalize() { D.normaunnorma(false) }

func (D *Data) normaunnorma(normalize bool) {
	if D.total <= 0 || D.normalized == normalize {
		return
	}
	n := float64(D.total)
	if normalize {
		n = 1 / n
	}
	D.normalized = normalize
	floats.Scale(n, D.histo)
}

// CopyDividers copies the dividers into dest, if given and large enough, or a new slice.
func (D *Data) CopyDividers(dest ...[]float64) []float64 {
	d := getCopySlice(len(D.dividers), dest...)
	copy(d, D.dividers)
	return d
}

// MidPoints returns the centers of the bins.
func (D *Data) MidPoints() []float64 {
	ret := make([]float64, len(D.histo))
	for i := range ret {
		ret[i] = (D.dividers[i] + D.dividers[i+1]) / 2
	}
	return ret
}

// Copy copies the bins into dest, if given and large enough, or a new slice.
func (D *Data) Copy(dest ...[]float64) []float64 {
	d := getCopySlice(len(D.histo), dest...)
	copy(d, D.histo)
	return d
}

// View returns the bins themselves.
func (D *Data) View() []float64 { return D.histo }

// Sum returns the sum of the bins.
func (D *Data) Sum() float64 { return floats.Sum(D.histo) }

func (D *Data) compatible(o *Data, caller string) error {
	if !floats.Equal(D.dividers, o.dividers) {
		return newError(caller, "histograms with different dividers")
	}
	if D.normalized || o.normalized {
		return newError(caller, "normalized histograms can't be combined")
	}
	return nil
}

// Merge adds the counts of o to the receiver.
func (D *Data) Merge(o *Data) error {
	if err := D.compatible(o, "Data.Merge"); err != nil {
		return err
	}
	floats.Add(D.histo, o.histo)
	D.total += o.total
	return nil
}

// Sub puts a - b in the receiver, bin by bin.
func (D *Data) Sub(a, b *Data) error {
	if err := a.compatible(b, "Data.Sub"); err != nil {
		return err
	}
	D.dividers = a.CopyDividers(D.dividers)
	D.histo = getCopySlice(len(a.histo), D.histo)
	floats.SubTo(D.histo, a.histo, b.histo)
	D.total = a.total
	D.normalized = false
	return nil
}

// String returns a two-line representation of the histogram, after a header line.
func (D *Data) String() string {
	ret := fmt.Sprintf("ID: %d, Normalized: %v, TotalData: %d\n", D.id, D.normalized, D.total)
	d := make([]string, 0, len(D.histo))
	h := make([]string, 0, len(D.histo))
	for i, v := range D.histo {
		d = append(d, fmt.Sprintf("%4.2f-%4.2f", D.dividers[i], D.dividers[i+1]))
		h = append(h, fmt.Sprintf("%9.3f", v))
	}
	return ret + fmt.Sprintf("%s\n%s", strings.Join(d, " "), strings.Join(h, " "))
}

type jsonData struct {
	ID         int       `json:"id"`
	Normalized bool      `json:"normalized"`
	Total      int       `json:"total"`
	Dividers   []float64 `json:"dividers"`
	Histo      []float64 `json:"histo"`
}

func (D *Data) MarshalJSON() ([]byte, error) {
	return json.Marshal(jsonData{D.id, D.normalized, D.total, D.dividers, D.histo})
}

func (D *Data) UnmarshalJSON(b []byte) error {
	var a jsonData
	if err := json.Unmarshal(b, &a); err != nil {
		return err
	}
	if len(a.Dividers) != len(a.Histo)+1 {
		return fmt.Errorf("histo: %d dividers for %d bins", len(a.Dividers), len(a.Histo))
	}
	D.id, D.normalized, D.total, D.dividers, D.histo = a.ID, a.Normalized, a.Total, a.Dividers, a.Histo
	return nil
}

func getCopySlice(N int, dest ...[]float64) []float64 {
	if len(dest) > 0 && len(dest[0]) >= N {
		return dest[0][:N]
	}
	return make([]float64, N)
}
