/*
 * pdf.go, part of gotraj.
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

package analysis

import (
	"math"

	"github.com/rmera/gotraj/configurators"
	"github.com/rmera/gotraj/histo"
	"github.com/rmera/gotraj/job"
	v3 "github.com/rmera/gotraj/v3"
	"gonum.org/v1/gonum/floats"
	"gonum.org/v1/gonum/stat"
)

// PDFName is the name the pair distribution function job is registered under.
const PDFName = "PairDistributionFunction"

func init() {
	job.Register(PDFName, func() job.Job { return NewPairDistributionFunction() })
}

// PairDistributionFunction computes the partial pair distribution functions g_ab(r) of the
// selected atoms, with minimum image distances, and their weighted total. The trajectory
// must be periodic. There is one step per frame.
type PairDistributionFunction struct {
	cfg      *job.Config
	in       *inputs
	r        *configurators.Range
	weights  *configurators.Weights
	elements []string
	counts   map[string]int
	// pair index of each element pair, a <= b in elements order
	pairs   map[[2]int]int
	symbol  []int // element index of each selected atom
	results []pdfFrame
}

type pdfFrame struct {
	hist   *histo.Matrix // one row per pair
	volume float64
	done   bool
}

// NewPairDistributionFunction returns an unconfigured PDF job.
func NewPairDistributionFunction() *PairDistributionFunction { return &PairDistributionFunction{} }

func (P *PairDistributionFunction) Info() job.Info {
	return info(PDFName, "Pair distribution function",
		trajectorySetting, framesSetting, rValues(0.0, 1.0, 0.01), selectionSetting,
		weightsSetting, outputFilesSetting, runningModeSetting)
}

func (P *PairDistributionFunction) Initialize(cfg *job.Config) (int, error) {
	in, err := lookupInputs(cfg)
	if err != nil {
		return 0, err
	}
	P.cfg, P.in = cfg, in
	if P.r, err = configurators.Lookup[*configurators.Range](cfg.Settings, "r_values"); err != nil {
		return 0, err
	}
	if len(P.r.Values) < 2 {
		return 0, newError(nil, "PairDistributionFunction.Initialize", "the r grid needs at least one bin")
	}
	if P.weights, err = configurators.Lookup[*configurators.Weights](cfg.Settings, "weights"); err != nil {
		return 0, err
	}
	if in.selection.SelectionLength < 2 {
		return 0, newError(nil, "PairDistributionFunction.Initialize", "at least two atoms must be selected")
	}
	P.counts, P.elements = elementCounts(in.selection.Names)
	pos := make(map[string]int)
	for i, e := range P.elements {
		pos[e] = i
	}
	P.symbol = make([]int, len(in.selection.Names))
	for i, n := range in.selection.Names {
		P.symbol[i] = pos[n]
	}
	P.pairs = make(map[[2]int]int)
	for a := range P.elements {
		for b := a; b < len(P.elements); b++ {
			P.pairs[[2]int{a, b}] = len(P.pairs)
		}
	}
	P.results = make([]pdfFrame, in.frames.Number)
	return in.frames.Number, nil
}

type pdfStepper struct {
	trajStepper
	P *PairDistributionFunction
}

func (P *PairDistributionFunction) NewStepper() (job.Stepper, error) {
	T, err := reopen(P.in)
	if err != nil {
		return nil, err
	}
	return &pdfStepper{trajStepper{T}, P}, nil
}

func (P *PairDistributionFunction) pair(i, j int) int {
	a, b := P.symbol[i], P.symbol[j]
	if a > b {
		a, b = b, a
	}
	return P.pairs[[2]int{a, b}]
}

// RunStep histograms the minimum image distances between the selected atoms in frame i.
func (s *pdfStepper) RunStep(i int) (any, error) {
	P := s.P
	conf, err := s.T.Configuration(P.in.frames.Indexes[i])
	if err != nil {
		return nil, err
	}
	cell := conf.UnitCell()
	if cell == nil {
		return nil, newError(nil, "PairDistributionFunction.RunStep", "frame %d is not periodic", P.in.frames.Indexes[i])
	}
	sel := P.in.selection.Flat
	x := conf.Coordinates()
	m := histo.NewMatrix(len(P.pairs), 1, P.r.Values)
	for a := 0; a < len(sel); a++ {
		xa := x.Vec(sel[a])
		for b := a + 1; b < len(sel); b++ {
			d := v3.Norm3(cell.MinimumImage(v3.Sub3(x.Vec(sel[b]), xa)))
			m.AddData(P.pair(a, b), 0, d)
		}
	}
	return pdfFrame{hist: m, volume: cell.Volume(), done: true}, nil
}

func (P *PairDistributionFunction) Combine(i int, v any) error {
	P.results[i] = v.(pdfFrame)
	return nil
}

// Finalize turns the pair counts into g_ab(r) = V·n_ab(r)/(N_ab·4πr²·dr·n_frames), with
// N_ab the number of a-b pairs, and writes them with the total
// g(r) = Σ_ab c_a·c_b·w_a·w_b·g_ab(r) / (Σ_a c_a·w_a)², where a ≠ b pairs count twice,
// and the radial distribution 4πr²ρg(r).
func (P *PairDistributionFunction) Finalize() error {
	if P.in == nil || P.in.files == nil {
		return nil
	}
	mids := P.r.MidPoints
	nr := len(mids)
	acc := histo.NewMatrix(len(P.pairs), 1, P.r.Values)
	var volumes []float64
	for _, fr := range P.results {
		if !fr.done {
			continue
		}
		if err := acc.Merge(fr.hist); err != nil {
			return err
		}
		volumes = append(volumes, fr.volume)
	}
	D := P.cfg.NewOutput()
	rv, err := D.Add("r", []int{nr}, []string{"r"}, "nm")
	if err != nil {
		return err
	}
	copy(rv.Data, mids)
	nframes := float64(len(volumes))
	volume := 0.0
	if len(volumes) > 0 {
		volume = stat.Mean(volumes, nil)
	}
	natoms := float64(len(P.symbol))
	w := P.weights.Weights()
	conc := make([]float64, len(P.elements))
	norm := 0.0
	for a, e := range P.elements {
		conc[a] = float64(P.counts[e]) / natoms
		norm += conc[a] * w[e]
	}
	total := make([]float64, nr)
	for a, ea := range P.elements {
		for b := a; b < len(P.elements); b++ {
			eb := P.elements[b]
			na, nb := float64(P.counts[ea]), float64(P.counts[eb])
			npairs := na * nb
			if a == b {
				npairs = na * (na - 1) / 2
			}
			g, err := D.Add("pdf_"+ea+"-"+eb, []int{nr}, []string{"r"}, "")
			if err != nil {
				return err
			}
			bins := acc.View(P.pairs[[2]int{a, b}], 0).View()
			if npairs > 0 && nframes > 0 {
				for k, n := range bins {
					dr := P.r.Values[k+1] - P.r.Values[k]
					g.Data[k] = volume * n / (npairs * 4 * math.Pi * mids[k] * mids[k] * dr * nframes)
				}
			}
			f := conc[a] * conc[b] * w[ea] * w[eb]
			if a != b {
				f *= 2
			}
			floats.AddScaled(total, f, g.Data)
		}
	}
	if norm != 0 {
		floats.Scale(1/(norm*norm), total)
	}
	tv, err := D.Add("pdf_total", []int{nr}, []string{"r"}, "")
	if err != nil {
		return err
	}
	copy(tv.Data, total)
	rdf, err := D.Add("rdf_total", []int{nr}, []string{"r"}, "nm^-1")
	if err != nil {
		return err
	}
	if volume > 0 {
		rho := natoms / volume
		for k, r := range mids {
			rdf.Data[k] = 4 * math.Pi * r * r * rho * total[k]
		}
	}
	return write(P.cfg, D, P.in.files)
}
