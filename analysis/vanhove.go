/*
 * vanhove.go, part of gotraj.
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
)

// VanHoveName is the name the van Hove self function job is registered under.
const VanHoveName = "VanHoveFunctionSelf"

func init() {
	job.Register(VanHoveName, func() job.Job { return NewVanHoveFunctionSelf() })
}

// VanHoveFunctionSelf computes the self part of the van Hove function, G_s(r, t): the
// distribution of the distances travelled by an atom during a time t, averaged over the time
// origins and the atoms of each element. There is one step per selected atom.
type VanHoveFunctionSelf struct {
	cfg     *job.Config
	in      *inputs
	frames  *configurators.CorrelationFrames
	r       *configurators.Range
	weights *configurators.Weights
	// one histogram per lag, by element
	histos map[string]*histo.Matrix
}

// NewVanHoveFunctionSelf returns an unconfigured van Hove self function job.
func NewVanHoveFunctionSelf() *VanHoveFunctionSelf { return &VanHoveFunctionSelf{} }

func (V *VanHoveFunctionSelf) Info() job.Info {
	return info(VanHoveName, "Van Hove function (self part)",
		trajectorySetting, correlationSetting, rValues(0.0, 1.0, 0.01), selectionSetting,
		weightsSetting, outputFilesSetting, runningModeSetting)
}

func (V *VanHoveFunctionSelf) Initialize(cfg *job.Config) (int, error) {
	in, err := lookupInputs(cfg)
	if err != nil {
		return 0, err
	}
	V.cfg, V.in = cfg, in
	if V.frames, err = configurators.Lookup[*configurators.CorrelationFrames](cfg.Settings, "frames"); err != nil {
		return 0, err
	}
	if V.r, err = configurators.Lookup[*configurators.Range](cfg.Settings, "r_values"); err != nil {
		return 0, err
	}
	if len(V.r.Values) < 2 {
		return 0, newError(nil, "VanHoveFunctionSelf.Initialize", "the r grid needs at least one bin")
	}
	if V.weights, err = configurators.Lookup[*configurators.Weights](cfg.Settings, "weights"); err != nil {
		return 0, err
	}
	V.histos = make(map[string]*histo.Matrix)
	return in.selection.SelectionLength, nil
}

type vanHoveStepper struct {
	trajStepper
	V *VanHoveFunctionSelf
}

func (V *VanHoveFunctionSelf) NewStepper() (job.Stepper, error) {
	T, err := reopen(V.in)
	if err != nil {
		return nil, err
	}
	return &vanHoveStepper{trajStepper{T}, V}, nil
}

type vanHoveResult struct {
	element string
	m       *histo.Matrix
}

// RunStep histograms the displacements of the i-th selected atom, for each lag.
func (s *vanHoveStepper) RunStep(i int) (any, error) {
	V := s.V
	f := V.frames
	x, err := s.T.ReadAtomicTrajectory(V.in.selection.Flat[i], f.First, f.Last, f.Step, false)
	if err != nil {
		return nil, err
	}
	m := histo.NewMatrix(f.NFrames, 1, V.r.Values)
	d := make([]float64, f.NConfigs)
	for lag := 0; lag < f.NFrames; lag++ {
		for o := 0; o < f.NConfigs; o++ {
			d[o] = v3.Norm3(v3.Sub3(x.Vec(o+lag), x.Vec(o)))
		}
		m.AddData(lag, 0, d...)
	}
	return vanHoveResult{V.in.selection.Names[i], m}, nil
}

func (V *VanHoveFunctionSelf) Combine(_ int, v any) error {
	r := v.(vanHoveResult)
	acc, ok := V.histos[r.element]
	if !ok {
		V.histos[r.element] = r.m
		return nil
	}
	return acc.Merge(r.m)
}

// Finalize normalizes the histograms into G_s(r, t) = n(r, t)/(N·n_origins·4πr²·dr) per element,
// and writes them with their weighted total. The 4πr²·G_s(r, t) curves are also written.
func (V *VanHoveFunctionSelf) Finalize() error {
	if V.in == nil || V.in.files == nil {
		return nil
	}
	f := V.frames
	mids := V.r.MidPoints
	nr := len(mids)
	counts, elements := elementCounts(V.in.selection.Names)
	D := V.cfg.NewOutput()
	if _, err := D.Add("r", []int{nr}, []string{"r"}, "nm"); err != nil {
		return err
	}
	copy(D.Get("r").Data, mids)
	if _, err := D.Add("time", []int{f.NFrames}, []string{"time"}, "ps"); err != nil {
		return err
	}
	copy(D.Get("time").Data, f.Duration)
	g := make(map[string][]float64)
	p := make(map[string][]float64)
	for _, e := range elements {
		m, ok := V.histos[e]
		if !ok {
			// stopped before any atom of e was processed
			m = histo.NewMatrix(f.NFrames, 1, V.r.Values)
		}
		gv, err := D.Add("g(r,t)_"+e, []int{nr, f.NFrames}, []string{"r", "time"}, "nm^-3")
		if err != nil {
			return err
		}
		pv, err := D.Add("4_pi_r2_g(r,t)_"+e, []int{nr, f.NFrames}, []string{"r", "time"}, "nm^-1")
		if err != nil {
			return err
		}
		norm := float64(counts[e]) * float64(f.NConfigs)
		for t := 0; t < f.NFrames; t++ {
			bins := m.View(t, 0).View()
			for k, n := range bins {
				dr := V.r.Values[k+1] - V.r.Values[k]
				density := n / norm / dr
				pv.Set(density, k, t)
				gv.Set(density/(4*math.Pi*mids[k]*mids[k]), k, t)
			}
		}
		g[e], p[e] = gv.Data, pv.Data
	}
	w := V.weights.Weights()
	for _, t := range []struct {
		name, units string
		series      map[string][]float64
	}{
		{"g(r,t)_total", "nm^-3", g},
		{"4_pi_r2_g(r,t)_total", "nm^-1", p},
	} {
		tv, err := D.Add(t.name, []int{nr, f.NFrames}, []string{"r", "time"}, t.units)
		if err != nil {
			return err
		}
		copy(tv.Data, weightedSum(elements, t.series, counts, w))
	}
	return write(V.cfg, D, V.in.files)
}
