/*
 * msd.go, part of gotraj.
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
	"github.com/rmera/gotraj/chemstat"
	"github.com/rmera/gotraj/configurators"
	"github.com/rmera/gotraj/job"
	v3 "github.com/rmera/gotraj/v3"
)

// MSDName is the name the mean square displacement job is registered under.
const MSDName = "MeanSquareDisplacement"

func init() {
	job.Register(MSDName, func() job.Job { return NewMeanSquareDisplacement() })
}

// MeanSquareDisplacement computes <|r(t0+t) - r(t0)|²> for each group of the selected atoms,
// at the grouping level chosen, on the unwrapped trajectory of the group's center of mass.
// Only the projection axes chosen contribute. There is one step per group.
type MeanSquareDisplacement struct {
	cfg      *job.Config
	in       *inputs
	frames   *configurators.CorrelationFrames
	groups   *configurators.GroupingLevel
	weights  *configurators.Weights
	axes     [3]bool
	results  [][]float64
	combined []bool
}

// NewMeanSquareDisplacement returns an unconfigured MSD job.
func NewMeanSquareDisplacement() *MeanSquareDisplacement { return &MeanSquareDisplacement{} }

func (M *MeanSquareDisplacement) Info() job.Info {
	return info(MSDName, "Mean square displacement",
		trajectorySetting, correlationSetting, projectionSetting, selectionSetting, groupingSetting,
		weightsSetting, outputFilesSetting, runningModeSetting)
}

// axesOf returns which of x, y, z are in the projection.
func axesOf(cfg *job.Config) ([3]bool, error) {
	var ret [3]bool
	p, err := configurators.Lookup[*configurators.MultipleChoices](cfg.Settings, "project_coordinates")
	if err != nil {
		return ret, err
	}
	for _, a := range p.Selected {
		ret[a[0]-'x'] = true
	}
	if !ret[0] && !ret[1] && !ret[2] {
		return ret, newError(nil, "axesOf", "no axis to project on")
	}
	return ret, nil
}

func (M *MeanSquareDisplacement) Initialize(cfg *job.Config) (int, error) {
	in, err := lookupInputs(cfg)
	if err != nil {
		return 0, err
	}
	M.cfg, M.in = cfg, in
	if M.frames, err = configurators.Lookup[*configurators.CorrelationFrames](cfg.Settings, "frames"); err != nil {
		return 0, err
	}
	if M.groups, err = configurators.Lookup[*configurators.GroupingLevel](cfg.Settings, "grouping_level"); err != nil {
		return 0, err
	}
	if M.weights, err = configurators.Lookup[*configurators.Weights](cfg.Settings, "weights"); err != nil {
		return 0, err
	}
	if M.axes, err = axesOf(cfg); err != nil {
		return 0, err
	}
	n := M.groups.SelectionLength
	M.results = make([][]float64, n)
	M.combined = make([]bool, n)
	return n, nil
}

type msdStepper struct {
	trajStepper
	M *MeanSquareDisplacement
}

func (M *MeanSquareDisplacement) NewStepper() (job.Stepper, error) {
	T, err := reopen(M.in)
	if err != nil {
		return nil, err
	}
	return &msdStepper{trajStepper{T}, M}, nil
}

// series returns the unwrapped trajectory of group g: the atom itself, or the center of mass.
func series(s *trajStepper, group []int, f *configurators.Frames) (*v3.Matrix, error) {
	if len(group) == 1 {
		return s.T.ReadAtomicTrajectory(group[0], f.First, f.Last, f.Step, false)
	}
	return s.T.ReadCOMTrajectory(group, f.First, f.Last, f.Step, false, nil)
}

func (s *msdStepper) RunStep(i int) (any, error) {
	M := s.M
	x, err := series(&s.trajStepper, M.groups.Indexes[i], &M.frames.Frames)
	if err != nil {
		return nil, err
	}
	for t := 0; t < x.NVecs(); t++ {
		v := x.Vec(t)
		for j, keep := range M.axes {
			if !keep {
				v[j] = 0
			}
		}
		x.SetVec(t, v)
	}
	return chemstat.MeanSquareDisplacement(x)[:M.frames.NFrames], nil
}

func (M *MeanSquareDisplacement) Combine(i int, v any) error {
	M.results[i] = v.([]float64)
	M.combined[i] = true
	return nil
}

// Finalize averages the MSD of the groups of each name, and writes them with their
// weighted total.
func (M *MeanSquareDisplacement) Finalize() error {
	if M.in == nil || M.in.files == nil {
		return nil
	}
	return writeGroupSeries(M.cfg, M.in, groupSeries{
		prefix:   "msd",
		units:    "nm2",
		duration: M.frames.Duration,
		names:    M.groups.Names,
		results:  M.results,
		combined: M.combined,
		weights:  M.weights.GroupWeights(M.in.traj.System, M.groups.Indexes),
	})
}

// groupSeries are per-group time series to be averaged by group name.
type groupSeries struct {
	prefix, units string
	duration      []float64
	names         []string
	results       [][]float64
	combined      []bool
	weights       []float64
	normalize     bool
}

// writeGroupSeries writes the time axis, the average series of each group name, in step
// order, and their total weighted by concentration and weight of each name.
func writeGroupSeries(cfg *job.Config, in *inputs, gs groupSeries) error {
	D := cfg.NewOutput()
	nt := len(gs.duration)
	tv, err := D.Add("time", []int{nt}, []string{"time"}, "ps")
	if err != nil {
		return err
	}
	copy(tv.Data, gs.duration)
	sums := make(map[string][]float64)
	counts := make(map[string]int)
	weights := make(map[string]float64)
	for i, r := range gs.results {
		if !gs.combined[i] {
			continue
		}
		name := gs.names[i]
		if sums[name] == nil {
			sums[name] = make([]float64, nt)
			weights[name] = gs.weights[i]
		}
		for t, v := range r {
			sums[name][t] += v
		}
		counts[name]++
	}
	_, names := elementCounts(gs.names)
	var present []string
	for _, name := range names {
		s := sums[name]
		if s == nil {
			continue
		}
		for t := range s {
			s[t] /= float64(counts[name])
		}
		if s0 := s[0]; gs.normalize && s0 != 0 {
			for t := range s {
				s[t] /= s0
			}
		}
		v, err := D.Add(gs.prefix+"_"+name, []int{nt}, []string{"time"}, gs.units)
		if err != nil {
			return err
		}
		copy(v.Data, s)
		present = append(present, name)
	}
	total, err := D.Add(gs.prefix+"_total", []int{nt}, []string{"time"}, gs.units)
	if err != nil {
		return err
	}
	if len(present) > 0 {
		copy(total.Data, weightedSum(present, sums, counts, weights))
	}
	return write(cfg, D, in.files)
}
