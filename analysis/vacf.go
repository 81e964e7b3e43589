/*
 * vacf.go, part of gotraj.
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
	"github.com/rmera/gotraj/configuration"
	"github.com/rmera/gotraj/configurators"
	"github.com/rmera/gotraj/job"
	v3 "github.com/rmera/gotraj/v3"
)

// VACFName is the name the velocity autocorrelation job is registered under.
const VACFName = "VelocityAutoCorrelationFunction"

func init() {
	job.Register(VACFName, func() job.Job { return NewVelocityAutoCorrelationFunction() })
}

// VelocityAutoCorrelationFunction computes <v(t0)·v(t0+t)> for each selected atom, and
// averages it by element. Velocities are read from the trajectory when it has them, and
// otherwise derived from the unwrapped positions by central differences. There is one step
// per selected atom.
type VelocityAutoCorrelationFunction struct {
	cfg       *job.Config
	in        *inputs
	frames    *configurators.CorrelationFrames
	weights   *configurators.Weights
	normalize bool
	axes      [3]bool
	results   [][]float64
	combined  []bool
}

// NewVelocityAutoCorrelationFunction returns an unconfigured VACF job.
func NewVelocityAutoCorrelationFunction() *VelocityAutoCorrelationFunction {
	return &VelocityAutoCorrelationFunction{}
}

func (V *VelocityAutoCorrelationFunction) Info() job.Info {
	return info(VACFName, "Velocity autocorrelation function",
		trajectorySetting, correlationSetting, normalizeSetting, projectionSetting, selectionSetting,
		weightsSetting, outputFilesSetting, runningModeSetting)
}

func (V *VelocityAutoCorrelationFunction) Initialize(cfg *job.Config) (int, error) {
	in, err := lookupInputs(cfg)
	if err != nil {
		return 0, err
	}
	V.cfg, V.in = cfg, in
	if V.frames, err = configurators.Lookup[*configurators.CorrelationFrames](cfg.Settings, "frames"); err != nil {
		return 0, err
	}
	if V.weights, err = configurators.Lookup[*configurators.Weights](cfg.Settings, "weights"); err != nil {
		return 0, err
	}
	norm, err := configurators.Lookup[*configurators.Boolean](cfg.Settings, "normalize")
	if err != nil {
		return 0, err
	}
	V.normalize = norm.Bool
	if V.axes, err = axesOf(cfg); err != nil {
		return 0, err
	}
	if !in.traj.HasVelocities {
		if V.frames.Number < 3 {
			return 0, newError(nil, "VelocityAutoCorrelationFunction.Initialize", "deriving velocities needs at least 3 frames, got %d", V.frames.Number)
		}
		cfg.Logger.Printf("%s: no velocities in %s, deriving them from the positions", VACFName, in.traj.Path)
	}
	n := in.selection.SelectionLength
	V.results = make([][]float64, n)
	V.combined = make([]bool, n)
	return n, nil
}

type vacfStepper struct {
	trajStepper
	V *VelocityAutoCorrelationFunction
}

func (V *VelocityAutoCorrelationFunction) NewStepper() (job.Stepper, error) {
	T, err := reopen(V.in)
	if err != nil {
		return nil, err
	}
	return &vacfStepper{trajStepper{T}, V}, nil
}

// differentiate returns the velocities of positions x sampled every dt, by central
// differences, with one-sided ones at both ends.
func differentiate(x *v3.Matrix, dt float64) *v3.Matrix {
	n := x.NVecs()
	ret := v3.Zeros(n)
	for t := 0; t < n; t++ {
		a, b := max(t-1, 0), min(t+1, n-1)
		d := v3.Sub3(x.Vec(b), x.Vec(a))
		h := float64(b-a) * dt
		ret.SetVec(t, [3]float64{d[0] / h, d[1] / h, d[2] / h})
	}
	return ret
}

func (s *vacfStepper) RunStep(i int) (any, error) {
	V := s.V
	f := V.frames
	idx := V.in.selection.Flat[i]
	var vel *v3.Matrix
	var err error
	if V.in.traj.HasVelocities {
		vel, err = s.T.ReadConfigurationTrajectory(idx, f.First, f.Last, f.Step, configuration.Velocities)
	} else {
		var x *v3.Matrix
		if x, err = s.T.ReadAtomicTrajectory(idx, f.First, f.Last, f.Step, false); err == nil {
			vel = differentiate(x, f.TimeStep)
		}
	}
	if err != nil {
		return nil, err
	}
	for t := 0; t < vel.NVecs(); t++ {
		v := vel.Vec(t)
		for j, keep := range V.axes {
			if !keep {
				v[j] = 0
			}
		}
		vel.SetVec(t, v)
	}
	return chemstat.VectorAutoCorrelation(vel)[:f.NFrames], nil
}

func (V *VelocityAutoCorrelationFunction) Combine(i int, v any) error {
	V.results[i] = v.([]float64)
	V.combined[i] = true
	return nil
}

// Finalize averages the VACF by element, normalizing each to 1 at t=0 if asked, and
// writes them with their weighted total.
func (V *VelocityAutoCorrelationFunction) Finalize() error {
	if V.in == nil || V.in.files == nil {
		return nil
	}
	groups := make([][]int, len(V.in.selection.Flat))
	for i, a := range V.in.selection.Flat {
		groups[i] = []int{a}
	}
	return writeGroupSeries(V.cfg, V.in, groupSeries{
		prefix:    "vacf",
		units:     "nm2/ps2",
		duration:  V.frames.Duration,
		names:     V.in.selection.Names,
		results:   V.results,
		combined:  V.combined,
		weights:   V.weights.GroupWeights(V.in.traj.System, groups),
		normalize: V.normalize,
	})
}
