/*
 * trajectory.go, part of gotraj.
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

package configurators

import (
	"path/filepath"

	chem "github.com/rmera/gotraj"
	"github.com/rmera/gotraj/configuration"
	"github.com/rmera/gotraj/traj"
)

// Kinds of the trajectory related configurators.
const (
	KindHDFTrajectory     = "HDFTrajectoryConfigurator"
	KindFrames            = "FramesConfigurator"
	KindCorrelationFrames = "CorrelationFramesConfigurator"
)

// HDFTrajectory opens a trajectory container. The raw value is its path.
// Derived keys: instance, length, md_time_step, chemical_system, has_velocities, filename.
type HDFTrajectory struct {
	base
	Trajectory    *traj.Trajectory
	Path          string
	Length        int
	TimeStep      float64
	System        *chem.ChemicalSystem
	HasVelocities bool
}

func NewHDFTrajectory(name string, opts Options) *HDFTrajectory {
	return &HDFTrajectory{base: newBase(KindHDFTrajectory, name, opts)}
}

func (H *HDFTrajectory) Configure(raw any, _ map[string]Configurator) error {
	raw = H.orDefault(raw)
	if raw == nil {
		return newError(H, "HDFTrajectory.Configure", "a trajectory file is required")
	}
	p, err := toString(raw)
	if err != nil {
		return wrapError(err, H, "HDFTrajectory.Configure", "invalid path")
	}
	if p, err = filepath.Abs(p); err != nil {
		return wrapError(err, H, "HDFTrajectory.Configure", "invalid path")
	}
	t, err := traj.Open(p)
	if err != nil {
		return wrapError(err, H, "HDFTrajectory.Configure", "can't open the trajectory")
	}
	H.Close()
	H.Trajectory = t
	H.Path = p
	H.Length = t.Len()
	H.TimeStep = t.TimeStep()
	H.System = t.System()
	H.HasVelocities = t.HasVariable(configuration.Velocities)
	H.set(p, map[string]any{
		"instance":        t,
		"filename":        p,
		"length":          H.Length,
		"md_time_step":    H.TimeStep,
		"chemical_system": H.System,
		"has_velocities":  H.HasVelocities,
	})
	return nil
}

// Close closes the trajectory, if it is open.
func (H *HDFTrajectory) Close() error {
	if H.Trajectory == nil {
		return nil
	}
	err := H.Trajectory.Close()
	H.Trajectory = nil
	return err
}

func trajectoryDep(c Configurator, deps map[string]Configurator, caller string) (*HDFTrajectory, error) {
	t, ok := deps["trajectory"].(*HDFTrajectory)
	if !ok || !t.Configured() {
		return nil, newError(c, caller, "needs a configured trajectory")
	}
	return t, nil
}

// frameRange resolves (first, last, step) against a trajectory of n frames. A missing last
// means the end of the trajectory, a negative one counts from the end, -1 being the end.
func frameRange(c Configurator, f map[string]any, n int, caller string) (first, last, step int, err error) {
	first, last, step = 0, n, 1
	if f["first"] != nil {
		if first, err = toInt(f["first"]); err != nil {
			return 0, 0, 0, wrapError(err, c, caller, "invalid first frame")
		}
	}
	if f["last"] != nil {
		if last, err = toInt(f["last"]); err != nil {
			return 0, 0, 0, wrapError(err, c, caller, "invalid last frame")
		}
		if last < 0 {
			last = n + last + 1
		}
	}
	if f["step"] != nil {
		if step, err = toInt(f["step"]); err != nil {
			return 0, 0, 0, wrapError(err, c, caller, "invalid step")
		}
	}
	return first, last, step, nil
}

// Frames selects (first, last, step) frames of a trajectory, last excluded. The raw value
// is "all", a list or a map with those keys. Requires the "trajectory" role.
// Derived keys: first, last, step, number, time, relative_time, time_step.
type Frames struct {
	base
	First, Last, Step int
	Indexes           []int
	Number            int
	Times             []float64
	RelativeTimes     []float64
	// TimeStep is the time between two selected frames.
	TimeStep float64
}

func NewFrames(name string, opts Options) *Frames {
	return &Frames{base: newBase(KindFrames, name, opts)}
}

func (F *Frames) Requires() []string { return []string{"trajectory"} }

func (F *Frames) resolve(raw any, deps map[string]Configurator, caller string, keys ...string) (map[string]any, error) {
	t, err := trajectoryDep(F, deps, caller)
	if err != nil {
		return nil, err
	}
	raw = F.orDefault(raw)
	if s, ok := raw.(string); ok && s == "all" {
		raw = nil
	}
	fl := map[string]any{}
	if raw != nil {
		if fl, err = fields(raw, keys...); err != nil {
			return nil, wrapError(err, F, caller, "invalid frame specification")
		}
	}
	first, last, step, err := frameRange(F, fl, t.Length, caller)
	if err != nil {
		return nil, err
	}
	idx, err := t.Trajectory.Frames(first, last, step)
	if err != nil {
		return nil, wrapError(err, F, caller, "invalid frames")
	}
	all := t.Trajectory.Times()
	F.First, F.Last, F.Step = first, last, step
	F.Indexes = idx
	F.Number = len(idx)
	F.Times = make([]float64, len(idx))
	F.RelativeTimes = make([]float64, len(idx))
	for i, fr := range idx {
		F.Times[i] = all[fr]
		F.RelativeTimes[i] = all[fr] - all[idx[0]]
	}
	F.TimeStep = t.TimeStep * float64(step)
	if len(idx) > 1 {
		F.TimeStep = F.Times[1] - F.Times[0]
	}
	return fl, nil
}

func (F *Frames) keys() map[string]any {
	return map[string]any{
		"first":         F.First,
		"last":          F.Last,
		"step":          F.Step,
		"number":        F.Number,
		"time":          F.Times,
		"relative_time": F.RelativeTimes,
		"time_step":     F.TimeStep,
	}
}

func (F *Frames) Configure(raw any, deps map[string]Configurator) error {
	if _, err := F.resolve(raw, deps, "Frames.Configure", "first", "last", "step"); err != nil {
		return err
	}
	F.set(F.Indexes, F.keys())
	return nil
}

// CorrelationFrames splits the selected frames into NConfigs time origins and NFrames
// correlation lags, with NConfigs = Number - NFrames + 1. The raw value is like the one
// of Frames, with a fourth entry n_frames that defaults to half the selected frames.
// Derived keys: those of Frames plus n_frames, n_configs, duration.
type CorrelationFrames struct {
	Frames
	NFrames  int
	NConfigs int
	// Duration holds the lag times.
	Duration []float64
}

func NewCorrelationFrames(name string, opts Options) *CorrelationFrames {
	return &CorrelationFrames{Frames: Frames{base: newBase(KindCorrelationFrames, name, opts)}}
}

func (C *CorrelationFrames) Configure(raw any, deps map[string]Configurator) error {
	fl, err := C.resolve(raw, deps, "CorrelationFrames.Configure", "first", "last", "step", "n_frames")
	if err != nil {
		return err
	}
	C.NFrames = (C.Number + 1) / 2
	if fl["n_frames"] != nil {
		if C.NFrames, err = toInt(fl["n_frames"]); err != nil {
			return wrapError(err, C, "CorrelationFrames.Configure", "invalid number of correlation frames")
		}
	}
	if C.NFrames < 1 || C.NFrames > C.Number {
		return newError(C, "CorrelationFrames.Configure", "the number of correlation frames must be in [1, %d], got %d", C.Number, C.NFrames)
	}
	C.NConfigs = C.Number - C.NFrames + 1
	C.Duration = C.RelativeTimes[:C.NFrames]
	k := C.keys()
	k["n_frames"] = C.NFrames
	k["n_configs"] = C.NConfigs
	k["duration"] = C.Duration
	C.set(C.Indexes, k)
	return nil
}
