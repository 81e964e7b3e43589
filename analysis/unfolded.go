/*
 * unfolded.go, part of gotraj.
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
	"github.com/rmera/gotraj/configuration"
	"github.com/rmera/gotraj/configurators"
	"github.com/rmera/gotraj/job"
	"github.com/rmera/gotraj/traj"
)

// UnfoldedName is the name the trajectory unfolding job is registered under.
const UnfoldedName = "UnfoldedTrajectory"

func init() {
	job.Register(UnfoldedName, func() job.Job { return NewUnfoldedTrajectory() })
}

// UnfoldedTrajectory writes a copy of the selected frames where every bonded cluster of atoms
// is in one piece. Aperiodic frames are copied as they are. There is one step per frame, and
// the frames are written in order.
type UnfoldedTrajectory struct {
	cfg    *job.Config
	in     *inputs
	writer *traj.Writer
}

// NewUnfoldedTrajectory returns an unconfigured unfolding job.
func NewUnfoldedTrajectory() *UnfoldedTrajectory { return &UnfoldedTrajectory{} }

func (U *UnfoldedTrajectory) Info() job.Info {
	i := info(UnfoldedName, "Unfolded trajectory", trajectorySetting, framesSetting, outputTrajSetting, runningModeSetting)
	i.Category = "Trajectory"
	i.Sequential = true
	return i
}

func (U *UnfoldedTrajectory) Initialize(cfg *job.Config) (int, error) {
	in, err := lookupInputs(cfg)
	if err != nil {
		return 0, err
	}
	U.cfg, U.in = cfg, in
	out, err := configurators.Lookup[*configurators.OutputTrajectory](cfg.Settings, "output_file")
	if err != nil {
		return 0, err
	}
	if out.Path == in.traj.Path {
		return 0, newError(nil, "UnfoldedTrajectory.Initialize", "the output trajectory would overwrite the input one")
	}
	opts := out.WriterOptions()
	opts.Metadata = map[string]string{"job": UnfoldedName, "run_id": cfg.RunID.String(), "source": in.traj.Path}
	if U.writer, err = traj.NewWriter(out.Path, in.traj.System, in.frames.Number, opts); err != nil {
		return 0, err
	}
	return in.frames.Number, nil
}

type unfoldStepper struct {
	trajStepper
	U *UnfoldedTrajectory
}

func (U *UnfoldedTrajectory) NewStepper() (job.Stepper, error) {
	T, err := reopen(U.in)
	if err != nil {
		return nil, err
	}
	return &unfoldStepper{trajStepper{T}, U}, nil
}

type unfolded struct {
	conf configuration.Configuration
	time float64
}

func (s *unfoldStepper) RunStep(i int) (any, error) {
	frame := s.U.in.frames.Indexes[i]
	conf, err := s.T.Configuration(frame)
	if err != nil {
		return nil, err
	}
	t, err := s.T.Time(frame)
	if err != nil {
		return nil, err
	}
	if !conf.IsPeriodic() {
		return unfolded{conf, t}, nil
	}
	c, err := configuration.ContinuousConfiguration(conf)
	if err != nil {
		return nil, err
	}
	return unfolded{c, t}, nil
}

func (U *UnfoldedTrajectory) Combine(_ int, v any) error {
	u := v.(unfolded)
	return U.writer.DumpConfiguration(u.conf, u.time)
}

func (U *UnfoldedTrajectory) Finalize() error {
	if U.writer == nil {
		return nil
	}
	return U.writer.Close()
}
