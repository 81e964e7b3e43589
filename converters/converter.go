/*
 * converter.go, part of gotraj.
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

// Package converters turns foreign trajectories into trajectory containers. The Converter
// job does the common work (writer, folding, ordering of the frames); the subpackages
// implement a Source for each format.
package converters

import (
	"strings"

	chem "github.com/rmera/gotraj"
	"github.com/rmera/gotraj/configuration"
	"github.com/rmera/gotraj/configurators"
	"github.com/rmera/gotraj/job"
	"github.com/rmera/gotraj/traj"
	v3 "github.com/rmera/gotraj/v3"
)

// Frame is a frame read from a foreign file, already in nm and ps.
type Frame struct {
	Coordinates *v3.Matrix
	// Cell is nil for aperiodic frames.
	Cell      *configuration.UnitCell
	Time      float64
	Variables map[string]*v3.Matrix
}

// FrameReader reads frames by index. Each worker gets its own.
type FrameReader interface {
	Frame(i int) (*Frame, error)
	Close() error
}

// Source is a foreign format.
type Source interface {
	// Setup reads the configured settings, builds the chemical system and counts the frames.
	Setup(cfg *job.Config) (*chem.ChemicalSystem, int, error)
	// Open returns a new reader for the frames.
	Open() (FrameReader, error)
}

// Converter is a job that copies the frames of a Source to a trajectory container.
type Converter struct {
	info   job.Info
	src    Source
	system *chem.ChemicalSystem
	writer *traj.Writer
	fold   bool
}

// Settings common to every converter.
func standardSettings() []configurators.Setting {
	return []configurators.Setting{
		{Name: "fold", Kind: configurators.KindBoolean},
		{Name: "output_file", Kind: configurators.KindOutputTrajectory},
		{Name: "running_mode", Kind: configurators.KindRunningMode},
	}
}

// New returns a converter job. settings are those of the source; fold, output_file and
// running_mode are added.
func New(name, label string, settings []configurators.Setting, src Source) *Converter {
	return &Converter{
		info: job.Info{
			Name:       name,
			Label:      label,
			Category:   "Converters",
			Ancestor:   "converter",
			Settings:   append(append([]configurators.Setting(nil), settings...), standardSettings()...),
			Sequential: true,
		},
		src: src,
	}
}

func (C *Converter) Info() job.Info { return C.info }

func (C *Converter) Initialize(cfg *job.Config) (int, error) {
	S, n, err := C.src.Setup(cfg)
	if err != nil {
		return 0, err
	}
	out, err := configurators.Lookup[*configurators.OutputTrajectory](cfg.Settings, "output_file")
	if err != nil {
		return 0, err
	}
	fold, err := configurators.Lookup[*configurators.Boolean](cfg.Settings, "fold")
	if err != nil {
		return 0, err
	}
	opts := out.WriterOptions()
	opts.Metadata = map[string]string{"converter": C.info.Name, "run_id": cfg.RunID.String()}
	for k, v := range cfg.Settings.Parameters() {
		if s, ok := v.(string); ok && strings.HasSuffix(k, "_file") {
			opts.Metadata["source_"+k] = s
		}
	}
	W, err := traj.NewWriter(out.Path, S, n, opts)
	if err != nil {
		return 0, err
	}
	C.system, C.writer, C.fold = S, W, fold.Bool
	cfg.Logger.Printf("%s: converting %d frames of %d atoms to %s", C.info.Name, n, S.NumberOfAtoms(), out.Path)
	return n, nil
}

type converted struct {
	conf configuration.Configuration
	time float64
}

type stepper struct {
	C *Converter
	r FrameReader
}

func (C *Converter) NewStepper() (job.Stepper, error) {
	r, err := C.src.Open()
	if err != nil {
		return nil, err
	}
	return &stepper{C, r}, nil
}

func (s *stepper) RunStep(i int) (any, error) {
	fr, err := s.r.Frame(i)
	if err != nil {
		return nil, err
	}
	conf, err := configuration.NewRealConfiguration(s.C.system, fr.Coordinates, fr.Cell)
	if err != nil {
		return nil, err
	}
	for name, v := range fr.Variables {
		if err := conf.SetVariable(name, v); err != nil {
			return nil, err
		}
	}
	if s.C.fold && conf.IsPeriodic() {
		conf.FoldCoordinates()
	}
	return converted{conf, fr.Time}, nil
}

func (s *stepper) Close() error { return s.r.Close() }

func (C *Converter) Combine(i int, v any) error {
	c := v.(converted)
	return C.writer.DumpConfiguration(c.conf, c.time)
}

func (C *Converter) Finalize() error {
	return C.writer.Close()
}
