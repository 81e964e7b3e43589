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

package lammps

import (
	"path/filepath"

	chem "github.com/rmera/gotraj"
	"github.com/rmera/gotraj/configuration"
	"github.com/rmera/gotraj/configurators"
	"github.com/rmera/gotraj/converters"
	"github.com/rmera/gotraj/job"
)

// JobName is the name the LAMMPS converter is registered under.
const JobName = "LAMMPS"

func init() {
	job.Register(JobName, func() job.Job { return NewConverter() })
}

type source struct {
	dump  string
	ids   map[int]int
	units Units
}

// NewConverter returns the LAMMPS converter job. Its settings are config_file (a data file),
// trajectory_file (a text dump), atom_aliases ("type=symbol" pairs) and the unit factors
// lengths_unit, time_step, velocities_unit and forces_unit, plus the common converter ones.
// With detect_bonds, a data file without bonds or molecule IDs gets its bonds from the
// covalent radii of the atoms.
func NewConverter() *converters.Converter {
	pos := configurators.F(0)
	settings := []configurators.Setting{
		{Name: "config_file", Kind: configurators.KindInputFile},
		{Name: "trajectory_file", Kind: configurators.KindInputFile},
		{Name: "atom_aliases", Kind: configurators.KindString},
		{Name: "detect_bonds", Kind: configurators.KindBoolean, Options: configurators.Options{Default: true}},
		{Name: "lengths_unit", Kind: configurators.KindFloat, Options: configurators.Options{Default: DefaultUnits.Length, Min: pos}},
		{Name: "time_step", Kind: configurators.KindFloat, Options: configurators.Options{Default: DefaultUnits.TimeStep, Min: pos}},
		{Name: "velocities_unit", Kind: configurators.KindFloat, Options: configurators.Options{Default: DefaultUnits.Velocity, Min: pos}},
		{Name: "forces_unit", Kind: configurators.KindFloat, Options: configurators.Options{Default: DefaultUnits.Force, Min: pos}},
	}
	return converters.New(JobName, "LAMMPS trajectory converter", settings, &source{})
}

func (s *source) Setup(cfg *job.Config) (*chem.ChemicalSystem, int, error) {
	conf, err := configurators.Lookup[*configurators.InputFile](cfg.Settings, "config_file")
	if err != nil {
		return nil, 0, err
	}
	dump, err := configurators.Lookup[*configurators.InputFile](cfg.Settings, "trajectory_file")
	if err != nil {
		return nil, 0, err
	}
	al, err := configurators.Lookup[*configurators.String](cfg.Settings, "atom_aliases")
	if err != nil {
		return nil, 0, err
	}
	detect, err := configurators.Lookup[*configurators.Boolean](cfg.Settings, "detect_bonds")
	if err != nil {
		return nil, 0, err
	}
	var units Units
	for name, dst := range map[string]*float64{
		"lengths_unit":    &units.Length,
		"time_step":       &units.TimeStep,
		"velocities_unit": &units.Velocity,
		"forces_unit":     &units.Force,
	} {
		f, err := configurators.Lookup[*configurators.Float](cfg.Settings, name)
		if err != nil {
			return nil, 0, err
		}
		*dst = f.Float
	}
	aliases, err := converters.ParseAliases(al.String)
	if err != nil {
		return nil, 0, &LAMMPSConfigFileError{converters.WrapFormatError(err, conf.Path, 0, "source.Setup", "invalid atom aliases")}
	}
	C, err := ReadConfigFile(conf.Path, aliases, units.Length)
	if err != nil {
		return nil, 0, err
	}
	if detect.Bool && !C.HasTopology() {
		if _, err := C.DetectTopology(configuration.DefaultBondTolerance); err != nil {
			return nil, 0, err
		}
	}
	S, err := C.System(filepath.Base(conf.Path))
	if err != nil {
		return nil, 0, err
	}
	ids := C.IDIndexes()
	D, err := OpenDump(dump.Path, ids, units)
	if err != nil {
		return nil, 0, err
	}
	defer D.Close()
	s.dump, s.ids, s.units = dump.Path, ids, units
	return S, D.NFrames(), nil
}

func (s *source) Open() (converters.FrameReader, error) {
	return OpenDump(s.dump, s.ids, s.units)
}
