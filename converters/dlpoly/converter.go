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

package dlpoly

import (
	"path/filepath"

	chem "github.com/rmera/gotraj"
	"github.com/rmera/gotraj/configurators"
	"github.com/rmera/gotraj/converters"
	"github.com/rmera/gotraj/job"
)

// JobName is the name the DL_POLY converter is registered under.
const JobName = "DL_POLY"

func init() {
	job.Register(JobName, func() job.Job { return NewConverter() })
}

// source reads the FIELD and HISTORY files named in the settings.
type source struct {
	history string
	version string
}

// NewConverter returns the DL_POLY converter job. Its settings are field_file, history_file,
// version ("2", "3" or "4") and atom_aliases ("name=symbol" pairs), plus the common converter ones.
func NewConverter() *converters.Converter {
	settings := []configurators.Setting{
		{Name: "field_file", Kind: configurators.KindInputFile},
		{Name: "history_file", Kind: configurators.KindInputFile},
		{Name: "version", Kind: configurators.KindString, Options: configurators.Options{Default: "2", Choices: Versions()}},
		{Name: "atom_aliases", Kind: configurators.KindString},
	}
	return converters.New(JobName, "DL_POLY trajectory converter", settings, &source{})
}

func (s *source) Setup(cfg *job.Config) (*chem.ChemicalSystem, int, error) {
	field, err := configurators.Lookup[*configurators.InputFile](cfg.Settings, "field_file")
	if err != nil {
		return nil, 0, err
	}
	history, err := configurators.Lookup[*configurators.InputFile](cfg.Settings, "history_file")
	if err != nil {
		return nil, 0, err
	}
	version, err := configurators.Lookup[*configurators.String](cfg.Settings, "version")
	if err != nil {
		return nil, 0, err
	}
	al, err := configurators.Lookup[*configurators.String](cfg.Settings, "atom_aliases")
	if err != nil {
		return nil, 0, err
	}
	aliases, err := converters.ParseAliases(al.String)
	if err != nil {
		return nil, 0, &FieldFileError{converters.WrapFormatError(err, field.Path, 0, "source.Setup", "invalid atom aliases")}
	}
	F, err := ReadFieldFile(field.Path, aliases)
	if err != nil {
		return nil, 0, err
	}
	S, err := F.System(filepath.Base(field.Path))
	if err != nil {
		return nil, 0, err
	}
	H, err := OpenHistory(history.Path, version.String)
	if err != nil {
		return nil, 0, err
	}
	defer H.Close()
	if H.NAtoms != S.NumberOfAtoms() {
		return nil, 0, H.fail(2, "the HISTORY file has %d atoms, the FIELD file %d", H.NAtoms, S.NumberOfAtoms())
	}
	s.history, s.version = history.Path, version.String
	return S, H.NFrames, nil
}

func (s *source) Open() (converters.FrameReader, error) {
	return OpenHistory(s.history, s.version)
}
