/*
 * config.go, part of gotraj.
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

// Package lammps reads LAMMPS data (configuration) files and text dump files, and converts
// them to trajectory containers.
package lammps

import (
	"bufio"
	"fmt"
	"os"
	"strconv"
	"strings"

	chem "github.com/rmera/gotraj"
	"github.com/rmera/gotraj/configuration"
	"github.com/rmera/gotraj/converters"
	v3 "github.com/rmera/gotraj/v3"
	"golang.org/x/exp/slices"
)

// LAMMPSConfigFileError is returned for invalid data files.
type LAMMPSConfigFileError struct{ *converters.FormatError }

func (*LAMMPSConfigFileError) Kind() string { return "LAMMPSConfigFileError" }

// LAMMPSTrajectoryFileError is returned for invalid dump files.
type LAMMPSTrajectoryFileError struct{ *converters.FormatError }

func (*LAMMPSTrajectoryFileError) Kind() string { return "LAMMPSTrajectoryFileError" }

// MassTolerance is used to match the type masses with elements.
const MassTolerance = 0.5

// Atom styles understood in the Atoms section.
const (
	StyleAtomic    = "atomic"
	StyleCharge    = "charge"
	StyleMolecular = "molecular"
	StyleFull      = "full"
)

// ConfigAtom is a record of the Atoms section. Mol is 0 for styles without molecules.
type ConfigAtom struct {
	ID     int
	Mol    int
	Type   int
	Charge float64
	Symbol string
	Pos    [3]float64 // nm
}

// ConfigFile is the content of a LAMMPS data file that matters for a conversion. Atoms
// are sorted by ID, and Bonds are pairs of atom IDs.
type ConfigFile struct {
	Path   string
	Title  string
	Style  string
	NTypes int
	Box    [9]float64 // lattice vectors as rows, in nm
	Masses map[int]float64
	Atoms  []ConfigAtom
	Bonds  [][2]int
}

type scanner struct {
	path    string
	sc      *bufio.Scanner
	n       int
	comment string
}

// next returns the fields of the next non-blank line without its comment, which is kept
// in s.comment.
func (s *scanner) next() ([]string, bool) {
	for s.sc.Scan() {
		s.n++
		text, comment, _ := strings.Cut(s.sc.Text(), "#")
		f := strings.Fields(text)
		if len(f) == 0 {
			continue
		}
		s.comment = strings.TrimSpace(comment)
		return f, true
	}
	return nil, false
}

func (s *scanner) fail(format string, args ...interface{}) error {
	return &LAMMPSConfigFileError{converters.NewFormatError(s.path, s.n, "ReadConfigFile", format, args...)}
}

func isNumber(s string) bool {
	_, err := strconv.ParseFloat(s, 64)
	return err == nil
}

// section reads the numeric lines of a section, passing them to fn, and returns the name of
// the next section, such as "Atoms" or "Pair Coeffs", or "" at the end of the file.
func (s *scanner) section(fn func([]string) error) (string, error) {
	for {
		fl, ok := s.next()
		if !ok {
			return "", nil
		}
		if !isNumber(fl[0]) {
			return strings.Join(fl, " "), nil
		}
		if err := fn(fl); err != nil {
			return "", err
		}
	}
}

// ReadConfigFile parses a data file. aliases maps atom type numbers (as strings) to element
// symbols; types without alias get the element whose mass matches within MassTolerance.
// lengthFactor converts the box and the positions to nm.
func ReadConfigFile(path string, aliases map[string]string, lengthFactor float64) (*ConfigFile, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, &LAMMPSConfigFileError{converters.WrapFormatError(err, path, 0, "ReadConfigFile", "can't open the file")}
	}
	defer f.Close()
	s := &scanner{path: path, sc: bufio.NewScanner(f)}
	C := &ConfigFile{Path: path, Masses: make(map[int]float64)}
	if s.sc.Scan() {
		s.n++
		C.Title = strings.TrimSpace(s.sc.Text())
	}
	var natoms, nbonds, boxSeen int
	var lo, hi, tilt [3]float64
	header := func(fl []string) error {
		var err error
		n := len(fl)
		switch {
		case n == 2 && fl[1] == "atoms":
			natoms, err = strconv.Atoi(fl[0])
		case n == 2 && fl[1] == "bonds":
			nbonds, err = strconv.Atoi(fl[0])
		case n == 3 && fl[1] == "atom" && fl[2] == "types":
			C.NTypes, err = strconv.Atoi(fl[0])
		case n == 4 && fl[2][1:] == "lo" && fl[3] == fl[2][:1]+"hi" && strings.Contains("xyz", fl[2][:1]):
			k := int(fl[2][0] - 'x')
			if lo[k], err = strconv.ParseFloat(fl[0], 64); err == nil {
				hi[k], err = strconv.ParseFloat(fl[1], 64)
			}
			boxSeen++
		case n == 6 && strings.Join(fl[3:], " ") == "xy xz yz":
			for k := 0; k < 3 && err == nil; k++ {
				tilt[k], err = strconv.ParseFloat(fl[k], 64)
			}
		}
		if err != nil {
			return s.fail("invalid header line: %v", err)
		}
		return nil
	}
	section, err := s.section(header)
	if err != nil {
		return nil, err
	}
	if natoms < 1 {
		return nil, s.fail("the header declares no atoms")
	}
	if boxSeen != 3 {
		return nil, s.fail("the header needs the xlo xhi, ylo yhi and zlo zhi lines")
	}
	C.Box = [9]float64{
		hi[0] - lo[0], 0, 0,
		tilt[0], hi[1] - lo[1], 0,
		tilt[1], tilt[2], hi[2] - lo[2],
	}
	for section != "" {
		switch section {
		case "Masses":
			section, err = s.section(func(fl []string) error { return C.mass(s, fl) })
		case "Atoms":
			style := s.comment
			section, err = s.section(func(fl []string) error { return C.atom(s, style, fl) })
		case "Bonds":
			section, err = s.section(func(fl []string) error { return C.bond(s, fl) })
		default:
			section, err = s.section(func([]string) error { return nil })
		}
		if err != nil {
			return nil, err
		}
	}
	if len(C.Atoms) != natoms {
		return nil, s.fail("the header declares %d atoms, the Atoms section has %d", natoms, len(C.Atoms))
	}
	if len(C.Bonds) != nbonds {
		return nil, s.fail("the header declares %d bonds, the Bonds section has %d", nbonds, len(C.Bonds))
	}
	slices.SortFunc(C.Atoms, func(a, b ConfigAtom) int { return a.ID - b.ID })
	for i := range C.Atoms {
		a := &C.Atoms[i]
		if i > 0 && a.ID == C.Atoms[i-1].ID {
			return nil, s.fail("atom ID %d is repeated", a.ID)
		}
		sym, err := typeElement(a.Type, C.Masses[a.Type], aliases)
		if err != nil {
			return nil, s.fail("atom %d: %v", a.ID, err)
		}
		a.Symbol = sym
	}
	for i := range C.Box {
		C.Box[i] *= lengthFactor
	}
	for i := range C.Atoms {
		for k := range C.Atoms[i].Pos {
			C.Atoms[i].Pos[k] *= lengthFactor
		}
	}
	return C, nil
}

func (C *ConfigFile) mass(s *scanner, fl []string) error {
	if len(fl) < 2 {
		return s.fail("invalid Masses record")
	}
	t, err1 := strconv.Atoi(fl[0])
	m, err2 := strconv.ParseFloat(fl[1], 64)
	if err1 != nil || err2 != nil {
		return s.fail("invalid Masses record %v", fl)
	}
	C.Masses[t] = m
	return nil
}

// guessStyle returns the atom style for records of n columns (optionally followed by three
// image flags). Six columns are read as molecular unless the hint says charge.
func guessStyle(n int, hint string) (string, bool) {
	switch n {
	case 5, 8:
		return StyleAtomic, true
	case 7, 10:
		return StyleFull, true
	case 6, 9:
		if hint == StyleCharge {
			return StyleCharge, true
		}
		return StyleMolecular, true
	}
	return "", false
}

// atom parses an Atoms record. The style comes from the section comment, as in
// "Atoms # full", or from the number of columns.
func (C *ConfigFile) atom(s *scanner, hint string, fl []string) error {
	if C.Style == "" {
		switch hint {
		case StyleAtomic, StyleCharge, StyleMolecular, StyleFull:
			C.Style = hint
		default:
			st, ok := guessStyle(len(fl), hint)
			if !ok {
				return s.fail("can't guess the atom style of a %d-column record", len(fl))
			}
			C.Style = st
		}
	}
	var cols []string
	switch C.Style {
	case StyleAtomic:
		cols = []string{"id", "type"}
	case StyleCharge:
		cols = []string{"id", "type", "q"}
	case StyleMolecular:
		cols = []string{"id", "mol", "type"}
	case StyleFull:
		cols = []string{"id", "mol", "type", "q"}
	}
	if len(fl) < len(cols)+3 {
		return s.fail("%s atom records need %d columns", C.Style, len(cols)+3)
	}
	var a ConfigAtom
	for k, c := range cols {
		var err error
		switch c {
		case "id":
			a.ID, err = strconv.Atoi(fl[k])
		case "mol":
			a.Mol, err = strconv.Atoi(fl[k])
		case "type":
			a.Type, err = strconv.Atoi(fl[k])
		case "q":
			a.Charge, err = strconv.ParseFloat(fl[k], 64)
		}
		if err != nil {
			return s.fail("invalid %s column: %v", c, err)
		}
	}
	for k := range a.Pos {
		var err error
		if a.Pos[k], err = strconv.ParseFloat(fl[len(cols)+k], 64); err != nil {
			return s.fail("invalid %c coordinate: %v", 'x'+k, err)
		}
	}
	if C.NTypes > 0 && (a.Type < 1 || a.Type > C.NTypes) {
		return s.fail("atom %d has type %d, there are %d types", a.ID, a.Type, C.NTypes)
	}
	C.Atoms = append(C.Atoms, a)
	return nil
}

// bond parses a Bonds record: "id type atom1 atom2".
func (C *ConfigFile) bond(s *scanner, fl []string) error {
	if len(fl) < 4 {
		return s.fail("invalid Bonds record")
	}
	a, err1 := strconv.Atoi(fl[2])
	b, err2 := strconv.Atoi(fl[3])
	if err1 != nil || err2 != nil || a == b {
		return s.fail("invalid bond %v", fl[2:4])
	}
	C.Bonds = append(C.Bonds, [2]int{a, b})
	return nil
}

func typeElement(t int, mass float64, aliases map[string]string) (string, error) {
	if sym, ok := aliases[strconv.Itoa(t)]; ok {
		return sym, nil
	}
	if mass <= 0 {
		return "", fmt.Errorf("type %d has no mass and no alias", t)
	}
	return converters.ElementByMass(mass, MassTolerance)
}

// Cell returns the simulation box.
func (C *ConfigFile) Cell() (*configuration.UnitCell, error) {
	return configuration.NewUnitCell(C.Box)
}

// IDIndexes maps atom IDs to system indexes.
func (C *ConfigFile) IDIndexes() map[int]int {
	ret := make(map[int]int, len(C.Atoms))
	for i, a := range C.Atoms {
		ret[a.ID] = i
	}
	return ret
}

// HasTopology reports whether the file declares bonds or molecule IDs.
func (C *ConfigFile) HasTopology() bool {
	if len(C.Bonds) > 0 {
		return true
	}
	for _, a := range C.Atoms {
		if a.Mol != 0 {
			return true
		}
	}
	return false
}

// DetectTopology fills the bonds of the file from the positions of the Atoms section, using
// the covalent radii with the relative tolerance tol and the minimum image. The connected
// components whose atoms are consecutive in ID order get a molecule ID, starting from 1; atoms of
// other components keep their bonds but stay alone. It returns the number of bonds found.
func (C *ConfigFile) DetectTopology(tol float64) (int, error) {
	S := chem.NewChemicalSystem(C.Title)
	coords := v3.Zeros(len(C.Atoms))
	for i, ca := range C.Atoms {
		a, err := chem.NewAtom(ca.Symbol, ca.Symbol+strconv.Itoa(ca.ID))
		if err != nil {
			return 0, err
		}
		if err := S.AddEntity(a); err != nil {
			return 0, err
		}
		coords.SetVec(i, ca.Pos)
	}
	cell, err := C.Cell()
	if err != nil {
		return 0, &LAMMPSConfigFileError{converters.WrapFormatError(err, C.Path, 0, "ConfigFile.DetectTopology", "invalid box")}
	}
	conf, err := configuration.NewRealConfiguration(S, coords, cell)
	if err != nil {
		return 0, err
	}
	n, err := configuration.BuildConnectivity([]configuration.Configuration{conf}, tol)
	if err != nil {
		return 0, err
	}
	for _, b := range S.Bonds() {
		C.Bonds = append(C.Bonds, [2]int{C.Atoms[b[0]].ID, C.Atoms[b[1]].ID})
	}
	mol := 0
	for _, m := range configuration.MoleculesFromBonds(S) {
		if len(m) < 2 || m[len(m)-1]-m[0] != len(m)-1 {
			continue
		}
		mol++
		for _, i := range m {
			C.Atoms[i].Mol = mol
		}
	}
	return n, nil
}

// System builds the chemical system. Atoms sharing a non-zero molecule ID form an atom
// cluster named "mol_<ID>", other atoms are kept alone. Atoms are indexed in ID order, so
// the atoms of a molecule must have consecutive IDs.
func (C *ConfigFile) System(name string) (*chem.ChemicalSystem, error) {
	S := chem.NewChemicalSystem(name)
	atoms := make([]*chem.Atom, len(C.Atoms))
	for i, ca := range C.Atoms {
		a, err := chem.NewAtom(ca.Symbol, ca.Symbol+strconv.Itoa(ca.ID))
		if err != nil {
			return nil, err
		}
		atoms[i] = a
	}
	idx := C.IDIndexes()
	for _, b := range C.Bonds {
		i, ok1 := idx[b[0]]
		j, ok2 := idx[b[1]]
		if !ok1 || !ok2 {
			return nil, &LAMMPSConfigFileError{converters.NewFormatError(C.Path, 0, "ConfigFile.System", "bond %v refers to a missing atom", b)}
		}
		atoms[i].AddBond(atoms[j])
	}
	seen := make(map[int]bool)
	for i := 0; i < len(C.Atoms); {
		mol := C.Atoms[i].Mol
		j := i + 1
		for mol != 0 && j < len(C.Atoms) && C.Atoms[j].Mol == mol {
			j++
		}
		var e chem.Entity = atoms[i]
		if mol != 0 {
			if seen[mol] {
				return nil, &LAMMPSConfigFileError{converters.NewFormatError(C.Path, 0, "ConfigFile.System", "the atoms of molecule %d are not consecutive", mol)}
			}
			seen[mol] = true
			if j-i > 1 {
				cl, err := chem.NewAtomCluster("mol_"+strconv.Itoa(mol), atoms[i:j])
				if err != nil {
					return nil, err
				}
				e = cl
			}
		}
		if err := S.AddEntity(e); err != nil {
			return nil, err
		}
		i = j
	}
	return S, nil
}
