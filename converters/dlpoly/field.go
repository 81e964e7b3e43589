/*
 * field.go, part of gotraj.
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

// Package dlpoly reads DL_POLY FIELD and HISTORY files, and converts them to
// trajectory containers.
package dlpoly

import (
	"bufio"
	"os"
	"strconv"
	"strings"

	chem "github.com/rmera/gotraj"
	"github.com/rmera/gotraj/converters"
)

// FieldFileError is returned for invalid FIELD files.
type FieldFileError struct{ *converters.FormatError }

func (*FieldFileError) Kind() string { return "FieldFileError" }

// HistoryFileError is returned for invalid HISTORY files.
type HistoryFileError struct{ *converters.FormatError }

func (*HistoryFileError) Kind() string { return "HistoryFileError" }

// MassTolerance is used to match FIELD masses with elements.
const MassTolerance = 0.5

// FieldAtom is an atom of a molecule type.
type FieldAtom struct {
	Name   string
	Symbol string
	Mass   float64
	Charge float64
	Frozen bool
}

// FieldMolecule is a molecule type: its atoms, the number of copies, and the bonds, as
// pairs of 0-based atom positions. Constraints are counted as bonds.
type FieldMolecule struct {
	Name    string
	NumMols int
	Atoms   []FieldAtom
	Bonds   [][2]int
}

// FieldFile is the molecular composition declared in a FIELD file.
type FieldFile struct {
	Path      string
	Title     string
	Units     string
	Molecules []FieldMolecule
}

type lines struct {
	path string
	sc   *bufio.Scanner
	n    int
}

func (l *lines) next() ([]string, bool) {
	for l.sc.Scan() {
		l.n++
		f := strings.Fields(l.sc.Text())
		if len(f) == 0 || strings.HasPrefix(f[0], "#") {
			continue
		}
		return f, true
	}
	return nil, false
}

func (l *lines) fail(format string, args ...interface{}) error {
	return &FieldFileError{converters.NewFormatError(l.path, l.n, "ReadFieldFile", format, args...)}
}

// count returns the integer after a keyword, as in "NUMMOLS 10" or "MOLECULAR TYPES 2".
func count(f []string) (int, bool) {
	n, err := strconv.Atoi(f[len(f)-1])
	return n, err == nil
}

// sections whose count is followed by that many records that we skip.
var skipped = map[string]bool{"ANGLES": true, "DIHEDRALS": true, "INVERSIONS": true, "SHELL": true, "TETH": true, "PMF": true}

// ReadFieldFile parses the molecules of a FIELD file. aliases maps atom names to element
// symbols; names without alias are resolved with converters.GuessElement.
func ReadFieldFile(path string, aliases map[string]string) (*FieldFile, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, &FieldFileError{converters.WrapFormatError(err, path, 0, "ReadFieldFile", "can't open the file")}
	}
	defer f.Close()
	l := &lines{path: path, sc: bufio.NewScanner(f)}
	F := &FieldFile{Path: path}
	if l.sc.Scan() {
		l.n++
		F.Title = strings.TrimSpace(l.sc.Text())
	}
	nmol := -1
	for nmol < 0 {
		fl, ok := l.next()
		if !ok {
			return nil, l.fail("no MOLECULES record")
		}
		switch strings.ToUpper(fl[0]) {
		case "UNITS", "UNIT":
			if len(fl) > 1 {
				F.Units = strings.Join(fl[1:], " ")
			}
		case "MOLECULES", "MOLECULAR":
			n, ok := count(fl)
			if !ok || n < 1 {
				return nil, l.fail("invalid number of molecule types")
			}
			nmol = n
		}
	}
	for m := 0; m < nmol; m++ {
		mol, err := readMolecule(l, aliases)
		if err != nil {
			return nil, err
		}
		F.Molecules = append(F.Molecules, mol)
	}
	return F, nil
}

func readMolecule(l *lines, aliases map[string]string) (FieldMolecule, error) {
	var M FieldMolecule
	fl, ok := l.next()
	if !ok {
		return M, l.fail("missing molecule")
	}
	M.Name = strings.Join(fl, " ")
	for {
		fl, ok := l.next()
		if !ok {
			return M, l.fail("molecule %s has no FINISH record", M.Name)
		}
		key := strings.ToUpper(fl[0])
		switch {
		case key == "FINISH":
			if M.NumMols < 1 || len(M.Atoms) == 0 {
				return M, l.fail("molecule %s needs NUMMOLS and ATOMS", M.Name)
			}
			return M, nil
		case strings.HasPrefix(key, "NUMMOL"):
			n, ok := count(fl)
			if !ok || n < 1 {
				return M, l.fail("invalid NUMMOLS")
			}
			M.NumMols = n
		case key == "ATOMS":
			n, ok := count(fl)
			if !ok || n < 1 {
				return M, l.fail("invalid ATOMS count")
			}
			if err := readAtoms(l, &M, n, aliases); err != nil {
				return M, err
			}
		case key == "BONDS" || key == "CONSTRAINTS":
			n, ok := count(fl)
			if !ok || n < 0 {
				return M, l.fail("invalid %s count", key)
			}
			if err := readBonds(l, &M, n, key == "BONDS"); err != nil {
				return M, err
			}
		case skipped[key]:
			n, ok := count(fl)
			if !ok {
				return M, l.fail("invalid %s count", key)
			}
			for i := 0; i < n; i++ {
				if _, ok := l.next(); !ok {
					return M, l.fail("truncated %s section", key)
				}
			}
		}
	}
}

// readAtoms reads records "name mass charge [repeat [frozen]]" until n atoms are declared.
func readAtoms(l *lines, M *FieldMolecule, n int, aliases map[string]string) error {
	for len(M.Atoms) < n {
		fl, ok := l.next()
		if !ok {
			return l.fail("truncated ATOMS section")
		}
		if len(fl) < 3 {
			return l.fail("atom record needs name, mass and charge")
		}
		mass, err1 := strconv.ParseFloat(fl[1], 64)
		charge, err2 := strconv.ParseFloat(fl[2], 64)
		if err1 != nil || err2 != nil {
			return l.fail("invalid mass or charge")
		}
		rep := 1
		if len(fl) > 3 {
			if rep, err1 = strconv.Atoi(fl[3]); err1 != nil || rep < 1 {
				return l.fail("invalid repeat count %q", fl[3])
			}
		}
		frozen := len(fl) > 4 && fl[4] != "0"
		sym, err := converters.GuessElement(fl[0], mass, MassTolerance, aliases)
		if err != nil {
			return l.fail("%v", err)
		}
		for r := 0; r < rep; r++ {
			M.Atoms = append(M.Atoms, FieldAtom{Name: fl[0], Symbol: sym, Mass: mass, Charge: charge, Frozen: frozen})
		}
	}
	if len(M.Atoms) != n {
		return l.fail("ATOMS declares %d atoms, the records %d", n, len(M.Atoms))
	}
	return nil
}

// readBonds reads n records. Bond records start with the potential key, constraint
// records with the atoms.
func readBonds(l *lines, M *FieldMolecule, n int, keyed bool) error {
	start := 0
	if keyed {
		start = 1
	}
	for i := 0; i < n; i++ {
		fl, ok := l.next()
		if !ok {
			return l.fail("truncated bond section")
		}
		if len(fl) < start+2 {
			return l.fail("invalid bond record")
		}
		a, err1 := strconv.Atoi(fl[start])
		b, err2 := strconv.Atoi(fl[start+1])
		if err1 != nil || err2 != nil || a < 1 || b < 1 || a > len(M.Atoms) || b > len(M.Atoms) || a == b {
			return l.fail("invalid bond %v", fl[start:start+2])
		}
		M.Bonds = append(M.Bonds, [2]int{a - 1, b - 1})
	}
	return nil
}

// NumberOfAtoms returns the number of atoms of the whole system.
func (F *FieldFile) NumberOfAtoms() int {
	n := 0
	for _, m := range F.Molecules {
		n += m.NumMols * len(m.Atoms)
	}
	return n
}

// System builds the chemical system: one atom cluster per molecule copy, or a single atom
// for one-atom molecules, in FIELD order, with the declared bonds.
func (F *FieldFile) System(name string) (*chem.ChemicalSystem, error) {
	S := chem.NewChemicalSystem(name)
	for _, m := range F.Molecules {
		for c := 0; c < m.NumMols; c++ {
			atoms := make([]*chem.Atom, len(m.Atoms))
			for i, fa := range m.Atoms {
				a, err := chem.NewAtom(fa.Symbol, fa.Name)
				if err != nil {
					return nil, err
				}
				atoms[i] = a
			}
			for _, b := range m.Bonds {
				atoms[b[0]].AddBond(atoms[b[1]])
			}
			var e chem.Entity = atoms[0]
			if len(atoms) > 1 {
				cl, err := chem.NewAtomCluster(m.Name+"_"+strconv.Itoa(c+1), atoms)
				if err != nil {
					return nil, err
				}
				e = cl
			}
			if err := S.AddEntity(e); err != nil {
				return nil, err
			}
		}
	}
	return S, nil
}
