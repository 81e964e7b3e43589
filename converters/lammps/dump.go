/*
 * dump.go, part of gotraj.
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
	"bufio"
	"io"
	"os"
	"strconv"
	"strings"

	"github.com/rmera/gotraj/configuration"
	"github.com/rmera/gotraj/converters"
	v3 "github.com/rmera/gotraj/v3"
	"golang.org/x/exp/slices"
)

// Units converts the dump quantities to nm, ps and kJ/mol/nm. TimeStep is the length of
// an MD step in ps.
type Units struct {
	Length   float64
	TimeStep float64
	Velocity float64
	Force    float64
}

// DefaultUnits are for the LAMMPS "real" units with a 1 fs step: Å, Å/fs and kcal/mol/Å.
var DefaultUnits = Units{Length: 0.1, TimeStep: 0.001, Velocity: 100, Force: 41.84}

// DumpFile gives random access to the frames of a text dump file ("dump atom" or
// "dump custom" with an id column).
type DumpFile struct {
	path    string
	f       *os.File
	units   Units
	ids     map[int]int
	offsets []int64
	// Columns are those of the first frame.
	Columns []string
	NAtoms  int
}

func (D *DumpFile) fail(line int, format string, args ...interface{}) error {
	return &LAMMPSTrajectoryFileError{converters.NewFormatError(D.path, line, "DumpFile", format, args...)}
}

// OpenDump indexes the frames of a dump file. ids maps atom IDs to system indexes; every
// frame must have exactly those atoms.
func OpenDump(path string, ids map[int]int, units Units) (*DumpFile, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, &LAMMPSTrajectoryFileError{converters.WrapFormatError(err, path, 0, "OpenDump", "can't open the file")}
	}
	D := &DumpFile{path: path, f: f, units: units, ids: ids}
	if err := D.index(); err != nil {
		f.Close()
		return nil, err
	}
	return D, nil
}

// index records the offset of each "ITEM: TIMESTEP" line.
func (D *DumpFile) index() error {
	br := bufio.NewReader(D.f)
	var off int64
	for {
		line, err := br.ReadString('\n')
		if strings.HasPrefix(line, "ITEM: TIMESTEP") {
			D.offsets = append(D.offsets, off)
		}
		off += int64(len(line))
		if err == io.EOF {
			break
		}
		if err != nil {
			return D.fail(0, "can't read: %v", err)
		}
	}
	if len(D.offsets) == 0 {
		return D.fail(0, "no ITEM: TIMESTEP record")
	}
	D.offsets = append(D.offsets, off)
	fr, err := D.read(0)
	if err != nil {
		return err
	}
	D.NAtoms = fr.Coordinates.NVecs()
	return nil
}

// NFrames returns the number of frames.
func (D *DumpFile) NFrames() int { return len(D.offsets) - 1 }

// Close closes the file.
func (D *DumpFile) Close() error { return D.f.Close() }

// Frame reads frame i.
func (D *DumpFile) Frame(i int) (*converters.Frame, error) {
	if i < 0 || i >= D.NFrames() {
		return nil, D.fail(0, "frame %d out of range [0, %d)", i, D.NFrames())
	}
	return D.read(i)
}

type frameLines struct {
	sc *bufio.Scanner
	D  *DumpFile
	n  int
}

func (l *frameLines) next() (string, error) {
	if !l.sc.Scan() {
		return "", l.D.fail(0, "truncated frame after %d lines", l.n)
	}
	l.n++
	return strings.TrimSpace(l.sc.Text()), nil
}

func parseFloats(fl []string) ([]float64, bool) {
	ret := make([]float64, len(fl))
	for i, s := range fl {
		v, err := strconv.ParseFloat(s, 64)
		if err != nil {
			return nil, false
		}
		ret[i] = v
	}
	return ret, true
}

// triclinicBox turns the bounding box of a dump into a cell, with the lattice vectors as rows.
func triclinicBox(bounds [3][3]float64) [9]float64 {
	xy, xz, yz := bounds[0][2], bounds[1][2], bounds[2][2]
	xlo := bounds[0][0] - min(0, xy, xz, xy+xz)
	xhi := bounds[0][1] - max(0, xy, xz, xy+xz)
	ylo := bounds[1][0] - min(0, yz)
	yhi := bounds[1][1] - max(0, yz)
	return [9]float64{
		xhi - xlo, 0, 0,
		xy, yhi - ylo, 0,
		xz, yz, bounds[2][1] - bounds[2][0],
	}
}

// column returns the position of the first of names in cols, or -1.
func column(cols []string, names ...string) int {
	for _, n := range names {
		if k := slices.Index(cols, n); k >= 0 {
			return k
		}
	}
	return -1
}

func (D *DumpFile) read(i int) (*converters.Frame, error) {
	r := io.NewSectionReader(D.f, D.offsets[i], D.offsets[i+1]-D.offsets[i])
	l := &frameLines{sc: bufio.NewScanner(r), D: D}
	item := func(prefix string) (string, error) {
		s, err := l.next()
		if err != nil {
			return "", err
		}
		if !strings.HasPrefix(s, prefix) {
			return "", D.fail(0, "frame %d: expected %q, found %q", i, prefix, s)
		}
		return strings.TrimSpace(strings.TrimPrefix(s, prefix)), nil
	}
	if _, err := item("ITEM: TIMESTEP"); err != nil {
		return nil, err
	}
	s, err := l.next()
	if err != nil {
		return nil, err
	}
	step, err := strconv.ParseInt(s, 10, 64)
	if err != nil {
		return nil, D.fail(0, "frame %d: invalid timestep %q", i, s)
	}
	if _, err := item("ITEM: NUMBER OF ATOMS"); err != nil {
		return nil, err
	}
	if s, err = l.next(); err != nil {
		return nil, err
	}
	natoms, err := strconv.Atoi(s)
	if err != nil || natoms < 1 {
		return nil, D.fail(0, "frame %d: invalid number of atoms %q", i, s)
	}
	if natoms != len(D.ids) {
		return nil, D.fail(0, "frame %d has %d atoms, the system %d", i, natoms, len(D.ids))
	}
	flags, err := item("ITEM: BOX BOUNDS")
	if err != nil {
		return nil, err
	}
	triclinic := strings.HasPrefix(flags, "xy xz yz")
	var bounds [3][3]float64
	for k := 0; k < 3; k++ {
		if s, err = l.next(); err != nil {
			return nil, err
		}
		v, ok := parseFloats(strings.Fields(s))
		if !ok || len(v) < 2 || (triclinic && len(v) < 3) {
			return nil, D.fail(0, "frame %d: invalid box bounds %q", i, s)
		}
		copy(bounds[k][:], v)
	}
	var box [9]float64
	if triclinic {
		box = triclinicBox(bounds)
	} else {
		box = [9]float64{bounds[0][1] - bounds[0][0], 0, 0, 0, bounds[1][1] - bounds[1][0], 0, 0, 0, bounds[2][1] - bounds[2][0]}
	}
	origin := [3]float64{bounds[0][0], bounds[1][0], bounds[2][0]}
	if triclinic {
		origin[0] -= min(0, bounds[0][2], bounds[1][2], bounds[0][2]+bounds[1][2])
		origin[1] -= min(0, bounds[2][2])
	}
	for k := range box {
		box[k] *= D.units.Length
	}
	cell, err := configuration.NewUnitCell(box)
	if err != nil {
		return nil, D.fail(0, "frame %d: invalid box: %v", i, err)
	}
	colLine, err := item("ITEM: ATOMS")
	if err != nil {
		return nil, err
	}
	cols := strings.Fields(colLine)
	if D.Columns == nil {
		D.Columns = cols
	} else if !slices.Equal(cols, D.Columns) {
		return nil, D.fail(0, "frame %d has columns %v, the first frame %v", i, cols, D.Columns)
	}
	id := column(cols, "id")
	x := column(cols, "x", "xu")
	xs := column(cols, "xs", "xsu")
	if id < 0 || (x < 0 && xs < 0) {
		return nil, D.fail(0, "the dump needs an id column and x or xs columns, has %v", cols)
	}
	scaled := x < 0
	if scaled {
		x = xs
	}
	if len(cols) < x+3 {
		return nil, D.fail(0, "missing coordinate columns in %v", cols)
	}
	vx := column(cols, "vx")
	fx := column(cols, "fx")
	fr := &converters.Frame{
		Coordinates: v3.Zeros(natoms),
		Cell:        cell,
		Time:        float64(step) * D.units.TimeStep,
		Variables:   map[string]*v3.Matrix{},
	}
	var vel, grad *v3.Matrix
	if vx >= 0 && vx+3 <= len(cols) {
		vel = v3.Zeros(natoms)
		fr.Variables[configuration.Velocities] = vel
	}
	if fx >= 0 && fx+3 <= len(cols) {
		grad = v3.Zeros(natoms)
		fr.Variables[configuration.Gradients] = grad
	}
	seen := make([]bool, natoms)
	for a := 0; a < natoms; a++ {
		if s, err = l.next(); err != nil {
			return nil, err
		}
		fl := strings.Fields(s)
		if len(fl) != len(cols) {
			return nil, D.fail(0, "frame %d: atom record %q has %d columns, expected %d", i, s, len(fl), len(cols))
		}
		n, err := strconv.Atoi(fl[id])
		idx, ok := D.ids[n]
		if err != nil || !ok || seen[idx] {
			return nil, D.fail(0, "frame %d: unknown or repeated atom id %q", i, fl[id])
		}
		seen[idx] = true
		v, ok := parseFloats(fl[x : x+3])
		if !ok {
			return nil, D.fail(0, "frame %d: invalid coordinates %q", i, s)
		}
		var pos [3]float64
		if scaled {
			pos = cell.ToReal([3]float64{v[0], v[1], v[2]})
		} else {
			for k := range pos {
				pos[k] = (v[k] - origin[k]) * D.units.Length
			}
		}
		fr.Coordinates.SetVec(idx, pos)
		if vel != nil {
			v, ok := parseFloats(fl[vx : vx+3])
			if !ok {
				return nil, D.fail(0, "frame %d: invalid velocities %q", i, s)
			}
			vel.SetVec(idx, [3]float64{v[0] * D.units.Velocity, v[1] * D.units.Velocity, v[2] * D.units.Velocity})
		}
		if grad != nil {
			v, ok := parseFloats(fl[fx : fx+3])
			if !ok {
				return nil, D.fail(0, "frame %d: invalid forces %q", i, s)
			}
			f := -D.units.Force
			grad.SetVec(idx, [3]float64{v[0] * f, v[1] * f, v[2] * f})
		}
	}
	return fr, nil
}
