/*
 * history.go, part of gotraj.
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
	"bufio"
	"io"
	"log"
	"os"
	"strconv"
	"strings"

	"github.com/rmera/gotraj/configuration"
	"github.com/rmera/gotraj/converters"
	v3 "github.com/rmera/gotraj/v3"
)

// Record widths, newline included, of the HISTORY formats. Every record of a
// formatted HISTORY file is padded to the same width.
var recordWidths = map[string]int{"2": 81, "3": 81, "4": 73}

// Versions returns the supported HISTORY format versions.
func Versions() []any { return []any{"2", "3", "4"} }

// Conversion factors from DL_POLY units.
const (
	lengthFactor   = 0.1 // Å to nm
	velocityFactor = 0.1 // Å/ps to nm/ps
	// forces are in 10 J/mol/Å, i.e. 0.1 kJ/mol/nm.
	forceFactor = 0.1
)

// HistoryFile gives random access to the frames of a formatted HISTORY file.
// The file starts with a title record and a "keytrj imcon natms" record. Each frame has a
// timestep record, three cell records when imcon > 0, and for each atom a name record and
// one record for positions, plus velocities when keytrj >= 1 and forces when keytrj >= 2.
type HistoryFile struct {
	path    string
	f       *os.File
	Version string
	KeyTrj  int
	ImCon   int
	NAtoms  int
	NFrames int
	record  int64
	header  int64
	fheader int64
	stride  int64
}

func (H *HistoryFile) fail(line int, format string, args ...interface{}) error {
	return &HistoryFileError{converters.NewFormatError(H.path, line, "HistoryFile", format, args...)}
}

// OpenHistory opens a HISTORY file of the given version, and computes its layout.
func OpenHistory(path, version string) (*HistoryFile, error) {
	width, ok := recordWidths[version]
	if !ok {
		return nil, &HistoryFileError{converters.NewFormatError(path, 0, "OpenHistory", "unsupported version %q", version)}
	}
	f, err := os.Open(path)
	if err != nil {
		return nil, &HistoryFileError{converters.WrapFormatError(err, path, 0, "OpenHistory", "can't open the file")}
	}
	H := &HistoryFile{path: path, f: f, Version: version, record: int64(width)}
	if err := H.layout(); err != nil {
		f.Close()
		return nil, err
	}
	return H, nil
}

func (H *HistoryFile) layout() error {
	br := bufio.NewReader(H.f)
	title, err := br.ReadString('\n')
	if err != nil {
		return H.fail(1, "missing title record")
	}
	if int64(len(title)) != H.record {
		return H.fail(1, "records are %d bytes long, version %s needs %d", len(title), H.Version, H.record)
	}
	second, err := br.ReadString('\n')
	if err != nil {
		return H.fail(2, "missing header record")
	}
	fl := strings.Fields(second)
	if len(fl) < 3 {
		return H.fail(2, "the header record needs keytrj, imcon and natms")
	}
	vals := make([]int, 3)
	for i := range vals {
		if vals[i], err = strconv.Atoi(fl[i]); err != nil {
			return H.fail(2, "invalid header value %q", fl[i])
		}
	}
	H.KeyTrj, H.ImCon, H.NAtoms = vals[0], vals[1], vals[2]
	if H.KeyTrj < 0 || H.KeyTrj > 2 || H.ImCon < 0 || H.NAtoms < 1 {
		return H.fail(2, "invalid header keytrj=%d imcon=%d natms=%d", H.KeyTrj, H.ImCon, H.NAtoms)
	}
	H.header = 2 * H.record
	H.fheader = H.record
	if H.ImCon > 0 {
		H.fheader += 3 * H.record
	}
	H.stride = H.fheader + int64(H.NAtoms*(2+H.KeyTrj))*H.record
	st, err := H.f.Stat()
	if err != nil {
		return H.fail(0, "can't stat: %v", err)
	}
	body := st.Size() - H.header
	H.NFrames = int(body / H.stride)
	if rest := body % H.stride; rest != 0 {
		log.Printf("dlpoly: %s: ignoring %d trailing bytes (incomplete frame)", H.path, rest)
	}
	return nil
}

// Close closes the file.
func (H *HistoryFile) Close() error { return H.f.Close() }

func floats(fl []string, n int) ([]float64, bool) {
	if len(fl) < n {
		return nil, false
	}
	ret := make([]float64, n)
	for i := range ret {
		v, err := strconv.ParseFloat(fl[i], 64)
		if err != nil {
			return nil, false
		}
		ret[i] = v
	}
	return ret, true
}

// Frame reads frame i, converted to nm, ps and kJ/mol/nm.
func (H *HistoryFile) Frame(i int) (*converters.Frame, error) {
	if i < 0 || i >= H.NFrames {
		return nil, H.fail(0, "frame %d out of range [0, %d)", i, H.NFrames)
	}
	off := H.header + int64(i)*H.stride
	buf := make([]byte, H.stride)
	if _, err := H.f.ReadAt(buf, off); err != nil && err != io.EOF {
		return nil, H.fail(0, "can't read frame %d: %v", i, err)
	}
	firstLine := int(off/H.record) + 1
	rec := func(k int) []string {
		return strings.Fields(string(buf[int64(k)*H.record : int64(k+1)*H.record]))
	}
	ts := rec(0)
	if len(ts) < 6 || !strings.EqualFold(ts[0], "timestep") {
		return nil, H.fail(firstLine, "expected a timestep record")
	}
	nstep, err1 := strconv.Atoi(ts[1])
	tstep, err2 := strconv.ParseFloat(ts[5], 64)
	if err1 != nil || err2 != nil {
		return nil, H.fail(firstLine, "invalid timestep record")
	}
	fr := &converters.Frame{Time: float64(nstep) * tstep, Variables: map[string]*v3.Matrix{}}
	if H.Version == "4" && len(ts) > 6 {
		if t, err := strconv.ParseFloat(ts[6], 64); err == nil {
			fr.Time = t
		}
	}
	k := 1
	if H.ImCon > 0 {
		var data [9]float64
		for r := 0; r < 3; r++ {
			v, ok := floats(rec(k), 3)
			if !ok {
				return nil, H.fail(firstLine+k, "invalid cell record")
			}
			for c := 0; c < 3; c++ {
				data[3*r+c] = v[c] * lengthFactor
			}
			k++
		}
		cell, err := configuration.NewUnitCell(data)
		if err != nil {
			return nil, H.fail(firstLine+1, "invalid cell: %v", err)
		}
		fr.Cell = cell
	}
	fr.Coordinates = v3.Zeros(H.NAtoms)
	var vel, grad *v3.Matrix
	if H.KeyTrj >= 1 {
		vel = v3.Zeros(H.NAtoms)
		fr.Variables[configuration.Velocities] = vel
	}
	if H.KeyTrj >= 2 {
		grad = v3.Zeros(H.NAtoms)
		fr.Variables[configuration.Gradients] = grad
	}
	read3 := func(k int, factor float64) ([3]float64, error) {
		v, ok := floats(rec(k), 3)
		if !ok {
			return [3]float64{}, H.fail(firstLine+k, "expected three numbers")
		}
		return [3]float64{v[0] * factor, v[1] * factor, v[2] * factor}, nil
	}
	for a := 0; a < H.NAtoms; a++ {
		k++ //name record
		x, err := read3(k, lengthFactor)
		if err != nil {
			return nil, err
		}
		fr.Coordinates.SetVec(a, x)
		k++
		if vel != nil {
			v, err := read3(k, velocityFactor)
			if err != nil {
				return nil, err
			}
			vel.SetVec(a, v)
			k++
		}
		if grad != nil {
			g, err := read3(k, -forceFactor)
			if err != nil {
				return nil, err
			}
			grad.SetVec(a, g)
			k++
		}
	}
	return fr, nil
}
