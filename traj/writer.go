/*
 * writer.go, part of gotraj.
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

package traj

import (
	"encoding/json"
	"math"
	"os"

	chem "github.com/rmera/gotraj"
	"github.com/rmera/gotraj/configuration"
	v3 "github.com/rmera/gotraj/v3"
	"golang.org/x/exp/slices"
)

// WriterOptions are the optional settings of a Writer. The zero value writes all the atoms
// as float64, with zstd compression.
type WriterOptions struct {
	// Selection lists the atoms to store. The others are stored as NaN.
	Selection   []int
	DType       int
	Compression Compression
	// Units override or extend the default units.
	Units    map[string]string
	Metadata map[string]string
}

// Writer creates a trajectory container. Frames are appended in order with DumpConfiguration.
type Writer struct {
	f        *os.File
	path     string
	system   *chem.ChemicalSystem
	pre      prefix
	selected []bool
	offset   int64
	closed   bool
}

// NewWriter creates the container path for a copy of S, with room for nframes frames.
func NewWriter(path string, S *chem.ChemicalSystem, nframes int, opts *WriterOptions) (*Writer, error) {
	if opts == nil {
		opts = &WriterOptions{}
	}
	bits := opts.DType
	if bits == 0 {
		bits = 64
	}
	if !validDType(bits) {
		return nil, newError(path, "NewWriter", "unsupported float size %d", bits)
	}
	if nframes < 0 {
		return nil, newError(path, "NewWriter", "negative number of frames %d", nframes)
	}
	W := &Writer{path: path, system: S.CopySystem()}
	n := W.system.NumberOfAtoms()
	h := &Header{
		System: W.system.Serialize(),
		Units: map[string]string{
			"coordinates":            LengthUnit,
			"time":                   TimeUnit,
			"unit_cell":              LengthUnit,
			configuration.Velocities: VelocityUnit,
			configuration.Gradients:  GradientUnit,
			configuration.Forces:     GradientUnit,
		},
		Metadata: opts.Metadata,
	}
	for k, v := range opts.Units {
		h.Units[k] = v
	}
	if opts.Selection != nil {
		W.selected = make([]bool, n)
		for _, i := range opts.Selection {
			if i < 0 || i >= n {
				return nil, newError(path, "NewWriter", "selected atom %d out of range for %d atoms", i, n)
			}
			W.selected[i] = true
		}
		h.Selection = append([]int(nil), opts.Selection...)
		slices.Sort(h.Selection)
		h.Selection = slices.Compact(h.Selection)
	}
	raw, err := json.Marshal(h)
	if err != nil {
		return nil, wrapError(err, path, "NewWriter", "can't encode header")
	}
	hdr, err := compress(opts.Compression, raw)
	if err != nil {
		return nil, wrapError(err, path, "NewWriter", "can't compress header")
	}
	W.pre = prefix{headerLen: uint32(len(hdr)), compression: opts.Compression, bits: bits, declared: nframes}
	W.f, err = os.Create(path)
	if err != nil {
		return nil, err
	}
	index := make([]byte, indexEntry*nframes)
	for _, b := range [][]byte{W.pre.marshal(), hdr, index} {
		if _, err := W.f.Write(b); err != nil {
			W.f.Close()
			return nil, wrapError(err, path, "NewWriter", "can't write header")
		}
	}
	W.offset = W.pre.indexOffset() + int64(len(index))
	return W, nil
}

// System returns the copy of the chemical system stored in the container.
func (W *Writer) System() *chem.ChemicalSystem { return W.system }

// Written returns the number of frames written so far.
func (W *Writer) Written() int { return W.pre.written }

// Declared returns the number of frames the container was created for.
func (W *Writer) Declared() int { return W.pre.declared }

func (W *Writer) mask(M *v3.Matrix) *v3.Matrix {
	if W.selected == nil {
		return M
	}
	ret := M.Clone()
	for i, s := range W.selected {
		if !s {
			ret.SetVec(i, [3]float64{math.NaN(), math.NaN(), math.NaN()})
		}
	}
	return ret
}

// DumpConfiguration appends conf as the next frame, at the given time. The coordinates
// are stored in real space, with the unit cell if conf is periodic.
func (W *Writer) DumpConfiguration(conf configuration.Configuration, time float64) error {
	if W.closed {
		return newError(W.path, "Writer.DumpConfiguration", "writer is closed")
	}
	if W.pre.written >= W.pre.declared {
		return newError(W.path, "Writer.DumpConfiguration", "frame %d exceeds the declared %d frames", W.pre.written+1, W.pre.declared)
	}
	if conf.Coordinates().NVecs() != W.system.NumberOfAtoms() {
		return newError(W.path, "Writer.DumpConfiguration", "configuration has %d atoms, the system %d", conf.Coordinates().NVecs(), W.system.NumberOfAtoms())
	}
	fr := &frame{coords: W.mask(conf.RealCoordinates()), vars: make(map[string]*v3.Matrix)}
	if c := conf.UnitCell(); c != nil {
		d := c.Data()
		fr.cell = &d
	}
	for _, n := range conf.Variables() {
		v, _ := conf.Variable(n)
		fr.names = append(fr.names, n)
		fr.vars[n] = W.mask(v)
	}
	chunk, err := compress(W.pre.compression, encodeFrame(fr, W.pre.bits))
	if err != nil {
		return wrapError(err, W.path, "Writer.DumpConfiguration", "can't compress frame")
	}
	if _, err := W.f.WriteAt(chunk, W.offset); err != nil {
		return wrapError(err, W.path, "Writer.DumpConfiguration", "can't write frame")
	}
	e := entry{offset: W.offset, length: int64(len(chunk)), time: time}
	if _, err := W.f.WriteAt(marshalEntry(e), W.pre.indexOffset()+int64(indexEntry*W.pre.written)); err != nil {
		return wrapError(err, W.path, "Writer.DumpConfiguration", "can't write index")
	}
	W.offset += int64(len(chunk))
	W.pre.written++
	// the written count is kept current, so an interrupted run leaves a readable file.
	if _, err := W.f.WriteAt(W.pre.marshal()[writtenAt:prefixSize], writtenAt); err != nil {
		return wrapError(err, W.path, "Writer.DumpConfiguration", "can't update frame count")
	}
	return nil
}

// Close closes the file. It is safe to call more than once.
func (W *Writer) Close() error {
	if W == nil || W.closed {
		return nil
	}
	W.closed = true
	return W.f.Close()
}
