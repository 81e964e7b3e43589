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

package traj

import (
	"log"
	"os"

	chem "github.com/rmera/gotraj"
	"github.com/rmera/gotraj/configuration"
	v3 "github.com/rmera/gotraj/v3"
	"golang.org/x/exp/maps"
	"golang.org/x/exp/slices"
)

// DefaultTimeStep is returned by TimeStep for trajectories with less than two frames.
const DefaultTimeStep = 1.0

// Trajectory reads a container. Frames are read with ReadAt, so a Trajectory can be
// used from several goroutines, but each worker may also get its own handle with Reopen.
type Trajectory struct {
	path   string
	f      *os.File
	pre    prefix
	header *Header
	system *chem.ChemicalSystem
	index  []entry
	masses []float64
	vars   []string
}

// Open opens the container at path and rebuilds its chemical system.
func Open(path string) (*Trajectory, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, wrapError(err, path, "Open", "can't open trajectory")
	}
	T := &Trajectory{path: path, f: f}
	if err := T.load(); err != nil {
		f.Close()
		return nil, err
	}
	return T, nil
}

func (T *Trajectory) load() error {
	var err error
	if T.pre, err = readPrefix(T.f); err != nil {
		return wrapError(err, T.path, "Open", "can't read prefix")
	}
	if T.header, err = readHeader(T.f, T.pre); err != nil {
		return wrapError(err, T.path, "Open", "can't read header")
	}
	if T.index, err = readIndex(T.f, T.pre); err != nil {
		return wrapError(err, T.path, "Open", "can't read index")
	}
	if T.system, err = T.header.System.Build(); err != nil {
		return wrapError(err, T.path, "Open", "can't rebuild the chemical system")
	}
	T.masses, _ = T.system.Masses()
	if T.pre.written < T.pre.declared {
		log.Printf("Trajectory %s has %d of the %d declared frames", T.path, T.pre.written, T.pre.declared)
	}
	if len(T.index) > 0 {
		fr, err := T.frame(0)
		if err != nil {
			return err
		}
		T.vars = fr.names
	}
	return nil
}

// Reopen returns a new handle on the same file.
func (T *Trajectory) Reopen() (*Trajectory, error) {
	return Open(T.path)
}

// Close closes the file.
func (T *Trajectory) Close() error {
	if T == nil || T.f == nil {
		return nil
	}
	err := T.f.Close()
	T.f = nil
	return err
}

func (T *Trajectory) Path() string { return T.path }

// Len returns the number of frames written in the container.
func (T *Trajectory) Len() int { return len(T.index) }

// System returns the chemical system of the trajectory. It must not be modified.
func (T *Trajectory) System() *chem.ChemicalSystem { return T.system }

// DType returns the size in bits of the stored floats.
func (T *Trajectory) DType() int { return T.pre.bits }

// Units returns the unit of quantity (coordinates, time, velocities...), or an empty string.
func (T *Trajectory) Units(quantity string) string { return T.header.Units[quantity] }

// Metadata returns a copy of the metadata stored by the writer.
func (T *Trajectory) Metadata() map[string]string { return maps.Clone(T.header.Metadata) }

// Selection returns the stored atoms, or nil if all of them are stored.
func (T *Trajectory) Selection() []int { return slices.Clone(T.header.Selection) }

// Variables returns the names of the auxiliary variables present in the first frame.
func (T *Trajectory) Variables() []string { return slices.Clone(T.vars) }

// HasVariable returns true if name is one of the auxiliary variables.
func (T *Trajectory) HasVariable(name string) bool { return slices.Contains(T.vars, name) }

func (T *Trajectory) check(i int, caller string) error {
	if i < 0 || i >= len(T.index) {
		return newError(T.path, caller, "frame %d out of range for a trajectory of %d frames", i, len(T.index))
	}
	return nil
}

// Time returns the time of frame i.
func (T *Trajectory) Time(i int) (float64, error) {
	if err := T.check(i, "Trajectory.Time"); err != nil {
		return 0, err
	}
	return T.index[i].time, nil
}

// Times returns the times of all the frames.
func (T *Trajectory) Times() []float64 {
	ret := make([]float64, len(T.index))
	for i, e := range T.index {
		ret[i] = e.time
	}
	return ret
}

// TimeStep returns the time between the two first frames, or DefaultTimeStep if there are
// less than two frames.
func (T *Trajectory) TimeStep() float64 {
	if len(T.index) < 2 {
		return DefaultTimeStep
	}
	return T.index[1].time - T.index[0].time
}

func (T *Trajectory) frame(i int) (*frame, error) {
	if err := T.check(i, "Trajectory.frame"); err != nil {
		return nil, err
	}
	if T.f == nil {
		return nil, newError(T.path, "Trajectory.frame", "trajectory is closed")
	}
	e := T.index[i]
	chunk := make([]byte, e.length)
	if _, err := T.f.ReadAt(chunk, e.offset); err != nil {
		return nil, wrapError(err, T.path, "Trajectory.frame", "can't read frame %d", i)
	}
	raw, err := decompress(T.pre.compression, chunk)
	if err != nil {
		return nil, wrapError(err, T.path, "Trajectory.frame", "can't decompress frame %d", i)
	}
	fr, err := decodeFrame(raw, T.system.NumberOfAtoms(), T.pre.bits)
	if err != nil {
		return nil, wrapError(err, T.path, "Trajectory.frame", "can't decode frame %d", i)
	}
	return fr, nil
}

func (T *Trajectory) cell(fr *frame) (*configuration.UnitCell, error) {
	if fr.cell == nil {
		return nil, nil
	}
	c, err := configuration.NewUnitCell(*fr.cell)
	if err != nil {
		return nil, wrapError(err, T.path, "Trajectory.cell", "bad unit cell")
	}
	return c, nil
}

// Coordinates returns the real coordinates of frame i.
func (T *Trajectory) Coordinates(i int) (*v3.Matrix, error) {
	fr, err := T.frame(i)
	if err != nil {
		return nil, err
	}
	return fr.coords, nil
}

// UnitCell returns the unit cell of frame i, or nil if the frame is not periodic.
func (T *Trajectory) UnitCell(i int) (*configuration.UnitCell, error) {
	fr, err := T.frame(i)
	if err != nil {
		return nil, err
	}
	return T.cell(fr)
}

// Variable returns the auxiliary variable name at frame i.
func (T *Trajectory) Variable(i int, name string) (*v3.Matrix, error) {
	fr, err := T.frame(i)
	if err != nil {
		return nil, err
	}
	v, ok := fr.vars[name]
	if !ok {
		return nil, newError(T.path, "Trajectory.Variable", "no variable %s in frame %d", name, i)
	}
	return v, nil
}

// Configuration returns frame i as a real configuration of the trajectory's system, with
// all its auxiliary variables.
func (T *Trajectory) Configuration(i int) (*configuration.RealConfiguration, error) {
	fr, err := T.frame(i)
	if err != nil {
		return nil, err
	}
	cell, err := T.cell(fr)
	if err != nil {
		return nil, err
	}
	conf, err := configuration.NewRealConfiguration(T.system, fr.coords, cell)
	if err != nil {
		return nil, wrapError(err, T.path, "Trajectory.Configuration", "frame %d", i)
	}
	for _, n := range fr.names {
		if err := conf.SetVariable(n, fr.vars[n]); err != nil {
			return nil, wrapError(err, T.path, "Trajectory.Configuration", "frame %d", i)
		}
	}
	return conf, nil
}

// Frames returns the frame indexes from first to last (excluded) every step frames,
// checking that they are valid.
func (T *Trajectory) Frames(first, last, step int) ([]int, error) {
	if step <= 0 || first < 0 || last > len(T.index) || first >= last {
		return nil, newError(T.path, "Trajectory.Frames", "invalid frame range %d:%d:%d for %d frames", first, last, step, len(T.index))
	}
	ret := make([]int, 0, (last-first+step-1)/step)
	for i := first; i < last; i += step {
		ret = append(ret, i)
	}
	return ret, nil
}
