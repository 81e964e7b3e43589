/*
 * unwrap.go, part of gotraj.
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
	"github.com/rmera/gotraj/chemgraph"
	"github.com/rmera/gotraj/configuration"
	v3 "github.com/rmera/gotraj/v3"
)

// unwrap removes the jumps across the periodic boundaries from the positions x, taking for each
// frame the lattice translation that brings the position closest to the previous unwrapped one:
// u_t = x_t + round((u_{t-1} - x_t)·I_t)·H_t. With box, the result is x_t·I_t + k_t instead.
// Frames without a cell are left as they are.
func (T *Trajectory) unwrap(x [][3]float64, cells []*configuration.UnitCell, box bool, caller string) (*v3.Matrix, error) {
	ret := v3.Zeros(len(x))
	var prev [3]float64
	for t, xt := range x {
		cell := cells[t]
		if cell == nil {
			if box {
				return nil, newError(T.path, caller, "box coordinates requested but frame %d is not periodic", t)
			}
			ret.SetVec(t, xt)
			prev = xt
			continue
		}
		var k [3]float64
		if t > 0 {
			k = configuration.Round3(cell.ToFrac(v3.Sub3(prev, xt)))
		}
		prev = v3.Add3(xt, cell.ToReal(k))
		if box {
			ret.SetVec(t, v3.Add3(cell.ToFrac(xt), k))
		} else {
			ret.SetVec(t, prev)
		}
	}
	return ret, nil
}

func (T *Trajectory) checkAtoms(indexes []int, caller string) error {
	n := T.system.NumberOfAtoms()
	if len(indexes) == 0 {
		return newError(T.path, caller, "no atoms given")
	}
	for _, i := range indexes {
		if i < 0 || i >= n {
			return newError(T.path, caller, "atom %d out of range for %d atoms", i, n)
		}
	}
	return nil
}

// ReadAtomicTrajectory returns the positions of atom index at the frames first to last (excluded)
// every step frames, one row per frame, unwrapped across periodic boundaries. With box, fractional
// coordinates are returned.
func (T *Trajectory) ReadAtomicTrajectory(index, first, last, step int, box bool) (*v3.Matrix, error) {
	const caller = "Trajectory.ReadAtomicTrajectory"
	if err := T.checkAtoms([]int{index}, caller); err != nil {
		return nil, err
	}
	frames, err := T.Frames(first, last, step)
	if err != nil {
		return nil, err
	}
	x := make([][3]float64, len(frames))
	cells := make([]*configuration.UnitCell, len(frames))
	for t, i := range frames {
		fr, err := T.frame(i)
		if err != nil {
			return nil, err
		}
		if cells[t], err = T.cell(fr); err != nil {
			return nil, err
		}
		x[t] = fr.coords.Vec(index)
	}
	return T.unwrap(x, cells, box, caller)
}

// ReadCOMTrajectory returns the trajectory of the center of mass of the atoms in indexes.
// In each frame the atoms are first brought into a contiguous image, then the center is
// unwrapped as in ReadAtomicTrajectory. If masses is nil, the atomic masses are used.
func (T *Trajectory) ReadCOMTrajectory(indexes []int, first, last, step int, box bool, masses []float64) (*v3.Matrix, error) {
	const caller = "Trajectory.ReadCOMTrajectory"
	if err := T.checkAtoms(indexes, caller); err != nil {
		return nil, err
	}
	if masses == nil {
		masses = T.masses
	}
	if len(masses) != T.system.NumberOfAtoms() {
		return nil, newError(T.path, caller, "%d masses for %d atoms", len(masses), T.system.NumberOfAtoms())
	}
	frames, err := T.Frames(first, last, step)
	if err != nil {
		return nil, err
	}
	topo := chemgraph.FromSystem(T.system)
	groups := [][]int{indexes}
	x := make([][3]float64, len(frames))
	cells := make([]*configuration.UnitCell, len(frames))
	for t, i := range frames {
		conf, err := T.Configuration(i)
		if err != nil {
			return nil, err
		}
		cells[t] = conf.UnitCell()
		off, err := configuration.GroupOffsets(conf, groups, topo)
		if err != nil {
			return nil, wrapError(err, T.path, caller, "frame %d", i)
		}
		var com [3]float64
		total := 0.0
		for _, a := range indexes {
			v := conf.Coordinates().Vec(a)
			if cells[t] != nil {
				k := off[a]
				v = v3.Add3(v, cells[t].ToReal([3]float64{float64(k[0]), float64(k[1]), float64(k[2])}))
			}
			for j := range com {
				com[j] += masses[a] * v[j]
			}
			total += masses[a]
		}
		if total == 0 {
			return nil, newError(T.path, caller, "the atoms have a total mass of zero")
		}
		for j := range com {
			com[j] /= total
		}
		x[t] = com
	}
	return T.unwrap(x, cells, box, caller)
}

// ReadConfigurationTrajectory returns the values of variable for atom index, one row per frame,
// without any unwrapping. The variable "coordinates" gives the raw positions.
func (T *Trajectory) ReadConfigurationTrajectory(index, first, last, step int, variable string) (*v3.Matrix, error) {
	const caller = "Trajectory.ReadConfigurationTrajectory"
	if err := T.checkAtoms([]int{index}, caller); err != nil {
		return nil, err
	}
	frames, err := T.Frames(first, last, step)
	if err != nil {
		return nil, err
	}
	ret := v3.Zeros(len(frames))
	for t, i := range frames {
		fr, err := T.frame(i)
		if err != nil {
			return nil, err
		}
		v := fr.coords
		if variable != "coordinates" {
			var ok bool
			if v, ok = fr.vars[variable]; !ok {
				return nil, newError(T.path, caller, "no variable %s in frame %d", variable, i)
			}
		}
		ret.SetVec(t, v.Vec(index))
	}
	return ret, nil
}
