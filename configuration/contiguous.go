/*
 * contiguous.go, part of gotraj.
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

package configuration

import (
	"math"

	chem "github.com/rmera/gotraj"
	"github.com/rmera/gotraj/chemgraph"
	v3 "github.com/rmera/gotraj/v3"
	"golang.org/x/exp/slices"
)

// ContiguousOffsets returns, for each atom, the lattice translation that makes each group of atoms
// geometrically connected across periodic images. If groups is nil, the top-level entities of the system are used.
// The first atom of each group stays where it is. The other atoms take the image closest to an already
// placed bonded neighbour or, if they are not bonded to the rest of the group, to the first atom.
// Atoms not in any group get a zero offset, as do all atoms of an aperiodic configuration.
func ContiguousOffsets(conf Configuration, groups [][]int) ([][3]int, error) {
	S := conf.System()
	if groups == nil {
		groups = S.TopLevelIndexes()
	}
	return offsets(conf, groups, chemgraph.FromSystem(S))
}

// ContinuousOffsets is like ContiguousOffsets but the groups are the connected components of
// the whole bond graph, regardless of the entity they belong to.
func ContinuousOffsets(conf Configuration) ([][3]int, error) {
	topo := chemgraph.FromSystem(conf.System())
	return offsets(conf, topo.Components(), topo)
}

func offsets(conf Configuration, groups [][]int, topo *chemgraph.Topology) ([][3]int, error) {
	n := conf.Coordinates().NVecs()
	ret := make([][3]int, n)
	if !conf.IsPeriodic() {
		return ret, nil
	}
	frac, err := conf.BoxCoordinates()
	if err != nil {
		return nil, err
	}
	placed := make([][3]float64, n)
	for i := 0; i < n; i++ {
		placed[i] = frac.Vec(i)
	}
	// closest moves i to the image closest to the already placed atom to.
	closest := func(i, to int) {
		var k [3]int
		for j := 0; j < 3; j++ {
			k[j] = int(math.Round(placed[to][j] - placed[i][j]))
			placed[i][j] += float64(k[j])
		}
		ret[i] = k
	}
	for _, g := range groups {
		if len(g) == 0 {
			continue
		}
		for _, i := range g {
			if i < 0 || i >= n {
				return nil, newError("ContiguousOffsets", "atom %d out of range for %d atoms", i, n)
			}
		}
		ref := g[0]
		sub := topo.Induced(g)
		for _, comp := range sub.Subgraph(g) {
			root := comp[0]
			if slices.Contains(comp, ref) {
				root = ref
			}
			order, parent := sub.BFSOrder(root)
			for _, i := range order {
				switch p := parent[i]; {
				case i == ref:
				case p < 0:
					closest(i, ref)
				default:
					closest(i, p)
				}
			}
		}
	}
	return ret, nil
}

// applyOffsets returns a copy of conf with the offsets applied, of the same variant.
func applyOffsets(conf Configuration, off [][3]int) Configuration {
	ret := conf.Clone()
	if !conf.IsPeriodic() {
		return ret
	}
	c := ret.Coordinates()
	cell := conf.UnitCell()
	_, box := ret.(*BoxConfiguration)
	for i, k := range off {
		if k == [3]int{} {
			continue
		}
		t := [3]float64{float64(k[0]), float64(k[1]), float64(k[2])}
		if !box {
			t = cell.ToReal(t)
		}
		c.SetVec(i, v3.Add3(c.Vec(i), t))
	}
	return ret
}

// ContiguousConfiguration returns a copy of conf where each top-level entity is in one piece.
func ContiguousConfiguration(conf Configuration) (Configuration, error) {
	off, err := ContiguousOffsets(conf, nil)
	if err != nil {
		return nil, err
	}
	return applyOffsets(conf, off), nil
}

// ContinuousConfiguration returns a copy of conf where each bonded cluster of atoms is in one piece.
func ContinuousConfiguration(conf Configuration) (Configuration, error) {
	off, err := ContinuousOffsets(conf)
	if err != nil {
		return nil, err
	}
	return applyOffsets(conf, off), nil
}

// GroupIndexes returns the indexes of the atoms of each entity.
func GroupIndexes(entities []chem.Entity) [][]int {
	ret := make([][]int, len(entities))
	for i, e := range entities {
		ret[i] = chem.Indexes(e.AtomList())
	}
	return ret
}

// GroupOffsets is ContiguousOffsets with a bond graph built beforehand, for callers that
// process many frames of the same system.
func GroupOffsets(conf Configuration, groups [][]int, topo *chemgraph.Topology) ([][3]int, error) {
	return offsets(conf, groups, topo)
}
