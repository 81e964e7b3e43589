/*
 * connectivity.go, part of gotraj.
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
	"log"

	chem "github.com/rmera/gotraj"
	"github.com/rmera/gotraj/chemgraph"
	v3 "github.com/rmera/gotraj/v3"
)

// DefaultBondTolerance is the relative tolerance on the sum of covalent radii used to
// decide if two atoms are bonded.
const DefaultBondTolerance = 0.2

// DetectBonds returns the pairs of atoms (lower index first) closer than the sum of their covalent
// radii times 1+tol. Periodic configurations use the minimum image.
func DetectBonds(conf Configuration, tol float64) [][2]int {
	atoms := conf.System().AtomList()
	x := conf.RealCoordinates()
	cell := conf.UnitCell()
	radii := make([]float64, len(atoms))
	for i, a := range atoms {
		radii[i] = a.Element().CovalentRadius
	}
	var ret [][2]int
	for i := 0; i < len(atoms); i++ {
		xi := x.Vec(i)
		for j := i + 1; j < len(atoms); j++ {
			d := v3.Sub3(x.Vec(j), xi)
			if cell != nil {
				d = cell.MinimumImage(d)
			}
			cut := (radii[i] + radii[j]) * (1 + tol)
			if d[0]*d[0]+d[1]*d[1]+d[2]*d[2] <= cut*cut {
				ret = append(ret, [2]int{i, j})
			}
		}
	}
	return ret
}

// BuildConnectivity adds to the system of the configurations the union of the bonds detected
// in each of them. It returns the number of bonds added.
func BuildConnectivity(confs []Configuration, tol float64) (int, error) {
	if len(confs) == 0 {
		return 0, nil
	}
	S := confs[0].System()
	added := 0
	for _, c := range confs {
		if c.System() != S {
			return added, newError("BuildConnectivity", "configurations belong to different systems")
		}
		for _, b := range DetectBonds(c, tol) {
			if S.Atom(b[0]).BondedTo(S.Atom(b[1])) {
				continue
			}
			if err := S.AddBond(b[0], b[1]); err != nil {
				return added, err
			}
			added++
		}
	}
	for _, a := range S.AtomList() {
		if mb := a.Element().MaxBonds; mb > 0 && len(a.Bonds()) > mb {
			log.Printf("BuildConnectivity: atom %s has %d bonds, more than the expected %d", a.FullName(), len(a.Bonds()), mb)
		}
	}
	return added, nil
}

// MoleculesFromBonds returns the connected components of the bond graph of S, as lists
// of atom indexes.
func MoleculesFromBonds(S *chem.ChemicalSystem) [][]int {
	return chemgraph.FromSystem(S).Components()
}
