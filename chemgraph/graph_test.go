/*
 * graph_test.go, part of gotraj.
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

package chemgraph

import (
	"testing"

	chem "github.com/rmera/gotraj"
	"github.com/stretchr/testify/require"
)

func TestComponents(Te *testing.T) {
	T := FromBonds(7, [][2]int{{0, 1}, {1, 2}, {4, 3}, {5, 5}, {6, 9}})
	require.Equal(Te, [][]int{{0, 1, 2}, {3, 4}, {5}, {6}}, T.Components())
	require.Equal(Te, []int{0, 2}, T.Neighbors(1))
	require.Equal(Te, [][]int{{0, 1}, {4}}, T.Subgraph([]int{0, 1, 4}))
	order, parent := T.BFSOrder(2)
	require.Equal(Te, []int{2, 1, 0}, order)
	require.Equal(Te, 1, parent[0])
	require.Equal(Te, -1, parent[2])
}

func TestFromSystem(Te *testing.T) {
	S := chem.NewChemicalSystem("w")
	for _, n := range []string{"w1", "w2"} {
		w, err := chem.NewMolecule("WAT", n)
		require.NoError(Te, err)
		require.NoError(Te, S.AddEntity(w))
	}
	T := FromSystem(S)
	require.Equal(Te, 6, T.Len())
	require.Equal(Te, [][]int{{0, 1, 2}, {3, 4, 5}}, T.Components())
}
