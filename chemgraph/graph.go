/*
 * graph.go, part of gotraj.
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

// Package chemgraph builds gonum graphs from the bonds of a chemical system.
// Nodes are atom indexes.
package chemgraph

import (
	chem "github.com/rmera/gotraj"
	"golang.org/x/exp/slices"
	"gonum.org/v1/gonum/graph"
	"gonum.org/v1/gonum/graph/simple"
	"gonum.org/v1/gonum/graph/topo"
)

// Topology is an undirected bond graph over atom indexes.
type Topology struct {
	*simple.UndirectedGraph
	n int
}

// FromBonds returns the graph with n nodes, 0 to n-1, and the given bonds.
// Bonds referring to nodes outside that range are ignored.
func FromBonds(n int, bonds [][2]int) *Topology {
	g := simple.NewUndirectedGraph()
	for i := 0; i < n; i++ {
		g.AddNode(simple.Node(i))
	}
	for _, b := range bonds {
		if b[0] == b[1] || b[0] < 0 || b[1] < 0 || b[0] >= n || b[1] >= n {
			continue
		}
		g.SetEdge(simple.Edge{F: simple.Node(b[0]), T: simple.Node(b[1])})
	}
	return &Topology{UndirectedGraph: g, n: n}
}

// FromSystem returns the graph of the concrete bonds between the indexed atoms of S.
func FromSystem(S *chem.ChemicalSystem) *Topology {
	return FromBonds(S.NumberOfAtoms(), S.Bonds())
}

// Len returns the number of nodes.
func (T *Topology) Len() int { return T.n }

// Neighbors returns the sorted indexes bonded to i.
func (T *Topology) Neighbors(i int) []int {
	return sortedIDs(T.From(int64(i)))
}

// Components returns the connected components of the graph. Each component is
// sorted, and the components are sorted by their first index.
func (T *Topology) Components() [][]int {
	cc := topo.ConnectedComponents(T.UndirectedGraph)
	ret := make([][]int, 0, len(cc))
	for _, c := range cc {
		idx := make([]int, len(c))
		for i, n := range c {
			idx[i] = int(n.ID())
		}
		slices.Sort(idx)
		ret = append(ret, idx)
	}
	slices.SortFunc(ret, func(a, b []int) int { return a[0] - b[0] })
	return ret
}

// Induced returns the graph with the same nodes, keeping only the bonds between atoms in set.
func (T *Topology) Induced(set []int) *Topology {
	in := make(map[int]bool, len(set))
	for _, i := range set {
		in[i] = true
	}
	var bonds [][2]int
	edges := T.Edges()
	for edges.Next() {
		e := edges.Edge()
		f, t := int(e.From().ID()), int(e.To().ID())
		if in[f] && in[t] {
			bonds = append(bonds, [2]int{f, t})
		}
	}
	return FromBonds(T.n, bonds)
}

// Subgraph returns the connected components of the graph induced by the atoms in set.
func (T *Topology) Subgraph(set []int) [][]int {
	in := make(map[int]bool, len(set))
	for _, i := range set {
		in[i] = true
	}
	var ret [][]int
	for _, c := range T.Induced(set).Components() {
		if in[c[0]] {
			ret = append(ret, c)
		}
	}
	return ret
}

// BFSOrder returns the atoms of the component of root in breadth-first order, together
// with the parent of each visited atom (-1 for root).
func (T *Topology) BFSOrder(root int) (order []int, parent map[int]int) {
	parent = map[int]int{root: -1}
	queue := []int{root}
	for len(queue) > 0 {
		c := queue[0]
		queue = queue[1:]
		order = append(order, c)
		for _, n := range T.Neighbors(c) {
			if _, ok := parent[n]; !ok {
				parent[n] = c
				queue = append(queue, n)
			}
		}
	}
	return order, parent
}

func sortedIDs(nodes graph.Nodes) []int {
	var ret []int
	for nodes.Next() {
		ret = append(ret, int(nodes.Node().ID()))
	}
	slices.Sort(ret)
	return ret
}
