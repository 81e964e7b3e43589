/*
 * order.go, part of gotraj.
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

package configurators

import (
	"sort"

	"gonum.org/v1/gonum/graph"
	"gonum.org/v1/gonum/graph/simple"
	"gonum.org/v1/gonum/graph/topo"
)

// dependencyOrder sorts names so that every configurator comes after the siblings it
// depends on. Among independent configurators, the declaration order is kept.
func dependencyOrder(names []string, items map[string]Configurator) ([]string, error) {
	ids := make(map[string]int64, len(names))
	g := simple.NewDirectedGraph()
	for i, n := range names {
		ids[n] = int64(i)
		g.AddNode(simple.Node(i))
	}
	for _, n := range names {
		c := items[n]
		for _, role := range c.Requires() {
			t := roleTarget(c, role)
			id, ok := ids[t]
			if !ok {
				return nil, newError(c, "dependencyOrder", "depends on %q (as %s), which is not declared", t, role)
			}
			if t == n {
				return nil, newError(c, "dependencyOrder", "depends on itself")
			}
			g.SetEdge(g.NewEdge(simple.Node(id), simple.Node(ids[n])))
		}
	}
	sorted, err := topo.SortStabilized(g, func(nodes []graph.Node) {
		sort.Slice(nodes, func(i, j int) bool { return nodes[i].ID() < nodes[j].ID() })
	})
	if err != nil {
		var cyc []string
		if u, ok := err.(topo.Unorderable); ok {
			for _, comp := range u {
				for _, nd := range comp {
					cyc = append(cyc, names[nd.ID()])
				}
			}
		}
		return nil, newError(nil, "dependencyOrder", "cyclic dependencies among %v", cyc)
	}
	ret := make([]string, len(sorted))
	for i, nd := range sorted {
		ret[i] = names[nd.ID()]
	}
	return ret, nil
}
