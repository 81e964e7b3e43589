/*
 * substructure.go, part of gotraj.
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

package chem

import (
	"strconv"
	"strings"

	"golang.org/x/exp/maps"
	"golang.org/x/exp/slices"
)

// PatternError is returned when a substructure pattern can't be parsed.
type PatternError struct {
	CError
	Pattern string
}

func (*PatternError) Kind() string { return "PatternError" }

// atomTest is one primitive of a pattern atom: an element symbol, an atomic number,
// or anything (empty symbol and zero number).
type atomTest struct {
	neg    bool
	symbol string
	number int
}

func (t atomTest) match(a *Atom) bool {
	var ok bool
	switch {
	case t.symbol != "":
		ok = a.symbol == t.symbol
	case t.number > 0:
		ok = a.element.AtomicNumber == t.number
	default:
		ok = true
	}
	return ok != t.neg
}

// queryAtom matches if any of its alternatives matches, an alternative
// matching when all of its tests do.
type queryAtom [][]atomTest

func (q queryAtom) match(a *Atom) bool {
	for _, alt := range q {
		ok := true
		for _, t := range alt {
			if !t.match(a) {
				ok = false
				break
			}
		}
		if ok {
			return true
		}
	}
	return false
}

type pattern struct {
	atoms []queryAtom
	adj   [][]int
}

func (p *pattern) addBond(i, j int) {
	p.adj[i] = append(p.adj[i], j)
	p.adj[j] = append(p.adj[j], i)
}

var organic = []string{"Cl", "Br", "B", "C", "N", "O", "P", "S", "F", "I", "b", "c", "n", "o", "p", "s"}

// parsePattern parses the supported subset of SMARTS: organic-subset and bracket atoms,
// wildcards, negation, comma lists, branches, ring closures and dot-separated fragments.
// Bond orders are accepted but not checked.
func parsePattern(s string) (*pattern, error) {
	fail := func(format string, args ...interface{}) error {
		return &PatternError{newCError("parsePattern", nil, format, args...), s}
	}
	p := &pattern{}
	prev := -1
	var stack []int
	rings := make(map[int]int)
	add := func(q queryAtom) {
		p.atoms = append(p.atoms, q)
		p.adj = append(p.adj, nil)
		cur := len(p.atoms) - 1
		if prev >= 0 {
			p.addBond(prev, cur)
		}
		prev = cur
	}
	ring := func(n int) error {
		if prev < 0 {
			return fail("ring closure %d before any atom", n)
		}
		if o, ok := rings[n]; ok {
			p.addBond(o, prev)
			delete(rings, n)
			return nil
		}
		rings[n] = prev
		return nil
	}
	for i := 0; i < len(s); {
		c := s[i]
		switch {
		case c == '(':
			if prev < 0 {
				return nil, fail("branch before any atom")
			}
			stack = append(stack, prev)
			i++
		case c == ')':
			if len(stack) == 0 {
				return nil, fail("unbalanced ')'")
			}
			prev = stack[len(stack)-1]
			stack = stack[:len(stack)-1]
			i++
		case strings.IndexByte("-=#~:/\\", c) >= 0:
			i++
		case c == '.':
			prev = -1
			i++
		case c >= '0' && c <= '9':
			if err := ring(int(c - '0')); err != nil {
				return nil, err
			}
			i++
		case c == '%':
			if i+2 >= len(s) {
				return nil, fail("truncated ring closure")
			}
			n, err := strconv.Atoi(s[i+1 : i+3])
			if err != nil {
				return nil, fail("bad ring closure %q", s[i:i+3])
			}
			if err := ring(n); err != nil {
				return nil, err
			}
			i += 3
		case c == '*':
			add(queryAtom{{{}}})
			i++
		case c == '[':
			end := strings.IndexByte(s[i:], ']')
			if end < 0 {
				return nil, fail("unclosed '['")
			}
			q, err := parseBracket(s[i+1 : i+end])
			if err != nil {
				return nil, fail("%v", err)
			}
			add(q)
			i += end + 1
		default:
			found := false
			for _, o := range organic {
				if strings.HasPrefix(s[i:], o) {
					add(queryAtom{{{symbol: normalizeSymbol(o)}}})
					i += len(o)
					found = true
					break
				}
			}
			if !found {
				return nil, fail("unexpected %q at position %d", c, i)
			}
		}
	}
	if len(stack) > 0 {
		return nil, fail("unbalanced '('")
	}
	if len(rings) > 0 {
		return nil, fail("unclosed ring bonds")
	}
	if len(p.atoms) == 0 {
		return nil, fail("empty pattern")
	}
	return p, nil
}

func parseBracket(s string) (queryAtom, error) {
	var q queryAtom
	for _, alt := range strings.Split(s, ",") {
		var tests []atomTest
		for _, prim := range strings.FieldsFunc(alt, func(r rune) bool { return r == '&' || r == ';' }) {
			t := atomTest{}
			prim = strings.TrimSpace(prim)
			for strings.HasPrefix(prim, "!") {
				t.neg = !t.neg
				prim = prim[1:]
			}
			switch {
			case prim == "*":
			case strings.HasPrefix(prim, "#"):
				n, err := strconv.Atoi(prim[1:])
				if err != nil || n <= 0 {
					return nil, &PatternError{newCError("parseBracket", nil, "bad atomic number %q", prim), s}
				}
				t.number = n
			default:
				if !Elements.Has(prim) {
					return nil, &PatternError{newCError("parseBracket", nil, "unknown element %q", prim), s}
				}
				t.symbol = normalizeSymbol(prim)
			}
			tests = append(tests, t)
		}
		if len(tests) == 0 {
			return nil, &PatternError{newCError("parseBracket", nil, "empty atom expression"), s}
		}
		q = append(q, tests)
	}
	return q, nil
}

// matcher finds the embeddings of a pattern into the bond graph of the system.
type matcher struct {
	p       *pattern
	atoms   []*Atom
	adj     [][]int
	order   []int
	mapping []int
	used    map[int]bool
	found   map[int]bool
}

func (m *matcher) bonded(i, j int) bool {
	return slices.Contains(m.adj[i], j)
}

func (m *matcher) extend(k int) {
	if k == len(m.order) {
		for _, a := range m.mapping {
			m.found[a] = true
		}
		return
	}
	q := m.order[k]
	var candidates []int
	// candidates are the neighbours of an already mapped pattern neighbour, if there is one.
	anchored := false
	for _, r := range m.p.adj[q] {
		if m.mapping[r] >= 0 {
			candidates = m.adj[m.mapping[r]]
			anchored = true
			break
		}
	}
	if !anchored {
		candidates = make([]int, len(m.atoms))
		for i := range candidates {
			candidates[i] = i
		}
	}
	for _, c := range candidates {
		if m.used[c] || !m.p.atoms[q].match(m.atoms[c]) {
			continue
		}
		ok := true
		for _, r := range m.p.adj[q] {
			if m.mapping[r] >= 0 && !m.bonded(c, m.mapping[r]) {
				ok = false
				break
			}
		}
		if !ok {
			continue
		}
		m.mapping[q] = c
		m.used[c] = true
		m.extend(k + 1)
		m.mapping[q] = -1
		delete(m.used, c)
	}
}

// bfsOrder returns the pattern atoms so that each one, other than the first of each
// fragment, has a neighbour earlier in the order.
func (p *pattern) bfsOrder() []int {
	seen := make([]bool, len(p.atoms))
	var order []int
	for s := range p.atoms {
		if seen[s] {
			continue
		}
		queue := []int{s}
		seen[s] = true
		for len(queue) > 0 {
			c := queue[0]
			queue = queue[1:]
			order = append(order, c)
			for _, n := range p.adj[c] {
				if !seen[n] {
					seen[n] = true
					queue = append(queue, n)
				}
			}
		}
	}
	return order
}

// adjacency returns the neighbour lists of the indexed atoms of the system.
func (S *ChemicalSystem) adjacency() [][]int {
	adj := make([][]int, len(S.atoms))
	for _, b := range S.Bonds() {
		adj[b[0]] = append(adj[b[0]], b[1])
		adj[b[1]] = append(adj[b[1]], b[0])
	}
	return adj
}

// SubstructureMatches returns the sorted indexes of the atoms that are part of at least one
// match of any of the patterns against the bond graph of the system.
func (S *ChemicalSystem) SubstructureMatches(patterns []string) ([]int, error) {
	found := make(map[int]bool)
	adj := S.adjacency()
	for _, s := range patterns {
		p, err := parsePattern(s)
		if err != nil {
			return nil, errDecorate(err, "ChemicalSystem.SubstructureMatches")
		}
		m := &matcher{p: p, atoms: S.atoms, adj: adj, order: p.bfsOrder(), used: make(map[int]bool), found: found}
		m.mapping = make([]int, len(p.atoms))
		for i := range m.mapping {
			m.mapping[i] = -1
		}
		m.extend(0)
	}
	ret := maps.Keys(found)
	slices.Sort(ret)
	return ret, nil
}
