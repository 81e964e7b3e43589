/*
 * serialize.go, part of gotraj.
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
	"encoding/json"
	"fmt"
	"os"

	"golang.org/x/exp/maps"
	"golang.org/x/exp/slices"
)

// AtomRecord is the stored form of an atom. Index is -1 for ghosts.
type AtomRecord struct {
	Name    string   `json:"name"`
	Symbol  string   `json:"symbol"`
	Index   int      `json:"index"`
	Ghost   bool     `json:"ghost,omitempty"`
	Flags   []string `json:"flags,omitempty"`
	Markers []string `json:"markers,omitempty"`
}

// GroupRecord is the stored form of any entity other than an atom. Members holds
// positions into the list of the member kind (atoms for clusters, molecules and
// monomers; residues for peptide chains, and so on).
type GroupRecord struct {
	Name    string `json:"name"`
	Code    string `json:"code,omitempty"`
	Variant string `json:"variant,omitempty"`
	Members []int  `json:"members"`
}

// ContentRecord points to a top-level entity of the system.
type ContentRecord struct {
	Kind  EntityKind `json:"kind"`
	Index int        `json:"index"`
}

// SystemStore is the flat, per-kind, representation of a ChemicalSystem. Entities are
// referenced by kind and position, never by type names.
type SystemStore struct {
	Name             string          `json:"name"`
	Atoms            []AtomRecord    `json:"atoms"`
	AtomClusters     []GroupRecord   `json:"atom_clusters,omitempty"`
	Molecules        []GroupRecord   `json:"molecules,omitempty"`
	Residues         []GroupRecord   `json:"residues,omitempty"`
	Nucleotides      []GroupRecord   `json:"nucleotides,omitempty"`
	PeptideChains    []GroupRecord   `json:"peptide_chains,omitempty"`
	NucleotideChains []GroupRecord   `json:"nucleotide_chains,omitempty"`
	Proteins         []GroupRecord   `json:"proteins,omitempty"`
	Contents         []ContentRecord `json:"contents"`
	// Bonds between positions of the Atoms list.
	Bonds [][2]int `json:"bonds,omitempty"`
}

func (st *SystemStore) list(k EntityKind) *[]GroupRecord {
	switch k {
	case KindAtomCluster:
		return &st.AtomClusters
	case KindMolecule:
		return &st.Molecules
	case KindResidue:
		return &st.Residues
	case KindNucleotide:
		return &st.Nucleotides
	case KindPeptideChain:
		return &st.PeptideChains
	case KindNucleotideChain:
		return &st.NucleotideChains
	case KindProtein:
		return &st.Proteins
	}
	return nil
}

// Serialize returns the flat representation of the system.
func (S *ChemicalSystem) Serialize() *SystemStore {
	st := &SystemStore{Name: S.name}
	pos := make(map[*Atom]int)
	for _, e := range S.entities {
		st.Contents = append(st.Contents, ContentRecord{e.Kind(), st.serialize(e, pos)})
	}
	for a, i := range pos {
		for _, b := range a.bonds {
			if b.Symbolic() {
				continue
			}
			if j, ok := pos[b.Atom]; ok && i < j {
				st.Bonds = append(st.Bonds, [2]int{i, j})
			}
		}
	}
	slices.SortFunc(st.Bonds, func(x, y [2]int) int {
		if x[0] != y[0] {
			return x[0] - y[0]
		}
		return x[1] - y[1]
	})
	return st
}

// serialize appends e and its descendants to the store, and returns the position of e in
// the list for its kind.
func (st *SystemStore) serialize(e Entity, pos map[*Atom]int) int {
	if a, ok := e.(*Atom); ok {
		r := AtomRecord{Name: a.name, Symbol: a.symbol, Index: a.index, Ghost: a.ghost}
		for _, b := range a.bonds {
			if b.Symbolic() {
				r.Markers = append(r.Markers, b.Marker)
			}
		}
		for f, v := range a.flags {
			if v {
				r.Flags = append(r.Flags, f)
			}
		}
		slices.Sort(r.Flags)
		pos[a] = len(st.Atoms)
		st.Atoms = append(st.Atoms, r)
		return pos[a]
	}
	g := GroupRecord{Name: e.Name()}
	switch u := e.(type) {
	case *Molecule:
		g.Code = u.code
	case *Residue:
		g.Code, g.Variant = u.code, u.variant
	case *Nucleotide:
		g.Code, g.Variant = u.code, u.variant
	}
	for _, c := range e.Children() {
		g.Members = append(g.Members, st.serialize(c, pos))
	}
	l := st.list(e.Kind())
	*l = append(*l, g)
	return len(*l) - 1
}

// loader keeps track of which records have already been used, as every
// record must belong to exactly one parent.
type loader struct {
	st    *SystemStore
	atoms []*Atom
	used  map[EntityKind]map[int]bool
}

func (l *loader) fail(format string, args ...interface{}) error {
	return &InconsistentChemicalSystemError{newCError("SystemStore.Build", nil, format, args...)}
}

func (l *loader) take(k EntityKind, i, n int) error {
	if i < 0 || i >= n {
		return l.fail("%s %d out of range", k, i)
	}
	if l.used[k] == nil {
		l.used[k] = make(map[int]bool)
	}
	if l.used[k][i] {
		return l.fail("%s %d is referenced twice", k, i)
	}
	l.used[k][i] = true
	return nil
}

func (l *loader) atomsOf(g GroupRecord) ([]*Atom, error) {
	ret := make([]*Atom, len(g.Members))
	for i, m := range g.Members {
		if err := l.take(KindAtom, m, len(l.atoms)); err != nil {
			return nil, err
		}
		ret[i] = l.atoms[m]
	}
	return ret, nil
}

func (l *loader) build(k EntityKind, i int) (Entity, error) {
	if k == KindAtom {
		if err := l.take(k, i, len(l.atoms)); err != nil {
			return nil, err
		}
		return l.atoms[i], nil
	}
	list := l.st.list(k)
	if list == nil {
		return nil, l.fail("unknown entity kind %q", k)
	}
	if err := l.take(k, i, len(*list)); err != nil {
		return nil, err
	}
	g := (*list)[i]
	switch k {
	case KindAtomCluster, KindMolecule, KindResidue, KindNucleotide:
		atoms, err := l.atomsOf(g)
		if err != nil {
			return nil, err
		}
		grp := atomGroup{name: g.Name, atoms: atoms}
		var e Entity
		switch k {
		case KindAtomCluster:
			e = &AtomCluster{grp}
		case KindMolecule:
			e = &Molecule{grp, g.Code}
		case KindResidue:
			e = &Residue{monomer{grp, g.Code, g.Variant}}
		default:
			e = &Nucleotide{monomer{grp, g.Code, g.Variant}}
		}
		for _, a := range atoms {
			a.parent = e
		}
		return e, nil
	case KindPeptideChain:
		c := &PeptideChain{name: g.Name}
		for _, m := range g.Members {
			r, err := l.build(KindResidue, m)
			if err != nil {
				return nil, err
			}
			r.setParent(c)
			c.residues = append(c.residues, r.(*Residue))
		}
		return c, nil
	case KindNucleotideChain:
		c := &NucleotideChain{name: g.Name}
		for _, m := range g.Members {
			n, err := l.build(KindNucleotide, m)
			if err != nil {
				return nil, err
			}
			n.setParent(c)
			c.nucleotides = append(c.nucleotides, n.(*Nucleotide))
		}
		return c, nil
	default:
		p := &Protein{name: g.Name}
		for _, m := range g.Members {
			c, err := l.build(KindPeptideChain, m)
			if err != nil {
				return nil, err
			}
			c.setParent(p)
			p.chains = append(p.chains, c.(*PeptideChain))
		}
		return p, nil
	}
}

// Build reconstructs the chemical system. The stored indexes must be dense and
// consistent with the order of the contents.
func (st *SystemStore) Build() (*ChemicalSystem, error) {
	l := &loader{st: st, used: make(map[EntityKind]map[int]bool)}
	for _, r := range st.Atoms {
		e, err := Elements.Get(r.Symbol)
		if err != nil {
			return nil, errDecorate(err, "SystemStore.Build")
		}
		a := &Atom{name: r.Name, symbol: e.Symbol, index: -1, ghost: r.Ghost, element: e}
		for _, f := range r.Flags {
			a.SetFlag(f, true)
		}
		for _, m := range r.Markers {
			a.addMarker(m)
		}
		if !r.Ghost {
			a.index = r.Index
		}
		l.atoms = append(l.atoms, a)
	}
	for _, b := range st.Bonds {
		if b[0] < 0 || b[1] < 0 || b[0] >= len(l.atoms) || b[1] >= len(l.atoms) {
			return nil, l.fail("bond %v out of range", b)
		}
		l.atoms[b[0]].AddBond(l.atoms[b[1]])
	}
	S := NewChemicalSystem(st.Name)
	for _, c := range st.Contents {
		e, err := l.build(c.Kind, c.Index)
		if err != nil {
			return nil, err
		}
		e.setParent(S)
		S.entities = append(S.entities, e)
		for _, a := range e.AtomList() {
			if a.index != len(S.atoms) {
				return nil, l.fail("atom %s has index %d, expected %d", a.FullName(), a.index, len(S.atoms))
			}
			S.atoms = append(S.atoms, a)
		}
	}
	if len(l.used[KindAtom]) != len(st.Atoms) {
		return nil, l.fail("%d atom records are not part of the system", len(st.Atoms)-len(l.used[KindAtom]))
	}
	for _, k := range []EntityKind{KindAtomCluster, KindMolecule, KindResidue, KindNucleotide, KindPeptideChain, KindNucleotideChain, KindProtein} {
		if n := len(*st.list(k)); len(l.used[k]) != n {
			return nil, l.fail("%d %s records are not part of the system", n-len(l.used[k]), k)
		}
	}
	return S, nil
}

// WriteFile writes the system to a JSON file.
func (S *ChemicalSystem) WriteFile(path string) error {
	data, err := json.MarshalIndent(S.Serialize(), "", "  ")
	if err != nil {
		return fmt.Errorf("chem: can't encode system %s: %w", S.name, err)
	}
	return os.WriteFile(path, data, 0o644)
}

// ReadFile reads a system written by WriteFile.
func ReadFile(path string) (*ChemicalSystem, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	st := new(SystemStore)
	if err := json.Unmarshal(data, st); err != nil {
		return nil, &InconsistentChemicalSystemError{newCError("ReadFile", err, "can't decode %s", path)}
	}
	S, err := st.Build()
	return S, errDecorate(err, "ReadFile")
}

// Kinds returns the sorted set of entity kinds present in the store.
func (st *SystemStore) Kinds() []EntityKind {
	set := map[EntityKind]bool{}
	for _, c := range st.Contents {
		set[c.Kind] = true
	}
	ret := maps.Keys(set)
	slices.Sort(ret)
	return ret
}
