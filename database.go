/*
 * database.go, part of gotraj.
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
	_ "embed"
	"fmt"
	"sync"

	"golang.org/x/exp/maps"
	"golang.org/x/exp/slices"
	"gopkg.in/yaml.v3"
)

//go:embed data/residues.yaml
var residuesYAML []byte

//go:embed data/nucleotides.yaml
var nucleotidesYAML []byte

//go:embed data/molecules.yaml
var moleculesYAML []byte

// AtomDef is the database description of one atom of a unit.
type AtomDef struct {
	Name   string   `yaml:"name"`
	Symbol string   `yaml:"symbol"`
	Bonds  []string `yaml:"bonds"`
	Flags  []string `yaml:"flags"`
	Ghost  bool     `yaml:"ghost"`
}

// VariantDef is a named terminus modification of a residue or nucleotide.
// Remove lists the atoms that disappear, Atoms the ones that are added, and Markers
// adds symbolic bonds to existing atoms.
type VariantDef struct {
	Terminus string              `yaml:"terminus"`
	Remove   []string            `yaml:"remove"`
	Atoms    []AtomDef           `yaml:"atoms"`
	Markers  map[string][]string `yaml:"markers"`
}

// UnitDef describes a molecule, residue or nucleotide.
type UnitDef struct {
	Name     string                `yaml:"name"`
	Atoms    []AtomDef             `yaml:"atoms"`
	Variants map[string]VariantDef `yaml:"variants"`
}

type dbFile struct {
	Units map[string]UnitDef `yaml:"units"`
}

// Database is a set of unit definitions, indexed by code.
type Database struct {
	mu    sync.RWMutex
	kind  EntityKind
	units map[string]UnitDef
}

// The default databases, loaded from the documents embedded in the package.
var (
	Residues    = mustDatabase(KindResidue, residuesYAML)
	Nucleotides = mustDatabase(KindNucleotide, nucleotidesYAML)
	Molecules   = mustDatabase(KindMolecule, moleculesYAML)
)

func mustDatabase(kind EntityKind, data []byte) *Database {
	db := &Database{kind: kind, units: make(map[string]UnitDef)}
	if err := db.Load(data); err != nil {
		panic(fmt.Sprintf("chem: embedded %s database is broken: %v", kind, err))
	}
	return db
}

// Load reads a YAML document with a top-level "units" mapping and adds its units
// to the database, replacing units with the same code.
func (D *Database) Load(data []byte) error {
	var f dbFile
	if err := yaml.Unmarshal(data, &f); err != nil {
		return fmt.Errorf("chem: can't decode %s database: %w", D.kind, err)
	}
	for code, u := range f.Units {
		if err := u.check(); err != nil {
			return fmt.Errorf("chem: %s %s: %w", D.kind, code, err)
		}
	}
	D.mu.Lock()
	defer D.mu.Unlock()
	for code, u := range f.Units {
		D.units[code] = u
	}
	return nil
}

func (U UnitDef) check() error {
	names := make(map[string]bool, len(U.Atoms))
	for _, a := range U.Atoms {
		if names[a.Name] {
			return fmt.Errorf("duplicated atom name %s", a.Name)
		}
		names[a.Name] = true
		if !Elements.Has(a.Symbol) {
			return fmt.Errorf("atom %s has unknown symbol %s", a.Name, a.Symbol)
		}
	}
	return nil
}

// Get returns the definition for code.
func (D *Database) Get(code string) (UnitDef, bool) {
	D.mu.RLock()
	defer D.mu.RUnlock()
	u, ok := D.units[code]
	return u, ok
}

// Codes returns the sorted codes in the database.
func (D *Database) Codes() []string {
	D.mu.RLock()
	defer D.mu.RUnlock()
	ret := maps.Keys(D.units)
	slices.Sort(ret)
	return ret
}

// AtomNames returns the names of the atoms for code with the given variant applied.
func (D *Database) AtomNames(code, variant string) ([]string, error) {
	defs, err := D.atomDefs(code, variant)
	if err != nil {
		return nil, err
	}
	ret := make([]string, len(defs))
	for i, d := range defs {
		ret[i] = d.Name
	}
	return ret, nil
}

func (D *Database) unknown(code string) error {
	c := newCError("Database.Get", nil, "%s %q not in database", D.kind, code)
	if D.kind == KindMolecule {
		return &UnknownMoleculeError{c, code}
	}
	return &UnknownResidueError{c, code}
}

// atomDefs returns the atom definitions of code, with variant applied if not empty.
func (D *Database) atomDefs(code, variant string) ([]AtomDef, error) {
	u, ok := D.Get(code)
	if !ok {
		return nil, D.unknown(code)
	}
	if variant == "" {
		return u.Atoms, nil
	}
	v, ok := u.Variants[variant]
	if !ok || v.Terminus == "" {
		return nil, &InvalidVariantError{newCError("Database.atomDefs", nil, "%s is not a terminus variant of %s", variant, code), variant}
	}
	ret := make([]AtomDef, 0, len(u.Atoms)+len(v.Atoms))
	for _, a := range u.Atoms {
		if slices.Contains(v.Remove, a.Name) {
			continue
		}
		if m, ok := v.Markers[a.Name]; ok {
			a.Bonds = append(append([]string(nil), a.Bonds...), m...)
		}
		ret = append(ret, a)
	}
	return append(ret, v.Atoms...), nil
}

// buildAtoms creates the atoms for code and bonds them. Bonds to names that are
// not present (i.e. removed by a variant) are skipped.
func (D *Database) buildAtoms(code, variant string) ([]*Atom, error) {
	defs, err := D.atomDefs(code, variant)
	if err != nil {
		return nil, err
	}
	atoms := make([]*Atom, len(defs))
	byName := make(map[string]*Atom, len(defs))
	for i, d := range defs {
		var a *Atom
		if d.Ghost {
			a, err = NewGhostAtom(d.Symbol, d.Name)
		} else {
			a, err = NewAtom(d.Symbol, d.Name)
		}
		if err != nil {
			return nil, err
		}
		for _, f := range d.Flags {
			a.SetFlag(f, true)
		}
		atoms[i] = a
		byName[d.Name] = a
	}
	for i, d := range defs {
		for _, b := range d.Bonds {
			if b == PrevMarker || b == NextMarker {
				atoms[i].addMarker(b)
				continue
			}
			if other, ok := byName[b]; ok {
				atoms[i].AddBond(other)
			}
		}
	}
	return atoms, nil
}
