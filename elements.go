/*
 * elements.go, part of gotraj.
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
	"fmt"
	"math"
	"strings"
	"sync"

	"golang.org/x/exp/slices"
)

// Element contains the physical properties of a chemical element. Lengths are
// in nm, masses in uma, and scattering lengths in fm.
type Element struct {
	Symbol         string
	Name           string
	AtomicNumber   int
	AtomicWeight   float64
	CovalentRadius float64
	VdwRadius      float64
	BCoherent      float64
	MaxBonds       int //0 means undefined, i.e. the atom is not checked for max bonds.
}

// Property returns the numerical property prop of the element. The accepted
// names are atomic_number, atomic_weight, covalent_radius, vdw_radius and b_coherent.
func (E Element) Property(prop string) (float64, bool) {
	switch prop {
	case "atomic_number":
		return float64(E.AtomicNumber), true
	case "atomic_weight", "mass":
		return E.AtomicWeight, true
	case "covalent_radius":
		return E.CovalentRadius, true
	case "vdw_radius":
		return E.VdwRadius, true
	case "b_coherent":
		return E.BCoherent, true
	case "equal":
		return 1, true
	}
	return 0, false
}

// ElementDatabase maps symbols to element records. Reads can happen concurrently,
// writes are rare and take a lock.
type ElementDatabase struct {
	mu   sync.RWMutex
	data map[string]Element
}

// Elements is the default element database.
// Covalent radii from Cordero et al., 2008 (DOI:10.1039/B801115J), van der Waals radii
// from 10.1021/j100785a001 and 10.1021/jp8111556, scattering lengths from the NIST tables.
var Elements = NewElementDatabase([]Element{
	{"H", "hydrogen", 1, 1.008, 0.031, 0.110, -3.7390, 1},
	{"D", "deuterium", 1, 2.014, 0.031, 0.110, 6.671, 1},
	{"He", "helium", 2, 4.0026, 0.028, 0.140, 3.26, 0},
	{"Li", "lithium", 3, 6.94, 0.128, 0.182, -1.90, 0},
	{"Be", "beryllium", 4, 9.012, 0.096, 0.153, 7.79, 0},
	{"B", "boron", 5, 10.81, 0.084, 0.192, 5.30, 0},
	{"C", "carbon", 6, 12.011, 0.076, 0.170, 6.6460, 4},
	{"N", "nitrogen", 7, 14.007, 0.071, 0.155, 9.36, 0},
	{"O", "oxygen", 8, 15.999, 0.066, 0.152, 5.803, 2},
	{"F", "fluorine", 9, 18.998, 0.057, 0.147, 5.654, 1},
	{"Ne", "neon", 10, 20.180, 0.058, 0.154, 4.566, 0},
	{"Na", "sodium", 11, 22.990, 0.166, 0.227, 3.63, 0},
	{"Mg", "magnesium", 12, 24.305, 0.141, 0.173, 5.375, 0},
	{"Al", "aluminium", 13, 26.982, 0.121, 0.184, 3.449, 0},
	{"Si", "silicon", 14, 28.085, 0.111, 0.210, 4.1491, 0},
	{"P", "phosphorus", 15, 30.974, 0.107, 0.180, 5.13, 0},
	{"S", "sulfur", 16, 32.06, 0.105, 0.180, 2.847, 0},
	{"Cl", "chlorine", 17, 35.45, 0.102, 0.175, 9.5770, 0},
	{"Ar", "argon", 18, 39.948, 0.106, 0.188, 1.909, 0},
	{"K", "potassium", 19, 39.098, 0.203, 0.275, 3.67, 0},
	{"Ca", "calcium", 20, 40.078, 0.176, 0.231, 4.70, 0},
	{"Cr", "chromium", 24, 51.996, 0.139, 0.197, 3.635, 0},
	{"Mn", "manganese", 25, 54.938, 0.161, 0.196, -3.73, 0},
	{"Fe", "iron", 26, 55.845, 0.152, 0.196, 9.45, 0},
	{"Co", "cobalt", 27, 58.933, 0.150, 0.195, 2.49, 0},
	{"Ni", "nickel", 28, 58.693, 0.124, 0.163, 10.3, 0},
	{"Cu", "copper", 29, 63.546, 0.132, 0.200, 7.718, 0},
	{"Zn", "zinc", 30, 65.38, 0.122, 0.202, 5.68, 0},
	{"Se", "selenium", 34, 78.971, 0.120, 0.190, 7.970, 0},
	{"Br", "bromine", 35, 79.904, 0.120, 0.183, 6.795, 1},
	{"Kr", "krypton", 36, 83.798, 0.116, 0.202, 7.81, 0},
	{"I", "iodine", 53, 126.904, 0.139, 0.198, 5.28, 1},
	{"Xe", "xenon", 54, 131.293, 0.140, 0.216, 4.92, 0},
})

// NewElementDatabase builds a database from the given records.
func NewElementDatabase(recs []Element) *ElementDatabase {
	db := &ElementDatabase{data: make(map[string]Element, len(recs))}
	for _, v := range recs {
		db.data[v.Symbol] = v
	}
	return db
}

// normalizeSymbol turns "CL" or "cl" into "Cl".
func normalizeSymbol(s string) string {
	s = strings.TrimSpace(s)
	if len(s) == 0 {
		return s
	}
	return strings.ToUpper(s[:1]) + strings.ToLower(s[1:])
}

// Get returns the record for symbol, or an UnknownAtomError.
func (db *ElementDatabase) Get(symbol string) (Element, error) {
	db.mu.RLock()
	defer db.mu.RUnlock()
	e, ok := db.data[normalizeSymbol(symbol)]
	if !ok {
		return Element{}, &UnknownAtomError{newCError("ElementDatabase.Get", nil, "unknown element symbol %q", symbol), symbol}
	}
	return e, nil
}

// Has returns true if symbol is in the database.
func (db *ElementDatabase) Has(symbol string) bool {
	_, err := db.Get(symbol)
	return err == nil
}

// Register adds or replaces a record.
func (db *ElementDatabase) Register(e Element) {
	db.mu.Lock()
	defer db.mu.Unlock()
	db.data[e.Symbol] = e
}

// Symbols returns all the symbols in the database, sorted.
func (db *ElementDatabase) Symbols() []string {
	db.mu.RLock()
	defer db.mu.RUnlock()
	ret := make([]string, 0, len(db.data))
	for k := range db.data {
		ret = append(ret, k)
	}
	slices.Sort(ret)
	return ret
}

// MatchNumericProperty returns all the symbols whose property prop lies in
// [value-tolerance, value+tolerance], sorted.
func (db *ElementDatabase) MatchNumericProperty(prop string, value, tolerance float64) ([]string, error) {
	db.mu.RLock()
	defer db.mu.RUnlock()
	ret := make([]string, 0, 2)
	for k, e := range db.data {
		p, ok := e.Property(prop)
		if !ok {
			return nil, fmt.Errorf("unknown numeric property %q", prop)
		}
		if math.Abs(p-value) <= tolerance {
			ret = append(ret, k)
		}
	}
	slices.Sort(ret)
	return ret, nil
}
