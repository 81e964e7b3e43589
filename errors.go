/*
 * errors.go, part of gotraj.
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
	"errors"
	"fmt"
	"strings"
)

// CError is the base for all the errors of the chem package. It carries a message and
// a "decoration", the list of functions the error went through while being passed up.
type CError struct {
	msg  string
	deco []string
	err  error
}

func (err *CError) Error() string {
	if err.err != nil {
		return fmt.Sprintf("%s: %v", err.msg, err.err)
	}
	return err.msg
}

// Decorate adds deco to the decoration slice of the error, and returns the slice.
// If deco is empty, it just returns the current slice.
func (err *CError) Decorate(deco string) []string {
	if deco != "" {
		err.deco = append(err.deco, deco)
	}
	return err.deco
}

// Unwrap returns the underlying error, if any.
func (err *CError) Unwrap() error { return err.err }

func newCError(caller string, cause error, format string, args ...interface{}) CError {
	return CError{msg: fmt.Sprintf(format, args...), deco: []string{caller}, err: cause}
}

// UnknownAtomError is returned when a symbol is not present in the element database.
type UnknownAtomError struct {
	CError
	Symbol string
}

func (*UnknownAtomError) Kind() string { return "UnknownAtomError" }

// UnknownMoleculeError is returned when a molecule code is not in the molecule database.
type UnknownMoleculeError struct {
	CError
	Code string
}

func (*UnknownMoleculeError) Kind() string { return "UnknownMoleculeError" }

// UnknownResidueError is returned when a residue or nucleotide code is not in its database.
type UnknownResidueError struct {
	CError
	Code string
}

func (*UnknownResidueError) Kind() string { return "UnknownResidueError" }

// InvalidVariantError is returned when a variant does not exist, or is not a
// terminus variant usable for the given residue.
type InvalidVariantError struct {
	CError
	Variant string
}

func (*InvalidVariantError) Kind() string { return "InvalidVariantError" }

// InconsistentAtomNamesError is returned when a set of names does not match
// the atoms of an entity.
type InconsistentAtomNamesError struct {
	CError
	Names []string
}

func (*InconsistentAtomNamesError) Kind() string { return "InconsistentAtomNamesError" }

// InvalidPeptideChainError is returned when a terminus boundary atom can't be found
// while assembling a peptide chain.
type InvalidPeptideChainError struct{ CError }

func (*InvalidPeptideChainError) Kind() string { return "InvalidPeptideChainError" }

// InvalidNucleotideChainError is returned when a terminus boundary atom can't be found
// while assembling a nucleotide chain.
type InvalidNucleotideChainError struct{ CError }

func (*InvalidNucleotideChainError) Kind() string { return "InvalidNucleotideChainError" }

// InvalidChemicalEntityError is returned when something that is not a valid
// chemical entity is added to an entity container.
type InvalidChemicalEntityError struct{ CError }

func (*InvalidChemicalEntityError) Kind() string { return "InvalidChemicalEntityError" }

// InconsistentChemicalSystemError is returned when a configuration is bound to the wrong
// chemical system, or a serialized system can't be rebuilt.
type InconsistentChemicalSystemError struct{ CError }

func (*InconsistentChemicalSystemError) Kind() string { return "InconsistentChemicalSystemError" }

// errDecorate decorates err with the caller's name if err implements Error,
// and returns it unchanged otherwise.
func errDecorate(err error, caller string) error {
	if err == nil {
		return nil
	}
	var e Error
	if errors.As(err, &e) {
		e.Decorate(caller)
	}
	return err
}

// Trace returns the decoration of err as a single string, or an empty string if
// err does not implement Error.
func Trace(err error) string {
	var e Error
	if !errors.As(err, &e) {
		return ""
	}
	return strings.Join(e.Decorate(""), " <- ")
}
