/*
 * scalars.go, part of gotraj.
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
	"runtime"
	"strings"

	"github.com/rmera/gotraj/configuration"
	"golang.org/x/exp/slices"
)

// Kinds of the scalar and small composite configurators.
const (
	KindInteger         = "IntegerConfigurator"
	KindFloat           = "FloatConfigurator"
	KindBoolean         = "BooleanConfigurator"
	KindString          = "StringConfigurator"
	KindRange           = "RangeConfigurator"
	KindRunningMode     = "RunningModeConfigurator"
	KindMultipleChoices = "MultipleChoicesConfigurator"
	KindUnitCell        = "UnitCellConfigurator"
)

func required(c Configurator, raw any, caller string) error {
	if raw == nil {
		return newError(c, caller, "a value is required")
	}
	return nil
}

// Integer is a bounded integer, optionally restricted to a list of choices.
type Integer struct {
	base
	Int int
}

func NewInteger(name string, opts Options) *Integer {
	return &Integer{base: newBase(KindInteger, name, opts)}
}

func (I *Integer) Configure(raw any, _ map[string]Configurator) error {
	raw = I.orDefault(raw)
	if err := required(I, raw, "Integer.Configure"); err != nil {
		return err
	}
	v, err := toInt(raw)
	if err != nil {
		return wrapError(err, I, "Integer.Configure", "invalid integer")
	}
	if err := I.checkRange(I, float64(v)); err != nil {
		return err
	}
	if err := I.checkChoice(I, v); err != nil {
		return err
	}
	I.Int = v
	I.set(v, nil)
	return nil
}

// Float is a bounded number, optionally restricted to a list of choices.
type Float struct {
	base
	Float float64
}

func NewFloat(name string, opts Options) *Float {
	return &Float{base: newBase(KindFloat, name, opts)}
}

func (F *Float) Configure(raw any, _ map[string]Configurator) error {
	raw = F.orDefault(raw)
	if err := required(F, raw, "Float.Configure"); err != nil {
		return err
	}
	v, err := toFloat(raw)
	if err != nil {
		return wrapError(err, F, "Float.Configure", "invalid number")
	}
	if err := F.checkRange(F, v); err != nil {
		return err
	}
	if err := F.checkChoice(F, v); err != nil {
		return err
	}
	F.Float = v
	F.set(v, nil)
	return nil
}

// Boolean is a toggle. It defaults to false.
type Boolean struct {
	base
	Bool bool
}

func NewBoolean(name string, opts Options) *Boolean {
	if opts.Default == nil {
		opts.Default = false
	}
	return &Boolean{base: newBase(KindBoolean, name, opts)}
}

func (B *Boolean) Configure(raw any, _ map[string]Configurator) error {
	v, err := toBool(B.orDefault(raw))
	if err != nil {
		return wrapError(err, B, "Boolean.Configure", "invalid boolean")
	}
	B.Bool = v
	B.set(v, nil)
	return nil
}

// String is a free string, optionally restricted to a list of choices.
type String struct {
	base
	String string
}

func NewString(name string, opts Options) *String {
	if opts.Default == nil {
		opts.Default = ""
	}
	return &String{base: newBase(KindString, name, opts)}
}

func (S *String) Configure(raw any, _ map[string]Configurator) error {
	v, err := toString(S.orDefault(raw))
	if err != nil {
		return wrapError(err, S, "String.Configure", "invalid string")
	}
	if err := S.checkChoice(S, v); err != nil {
		return err
	}
	S.String = v
	S.set(v, nil)
	return nil
}

// Range takes (first, last, step) and produces the values first + k*step below last.
// Derived keys: first, last, step, number, mid_points.
type Range struct {
	base
	First, Last, Step float64
	Values            []float64
	// MidPoints are the centers of the bins bounded by consecutive values.
	MidPoints []float64
}

func NewRange(name string, opts Options) *Range {
	return &Range{base: newBase(KindRange, name, opts)}
}

func (R *Range) Configure(raw any, _ map[string]Configurator) error {
	raw = R.orDefault(raw)
	if err := required(R, raw, "Range.Configure"); err != nil {
		return err
	}
	f, err := fields(raw, "first", "last", "step")
	if err != nil {
		return wrapError(err, R, "Range.Configure", "invalid range")
	}
	var v [3]float64
	for i, k := range []string{"first", "last", "step"} {
		if f[k] == nil {
			return newError(R, "Range.Configure", "missing %s", k)
		}
		if v[i], err = toFloat(f[k]); err != nil {
			return wrapError(err, R, "Range.Configure", "invalid %s", k)
		}
	}
	first, last, step := v[0], v[1], v[2]
	if step <= 0 || last <= first {
		return newError(R, "Range.Configure", "invalid range (%v, %v, %v)", first, last, step)
	}
	if err := R.checkRange(R, first); err != nil {
		return err
	}
	if err := R.checkRange(R, last); err != nil {
		return err
	}
	n := int((last-first)/step + 1e-9)
	if first+float64(n)*step < last-1e-9*step {
		n++
	}
	values := make([]float64, n)
	for i := range values {
		values[i] = first + float64(i)*step
	}
	mids := make([]float64, 0, n)
	for i := 0; i+1 < n; i++ {
		mids = append(mids, (values[i]+values[i+1])/2)
	}
	R.First, R.Last, R.Step = first, last, step
	R.Values, R.MidPoints = values, mids
	R.set(values, map[string]any{"first": first, "last": last, "step": step, "number": n, "mid_points": mids})
	return nil
}

// Running modes.
const (
	Monoprocessor  = "monoprocessor"
	Multiprocessor = "multiprocessor"
)

// RunningMode takes "monoprocessor" or ("multiprocessor", workers). The number of workers
// defaults to the number of CPUs. Derived keys: mode, workers.
type RunningMode struct {
	base
	Mode    string
	Workers int
}

func NewRunningMode(name string, opts Options) *RunningMode {
	if opts.Default == nil {
		opts.Default = Monoprocessor
	}
	return &RunningMode{base: newBase(KindRunningMode, name, opts)}
}

func (R *RunningMode) Configure(raw any, _ map[string]Configurator) error {
	f, err := fields(R.orDefault(raw), "mode", "workers")
	if err != nil {
		return wrapError(err, R, "RunningMode.Configure", "invalid running mode")
	}
	mode, err := toString(f["mode"])
	if err != nil {
		return wrapError(err, R, "RunningMode.Configure", "invalid running mode")
	}
	mode = strings.ToLower(mode)
	workers := 1
	switch mode {
	case Monoprocessor:
	case Multiprocessor:
		workers = runtime.NumCPU()
		if f["workers"] != nil {
			if workers, err = toInt(f["workers"]); err != nil {
				return wrapError(err, R, "RunningMode.Configure", "invalid number of workers")
			}
		}
		if workers < 1 {
			return newError(R, "RunningMode.Configure", "the number of workers must be positive, got %d", workers)
		}
	default:
		return newError(R, "RunningMode.Configure", "unknown mode %q", mode)
	}
	R.Mode, R.Workers = mode, workers
	R.set(mode, map[string]any{"mode": mode, "workers": workers})
	return nil
}

// MultipleChoices takes a list of values, each one among the choices, without repetitions.
type MultipleChoices struct {
	base
	Selected []string
}

func NewMultipleChoices(name string, opts Options) *MultipleChoices {
	return &MultipleChoices{base: newBase(KindMultipleChoices, name, opts)}
}

func (M *MultipleChoices) Configure(raw any, _ map[string]Configurator) error {
	raw = M.orDefault(raw)
	var v []string
	if raw != nil {
		var err error
		if v, err = toStrings(raw); err != nil {
			return wrapError(err, M, "MultipleChoices.Configure", "invalid choices")
		}
	}
	if M.opts.MaxChoices > 0 && len(v) > M.opts.MaxChoices {
		return newError(M, "MultipleChoices.Configure", "at most %d values can be chosen, got %d", M.opts.MaxChoices, len(v))
	}
	for i, s := range v {
		if err := M.checkChoice(M, s); err != nil {
			return err
		}
		if slices.Contains(v[:i], s) {
			return newError(M, "MultipleChoices.Configure", "%q chosen twice", s)
		}
	}
	M.Selected = v
	M.set(v, nil)
	return nil
}

// UnitCell optionally overrides the unit cell of a trajectory. It takes (cell, apply), where
// cell has 9 numbers (the rows are the lattice vectors) or 3 rows of 3. By default nothing
// is applied. Derived keys: cell, apply.
type UnitCell struct {
	base
	Cell  *configuration.UnitCell
	Apply bool
}

func NewUnitCell(name string, opts Options) *UnitCell {
	return &UnitCell{base: newBase(KindUnitCell, name, opts)}
}

func (U *UnitCell) Configure(raw any, _ map[string]Configurator) error {
	raw = U.orDefault(raw)
	U.Cell, U.Apply = nil, false
	if raw == nil {
		U.set(nil, map[string]any{"cell": U.Cell, "apply": false})
		return nil
	}
	f := map[string]any{"cell": raw}
	var err error
	if _, ok := toMap(raw); ok {
		if f, err = fields(raw, "cell", "apply"); err != nil {
			return wrapError(err, U, "UnitCell.Configure", "invalid unit cell")
		}
	} else if l, ok := toList(raw); ok && len(l) == 2 {
		if _, isBool := l[1].(bool); isBool {
			f = map[string]any{"cell": l[0], "apply": l[1]}
		}
	}
	apply := true
	if f["apply"] != nil {
		if apply, err = toBool(f["apply"]); err != nil {
			return wrapError(err, U, "UnitCell.Configure", "invalid apply flag")
		}
	}
	vals, err := toFloats(f["cell"])
	if err != nil || len(vals) != 9 {
		return newError(U, "UnitCell.Configure", "the cell needs 9 numbers")
	}
	var data [9]float64
	copy(data[:], vals)
	cell, err := configuration.NewUnitCell(data)
	if err != nil {
		return wrapError(err, U, "UnitCell.Configure", "invalid unit cell")
	}
	U.Cell, U.Apply = cell, apply
	U.set(cell, map[string]any{"cell": cell, "apply": apply})
	return nil
}
