/*
 * configurator.go, part of gotraj.
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

// Package configurators implements the typed, validating parameter nodes that jobs declare
// in their settings. A Set configures its nodes in dependency order from a flat map of raw
// values, such as one decoded from a TOML or YAML parameter file.
package configurators

import (
	"fmt"
	"sort"
	"sync"

	"golang.org/x/exp/maps"
	"golang.org/x/exp/slices"
)

// Options customizes a configurator. Each kind reads only the fields that make sense for it.
type Options struct {
	// Default is used when the parameter is absent or nil.
	Default any
	// Dependencies maps the roles a kind reads (for instance "trajectory") to the names of
	// sibling configurators. A role not listed here is looked up by its own name.
	Dependencies map[string]string
	// Min and Max bound numerical values, inclusive.
	Min, Max *float64
	// Choices restricts the accepted values.
	Choices []any
	// Formats lists the output formats accepted by output file configurators.
	Formats []string
	// MaxChoices bounds the number of values a MultipleChoices configurator takes. 0 means no bound.
	MaxChoices int
	// Label is a human-readable name.
	Label string
}

// F returns a pointer to f, for the Min and Max options.
func F(f float64) *float64 { return &f }

// Configurator is a typed parameter node.
type Configurator interface {
	Name() string
	Kind() string
	Options() Options
	// Requires returns the dependency roles the configurator reads.
	Requires() []string
	// Configure validates and normalizes raw. deps holds the configured siblings,
	// keyed by role.
	Configure(raw any, deps map[string]Configurator) error
	Configured() bool
	// Value returns the normalized value.
	Value() any
	// Get returns the normalized value for "value", or a derived key.
	Get(key string) (any, bool)
}

// Setting declares one parameter of a job.
type Setting struct {
	Name    string
	Kind    string
	Options Options
}

// base holds what every configurator shares.
type base struct {
	name       string
	kind       string
	opts       Options
	configured bool
	value      any
	keys       map[string]any
}

func newBase(kind, name string, opts Options) base {
	return base{name: name, kind: kind, opts: opts, keys: make(map[string]any)}
}

func (B *base) Name() string       { return B.name }
func (B *base) Kind() string       { return B.kind }
func (B *base) Options() Options   { return B.opts }
func (B *base) Requires() []string { return nil }
func (B *base) Configured() bool   { return B.configured }
func (B *base) Value() any         { return B.value }

func (B *base) Get(key string) (any, bool) {
	if key == "value" {
		return B.value, B.configured
	}
	v, ok := B.keys[key]
	return v, ok
}

// set stores the normalized value and the derived keys, and marks the configurator as configured.
func (B *base) set(value any, keys map[string]any) {
	B.value = value
	for k, v := range keys {
		B.keys[k] = v
	}
	B.configured = true
}

func (B *base) orDefault(raw any) any {
	if raw == nil {
		return B.opts.Default
	}
	return raw
}

func (B *base) checkRange(c Configurator, f float64) error {
	if B.opts.Min != nil && f < *B.opts.Min {
		return newError(c, "checkRange", "%v is smaller than the minimum %v", f, *B.opts.Min)
	}
	if B.opts.Max != nil && f > *B.opts.Max {
		return newError(c, "checkRange", "%v is larger than the maximum %v", f, *B.opts.Max)
	}
	return nil
}

func (B *base) checkChoice(c Configurator, v any) error {
	if len(B.opts.Choices) == 0 {
		return nil
	}
	for _, ch := range B.opts.Choices {
		if fmt.Sprint(ch) == fmt.Sprint(v) {
			return nil
		}
	}
	return newError(c, "checkChoice", "%v is not one of %v", v, B.opts.Choices)
}

// Factory builds a configurator of a given kind.
type Factory func(name string, opts Options) Configurator

var (
	regMu    sync.RWMutex
	registry = map[string]Factory{}
)

// Register adds a configurator kind.
func Register(kind string, f Factory) {
	regMu.Lock()
	defer regMu.Unlock()
	registry[kind] = f
}

// Kinds returns the registered kinds, sorted.
func Kinds() []string {
	regMu.RLock()
	defer regMu.RUnlock()
	k := maps.Keys(registry)
	sort.Strings(k)
	return k
}

// New builds a configurator of the given kind.
func New(kind, name string, opts Options) (Configurator, error) {
	regMu.RLock()
	f, ok := registry[kind]
	regMu.RUnlock()
	if !ok {
		return nil, newError(nil, "New", "unknown configurator kind %q for %q", kind, name)
	}
	return f(name, opts), nil
}

func init() {
	Register(KindHDFTrajectory, func(n string, o Options) Configurator { return NewHDFTrajectory(n, o) })
	Register(KindFrames, func(n string, o Options) Configurator { return NewFrames(n, o) })
	Register(KindCorrelationFrames, func(n string, o Options) Configurator { return NewCorrelationFrames(n, o) })
	Register(KindAtomSelection, func(n string, o Options) Configurator { return NewAtomSelection(n, o) })
	Register(KindGroupingLevel, func(n string, o Options) Configurator { return NewGroupingLevel(n, o) })
	Register(KindWeights, func(n string, o Options) Configurator { return NewWeights(n, o) })
	Register(KindOutputFiles, func(n string, o Options) Configurator { return NewOutputFiles(n, o) })
	Register(KindSingleOutputFile, func(n string, o Options) Configurator { return NewSingleOutputFile(n, o) })
	Register(KindInputDirectory, func(n string, o Options) Configurator { return NewInputDirectory(n, o) })
	Register(KindInputFile, func(n string, o Options) Configurator { return NewInputFile(n, o) })
	Register(KindInteger, func(n string, o Options) Configurator { return NewInteger(n, o) })
	Register(KindFloat, func(n string, o Options) Configurator { return NewFloat(n, o) })
	Register(KindBoolean, func(n string, o Options) Configurator { return NewBoolean(n, o) })
	Register(KindString, func(n string, o Options) Configurator { return NewString(n, o) })
	Register(KindUnitCell, func(n string, o Options) Configurator { return NewUnitCell(n, o) })
	Register(KindOutputTrajectory, func(n string, o Options) Configurator { return NewOutputTrajectory(n, o) })
	Register(KindRange, func(n string, o Options) Configurator { return NewRange(n, o) })
	Register(KindRunningMode, func(n string, o Options) Configurator { return NewRunningMode(n, o) })
	Register(KindMultipleChoices, func(n string, o Options) Configurator { return NewMultipleChoices(n, o) })
}

// roleTarget returns the sibling name that provides role for c.
func roleTarget(c Configurator, role string) string {
	if t, ok := c.Options().Dependencies[role]; ok {
		return t
	}
	return role
}

// Set is an ordered collection of configurators, configured together.
type Set struct {
	declared []string
	order    []string
	items    map[string]Configurator
	raw      map[string]any
}

// NewSet builds the configurators for settings, and computes the configuration order.
// Unknown kinds, duplicated names, missing dependencies and cycles are errors.
func NewSet(settings []Setting) (*Set, error) {
	s := &Set{items: make(map[string]Configurator, len(settings))}
	for _, st := range settings {
		if _, dup := s.items[st.Name]; dup {
			return nil, newError(nil, "NewSet", "duplicated setting %q", st.Name)
		}
		c, err := New(st.Kind, st.Name, st.Options)
		if err != nil {
			return nil, err
		}
		s.items[st.Name] = c
		s.declared = append(s.declared, st.Name)
	}
	order, err := dependencyOrder(s.declared, s.items)
	if err != nil {
		return nil, err
	}
	s.order = order
	return s, nil
}

// Names returns the configurator names in declaration order.
func (s *Set) Names() []string { return slices.Clone(s.declared) }

// Order returns the configurator names in configuration order.
func (s *Set) Order() []string { return slices.Clone(s.order) }

// Get returns the configurator called name, or nil.
func (s *Set) Get(name string) Configurator { return s.items[name] }

// Parameters returns the raw parameters last passed to Configure.
func (s *Set) Parameters() map[string]any { return maps.Clone(s.raw) }

// Configure configures every configurator from params, in dependency order, and stops at the
// first rejection. Parameters without a matching setting are an error.
func (s *Set) Configure(params map[string]any) error {
	for k := range params {
		if _, ok := s.items[k]; !ok {
			return newError(nil, "Set.Configure", "unknown parameter %q", k)
		}
	}
	s.raw = maps.Clone(params)
	for _, name := range s.order {
		c := s.items[name]
		deps := make(map[string]Configurator)
		for _, role := range c.Requires() {
			deps[role] = s.items[roleTarget(c, role)]
		}
		if err := c.Configure(params[name], deps); err != nil {
			if e, ok := err.(*ConfiguratorError); ok {
				e.Decorate("Set.Configure")
				return e
			}
			return wrapError(err, c, "Set.Configure", "configuration failed")
		}
	}
	return nil
}

// Close releases the resources held by the configurators, such as open trajectories.
func (s *Set) Close() error {
	var first error
	for _, name := range s.order {
		if cl, ok := s.items[name].(interface{ Close() error }); ok {
			if err := cl.Close(); err != nil && first == nil {
				first = err
			}
		}
	}
	return first
}

// Lookup returns the configurator called name in s, with its concrete type.
func Lookup[T Configurator](s *Set, name string) (T, error) {
	var zero T
	c := s.Get(name)
	if c == nil {
		return zero, newError(nil, "Lookup", "no configurator called %q", name)
	}
	t, ok := c.(T)
	if !ok {
		return zero, newError(c, "Lookup", "configurator is a %s, not a %T", c.Kind(), zero)
	}
	return t, nil
}
