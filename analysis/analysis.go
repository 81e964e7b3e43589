/*
 * analysis.go, part of gotraj.
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

// Package analysis holds the trajectory analysis jobs: van Hove self function, mean square
// displacement, velocity autocorrelation, pair distribution function and trajectory
// unfolding. Each job registers itself with the job package.
package analysis

import (
	"fmt"

	"github.com/rmera/gotraj/configurators"
	"github.com/rmera/gotraj/job"
	"github.com/rmera/gotraj/output"
	"github.com/rmera/gotraj/traj"
	"golang.org/x/exp/slices"
)

// AnalysisError is returned when an analysis can't be carried out on its inputs.
type AnalysisError struct {
	msg  string
	deco []string
	err  error
}

func newError(err error, caller, format string, args ...interface{}) *AnalysisError {
	return &AnalysisError{msg: fmt.Sprintf(format, args...), deco: []string{caller}, err: err}
}

func (err *AnalysisError) Error() string {
	if err.err != nil {
		return fmt.Sprintf("%s: %v", err.msg, err.err)
	}
	return err.msg
}

func (err *AnalysisError) Unwrap() error { return err.err }
func (err *AnalysisError) Kind() string  { return "AnalysisError" }

// Decorate adds dec to the decoration slice and returns it. An empty dec only returns the slice.
func (err *AnalysisError) Decorate(dec string) []string {
	if dec != "" {
		err.deco = append(err.deco, dec)
	}
	return err.deco
}

const category = "Analysis"

// Settings shared by the analyses, in their usual order.
var (
	trajectorySetting    = configurators.Setting{Name: "trajectory", Kind: configurators.KindHDFTrajectory}
	framesSetting        = configurators.Setting{Name: "frames", Kind: configurators.KindFrames}
	correlationSetting   = configurators.Setting{Name: "frames", Kind: configurators.KindCorrelationFrames}
	selectionSetting     = configurators.Setting{Name: "atom_selection", Kind: configurators.KindAtomSelection}
	groupingSetting      = configurators.Setting{Name: "grouping_level", Kind: configurators.KindGroupingLevel}
	weightsSetting       = configurators.Setting{Name: "weights", Kind: configurators.KindWeights}
	outputFilesSetting   = configurators.Setting{Name: "output_files", Kind: configurators.KindOutputFiles}
	runningModeSetting   = configurators.Setting{Name: "running_mode", Kind: configurators.KindRunningMode}
	normalizeSetting     = configurators.Setting{Name: "normalize", Kind: configurators.KindBoolean}
	projectionSetting    = configurators.Setting{Name: "project_coordinates", Kind: configurators.KindMultipleChoices, Options: configurators.Options{Default: []any{"x", "y", "z"}, Choices: []any{"x", "y", "z"}}}
	outputTrajSetting    = configurators.Setting{Name: "output_file", Kind: configurators.KindOutputTrajectory}
)

// rValues is the distance grid setting, in nm, with a default (first, last, step).
func rValues(def ...any) configurators.Setting {
	return configurators.Setting{Name: "r_values", Kind: configurators.KindRange, Options: configurators.Options{Default: def, Min: configurators.F(0)}}
}

func info(name, label string, settings ...configurators.Setting) job.Info {
	return job.Info{Name: name, Label: label, Category: category, Ancestor: "analysis", Settings: settings}
}

// inputs are the configured values most analyses read.
type inputs struct {
	traj      *configurators.HDFTrajectory
	frames    *configurators.Frames
	selection *configurators.AtomSelection
	files     *configurators.OutputFiles
}

func lookupInputs(cfg *job.Config) (*inputs, error) {
	var in inputs
	var err error
	if in.traj, err = configurators.Lookup[*configurators.HDFTrajectory](cfg.Settings, "trajectory"); err != nil {
		return nil, err
	}
	switch f := cfg.Settings.Get("frames").(type) {
	case *configurators.Frames:
		in.frames = f
	case *configurators.CorrelationFrames:
		in.frames = &f.Frames
	}
	if sel, ok := cfg.Settings.Get("atom_selection").(*configurators.AtomSelection); ok {
		in.selection = sel
	}
	if files, ok := cfg.Settings.Get("output_files").(*configurators.OutputFiles); ok {
		in.files = files
	}
	return &in, nil
}

// reopen gives a stepper its own trajectory handle.
func reopen(in *inputs) (*traj.Trajectory, error) {
	T, err := in.traj.Trajectory.Reopen()
	if err != nil {
		return nil, newError(err, "reopen", "can't reopen %s", in.traj.Path)
	}
	return T, nil
}

// trajStepper is a stepper that only owns a trajectory handle.
type trajStepper struct {
	T *traj.Trajectory
}

func (s *trajStepper) Close() error { return s.T.Close() }

// write writes D in every configured format.
func write(cfg *job.Config, D *output.Data, files *configurators.OutputFiles) error {
	written, err := output.WriteAll(D, files.Root, files.Formats)
	if err != nil {
		return err
	}
	cfg.Logger.Printf("%s: wrote %v", D.Metadata["job"], written)
	return nil
}

// elementCounts returns the number of selected atoms of each element, and the sorted elements.
func elementCounts(names []string) (map[string]int, []string) {
	counts := make(map[string]int)
	for _, n := range names {
		counts[n]++
	}
	elements := make([]string, 0, len(counts))
	for e := range counts {
		elements = append(elements, e)
	}
	slices.Sort(elements)
	return counts, elements
}

// weightedSum returns Σ_e c_e·w_e·x_e / Σ_e c_e·w_e, where c_e is the fraction of the atoms
// that are of element e, and w_e its weight, for the series x_e of each element.
func weightedSum(elements []string, series map[string][]float64, counts map[string]int, weights map[string]float64) []float64 {
	total := 0
	for _, n := range counts {
		total += n
	}
	var ret []float64
	norm := 0.0
	for _, e := range elements {
		x := series[e]
		if ret == nil {
			ret = make([]float64, len(x))
		}
		f := float64(counts[e]) / float64(total) * weights[e]
		norm += f
		for i, v := range x {
			ret[i] += f * v
		}
	}
	if norm != 0 {
		for i := range ret {
			ret[i] /= norm
		}
	}
	return ret
}
