/*
 * job.go, part of gotraj.
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

// Package job runs analysis jobs: it configures their parameters, calls their steps
// sequentially or on a pool of goroutines, combines the results and finalizes them,
// reporting progress through a status.Status.
package job

import (
	"log"
	"sort"
	"sync"

	"github.com/google/uuid"
	"github.com/rmera/gotraj/configurators"
	"github.com/rmera/gotraj/output"
)

// Info describes a job.
type Info struct {
	Name     string
	Label    string
	Category string
	Ancestor string
	Settings []configurators.Setting
	// Sequential jobs get their results combined in step order, also in parallel runs.
	Sequential bool
}

// Stepper computes steps. A job gives each worker its own stepper, which must only read
// shared state and may open its own files.
type Stepper interface {
	RunStep(index int) (any, error)
	Close() error
}

// Job is an analysis or conversion. The driver calls Initialize once, then RunStep on
// steppers for each index in [0, n), Combine on the driver goroutine for each result, and
// Finalize once, also when the run is stopped or a step fails.
type Job interface {
	Info() Info
	// Initialize prepares the job from its configured settings, and returns the number of steps.
	Initialize(cfg *Config) (int, error)
	NewStepper() (Stepper, error)
	Combine(index int, value any) error
	Finalize() error
}

// Config is what a job gets to initialize itself.
type Config struct {
	Settings *configurators.Set
	RunID    uuid.UUID
	Logger   *log.Logger
	job      string
}

// NewOutput returns an empty output.Data stamped with the job name, the run id and the
// raw parameters.
func (c *Config) NewOutput() *output.Data {
	D := output.NewData()
	D.Metadata["job"] = c.job
	D.Metadata["run_id"] = c.RunID.String()
	for k, v := range c.Settings.Parameters() {
		D.Parameters[k] = v
	}
	return D
}

// Factory builds a new, unconfigured job.
type Factory func() Job

var (
	regMu    sync.RWMutex
	registry = map[string]Factory{}
)

// Register adds a job under name.
func Register(name string, f Factory) {
	regMu.Lock()
	defer regMu.Unlock()
	registry[name] = f
}

// Get builds a new job of the given name.
func Get(name string) (Job, error) {
	regMu.RLock()
	f, ok := registry[name]
	regMu.RUnlock()
	if !ok {
		return nil, newError(nil, "Get", "unknown job %q", name)
	}
	return f(), nil
}

// Names returns the registered job names, sorted.
func Names() []string {
	regMu.RLock()
	defer regMu.RUnlock()
	ret := make([]string, 0, len(registry))
	for k := range registry {
		ret = append(ret, k)
	}
	sort.Strings(ret)
	return ret
}
