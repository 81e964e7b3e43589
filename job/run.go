/*
 * run.go, part of gotraj.
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

package job

import (
	"context"
	"log"
	"sync"

	"github.com/google/uuid"
	"github.com/rmera/gotraj/configurators"
	"github.com/rmera/gotraj/status"
)

// RunOptions tune a run. The zero value runs as the job's running_mode setting says,
// or on the calling goroutine if it has none.
type RunOptions struct {
	// Status receives the progress. If nil, a status without broker is used.
	Status *status.Status
	// Workers, if positive, overrides the running mode: 1 is monoprocessor, more is
	// multiprocessor with that many workers.
	Workers int
	Logger  *log.Logger
}

// Result summarizes a run.
type Result struct {
	RunID     uuid.UUID
	Steps     int
	Completed int
	Stopped   bool
}

type stepResult struct {
	index int
	value any
	err   error
}

// Run configures J with params and runs it. Cancelling ctx is the same as stopping the status:
// no more steps are started, those in flight are combined, and the job is finalized.
// Configuration and initialization errors are returned right away; a step error is returned
// as a *StepError after the job has been finalized.
func Run(ctx context.Context, J Job, params map[string]any, opts *RunOptions) (*Result, error) {
	if opts == nil {
		opts = &RunOptions{}
	}
	st := opts.Status
	if st == nil {
		st = status.New(nil)
	}
	logger := opts.Logger
	if logger == nil {
		logger = log.Default()
	}
	info := J.Info()
	set, err := configurators.NewSet(info.Settings)
	if err != nil {
		st.Stop()
		return nil, err
	}
	defer set.Close()
	if err := set.Configure(params); err != nil {
		st.Stop()
		return nil, err
	}
	cfg := &Config{Settings: set, RunID: uuid.New(), Logger: logger, job: info.Name}
	n, err := J.Initialize(cfg)
	if err != nil {
		st.Stop()
		return nil, err
	}
	if n < 0 {
		st.Stop()
		return nil, newError(nil, "Run", "%s: negative number of steps %d", info.Name, n)
	}
	workers := 1
	if rm, ok := set.Get("running_mode").(*configurators.RunningMode); ok {
		workers = rm.Workers
	}
	if opts.Workers > 0 {
		workers = opts.Workers
	}
	res := &Result{RunID: cfg.RunID, Steps: n}
	logger.Printf("%s: run %s, %d steps, %d worker(s)", info.Name, cfg.RunID, n, workers)

	st.Start(n, 0)
	stop := context.AfterFunc(ctx, st.Stop)
	defer stop()
	var stepErr error
	if workers <= 1 {
		res.Completed, stepErr = runMono(ctx, J, n, st)
	} else {
		res.Completed, stepErr = runMulti(ctx, J, n, workers, info.Sequential, st, logger)
	}
	if stepErr != nil || ctx.Err() != nil {
		st.Stop()
	}
	ferr := J.Finalize()
	if st.Stopped() {
		res.Stopped = true
		if stepErr == nil {
			logger.Printf("%s: stopped after %d of %d steps", info.Name, res.Completed, n)
		}
	} else {
		st.Finish()
	}
	if stepErr != nil {
		return res, stepErr
	}
	if ferr != nil {
		return res, ferr
	}
	return res, nil
}

func runMono(ctx context.Context, J Job, n int, st *status.Status) (int, error) {
	s, err := J.NewStepper()
	if err != nil {
		return 0, newError(err, "runMono", "can't create a stepper")
	}
	defer s.Close()
	done := 0
	for i := 0; i < n; i++ {
		if st.Stopped() || ctx.Err() != nil {
			break
		}
		v, err := s.RunStep(i)
		if err != nil {
			return done, &StepError{Index: i, err: err}
		}
		if err := J.Combine(i, v); err != nil {
			return done, &StepError{Index: i, err: err}
		}
		done++
		st.Update(false)
	}
	return done, nil
}

func runMulti(ctx context.Context, J Job, n, k int, sequential bool, st *status.Status, logger *log.Logger) (int, error) {
	steppers := make([]Stepper, 0, k)
	defer func() {
		for _, s := range steppers {
			s.Close()
		}
	}()
	for w := 0; w < k; w++ {
		s, err := J.NewStepper()
		if err != nil {
			return 0, newError(err, "runMulti", "can't create stepper %d", w)
		}
		steppers = append(steppers, s)
	}
	tasks := make(chan int)
	results := make(chan stepResult, k)
	quit := make(chan struct{})
	var once sync.Once
	halt := func() { once.Do(func() { close(quit) }) }

	go func() {
		defer close(tasks)
		for i := 0; i < n; i++ {
			if st.Stopped() {
				return
			}
			select {
			case tasks <- i:
			case <-quit:
				return
			case <-ctx.Done():
				return
			}
		}
	}()
	var wg sync.WaitGroup
	for _, s := range steppers {
		wg.Add(1)
		go func(s Stepper) {
			defer wg.Done()
			for i := range tasks {
				v, err := s.RunStep(i)
				results <- stepResult{i, v, err}
			}
		}(s)
	}
	go func() {
		wg.Wait()
		close(results)
	}()

	var stepErr error
	done := 0
	pending := make(map[int]stepResult)
	next := 0
	combine := func(r stepResult) {
		if stepErr != nil {
			return
		}
		if err := J.Combine(r.index, r.value); err != nil {
			stepErr = &StepError{Index: r.index, err: err}
			st.Stop()
			halt()
			return
		}
		done++
		st.Update(false)
	}
	for r := range results {
		if r.err != nil {
			if stepErr == nil {
				stepErr = &StepError{Index: r.index, err: r.err}
				st.Stop()
				halt()
			}
			continue
		}
		if !sequential {
			combine(r)
			continue
		}
		pending[r.index] = r
		for {
			p, ok := pending[next]
			if !ok {
				break
			}
			delete(pending, next)
			combine(p)
			next++
		}
	}
	if len(pending) > 0 {
		logger.Printf("job: %d out-of-order results discarded after the run stopped", len(pending))
	}
	return done, stepErr
}
