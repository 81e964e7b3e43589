/*
 * job_test.go, part of gotraj.
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
	"errors"
	"sync"
	"testing"

	"github.com/rmera/gotraj/configurators"
	"github.com/rmera/gotraj/status"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var errBoom = errors.New("boom")

// squares adds up i*i over its steps, and keeps track of the calls it gets.
type squares struct {
	mu        sync.Mutex
	n         int
	failAt    int
	stopAt    int
	cancel    func()
	st        *status.Status
	sum       float64
	combined  map[int]int
	order     []int
	finalized int
	sequence  bool
	cfg       *Config
}

func newSquares() *squares { return &squares{failAt: -1, stopAt: -1} }

func (S *squares) Info() Info {
	return Info{
		Name:       "squares",
		Label:      "Squares",
		Category:   "test",
		Sequential: S.sequence,
		Settings: []configurators.Setting{
			{Name: "n_steps", Kind: configurators.KindInteger, Options: configurators.Options{Default: 50, Min: configurators.F(0)}},
			{Name: "running_mode", Kind: configurators.KindRunningMode},
		},
	}
}

func (S *squares) Initialize(cfg *Config) (int, error) {
	n, err := configurators.Lookup[*configurators.Integer](cfg.Settings, "n_steps")
	if err != nil {
		return 0, err
	}
	S.cfg = cfg
	S.n = n.Int
	S.combined = make(map[int]int)
	return S.n, nil
}

type squareStepper struct{ S *squares }

func (s squareStepper) RunStep(i int) (any, error) {
	if i == s.S.failAt {
		return nil, errBoom
	}
	return float64(i * i), nil
}

func (s squareStepper) Close() error { return nil }

func (S *squares) NewStepper() (Stepper, error) { return squareStepper{S}, nil }

func (S *squares) Combine(i int, v any) error {
	S.mu.Lock()
	defer S.mu.Unlock()
	S.sum += v.(float64)
	S.combined[i]++
	S.order = append(S.order, i)
	if i == S.stopAt {
		if S.cancel != nil {
			S.cancel()
		} else {
			S.st.Stop()
		}
	}
	return nil
}

func (S *squares) Finalize() error {
	S.finalized++
	return nil
}

func expectedSum(n int) float64 {
	s := 0.0
	for i := 0; i < n; i++ {
		s += float64(i * i)
	}
	return s
}

func TestMonoAndMulti(Te *testing.T) {
	for _, mode := range []any{"monoprocessor", []any{"multiprocessor", 4}} {
		J := newSquares()
		B := status.NewBroker()
		rec := status.NewRecordingHost()
		status.Attach(B, rec)
		res, err := Run(context.Background(), J, map[string]any{"n_steps": 200, "running_mode": mode}, &RunOptions{Status: status.New(B)})
		require.NoError(Te, err)
		assert.Equal(Te, 200, res.Completed)
		assert.False(Te, res.Stopped)
		assert.Equal(Te, expectedSum(200), J.sum)
		require.Len(Te, J.combined, 200)
		for i := 0; i < 200; i++ {
			assert.Equal(Te, 1, J.combined[i])
		}
		assert.Equal(Te, 1, J.finalized)
		assert.Len(Te, rec.Messages(status.TopicFinish), 1)
		assert.Empty(Te, rec.Messages(status.TopicStop))
		D := J.cfg.NewOutput()
		assert.Equal(Te, "squares", D.Metadata["job"])
		assert.Equal(Te, res.RunID.String(), D.Metadata["run_id"])
	}
}

func TestSequentialOrder(Te *testing.T) {
	J := newSquares()
	J.sequence = true
	_, err := Run(context.Background(), J, map[string]any{"n_steps": 100}, &RunOptions{Workers: 8})
	require.NoError(Te, err)
	for i, idx := range J.order {
		require.Equal(Te, i, idx)
	}
}

func TestStop(Te *testing.T) {
	for _, workers := range []int{1, 4} {
		J := newSquares()
		J.stopAt = 10
		st := status.New(nil)
		J.st = st
		res, err := Run(context.Background(), J, map[string]any{"n_steps": 1000}, &RunOptions{Status: st, Workers: workers})
		require.NoError(Te, err)
		assert.True(Te, res.Stopped)
		assert.Less(Te, res.Completed, 1000)
		assert.Equal(Te, len(J.combined), res.Completed)
		assert.Equal(Te, 1, J.finalized)
	}
}

func TestCancel(Te *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	J := newSquares()
	J.stopAt = 5
	J.cancel = cancel
	st := status.New(nil)
	res, err := Run(ctx, J, map[string]any{"n_steps": 100000}, &RunOptions{Status: st, Workers: 2})
	require.NoError(Te, err)
	assert.True(Te, res.Stopped)
	assert.True(Te, st.Stopped())
	assert.Equal(Te, 1, J.finalized)
}

func TestStepError(Te *testing.T) {
	for _, workers := range []int{1, 3} {
		J := newSquares()
		J.failAt = 17
		st := status.New(nil)
		res, err := Run(context.Background(), J, map[string]any{"n_steps": 100}, &RunOptions{Status: st, Workers: workers})
		var serr *StepError
		require.ErrorAs(Te, err, &serr)
		assert.Equal(Te, 17, serr.Index)
		assert.ErrorIs(Te, err, errBoom)
		assert.Equal(Te, 1, J.finalized)
		assert.True(Te, st.Stopped())
		assert.True(Te, res.Stopped)
		assert.Zero(Te, J.combined[17])
		assert.Equal(Te, "StepError", ErrorKind(err))
	}
}

func TestConfigurationError(Te *testing.T) {
	J := newSquares()
	st := status.New(nil)
	_, err := Run(context.Background(), J, map[string]any{"n_steps": -3}, &RunOptions{Status: st})
	require.Error(Te, err)
	assert.Equal(Te, "ConfiguratorError", ErrorKind(err))
	assert.Zero(Te, J.finalized)
	assert.True(Te, st.Stopped())

	_, err = Run(context.Background(), newSquares(), map[string]any{"bogus": 1}, nil)
	assert.Equal(Te, "ConfiguratorError", ErrorKind(err))
}

func TestRegistry(Te *testing.T) {
	Register("squares", func() Job { return newSquares() })
	J, err := Get("squares")
	require.NoError(Te, err)
	assert.Equal(Te, "Squares", J.Info().Label)
	assert.Contains(Te, Names(), "squares")
	_, err = Get("nope")
	assert.Equal(Te, "JobError", ErrorKind(err))
	assert.Equal(Te, "Error", ErrorKind(errBoom))
}
