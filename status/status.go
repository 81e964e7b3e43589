/*
 * status.go, part of gotraj.
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

// Package status tracks the progress of a job and broadcasts it, through a topic
// broker, to hosts that translate it for a given consumer (a logger, a pipe to a parent
// process, a test recorder).
package status

import (
	"sync"
	"sync/atomic"
	"time"
)

// The topics published by a Status.
const (
	TopicStart  = "status_start"
	TopicUpdate = "status_update"
	TopicStop   = "status_stop"
	TopicFinish = "status_finish"
)

// NA is the ETA of a stopped job, or of a job with an unknown number of steps.
const NA = "N/A"

// Snapshot is the state of a Status at a given time.
type Snapshot struct {
	Total    int // -1 if unknown
	Current  int
	Elapsed  time.Duration
	ETA      string
	Stopped  bool
	Finished bool
}

// Progress returns the completed fraction, between 0 and 1, or 0 if the total is unknown.
func (s Snapshot) Progress() float64 {
	if s.Total <= 0 {
		if s.Finished {
			return 1
		}
		return 0
	}
	return float64(s.Current) / float64(s.Total)
}

// Status is the scheduling state of a job. The step counter and the stop flag are safe for
// concurrent use, the rest of the methods are meant to be called by the job driver.
type Status struct {
	broker   *Broker
	total    atomic.Int64
	current  atomic.Int64
	stopped  atomic.Bool
	finished atomic.Bool
	rate     atomic.Int64

	mu    sync.Mutex
	start time.Time
	now   func() time.Time
}

// New returns a Status publishing on B. B can be nil, in which case nothing is published.
func New(B *Broker) *Status {
	S := &Status{broker: B, now: time.Now}
	S.total.Store(-1)
	S.rate.Store(1)
	return S
}

func (S *Status) publish(topic string, snap Snapshot) {
	if S.broker != nil {
		S.broker.Publish(topic, snap)
	}
}

// Start sets the total number of steps (negative if unknown) and resets the counter. rate is the number of
// steps between broadcasts; if it is not positive, about one broadcast per percent of progress is made.
func (S *Status) Start(nsteps, rate int) {
	if rate <= 0 {
		rate = nsteps / 100
		if rate < 1 {
			rate = 1
		}
	}
	S.total.Store(int64(nsteps))
	S.current.Store(0)
	S.rate.Store(int64(rate))
	S.stopped.Store(false)
	S.finished.Store(false)
	S.mu.Lock()
	S.start = S.now()
	S.mu.Unlock()
	S.publish(TopicStart, S.Snapshot())
}

// Update counts one more completed step, and broadcasts every rate steps, or always if force is true.
func (S *Status) Update(force bool) {
	c := S.current.Add(1)
	if force || c%S.rate.Load() == 0 {
		S.publish(TopicUpdate, S.Snapshot())
	}
}

// Stop requests the job to stop. Only the first call has an effect.
func (S *Status) Stop() {
	if !S.stopped.CompareAndSwap(false, true) {
		return
	}
	S.publish(TopicStop, S.Snapshot())
}

// Finish marks the job as complete.
func (S *Status) Finish() {
	if !S.finished.CompareAndSwap(false, true) {
		return
	}
	if t := S.total.Load(); t >= 0 {
		S.current.Store(t)
	}
	S.publish(TopicFinish, S.Snapshot())
}

// Stopped returns true once Stop has been called.
func (S *Status) Stopped() bool { return S.stopped.Load() }

// Finished returns true once Finish has been called.
func (S *Status) Finished() bool { return S.finished.Load() }

// Current returns the number of completed steps.
func (S *Status) Current() int { return int(S.current.Load()) }

// Progress returns the completed fraction.
func (S *Status) Progress() float64 { return S.Snapshot().Progress() }

// Snapshot computes the current state, including elapsed time and ETA.
func (S *Status) Snapshot() Snapshot {
	S.mu.Lock()
	defer S.mu.Unlock()
	snap := Snapshot{
		Total:    int(S.total.Load()),
		Current:  int(S.current.Load()),
		Stopped:  S.stopped.Load(),
		Finished: S.finished.Load(),
		ETA:      NA,
	}
	if !S.start.IsZero() {
		snap.Elapsed = S.now().Sub(S.start)
	}
	if !snap.Stopped && !snap.Finished && snap.Total > 0 && snap.Current > 0 {
		left := time.Duration(float64(snap.Elapsed) / float64(snap.Current) * float64(snap.Total-snap.Current))
		snap.ETA = left.Round(time.Second).String()
	}
	if snap.Finished {
		snap.ETA = "0s"
	}
	return snap
}
