/*
 * hosts.go, part of gotraj.
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

package status

import (
	"bufio"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log"
	"sync"
	"time"
)

// LogHost writes status messages to a logger.
type LogHost struct {
	Logger *log.Logger
	Name   string
}

// NewLogHost returns a host logging through l, or through the standard logger if l is nil.
func NewLogHost(l *log.Logger, name string) *LogHost {
	if l == nil {
		l = log.Default()
	}
	return &LogHost{Logger: l, Name: name}
}

func (L *LogHost) StartStatus(s Snapshot) {
	if s.Total < 0 {
		L.Logger.Printf("%s: started", L.Name)
		return
	}
	L.Logger.Printf("%s: started, %d steps", L.Name, s.Total)
}

func (L *LogHost) UpdateStatus(s Snapshot) {
	L.Logger.Printf("%s: step %d/%d (%.1f%%), elapsed %s, ETA %s", L.Name, s.Current, s.Total, 100*s.Progress(), s.Elapsed.Round(time.Millisecond), s.ETA)
}

func (L *LogHost) StopStatus(s Snapshot) {
	L.Logger.Printf("%s: stop requested at step %d", L.Name, s.Current)
}

func (L *LogHost) FinishStatus(s Snapshot) {
	L.Logger.Printf("%s: finished in %s", L.Name, s.Elapsed.Round(time.Millisecond))
}

// Wire protocol keys. Each message is one JSON array [key, value] per line.
const (
	KeyStarted       = "STARTED"
	KeyStep          = "STEP"
	KeyFinished      = "FINISHED"
	KeyCommunication = "COMMUNICATION"
)

// Message is one (key, value) pair of the wire protocol.
// STARTED carries the total number of steps, STEP the number of completed steps,
// FINISHED true for a normal end or false for a stop, and COMMUNICATION true as a heartbeat.
type Message struct {
	Key   string
	Value any
}

// Int returns the value as an integer, for STARTED and STEP messages. A STARTED message
// with an unknown total has a nil value, and Int returns false.
func (m Message) Int() (int, bool) {
	switch v := m.Value.(type) {
	case float64:
		return int(v), true
	case int:
		return v, true
	}
	return 0, false
}

// Bool returns the value as a boolean, for FINISHED and COMMUNICATION messages.
func (m Message) Bool() (bool, bool) {
	b, ok := m.Value.(bool)
	return b, ok
}

// WireHost sends status messages over a byte stream, usually a pipe to a parent process.
type WireHost struct {
	mu  sync.Mutex
	w   io.Writer
	err error
}

// NewWireHost returns a host writing to w.
func NewWireHost(w io.Writer) *WireHost {
	return &WireHost{w: w}
}

// Err returns the first write error, if any. After an error, nothing else is sent.
func (W *WireHost) Err() error {
	W.mu.Lock()
	defer W.mu.Unlock()
	return W.err
}

func (W *WireHost) send(key string, value any) {
	W.mu.Lock()
	defer W.mu.Unlock()
	if W.err != nil {
		return
	}
	b, err := json.Marshal([]any{key, value})
	if err != nil {
		W.err = err
		return
	}
	b = append(b, '\n')
	if _, err = W.w.Write(b); err != nil {
		W.err = err
		log.Printf("status: wire host disabled: %v", err)
	}
}

// StartStatus sends the total number of steps, or null if it is unknown.
func (W *WireHost) StartStatus(s Snapshot) {
	if s.Total < 0 {
		W.send(KeyStarted, nil)
		return
	}
	W.send(KeyStarted, s.Total)
}

func (W *WireHost) UpdateStatus(s Snapshot) { W.send(KeyStep, s.Current) }
func (W *WireHost) StopStatus(s Snapshot)   { W.send(KeyFinished, false) }
func (W *WireHost) FinishStatus(s Snapshot) { W.send(KeyFinished, true) }

// Heartbeat sends a COMMUNICATION message every interval until ctx is done.
func (W *WireHost) Heartbeat(ctx context.Context, interval time.Duration) {
	t := time.NewTicker(interval)
	defer t.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-t.C:
			W.send(KeyCommunication, true)
		}
	}
}

// ReadMessages decodes wire messages from r and passes them to fn, until r is exhausted or fn
// returns false. Unknown keys are skipped.
func ReadMessages(r io.Reader, fn func(Message) bool) error {
	sc := bufio.NewScanner(r)
	line := 0
	for sc.Scan() {
		line++
		if len(sc.Bytes()) == 0 {
			continue
		}
		var raw []any
		if err := json.Unmarshal(sc.Bytes(), &raw); err != nil {
			return fmt.Errorf("status: line %d: %w", line, err)
		}
		if len(raw) != 2 {
			return fmt.Errorf("status: line %d: expected a (key, value) pair, got %d items", line, len(raw))
		}
		key, ok := raw[0].(string)
		if !ok {
			return fmt.Errorf("status: line %d: key is not a string", line)
		}
		switch key {
		case KeyStarted, KeyStep, KeyFinished, KeyCommunication:
		default:
			continue
		}
		if !fn(Message{Key: key, Value: raw[1]}) {
			return nil
		}
	}
	return sc.Err()
}

// RecordingHost keeps every message it receives, per topic.
type RecordingHost struct {
	mu       sync.Mutex
	messages map[string][]Snapshot
	order    []string
}

func NewRecordingHost() *RecordingHost {
	return &RecordingHost{messages: make(map[string][]Snapshot)}
}

func (R *RecordingHost) record(topic string, s Snapshot) {
	R.mu.Lock()
	defer R.mu.Unlock()
	R.messages[topic] = append(R.messages[topic], s)
	R.order = append(R.order, topic)
}

func (R *RecordingHost) StartStatus(s Snapshot)  { R.record(TopicStart, s) }
func (R *RecordingHost) UpdateStatus(s Snapshot) { R.record(TopicUpdate, s) }
func (R *RecordingHost) StopStatus(s Snapshot)   { R.record(TopicStop, s) }
func (R *RecordingHost) FinishStatus(s Snapshot) { R.record(TopicFinish, s) }

// Messages returns a copy of the snapshots received on topic.
func (R *RecordingHost) Messages(topic string) []Snapshot {
	R.mu.Lock()
	defer R.mu.Unlock()
	return append([]Snapshot(nil), R.messages[topic]...)
}

// Order returns the topics in the order they were received.
func (R *RecordingHost) Order() []string {
	R.mu.Lock()
	defer R.mu.Unlock()
	return append([]string(nil), R.order...)
}
