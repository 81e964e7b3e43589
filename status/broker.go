/*
 * broker.go, part of gotraj.
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
	"sync"

	"golang.org/x/exp/slices"
)

// Broker is a named-topic publish/subscribe hub. Deliveries are serialized: no two
// subscriber callbacks run at the same time.
type Broker struct {
	mu      sync.RWMutex
	deliver sync.Mutex
	subs    map[string]map[int]func(Snapshot)
	next    int
}

// NewBroker returns a broker without subscribers.
func NewBroker() *Broker {
	return &Broker{subs: make(map[string]map[int]func(Snapshot))}
}

// Subscribe registers fn for topic, and returns a function that removes it.
func (B *Broker) Subscribe(topic string, fn func(Snapshot)) (unsubscribe func()) {
	B.mu.Lock()
	defer B.mu.Unlock()
	if B.subs[topic] == nil {
		B.subs[topic] = make(map[int]func(Snapshot))
	}
	id := B.next
	B.next++
	B.subs[topic][id] = fn
	return func() {
		B.mu.Lock()
		defer B.mu.Unlock()
		delete(B.subs[topic], id)
	}
}

// Publish calls the subscribers of topic, in subscription order.
func (B *Broker) Publish(topic string, snap Snapshot) {
	B.mu.RLock()
	var ids []int
	for id := range B.subs[topic] {
		ids = append(ids, id)
	}
	fns := make([]func(Snapshot), 0, len(ids))
	slices.Sort(ids)
	for _, id := range ids {
		fns = append(fns, B.subs[topic][id])
	}
	B.mu.RUnlock()
	B.deliver.Lock()
	defer B.deliver.Unlock()
	for _, fn := range fns {
		fn(snap)
	}
}

// Host translates status messages for one consumer.
type Host interface {
	StartStatus(Snapshot)
	UpdateStatus(Snapshot)
	StopStatus(Snapshot)
	FinishStatus(Snapshot)
}

// Attach subscribes h to the four status topics of B, and returns a function that detaches it.
func Attach(B *Broker, h Host) (detach func()) {
	un := []func(){
		B.Subscribe(TopicStart, h.StartStatus),
		B.Subscribe(TopicUpdate, h.UpdateStatus),
		B.Subscribe(TopicStop, h.StopStatus),
		B.Subscribe(TopicFinish, h.FinishStatus),
	}
	return func() {
		for _, u := range un {
			u()
		}
	}
}
