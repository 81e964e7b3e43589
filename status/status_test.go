/*
 * status_test.go, part of gotraj.
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
	"bytes"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func fakeClock(S *Status) *time.Time {
	t := time.Date(2020, 1, 1, 0, 0, 0, 0, time.UTC)
	S.now = func() time.Time { return t }
	return &t
}

func TestStatusProgress(Te *testing.T) {
	B := NewBroker()
	rec := NewRecordingHost()
	Attach(B, rec)
	S := New(B)
	clock := fakeClock(S)
	S.Start(10, 2)
	for i := 0; i < 4; i++ {
		*clock = clock.Add(time.Second)
		S.Update(false)
	}
	snap := S.Snapshot()
	assert.Equal(Te, 4, snap.Current)
	assert.Equal(Te, 4*time.Second, snap.Elapsed)
	assert.Equal(Te, "6s", snap.ETA)
	assert.InDelta(Te, 0.4, S.Progress(), 1e-12)
	assert.Len(Te, rec.Messages(TopicUpdate), 2)
	S.Update(true)
	assert.Len(Te, rec.Messages(TopicUpdate), 3)
	S.Finish()
	S.Finish()
	require.Len(Te, rec.Messages(TopicFinish), 1)
	assert.Equal(Te, 10, rec.Messages(TopicFinish)[0].Current)
	assert.Equal(Te, []string{TopicStart, TopicUpdate, TopicUpdate, TopicUpdate, TopicFinish}, rec.Order())
}

func TestStatusStop(Te *testing.T) {
	B := NewBroker()
	rec := NewRecordingHost()
	detach := Attach(B, rec)
	S := New(B)
	S.Start(1000, 0)
	S.Update(false)
	S.Stop()
	S.Stop()
	assert.True(Te, S.Stopped())
	stops := rec.Messages(TopicStop)
	require.Len(Te, stops, 1)
	assert.Equal(Te, NA, stops[0].ETA)
	detach()
	S.Update(true)
	assert.Empty(Te, rec.Messages(TopicUpdate))
}

func TestConcurrentUpdates(Te *testing.T) {
	S := New(nil)
	S.Start(1000, 7)
	var wg sync.WaitGroup
	for w := 0; w < 4; w++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for i := 0; i < 250; i++ {
				S.Update(false)
			}
		}()
	}
	wg.Wait()
	assert.Equal(Te, 1000, S.Current())
}

func TestWireRoundTrip(Te *testing.T) {
	var buf bytes.Buffer
	B := NewBroker()
	W := NewWireHost(&buf)
	Attach(B, W)
	S := New(B)
	S.Start(3, 1)
	S.Update(false)
	S.Update(false)
	S.Stop()
	require.NoError(Te, W.Err())
	buf.WriteString(`["SOMETHING_ELSE", 3]` + "\n")
	var got []Message
	err := ReadMessages(&buf, func(m Message) bool {
		got = append(got, m)
		return true
	})
	require.NoError(Te, err)
	require.Len(Te, got, 4)
	n, ok := got[0].Int()
	assert.True(Te, ok)
	assert.Equal(Te, 3, n)
	n, _ = got[2].Int()
	assert.Equal(Te, 2, n)
	assert.Equal(Te, KeyFinished, got[3].Key)
	fin, ok := got[3].Bool()
	assert.True(Te, ok)
	assert.False(Te, fin)
}

func TestWireUnknownTotal(Te *testing.T) {
	var buf bytes.Buffer
	B := NewBroker()
	W := NewWireHost(&buf)
	Attach(B, W)
	S := New(B)
	S.Start(-1, 1)
	S.Finish()
	require.NoError(Te, W.Err())
	assert.Equal(Te, `["STARTED",null]`, strings.SplitN(buf.String(), "\n", 2)[0])
	var got []Message
	require.NoError(Te, ReadMessages(&buf, func(m Message) bool {
		got = append(got, m)
		return true
	}))
	require.Len(Te, got, 2)
	assert.Equal(Te, KeyStarted, got[0].Key)
	assert.Nil(Te, got[0].Value)
	_, ok := got[0].Int()
	assert.False(Te, ok)
	fin, _ := got[1].Bool()
	assert.True(Te, fin)
}

func TestReadMessagesMalformed(Te *testing.T) {
	err := ReadMessages(strings.NewReader(`["STEP"]`), func(Message) bool { return true })
	assert.Error(Te, err)
	err = ReadMessages(strings.NewReader("not json\n"), func(Message) bool { return true })
	assert.Error(Te, err)
}
