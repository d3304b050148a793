/*
 * Copyright 2025 CloudWeGo Authors
 *
 * Licensed under the Apache License, Version 2.0 (the "License");
 * you may not use this file except in compliance with the License.
 * You may obtain a copy of the License at
 *
 *     http://www.apache.org/licenses/LICENSE-2.0
 *
 * Unless required by applicable law or agreed to in writing, software
 * distributed under the License is distributed on an "AS IS" BASIS,
 * WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
 * See the License for the specific language governing permissions and
 * limitations under the License.
 */

package ring

import (
	"fmt"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/usrl-go/usrl/internal/shm"
	"github.com/usrl-go/usrl/region"
)

func newTestRing(t *testing.T, name string, slots, payload uint32, disc region.Discipline) region.RingView {
	t.Helper()
	shm.SetBaseDirForTest(t.TempDir())

	r, _, err := region.Init(name, 1<<20, []region.TopicConfig{
		{Name: "t", RequestedSlots: slots, RequestedPayload: payload, Discipline: disc},
	})
	require.NoError(t, err)
	t.Cleanup(func() { r.Close() })

	rv, _, err := r.Topic("t")
	require.NoError(t, err)
	return rv
}

func TestSWMRSmoke(t *testing.T) {
	view := newTestRing(t, "/ring-smoke", 64, 256, region.SWMR)
	pub := NewSWMRPublisher(view, 7)
	sub := NewSubscriber(view)

	// The subscriber consumes alongside the publisher: 256 messages through a
	// 64-slot ring would otherwise be lapped and overrun recovery would skip
	// the oldest 192.
	var pubID uint16
	for i := 0; i < 256; i++ {
		seq, err := pub.Publish([]byte{byte(i)})
		require.NoError(t, err)
		assert.EqualValues(t, i+1, seq)

		buf := make([]byte, 256)
		n, err := sub.Next(buf, &pubID)
		require.NoError(t, err)
		require.Equal(t, 1, n)
		assert.Equal(t, byte(i), buf[0])
		assert.EqualValues(t, 7, pubID)
	}

	n, err := sub.Next(make([]byte, 256), nil)
	require.NoError(t, err)
	assert.Equal(t, 0, n)
}

func TestSWMRTooLarge(t *testing.T) {
	view := newTestRing(t, "/ring-too-large", 8, 16, region.SWMR)
	pub := NewSWMRPublisher(view, 1)

	_, err := pub.Publish(make([]byte, 1000))
	assert.ErrorIs(t, err, ErrTooLarge)
}

func TestSubscriberMonotonicCursor(t *testing.T) {
	view := newTestRing(t, "/ring-monotonic", 8, 16, region.SWMR)
	pub := NewSWMRPublisher(view, 1)
	sub := NewSubscriber(view)

	var lastSeen uint64
	for i := 0; i < 40; i++ {
		_, _ = pub.Publish([]byte{byte(i)})
		_, _ = sub.Next(make([]byte, 16), nil)
		assert.GreaterOrEqual(t, sub.LastSeq(), lastSeen)
		lastSeen = sub.LastSeq()
	}
}

func TestSubscriberOverrunRecoversWithoutCorruption(t *testing.T) {
	view := newTestRing(t, "/ring-overrun", 8, 8, region.SWMR)
	pub := NewSWMRPublisher(view, 1)
	sub := NewSubscriber(view)

	const total = 1000
	for i := 0; i < total; i++ {
		payload := []byte(fmt.Sprintf("%08d", i))
		_, err := pub.Publish(payload)
		require.NoError(t, err)
	}

	delivered := 0
	var lastSeq uint64
	for {
		buf := make([]byte, 8)
		n, err := sub.Next(buf, nil)
		if err != nil {
			require.NoError(t, err)
		}
		if n == 0 {
			if sub.LastSeq() == uint64(total) {
				break
			}
			continue
		}
		seq := sub.LastSeq()
		assert.Greater(t, seq, lastSeq)
		// Commit sequence s carries the payload published at i = s-1.
		assert.Equal(t, fmt.Sprintf("%08d", seq-1), string(buf[:n]))
		lastSeq = seq
		delivered++
	}
	assert.LessOrEqual(t, delivered, total)
	assert.Greater(t, delivered, 0)
}

func TestSubscriberTruncation(t *testing.T) {
	view := newTestRing(t, "/ring-truncate", 8, 200, region.SWMR)
	pub := NewSWMRPublisher(view, 1)
	sub := NewSubscriber(view)

	_, err := pub.Publish(make([]byte, 200))
	require.NoError(t, err)

	small := make([]byte, 64)
	n, err := sub.Next(small, nil)
	assert.ErrorIs(t, err, ErrTruncated)
	assert.Equal(t, 0, n)
	assert.EqualValues(t, 1, sub.LastSeq())
}

func TestMWMRMutualExclusionPerSlot(t *testing.T) {
	view := newTestRing(t, "/ring-mwmr", 256, 64, region.MWMR)

	const writers = 4
	const perWriter = 5000
	var wg sync.WaitGroup
	var mu sync.Mutex
	seen := make(map[uint64]bool)
	dup := false

	wg.Add(writers)
	for w := 0; w < writers; w++ {
		go func(w int) {
			defer wg.Done()
			pub := NewMWMRPublisher(view, uint16(w))
			for i := 0; i < perWriter; i++ {
				seq, err := pub.Publish([]byte(fmt.Sprintf("w%d-%d", w, i)))
				if err != nil {
					continue
				}
				mu.Lock()
				if seen[seq] {
					dup = true
				}
				seen[seq] = true
				mu.Unlock()
			}
		}(w)
	}
	wg.Wait()

	assert.False(t, dup, "no two committed writes should produce the same commit sequence")
	assert.Len(t, seen, writers*perWriter)
}

func TestMWMRSubscriberSeesConsistentSequences(t *testing.T) {
	view := newTestRing(t, "/ring-mwmr-sub", 512, 32, region.MWMR)

	const writers = 4
	const perWriter = 2000
	var wg sync.WaitGroup

	wg.Add(writers)
	for w := 0; w < writers; w++ {
		go func(w int) {
			defer wg.Done()
			pub := NewMWMRPublisher(view, uint16(w))
			for i := 0; i < perWriter; i++ {
				_, _ = pub.Publish([]byte(fmt.Sprintf("w%d-%05d", w, i)))
			}
		}(w)
	}
	wg.Wait()

	finalHead := *view.HeadAddr()
	sub := NewSubscriber(view)
	var lastSeq uint64
	count := 0
	for {
		buf := make([]byte, 32)
		n, err := sub.Next(buf, nil)
		if err == ErrTruncated {
			continue
		}
		require.NoError(t, err)
		if n == 0 {
			if sub.LastSeq() >= finalHead {
				break
			}
			continue
		}
		assert.Greater(t, sub.LastSeq(), lastSeq)
		lastSeq = sub.LastSeq()
		count++
	}
	assert.LessOrEqual(t, count, int(finalHead))
}
