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

package pubsub

import (
	"context"
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/usrl-go/usrl/internal/shm"
	"github.com/usrl-go/usrl/region"
)

func withTempShm(t *testing.T) {
	t.Helper()
	shm.SetBaseDirForTest(t.TempDir())
}

func TestSinglePubSingleSubSmoke(t *testing.T) {
	withTempShm(t)
	ctx := Init(SystemConfig{})

	pub, err := PubCreate(ctx, PublisherConfig{
		Topic:     "demo",
		RingType:  region.SWMR,
		SlotCount: 64,
		SlotSize:  256,
	})
	require.NoError(t, err)
	defer pub.Destroy()

	sub, err := SubCreate(ctx, "demo")
	require.NoError(t, err)
	defer sub.Destroy()

	// The subscriber consumes alongside the publisher: 256 messages through a
	// 64-slot ring would otherwise be lapped and overrun recovery would skip
	// the oldest 192.
	buf := make([]byte, 256)
	for i := 0; i < 256; i++ {
		require.NoError(t, pub.Send([]byte{byte(i)}))

		n, err := sub.Recv(buf)
		require.NoError(t, err)
		require.Equal(t, 1, n)
		assert.Equal(t, byte(i), buf[0])
	}

	n, err := sub.Recv(buf)
	require.NoError(t, err)
	assert.Equal(t, 0, n)

	h := pub.Health()
	assert.EqualValues(t, 256, h.Operations)
	assert.True(t, h.Healthy)
}

func TestSubCreateFailsWithoutAnExistingTopic(t *testing.T) {
	withTempShm(t)
	ctx := Init(SystemConfig{})

	_, err := SubCreate(ctx, "never-created")
	assert.Error(t, err)
}

func TestSendRejectsOversizedPayload(t *testing.T) {
	withTempShm(t)
	ctx := Init(SystemConfig{})

	pub, err := PubCreate(ctx, PublisherConfig{
		Topic:     "small",
		RingType:  region.SWMR,
		SlotCount: 8,
		SlotSize:  16,
	})
	require.NoError(t, err)
	defer pub.Destroy()

	err = pub.Send(make([]byte, 1000))
	assert.ErrorIs(t, err, ErrTooLarge)
}

func TestTruncationAdvancesCursorEveryCall(t *testing.T) {
	withTempShm(t)
	ctx := Init(SystemConfig{})

	pub, err := PubCreate(ctx, PublisherConfig{
		Topic:     "trunc",
		RingType:  region.SWMR,
		SlotCount: 16,
		SlotSize:  200,
	})
	require.NoError(t, err)
	defer pub.Destroy()

	sub, err := SubCreate(ctx, "trunc")
	require.NoError(t, err)
	defer sub.Destroy()

	for i := 0; i < 5; i++ {
		require.NoError(t, pub.Send(make([]byte, 200)))
	}

	small := make([]byte, 64)
	for i := 0; i < 5; i++ {
		n, err := sub.Recv(small)
		assert.ErrorIs(t, err, ErrTruncated)
		assert.Equal(t, 0, n)
		assert.EqualValues(t, 5-(i+1), sub.Health().Lag)
	}
	assert.EqualValues(t, 5, sub.Health().Errors)
}

func TestQuotaBoundsSuccessfulSendsOverOneSecond(t *testing.T) {
	withTempShm(t)
	ctx := Init(SystemConfig{})

	pub, err := PubCreate(ctx, PublisherConfig{
		Topic:       "quota",
		RingType:    region.SWMR,
		SlotCount:   1024,
		SlotSize:    16,
		RateLimitHz: 1000,
		BlockOnFull: false,
	})
	require.NoError(t, err)
	defer pub.Destroy()

	// Spread the attempts evenly over the second, one every 100µs, so the
	// 1ms quota windows see the whole second rather than a few milliseconds.
	const attempts = 10000
	const interval = time.Second / attempts
	var attempted, successes int
	start := time.Now()
	deadline := start.Add(time.Second)
	for attempted = 0; attempted < attempts && time.Now().Before(deadline); attempted++ {
		for time.Since(start) < time.Duration(attempted)*interval {
		}
		if err := pub.Send([]byte("x")); err == nil {
			successes++
		}
	}

	h := pub.Health()
	assert.GreaterOrEqual(t, successes, 900)
	assert.LessOrEqual(t, successes, 1100)
	assert.EqualValues(t, attempted-successes, h.Errors)
}

func TestAttachRaceBothPublishersEndActive(t *testing.T) {
	withTempShm(t)
	ctx := Init(SystemConfig{})

	cfg := PublisherConfig{
		Topic:     "race",
		RingType:  region.SWMR,
		SlotCount: 64,
		SlotSize:  64,
	}

	var wg sync.WaitGroup
	pubs := make([]*Publisher, 2)
	errs := make([]error, 2)
	wg.Add(2)
	for i := 0; i < 2; i++ {
		go func(i int) {
			defer wg.Done()
			pubs[i], errs[i] = PubCreate(ctx, cfg)
		}(i)
	}
	wg.Wait()

	for i := 0; i < 2; i++ {
		require.NoError(t, errs[i])
		require.NotNil(t, pubs[i])
		assert.True(t, pubs[i].Health().Healthy)
		defer pubs[i].Destroy()
	}

	require.NoError(t, pubs[0].Send([]byte("from-0")))
	require.NoError(t, pubs[1].Send([]byte("from-1")))

	sub, err := SubCreate(ctx, "race")
	require.NoError(t, err)
	defer sub.Destroy()

	seen := 0
	buf := make([]byte, 64)
	for i := 0; i < 2; i++ {
		n, err := sub.Recv(buf)
		require.NoError(t, err)
		if n > 0 {
			seen++
		}
	}
	assert.Equal(t, 2, seen)
}

func TestMWMRContentionAcrossPublishers(t *testing.T) {
	withTempShm(t)
	ctx := Init(SystemConfig{})

	pub0, err := PubCreate(ctx, PublisherConfig{
		Topic:     "bus",
		RingType:  region.MWMR,
		SlotCount: 256,
		SlotSize:  64,
	})
	require.NoError(t, err)
	defer pub0.Destroy()

	const writers = 4
	const perWriter = 2000
	var wg sync.WaitGroup
	wg.Add(writers)
	for w := 0; w < writers; w++ {
		go func(w int) {
			defer wg.Done()
			pub, err := PubCreate(ctx, PublisherConfig{
				Topic:     "bus",
				RingType:  region.MWMR,
				SlotCount: 256,
				SlotSize:  64,
			})
			if err != nil {
				return
			}
			defer pub.Destroy()
			for i := 0; i < perWriter; i++ {
				_ = pub.Send([]byte(fmt.Sprintf("w%d-%05d", w, i)))
			}
		}(w)
	}
	wg.Wait()
}

func TestStreamDeliversUntilCanceled(t *testing.T) {
	withTempShm(t)
	pctx := Init(SystemConfig{})

	pub, err := PubCreate(pctx, PublisherConfig{
		Topic:     "stream",
		RingType:  region.SWMR,
		SlotCount: 64,
		SlotSize:  32,
	})
	require.NoError(t, err)
	defer pub.Destroy()

	sub, err := SubCreate(pctx, "stream")
	require.NoError(t, err)
	defer sub.Destroy()

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	var mu sync.Mutex
	var received [][]byte
	sub.Stream(ctx, func(payload []byte) {
		mu.Lock()
		cp := append([]byte(nil), payload...)
		received = append(received, cp)
		mu.Unlock()
	})

	for i := 0; i < 10; i++ {
		require.NoError(t, pub.Send([]byte{byte(i)}))
	}

	require.Eventually(t, func() bool {
		mu.Lock()
		defer mu.Unlock()
		return len(received) == 10
	}, time.Second, time.Millisecond)
}
