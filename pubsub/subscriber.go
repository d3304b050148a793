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
	"log"
	"runtime/debug"
	"sync/atomic"
	"time"

	"github.com/usrl-go/usrl/internal/bufpool"
	"github.com/usrl-go/usrl/region"
	"github.com/usrl-go/usrl/ring"
)

// streamIdlePoll is the delay between NO_DATA polls in Stream, so an idle
// subscriber doesn't spin a core at 100%.
const streamIdlePoll = time.Millisecond

type subscriberState int32

const (
	subscriberActive subscriberState = iota
	subscriberDestroyed
)

// Subscriber is an attach-only handle bound to one topic. sub_create fails
// if the topic's region does not already exist (spec §4.6).
type Subscriber struct {
	region *region.Region
	sub    *ring.Subscriber

	slotCapacity uint32

	state int32 // atomic subscriberState

	operations uint64 // atomic
	errors     uint64 // atomic
	rate       rateTracker
}

// SubCreate attaches to an existing topic region. Returns an error if the
// backing store hasn't been created yet by some publisher.
func SubCreate(ctx *Context, topic string) (*Subscriber, error) {
	if topic == "" {
		return nil, fmt.Errorf("%w: empty topic", ErrInvalidArgument)
	}

	r, err := region.Attach(topicRegionName(topic))
	if err != nil {
		return nil, err
	}

	view, _, err := r.Topic(topic)
	if err != nil {
		r.Close()
		return nil, err
	}

	return &Subscriber{
		region:       r,
		sub:          ring.NewSubscriber(view),
		slotCapacity: view.SlotStride() - region.SlotHeaderSize,
		state:        int32(subscriberActive),
		rate:         newRateTracker(),
	}, nil
}

// Recv copies at most one pending message into buf. A zero-length, nil-error
// result means NO_DATA (not an error — a normal polling outcome).
func (s *Subscriber) Recv(buf []byte) (int, error) {
	if subscriberState(atomic.LoadInt32(&s.state)) != subscriberActive {
		return 0, ErrNotActive
	}

	n, err := s.sub.Next(buf, nil)
	switch err {
	case nil:
		if n > 0 {
			atomic.AddUint64(&s.operations, 1)
		}
		return n, nil
	case ring.ErrTruncated:
		atomic.AddUint64(&s.errors, 1)
		return 0, ErrTruncated
	default:
		atomic.AddUint64(&s.errors, 1)
		return 0, err
	}
}

// RecvAlloc is a convenience wrapper over Recv that hands back a pooled
// buffer sized to the topic's slot capacity, instead of requiring the
// caller to pre-size one. The caller must call Release on the returned
// buffer when done with it; a NO_DATA result releases it automatically.
func (s *Subscriber) RecvAlloc() (payload []byte, err error) {
	buf := bufpool.Get(int(s.slotCapacity))
	n, err := s.Recv(buf)
	if err != nil || n == 0 {
		bufpool.Put(buf)
		return nil, err
	}
	return buf[:n], nil
}

// Release returns a buffer obtained from RecvAlloc to the pool.
func (s *Subscriber) Release(buf []byte) {
	bufpool.Put(buf)
}

// Health returns the minimum health surface; Lag reflects how far behind
// the writer this subscriber's cursor currently sits.
func (s *Subscriber) Health() Health {
	ops := atomic.LoadUint64(&s.operations)
	errs := atomic.LoadUint64(&s.errors)
	return Health{
		Operations: ops,
		Errors:     errs,
		RateHz:     s.rate.hz(ops),
		Lag:        s.sub.Lag(),
		Healthy:    subscriberState(atomic.LoadInt32(&s.state)) == subscriberActive,
	}
}

// Destroy unmaps the subscriber's view. The backing region is not unlinked.
func (s *Subscriber) Destroy() error {
	atomic.StoreInt32(&s.state, int32(subscriberDestroyed))
	return s.region.Close()
}

// Stream polls Recv in a background goroutine and delivers successful
// payloads to handler until ctx is canceled. This is sugar over the polling
// model of spec §4.4/§5 ("subscribers never block; they poll") — it does
// not introduce kernel-mediated blocking on the fast path, it just relieves
// the caller of writing their own poll loop. Not in spec.md; supplemental
// per SPEC_FULL.md. A panic in handler is recovered and logged, matching
// this module's default-handler convention; it does not count against the
// subscriber's health/error counters.
func (s *Subscriber) Stream(ctx context.Context, handler func([]byte)) {
	go func() {
		defer func() {
			if r := recover(); r != nil {
				log.Printf("usrl: panic in Subscriber.Stream: %v: %s", r, debug.Stack())
			}
		}()
		for {
			select {
			case <-ctx.Done():
				return
			default:
			}

			payload, err := s.RecvAlloc()
			if err != nil {
				if err == ErrNotActive {
					return
				}
				time.Sleep(streamIdlePoll)
				continue
			}
			if payload == nil {
				time.Sleep(streamIdlePoll)
				continue
			}
			handler(payload)
			s.Release(payload)
		}
	}()
}
