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
	"fmt"
	"sync/atomic"
	"time"

	"github.com/usrl-go/usrl/flowcontrol"
	"github.com/usrl-go/usrl/region"
	"github.com/usrl-go/usrl/ring"
)

type publisherState int32

const (
	publisherCreated publisherState = iota
	publisherActive
	publisherDestroyed
)

// publishFunc is satisfied by both *ring.SWMRPublisher and
// *ring.MWMRPublisher, letting Publisher dispatch without a type switch on
// every send.
type publishFunc func(data []byte) (uint64, error)

// Publisher is an ACTIVE handle bound to one topic. Its state machine is
// CREATED -> ACTIVE -> DESTROYED (spec §4.6); Send is legal only in ACTIVE.
type Publisher struct {
	region *region.Region
	cfg    PublisherConfig

	publish publishFunc
	quota   *flowcontrol.Quota

	pubID uint16
	state int32 // atomic publisherState

	operations uint64 // atomic
	errors     uint64 // atomic
	rate       rateTracker
}

// PubCreate derives a backing-store path from cfg.Topic, attempts to
// initialize the region (attaching instead if it already exists), and
// returns an ACTIVE publisher. Two processes racing PubCreate with
// identical configs both end up ACTIVE against the same, once-laid-out
// region (spec §8, "Attach race").
func PubCreate(ctx *Context, cfg PublisherConfig) (*Publisher, error) {
	if ctx == nil {
		return nil, fmt.Errorf("%w: nil context", ErrInvalidArgument)
	}
	if cfg.Topic == "" {
		return nil, fmt.Errorf("%w: empty topic", ErrInvalidArgument)
	}
	if cfg.SlotCount == 0 || cfg.SlotSize == 0 {
		return nil, fmt.Errorf("%w: slot_count and slot_size must be > 0", ErrInvalidArgument)
	}

	name := topicRegionName(cfg.Topic)
	size := regionSize(cfg, ctx.sys)

	r, _, err := region.Init(name, size, []region.TopicConfig{
		{
			Name:             cfg.Topic,
			RequestedSlots:   cfg.SlotCount,
			RequestedPayload: cfg.SlotSize,
			Discipline:       cfg.RingType,
		},
	})
	if err != nil {
		return nil, err
	}

	view, disc, err := r.Topic(cfg.Topic)
	if err != nil {
		r.Close()
		return nil, err
	}

	pubID := allocatePubID()

	var publish publishFunc
	switch disc {
	case region.MWMR:
		p := ring.NewMWMRPublisher(view, pubID)
		publish = p.Publish
	default:
		p := ring.NewSWMRPublisher(view, pubID)
		publish = p.Publish
	}

	return &Publisher{
		region:  r,
		cfg:     cfg,
		publish: publish,
		quota:   flowcontrol.NewQuota(cfg.RateLimitHz),
		pubID:   pubID,
		state:   int32(publisherActive),
		rate:    newRateTracker(),
	}, nil
}

// Send publishes data, applying the quota and block/drop policy configured
// at create time (spec §4.5). A nil error means the message was committed.
func (p *Publisher) Send(data []byte) error {
	if publisherState(atomic.LoadInt32(&p.state)) != publisherActive {
		return ErrNotActive
	}

	if !p.awaitQuota() {
		atomic.AddUint64(&p.errors, 1)
		return ErrDropped
	}

	for attempt := uint32(0); ; attempt++ {
		_, err := p.publish(data)
		switch err {
		case nil:
			atomic.AddUint64(&p.operations, 1)
			return nil
		case ring.ErrTooLarge:
			atomic.AddUint64(&p.errors, 1)
			return ErrTooLarge
		case ring.ErrTimeout:
			if !p.cfg.BlockOnFull {
				atomic.AddUint64(&p.errors, 1)
				return ErrDropped
			}
			time.Sleep(time.Microsecond)
		default:
			atomic.AddUint64(&p.errors, 1)
			return err
		}
	}
}

// awaitQuota consults the fixed-window quota, applying the configured
// block/drop policy. Returns false only when drop mode observed a throttle.
func (p *Publisher) awaitQuota() bool {
	for {
		if p.quota.Allow(time.Now()) {
			return true
		}
		if !p.cfg.BlockOnFull {
			return false
		}
		time.Sleep(flowcontrol.ExponentialBackoff(1))
	}
}

// Health returns the minimum health surface spec §4.6/§6/§9 specifies.
// Lag is always 0 for a publisher; only subscribers lag behind a writer.
func (p *Publisher) Health() Health {
	ops := atomic.LoadUint64(&p.operations)
	errs := atomic.LoadUint64(&p.errors)
	return Health{
		Operations: ops,
		Errors:     errs,
		RateHz:     p.rate.hz(ops),
		Lag:        0,
		Healthy:    publisherState(atomic.LoadInt32(&p.state)) == publisherActive,
	}
}

// Destroy transitions the publisher to DESTROYED and unmaps its view. The
// backing region itself is not unlinked.
func (p *Publisher) Destroy() error {
	atomic.StoreInt32(&p.state, int32(publisherDestroyed))
	return p.region.Close()
}
