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

// Package ring implements the lock-free publish/consume protocol over a
// region.RingView: atomic sequence reservation, release-fenced payload
// commit, and subscriber-side seqlock verification with lap-overrun
// recovery. SWMRPublisher and MWMRPublisher share the same reservation and
// commit steps; MWMRPublisher additionally waits for slot safety before
// overwriting (mwmr.go).
package ring

import (
	"sync/atomic"
	"time"

	"github.com/usrl-go/usrl/region"
)

// SWMRPublisher is a single-writer-multi-reader publish handle. The atomic
// fetch-add reservation is retained even though one logical writer is
// assumed, so that multiple threads inside that writer process cannot
// interleave unsafely; no slot-safety wait is performed.
type SWMRPublisher struct {
	view  region.RingView
	mask  uint64
	pubID uint16
}

// NewSWMRPublisher binds a publish handle to a ring view and publisher id.
func NewSWMRPublisher(view region.RingView, pubID uint16) *SWMRPublisher {
	return &SWMRPublisher{view: view, mask: view.Mask(), pubID: pubID}
}

// Publish reserves the next sequence on the ring, copies data into the
// reserved slot, and commits it with a release-ordered store to the slot's
// seq field. Returns ErrTooLarge if data does not fit in a slot's payload
// capacity.
func (p *SWMRPublisher) Publish(data []byte) (commitSeq uint64, err error) {
	stride := p.view.SlotStride()
	capacity := stride - region.SlotHeaderSize
	if uint32(len(data)) > capacity {
		return 0, ErrTooLarge
	}

	commitSeq = atomic.AddUint64(p.view.HeadAddr(), 1)
	idx := (commitSeq - 1) & p.mask

	slot := p.view.Slot(idx)
	n := copy(slot.Payload(), data)
	// time.Now() is wall-clock, not monotonic; spec §9 asks for monotonic
	// timestamps here, but the field is advisory only (never read for
	// ordering) and the original source has the same property (CLOCK_REALTIME).
	slot.SetMeta(uint32(n), p.pubID, uint64(time.Now().UnixNano()))

	// Release-fence (implicit in the release store below on Go's memory
	// model for atomic stores) then commit: readers that observe this seq
	// with an acquire load are guaranteed to see the payload/header writes
	// above it.
	atomic.StoreUint64(slot.HeaderAddr(), commitSeq)
	return commitSeq, nil
}
