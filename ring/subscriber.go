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

	"github.com/usrl-go/usrl/region"
)

// Subscriber polls a ring for newly committed messages. It is process-local
// and never shared across goroutines: last_seq (the delivery cursor) is
// plain state, not atomic, because a single subscriber handle has exactly
// one reader.
type Subscriber struct {
	view    region.RingView
	mask    uint64
	lastSeq uint64
}

// NewSubscriber binds a subscribe handle to a ring view. The cursor starts
// at 0: "nothing delivered yet".
func NewSubscriber(view region.RingView) *Subscriber {
	return &Subscriber{view: view, mask: view.Mask()}
}

// LastSeq returns the greatest commit sequence already delivered to the
// caller (or skipped via truncation/overrun). Monotonically non-decreasing.
func (s *Subscriber) LastSeq() uint64 {
	return s.lastSeq
}

// Lag reports how many committed messages the subscriber is currently
// behind the writer. Used to populate the facade's health view.
func (s *Subscriber) Lag() uint64 {
	w := atomic.LoadUint64(s.view.HeadAddr())
	if w <= s.lastSeq {
		return 0
	}
	return w - s.lastSeq
}

// Next implements spec §4.4's ten-step polling protocol: it copies at most
// one message into buf and reports how the attempt resolved.
//
//   - n > 0, err == nil:       n bytes were copied into buf; pubID set if non-nil.
//   - n == 0, err == nil:      NO_DATA — nothing new, or overrun recovery
//     consumed this call without producing a message.
//   - err == ErrTruncated:     the slot was skipped (cursor advanced) because
//     buf was smaller than the payload.
func (s *Subscriber) Next(buf []byte, pubID *uint16) (n int, err error) {
	slotCount := uint64(s.view.SlotCount())

	w := atomic.LoadUint64(s.view.HeadAddr())
	next := s.lastSeq + 1
	if next > w {
		return 0, nil
	}

	if w-next >= slotCount {
		// Overrun: the writer has lapped us by at least one full ring.
		// Jump the cursor to the oldest sequence the writer still holds.
		newStart := w - slotCount + 1
		s.lastSeq = newStart - 1
		next = newStart
		w = atomic.LoadUint64(s.view.HeadAddr())
		if next > w {
			return 0, nil
		}
	}

	idx := (next - 1) & s.mask
	slot := s.view.Slot(idx)
	seq := atomic.LoadUint64(slot.HeaderAddr())

	if seq == 0 || seq < next {
		return 0, nil
	}
	if seq > next {
		// The writer moved past us while we were reading; the slot we
		// were about to read now belongs to a later generation. Jump to
		// it and let the caller retry.
		s.lastSeq = seq - 1
		return 0, nil
	}

	payloadLen := slot.PayloadLen()
	if payloadLen > uint32(len(buf)) {
		s.lastSeq = next
		return 0, ErrTruncated
	}

	copy(buf, slot.Payload()[:payloadLen])
	if pubID != nil {
		*pubID = slot.PubID()
	}

	// Seqlock verify: if the writer committed a new value to this slot
	// while we were copying, our bytes may be torn. Detect it with a
	// post-read load and discard if seq moved.
	post := atomic.LoadUint64(slot.HeaderAddr())
	if post != seq {
		s.lastSeq = w
		return 0, nil
	}

	s.lastSeq = next
	return int(payloadLen), nil
}
