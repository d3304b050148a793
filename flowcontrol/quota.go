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

// Package flowcontrol implements the per-publisher fixed-window rate
// limiter and the bounded backoff primitives that drive the facade's
// block-vs-drop policy on top of the ring engine.
package flowcontrol

import "time"

// windowDuration is the fixed quota window. It is not configurable: a
// smaller, fixed window keeps the counters bounded and the check cheap.
const windowDuration = time.Millisecond

// unlimitedQuota marks a quota as disabled: msgs_per_sec == 0 is
// represented internally as "effectively infinite per window".
const unlimitedQuota = ^uint64(0)

// Quota is a per-publisher fixed-window rate limiter. It is not safe for
// concurrent use by multiple goroutines without external synchronization;
// a publisher handle owns exactly one Quota.
type Quota struct {
	windowStart    time.Time
	perWindow      uint64
	inWindow       uint64
	totalThrottled uint64
}

// NewQuota builds a Quota for a configured messages-per-second rate.
// msgsPerSec == 0 disables the limiter (Allow always returns true).
func NewQuota(msgsPerSec uint64) *Quota {
	q := &Quota{}
	if msgsPerSec == 0 {
		q.perWindow = unlimitedQuota
		return q
	}
	perWindow := (msgsPerSec + 999) / 1000 // ceil(msgs_per_sec / 1000)
	if perWindow == 0 {
		perWindow = 1
	}
	q.perWindow = perWindow
	return q
}

// Allow reports whether a publish may proceed in the current window. If
// the window has elapsed it resets first. A denied call increments
// TotalThrottled.
func (q *Quota) Allow(now time.Time) bool {
	if now.Sub(q.windowStart) >= windowDuration {
		q.windowStart = now
		q.inWindow = 0
	}

	if q.inWindow >= q.perWindow {
		q.totalThrottled++
		return false
	}

	q.inWindow++
	return true
}

// TotalThrottled returns the cumulative count of denied Allow calls.
func (q *Quota) TotalThrottled() uint64 {
	return q.totalThrottled
}
