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

import "time"

// Health is the minimum surface spec §9's open question resolves on: the
// source references a richer health subsystem whose definitions were never
// supplied, so this is the whole view, not a partial one.
type Health struct {
	Operations uint64
	Errors     uint64
	RateHz     float64
	Lag        uint64
	Healthy    bool
}

// rateTracker computes an approximate observed rate from an operation
// count and the time elapsed since the handle became active.
type rateTracker struct {
	start time.Time
}

func newRateTracker() rateTracker {
	return rateTracker{start: time.Now()}
}

func (r rateTracker) hz(operations uint64) float64 {
	elapsed := time.Since(r.start).Seconds()
	if elapsed <= 0 {
		return 0
	}
	return float64(operations) / elapsed
}
