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

package flowcontrol

import "time"

// maxExponentialAttempt caps the exponential backoff exponent so it can't
// overflow and so the wait doesn't grow unbounded.
const maxExponentialAttempt = 20

// ExponentialBackoff returns the block-on-full retry delay for a given
// attempt count: 100 * 2^min(attempt, 20) nanoseconds.
func ExponentialBackoff(attempt uint32) time.Duration {
	if attempt > maxExponentialAttempt {
		attempt = maxExponentialAttempt
	}
	return 100 * time.Nanosecond * time.Duration(uint64(1)<<attempt)
}

// LinearBackoff returns a lag-proportional delay, capped at 100ms:
// (lag * 100000 / maxLag) microseconds. A lag at or beyond maxLag saturates
// at the cap.
func LinearBackoff(lag, maxLag uint64) time.Duration {
	if maxLag == 0 || lag >= maxLag {
		return 100000 * time.Microsecond
	}
	return time.Duration(lag*100000/maxLag) * time.Microsecond
}
