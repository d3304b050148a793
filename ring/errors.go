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

import "errors"

var (
	// ErrTooLarge is returned by Publish when the payload exceeds the
	// ring's slot capacity (slot_stride - sizeof(SlotHeader)).
	ErrTooLarge = errors.New("ring: payload exceeds slot capacity")
	// ErrTimeout is returned by an MWMR Publish whose slot-safety wait
	// exceeded its bounded iteration cap. Retryable.
	ErrTimeout = errors.New("ring: mwmr slot-safety wait timed out")
	// ErrTruncated is returned by Next when the caller's buffer is smaller
	// than the delivered payload. The cursor still advances.
	ErrTruncated = errors.New("ring: subscriber buffer too small for payload")
)
