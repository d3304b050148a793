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

import "errors"

var (
	// ErrInvalidArgument covers malformed configuration: empty topic, zero
	// slots, a nil context.
	ErrInvalidArgument = errors.New("pubsub: invalid argument")
	// ErrDropped is returned by Send when block_on_full is false and the
	// message was throttled or the ring was full.
	ErrDropped = errors.New("pubsub: message dropped")
	// ErrTimeout is the facade's name for pub_send's timeout result. Send
	// does not return it: with block_on_full it retries a timed-out MWMR
	// slot-safety wait indefinitely, and without it Send returns ErrDropped.
	ErrTimeout = errors.New("pubsub: publish timed out")
	// ErrTooLarge is returned by Send when the payload exceeds the topic's
	// slot capacity.
	ErrTooLarge = errors.New("pubsub: payload exceeds slot capacity")
	// ErrNotActive is returned by Send/Recv on a handle that has already
	// been destroyed.
	ErrNotActive = errors.New("pubsub: handle is not active")
	// ErrTruncated is returned by Recv when the caller's buffer was smaller
	// than the delivered payload. The subscriber's cursor still advances.
	ErrTruncated = errors.New("pubsub: buffer too small for payload")
)
