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

// Package bufpool hands out pooled byte slices for the subscriber's
// RecvAlloc convenience path, so a polling loop doesn't allocate on every
// NO_DATA/short-message call. It has the same Get/Put-a-sized-buffer shape
// as cache/mempool's Malloc/Free, but delegates the actual size-classed
// pooling to bytedance/gopkg's mcache rather than reimplementing a second
// footer-tagged pool in this module.
package bufpool

import "github.com/bytedance/gopkg/lang/mcache"

// Get returns a byte slice of length size drawn from a size-classed pool.
// Its contents are not guaranteed to be zeroed. Callers must call Put when
// done; they must not retain or reslice past the returned length after
// calling Put.
func Get(size int) []byte {
	return mcache.Malloc(size)
}

// Put returns buf to the pool. buf must have been obtained from Get (or be
// nil/empty). mcache keeps no footer to check: it recycles any slice whose
// capacity is a power of two, so a foreign slice of such a capacity is
// pooled and may later be handed out by Get; other slices are ignored.
func Put(buf []byte) {
	mcache.Free(buf)
}
