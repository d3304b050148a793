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

// Package pubsub is the facade (A) binding publisher/subscriber handles to
// topics: it derives a backing-store path from a topic name, attaches or
// creates the region, allocates publisher ids, wires flow control around
// the ring engine, and surfaces the minimum health view spec §9 calls for.
package pubsub

import (
	"fmt"
	"sync/atomic"
)

// Context is the process-wide handle returned by Init. It holds the system
// configuration every pub_create/sub_create call consults.
type Context struct {
	sys SystemConfig
}

// nextPubID is a process-local, atomically-incremented counter. pub_id is
// advisory (telemetry only, spec §9): two processes may hand out the same
// id and the system stays correct.
var nextPubID uint32

func allocatePubID() uint16 {
	return uint16(atomic.AddUint32(&nextPubID, 1))
}

// Init returns a Context carrying the given system configuration. There is
// no corresponding background resource to release on its own; Shutdown
// exists for symmetry with spec §6's shutdown(context) and to centralize
// any future process-wide teardown.
func Init(sys SystemConfig) *Context {
	return &Context{sys: sys}
}

// Shutdown is a no-op today: Context holds no resources of its own, only
// configuration. Individual handles are released via their own Destroy.
func (c *Context) Shutdown() {}

// topicRegionName derives the host-scoped backing-store name for a topic,
// the "/usrl-<topic>" convention used by both pub_create and sub_create so
// independent processes agree on the same path without coordination.
func topicRegionName(topic string) string {
	return fmt.Sprintf("/usrl-%s", topic)
}
