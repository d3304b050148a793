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

import "github.com/usrl-go/usrl/region"

const (
	// defaultRegionSizeMiB is used when SystemConfig.DefaultRegionSizeMiB
	// is left at zero.
	defaultRegionSizeMiB = 64
	// minRegionSizeMiB is the process-wide floor for the default region
	// size knob (spec §6, "Environment / process-wide knobs").
	minRegionSizeMiB = 8
	// perTopicSlack is added on top of slot_count*slot_size when sizing a
	// topic's backing object (spec §4.6).
	perTopicSlack = 1 << 20 // 1 MiB
)

// SystemConfig is the process-wide knob set external configuration loading
// (out of scope per spec §1) would otherwise populate by hand.
type SystemConfig struct {
	// DefaultRegionSizeMiB is the size used to back a topic's region when
	// slot_count*slot_size + 1MiB is smaller than it. Zero means
	// defaultRegionSizeMiB; any nonzero value below minRegionSizeMiB is
	// raised to minRegionSizeMiB.
	DefaultRegionSizeMiB uint64
}

func (c SystemConfig) regionSizeMiB() uint64 {
	if c.DefaultRegionSizeMiB == 0 {
		return defaultRegionSizeMiB
	}
	if c.DefaultRegionSizeMiB < minRegionSizeMiB {
		return minRegionSizeMiB
	}
	return c.DefaultRegionSizeMiB
}

// PublisherConfig describes a publisher to be created by pub_create.
type PublisherConfig struct {
	Topic       string
	RingType    region.Discipline
	SlotCount   uint32
	SlotSize    uint32
	RateLimitHz uint64
	BlockOnFull bool
}

// regionSize computes the larger of slot_count*slot_size+1MiB and the
// context's configured default, per spec §4.6.
func regionSize(cfg PublisherConfig, sys SystemConfig) uint64 {
	needed := uint64(cfg.SlotCount)*uint64(cfg.SlotSize) + perTopicSlack
	def := sys.regionSizeMiB() << 20
	if needed > def {
		return needed
	}
	return def
}
