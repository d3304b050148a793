package region

import "fmt"

// TopicConfig is the caller-supplied description of one topic, before
// normalization. It mirrors UsrlTopicConfig in
// original_source/core/includes/usrl_core.h.
type TopicConfig struct {
	Name             string
	RequestedSlots   uint32
	RequestedPayload uint32
	Discipline       Discipline
}

// normalizedTopic holds a TopicConfig after power-of-two / alignment
// normalization, plus its resolved placement within the region.
type normalizedTopic struct {
	cfg            TopicConfig
	slotCount      uint32
	slotStride     uint32
	ringDescOffset uint64
	slotsOffset    uint64
}

// normalize applies spec §4.1's normalization rule to one topic config.
func normalize(cfg TopicConfig) (normalizedTopic, error) {
	if len(cfg.Name) == 0 {
		return normalizedTopic{}, fmt.Errorf("%w: empty topic name", ErrInvalidArgument)
	}
	if len(cfg.Name) >= MaxTopicNameLen {
		return normalizedTopic{}, fmt.Errorf("%w: topic name %q exceeds %d bytes", ErrInvalidArgument, cfg.Name, MaxTopicNameLen-1)
	}

	slotCount := nextPowerOfTwo(cfg.RequestedSlots)
	stride := alignUp(uint64(SlotHeaderSize)+uint64(cfg.RequestedPayload), 8)

	return normalizedTopic{
		cfg:        cfg,
		slotCount:  slotCount,
		slotStride: uint32(stride),
	}, nil
}

// layoutPlan is the fully resolved placement of header, topic table, ring
// descriptors and slot arrays within a region of a given total size.
type layoutPlan struct {
	totalSize        uint64
	topicTableOffset uint64
	ringDescOffset   uint64
	topics           []normalizedTopic
}

// plan implements spec §4.1's placement algorithm: lay out the header, then
// the topic table, then the ring descriptor array, then each topic's slot
// array contiguously, aligning each section to the cache line.
func plan(regionSize uint64, configs []TopicConfig) (*layoutPlan, error) {
	if len(configs) == 0 {
		return nil, fmt.Errorf("%w: at least one topic is required", ErrInvalidArgument)
	}

	topics := make([]normalizedTopic, len(configs))
	seen := make(map[string]struct{}, len(configs))
	for i, cfg := range configs {
		nt, err := normalize(cfg)
		if err != nil {
			return nil, err
		}
		if _, dup := seen[cfg.Name]; dup {
			return nil, fmt.Errorf("%w: duplicate topic name %q", ErrInvalidArgument, cfg.Name)
		}
		seen[cfg.Name] = struct{}{}
		topics[i] = nt
	}

	offset := uint64(RegionHeaderSize)

	topicTableOffset := alignUp(offset, CacheLineSize)
	offset = topicTableOffset + uint64(len(topics))*TopicEntrySize

	ringDescOffset := alignUp(offset, CacheLineSize)
	offset = ringDescOffset + uint64(len(topics))*RingDescriptorSize
	for i := range topics {
		topics[i].ringDescOffset = ringDescOffset + uint64(i)*RingDescriptorSize
	}

	for i := range topics {
		slotsOffset := alignUp(offset, CacheLineSize)
		topics[i].slotsOffset = slotsOffset
		offset = slotsOffset + uint64(topics[i].slotCount)*uint64(topics[i].slotStride)
	}

	if offset > regionSize {
		return nil, fmt.Errorf("%w: layout needs %d bytes, region has %d", ErrInsufficientSpace, offset, regionSize)
	}

	return &layoutPlan{
		totalSize:        regionSize,
		topicTableOffset: topicTableOffset,
		ringDescOffset:   ringDescOffset,
		topics:           topics,
	}, nil
}
