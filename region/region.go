package region

import (
	"fmt"
	"sync/atomic"
	"time"
	"unsafe"

	"github.com/usrl-go/usrl/internal/shm"
	"github.com/usrl-go/usrl/internal/unsafex"
)

// Outcome reports which branch of the create-vs-attach policy (spec §4.1,
// §6) Init actually took.
type Outcome int

const (
	// Created means this call laid out a brand-new region.
	Created Outcome = iota
	// AlreadyExisted means the backing store pre-existed; the caller
	// should treat this as a valid attach.
	AlreadyExisted
)

// attachPollInterval and attachPollTimeout bound the short window in which
// a racing attacher may observe a backing file that exists (because its
// peer won the exclusive create) but hasn't yet had its header written.
// This is the only place this package waits rather than failing fast; it
// resolves the "attach race" scenario of spec §8 without a lock.
const (
	attachPollInterval = 50 * time.Microsecond
	attachPollTimeout  = 2 * time.Second
)

// Region is a mapped usrl shared-memory region: the header, topic table,
// ring descriptors and slot arrays described in spec §3, plus the View
// used to resolve offsets into typed pointers.
type Region struct {
	mapping *shm.Mapping
	view    View
}

// Init either creates and fully lays out a new region, or attaches to one
// that already exists. The first return value reports which branch was
// taken; callers should treat AlreadyExisted as a valid attach, not an
// error (spec §4.1, §6).
func Init(name string, size uint64, configs []TopicConfig) (*Region, Outcome, error) {
	if size == 0 {
		return nil, 0, fmt.Errorf("%w: region size must be > 0", ErrInvalidArgument)
	}

	p, err := plan(size, configs)
	if err != nil {
		return nil, 0, err
	}

	res, err := shm.CreateExclusive(name, int64(size))
	if err != nil {
		return nil, 0, fmt.Errorf("%w: %v", ErrBackingStore, err)
	}

	if !res.Created {
		r, err := attachWithPoll(res.Mapping)
		if err != nil {
			return nil, 0, err
		}
		return r, AlreadyExisted, nil
	}

	if err := layout(res.Mapping.Bytes, p, configs); err != nil {
		res.Mapping.Close()
		return nil, 0, err
	}

	return &Region{mapping: res.Mapping, view: newView(res.Mapping.Bytes)}, Created, nil
}

// Attach maps an existing region only; it fails if the backing store does
// not exist (spec §4.6's subscriber-create contract).
func Attach(name string) (*Region, error) {
	m, err := shm.Attach(name)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrBackingStore, err)
	}
	return attachWithPoll(m)
}

func attachWithPoll(m *shm.Mapping) (*Region, error) {
	if len(m.Bytes) < RegionHeaderSize {
		m.Close()
		return nil, fmt.Errorf("%w: mapped region smaller than header", ErrBadMagic)
	}

	v := newView(m.Bytes)
	deadline := time.Now().Add(attachPollTimeout)
	for {
		hdr := v.header()
		if atomic.LoadUint32(&hdr.Magic) == Magic {
			if hdr.Version != Version {
				m.Close()
				return nil, fmt.Errorf("%w: region has version %d, this package reads version %d", ErrVersionMismatch, hdr.Version, Version)
			}
			return &Region{mapping: m, view: v}, nil
		}
		if hdr.Magic != 0 || time.Now().After(deadline) {
			m.Close()
			return nil, fmt.Errorf("%w: header magic 0x%x", ErrBadMagic, hdr.Magic)
		}
		time.Sleep(attachPollInterval)
	}
}

// layout zero-initializes the region and writes the header, topic table
// and ring descriptors, per spec §4.1. The header's magic is written last
// so a concurrent attacher (see attachWithPoll) never observes a
// half-initialized region as valid.
func layout(base []byte, p *layoutPlan, configs []TopicConfig) error {
	clear(base)

	v := newView(base)
	entries := v.topicEntries(p.topicTableOffset, uint32(len(p.topics)))

	for i, t := range p.topics {
		e := &entries[i]
		copy(e.Name[:], t.cfg.Name)
		e.RingDescOffset = t.ringDescOffset
		e.SlotCount = t.slotCount
		e.SlotSize = t.slotStride
		e.Type = uint32(t.cfg.Discipline)

		desc := (*RingDescriptor)(unsafe.Pointer(&base[t.ringDescOffset]))
		desc.SlotCount = t.slotCount
		desc.SlotSize = t.slotStride
		desc.BaseOffset = t.slotsOffset
		// WHead and every slot's seq stay zero from the clear() above.
	}

	hdr := v.header()
	hdr.Version = Version
	hdr.MmapSize = p.totalSize
	hdr.TopicTableOffset = p.topicTableOffset
	hdr.TopicCount = uint32(len(p.topics))
	atomic.StoreUint32(&hdr.Magic, Magic) // release: must be the last field written
	return nil
}

// Close unmaps the region. The backing store itself is not unlinked; use
// Remove for that.
func (r *Region) Close() error {
	return r.mapping.Close()
}

// Size returns the total mapped size in bytes.
func (r *Region) Size() uint64 {
	return r.view.header().MmapSize
}

// TopicCount returns the number of topics in the region.
func (r *Region) TopicCount() uint32 {
	return r.view.header().TopicCount
}

// Topics lists the configured topic names, in table order.
func (r *Region) Topics() []string {
	hdr := r.view.header()
	entries := r.view.topicEntries(hdr.TopicTableOffset, hdr.TopicCount)
	names := make([]string, len(entries))
	for i := range entries {
		// entryName aliases the mapped bytes; index the slice directly
		// rather than ranging, or every name would alias the loop variable's
		// last value instead of its own entry.
		names[i] = entryName(&entries[i])
	}
	return names
}

// Topic resolves a topic by name to its RingView and discipline.
func (r *Region) Topic(name string) (RingView, Discipline, error) {
	hdr := r.view.header()
	entries := r.view.topicEntries(hdr.TopicTableOffset, hdr.TopicCount)
	for i := range entries {
		if entryName(&entries[i]) == name {
			return r.view.ringView(&entries[i]), Discipline(entries[i].Type), nil
		}
	}
	return RingView{}, 0, fmt.Errorf("%w: %q", ErrTopicNotFound, name)
}

func entryName(e *TopicEntry) string {
	n := 0
	for n < len(e.Name) && e.Name[n] != 0 {
		n++
	}
	// Zero-copy: the returned string aliases the mapped bytes. Safe here
	// because TopicEntry.Name is only ever written once, at layout() time,
	// before any reader can observe the entry.
	return unsafex.BinaryToString(e.Name[:n])
}

// Remove unlinks a region's backing store. This is the explicit,
// non-default destructive tool spec §9 calls out — it is never invoked by
// Init or Attach.
func Remove(name string) error {
	return shm.Remove(name)
}

// Stat reports the OS-visible size of a region's backing store without
// mapping it.
func Stat(name string) (int64, error) {
	return shm.Size(name)
}
