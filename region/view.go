package region

import "unsafe"

// View is the typed, offset-resolving view over a mapped region described
// in spec §9's Design Notes: "a thin value type that holds the base pointer
// and total size, exposes methods to resolve the header/descriptors/slots
// by offset, and disallows operations that would create aliasing mutable
// references to non-atomic fields." All mutability after init is confined
// to the atomic fields resolved through this type (RingView.HeadAddr,
// SlotView.HeaderAddr) or to the payload bytes of the slot a writer
// reserved.
type View struct {
	base []byte
}

func newView(base []byte) View {
	return View{base: base}
}

func (v View) header() *RegionHeader {
	return (*RegionHeader)(unsafe.Pointer(&v.base[0]))
}

func (v View) topicEntries(topicTableOffset uint64, count uint32) []TopicEntry {
	if count == 0 {
		return nil
	}
	ptr := unsafe.Pointer(&v.base[topicTableOffset])
	return unsafe.Slice((*TopicEntry)(ptr), int(count))
}

// RingView resolves a single topic's RingDescriptor and slot array out of
// the mapped bytes. It is the handle type ring.SWMRPublisher,
// ring.MWMRPublisher and ring.Subscriber operate on.
type RingView struct {
	desc       *RingDescriptor
	slotBase   unsafe.Pointer
	slotCount  uint32
	slotStride uint32
}

// ringView resolves the RingDescriptor for a topic entry and the base
// pointer of its slot array.
func (v View) ringView(entry *TopicEntry) RingView {
	desc := (*RingDescriptor)(unsafe.Pointer(&v.base[entry.RingDescOffset]))
	return RingView{
		desc:       desc,
		slotBase:   unsafe.Pointer(&v.base[desc.BaseOffset]),
		slotCount:  entry.SlotCount,
		slotStride: entry.SlotSize,
	}
}

// SlotCount returns the ring's power-of-two slot count.
func (r RingView) SlotCount() uint32 { return r.slotCount }

// SlotStride returns the byte size of one slot (header + payload capacity).
func (r RingView) SlotStride() uint32 { return r.slotStride }

// Mask returns slotCount-1, precomputed once per handle as spec §9 requires.
func (r RingView) Mask() uint64 { return uint64(r.slotCount) - 1 }

// HeadAddr returns the address of the ring's atomic write head, for use
// with sync/atomic.
func (r RingView) HeadAddr() *uint64 {
	return &r.desc.WHead
}

// Slot resolves the SlotView for slot index idx (already masked by the
// caller via Mask()).
func (r RingView) Slot(idx uint64) SlotView {
	off := uintptr(idx) * uintptr(r.slotStride)
	hdr := (*SlotHeader)(unsafe.Add(r.slotBase, off))
	payload := unsafe.Slice((*byte)(unsafe.Add(r.slotBase, off+uintptr(SlotHeaderSize))), r.slotStride-SlotHeaderSize)
	return SlotView{header: hdr, payload: payload}
}

// SlotView is the resolved header pointer and payload byte window for a
// single slot.
type SlotView struct {
	header  *SlotHeader
	payload []byte
}

// HeaderAddr returns the address of the slot's atomic seq field, for use
// with sync/atomic.
func (s SlotView) HeaderAddr() *uint64 {
	return &s.header.Seq
}

// PayloadCap returns the number of bytes available for a payload in this
// slot: slotStride - sizeof(SlotHeader).
func (s SlotView) PayloadCap() uint32 {
	return uint32(len(s.payload))
}

// Payload returns the full-capacity payload window. Callers must slice it
// to PayloadLen() bytes after verifying the slot's commit sequence.
func (s SlotView) Payload() []byte {
	return s.payload
}

// SetMeta writes the non-atomic header fields (payload length, publisher
// id, timestamp). Must be called, and the data bytes copied into Payload(),
// strictly before the release-fenced seq store that publishes the slot.
func (s SlotView) SetMeta(payloadLen uint32, pubID uint16, timestampNs uint64) {
	s.header.PayloadLen = payloadLen
	s.header.PubID = pubID
	s.header.TimestampNs = timestampNs
}

// PayloadLen reads the non-atomic payload length field. Only valid to call
// after observing a committed seq for this slot (see ring.Subscriber.Next).
func (s SlotView) PayloadLen() uint32 { return s.header.PayloadLen }

// PubID reads the non-atomic publisher id field. Same validity rule as
// PayloadLen.
func (s SlotView) PubID() uint16 { return s.header.PubID }
