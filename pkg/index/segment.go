package index

import (
	"mxfauthor/pkg/klv"
	"mxfauthor/pkg/klv/bitio"
	"mxfauthor/pkg/rational"
)

// Segment is one Index Table Segment, per §3.
type Segment struct {
	IndexSID          uint32
	BodySID           uint32
	IndexEditRate     rational.Rational
	StartPosition     int64
	Duration          int64
	SliceCount        uint8
	EditUnitByteCount uint32 // CBE only; 0 for VBE.

	DeltaEntries []DeltaEntry // omitted (nil) when IsSingleDefault.

	// EntriesBytes holds the serialized VBE index-entry array as it is
	// built, enabling UpdateIndexEntry's backwards-walking byte patch of
	// already-serialized entries (§4.3 "out-of-order temporal-offset
	// patch-up").
	EntriesBytes []byte
}

// EntrySizeBytes returns this segment's per-entry size.
func (s *Segment) EntrySizeBytes() int {
	return EntrySize(int(s.SliceCount))
}

// AppendVBEEntry appends one serialized VBE entry to EntriesBytes and
// increments Duration.
func (s *Segment) AppendVBEEntry(entry IndexEntry, streamOffset int64, sliceCPOffsets []uint32) {
	buf := marshalVBEEntry(entry, streamOffset, sliceCPOffsets)
	s.EntriesBytes = append(s.EntriesBytes, buf...)
	s.Duration++
}

// WouldExceed reports whether appending one more entry of this
// segment's entry size would exceed MaxSegmentBytes, applying the
// 30-entry GOP headroom when canStartPartition is true, per §3/§4.3.
func (s *Segment) WouldExceed(canStartPartition bool) bool {
	limit := MaxSegmentBytes
	if canStartPartition {
		limit -= GOPHeadroomEntries * s.EntrySizeBytes()
	}
	return len(s.EntriesBytes)+s.EntrySizeBytes() > limit
}

func marshalVBEEntry(entry IndexEntry, streamOffset int64, sliceCPOffsets []uint32) []byte {
	size := 11 + 4*len(sliceCPOffsets)
	buf := make([]byte, size)
	buf[0] = byte(entry.TemporalOffset)
	buf[1] = byte(entry.KeyFrameOffset)
	buf[2] = entry.Flags
	putInt64(buf[3:11], streamOffset)
	pos := 11
	for _, off := range sliceCPOffsets {
		putUint32(buf[pos:pos+4], off)
		pos += 4
	}
	return buf
}

// PatchTemporalOffset rewrites byte 0 of the entry at the given index
// within EntriesBytes, per §4.3 "locate the segment by walking backwards
// summing durations and patch byte 0 of the entry in the already
// serialized buffer."
func (s *Segment) PatchTemporalOffset(entryIndex int64, temporalOffset int8) bool {
	if entryIndex < 0 {
		return false
	}
	offset := int(entryIndex) * s.EntrySizeBytes()
	if offset >= len(s.EntriesBytes) {
		return false
	}
	s.EntriesBytes[offset] = byte(temporalOffset)
	return true
}

// Marshal writes the segment header, optional delta-entry array, and
// index-entry array as one KLV, per §4.3 "Segment emission."
func (s *Segment) Marshal(w *bitio.Writer, key klv.Key, minBERLength int) (int, error) {
	value := s.marshalValue()
	return klv.WriteKLV(w, key, value, minBERLength)
}

func (s *Segment) marshalValue() []byte {
	var out []byte
	out = appendInt64(out, s.StartPosition)
	out = appendInt64(out, s.Duration)
	out = appendUint32(out, uint32(s.IndexEditRate.Num))
	out = appendUint32(out, uint32(s.IndexEditRate.Den))
	out = appendUint32(out, s.IndexSID)
	out = appendUint32(out, s.BodySID)
	out = appendUint32(out, s.EditUnitByteCount)
	out = append(out, s.SliceCount)

	out = appendUint32(out, uint32(len(s.DeltaEntries)))
	for _, d := range s.DeltaEntries {
		out = append(out, byte(d.PosTableIndex), d.Slice)
		out = appendUint32(out, d.ElementDelta)
	}

	out = appendUint32(out, uint32(s.Duration))
	out = append(out, s.EntriesBytes...)
	return out
}

func putInt64(b []byte, v int64) {
	u := uint64(v)
	for i := 0; i < 8; i++ {
		b[i] = byte(u >> uint(56-8*i))
	}
}

func putUint32(b []byte, v uint32) {
	b[0] = byte(v >> 24)
	b[1] = byte(v >> 16)
	b[2] = byte(v >> 8)
	b[3] = byte(v)
}

func appendInt64(out []byte, v int64) []byte {
	var b [8]byte
	putInt64(b[:], v)
	return append(out, b[:]...)
}

func appendUint32(out []byte, v uint32) []byte {
	var b [4]byte
	putUint32(b[:], v)
	return append(out, b[:]...)
}
