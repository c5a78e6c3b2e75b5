package klv

import (
	"mxfauthor/pkg/klv/bitio"
)

// PartitionPack is the fixed-layout KLV that opens every partition, per
// §6 "Partition packs". MajorVersion/MinorVersion are fixed at 1/3 by
// the Track Writer (PrepareWrite builds version-1.3 packs, §4.4).
type PartitionPack struct {
	Kind   PartitionKind
	Status PartitionStatus

	MajorVersion uint16
	MinorVersion uint16
	KAGSize      uint32

	ThisPartition     uint64
	PreviousPartition uint64
	FooterPartition   uint64

	HeaderByteCount uint64
	IndexByteCount  uint64
	IndexSID        uint32

	BodyOffset uint64
	BodySID    uint32

	OperationalPattern Key
	EssenceContainers  []Key
}

// Key returns the partition-pack key encoding Kind and Status.
func (p *PartitionPack) Key() Key {
	return PartitionKey(p.Kind, p.Status)
}

// Size returns the marshaled value size in bytes, not counting the
// outer KLV key/length.
func (p *PartitionPack) Size() int {
	return 2 + 2 + 4 + 8*3 + 8 + 8 + 4 + 8 + 4 + 16 + 4 + 16*len(p.EssenceContainers)
}

// Marshal writes the partition pack's KLV (key, BER length, value) to w
// and returns the total bytes written.
func (p *PartitionPack) Marshal(w *bitio.Writer, minBERLength int) (int, error) {
	value := make([]byte, p.Size())
	pos := 0
	putUint16(value, &pos, p.MajorVersion)
	putUint16(value, &pos, p.MinorVersion)
	putUint32(value, &pos, p.KAGSize)
	putUint64(value, &pos, p.ThisPartition)
	putUint64(value, &pos, p.PreviousPartition)
	putUint64(value, &pos, p.FooterPartition)
	putUint64(value, &pos, p.HeaderByteCount)
	putUint64(value, &pos, p.IndexByteCount)
	putUint32(value, &pos, p.IndexSID)
	putUint64(value, &pos, p.BodyOffset)
	putUint32(value, &pos, p.BodySID)
	copy(value[pos:pos+16], p.OperationalPattern[:])
	pos += 16
	putUint32(value, &pos, uint32(len(p.EssenceContainers)))
	for _, ec := range p.EssenceContainers {
		copy(value[pos:pos+16], ec[:])
		pos += 16
	}

	return WriteKLV(w, p.Key(), value, minBERLength)
}

// Unmarshal decodes a partition pack value (without key/length) in place.
func (p *PartitionPack) Unmarshal(key Key, value []byte) error {
	kind, status, ok := key.Decode()
	if !ok {
		return errUnrecognizedPartitionKey
	}
	p.Kind = kind
	p.Status = status

	pos := 0
	p.MajorVersion = getUint16(value, &pos)
	p.MinorVersion = getUint16(value, &pos)
	p.KAGSize = getUint32(value, &pos)
	p.ThisPartition = getUint64(value, &pos)
	p.PreviousPartition = getUint64(value, &pos)
	p.FooterPartition = getUint64(value, &pos)
	p.HeaderByteCount = getUint64(value, &pos)
	p.IndexByteCount = getUint64(value, &pos)
	p.IndexSID = getUint32(value, &pos)
	p.BodyOffset = getUint64(value, &pos)
	p.BodySID = getUint32(value, &pos)
	copy(p.OperationalPattern[:], value[pos:pos+16])
	pos += 16
	count := getUint32(value, &pos)
	p.EssenceContainers = make([]Key, count)
	for i := range p.EssenceContainers {
		copy(p.EssenceContainers[i][:], value[pos:pos+16])
		pos += 16
	}
	return nil
}

// RandomIndexPack is the trailing table of partition offsets, per §6 RIP.
type RandomIndexPack struct {
	Entries []RIPEntry
}

// RIPEntry is one {body_sid, byte_offset} pair.
type RIPEntry struct {
	BodySID    uint32
	ByteOffset uint64
}

// Marshal writes the RIP's KLV and returns the total bytes written.
func (r *RandomIndexPack) Marshal(w *bitio.Writer, minBERLength int) (int, error) {
	value := make([]byte, 12*len(r.Entries)+4)
	pos := 0
	for _, e := range r.Entries {
		putUint32(value, &pos, e.BodySID)
		putUint64(value, &pos, e.ByteOffset)
	}
	// Overall length of the RIP KLV itself, written last per SMPTE 377-1.
	total := len(RandomIndexPackKey) + len(EncodeBERLength(uint64(len(value)), minBERLength)) + len(value)
	putUint32(value, &pos, uint32(total))

	return WriteKLV(w, RandomIndexPackKey, value, minBERLength)
}

func putUint16(b []byte, pos *int, v uint16) {
	b[*pos] = byte(v >> 8)
	b[*pos+1] = byte(v)
	*pos += 2
}
func putUint32(b []byte, pos *int, v uint32) {
	b[*pos] = byte(v >> 24)
	b[*pos+1] = byte(v >> 16)
	b[*pos+2] = byte(v >> 8)
	b[*pos+3] = byte(v)
	*pos += 4
}
func putUint64(b []byte, pos *int, v uint64) {
	for i := 0; i < 8; i++ {
		b[*pos+i] = byte(v >> uint(56-8*i))
	}
	*pos += 8
}

func getUint16(b []byte, pos *int) uint16 {
	v := uint16(b[*pos])<<8 | uint16(b[*pos+1])
	*pos += 2
	return v
}
func getUint32(b []byte, pos *int) uint32 {
	v := uint32(b[*pos])<<24 | uint32(b[*pos+1])<<16 | uint32(b[*pos+2])<<8 | uint32(b[*pos+3])
	*pos += 4
	return v
}
func getUint64(b []byte, pos *int) uint64 {
	var v uint64
	for i := 0; i < 8; i++ {
		v = v<<8 | uint64(b[*pos+i])
	}
	*pos += 8
	return v
}
