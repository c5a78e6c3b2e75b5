package metadata

import "mxfauthor/pkg/ident"

// SetTag is the local tag a metadata set is framed under, per §6 "header
// metadata: strongly-typed sets serialized as local-tag-prefixed KLVs
// under a Primer Pack." The corpus supplies no strong-reference-set
// serializer (§1 lists it as an external collaborator), so this module
// is the engine's own, at format-shape fidelity: every set and its
// cross-references serialize deterministically, but the byte-for-byte
// SMPTE-377 local-tag catalogue is not reproduced.
type SetTag uint16

// Local tags, one per metadata set kind.
const (
	TagPreface SetTag = 0x0101 + iota
	TagIdentification
	TagContentStorage
	TagEssenceContainerData
	TagPackage
	TagTrack
	TagSequence
	TagSourceClip
	TagTimecodeComponent
	TagFileDescriptor
	TagTapeDescriptor
	TagImportDescriptor
	TagNetworkLocator
	TagDMSegment
	TagDMSourceClip
)

// Marshal serializes the arena: a primer pack (tag table) followed by
// every registered set's local-KLV, in registration order, per §6.
func (s *Store) Marshal() []byte {
	var sets []byte
	var tagsUsed []SetTag

	for _, uid := range s.order {
		tag, value := marshalSet(s.sets[uid])
		if value == nil {
			continue
		}
		tagsUsed = append(tagsUsed, tag)
		sets = append(sets, localKLV(tag, value)...)
	}

	primer := marshalPrimer(tagsUsed)
	out := make([]byte, 0, len(primer)+len(sets))
	out = append(out, primer...)
	out = append(out, sets...)
	return out
}

func marshalPrimer(tags []SetTag) []byte {
	seen := map[SetTag]bool{}
	var uniq []SetTag
	for _, t := range tags {
		if !seen[t] {
			seen[t] = true
			uniq = append(uniq, t)
		}
	}
	out := put16(uint16(len(uniq)))
	for _, t := range uniq {
		out = append(out, put16(uint16(t))...)
	}
	return out
}

func localKLV(tag SetTag, value []byte) []byte {
	out := put16(uint16(tag))
	out = append(out, put16(uint16(len(value)))...)
	return append(out, value...)
}

func marshalSet(set any) (SetTag, []byte) {
	switch v := set.(type) {
	case *Preface:
		return TagPreface, v.marshal()
	case *Identification:
		return TagIdentification, v.marshal()
	case *ContentStorage:
		return TagContentStorage, v.marshal()
	case *EssenceContainerData:
		return TagEssenceContainerData, v.marshal()
	case *Package:
		return TagPackage, v.marshal()
	case *Track:
		return TagTrack, v.marshal()
	case *Sequence:
		return TagSequence, v.marshal()
	case *SourceClip:
		return TagSourceClip, v.marshal()
	case *TimecodeComponent:
		return TagTimecodeComponent, v.marshal()
	case *FileDescriptor:
		return TagFileDescriptor, v.marshal()
	case *TapeDescriptor:
		return TagTapeDescriptor, v.marshal()
	case *ImportDescriptor:
		return TagImportDescriptor, v.marshal()
	case *NetworkLocator:
		return TagNetworkLocator, v.marshal()
	case *DMSegment:
		return TagDMSegment, v.marshal()
	case *DMSourceClip:
		return TagDMSourceClip, v.marshal()
	default:
		return 0, nil
	}
}

func (p *Preface) marshal() []byte {
	out := putUUID(p.InstanceUID)
	out = append(out, put16(p.Version)...)
	out = append(out, putUUID(p.ContentStorageUID)...)
	out = append(out, put32(uint32(len(p.IdentificationUIDs)))...)
	for _, id := range p.IdentificationUIDs {
		out = append(out, putUUID(id)...)
	}
	out = append(out, putString(p.OperationalPattern)...)
	return out
}

func (i *Identification) marshal() []byte {
	out := putUUID(i.InstanceUID)
	out = append(out, putUUID(i.ThisGenerationUID)...)
	out = append(out, putString(i.CompanyName)...)
	out = append(out, putString(i.ProductName)...)
	out = append(out, putString(i.ProductVersion)...)
	return out
}

func (c *ContentStorage) marshal() []byte {
	out := putUUID(c.InstanceUID)
	out = append(out, put32(uint32(len(c.PackageUIDs)))...)
	for _, id := range c.PackageUIDs {
		out = append(out, putUUID(id)...)
	}
	out = append(out, put32(uint32(len(c.EssenceContainerDataUIDs)))...)
	for _, id := range c.EssenceContainerDataUIDs {
		out = append(out, putUUID(id)...)
	}
	return out
}

func (e *EssenceContainerData) marshal() []byte {
	out := putUUID(e.InstanceUID)
	out = append(out, e.LinkedPackageUID[:]...)
	out = append(out, put32(e.IndexSID)...)
	out = append(out, put32(e.BodySID)...)
	return out
}

func (p *Package) marshal() []byte {
	out := putUUID(p.InstanceUID)
	out = append(out, byte(p.Kind))
	out = append(out, p.PackageUMID[:]...)
	out = append(out, putString(p.Name)...)
	out = append(out, put32(uint32(len(p.TrackUIDs)))...)
	for _, id := range p.TrackUIDs {
		out = append(out, putUUID(id)...)
	}
	out = append(out, putUUID(p.FileDescriptorUID)...)
	out = append(out, putUUID(p.TapeDescriptorUID)...)
	out = append(out, putUUID(p.ImportDescriptorUID)...)
	out = append(out, putString(p.AvidProjectName)...)
	out = append(out, putString(p.AvidUserComment)...)
	return out
}

func (t *Track) marshal() []byte {
	out := putUUID(t.InstanceUID)
	out = append(out, put32(t.TrackID)...)
	out = append(out, putString(t.TrackName)...)
	out = append(out, put32(uint32(t.EditRateNum))...)
	out = append(out, put32(uint32(t.EditRateDen))...)
	out = append(out, putUUID(t.SequenceUID)...)
	out = append(out, boolByte(t.IsTimecode), boolByte(t.IsPicture), boolByte(t.IsEventTrack))
	return out
}

func (s *Sequence) marshal() []byte {
	out := putUUID(s.InstanceUID)
	out = append(out, put64(uint64(s.Duration))...)
	out = append(out, putUUID(s.ComponentUID)...)
	return out
}

func (c *SourceClip) marshal() []byte {
	out := putUUID(c.InstanceUID)
	out = append(out, put64(uint64(c.Duration))...)
	out = append(out, put64(uint64(c.StartPosition))...)
	out = append(out, c.SourcePackageUMID[:]...)
	out = append(out, put32(c.SourceTrackID)...)
	return out
}

func (t *TimecodeComponent) marshal() []byte {
	out := putUUID(t.InstanceUID)
	out = append(out, put64(uint64(t.Duration))...)
	out = append(out, put64(uint64(t.StartTimecode))...)
	out = append(out, put16(t.RoundedTCBase)...)
	out = append(out, boolByte(t.DropFrame))
	return out
}

func (d *FileDescriptor) marshal() []byte {
	out := putUUID(d.InstanceUID)
	out = append(out, put64(uint64(d.ContainerDuration))...)
	out = append(out, put32(uint32(d.SampleRateNum))...)
	out = append(out, put32(uint32(d.SampleRateDen))...)
	out = append(out, d.EssenceContainerUL[:]...)
	out = append(out, d.FrameLayout)
	return out
}

func (d *TapeDescriptor) marshal() []byte {
	return putUUID(d.InstanceUID)
}

func (d *ImportDescriptor) marshal() []byte {
	out := putUUID(d.InstanceUID)
	return append(out, putUUID(d.NetworkLocatorUID)...)
}

func (l *NetworkLocator) marshal() []byte {
	out := putUUID(l.InstanceUID)
	return append(out, putString(l.URLString)...)
}

func (seg *DMSegment) marshal() []byte {
	out := putUUID(seg.InstanceUID)
	out = append(out, put64(uint64(seg.EventStartPosition))...)
	out = append(out, putString(seg.Comment)...)
	out = append(out, put16(seg.ColorRed)...)
	out = append(out, put16(seg.ColorGreen)...)
	out = append(out, put16(seg.ColorBlue)...)
	out = append(out, put32(seg.LocatorDescribedTrackID)...)
	return out
}

func (c *DMSourceClip) marshal() []byte {
	out := putUUID(c.InstanceUID)
	out = append(out, c.SourcePackageUMID[:]...)
	out = append(out, put32(c.SourceTrackID)...)
	out = append(out, put32(uint32(len(c.DMSegmentUIDs)))...)
	for _, id := range c.DMSegmentUIDs {
		out = append(out, putUUID(id)...)
	}
	return out
}

func putUUID(u ident.UUID) []byte {
	out := make([]byte, 16)
	copy(out, u[:])
	return out
}

func putString(s string) []byte {
	out := put16(uint16(len(s)))
	return append(out, []byte(s)...)
}

func put16(v uint16) []byte {
	return []byte{byte(v >> 8), byte(v)}
}

func put32(v uint32) []byte {
	return []byte{byte(v >> 24), byte(v >> 16), byte(v >> 8), byte(v)}
}

func put64(v uint64) []byte {
	out := make([]byte, 8)
	for i := 0; i < 8; i++ {
		out[i] = byte(v >> uint(56-8*i))
	}
	return out
}

func boolByte(b bool) byte {
	if b {
		return 1
	}
	return 0
}
