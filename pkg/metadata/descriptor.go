package metadata

import "mxfauthor/pkg/ident"

// FileDescriptor carries the essence-container and sample-rate fields a
// file source package needs, per §4.4 step 2 "Attach a FileDescriptor
// to the file-source package with container_duration = -1."
type FileDescriptor struct {
	InstanceUID       ident.UUID
	ContainerDuration int64
	SampleRateNum     int32
	SampleRateDen     int32
	EssenceContainerUL [16]byte
	FrameLayout       uint8
}

// NewFileDescriptor registers a FileDescriptor and wires it onto pkg.
func (s *Store) NewFileDescriptor(pkg *Package, sampleRateNum, sampleRateDen int32, essenceContainerUL [16]byte, frameLayout uint8) *FileDescriptor {
	d := &FileDescriptor{
		InstanceUID:        ident.NewUUID(),
		ContainerDuration:  -1,
		SampleRateNum:      sampleRateNum,
		SampleRateDen:      sampleRateDen,
		EssenceContainerUL: essenceContainerUL,
		FrameLayout:        frameLayout,
	}
	s.register(d.InstanceUID, d)
	pkg.FileDescriptorUID = d.InstanceUID
	return d
}

// TapeDescriptor marks a tape source package, per §4.5
// CreateDefaultTapeSource.
type TapeDescriptor struct {
	InstanceUID ident.UUID
}

// NewTapeDescriptor registers a TapeDescriptor and wires it onto pkg.
func (s *Store) NewTapeDescriptor(pkg *Package) *TapeDescriptor {
	d := &TapeDescriptor{InstanceUID: ident.NewUUID()}
	s.register(d.InstanceUID, d)
	pkg.TapeDescriptorUID = d.InstanceUID
	return d
}

// ImportDescriptor marks an import source package and carries its
// NetworkLocator, per §4.5 CreateDefaultImportSource.
type ImportDescriptor struct {
	InstanceUID       ident.UUID
	NetworkLocatorUID ident.UUID
}

// NewImportDescriptor registers an ImportDescriptor, its NetworkLocator,
// and wires both onto pkg.
func (s *Store) NewImportDescriptor(pkg *Package, sourceURI string) *ImportDescriptor {
	loc := &NetworkLocator{InstanceUID: ident.NewUUID(), URLString: sourceURI}
	s.register(loc.InstanceUID, loc)

	d := &ImportDescriptor{InstanceUID: ident.NewUUID(), NetworkLocatorUID: loc.InstanceUID}
	s.register(d.InstanceUID, d)
	pkg.ImportDescriptorUID = d.InstanceUID
	return d
}

// NetworkLocator holds a source URI, per §3/§4.5.
type NetworkLocator struct {
	InstanceUID ident.UUID
	URLString   string
}

// DMSegment is a Descriptive Metadata segment, used here to carry one
// Avid locator, per §4.5 "Avid locator emission."
type DMSegment struct {
	InstanceUID             ident.UUID
	EventStartPosition      int64
	Comment                 string
	ColorRed                uint16
	ColorGreen              uint16
	ColorBlue               uint16
	LocatorDescribedTrackID uint32
}

// DMSourceClip is the component a DM event track's sequence wraps,
// wrapping the described source's clip reference, per §3.
type DMSourceClip struct {
	InstanceUID       ident.UUID
	SourcePackageUMID ident.UMID
	SourceTrackID     uint32
	DMSegmentUIDs     []ident.UUID
}

// NewDMSourceClip registers a DM source clip.
func (s *Store) NewDMSourceClip(sourceUMID ident.UMID, sourceTrackID uint32) *DMSourceClip {
	c := &DMSourceClip{InstanceUID: ident.NewUUID(), SourcePackageUMID: sourceUMID, SourceTrackID: sourceTrackID}
	s.register(c.InstanceUID, c)
	return c
}

// NewDMSegment registers one locator as a DMSegment and appends it to
// clip.
func (s *Store) NewDMSegment(clip *DMSourceClip, startPosition int64, comment string, r, g, b uint16, describedTrackID uint32) *DMSegment {
	seg := &DMSegment{
		InstanceUID:             ident.NewUUID(),
		EventStartPosition:      startPosition,
		Comment:                 comment,
		ColorRed:                r,
		ColorGreen:              g,
		ColorBlue:               b,
		LocatorDescribedTrackID: describedTrackID,
	}
	s.register(seg.InstanceUID, seg)
	clip.DMSegmentUIDs = append(clip.DMSegmentUIDs, seg.InstanceUID)
	return seg
}
