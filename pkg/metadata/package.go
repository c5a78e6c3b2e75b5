package metadata

import "mxfauthor/pkg/ident"

// PackageKind distinguishes the three source-package kinds of §3.
type PackageKind int

// Package kinds.
const (
	KindMaterial PackageKind = iota
	KindFileSource
	KindTapeSource
	KindImportSource
)

// Package is a material or source package, per §3. Exactly one of
// FileDescriptorUID, TapeDescriptorUID, ImportDescriptorUID is set,
// according to Kind (or none, for a material package).
type Package struct {
	InstanceUID ident.UUID
	Kind        PackageKind
	PackageUMID ident.UMID
	Name        string
	CreationDate ident.Timestamp
	TrackUIDs   []ident.UUID

	FileDescriptorUID   ident.UUID
	TapeDescriptorUID   ident.UUID
	ImportDescriptorUID ident.UUID

	// Avid extension attributes, per §6 "The material package carries
	// Avid extension attributes _PJ (project name) and user comments."
	// Empty for non-Avid flavors.
	AvidProjectName string
	AvidUserComment string
}

// SetAvidAttributes attaches the Avid _PJ project-name extension
// attribute and a user comment to a material package, per §6.
func (s *Store) SetAvidAttributes(pkg *Package, projectName, userComment string) {
	pkg.AvidProjectName = projectName
	pkg.AvidUserComment = userComment
}

// NewMaterialPackage registers a material package.
func (s *Store) NewMaterialPackage(name string) *Package {
	p := &Package{
		InstanceUID:  ident.NewUUID(),
		Kind:         KindMaterial,
		PackageUMID:  ident.NewUMID(),
		Name:         name,
		CreationDate: ident.Now(),
	}
	s.register(p.InstanceUID, p)
	return p
}

// NewFileSourcePackage registers a file source package with a fresh
// UMID (or avidUMID, if avid is true, per §6 "UMIDs use the Avid
// prefix").
func (s *Store) NewFileSourcePackage(name string, avid bool) *Package {
	umid := ident.NewUMID()
	if avid {
		umid = ident.NewAvidUMID()
	}
	p := &Package{
		InstanceUID:  ident.NewUUID(),
		Kind:         KindFileSource,
		PackageUMID:  umid,
		Name:         name,
		CreationDate: ident.Now(),
	}
	s.register(p.InstanceUID, p)
	return p
}

// NewTapeSourcePackage registers a tape source package, per §4.5
// CreateDefaultTapeSource.
func (s *Store) NewTapeSourcePackage(name string) *Package {
	p := &Package{
		InstanceUID:  ident.NewUUID(),
		Kind:         KindTapeSource,
		PackageUMID:  ident.NewUMID(),
		Name:         name,
		CreationDate: ident.Now(),
	}
	s.register(p.InstanceUID, p)
	return p
}

// NewImportSourcePackage registers an import source package, per §4.5
// CreateDefaultImportSource.
func (s *Store) NewImportSourcePackage(name string) *Package {
	p := &Package{
		InstanceUID:  ident.NewUUID(),
		Kind:         KindImportSource,
		PackageUMID:  ident.NewUMID(),
		Name:         name,
		CreationDate: ident.Now(),
	}
	s.register(p.InstanceUID, p)
	return p
}

// AddPackage registers p on ContentStorage's package list and the
// Store's arena (for packages constructed outside the New* helpers,
// e.g. when copying a cross-track template for the Avid flavor).
func (s *Store) AddPackage(cs *ContentStorage, p *Package) {
	s.register(p.InstanceUID, p)
	cs.PackageUIDs = append(cs.PackageUIDs, p.InstanceUID)
}

// FindPackageByUMID walks the arena for a Package with the given UMID.
// Used to resolve a SourceClip's SourcePackageUMID back to a Package
// when propagating durations, per §4.5.
func (s *Store) FindPackageByUMID(umid ident.UMID) *Package {
	for _, uid := range s.order {
		if p, ok := s.sets[uid].(*Package); ok && p.PackageUMID == umid {
			return p
		}
	}
	return nil
}

// Track is a timeline or event track on a package, per §3. A DM event
// track (IsEventTrack) carries locators rather than picture/sound
// essence or timecode, per §4.5 "Avid locator emission."
type Track struct {
	InstanceUID  ident.UUID
	TrackID      uint32
	TrackName    string
	EditRateNum  int32
	EditRateDen  int32
	SequenceUID  ident.UUID
	IsTimecode   bool
	IsPicture    bool
	IsEventTrack bool
}

// NewTrack registers a track and appends it to pkg's track list.
func (s *Store) NewTrack(pkg *Package, trackID uint32, name string, editRateNum, editRateDen int32, isTimecode, isPicture bool) *Track {
	t := &Track{
		InstanceUID: ident.NewUUID(),
		TrackID:     trackID,
		TrackName:   name,
		EditRateNum: editRateNum,
		EditRateDen: editRateDen,
		IsTimecode:  isTimecode,
		IsPicture:   isPicture,
	}
	s.register(t.InstanceUID, t)
	pkg.TrackUIDs = append(pkg.TrackUIDs, t.InstanceUID)
	return t
}

// NewEventTrack registers a DM event track wrapping an already-built
// DMSourceClip and appends it to pkg's track list, per §4.5 "attach
// one DM event track per per-track header-metadata copy."
func (s *Store) NewEventTrack(pkg *Package, trackID uint32, clip *DMSourceClip) *Track {
	t := &Track{
		InstanceUID:  ident.NewUUID(),
		TrackID:      trackID,
		IsEventTrack: true,
	}
	s.register(t.InstanceUID, t)
	pkg.TrackUIDs = append(pkg.TrackUIDs, t.InstanceUID)

	seq := &Sequence{InstanceUID: ident.NewUUID(), Duration: -1, ComponentUID: clip.InstanceUID}
	s.register(seq.InstanceUID, seq)
	t.SequenceUID = seq.InstanceUID
	return t
}

// Sequence is a component container with a duration, per §3.
type Sequence struct {
	InstanceUID ident.UUID
	Duration    int64 // -1 while unknown.
	ComponentUID ident.UUID // a SourceClip or TimecodeComponent.
}

// NewSequence registers a sequence and wires it onto t.
func (s *Store) NewSequence(t *Track, duration int64) *Sequence {
	seq := &Sequence{InstanceUID: ident.NewUUID(), Duration: duration}
	s.register(seq.InstanceUID, seq)
	t.SequenceUID = seq.InstanceUID
	return seq
}

// SourceClip references another package's track by UMID, per §3 and
// §4.4 step 2 "copy the reference UMID and source track ID; otherwise
// reference the null UMID."
type SourceClip struct {
	InstanceUID        ident.UUID
	Duration           int64 // -1 while unknown.
	StartPosition      int64
	SourcePackageUMID  ident.UMID
	SourceTrackID      uint32
}

// NewSourceClip registers a source clip and wires it onto seq.
func (s *Store) NewSourceClip(seq *Sequence, sourceUMID ident.UMID, sourceTrackID uint32, startPosition, duration int64) *SourceClip {
	sc := &SourceClip{
		InstanceUID:       ident.NewUUID(),
		Duration:          duration,
		StartPosition:     startPosition,
		SourcePackageUMID: sourceUMID,
		SourceTrackID:     sourceTrackID,
	}
	s.register(sc.InstanceUID, sc)
	seq.ComponentUID = sc.InstanceUID
	return sc
}

// TimecodeComponent carries a track's starting timecode, per §3.
type TimecodeComponent struct {
	InstanceUID    ident.UUID
	Duration       int64
	StartTimecode  int64 // frame count at base rate.
	RoundedTCBase  uint16
	DropFrame      bool
}

// NewTimecodeComponent registers a timecode component and wires it
// onto seq.
func (s *Store) NewTimecodeComponent(seq *Sequence, startTimecode int64, roundedTCBase uint16, dropFrame bool, duration int64) *TimecodeComponent {
	tc := &TimecodeComponent{
		InstanceUID:   ident.NewUUID(),
		Duration:      duration,
		StartTimecode: startTimecode,
		RoundedTCBase: roundedTCBase,
		DropFrame:     dropFrame,
	}
	s.register(tc.InstanceUID, tc)
	seq.ComponentUID = tc.InstanceUID
	return tc
}
