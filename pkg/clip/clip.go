// Package clip implements the Clip Coordinator of §4.5: material
// package composition, source-package cross-references, multi-track
// lifecycle, and timecode/duration propagation. Grounded on the
// teacher's pkg/monitor/monitor.go (a Manager owning many per-unit
// workers and driving their lifecycle from shared hooks) and
// pkg/monitor/recorder.go (multi-stage prepare/write/finalize driven
// from one control point), generalized from a camera-recording manager
// to an essence-track manager.
package clip

import (
	"sort"

	"mxfauthor/pkg/ident"
	"mxfauthor/pkg/log"
	"mxfauthor/pkg/metadata"
	"mxfauthor/pkg/rational"
	"mxfauthor/pkg/track"
	"mxfauthor/pkg/xerr"
)

// MaxLocators is the strong-reference-vector limit of §4.5/§8 scenario 6.
const MaxLocators = 4095

// avidLocatorPalette is the fixed Avid RGB palette of §4.5, 16-bit
// component values per SMPTE 330M color-science convention.
var avidLocatorPalette = [8][3]uint16{
	{0xFFFF, 0xFFFF, 0xFFFF}, // white
	{0xFFFF, 0x0000, 0x0000}, // red
	{0xFFFF, 0xFFFF, 0x0000}, // yellow
	{0x0000, 0xFFFF, 0x0000}, // green
	{0x0000, 0xFFFF, 0xFFFF}, // cyan
	{0x0000, 0x0000, 0xFFFF}, // blue
	{0xFFFF, 0x0000, 0xFFFF}, // magenta
	{0x0000, 0x0000, 0x0000}, // black
}

// TrackBinding is one track the coordinator drives: its file-level
// Track Writer plus the metadata needed to wire it into the material
// package and propagate timecodes/durations, per §4.5.
type TrackBinding struct {
	Writer        *track.Writer
	FilePkg       *metadata.Package
	EditRate      rational.Rational
	IsPicture     bool
	MaterialTrack *metadata.Track
}

// Coordinator owns the material package, the Track Writers, and any
// tape/import source packages, per §4.5.
type Coordinator struct {
	store    *metadata.Store
	logger   log.ILogger
	clipRate rational.Rational
	avid     bool

	material     *metadata.Package
	contentStore *metadata.ContentStorage

	bindings []*TrackBinding

	tapeSource   *metadata.Package
	importSource *metadata.Package

	locatorClip *metadata.DMSourceClip
}

// NewCoordinator creates an empty coordinator bound to store, the
// shared metadata arena.
func NewCoordinator(store *metadata.Store, cs *metadata.ContentStorage, clipRate rational.Rational, avid bool, logger log.ILogger) *Coordinator {
	return &Coordinator{store: store, contentStore: cs, clipRate: clipRate, avid: avid, logger: logger}
}

// CreateDefaultTapeSource builds a tape source package with nv picture
// and na sound timeline tracks, each 120 hours long at the clip's
// rounded timecode base, plus a timecode track starting 00:00:00:00 and
// a TapeDescriptor, per §4.5.
func (c *Coordinator) CreateDefaultTapeSource(name string, nv, na int) *metadata.Package {
	pkg := c.store.NewTapeSourcePackage(name)
	c.store.AddPackage(c.contentStore, pkg)
	c.store.NewTapeDescriptor(pkg)

	base := rational.RoundedTCBase(c.clipRate)
	duration := int64(120*3600) * int64(base)

	tcTrack := c.store.NewTrack(pkg, 1, "TC1", int32(base), 1, true, false)
	tcSeq := c.store.NewSequence(tcTrack, duration)
	c.store.NewTimecodeComponent(tcSeq, 0, base, isDropFrame(c.clipRate), duration)

	trackID := uint32(2)
	for i := 0; i < nv; i++ {
		c.addTapeEssenceTrack(pkg, trackID, true, duration)
		trackID++
	}
	for i := 0; i < na; i++ {
		c.addTapeEssenceTrack(pkg, trackID, false, duration)
		trackID++
	}

	c.tapeSource = pkg
	return pkg
}

func (c *Coordinator) addTapeEssenceTrack(pkg *metadata.Package, trackID uint32, isPicture bool, duration int64) {
	t := c.store.NewTrack(pkg, trackID, "", c.clipRate.Num, c.clipRate.Den, false, isPicture)
	seq := c.store.NewSequence(t, duration)
	c.store.NewSourceClip(seq, ident.NullUMID, 0, 0, duration)
}

// CreateDefaultImportSource builds an import source package with an
// ImportDescriptor and a NetworkLocator holding sourceURI; track
// durations are -1 placeholders updated at Complete, per §4.5.
func (c *Coordinator) CreateDefaultImportSource(name, sourceURI string, nv, na int) *metadata.Package {
	pkg := c.store.NewImportSourcePackage(name)
	c.store.AddPackage(c.contentStore, pkg)
	c.store.NewImportDescriptor(pkg, sourceURI)

	trackID := uint32(1)
	for i := 0; i < nv; i++ {
		c.addImportEssenceTrack(pkg, trackID, true)
		trackID++
	}
	for i := 0; i < na; i++ {
		c.addImportEssenceTrack(pkg, trackID, false)
		trackID++
	}

	c.importSource = pkg
	return pkg
}

func (c *Coordinator) addImportEssenceTrack(pkg *metadata.Package, trackID uint32, isPicture bool) {
	t := c.store.NewTrack(pkg, trackID, "", c.clipRate.Num, c.clipRate.Den, false, isPicture)
	seq := c.store.NewSequence(t, -1)
	c.store.NewSourceClip(seq, ident.NullUMID, 0, 0, -1)
}

func isDropFrame(r rational.Rational) bool {
	return r.Num == 30000 && r.Den == 1001
}

// AddTrack registers one Track Writer binding. sourcePackage/sourceTrackID
// identify the tape/import provenance this file-source-package's source
// clip should reference, or nil/0 for none (null UMID), per §4.4 step 2.
func (c *Coordinator) AddTrack(w *track.Writer, filePkg *metadata.Package, editRate rational.Rational, isPicture bool, sourcePackage *metadata.Package, sourceTrackID uint32) {
	if sourcePackage != nil {
		for _, uid := range filePkg.TrackUIDs {
			if tr, ok := c.store.Get(uid).(*metadata.Track); ok && tr.IsPicture == isPicture {
				if seq, ok := c.store.Get(tr.SequenceUID).(*metadata.Sequence); ok {
					if sc, ok := c.store.Get(seq.ComponentUID).(*metadata.SourceClip); ok {
						sc.SourcePackageUMID = sourcePackage.PackageUMID
						sc.SourceTrackID = sourceTrackID
					}
				}
			}
		}
	}
	c.bindings = append(c.bindings, &TrackBinding{Writer: w, FilePkg: filePkg, EditRate: editRate, IsPicture: isPicture})
}

// PrepareWrite stable-sorts bindings (pictures first, insertion order for
// ties), builds the material package, and calls PrepareWrite on every
// track, per §4.5.
func (c *Coordinator) PrepareWrite(clipName string) error {
	sort.SliceStable(c.bindings, func(i, j int) bool {
		return c.bindings[i].IsPicture && !c.bindings[j].IsPicture
	})

	c.material = c.store.NewMaterialPackage(clipName)
	c.store.AddPackage(c.contentStore, c.material)

	base := rational.RoundedTCBase(c.clipRate)
	tcTrack := c.store.NewTrack(c.material, 1, "TC1", int32(base), 1, true, false)
	tcSeq := c.store.NewSequence(tcTrack, -1)
	c.store.NewTimecodeComponent(tcSeq, 0, base, isDropFrame(c.clipRate), -1)

	trackID := uint32(2)
	for _, b := range c.bindings {
		mt := c.store.NewTrack(c.material, trackID, "", c.clipRate.Num, c.clipRate.Den, false, b.IsPicture)
		mSeq := c.store.NewSequence(mt, -1)
		c.store.NewSourceClip(mSeq, b.FilePkg.PackageUMID, firstEssenceTrackID(c.store, b.FilePkg), 0, -1)
		b.MaterialTrack = mt
		trackID++
	}

	for _, b := range c.bindings {
		if err := b.Writer.PrepareWrite(); err != nil {
			return err
		}
	}
	return nil
}

func firstEssenceTrackID(s *metadata.Store, pkg *metadata.Package) uint32 {
	for _, uid := range pkg.TrackUIDs {
		if t, ok := s.Get(uid).(*metadata.Track); ok && !t.IsTimecode {
			return t.TrackID
		}
	}
	return 0
}

// SetTapeStartTimecode propagates a tape source's start timecode to
// every file-source-package track referencing it, per §4.5 "Tape
// start-timecode propagation."
func (c *Coordinator) SetTapeStartTimecode(clipTCOffset int64) error {
	if c.tapeSource == nil {
		return nil
	}

	tapeBase := c.tapeTimecodeBase()
	clipBase := rational.RoundedTCBase(c.clipRate)
	tapeTCOffset := c.tapeStartTimecode()

	tapeOffsetAtClipBase := rational.ConvertPosition(rational.Rational{Num: int32(tapeBase), Den: 1}, tapeTCOffset, rational.Rational{Num: int32(clipBase), Den: 1}, rational.AutoPosition)
	clipOffsetAtClipBase := rational.ConvertPosition(c.clipRate, clipTCOffset, rational.Rational{Num: int32(clipBase), Den: 1}, rational.AutoPosition)

	startPosition := clipOffsetAtClipBase - tapeOffsetAtClipBase
	if startPosition < 0 {
		if c.logger != nil {
			c.logger.Warn().Src("clip").Msgf("tape-relative start position is negative: %d", startPosition)
		}
		return nil
	}

	for _, b := range c.bindings {
		for _, uid := range b.FilePkg.TrackUIDs {
			t, ok := c.store.Get(uid).(*metadata.Track)
			if !ok || t.IsTimecode {
				continue
			}
			seq, ok := c.store.Get(t.SequenceUID).(*metadata.Sequence)
			if !ok {
				continue
			}
			sc, ok := c.store.Get(seq.ComponentUID).(*metadata.SourceClip)
			if !ok || sc.SourcePackageUMID != c.tapeSource.PackageUMID {
				continue
			}
			trackRate := rational.Rational{Num: t.EditRateNum, Den: t.EditRateDen}
			sc.StartPosition = rational.ConvertPosition(c.clipRate, startPosition, trackRate, rational.AutoPosition)
		}
	}
	return nil
}

func (c *Coordinator) tapeTimecodeBase() uint16 {
	if tc := c.tapeTimecodeComponent(); tc != nil {
		return tc.RoundedTCBase
	}
	return rational.RoundedTCBase(c.clipRate)
}

// tapeStartTimecode returns the tape source's configured starting
// timecode (frame count at its own rounded TC base), or 0 if the tape
// has no timecode track -- per §4.5 tape start-timecode propagation,
// which is relative to whatever the tape actually starts at, not an
// assumed zero.
func (c *Coordinator) tapeStartTimecode() int64 {
	if tc := c.tapeTimecodeComponent(); tc != nil {
		return tc.StartTimecode
	}
	return 0
}

func (c *Coordinator) tapeTimecodeComponent() *metadata.TimecodeComponent {
	for _, uid := range c.tapeSource.TrackUIDs {
		if t, ok := c.store.Get(uid).(*metadata.Track); ok && t.IsTimecode {
			if seq, ok := c.store.Get(t.SequenceUID).(*metadata.Sequence); ok {
				if tc, ok := c.store.Get(seq.ComponentUID).(*metadata.TimecodeComponent); ok {
					return tc
				}
			}
		}
	}
	return nil
}

// AddLocator adds one Avid locator, per §4.5 "Avid locator emission."
// colorIndex selects avidLocatorPalette. Per the Open Question
// resolution in DESIGN.md, the 4,096th call is rejected outright rather
// than silently dropped.
func (c *Coordinator) AddLocator(startPosition int64, comment string, colorIndex int) error {
	if c.locatorClip == nil {
		described := c.locatorDescribedTrack()
		c.locatorClip = c.store.NewDMSourceClip(described.umid, described.trackID)
	}
	if len(c.locatorClip.DMSegmentUIDs) >= MaxLocators {
		return xerr.New(xerr.FormatLimit, "locator count exceeds strong-reference-vector limit", map[string]any{
			"limit": MaxLocators,
		})
	}
	color := avidLocatorPalette[colorIndex%len(avidLocatorPalette)]
	described := c.locatorDescribedTrack()
	c.store.NewDMSegment(c.locatorClip, startPosition, comment, color[0], color[1], color[2], described.trackID)
	return nil
}

type describedTrack struct {
	umid    ident.UMID
	trackID uint32
}

// locatorDescribedTrack resolves "the first picture track, or the first
// audio track if there is no picture," per §4.5.
func (c *Coordinator) locatorDescribedTrack() describedTrack {
	for _, b := range c.bindings {
		if b.IsPicture {
			return describedTrack{umid: b.FilePkg.PackageUMID, trackID: firstEssenceTrackID(c.store, b.FilePkg)}
		}
	}
	if len(c.bindings) > 0 {
		b := c.bindings[0]
		return describedTrack{umid: b.FilePkg.PackageUMID, trackID: firstEssenceTrackID(c.store, b.FilePkg)}
	}
	return describedTrack{}
}

// CompleteWrite drives every track's CompleteWrite and propagates final
// durations across the material -> file-source -> tape-source reference
// chain, per §4.5 "Track duration propagation."
func (c *Coordinator) CompleteWrite() error {
	for _, b := range c.bindings {
		if err := b.Writer.CompleteWrite(); err != nil {
			return err
		}
	}

	for _, b := range c.bindings {
		outputDuration := b.Writer.ContainerDuration()
		if err := c.propagateDuration(b, outputDuration); err != nil {
			return err
		}
	}
	return nil
}

func (c *Coordinator) propagateDuration(b *TrackBinding, containerDuration int64) error {
	if containerDuration == 0 {
		return xerr.New(xerr.InvalidArgument, "zero-length track yields negative output duration", nil)
	}

	// b.Writer.CompleteWrite already patched the file descriptor's own
	// container_duration; here we fan that duration out to every other
	// track/sequence that references this file in an edit rate of its own.
	fileRate := b.EditRate
	for _, uid := range b.FilePkg.TrackUIDs {
		t, ok := c.store.Get(uid).(*metadata.Track)
		if !ok || t.IsTimecode {
			continue
		}
		dur := rational.ConvertDuration(fileRate, containerDuration, rational.Rational{Num: t.EditRateNum, Den: t.EditRateDen}, rational.AutoDuration)
		c.setDurationIfUnset(t, dur)

		seq, ok := c.store.Get(t.SequenceUID).(*metadata.Sequence)
		if !ok {
			continue
		}
		if sc, ok := c.store.Get(seq.ComponentUID).(*metadata.SourceClip); ok && !sc.SourcePackageUMID.IsNull() {
			if src := c.store.FindPackageByUMID(sc.SourcePackageUMID); src != nil {
				for _, suid := range src.TrackUIDs {
					if st, ok := c.store.Get(suid).(*metadata.Track); ok && st.TrackID == sc.SourceTrackID {
						c.setDurationIfUnset(st, rational.ConvertDuration(fileRate, containerDuration, rational.Rational{Num: st.EditRateNum, Den: st.EditRateDen}, rational.AutoDuration))
					}
				}
			}
		}
	}

	clipDuration := rational.ConvertDuration(fileRate, containerDuration, c.clipRate, rational.AutoDuration)
	if b.MaterialTrack != nil {
		c.setDurationIfUnset(b.MaterialTrack, clipDuration)
	}
	return nil
}

func (c *Coordinator) setDurationIfUnset(t *metadata.Track, computed int64) {
	seq, ok := c.store.Get(t.SequenceUID).(*metadata.Sequence)
	if !ok {
		return
	}
	if seq.Duration >= 0 {
		if seq.Duration < computed && c.logger != nil {
			c.logger.Warn().Src("clip").Msgf("existing duration %d is less than computed %d", seq.Duration, computed)
		}
		return
	}
	seq.Duration = computed

	switch comp := c.store.Get(seq.ComponentUID).(type) {
	case *metadata.SourceClip:
		if comp.Duration < 0 {
			comp.Duration = computed
		}
	case *metadata.TimecodeComponent:
		if comp.Duration < 0 {
			comp.Duration = computed
		}
	}
}

// MaterialPackage returns the composed material package, valid after
// PrepareWrite.
func (c *Coordinator) MaterialPackage() *metadata.Package {
	return c.material
}

// IsAvid reports whether this coordinator is composing the Avid flavor.
func (c *Coordinator) IsAvid() bool {
	return c.avid
}

// LocatorClip returns the accumulated Avid locator source clip, or nil
// if AddLocator was never called.
func (c *Coordinator) LocatorClip() *metadata.DMSourceClip {
	return c.locatorClip
}

// TapeSource and ImportSource return the default source packages
// created by CreateDefaultTapeSource/CreateDefaultImportSource, or nil.
func (c *Coordinator) TapeSource() *metadata.Package   { return c.tapeSource }
func (c *Coordinator) ImportSource() *metadata.Package { return c.importSource }

// Bindings returns the coordinator's track bindings in their sorted
// (pictures-first) order.
func (c *Coordinator) Bindings() []*TrackBinding {
	return c.bindings
}

// Close is idempotent and gives callers a uniform defer surface across
// partial and complete runs, per §5.
func (c *Coordinator) Close() error {
	return nil
}
