package clip

import (
	"testing"

	"github.com/stretchr/testify/require"

	"mxfauthor/pkg/essence"
	"mxfauthor/pkg/ident"
	"mxfauthor/pkg/klv"
	"mxfauthor/pkg/metadata"
	"mxfauthor/pkg/mic"
	"mxfauthor/pkg/rational"
	"mxfauthor/pkg/track"
)

// memFile is a minimal in-memory io.WriteSeeker, grounded on the same
// pattern used in pkg/track/track_test.go.
type memFile struct {
	buf []byte
	pos int
}

func (m *memFile) Write(p []byte) (int, error) {
	end := m.pos + len(p)
	if end > len(m.buf) {
		grown := make([]byte, end)
		copy(grown, m.buf)
		m.buf = grown
	}
	copy(m.buf[m.pos:end], p)
	m.pos = end
	return len(p), nil
}

func (m *memFile) Seek(offset int64, whence int) (int64, error) {
	switch whence {
	case 0:
		m.pos = int(offset)
	case 1:
		m.pos += int(offset)
	case 2:
		m.pos = len(m.buf) + int(offset)
	}
	return int64(m.pos), nil
}

func opAtom() klv.Key {
	return klv.Key{0x06, 0x0e, 0x2b, 0x34, 0x04, 0x01, 0x01, 0x01, 0x0d, 0x01, 0x02, 0x01, 0x01, 0x01, 0x01, 0x00}
}

func dvWriterConfig(indexSID, bodySID uint32) track.Config {
	cap, _ := essence.Capabilities(essence.DV, rational.Rational{Num: 25, Den: 1})
	return track.Config{
		Elements:           []track.Element{{Type: essence.DV, Cap: cap}},
		EditRate:           rational.Rational{Num: 25, Den: 1},
		SampleRate:         rational.Rational{Num: 25, Den: 1},
		IndexSID:           indexSID,
		BodySID:            bodySID,
		KAGSize:            512,
		MinBERLength:        4,
		HeaderReserveBytes: 8192,
		MICType:            mic.None,
		OperationalPattern: opAtom(),
	}
}

// TestAvidTapeStartTimecodePropagation exercises §8 scenario 5: a tape
// source starting at 01:00:00:00 @25fps, a clip starting 01:00:05:00,
// expected file-track start_position = 125 (5 seconds * 25fps).
func TestAvidTapeStartTimecodePropagation(t *testing.T) {
	store := metadata.NewStore()
	store.NewIdentification("Acme", "Authoring Engine", "1.0")
	cs := store.NewContentStorage()
	clipRate := rational.Rational{Num: 25, Den: 1}

	coord := NewCoordinator(store, cs, clipRate, true, nil)
	tape := coord.CreateDefaultTapeSource("Tape01", 1, 0)
	require.NotNil(t, tape)

	filePkg := store.NewFileSourcePackage("reel1_v0", true)
	store.AddPackage(cs, filePkg)
	tr := store.NewTrack(filePkg, 1, "V1", 25, 1, false, true)
	seq := store.NewSequence(tr, -1)
	store.NewSourceClip(seq, ident.NullUMID, 0, 0, -1)
	store.NewFileDescriptor(filePkg, 25, 1, [16]byte{}, 1)

	file := &memFile{}
	w := track.NewWriter(file, dvWriterConfig(1, 1), store, filePkg)

	coord.AddTrack(w, filePkg, clipRate, true, tape, 2)
	require.NoError(t, coord.PrepareWrite("Clip01"))

	// Tape starts 01:00:00:00 @25fps = 90000 frames; clip starts
	// 01:00:05:00 @25fps = 90125 frames. The tape's own timecode track
	// was created starting at frame 0 by CreateDefaultTapeSource, so we
	// set it here to the tape's actual start timecode before propagating.
	setTapeStartTimecode(t, store, tape, 90000)

	require.NoError(t, coord.SetTapeStartTimecode(90125))

	clip, ok := store.Get(seq.ComponentUID).(*metadata.SourceClip)
	require.True(t, ok)
	require.EqualValues(t, 125, clip.StartPosition)
}

func setTapeStartTimecode(t *testing.T, store *metadata.Store, tape *metadata.Package, startFrames int64) {
	for _, uid := range tape.TrackUIDs {
		tr, ok := store.Get(uid).(*metadata.Track)
		if !ok || !tr.IsTimecode {
			continue
		}
		seq, ok := store.Get(tr.SequenceUID).(*metadata.Sequence)
		require.True(t, ok)
		tc, ok := store.Get(seq.ComponentUID).(*metadata.TimecodeComponent)
		require.True(t, ok)
		tc.StartTimecode = startFrames
	}
}

// TestLocatorCapEnforced exercises §8 scenario 6: the 4,095th locator is
// accepted, the 4,096th is rejected outright.
func TestLocatorCapEnforced(t *testing.T) {
	store := metadata.NewStore()
	cs := store.NewContentStorage()
	clipRate := rational.Rational{Num: 25, Den: 1}
	coord := NewCoordinator(store, cs, clipRate, true, nil)

	filePkg := store.NewFileSourcePackage("reel1_v0", true)
	store.AddPackage(cs, filePkg)
	tr := store.NewTrack(filePkg, 1, "V1", 25, 1, false, true)
	seq := store.NewSequence(tr, -1)
	store.NewSourceClip(seq, ident.NullUMID, 0, 0, -1)
	store.NewFileDescriptor(filePkg, 25, 1, [16]byte{}, 1)

	file := &memFile{}
	w := track.NewWriter(file, dvWriterConfig(1, 1), store, filePkg)
	coord.AddTrack(w, filePkg, clipRate, true, nil, 0)
	require.NoError(t, coord.PrepareWrite("Clip01"))

	for i := 0; i < MaxLocators; i++ {
		require.NoError(t, coord.AddLocator(int64(i), "marker", i%8))
	}
	require.Len(t, coord.LocatorClip().DMSegmentUIDs, MaxLocators)

	err := coord.AddLocator(int64(MaxLocators), "one too many", 0)
	require.Error(t, err)
	require.Len(t, coord.LocatorClip().DMSegmentUIDs, MaxLocators)
}

// TestDurationPropagationWalksMaterialToFileSource exercises §4.5's
// duration-propagation chain for an AS-02-style clip with no tape/import
// provenance: once the file track writer completes, the material
// package's sequence duration must reflect the container duration
// converted to the clip rate.
func TestDurationPropagationWalksMaterialToFileSource(t *testing.T) {
	store := metadata.NewStore()
	cs := store.NewContentStorage()
	clipRate := rational.Rational{Num: 25, Den: 1}
	coord := NewCoordinator(store, cs, clipRate, false, nil)

	filePkg := store.NewFileSourcePackage("reel1_v0", false)
	store.AddPackage(cs, filePkg)
	tr := store.NewTrack(filePkg, 1, "V1", 25, 1, false, true)
	seq := store.NewSequence(tr, -1)
	store.NewSourceClip(seq, ident.NullUMID, 0, 0, -1)
	store.NewFileDescriptor(filePkg, 25, 1, [16]byte{}, 1)

	file := &memFile{}
	w := track.NewWriter(file, dvWriterConfig(1, 1), store, filePkg)
	coord.AddTrack(w, filePkg, clipRate, true, nil, 0)
	require.NoError(t, coord.PrepareWrite("Clip01"))

	frame := make([]byte, 144000)
	for i := 0; i < 50; i++ {
		require.NoError(t, w.WriteSamples([]uint32{144000}, [][]byte{frame}))
	}

	require.NoError(t, coord.CompleteWrite())

	material := coord.MaterialPackage()
	require.NotNil(t, material)

	binding := coord.Bindings()[0]
	require.NotNil(t, binding.MaterialTrack)

	mSeq, ok := store.Get(binding.MaterialTrack.SequenceUID).(*metadata.Sequence)
	require.True(t, ok)
	require.EqualValues(t, 50, mSeq.Duration)

	fSeq, ok := store.Get(tr.SequenceUID).(*metadata.Sequence)
	require.True(t, ok)
	require.EqualValues(t, 50, fSeq.Duration)
}

// TestLocatorWithoutTracksUsesZeroDescribedTrack guards the degenerate
// path where AddLocator is called before any track is bound.
func TestLocatorWithoutTracksUsesZeroDescribedTrack(t *testing.T) {
	store := metadata.NewStore()
	cs := store.NewContentStorage()
	coord := NewCoordinator(store, cs, rational.Rational{Num: 25, Den: 1}, true, nil)

	require.NoError(t, coord.AddLocator(0, "first", 0))
	require.Len(t, coord.LocatorClip().DMSegmentUIDs, 1)
}
