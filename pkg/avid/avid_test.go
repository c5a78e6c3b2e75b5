package avid

import (
	"testing"

	"github.com/stretchr/testify/require"

	"mxfauthor/pkg/clip"
	"mxfauthor/pkg/essence"
	"mxfauthor/pkg/ident"
	"mxfauthor/pkg/klv"
	"mxfauthor/pkg/metadata"
	"mxfauthor/pkg/mic"
	"mxfauthor/pkg/rational"
	"mxfauthor/pkg/track"
)

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

func TestMediaFileNameIsOneBased(t *testing.T) {
	require.Equal(t, "reel1_v1.mxf", MediaFileName("reel1", true, 1))
	require.Equal(t, "reel1_a1.mxf", MediaFileName("reel1", false, 1))
	require.Equal(t, "reel1_a2.mxf", MediaFileName("reel1", false, 2))
}

func dvConfig(indexSID, bodySID uint32) track.Config {
	cap, _ := essence.Capabilities(essence.DV, rational.Rational{Num: 25, Den: 1})
	return track.Config{
		Elements:           []track.Element{{Type: essence.DV, Cap: cap}},
		EditRate:           rational.Rational{Num: 25, Den: 1},
		SampleRate:         rational.Rational{Num: 25, Den: 1},
		IndexSID:           indexSID,
		BodySID:            bodySID,
		KAGSize:            512,
		MinBERLength:       4,
		HeaderReserveBytes: 8192,
		MICType:            mic.None,
		OperationalPattern: klv.Key{0x06, 0x0e, 0x2b, 0x34, 0x04, 0x01, 0x01, 0x01, 0x0d, 0x01, 0x02, 0x01, 0x01, 0x01, 0x01, 0x00},
	}
}

func pcmConfig(indexSID, bodySID uint32) track.Config {
	cap, _ := essence.Capabilities(essence.PCM, rational.Rational{Num: 48000, Den: 1})
	return track.Config{
		Elements:           []track.Element{{Type: essence.PCM, Cap: cap}},
		EditRate:           rational.Rational{Num: 48000, Den: 1},
		SampleRate:         rational.Rational{Num: 48000, Den: 1},
		IndexSID:           indexSID,
		BodySID:            bodySID,
		KAGSize:            512,
		MinBERLength:       4,
		HeaderReserveBytes: 8192,
		MICType:            mic.None,
		OperationalPattern: klv.Key{0x06, 0x0e, 0x2b, 0x34, 0x04, 0x01, 0x01, 0x01, 0x0d, 0x01, 0x02, 0x01, 0x01, 0x01, 0x01, 0x00},
	}
}

func buildTrackBinding(t *testing.T, store *metadata.Store, cs *metadata.ContentStorage, name string, isPicture bool, indexSID, bodySID uint32) (*track.Writer, *metadata.Package) {
	filePkg := store.NewFileSourcePackage(name, true)
	store.AddPackage(cs, filePkg)
	var tr *metadata.Track
	var cfg track.Config
	if isPicture {
		tr = store.NewTrack(filePkg, 1, "V1", 25, 1, false, true)
		store.NewFileDescriptor(filePkg, 25, 1, [16]byte{}, 1)
		cfg = dvConfig(indexSID, bodySID)
	} else {
		tr = store.NewTrack(filePkg, 1, "A1", 48000, 1, false, false)
		store.NewFileDescriptor(filePkg, 48000, 1, [16]byte{}, 0)
		cfg = pcmConfig(indexSID, bodySID)
	}
	seq := store.NewSequence(tr, -1)
	store.NewSourceClip(seq, ident.NullUMID, 0, 0, -1)

	w := track.NewWriter(&memFile{}, cfg, store, filePkg)
	return w, filePkg
}

func TestAssignFileNamesOneBasedPerKind(t *testing.T) {
	store := metadata.NewStore()
	cs := store.NewContentStorage()
	clipRate := rational.Rational{Num: 25, Den: 1}
	coord := clip.NewCoordinator(store, cs, clipRate, true, nil)

	w1, fp1 := buildTrackBinding(t, store, cs, "reel1_v", true, 1, 1)
	w2, fp2 := buildTrackBinding(t, store, cs, "reel1_a0", false, 2, 2)
	w3, fp3 := buildTrackBinding(t, store, cs, "reel1_a1", false, 3, 3)

	coord.AddTrack(w1, fp1, clipRate, true, nil, 0)
	coord.AddTrack(w2, fp2, rational.Rational{Num: 48000, Den: 1}, false, nil, 0)
	coord.AddTrack(w3, fp3, rational.Rational{Num: 48000, Den: 1}, false, nil, 0)

	require.NoError(t, coord.PrepareWrite("Clip01"))

	names := AssignFileNames("/bundle", "reel1", coord.Bindings())
	require.Equal(t, "/bundle/reel1_v1.mxf", names[coord.Bindings()[0]])
	require.Equal(t, "/bundle/reel1_a1.mxf", names[coord.Bindings()[1]])
	require.Equal(t, "/bundle/reel1_a2.mxf", names[coord.Bindings()[2]])
}

func TestSetProjectAttributesAndEmitLocatorTrack(t *testing.T) {
	store := metadata.NewStore()
	cs := store.NewContentStorage()
	clipRate := rational.Rational{Num: 25, Den: 1}
	coord := clip.NewCoordinator(store, cs, clipRate, true, nil)

	w, fp := buildTrackBinding(t, store, cs, "reel1_v", true, 1, 1)
	coord.AddTrack(w, fp, clipRate, true, nil, 0)
	require.NoError(t, coord.PrepareWrite("Clip01"))

	SetProjectAttributes(store, coord, "MyProject", "shot on location")
	require.Equal(t, "MyProject", coord.MaterialPackage().AvidProjectName)
	require.Equal(t, "shot on location", coord.MaterialPackage().AvidUserComment)

	require.Nil(t, EmitLocatorTrack(store, coord, 99))

	require.NoError(t, coord.AddLocator(0, "mark in", 1))
	evTrack := EmitLocatorTrack(store, coord, 99)
	require.NotNil(t, evTrack)
	require.True(t, evTrack.IsEventTrack)
	require.Contains(t, coord.MaterialPackage().TrackUIDs, evTrack.InstanceUID)
}
