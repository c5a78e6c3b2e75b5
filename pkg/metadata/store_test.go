package metadata

import (
	"testing"

	"github.com/stretchr/testify/require"

	"mxfauthor/pkg/ident"
)

func TestStoreRegistersPrefaceAtCreation(t *testing.T) {
	s := NewStore()
	require.NotEqual(t, ident.UUID{}, s.Preface.InstanceUID)
	got := s.Get(s.Preface.InstanceUID)
	require.Same(t, s.Preface, got)
}

func TestContentStorageWiredOntoPreface(t *testing.T) {
	s := NewStore()
	cs := s.NewContentStorage()
	require.Equal(t, cs.InstanceUID, s.Preface.ContentStorageUID)
}

func TestFileSourcePackageTracksAndSequence(t *testing.T) {
	s := NewStore()
	cs := s.NewContentStorage()
	pkg := s.NewFileSourcePackage("reel1", false)
	s.AddPackage(cs, pkg)

	track := s.NewTrack(pkg, 1, "V1", 25, 1, false, true)
	seq := s.NewSequence(track, -1)
	clip := s.NewSourceClip(seq, ident.NullUMID, 0, 0, -1)

	require.Len(t, pkg.TrackUIDs, 1)
	require.Equal(t, seq.InstanceUID, track.SequenceUID)
	require.Equal(t, clip.InstanceUID, seq.ComponentUID)
	require.True(t, clip.SourcePackageUMID.IsNull())
}

func TestFindPackageByUMID(t *testing.T) {
	s := NewStore()
	cs := s.NewContentStorage()
	pkg := s.NewTapeSourcePackage("tape1")
	s.AddPackage(cs, pkg)

	found := s.FindPackageByUMID(pkg.PackageUMID)
	require.Same(t, pkg, found)

	require.Nil(t, s.FindPackageByUMID(ident.NewUMID()))
}

func TestAvidFileSourcePackageUsesAvidPrefix(t *testing.T) {
	s := NewStore()
	plain := s.NewFileSourcePackage("a", false)
	avid := s.NewFileSourcePackage("b", true)
	require.NotEqual(t, plain.PackageUMID[:16], avid.PackageUMID[:16])
}

func TestDMSegmentLocatorRegistration(t *testing.T) {
	s := NewStore()
	clip := s.NewDMSourceClip(ident.NewUMID(), 1)
	seg := s.NewDMSegment(clip, 10, "note", 0xFFFF, 0, 0, 1)

	require.Len(t, clip.DMSegmentUIDs, 1)
	require.Equal(t, seg.InstanceUID, clip.DMSegmentUIDs[0])
}
