package metadata

import (
	"testing"

	"github.com/stretchr/testify/require"

	"mxfauthor/pkg/ident"
)

func TestMarshalProducesNonEmptyDeterministicBytes(t *testing.T) {
	build := func() *Store {
		s := NewStore()
		s.NewIdentification("Acme", "Authoring Engine", "1.0")
		cs := s.NewContentStorage()
		pkg := s.NewFileSourcePackage("reel1", false)
		s.AddPackage(cs, pkg)
		track := s.NewTrack(pkg, 1, "V1", 25, 1, false, true)
		seq := s.NewSequence(track, -1)
		s.NewSourceClip(seq, ident.NullUMID, 0, 0, -1)
		s.NewFileDescriptor(pkg, 25, 1, [16]byte{}, 1)
		return s
	}

	s := build()
	a := s.Marshal()
	require.NotEmpty(t, a)
	require.Equal(t, a, s.Marshal())
}

func TestMarshalOrderIsRegistrationOrder(t *testing.T) {
	s := NewStore()
	id1 := s.NewIdentification("A", "B", "1")
	id2 := s.NewIdentification("C", "D", "2")

	order := s.Order()
	require.Equal(t, s.Preface.InstanceUID, order[0])
	require.Equal(t, id1.InstanceUID, order[1])
	require.Equal(t, id2.InstanceUID, order[2])
}
