package ident

import (
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func TestNewUUIDUnique(t *testing.T) {
	a := NewUUID()
	b := NewUUID()
	require.NotEqual(t, a, b)
}

func TestNewUMIDPrefixAndUniqueness(t *testing.T) {
	a := NewUMID()
	b := NewUMID()
	require.NotEqual(t, a, b)

	var prefix [16]byte
	copy(prefix[:], a[:16])
	require.Equal(t, smpteUMIDPrefix, prefix)
	require.False(t, a.IsNull())
}

func TestAvidUMIDDistinctPrefix(t *testing.T) {
	a := NewUMID()
	b := NewAvidUMID()
	require.NotEqual(t, a[:16], b[:16])
}

func TestNullUMID(t *testing.T) {
	var z UMID
	require.True(t, z.IsNull())
}

func TestTimestampQuantization(t *testing.T) {
	ts := FromTime(time.Date(2024, 1, 2, 3, 4, 5, 123456789, time.UTC))
	require.Equal(t, 2024, ts.Time().Year())
	// 123.456789 ms rounds to the nearest 4 ms tick: 124 ms, tick 31.
	require.Equal(t, 31, ts.QuarterFrames())
}
