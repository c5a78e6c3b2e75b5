package index

import (
	"testing"

	"github.com/stretchr/testify/require"

	"mxfauthor/pkg/rational"
)

func TestBuilderPCMConstantBytesPerEditUnit(t *testing.T) {
	elements := []ContentPackageElement{
		{IsPicture: false, IsCBE: true},
	}
	b := NewBuilder(elements, 1, 1, rational.Rational{Num: 48000, Den: 1}, true, false)

	for i := 0; i < 48; i++ {
		require.NoError(t, b.UpdateIndex(1920, []uint32{1920}))
	}

	segs := b.Segments()
	require.Len(t, segs, 1)
	require.Equal(t, uint32(1920), segs[0].EditUnitByteCount)
	require.EqualValues(t, 48, segs[0].Duration)
	require.True(t, b.CanStartPartition())
}

func TestBuilderDV25ConstantBytesPerEditUnit(t *testing.T) {
	elements := []ContentPackageElement{
		{IsPicture: true, IsCBE: true},
	}
	b := NewBuilder(elements, 2, 2, rational.Rational{Num: 25, Den: 1}, true, false)

	for i := 0; i < 100; i++ {
		require.NoError(t, b.UpdateIndex(144000, []uint32{144000}))
	}

	segs := b.Segments()
	require.Len(t, segs, 1)
	require.EqualValues(t, 0, segs[0].StartPosition)
	require.EqualValues(t, 100, segs[0].Duration)
	require.Equal(t, uint32(144000), segs[0].EditUnitByteCount)
}

func TestBuilderCBERejectsChangedSize(t *testing.T) {
	elements := []ContentPackageElement{{IsPicture: true, IsCBE: true}}
	b := NewBuilder(elements, 1, 1, rational.Rational{Num: 25, Den: 1}, true, false)

	require.NoError(t, b.UpdateIndex(1000, []uint32{1000}))
	require.NoError(t, b.UpdateIndex(1000, []uint32{1000}))
	err := b.UpdateIndex(1001, []uint32{1001})
	require.Error(t, err)
}

func TestBuilderAVCFirstOversizedFoldsWhenSizesMatch(t *testing.T) {
	elements := []ContentPackageElement{{IsPicture: true, IsCBE: true}}
	b := NewBuilder(elements, 1, 1, rational.Rational{Num: 25, Den: 1}, true, true)

	require.NoError(t, b.UpdateIndex(5000, []uint32{5000}))
	require.NoError(t, b.UpdateIndex(5000, []uint32{5000}))

	segs := b.Segments()
	require.Len(t, segs, 1, "equal-size second edit unit should fold into a single segment")
	require.EqualValues(t, 0, segs[0].StartPosition)
	require.EqualValues(t, 2, segs[0].Duration)
}

func TestBuilderAVCFirstOversizedKeepsSeparateWhenSizesDiffer(t *testing.T) {
	elements := []ContentPackageElement{{IsPicture: true, IsCBE: true}}
	b := NewBuilder(elements, 1, 1, rational.Rational{Num: 25, Den: 1}, true, true)

	require.NoError(t, b.UpdateIndex(9000, []uint32{9000}))
	require.NoError(t, b.UpdateIndex(3000, []uint32{3000}))
	require.NoError(t, b.UpdateIndex(3000, []uint32{3000}))

	segs := b.Segments()
	require.Len(t, segs, 2)
	require.EqualValues(t, 0, segs[0].StartPosition)
	require.EqualValues(t, 1, segs[0].Duration)
	require.Equal(t, uint32(9000), segs[0].EditUnitByteCount)
	require.EqualValues(t, 1, segs[1].StartPosition)
	require.EqualValues(t, 2, segs[1].Duration)
	require.Equal(t, uint32(3000), segs[1].EditUnitByteCount)
}

func TestBuilderVBELongGOPTemporalOffsets(t *testing.T) {
	elements := []ContentPackageElement{
		{IsPicture: true, IsCBE: false, ApplyTemporalReordering: true},
	}
	b := NewBuilder(elements, 3, 3, rational.Rational{Num: 25, Den: 1}, false, false)

	require.False(t, IsSingleDefault(b.DeltaEntries()) && len(b.DeltaEntries()) != 1)

	// I B B P pattern across a 13-frame GOP; displayed position N's
	// temporal offset is learned only once the frame arrives in
	// transmission order, per §4.3.
	sizes := []uint32{40000, 8000, 8000, 20000, 8000, 8000, 20000, 8000, 8000, 20000, 8000, 8000, 20000}
	for i, size := range sizes {
		require.NoError(t, b.SetCachedEntry(int64(i), IndexEntry{CanStartPartition: i == 0}))
		require.NoError(t, b.UpdateIndex(size, []uint32{size}))
	}

	require.NoError(t, b.UpdateIndexEntry(1, 2))
	require.NoError(t, b.UpdateIndexEntry(2, 1))

	segs := b.Segments()
	require.NotEmpty(t, segs)
	require.EqualValues(t, len(sizes), b.Duration())
}

func TestBuilderVBESplitsSegmentAtByteBound(t *testing.T) {
	elements := []ContentPackageElement{{IsPicture: true, IsCBE: false}}
	b := NewBuilder(elements, 4, 4, rational.Rational{Num: 25, Den: 1}, false, false)

	entrySize := EntrySize(b.SliceCount())
	perSegment := MaxSegmentBytes / entrySize

	for i := 0; i <= perSegment+5; i++ {
		require.NoError(t, b.SetCachedEntry(int64(i), IndexEntry{CanStartPartition: false}))
		require.NoError(t, b.UpdateIndex(1000, []uint32{1000}))
	}

	segs := b.Segments()
	require.Greater(t, len(segs), 1, "exceeding the byte bound must open a new segment")
	for _, seg := range segs {
		require.LessOrEqual(t, len(seg.EntriesBytes), MaxSegmentBytes)
	}
}

func TestBuilderCanStartPartitionCBEAlwaysTrue(t *testing.T) {
	elements := []ContentPackageElement{{IsCBE: true}}
	b := NewBuilder(elements, 1, 1, rational.Rational{Num: 48000, Den: 1}, true, false)
	require.True(t, b.CanStartPartition())
}

func TestBuilderEntryCacheBoundEnforced(t *testing.T) {
	elements := []ContentPackageElement{{IsPicture: true}}
	b := NewBuilder(elements, 1, 1, rational.Rational{Num: 25, Den: 1}, false, false)

	for i := 0; i < EntryCacheLimit; i++ {
		require.NoError(t, b.SetCachedEntry(int64(i+1000), IndexEntry{KeyFrameOffset: 1}))
	}
	err := b.SetCachedEntry(int64(9999), IndexEntry{KeyFrameOffset: 1})
	require.Error(t, err)
}

func TestSliceOffsetAssignmentPicturesFirst(t *testing.T) {
	elements := []ContentPackageElement{
		{IsPicture: false, IsCBE: false},
		{IsPicture: true, IsCBE: false},
	}
	b := NewBuilder(elements, 1, 1, rational.Rational{Num: 25, Den: 1}, false, false)

	require.True(t, b.Elements()[0].IsPicture)
	require.False(t, b.Elements()[1].IsPicture)
	require.Equal(t, uint8(0), b.Elements()[0].SliceOffset)
	require.Equal(t, uint8(1), b.Elements()[1].SliceOffset)
}
