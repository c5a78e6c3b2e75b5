package index

import (
	"fmt"
	"sort"

	"mxfauthor/pkg/rational"
	"mxfauthor/pkg/xerr"
)

// Builder assembles one track's index table, CBE or VBE, per §4.3. One
// instance exists per track file.
type Builder struct {
	elements   []ContentPackageElement
	sliceCount int
	isCBE      bool
	indexSID   uint32
	bodySID    uint32
	editRate   rational.Rational

	avcFirstOversized bool

	deltaEntries     []DeltaEntry
	deltaEntriesSet  bool
	firstEditUnit    bool
	firstElementSize uint32 // CBE: the frozen constant edit-unit byte count.

	// CBE-specific AVC-first fold state.
	firstSegment *Segment
	mainSegment  *Segment
	foldDecided  bool

	// VBE-specific segment list; CBE uses mainSegment (plus firstSegment
	// while an AVC-first segment is kept) serialized only at Complete,
	// per §4.3 "CBE index segments ... is re-written at Complete".
	segments []*Segment

	cache           *entryCache
	currentDuration int64
	streamOffset    int64
}

// NewBuilder prepares a track's index builder: freezes element order
// (stable sort, pictures before sounds), assigns slice offsets, and
// opens the initial segment(s), per §4.3 "Preparation."
func NewBuilder(
	elements []ContentPackageElement,
	indexSID, bodySID uint32,
	editRate rational.Rational,
	isCBE bool,
	avcFirstOversized bool,
) *Builder {
	els := make([]ContentPackageElement, len(elements))
	copy(els, elements)
	sort.SliceStable(els, func(i, j int) bool {
		return els[i].IsPicture && !els[j].IsPicture
	})

	sliceOffset := uint8(0)
	for i := range els {
		els[i].SliceOffset = sliceOffset
		if !els[i].IsCBE {
			sliceOffset++
		}
	}
	sliceCount := int(sliceOffset)
	if sliceCount == 0 {
		sliceCount = 1
	}

	b := &Builder{
		elements:          els,
		sliceCount:        sliceCount,
		isCBE:             isCBE,
		indexSID:          indexSID,
		bodySID:           bodySID,
		editRate:          editRate,
		avcFirstOversized: avcFirstOversized,
		firstEditUnit:     true,
		cache:             newEntryCache(),
	}

	if !isCBE {
		seg := b.newSegment(0)
		b.segments = append(b.segments, seg)
	}

	return b
}

func (b *Builder) newSegment(startPosition int64) *Segment {
	seg := &Segment{
		IndexSID:      b.indexSID,
		BodySID:       b.bodySID,
		IndexEditRate: b.editRate,
		StartPosition: startPosition,
		SliceCount:    uint8(b.sliceCount),
	}
	if b.deltaEntriesSet {
		seg.DeltaEntries = b.deltaEntries
	}
	return seg
}

// SliceCount returns the number of slices assigned during Preparation.
func (b *Builder) SliceCount() int {
	return b.sliceCount
}

// Elements returns the frozen, slice-assigned element order.
func (b *Builder) Elements() []ContentPackageElement {
	return b.elements
}

func (b *Builder) computeDeltaEntries(elementSizes []uint32) []DeltaEntry {
	entries := make([]DeltaEntry, len(b.elements))
	sliceRunning := map[uint8]uint32{}
	for i, el := range b.elements {
		posTableIndex := int8(0)
		if el.ApplyTemporalReordering {
			posTableIndex = -1
		}
		entries[i] = DeltaEntry{
			PosTableIndex: posTableIndex,
			Slice:         el.SliceOffset,
			ElementDelta:  sliceRunning[el.SliceOffset],
		}
		sliceRunning[el.SliceOffset] += elementSizes[i]
	}
	if IsSingleDefault(entries) {
		return nil
	}
	return entries
}

// UpdateIndex processes one edit unit, per §4.3 "Per-edit-unit update."
func (b *Builder) UpdateIndex(size uint32, elementSizes []uint32) error {
	if len(elementSizes) != len(b.elements) {
		return xerr.New(xerr.InvalidArgument, "element size count mismatch", map[string]any{
			"got": len(elementSizes), "want": len(b.elements),
		})
	}

	if b.firstEditUnit {
		b.deltaEntries = b.computeDeltaEntries(elementSizes)
		b.deltaEntriesSet = true
		b.firstElementSize = size
		b.firstEditUnit = false

		if b.isCBE {
			if b.avcFirstOversized {
				b.firstSegment = b.newSegment(0)
				b.firstSegment.EditUnitByteCount = size
				b.firstSegment.Duration = 1
				b.mainSegment = b.newSegment(1)
			} else {
				b.mainSegment = b.newSegment(0)
				b.mainSegment.EditUnitByteCount = size
				b.mainSegment.Duration = 1
				b.foldDecided = true
			}
		} else {
			b.segments[0].DeltaEntries = b.deltaEntries
			if err := b.appendVBE(size, elementSizes); err != nil {
				return err
			}
			return b.advance(size)
		}
		return b.advance(size)
	}

	if b.isCBE {
		return b.updateCBE(size)
	}
	if err := b.appendVBE(size, elementSizes); err != nil {
		return err
	}
	return b.advance(size)
}

func (b *Builder) updateCBE(size uint32) error {
	if !b.foldDecided {
		if size == b.firstSegment.EditUnitByteCount {
			// Fold: discard the AVC-first segment, §4.3 step 3.
			b.mainSegment.StartPosition = 0
			b.mainSegment.EditUnitByteCount = size
			b.mainSegment.Duration = 2
			b.firstSegment = nil
		} else {
			b.mainSegment.EditUnitByteCount = size
			b.mainSegment.Duration = 1
		}
		b.foldDecided = true
		return b.advance(size)
	}

	if size != b.mainSegment.EditUnitByteCount {
		return xerr.New(xerr.IndexInvariantViolation, "CBE edit unit size changed", map[string]any{
			"expected": b.mainSegment.EditUnitByteCount, "got": size,
		})
	}
	b.mainSegment.Duration++
	return b.advance(size)
}

func (b *Builder) appendVBE(size uint32, elementSizes []uint32) error {
	merged := IndexEntry{}
	for i, el := range b.elements {
		_ = el
		cached := b.cache.Take(b.currentDuration)
		if i == 0 {
			merged = cached
			continue
		}
		if !merged.Compatible(cached) {
			return xerr.New(xerr.IndexInvariantViolation, "incompatible VBE entries at same position", map[string]any{
				"position": b.currentDuration,
			})
		}
		merged = merged.Merge(cached)
	}

	sliceCPOffsets := b.sliceOffsetsFor(elementSizes)

	seg := b.segments[len(b.segments)-1]
	if seg.WouldExceed(merged.CanStartPartition) {
		seg = b.newSegment(b.currentDuration)
		b.segments = append(b.segments, seg)
	}
	seg.AppendVBEEntry(merged, b.streamOffset, sliceCPOffsets)
	return nil
}

// sliceOffsetsFor computes the byte offset, from the start of the
// content package, of the first byte of each slice, per §4.3 "Build
// slice_cp_offsets[] from cumulative element sizes, split across slice
// boundaries."
func (b *Builder) sliceOffsetsFor(elementSizes []uint32) []uint32 {
	offsets := make([]uint32, b.sliceCount)
	var running uint32
	seen := map[uint8]bool{}
	for i, el := range b.elements {
		if !seen[el.SliceOffset] {
			offsets[el.SliceOffset] = running
			seen[el.SliceOffset] = true
		}
		running += elementSizes[i]
	}
	return offsets
}

func (b *Builder) advance(size uint32) error {
	b.currentDuration++
	b.streamOffset += int64(size)
	return nil
}

// SetCachedEntry records a picture element's future-known entry (e.g.
// temporal offset learned once a later frame arrives) for a position
// not yet reached by UpdateIndex, per §4.3 "Entry cache."
func (b *Builder) SetCachedEntry(position int64, entry IndexEntry) error {
	if !b.cache.Set(position, entry) {
		return xerr.New(xerr.FormatLimit, "index entry cache exceeded bound", map[string]any{
			"limit": EntryCacheLimit,
		})
	}
	return nil
}

// UpdateIndexEntry patches the temporal offset of the entry at
// position, per §4.3 "Out-of-order temporal-offset patch-up": if the
// entry is still cached it is updated in place; otherwise the owning
// segment is located by walking backwards summing durations and its
// already-serialized byte buffer is patched.
func (b *Builder) UpdateIndexEntry(position int64, temporalOffset int8) error {
	if position >= b.currentDuration {
		if b.cache.PatchTemporalOffset(position, temporalOffset) {
			return nil
		}
		ok := b.cache.Set(position, IndexEntry{TemporalOffset: temporalOffset})
		return errIfFalse(ok)
	}

	if b.isCBE {
		// CBE entries carry no temporal offset field in the fixed-size
		// element model; nothing to patch.
		return nil
	}

	for i := len(b.segments) - 1; i >= 0; i-- {
		seg := b.segments[i]
		if position < seg.StartPosition {
			continue
		}
		idx := position - seg.StartPosition
		if idx >= seg.Duration {
			continue
		}
		if seg.PatchTemporalOffset(idx, temporalOffset) {
			return nil
		}
	}
	return xerr.New(xerr.InvalidArgument, "position not found for patch-up", map[string]any{
		"position": position,
	})
}

func errIfFalse(ok bool) error {
	if ok {
		return nil
	}
	return xerr.New(xerr.FormatLimit, "index entry cache exceeded bound", nil)
}

// CanStartPartition returns true iff every VBE element's cached entry
// at the current duration is marked CanStartPartition (CBE is always
// true), per §4.3.
func (b *Builder) CanStartPartition() bool {
	if b.isCBE {
		return true
	}
	for range b.elements {
		entry := b.cache.Peek(b.currentDuration)
		if !entry.CanStartPartition {
			return false
		}
	}
	return true
}

// Segments returns the VBE segments built so far (or, for CBE, the
// AVC-first segment followed by the main segment while the first is
// kept, else the main segment alone).
func (b *Builder) Segments() []*Segment {
	if b.isCBE {
		if b.firstSegment != nil {
			return []*Segment{b.firstSegment, b.mainSegment}
		}
		if b.mainSegment != nil {
			return []*Segment{b.mainSegment}
		}
		return nil
	}
	return b.segments
}

// PlaceholderSegment returns a CBE segment with the correct marshaled
// byte shape (delta entries elided or not, sized but zero-valued) for
// reserving file space before the first edit unit is known, per §4.3
// step 4 "write a placeholder CBE index segment." It does not affect
// the Builder's own accumulation state -- Complete must still marshal
// Segments(), not this placeholder, once real data has accumulated.
func (b *Builder) PlaceholderSegment() *Segment {
	zeros := make([]uint32, len(b.elements))
	seg := b.newSegment(0)
	seg.DeltaEntries = b.computeDeltaEntries(zeros)
	return seg
}

// Duration returns the total number of edit units processed so far.
func (b *Builder) Duration() int64 {
	return b.currentDuration
}

// DeltaEntries returns the frozen delta-entry array (nil if elided).
func (b *Builder) DeltaEntries() []DeltaEntry {
	return b.deltaEntries
}

func (b *Builder) String() string {
	return fmt.Sprintf("index.Builder{cbe=%v slices=%d duration=%d}", b.isCBE, b.sliceCount, b.currentDuration)
}
