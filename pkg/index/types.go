// Package index implements the CBE/VBE index-table builder of §4.3: the
// hardest component in the engine. One Builder exists per track file.
//
// Grounded on the teacher's pkg/video/mp4muxer/muxer.go, which
// accumulates ISOBMFF stts/ctts/stsc/stsz/stco run-length tables from a
// stream of samples using the same "extend the last run if it matches,
// else start a new run" shape this builder uses for delta/index entries
// and segment splitting -- generalized from a fixed box set to MXF's
// segment/slice/entry-cache model.
package index

import "mxfauthor/pkg/klv"

// ContentPackageElement describes one essence stream within a track
// file, per §3.
type ContentPackageElement struct {
	IsPicture               bool
	IsCBE                   bool
	ApplyTemporalReordering bool
	SliceOffset             uint8
	ElementSize             uint32 // 0 if variable.
	ElementKey              klv.Key
}

// IndexEntry is one VBE index entry, per §3.
type IndexEntry struct {
	TemporalOffset    int8
	KeyFrameOffset    int8
	Flags             uint8
	CanStartPartition bool
}

// IsDefault reports whether all three value bytes are zero, per §3.
func (e IndexEntry) IsDefault() bool {
	return e.TemporalOffset == 0 && e.KeyFrameOffset == 0 && e.Flags == 0
}

// Compatible reports whether two entries observed for the same position
// can coexist: either one is still default, or they are identical, per
// §4.3 step 4 "all non-default entries for the same position must be
// compatible."
func (e IndexEntry) Compatible(other IndexEntry) bool {
	if e.IsDefault() || other.IsDefault() {
		return true
	}
	return e == other
}

// Merge combines two compatible entries, preferring the non-default one.
func (e IndexEntry) Merge(other IndexEntry) IndexEntry {
	if e.IsDefault() {
		return other
	}
	return e
}

// DeltaEntry is one per content-package element, per §3.
type DeltaEntry struct {
	PosTableIndex int8
	Slice         uint8
	ElementDelta  uint32
}

// IsSingleDefault reports the elision condition of §4.3 step 1: exactly
// one element with all-zero fields.
func IsSingleDefault(entries []DeltaEntry) bool {
	if len(entries) != 1 {
		return false
	}
	d := entries[0]
	return d.PosTableIndex == 0 && d.Slice == 0 && d.ElementDelta == 0
}

// MaxSegmentBytes is the 65000-byte segment size bound of §3.
const MaxSegmentBytes = 65000

// GOPHeadroomEntries is the 30-entry headroom reserved before a
// can-start-partition entry, per §3.
const GOPHeadroomEntries = 30

// EntryCacheLimit bounds the per-track entry cache, per §4.3.
const EntryCacheLimit = 250

// EntrySize returns the size in bytes of one VBE index entry for the
// given slice count: 11 + 4*sliceCount, per §3.
func EntrySize(sliceCount int) int {
	return 11 + 4*sliceCount
}
