package klv

import (
	"fmt"

	"mxfauthor/pkg/klv/bitio"
)

// FillToExactly writes a single fill item that consumes exactly
// remaining bytes, where remaining = targetTotal - writtenSoFar. This is
// the "filler writer that counts bytes consumed and emits a tail KLV
// fill item to hit the target position exactly" of Design Notes §9: it
// is how the Track Writer's header-metadata reserve is satisfied at
// Prepare and re-satisfied byte-for-byte at Complete.
//
// minBERLength is fixed at DefaultMinBERLength by callers so the fill
// item's own key+length header has a constant size (16 + minBERLength
// for values under 2^(8*(minBERLength-1))), making the arithmetic exact.
func FillToExactly(w *bitio.Writer, writtenSoFar, targetTotal int) (int, error) {
	remaining := targetTotal - writtenSoFar
	headerLen := len(FillItemKey) + 1 + DefaultMinBERLength - 1
	if remaining < headerLen {
		return 0, fmt.Errorf("klv: reserve too small: need at least %d bytes, have %d", headerLen, remaining)
	}
	valueLen := remaining - headerLen
	return WriteKLV(w, FillItemKey, make([]byte, valueLen), DefaultMinBERLength)
}

// ReserveSize returns the number of bytes a fill item carrying valueLen
// zero bytes will occupy, for callers sizing a reserve in advance.
func ReserveSize(valueLen int) int {
	return len(FillItemKey) + 1 + DefaultMinBERLength - 1 + valueLen
}
