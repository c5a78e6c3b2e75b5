// Package klv implements the low-level binary primitives of SMPTE 377-1:
// KLV framing, partition packs, the primer pack, fill items and the
// random index pack. Nothing above this package knows about byte layout.
package klv

import "fmt"

// Key is a 16-byte SMPTE Universal Label.
type Key [16]byte

// String renders the key as hex, teacher-style (mp4 box types render as
// their four ASCII bytes; ULs have no ASCII form so hex is used instead).
func (k Key) String() string {
	return fmt.Sprintf("%x", [16]byte(k))
}

// smpteULPrefix is the 13-byte fixed prefix shared by all partition-pack
// keys under this engine's UL allocation. Bytes 13-15 (0-indexed 13..15)
// carry kind and openness/completeness, per PartitionKind/PartitionStatus.
var smpteULPrefix = [13]byte{0x06, 0x0e, 0x2b, 0x34, 0x02, 0x05, 0x01, 0x01, 0x0d, 0x01, 0x02, 0x01, 0x00}

// PartitionKind selects header/body/footer.
type PartitionKind byte

// Partition kinds.
const (
	PartitionHeader PartitionKind = 0x02
	PartitionBody   PartitionKind = 0x03
	PartitionFooter PartitionKind = 0x04
)

// PartitionStatus is the openness/completeness of a partition pack.
type PartitionStatus byte

// Partition statuses. OpenIncomplete is always written first and is
// replaced by ClosedComplete at Complete.
const (
	StatusClosedComplete   PartitionStatus = 0x01
	StatusClosedIncomplete PartitionStatus = 0x02
	StatusOpenIncomplete   PartitionStatus = 0x03
	StatusOpenComplete     PartitionStatus = 0x04
)

// PartitionKey builds the 16-byte partition-pack key for a given
// kind/status pair.
func PartitionKey(kind PartitionKind, status PartitionStatus) Key {
	var k Key
	copy(k[:13], smpteULPrefix[:])
	k[13] = byte(kind)
	k[14] = byte(status)
	k[15] = 0x00
	return k
}

// Decode returns the kind/status encoded in a partition-pack key.
// ok is false if k does not carry this engine's partition-pack prefix.
func (k Key) Decode() (kind PartitionKind, status PartitionStatus, ok bool) {
	for i := 0; i < 13; i++ {
		if k[i] != smpteULPrefix[i] {
			return 0, 0, false
		}
	}
	return PartitionKind(k[13]), PartitionStatus(k[14]), true
}

// IsOpen reports whether status is one of the Open* statuses.
func (s PartitionStatus) IsOpen() bool {
	return s == StatusOpenIncomplete || s == StatusOpenComplete
}

// Closed returns the closed-complete counterpart of any open status.
func (s PartitionStatus) Closed() PartitionStatus {
	return StatusClosedComplete
}

// FillItemKey is the key used for KAG-alignment padding items.
var FillItemKey = Key{0x06, 0x0e, 0x2b, 0x34, 0x01, 0x01, 0x01, 0x02, 0x03, 0x01, 0x02, 0x10, 0x01, 0x00, 0x00, 0x00}

// RandomIndexPackKey is the key of the trailing Random Index Pack.
var RandomIndexPackKey = Key{0x06, 0x0e, 0x2b, 0x34, 0x02, 0x05, 0x01, 0x01, 0x0d, 0x01, 0x02, 0x01, 0x11, 0x01, 0x00, 0x00}

// PrimerPackKey is the key of the Primer Pack preceding header metadata.
var PrimerPackKey = Key{0x06, 0x0e, 0x2b, 0x34, 0x02, 0x05, 0x01, 0x01, 0x0d, 0x01, 0x02, 0x01, 0x01, 0x05, 0x01, 0x00}
