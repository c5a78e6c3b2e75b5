// Package ident generates UUIDs and UMIDs and the UTC timestamp type
// used across header metadata, per §4.2.
package ident

import (
	"time"

	"github.com/google/uuid"
)

// UUID is a 16-byte universally unique identifier, per §3.
type UUID [16]byte

// NewUUID generates a fresh UUID using the platform facility, per §4.2
// "generate_uuid uses the platform UUID facility (any version that is
// universally unique)". Grounded on github.com/google/uuid, the same
// library the retrieved mrx-tool reference file and the bt-go example
// repo use for this exact purpose.
func NewUUID() UUID {
	var u UUID
	id := uuid.New()
	copy(u[:], id[:])
	return u
}

// UMID is a 32-byte Unique Material Identifier, per §3: a fixed 16-byte
// SMPTE prefix followed by a UUID used as the material number.
type UMID [32]byte

// smpteUMIDPrefix is the "material type not identified, UUID generation
// method" prefix of §3.
var smpteUMIDPrefix = [16]byte{
	0x06, 0x0a, 0x2b, 0x34, 0x01, 0x01, 0x01, 0x05,
	0x01, 0x01, 0x0d, 0x20, 0x00, 0x00, 0x00, 0x00,
}

// avidUMIDPrefix is the distinct well-known prefix used by the Avid
// flavor, per §3 "Avid-flavored UMIDs use a distinct prefix."
var avidUMIDPrefix = [16]byte{
	0x06, 0x0a, 0x2b, 0x34, 0x01, 0x01, 0x01, 0x01,
	0x01, 0x01, 0x0f, 0x20, 0x00, 0x00, 0x00, 0x00,
}

// NewUMID generates a fresh UMID with the standard SMPTE prefix.
func NewUMID() UMID {
	return umidWithPrefix(smpteUMIDPrefix)
}

// NewAvidUMID generates a fresh UMID with the Avid-flavored prefix.
func NewAvidUMID() UMID {
	return umidWithPrefix(avidUMIDPrefix)
}

func umidWithPrefix(prefix [16]byte) UMID {
	var m UMID
	copy(m[:16], prefix[:])
	id := NewUUID()
	copy(m[16:], id[:])
	return m
}

// NullUMID is the all-zero UMID used when a file-source package's source
// clip has no tape/import provenance to reference, per §4.4.
var NullUMID UMID

// IsNull reports whether m is the all-zero UMID.
func (m UMID) IsNull() bool {
	return m == NullUMID
}

// Timestamp is a UTC calendar date-time with a 1/250s quantum, per §3.
type Timestamp struct {
	t time.Time
}

// Now returns the current Timestamp, quantized to 1/250s (4ms).
func Now() Timestamp {
	return FromTime(time.Now().UTC())
}

// FromTime quantizes t to the nearest 1/250s and returns a Timestamp.
func FromTime(t time.Time) Timestamp {
	const quantum = time.Second / 250
	rounded := t.UTC().Round(quantum)
	return Timestamp{t: rounded}
}

// Time returns the underlying UTC time.Time.
func (ts Timestamp) Time() time.Time {
	return ts.t
}

// QuarterFrames returns the 1/250s tick within the current second.
func (ts Timestamp) QuarterFrames() int {
	return ts.t.Nanosecond() / int(time.Second/250)
}
