// Package essence supplies the capability set named out-of-scope in §1
// as "essence-specific sample validation and descriptor construction."
// The source's polymorphic descriptor-helper hierarchy is replaced by a
// single sum type, Type, and a capability table, per Design Notes §9
// ("Descriptor Helper" / "Subclassed essence tracks"). Grounded on the
// teacher's box-type dispatch table in pkg/video/mp4/box_types.go, which
// maps a fixed set of fourCC box types to construction functions the
// same way Type maps essence kinds to capability rows.
package essence

import (
	"mxfauthor/pkg/klv"
	"mxfauthor/pkg/rational"
	"mxfauthor/pkg/xerr"
)

// Type is the essence-family sum type of Design Notes §9.
type Type int

// Essence families, per §1's out-of-scope list.
const (
	DV Type = iota
	D10
	AVCIntra
	Uncompressed
	MPEG2LongGOP
	PCM
)

func (t Type) String() string {
	switch t {
	case DV:
		return "DV"
	case D10:
		return "D10"
	case AVCIntra:
		return "AVCIntra"
	case Uncompressed:
		return "Uncompressed"
	case MPEG2LongGOP:
		return "MPEG2LongGOP"
	case PCM:
		return "PCM"
	default:
		return "Unknown"
	}
}

// SampleSizeRule computes the byte size of one sample (edit unit) of
// essence given the active sample rate. A rule returning a fixed value
// for every rate makes the track CBE; one that varies, or that needs the
// actual encoded sample to know its size, makes the track VBE (the
// caller passes the producer's size for VBE and ignores the rule's
// return).
type SampleSizeRule func(sampleRate rational.Rational) (size uint32, fixed bool)

// Descriptor is the minimal set of fields the Track Writer needs from a
// file descriptor; DescriptorBuilder below fills these in per essence
// family. Full SMPTE essence descriptors carry many more fields; this
// engine writes only what distinguishes one essence family's index/
// container behavior from another, per the format-shape-only Non-goal
// of §1.
type Descriptor struct {
	ContainerUL     klv.Key
	SampleRate      rational.Rational
	FrameLayout     uint8
	ContainerDuration int64
}

// DescriptorBuilder constructs a FileDescriptor's essence-specific
// fields for the given sample rate.
type DescriptorBuilder func(sampleRate rational.Rational) Descriptor

// SampleHook runs before the first sample (PreSampleHook) or after the
// last sample (PostSampleHook) of a track, per §4.4 step 5 / Complete
// step 1. Hooks may flush pending clip-wrapped state by writing through
// w.WriteRaw; a returned error is passed back to the Track Writer's caller.
type SampleHook func(w ClipWriter) error

// ClipWriter is the narrow surface a hook needs from the Track Writer:
// write raw bytes to the open essence partition.
type ClipWriter interface {
	WriteRaw(p []byte) (int, error)
}

// ValidateSample checks one sample's byte length against this essence
// family's constraints (format-shape only, no codec-level validation,
// per the Non-goals of §1).
type ValidateSample func(sampleSize int) error

// Capability is the full per-family row of Design Notes §9:
// "{describe_descriptor, pre_sample_hook, post_sample_hook,
// validate_sample, container_ul, element_key}".
type Capability struct {
	ContainerUL       klv.Key
	ElementKey        klv.Key
	SampleRates       []rational.Rational
	DefaultSampleSize SampleSizeRule
	DescriptorBuilder DescriptorBuilder
	PreSampleHook     SampleHook
	PostSampleHook    SampleHook
	ValidateSample    ValidateSample
	FrameWrapped      bool // false => clip-wrapped (PCM).

	// CBEFirstMayBeOversized marks essence families whose first edit
	// unit can carry extra bytes (e.g. AVC-Intra's SPS/PPS prepended to
	// the first frame) while every later edit unit holds to the fixed
	// size DefaultSampleSize reports, per §4.3 Preparation "if the
	// essence is AVC-Intra with an oversized first edit unit, a separate
	// first segment is allocated." The Track Writer threads this into
	// index.NewBuilder's avcFirstOversized; the builder still only
	// keeps the first segment if the second edit unit's size actually
	// differs, per its fold-on-second-edit-unit rule.
	CBEFirstMayBeOversized bool
}

var capabilities = map[Type]Capability{
	PCM: {
		ContainerUL:  essenceContainerUL(0x01, 0x01),
		ElementKey:   essenceElementKey(0x01, 0x01),
		SampleRates:  []rational.Rational{{Num: 48000, Den: 1}},
		FrameWrapped: false,
		DefaultSampleSize: func(rational.Rational) (uint32, bool) {
			return 2, true // 16-bit mono sample, per the §8 PCM scenario.
		},
		DescriptorBuilder: func(r rational.Rational) Descriptor {
			return Descriptor{ContainerUL: essenceContainerUL(0x01, 0x01), SampleRate: r, FrameLayout: 0}
		},
		ValidateSample: func(size int) error {
			if size <= 0 {
				return xerr.New(xerr.InvalidArgument, "pcm sample must be non-empty", nil)
			}
			return nil
		},
	},
	DV: {
		ContainerUL:  essenceContainerUL(0x02, 0x02),
		ElementKey:   essenceElementKey(0x02, 0x02),
		SampleRates:  []rational.Rational{{Num: 25, Den: 1}, {Num: 30000, Den: 1001}},
		FrameWrapped: true,
		DefaultSampleSize: func(rational.Rational) (uint32, bool) {
			return 144000, true // DV25 frame payload, per the §8 DV25 scenario.
		},
		DescriptorBuilder: func(r rational.Rational) Descriptor {
			return Descriptor{ContainerUL: essenceContainerUL(0x02, 0x02), SampleRate: r, FrameLayout: 1}
		},
		ValidateSample: shapeOnlyValidator(144000),
	},
	D10: {
		ContainerUL:  essenceContainerUL(0x02, 0x01),
		ElementKey:   essenceElementKey(0x02, 0x01),
		SampleRates:  []rational.Rational{{Num: 25, Den: 1}},
		FrameWrapped: true,
		DefaultSampleSize: func(rational.Rational) (uint32, bool) {
			return 250000, true
		},
		DescriptorBuilder: func(r rational.Rational) Descriptor {
			return Descriptor{ContainerUL: essenceContainerUL(0x02, 0x01), SampleRate: r, FrameLayout: 1}
		},
		ValidateSample: shapeOnlyValidator(250000),
	},
	AVCIntra: {
		ContainerUL:  essenceContainerUL(0x02, 0x03),
		ElementKey:   essenceElementKey(0x02, 0x03),
		SampleRates:  []rational.Rational{{Num: 25, Den: 1}, {Num: 30000, Den: 1001}, {Num: 50, Den: 1}},
		FrameWrapped: true,
		DefaultSampleSize: func(rational.Rational) (uint32, bool) {
			return 576000, true // AVC-Intra 100-class nominal frame payload; CBE apart from the first edit unit's SPS/PPS overhead, per §4.3 Preparation.
		},
		CBEFirstMayBeOversized: true,
		DescriptorBuilder: func(r rational.Rational) Descriptor {
			return Descriptor{ContainerUL: essenceContainerUL(0x02, 0x03), SampleRate: r, FrameLayout: 1}
		},
		ValidateSample: func(size int) error {
			if size <= 0 {
				return xerr.New(xerr.InvalidArgument, "avc-intra sample must be non-empty", nil)
			}
			return nil
		},
	},
	Uncompressed: {
		ContainerUL:  essenceContainerUL(0x02, 0x04),
		ElementKey:   essenceElementKey(0x02, 0x04),
		SampleRates:  []rational.Rational{{Num: 25, Den: 1}, {Num: 30000, Den: 1001}},
		FrameWrapped: true,
		DefaultSampleSize: func(rational.Rational) (uint32, bool) {
			return 1555200, true // 10-bit 4:2:2 720x576-class frame, fixed-size.
		},
		DescriptorBuilder: func(r rational.Rational) Descriptor {
			return Descriptor{ContainerUL: essenceContainerUL(0x02, 0x04), SampleRate: r, FrameLayout: 1}
		},
		ValidateSample: shapeOnlyValidator(1555200),
	},
	MPEG2LongGOP: {
		ContainerUL:  essenceContainerUL(0x02, 0x05),
		ElementKey:   essenceElementKey(0x02, 0x05),
		SampleRates:  []rational.Rational{{Num: 25, Den: 1}, {Num: 30000, Den: 1001}},
		FrameWrapped: true,
		DefaultSampleSize: func(rational.Rational) (uint32, bool) {
			return 0, false // Long-GOP frame sizes vary; VBE with temporal reordering.
		},
		DescriptorBuilder: func(r rational.Rational) Descriptor {
			return Descriptor{ContainerUL: essenceContainerUL(0x02, 0x05), SampleRate: r, FrameLayout: 1}
		},
		ValidateSample: func(size int) error {
			if size <= 0 {
				return xerr.New(xerr.InvalidArgument, "mpeg-2 long-gop sample must be non-empty", nil)
			}
			return nil
		},
	},
}

func shapeOnlyValidator(want int) ValidateSample {
	return func(size int) error {
		if size != want {
			return xerr.New(xerr.IndexInvariantViolation, "fixed-size essence sample changed length", map[string]any{
				"expected": want, "got": size,
			})
		}
		return nil
	}
}

// Capabilities returns the capability row for t, and an
// UnsupportedSampleRate error if rate is not in t's supported set, per
// §7's "essence type / rate pair not in the capability table" example.
func Capabilities(t Type, rate rational.Rational) (Capability, error) {
	cap, ok := capabilities[t]
	if !ok {
		return Capability{}, xerr.New(xerr.InvalidArgument, "unknown essence type", map[string]any{"type": int(t)})
	}
	for _, r := range cap.SampleRates {
		if r == rate {
			return cap, nil
		}
	}
	return Capability{}, xerr.New(xerr.UnsupportedSampleRate, "rate not supported by essence type", map[string]any{
		"type": t.String(), "rate": rate,
	})
}

// IsCBE reports whether this essence/rate pair produces a constant
// bytes-per-edit-unit track, per §4.4 step 1 "sample_size from the
// descriptor helper; CBE if > 0 and fixed, VBE otherwise."
func IsCBE(t Type, rate rational.Rational) (bool, error) {
	cap, err := Capabilities(t, rate)
	if err != nil {
		return false, err
	}
	_, fixed := cap.DefaultSampleSize(rate)
	return fixed, nil
}

func essenceContainerUL(category, kind byte) klv.Key {
	var k klv.Key
	copy(k[:11], essenceULPrefix[:])
	k[11] = category
	k[12] = kind
	k[13] = 0x00
	return k
}

func essenceElementKey(category, kind byte) klv.Key {
	var k klv.Key
	copy(k[:7], elementULPrefix[:])
	k[7] = category
	k[8] = kind
	k[9] = 0x01
	k[10] = 0x00
	return k
}

var essenceULPrefix = [11]byte{0x06, 0x0e, 0x2b, 0x34, 0x04, 0x01, 0x01, 0x01, 0x0d, 0x01, 0x03}
var elementULPrefix = [7]byte{0x06, 0x0e, 0x2b, 0x34, 0x01, 0x02, 0x01}
