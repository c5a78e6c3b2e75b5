// Package rational implements the edit-rate position/duration conversion
// algebra and SMPTE-12M timecode encode/decode used throughout the
// engine to relate material-package, tape/import-source and per-essence
// timelines (§4.1).
package rational

import "fmt"

// Rational is a signed edit rate or sample rate. Equality is structural:
// 25/1 and 50/2 are not equal, matching §3 "Equality is structural, not
// reduced."
type Rational struct {
	Num int32
	Den int32
}

// Canonical rates named in §3.
var (
	Rate25       = Rational{25, 1}
	Rate50       = Rational{50, 1}
	Rate29_97    = Rational{30000, 1001}
	Rate59_94    = Rational{60000, 1001}
	Rate48000    = Rational{48000, 1}
)

// Equal reports structural equality.
func (r Rational) Equal(o Rational) bool {
	return r.Num == o.Num && r.Den == o.Den
}

func (r Rational) String() string {
	return fmt.Sprintf("%d/%d", r.Num, r.Den)
}

// RoundingMode selects the rounding bias of a conversion, per the §4.1
// table. AutoPosition and AutoDuration round in opposite directions for
// the same factor pair -- this distinction matters for determining
// whether a lower-rate sample covers complete higher-rate samples
// (Design Notes §9) and must never be collapsed into one "Auto" value.
type RoundingMode int

// Rounding modes.
const (
	Down RoundingMode = iota
	Up
	Nearest
	AutoPosition
	AutoDuration
)

func roundingOffset(mode RoundingMode, factorTop, factorBottom int64) int64 {
	switch mode {
	case Down:
		return 0
	case Up:
		return factorBottom - 1
	case Nearest:
		return factorBottom / 2
	case AutoPosition:
		if factorTop < factorBottom {
			return factorBottom - 1
		}
		return 0
	case AutoDuration:
		if factorTop < factorBottom {
			return 0
		}
		return factorBottom - 1
	default:
		return 0
	}
}

// ConvertPositionFactor converts inPos by the rational factor
// factorTop/factorBottom with the given rounding. This is the algebraic
// core shared by ConvertPosition and ConvertDuration: both edit-rate
// variants reduce to a call here with different derived factors.
func ConvertPositionFactor(inPos int64, factorTop, factorBottom int64, mode RoundingMode) int64 {
	if factorBottom == 0 {
		panic("rational: factorBottom is zero")
	}

	negative := inPos < 0
	p := inPos
	if negative {
		p = -p
	}

	round := roundingOffset(mode, factorTop, factorBottom)

	var result int64
	// Guard against overflow for large positions with the split identity
	// of §4.1: (p/fb)*ft + ((p%fb)*ft + round)/fb.
	const overflowGuard = int64(1) << 31
	if p > overflowGuard {
		whole := p / factorBottom
		rem := p % factorBottom
		result = whole*factorTop + (rem*factorTop+round)/factorBottom
	} else {
		result = (p*factorTop + round) / factorBottom
	}

	if negative {
		result = -result
	}
	return result
}

// ConvertPosition converts a position on the inRate timeline to the
// outRate timeline.
func ConvertPosition(inRate Rational, inPos int64, outRate Rational, mode RoundingMode) int64 {
	factorTop := int64(outRate.Num) * int64(inRate.Den)
	factorBottom := int64(outRate.Den) * int64(inRate.Num)
	return ConvertPositionFactor(inPos, factorTop, factorBottom, mode)
}

// ConvertDuration has identical algebra to ConvertPosition; it exists as
// a separate name because callers must choose AutoDuration rather than
// AutoPosition when mode is one of the Auto variants (§4.1).
func ConvertDuration(inRate Rational, inDur int64, outRate Rational, mode RoundingMode) int64 {
	return ConvertPosition(inRate, inDur, outRate, mode)
}

// RoundedTCBase returns round(num/den), the nominal timecode base used
// to select drop-frame rules and BCD field layout.
func RoundedTCBase(r Rational) uint16 {
	if r.Den == 0 {
		return 0
	}
	num := float64(r.Num)
	den := float64(r.Den)
	v := num/den + 0.5
	return uint16(v)
}
