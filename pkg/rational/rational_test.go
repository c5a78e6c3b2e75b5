package rational

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestConvertPositionRoundTrip(t *testing.T) {
	rates := []Rational{Rate25, Rate50, Rate29_97, Rate59_94, Rate48000}

	for _, r1 := range rates {
		for _, r2 := range rates {
			for p := int64(0); p < 5000; p += 137 {
				out := ConvertPosition(r1, p, r2, AutoPosition)
				back := ConvertPosition(r2, out, r1, AutoPosition)
				diff := back - p
				if diff < 0 {
					diff = -diff
				}
				require.LessOrEqual(t, diff, int64(1), "r1=%v r2=%v p=%d out=%d back=%d", r1, r2, p, out, back)
			}
		}
	}
}

func TestConvertPositionMonotonic(t *testing.T) {
	r1 := Rate29_97
	r2 := Rate25

	for p := int64(0); p < 10000; p += 97 {
		down := ConvertPosition(r1, p, r2, Down)
		nearest := ConvertPosition(r1, p, r2, Nearest)
		up := ConvertPosition(r1, p, r2, Up)
		require.LessOrEqual(t, down, nearest)
		require.LessOrEqual(t, nearest, up)
	}
}

func TestConvertPositionFactorNegative(t *testing.T) {
	got := ConvertPositionFactor(-10, 1, 2, Down)
	require.Equal(t, int64(-5), got)
}

func TestRoundedTCBase(t *testing.T) {
	require.Equal(t, uint16(25), RoundedTCBase(Rate25))
	require.Equal(t, uint16(30), RoundedTCBase(Rate29_97))
	require.Equal(t, uint16(60), RoundedTCBase(Rate59_94))
}

func TestConvertPositionAutoOppositeOfDuration(t *testing.T) {
	// factorTop < factorBottom: AutoPosition rounds up, AutoDuration rounds down.
	pos := ConvertPositionFactor(3, 1, 2, AutoPosition)
	dur := ConvertPositionFactor(3, 1, 2, AutoDuration)
	require.Equal(t, int64(2), pos)
	require.Equal(t, int64(1), dur)
}

func TestOverflowGuardLargePosition(t *testing.T) {
	big := int64(1) << 40
	got := ConvertPositionFactor(big, 30000, 1001, Down)
	require.Greater(t, got, int64(0))
}
