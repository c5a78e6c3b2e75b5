package rational

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestTimecodeHMSFNonDrop(t *testing.T) {
	tc := Timecode{RoundedTCBase: 25, Offset: 25*3600 + 25*60*5 + 25*3 + 7}
	hour, minute, second, frame := tc.HMSF()
	require.Equal(t, 1, hour)
	require.Equal(t, 5, minute)
	require.Equal(t, 3, second)
	require.Equal(t, 7, frame)
}

func TestTimecodeBCDRoundTrip(t *testing.T) {
	cases := []Timecode{
		{RoundedTCBase: 25, Offset: 25*3600 + 25*60*5 + 25*3 + 7},
		{RoundedTCBase: 30, DropFrame: true, Offset: 30*3600*2 + 15},
		{RoundedTCBase: 60, DropFrame: true, Offset: 60*3600 + 121},
		{RoundedTCBase: 50, Offset: 50*60 + 13},
	}

	for _, tc := range cases {
		wantHour, wantMin, wantSec, wantFrame := tc.HMSF()
		encoded := tc.EncodeBCD()
		hour, minute, second, frame, dropFrame := DecodeBCD(encoded, tc.RoundedTCBase)

		require.Equal(t, wantHour, hour, "base=%d offset=%d", tc.RoundedTCBase, tc.Offset)
		require.Equal(t, wantMin, minute)
		require.Equal(t, wantSec, second)
		require.Equal(t, wantFrame, frame)
		require.Equal(t, tc.DropFrame, dropFrame)
	}
}
