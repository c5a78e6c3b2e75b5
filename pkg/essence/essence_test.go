package essence

import (
	"testing"

	"github.com/stretchr/testify/require"

	"mxfauthor/pkg/rational"
)

func TestCapabilitiesUnsupportedRateRejected(t *testing.T) {
	_, err := Capabilities(PCM, rational.Rational{Num: 44100, Den: 1})
	require.Error(t, err)
}

func TestCapabilitiesKnownRateAccepted(t *testing.T) {
	cap, err := Capabilities(PCM, rational.Rational{Num: 48000, Den: 1})
	require.NoError(t, err)
	require.False(t, cap.FrameWrapped)
}

func TestIsCBEForPCMAndDV(t *testing.T) {
	cbe, err := IsCBE(PCM, rational.Rational{Num: 48000, Den: 1})
	require.NoError(t, err)
	require.True(t, cbe)

	cbe, err = IsCBE(DV, rational.Rational{Num: 25, Den: 1})
	require.NoError(t, err)
	require.True(t, cbe)
}

func TestIsCBEForMPEG2LongGOPIsVariable(t *testing.T) {
	cbe, err := IsCBE(MPEG2LongGOP, rational.Rational{Num: 25, Den: 1})
	require.NoError(t, err)
	require.False(t, cbe)
}

func TestUnknownEssenceTypeRejected(t *testing.T) {
	_, err := Capabilities(Type(999), rational.Rational{Num: 25, Den: 1})
	require.Error(t, err)
}

func TestDV25DefaultSampleSizeMatchesScenario(t *testing.T) {
	cap, err := Capabilities(DV, rational.Rational{Num: 25, Den: 1})
	require.NoError(t, err)
	size, fixed := cap.DefaultSampleSize(rational.Rational{Num: 25, Den: 1})
	require.True(t, fixed)
	require.EqualValues(t, 144000, size)
	require.NoError(t, cap.ValidateSample(144000))
	require.Error(t, cap.ValidateSample(144001))
}

func TestPCMDefaultSampleSizeMatchesScenario(t *testing.T) {
	cap, err := Capabilities(PCM, rational.Rational{Num: 48000, Den: 1})
	require.NoError(t, err)
	size, fixed := cap.DefaultSampleSize(rational.Rational{Num: 48000, Den: 1})
	require.True(t, fixed)
	require.EqualValues(t, 2, size)
}

func TestContainerAndElementKeysDistinctPerFamily(t *testing.T) {
	seen := map[string]bool{}
	seenElement := map[string]bool{}
	for _, typ := range []Type{DV, D10, AVCIntra, Uncompressed, MPEG2LongGOP, PCM} {
		cap, err := Capabilities(typ, cap0(typ))
		require.NoError(t, err)
		k := cap.ContainerUL.String()
		require.False(t, seen[k], "duplicate container UL for %v", typ)
		seen[k] = true
		e := cap.ElementKey.String()
		require.False(t, seenElement[e], "duplicate element key for %v", typ)
		seenElement[e] = true
	}
}

func cap0(t Type) rational.Rational {
	return capabilities[t].SampleRates[0]
}
