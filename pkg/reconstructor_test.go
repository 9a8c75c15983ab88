package pid

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestBeta(t *testing.T) {
	t.Parallel()

	beta := Beta(30000, Valid(200))
	require.True(t, beta.Valid)
	assert.InDelta(t, 30000/(200*SpeedOfLight), beta.Value, 1e-12)

	assert.False(t, Beta(30000, Valid(0)).Valid)
	assert.False(t, Beta(30000, Valid(-10)).Valid)
	assert.False(t, Beta(30000, Invalid).Valid)
	// faster than light
	assert.False(t, Beta(30000, Valid(50)).Valid)
}

func TestAoQ(t *testing.T) {
	t.Parallel()

	aoq := AoQ(Valid(7), Valid(0.6))
	require.True(t, aoq.Valid)
	assert.InDelta(t, 7*BrhoToMomentum/(AtomicMassUnit*0.75), aoq.Value, 1e-12)

	assert.False(t, AoQ(Valid(0), Valid(0.6)).Valid)
	assert.False(t, AoQ(Valid(7), Valid(1)).Valid)
	assert.False(t, AoQ(Invalid, Valid(0.6)).Valid)
	assert.False(t, AoQ(Valid(7), Invalid).Valid)
}

func TestTwoSectionBeta(t *testing.T) {
	t.Parallel()

	t.Run("equal rigidities give one velocity", func(t *testing.T) {
		t.Parallel()
		b1, b2 := TwoSectionBeta(Valid(250), 20000, 20000, Valid(7), Valid(7))
		require.True(t, b1.Valid)
		require.True(t, b2.Valid)
		want := 40000 / (250 * SpeedOfLight)
		assert.InDelta(t, want, b1.Value, 1e-9)
		assert.InDelta(t, want, b2.Value, 1e-9)
	})

	t.Run("energy loss between sections", func(t *testing.T) {
		t.Parallel()
		const tof, l1, l2 = 260.0, 23488.0, 23488.0
		b1, b2 := TwoSectionBeta(Valid(tof), l1, l2, Valid(7.1), Valid(6.9))
		require.True(t, b1.Valid)
		require.True(t, b2.Valid)
		assert.Greater(t, b1.Value, b2.Value)

		flight := l1/(SpeedOfLight*b1.Value) + l2/(SpeedOfLight*b2.Value)
		assert.InDelta(t, tof, flight, 1e-6)
		// same A/Q on both sides
		assert.InDelta(t, AoQ(Valid(7.1), b1).Value, AoQ(Valid(6.9), b2).Value, 1e-9)
	})

	t.Run("faster than light", func(t *testing.T) {
		t.Parallel()
		b1, b2 := TwoSectionBeta(Valid(100), 23488, 23488, Valid(7), Valid(7))
		assert.False(t, b1.Valid)
		assert.False(t, b2.Valid)
	})

	t.Run("missing rigidity", func(t *testing.T) {
		t.Parallel()
		_, b2 := TwoSectionBeta(Valid(260), 23488, 23488, Invalid, Valid(7))
		assert.False(t, b2.Valid)
	})
}

func TestICZ(t *testing.T) {
	t.Parallel()

	ic := ICConfig{FocalPlane: 7, IonPair: 4866, ZSlope: 2.5, ZOffset: 1}
	sum := IonizationSum{NHits: 6, EnergyAvSum: 10, EnergySqSum: 100}

	z := ic.Z(sum, Valid(0.6))
	require.True(t, z.Valid)
	deV := math.Log(4866*0.36) - math.Log(0.64) - 0.36
	assert.InDelta(t, 2.5*math.Sqrt(100/deV)*0.6+1, z.Value, 1e-12)

	assert.False(t, ic.Z(IonizationSum{NHits: 0, EnergySqSum: 100}, Valid(0.6)).Valid)
	assert.False(t, ic.Z(IonizationSum{NHits: 6, EnergySqSum: 0}, Valid(0.6)).Valid)
	assert.False(t, ic.Z(sum, Invalid).Valid)
	assert.False(t, ic.Z(sum, Valid(1.2)).Valid)

	// ln(ionpair*beta^2) below the relativistic terms
	low := ICConfig{IonPair: 1, ZSlope: 1}
	assert.False(t, low.Z(sum, Valid(0.5)).Valid)
}

func singleHitPlastic(tL, tR float64) PlasticPulse {
	return PlasticPulse{TimeL: tL, TimeR: tR, ChargeL: 100, ChargeR: 100, MultihitL: 1, MultihitR: 1}
}

func TestTOFMeasure(t *testing.T) {
	t.Parallel()

	cfg := TOFConfig{Start: 3, Stop: 7, Offset: 5, LengthUp: 23488, LengthDown: 23488}
	planes := map[int]FocalPlane{
		3: {ID: 3, Plastic: singleHitPlastic(10, 12)},
		7: {ID: 7, Plastic: singleHitPlastic(300, 302)},
	}

	res := cfg.Measure(planes)
	require.True(t, res.TOF.Valid)
	assert.InDelta(t, 295, res.TOF.Value, 1e-12)
	assert.InDelta(t, 46976/(295*SpeedOfLight), res.Beta.Value, 1e-12)

	multi := planes[7]
	multi.Plastic.MultihitL = 2
	res = cfg.Measure(map[int]FocalPlane{3: planes[3], 7: multi})
	assert.False(t, res.TOF.Valid)
	assert.False(t, res.Beta.Valid)

	res = cfg.Measure(map[int]FocalPlane{3: planes[3]})
	assert.False(t, res.TOF.Valid)
}
