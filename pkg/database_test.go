package pid

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestApplyCalibrationEntries(t *testing.T) {
	t.Parallel()

	t.Run("entries override the defaults", func(t *testing.T) {
		t.Parallel()
		config := DefaultConfiguration()
		aoq := []AoQCorrectionEntry{
			{Spectrometer: "BigRIPS", FocalPlane: 5, Term: "X", Value: 4e-5},
			{Spectrometer: "BigRIPS", FocalPlane: 5, Term: "A2", Value: -1e-6},
			{Spectrometer: "BigRIPS", Term: "Gain", Value: 1.01},
			{Spectrometer: "ZeroDeg", Term: "Offs", Value: -0.002},
			{Spectrometer: "ZeroDeg", FocalPlane: 11, Term: "Q", Value: 2e-5},
		}
		z := []ZCorrectionEntry{
			{Spectrometer: "ZeroDeg", Term: "AoQSq", Value: 0.3},
		}
		tofs := []TOFOffsetEntry{{TOFIndex: 2, Offset: 301.5}}
		starts := []RunStartEntry{{RunNumber: 1234, StartEvent: 50000}}

		require.NoError(t, applyCalibrationEntries(&config, aoq, z, tofs, starts))

		br := config.Groups[0]
		assert.Equal(t, AoQCorrections{X: 4e-5, A2: -1e-6}, br.AoQ[5])
		assert.Equal(t, 1.01, br.AoQGain)
		zd := config.Groups[1]
		assert.Equal(t, -0.002, zd.AoQOffset)
		assert.Equal(t, 2e-5, zd.AoQ[11].Q)
		assert.Equal(t, 0.3, zd.Z.AoQSq)
		assert.Equal(t, 5, zd.Z.BetaSegment, "reference segments kept")
		assert.Equal(t, 301.5, config.TOF[2].Offset)
		assert.Equal(t, 300.0, config.TOF[1].Offset)
		assert.Equal(t, int64(50000), config.RunStartEvents[1234])
	})

	errorCases := []struct {
		name string
		aoq  []AoQCorrectionEntry
		z    []ZCorrectionEntry
		tofs []TOFOffsetEntry
	}{
		{name: "unknown spectrometer", aoq: []AoQCorrectionEntry{{Spectrometer: "SAMURAI", Term: "X"}}},
		{name: "unknown A/Q term", aoq: []AoQCorrectionEntry{{Spectrometer: "BigRIPS", FocalPlane: 3, Term: "T"}}},
		{name: "unknown Z term", z: []ZCorrectionEntry{{Spectrometer: "BigRIPS", Term: "X"}}},
		{name: "TOF out of range", tofs: []TOFOffsetEntry{{TOFIndex: 7}}},
	}
	for _, tc := range errorCases {
		tc := tc
		t.Run(tc.name, func(t *testing.T) {
			t.Parallel()
			config := DefaultConfiguration()
			assert.Error(t, applyCalibrationEntries(&config, tc.aoq, tc.z, tc.tofs, nil))
		})
	}
}

func TestLoadRunCalibration(t *testing.T) {
	t.Parallel()

	config := DefaultConfiguration()
	config.NoDB = true
	config.Host = "db:unreachable"
	want := DefaultConfiguration()
	want.NoDB = true
	want.Host = "db:unreachable"
	require.NoError(t, LoadRunCalibration(&config, 77))
	assert.Equal(t, want, config, "file values kept")

	config.NoDB = false
	err := LoadRunCalibration(&config, 77)
	assert.ErrorContains(t, err, "database")
}
