package pid

import (
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go-hep.org/x/hep/hbook"
)

// profile builds a drift profile with one bin per block.
func profile(values ...float64) *hbook.H1D {
	h := hbook.NewH1D(len(values), 0, float64(len(values)*BlockSize))
	for i, v := range values {
		h.Fill(float64(i*BlockSize)+0.5*BlockSize, v)
	}
	return h
}

func TestDriftPair(t *testing.T) {
	t.Parallel()

	pair := DriftPair{Gain: profile(1.0, 2.0, 0.5), Offset: profile(0, 1, -1)}

	cases := []struct {
		name       string
		index      int64
		gain, offs float64
	}{
		{"first block", 0, 1, 0},
		{"last event of first block", BlockSize - 1, 1, 0},
		{"second block", 15000, 2, 1},
		{"third block", 29999, 0.5, -1},
		{"past the table", 30000, 1, 0},
		{"far past the table", 1 << 40, 1, 0},
		{"negative", -1, 1, 0},
	}
	for _, tc := range cases {
		gain, offs := pair.At(tc.index)
		assert.Equal(t, tc.gain, gain, tc.name)
		assert.Equal(t, tc.offs, offs, tc.name)
	}

	missing := DriftPair{Gain: profile(2.0)}
	gain, offs := missing.At(0)
	assert.Equal(t, 1.0, gain)
	assert.Equal(t, 0.0, offs)
}

func TestDriftCorrector(t *testing.T) {
	t.Parallel()

	seg := Segment{Z: Valid(20), AoQ: Valid(2.5)}

	t.Run("zero corrector is the identity", func(t *testing.T) {
		t.Parallel()
		var d DriftCorrector
		for _, index := range []int64{0, 123456, 1 << 50} {
			got := d.Correct(seg, index)
			assert.Equal(t, seg.Z, got.DriftZ)
			assert.Equal(t, seg.AoQ, got.DriftAoQ)
		}
	})

	t.Run("nil table is the identity", func(t *testing.T) {
		t.Parallel()
		var table *DriftTable
		got := table.Corrector("F7", "BR").Correct(seg, 15000)
		assert.Equal(t, seg.Z, got.DriftZ)
		assert.Equal(t, seg.AoQ, got.DriftAoQ)
	})

	t.Run("profiles looked up by block", func(t *testing.T) {
		t.Parallel()
		table := NewDriftTable(map[string]*hbook.H1D{
			"hgainF7": profile(1.0, 2.0),
			"hoffsF7": profile(0, 1),
			"hgainBR": profile(1.1, 0.9),
			"hoffsBR": profile(0, 0.1),
		})
		d := table.Corrector("F7", "BR")
		got := d.Correct(seg, 15000)
		require.True(t, got.DriftZ.Valid)
		require.True(t, got.DriftAoQ.Valid)
		assert.InDelta(t, 41, got.DriftZ.Value, 1e-12)
		assert.InDelta(t, 2.35, got.DriftAoQ.Value, 1e-12)
		// raw values are untouched
		assert.Equal(t, seg.Z, got.Z)
		assert.Equal(t, seg.AoQ, got.AoQ)

		got = d.Correct(seg, 20000)
		assert.Equal(t, seg.Z, got.DriftZ)
	})

	t.Run("missing pair is the identity", func(t *testing.T) {
		t.Parallel()
		table := NewDriftTable(map[string]*hbook.H1D{"hgainF7": profile(2.0)})
		got := table.Corrector("F7", "BR").Correct(seg, 0)
		assert.Equal(t, seg.Z, got.DriftZ)
		assert.Equal(t, seg.AoQ, got.DriftAoQ)
	})

	t.Run("invalid stays invalid", func(t *testing.T) {
		t.Parallel()
		table := NewDriftTable(map[string]*hbook.H1D{
			"hgainF7": profile(2.0),
			"hoffsF7": profile(1.0),
		})
		got := table.Corrector("F7", "BR").Correct(Segment{}, 0)
		assert.False(t, got.DriftZ.Valid)
		assert.False(t, got.DriftAoQ.Valid)
	})
}

type warnings struct {
	nopLogger
	messages []string
}

func (w *warnings) Warn(message string, module string) {
	w.messages = append(w.messages, module+": "+message)
}

// Not parallel: it swaps the package logger.
func TestLoadDriftMissingTable(t *testing.T) {
	captured := &warnings{}
	SetLogger(captured)
	t.Cleanup(func() { SetLogger(nil) })

	config := DefaultConfiguration()
	config.DriftFile = filepath.Join(t.TempDir(), "drift.root")
	table, err := loadDrift(config)
	require.NoError(t, err)
	assert.Nil(t, table)
	require.Len(t, captured.messages, 1)
	assert.Contains(t, captured.messages[0], "drift: Drift correction file")
	assert.Contains(t, captured.messages[0], "not found")

	pair := table.Pair(config.Groups[0].DriftAoQ)
	gain, offs := pair.At(0)
	assert.Equal(t, 1.0, gain)
	assert.Equal(t, 0.0, offs)

	captured.messages = nil
	config.DriftFile = ""
	_, err = loadDrift(config)
	require.NoError(t, err)
	require.Len(t, captured.messages, 1)
	assert.Contains(t, captured.messages[0], "No drift correction file")
}
