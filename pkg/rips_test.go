package pid

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const matrixText = `  Matrix F3-F5 (first order)
 ---------------------------------------------
  1.500000     0.2000000     0.000000     0.000000     0.000000     100000
  0.3000000    0.6000000     0.000000     0.000000     0.000000     010000
  0.000000     0.000000      1.000000     0.000000     0.000000     001000
  0.000000     0.000000      0.000000     1.000000     0.000000     000100
  0.000000     0.000000      0.000000     0.000000     1.000000     000010
  30.00000     0.000000      0.000000     0.000000     0.000000     000001
 ---------------------------------------------
`

func TestReadTransferMatrix(t *testing.T) {
	t.Parallel()

	m, err := ReadTransferMatrix(strings.NewReader(matrixText), "inline")
	require.NoError(t, err)
	assert.Equal(t, 1.5, m.Element(0, 0))
	assert.Equal(t, 0.3, m.Element(1, 0))
	assert.Equal(t, 0.6, m.Element(1, 1))
	assert.Equal(t, 30.0, m.Element(5, 0))

	lines := strings.Split(matrixText, "\n")
	short := strings.Join(append(lines[:3], lines[4:]...), "\n")
	_, err = ReadTransferMatrix(strings.NewReader(short), "short")
	var matErr *ErrMatrix
	assert.ErrorAs(t, err, &matErr)

	long := matrixText + "  1 2 3 4 5 000000\n"
	_, err = ReadTransferMatrix(strings.NewReader(long), "long")
	assert.ErrorAs(t, err, &matErr)

	_, err = LoadTransferMatrix(filepath.Join(t.TempDir(), "missing.mat"))
	var openErr *ErrOpenFile
	assert.ErrorAs(t, err, &openErr)
	assert.ErrorIs(t, err, os.ErrNotExist)
}

func TestRIPSReconstruct(t *testing.T) {
	t.Parallel()

	m, err := ReadTransferMatrix(strings.NewReader(matrixText), "inline")
	require.NoError(t, err)
	rips := &RIPS{Name: "F3-F5", Upstream: 3, Downstream: 5, Matrix: m, CenterBrho: 7}

	up := Track{X: Valid(2), A: Valid(10), Y: Valid(0), B: Valid(0)}
	down := Track{X: Valid(51)}

	t.Run("delta and rigidity", func(t *testing.T) {
		t.Parallel()
		delta, brho := rips.Reconstruct(up, down)
		require.True(t, delta.Valid)
		require.True(t, brho.Valid)
		assert.InDelta(t, 1.5, delta.Value, 1e-12)
		assert.InDelta(t, 7.105, brho.Value, 1e-12)
	})

	t.Run("missing upstream angle", func(t *testing.T) {
		t.Parallel()
		delta, brho := rips.Reconstruct(Track{X: Valid(2)}, down)
		assert.False(t, delta.Valid)
		assert.False(t, brho.Valid)
	})

	t.Run("missing downstream position", func(t *testing.T) {
		t.Parallel()
		delta, brho := rips.Reconstruct(up, Track{A: Valid(1)})
		assert.False(t, delta.Valid)
		assert.False(t, brho.Valid)
	})

	t.Run("no central rigidity", func(t *testing.T) {
		t.Parallel()
		unset := *rips
		unset.CenterBrho = 0
		delta, brho := unset.Reconstruct(up, down)
		assert.True(t, delta.Valid)
		assert.False(t, brho.Valid)
	})

	t.Run("no dispersion", func(t *testing.T) {
		t.Parallel()
		flat, err := NewTransferMatrix(make([]float64, 30))
		require.NoError(t, err)
		r := &RIPS{Matrix: flat, CenterBrho: 7}
		delta, _ := r.Reconstruct(up, down)
		assert.False(t, delta.Valid)
	})
}
