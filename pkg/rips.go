package pid

import (
	"bufio"
	"errors"
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"

	"gonum.org/v1/gonum/mat"
)

// Transfer matrix layout, COSY order: rows are the initial coordinates
// (x, a, y, b, l, delta), columns the final ones (x, a, y, b, l).
const (
	matrixRows = 6
	matrixCols = 5

	rowX     = 0
	rowA     = 1
	rowDelta = 5
	colX     = 0
)

type TransferMatrix struct {
	m *mat.Dense
}

func NewTransferMatrix(elements []float64) (*TransferMatrix, error) {
	if len(elements) != matrixRows*matrixCols {
		return nil, fmt.Errorf("transfer matrix needs %d elements, got %d", matrixRows*matrixCols, len(elements))
	}
	return &TransferMatrix{m: mat.NewDense(matrixRows, matrixCols, elements)}, nil
}

// ReadTransferMatrix parses a first order matrix file. Lines that do not
// start with five numbers are headers or separators and are skipped. The
// COSY power column after the fifth number is ignored.
func ReadTransferMatrix(r io.Reader, source string) (*TransferMatrix, error) {
	elements := make([]float64, 0, matrixRows*matrixCols)
	rows := 0
	scanner := bufio.NewScanner(r)
	for scanner.Scan() {
		fields := strings.Fields(scanner.Text())
		if len(fields) < matrixCols {
			continue
		}
		row := make([]float64, matrixCols)
		numeric := true
		for i := 0; i < matrixCols; i++ {
			v, err := strconv.ParseFloat(fields[i], 64)
			if err != nil {
				numeric = false
				break
			}
			row[i] = v
		}
		if !numeric {
			continue
		}
		if rows == matrixRows {
			return nil, &ErrMatrix{Filename: source, Err: errors.New("more than 6 matrix rows")}
		}
		elements = append(elements, row...)
		rows++
	}
	if err := scanner.Err(); err != nil {
		return nil, &ErrMatrix{Filename: source, Err: err}
	}
	if rows != matrixRows {
		return nil, &ErrMatrix{Filename: source, Err: fmt.Errorf("found %d matrix rows, want %d", rows, matrixRows)}
	}
	return NewTransferMatrix(elements)
}

func LoadTransferMatrix(filename string) (*TransferMatrix, error) {
	file, err := os.Open(filename)
	if err != nil {
		return nil, &ErrOpenFile{Filename: filename, Err: err}
	}
	defer file.Close()
	return ReadTransferMatrix(file, filename)
}

// Element returns (final|initial) in COSY notation.
func (t *TransferMatrix) Element(initial, final int) float64 {
	return t.m.At(initial, final)
}

// RIPS reconstructs the rigidity of one spectrometer section from the
// tracks at its two ends.
type RIPS struct {
	Name       string
	Upstream   int
	Downstream int
	Matrix     *TransferMatrix
	CenterBrho float64
}

// Reconstruct returns delta in percent and the rigidity in Tm. The
// rigidity needs a positive central value.
func (r *RIPS) Reconstruct(up, down Track) (Measurement, Measurement) {
	if r.Matrix == nil || !up.ValidX() || !down.X.Valid {
		return Invalid, Invalid
	}
	xx := r.Matrix.Element(rowX, colX)
	xa := r.Matrix.Element(rowA, colX)
	xd := r.Matrix.Element(rowDelta, colX)
	if xd == 0 {
		return Invalid, Invalid
	}
	delta := Valid((down.X.Value - xx*up.X.Value - xa*up.A.Value) / xd)
	if r.CenterBrho <= 0 {
		return delta, Invalid
	}
	brho := delta.Map(func(d float64) float64 {
		return r.CenterBrho * (1 + d/100)
	})
	return delta, brho
}
