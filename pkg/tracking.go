package pid

import (
	"math"

	"gonum.org/v1/gonum/mat"
)

// Track is the beam trajectory at the nominal z of a focal plane. X and Y
// are in mm, the angles A and B in mrad. Each view is determined
// independently of the other.
type Track struct {
	X Measurement
	A Measurement
	Y Measurement
	B Measurement
}

func (t Track) ValidX() bool {
	return t.X.Valid && t.A.Valid
}

func (t Track) ValidY() bool {
	return t.Y.Valid && t.B.Valid
}

// Sentinel returns x, a, y, b with Undetermined for missing components.
func (t Track) Sentinel() [4]float64 {
	return [4]float64{
		t.X.Or(Undetermined),
		t.A.Or(Undetermined),
		t.Y.Or(Undetermined),
		t.B.Or(Undetermined),
	}
}

type view int

const (
	viewX view = iota
	viewY
)

func (v view) read(hit PPACHit) (coord float64, z float64, fired bool) {
	if v == viewY {
		return hit.Y, hit.YZ, hit.FiredY
	}
	return hit.X, hit.XZ, hit.FiredX
}

// Fit reconstructs the track at zRef from the detectors of a focal plane.
// A view needs at least one fired detector on each side of the focal
// point, otherwise both of its components are left undetermined.
func Fit(hits HitSet, zRef float64) Track {
	var track Track
	track.X, track.A = fitView(hits, zRef, viewX)
	track.Y, track.B = fitView(hits, zRef, viewY)
	return track
}

func fitView(hits HitSet, zRef float64, v view) (Measurement, Measurement) {
	var sumZ2, sumZ, n, sumZC, sumC float64
	upstream, downstream := false, false

	for slot, hit := range hits.Hits {
		coord, z, fired := v.read(hit)
		if !fired {
			continue
		}
		if slot < PPACsPerFocalPlane/2 {
			upstream = true
		} else {
			downstream = true
		}
		dz := z - zRef
		sumZ2 += dz * dz
		sumZ += dz
		sumZC += dz * coord
		sumC += coord
		n++
	}
	if !upstream || !downstream {
		return Invalid, Invalid
	}

	// Hits sharing a single z leave the slope free.
	det := sumZ2*n - sumZ*sumZ
	if det <= 1e-12*sumZ2*n {
		return Invalid, Invalid
	}

	normal := mat.NewDense(2, 2, []float64{
		sumZ2, sumZ,
		sumZ, n,
	})
	rhs := mat.NewVecDense(2, []float64{sumZC, sumC})

	var params mat.VecDense
	if err := params.SolveVec(normal, rhs); err != nil {
		return Invalid, Invalid
	}
	slope := params.AtVec(0)
	offset := params.AtVec(1)
	return Valid(offset), Valid(math.Atan(slope) * 1000)
}
