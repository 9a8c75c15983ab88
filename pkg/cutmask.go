package pid

import "golang.org/x/exp/slices"

// CutInputs are the plastic observables of one focal plane that cuts are
// tested against.
type CutInputs struct {
	DT   Measurement
	LogQ Measurement
	X    Measurement
}

func CutInputsOf(fp FocalPlane) CutInputs {
	return CutInputs{DT: fp.DT, LogQ: fp.LogQ, X: fp.Track.X}
}

// Point returns the coordinates the cut type is drawn in, or false if one
// of them is invalid.
func (c CutType) Point(in CutInputs) (float64, float64, bool) {
	var x, y Measurement
	switch c {
	case DTvsLogQ:
		x, y = in.LogQ, in.DT
	case LogQvsX:
		x, y = in.X, in.LogQ
	case DTvsX:
		x, y = in.X, in.DT
	default:
		return 0, 0, false
	}
	if !x.Valid || !y.Valid {
		return 0, 0, false
	}
	return x.Value, y.Value, true
}

// CutMask summarizes the plastic cuts of one event.
//
// Fine has bit fidx*3+k set when cut type k is defined for the fidx-th
// focal plane and passed. Coarse1 has bit fidx set when every defined cut
// of that focal plane passed; Coarse0 is the same restricted to the
// upstream focal planes.
type CutMask struct {
	Coarse0 int
	Coarse1 int
	Fine    int
}

// EvaluateCutMask tests every defined cut of every focal plane in
// fpIDs. The position of an id in fpIDs fixes its bits.
func EvaluateCutMask(fpIDs []int, upstream []int, inputs map[int]CutInputs, cuts *CutSet) CutMask {
	var mask CutMask
	for fidx, id := range fpIDs {
		in := inputs[id]
		allPassed := true
		for k := CutType(0); k < NumCutTypes; k++ {
			polygon, ok := cuts.Get(k, id)
			if !ok {
				continue
			}
			if passesCut(polygon, k, in) {
				mask.Fine |= 1 << (fidx*int(NumCutTypes) + int(k))
			} else {
				allPassed = false
			}
		}
		if !allPassed {
			continue
		}
		mask.Coarse1 |= 1 << fidx
		if slices.Contains(upstream, id) {
			mask.Coarse0 |= 1 << fidx
		}
	}
	return mask
}

func passesCut(polygon *Polygon, t CutType, in CutInputs) bool {
	x, y, ok := t.Point(in)
	if !ok {
		return false
	}
	return polygon.IsInside(x, y)
}

// CheckBit reports whether bit n of mask is set.
func CheckBit(mask int, n int) bool {
	return mask&(1<<n) != 0
}

// Passed reports the outcome of cut type k at the fidx-th focal plane. An
// undefined cut reads as not passed.
func (m CutMask) Passed(fidx int, k CutType) bool {
	return CheckBit(m.Fine, fidx*int(NumCutTypes)+int(k))
}

func (m CutMask) FocalPlanePassed(fidx int) bool {
	return CheckBit(m.Coarse1, fidx)
}

// AllPassed reports whether every listed focal plane passed its cuts.
func (m CutMask) AllPassed(fidxs ...int) bool {
	for _, fidx := range fidxs {
		if !m.FocalPlanePassed(fidx) {
			return false
		}
	}
	return true
}
