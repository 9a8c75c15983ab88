package pid

import (
	"fmt"
	"math"

	"golang.org/x/exp/slices"
)

// AoQCorrections are the A/Q aberration coefficients of one focal plane.
// Q multiplies sqrt(qL*qR) of the plastic, Q2 the product itself; the
// other terms multiply the track coordinate and its square.
type AoQCorrections struct {
	X  float64 `json:"x"`
	A  float64 `json:"a"`
	Y  float64 `json:"y"`
	B  float64 `json:"b"`
	Q  float64 `json:"q"`
	X2 float64 `json:"x2"`
	A2 float64 `json:"a2"`
	Y2 float64 `json:"y2"`
	B2 float64 `json:"b2"`
	Q2 float64 `json:"q2"`
}

// Set assigns a coefficient by its calibration term name.
func (c *AoQCorrections) Set(term string, value float64) error {
	switch term {
	case "X":
		c.X = value
	case "A":
		c.A = value
	case "Y":
		c.Y = value
	case "B":
		c.B = value
	case "Q":
		c.Q = value
	case "X2":
		c.X2 = value
	case "A2":
		c.A2 = value
	case "Y2":
		c.Y2 = value
	case "B2":
		c.B2 = value
	case "Q2":
		c.Q2 = value
	default:
		return fmt.Errorf("unknown A/Q correction term %q", term)
	}
	return nil
}

type term struct {
	coef  float64
	input Measurement
}

// accumulate sums coef*input over the terms. Terms with a zero coefficient
// are skipped; any other term with an invalid input invalidates the sum.
func accumulate(terms []term) Measurement {
	sum := 0.0
	for _, t := range terms {
		if t.coef == 0 {
			continue
		}
		if !t.input.Valid {
			return Invalid
		}
		sum += t.coef * t.input.Value
	}
	return Valid(sum)
}

func square(m Measurement) Measurement {
	return m.Map(func(v float64) float64 { return v * v })
}

// Correction is the contribution of one focal plane to the A/Q correction.
func (c AoQCorrections) Correction(fp FocalPlane) Measurement {
	charge := fp.Plastic.ChargeProduct()
	return accumulate([]term{
		{c.X, fp.Track.X},
		{c.X2, square(fp.Track.X)},
		{c.A, fp.Track.A},
		{c.A2, square(fp.Track.A)},
		{c.Y, fp.Track.Y},
		{c.Y2, square(fp.Track.Y)},
		{c.B, fp.Track.B},
		{c.B2, square(fp.Track.B)},
		{c.Q, charge.Map(math.Sqrt)},
		{c.Q2, charge},
	})
}

// ZCorrections parametrize the Z correction of a spectrometer in the beta
// of segment BetaSegment and the drift corrected A/Q of segment
// AoQSegment.
type ZCorrections struct {
	Beta        float64 `json:"beta"`
	BetaSq      float64 `json:"beta_sq"`
	AoQ         float64 `json:"aoq"`
	AoQSq       float64 `json:"aoq_sq"`
	Const       float64 `json:"const"`
	BetaSegment int     `json:"beta_segment"`
	AoQSegment  int     `json:"aoq_segment"`
}

func (c *ZCorrections) Set(term string, value float64) error {
	switch term {
	case "Beta":
		c.Beta = value
	case "BetaSq":
		c.BetaSq = value
	case "AoQ":
		c.AoQ = value
	case "AoQSq":
		c.AoQSq = value
	case "Const":
		c.Const = value
	default:
		return fmt.Errorf("unknown Z correction term %q", term)
	}
	return nil
}

func (c ZCorrections) Correction(beam *Beam) Measurement {
	beta := Invalid
	if c.BetaSegment >= 0 && c.BetaSegment < NumSegments {
		beta = beam.Segments[c.BetaSegment].Beta
	}
	aoq := Invalid
	if c.AoQSegment >= 0 && c.AoQSegment < NumSegments {
		aoq = beam.Segments[c.AoQSegment].DriftAoQ
	}
	return accumulate([]term{
		{c.Beta, beta},
		{c.BetaSq, square(beta)},
		{c.AoQ, aoq},
		{c.AoQSq, square(aoq)},
		{c.Const, Valid(1)},
	})
}

// ReferencesSingleHit checks the precondition of the A/Q correction: a
// single pulse on both sides of the plastics at both reference planes.
func (g *GroupConfig) ReferencesSingleHit(planes map[int]FocalPlane) bool {
	for _, id := range g.ReferencePlanes {
		fp, ok := planes[id]
		if !ok || !fp.Plastic.SingleHit() {
			return false
		}
	}
	return true
}

// AoQCorrection returns the additive A/Q correction of the group, and
// false when the reference plastics do not allow correcting this event.
func (g *GroupConfig) AoQCorrection(planes map[int]FocalPlane) (Measurement, bool) {
	if !g.ReferencesSingleHit(planes) {
		return Invalid, false
	}
	// fixed order keeps the floating point sum reproducible
	ids := make([]int, 0, len(g.AoQ))
	for id := range g.AoQ {
		ids = append(ids, id)
	}
	slices.Sort(ids)

	sum := 0.0
	for _, id := range ids {
		coeffs := g.AoQ[id]
		fp, ok := planes[id]
		if !ok {
			fp = FocalPlane{ID: id}
		}
		corr := coeffs.Correction(fp)
		if !corr.Valid {
			return Invalid, true
		}
		sum += corr.Value
	}
	return Valid(sum), true
}

// Correct fills CorrAoQ and CorrZ of the group's segments from their drift
// corrected values.
func (g *GroupConfig) Correct(beam *Beam, planes map[int]FocalPlane) {
	aoqCorr, applied := g.AoQCorrection(planes)
	zCorr := g.Z.Correction(beam)

	for _, s := range g.Segments {
		if s < 0 || s >= NumSegments {
			continue
		}
		seg := &beam.Segments[s]
		if applied {
			seg.CorrAoQ = invalidUnless(seg.DriftAoQ.Valid && aoqCorr.Valid, func() float64 {
				return (seg.DriftAoQ.Value+aoqCorr.Value)*g.AoQGain + g.AoQOffset
			})
		} else {
			seg.CorrAoQ = seg.DriftAoQ
		}
		seg.CorrZ = invalidUnless(seg.DriftZ.Valid && zCorr.Valid, func() float64 {
			return seg.DriftZ.Value + zCorr.Value
		})
	}
}

func invalidUnless(ok bool, f func() float64) Measurement {
	if !ok {
		return Invalid
	}
	return Valid(f())
}
