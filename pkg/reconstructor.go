package pid

import "math"

const (
	// SpeedOfLight in mm/ns
	SpeedOfLight = 299.792458
	// BrhoToMomentum converts Tm to MeV/c per unit charge.
	BrhoToMomentum = 299.792458
	// AtomicMassUnit in MeV
	AtomicMassUnit = 931.49410242
)

// Beta returns v/c for a flight path in mm and a time of flight in ns.
func Beta(length float64, tof Measurement) Measurement {
	if !tof.Valid || tof.Value <= 0 {
		return Invalid
	}
	return physicalBeta(length / (tof.Value * SpeedOfLight))
}

func physicalBeta(beta float64) Measurement {
	if !(beta > 0 && beta < 1) {
		return Invalid
	}
	return Valid(beta)
}

func betaGamma(beta float64) float64 {
	return beta / math.Sqrt(1-beta*beta)
}

func betaFromBetaGamma(bg float64) float64 {
	return bg / math.Sqrt(1+bg*bg)
}

// AoQ is the mass to charge ratio for a rigidity in Tm and a velocity.
func AoQ(brho, beta Measurement) Measurement {
	if !brho.Valid || !beta.Valid || brho.Value <= 0 {
		return Invalid
	}
	b, ok := physicalBeta(beta.Value).Get()
	if !ok {
		return Invalid
	}
	return Valid(brho.Value * BrhoToMomentum / (AtomicMassUnit * betaGamma(b)))
}

// TwoSectionBeta solves the velocities before and after the energy loss at
// the middle focal plane. The ion has the same A/Q in both sections, so
// beta*gamma scales with the rigidity; the total flight time fixes beta
// in the first section.
func TwoSectionBeta(tof Measurement, lengthUp, lengthDown float64, brhoUp, brhoDown Measurement) (Measurement, Measurement) {
	if !tof.Valid || !brhoUp.Valid || !brhoDown.Valid {
		return Invalid, Invalid
	}
	if tof.Value <= 0 || brhoUp.Value <= 0 || brhoDown.Value <= 0 || lengthUp <= 0 || lengthDown <= 0 {
		return Invalid, Invalid
	}
	ratio := brhoDown.Value / brhoUp.Value
	flight := func(beta1 float64) float64 {
		beta2 := betaFromBetaGamma(ratio * betaGamma(beta1))
		return lengthUp/(SpeedOfLight*beta1) + lengthDown/(SpeedOfLight*beta2)
	}

	// flight time decreases with beta1; below the light limit no solution
	lo, hi := 1e-9, 1-1e-12
	if flight(hi) >= tof.Value {
		return Invalid, Invalid
	}
	for i := 0; i < 200 && hi-lo > 1e-14; i++ {
		mid := 0.5 * (lo + hi)
		if flight(mid) > tof.Value {
			lo = mid
		} else {
			hi = mid
		}
	}
	beta1 := 0.5 * (lo + hi)
	beta2 := betaFromBetaGamma(ratio * betaGamma(beta1))
	return physicalBeta(beta1), physicalBeta(beta2)
}

// Z from the energy loss in the ionization chamber using the Bethe formula
// in its velocity dependent part.
func (ic ICConfig) Z(sum IonizationSum, beta Measurement) Measurement {
	if sum.NHits < 1 || !(sum.EnergySqSum > 0) || !beta.Valid || ic.IonPair <= 0 {
		return Invalid
	}
	b := beta.Value
	if !(b > 0 && b < 1) {
		return Invalid
	}
	b2 := b * b
	deV := math.Log(ic.IonPair*b2) - math.Log(1-b2) - b2
	if !(deV > 0) {
		return Invalid
	}
	return Valid(ic.ZSlope*math.Sqrt(sum.EnergySqSum/deV)*b + ic.ZOffset)
}

// MeasureTOF returns the flight time and velocity between the plastics of
// t. Both plastics need a single pulse on each side.
func (t TOFConfig) Measure(planes map[int]FocalPlane) TOFResult {
	start, okStart := planes[t.Start]
	stop, okStop := planes[t.Stop]
	if !okStart || !okStop || !start.Plastic.SingleHit() || !stop.Plastic.SingleHit() {
		return TOFResult{TOF: Invalid, Beta: Invalid}
	}
	tStart, ok1 := start.Plastic.Time().Get()
	tStop, ok2 := stop.Plastic.Time().Get()
	if !ok1 || !ok2 {
		return TOFResult{TOF: Invalid, Beta: Invalid}
	}
	tof := Valid(tStop - tStart + t.Offset)
	return TOFResult{TOF: tof, Beta: Beta(t.Length(), tof)}
}

// ReconstructBeam computes the RIPS sections, the TOFs and the six PID
// segments of an event. Corrections are not applied.
func (c *Calibration) ReconstructBeam(planes map[int]FocalPlane) Beam {
	beam := Beam{
		TOF:   make([]TOFResult, len(c.TOF)),
		Delta: make([]Measurement, len(c.RIPS)),
		Brho:  make([]Measurement, len(c.RIPS)),
	}
	for i, rips := range c.RIPS {
		beam.Delta[i], beam.Brho[i] = rips.Reconstruct(planes[rips.Upstream].Track, planes[rips.Downstream].Track)
	}
	for i, tof := range c.TOF {
		beam.TOF[i] = tof.Measure(planes)
	}
	for s, sc := range c.Segments {
		beam.Segments[s] = c.reconstructSegment(sc, planes, &beam)
	}
	return beam
}

func (c *Calibration) reconstructSegment(sc SegmentConfig, planes map[int]FocalPlane, beam *Beam) Segment {
	seg := Segment{}
	tof := beam.TOF[sc.TOF]
	tofConfig := c.TOF[sc.TOF]

	switch len(sc.RIPS) {
	case 1:
		r := sc.RIPS[0]
		seg.Delta, seg.Brho = beam.Delta[r], beam.Brho[r]
		seg.Beta = tof.Beta
		seg.AoQ = AoQ(seg.Brho, seg.Beta)
	case 2:
		up, down := sc.RIPS[0], sc.RIPS[1]
		seg.Delta, seg.Brho = beam.Delta[down], beam.Brho[down]
		_, seg.Beta = TwoSectionBeta(tof.TOF, tofConfig.LengthUp, tofConfig.LengthDown, beam.Brho[up], beam.Brho[down])
		seg.AoQ = AoQ(seg.Brho, seg.Beta)
	}
	// a segment without rigidity is not available as a whole; the time
	// of flight velocity stays on Beam.TOF
	if !seg.Brho.Valid {
		return Segment{Delta: seg.Delta}
	}

	ic := c.ICs[sc.IC]
	seg.Z = ic.Z(planes[ic.FocalPlane].IC, seg.Beta)

	seg.DriftAoQ, seg.DriftZ = seg.AoQ, seg.Z
	seg.CorrAoQ, seg.CorrZ = seg.AoQ, seg.Z
	return seg
}
