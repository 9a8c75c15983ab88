package pid

import "math"

// MaxPlasticCharge bounds the charges accepted for logQ. Larger values are
// overflows of the digitizer.
const MaxPlasticCharge = 10000.0

// HitsL returns the multihit count of the left channel.
func (p PlasticPulse) HitsL() int {
	if len(p.TimesL) > 0 {
		return len(p.TimesL)
	}
	return p.MultihitL
}

func (p PlasticPulse) HitsR() int {
	if len(p.TimesR) > 0 {
		return len(p.TimesR)
	}
	return p.MultihitR
}

// SingleHit reports one and only one pulse on each side.
func (p PlasticPulse) SingleHit() bool {
	return p.HitsL() == 1 && p.HitsR() == 1
}

// DT is timeL - timeR, valid when both times are positive.
func (p PlasticPulse) DT() Measurement {
	if !(p.TimeL > 0 && p.TimeR > 0) {
		return Invalid
	}
	return Valid(p.TimeL - p.TimeR)
}

// LogQ is ln(qL/qR), valid when both charges lie in (0, MaxPlasticCharge).
func (p PlasticPulse) LogQ() Measurement {
	if !chargeInRange(p.ChargeL) || !chargeInRange(p.ChargeR) {
		return Invalid
	}
	return Valid(math.Log(p.ChargeL / p.ChargeR))
}

// Time is the mean of both sides, used as the plastic timing for TOF.
func (p PlasticPulse) Time() Measurement {
	if !(p.TimeL > 0 && p.TimeR > 0) {
		return Invalid
	}
	return Valid((p.TimeL + p.TimeR) / 2)
}

// ChargeProduct is qL*qR, the pulse height term of the A/Q correction.
func (p PlasticPulse) ChargeProduct() Measurement {
	if !(p.ChargeL > 0 && p.ChargeR > 0) {
		return Invalid
	}
	return Valid(p.ChargeL * p.ChargeR)
}

func chargeInRange(q float64) bool {
	return q > 0 && q < MaxPlasticCharge
}
