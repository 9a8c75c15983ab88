package pid

import "math"

// Undetermined is the value written to output files for a missing track
// component.
const Undetermined = -99999.0

// Measurement is a derived quantity that may not exist for an event.
type Measurement struct {
	Value float64
	Valid bool
}

// Invalid is the zero Measurement.
var Invalid = Measurement{}

// Valid wraps v, rejecting NaN and infinities.
func Valid(v float64) Measurement {
	if math.IsNaN(v) || math.IsInf(v, 0) {
		return Invalid
	}
	return Measurement{Value: v, Valid: true}
}

func (m Measurement) Get() (float64, bool) {
	return m.Value, m.Valid
}

// Or returns the value, or def when the measurement is invalid.
func (m Measurement) Or(def float64) float64 {
	if !m.Valid {
		return def
	}
	return m.Value
}

// NaN returns the value, or NaN when invalid.
func (m Measurement) NaN() float64 {
	return m.Or(math.NaN())
}

// Map applies f to a valid value. The result goes through Valid again so
// a domain error inside f never leaks a NaN.
func (m Measurement) Map(f func(float64) float64) Measurement {
	if !m.Valid {
		return Invalid
	}
	return Valid(f(m.Value))
}
