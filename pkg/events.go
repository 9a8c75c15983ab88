package pid

// NumSegments is the number of PID reconstruction segments per event:
// three through BigRIPS and three through the ZeroDegree spectrometer.
const NumSegments = 6

// PPACHit is one position detector reading. XZ and YZ are the positions
// along the beam of the x and y planes.
type PPACHit struct {
	X      float64 `json:"x"`
	Y      float64 `json:"y"`
	XZ     float64 `json:"xz"`
	YZ     float64 `json:"yz"`
	FiredX bool    `json:"fired_x"`
	FiredY bool    `json:"fired_y"`
}

// PPACsPerFocalPlane is the number of detector slots around a focal plane.
// Slots 0 and 1 sit upstream of the focal point, slots 2 and 3 downstream.
const PPACsPerFocalPlane = 4

type HitSet struct {
	FocalPlane int
	Hits       [PPACsPerFocalPlane]PPACHit
}

type PlasticPulse struct {
	TimeL     float64   `json:"time_l"`
	TimeR     float64   `json:"time_r"`
	ChargeL   float64   `json:"charge_l"`
	ChargeR   float64   `json:"charge_r"`
	MultihitL int       `json:"multihit_l"`
	MultihitR int       `json:"multihit_r"`
	TimesL    []float64 `json:"times_l,omitempty"`
	TimesR    []float64 `json:"times_r,omitempty"`
}

type IonizationSum struct {
	NHits       int     `json:"nhits"`
	EnergyAvSum float64 `json:"energy_av_sum"`
	EnergySqSum float64 `json:"energy_sq_sum"`
}

// FocalPlaneData holds the calibrated detector quantities of one focal
// plane as delivered by the unpacker.
type FocalPlaneData struct {
	PPACs   [PPACsPerFocalPlane]PPACHit `json:"ppacs"`
	Plastic PlasticPulse                `json:"plastic"`
	IC      IonizationSum               `json:"ic"`
}

type RawEvent struct {
	RunNumber   int                    `json:"run"`
	EventNumber int64                  `json:"event"`
	Timestamp   uint64                 `json:"timestamp"`
	FocalPlanes map[int]FocalPlaneData `json:"focal_planes"`
}

// FocalPlane is the per event reconstruction at one focal plane.
type FocalPlane struct {
	ID      int
	Track   Track
	Plastic PlasticPulse
	IC      IonizationSum
	DT      Measurement
	LogQ    Measurement
}

type Segment struct {
	Beta  Measurement
	AoQ   Measurement
	Z     Measurement
	Delta Measurement
	Brho  Measurement
	// after drift correction
	DriftAoQ Measurement
	DriftZ   Measurement
	// after aberration correction
	CorrAoQ Measurement
	CorrZ   Measurement
}

type TOFResult struct {
	TOF  Measurement
	Beta Measurement
}

type Beam struct {
	Segments [NumSegments]Segment
	TOF      []TOFResult
	Delta    []Measurement
	Brho     []Measurement
}

type EventType struct {
	RunNumber   int
	EventNumber int64
	// Index is the absolute position of the event in the run, used for the
	// drift table lookup.
	Index       int64
	Timestamp   uint64
	FocalPlanes map[int]FocalPlane
	Beam        Beam
	Mask        CutMask
	Error       bool
}

// FocalPlane returns the reconstruction at id, or an empty plane with an
// undetermined track when id was not reconstructed.
func (e *EventType) FocalPlane(id int) FocalPlane {
	if fp, ok := e.FocalPlanes[id]; ok {
		return fp
	}
	return FocalPlane{ID: id}
}
