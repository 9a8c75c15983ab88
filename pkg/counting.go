package pid

import (
	"fmt"

	"golang.org/x/exp/slices"
)

// PIDCut selects one nucleus in the (A/Q, Z) plane of a segment.
type PIDCut struct {
	Name    string
	Segment int
	Polygon *Polygon
	// GatePlanes must pass all their plastic cuts for an event to count
	// as in cut.
	GatePlanes []int
	// SingleHitPlanes must have single hit plastics for in cut counting.
	SingleHitPlanes []int
}

type PIDCount struct {
	Name    string
	Segment int
	InCut   int
	Total   int
}

// PIDCounter counts nuclei inside PID cuts, once over all events and once
// over the events passing the plastic cut gate.
type PIDCounter struct {
	cuts      []PIDCut
	cutPlanes []int
	counts    []PIDCount
}

// NewPIDCounter takes the focal plane order used to build the masks.
func NewPIDCounter(cuts []PIDCut, cutPlanes []int) (*PIDCounter, error) {
	counter := &PIDCounter{cuts: cuts, cutPlanes: cutPlanes, counts: make([]PIDCount, len(cuts))}
	for i, cut := range cuts {
		if cut.Segment < 0 || cut.Segment >= NumSegments {
			return nil, fmt.Errorf("PID cut %s: segment %d out of range", cut.Name, cut.Segment)
		}
		if cut.Polygon == nil {
			return nil, fmt.Errorf("PID cut %s: no polygon", cut.Name)
		}
		counter.counts[i] = PIDCount{Name: cut.Name, Segment: cut.Segment}
	}
	return counter, nil
}

// GatePassed re-derives the plastic gate of a set of focal planes from the
// coarse mask. Planes without cuts do not block the gate.
func GatePassed(mask CutMask, cutPlanes []int, gate []int) bool {
	for _, id := range gate {
		fidx := slices.Index(cutPlanes, id)
		if fidx < 0 {
			continue
		}
		if !mask.FocalPlanePassed(fidx) {
			return false
		}
	}
	return true
}

func singleHits(event *EventType, ids []int) bool {
	for _, id := range ids {
		if !event.FocalPlane(id).Plastic.SingleHit() {
			return false
		}
	}
	return true
}

func (c *PIDCounter) Count(event *EventType) {
	for i, cut := range c.cuts {
		seg := event.Beam.Segments[cut.Segment]
		aoq, okA := seg.DriftAoQ.Get()
		z, okZ := seg.DriftZ.Get()
		if !okA || !okZ || !cut.Polygon.IsInside(aoq, z) {
			continue
		}
		c.counts[i].Total++
		if GatePassed(event.Mask, c.cutPlanes, cut.GatePlanes) && singleHits(event, cut.SingleHitPlanes) {
			c.counts[i].InCut++
		}
	}
}

func (c *PIDCounter) Counts() []PIDCount {
	return slices.Clone(c.counts)
}
