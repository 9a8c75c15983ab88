package pid

import "fmt"

// ReconstructFocalPlanes fits the tracks and derives the plastic
// observables of every configured focal plane. Planes absent from raw get
// undetermined values.
func (c *Calibration) ReconstructFocalPlanes(raw RawEvent) map[int]FocalPlane {
	planes := make(map[int]FocalPlane, len(c.ZOffsets))
	for id, zOffset := range c.ZOffsets {
		data := raw.FocalPlanes[id]
		hits := HitSet{FocalPlane: id, Hits: data.PPACs}
		planes[id] = FocalPlane{
			ID:      id,
			Track:   Fit(hits, zOffset),
			Plastic: data.Plastic,
			IC:      data.IC,
			DT:      data.Plastic.DT(),
			LogQ:    data.Plastic.LogQ(),
		}
	}
	return planes
}

// Correct applies the drift and aberration corrections of every group.
func (c *Calibration) Correct(beam *Beam, planes map[int]FocalPlane, index int64) {
	for i := range c.Groups {
		group := &c.Groups[i]
		var drift DriftCorrector
		if i < len(c.Drift) {
			drift = c.Drift[i]
		}
		for _, s := range group.Segments {
			beam.Segments[s] = drift.Correct(beam.Segments[s], index)
		}
		group.Correct(beam, planes)
	}
}

// CutMask evaluates the plastic cuts on the reconstructed focal planes.
func (c *Calibration) CutMask(planes map[int]FocalPlane) CutMask {
	inputs := make(map[int]CutInputs, len(c.CutPlanes))
	for _, id := range c.CutPlanes {
		inputs[id] = CutInputsOf(planes[id])
	}
	return EvaluateCutMask(c.CutPlanes, c.UpstreamIDs, inputs, c.Cuts)
}

// EventIndex is the absolute index of the ordinal-th event of the file in
// its run.
func (c *Calibration) EventIndex(ordinal int64) int64 {
	return c.StartEvent + ordinal
}

// ProcessEvent runs the full reconstruction of one event.
func (c *Calibration) ProcessEvent(raw RawEvent, index int64) EventType {
	event := EventType{
		RunNumber:   raw.RunNumber,
		EventNumber: raw.EventNumber,
		Index:       index,
		Timestamp:   raw.Timestamp,
	}
	event.FocalPlanes = c.ReconstructFocalPlanes(raw)
	event.Beam = c.ReconstructBeam(event.FocalPlanes)
	c.Correct(&event.Beam, event.FocalPlanes, index)
	event.Mask = c.CutMask(event.FocalPlanes)

	if configuration.Verbosity > 2 {
		message := fmt.Sprintf("Event %d (index %d): masks %b %b %b", event.EventNumber, index,
			event.Mask.Coarse0, event.Mask.Coarse1, event.Mask.Fine)
		logger.Info(message, "process")
	}
	return event
}
