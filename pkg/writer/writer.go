package writer

import (
	"errors"
	"fmt"

	hdf5 "github.com/jmbenlloch/go-hdf5"
	pid "github.com/ribf-analysis/pid_go/pkg"
	"golang.org/x/exp/slices"
)

// Writer stores reconstructed events in an HDF5 file, one table per kind
// of record, all rows keyed by evt_number.
type Writer struct {
	File          *hdf5.File
	Filename      string
	FirstEvt      bool
	RunGroup      *hdf5.Group
	PIDGroup      *hdf5.Group
	DetectorGroup *hdf5.Group
	CutsGroup     *hdf5.Group
	EventTable    *table
	RunInfoTable  *table
	SegmentTable  *table
	TOFTable      *table
	TrackTable    *table
	PlasticTable  *table
	MaskTable     *table
	EvtCounter    int
}

func NewWriter(filename string, compression int) (*Writer, error) {
	file, err := hdf5.CreateFile(filename, hdf5.F_ACC_TRUNC)
	if err != nil {
		return nil, fmt.Errorf("error creating file %s: %w", filename, err)
	}
	writer := &Writer{File: file, Filename: filename}

	groups := []struct {
		name  string
		group **hdf5.Group
	}{
		{"Run", &writer.RunGroup},
		{"PID", &writer.PIDGroup},
		{"Detectors", &writer.DetectorGroup},
		{"Cuts", &writer.CutsGroup},
	}
	for _, g := range groups {
		if *g.group, err = createGroup(file, g.name); err != nil {
			return nil, errors.Join(err, writer.Close())
		}
	}

	tables := []struct {
		group    *hdf5.Group
		name     string
		datatype interface{}
		table    **table
	}{
		{writer.RunGroup, "events", EventDataHDF5{}, &writer.EventTable},
		{writer.RunGroup, "runInfo", RunInfoHDF5{}, &writer.RunInfoTable},
		{writer.PIDGroup, "segments", SegmentHDF5{}, &writer.SegmentTable},
		{writer.PIDGroup, "tof", TOFHDF5{}, &writer.TOFTable},
		{writer.DetectorGroup, "tracks", TrackHDF5{}, &writer.TrackTable},
		{writer.DetectorGroup, "plastics", PlasticHDF5{}, &writer.PlasticTable},
		{writer.CutsGroup, "masks", MaskHDF5{}, &writer.MaskTable},
	}
	for _, t := range tables {
		if *t.table, err = createTable(t.group, t.name, t.datatype, compression); err != nil {
			return nil, errors.Join(err, writer.Close())
		}
	}
	return writer, nil
}

func segmentRows(event *pid.EventType) []SegmentHDF5 {
	rows := make([]SegmentHDF5, pid.NumSegments)
	for i, seg := range event.Beam.Segments {
		rows[i] = SegmentHDF5{
			evt_number: event.EventNumber,
			segment:    int32(i),
			beta:       seg.Beta.NaN(),
			aoq:        seg.AoQ.NaN(),
			z:          seg.Z.NaN(),
			delta:      seg.Delta.NaN(),
			brho:       seg.Brho.NaN(),
			drift_aoq:  seg.DriftAoQ.NaN(),
			drift_z:    seg.DriftZ.NaN(),
			corr_aoq:   seg.CorrAoQ.NaN(),
			corr_z:     seg.CorrZ.NaN(),
		}
	}
	return rows
}

func tofRows(event *pid.EventType) []TOFHDF5 {
	rows := make([]TOFHDF5, len(event.Beam.TOF))
	for i, tof := range event.Beam.TOF {
		rows[i] = TOFHDF5{
			evt_number: event.EventNumber,
			tof_index:  int32(i),
			tof:        tof.TOF.NaN(),
			beta:       tof.Beta.NaN(),
		}
	}
	return rows
}

func sortedFocalPlanes(event *pid.EventType) []int {
	ids := make([]int, 0, len(event.FocalPlanes))
	for id := range event.FocalPlanes {
		ids = append(ids, id)
	}
	slices.Sort(ids)
	return ids
}

func trackRows(event *pid.EventType, ids []int) []TrackHDF5 {
	rows := make([]TrackHDF5, len(ids))
	for i, id := range ids {
		t := event.FocalPlanes[id].Track.Sentinel()
		rows[i] = TrackHDF5{
			evt_number:  event.EventNumber,
			focal_plane: int32(id),
			x:           t[0],
			a:           t[1],
			y:           t[2],
			b:           t[3],
		}
	}
	return rows
}

func plasticRows(event *pid.EventType, ids []int) []PlasticHDF5 {
	rows := make([]PlasticHDF5, len(ids))
	for i, id := range ids {
		fp := event.FocalPlanes[id]
		rows[i] = PlasticHDF5{
			evt_number:  event.EventNumber,
			focal_plane: int32(id),
			dT:          fp.DT.NaN(),
			logQ:        fp.LogQ.NaN(),
			multihit_l:  int32(fp.Plastic.HitsL()),
			multihit_r:  int32(fp.Plastic.HitsR()),
		}
	}
	return rows
}

func (w *Writer) WriteEvent(event *pid.EventType, startEvent int64) error {
	if !w.FirstEvt {
		info := RunInfoHDF5{run_number: int32(event.RunNumber), start_event: startEvent}
		if err := writeEntryToTable(w.RunInfoTable, info); err != nil {
			return fmt.Errorf("error writing run info: %w", err)
		}
		w.FirstEvt = true
	}

	evtError := int32(0)
	if event.Error {
		evtError = 1
	}
	evt := EventDataHDF5{
		evt_number: event.EventNumber,
		index:      event.Index,
		timestamp:  event.Timestamp,
		error:      evtError,
	}
	if err := writeEntryToTable(w.EventTable, evt); err != nil {
		return fmt.Errorf("error writing event %d: %w", event.EventNumber, err)
	}

	segments := segmentRows(event)
	if err := writeArrayToTable(w.SegmentTable, &segments); err != nil {
		return fmt.Errorf("error writing segments of event %d: %w", event.EventNumber, err)
	}
	tofs := tofRows(event)
	if err := writeArrayToTable(w.TOFTable, &tofs); err != nil {
		return fmt.Errorf("error writing TOF of event %d: %w", event.EventNumber, err)
	}

	ids := sortedFocalPlanes(event)
	tracks := trackRows(event, ids)
	if err := writeArrayToTable(w.TrackTable, &tracks); err != nil {
		return fmt.Errorf("error writing tracks of event %d: %w", event.EventNumber, err)
	}
	plastics := plasticRows(event, ids)
	if err := writeArrayToTable(w.PlasticTable, &plastics); err != nil {
		return fmt.Errorf("error writing plastics of event %d: %w", event.EventNumber, err)
	}

	mask := MaskHDF5{
		evt_number: event.EventNumber,
		coarse0:    int64(event.Mask.Coarse0),
		coarse1:    int64(event.Mask.Coarse1),
		fine:       int64(event.Mask.Fine),
	}
	if err := writeEntryToTable(w.MaskTable, mask); err != nil {
		return fmt.Errorf("error writing masks of event %d: %w", event.EventNumber, err)
	}

	w.EvtCounter++
	return nil
}

func (w *Writer) Close() error {
	var errs []error

	tables := []struct {
		name  string
		table *table
	}{
		{"event", w.EventTable},
		{"run info", w.RunInfoTable},
		{"segment", w.SegmentTable},
		{"TOF", w.TOFTable},
		{"track", w.TrackTable},
		{"plastic", w.PlasticTable},
		{"mask", w.MaskTable},
	}
	for _, t := range tables {
		if t.table == nil {
			continue
		}
		if err := t.table.dataset.Close(); err != nil {
			errs = append(errs, fmt.Errorf("error closing %s table: %w", t.name, err))
		}
	}

	groups := []struct {
		name  string
		group *hdf5.Group
	}{
		{"run", w.RunGroup},
		{"PID", w.PIDGroup},
		{"detectors", w.DetectorGroup},
		{"cuts", w.CutsGroup},
	}
	for _, g := range groups {
		if g.group == nil {
			continue
		}
		if err := g.group.Close(); err != nil {
			errs = append(errs, fmt.Errorf("error closing %s group: %w", g.name, err))
		}
	}

	if w.File != nil {
		if err := w.File.Close(); err != nil {
			errs = append(errs, fmt.Errorf("error closing file: %w", err))
		}
	}

	if len(errs) > 0 {
		return errors.Join(errs...)
	}
	return nil
}

// ProcessReconstructedEvent writes event unless writing is disabled or
// the event failed and failed events are discarded.
func ProcessReconstructedEvent(event pid.EventType, configuration pid.Configuration,
	writer *Writer, startEvent int64) error {
	if !configuration.WriteData {
		return nil
	}
	if event.Error && configuration.Discard {
		return nil
	}
	return writer.WriteEvent(&event, startEvent)
}
