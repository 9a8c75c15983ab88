package pid

import (
	"errors"
	"fmt"
	"io/fs"
	"os"

	"golang.org/x/exp/slices"
)

// Calibration bundles the read-only tables of a run. It is built before
// the event loop and shared by every worker without locking.
type Calibration struct {
	RunNumber   int
	StartEvent  int64
	ZOffsets    map[int]float64
	RIPS        []*RIPS
	TOF         []TOFConfig
	ICs         []ICConfig
	Segments    [NumSegments]SegmentConfig
	Groups      []GroupConfig
	Drift       []DriftCorrector
	Cuts        *CutSet
	CutPlanes   []int
	UpstreamIDs []int
}

// NewCalibration validates config and loads the matrices, drift profiles
// and cuts it points to. Missing drift profiles and cut files degrade to
// no correction and undefined cuts.
func NewCalibration(config Configuration, run int) (*Calibration, error) {
	cal := &Calibration{
		RunNumber:   run,
		StartEvent:  config.RunStartEvents[run],
		ZOffsets:    make(map[int]float64),
		TOF:         config.TOF,
		ICs:         config.ICs,
		Segments:    config.Segments,
		Groups:      slices.Clone(config.Groups),
		CutPlanes:   config.CutFocalPlanes,
		UpstreamIDs: config.UpstreamFocalPlanes,
	}
	for _, fp := range config.FocalPlanes {
		cal.ZOffsets[fp.ID] = fp.ZOffset
	}
	// a zero gain is never meant, it is a group without aoq_gain
	for i := range cal.Groups {
		if cal.Groups[i].AoQGain == 0 {
			cal.Groups[i].AoQGain = 1
		}
	}

	for _, rc := range config.RIPS {
		matrix, err := LoadTransferMatrix(rc.MatrixFile)
		if err != nil {
			return nil, fmt.Errorf("error loading RIPS %s: %w", rc.Name, err)
		}
		cal.RIPS = append(cal.RIPS, &RIPS{
			Name:       rc.Name,
			Upstream:   rc.Upstream,
			Downstream: rc.Downstream,
			Matrix:     matrix,
			CenterBrho: rc.CenterBrho,
		})
	}
	if err := cal.validate(); err != nil {
		return nil, err
	}

	table, err := loadDrift(config)
	if err != nil {
		return nil, err
	}
	cal.Drift = make([]DriftCorrector, len(config.Groups))
	for i, g := range config.Groups {
		cal.Drift[i] = table.Corrector(g.DriftZ, g.DriftAoQ)
	}

	cal.Cuts, err = loadPlasticCuts(config, run)
	if err != nil {
		return nil, err
	}
	return cal, nil
}

func (c *Calibration) validate() error {
	for s, sc := range c.Segments {
		if len(sc.RIPS) != 1 && len(sc.RIPS) != 2 {
			return fmt.Errorf("segment %d: needs 1 or 2 RIPS sections, got %d", s, len(sc.RIPS))
		}
		for _, r := range sc.RIPS {
			if r < 0 || r >= len(c.RIPS) {
				return fmt.Errorf("segment %d: RIPS index %d out of range", s, r)
			}
		}
		if sc.TOF < 0 || sc.TOF >= len(c.TOF) {
			return fmt.Errorf("segment %d: TOF index %d out of range", s, sc.TOF)
		}
		if sc.IC < 0 || sc.IC >= len(c.ICs) {
			return fmt.Errorf("segment %d: IC index %d out of range", s, sc.IC)
		}
	}
	for _, g := range c.Groups {
		for _, s := range g.Segments {
			if s < 0 || s >= NumSegments {
				return fmt.Errorf("group %s: segment %d out of range", g.Name, s)
			}
		}
	}
	if maxPlanes := 63 / int(NumCutTypes); len(c.CutPlanes) > maxPlanes {
		return fmt.Errorf("at most %d focal planes fit in the cut masks, got %d", maxPlanes, len(c.CutPlanes))
	}
	return nil
}

func loadDrift(config Configuration) (*DriftTable, error) {
	if config.DriftFile == "" {
		logger.Warn("No drift correction file configured, Z and A/Q not corrected", "drift")
		return nil, nil
	}
	if _, err := os.Stat(config.DriftFile); errors.Is(err, fs.ErrNotExist) {
		message := fmt.Sprintf("Drift correction file %s not found, Z and A/Q not corrected", config.DriftFile)
		logger.Warn(message, "drift")
		return nil, nil
	}
	names := make([]string, 0, 2*len(config.Groups))
	for _, g := range config.Groups {
		names = append(names, g.DriftZ, g.DriftAoQ)
	}
	return LoadDriftTable(config.DriftFile, names)
}

func loadPlasticCuts(config Configuration, run int) (*CutSet, error) {
	types, err := CutTypesForID(config.CutID)
	if err != nil {
		return nil, err
	}
	if len(types) == 0 {
		if configuration.Verbosity > 0 {
			logger.Info("Loading no plastic cuts", "cuts")
		}
		return NewCutSet(), nil
	}
	switch {
	case config.CutFile != "":
		return LoadCutsYAMLFile(config.CutFile, types, config.CutFocalPlanes)
	case config.CutDir != "":
		return LoadPlasticCutMacros(config.CutDir, run, types, config.CutFocalPlanes)
	default:
		logger.Warn("Cuts requested but neither cut_file nor cut_dir set, all cuts undefined", "cuts")
		return NewCutSet(), nil
	}
}
