package pid

import (
	"fmt"

	"go-hep.org/x/hep/groot"
	"go-hep.org/x/hep/groot/rhist"
	"go-hep.org/x/hep/hbook"
	"go-hep.org/x/hep/hbook/rootcnv"
)

// BlockSize is the number of events averaged in each bin of the drift
// profiles.
const BlockSize = 10000

// DriftPair is a gain and an offset profile binned in event index.
type DriftPair struct {
	Gain   *hbook.H1D
	Offset *hbook.H1D
}

func (p DriftPair) usable() bool {
	return p.Gain != nil && p.Offset != nil
}

// At returns gain and offset for the block holding index. Identity is
// returned when either profile is missing or index lies past the table.
func (p DriftPair) At(index int64) (float64, float64) {
	if !p.usable() || index < 0 {
		return 1, 0
	}
	bin := int(index / BlockSize)
	gains := p.Gain.Binning.Bins
	offsets := p.Offset.Binning.Bins
	if bin >= len(gains) || bin >= len(offsets) {
		return 1, 0
	}
	return gains[bin].SumW(), offsets[bin].SumW()
}

func (p DriftPair) apply(m Measurement, index int64) Measurement {
	if !m.Valid {
		return Invalid
	}
	gain, offset := p.At(index)
	return Valid(m.Value*gain + offset)
}

// DriftCorrector corrects Z and A/Q of one spectrometer group.
type DriftCorrector struct {
	Z   DriftPair
	AoQ DriftPair
}

// Correct sets DriftZ and DriftAoQ of seg. The zero DriftCorrector is the
// identity.
func (d DriftCorrector) Correct(seg Segment, index int64) Segment {
	seg.DriftZ = d.Z.apply(seg.Z, index)
	seg.DriftAoQ = d.AoQ.apply(seg.AoQ, index)
	return seg
}

// DriftTable holds the drift profiles of a run by name, hgain<name> and
// hoffs<name>.
type DriftTable struct {
	profiles map[string]*hbook.H1D
}

func NewDriftTable(profiles map[string]*hbook.H1D) *DriftTable {
	if profiles == nil {
		profiles = make(map[string]*hbook.H1D)
	}
	return &DriftTable{profiles: profiles}
}

func (t *DriftTable) Pair(name string) DriftPair {
	if t == nil {
		return DriftPair{}
	}
	return DriftPair{Gain: t.profiles["hgain"+name], Offset: t.profiles["hoffs"+name]}
}

// Corrector builds the corrector of a group from its Z and A/Q profile
// names. A nil table gives the identity.
func (t *DriftTable) Corrector(zName, aoqName string) DriftCorrector {
	corrector := DriftCorrector{Z: t.Pair(zName), AoQ: t.Pair(aoqName)}
	if t != nil {
		if !corrector.Z.usable() {
			logger.Warn(fmt.Sprintf("Drift profiles for Z %s not found, Z not corrected", zName), "drift")
		}
		if !corrector.AoQ.usable() {
			logger.Warn(fmt.Sprintf("Drift profiles for A/Q %s not found, A/Q not corrected", aoqName), "drift")
		}
	}
	return corrector
}

// LoadDriftTable reads the named profiles from a ROOT file. Profiles
// absent from the file are reported and skipped.
func LoadDriftTable(filename string, names []string) (*DriftTable, error) {
	file, err := groot.Open(filename)
	if err != nil {
		return nil, &ErrOpenFile{Filename: filename, Err: err}
	}
	defer file.Close()

	profiles := make(map[string]*hbook.H1D)
	for _, name := range names {
		for _, kind := range []string{"hgain", "hoffs"} {
			key := kind + name
			obj, err := file.Get(key)
			if err != nil {
				logger.Warn(fmt.Sprintf("Drift profile %s missing in %s", key, filename), "drift")
				continue
			}
			h, ok := obj.(rhist.H1)
			if !ok {
				return nil, fmt.Errorf("drift profile %s in %s is a %T, not a 1D histogram", key, filename, obj)
			}
			profiles[key] = rootcnv.H1D(h)
			if configuration.Verbosity > 1 {
				message := fmt.Sprintf("Drift profile %s: %d bins", key, len(profiles[key].Binning.Bins))
				logger.Info(message, "drift")
			}
		}
	}
	return NewDriftTable(profiles), nil
}
