package pid

import (
	"bufio"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"regexp"
	"strconv"

	"golang.org/x/exp/slices"
	"gopkg.in/yaml.v3"
)

// CutType selects the pair of plastic observables a cut is drawn in. The
// numeric value is the bit offset of the cut inside a focal plane's group
// of the fine mask.
type CutType int

const (
	DTvsLogQ CutType = iota
	LogQvsX
	DTvsX
	NumCutTypes
)

var cutTypeNames = [NumCutTypes]string{"dT_vs_logQ", "logQ_vs_X", "dT_vs_X"}

func (c CutType) String() string {
	if c < 0 || c >= NumCutTypes {
		return "Unknown"
	}
	return cutTypeNames[c]
}

func ParseCutType(s string) (CutType, error) {
	for i, name := range cutTypeNames {
		if name == s {
			return CutType(i), nil
		}
	}
	return 0, fmt.Errorf("unknown cut type %q", s)
}

func (c *CutType) UnmarshalYAML(value *yaml.Node) error {
	t, err := ParseCutType(value.Value)
	if err != nil {
		return err
	}
	*c = t
	return nil
}

func (c *CutType) UnmarshalJSON(data []byte) error {
	s, err := strconv.Unquote(string(data))
	if err != nil {
		return fmt.Errorf("cut type must be a string: %w", err)
	}
	t, err := ParseCutType(s)
	if err != nil {
		return err
	}
	*c = t
	return nil
}

// CutTypesForID maps the cut selection switch of the analysis to the
// types to load: 0 loads nothing, 1 to 3 a single type, -1 everything.
func CutTypesForID(id int) ([]CutType, error) {
	switch id {
	case 0:
		return nil, nil
	case 1, 2, 3:
		return []CutType{CutType(id - 1)}, nil
	case -1:
		return []CutType{DTvsLogQ, LogQvsX, DTvsX}, nil
	default:
		return nil, fmt.Errorf("cut id must be 0, 1, 2, 3 or -1, got %d", id)
	}
}

// CutSet holds the loaded polygons by type and focal plane. It is built
// once before processing and only read afterwards.
type CutSet struct {
	cuts [NumCutTypes]map[int]*Polygon
}

func NewCutSet() *CutSet {
	s := &CutSet{}
	for i := range s.cuts {
		s.cuts[i] = make(map[int]*Polygon)
	}
	return s
}

func (s *CutSet) Add(t CutType, focalPlane int, p *Polygon) {
	s.cuts[t][focalPlane] = p
}

func (s *CutSet) Get(t CutType, focalPlane int) (*Polygon, bool) {
	if s == nil || t < 0 || t >= NumCutTypes {
		return nil, false
	}
	p, ok := s.cuts[t][focalPlane]
	return p, ok && p != nil
}

// Len returns the number of defined cuts.
func (s *CutSet) Len() int {
	if s == nil {
		return 0
	}
	n := 0
	for _, m := range s.cuts {
		n += len(m)
	}
	return n
}

// FocalPlanes returns the sorted ids having at least one cut.
func (s *CutSet) FocalPlanes() []int {
	ids := []int{}
	if s == nil {
		return ids
	}
	for _, m := range s.cuts {
		for id := range m {
			if !slices.Contains(ids, id) {
				ids = append(ids, id)
			}
		}
	}
	slices.Sort(ids)
	return ids
}

type cutFileEntry struct {
	Name       string       `yaml:"name"`
	Type       CutType      `yaml:"type"`
	FocalPlane int          `yaml:"focal_plane"`
	Points     [][2]float64 `yaml:"points"`
}

type cutFile struct {
	Cuts []cutFileEntry `yaml:"cuts"`
}

// LoadCutsYAML reads plastic cuts from a YAML document. Entries whose type
// is not in types are ignored, as are focal planes not in focalPlanes when
// that list is not empty.
func LoadCutsYAML(r io.Reader, source string, types []CutType, focalPlanes []int) (*CutSet, error) {
	var doc cutFile
	if err := yaml.NewDecoder(r).Decode(&doc); err != nil && !errors.Is(err, io.EOF) {
		return nil, &ErrParseCut{Source: source, Err: err}
	}

	set := NewCutSet()
	for _, entry := range doc.Cuts {
		if !slices.Contains(types, entry.Type) {
			continue
		}
		if len(focalPlanes) > 0 && !slices.Contains(focalPlanes, entry.FocalPlane) {
			continue
		}
		name := entry.Name
		if name == "" {
			name = fmt.Sprintf("%s_%d", entry.Type, entry.FocalPlane)
		}
		x := make([]float64, len(entry.Points))
		y := make([]float64, len(entry.Points))
		for i, pt := range entry.Points {
			x[i], y[i] = pt[0], pt[1]
		}
		polygon, err := NewPolygon(name, x, y)
		if err != nil {
			return nil, &ErrParseCut{Source: source, Err: err}
		}
		set.Add(entry.Type, entry.FocalPlane, polygon)
		if configuration.Verbosity > 0 {
			message := fmt.Sprintf("Loaded %s cut for focal plane %d", entry.Type, entry.FocalPlane)
			logger.Info(message, "cuts")
		}
	}
	return set, nil
}

func LoadCutsYAMLFile(filename string, types []CutType, focalPlanes []int) (*CutSet, error) {
	file, err := os.Open(filename)
	if err != nil {
		return nil, &ErrOpenFile{Filename: filename, Err: err}
	}
	defer file.Close()
	return LoadCutsYAML(file, filename, types, focalPlanes)
}

// MaxCutPoints bounds the size of a polygon read from a macro.
const MaxCutPoints = 100000

var (
	tcutgNewRe      = regexp.MustCompile(`new\s+TCutG\(\s*"([^"]+)"\s*,\s*(\d+)`)
	tcutgSetPointRe = regexp.MustCompile(`SetPoint\(\s*(\d+)\s*,\s*([^,\s]+)\s*,\s*([^)\s]+)\s*\)`)
)

// ParseCutMacro reads a polygon from a ROOT macro as saved by TCutG's
// SavePrimitive, using the declared name and the SetPoint lines.
func ParseCutMacro(r io.Reader, source string) (*Polygon, error) {
	var name string
	var declared int
	var x, y []float64

	scanner := bufio.NewScanner(r)
	line := 0
	for scanner.Scan() {
		line++
		text := scanner.Text()
		if m := tcutgNewRe.FindStringSubmatch(text); m != nil {
			n, err := strconv.Atoi(m[2])
			if err != nil || n > MaxCutPoints {
				return nil, &ErrParseCut{Source: source, Line: line,
					Err: fmt.Errorf("TCutG %s declares %s points, at most %d allowed", m[1], m[2], MaxCutPoints)}
			}
			name, declared = m[1], n
			continue
		}
		m := tcutgSetPointRe.FindStringSubmatch(text)
		if m == nil {
			continue
		}
		idx, err := strconv.Atoi(m[1])
		if err != nil {
			return nil, &ErrParseCut{Source: source, Line: line, Err: err}
		}
		px, err := strconv.ParseFloat(m[2], 64)
		if err != nil {
			return nil, &ErrParseCut{Source: source, Line: line, Err: err}
		}
		py, err := strconv.ParseFloat(m[3], 64)
		if err != nil {
			return nil, &ErrParseCut{Source: source, Line: line, Err: err}
		}
		if idx >= MaxCutPoints {
			return nil, &ErrParseCut{Source: source, Line: line,
				Err: fmt.Errorf("point %d past the limit of %d", idx, MaxCutPoints)}
		}
		// TCutG grows when points are set past its declared size
		for idx >= len(x) {
			x = append(x, 0)
			y = append(y, 0)
		}
		x[idx], y[idx] = px, py
	}
	if err := scanner.Err(); err != nil {
		return nil, &ErrParseCut{Source: source, Err: err}
	}
	if name == "" {
		return nil, &ErrParseCut{Source: source, Err: errors.New("no TCutG declaration found")}
	}
	// declared points never set stay at the origin
	for len(x) < declared {
		x = append(x, 0)
		y = append(y, 0)
	}
	polygon, err := NewPolygon(name, x, y)
	if err != nil {
		return nil, &ErrParseCut{Source: source, Err: err}
	}
	return polygon, nil
}

func LoadCutMacroFile(filename string) (*Polygon, error) {
	file, err := os.Open(filename)
	if err != nil {
		return nil, &ErrOpenFile{Filename: filename, Err: err}
	}
	defer file.Close()
	return ParseCutMacro(file, filename)
}

// PlasticCutMacroPath is where the plastic cut of a run is stored:
// <dir>/<run>/<run>_<type>_<fp>.cxx
func PlasticCutMacroPath(dir string, run int, t CutType, focalPlane int) string {
	return filepath.Join(dir, strconv.Itoa(run), fmt.Sprintf("%d_%s_%d.cxx", run, t, focalPlane))
}

// LoadPlasticCutMacros reads every requested (type, focal plane) cut of a
// run. A missing file leaves that cut undefined and is only reported as a
// warning.
func LoadPlasticCutMacros(dir string, run int, types []CutType, focalPlanes []int) (*CutSet, error) {
	set := NewCutSet()
	for _, id := range focalPlanes {
		for _, t := range types {
			path := PlasticCutMacroPath(dir, run, t, id)
			polygon, err := LoadCutMacroFile(path)
			if err != nil {
				var openErr *ErrOpenFile
				if errors.As(err, &openErr) && errors.Is(openErr.Err, os.ErrNotExist) {
					message := fmt.Sprintf("No %s cut for focal plane %d (%s), cut left undefined", t, id, path)
					logger.Warn(message, "cuts")
					continue
				}
				return nil, err
			}
			set.Add(t, id, polygon)
			if configuration.Verbosity > 0 {
				message := fmt.Sprintf("Loaded %s cut for focal plane %d", t, id)
				logger.Info(message, "cuts")
			}
		}
	}
	return set, nil
}
