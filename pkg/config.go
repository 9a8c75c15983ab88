package pid

type Configuration struct {
	MaxEvents        int    `json:"max_events"`
	Skip             int    `json:"skip"`
	Verbosity        int    `json:"verbosity"`
	FileIn           string `json:"file_in"`
	FileOut          string `json:"file_out"`
	RunNumber        int    `json:"run_number"`
	NumWorkers       int    `json:"num_workers"`
	WriteData        bool   `json:"write_data"`
	Discard          bool   `json:"discard"`
	CompressionLevel int    `json:"compression_level"`

	NoDB   bool   `json:"no_db"`
	Host   string `json:"host"`
	User   string `json:"user"`
	Passwd string `json:"pass"`
	DBName string `json:"dbname"`

	FocalPlanes []FocalPlaneConfig         `json:"focal_planes"`
	RIPS        []RIPSConfig               `json:"rips"`
	TOF         []TOFConfig                `json:"tof"`
	ICs         []ICConfig                 `json:"ics"`
	Segments    [NumSegments]SegmentConfig `json:"segments"`
	Groups      []GroupConfig              `json:"groups"`

	DriftFile      string        `json:"drift_file"`
	RunStartEvents map[int]int64 `json:"run_start_events"`

	CutFile             string `json:"cut_file"`
	CutDir              string `json:"cut_dir"`
	CutID               int    `json:"cut_id"`
	CutFocalPlanes      []int  `json:"cut_focal_planes"`
	UpstreamFocalPlanes []int  `json:"upstream_focal_planes"`
}

type FocalPlaneConfig struct {
	ID      int     `json:"id"`
	ZOffset float64 `json:"z_offset"`
}

type RIPSConfig struct {
	Name       string  `json:"name"`
	Upstream   int     `json:"upstream"`
	Downstream int     `json:"downstream"`
	MatrixFile string  `json:"matrix_file"`
	CenterBrho float64 `json:"center_brho"`
}

// TOFConfig measures the flight time between the plastics of two focal
// planes. LengthUp and LengthDown are the flight paths in mm before and
// after the dispersive focal plane in between.
type TOFConfig struct {
	Start      int     `json:"start"`
	Stop       int     `json:"stop"`
	Offset     float64 `json:"offset"`
	LengthUp   float64 `json:"length_up"`
	LengthDown float64 `json:"length_down"`
}

func (t TOFConfig) Length() float64 {
	return t.LengthUp + t.LengthDown
}

type ICConfig struct {
	FocalPlane int     `json:"focal_plane"`
	IonPair    float64 `json:"ion_pair"`
	ZSlope     float64 `json:"z_slope"`
	ZOffset    float64 `json:"z_offset"`
}

// SegmentConfig lists the RIPS sections (one, or two in beam order), the
// TOF and the ionization chamber of a PID segment, as indices into the
// corresponding configuration lists.
type SegmentConfig struct {
	RIPS []int `json:"rips"`
	TOF  int   `json:"tof"`
	IC   int   `json:"ic"`
}

// GroupConfig holds the corrections of the segments reconstructed through
// one spectrometer.
type GroupConfig struct {
	Name            string                 `json:"name"`
	Segments        []int                  `json:"segments"`
	ReferencePlanes [2]int                 `json:"reference_planes"`
	AoQ             map[int]AoQCorrections `json:"aoq"`
	AoQGain         float64                `json:"aoq_gain"`
	AoQOffset       float64                `json:"aoq_offset"`
	Z               ZCorrections           `json:"z"`
	DriftZ          string                 `json:"drift_z"`
	DriftAoQ        string                 `json:"drift_aoq"`
}

var configuration Configuration

func GetConfiguration() Configuration {
	return configuration
}

func SetConfiguration(config Configuration) {
	configuration = config
}

// DefaultConfiguration describes the BigRIPS and ZeroDegree setup:
// rigidity sections F3-F5, F5-F7, F8-F9 and F9-F11, and the six PID
// segments built on them.
func DefaultConfiguration() Configuration {
	var config Configuration
	config.MaxEvents = 1000000000
	config.Verbosity = 0
	config.Skip = 0
	config.NumWorkers = 1
	config.WriteData = true
	config.Discard = true
	config.CompressionLevel = 4

	config.NoDB = false
	config.Host = "localhost"
	config.User = "ribfreader"
	config.Passwd = "readonly"
	config.DBName = "BigRIPS"

	config.FocalPlanes = []FocalPlaneConfig{
		{ID: 3}, {ID: 5}, {ID: 7}, {ID: 8}, {ID: 9}, {ID: 11},
	}
	config.RIPS = []RIPSConfig{
		{Name: "F3-F5", Upstream: 3, Downstream: 5, MatrixFile: "matrix/mat1.mat"},
		{Name: "F5-F7", Upstream: 5, Downstream: 7, MatrixFile: "matrix/mat2.mat"},
		{Name: "F8-F9", Upstream: 8, Downstream: 9, MatrixFile: "matrix/F8F9_LargeAccAchr.mat"},
		{Name: "F9-F11", Upstream: 9, Downstream: 11, MatrixFile: "matrix/F9F11_LargeAccAchr.mat"},
	}
	f3f7 := TOFConfig{Start: 3, Stop: 7, Offset: 300.0, LengthUp: 23488.0, LengthDown: 23488.0}
	f8f11 := TOFConfig{Start: 8, Stop: 11, Offset: 300.0, LengthUp: 14163.0, LengthDown: 22563.0}
	config.TOF = []TOFConfig{
		f3f7, f3f7, f3f7,
		f8f11, f8f11, f8f11,
		{Start: 7, Stop: 8, Offset: 0.0, LengthUp: 6500.0, LengthDown: 0.0},
	}
	config.ICs = []ICConfig{
		{FocalPlane: 7, IonPair: 4866, ZSlope: 1, ZOffset: 0},
		{FocalPlane: 11, IonPair: 4866, ZSlope: 1, ZOffset: 0},
	}
	config.Segments = [NumSegments]SegmentConfig{
		{RIPS: []int{0}, TOF: 0, IC: 0},
		{RIPS: []int{1}, TOF: 1, IC: 0},
		{RIPS: []int{0, 1}, TOF: 2, IC: 0},
		{RIPS: []int{2}, TOF: 3, IC: 1},
		{RIPS: []int{3}, TOF: 4, IC: 1},
		{RIPS: []int{2, 3}, TOF: 5, IC: 1},
	}
	config.Groups = []GroupConfig{
		{
			Name:            "BigRIPS",
			Segments:        []int{0, 1, 2},
			ReferencePlanes: [2]int{3, 7},
			AoQ:             map[int]AoQCorrections{3: {}, 5: {}, 7: {}},
			AoQGain:         1,
			Z:               ZCorrections{BetaSegment: 1, AoQSegment: 2},
			DriftZ:          "F7",
			DriftAoQ:        "BR",
		},
		{
			Name:            "ZeroDeg",
			Segments:        []int{3, 4, 5},
			ReferencePlanes: [2]int{8, 11},
			AoQ:             map[int]AoQCorrections{8: {}, 9: {}, 11: {}},
			AoQGain:         1,
			Z:               ZCorrections{BetaSegment: 5, AoQSegment: 5},
			DriftZ:          "F11",
			DriftAoQ:        "ZD",
		},
	}

	config.RunStartEvents = map[int]int64{}
	config.CutID = 0
	config.CutFocalPlanes = []int{3, 7, 8, 11}
	config.UpstreamFocalPlanes = []int{3, 7}
	return config
}
