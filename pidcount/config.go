package main

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"

	pid "github.com/ribf-analysis/pid_go/pkg"
)

type PIDCutConfig struct {
	Name            string `json:"name"`
	Segment         int    `json:"segment"`
	File            string `json:"file"`
	GatePlanes      []int  `json:"gate_planes"`
	SingleHitPlanes []int  `json:"single_hit_planes"`
}

type Configuration struct {
	pid.Configuration
	PIDCuts   []PIDCutConfig `json:"pid_cuts"`
	PIDCutDir string         `json:"pid_cut_dir"`
	HistFile  string         `json:"hist_file"`
	PlotDir   string         `json:"plot_dir"`
	AoQBins   int            `json:"aoq_bins"`
	AoQRange  [2]float64     `json:"aoq_range"`
	ZBins     int            `json:"z_bins"`
	ZRange    [2]float64     `json:"z_range"`
}

func LoadConfiguration(filename string) (Configuration, error) {
	var config Configuration
	config.Configuration = pid.DefaultConfiguration()
	config.WriteData = false
	config.PIDCuts = []PIDCutConfig{
		{Name: "50Ca20_pid2", Segment: 2, GatePlanes: []int{3, 7}, SingleHitPlanes: []int{3, 7}},
		{Name: "49K19_pid2", Segment: 2, GatePlanes: []int{3, 7}, SingleHitPlanes: []int{3, 7}},
		{Name: "50Ca20_pid5", Segment: 5, GatePlanes: []int{3, 7, 8, 11}, SingleHitPlanes: []int{8, 11}},
		{Name: "49K19_pid5", Segment: 5, GatePlanes: []int{3, 7, 8, 11}, SingleHitPlanes: []int{8, 11}},
	}
	config.HistFile = "pid_histos.root"
	config.AoQBins = 1000
	config.AoQRange = [2]float64{2.0, 3.0}
	config.ZBins = 500
	config.ZRange = [2]float64{5, 30}

	data, err := os.ReadFile(filename)
	if err != nil {
		return config, err
	}
	err = json.Unmarshal(data, &config)
	if err != nil {
		return config, err
	}
	if config.AoQBins < 1 || config.ZBins < 1 {
		return config, fmt.Errorf("histogram bins must be positive")
	}
	return config, nil
}

// pidCutPath follows the <dir>/<run>_<name>.cxx naming of the PID cut
// macros unless the cut names its own file.
func pidCutPath(config Configuration, cut PIDCutConfig, run int) string {
	if cut.File != "" {
		return cut.File
	}
	return filepath.Join(config.PIDCutDir, fmt.Sprintf("%d_%s.cxx", run, cut.Name))
}

func loadPIDCuts(config Configuration, run int) ([]pid.PIDCut, error) {
	cuts := make([]pid.PIDCut, 0, len(config.PIDCuts))
	for _, c := range config.PIDCuts {
		path := pidCutPath(config, c, run)
		polygon, err := pid.LoadCutMacroFile(path)
		if err != nil {
			return nil, fmt.Errorf("error loading PID cut %s: %w", c.Name, err)
		}
		if VerbosityLevel > 0 {
			logger.Info(fmt.Sprintf("Loaded PID cut %s for run %d", c.Name, run), "config")
		}
		cuts = append(cuts, pid.PIDCut{
			Name:            c.Name,
			Segment:         c.Segment,
			Polygon:         polygon,
			GatePlanes:      c.GatePlanes,
			SingleHitPlanes: c.SingleHitPlanes,
		})
	}
	return cuts, nil
}

func printConfiguration(config Configuration, logger pid.Logger) {
	logger.Info(fmt.Sprintf("File in: %s", config.FileIn), "config")
	logger.Info(fmt.Sprintf("Histogram file: %s", config.HistFile), "config")
	logger.Info(fmt.Sprintf("Plot dir: %s", config.PlotDir), "config")
	logger.Info(fmt.Sprintf("PID cut dir: %s", config.PIDCutDir), "config")
	logger.Info(fmt.Sprintf("Max events: %d", config.MaxEvents), "config")
	logger.Info(fmt.Sprintf("Cut id: %d", config.CutID), "config")
	logger.Info(fmt.Sprintf("Cut focal planes: %v", config.CutFocalPlanes), "config")
	for _, c := range config.PIDCuts {
		logger.Info(fmt.Sprintf("PID cut %s: segment %d, gate %v, single hit %v",
			c.Name, c.Segment, c.GatePlanes, c.SingleHitPlanes), "config")
	}
}
