package main

import (
	"encoding/json"
	"fmt"
	"os"

	pid "github.com/ribf-analysis/pid_go/pkg"
)

func LoadConfiguration(filename string) (pid.Configuration, error) {
	config := pid.DefaultConfiguration()

	data, err := os.ReadFile(filename)
	if err != nil {
		return config, err
	}
	err = json.Unmarshal(data, &config)
	if err != nil {
		return config, err
	}
	if config.NumWorkers < 1 {
		return config, fmt.Errorf("num_workers must be at least 1, got %d", config.NumWorkers)
	}
	return config, nil
}

func printConfiguration(config pid.Configuration, logger pid.Logger) {
	logger.Info(fmt.Sprintf("File in: %s", config.FileIn), "config")
	logger.Info(fmt.Sprintf("File out: %s", config.FileOut), "config")
	logger.Info(fmt.Sprintf("Run number: %d", config.RunNumber), "config")
	logger.Info(fmt.Sprintf("No DB: %t", config.NoDB), "config")
	logger.Info(fmt.Sprintf("Host: %s", config.Host), "config")
	logger.Info(fmt.Sprintf("DB name: %s", config.DBName), "config")
	logger.Info(fmt.Sprintf("Skip: %d", config.Skip), "config")
	logger.Info(fmt.Sprintf("Max events: %d", config.MaxEvents), "config")
	logger.Info(fmt.Sprintf("Verbosity: %d", config.Verbosity), "config")
	logger.Info(fmt.Sprintf("Number of workers: %d", config.NumWorkers), "config")
	logger.Info(fmt.Sprintf("Write data: %t", config.WriteData), "config")
	logger.Info(fmt.Sprintf("Discard failed events: %t", config.Discard), "config")
	logger.Info(fmt.Sprintf("Compression level: %d", config.CompressionLevel), "config")
	for _, fp := range config.FocalPlanes {
		logger.Info(fmt.Sprintf("Focal plane F%d: z offset %.1f mm", fp.ID, fp.ZOffset), "config")
	}
	for _, r := range config.RIPS {
		logger.Info(fmt.Sprintf("RIPS %s: F%d-F%d, matrix %s, Brho0 %.5f Tm",
			r.Name, r.Upstream, r.Downstream, r.MatrixFile, r.CenterBrho), "config")
	}
	for i, t := range config.TOF {
		logger.Info(fmt.Sprintf("TOF %d: F%dpl-F%dpl, offset %.3f ns, length %.1f mm",
			i, t.Start, t.Stop, t.Offset, t.Length()), "config")
	}
	for s, sc := range config.Segments {
		logger.Info(fmt.Sprintf("Segment %d: RIPS %v, TOF %d, IC %d", s, sc.RIPS, sc.TOF, sc.IC), "config")
	}
	for _, g := range config.Groups {
		logger.Info(fmt.Sprintf("%s: segments %v, reference planes %v, A/Q gain %g offset %g",
			g.Name, g.Segments, g.ReferencePlanes, g.AoQGain, g.AoQOffset), "config")
	}
	logger.Info(fmt.Sprintf("Drift file: %s", config.DriftFile), "config")
	logger.Info(fmt.Sprintf("Cut file: %s", config.CutFile), "config")
	logger.Info(fmt.Sprintf("Cut dir: %s", config.CutDir), "config")
	logger.Info(fmt.Sprintf("Cut id: %d", config.CutID), "config")
	logger.Info(fmt.Sprintf("Cut focal planes: %v", config.CutFocalPlanes), "config")
	logger.Info(fmt.Sprintf("Upstream focal planes: %v", config.UpstreamFocalPlanes), "config")
}
