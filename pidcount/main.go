package main

import (
	"context"
	"encoding/json"
	"errors"
	"flag"
	"fmt"
	"io"
	"os"
	"os/signal"
	"syscall"

	pid "github.com/ribf-analysis/pid_go/pkg"
	"github.com/ribf-analysis/pid_go/pkg/logging"
)

var (
	logger         logging.Logger
	VerbosityLevel int
)

func init() {
	logger = logging.New(os.Stdout, os.Stderr)
}

func main() {
	configFilename := flag.String("config", "", "Configuration file path")
	run := flag.Int("run", 0, "Run number, overrides the one of the input")
	flag.Parse()

	configuration, err := LoadConfiguration(*configFilename)
	if err != nil {
		message := fmt.Errorf("Error reading configuration file: %w", err)
		logger.Error(message.Error())
		return
	}
	if *run != 0 {
		configuration.RunNumber = *run
	}
	pid.SetConfiguration(configuration.Configuration)
	pid.SetLogger(logger)
	VerbosityLevel = configuration.Verbosity
	if VerbosityLevel > 0 {
		printConfiguration(configuration, logger)
	}

	file, err := os.Open(configuration.FileIn)
	if err != nil {
		message := fmt.Errorf("Error opening file: %w", err)
		logger.Error(message.Error())
		return
	}
	defer file.Close()

	stop, cancel := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer cancel()

	counts, histos, err := countRun(stop, file, configuration)
	if err != nil {
		logger.Error(err.Error())
		return
	}

	for _, c := range counts {
		logger.Info(fmt.Sprintf("Cut applied %s in PID %d: %d", c.Name, c.Segment, c.InCut), "count")
	}
	for _, c := range counts {
		logger.Info(fmt.Sprintf("Total %s in PID %d: %d", c.Name, c.Segment, c.Total), "count")
	}

	if configuration.HistFile != "" {
		if err := writeHistograms(configuration.HistFile, histos); err != nil {
			logger.Error(fmt.Errorf("Error writing histograms: %w", err).Error())
		}
	}
	if configuration.PlotDir != "" {
		if err := plotHistograms(configuration.PlotDir, histos); err != nil {
			logger.Error(fmt.Errorf("Error plotting histograms: %w", err).Error())
		}
	}
}

// countRun reconstructs the events of r one after the other, counting
// the PID cuts and filling the group histograms. The run number and the
// calibration, database values included, are taken from the first event.
func countRun(stop context.Context, r io.Reader, configuration Configuration) ([]pid.PIDCount, []*groupHistos, error) {
	decoder := json.NewDecoder(r)

	var cal *pid.Calibration
	var counter *pid.PIDCounter
	var histos []*groupHistos

	var ordinal int64 = -1
	for {
		select {
		case <-stop.Done():
			logger.Warn(fmt.Sprintf("Interrupted after %d events", ordinal+1), "count")
			return counts(counter), histos, nil
		default:
		}

		var raw pid.RawEvent
		err := decoder.Decode(&raw)
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return nil, nil, fmt.Errorf("error reading event: %w", err)
		}
		ordinal++
		if ordinal >= int64(configuration.MaxEvents) {
			break
		}

		if cal == nil {
			runNumber := raw.RunNumber
			if configuration.RunNumber != 0 {
				runNumber = configuration.RunNumber
			}
			if err := pid.LoadRunCalibration(&configuration.Configuration, runNumber); err != nil {
				return nil, nil, err
			}
			pid.SetConfiguration(configuration.Configuration)
			cal, err = pid.NewCalibration(configuration.Configuration, runNumber)
			if err != nil {
				return nil, nil, fmt.Errorf("error loading calibration: %w", err)
			}
			cuts, err := loadPIDCuts(configuration, runNumber)
			if err != nil {
				return nil, nil, err
			}
			counter, err = pid.NewPIDCounter(cuts, cal.CutPlanes)
			if err != nil {
				return nil, nil, err
			}
			for i := range cal.Groups {
				if len(cal.Groups[i].Segments) == 0 {
					continue
				}
				// the first spectrometer is gated on its own planes, the
				// following ones on every plane
				gate := cal.UpstreamIDs
				if i > 0 {
					gate = cal.CutPlanes
				}
				histos = append(histos, newGroupHistos(configuration, &cal.Groups[i], gate))
			}
		}
		if ordinal < int64(configuration.Skip) {
			continue
		}

		event := cal.ProcessEvent(raw, cal.EventIndex(ordinal))
		counter.Count(&event)
		for _, h := range histos {
			h.Fill(&event, cal.CutPlanes)
		}
	}
	return counts(counter), histos, nil
}

func counts(counter *pid.PIDCounter) []pid.PIDCount {
	if counter == nil {
		return nil
	}
	return counter.Counts()
}
