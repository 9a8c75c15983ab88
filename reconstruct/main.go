package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/pkg/profile"
	pid "github.com/ribf-analysis/pid_go/pkg"
	"github.com/ribf-analysis/pid_go/pkg/logging"
	"github.com/ribf-analysis/pid_go/pkg/writer"
)

var configuration pid.Configuration

var (
	logger         logging.Logger
	VerbosityLevel int
)

func init() {
	logger = logging.New(os.Stdout, os.Stderr)
}

func main() {
	configFilename := flag.String("config", "", "Configuration file path")
	cpuProfile := flag.Bool("cpuprofile", false, "Write a CPU profile to the working directory")
	flag.Parse()

	if *cpuProfile {
		defer profile.Start(profile.CPUProfile, profile.ProfilePath("."), profile.Quiet).Stop()
	}

	var err error
	configuration, err = LoadConfiguration(*configFilename)
	if err != nil {
		message := fmt.Errorf("Error reading configuration file: %w", err)
		logger.Error(message.Error())
		return
	}
	pid.SetConfiguration(configuration)
	pid.SetLogger(logger)

	VerbosityLevel = configuration.Verbosity
	if VerbosityLevel > 0 {
		message := fmt.Sprintf("Reading configuration file: %s", *configFilename)
		logger.Info(message, "main")
	}

	file, err := os.Open(configuration.FileIn)
	if err != nil {
		message := fmt.Errorf("Error opening file: %w", err)
		logger.Error(message.Error())
		return
	}
	defer file.Close()

	evtCount, runNumber, err := countEvents(file)
	if err != nil {
		logger.Error(err.Error())
		return
	}
	if configuration.RunNumber != 0 {
		runNumber = configuration.RunNumber
	}
	if VerbosityLevel > 0 {
		message := fmt.Sprintf("Number of events: %d in run %d", evtCount, runNumber)
		logger.Info(message, "main")
	}

	if err := pid.LoadRunCalibration(&configuration, runNumber); err != nil {
		logger.Error(err.Error())
		return
	}
	pid.SetConfiguration(configuration)
	if VerbosityLevel > 0 {
		printConfiguration(configuration, logger)
	}

	cal, err := pid.NewCalibration(configuration, runNumber)
	if err != nil {
		message := fmt.Errorf("Error loading calibration: %w", err)
		logger.Error(message.Error())
		return
	}

	var w *writer.Writer
	if configuration.WriteData {
		w, err = writer.NewWriter(configuration.FileOut, configuration.CompressionLevel)
		if err != nil {
			message := fmt.Errorf("Error creating output file: %w", err)
			logger.Error(message.Error())
			return
		}
	}

	stop, cancel := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer cancel()

	start := time.Now()
	summary, err := runPipeline(stop, NewFileReader(file), cal, w, configuration.NumWorkers)
	if err != nil {
		message := fmt.Errorf("Error processing run %d: %w", runNumber, err)
		logger.Error(message.Error())
	}

	if w != nil {
		if err := w.Close(); err != nil {
			logger.Error(err.Error())
		}
	}

	duration := time.Since(start)
	logger.Info(fmt.Sprintf("Events read: %d, written: %d, failed: %d in %d ms",
		summary.Read, summary.Written, summary.Failed, duration.Milliseconds()), "main")
	for s, n := range summary.Valid {
		logger.Info(fmt.Sprintf("Segment %d: %d events with valid corrected A/Q and Z", s, n), "main")
	}
}
