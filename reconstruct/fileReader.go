package main

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"

	pid "github.com/ribf-analysis/pid_go/pkg"
)

// FileReader delivers the raw events of a JSON lines file in order,
// honouring the skip and max_events settings. EvtCount is the ordinal of
// the last event read in the file.
type FileReader struct {
	File     *os.File
	decoder  *json.Decoder
	EvtCount int64
}

func NewFileReader(file *os.File) *FileReader {
	return &FileReader{File: file, decoder: json.NewDecoder(file), EvtCount: -1}
}

// getNextEvent returns the next event to process and its ordinal in the
// file. io.EOF marks the end of the input.
func (f *FileReader) getNextEvent() (pid.RawEvent, int64, error) {
	for {
		var event pid.RawEvent
		if err := f.decoder.Decode(&event); err != nil {
			if errors.Is(err, io.EOF) {
				return event, f.EvtCount, io.EOF
			}
			return event, f.EvtCount, fmt.Errorf("error decoding event after ordinal %d: %w", f.EvtCount, err)
		}
		f.EvtCount++
		if f.EvtCount >= int64(configuration.MaxEvents) {
			if VerbosityLevel > 0 {
				logger.Info("Max events reached", "fileReader")
			}
			return event, f.EvtCount, io.EOF
		}
		if f.EvtCount < int64(configuration.Skip) {
			if VerbosityLevel > 1 {
				message := fmt.Sprintf("Skipping event %d with ID %d", f.EvtCount, event.EventNumber)
				logger.Info(message, "fileReader")
			}
			continue
		}
		if VerbosityLevel > 1 {
			message := fmt.Sprintf("Reading event %d with ID %d", f.EvtCount, event.EventNumber)
			logger.Info(message, "fileReader")
		}
		return event, f.EvtCount, nil
	}
}

// countEvents scans the file for the number of events and the run number
// of the first one, then rewinds it.
func countEvents(file *os.File) (int, int, error) {
	evtCount := 0
	runNumber := 0
	decoder := json.NewDecoder(file)
	for {
		var event pid.RawEvent
		err := decoder.Decode(&event)
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return evtCount, runNumber, fmt.Errorf("error counting events: %w", err)
		}
		if evtCount == 0 {
			runNumber = event.RunNumber
		}
		evtCount++
	}
	// Go back to the beginning of the file
	if _, err := file.Seek(0, io.SeekStart); err != nil {
		return evtCount, runNumber, fmt.Errorf("error rewinding input: %w", err)
	}
	return evtCount, runNumber, nil
}
