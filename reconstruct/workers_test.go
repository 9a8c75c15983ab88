package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"testing"

	pid "github.com/ribf-analysis/pid_go/pkg"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// minimalCalibration reconstructs without matrices, so every segment is
// invalid, which is enough to drive the pipeline.
func minimalCalibration() *pid.Calibration {
	cal := &pid.Calibration{
		RunNumber:  77,
		StartEvent: 100,
		ZOffsets:   map[int]float64{3: 0, 5: 0, 7: 0},
		RIPS:       []*pid.RIPS{{Name: "F3-F5", Upstream: 3, Downstream: 5}},
		TOF:        []pid.TOFConfig{{Start: 3, Stop: 7, LengthUp: 20000, LengthDown: 20000}},
		ICs:        []pid.ICConfig{{FocalPlane: 7, IonPair: 4866, ZSlope: 1}},
		Cuts:       pid.NewCutSet(),
	}
	for s := range cal.Segments {
		cal.Segments[s] = pid.SegmentConfig{RIPS: []int{0}}
	}
	return cal
}

func writeEvents(t *testing.T, n int) *os.File {
	t.Helper()
	var sb strings.Builder
	for i := 0; i < n; i++ {
		fmt.Fprintf(&sb, `{"run": 77, "event": %d, "timestamp": %d, "focal_planes": {}}`+"\n", 1000+i, 5*i)
	}
	path := filepath.Join(t.TempDir(), "events.jsonl")
	require.NoError(t, os.WriteFile(path, []byte(sb.String()), 0o644))
	file, err := os.Open(path)
	require.NoError(t, err)
	t.Cleanup(func() { file.Close() })
	return file
}

func setTestConfiguration(t *testing.T, mutate func(*pid.Configuration)) {
	t.Helper()
	saved := configuration
	configuration = pid.DefaultConfiguration()
	configuration.WriteData = false
	if mutate != nil {
		mutate(&configuration)
	}
	t.Cleanup(func() { configuration = saved })
}

func TestProcessWorkerResultsOrdersEvents(t *testing.T) {
	results := make(chan WorkerResult, 4)
	for _, seq := range []int{2, 0, 3, 1} {
		results <- WorkerResult{Seq: seq, Event: pid.EventType{EventNumber: int64(seq), Error: seq == 3}}
	}
	close(results)

	var order []int64
	var summary Summary
	err := processWorkerResults(results, func(event pid.EventType) error {
		order = append(order, event.EventNumber)
		return nil
	}, &summary)
	require.NoError(t, err)
	assert.Equal(t, []int64{0, 1, 2, 3}, order)
	assert.Equal(t, 1, summary.Failed)

	failing := make(chan WorkerResult, 1)
	failing <- WorkerResult{Seq: 0}
	close(failing)
	errWrite := errors.New("disk full")
	err = processWorkerResults(failing, func(pid.EventType) error { return errWrite }, &summary)
	assert.ErrorIs(t, err, errWrite)
}

func TestReconstructRecoversPanics(t *testing.T) {
	cal := minimalCalibration()
	cal.TOF = nil

	job := WorkerData{Raw: pid.RawEvent{RunNumber: 77, EventNumber: 5}, Ordinal: 3, Seq: 8}
	result := reconstruct(0, cal, job)
	assert.Equal(t, 8, result.Seq)
	assert.True(t, result.Event.Error)
	assert.Equal(t, int64(5), result.Event.EventNumber)
	assert.Equal(t, int64(103), result.Event.Index)
}

func TestFileReader(t *testing.T) {
	setTestConfiguration(t, func(c *pid.Configuration) {
		c.Skip = 2
		c.MaxEvents = 5
	})
	file := writeEvents(t, 8)

	count, run, err := countEvents(file)
	require.NoError(t, err)
	assert.Equal(t, 8, count)
	assert.Equal(t, 77, run)

	reader := NewFileReader(file)
	var ordinals []int64
	for {
		raw, ordinal, err := reader.getNextEvent()
		if err != nil {
			break
		}
		assert.Equal(t, 1000+ordinal, raw.EventNumber)
		ordinals = append(ordinals, ordinal)
	}
	assert.Equal(t, []int64{2, 3, 4}, ordinals)
}

func TestRunPipeline(t *testing.T) {
	setTestConfiguration(t, nil)

	t.Run("every event is reconstructed", func(t *testing.T) {
		file := writeEvents(t, 50)
		summary, err := runPipeline(context.Background(), NewFileReader(file), minimalCalibration(), nil, 4)
		require.NoError(t, err)
		assert.Equal(t, 50, summary.Read)
		assert.Equal(t, 0, summary.Written)
		assert.Equal(t, 0, summary.Failed)
		assert.Equal(t, [pid.NumSegments]int{}, summary.Valid)
	})

	t.Run("interrupt stops reading", func(t *testing.T) {
		file := writeEvents(t, 50)
		stop, cancel := context.WithCancel(context.Background())
		cancel()
		summary, err := runPipeline(stop, NewFileReader(file), minimalCalibration(), nil, 2)
		require.NoError(t, err)
		assert.Equal(t, 0, summary.Read)
	})

	t.Run("malformed input fails the run", func(t *testing.T) {
		path := filepath.Join(t.TempDir(), "bad.jsonl")
		require.NoError(t, os.WriteFile(path, []byte(`{"run": 77, "event": 1}`+"\n{broken\n"), 0o644))
		file, err := os.Open(path)
		require.NoError(t, err)
		defer file.Close()

		_, err = runPipeline(context.Background(), NewFileReader(file), minimalCalibration(), nil, 2)
		assert.Error(t, err)
	})
}
