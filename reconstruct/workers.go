package main

import (
	"context"
	"errors"
	"fmt"
	"io"

	pid "github.com/ribf-analysis/pid_go/pkg"
	"github.com/ribf-analysis/pid_go/pkg/writer"
	"golang.org/x/sync/errgroup"
)

type WorkerData struct {
	Raw     pid.RawEvent
	Ordinal int64
	Seq     int
}

type WorkerResult struct {
	Event pid.EventType
	Seq   int
}

type Summary struct {
	Read    int
	Written int
	Failed  int
	Valid   [pid.NumSegments]int
}

func reconstruct(id int, cal *pid.Calibration, job WorkerData) (result WorkerResult) {
	index := cal.EventIndex(job.Ordinal)
	defer func() {
		if r := recover(); r != nil {
			errMessage := fmt.Errorf("worker %d recovered from panic on event %d: %v", id, job.Raw.EventNumber, r)
			logger.Error(errMessage.Error())
			result = WorkerResult{
				Seq: job.Seq,
				Event: pid.EventType{
					RunNumber:   job.Raw.RunNumber,
					EventNumber: job.Raw.EventNumber,
					Index:       index,
					Timestamp:   job.Raw.Timestamp,
					Error:       true,
				},
			}
		}
	}()
	return WorkerResult{Event: cal.ProcessEvent(job.Raw, index), Seq: job.Seq}
}

// worker reconstructs events until jobs is closed. Each event is finished
// before ctx is looked at, so nothing half reconstructed is ever sent.
func worker(ctx context.Context, id int, cal *pid.Calibration, jobs <-chan WorkerData, results chan<- WorkerResult) {
	for job := range jobs {
		if VerbosityLevel > 2 {
			message := fmt.Sprintf("Worker %d processing event %d", id, job.Raw.EventNumber)
			logger.Info(message, "worker")
		}
		result := reconstruct(id, cal, job)
		select {
		case results <- result:
		case <-ctx.Done():
			return
		}
	}
}

// sendEventsToWorkers reads events until the input ends, an interrupt
// arrives on stop, or the pipeline fails.
func sendEventsToWorkers(stop context.Context, ctx context.Context, fileReader *FileReader,
	jobs chan<- WorkerData, summary *Summary) error {
	defer close(jobs)
	seq := 0
	for {
		select {
		case <-stop.Done():
			logger.Warn(fmt.Sprintf("Interrupted after reading %d events", seq), "reader")
			return nil
		case <-ctx.Done():
			return nil
		default:
		}

		raw, ordinal, err := fileReader.getNextEvent()
		if errors.Is(err, io.EOF) {
			return nil
		}
		if err != nil {
			return fmt.Errorf("error reading event: %w", err)
		}

		select {
		case jobs <- WorkerData{Raw: raw, Ordinal: ordinal, Seq: seq}:
			seq++
			summary.Read = seq
		case <-ctx.Done():
			return nil
		}
	}
}

// processWorkerResults hands the results to emit in input order,
// buffering those that arrive early.
func processWorkerResults(results <-chan WorkerResult, emit func(pid.EventType) error, summary *Summary) error {
	pending := make(map[int]pid.EventType)
	next := 0
	for result := range results {
		pending[result.Seq] = result.Event
		for {
			event, ok := pending[next]
			if !ok {
				break
			}
			delete(pending, next)
			next++

			if event.Error {
				summary.Failed++
			}
			for s, seg := range event.Beam.Segments {
				if seg.CorrAoQ.Valid && seg.CorrZ.Valid {
					summary.Valid[s]++
				}
			}
			if err := emit(event); err != nil {
				return err
			}
		}
	}
	return nil
}

// runPipeline reconstructs the whole input with numWorkers workers. stop
// ends the reading of new events; the events already read are still
// reconstructed and written.
func runPipeline(stop context.Context, fileReader *FileReader, cal *pid.Calibration,
	w *writer.Writer, numWorkers int) (Summary, error) {
	var summary Summary
	g, ctx := errgroup.WithContext(context.Background())
	jobs := make(chan WorkerData, 2*numWorkers)
	results := make(chan WorkerResult, 2*numWorkers)

	g.Go(func() error {
		return sendEventsToWorkers(stop, ctx, fileReader, jobs, &summary)
	})

	var workers errgroup.Group
	for i := 0; i < numWorkers; i++ {
		id := i
		workers.Go(func() error {
			worker(ctx, id, cal, jobs, results)
			return nil
		})
	}
	g.Go(func() error {
		err := workers.Wait()
		close(results)
		return err
	})

	emit := func(event pid.EventType) error {
		if !configuration.WriteData || (event.Error && configuration.Discard) {
			return nil
		}
		if err := writer.ProcessReconstructedEvent(event, configuration, w, cal.StartEvent); err != nil {
			return err
		}
		summary.Written++
		return nil
	}
	g.Go(func() error {
		return processWorkerResults(results, emit, &summary)
	})

	err := g.Wait()
	return summary, err
}
