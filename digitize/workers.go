package main

import (
	"context"
	"fmt"
	"io"

	digitizer "github.com/jmbenlloch/digitizer_go/pkg"
)

type WorkerData struct {
	Index  int
	Header digitizer.EventHeader
	Data   []byte
}

type WorkerResult struct {
	Index  int
	Record digitizer.EventRecord
}

// Each worker owns its Digitizer; only the geometry is shared.
func worker(ctx context.Context, id int, geometry *digitizer.Geometry, filter digitizer.DepositFilter,
	smearer digitizer.Smearer, jobs <-chan WorkerData, results chan<- WorkerResult) {
	buffer := &digitizer.HitBuffer{}
	digi, err := digitizer.NewDigitizer(geometry, filter, smearer, buffer, configuration.Seed)
	if err != nil {
		logger.Error(fmt.Sprintf("worker %d: %v", id, err))
		for job := range jobs {
			results <- WorkerResult{Index: job.Index, Record: digitizer.EventRecord{EventID: job.Header.EventID, Error: true}}
		}
		return
	}

	for job := range jobs {
		if VerbosityLevel > 2 {
			logger.Info(fmt.Sprintf("Worker %d processing event %d", id, job.Header.EventID), "worker")
		}
		results <- WorkerResult{Index: job.Index, Record: processEvent(ctx, digi, buffer, job)}
	}
}

func processEvent(ctx context.Context, digi *digitizer.Digitizer, buffer *digitizer.HitBuffer,
	job WorkerData) (record digitizer.EventRecord) {
	record.EventID = job.Header.EventID
	defer func() {
		if r := recover(); r != nil {
			errMessage := fmt.Errorf("digitizer recovered from panic on event %d: %v", job.Header.EventID, r)
			logger.Error(errMessage.Error())
			digi.AbortEvent()
			buffer.Take()
			record = digitizer.EventRecord{EventID: job.Header.EventID, Error: true}
		}
	}()

	event, err := digitizer.DecodeEvent(job.Header, job.Data)
	if err != nil {
		logger.Error(fmt.Errorf("error decoding event: %w", err).Error())
		record.Error = true
		return record
	}

	if err := digitizer.DigitizeEvent(ctx, digi, event); err != nil {
		logger.Error(err.Error())
		buffer.Take()
		record.Error = true
		return record
	}

	record.Primaries = event.Primaries
	record.Hits = buffer.Take()
	record.Stats = digi.Stats()
	return record
}

func sendEventsToWorkers(ctx context.Context, fileReader *FileReader, jobs chan<- WorkerData) {
	defer close(jobs)
	for index := 0; ; index++ {
		header, eventData, err := fileReader.getNextEvent()
		if err == io.EOF {
			return
		}
		if err != nil {
			logger.Error(fmt.Errorf("error reading event: %w", err).Error())
			return
		}
		select {
		case jobs <- WorkerData{Index: index, Header: header, Data: eventData}:
		case <-ctx.Done():
			return
		}
	}
}

// EventWriter is implemented by *output.Writer.
type EventWriter interface {
	WriteEvent(record *digitizer.EventRecord) error
}

type RunSummary struct {
	Events    int
	Discarded int
	Deposits  int
	Hits      int
}

// processWorkerResults writes events in input order, whatever order the
// workers finish them in. After a write error the remaining results are
// drained but not written.
func processWorkerResults(results <-chan WorkerResult, writer EventWriter) (RunSummary, error) {
	summary := RunSummary{}
	var writeErr error
	pending := make(map[int]digitizer.EventRecord)
	next := 0

	for result := range results {
		pending[result.Index] = result.Record
		for {
			record, ok := pending[next]
			if !ok {
				break
			}
			delete(pending, next)
			next++

			summary.Events++
			if record.Error {
				summary.Discarded++
				continue
			}
			summary.Deposits += record.Stats.Deposits
			summary.Hits += len(record.Hits)
			if VerbosityLevel > 0 {
				message := fmt.Sprintf("Digitized event %d: %d hits from %d deposits",
					record.EventID, len(record.Hits), record.Stats.Deposits)
				logger.Info(message, "writer")
			}
			if writer != nil && writeErr == nil {
				if err := writer.WriteEvent(&record); err != nil {
					writeErr = fmt.Errorf("event %d: %w", record.EventID, err)
				}
			}
		}
	}
	return summary, writeErr
}
