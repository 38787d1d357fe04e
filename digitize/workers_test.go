package main

import (
	"bytes"
	"context"
	"errors"
	"math"
	"math/rand"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gonum.org/v1/gonum/spatial/r3"

	digitizer "github.com/jmbenlloch/digitizer_go/pkg"
)

type fakeWriter struct {
	ids  []uint32
	hits [][]digitizer.Hit
	fail uint32
}

func (w *fakeWriter) WriteEvent(record *digitizer.EventRecord) error {
	if w.fail != 0 && record.EventID == w.fail {
		return errors.New("write failed")
	}
	w.ids = append(w.ids, record.EventID)
	w.hits = append(w.hits, record.Hits)
	return nil
}

func withConfiguration(t *testing.T, config digitizer.Configuration) {
	saved := configuration
	configuration = config
	t.Cleanup(func() { configuration = saved })
}

func TestProcessWorkerResultsReorders(t *testing.T) {
	results := make(chan WorkerResult, 5)
	for _, index := range []int{2, 0, 4, 1, 3} {
		record := digitizer.EventRecord{EventID: uint32(10 + index)}
		record.Stats.Deposits = 3
		record.Error = index == 3
		results <- WorkerResult{Index: index, Record: record}
	}
	close(results)

	writer := &fakeWriter{}
	summary, err := processWorkerResults(results, writer)
	require.NoError(t, err)
	assert.Equal(t, []uint32{10, 11, 12, 14}, writer.ids)
	assert.Equal(t, RunSummary{Events: 5, Discarded: 1, Deposits: 12}, summary)
}

func TestProcessWorkerResultsDrainsAfterError(t *testing.T) {
	results := make(chan WorkerResult, 4)
	for index := 0; index < 4; index++ {
		results <- WorkerResult{Index: index, Record: digitizer.EventRecord{EventID: uint32(index + 1)}}
	}
	close(results)

	writer := &fakeWriter{fail: 2}
	summary, err := processWorkerResults(results, writer)
	assert.ErrorContains(t, err, "write failed")
	assert.Equal(t, []uint32{1}, writer.ids)
	assert.Equal(t, 4, summary.Events)
}

func writeTestFile(t *testing.T, n int) *bytes.Reader {
	t.Helper()
	var buf bytes.Buffer
	rng := rand.New(rand.NewSource(3))
	for i := 0; i < n; i++ {
		event := digitizer.InputEvent{EventID: uint32(100 + i)}
		for j := 0; j < 20; j++ {
			phi := rng.Float64() * 6
			event.Deposits = append(event.Deposits, digitizer.RawDeposit{
				TrackID:   int32(j + 1),
				ElementID: 1,
				Edep:      20 * digitizer.KeV,
				Position:  r3.Scale(50, r3.Vec{X: math.Cos(phi), Y: math.Sin(phi)}),
			})
		}
		require.NoError(t, digitizer.WriteEventToFile(&buf, event))
	}
	return bytes.NewReader(buf.Bytes())
}

func TestFileReaderSkipAndMax(t *testing.T) {
	config := digitizer.DefaultConfiguration()
	config.Skip = 2
	config.MaxEvents = 3
	withConfiguration(t, config)

	reader := NewFileReader(writeTestFile(t, 10))
	var ids []uint32
	for {
		header, _, err := reader.getNextEvent()
		if err != nil {
			break
		}
		ids = append(ids, header.EventID)
	}
	assert.Equal(t, []uint32{102, 103, 104}, ids)
	assert.Equal(t, 3, numberOfEventsToProcess(10, 2, 3))
	assert.Equal(t, 0, numberOfEventsToProcess(1, 2, 3))
}

// runWorkers digitizes the test file with n workers and returns the
// events as written.
func runWorkers(t *testing.T, n int) *fakeWriter {
	t.Helper()
	filter, err := digitizer.NewDepositFilter(0.7, digitizer.DefaultThreshold)
	require.NoError(t, err)
	smearer, err := digitizer.NewSmearer(digitizer.DefaultResolution)
	require.NoError(t, err)

	ctx := context.Background()
	jobs := make(chan WorkerData, n)
	results := make(chan WorkerResult, 10)
	done := make(chan struct{})
	for w := 0; w < n; w++ {
		go func(id int) {
			worker(ctx, id, digitizer.DefaultGeometry(), filter, smearer, jobs, results)
			done <- struct{}{}
		}(w)
	}
	go sendEventsToWorkers(ctx, NewFileReader(writeTestFile(t, 30)), jobs)
	go func() {
		for w := 0; w < n; w++ {
			<-done
		}
		close(results)
	}()

	writer := &fakeWriter{}
	summary, err := processWorkerResults(results, writer)
	require.NoError(t, err)
	assert.Equal(t, 30, summary.Events)
	assert.Zero(t, summary.Discarded)
	return writer
}

func TestWorkersSerialEqualsParallel(t *testing.T) {
	withConfiguration(t, digitizer.DefaultConfiguration())

	serial := runWorkers(t, 1)
	parallel := runWorkers(t, 4)
	assert.Equal(t, serial.ids, parallel.ids)
	assert.Equal(t, serial.hits, parallel.hits)
	assert.Equal(t, uint32(100), serial.ids[0])
}
