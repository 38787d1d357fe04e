package output

import (
	"context"
	"errors"
	"fmt"

	"github.com/jmbenlloch/go-hdf5"

	digitizer "github.com/jmbenlloch/digitizer_go/pkg"
)

// Writer stores digitized events in an HDF5 file:
//
//	/Run/runInfo         run number and response parameters
//	/Run/events          one row per event
//	/Tracker/hits        one row per hit
//	/Tracker/tracks      one row per primary track
//	/Geometry/elements   the element mapping used for the run
type Writer struct {
	File          *hdf5.File
	Filename      string
	RunGroup      *hdf5.Group
	TrackerGroup  *hdf5.Group
	GeometryGroup *hdf5.Group
	EventTable    *hdf5.Dataset
	RunInfoTable  *hdf5.Dataset
	HitTable      *hdf5.Dataset
	TrackTable    *hdf5.Dataset
	ElementTable  *hdf5.Dataset
	EvtCounter    int
	HitCounter    int
	TrackCounter  int
	WriteTracks   bool
}

func NewWriter(filename string, geometry *digitizer.Geometry, config digitizer.Configuration) (*Writer, error) {
	writer := &Writer{Filename: filename, WriteTracks: config.WriteTracks}
	var err error

	if writer.File, err = openFile(filename); err != nil {
		return nil, err
	}
	fail := func(err error) (*Writer, error) {
		if closeErr := writer.Close(); closeErr != nil {
			err = errors.Join(err, closeErr)
		}
		return nil, err
	}

	if writer.RunGroup, err = createGroup(writer.File, "Run"); err != nil {
		return fail(err)
	}
	if writer.TrackerGroup, err = createGroup(writer.File, "Tracker"); err != nil {
		return fail(err)
	}
	if writer.GeometryGroup, err = createGroup(writer.File, "Geometry"); err != nil {
		return fail(err)
	}

	level := config.CompressionLevel
	if writer.RunInfoTable, err = createTable(writer.RunGroup, "runInfo", RunInfoHDF5{}, level); err != nil {
		return fail(err)
	}
	if writer.EventTable, err = createTable(writer.RunGroup, "events", EventDataHDF5{}, level); err != nil {
		return fail(err)
	}
	if writer.HitTable, err = createTable(writer.TrackerGroup, "hits", HitHDF5{}, level); err != nil {
		return fail(err)
	}
	if writer.WriteTracks {
		if writer.TrackTable, err = createTable(writer.TrackerGroup, "tracks", TrackHDF5{}, level); err != nil {
			return fail(err)
		}
	}
	if writer.ElementTable, err = createTable(writer.GeometryGroup, "elements", ElementHDF5{}, level); err != nil {
		return fail(err)
	}

	runInfo := RunInfoHDF5{
		run_number: int32(config.RunNumber),
		seed:       config.Seed,
		efficiency: config.Efficiency,
		threshold:  config.Threshold(),
		resolution: config.Resolution(),
	}
	if err := writeEntryToTable(writer.RunInfoTable, "runInfo", runInfo, 0); err != nil {
		return fail(err)
	}
	elements := elementRows(geometry)
	if err := writeArrayToTable(writer.ElementTable, "elements", &elements, 0); err != nil {
		return fail(err)
	}
	return writer, nil
}

// ExportHits makes the Writer usable as the sink of a Digitizer. Only the
// hits table is written: the sink does not see the event counters, so the
// /Run/events row and the tracks come from WriteEvent.
func (w *Writer) ExportHits(ctx context.Context, eventID uint32, hits []digitizer.Hit) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	return w.writeHits(hits)
}

// WriteEvent writes the full record of one event: events row, hits and,
// if enabled, tracks.
func (w *Writer) WriteEvent(event *digitizer.EventRecord) error {
	evtData := EventDataHDF5{
		evt_number: event.EventID,
		n_deposits: int32(event.Stats.Deposits),
		n_hits:     int32(len(event.Hits)),
	}
	if err := writeEntryToTable(w.EventTable, "events", evtData, w.EvtCounter); err != nil {
		return err
	}
	w.EvtCounter++

	if err := w.writeHits(event.Hits); err != nil {
		return err
	}

	if w.WriteTracks {
		tracks := trackRows(event.EventID, event.Primaries)
		if err := writeArrayToTable(w.TrackTable, "tracks", &tracks, w.TrackCounter); err != nil {
			return err
		}
		w.TrackCounter += len(tracks)
	}
	return nil
}

func (w *Writer) writeHits(hits []digitizer.Hit) error {
	rows := hitRows(hits)
	if err := writeArrayToTable(w.HitTable, "hits", &rows, w.HitCounter); err != nil {
		return err
	}
	w.HitCounter += len(rows)
	return nil
}

type closer interface {
	Close() error
}

func (w *Writer) Close() error {
	var errs []error

	closeOne := func(what string, c closer) {
		if err := c.Close(); err != nil {
			errs = append(errs, fmt.Errorf("error closing %s: %w", what, err))
		}
	}
	if w.EventTable != nil {
		closeOne("event table", w.EventTable)
	}
	if w.RunInfoTable != nil {
		closeOne("run info table", w.RunInfoTable)
	}
	if w.HitTable != nil {
		closeOne("hit table", w.HitTable)
	}
	if w.TrackTable != nil {
		closeOne("track table", w.TrackTable)
	}
	if w.ElementTable != nil {
		closeOne("element table", w.ElementTable)
	}
	if w.RunGroup != nil {
		closeOne("run group", w.RunGroup)
	}
	if w.TrackerGroup != nil {
		closeOne("tracker group", w.TrackerGroup)
	}
	if w.GeometryGroup != nil {
		closeOne("geometry group", w.GeometryGroup)
	}
	if w.File != nil {
		closeOne("file", w.File)
	}

	if len(errs) > 0 {
		return errors.Join(errs...)
	}
	return nil
}
