package digitizer

import (
	"context"
	"errors"
	"fmt"
)

// HitSink receives the hits of one event, in processing order, once the
// event is over.
type HitSink interface {
	ExportHits(ctx context.Context, eventID uint32, hits []Hit) error
}

type State int

const (
	Idle State = iota
	Collecting
	Exporting
)

func (s State) String() string {
	switch s {
	case Idle:
		return "Idle"
	case Collecting:
		return "Collecting"
	case Exporting:
		return "Exporting"
	default:
		return "Unknown"
	}
}

// Digitizer turns the deposits of one event at a time into hits. It is not
// safe for concurrent use: run one Digitizer per worker.
type Digitizer struct {
	geometry *Geometry
	filter   DepositFilter
	smearer  Smearer
	sink     HitSink
	seed     int64

	state      State
	eventID    uint32
	rng        RandomSource
	collection *HitCollection
	stats      EventStats
}

func NewDigitizer(geometry *Geometry, filter DepositFilter, smearer Smearer, sink HitSink, seed int64) (*Digitizer, error) {
	if geometry == nil || geometry.Len() == 0 {
		return nil, &ErrInvalidGeometry{Reason: "no geometry supplied to the digitizer"}
	}
	if sink == nil {
		return nil, errors.New("digitizer needs a hit sink")
	}
	return &Digitizer{
		geometry: geometry,
		filter:   filter,
		smearer:  smearer,
		sink:     sink,
		seed:     seed,
		state:    Idle,
	}, nil
}

func (d *Digitizer) State() State {
	return d.state
}

// Stats returns the counters of the current (or last) event.
func (d *Digitizer) Stats() EventStats {
	return d.stats
}

func (d *Digitizer) EventStart(eventID uint32) error {
	if d.state != Idle {
		return &ErrOutOfOrderDeposit{EventID: eventID, State: d.state, Op: "event start"}
	}
	d.eventID = eventID
	d.rng = EventRand(d.seed, eventID)
	d.collection = NewHitCollection()
	d.stats = EventStats{}
	d.state = Collecting
	return nil
}

// ProcessDeposit runs the response model on one deposit. Rejected deposits
// are not errors. An *ErrUnknownDetectorElement drops only this deposit;
// errors for which IsFatalToEvent is true have already aborted the event.
func (d *Digitizer) ProcessDeposit(deposit RawDeposit) error {
	if d.state != Collecting {
		return &ErrOutOfOrderDeposit{EventID: d.eventID, State: d.state, Op: "deposit"}
	}
	d.stats.Deposits++

	switch d.filter.Decide(d.rng, deposit) {
	case RejectedEfficiency:
		d.stats.EfficiencyLoss++
		return nil
	case RejectedThreshold:
		d.stats.BelowThreshold++
		return nil
	}

	class, err := d.geometry.Classify(deposit.ElementID)
	if err != nil {
		d.stats.UnknownElement++
		var unknown *ErrUnknownDetectorElement
		if errors.As(err, &unknown) {
			unknown.EventID = d.eventID
		}
		return err
	}

	measured, err := d.smearer.Smear(d.rng, deposit.Position, class)
	if err != nil {
		var degenerate *ErrDegenerateGeometry
		if errors.As(err, &degenerate) {
			degenerate.EventID = d.eventID
			degenerate.ElementID = deposit.ElementID
		}
		d.AbortEvent()
		return err
	}

	d.collection.Append(newHit(deposit, measured))
	d.stats.Accepted++
	return nil
}

// EventEnd exports the hits of the event to the sink and goes back to Idle,
// whether the sink succeeds or not.
func (d *Digitizer) EventEnd(ctx context.Context) error {
	if d.state != Collecting {
		return &ErrOutOfOrderDeposit{EventID: d.eventID, State: d.state, Op: "event end"}
	}
	d.state = Exporting
	hits := d.collection.Drain()
	defer d.reset()

	if err := ctx.Err(); err != nil {
		return fmt.Errorf("event %d: export cancelled: %w", d.eventID, err)
	}
	if err := d.sink.ExportHits(ctx, d.eventID, hits); err != nil {
		return fmt.Errorf("event %d: error exporting %d hits: %w", d.eventID, len(hits), err)
	}
	return nil
}

// AbortEvent drops the hits collected so far.
func (d *Digitizer) AbortEvent() {
	if d.collection != nil {
		d.collection.Drain()
	}
	d.reset()
}

func (d *Digitizer) reset() {
	d.collection = nil
	d.rng = nil
	d.state = Idle
}
