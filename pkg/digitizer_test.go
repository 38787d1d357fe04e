package digitizer

import (
	"context"
	"errors"
	"math"
	"math/rand"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gonum.org/v1/gonum/spatial/r3"
)

func newTestDigitizer(t *testing.T, sink HitSink, efficiency float64, seed int64) *Digitizer {
	t.Helper()
	filter, err := NewDepositFilter(efficiency, DefaultThreshold)
	require.NoError(t, err)
	smearer, err := NewSmearer(DefaultResolution)
	require.NoError(t, err)
	d, err := NewDigitizer(DefaultGeometry(), filter, smearer, sink, seed)
	require.NoError(t, err)
	return d
}

func digitize(t *testing.T, d *Digitizer, eventID uint32, deposits []RawDeposit) {
	t.Helper()
	require.NoError(t, d.EventStart(eventID))
	for _, dep := range deposits {
		require.NoError(t, d.ProcessDeposit(dep))
	}
	require.NoError(t, d.EventEnd(context.Background()))
}

func TestDigitizerDeterministic(t *testing.T) {
	deposits := randomDeposits(rand.New(rand.NewSource(1)), DefaultGeometry(), 500)

	run := func(seed int64) []exportedEvent {
		sink := &recordingSink{}
		d := newTestDigitizer(t, sink, DefaultEfficiency, seed)
		for ev := uint32(0); ev < 5; ev++ {
			digitize(t, d, ev, deposits)
		}
		return sink.events
	}

	first := run(1234)
	second := run(1234)
	require.Len(t, first, 5)
	assert.Equal(t, first, second)

	other := run(4321)
	assert.NotEqual(t, first[0].Hits[0].Position, other[0].Hits[0].Position)
}

func TestDigitizerEventStreamIndependentOfHistory(t *testing.T) {
	deposits := randomDeposits(rand.New(rand.NewSource(2)), DefaultGeometry(), 100)

	alone := &recordingSink{}
	digitize(t, newTestDigitizer(t, alone, 0.8, 99), 7, deposits)

	after := &recordingSink{}
	d := newTestDigitizer(t, after, 0.8, 99)
	digitize(t, d, 3, deposits)
	digitize(t, d, 7, deposits)

	assert.Equal(t, alone.events[0], after.events[1])
}

func TestDigitizerKeepsDeliveryOrder(t *testing.T) {
	deposits := randomDeposits(rand.New(rand.NewSource(3)), DefaultGeometry(), 1000)
	sink := &recordingSink{}
	d := newTestDigitizer(t, sink, 0.6, 5)
	digitize(t, d, 1, deposits)

	hits := sink.events[0].Hits
	assert.Equal(t, d.Stats().Accepted, len(hits))
	assert.Equal(t, len(deposits), d.Stats().Deposits)
	assert.Equal(t, len(deposits), d.Stats().Accepted+d.Stats().EfficiencyLoss)
	assert.Greater(t, len(hits), 400)
	assert.Less(t, len(hits), 800)

	// Hits are the accepted deposits, in delivery order, with the
	// identifying fields and momentum carried over.
	next := 0
	for _, h := range hits {
		for next < len(deposits) && deposits[next].TrackID != h.TrackID {
			next++
		}
		require.Less(t, next, len(deposits), "hit of track %d out of order", h.TrackID)
		dep := deposits[next]
		assert.Equal(t, dep.ElementID, h.ElementID)
		assert.Equal(t, dep.PDG, h.PDG)
		assert.Equal(t, dep.Time, h.Time)
		assert.Equal(t, dep.Edep, h.Edep)
		assert.Equal(t, dep.Momentum, h.Momentum)
		next++
	}
}

func TestDigitizerGeometryInvariants(t *testing.T) {
	g := DefaultGeometry()
	deposits := randomDeposits(rand.New(rand.NewSource(4)), g, 2000)
	byTrack := make(map[int32]RawDeposit, len(deposits))
	for _, dep := range deposits {
		byTrack[dep.TrackID] = dep
	}

	sink := &recordingSink{}
	digitize(t, newTestDigitizer(t, sink, 1, 8), 1, deposits)
	require.Len(t, sink.events[0].Hits, len(deposits))

	for _, h := range sink.events[0].Hits {
		dep := byTrack[h.TrackID]
		class, err := g.Classify(h.ElementID)
		require.NoError(t, err)
		switch class {
		case Barrel:
			r := math.Hypot(dep.Position.X, dep.Position.Y)
			assert.InDelta(t, r, math.Hypot(h.Position.X, h.Position.Y), 1e-12*r)
		case Disc:
			assert.Equal(t, dep.Position.Z, h.Position.Z)
		}
		assert.Less(t, r3.Norm(r3.Sub(h.Position, dep.Position)), 10*DefaultResolution)
	}
}

func TestDigitizerBelowThresholdNeverHit(t *testing.T) {
	sink := &recordingSink{}
	d := newTestDigitizer(t, sink, 1, 0)
	deposit := RawDeposit{TrackID: 1, ElementID: 1, Edep: 0.5 * KeV, Position: r3.Vec{X: 50}}
	for ev := uint32(0); ev < 100; ev++ {
		digitize(t, d, ev, []RawDeposit{deposit, deposit})
		assert.Equal(t, 2, d.Stats().BelowThreshold)
	}
	for _, e := range sink.events {
		assert.Empty(t, e.Hits)
	}
}

func TestDigitizerUnknownElement(t *testing.T) {
	sink := &recordingSink{}
	d := newTestDigitizer(t, sink, 1, 0)
	require.NoError(t, d.EventStart(12))

	err := d.ProcessDeposit(RawDeposit{TrackID: 1, ElementID: 42, Edep: 10 * KeV, Position: r3.Vec{X: 50}})
	var unknown *ErrUnknownDetectorElement
	require.True(t, errors.As(err, &unknown))
	assert.Equal(t, uint32(12), unknown.EventID)
	assert.Equal(t, int32(42), unknown.ElementID)
	assert.False(t, IsFatalToEvent(err))
	assert.Equal(t, Collecting, d.State())

	require.NoError(t, d.ProcessDeposit(RawDeposit{TrackID: 2, ElementID: 1, Edep: 10 * KeV, Position: r3.Vec{X: 50}}))
	require.NoError(t, d.EventEnd(context.Background()))

	require.Len(t, sink.events, 1)
	require.Len(t, sink.events[0].Hits, 1)
	assert.Equal(t, int32(2), sink.events[0].Hits[0].TrackID)
	assert.Equal(t, 1, d.Stats().UnknownElement)
}

func TestDigitizerDegenerateAbortsEvent(t *testing.T) {
	sink := &recordingSink{}
	d := newTestDigitizer(t, sink, 1, 0)
	require.NoError(t, d.EventStart(3))
	require.NoError(t, d.ProcessDeposit(RawDeposit{TrackID: 1, ElementID: 0, Edep: 10 * KeV, Position: r3.Vec{X: 38}}))

	err := d.ProcessDeposit(RawDeposit{TrackID: 2, ElementID: 0, Edep: 10 * KeV, Position: r3.Vec{Z: 5}})
	var degenerate *ErrDegenerateGeometry
	require.True(t, errors.As(err, &degenerate))
	assert.Equal(t, uint32(3), degenerate.EventID)
	assert.Equal(t, int32(0), degenerate.ElementID)
	assert.True(t, IsFatalToEvent(err))
	assert.Equal(t, Idle, d.State())
	assert.Empty(t, sink.events)

	// The run goes on with the next event.
	digitize(t, d, 4, []RawDeposit{{TrackID: 1, ElementID: 0, Edep: 10 * KeV, Position: r3.Vec{Y: 38}}})
	require.Len(t, sink.events, 1)
	assert.Equal(t, uint32(4), sink.events[0].EventID)
}

func TestDigitizerProtocolViolations(t *testing.T) {
	d := newTestDigitizer(t, &recordingSink{}, 1, 0)
	var outOfOrder *ErrOutOfOrderDeposit

	err := d.ProcessDeposit(RawDeposit{ElementID: 1, Edep: 10 * KeV, Position: r3.Vec{X: 50}})
	require.True(t, errors.As(err, &outOfOrder))
	assert.Equal(t, Idle, outOfOrder.State)
	assert.True(t, IsFatalToEvent(err))

	err = d.EventEnd(context.Background())
	assert.True(t, errors.As(err, &outOfOrder))

	require.NoError(t, d.EventStart(1))
	err = d.EventStart(2)
	require.True(t, errors.As(err, &outOfOrder))
	assert.Equal(t, Collecting, outOfOrder.State)
}

// reentrantSink tries to add a deposit while its hits are being exported.
type reentrantSink struct {
	d        *Digitizer
	exported []Hit
	err      error
}

func (s *reentrantSink) ExportHits(_ context.Context, _ uint32, hits []Hit) error {
	s.exported = hits
	s.err = s.d.ProcessDeposit(RawDeposit{TrackID: 99, ElementID: 1, Edep: 10 * KeV, Position: r3.Vec{X: 50}})
	return nil
}

func TestDigitizerNoAppendAfterExport(t *testing.T) {
	sink := &reentrantSink{}
	d := newTestDigitizer(t, sink, 1, 0)
	sink.d = d

	deposits := randomDeposits(rand.New(rand.NewSource(5)), DefaultGeometry(), 10)
	digitize(t, d, 1, deposits)

	var outOfOrder *ErrOutOfOrderDeposit
	require.True(t, errors.As(sink.err, &outOfOrder))
	assert.Equal(t, Exporting, outOfOrder.State)
	assert.Len(t, sink.exported, 10)
	for _, h := range sink.exported {
		assert.NotEqual(t, int32(99), h.TrackID)
	}
	assert.Equal(t, Idle, d.State())
}

func TestDigitizerSinkFailure(t *testing.T) {
	sink := &recordingSink{err: errors.New("disk full")}
	d := newTestDigitizer(t, sink, 1, 0)
	require.NoError(t, d.EventStart(8))
	err := d.EventEnd(context.Background())
	assert.ErrorContains(t, err, "disk full")
	assert.ErrorContains(t, err, "event 8")
	assert.Equal(t, Idle, d.State())
	require.NoError(t, d.EventStart(9))
}

func TestDigitizerCancelledExport(t *testing.T) {
	sink := &recordingSink{}
	d := newTestDigitizer(t, sink, 1, 0)
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	require.NoError(t, d.EventStart(1))
	err := d.EventEnd(ctx)
	assert.ErrorIs(t, err, context.Canceled)
	assert.Empty(t, sink.events)
	assert.Equal(t, Idle, d.State())
}

func TestNewDigitizerNeedsGeometryAndSink(t *testing.T) {
	_, err := NewDigitizer(nil, DepositFilter{}, Smearer{}, &recordingSink{}, 0)
	var invalid *ErrInvalidGeometry
	assert.True(t, errors.As(err, &invalid))

	_, err = NewDigitizer(DefaultGeometry(), DepositFilter{}, Smearer{}, nil, 0)
	assert.Error(t, err)
}

func TestDigitizeEvent(t *testing.T) {
	buffer := &HitBuffer{}
	d := newTestDigitizer(t, buffer, 1, 0)

	event := InputEvent{
		EventID: 5,
		Deposits: []RawDeposit{
			{TrackID: 1, ElementID: 1, Edep: 10 * KeV, Position: r3.Vec{X: 50}},
			{TrackID: 2, ElementID: 77, Edep: 10 * KeV, Position: r3.Vec{X: 50}},
			{TrackID: 3, ElementID: 6, Edep: 10 * KeV, Position: r3.Vec{X: 100, Z: 450}},
		},
	}
	require.NoError(t, DigitizeEvent(context.Background(), d, event))
	assert.Equal(t, uint32(5), buffer.EventID)
	hits := buffer.Take()
	require.Len(t, hits, 2)
	assert.Equal(t, int32(1), hits[0].TrackID)
	assert.Equal(t, int32(3), hits[1].TrackID)
	assert.Nil(t, buffer.Take())

	event.Deposits = append(event.Deposits, RawDeposit{TrackID: 4, ElementID: 2, Edep: 10 * KeV})
	err := DigitizeEvent(context.Background(), d, event)
	assert.True(t, IsFatalToEvent(err))
	assert.Equal(t, Idle, d.State())
}

func TestDigitizerNonFiniteEnergyNeverHit(t *testing.T) {
	buffer := &HitBuffer{}
	d := newTestDigitizer(t, buffer, 1, 0)
	event := InputEvent{
		EventID: 1,
		Deposits: []RawDeposit{
			{TrackID: 1, ElementID: 1, Edep: math.NaN(), Position: r3.Vec{X: 50}},
			{TrackID: 2, ElementID: 1, Edep: math.Inf(1), Position: r3.Vec{X: 50}},
			{TrackID: 3, ElementID: 1, Edep: 10 * KeV, Position: r3.Vec{X: 50}},
		},
	}
	require.NoError(t, DigitizeEvent(context.Background(), d, event))
	hits := buffer.Take()
	require.Len(t, hits, 1)
	assert.Equal(t, int32(3), hits[0].TrackID)
	assert.Equal(t, 2, d.Stats().BelowThreshold)
}
