package digitizer

import (
	"context"
	"errors"
	"fmt"
)

// HitBuffer is a HitSink that keeps the last exported event in memory, for
// callers that write events from another goroutine.
type HitBuffer struct {
	EventID uint32
	Hits    []Hit
}

func (b *HitBuffer) ExportHits(_ context.Context, eventID uint32, hits []Hit) error {
	b.EventID = eventID
	b.Hits = hits
	return nil
}

// Take returns the buffered hits and empties the buffer.
func (b *HitBuffer) Take() []Hit {
	hits := b.Hits
	b.Hits = nil
	return hits
}

// DigitizeEvent feeds a whole input event through d. Unknown elements are
// logged and skipped; an error fatal to the event aborts it and is returned.
func DigitizeEvent(ctx context.Context, d *Digitizer, event InputEvent) error {
	if err := d.EventStart(event.EventID); err != nil {
		return err
	}
	for _, deposit := range event.Deposits {
		err := d.ProcessDeposit(deposit)
		if err == nil {
			continue
		}
		var unknown *ErrUnknownDetectorElement
		if errors.As(err, &unknown) {
			logger.Warn(fmt.Sprintf("dropping deposit of track %d: %v", deposit.TrackID, err), "digitizer")
			continue
		}
		if IsFatalToEvent(err) {
			d.AbortEvent()
			return fmt.Errorf("discarding event %d: %w", event.EventID, err)
		}
		d.AbortEvent()
		return err
	}

	if configuration.Verbosity > 1 {
		stats := d.Stats()
		message := fmt.Sprintf("Event %d: %d deposits, %d accepted, %d lost (efficiency), %d below threshold, %d unknown element",
			event.EventID, stats.Deposits, stats.Accepted, stats.EfficiencyLoss, stats.BelowThreshold, stats.UnknownElement)
		logger.Info(message, "digitizer")
	}
	return d.EventEnd(ctx)
}
