package digitizer

import (
	"bytes"
	"encoding/binary"
	"fmt"
	"io"
	"math"

	"gonum.org/v1/gonum/spatial/r3"
)

// Event files are a sequence of little endian records: an EventHeader
// followed by NPrimaries PrimaryRecord and NDeposits DepositRecord.
type EventHeader struct {
	EventSize  uint32 // header included
	EventID    uint32
	NPrimaries uint32
	NDeposits  uint32
}

type PrimaryRecord struct {
	TrackID int32
	PDG     int32
	Charge  float64
	X, Y, Z float64
	Px      float64
	Py      float64
	Pz      float64
}

type DepositRecord struct {
	TrackID   int32
	PDG       int32
	ElementID int32
	Padding   int32
	Time      float64
	Edep      float64
	X, Y, Z   float64
	Px        float64
	Py        float64
	Pz        float64
}

var (
	headerSize  = binary.Size(EventHeader{})
	primarySize = binary.Size(PrimaryRecord{})
	depositSize = binary.Size(DepositRecord{})
)

// ReadEventFromFile reads the next header and its payload. It returns
// io.EOF when there are no more events.
func ReadEventFromFile(r io.Reader) (EventHeader, []byte, error) {
	var header EventHeader
	headerBinary := make([]byte, headerSize)
	if _, err := io.ReadFull(r, headerBinary); err != nil {
		if err == io.ErrUnexpectedEOF {
			return header, nil, fmt.Errorf("truncated event header: %w", err)
		}
		return header, nil, err
	}
	if err := binary.Read(bytes.NewReader(headerBinary), binary.LittleEndian, &header); err != nil {
		return header, nil, err
	}

	expected := headerSize + int(header.NPrimaries)*primarySize + int(header.NDeposits)*depositSize
	if int(header.EventSize) != expected {
		return header, nil, fmt.Errorf("event %d: size %d does not match %d primaries and %d deposits",
			header.EventID, header.EventSize, header.NPrimaries, header.NDeposits)
	}

	eventData := make([]byte, int(header.EventSize)-headerSize)
	if _, err := io.ReadFull(r, eventData); err != nil {
		return header, nil, fmt.Errorf("event %d: truncated payload: %w", header.EventID, err)
	}
	return header, eventData, nil
}

func DecodeEvent(header EventHeader, eventData []byte) (InputEvent, error) {
	event := InputEvent{
		EventID:   header.EventID,
		Primaries: make([]Primary, header.NPrimaries),
		Deposits:  make([]RawDeposit, header.NDeposits),
	}
	reader := bytes.NewReader(eventData)

	for i := range event.Primaries {
		var rec PrimaryRecord
		if err := binary.Read(reader, binary.LittleEndian, &rec); err != nil {
			return event, fmt.Errorf("event %d: error reading primary %d: %w", header.EventID, i, err)
		}
		event.Primaries[i] = Primary{
			TrackID:  rec.TrackID,
			PDG:      rec.PDG,
			Charge:   rec.Charge,
			Vertex:   r3.Vec{X: rec.X, Y: rec.Y, Z: rec.Z},
			Momentum: r3.Vec{X: rec.Px, Y: rec.Py, Z: rec.Pz},
		}
	}

	for i := range event.Deposits {
		var rec DepositRecord
		if err := binary.Read(reader, binary.LittleEndian, &rec); err != nil {
			return event, fmt.Errorf("event %d: error reading deposit %d: %w", header.EventID, i, err)
		}
		if math.IsNaN(rec.Edep) || math.IsInf(rec.Edep, 0) {
			return event, fmt.Errorf("event %d: deposit %d has non-finite energy %g", header.EventID, i, rec.Edep)
		}
		if rec.Edep < 0 {
			return event, fmt.Errorf("event %d: deposit %d has negative energy %g", header.EventID, i, rec.Edep)
		}
		event.Deposits[i] = RawDeposit{
			TrackID:   rec.TrackID,
			PDG:       rec.PDG,
			ElementID: rec.ElementID,
			Time:      rec.Time,
			Edep:      rec.Edep,
			Position:  r3.Vec{X: rec.X, Y: rec.Y, Z: rec.Z},
			Momentum:  r3.Vec{X: rec.Px, Y: rec.Py, Z: rec.Pz},
		}
	}
	return event, nil
}

// WriteEventToFile is the inverse of ReadEventFromFile + DecodeEvent.
func WriteEventToFile(w io.Writer, event InputEvent) error {
	header := EventHeader{
		EventSize:  uint32(headerSize + len(event.Primaries)*primarySize + len(event.Deposits)*depositSize),
		EventID:    event.EventID,
		NPrimaries: uint32(len(event.Primaries)),
		NDeposits:  uint32(len(event.Deposits)),
	}
	buf := bytes.NewBuffer(make([]byte, 0, header.EventSize))
	binary.Write(buf, binary.LittleEndian, header)
	for _, p := range event.Primaries {
		binary.Write(buf, binary.LittleEndian, PrimaryRecord{
			TrackID: p.TrackID,
			PDG:     p.PDG,
			Charge:  p.Charge,
			X:       p.Vertex.X,
			Y:       p.Vertex.Y,
			Z:       p.Vertex.Z,
			Px:      p.Momentum.X,
			Py:      p.Momentum.Y,
			Pz:      p.Momentum.Z,
		})
	}
	for _, d := range event.Deposits {
		binary.Write(buf, binary.LittleEndian, DepositRecord{
			TrackID:   d.TrackID,
			PDG:       d.PDG,
			ElementID: d.ElementID,
			Time:      d.Time,
			Edep:      d.Edep,
			X:         d.Position.X,
			Y:         d.Position.Y,
			Z:         d.Position.Z,
			Px:        d.Momentum.X,
			Py:        d.Momentum.Y,
			Pz:        d.Momentum.Z,
		})
	}
	if _, err := w.Write(buf.Bytes()); err != nil {
		return fmt.Errorf("error writing event %d: %w", event.EventID, err)
	}
	return nil
}
