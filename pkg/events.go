package digitizer

import "gonum.org/v1/gonum/spatial/r3"

// Internal units follow the transport engine: mm, MeV, ns.
const (
	Millimeter = 1.0
	Micrometer = 1e-3 * Millimeter
	Centimeter = 10 * Millimeter
	MeV        = 1.0
	KeV        = 1e-3 * MeV
	GeV        = 1e3 * MeV
)

// RawDeposit is one energy loss step inside a sensitive element.
type RawDeposit struct {
	TrackID   int32
	PDG       int32
	ElementID int32
	Time      float64
	Edep      float64
	Position  r3.Vec
	Momentum  r3.Vec
}

// Hit is an accepted deposit with its measured position.
type Hit struct {
	TrackID   int32
	PDG       int32
	ElementID int32
	Time      float64
	Edep      float64
	Position  r3.Vec
	Momentum  r3.Vec
}

func newHit(deposit RawDeposit, measured r3.Vec) Hit {
	return Hit{
		TrackID:   deposit.TrackID,
		PDG:       deposit.PDG,
		ElementID: deposit.ElementID,
		Time:      deposit.Time,
		Edep:      deposit.Edep,
		Position:  measured,
		Momentum:  deposit.Momentum,
	}
}

// Primary is a primary track of the event, as produced by the generator.
type Primary struct {
	TrackID  int32
	PDG      int32
	Charge   float64
	Vertex   r3.Vec
	Momentum r3.Vec
}

// InputEvent is one event as delivered by the transport engine.
type InputEvent struct {
	EventID   uint32
	Primaries []Primary
	Deposits  []RawDeposit
}

// EventRecord is what gets written for one digitized event.
type EventRecord struct {
	EventID   uint32
	Primaries []Primary
	Hits      []Hit
	Stats     EventStats
	Error     bool
}

// EventStats counts what happened to the deposits of one event.
type EventStats struct {
	Deposits       int
	EfficiencyLoss int
	BelowThreshold int
	UnknownElement int
	Accepted       int
}
