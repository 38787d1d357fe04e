package digitizer

import (
	"context"
	"math"
	"math/rand"

	"gonum.org/v1/gonum/spatial/r3"
)

// scriptedSource replays fixed draws and counts how many were used.
type scriptedSource struct {
	uniforms []float64
	normals  []float64
	nUniform int
	nNormal  int
}

func (s *scriptedSource) Float64() float64 {
	v := s.uniforms[s.nUniform%len(s.uniforms)]
	s.nUniform++
	return v
}

func (s *scriptedSource) NormFloat64() float64 {
	v := s.normals[s.nNormal%len(s.normals)]
	s.nNormal++
	return v
}

type exportedEvent struct {
	EventID uint32
	Hits    []Hit
}

type recordingSink struct {
	events []exportedEvent
	err    error
}

func (s *recordingSink) ExportHits(_ context.Context, eventID uint32, hits []Hit) error {
	s.events = append(s.events, exportedEvent{EventID: eventID, Hits: hits})
	return s.err
}

// randomDeposits makes deposits on the elements of g, all above the
// default threshold, with increasing track ids.
func randomDeposits(rng *rand.Rand, g *Geometry, n int) []RawDeposit {
	elements := g.Elements()
	deposits := make([]RawDeposit, n)
	for i := range deposits {
		e := elements[rng.Intn(len(elements))]
		var pos r3.Vec
		switch e.Class {
		case Barrel:
			phi := 2 * math.Pi * rng.Float64()
			pos = r3.Vec{
				X: e.Radius * math.Cos(phi),
				Y: e.Radius * math.Sin(phi),
				Z: (2*rng.Float64() - 1) * e.HalfLength,
			}
		case Disc:
			rho := e.InnerRadius + rng.Float64()*(e.OuterRadius-e.InnerRadius)
			phi := 2 * math.Pi * rng.Float64()
			pos = r3.Vec{X: rho * math.Cos(phi), Y: rho * math.Sin(phi), Z: e.Z}
		}
		deposits[i] = RawDeposit{
			TrackID:   int32(i + 1),
			PDG:       211,
			ElementID: e.ID,
			Time:      rng.Float64() * 5,
			Edep:      (5 + 30*rng.Float64()) * KeV,
			Position:  pos,
			Momentum:  r3.Vec{X: 1, Y: 2, Z: 3},
		}
	}
	return deposits
}
