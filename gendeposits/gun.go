package main

import (
	"math"
	"math/rand"
	"sort"

	"gonum.org/v1/gonum/spatial/r3"

	digitizer "github.com/jmbenlloch/digitizer_go/pkg"
)

const (
	PionMass = 139.57039 * digitizer.MeV
	// mm/ns
	speedOfLight = 299.792458
	sensorDepth  = 50 * digitizer.Micrometer
	// most probable MIP energy loss per unit length in silicon
	mipMostProb = 0.28 * digitizer.KeV / digitizer.Micrometer
	// relative to the most probable value
	landauWidth  = 0.12
	deltaMaxEdep = 2 * digitizer.KeV
)

type ParticleGun struct {
	PDG           int32
	Charge        float64
	Mass          float64
	KineticEnergy float64
	DeltaProb     float64
}

// Crossing is the point where a straight track meets an element.
type Crossing struct {
	ElementID int32
	Path      float64 // distance from the vertex
	Position  r3.Vec
	CosAngle  float64 // between track and sensor normal
}

// Generate builds one event: nparts primaries from the origin, isotropic.
func (g ParticleGun) Generate(rng *rand.Rand, eventID uint32, nparts int, geometry *digitizer.Geometry) digitizer.InputEvent {
	event := digitizer.InputEvent{EventID: eventID}

	totalEnergy := g.KineticEnergy + g.Mass
	p := math.Sqrt(totalEnergy*totalEnergy - g.Mass*g.Mass)
	beta := p / totalEnergy

	// Primaries are 1..nparts, secondaries are numbered after them.
	nextTrackID := int32(nparts) + 1
	for i := 0; i < nparts; i++ {
		trackID := int32(i + 1)
		dir := randomDirection(rng)
		momentum := r3.Scale(p, dir)
		event.Primaries = append(event.Primaries, digitizer.Primary{
			TrackID:  trackID,
			PDG:      g.PDG,
			Charge:   g.Charge,
			Momentum: momentum,
		})

		for _, c := range Crossings(geometry, r3.Vec{}, dir) {
			pathInSensor := sensorDepth / math.Max(c.CosAngle, 0.05)
			deposit := digitizer.RawDeposit{
				TrackID:   trackID,
				PDG:       g.PDG,
				ElementID: c.ElementID,
				Time:      c.Path / (beta * speedOfLight),
				Edep:      landauEnergyLoss(rng, pathInSensor),
				Position:  c.Position,
				Momentum:  momentum,
			}
			event.Deposits = append(event.Deposits, deposit)

			if rng.Float64() < g.DeltaProb {
				delta := deposit
				delta.TrackID = nextTrackID
				nextTrackID++
				delta.PDG = 11
				delta.Edep = rng.Float64() * deltaMaxEdep
				delta.Momentum = r3.Vec{}
				event.Deposits = append(event.Deposits, delta)
			}
		}
	}
	return event
}

func randomDirection(rng *rand.Rand) r3.Vec {
	cosTheta := 2*rng.Float64() - 1
	sinTheta := math.Sqrt(1 - cosTheta*cosTheta)
	phi := 2 * math.Pi * rng.Float64()
	return r3.Vec{X: sinTheta * math.Cos(phi), Y: sinTheta * math.Sin(phi), Z: cosTheta}
}

// landauEnergyLoss samples a Moyal distribution, -ln(Z^2) for a standard
// normal Z, as an approximation of the Landau energy loss.
func landauEnergyLoss(rng *rand.Rand, path float64) float64 {
	mpv := mipMostProb * path
	z := rng.NormFloat64()
	x := -math.Log(z * z)
	edep := mpv * (1 + landauWidth*x)
	if edep < 0 {
		return 0
	}
	return edep
}

// Crossings intersects the ray vertex + t*dir (t > 0, dir normalised) with
// every element, ordered by path length.
func Crossings(geometry *digitizer.Geometry, vertex r3.Vec, dir r3.Vec) []Crossing {
	var crossings []Crossing
	for _, e := range geometry.Elements() {
		switch e.Class {
		case digitizer.Barrel:
			if c, ok := crossBarrel(e, vertex, dir); ok {
				crossings = append(crossings, c)
			}
		case digitizer.Disc:
			if c, ok := crossDisc(e, vertex, dir); ok {
				crossings = append(crossings, c)
			}
		}
	}
	sort.Slice(crossings, func(i, j int) bool {
		return crossings[i].Path < crossings[j].Path
	})
	return crossings
}

func crossBarrel(e digitizer.DetectorElement, vertex r3.Vec, dir r3.Vec) (Crossing, bool) {
	// |v_T + t d_T|^2 = R^2
	a := dir.X*dir.X + dir.Y*dir.Y
	if a == 0 {
		return Crossing{}, false
	}
	b := 2 * (vertex.X*dir.X + vertex.Y*dir.Y)
	c := vertex.X*vertex.X + vertex.Y*vertex.Y - e.Radius*e.Radius
	disc := b*b - 4*a*c
	if disc < 0 {
		return Crossing{}, false
	}
	t := (-b + math.Sqrt(disc)) / (2 * a)
	if t <= 0 {
		return Crossing{}, false
	}
	pos := r3.Add(vertex, r3.Scale(t, dir))
	if math.Abs(pos.Z) > e.HalfLength {
		return Crossing{}, false
	}
	normal := r3.Unit(r3.Vec{X: pos.X, Y: pos.Y})
	return Crossing{ElementID: e.ID, Path: t, Position: pos, CosAngle: math.Abs(r3.Dot(normal, dir))}, true
}

func crossDisc(e digitizer.DetectorElement, vertex r3.Vec, dir r3.Vec) (Crossing, bool) {
	if dir.Z == 0 {
		return Crossing{}, false
	}
	t := (e.Z - vertex.Z) / dir.Z
	if t <= 0 {
		return Crossing{}, false
	}
	pos := r3.Add(vertex, r3.Scale(t, dir))
	rho := math.Hypot(pos.X, pos.Y)
	if rho < e.InnerRadius || rho > e.OuterRadius {
		return Crossing{}, false
	}
	return Crossing{ElementID: e.ID, Path: t, Position: pos, CosAngle: math.Abs(dir.Z)}, true
}
