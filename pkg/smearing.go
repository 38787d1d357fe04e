package digitizer

import (
	"fmt"
	"math"

	"gonum.org/v1/gonum/spatial/r3"
)

const DefaultResolution = 7 * Micrometer

// Smearer applies the finite spatial resolution of the sensors.
type Smearer struct {
	Resolution float64
}

func NewSmearer(resolution float64) (Smearer, error) {
	if resolution < 0 || math.IsNaN(resolution) || math.IsInf(resolution, 0) {
		return Smearer{}, fmt.Errorf("resolution must be finite and non-negative, got %g", resolution)
	}
	return Smearer{Resolution: resolution}, nil
}

// Smear returns the measured position of a hit at position.
//
// Barrel: the radius is kept, z gets N(0, σ) and phi gets N(0, σ/r), so the
// arc length noise is σ on every layer. Disc: x and y get N(0, σ), z is kept.
func (s Smearer) Smear(rng RandomSource, position r3.Vec, class GeometryClass) (r3.Vec, error) {
	if !finiteVec(position) {
		return r3.Vec{}, &ErrDegenerateGeometry{Reason: fmt.Sprintf("non-finite position %v", position)}
	}
	switch class {
	case Barrel:
		r := math.Hypot(position.X, position.Y)
		if r == 0 {
			return r3.Vec{}, &ErrDegenerateGeometry{Reason: "barrel hit at zero radius"}
		}
		phi := math.Atan2(position.Y, position.X)
		dz := rng.NormFloat64() * s.Resolution
		dphi := rng.NormFloat64() * s.Resolution / r
		sin, cos := math.Sincos(phi + dphi)
		return r3.Vec{X: r * cos, Y: r * sin, Z: position.Z + dz}, nil
	case Disc:
		dx := rng.NormFloat64() * s.Resolution
		dy := rng.NormFloat64() * s.Resolution
		return r3.Vec{X: position.X + dx, Y: position.Y + dy, Z: position.Z}, nil
	default:
		return r3.Vec{}, &ErrDegenerateGeometry{Reason: fmt.Sprintf("cannot smear unknown geometry class %d", class)}
	}
}

func finiteVec(v r3.Vec) bool {
	for _, c := range []float64{v.X, v.Y, v.Z} {
		if math.IsNaN(c) || math.IsInf(c, 0) {
			return false
		}
	}
	return true
}
