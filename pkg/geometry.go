package digitizer

import (
	"encoding/json"
	"fmt"
	"math"
	"strings"

	"golang.org/x/exp/maps"
	"golang.org/x/exp/slices"
)

type GeometryClass int32

const (
	Barrel GeometryClass = iota
	Disc
)

var geometryClassStrings = []string{
	"barrel",
	"disc",
}

func (g GeometryClass) String() string {
	if g < Barrel || g > Disc {
		return "UNKNOWN"
	}
	return geometryClassStrings[g]
}

func (g GeometryClass) MarshalJSON() ([]byte, error) {
	return json.Marshal(g.String())
}

func (g *GeometryClass) UnmarshalJSON(data []byte) error {
	var s string
	if err := json.Unmarshal(data, &s); err != nil {
		return err
	}
	class, err := ParseGeometryClass(s)
	if err != nil {
		return err
	}
	*g = class
	return nil
}

func ParseGeometryClass(s string) (GeometryClass, error) {
	for i, v := range geometryClassStrings {
		if v == strings.ToLower(strings.TrimSpace(s)) {
			return GeometryClass(i), nil
		}
	}
	return 0, fmt.Errorf("invalid GeometryClass: %q", s)
}

// DetectorElement describes one sensitive element. Barrels use Radius and
// HalfLength and are centred on the origin; discs sit at Z and span
// InnerRadius to OuterRadius.
type DetectorElement struct {
	ID          int32         `json:"id"`
	Name        string        `json:"name"`
	Class       GeometryClass `json:"class"`
	Radius      float64       `json:"radius"`
	HalfLength  float64       `json:"half_length"`
	Z           float64       `json:"z"`
	InnerRadius float64       `json:"inner_radius"`
	OuterRadius float64       `json:"outer_radius"`
}

func (e DetectorElement) check() error {
	finite := func(v float64) bool { return !math.IsNaN(v) && !math.IsInf(v, 0) }
	for _, v := range []float64{e.Radius, e.HalfLength, e.Z, e.InnerRadius, e.OuterRadius} {
		if !finite(v) {
			return fmt.Errorf("element %d has a non-finite dimension", e.ID)
		}
	}
	switch e.Class {
	case Barrel:
		if e.Radius <= 0 {
			return fmt.Errorf("barrel element %d needs a positive radius, got %g", e.ID, e.Radius)
		}
		if e.HalfLength <= 0 {
			return fmt.Errorf("barrel element %d needs a positive half length, got %g", e.ID, e.HalfLength)
		}
	case Disc:
		if e.InnerRadius < 0 || e.OuterRadius <= e.InnerRadius {
			return fmt.Errorf("disc element %d has radii [%g, %g]", e.ID, e.InnerRadius, e.OuterRadius)
		}
	default:
		return fmt.Errorf("element %d has unknown class %d", e.ID, e.Class)
	}
	return nil
}

// Geometry maps element ids to their description. It is never modified
// after NewGeometry returns, so it can be shared between workers.
type Geometry struct {
	elements map[int32]DetectorElement
}

func NewGeometry(elements []DetectorElement) (*Geometry, error) {
	if len(elements) == 0 {
		return nil, &ErrInvalidGeometry{Reason: "no detector elements"}
	}
	g := &Geometry{elements: make(map[int32]DetectorElement, len(elements))}
	for _, e := range elements {
		if _, ok := g.elements[e.ID]; ok {
			return nil, &ErrInvalidGeometry{Reason: fmt.Sprintf("duplicate element id %d", e.ID)}
		}
		if err := e.check(); err != nil {
			return nil, &ErrInvalidGeometry{Reason: err.Error()}
		}
		g.elements[e.ID] = e
	}
	return g, nil
}

// Classify returns the response model of an element.
func (g *Geometry) Classify(elementID int32) (GeometryClass, error) {
	e, ok := g.elements[elementID]
	if !ok {
		return 0, &ErrUnknownDetectorElement{ElementID: elementID}
	}
	return e.Class, nil
}

func (g *Geometry) Element(elementID int32) (DetectorElement, bool) {
	e, ok := g.elements[elementID]
	return e, ok
}

func (g *Geometry) Len() int {
	return len(g.elements)
}

// Elements returns all elements sorted by id.
func (g *Geometry) Elements() []DetectorElement {
	ids := maps.Keys(g.elements)
	slices.Sort(ids)
	sorted := make([]DetectorElement, len(ids))
	for i, id := range ids {
		sorted[i] = g.elements[id]
	}
	return sorted
}

// DefaultGeometry is the SVT layout: five barrel layers (ids 0-4) and ten
// endcap discs (ids 5-14), five on each side.
func DefaultGeometry() *Geometry {
	barrelRadii := []float64{3.8, 5.0, 12.2, 27.2, 42.2}
	barrelLengths := []float64{27.0, 27.0, 27.0, 54.0, 80.0}
	discZ := []float64{25.0, 45.0, 70.0, 100.0, 135.0, -25.0, -45.0, -65.0, -85.0, -105.0}
	discInner := []float64{3.676, 3.676, 3.842, 5.443, 7.014, 3.676, 3.676, 3.676, 4.006, 4.635}
	discOuter := []float64{23.0, 43.0, 43.0, 43.0, 43.0, 23.0, 43.0, 43.0, 43.0, 43.0}

	elements := make([]DetectorElement, 0, len(barrelRadii)+len(discZ))
	for i := range barrelRadii {
		elements = append(elements, DetectorElement{
			ID:         int32(i),
			Name:       fmt.Sprintf("SVT_Barrel_%d", i),
			Class:      Barrel,
			Radius:     barrelRadii[i] * Centimeter,
			HalfLength: barrelLengths[i] * Centimeter / 2,
		})
	}
	for i := range discZ {
		elements = append(elements, DetectorElement{
			ID:          int32(len(barrelRadii) + i),
			Name:        fmt.Sprintf("SVT_Disc_%d", i),
			Class:       Disc,
			Z:           discZ[i] * Centimeter,
			InnerRadius: discInner[i] * Centimeter,
			OuterRadius: discOuter[i] * Centimeter,
		})
	}
	g, err := NewGeometry(elements)
	if err != nil {
		panic(err)
	}
	return g
}
