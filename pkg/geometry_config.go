package digitizer

import (
	"fmt"
	"strconv"

	"golang.org/x/exp/maps"
	"golang.org/x/exp/slices"
	"gopkg.in/gcfg.v1"
)

// Geometry files describe elements in centimeters, one subsection per
// element id:
//
//	[barrel "0"]
//	name = SVT_Barrel_0
//	radius = 3.8
//	half-length = 13.5
//
//	[disc "5"]
//	z = 25.0
//	inner-radius = 3.676
//	outer-radius = 23.0
type geometryFile struct {
	Barrel map[string]*BarrelConfig
	Disc   map[string]*DiscConfig
}

type BarrelConfig struct {
	// Required
	Radius     float64
	HalfLength float64 `gcfg:"half-length"`

	// Optional
	Name string
}

func (b *BarrelConfig) CheckInit(name string) (DetectorElement, error) {
	id, err := parseElementID(name)
	if err != nil {
		return DetectorElement{}, err
	}
	if b.Radius <= 0 {
		return DetectorElement{}, fmt.Errorf(
			"Need to specify a positive radius for barrel '%s'.", name,
		)
	}
	if b.HalfLength <= 0 {
		return DetectorElement{}, fmt.Errorf(
			"Need to specify a positive half-length for barrel '%s'.", name,
		)
	}
	if b.Name == "" {
		b.Name = fmt.Sprintf("SVT_Barrel_%s", name)
	}
	return DetectorElement{
		ID:         id,
		Name:       b.Name,
		Class:      Barrel,
		Radius:     b.Radius * Centimeter,
		HalfLength: b.HalfLength * Centimeter,
	}, nil
}

type DiscConfig struct {
	// Required
	Z           float64
	InnerRadius float64 `gcfg:"inner-radius"`
	OuterRadius float64 `gcfg:"outer-radius"`

	// Optional
	Name string
}

func (d *DiscConfig) CheckInit(name string) (DetectorElement, error) {
	id, err := parseElementID(name)
	if err != nil {
		return DetectorElement{}, err
	}
	if d.OuterRadius <= d.InnerRadius || d.InnerRadius < 0 {
		return DetectorElement{}, fmt.Errorf(
			"Disc '%s' must have 0 <= inner-radius < outer-radius, but has [%g, %g].",
			name, d.InnerRadius, d.OuterRadius,
		)
	}
	if d.Name == "" {
		d.Name = fmt.Sprintf("SVT_Disc_%s", name)
	}
	return DetectorElement{
		ID:          id,
		Name:        d.Name,
		Class:       Disc,
		Z:           d.Z * Centimeter,
		InnerRadius: d.InnerRadius * Centimeter,
		OuterRadius: d.OuterRadius * Centimeter,
	}, nil
}

func parseElementID(name string) (int32, error) {
	id, err := strconv.ParseInt(name, 10, 32)
	if err != nil {
		return 0, fmt.Errorf("element name '%s' is not an integer id", name)
	}
	return int32(id), nil
}

// LoadGeometryFile reads a gcfg geometry description.
func LoadGeometryFile(filename string) (*Geometry, error) {
	file := geometryFile{}
	if err := gcfg.ReadFileInto(&file, filename); err != nil {
		return nil, &ErrInvalidGeometry{Reason: fmt.Sprintf("reading %s: %v", filename, err)}
	}
	return file.geometry()
}

// ParseGeometry is LoadGeometryFile for an in-memory description.
func ParseGeometry(text string) (*Geometry, error) {
	file := geometryFile{}
	if err := gcfg.ReadStringInto(&file, text); err != nil {
		return nil, &ErrInvalidGeometry{Reason: err.Error()}
	}
	return file.geometry()
}

func (f *geometryFile) geometry() (*Geometry, error) {
	elements := make([]DetectorElement, 0, len(f.Barrel)+len(f.Disc))

	names := maps.Keys(f.Barrel)
	slices.Sort(names)
	for _, name := range names {
		e, err := f.Barrel[name].CheckInit(name)
		if err != nil {
			return nil, &ErrInvalidGeometry{Reason: err.Error()}
		}
		elements = append(elements, e)
	}

	names = maps.Keys(f.Disc)
	slices.Sort(names)
	for _, name := range names {
		e, err := f.Disc[name].CheckInit(name)
		if err != nil {
			return nil, &ErrInvalidGeometry{Reason: err.Error()}
		}
		elements = append(elements, e)
	}
	return NewGeometry(elements)
}
