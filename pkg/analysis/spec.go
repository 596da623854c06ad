package analysis

import (
	"fmt"
	"math"
	"slices"

	"github.com/df07/go-sequential-optics/pkg/core"
	"github.com/df07/go-sequential-optics/pkg/material"
	"github.com/df07/go-sequential-optics/pkg/sequential"
)

// OpticalSpec supplies the aperture, field and spectral description that
// turns a pupil coordinate into a starting ray. It is the first-order
// collaborator of the analyses in this package.
type OpticalSpec interface {
	sequential.UpdateHook

	Wavelengths() []float64
	ReferenceWavelength() float64
	FieldCount() int

	// RayStart returns a point on the object interface and a unit direction,
	// both in the object frame, for the ray through normalized pupil
	// coordinates pupil of field fi.
	RayStart(fi int, pupil [2]float64) (core.Vec3, core.Vec3, error)

	// ExitPupilDistance is the paraxial distance from the last interface
	// before the image to the exit pupil, measured along the outgoing ray.
	ExitPupilDistance() float64
}

// FieldType tells how PupilSpec field coordinates are interpreted
type FieldType int

const (
	ObjectHeight FieldType = iota // x, y on the object plane in system units
	ObjectAngle                   // x, y tilt angles in degrees, object at infinity
)

func (f FieldType) String() string {
	switch f {
	case ObjectHeight:
		return "height"
	case ObjectAngle:
		return "angle"
	}
	return fmt.Sprintf("FieldType(%d)", int(f))
}

// ParseFieldType converts a name into a FieldType
func ParseFieldType(s string) (FieldType, error) {
	switch s {
	case "", "height", "object_height":
		return ObjectHeight, nil
	case "angle", "object_angle":
		return ObjectAngle, nil
	}
	return ObjectHeight, fmt.Errorf("analysis: unknown field type %q", s)
}

// PupilSpec is an OpticalSpec with an explicitly placed entrance pupil: a disc
// of EntranceRadius centered on the axis of interface 1, EntranceZ
// along that axis from its vertex.
type PupilSpec struct {
	Wvls           []float64
	RefWvl         int // index into Wvls
	Type           FieldType
	Fields         [][2]float64
	EntranceRadius float64
	EntranceZ      float64
	ExitPupilDist  float64

	// placement of interface 1 in the object frame, refreshed by UpdateModel
	first   core.Transform
	updated bool
}

// NewPupilSpec creates a spec with an on-axis field at the d line
func NewPupilSpec(entranceRadius float64) *PupilSpec {
	return &PupilSpec{
		Wvls:           []float64{material.WavelengthD},
		Fields:         [][2]float64{{0, 0}},
		EntranceRadius: entranceRadius,
	}
}

// Wavelengths returns the spectral samples (nm)
func (s *PupilSpec) Wavelengths() []float64 {
	return slices.Clone(s.Wvls)
}

// ReferenceWavelength returns the wavelength used for chief rays
func (s *PupilSpec) ReferenceWavelength() float64 {
	if s.RefWvl < 0 || s.RefWvl >= len(s.Wvls) {
		return s.Wvls[0]
	}
	return s.Wvls[s.RefWvl]
}

// FieldCount returns the number of fields
func (s *PupilSpec) FieldCount() int {
	return len(s.Fields)
}

// ExitPupilDistance returns the configured paraxial exit pupil distance
func (s *PupilSpec) ExitPupilDistance() float64 {
	return s.ExitPupilDist
}

// UpdateModel locates interface 1 in the object frame so pupil coordinates
// follow edits to object distance and decenters.
func (s *PupilSpec) UpdateModel(m *sequential.Model) error {
	s.updated = false
	if len(s.Wvls) == 0 {
		return fmt.Errorf("analysis: spec has no wavelengths")
	}
	if !(s.EntranceRadius > 0) {
		return fmt.Errorf("analysis: entrance pupil radius must be positive, got %v", s.EntranceRadius)
	}
	tfrms, err := m.GlobalCoords(0)
	if err != nil {
		return err
	}
	s.first = tfrms[1]
	s.updated = true
	return nil
}

// RayStart aims a ray from field fi at the pupil point pupil*EntranceRadius
func (s *PupilSpec) RayStart(fi int, pupil [2]float64) (core.Vec3, core.Vec3, error) {
	if !s.updated {
		return core.Vec3{}, core.Vec3{}, ErrSpecNotUpdated
	}
	if fi < 0 || fi >= len(s.Fields) {
		return core.Vec3{}, core.Vec3{}, fmt.Errorf("%w: %d of %d", ErrFieldOutOfRange, fi, len(s.Fields))
	}
	fld := s.Fields[fi]
	target := s.first.Apply(core.NewVec3(pupil[0]*s.EntranceRadius, pupil[1]*s.EntranceRadius, s.EntranceZ))

	switch s.Type {
	case ObjectAngle:
		dir := core.NewVec3(math.Tan(fld[0]*math.Pi/180), math.Tan(fld[1]*math.Pi/180), 1).Normalize()
		// back along the ray onto the object plane
		pt0 := target.AddScaled(dir, -target.Z/dir.Z)
		return pt0, dir, nil
	default:
		pt0 := core.NewVec3(fld[0], fld[1], 0)
		dir := target.Subtract(pt0)
		if dir.LengthSquared() == 0 {
			return core.Vec3{}, core.Vec3{}, fmt.Errorf("analysis: field %d lies on the entrance pupil", fi)
		}
		return pt0, dir.Normalize(), nil
	}
}
