package optics

import (
	"fmt"

	"github.com/df07/go-sequential-optics/pkg/core"
)

// DecenterType controls how a decenter affects the surfaces that follow
type DecenterType int

const (
	// DecenterLocal tilts/shifts the surface and every surface after it
	DecenterLocal DecenterType = iota
	// DecenterReverse applies the inverse transform after the surface only
	DecenterReverse
	// DecenterAndReturn tilts/shifts the surface, then restores the incoming axis
	DecenterAndReturn
	// DecenterBend applies the rotation before and again after the surface (fold mirrors)
	DecenterBend
)

func (t DecenterType) String() string {
	switch t {
	case DecenterLocal:
		return "DEC"
	case DecenterReverse:
		return "REV"
	case DecenterAndReturn:
		return "DAR"
	case DecenterBend:
		return "BEN"
	}
	return fmt.Sprintf("DecenterType(%d)", int(t))
}

// ParseDecenterType converts a listing name into a DecenterType
func ParseDecenterType(s string) (DecenterType, error) {
	switch s {
	case "", "DEC", "dec":
		return DecenterLocal, nil
	case "REV", "rev":
		return DecenterReverse, nil
	case "DAR", "dar":
		return DecenterAndReturn, nil
	case "BEN", "ben":
		return DecenterBend, nil
	}
	return DecenterLocal, fmt.Errorf("optics: unknown decenter type %q", s)
}

// Decenter is a frame offset and rotation applied around a surface.
//
// The "before" transform places the surface in the incoming frame:
// p_in = R*p_surface + t. The "after" transform (R_a, t_a) places the outgoing
// frame in the surface frame as p_surface = R_a*(p_out + t_a).
type Decenter struct {
	Type   DecenterType
	Offset core.Vec3 // x, y, z shift
	Euler  core.Vec3 // alpha, beta, gamma tilts in degrees

	rot core.Mat3
}

// NewDecenter creates a decenter and computes its rotation
func NewDecenter(t DecenterType, offset, euler core.Vec3) *Decenter {
	d := &Decenter{Type: t, Offset: offset, Euler: euler}
	d.Update()
	return d
}

// Update recomputes the rotation matrix from the Euler angles
func (d *Decenter) Update() {
	d.rot = core.EulerRotation(d.Euler.X, d.Euler.Y, d.Euler.Z)
}

// Rotation returns the cached rotation matrix
func (d *Decenter) Rotation() core.Mat3 {
	return d.rot
}

// TransformBefore returns the transform applied before the surface.
// ok is false when the decenter type applies nothing there.
func (d *Decenter) TransformBefore() (r core.Mat3, t core.Vec3, ok bool) {
	if d.Type == DecenterReverse {
		return core.Mat3{}, core.Vec3{}, false
	}
	return d.rot, d.Offset, true
}

// TransformAfter returns the transform applied after the surface.
// ok is false when the decenter type applies nothing there.
func (d *Decenter) TransformAfter() (r core.Mat3, t core.Vec3, ok bool) {
	switch d.Type {
	case DecenterReverse, DecenterAndReturn:
		return d.rot.Transpose(), d.Offset.Negate(), true
	case DecenterBend:
		return d.rot, core.Vec3{}, true
	}
	return core.Mat3{}, core.Vec3{}, false
}

func (d *Decenter) String() string {
	return fmt.Sprintf("%s offset=%v tilt=%v", d.Type, d.Offset, d.Euler)
}
