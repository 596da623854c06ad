// Package optics defines the records and collaborator contracts of a sequential
// optical system: interfaces, the gaps between them and the media filling the gaps.
package optics

import (
	"fmt"

	"github.com/df07/go-sequential-optics/pkg/core"
)

// Mode selects the interaction law applied where a ray meets an interface
type Mode int

const (
	Refract Mode = iota // generalized Snell's law
	Reflect             // mirror reflection; flips the propagation direction
	Phase               // interface-supplied law, e.g. a diffraction grating
)

// String returns the short name used in listings
func (m Mode) String() string {
	switch m {
	case Refract:
		return "REFR"
	case Reflect:
		return "REFL"
	case Phase:
		return "PHASE"
	}
	return fmt.Sprintf("Mode(%d)", int(m))
}

// ParseMode converts a listing name back into a Mode
func ParseMode(s string) (Mode, error) {
	switch s {
	case "", "REFR", "refract", "transmit":
		return Refract, nil
	case "REFL", "reflect":
		return Reflect, nil
	case "PHASE", "phase":
		return Phase, nil
	}
	return Refract, fmt.Errorf("optics: unknown interaction mode %q", s)
}

// Profile is the geometric shape of an interface in its local frame.
// The vertex sits at the origin and the axis is +z.
type Profile interface {
	// Intersect finds the distance s along d from p0 to the surface and the
	// intersection point. zDir is the propagation sense (+1 or -1) relative to
	// the local z axis; eps bounds iterative solvers. Returns ErrMissedSurface
	// when no consistent intersection exists.
	Intersect(p0, d core.Vec3, eps, zDir float64) (float64, core.Vec3, error)

	// Normal returns the unit surface normal at p
	Normal(p core.Vec3) core.Vec3
}

// PhaseElement supplies the interaction law of a Phase-mode interface.
// It returns the outgoing direction and the optical path added at the interface.
type PhaseElement interface {
	Phase(pt, dIn, normal core.Vec3, wvl, nIn, nOut float64) (core.Vec3, float64, error)
}

// Interface is everything the tracer needs from an optical interface
type Interface interface {
	Profile
	Mode() Mode
	PhaseElement
}

// Medium yields a refractive index for a wavelength in nm
type Medium interface {
	RefractiveIndex(wvl float64) float64
	Name() string
}

// Updater is implemented by profiles that cache derived geometry
type Updater interface {
	Update()
}

// Curved is implemented by profiles with a vertex curvature
type Curved interface {
	Curvature() float64
}
