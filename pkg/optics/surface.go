package optics

import (
	"fmt"
	"math"

	"github.com/df07/go-sequential-optics/pkg/core"
)

// Aperture describes the usable extent of a surface. It is used for display and
// clipping only; the tracer never consults it.
type Aperture interface {
	MaxDimension() float64
	Contains(x, y float64) bool
}

// Circular is a round aperture centered on the surface vertex
type Circular struct {
	Radius float64
}

// MaxDimension returns the radius
func (c Circular) MaxDimension() float64 { return c.Radius }

// Contains reports whether (x, y) lies inside the circle
func (c Circular) Contains(x, y float64) bool {
	return math.Hypot(x, y) <= c.Radius
}

// Surface is an interface record in a sequential model: a profile, the law
// applied where rays meet it, an optional decenter and its clear apertures.
type Surface struct {
	Label          string
	Profile        Profile
	Interact       Mode
	Element        PhaseElement // required when Interact == Phase
	Decenter       *Decenter
	ClearApertures []Aperture
}

// NewSurface creates a refracting surface with the given profile
func NewSurface(label string, profile Profile) *Surface {
	return &Surface{
		Label:    label,
		Profile:  profile,
		Interact: Refract,
	}
}

// Intersect delegates to the profile
func (s *Surface) Intersect(p0, d core.Vec3, eps, zDir float64) (float64, core.Vec3, error) {
	return s.Profile.Intersect(p0, d, eps, zDir)
}

// Normal delegates to the profile
func (s *Surface) Normal(p core.Vec3) core.Vec3 {
	return s.Profile.Normal(p)
}

// Mode returns the interaction mode
func (s *Surface) Mode() Mode {
	return s.Interact
}

// Phase delegates to the attached phase element
func (s *Surface) Phase(pt, dIn, normal core.Vec3, wvl, nIn, nOut float64) (core.Vec3, float64, error) {
	if s.Element == nil {
		return core.Vec3{}, 0, ErrNoPhaseElement
	}
	return s.Element.Phase(pt, dIn, normal, wvl, nIn, nOut)
}

// Update recomputes cached geometry of the profile and decenter
func (s *Surface) Update() {
	if u, ok := s.Profile.(Updater); ok {
		u.Update()
	}
	if s.Decenter != nil {
		s.Decenter.Update()
	}
}

// SetClearAperture replaces the primary clear aperture
func (s *Surface) SetClearAperture(a Aperture) {
	if len(s.ClearApertures) > 0 {
		s.ClearApertures[0] = a
		return
	}
	s.ClearApertures = append(s.ClearApertures, a)
}

// SemiDiameter returns the largest clear aperture dimension, or 0 if none is set
func (s *Surface) SemiDiameter() float64 {
	sd := 0.0
	for _, a := range s.ClearApertures {
		sd = math.Max(sd, a.MaxDimension())
	}
	return sd
}

// Curvature returns the profile's vertex curvature, or 0 for profiles without one
func (s *Surface) Curvature() float64 {
	if c, ok := s.Profile.(Curved); ok {
		return c.Curvature()
	}
	return 0
}

func (s *Surface) String() string {
	return fmt.Sprintf("%s %s cv=%.6g sd=%.6g", s.Label, s.Interact, s.Curvature(), s.SemiDiameter())
}

// Gap is the space between two consecutive surfaces
type Gap struct {
	Thickness float64 // signed separation along the local z axis
	Medium    Medium
}

// NewGap creates a gap of the given thickness and medium
func NewGap(thickness float64, medium Medium) *Gap {
	return &Gap{Thickness: thickness, Medium: medium}
}

func (g *Gap) String() string {
	name := "<nil>"
	if g.Medium != nil {
		name = g.Medium.Name()
	}
	return fmt.Sprintf("Gap(t=%.6g, %s)", g.Thickness, name)
}
