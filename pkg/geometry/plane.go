package geometry

import (
	"math"

	"github.com/df07/go-sequential-optics/pkg/core"
	"github.com/df07/go-sequential-optics/pkg/optics"
)

// Plane is a flat profile lying in the local z=0 plane
type Plane struct{}

// NewPlane creates a flat profile
func NewPlane() *Plane {
	return &Plane{}
}

// Intersect finds where the ray crosses z=0. Sequential tracing accepts
// negative distances (virtual segments), so only parallel rays miss.
func (p *Plane) Intersect(p0, d core.Vec3, eps, zDir float64) (float64, core.Vec3, error) {
	// If the z component is close to zero, ray is parallel to plane (no intersection)
	if math.Abs(d.Z) < 1e-14 {
		return 0, core.Vec3{}, optics.ErrMissedSurface
	}
	s := -p0.Z / d.Z
	return s, p0.AddScaled(d, s), nil
}

// Normal returns the +z axis
func (p *Plane) Normal(core.Vec3) core.Vec3 {
	return core.NewVec3(0, 0, 1)
}

// Curvature is always zero for a plane
func (p *Plane) Curvature() float64 { return 0 }

// Sag is always zero for a plane
func (p *Plane) Sag(x, y float64) float64 { return 0 }
