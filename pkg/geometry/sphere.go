package geometry

import (
	"math"

	"github.com/df07/go-sequential-optics/pkg/core"
	"github.com/df07/go-sequential-optics/pkg/optics"
)

// Spherical is a sphere of curvature Cv (1/radius) with its vertex at the origin
// and its center on the +z axis for positive curvature.
type Spherical struct {
	Cv float64
}

// NewSpherical creates a spherical profile
func NewSpherical(cv float64) *Spherical {
	return &Spherical{Cv: cv}
}

// Intersect solves the sphere quadratic in the cancellation-free form
// s = c/(zDir*sqrt(b²-ac) - b), which picks the root nearest the vertex for
// rays travelling in the zDir sense.
func (s *Spherical) Intersect(p0, d core.Vec3, eps, zDir float64) (float64, core.Vec3, error) {
	ax2 := s.Cv
	cx2 := s.Cv*p0.LengthSquared() - 2*p0.Z
	b := s.Cv*d.Dot(p0) - d.Z
	return solveSag(p0, d, ax2, b, cx2, zDir)
}

// Normal returns the unit normal pointing toward +z at the vertex
func (s *Spherical) Normal(p core.Vec3) core.Vec3 {
	return core.NewVec3(-s.Cv*p.X, -s.Cv*p.Y, 1.0-s.Cv*p.Z).Normalize()
}

// Curvature returns the vertex curvature
func (s *Spherical) Curvature() float64 { return s.Cv }

// Sag returns the surface z coordinate above (x, y)
func (s *Spherical) Sag(x, y float64) float64 {
	return conicSag(s.Cv, 0, x*x+y*y)
}

// Conic is a conic of revolution: K=0 sphere, K=-1 paraboloid, K<-1 hyperboloid,
// -1<K<0 prolate and K>0 oblate ellipsoid.
type Conic struct {
	Cv float64
	K  float64
}

// NewConic creates a conic profile
func NewConic(cv, k float64) *Conic {
	return &Conic{Cv: cv, K: k}
}

// Intersect solves cv(x²+y²+(1+K)z²) - 2z = 0 along the ray
func (c *Conic) Intersect(p0, d core.Vec3, eps, zDir float64) (float64, core.Vec3, error) {
	ax2 := c.Cv * (1 + c.K*d.Z*d.Z)
	cx2 := c.Cv*(p0.X*p0.X+p0.Y*p0.Y+(c.K+1)*p0.Z*p0.Z) - 2*p0.Z
	b := c.Cv*(d.X*p0.X+d.Y*p0.Y+(c.K+1)*d.Z*p0.Z) - d.Z
	return solveSag(p0, d, ax2, b, cx2, zDir)
}

// Normal returns the unit normal pointing toward +z at the vertex
func (c *Conic) Normal(p core.Vec3) core.Vec3 {
	return core.NewVec3(-c.Cv*p.X, -c.Cv*p.Y, 1.0-(c.K+1)*c.Cv*p.Z).Normalize()
}

// Curvature returns the vertex curvature
func (c *Conic) Curvature() float64 { return c.Cv }

// Sag returns the surface z coordinate above (x, y)
func (c *Conic) Sag(x, y float64) float64 {
	return conicSag(c.Cv, c.K, x*x+y*y)
}

// solveSag returns the root of ax2*s² + 2b*s + cx2 = 0 selected by zDir
func solveSag(p0, d core.Vec3, ax2, b, cx2, zDir float64) (float64, core.Vec3, error) {
	disc := b*b - ax2*cx2
	if disc < 0 {
		return 0, core.Vec3{}, optics.ErrMissedSurface
	}
	denom := zDir*math.Sqrt(disc) - b
	if denom == 0 {
		if cx2 == 0 {
			return 0, p0, nil
		}
		return 0, core.Vec3{}, optics.ErrMissedSurface
	}
	s := cx2 / denom
	if math.IsNaN(s) || math.IsInf(s, 0) {
		return 0, core.Vec3{}, optics.ErrMissedSurface
	}
	return s, p0.AddScaled(d, s), nil
}

// conicSag evaluates the conic sag for r2 = x²+y²; NaN outside the domain
func conicSag(cv, k, r2 float64) float64 {
	arg := 1 - (1+k)*cv*cv*r2
	if arg < 0 {
		return math.NaN()
	}
	return cv * r2 / (1 + math.Sqrt(arg))
}
