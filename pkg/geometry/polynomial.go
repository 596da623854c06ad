package geometry

import (
	"math"

	"github.com/df07/go-sequential-optics/pkg/core"
	"github.com/df07/go-sequential-optics/pkg/optics"
)

// DefaultMaxIterations bounds the Newton search of iterative profiles
const DefaultMaxIterations = 50

// EvenPolynomial is a conic base with even polynomial deformation terms:
//
//	z = cv r²/(1+sqrt(1-(1+K)cv²r²)) + Coefs[0] r⁴ + Coefs[1] r⁶ + ...
type EvenPolynomial struct {
	Cv            float64
	K             float64
	Coefs         []float64
	MaxIterations int // 0 means DefaultMaxIterations
}

// NewEvenPolynomial creates an even asphere
func NewEvenPolynomial(cv, k float64, coefs ...float64) *EvenPolynomial {
	return &EvenPolynomial{Cv: cv, K: k, Coefs: coefs}
}

// Sag returns the surface z coordinate above (x, y); NaN outside the conic domain
func (e *EvenPolynomial) Sag(x, y float64) float64 {
	r2 := x*x + y*y
	z := conicSag(e.Cv, e.K, r2)
	pow := r2 * r2
	for _, c := range e.Coefs {
		z += c * pow
		pow *= r2
	}
	return z
}

// slope returns dz/dx divided by x (equal to dz/dy divided by y)
func (e *EvenPolynomial) slope(r2 float64) float64 {
	arg := 1 - (1+e.K)*e.Cv*e.Cv*r2
	if arg <= 0 {
		return math.NaN()
	}
	f := e.Cv / math.Sqrt(arg)
	pow := r2
	for i, c := range e.Coefs {
		f += c * float64(2*i+4) * pow
		pow *= r2
	}
	return f
}

// gradient of F(x,y,z) = z - sag(x,y)
func (e *EvenPolynomial) gradient(p core.Vec3) core.Vec3 {
	f := e.slope(p.X*p.X + p.Y*p.Y)
	return core.NewVec3(-f*p.X, -f*p.Y, 1)
}

// Intersect runs Newton's method from the vertex tangent plane until the step
// drops below eps. Divergence or leaving the conic domain is a miss.
func (e *EvenPolynomial) Intersect(p0, d core.Vec3, eps, zDir float64) (float64, core.Vec3, error) {
	if math.Abs(d.Z) < 1e-14 {
		return 0, core.Vec3{}, optics.ErrMissedSurface
	}
	maxIter := e.MaxIterations
	if maxIter <= 0 {
		maxIter = DefaultMaxIterations
	}

	s := -p0.Z / d.Z
	for i := 0; i < maxIter; i++ {
		p := p0.AddScaled(d, s)
		sag := e.Sag(p.X, p.Y)
		if math.IsNaN(sag) {
			return 0, core.Vec3{}, optics.ErrMissedSurface
		}
		g := e.gradient(p)
		slope := g.Dot(d)
		if slope == 0 || math.IsNaN(slope) {
			return 0, core.Vec3{}, optics.ErrMissedSurface
		}
		step := (p.Z - sag) / slope
		s -= step
		if math.Abs(step) <= eps {
			return s, p0.AddScaled(d, s), nil
		}
	}
	return 0, core.Vec3{}, optics.ErrMissedSurface
}

// Normal returns the unit normal pointing toward +z at the vertex
func (e *EvenPolynomial) Normal(p core.Vec3) core.Vec3 {
	return e.gradient(p).Normalize()
}

// Curvature returns the vertex curvature
func (e *EvenPolynomial) Curvature() float64 { return e.Cv }
