package trace

import (
	"math"

	"github.com/df07/go-sequential-optics/pkg/core"
	"github.com/df07/go-sequential-optics/pkg/optics"
)

// Bend refracts the unit direction d at a surface with normal g, going from
// index n1 into index n2 (vector form of Snell's law). Indices are signed:
// both are negative while the ray travels against the local z axis.
// Returns optics.ErrTotalInternalReflection beyond the critical angle.
func Bend(d, g core.Vec3, n1, n2 float64) (core.Vec3, error) {
	g = g.Normalize()
	cosI := d.Dot(g)
	sin2I := 1.0 - cosI*cosI

	rad := n2*n2 - n1*n1*sin2I
	if rad < 0 {
		return core.Vec3{}, optics.ErrTotalInternalReflection
	}
	// the root keeps the ray on the far side of the surface, which for a
	// folded path (both indices negative) is sign(n2*cosI)
	nCosIp := math.Copysign(math.Sqrt(rad), n2*cosI)

	return d.Multiply(n1).AddScaled(g, nCosIp-n1*cosI).Multiply(1 / n2), nil
}

// Reflect mirrors the direction d about the surface with normal g
func Reflect(d, g core.Vec3) core.Vec3 {
	g = g.Normalize()
	return d.AddScaled(g, -2*d.Dot(g))
}
