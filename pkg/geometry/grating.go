package geometry

import (
	"math"

	"github.com/df07/go-sequential-optics/pkg/core"
	"github.com/df07/go-sequential-optics/pkg/optics"
)

// nmToMM converts wavelengths (nm) into system length units (mm)
const nmToMM = 1e-6

// Grating is a transmission diffraction grating ruled on the surface it is
// attached to. GratingVector is the in-surface direction perpendicular to the
// rulings; LinesPerMM is the ruling frequency.
type Grating struct {
	LinesPerMM    float64
	Order         int
	GratingVector core.Vec3
}

// NewGrating creates a grating whose rulings run along x (grating vector +y)
func NewGrating(linesPerMM float64, order int) *Grating {
	return &Grating{
		LinesPerMM:    linesPerMM,
		Order:         order,
		GratingVector: core.NewVec3(0, 1, 0),
	}
}

// Phase applies the vector grating equation
//
//	n' d'_t = n d_t + m λ ν g_t
//
// where _t marks components tangent to the surface. The normal component is
// chosen so |d'| = 1 and its sense follows the refraction law. The returned
// optical path is the grating phase m λ ν (g·p) at the hit point.
func (g *Grating) Phase(pt, dIn, normal core.Vec3, wvl, nIn, nOut float64) (core.Vec3, float64, error) {
	n := normal.Normalize()
	cosI := dIn.Dot(n)
	mlv := float64(g.Order) * wvl * nmToMM * g.LinesPerMM

	gt := g.GratingVector.Subtract(n.Multiply(g.GratingVector.Dot(n)))
	tangential := dIn.Subtract(n.Multiply(cosI)).Multiply(nIn).Add(gt.Multiply(mlv))

	rad := nOut*nOut - tangential.LengthSquared()
	if rad < 0 {
		return core.Vec3{}, 0, optics.ErrTotalInternalReflection
	}
	nCosIp := math.Copysign(math.Sqrt(rad), nOut*cosI)
	dOut := tangential.Add(n.Multiply(nCosIp)).Multiply(1 / nOut)

	return dOut, mlv * g.GratingVector.Dot(pt), nil
}
