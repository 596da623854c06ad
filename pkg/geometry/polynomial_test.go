package geometry

import (
	"errors"
	"math"
	"testing"

	"github.com/df07/go-sequential-optics/pkg/core"
	"github.com/df07/go-sequential-optics/pkg/optics"
)

func TestEvenPolynomial_ZeroCoefsMatchesConic(t *testing.T) {
	asphere := NewEvenPolynomial(0.04, -0.5)
	conic := NewConic(0.04, -0.5)

	origin := core.NewVec3(2, -1, -6)
	direction := core.NewVec3(0.03, 0.04, 1).Normalize()

	s1, p1, err := asphere.Intersect(origin, direction, 1e-14, 1)
	if err != nil {
		t.Fatalf("Asphere intersect failed: %v", err)
	}
	s2, p2, err := conic.Intersect(origin, direction, 1e-14, 1)
	if err != nil {
		t.Fatalf("Conic intersect failed: %v", err)
	}

	if math.Abs(s1-s2) > 1e-10 {
		t.Errorf("Expected s=%f, got s=%f", s2, s1)
	}
	if p1.Subtract(p2).Length() > 1e-10 {
		t.Errorf("Expected point %v, got %v", p2, p1)
	}
	if asphere.Normal(p1).Subtract(conic.Normal(p2)).Length() > 1e-10 {
		t.Errorf("Normals disagree: %v vs %v", asphere.Normal(p1), conic.Normal(p2))
	}
}

func TestEvenPolynomial_DeformationTerm(t *testing.T) {
	asphere := NewEvenPolynomial(0, 0, 1e-3) // z = 1e-3 r⁴

	_, p, err := asphere.Intersect(core.NewVec3(2, 0, -1), core.NewVec3(0, 0, 1), 1e-14, 1)
	if err != nil {
		t.Fatalf("Expected hit, got %v", err)
	}
	if math.Abs(p.Z-0.016) > 1e-12 {
		t.Errorf("Expected z=0.016, got z=%f", p.Z)
	}
}

func TestEvenPolynomial_MissOutsideDomain(t *testing.T) {
	asphere := NewEvenPolynomial(0.1, 0) // sphere of radius 10

	_, _, err := asphere.Intersect(core.NewVec3(0, 15, -1), core.NewVec3(0, 0, 1), 1e-12, 1)
	if !errors.Is(err, optics.ErrMissedSurface) {
		t.Errorf("Expected missed surface, got %v", err)
	}
}

func TestGrating_FirstOrder(t *testing.T) {
	tests := []struct {
		name       string
		linesPerMM float64
		order      int
		wvl        float64
		expectedY  float64
	}{
		{"zero order passes straight", 600, 0, 500, 0},
		{"first order", 600, 1, 500, 0.3},
		{"minus first order", 600, -1, 500, -0.3},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			g := NewGrating(tt.linesPerMM, tt.order)
			normal := core.NewVec3(0, 0, 1)
			dOut, _, err := g.Phase(core.Vec3{}, core.NewVec3(0, 0, 1), normal, tt.wvl, 1, 1)
			if err != nil {
				t.Fatalf("Unexpected error: %v", err)
			}
			if math.Abs(dOut.Y-tt.expectedY) > 1e-12 {
				t.Errorf("Expected sin(theta)=%f, got %f", tt.expectedY, dOut.Y)
			}
			if math.Abs(dOut.Length()-1) > 1e-12 {
				t.Errorf("Outgoing direction not unit: %f", dOut.Length())
			}
			if dOut.Z <= 0 {
				t.Errorf("Expected transmitted ray to keep travelling +z, got %v", dOut)
			}
		})
	}
}

func TestGrating_EvanescentOrder(t *testing.T) {
	g := NewGrating(2000, 1)

	_, _, err := g.Phase(core.Vec3{}, core.NewVec3(0, 0, 1), core.NewVec3(0, 0, 1), 600, 1, 1)
	if !errors.Is(err, optics.ErrTotalInternalReflection) {
		t.Errorf("Expected evanescent order error, got %v", err)
	}
}

func TestGrating_PhaseAlongVector(t *testing.T) {
	g := NewGrating(1000, 1)

	_, phase, err := g.Phase(core.NewVec3(0, 2, 0), core.NewVec3(0, 0, 1), core.NewVec3(0, 0, 1), 500, 1, 1)
	if err != nil {
		t.Fatalf("Unexpected error: %v", err)
	}
	// m λ ν y = 1 * 5e-4 mm * 1000/mm * 2 mm
	if math.Abs(phase-1.0) > 1e-12 {
		t.Errorf("Expected phase 1.0, got %f", phase)
	}
}
