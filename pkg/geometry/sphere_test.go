package geometry

import (
	"errors"
	"math"
	"testing"

	"github.com/df07/go-sequential-optics/pkg/core"
	"github.com/df07/go-sequential-optics/pkg/optics"
)

func TestSpherical_Intersect_OnAxis(t *testing.T) {
	sphere := NewSpherical(0.1) // radius 10, center at z=10

	tests := []struct {
		name      string
		origin    core.Vec3
		direction core.Vec3
		zDir      float64
		expectedS float64
	}{
		{"forward from tangent plane", core.NewVec3(0, 0, 0), core.NewVec3(0, 0, 1), 1, 0},
		{"forward from object side", core.NewVec3(0, 0, -4), core.NewVec3(0, 0, 1), 1, 4},
		{"reverse from image side", core.NewVec3(0, 0, 4), core.NewVec3(0, 0, -1), -1, 4},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			s, p, err := sphere.Intersect(tt.origin, tt.direction, 1e-12, tt.zDir)
			if err != nil {
				t.Fatalf("Expected hit, got %v", err)
			}
			if math.Abs(s-tt.expectedS) > 1e-12 {
				t.Errorf("Expected s=%f, got s=%f", tt.expectedS, s)
			}
			if p.Length() > 1e-12 {
				t.Errorf("Expected vertex hit, got %v", p)
			}
		})
	}
}

func TestSpherical_Intersect_OffAxisLiesOnSurface(t *testing.T) {
	sphere := NewSpherical(0.1)
	origin := core.NewVec3(3, -2, -5)
	direction := core.NewVec3(0.05, 0.02, 1).Normalize()

	_, p, err := sphere.Intersect(origin, direction, 1e-12, 1)
	if err != nil {
		t.Fatalf("Expected hit, got %v", err)
	}

	// Distance from the center (0,0,10) must equal the radius
	center := core.NewVec3(0, 0, 10)
	if math.Abs(p.Subtract(center).Length()-10) > 1e-10 {
		t.Errorf("Intersection %v is not on the sphere", p)
	}
	if math.Abs(p.Z-sphere.Sag(p.X, p.Y)) > 1e-12 {
		t.Errorf("Intersection z=%f differs from sag %f", p.Z, sphere.Sag(p.X, p.Y))
	}
}

func TestSpherical_Intersect_Miss(t *testing.T) {
	sphere := NewSpherical(0.1)

	// Ray parallel to the axis outside the sphere radius
	_, _, err := sphere.Intersect(core.NewVec3(0, 12, 0), core.NewVec3(0, 0, 1), 1e-12, 1)
	if !errors.Is(err, optics.ErrMissedSurface) {
		t.Errorf("Expected missed surface, got %v", err)
	}
}

func TestSpherical_Normal(t *testing.T) {
	sphere := NewSpherical(0.1)

	n := sphere.Normal(core.NewVec3(0, 0, 0))
	if n.Subtract(core.NewVec3(0, 0, 1)).Length() > 1e-15 {
		t.Errorf("Expected +z normal at vertex, got %v", n)
	}

	// Normal at a point on the sphere points toward the center
	p := core.NewVec3(0, 6, 10-8)
	expected := core.NewVec3(0, 0, 10).Subtract(p).Normalize()
	if sphere.Normal(p).Subtract(expected).Length() > 1e-12 {
		t.Errorf("Expected normal %v, got %v", expected, sphere.Normal(p))
	}
}

func TestConic_ParaboloidSag(t *testing.T) {
	parabola := NewConic(0.02, -1) // z = cv r²/2

	origin := core.NewVec3(5, 0, -10)
	_, p, err := parabola.Intersect(origin, core.NewVec3(0, 0, 1), 1e-12, 1)
	if err != nil {
		t.Fatalf("Expected hit, got %v", err)
	}
	expectedZ := 0.02 * 25 / 2
	if math.Abs(p.Z-expectedZ) > 1e-12 {
		t.Errorf("Expected z=%f, got z=%f", expectedZ, p.Z)
	}
	if math.Abs(parabola.Sag(5, 0)-expectedZ) > 1e-12 {
		t.Errorf("Sag mismatch: %f", parabola.Sag(5, 0))
	}
}

func TestConic_ZeroConicMatchesSphere(t *testing.T) {
	sphere := NewSpherical(-0.05)
	conic := NewConic(-0.05, 0)
	origin := core.NewVec3(1, 2, -3)
	direction := core.NewVec3(-0.1, 0.05, 1).Normalize()

	s1, p1, err1 := sphere.Intersect(origin, direction, 1e-12, 1)
	s2, p2, err2 := conic.Intersect(origin, direction, 1e-12, 1)
	if err1 != nil || err2 != nil {
		t.Fatalf("Unexpected errors: %v, %v", err1, err2)
	}
	if math.Abs(s1-s2) > 1e-12 || p1.Subtract(p2).Length() > 1e-12 {
		t.Errorf("Sphere and K=0 conic disagree: %v vs %v", p1, p2)
	}
	if sphere.Normal(p1).Subtract(conic.Normal(p2)).Length() > 1e-12 {
		t.Errorf("Normals disagree")
	}
}
