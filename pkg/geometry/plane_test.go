package geometry

import (
	"errors"
	"math"
	"testing"

	"github.com/df07/go-sequential-optics/pkg/core"
	"github.com/df07/go-sequential-optics/pkg/optics"
)

func TestPlane_Intersect_Basic(t *testing.T) {
	plane := NewPlane()

	// Ray travelling along +z from 5 units in front of the vertex
	s, p, err := plane.Intersect(core.NewVec3(1, 2, -5), core.NewVec3(0, 0, 1), 1e-12, 1)
	if err != nil {
		t.Fatalf("Expected hit, got %v", err)
	}

	if math.Abs(s-5) > 1e-12 {
		t.Errorf("Expected s=5, got s=%f", s)
	}

	expectedPoint := core.NewVec3(1, 2, 0)
	if p.Subtract(expectedPoint).Length() > 1e-12 {
		t.Errorf("Expected hit point %v, got %v", expectedPoint, p)
	}
}

func TestPlane_Intersect_ParallelRay(t *testing.T) {
	plane := NewPlane()

	_, _, err := plane.Intersect(core.NewVec3(0, 0, -1), core.NewVec3(1, 0, 0), 1e-12, 1)
	if !errors.Is(err, optics.ErrMissedSurface) {
		t.Errorf("Expected missed surface for parallel ray, got %v", err)
	}
}

func TestPlane_Intersect_BehindRay(t *testing.T) {
	plane := NewPlane()

	// Sequential tracing allows virtual (negative) segments
	s, _, err := plane.Intersect(core.NewVec3(0, 0, 3), core.NewVec3(0, 0, 1), 1e-12, 1)
	if err != nil {
		t.Fatalf("Expected virtual hit, got %v", err)
	}
	if math.Abs(s+3) > 1e-12 {
		t.Errorf("Expected s=-3, got s=%f", s)
	}
}

func TestPlane_Normal(t *testing.T) {
	n := NewPlane().Normal(core.NewVec3(4, -2, 0))
	if n != core.NewVec3(0, 0, 1) {
		t.Errorf("Expected +z normal, got %v", n)
	}
}
