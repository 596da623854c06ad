package sequential

import (
	"fmt"

	"github.com/df07/go-sequential-optics/pkg/geometry"
	"github.com/df07/go-sequential-optics/pkg/material"
	"github.com/df07/go-sequential-optics/pkg/optics"
)

// SurfaceData is one row of a lens prescription: vertex curvature, thickness
// of the following gap and the medium filling it.
//
// The medium is air when VNumber is 0 and Index is 1, a constant-index
// dielectric when VNumber is 0, and a dispersive glass otherwise. Index may
// also carry a numeric glass code (e.g. 517.642) with VNumber left 0. A
// Reflect row is a mirror; its gap keeps the medium of the preceding gap.
type SurfaceData struct {
	Curvature float64
	Thickness float64
	Index     float64
	VNumber   float64
	Reflect   bool
	Label     string
}

// AddSurface builds a spherical surface and gap from a prescription row and
// inserts them after the cursor.
func (m *Model) AddSurface(sd SurfaceData) (int, error) {
	s, g, err := m.newSurfaceAndGap(sd)
	if err != nil {
		return 0, err
	}
	return m.Insert(s, g)
}

func (m *Model) newSurfaceAndGap(sd SurfaceData) (*optics.Surface, *optics.Gap, error) {
	s := optics.NewSurface(sd.Label, geometry.NewSpherical(sd.Curvature))

	if sd.Reflect {
		s.Interact = optics.Reflect
		prev, err := m.gap(m.cur)
		if err != nil {
			return nil, nil, err
		}
		return s, optics.NewGap(sd.Thickness, prev.Medium), nil
	}

	medium, err := MediumFor(sd.Index, sd.VNumber)
	if err != nil {
		return nil, nil, err
	}
	return s, optics.NewGap(sd.Thickness, medium), nil
}

// MediumFor maps an (index, V-number) pair onto a medium
func MediumFor(index, vnumber float64) (optics.Medium, error) {
	switch {
	case index <= 0:
		return nil, fmt.Errorf("sequential: invalid refractive index %v", index)
	case vnumber == 0 && index == 1:
		return material.Air{}, nil
	case vnumber == 0 && index > 100:
		nd, vd := material.GlassDecode(index)
		return material.NewGlass(nd, vd, ""), nil
	case vnumber == 0:
		return material.NewDielectric(index), nil
	}
	return material.NewGlass(index, vnumber, ""), nil
}
