package analysis

import (
	"context"
	"fmt"
	"log/slog"
	"math"

	"github.com/df07/go-sequential-optics/pkg/optics"
	"github.com/df07/go-sequential-optics/pkg/sequential"
)

// BoundaryPupils are the pupil points whose rays bound the beam: the center
// and the four extremes of the x and y axes.
var BoundaryPupils = [][2]float64{
	{0, 0},
	{1, 0},
	{-1, 0},
	{0, 1},
	{0, -1},
}

// TraceBoundaryRays traces the boundary pupil points for every field and
// wavelength of spec. Samples are ordered by field, then wavelength, then
// pupil point.
func TraceBoundaryRays(ctx context.Context, m *sequential.Model, spec OpticalSpec, cfg Config) ([]RaySample, error) {
	wvls := spec.Wavelengths()
	samples := make([]RaySample, 0, spec.FieldCount()*len(wvls)*len(BoundaryPupils))
	for fi := 0; fi < spec.FieldCount(); fi++ {
		for _, wvl := range wvls {
			for _, p := range BoundaryPupils {
				samples = append(samples, RaySample{Field: fi, Wavelength: wvl, Pupil: p})
			}
		}
	}

	if err := traceRays(ctx, "boundary_rays", m, spec, cfg, samples); err != nil {
		return nil, err
	}
	return samples, nil
}

// SetClearApertures sizes every interface's clear aperture as a circle just
// containing all traced rays. Every sample must carry a completed trace.
func SetClearApertures(m *sequential.Model, samples []RaySample) error {
	n := m.NumSurfaces()
	radii := make([]float64, n)
	for _, s := range samples {
		if s.Result == nil || len(s.Result.Ray) != n {
			return fmt.Errorf("%w: field %d, wavelength %g, pupil %v", ErrUnusableRay, s.Field, s.Wavelength, s.Pupil)
		}
		for i, seg := range s.Result.Ray {
			radii[i] = math.Max(radii[i], seg.Point.Radial())
		}
	}

	for i, r := range radii {
		m.Surface(i).SetClearAperture(optics.Circular{Radius: r})
	}
	return nil
}

// ComputeClearApertures traces the boundary rays and sizes the clear apertures
func ComputeClearApertures(ctx context.Context, m *sequential.Model, spec OpticalSpec, cfg Config) error {
	samples, err := TraceBoundaryRays(ctx, m, spec, cfg)
	if err != nil {
		return err
	}
	if err := SetClearApertures(m, samples); err != nil {
		return err
	}
	cfg.logger().Debug("clear apertures updated",
		slog.Int("surfaces", m.NumSurfaces()),
		slog.Int("rays", len(samples)))
	return nil
}

// ClearApertureSizer recomputes clear apertures whenever the model updates
type ClearApertureSizer struct {
	Spec   OpticalSpec
	Config Config
}

// UpdateModel runs ComputeClearApertures against the freshly updated model
func (c *ClearApertureSizer) UpdateModel(m *sequential.Model) error {
	return ComputeClearApertures(context.Background(), m, c.Spec, c.Config)
}

// Attach registers spec and a clear aperture sizer as update hooks of m, in
// that order, and updates the model.
func Attach(m *sequential.Model, spec OpticalSpec, cfg Config) error {
	m.AddUpdateHook(spec)
	m.AddUpdateHook(&ClearApertureSizer{Spec: spec, Config: cfg})
	return m.Update()
}
