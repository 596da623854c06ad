package config

import (
	"fmt"
	"log/slog"
	"strconv"

	"github.com/df07/go-sequential-optics/pkg/analysis"
	"github.com/df07/go-sequential-optics/pkg/core"
	"github.com/df07/go-sequential-optics/pkg/geometry"
	"github.com/df07/go-sequential-optics/pkg/optics"
	"github.com/df07/go-sequential-optics/pkg/sequential"
)

// System is a built, updated model together with its optical spec and the
// analysis settings of the document it came from.
type System struct {
	Name     string
	Model    *sequential.Model
	Spec     *analysis.PupilSpec
	Analysis analysis.Config
}

// Build turns the document into a traced-ready system: the model is updated,
// the spec located and the clear apertures sized. logger may be nil.
func (d *Document) Build(logger *slog.Logger) (*System, error) {
	if err := d.Validate(); err != nil {
		return nil, err
	}

	m, err := d.Prescription.model()
	if err != nil {
		return nil, err
	}
	if err := m.SetWavelengths(d.Spec.Wavelengths...); err != nil {
		return nil, err
	}

	spec, err := d.Spec.pupilSpec()
	if err != nil {
		return nil, err
	}
	cfg := d.Settings.analysisConfig(logger)

	if err := analysis.Attach(m, spec, cfg); err != nil {
		return nil, fmt.Errorf("config: %s: %w", d.Name, err)
	}
	return &System{Name: d.Name, Model: m, Spec: spec, Analysis: cfg}, nil
}

func (s Settings) analysisConfig(logger *slog.Logger) analysis.Config {
	cfg := analysis.DefaultConfig()
	if s.Tolerance > 0 {
		cfg.Tolerance = s.Tolerance
	}
	cfg.Workers = s.Workers
	if s.FanSamples > 0 {
		cfg.FanSamples = s.FanSamples
	}
	cfg.Logger = logger
	return cfg
}

func (s Spec) pupilSpec() (*analysis.PupilSpec, error) {
	ft, err := analysis.ParseFieldType(s.FieldType)
	if err != nil {
		return nil, err
	}
	spec := analysis.NewPupilSpec(s.EntranceRadius)
	spec.Wvls = append([]float64(nil), s.Wavelengths...)
	spec.RefWvl = s.Reference
	spec.Type = ft
	spec.Fields = make([][2]float64, len(s.Fields))
	for i, f := range s.Fields {
		spec.Fields[i] = [2]float64{f[0], f[1]}
	}
	spec.EntranceZ = s.EntranceZ
	spec.ExitPupilDist = s.ExitPupilDist
	return spec, nil
}

func (p Prescription) model() (*sequential.Model, error) {
	m := sequential.NewModel()
	if err := m.SetThickness(0, p.ObjectDistance); err != nil {
		return nil, err
	}
	if p.ObjectIndex > 0 {
		medium, err := sequential.MediumFor(p.ObjectIndex, 0)
		if err != nil {
			return nil, err
		}
		if err := m.SetMedium(0, medium); err != nil {
			return nil, err
		}
	}

	for i, s := range p.Surfaces {
		if err := s.add(m); err != nil {
			return nil, fmt.Errorf("config: surface %d: %w", i+1, err)
		}
	}
	stop := p.Stop
	if stop == 0 {
		stop = 1
	}
	if err := m.SetStop(stop); err != nil {
		return nil, err
	}
	return m, nil
}

func (s Surface) curvature() float64 {
	if s.Radius != 0 {
		return 1 / s.Radius
	}
	return s.Curvature
}

// add appends the row after the model's cursor
func (s Surface) add(m *sequential.Model) error {
	sd := sequential.SurfaceData{
		Curvature: s.curvature(),
		Thickness: s.Thickness,
		Index:     s.Index,
		VNumber:   s.VNumber,
		Reflect:   s.Mode == "reflect",
		Label:     s.Label,
	}
	switch {
	case s.Glass != "":
		code, err := strconv.ParseFloat(s.Glass, 64)
		if err != nil {
			return fmt.Errorf("glass code %q: %w", s.Glass, err)
		}
		sd.Index, sd.VNumber = code, 0
	case sd.Index == 0:
		sd.Index, sd.VNumber = 1, 0
	}

	idx, err := m.AddSurface(sd)
	if err != nil {
		return err
	}

	switch {
	case len(s.Aspheric) > 0:
		err = m.SetProfile(idx, geometry.NewEvenPolynomial(sd.Curvature, s.Conic, s.Aspheric...))
	case s.Conic != 0:
		err = m.SetProfile(idx, geometry.NewConic(sd.Curvature, s.Conic))
	case sd.Curvature == 0:
		err = m.SetProfile(idx, geometry.NewPlane())
	}
	if err != nil {
		return err
	}

	if s.Grating != nil {
		m.Surface(idx).Element = geometry.NewGrating(s.Grating.LinesPerMM, s.Grating.Order)
		if err := m.SetMode(idx, optics.Phase); err != nil {
			return err
		}
	}

	if s.Decenter != nil {
		dec, err := s.Decenter.decenter()
		if err != nil {
			return err
		}
		if err := m.SetDecenter(idx, dec); err != nil {
			return err
		}
	}
	return nil
}

func (d Decenter) decenter() (*optics.Decenter, error) {
	typ, err := optics.ParseDecenterType(d.Type)
	if err != nil {
		return nil, err
	}
	return optics.NewDecenter(typ, vec(d.Offset), vec(d.Tilt)), nil
}

func vec(v []float64) core.Vec3 {
	if len(v) != 3 {
		return core.Vec3{}
	}
	return core.NewVec3(v[0], v[1], v[2])
}
