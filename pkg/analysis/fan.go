package analysis

import (
	"context"
	"fmt"

	"github.com/df07/go-sequential-optics/pkg/sequential"
)

// FanAxis selects the pupil axis a ray fan runs along
type FanAxis int

const (
	FanX FanAxis = iota
	FanY
)

func (a FanAxis) String() string {
	if a == FanX {
		return "x"
	}
	return "y"
}

// ParseFanAxis converts "x" or "y" into a FanAxis
func ParseFanAxis(s string) (FanAxis, error) {
	switch s {
	case "x", "X":
		return FanX, nil
	case "y", "Y":
		return FanY, nil
	}
	return FanY, fmt.Errorf("analysis: unknown fan axis %q", s)
}

// FanCurve is the transverse aberration of one wavelength along a pupil axis:
// Deviation[i] is the image-plane offset, along the same axis, of the ray
// through Pupil[i] from the reference-wavelength chief ray.
type FanCurve struct {
	Wavelength float64
	Pupil      []float64
	Deviation  []float64
}

// TraceFan traces cfg.FanSamples rays evenly spaced from -1 to 1 along axis,
// for every wavelength of spec, and reports their image-plane deviation from
// the chief ray of field fi.
func TraceFan(ctx context.Context, m *sequential.Model, spec OpticalSpec, fi int, axis FanAxis, cfg Config) ([]FanCurve, error) {
	num := cfg.FanSamples
	if num < 2 {
		return nil, fmt.Errorf("analysis: a fan needs at least 2 samples, got %d", num)
	}
	if fi < 0 || fi >= spec.FieldCount() {
		return nil, fmt.Errorf("%w: %d of %d", ErrFieldOutOfRange, fi, spec.FieldCount())
	}

	chief, err := TraceRay(m, spec, fi, [2]float64{}, spec.ReferenceWavelength(), cfg)
	if err != nil {
		return nil, err
	}
	central := imagePoint(chief).Component(int(axis))

	wvls := spec.Wavelengths()
	samples := make([]RaySample, 0, len(wvls)*num)
	for _, wvl := range wvls {
		for j := 0; j < num; j++ {
			var p [2]float64
			p[axis] = -1 + 2*float64(j)/float64(num-1)
			samples = append(samples, RaySample{Field: fi, Wavelength: wvl, Pupil: p})
		}
	}
	if err := traceRays(ctx, "fan", m, spec, cfg, samples); err != nil {
		return nil, err
	}

	fans := make([]FanCurve, len(wvls))
	for wi, wvl := range wvls {
		fan := FanCurve{
			Wavelength: wvl,
			Pupil:      make([]float64, num),
			Deviation:  make([]float64, num),
		}
		for j := 0; j < num; j++ {
			s := samples[wi*num+j]
			fan.Pupil[j] = s.Pupil[axis]
			fan.Deviation[j] = imagePoint(s.Result).Component(int(axis)) - central
		}
		fans[wi] = fan
	}
	return fans, nil
}
