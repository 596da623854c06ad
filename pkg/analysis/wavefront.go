package analysis

import (
	"context"
	"fmt"
	"log/slog"
	"math"
	"time"

	"github.com/df07/go-sequential-optics/pkg/core"
	"github.com/df07/go-sequential-optics/pkg/optics"
	"github.com/df07/go-sequential-optics/pkg/sequential"
	"github.com/df07/go-sequential-optics/pkg/trace"
)

// ReferenceSphere is the sphere centered on the chief ray's image point that
// passes through the exit pupil. Everything is in the frame of the last
// interface before the image.
type ReferenceSphere struct {
	ImagePoint     core.Vec3
	ExitPupilPoint core.Vec3
	ExitPupilDist  float64 // signed distance along the chief ray from its last interface to the pupil
	RefDir         core.Vec3
	Radius         float64
}

// NewReferenceSphere builds the reference sphere from a completed chief ray.
// dec is the decenter of the last interface before the image, expDstParax the
// paraxial exit pupil distance used when the chief ray runs along the axis.
func NewReferenceSphere(path *sequential.Path, dec *optics.Decenter, chief *trace.Result, expDstParax float64) (ReferenceSphere, error) {
	n := path.Len()
	if chief == nil || len(chief.Ray) != n {
		return ReferenceSphere{}, fmt.Errorf("%w: chief ray incomplete", ErrUnusableRay)
	}
	k := n - 2
	imgPt := path.Transforms[k].Apply(chief.Last().Point)

	expPt, expDst := trace.TransferToExitPupil(dec, chief.Ray[k], expDstParax)
	if dec != nil {
		if r, t, ok := dec.TransformAfter(); ok {
			expPt = r.MulVec(expPt.Add(t))
		}
	}

	v := imgPt.Subtract(expPt)
	radius := v.Length()
	if radius == 0 {
		return ReferenceSphere{}, fmt.Errorf("analysis: image point lies in the exit pupil")
	}
	return ReferenceSphere{
		ImagePoint:     imgPt,
		ExitPupilPoint: expPt,
		ExitPupilDist:  expDst,
		RefDir:         v.Multiply(1 / radius),
		Radius:         radius,
	}, nil
}

// FieldReference holds what a field contributes to every OPD evaluation: the
// chief ray, its reference sphere and the signed object and image indices.
type FieldReference struct {
	Sphere ReferenceSphere
	Chief  *trace.Result
	NObj   float64
	NImg   float64

	objToFirst core.Transform
}

// NewFieldReference prepares OPD evaluation against a traced chief ray
func NewFieldReference(path *sequential.Path, dec *optics.Decenter, chief *trace.Result, expDstParax float64) (*FieldReference, error) {
	sphere, err := NewReferenceSphere(path, dec, chief, expDstParax)
	if err != nil {
		return nil, err
	}
	k := path.Len() - 2
	return &FieldReference{
		Sphere:     sphere,
		Chief:      chief,
		NObj:       path.SignedIndex(0),
		NImg:       path.SignedIndex(k),
		objToFirst: path.Transforms[0],
	}, nil
}

// OPD is an optical path difference with the chord terms it was built from:
// E1 at interface 1, EKp after the last interface and Ep from that interface
// to the reference sphere.
type OPD struct {
	OPD float64
	E1  float64
	EKp float64
	Ep  float64
}

// WaveAbr returns the optical path difference of ray against the chief ray,
// measured on the reference sphere. ray must be a completed trace at the
// wavelength of the chief ray.
func (f *FieldReference) WaveAbr(ray *trace.Result) (OPD, error) {
	cr := f.Chief
	if ray == nil || len(ray.Ray) != len(cr.Ray) || len(ray.Ray) < 3 {
		return OPD{}, ErrUnusableRay
	}
	k := len(ray.Ray) - 2
	ref := f.Sphere

	// equally inclined chord at interface 1, with the incoming directions
	// brought into its frame
	d0 := f.objToFirst.ToChildDir(ray.Ray[0].Dir)
	c0 := f.objToFirst.ToChildDir(cr.Ray[0].Dir)
	e1 := trace.EICDistance(ray.Ray[1].Point, d0, cr.Ray[1].Point, c0)

	seg, crSeg := ray.Ray[k], cr.Ray[k]
	ekp := trace.EICDistance(seg.Point, seg.Dir, crSeg.Point, crSeg.Dir)

	// point on the ray where it crosses the plane of the chief ray's pupil point
	dst := ekp - ref.ExitPupilDist
	eicExpPt := seg.Point.AddScaled(seg.Dir, -dst)
	pCoord := eicExpPt.Subtract(ref.ExitPupilPoint)

	// distance along the ray to the reference sphere, from the stable root of
	// ep^2/R - 2F ep + J = 0
	F := ref.RefDir.Dot(seg.Dir) - seg.Dir.Dot(pCoord)/ref.Radius
	J := pCoord.Dot(pCoord)/ref.Radius - 2*ref.RefDir.Dot(pCoord)
	disc := F*F + J/ref.Radius
	if disc < 0 {
		return OPD{}, fmt.Errorf("%w: ray does not reach the reference sphere", ErrUnusableRay)
	}
	ep := J / (F + math.Sqrt(disc))

	opd := -f.NObj*e1 - ray.OpDelta + f.NImg*ekp + cr.OpDelta - f.NImg*ep
	return OPD{OPD: opd, E1: e1, EKp: ekp, Ep: ep}, nil
}

// ChiefReference traces the chief ray of field fi at wvl and builds its
// reference sphere against the updated model.
func ChiefReference(m *sequential.Model, spec OpticalSpec, fi int, wvl float64, cfg Config) (*FieldReference, *sequential.Path, error) {
	path, err := m.Path(wvl)
	if err != nil {
		return nil, nil, err
	}
	chief, err := TraceRay(m, spec, fi, [2]float64{}, wvl, cfg)
	if err != nil {
		return nil, nil, err
	}
	dec := m.Surface(path.Len() - 2).Decenter
	ref, err := NewFieldReference(path, dec, chief, spec.ExitPupilDistance())
	if err != nil {
		return nil, nil, err
	}
	return ref, path, nil
}

// ComputeOPD traces the ray through pupil for field fi at wvl and returns its
// wavefront error relative to the field's chief ray.
func ComputeOPD(m *sequential.Model, spec OpticalSpec, fi int, wvl float64, pupil [2]float64, cfg Config) (OPD, error) {
	ref, _, err := ChiefReference(m, spec, fi, wvl, cfg)
	if err != nil {
		return OPD{}, err
	}
	ray, err := TraceRay(m, spec, fi, pupil, wvl, cfg)
	if err != nil {
		return OPD{}, err
	}
	return ref.WaveAbr(ray)
}

// WavefrontMap is the OPD sampled on a square grid over the unit pupil.
// Points outside the unit circle are NaN.
type WavefrontMap struct {
	Field      int
	Wavelength float64
	Pupil      []float64 // grid coordinates, shared by both axes
	OPD        [][]float64
}

// RMS returns the root mean square over the sampled points
func (w *WavefrontMap) RMS() float64 {
	sum, sumSq, cnt := 0.0, 0.0, 0
	for _, row := range w.OPD {
		for _, v := range row {
			if math.IsNaN(v) {
				continue
			}
			sum += v
			sumSq += v * v
			cnt++
		}
	}
	if cnt == 0 {
		return 0
	}
	mean := sum / float64(cnt)
	return math.Sqrt(math.Max(sumSq/float64(cnt)-mean*mean, 0))
}

// TraceWavefront samples the OPD of field fi at wvl on a num x num grid
func TraceWavefront(ctx context.Context, m *sequential.Model, spec OpticalSpec, fi int, wvl float64, num int, cfg Config) (*WavefrontMap, error) {
	if num < 2 {
		return nil, fmt.Errorf("analysis: a wavefront grid needs at least 2 samples, got %d", num)
	}
	ref, _, err := ChiefReference(m, spec, fi, wvl, cfg)
	if err != nil {
		return nil, err
	}

	grid := make([]float64, num)
	for i := range grid {
		grid[i] = -1 + 2*float64(i)/float64(num-1)
	}
	samples := make([]RaySample, 0, num*num)
	cells := make([][2]int, 0, num*num)
	for iy, py := range grid {
		for ix, px := range grid {
			if px*px+py*py > 1 {
				continue
			}
			samples = append(samples, RaySample{Field: fi, Wavelength: wvl, Pupil: [2]float64{px, py}})
			cells = append(cells, [2]int{ix, iy})
		}
	}

	start := time.Now()
	if err := traceRays(ctx, "wavefront", m, spec, cfg, samples); err != nil {
		return nil, err
	}

	wf := &WavefrontMap{Field: fi, Wavelength: wvl, Pupil: grid, OPD: make([][]float64, num)}
	for iy := range wf.OPD {
		row := make([]float64, num)
		for ix := range row {
			row[ix] = math.NaN()
		}
		wf.OPD[iy] = row
	}
	for i, s := range samples {
		opd, err := ref.WaveAbr(s.Result)
		if err != nil {
			return nil, &SampleError{Field: fi, Wavelength: wvl, Pupil: s.Pupil, Err: err}
		}
		wf.OPD[cells[i][1]][cells[i][0]] = opd.OPD
	}

	cfg.logger().Debug("wavefront sampled",
		slog.Int("field", fi),
		slog.Float64("wavelength", wvl),
		slog.Int("rays", len(samples)),
		slog.Float64("rms", wf.RMS()),
		slog.Duration("elapsed", time.Since(start)))
	return wf, nil
}
