// Package trace propagates rays through a sequential path, one interface at a
// time, and keeps the optical path bookkeeping on equally inclined chords.
package trace

import (
	"errors"
	"fmt"

	"github.com/df07/go-sequential-optics/pkg/core"
	"github.com/df07/go-sequential-optics/pkg/optics"
	"github.com/df07/go-sequential-optics/pkg/sequential"
)

// DefaultTolerance is the intersection accuracy used when none is given
const DefaultTolerance = 1.0e-12

// Segment is the ray state at one interface, in that interface's local frame:
// the intersection point, the direction leaving it, the distance travelled to
// the next interface and the surface normal at the point.
//
// The last segment of a completed trace has Dist 0.
type Segment struct {
	Point  core.Vec3
	Dir    core.Vec3
	Dist   float64
	Normal core.Vec3
}

// Result is a completed trace
type Result struct {
	Ray        []Segment
	OpDelta    float64 // optical path from interface 1 to the last interface before the image, less the axial path
	Wavelength float64
}

// Last returns the segment at the image interface
func (r *Result) Last() Segment {
	return r.Ray[len(r.Ray)-1]
}

// GlobalPoints maps every intersection point into a common frame. tfrms[i]
// places interface i in that frame, as returned by sequential.ComputeGlobalCoords.
func (r *Result) GlobalPoints(tfrms []core.Transform) ([]core.Vec3, error) {
	if len(tfrms) != len(r.Ray) {
		return nil, fmt.Errorf("%w: %d transforms for %d segments", ErrIncompleteRay, len(tfrms), len(r.Ray))
	}
	pts := make([]core.Vec3, len(r.Ray))
	for i, seg := range r.Ray {
		pts[i] = tfrms[i].Apply(seg.Point)
	}
	return pts, nil
}

// Trace propagates a ray starting at pt0 with unit direction dir0, both in the
// object interface frame, through every interface of path. eps is the
// intersection tolerance handed to the profiles.
//
// Geometric failures come back as *MissedSurfaceError or *TIRError carrying
// the partial ray. A malformed path yields sequential.ErrInconsistentModel.
func Trace(path *sequential.Path, pt0, dir0 core.Vec3, eps float64) (*Result, error) {
	if err := path.Validate(); err != nil {
		return nil, err
	}
	if eps <= 0 {
		eps = DefaultTolerance
	}
	wvl := path.Wavelength
	n := path.Len()

	obj := path.Interfaces[0]
	_, ptObj, err := obj.Intersect(pt0, dir0, eps, path.ZDirs[0])
	if err != nil {
		return nil, &MissedSurfaceError{Surface: 0, Err: err}
	}

	ray := make([]Segment, 0, n)
	ledger := make([]EICEntry, 0, n-1)
	opDelta := 0.0

	beforePt := ptObj
	beforeDir := dir0
	beforeNormal := obj.Normal(ptObj)
	zDirBefore := path.ZDirs[0]
	nBefore := path.SignedIndex(0)

	for i := 1; i < n; i++ {
		ifc := path.Interfaces[i]
		zDirAfter := path.ZDirs[i]
		nAfter := path.SignedIndex(i)

		// into the frame of interface i
		tf := path.Transforms[i-1]
		b4Pt := tf.ToChild(beforePt)
		b4Dir := tf.ToChildDir(beforeDir)

		// project to the tangent plane at the vertex, then refine
		ppDst := -b4Pt.Dot(b4Dir)
		ppPt := b4Pt.AddScaled(b4Dir, ppDst)

		s, incPt, err := ifc.Intersect(ppPt, b4Dir, eps, zDirBefore)
		if err != nil {
			ray = append(ray, Segment{beforePt, beforeDir, ppDst, beforeNormal})
			return nil, &MissedSurfaceError{Surface: i, Ray: ray, Err: err}
		}
		ray = append(ray, Segment{beforePt, beforeDir, ppDst + s, beforeNormal})

		normal := ifc.Normal(incPt)
		eBefore := eicFromVertex(incPt, b4Dir, zDirBefore)

		var afterDir core.Vec3
		switch ifc.Mode() {
		case optics.Reflect:
			afterDir = Reflect(b4Dir, normal)
		case optics.Phase:
			var phs float64
			afterDir, phs, err = ifc.Phase(incPt, b4Dir, normal, wvl, nBefore, nAfter)
			if err != nil {
				if errors.Is(err, optics.ErrTotalInternalReflection) {
					ray = append(ray, Segment{incPt, b4Dir, 0, normal})
					return nil, &TIRError{Surface: i, Point: incPt, Ray: ray}
				}
				return nil, fmt.Errorf("trace: phase surface %d: %w", i, err)
			}
			opDelta += phs
		default:
			afterDir, err = Bend(b4Dir, normal, nBefore, nAfter)
			if err != nil {
				ray = append(ray, Segment{incPt, b4Dir, 0, normal})
				return nil, &TIRError{Surface: i, Point: incPt, Ray: ray}
			}
		}

		eAfter := eicFromVertex(incPt, afterDir, zDirAfter)
		ledger = append(ledger, EICEntry{
			NBefore: nBefore,
			EBefore: eBefore,
			NAfter:  nAfter,
			EAfter:  eAfter,
			DW:      nAfter*eAfter - nBefore*eBefore,
		})

		beforePt = incPt
		beforeDir = afterDir
		beforeNormal = normal
		zDirBefore = zDirAfter
		nBefore = nAfter
	}

	ray = append(ray, Segment{beforePt, beforeDir, 0, beforeNormal})
	if len(ledger) > 1 {
		opDelta += PathLength(ledger)
	}

	return &Result{Ray: ray, OpDelta: opDelta, Wavelength: wvl}, nil
}

// TraceModel traces a ray through an updated model at wavelength wvl
func TraceModel(m *sequential.Model, pt0, dir0 core.Vec3, wvl, eps float64) (*Result, error) {
	path, err := m.Path(wvl)
	if err != nil {
		return nil, err
	}
	return Trace(path, pt0, dir0, eps)
}
